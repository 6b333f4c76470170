package research

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedEngine() *TemplateEngine {
	return &TemplateEngine{
		Now: func() time.Time {
			return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		},
	}
}

func TestTemplateEngineDeterministic(t *testing.T) {
	e := fixedEngine()
	req := Request{
		Query:         "edge caching strategies",
		ReportType:    ReportTypeResearch,
		ReportSource:  SourceWeb,
		MaxIterations: 3,
		Retriever:     "tavily",
	}

	first, err := e.Research(context.Background(), req)
	require.NoError(t, err)
	second, err := e.Research(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Report, second.Report)
	assert.Equal(t, first.Citations, second.Citations)
	assert.Equal(t, first.Metadata, second.Metadata)
	assert.Equal(t, "2026-03-01T12:00:00Z", first.Metadata["timestamp"])
}

func TestTemplateEngineReportTypes(t *testing.T) {
	e := fixedEngine()
	base := Request{Query: "topic", ReportSource: SourceWeb, Retriever: "tavily", MaxIterations: 1}

	cases := []struct {
		reportType string
		heading    string
	}{
		{ReportTypeResearch, "# Research Report: topic"},
		{ReportTypeOutline, "# Research Outline: topic"},
		{ReportTypeResource, "# Resource Report: topic"},
	}
	for _, tc := range cases {
		req := base
		req.ReportType = tc.reportType
		report, err := e.Research(context.Background(), req)
		require.NoError(t, err)
		assert.Contains(t, report.Report, tc.heading)
	}
}

func TestTemplateEngineLocalNeedsDocPath(t *testing.T) {
	e := fixedEngine()

	_, err := e.Research(context.Background(), Request{
		Query:        "findings",
		ReportSource: SourceLocal,
		Retriever:    "local",
	})
	assert.Error(t, err)
}

func TestTemplateEngineHonorsCancellation(t *testing.T) {
	e := fixedEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Research(ctx, Request{Query: "q", ReportSource: SourceWeb})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTemplateEngineCitationsPerRetriever(t *testing.T) {
	e := fixedEngine()

	report, err := e.Research(context.Background(), Request{
		Query:        "Vector Databases",
		ReportSource: SourceHybrid,
		Retriever:    "tavily,mcp",
		DocPath:      "/data/docs",
	})
	require.NoError(t, err)

	assert.Contains(t, report.Citations, "tavily://search/vector-databases")
	assert.Contains(t, report.Citations, "mcp://search/vector-databases")
	assert.Contains(t, report.Citations, "file:///data/docs")
}

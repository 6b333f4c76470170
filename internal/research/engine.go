// Package research exposes GPT Researcher style capabilities as a
// capability catalog: research tools, documentation resources, and
// prompt templates.
package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gptr-ai/researcher-mcp/pkg/errors"
)

// Report source and type literals shared by tools and the engine.
const (
	SourceWeb    = "web"
	SourceLocal  = "local"
	SourceHybrid = "hybrid"

	ReportTypeResearch = "research_report"
	ReportTypeResource = "resource_report"
	ReportTypeOutline  = "outline_report"
)

// Request carries the parameters of one research run.
type Request struct {
	Query         string
	ReportType    string
	ReportSource  string
	MaxIterations int
	DocPath       string
	Retriever     string

	// Deep research parameters.
	Depth   int
	Breadth int

	// MCP server configurations for hybrid research.
	MCPConfigs []map[string]interface{}
}

// Report is the product of a research run.
type Report struct {
	Report    string
	Citations []string
	Metadata  map[string]interface{}
}

// Engine runs research requests. Implementations are expected to honor
// context cancellation; a run may take minutes.
type Engine interface {
	Research(ctx context.Context, req Request) (*Report, error)
	DeepResearch(ctx context.Context, req Request) (*Report, error)
}

// Structured failure constructors. The cause tags travel inside the
// invocation envelope so clients can branch without parsing messages.

func errDependencyMissing(what string) errors.Error {
	return errors.NewError(
		errors.CodeHandlerFailed,
		fmt.Sprintf("%s is not available", what),
		errors.CategoryHandler,
		errors.SeverityError,
	).WithCauseTag("dependency_missing")
}

func errMissingCredential(key string) errors.Error {
	return errors.NewError(
		errors.CodeHandlerFailed,
		fmt.Sprintf("%s is not set; set it to enable this research source", key),
		errors.CategoryHandler,
		errors.SeverityError,
	).WithCauseTag("missing_credential")
}

func errResearchFailed(cause error) errors.Error {
	return errors.WrapError(
		cause,
		errors.CodeHandlerFailed,
		fmt.Sprintf("research failed: %v", cause),
		errors.CategoryHandler,
		errors.SeverityError,
	).WithCauseTag("research_failed")
}

// TemplateEngine is the built-in engine. It produces deterministic
// outline-style reports from the request alone, standing in for an
// external research backend while keeping every run reproducible.
type TemplateEngine struct {
	// Now supplies the report timestamp. Defaults to time.Now.
	Now func() time.Time
}

// NewTemplateEngine creates a TemplateEngine.
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{Now: time.Now}
}

func (e *TemplateEngine) timestamp() string {
	now := e.Now
	if now == nil {
		now = time.Now
	}
	return now().UTC().Format(time.RFC3339)
}

// Research produces a report for a single-pass run.
func (e *TemplateEngine) Research(ctx context.Context, req Request) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.ReportSource == SourceLocal && req.DocPath == "" {
		return nil, fmt.Errorf("doc_path is required for local research")
	}

	citations := e.citations(req)
	report := e.render(req, citations)

	return &Report{
		Report:    report,
		Citations: citations,
		Metadata: map[string]interface{}{
			"query":          req.Query,
			"report_type":    req.ReportType,
			"report_source":  req.ReportSource,
			"max_iterations": req.MaxIterations,
			"retriever":      req.Retriever,
			"timestamp":      e.timestamp(),
			"total_sources":  len(citations),
		},
	}, nil
}

// DeepResearch produces a report for a recursive run, exploring
// Breadth subtopics per level down to Depth levels.
func (e *TemplateEngine) DeepResearch(ctx context.Context, req Request) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	citations := e.citations(req)
	subtopics := req.Depth * req.Breadth

	var b strings.Builder
	fmt.Fprintf(&b, "# Deep Research Report: %s\n\n", req.Query)
	for level := 1; level <= req.Depth; level++ {
		fmt.Fprintf(&b, "## Level %d\n\n", level)
		for i := 1; i <= req.Breadth; i++ {
			fmt.Fprintf(&b, "- Subtopic %d.%d of %q\n", level, i, req.Query)
		}
		b.WriteString("\n")
	}
	b.WriteString(renderCitations(citations))

	return &Report{
		Report:    b.String(),
		Citations: citations,
		Metadata: map[string]interface{}{
			"query":              req.Query,
			"research_type":      "deep_research",
			"depth":              req.Depth,
			"breadth":            req.Breadth,
			"max_iterations":     req.MaxIterations,
			"timestamp":          e.timestamp(),
			"total_sources":      len(citations),
			"subtopics_explored": subtopics,
		},
	}, nil
}

// citations derives one citation per retriever the request names, plus
// the document path for local and hybrid runs.
func (e *TemplateEngine) citations(req Request) []string {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(req.Query)), " ", "-")

	var citations []string
	for _, retriever := range strings.Split(req.Retriever, ",") {
		retriever = strings.TrimSpace(retriever)
		if retriever == "" || retriever == "local" {
			continue
		}
		citations = append(citations, fmt.Sprintf("%s://search/%s", retriever, slug))
	}
	if req.DocPath != "" {
		citations = append(citations, fmt.Sprintf("file://%s", req.DocPath))
	}
	for _, cfg := range req.MCPConfigs {
		if name, ok := cfg["name"].(string); ok && name != "" {
			citations = append(citations, fmt.Sprintf("mcp://%s/%s", name, slug))
		}
	}
	return citations
}

func (e *TemplateEngine) render(req Request, citations []string) string {
	var b strings.Builder
	switch req.ReportType {
	case ReportTypeOutline:
		fmt.Fprintf(&b, "# Research Outline: %s\n\n", req.Query)
		b.WriteString("1. Main research question\n")
		b.WriteString("2. Key subtopics\n")
		b.WriteString("3. Sources to investigate\n")
		b.WriteString("4. Expected findings\n\n")
	case ReportTypeResource:
		fmt.Fprintf(&b, "# Resource Report: %s\n\n", req.Query)
		b.WriteString("## Recommended Sources\n\n")
		for _, c := range citations {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	default:
		fmt.Fprintf(&b, "# Research Report: %s\n\n", req.Query)
		fmt.Fprintf(&b, "## Findings\n\nResearch on %q over %d iteration(s) via %s sources.\n\n",
			req.Query, req.MaxIterations, req.ReportSource)
	}
	b.WriteString(renderCitations(citations))
	return b.String()
}

func renderCitations(citations []string) string {
	if len(citations) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## References\n\n")
	for i, c := range citations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}
	return b.String()
}

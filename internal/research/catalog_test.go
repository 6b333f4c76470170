package research

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gptr-ai/researcher-mcp/pkg/dispatcher"
	"github.com/gptr-ai/researcher-mcp/pkg/protocol"
	"github.com/gptr-ai/researcher-mcp/pkg/registry"
)

func fullSettings() Settings {
	return Settings{
		OpenAIAPIKey: "sk-test",
		TavilyAPIKey: "tvly-test",
		GitHubToken:  "ghp-test",
		Retriever:    "tavily",
		DocPath:      "/data/docs",
	}
}

func newTestDispatcher(t *testing.T, engine Engine, settings Settings) *dispatcher.Dispatcher {
	t.Helper()
	reg := registry.New()
	require.NoError(t, NewCatalog(engine, settings).Register(reg))
	return dispatcher.New(reg)
}

func TestRegisterPopulatesAllNamespaces(t *testing.T) {
	reg := registry.New()
	require.NoError(t, NewCatalog(NewTemplateEngine(), fullSettings()).Register(reg))

	tools := reg.Tools()
	require.Len(t, tools, 6)
	assert.Equal(t, "conduct_research", tools[0].Name)
	assert.Equal(t, "research_local_documents", tools[1].Name)
	assert.Equal(t, "deep_research", tools[2].Name)
	assert.Equal(t, "hybrid_research_with_mcp", tools[3].Name)
	assert.Equal(t, "get_research_capabilities", tools[4].Name)
	assert.Equal(t, "validate_research_setup", tools[5].Name)

	resources := reg.Resources()
	require.Len(t, resources, 3)
	assert.Equal(t, "gpt-researcher://docs/installation", resources[0].URI)
	assert.Equal(t, "gpt-researcher://docs/examples", resources[1].URI)
	assert.Equal(t, "gpt-researcher://config/template", resources[2].URI)

	prompts := reg.Prompts()
	require.Len(t, prompts, 2)
	assert.Equal(t, "research-outline", prompts[0].Name)
	assert.Equal(t, "research-analysis", prompts[1].Name)
}

func TestConductResearchDefaults(t *testing.T) {
	d := newTestDispatcher(t, NewTemplateEngine(), fullSettings())

	result := d.CallTool(context.Background(), "conduct_research", map[string]interface{}{
		"query": "golang concurrency patterns",
	})
	require.True(t, result.Success, "unexpected failure: %+v", result.Error)

	payload := result.Payload.(map[string]interface{})
	assert.Equal(t, "golang concurrency patterns", payload["query"])
	assert.NotEmpty(t, payload["report"])

	metadata := payload["metadata"].(map[string]interface{})
	assert.Equal(t, "research_report", metadata["report_type"])
	assert.Equal(t, "web", metadata["report_source"])
	assert.Equal(t, float64(3), metadata["max_iterations"])
	assert.Equal(t, "tavily", metadata["retriever"])
}

func TestConductResearchValidation(t *testing.T) {
	d := newTestDispatcher(t, NewTemplateEngine(), fullSettings())

	result := d.CallTool(context.Background(), "conduct_research", map[string]interface{}{
		"query":          "x",
		"report_type":    "novel",
		"max_iterations": float64(99),
	})
	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, protocol.ErrKindValidation, result.Error.Kind)
	require.Len(t, result.Error.Violations, 2)
	assert.Equal(t, "report_type", result.Error.Violations[0].Field)
	assert.Equal(t, "max_iterations", result.Error.Violations[1].Field)
}

func TestResearchWithoutEngine(t *testing.T) {
	d := newTestDispatcher(t, nil, fullSettings())

	result := d.CallTool(context.Background(), "conduct_research", map[string]interface{}{
		"query": "anything",
	})
	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, protocol.ErrKindHandler, result.Error.Kind)
	assert.Equal(t, "dependency_missing", result.Error.Cause)
}

func TestResearchWithoutCredentials(t *testing.T) {
	settings := fullSettings()
	settings.OpenAIAPIKey = ""
	d := newTestDispatcher(t, NewTemplateEngine(), settings)

	result := d.CallTool(context.Background(), "conduct_research", map[string]interface{}{
		"query": "anything",
	})
	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, "missing_credential", result.Error.Cause)
	assert.Contains(t, result.Error.Message, "OPENAI_API_KEY")
}

func TestWebResearchRequiresTavilyKey(t *testing.T) {
	settings := fullSettings()
	settings.TavilyAPIKey = ""
	d := newTestDispatcher(t, NewTemplateEngine(), settings)

	result := d.CallTool(context.Background(), "conduct_research", map[string]interface{}{
		"query": "anything",
	})
	require.False(t, result.Success)
	assert.Equal(t, "missing_credential", result.Error.Cause)

	// Local research does not touch the web retriever.
	result = d.CallTool(context.Background(), "research_local_documents", map[string]interface{}{
		"query":    "anything",
		"doc_path": "/data/docs",
	})
	assert.True(t, result.Success, "unexpected failure: %+v", result.Error)
}

func TestLocalDocumentsRequiresDocPath(t *testing.T) {
	d := newTestDispatcher(t, NewTemplateEngine(), fullSettings())

	result := d.CallTool(context.Background(), "research_local_documents", map[string]interface{}{
		"query": "quarterly findings",
	})
	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, protocol.ErrKindValidation, result.Error.Kind)
	require.Len(t, result.Error.Violations, 1)
	assert.Equal(t, "doc_path", result.Error.Violations[0].Field)
}

func TestDeepResearchMetadata(t *testing.T) {
	d := newTestDispatcher(t, NewTemplateEngine(), fullSettings())

	result := d.CallTool(context.Background(), "deep_research", map[string]interface{}{
		"query":   "climate change and agriculture",
		"depth":   float64(2),
		"breadth": float64(3),
	})
	require.True(t, result.Success, "unexpected failure: %+v", result.Error)

	metadata := result.Payload.(map[string]interface{})["metadata"].(map[string]interface{})
	assert.Equal(t, "deep_research", metadata["research_type"])
	assert.Equal(t, float64(2), metadata["depth"])
	assert.Equal(t, float64(3), metadata["breadth"])
	assert.Equal(t, float64(6), metadata["subtopics_explored"])
}

func TestHybridResearchCollectsMCPCitations(t *testing.T) {
	d := newTestDispatcher(t, NewTemplateEngine(), fullSettings())

	result := d.CallTool(context.Background(), "hybrid_research_with_mcp", map[string]interface{}{
		"query": "open source AI projects",
		"mcp_configs": []interface{}{
			map[string]interface{}{"name": "github", "command": "npx"},
		},
	})
	require.True(t, result.Success, "unexpected failure: %+v", result.Error)

	citations := result.Payload.(map[string]interface{})["citations"].([]interface{})
	found := false
	for _, c := range citations {
		if c == "mcp://github/open-source-ai-projects" {
			found = true
		}
	}
	assert.True(t, found, "expected an mcp citation, got %v", citations)
}

func TestGetCapabilities(t *testing.T) {
	d := newTestDispatcher(t, NewTemplateEngine(), fullSettings())

	result := d.CallTool(context.Background(), "get_research_capabilities", nil)
	require.True(t, result.Success)

	caps := result.Payload.(map[string]interface{})["capabilities"].(map[string]interface{})
	assert.Equal(t, true, caps["deep_research_available"])
	assert.Len(t, caps["supported_report_types"], 3)
}

func TestValidateSetupReportsMissingKeys(t *testing.T) {
	d := newTestDispatcher(t, nil, Settings{})

	result := d.CallTool(context.Background(), "validate_research_setup", nil)
	require.True(t, result.Success)

	vr := result.Payload.(map[string]interface{})["validation_results"].(map[string]interface{})
	assert.Equal(t, false, vr["engine_configured"])

	keys := vr["api_keys_configured"].(map[string]interface{})
	assert.Equal(t, false, keys["OPENAI_API_KEY"])
	assert.Equal(t, false, keys["TAVILY_API_KEY"])

	instructions := vr["setup_instructions"].([]interface{})
	assert.NotEmpty(t, instructions)
}

func TestResourcesProduceContent(t *testing.T) {
	d := newTestDispatcher(t, NewTemplateEngine(), fullSettings())

	result := d.ReadResource(context.Background(), "gpt-researcher://docs/installation")
	require.True(t, result.Success)
	payload := result.Payload.(map[string]interface{})
	assert.Contains(t, payload["text"], "OPENAI_API_KEY")
	assert.Equal(t, "text/markdown", payload["mimeType"])

	result = d.ReadResource(context.Background(), "gpt-researcher://config/template")
	require.True(t, result.Success)
	payload = result.Payload.(map[string]interface{})
	assert.Contains(t, payload["text"], `"default_report_type"`)
	assert.Equal(t, "application/json", payload["mimeType"])
}

func TestPromptsRenderUserMessages(t *testing.T) {
	d := newTestDispatcher(t, NewTemplateEngine(), fullSettings())

	result := d.RenderPrompt(context.Background(), "research-outline", map[string]interface{}{
		"topic": "quantum computing",
	})
	require.True(t, result.Success)

	messages := result.Payload.(map[string]interface{})["messages"].([]interface{})
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]interface{})
	assert.Equal(t, "user", msg["role"])
	assert.Contains(t, msg["content"], "quantum computing")

	result = d.RenderPrompt(context.Background(), "research-analysis", map[string]interface{}{
		"query":    "ai safety",
		"findings": "alignment remains hard",
	})
	require.True(t, result.Success)
	messages = result.Payload.(map[string]interface{})["messages"].([]interface{})
	msg = messages[0].(map[string]interface{})
	assert.Contains(t, msg["content"], "alignment remains hard")
}

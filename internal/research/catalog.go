package research

import (
	"context"
	"strings"

	"github.com/gptr-ai/researcher-mcp/pkg/registry"
	"github.com/gptr-ai/researcher-mcp/pkg/schema"
)

// Settings carries the credentials and defaults the catalog consults.
// The server starts without credentials; tools that need them fail
// with a missing_credential cause at invocation time.
type Settings struct {
	OpenAIAPIKey string
	TavilyAPIKey string
	GitHubToken  string
	Retriever    string
	DocPath      string
}

// Catalog binds the research engine and settings to the capability
// registry.
type Catalog struct {
	engine   Engine
	settings Settings
}

// NewCatalog creates a catalog around an engine. A nil engine is
// allowed; research tools then fail with a dependency_missing cause
// while the introspection tools keep working.
func NewCatalog(engine Engine, settings Settings) *Catalog {
	if settings.Retriever == "" {
		settings.Retriever = "tavily"
	}
	return &Catalog{engine: engine, settings: settings}
}

// Register adds every tool, resource and prompt to the registry. It
// fails on the first duplicate name; registration happens once at
// startup and a duplicate is a programming error.
func (c *Catalog) Register(reg *registry.Registry) error {
	for _, tool := range c.tools() {
		if err := reg.RegisterTool(tool); err != nil {
			return err
		}
	}
	for _, resource := range c.resources() {
		if err := reg.RegisterResource(resource); err != nil {
			return err
		}
	}
	for _, prompt := range c.prompts() {
		if err := reg.RegisterPrompt(prompt); err != nil {
			return err
		}
	}
	return nil
}

func reportTypeField() schema.Field {
	return schema.Enum("report_type", "Type of report to generate",
		ReportTypeResearch, ReportTypeResource, ReportTypeOutline)
}

func (c *Catalog) tools() []*registry.ToolDescriptor {
	return []*registry.ToolDescriptor{
		{
			Name:        "conduct_research",
			Description: "Conduct comprehensive research on a given query, gathering information from web sources, local documents, or both, and generate a detailed report with citations.",
			Schema: schema.Schema{
				schema.String("query", "The research question or topic to investigate"),
				reportTypeField(),
				schema.Enum("report_source", "Source for research: web search, local documents, or both",
					SourceWeb, SourceLocal, SourceHybrid),
				schema.IntRange("max_iterations", "Maximum number of research iterations", 1, 10, 3),
				schema.StringOptional("doc_path", "Path to local documents directory (for local/hybrid research)"),
				schema.StringDefault("retriever", "Retriever to use: tavily, mcp, or comma-separated list", "tavily"),
				{Name: "mcp_configs", Type: schema.TypeArray, Description: "MCP configurations for hybrid research"},
			},
			Handler: c.handleConductResearch,
		},
		{
			Name:        "research_local_documents",
			Description: "Conduct research using only local documents (PDF, TXT, CSV, Excel, Markdown, PowerPoint, Word).",
			Schema: schema.Schema{
				schema.String("query", "The research question or topic"),
				schema.String("doc_path", "Path to directory containing documents"),
				reportTypeField(),
			},
			Handler: c.handleResearchLocalDocuments,
		},
		{
			Name:        "deep_research",
			Description: "Conduct deep recursive research with tree-like exploration, diving into subtopics while maintaining a comprehensive view of the subject.",
			Schema: schema.Schema{
				schema.String("query", "The research question or topic"),
				schema.IntRange("depth", "Depth of recursive exploration", 1, 5, 3),
				schema.IntRange("breadth", "Breadth of subtopics to explore", 1, 10, 5),
				schema.IntRange("max_iterations", "Maximum number of research iterations", 1, 10, 5),
			},
			Handler: c.handleDeepResearch,
		},
		{
			Name:        "hybrid_research_with_mcp",
			Description: "Conduct hybrid research combining web search with specialized MCP data sources such as GitHub repositories, databases, and custom APIs.",
			Schema: schema.Schema{
				schema.String("query", "The research question or topic"),
				{Name: "mcp_configs", Type: schema.TypeArray, Description: "MCP configurations for external data sources", Required: true},
				reportTypeField(),
			},
			Handler: c.handleHybridResearch,
		},
		{
			Name:        "get_research_capabilities",
			Description: "Get information about the research engine's capabilities and configuration options.",
			Handler:     c.handleGetCapabilities,
		},
		{
			Name:        "validate_research_setup",
			Description: "Validate that the research engine is configured, reporting missing credentials and setup instructions.",
			Handler:     c.handleValidateSetup,
		},
	}
}

// requireEngine gates research tools on an engine being wired.
func (c *Catalog) requireEngine() error {
	if c.engine == nil {
		return errDependencyMissing("research engine")
	}
	return nil
}

// requireCredentials checks the API keys a research source needs.
func (c *Catalog) requireCredentials(source, retriever string) error {
	if c.settings.OpenAIAPIKey == "" {
		return errMissingCredential("OPENAI_API_KEY")
	}
	webSearch := source != SourceLocal && strings.Contains(retriever, "tavily")
	if webSearch && c.settings.TavilyAPIKey == "" {
		return errMissingCredential("TAVILY_API_KEY")
	}
	return nil
}

// requestFromInput builds a research request from validated input.
// Defaults have already been substituted, so type assertions are safe
// for every declared field.
func (c *Catalog) requestFromInput(input map[string]interface{}) Request {
	req := Request{
		Query:     input["query"].(string),
		Retriever: c.settings.Retriever,
		DocPath:   c.settings.DocPath,
	}
	if v, ok := input["report_type"].(string); ok {
		req.ReportType = v
	}
	if v, ok := input["report_source"].(string); ok {
		req.ReportSource = v
	}
	if v, ok := input["max_iterations"].(int); ok {
		req.MaxIterations = v
	}
	if v, ok := input["doc_path"].(string); ok && v != "" {
		req.DocPath = v
	}
	if v, ok := input["retriever"].(string); ok && v != "" {
		req.Retriever = v
	}
	if v, ok := input["depth"].(int); ok {
		req.Depth = v
	}
	if v, ok := input["breadth"].(int); ok {
		req.Breadth = v
	}
	if raw, ok := input["mcp_configs"].([]interface{}); ok {
		for _, item := range raw {
			if cfg, ok := item.(map[string]interface{}); ok {
				req.MCPConfigs = append(req.MCPConfigs, cfg)
			}
		}
	}
	return req
}

// reportPayload is the success payload every research tool returns.
func reportPayload(req Request, report *Report) map[string]interface{} {
	citations := report.Citations
	if citations == nil {
		citations = []string{}
	}
	return map[string]interface{}{
		"query":     req.Query,
		"report":    report.Report,
		"citations": citations,
		"metadata":  report.Metadata,
	}
}

func (c *Catalog) runResearch(ctx context.Context, req Request) (interface{}, error) {
	if err := c.requireEngine(); err != nil {
		return nil, err
	}
	if err := c.requireCredentials(req.ReportSource, req.Retriever); err != nil {
		return nil, err
	}

	report, err := c.engine.Research(ctx, req)
	if err != nil {
		return nil, errResearchFailed(err)
	}
	return reportPayload(req, report), nil
}

func (c *Catalog) handleConductResearch(ctx context.Context, input map[string]interface{}) (interface{}, error) {
	return c.runResearch(ctx, c.requestFromInput(input))
}

func (c *Catalog) handleResearchLocalDocuments(ctx context.Context, input map[string]interface{}) (interface{}, error) {
	req := c.requestFromInput(input)
	req.ReportSource = SourceLocal
	req.Retriever = "local"
	req.MaxIterations = 3
	return c.runResearch(ctx, req)
}

func (c *Catalog) handleDeepResearch(ctx context.Context, input map[string]interface{}) (interface{}, error) {
	req := c.requestFromInput(input)
	req.ReportType = ReportTypeResearch
	req.ReportSource = SourceWeb

	if err := c.requireEngine(); err != nil {
		return nil, err
	}
	if err := c.requireCredentials(req.ReportSource, req.Retriever); err != nil {
		return nil, err
	}

	report, err := c.engine.DeepResearch(ctx, req)
	if err != nil {
		return nil, errResearchFailed(err)
	}
	return reportPayload(req, report), nil
}

func (c *Catalog) handleHybridResearch(ctx context.Context, input map[string]interface{}) (interface{}, error) {
	req := c.requestFromInput(input)
	req.ReportSource = SourceWeb
	req.Retriever = "tavily,mcp"
	return c.runResearch(ctx, req)
}

func (c *Catalog) handleGetCapabilities(ctx context.Context, input map[string]interface{}) (interface{}, error) {
	if err := c.requireEngine(); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"capabilities": map[string]interface{}{
			"supported_report_types": []string{ReportTypeResearch, ReportTypeResource, ReportTypeOutline},
			"supported_sources":      []string{SourceWeb, SourceLocal, SourceHybrid},
			"supported_document_formats": []string{
				"PDF", "TXT", "CSV", "Excel", "Markdown", "PowerPoint", "Word documents",
			},
			"available_retrievers":      []string{"tavily", "mcp", "local"},
			"deep_research_available":   true,
			"mcp_integration_available": true,
			"local_document_support":    true,
			"citation_support":          true,
			"configuration_options": map[string]interface{}{
				"max_iterations": "1-10",
				"depth":          "1-5 (for deep research)",
				"breadth":        "1-10 (for deep research)",
				"report_types":   []string{ReportTypeResearch, ReportTypeResource, ReportTypeOutline},
				"sources":        []string{SourceWeb, SourceLocal, SourceHybrid},
			},
		},
	}, nil
}

func (c *Catalog) handleValidateSetup(ctx context.Context, input map[string]interface{}) (interface{}, error) {
	keys := map[string]bool{
		"OPENAI_API_KEY": c.settings.OpenAIAPIKey != "",
		"TAVILY_API_KEY": c.settings.TavilyAPIKey != "",
		"GITHUB_TOKEN":   c.settings.GitHubToken != "",
	}

	instructions := []string{}
	if c.engine == nil {
		instructions = append(instructions, "Wire a research engine before calling research tools")
	}
	for _, key := range []string{"OPENAI_API_KEY", "TAVILY_API_KEY", "GITHUB_TOKEN"} {
		if !keys[key] {
			instructions = append(instructions, "Set "+key+" environment variable for full functionality")
		}
	}

	return map[string]interface{}{
		"validation_results": map[string]interface{}{
			"engine_configured":   c.engine != nil,
			"api_keys_configured": keys,
			"doc_path_configured": c.settings.DocPath != "",
			"default_retriever":   c.settings.Retriever,
			"setup_instructions":  instructions,
		},
	}, nil
}

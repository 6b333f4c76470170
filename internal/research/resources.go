package research

import (
	"context"
	"encoding/json"

	"github.com/gptr-ai/researcher-mcp/pkg/registry"
)

func (c *Catalog) resources() []*registry.ResourceDescriptor {
	return []*registry.ResourceDescriptor{
		{
			URI:         "gpt-researcher://docs/installation",
			Description: "Installation and setup documentation",
			MIMEType:    "text/markdown",
			Producer: func(ctx context.Context) (string, error) {
				return installationDocs, nil
			},
		},
		{
			URI:         "gpt-researcher://docs/examples",
			Description: "Usage examples for the research tools",
			MIMEType:    "text/markdown",
			Producer: func(ctx context.Context) (string, error) {
				return usageExamples, nil
			},
		},
		{
			URI:         "gpt-researcher://config/template",
			Description: "Configuration template",
			MIMEType:    "application/json",
			Producer:    c.configTemplate,
		},
	}
}

const installationDocs = `# GPT Researcher Setup Guide

## Prerequisites
- OpenAI API Key
- Tavily API Key (for web search)

## Environment Setup
` + "```bash" + `
export OPENAI_API_KEY="your-openai-api-key"
export TAVILY_API_KEY="your-tavily-api-key"
` + "```" + `

## Optional: MCP Integration
For hybrid research with external data sources:
` + "```bash" + `
export GITHUB_TOKEN="your-github-token"  # For GitHub MCP server
` + "```" + `

## Local Documents
Point DOC_PATH at a directory of PDF, TXT, CSV, Excel, Markdown,
PowerPoint or Word files to enable local document research:
` + "```bash" + `
export DOC_PATH="/path/to/documents"
` + "```" + `

## Verification
Use the ` + "`validate_research_setup`" + ` tool to check your configuration.
`

const usageExamples = `# Research Tool Usage Examples

## Basic Web Research
` + "```json" + `
{
  "name": "conduct_research",
  "input": {
    "query": "What are the latest trends in AI research?",
    "report_type": "research_report"
  }
}
` + "```" + `

## Local Document Research
` + "```json" + `
{
  "name": "research_local_documents",
  "input": {
    "query": "What are the main findings in our quarterly reports?",
    "doc_path": "/path/to/documents"
  }
}
` + "```" + `

## Deep Research
` + "```json" + `
{
  "name": "deep_research",
  "input": {
    "query": "Impact of climate change on agriculture",
    "depth": 3,
    "breadth": 5
  }
}
` + "```" + `

## Hybrid Research with MCP
` + "```json" + `
{
  "name": "hybrid_research_with_mcp",
  "input": {
    "query": "Popular open source AI projects",
    "mcp_configs": [{
      "name": "github",
      "command": "npx",
      "args": ["-y", "@modelcontextprotocol/server-github"],
      "env": {"GITHUB_TOKEN": "your-token"}
    }]
  }
}
` + "```" + `

## Configuration Options
- report_type: "research_report", "resource_report", "outline_report"
- report_source: "web", "local", "hybrid"
- max_iterations: 1-10
- retriever: "tavily", "mcp", "local", or comma-separated list
`

// configTemplate renders the configuration template with the catalog's
// current defaults filled in.
func (c *Catalog) configTemplate(ctx context.Context) (string, error) {
	docPath := c.settings.DocPath
	if docPath == "" {
		docPath = "./documents"
	}

	template := map[string]interface{}{
		"research_config": map[string]interface{}{
			"default_report_type": ReportTypeResearch,
			"default_source":      SourceWeb,
			"max_iterations":      3,
			"retriever":           c.settings.Retriever,
		},
		"mcp_configs": []map[string]interface{}{
			{
				"name":    "github",
				"command": "npx",
				"args":    []string{"-y", "@modelcontextprotocol/server-github"},
				"env": map[string]string{
					"GITHUB_TOKEN": "${GITHUB_TOKEN}",
				},
			},
		},
		"local_documents": map[string]interface{}{
			"doc_path":          docPath,
			"supported_formats": []string{"pdf", "txt", "csv", "xlsx", "md", "pptx", "docx"},
		},
		"deep_research": map[string]interface{}{
			"default_depth":   3,
			"default_breadth": 5,
			"max_iterations":  5,
		},
	}

	data, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

package research

import (
	"context"
	"fmt"

	"github.com/gptr-ai/researcher-mcp/pkg/protocol"
	"github.com/gptr-ai/researcher-mcp/pkg/registry"
	"github.com/gptr-ai/researcher-mcp/pkg/schema"
)

func (c *Catalog) prompts() []*registry.PromptDescriptor {
	return []*registry.PromptDescriptor{
		{
			Name:        "research-outline",
			Description: "Generate a research outline for a given topic",
			Schema: schema.Schema{
				schema.String("topic", "The topic to outline"),
			},
			Renderer: renderOutlinePrompt,
		},
		{
			Name:        "research-analysis",
			Description: "Analyze research findings and provide insights",
			Schema: schema.Schema{
				schema.String("query", "The original research query"),
				schema.String("findings", "The research findings to analyze"),
			},
			Renderer: renderAnalysisPrompt,
		},
	}
}

func renderOutlinePrompt(ctx context.Context, input map[string]interface{}) ([]protocol.PromptMessage, error) {
	topic := input["topic"].(string)

	content := fmt.Sprintf(`Create a comprehensive research outline for the topic: %q

The outline should include:
1. Main research question
2. Key subtopics to explore
3. Potential sources to investigate
4. Expected findings areas
5. Research methodology suggestions

Focus on creating a structured approach that will lead to a thorough understanding of the topic.`, topic)

	return []protocol.PromptMessage{{Role: "user", Content: content}}, nil
}

func renderAnalysisPrompt(ctx context.Context, input map[string]interface{}) ([]protocol.PromptMessage, error) {
	query := input["query"].(string)
	findings := input["findings"].(string)

	content := fmt.Sprintf(`Research Query: %s

Research Findings:
%s

Please provide:
1. Key insights and patterns
2. Contradictions or conflicting information
3. Gaps in the research
4. Recommendations for further investigation
5. Summary of the most important findings

Focus on critical analysis and actionable insights.`, query, findings)

	return []protocol.PromptMessage{{Role: "user", Content: content}}, nil
}

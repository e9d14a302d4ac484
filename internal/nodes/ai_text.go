package nodes

import (
	"context"
	"fmt"

	"dario.cat/mergo"

	"flowforge/internal/services"
	"flowforge/pkg/models"
)

// AIText renders the configured prompt template against each input item,
// calls the text-generation capability, and emits the original item's fields
// merged with the response, model name and token usage.
type AIText struct {
	Generator services.TextGenerator
}

// Execute implements Handler.
func (h *AIText) Execute(ctx context.Context, req Request) (models.NodeOutput, error) {
	promptTemplate := stringParam(req.Node.Parameters, "prompt", "")
	if promptTemplate == "" {
		return nil, errMissingParam(req.Node.Name, "prompt")
	}
	opts := services.GenerateOptions{
		Model:       stringParam(req.Node.Parameters, "model", ""),
		MaxTokens:   intParam(req.Node.Parameters, "maxTokens", 0),
		Temperature: floatParam(req.Node.Parameters, "temperature", 0),
	}

	out := make([]models.NodeExecutionData, 0, len(req.Input))
	for i, item := range req.Input {
		prompt := Render(promptTemplate, item.JSON)
		generation, err := h.Generator.Generate(ctx, prompt, opts)
		if err != nil {
			return nil, fmt.Errorf("node %q: item %d: %w", req.Node.Name, i, err)
		}

		merged := map[string]any{
			"aiResponse": generation.Text,
			"model":      generation.Model,
			"tokensUsed": generation.TokensUsed,
		}
		if err := mergo.Merge(&merged, item.JSON); err != nil {
			return nil, err
		}
		out = append(out, models.NodeExecutionData{
			JSON:       merged,
			PairedItem: &models.PairedItem{Item: i},
		})
	}

	return models.MainOutput(out), nil
}

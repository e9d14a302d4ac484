package nodes

import (
	"context"
	"fmt"

	"dario.cat/mergo"

	"flowforge/internal/services"
	"flowforge/pkg/models"
)

// EmailSend renders the recipient, subject and body templates against each
// input item, calls the email capability, and emits the original fields
// merged with the delivery result.
type EmailSend struct {
	Sender services.EmailSender
}

// Execute implements Handler.
func (h *EmailSend) Execute(ctx context.Context, req Request) (models.NodeOutput, error) {
	toTemplate := stringParam(req.Node.Parameters, "to", "")
	if toTemplate == "" {
		return nil, errMissingParam(req.Node.Name, "to")
	}
	subjectTemplate := stringParam(req.Node.Parameters, "subject", "")
	bodyTemplate := stringParam(req.Node.Parameters, "body", "")

	out := make([]models.NodeExecutionData, 0, len(req.Input))
	for i, item := range req.Input {
		receipt, err := h.Sender.Send(ctx,
			Render(toTemplate, item.JSON),
			Render(subjectTemplate, item.JSON),
			Render(bodyTemplate, item.JSON),
		)
		if err != nil {
			return nil, fmt.Errorf("node %q: item %d: %w", req.Node.Name, i, err)
		}

		merged := map[string]any{
			"emailSent": true,
			"messageId": receipt.MessageID,
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

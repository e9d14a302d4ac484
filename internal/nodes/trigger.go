package nodes

import (
	"context"
	"time"

	"dario.cat/mergo"

	"flowforge/pkg/models"
)

// ManualTrigger emits a single item seeding a run: timestamp, execution id
// and run mode, merged with the node's static triggerData parameter and any
// externally supplied payload.
type ManualTrigger struct{}

// Execute implements Handler.
func (h *ManualTrigger) Execute(_ context.Context, req Request) (models.NodeOutput, error) {
	item := map[string]any{
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"executionId": req.Execution.ExecutionID,
		"mode":        string(req.Execution.Mode),
	}

	if static := mapParam(req.Node.Parameters, "triggerData"); static != nil {
		if err := mergo.Merge(&item, static, mergo.WithOverride); err != nil {
			return nil, err
		}
	}
	if payload := req.Execution.Payload; payload != nil {
		if err := mergo.Merge(&item, payload, mergo.WithOverride); err != nil {
			return nil, err
		}
	}

	return models.MainOutput([]models.NodeExecutionData{{JSON: item}}), nil
}

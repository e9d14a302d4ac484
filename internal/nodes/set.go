package nodes

import (
	"context"

	"flowforge/pkg/models"
)

// Set rewrites every input item's json payload: either replacing it entirely
// with the configured values (keepOnlySet) or shallow-merging the values over
// it, with configured values winning on conflict. Binary data and pairedItem
// references pass through unchanged.
type Set struct{}

// Execute implements Handler.
func (h *Set) Execute(_ context.Context, req Request) (models.NodeOutput, error) {
	values := mapParam(req.Node.Parameters, "values")
	if values == nil {
		return nil, errMissingParam(req.Node.Name, "values")
	}
	keepOnlySet := boolParam(req.Node.Parameters, "keepOnlySet", false)

	out := make([]models.NodeExecutionData, 0, len(req.Input))
	for _, item := range req.Input {
		merged := make(map[string]any, len(item.JSON)+len(values))
		if !keepOnlySet {
			for k, v := range item.JSON {
				merged[k] = v
			}
		}
		for k, v := range values {
			merged[k] = v
		}
		out = append(out, models.NodeExecutionData{
			JSON:       merged,
			Binary:     item.Binary,
			PairedItem: item.PairedItem,
		})
	}

	return models.MainOutput(out), nil
}

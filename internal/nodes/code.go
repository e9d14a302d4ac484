package nodes

import (
	"context"
	"fmt"

	"flowforge/internal/services"
	"flowforge/pkg/models"
)

// Code runs a user-supplied expression in the script sandbox. In
// runOnceForAllItems mode the expression sees the whole input sequence; in
// runOnceForEachItem mode it runs once per item. An array result is taken
// verbatim as the output sequence, any other result is wrapped as one item.
// Script errors are fatal to the node.
type Code struct {
	Script services.ScriptEngine
}

// Execute implements Handler.
func (h *Code) Execute(ctx context.Context, req Request) (models.NodeOutput, error) {
	code := stringParam(req.Node.Parameters, "code", "")
	if code == "" {
		code = stringParam(req.Node.Parameters, "jsCode", "")
	}
	if code == "" {
		return nil, errMissingParam(req.Node.Name, "code")
	}
	mode := stringParam(req.Node.Parameters, "mode", "runOnceForAllItems")

	switch mode {
	case "runOnceForAllItems":
		items := make([]map[string]any, len(req.Input))
		for i, item := range req.Input {
			items[i] = item.JSON
		}
		env := map[string]any{
			"items": items,
			"count": len(items),
		}
		if len(items) > 0 {
			env["first"] = items[0]
		} else {
			env["first"] = map[string]any{}
		}
		result, err := h.Script.Run(ctx, code, env)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", req.Node.Name, err)
		}
		return models.MainOutput(itemsFromResult(result)), nil

	case "runOnceForEachItem":
		var out []models.NodeExecutionData
		for i, item := range req.Input {
			env := scriptEnv(item.JSON)
			env["index"] = i
			result, err := h.Script.Run(ctx, code, env)
			if err != nil {
				return nil, fmt.Errorf("node %q: item %d: %w", req.Node.Name, i, err)
			}
			for _, produced := range itemsFromResult(result) {
				produced.PairedItem = &models.PairedItem{Item: i}
				out = append(out, produced)
			}
		}
		return models.MainOutput(out), nil

	default:
		return nil, fmt.Errorf("node %q: unknown mode %q", req.Node.Name, mode)
	}
}

func itemsFromResult(result any) []models.NodeExecutionData {
	switch v := result.(type) {
	case nil:
		return nil
	case []models.NodeExecutionData:
		return v
	case []map[string]any:
		out := make([]models.NodeExecutionData, 0, len(v))
		for _, m := range v {
			out = append(out, models.NodeExecutionData{JSON: m})
		}
		return out
	case []any:
		out := make([]models.NodeExecutionData, 0, len(v))
		for _, elem := range v {
			if m, ok := elem.(map[string]any); ok {
				out = append(out, models.NodeExecutionData{JSON: m})
			} else {
				out = append(out, models.NodeExecutionData{JSON: map[string]any{"data": elem}})
			}
		}
		return out
	case map[string]any:
		return []models.NodeExecutionData{{JSON: v}}
	default:
		return []models.NodeExecutionData{{JSON: map[string]any{"data": v}}}
	}
}

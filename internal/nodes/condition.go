package nodes

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"flowforge/internal/services"
	"flowforge/pkg/models"
)

// If evaluates configured conditions against each input item and routes it
// to the "true" or "false" output handle. Downstream connections pick a
// branch via their source output handle.
//
// Two configuration styles are supported: a list of structured comparisons
// joined by a combinator, or a single boolean expression evaluated in the
// script sandbox.
type If struct {
	Script services.ScriptEngine
}

// Execute implements Handler.
func (h *If) Execute(ctx context.Context, req Request) (models.NodeOutput, error) {
	conditions := sliceParam(req.Node.Parameters, "conditions")
	expression := stringParam(req.Node.Parameters, "expression", "")
	combinator := strings.ToLower(stringParam(req.Node.Parameters, "combinator", "and"))

	out := models.NodeOutput{"true": nil, "false": nil}
	for i, item := range req.Input {
		matched, err := h.evaluate(ctx, req.Node.Name, item, conditions, expression, combinator)
		if err != nil {
			return nil, err
		}
		routed := models.NodeExecutionData{
			JSON:       item.JSON,
			Binary:     item.Binary,
			PairedItem: &models.PairedItem{Item: i},
		}
		if matched {
			out["true"] = append(out["true"], routed)
		} else {
			out["false"] = append(out["false"], routed)
		}
	}

	return out, nil
}

func (h *If) evaluate(ctx context.Context, nodeName string, item models.NodeExecutionData, conditions []any, expression, combinator string) (bool, error) {
	if expression != "" {
		result, err := h.Script.Run(ctx, expression, scriptEnv(item.JSON))
		if err != nil {
			return false, fmt.Errorf("node %q: %w", nodeName, err)
		}
		b, ok := result.(bool)
		if !ok {
			return false, fmt.Errorf("node %q: expression must evaluate to a boolean, got %T", nodeName, result)
		}
		return b, nil
	}

	// No conditions configured matches everything.
	if len(conditions) == 0 {
		return true, nil
	}

	for _, raw := range conditions {
		cond, ok := raw.(map[string]any)
		if !ok {
			return false, fmt.Errorf("node %q: malformed condition entry", nodeName)
		}
		matched, err := compare(
			Render(stringify(cond["value1"]), item.JSON),
			stringParam(cond, "operation", "equal"),
			Render(stringify(cond["value2"]), item.JSON),
		)
		if err != nil {
			return false, fmt.Errorf("node %q: %w", nodeName, err)
		}
		if combinator == "or" && matched {
			return true, nil
		}
		if combinator != "or" && !matched {
			return false, nil
		}
	}
	return combinator != "or", nil
}

func scriptEnv(itemJSON map[string]any) map[string]any {
	env := make(map[string]any, len(itemJSON)+1)
	for k, v := range itemJSON {
		env[k] = v
	}
	env["json"] = itemJSON
	return env
}

func compare(value1, operation, value2 string) (bool, error) {
	switch operation {
	case "equal":
		return value1 == value2, nil
	case "notEqual":
		return value1 != value2, nil
	case "contains":
		return strings.Contains(value1, value2), nil
	case "startsWith":
		return strings.HasPrefix(value1, value2), nil
	case "endsWith":
		return strings.HasSuffix(value1, value2), nil
	case "isEmpty":
		return value1 == "", nil
	case "isNotEmpty":
		return value1 != "", nil
	case "gt", "gte", "lt", "lte":
		a, errA := strconv.ParseFloat(value1, 64)
		b, errB := strconv.ParseFloat(value2, 64)
		if errA != nil || errB != nil {
			return false, fmt.Errorf("operation %q requires numeric operands", operation)
		}
		switch operation {
		case "gt":
			return a > b, nil
		case "gte":
			return a >= b, nil
		case "lt":
			return a < b, nil
		default:
			return a <= b, nil
		}
	default:
		return false, fmt.Errorf("unknown comparison operation %q", operation)
	}
}

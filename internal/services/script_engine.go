package services

import (
	"context"
	"fmt"

	"github.com/oarkflow/expr"
)

// ExprScriptEngine evaluates user code as expressions via the oarkflow/expr
// interpreter. The expression only sees the environment it is handed, which
// keeps user code away from the host process's ambient scope.
type ExprScriptEngine struct{}

// NewExprScriptEngine creates a new ExprScriptEngine.
func NewExprScriptEngine() *ExprScriptEngine {
	return &ExprScriptEngine{}
}

// Run parses and evaluates code against env.
func (e *ExprScriptEngine) Run(ctx context.Context, code string, env map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	program, err := expr.Parse(code)
	if err != nil {
		return nil, fmt.Errorf("script parse error: %w", err)
	}
	result, err := program.Eval(env)
	if err != nil {
		return nil, fmt.Errorf("script runtime error: %w", err)
	}
	return result, nil
}

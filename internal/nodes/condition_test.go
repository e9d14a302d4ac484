package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowforge/pkg/models"
)

// scriptFunc adapts a function to services.ScriptEngine for tests.
type scriptFunc func(ctx context.Context, code string, env map[string]any) (any, error)

func (f scriptFunc) Run(ctx context.Context, code string, env map[string]any) (any, error) {
	return f(ctx, code, env)
}

func ifRequest(params map[string]any, input []models.NodeExecutionData) Request {
	return Request{
		Node:  models.Node{ID: "if1", Name: "Check", Type: "if", Parameters: params},
		Input: input,
	}
}

func TestIfStructuredConditions(t *testing.T) {
	h := &If{}

	out, err := h.Execute(context.Background(), ifRequest(
		map[string]any{
			"conditions": []any{
				map[string]any{"value1": "{{status}}", "operation": "equal", "value2": "active"},
			},
		},
		[]models.NodeExecutionData{
			{JSON: map[string]any{"status": "active"}},
			{JSON: map[string]any{"status": "paused"}},
			{JSON: map[string]any{}},
		},
	))
	require.NoError(t, err)

	require.Len(t, out["true"], 1)
	require.Len(t, out["false"], 2)
	assert.Equal(t, "active", out["true"][0].JSON["status"])
	assert.Equal(t, &models.PairedItem{Item: 0}, out["true"][0].PairedItem)
	assert.Equal(t, &models.PairedItem{Item: 1}, out["false"][0].PairedItem)
}

func TestIfCombinators(t *testing.T) {
	h := &If{}
	conditions := []any{
		map[string]any{"value1": "{{a}}", "operation": "equal", "value2": "1"},
		map[string]any{"value1": "{{b}}", "operation": "equal", "value2": "2"},
	}
	item := models.NodeExecutionData{JSON: map[string]any{"a": "1", "b": "nope"}}

	out, err := h.Execute(context.Background(), ifRequest(
		map[string]any{"conditions": conditions, "combinator": "and"},
		[]models.NodeExecutionData{item},
	))
	require.NoError(t, err)
	assert.Len(t, out["true"], 0)
	assert.Len(t, out["false"], 1)

	out, err = h.Execute(context.Background(), ifRequest(
		map[string]any{"conditions": conditions, "combinator": "or"},
		[]models.NodeExecutionData{item},
	))
	require.NoError(t, err)
	assert.Len(t, out["true"], 1)
}

func TestIfNumericOperations(t *testing.T) {
	h := &If{}

	out, err := h.Execute(context.Background(), ifRequest(
		map[string]any{
			"conditions": []any{
				map[string]any{"value1": "{{statusCode}}", "operation": "lt", "value2": "400"},
			},
		},
		[]models.NodeExecutionData{
			{JSON: map[string]any{"statusCode": 200}},
			{JSON: map[string]any{"statusCode": 503}},
		},
	))
	require.NoError(t, err)
	assert.Len(t, out["true"], 1)
	assert.Len(t, out["false"], 1)
}

func TestIfEmptyConditionsMatchEverything(t *testing.T) {
	h := &If{}

	out, err := h.Execute(context.Background(), ifRequest(nil,
		[]models.NodeExecutionData{
			{JSON: map[string]any{"a": 1}},
			{JSON: map[string]any{"b": 2}},
		},
	))
	require.NoError(t, err)
	assert.Len(t, out["true"], 2)
	assert.Len(t, out["false"], 0)
}

func TestIfExpressionMode(t *testing.T) {
	var seenEnv map[string]any
	h := &If{Script: scriptFunc(func(ctx context.Context, code string, env map[string]any) (any, error) {
		seenEnv = env
		return env["ok"] == true, nil
	})}

	out, err := h.Execute(context.Background(), ifRequest(
		map[string]any{"expression": `ok == true`},
		[]models.NodeExecutionData{
			{JSON: map[string]any{"ok": true}},
			{JSON: map[string]any{"ok": false}},
		},
	))
	require.NoError(t, err)
	assert.Len(t, out["true"], 1)
	assert.Len(t, out["false"], 1)

	// Items see their own fields plus the whole payload under "json".
	assert.Contains(t, seenEnv, "ok")
	assert.Contains(t, seenEnv, "json")
}

func TestIfExpressionMustBeBoolean(t *testing.T) {
	h := &If{Script: scriptFunc(func(ctx context.Context, code string, env map[string]any) (any, error) {
		return "not a bool", nil
	})}

	_, err := h.Execute(context.Background(), ifRequest(
		map[string]any{"expression": "whatever"},
		[]models.NodeExecutionData{{JSON: map[string]any{}}},
	))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "boolean")
}

func TestIfExpressionErrorIsFatal(t *testing.T) {
	h := &If{Script: scriptFunc(func(ctx context.Context, code string, env map[string]any) (any, error) {
		return nil, errors.New("bad expression")
	})}

	_, err := h.Execute(context.Background(), ifRequest(
		map[string]any{"expression": "whatever"},
		[]models.NodeExecutionData{{JSON: map[string]any{}}},
	))
	assert.Error(t, err)
}

func TestIfBothHandlesAlwaysPresent(t *testing.T) {
	h := &If{}

	out, err := h.Execute(context.Background(), ifRequest(nil, nil))
	require.NoError(t, err)
	_, hasTrue := out["true"]
	_, hasFalse := out["false"]
	assert.True(t, hasTrue)
	assert.True(t, hasFalse)
}

func TestCompareOperations(t *testing.T) {
	tests := []struct {
		v1, op, v2 string
		want       bool
	}{
		{"a", "equal", "a", true},
		{"a", "notEqual", "b", true},
		{"hello world", "contains", "lo wo", true},
		{"hello", "startsWith", "he", true},
		{"hello", "endsWith", "lo", true},
		{"", "isEmpty", "", true},
		{"x", "isNotEmpty", "", true},
		{"2", "gt", "1", true},
		{"2", "gte", "2", true},
		{"1", "lt", "2", true},
		{"2", "lte", "2", true},
		{"2", "lt", "2", false},
	}
	for _, tt := range tests {
		got, err := compare(tt.v1, tt.op, tt.v2)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %s %s", tt.v1, tt.op, tt.v2)
	}

	_, err := compare("a", "gt", "b")
	assert.Error(t, err)
	_, err = compare("a", "unknownOp", "b")
	assert.Error(t, err)
}

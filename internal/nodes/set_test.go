package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowforge/pkg/models"
)

func setRequest(params map[string]any, input []models.NodeExecutionData) Request {
	return Request{
		Node:  models.Node{ID: "n1", Name: "Set", Type: "set", Parameters: params},
		Input: input,
	}
}

func TestSetShallowMerge(t *testing.T) {
	h := &Set{}

	out, err := h.Execute(context.Background(), setRequest(
		map[string]any{"values": map[string]any{"b": "override", "c": 3}},
		[]models.NodeExecutionData{
			{JSON: map[string]any{"a": 1, "b": "original"}},
		},
	))
	require.NoError(t, err)

	items := out.Main()
	require.Len(t, items, 1)
	// Configured values win on conflict, untouched fields survive.
	assert.Equal(t, 1, items[0].JSON["a"])
	assert.Equal(t, "override", items[0].JSON["b"])
	assert.Equal(t, 3, items[0].JSON["c"])
}

func TestSetKeepOnlySet(t *testing.T) {
	h := &Set{}

	out, err := h.Execute(context.Background(), setRequest(
		map[string]any{
			"values":      map[string]any{"kept": true},
			"keepOnlySet": true,
		},
		[]models.NodeExecutionData{
			{JSON: map[string]any{"dropped": 1}},
		},
	))
	require.NoError(t, err)

	items := out.Main()
	require.Len(t, items, 1)
	assert.Equal(t, map[string]any{"kept": true}, items[0].JSON)
}

func TestSetDoesNotMutateInput(t *testing.T) {
	h := &Set{}
	input := []models.NodeExecutionData{
		{JSON: map[string]any{"a": 1}},
	}

	_, err := h.Execute(context.Background(), setRequest(
		map[string]any{"values": map[string]any{"a": 2}}, input,
	))
	require.NoError(t, err)

	assert.Equal(t, 1, input[0].JSON["a"])
}

func TestSetPreservesItemCountAndPassthrough(t *testing.T) {
	h := &Set{}
	paired := &models.PairedItem{Item: 3}
	input := []models.NodeExecutionData{
		{JSON: map[string]any{"i": 0}},
		{JSON: map[string]any{"i": 1}, Binary: map[string]any{"file": "x"}, PairedItem: paired},
	}

	out, err := h.Execute(context.Background(), setRequest(
		map[string]any{"values": map[string]any{"tag": "v"}}, input,
	))
	require.NoError(t, err)

	items := out.Main()
	require.Len(t, items, 2)
	assert.Equal(t, map[string]any{"file": "x"}, items[1].Binary)
	assert.Same(t, paired, items[1].PairedItem)
}

func TestSetMissingValues(t *testing.T) {
	h := &Set{}

	_, err := h.Execute(context.Background(), setRequest(nil, nil))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "values")
}

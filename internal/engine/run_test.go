package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"flowforge/pkg/models"
)

func snapshotContext(snapshot models.WorkflowSnapshot) *runContext {
	return newRunContext(Run{
		Execution: &models.Execution{Workflow: snapshot},
	}, &runHandle{})
}

func item(key string, v any) models.NodeExecutionData {
	return models.NodeExecutionData{JSON: map[string]any{key: v}}
}

func TestGatherInputFollowsConnectionOrder(t *testing.T) {
	rc := snapshotContext(models.WorkflowSnapshot{
		Connections: []models.Connection{
			{SourceNode: "a", TargetNode: "join"},
			{SourceNode: "b", TargetNode: "join"},
		},
	})
	rc.record("b", models.MainOutput([]models.NodeExecutionData{item("src", "b")}))
	rc.record("a", models.MainOutput([]models.NodeExecutionData{item("src", "a1"), item("src", "a2")}))

	input := rc.gatherInput("join")
	// Connection declaration order, not completion order.
	assert.Equal(t, "a1", input[0].JSON["src"])
	assert.Equal(t, "a2", input[1].JSON["src"])
	assert.Equal(t, "b", input[2].JSON["src"])
}

func TestGatherInputSkipsPendingSources(t *testing.T) {
	rc := snapshotContext(models.WorkflowSnapshot{
		Connections: []models.Connection{
			{SourceNode: "a", TargetNode: "join"},
			{SourceNode: "b", TargetNode: "join"},
		},
	})
	rc.record("a", models.MainOutput([]models.NodeExecutionData{item("src", "a")}))

	input := rc.gatherInput("join")
	assert.Len(t, input, 1)
}

func TestGatherInputSelectsSourceHandle(t *testing.T) {
	rc := snapshotContext(models.WorkflowSnapshot{
		Connections: []models.Connection{
			{SourceNode: "if", SourceOutput: "true", TargetNode: "yes"},
			{SourceNode: "if", SourceOutput: "false", TargetNode: "no"},
		},
	})
	rc.record("if", models.NodeOutput{
		"true":  {item("matched", true)},
		"false": {item("matched", false)},
	})

	yes := rc.gatherInput("yes")
	assert.Len(t, yes, 1)
	assert.Equal(t, true, yes[0].JSON["matched"])

	no := rc.gatherInput("no")
	assert.Len(t, no, 1)
	assert.Equal(t, false, no[0].JSON["matched"])
}

func TestSuccessorsDistinctAndPendingOnly(t *testing.T) {
	rc := snapshotContext(models.WorkflowSnapshot{
		Connections: []models.Connection{
			{SourceNode: "if", SourceOutput: "true", TargetNode: "next"},
			{SourceNode: "if", SourceOutput: "false", TargetNode: "next"},
			{SourceNode: "if", TargetNode: "done"},
			{SourceNode: "if", TargetNode: "other"},
		},
	})
	rc.record("done", models.NodeOutput{})

	succ := rc.successors("if")
	assert.Equal(t, []string{"next", "other"}, succ)
}

func TestRecordNilOutputCountsAsDone(t *testing.T) {
	rc := snapshotContext(models.WorkflowSnapshot{})
	assert.False(t, rc.done("n"))
	rc.record("n", nil)
	assert.True(t, rc.done("n"))
}

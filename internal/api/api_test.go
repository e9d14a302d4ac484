package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowforge/internal/engine"
	"flowforge/internal/nodes"
	"flowforge/internal/repository"
	"flowforge/internal/services"
	"flowforge/pkg/models"
)

type okCaller struct{}

func (okCaller) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (*services.HTTPResponse, error) {
	return &services.HTTPResponse{StatusCode: 200, Body: []byte(`{}`)}, nil
}

type okScript struct{}

func (okScript) Run(ctx context.Context, code string, env map[string]any) (any, error) {
	return true, nil
}

func newTestServer(t *testing.T) (*echo.Echo, repository.Store) {
	t.Helper()
	store := repository.NewMemoryStore()
	registry := nodes.Builtin(nodes.Capabilities{HTTP: okCaller{}, Script: okScript{}})
	eng := engine.New(store, registry, hclog.NewNullLogger())

	e := echo.New()
	srv := NewServer(store, eng, registry, hclog.NewNullLogger())
	e.GET("/health", srv.HandleHealth)
	srv.Register(e.Group("/api/v1"))
	return e, store
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestWorkflowCRUDOverHTTP(t *testing.T) {
	e, _ := newTestServer(t)

	body := `{
		"name": "http crud",
		"nodes": [
			{"id": "t", "name": "Trigger", "type": "manualTrigger"},
			{"id": "s", "name": "Set", "type": "set", "parameters": {"values": {"x": 1}}}
		],
		"connections": [
			{"source_node": "t", "target_node": "s"}
		]
	}`

	rec := doJSON(e, http.MethodPost, "/api/v1/workflows", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Workflow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.WorkflowStatusDraft, created.Status)
	// Connections get ids and the parent workflow id filled in.
	require.Len(t, created.Connections, 1)
	assert.NotEmpty(t, created.Connections[0].ID)
	assert.Equal(t, created.ID, created.Connections[0].WorkflowID)

	rec = doJSON(e, http.MethodGet, "/api/v1/workflows/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/workflows", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	update := `{"name": "renamed", "status": "active", "nodes": [], "connections": []}`
	rec = doJSON(e, http.MethodPut, "/api/v1/workflows/"+created.ID, update)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Workflow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, created.ID, updated.ID)

	rec = doJSON(e, http.MethodDelete, "/api/v1/workflows/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/workflows/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateWorkflowValidation(t *testing.T) {
	e, _ := newTestServer(t)

	t.Run("missing name", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/v1/workflows", `{"nodes": [], "connections": []}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("dangling connection", func(t *testing.T) {
		body := `{
			"name": "broken",
			"nodes": [{"id": "t", "name": "Trigger", "type": "manualTrigger"}],
			"connections": [{"source_node": "t", "target_node": "ghost"}]
		}`
		rec := doJSON(e, http.MethodPost, "/api/v1/workflows", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "unknown target node")
	})

	t.Run("duplicate node ids", func(t *testing.T) {
		body := `{
			"name": "dupes",
			"nodes": [
				{"id": "t", "name": "A", "type": "manualTrigger"},
				{"id": "t", "name": "B", "type": "set"}
			]
		}`
		rec := doJSON(e, http.MethodPost, "/api/v1/workflows", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestExecutionRoundTrip(t *testing.T) {
	e, store := newTestServer(t)

	body := `{
		"name": "runnable",
		"nodes": [
			{"id": "t", "name": "Trigger", "type": "manualTrigger"},
			{"id": "s", "name": "Set", "type": "set", "parameters": {"values": {"done": true}}}
		],
		"connections": [
			{"source_node": "t", "target_node": "s"}
		]
	}`
	rec := doJSON(e, http.MethodPost, "/api/v1/workflows", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var wf models.Workflow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wf))

	rec = doJSON(e, http.MethodPost, "/api/v1/workflows/"+wf.ID+"/executions", `{"payload": {"who": "tester"}}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var started StartExecutionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	require.NotEmpty(t, started.ExecutionID)
	assert.Equal(t, models.ExecutionStatusRunning, started.Status)

	exec := waitForTerminal(t, store, started.ExecutionID)
	assert.Equal(t, models.ExecutionStatusSuccess, exec.Status)

	rec = doJSON(e, http.MethodGet, "/api/v1/executions/"+started.ExecutionID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var polled models.Execution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &polled))
	assert.True(t, polled.Finished)
	require.Contains(t, polled.Data.ResultData, "s")
	items := polled.Data.ResultData["s"].Main()
	require.Len(t, items, 1)
	assert.Equal(t, true, items[0].JSON["done"])
	assert.Equal(t, "tester", items[0].JSON["who"])

	rec = doJSON(e, http.MethodGet, "/api/v1/workflows/"+wf.ID+"/executions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Execution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestStartExecutionUnknownWorkflow(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/workflows/ghost/executions", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStopExecutionOverHTTP(t *testing.T) {
	e, store := newTestServer(t)

	body := `{
		"name": "stoppable",
		"nodes": [{"id": "t", "name": "Trigger", "type": "manualTrigger"}]
	}`
	rec := doJSON(e, http.MethodPost, "/api/v1/workflows", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var wf models.Workflow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wf))

	rec = doJSON(e, http.MethodPost, "/api/v1/workflows/"+wf.ID+"/executions", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	var started StartExecutionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))

	waitForTerminal(t, store, started.ExecutionID)

	// Stopping an already finished run leaves its terminal status untouched.
	rec = doJSON(e, http.MethodPost, "/api/v1/executions/"+started.ExecutionID+"/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stopped models.Execution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stopped))
	assert.Equal(t, models.ExecutionStatusSuccess, stopped.Status)

	rec = doJSON(e, http.MethodPost, "/api/v1/executions/ghost/stop", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListNodeTypes(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/v1/node-types", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var metas []nodes.TypeMeta
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metas))
	assert.GreaterOrEqual(t, len(metas), 7)
	assert.Equal(t, "manualTrigger", metas[0].Type)
}

func waitForTerminal(t *testing.T, store repository.Store, executionID string) *models.Execution {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		exec, err := store.GetExecution(context.Background(), executionID)
		require.NoError(t, err)
		if exec.Status.Terminal() {
			return exec
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("execution did not reach a terminal state")
	return nil
}

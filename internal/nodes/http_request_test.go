package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowforge/internal/services"
	"flowforge/pkg/models"
)

// recordingCaller captures the request and replies with a canned response.
type recordingCaller struct {
	resp *services.HTTPResponse
	err  error

	method  string
	url     string
	headers map[string]string
	body    []byte
	calls   int
}

func (c *recordingCaller) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (*services.HTTPResponse, error) {
	c.calls++
	c.method, c.url, c.headers, c.body = method, url, headers, body
	return c.resp, c.err
}

func httpRequestReq(params map[string]any, input []models.NodeExecutionData) Request {
	return Request{
		Node:  models.Node{ID: "h1", Name: "Fetch", Type: "httpRequest", Parameters: params},
		Input: input,
	}
}

func TestHTTPRequestJSONObjectResponse(t *testing.T) {
	caller := &recordingCaller{resp: &services.HTTPResponse{
		StatusCode: 200,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       []byte(`{"id":"abc","count":2}`),
	}}
	h := &HTTPRequest{Client: caller}

	out, err := h.Execute(context.Background(), httpRequestReq(map[string]any{
		"url": "https://api.example.com/things",
	}, nil))
	require.NoError(t, err)

	assert.Equal(t, "GET", caller.method)
	assert.Equal(t, "https://api.example.com/things", caller.url)

	items := out.Main()
	require.Len(t, items, 1)
	assert.Equal(t, "abc", items[0].JSON["id"])
	assert.Equal(t, 200, items[0].JSON["statusCode"])
	headers, ok := items[0].JSON["headers"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "application/json", headers["Content-Type"])
}

func TestHTTPRequestNonObjectJSONWrapped(t *testing.T) {
	caller := &recordingCaller{resp: &services.HTTPResponse{StatusCode: 200, Body: []byte(`[1,2,3]`)}}
	h := &HTTPRequest{Client: caller}

	out, err := h.Execute(context.Background(), httpRequestReq(map[string]any{
		"url": "https://api.example.com/list",
	}, nil))
	require.NoError(t, err)

	items := out.Main()
	require.Len(t, items, 1)
	assert.Contains(t, items[0].JSON, "data")
}

func TestHTTPRequestNonJSONBodyFallsBack(t *testing.T) {
	caller := &recordingCaller{resp: &services.HTTPResponse{StatusCode: 200, Body: []byte("plain text")}}
	h := &HTTPRequest{Client: caller}

	out, err := h.Execute(context.Background(), httpRequestReq(map[string]any{
		"url": "https://api.example.com/text",
	}, nil))
	require.NoError(t, err)

	items := out.Main()
	require.Len(t, items, 1)
	assert.Equal(t, "plain text", items[0].JSON["data"])
}

func TestHTTPRequestNon2xxIsNotError(t *testing.T) {
	caller := &recordingCaller{resp: &services.HTTPResponse{StatusCode: 503, Body: []byte(`{"err":"down"}`)}}
	h := &HTTPRequest{Client: caller}

	out, err := h.Execute(context.Background(), httpRequestReq(map[string]any{
		"url": "https://api.example.com/health",
	}, nil))
	require.NoError(t, err)
	assert.Equal(t, 503, out.Main()[0].JSON["statusCode"])
}

func TestHTTPRequestBuildsQueryAndHeaders(t *testing.T) {
	caller := &recordingCaller{resp: &services.HTTPResponse{StatusCode: 200, Body: []byte(`{}`)}}
	h := &HTTPRequest{Client: caller}

	_, err := h.Execute(context.Background(), httpRequestReq(map[string]any{
		"url":    "https://api.example.com/search",
		"method": "post",
		"queryParameters": map[string]any{
			"q":     "widgets",
			"limit": 10,
		},
		"headers": map[string]any{
			"Authorization": "Bearer tok",
		},
		"body": map[string]any{"name": "thing"},
	}, nil))
	require.NoError(t, err)

	assert.Equal(t, "POST", caller.method)
	assert.Contains(t, caller.url, "q=widgets")
	assert.Contains(t, caller.url, "limit=10")
	assert.Equal(t, "Bearer tok", caller.headers["Authorization"])
	assert.JSONEq(t, `{"name":"thing"}`, string(caller.body))
}

func TestHTTPRequestStringBodyPassedVerbatim(t *testing.T) {
	caller := &recordingCaller{resp: &services.HTTPResponse{StatusCode: 200, Body: []byte(`{}`)}}
	h := &HTTPRequest{Client: caller}

	_, err := h.Execute(context.Background(), httpRequestReq(map[string]any{
		"url":    "https://api.example.com/raw",
		"method": "PUT",
		"body":   "raw payload",
	}, nil))
	require.NoError(t, err)
	assert.Equal(t, "raw payload", string(caller.body))
}

func TestHTTPRequestSingleCallRegardlessOfInput(t *testing.T) {
	caller := &recordingCaller{resp: &services.HTTPResponse{StatusCode: 200, Body: []byte(`{}`)}}
	h := &HTTPRequest{Client: caller}

	out, err := h.Execute(context.Background(), httpRequestReq(map[string]any{
		"url": "https://api.example.com/once",
	}, []models.NodeExecutionData{
		{JSON: map[string]any{"n": 1}},
		{JSON: map[string]any{"n": 2}},
		{JSON: map[string]any{"n": 3}},
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, caller.calls)
	assert.Len(t, out.Main(), 1)
}

func TestHTTPRequestTransportErrorIsFatal(t *testing.T) {
	caller := &recordingCaller{err: errors.New("connection refused")}
	h := &HTTPRequest{Client: caller}

	_, err := h.Execute(context.Background(), httpRequestReq(map[string]any{
		"url": "https://api.example.com/dead",
	}, nil))
	assert.ErrorContains(t, err, "connection refused")
}

func TestHTTPRequestMissingURL(t *testing.T) {
	h := &HTTPRequest{Client: &recordingCaller{}}

	_, err := h.Execute(context.Background(), httpRequestReq(nil, nil))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "url")
}

package nodes

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"

	"flowforge/internal/services"
	"flowforge/pkg/models"
)

// HTTPRequest issues one outbound HTTP call per execution and emits a single
// item with the parsed response body, status code and response headers. A
// non-2xx status is not an error; the response is recorded as-is and the run
// continues.
type HTTPRequest struct {
	Client services.HTTPCaller
}

// Execute implements Handler.
func (h *HTTPRequest) Execute(ctx context.Context, req Request) (models.NodeOutput, error) {
	rawURL := stringParam(req.Node.Parameters, "url", "")
	if rawURL == "" {
		return nil, errMissingParam(req.Node.Name, "url")
	}
	method := strings.ToUpper(stringParam(req.Node.Parameters, "method", "GET"))

	target, err := buildURL(rawURL, mapParam(req.Node.Parameters, "queryParameters"))
	if err != nil {
		return nil, fmt.Errorf("node %q: invalid url: %w", req.Node.Name, err)
	}

	headers := make(map[string]string)
	for k, v := range mapParam(req.Node.Parameters, "headers") {
		headers[k] = stringify(v)
	}

	body, err := requestBody(req.Node.Parameters)
	if err != nil {
		return nil, fmt.Errorf("node %q: invalid body: %w", req.Node.Name, err)
	}

	resp, err := h.Client.Do(ctx, method, target, headers, body)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", req.Node.Name, err)
	}

	item := parseResponseBody(resp.Body)
	item["statusCode"] = resp.StatusCode
	item["headers"] = resp.Headers

	return models.MainOutput([]models.NodeExecutionData{{JSON: item}}), nil
}

func buildURL(raw string, query map[string]any) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			q.Set(k, stringify(v))
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func requestBody(params map[string]any) ([]byte, error) {
	v, ok := params["body"]
	if !ok || v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(v)
}

// parseResponseBody decodes the body as JSON, falling back to
// {data: rawText} when it does not parse, and wrapping non-object JSON under
// the same data key.
func parseResponseBody(body []byte) map[string]any {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return map[string]any{"data": string(body)}
	}
	if obj, ok := parsed.(map[string]any); ok {
		return obj
	}
	return map[string]any{"data": parsed}
}

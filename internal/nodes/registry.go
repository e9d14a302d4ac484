// Package nodes holds the node type registry and the built-in node handlers
// dispatched by the execution engine.
package nodes

import (
	"context"
	"fmt"
	"strings"

	"flowforge/internal/services"
	"flowforge/pkg/models"
)

// Category groups node types for the editor palette and tells the engine
// which types can originate a run.
type Category string

const (
	CategoryTrigger   Category = "trigger"
	CategoryAction    Category = "action"
	CategoryTransform Category = "transform"
)

// Property describes one configurable parameter of a node type. The editor
// uses it to render configuration forms; the engine only checks presence of
// required values.
type Property struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	Required bool   `json:"required"`
	Default  any    `json:"default,omitempty"`
}

// TypeMeta is the display and schema metadata for a node type.
type TypeMeta struct {
	Type        string     `json:"type"`
	DisplayName string     `json:"display_name"`
	Category    Category   `json:"category"`
	Description string     `json:"description,omitempty"`
	Properties  []Property `json:"properties,omitempty"`
}

// ExecutionInfo carries run-scoped values into a handler.
type ExecutionInfo struct {
	ExecutionID string
	Mode        models.ExecutionMode
	// Payload is the externally supplied trigger payload, nil for most runs.
	Payload map[string]any
}

// Request is the full input to one handler invocation.
type Request struct {
	Node      models.Node
	Input     []models.NodeExecutionData
	Execution ExecutionInfo
}

// Handler executes one node type. Implementations must be pure functions of
// the request: no shared workflow state is ever mutated.
type Handler interface {
	Execute(ctx context.Context, req Request) (models.NodeOutput, error)
}

type registration struct {
	meta    TypeMeta
	handler Handler
}

// Registry maps a node type identifier to its metadata and handler. It is
// built once at process start and read-only afterwards.
type Registry struct {
	types map[string]registration
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]registration)}
}

// Register adds a node type. Registering the same type twice is a
// programming error.
func (r *Registry) Register(meta TypeMeta, h Handler) error {
	if _, exists := r.types[meta.Type]; exists {
		return fmt.Errorf("node type %q already registered", meta.Type)
	}
	r.types[meta.Type] = registration{meta: meta, handler: h}
	r.order = append(r.order, meta.Type)
	return nil
}

// Handler returns the handler for a type identifier.
func (r *Registry) Handler(nodeType string) (Handler, bool) {
	reg, ok := r.types[nodeType]
	if !ok {
		return nil, false
	}
	return reg.handler, true
}

// Meta returns the metadata for a type identifier.
func (r *Registry) Meta(nodeType string) (TypeMeta, bool) {
	reg, ok := r.types[nodeType]
	return reg.meta, ok
}

// List returns all registered type metadata in registration order.
func (r *Registry) List() []TypeMeta {
	out := make([]TypeMeta, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.types[t].meta)
	}
	return out
}

// IsTrigger reports whether a node can originate a run: its registered
// category is trigger, or its type name marks it as an entry point.
func (r *Registry) IsTrigger(n models.Node) bool {
	if meta, ok := r.Meta(n.Type); ok && meta.Category == CategoryTrigger {
		return true
	}
	return strings.Contains(strings.ToLower(n.Type), "trigger")
}

// Capabilities bundles the external services the built-in handlers depend
// on.
type Capabilities struct {
	HTTP   services.HTTPCaller
	Text   services.TextGenerator
	Email  services.EmailSender
	Script services.ScriptEngine
}

// Builtin returns a registry populated with the built-in node types.
func Builtin(caps Capabilities) *Registry {
	r := NewRegistry()
	register := func(meta TypeMeta, h Handler) {
		// Built-in registrations cannot collide.
		if err := r.Register(meta, h); err != nil {
			panic(err)
		}
	}

	register(TypeMeta{
		Type:        "manualTrigger",
		DisplayName: "Manual Trigger",
		Category:    CategoryTrigger,
		Description: "Starts the workflow when triggered manually.",
		Properties: []Property{
			{Name: "triggerData", Label: "Trigger Data", Kind: "json"},
		},
	}, &ManualTrigger{})

	register(TypeMeta{
		Type:        "httpRequest",
		DisplayName: "HTTP Request",
		Category:    CategoryAction,
		Description: "Makes an HTTP request and returns the response.",
		Properties: []Property{
			{Name: "url", Label: "URL", Kind: "string", Required: true},
			{Name: "method", Label: "Method", Kind: "string", Default: "GET"},
			{Name: "queryParameters", Label: "Query Parameters", Kind: "json"},
			{Name: "headers", Label: "Headers", Kind: "json"},
			{Name: "body", Label: "Body", Kind: "json"},
		},
	}, &HTTPRequest{Client: caps.HTTP})

	register(TypeMeta{
		Type:        "set",
		DisplayName: "Set",
		Category:    CategoryTransform,
		Description: "Sets or replaces fields on every item.",
		Properties: []Property{
			{Name: "values", Label: "Values", Kind: "json", Required: true},
			{Name: "keepOnlySet", Label: "Keep Only Set", Kind: "boolean", Default: false},
		},
	}, &Set{})

	register(TypeMeta{
		Type:        "if",
		DisplayName: "If",
		Category:    CategoryTransform,
		Description: "Routes items to the true or false branch.",
		Properties: []Property{
			{Name: "conditions", Label: "Conditions", Kind: "json"},
			{Name: "combinator", Label: "Combinator", Kind: "string", Default: "and"},
			{Name: "expression", Label: "Expression", Kind: "string"},
		},
	}, &If{Script: caps.Script})

	register(TypeMeta{
		Type:        "code",
		DisplayName: "Code",
		Category:    CategoryTransform,
		Description: "Runs a sandboxed expression against the input items.",
		Properties: []Property{
			{Name: "code", Label: "Code", Kind: "string", Required: true},
			{Name: "mode", Label: "Mode", Kind: "string", Default: "runOnceForAllItems"},
		},
	}, &Code{Script: caps.Script})

	register(TypeMeta{
		Type:        "aiText",
		DisplayName: "AI Text",
		Category:    CategoryAction,
		Description: "Generates text from a prompt template per item.",
		Properties: []Property{
			{Name: "prompt", Label: "Prompt", Kind: "string", Required: true},
			{Name: "model", Label: "Model", Kind: "string"},
			{Name: "maxTokens", Label: "Max Tokens", Kind: "number"},
			{Name: "temperature", Label: "Temperature", Kind: "number"},
		},
	}, &AIText{Generator: caps.Text})

	register(TypeMeta{
		Type:        "emailSend",
		DisplayName: "Send Email",
		Category:    CategoryAction,
		Description: "Sends an email per item using subject/body templates.",
		Properties: []Property{
			{Name: "to", Label: "To", Kind: "string", Required: true},
			{Name: "subject", Label: "Subject", Kind: "string"},
			{Name: "body", Label: "Body", Kind: "string"},
		},
	}, &EmailSend{Sender: caps.Email})

	return r
}

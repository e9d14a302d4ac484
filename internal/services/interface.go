// Package services holds the capability clients consumed by node handlers.
// The engine treats every capability as a fallible, context-aware black box.
package services

import "context"

// HTTPResponse is the normalized result of an outbound HTTP call.
type HTTPResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// HTTPCaller issues outbound HTTP requests on behalf of the httpRequest node.
type HTTPCaller interface {
	Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (*HTTPResponse, error)
}

// GenerateOptions tunes a text-generation call.
type GenerateOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Generation is the result of a text-generation call.
type Generation struct {
	Text       string `json:"text"`
	Model      string `json:"model"`
	TokensUsed int    `json:"tokens_used"`
}

// TextGenerator produces text from a prompt via an AI provider.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error)
}

// EmailReceipt is the provider acknowledgement for a sent message.
type EmailReceipt struct {
	MessageID string `json:"message_id"`
}

// EmailSender delivers a rendered message to a recipient.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) (*EmailReceipt, error)
}

// ScriptEngine evaluates user-supplied code against a narrow, caller-built
// environment. Implementations must never expose host ambient scope to the
// script.
type ScriptEngine interface {
	Run(ctx context.Context, code string, env map[string]any) (any, error)
}

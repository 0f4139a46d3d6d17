// Package llm is the model transport: an OpenRouter chat-completions client
// with tool calling, reasoning passthrough and bounded retry. The driver in
// internal/agent treats it as an opaque request/response channel.
package llm

import (
	"encoding/json"
)

// Message roles on the chat-completions wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one chat message. ReasoningDetails carries opaque provider
// reasoning blocks that must be echoed back verbatim on later turns.
type Message struct {
	Role             string          `json:"role"`
	Content          string          `json:"content"`
	ToolCalls        []ToolCall      `json:"tool_calls,omitempty"`
	ToolCallID       string          `json:"tool_call_id,omitempty"`
	Name             string          `json:"name,omitempty"`
	ReasoningDetails json.RawMessage `json:"reasoning_details,omitempty"`
}

// ToolCall is a model-requested tool invocation.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall names a tool and carries its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool is a function-calling tool definition.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction describes a tool's name and JSON-schema parameters.
type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// NewTool builds a function tool from a name, description and raw schema.
func NewTool(name, description string, parameters string) Tool {
	return Tool{
		Type: "function",
		Function: ToolFunction{
			Name:        name,
			Description: description,
			Parameters:  json.RawMessage(parameters),
		},
	}
}

// ReasoningOptions controls provider reasoning tokens.
type ReasoningOptions struct {
	Effort    string `json:"effort,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
	Exclude   bool   `json:"exclude,omitempty"`
}

// ProviderOptions is OpenRouter's provider routing preference block.
type ProviderOptions struct {
	Order             []string `json:"order,omitempty"`
	AllowFallbacks    *bool    `json:"allow_fallbacks,omitempty"`
	RequireParameters bool     `json:"require_parameters,omitempty"`
	DataCollection    string   `json:"data_collection,omitempty"`
	Only              []string `json:"only,omitempty"`
	Ignore            []string `json:"ignore,omitempty"`
	Quantizations     []string `json:"quantizations,omitempty"`
}

// Request is one chat-completions call.
type Request struct {
	Model       string            `json:"model"`
	Messages    []Message         `json:"messages"`
	Tools       []Tool            `json:"tools,omitempty"`
	Temperature *float64          `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Reasoning   *ReasoningOptions `json:"reasoning,omitempty"`
	Provider    *ProviderOptions  `json:"provider,omitempty"`
}

// Usage is the token accounting for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the decoded result of one call.
type Response struct {
	Content          string          `json:"content"`
	Reasoning        string          `json:"reasoning,omitempty"`
	ReasoningDetails json.RawMessage `json:"reasoning_details,omitempty"`
	ToolCalls        []ToolCall      `json:"tool_calls,omitempty"`
	Usage            Usage           `json:"usage"`
	Provider         string          `json:"provider,omitempty"`
	Model            string          `json:"model,omitempty"`
}

// AssistantMessage converts the response into the assistant message to
// append to the conversation, preserving reasoning blocks verbatim.
func (r *Response) AssistantMessage() Message {
	return Message{
		Role:             RoleAssistant,
		Content:          r.Content,
		ToolCalls:        r.ToolCalls,
		ReasoningDetails: r.ReasoningDetails,
	}
}

// Wire envelope for the chat-completions response body.
type completionEnvelope struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Choices  []struct {
		Message struct {
			Role             string          `json:"role"`
			Content          string          `json:"content"`
			Reasoning        string          `json:"reasoning"`
			ReasoningDetails json.RawMessage `json:"reasoning_details"`
			ToolCalls        []ToolCall      `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
	Error *struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

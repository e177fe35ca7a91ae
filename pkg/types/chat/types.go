// Package chat defines the wire format of the chat completion proxy, shared
// by the HTTP server, the upstream client and the SDK.
package chat

import (
	"encoding/json"
	"strings"
)

// Role tags a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Content part types of the Responses API.
const (
	PartInputText  = "input_text"
	PartOutputText = "output_text"
)

// ContentPart is one typed fragment of a message.
type ContentPart struct {
	Type string `json:"type" validate:"required"`
	Text string `json:"text"`
}

// InputMessage is one turn of the conversation sent upstream.
type InputMessage struct {
	Role    Role          `json:"role" validate:"required,oneof=system user assistant developer"`
	Content []ContentPart `json:"content" validate:"required,min=1,dive"`
}

// Request is the body accepted by the proxy and forwarded upstream.
type Request struct {
	Model           string          `json:"model" validate:"required"`
	Input           []InputMessage  `json:"input" validate:"required,min=1,dive"`
	Text            json.RawMessage `json:"text,omitempty"`
	Reasoning       json.RawMessage `json:"reasoning,omitempty"`
	Tools           json.RawMessage `json:"tools,omitempty"`
	Temperature     *float64        `json:"temperature,omitempty"`
	MaxOutputTokens *int            `json:"max_output_tokens,omitempty"`
	TopP            *float64        `json:"top_p,omitempty"`
	Store           *bool           `json:"store,omitempty"`
}

// Response is what the proxy returns: the extracted text plus the raw
// upstream payload.
type Response struct {
	Text     string          `json:"text"`
	ID       string          `json:"id"`
	Model    string          `json:"model"`
	Response json.RawMessage `json:"response,omitempty"`
}

// ErrorResponse is the body of every non-2xx proxy answer.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewMessage builds a single-part text message.  Assistant turns carry
// output text, every other role input text.
func NewMessage(role Role, text string) InputMessage {
	partType := PartInputText
	if role == RoleAssistant {
		partType = PartOutputText
	}
	return InputMessage{Role: role, Content: []ContentPart{{Type: partType, Text: text}}}
}

// Text concatenates the text parts of m.
func (m InputMessage) Text() string {
	var b strings.Builder
	for _, p := range m.Content {
		b.WriteString(p.Text)
	}
	return b.String()
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

//Personal.AI order the ending

package types

// PartType identifies a MessagePart variant. Only "text" is defined
// today; future variants may be added without breaking existing
// consumers that only look at Type and Text.
type PartType string

const (
	PartTypeText PartType = "text"
)

// MessagePart is a single tagged-variant piece of a SessionMessage.
type MessagePart struct {
	Type PartType `json:"type"`
	Text string   `json:"text"`
}

// NewTextPart constructs a text MessagePart.
func NewTextPart(text string) MessagePart {
	return MessagePart{Type: PartTypeText, Text: text}
}

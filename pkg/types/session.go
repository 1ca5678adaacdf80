// Package types provides the core data shapes shared across the core
// services: sessions, messages, tool calls, and project profiles.
package types

import "time"

// Session is a single conversation with an LLM, holding its full
// message and tool-call history plus routing metadata.
type Session struct {
	SessionID    string            `json:"sessionId"`
	StartTime    time.Time         `json:"startTime"`
	LastActivity time.Time         `json:"lastActivity"`
	Model        string            `json:"model"`
	Provider     string            `json:"provider"`
	Messages     []SessionMessage  `json:"messages"`
	ToolCalls    []SessionToolCall `json:"toolCalls"`
	Metadata     SessionMetadata   `json:"metadata"`
}

// SessionMetadata tracks session-lifetime counters.
type SessionMetadata struct {
	TokenCount       int `json:"tokenCount"`
	CompressionCount int `json:"compressionCount"`
}

// HasPinnedSystemPrompt reports whether the session was established
// with a system prompt, per the invariant that messages[0].role ==
// "system" in that case.
func (s Session) HasPinnedSystemPrompt() bool {
	return len(s.Messages) > 0 && s.Messages[0].Role == RoleSystem
}

// Package contextmgr aggregates ad-hoc context entries contributed by
// different producers (hooks, extensions, the user, the system) and
// renders them into a single deterministic system-prompt fragment.
package contextmgr

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ollm-cli/ollm/internal/clock"
	"github.com/ollm-cli/ollm/internal/event"
)

// Source identifies who contributed a ContextEntry.
type Source string

const (
	SourceHook      Source = "hook"
	SourceExtension Source = "extension"
	SourceUser      Source = "user"
	SourceSystem    Source = "system"
)

// ContextEntry is a single named, prioritised blob of text.
type ContextEntry struct {
	Key       string
	Content   string
	Priority  int
	Source    Source
	Timestamp time.Time
}

// addOptions are the optional fields of AddContext; the spec defaults are
// priority 50 and source "user".
type addOptions struct {
	priority int
	source   Source
}

// Option customizes a single AddContext call.
type Option func(*addOptions)

// WithPriority sets the entry's priority; clamped to [0,100].
func WithPriority(p int) Option {
	return func(o *addOptions) { o.priority = p }
}

// WithSource sets the entry's contributing source.
func WithSource(s Source) Option {
	return func(o *addOptions) { o.source = s }
}

// Manager holds ContextEntry values in insertion order, keyed uniquely by
// Key. It is not safe for concurrent use from multiple goroutines without
// external synchronization — per spec §5 all of its operations are
// synchronous and non-suspending, and the caller is expected to serialize
// them the way a single logical host would.
type Manager struct {
	clock   clock.Clock
	order   []string
	entries map[string]ContextEntry
}

// New creates an empty context manager. A nil clock defaults to clock.Real.
func New(c clock.Clock) *Manager {
	if c == nil {
		c = clock.Real{}
	}
	return &Manager{
		clock:   c,
		entries: make(map[string]ContextEntry),
	}
}

func clampPriority(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// AddContext inserts or replaces the entry at key, applying the spec
// defaults (priority 50, source user) before the given options.
func (m *Manager) AddContext(key, content string, opts ...Option) {
	resolved := addOptions{priority: 50, source: SourceUser}
	for _, opt := range opts {
		opt(&resolved)
	}

	entry := ContextEntry{
		Key:       key,
		Content:   content,
		Priority:  clampPriority(resolved.priority),
		Source:    resolved.source,
		Timestamp: m.clock.Now(),
	}

	if _, exists := m.entries[key]; !exists {
		m.order = append(m.order, key)
	}
	m.entries[key] = entry

	event.Publish(event.Event{Type: event.ContextAdded, Data: event.ContextAddedData{Key: key, Priority: entry.Priority}})
}

// RemoveContext removes key if present; a no-op otherwise.
func (m *Manager) RemoveContext(key string) {
	if _, ok := m.entries[key]; !ok {
		return
	}
	delete(m.entries, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	event.Publish(event.Event{Type: event.ContextRemoved, Data: event.ContextRemovedData{Key: key}})
}

// HasContext reports whether key is present.
func (m *Manager) HasContext(key string) bool {
	_, ok := m.entries[key]
	return ok
}

// GetContext returns all entries in insertion order.
func (m *Manager) GetContext() []ContextEntry {
	result := make([]ContextEntry, 0, len(m.order))
	for _, k := range m.order {
		result = append(result, m.entries[k])
	}
	return result
}

// GetContextBySource returns entries contributed by source, preserving
// insertion order.
func (m *Manager) GetContextBySource(source Source) []ContextEntry {
	var result []ContextEntry
	for _, k := range m.order {
		if e := m.entries[k]; e.Source == source {
			result = append(result, e)
		}
	}
	return result
}

// ClearContext empties the store.
func (m *Manager) ClearContext() {
	m.order = nil
	m.entries = make(map[string]ContextEntry)
}

// GetSystemPromptAddition renders all entries into a system-prompt
// fragment, highest priority first, ties broken by insertion order.
func (m *Manager) GetSystemPromptAddition() string {
	if len(m.entries) == 0 {
		return ""
	}

	entries := m.GetContext()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Priority > entries[j].Priority
	})

	sections := make([]string, 0, len(entries))
	for _, e := range entries {
		sections = append(sections, fmt.Sprintf("## Context: %s\n%s", e.Key, e.Content))
	}

	return "\n\n" + strings.Join(sections, "\n\n")
}

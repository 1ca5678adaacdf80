// Package memory implements the persistent key/value memory store: an
// in-memory map backed by a single atomically-written JSON document, plus
// budget-bound rendering into a system-prompt fragment.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ollm-cli/ollm/internal/clock"
	"github.com/ollm-cli/ollm/internal/event"
	"github.com/ollm-cli/ollm/internal/storage"
	"github.com/ollm-cli/ollm/internal/tokenest"
)

const documentVersion = 1

// Category classifies a remembered entry.
type Category string

const (
	CategoryFact       Category = "fact"
	CategoryPreference Category = "preference"
	CategoryContext    Category = "context"
)

// EntrySource identifies who produced a MemoryEntry.
type EntrySource string

const (
	SourceUser   EntrySource = "user"
	SourceLLM    EntrySource = "llm"
	SourceSystem EntrySource = "system"
)

// MemoryEntry is a single remembered key/value fact.
type MemoryEntry struct {
	Key         string      `json:"key"`
	Value       string      `json:"value"`
	Category    Category    `json:"category"`
	Source      EntrySource `json:"source"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	AccessCount int         `json:"accessCount"`
}

// document is the on-disk JSON shape at the configured path.
type document struct {
	Version int           `json:"version"`
	Entries []MemoryEntry `json:"entries"`
}

// rememberOptions are the optional fields of Remember; spec defaults are
// category "fact" and source "user".
type rememberOptions struct {
	category Category
	source   EntrySource
}

// Option customizes a single Remember call.
type Option func(*rememberOptions)

// WithCategory sets the entry's category.
func WithCategory(c Category) Option {
	return func(o *rememberOptions) { o.category = c }
}

// WithSource sets the entry's contributing source.
func WithSource(s EntrySource) Option {
	return func(o *rememberOptions) { o.source = s }
}

// Store is the in-memory map plus its on-disk persistence and token
// budget. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	clock   clock.Clock
	storage *storage.Storage
	path    []string
	budget  int

	entries map[string]MemoryEntry
}

// New creates a Store backed by st at path, with token budget budget used
// by GetSystemPromptAddition. A nil clock defaults to clock.Real.
func New(st *storage.Storage, path []string, budget int, c clock.Clock) *Store {
	if c == nil {
		c = clock.Real{}
	}
	return &Store{
		clock:   c,
		storage: st,
		path:    path,
		budget:  budget,
		entries: make(map[string]MemoryEntry),
	}
}

// Load reads the backing file if it exists; a missing file leaves the
// store empty without error. A malformed file fails with ErrCorruptState.
func (s *Store) Load(ctx context.Context) error {
	var doc document
	err := s.storage.Get(ctx, s.path, &doc)
	if err == storage.ErrNotFound {
		s.mu.Lock()
		s.entries = make(map[string]MemoryEntry)
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		// storage.Get already classifies the failure (ErrIO for a read
		// failure, ErrCorruptState for a parse failure); propagate as-is.
		return err
	}

	entries := make(map[string]MemoryEntry, len(doc.Entries))
	for _, e := range doc.Entries {
		entries[e.Key] = e
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return nil
}

// Save atomically persists the store to its backing file.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	doc := document{
		Version: documentVersion,
		Entries: make([]MemoryEntry, 0, len(s.entries)),
	}
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		doc.Entries = append(doc.Entries, s.entries[k])
	}
	s.mu.RUnlock()

	if err := s.storage.Put(ctx, s.path, doc); err != nil {
		// storage.Put already classifies the failure (ErrWriteContention
		// for a lock it couldn't take, ErrIO otherwise); propagate as-is.
		return err
	}
	return nil
}

// Remember creates or updates the entry at key. On update, value and
// updatedAt change and category/source are set from the options (the
// defaults fact/user when an option is not given); createdAt and
// accessCount are preserved.
func (s *Store) Remember(key, value string, opts ...Option) {
	resolved := rememberOptions{category: CategoryFact, source: SourceUser}
	for _, opt := range opts {
		opt(&resolved)
	}

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[key]
	entry := MemoryEntry{
		Key:       key,
		Value:     value,
		Category:  resolved.category,
		Source:    resolved.source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ok {
		entry.CreatedAt = existing.CreatedAt
		entry.AccessCount = existing.AccessCount
	}
	s.entries[key] = entry

	event.Publish(event.Event{Type: event.MemoryRemembered, Data: event.MemoryRememberedData{Key: key, Category: string(resolved.category)}})
}

// Recall returns the entry at key, incrementing its access count and
// updating its updatedAt timestamp. Returns false if key is absent.
func (s *Store) Recall(key string) (MemoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return MemoryEntry{}, false
	}
	entry.AccessCount++
	entry.UpdatedAt = s.clock.Now()
	s.entries[key] = entry
	return entry, true
}

// Forget removes the entry at key, reporting whether it was present.
func (s *Store) Forget(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	event.Publish(event.Event{Type: event.MemoryForgotten, Data: event.MemoryForgottenData{Key: key}})
	return true
}

// Search returns entries whose key or value case-insensitively contains
// query. Order is stable within one process but otherwise unspecified.
func (s *Store) Search(query string) []MemoryEntry {
	q := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := sortedKeys(s.entries)
	var result []MemoryEntry
	for _, k := range keys {
		e := s.entries[k]
		if strings.Contains(strings.ToLower(e.Key), q) || strings.Contains(strings.ToLower(e.Value), q) {
			result = append(result, e)
		}
	}
	return result
}

// ListAll returns every entry, in a stable but unspecified order.
func (s *Store) ListAll() []MemoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := sortedKeys(s.entries)
	result := make([]MemoryEntry, 0, len(keys))
	for _, k := range keys {
		result = append(result, s.entries[k])
	}
	return result
}

func sortedKeys(m map[string]MemoryEntry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetSystemPromptAddition greedily selects entries under the store's
// token budget (with a 10% margin), ordered by (accessCount desc,
// updatedAt desc, createdAt desc), and renders them as
// "## Remembered Context\n" followed by "key: value" lines. Returns ""
// if no entry fits.
func (s *Store) GetSystemPromptAddition() string {
	s.mu.RLock()
	entries := make([]MemoryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.AccessCount != b.AccessCount {
			return a.AccessCount > b.AccessCount
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	const header = "## Remembered Context\n"
	limit := int(float64(s.budget) * 1.1)

	var lines []string
	for _, e := range entries {
		candidate := append(append([]string{}, lines...), fmt.Sprintf("%s: %s", e.Key, e.Value))
		rendered := header + strings.Join(candidate, "\n")
		if tokenest.EstimateTokens(rendered) > limit {
			break
		}
		lines = candidate
	}

	if len(lines) == 0 {
		return ""
	}
	return header + strings.Join(lines, "\n")
}

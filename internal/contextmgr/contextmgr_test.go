package contextmgr

import (
	"testing"
	"time"

	"github.com/ollm-cli/ollm/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyPromptIsExactlyEmpty(t *testing.T) {
	m := New(nil)
	assert.Equal(t, "", m.GetSystemPromptAddition())
}

func TestAddRemoveRoundTrip(t *testing.T) {
	m := New(nil)
	m.AddContext("k", "v", WithPriority(70), WithSource(SourceHook))

	require.True(t, m.HasContext("k"))
	m.RemoveContext("k")

	assert.False(t, m.HasContext("k"))
	assert.Empty(t, m.GetContext())
	assert.Equal(t, "", m.GetSystemPromptAddition())
}

func TestRemoveIsNoopWhenAbsent(t *testing.T) {
	m := New(nil)
	m.RemoveContext("nope") // must not panic
	assert.Empty(t, m.GetContext())
}

func TestGetContextCompleteness(t *testing.T) {
	fc := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	m := New(fc)

	m.AddContext("a", "content-a", WithPriority(10), WithSource(SourceUser))
	m.AddContext("b", "content-b", WithPriority(90), WithSource(SourceSystem))

	entries := m.GetContext()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Key)
	assert.Equal(t, "content-a", entries[0].Content)
	assert.Equal(t, 10, entries[0].Priority)
	assert.Equal(t, SourceUser, entries[0].Source)
	assert.False(t, entries[0].Timestamp.IsZero())

	assert.Equal(t, "b", entries[1].Key)
}

func TestPriorityClamped(t *testing.T) {
	m := New(nil)
	m.AddContext("hi", "x", WithPriority(500))
	m.AddContext("lo", "x", WithPriority(-5))

	byKey := map[string]ContextEntry{}
	for _, e := range m.GetContext() {
		byKey[e.Key] = e
	}
	assert.Equal(t, 100, byKey["hi"].Priority)
	assert.Equal(t, 0, byKey["lo"].Priority)
}

func TestSystemPromptOrderingAndFormat(t *testing.T) {
	m := New(nil)
	m.AddContext("hook-ctx", "X", WithSource(SourceHook), WithPriority(100))
	m.AddContext("ext-ctx", "Y", WithSource(SourceExtension), WithPriority(80))
	m.AddContext("user-ctx", "Z", WithSource(SourceUser), WithPriority(60))

	out := m.GetSystemPromptAddition()

	assert.True(t, len(out) > 2 && out[:2] == "\n\n")

	hookIdx := indexOf(out, "## Context: hook-ctx")
	extIdx := indexOf(out, "## Context: ext-ctx")
	userIdx := indexOf(out, "## Context: user-ctx")
	require.True(t, hookIdx >= 0 && extIdx >= 0 && userIdx >= 0)
	assert.Less(t, hookIdx, extIdx)
	assert.Less(t, extIdx, userIdx)

	assert.Contains(t, out, "X")
	assert.Contains(t, out, "Y")
	assert.Contains(t, out, "Z")
}

func TestTieBreakIsInsertionOrder(t *testing.T) {
	m := New(nil)
	m.AddContext("first", "1", WithPriority(50))
	m.AddContext("second", "2", WithPriority(50))

	out := m.GetSystemPromptAddition()
	assert.Less(t, indexOf(out, "first"), indexOf(out, "second"))
}

func TestGetContextBySource(t *testing.T) {
	m := New(nil)
	m.AddContext("a", "1", WithSource(SourceHook))
	m.AddContext("b", "2", WithSource(SourceUser))
	m.AddContext("c", "3", WithSource(SourceHook))

	hooks := m.GetContextBySource(SourceHook)
	require.Len(t, hooks, 2)
	assert.Equal(t, "a", hooks[0].Key)
	assert.Equal(t, "c", hooks[1].Key)
}

func TestClearContext(t *testing.T) {
	m := New(nil)
	m.AddContext("a", "1")
	m.ClearContext()
	assert.Empty(t, m.GetContext())
	assert.Equal(t, "", m.GetSystemPromptAddition())
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

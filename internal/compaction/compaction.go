// Package compaction implements the chat compression engine: a
// stateless, synchronous service that shrinks a session's message
// history to fit a token budget while preserving the pinned system
// prompt and the most recent turns verbatim.
package compaction

import (
	"fmt"
	"strings"

	"github.com/ollm-cli/ollm/internal/config"
	"github.com/ollm-cli/ollm/internal/event"
	"github.com/ollm-cli/ollm/internal/tokenest"
	"github.com/ollm-cli/ollm/pkg/types"
)

// Options configures a single Compress call.
type Options struct {
	Strategy             config.CompressionStrategy
	PreserveRecentTokens int
	TargetTokens         int
}

// Result is the outcome of a Compress call.
type Result struct {
	CompressedMessages   []types.SessionMessage
	OriginalTokenCount   int
	CompressedTokenCount int
	Strategy             config.CompressionStrategy
}

// messageTokens estimates the token cost of a single message.
func messageTokens(m types.SessionMessage) int {
	return tokenest.EstimateMessageTokens(m.Text())
}

// totalTokens sums messageTokens across a message slice.
func totalTokens(messages []types.SessionMessage) int {
	total := 0
	for _, m := range messages {
		total += messageTokens(m)
	}
	return total
}

// Summarize compresses messages with the summarize strategy. It is a thin
// wrapper over Compress with the tail-preservation budget pinned to
// targetTokens. The result is not guaranteed to fit targetTokens: the
// summary message and the preserved tail are not shrunk further, so
// their total can still exceed it.
func Summarize(messages []types.SessionMessage, targetTokens int) []types.SessionMessage {
	result := Compress(messages, Options{
		Strategy:             config.StrategySummarize,
		PreserveRecentTokens: targetTokens,
		TargetTokens:         targetTokens,
	})
	return result.CompressedMessages
}

// Compress shrinks messages per opts.Strategy, preserving the pinned
// system prompt (if any) at position 0 and the final input message as
// the final output message.
func Compress(messages []types.SessionMessage, opts Options) Result {
	original := totalTokens(messages)

	if original <= opts.TargetTokens || len(messages) <= 1 {
		return Result{
			CompressedMessages:   messages,
			OriginalTokenCount:   original,
			CompressedTokenCount: original,
			Strategy:             opts.Strategy,
		}
	}

	head, remainder := splitHead(messages)
	middle, tail := splitTail(remainder, opts.PreserveRecentTokens)

	var compressed []types.SessionMessage
	switch opts.Strategy {
	case config.StrategyTruncate:
		compressed = concatNonEmpty(head, tail)

	case config.StrategySummarize:
		compressed = applySummarize(head, middle, tail)

	case config.StrategyHybrid:
		compressed = applySummarize(head, middle, tail)
		compressed = trimTailUntilUnderBudget(head, compressed, opts.TargetTokens)

	default:
		compressed = concatNonEmpty(head, tail)
	}

	if len(compressed) == 0 {
		compressed = messages
	}

	compressedTokens := totalTokens(compressed)
	event.Publish(event.Event{Type: event.SessionCompacted, Data: event.SessionCompactedData{
		Strategy:             string(opts.Strategy),
		OriginalTokenCount:   original,
		CompressedTokenCount: compressedTokens,
	}})

	return Result{
		CompressedMessages:   compressed,
		OriginalTokenCount:   original,
		CompressedTokenCount: compressedTokens,
		Strategy:             opts.Strategy,
	}
}

// splitHead peels off the pinned system message, if the first message
// has role system.
func splitHead(messages []types.SessionMessage) (head, remainder []types.SessionMessage) {
	if len(messages) > 0 && messages[0].Role == types.RoleSystem {
		return messages[:1], messages[1:]
	}
	return nil, messages
}

// splitTail walks remainder from the end, accumulating messages into
// tail while their cumulative token cost stays within budget. The final
// message of remainder is always included in tail, even alone it
// exceeds budget (the spec's tie-break rule).
func splitTail(remainder []types.SessionMessage, budget int) (middle, tail []types.SessionMessage) {
	if len(remainder) == 0 {
		return nil, nil
	}

	cut := len(remainder) - 1
	cum := messageTokens(remainder[cut])

	for cut > 0 {
		candidate := messageTokens(remainder[cut-1])
		if cum+candidate > budget {
			break
		}
		cum += candidate
		cut--
	}

	return remainder[:cut], remainder[cut:]
}

// applySummarize builds [head, summaryMessage(middle)?, tail...],
// omitting the summary message when middle is empty.
func applySummarize(head, middle, tail []types.SessionMessage) []types.SessionMessage {
	if len(middle) == 0 {
		return concatNonEmpty(head, tail)
	}
	summary := summaryMessage(middle)
	out := make([]types.SessionMessage, 0, len(head)+1+len(tail))
	out = append(out, head...)
	out = append(out, summary)
	out = append(out, tail...)
	return out
}

// summaryMessage synthesizes a synthetic assistant message describing
// the dropped span. Deterministic given identical input: it is derived
// entirely from middle's content and timestamps, never from wall time.
func summaryMessage(middle []types.SessionMessage) types.SessionMessage {
	var b strings.Builder
	fmt.Fprintf(&b, "summary of %d earlier messages:\n", len(middle))

	for _, m := range middle {
		if m.Role != types.RoleUser {
			continue
		}
		text := m.Text()
		if len(text) > 80 {
			text = text[:80] + "…"
		}
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", text)
	}

	return types.SessionMessage{
		Role:      types.RoleAssistant,
		Parts:     []types.MessagePart{types.NewTextPart(strings.TrimRight(b.String(), "\n"))},
		Timestamp: middle[len(middle)-1].Timestamp,
	}
}

// trimTailUntilUnderBudget drops tail messages from the oldest end
// (never the final message) until compressed's total tokens fit within
// targetTokens or only the final message remains.
func trimTailUntilUnderBudget(head, compressed []types.SessionMessage, targetTokens int) []types.SessionMessage {
	// compressed is [head..., summary?, tail...]; the droppable region is
	// everything between head/summary and the final message.
	fixedPrefix := len(head)
	if len(compressed) > fixedPrefix && isSyntheticSummary(compressed, fixedPrefix) {
		fixedPrefix++
	}

	for totalTokens(compressed) > targetTokens && len(compressed) > fixedPrefix+1 {
		compressed = append(append([]types.SessionMessage{}, compressed[:fixedPrefix]...), compressed[fixedPrefix+1:]...)
	}
	return compressed
}

func isSyntheticSummary(compressed []types.SessionMessage, idx int) bool {
	if idx >= len(compressed) {
		return false
	}
	return compressed[idx].Role == types.RoleAssistant && strings.Contains(compressed[idx].Text(), "summary")
}

// concatNonEmpty joins a and b, returning nil (not an empty non-nil
// slice) when both are empty.
func concatNonEmpty(a, b []types.SessionMessage) []types.SessionMessage {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]types.SessionMessage, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

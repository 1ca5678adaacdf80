package compaction

import (
	"strings"
	"testing"
	"time"

	"github.com/ollm-cli/ollm/internal/config"
	"github.com/ollm-cli/ollm/internal/tokenest"
	"github.com/ollm-cli/ollm/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textMsg(role types.Role, text string, at time.Time) types.SessionMessage {
	return types.SessionMessage{
		Role:      role,
		Parts:     []types.MessagePart{types.NewTextPart(text)},
		Timestamp: at,
	}
}

func buildS1Messages() []types.SessionMessage {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	msgs := []types.SessionMessage{
		textMsg(types.RoleSystem, "You are a helpful coding assistant.", base),
	}

	// Each turn is ~200 chars (~60 estimated tokens including message
	// overhead), so with preserveRecentTokens=100 only the single final
	// message fits in the tail: the last two turns together (~120 tokens)
	// would exceed the budget.
	turnText := strings.Repeat("word ", 40)
	for i := 0; i < 6; i++ {
		role := types.RoleAssistant
		if i%2 == 1 {
			role = types.RoleUser
		}
		msgs = append(msgs, textMsg(role, turnText, base.Add(time.Duration(i+1)*time.Minute)))
	}
	return msgs
}

func TestS1CompressionScenario(t *testing.T) {
	messages := buildS1Messages()
	original := totalTokens(messages)
	require.Greater(t, original, 150)

	result := Compress(messages, Options{
		Strategy:             config.StrategySummarize,
		PreserveRecentTokens: 100,
		TargetTokens:         150,
	})

	require.Len(t, result.CompressedMessages, 3)
	assert.Equal(t, messages[0], result.CompressedMessages[0])
	assert.Contains(t, result.CompressedMessages[1].Text(), "summary")
	assert.Equal(t, messages[len(messages)-1], result.CompressedMessages[2])
	assert.LessOrEqual(t, result.CompressedTokenCount, 150)
}

func TestInvariantReturnsUnchangedWhenUnderBudget(t *testing.T) {
	messages := buildS1Messages()
	result := Compress(messages, Options{
		Strategy:             config.StrategyTruncate,
		PreserveRecentTokens: 100,
		TargetTokens:         10000,
	})
	assert.Equal(t, messages, result.CompressedMessages)
	assert.Equal(t, result.OriginalTokenCount, result.CompressedTokenCount)
}

func runInvariantSuite(t *testing.T, strategy config.CompressionStrategy) {
	messages := buildS1Messages()
	result := Compress(messages, Options{
		Strategy:             strategy,
		PreserveRecentTokens: 60,
		TargetTokens:         120,
	})

	// Invariant 1: pinned system message preserved verbatim at position 0.
	require.NotEmpty(t, result.CompressedMessages)
	assert.Equal(t, messages[0], result.CompressedMessages[0])

	// Invariant 2: last input message preserved verbatim as last output message.
	assert.Equal(t, messages[len(messages)-1], result.CompressedMessages[len(result.CompressedMessages)-1])

	// Invariant 3: compressed <= original.
	assert.LessOrEqual(t, result.CompressedTokenCount, result.OriginalTokenCount)

	// Invariant 4: non-empty.
	assert.NotEmpty(t, result.CompressedMessages)

	// Invariant 6: output message count does not exceed input count.
	assert.LessOrEqual(t, len(result.CompressedMessages), len(messages))
}

func TestInvariantsHoldForTruncate(t *testing.T) {
	runInvariantSuite(t, config.StrategyTruncate)
}

func TestInvariantsHoldForSummarize(t *testing.T) {
	runInvariantSuite(t, config.StrategySummarize)
}

func TestInvariantsHoldForHybrid(t *testing.T) {
	runInvariantSuite(t, config.StrategyHybrid)
}

func TestSummarizeInsertsExactlyOneSyntheticMessage(t *testing.T) {
	messages := buildS1Messages()
	result := Compress(messages, Options{
		Strategy:             config.StrategySummarize,
		PreserveRecentTokens: 60,
		TargetTokens:         120,
	})

	count := 0
	for _, m := range result.CompressedMessages {
		if m.Role == types.RoleAssistant && strings.Contains(m.Text(), "summary") {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestTieBreakKeepsFinalMessageWhenAloneExceedsBudget(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	messages := []types.SessionMessage{
		textMsg(types.RoleSystem, "sys", base),
		textMsg(types.RoleUser, "short", base.Add(time.Minute)),
		textMsg(types.RoleAssistant, strings.Repeat("x", 2000), base.Add(2*time.Minute)),
	}

	result := Compress(messages, Options{
		Strategy:             config.StrategyTruncate,
		PreserveRecentTokens: 1, // far smaller than the last message alone
		TargetTokens:         1,
	})

	last := result.CompressedMessages[len(result.CompressedMessages)-1]
	assert.Equal(t, messages[len(messages)-1], last)
}

func TestHybridTruncatesFurtherWhenSummarizeStillOverBudget(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var messages []types.SessionMessage
	messages = append(messages, textMsg(types.RoleSystem, "sys", base))
	for i := 0; i < 10; i++ {
		messages = append(messages, textMsg(types.RoleUser, strings.Repeat("word ", 20), base.Add(time.Duration(i)*time.Minute)))
	}

	tiny := tokenest.EstimateMessageTokens("sys") + 5
	result := Compress(messages, Options{
		Strategy:             config.StrategyHybrid,
		PreserveRecentTokens: 10000, // tail would otherwise include everything
		TargetTokens:         tiny,
	})

	assert.Equal(t, messages[0], result.CompressedMessages[0])
	assert.Equal(t, messages[len(messages)-1], result.CompressedMessages[len(result.CompressedMessages)-1])
	assert.LessOrEqual(t, len(result.CompressedMessages), len(messages))
}

func TestSummarizeWrapper(t *testing.T) {
	messages := buildS1Messages()
	out := Summarize(messages, 120)
	assert.Equal(t, messages[0], out[0])
	assert.Equal(t, messages[len(messages)-1], out[len(out)-1])
}

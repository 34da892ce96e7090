package intelligence_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/vecmem-go/pkg/intelligence"
)

func TestPlanRetention_Target(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	scorer := intelligence.NewDefaultScorer()

	// 20 important candidates at positions 0, 4, ..., 76 and 71 unimportant ones.
	var candidates []intelligence.Candidate
	for i := 0; i < 91; i++ {
		text := "plain chatter"
		if i%4 == 0 && i < 80 {
			text = "请打开卧室"
		}
		candidates = append(candidates, intelligence.Candidate{
			Text:      text,
			Timestamp: base.Add(time.Duration(i) * time.Minute).Format(time.RFC3339),
		})
	}

	plan := intelligence.PlanRetention(candidates, scorer, 100, 3)

	assert.Equal(t, 70, plan.Target)
	assert.Equal(t, 20, plan.Important)
	require.Len(t, plan.Keep, 70)
	assert.Equal(t, 21, plan.Discarded(len(candidates)))

	// Important first, in original order.
	for i, pos := range plan.Keep[:20] {
		assert.Equal(t, i*4, pos)
	}
	// Then the 50 most recent unimportant, newest first.
	rest := plan.Keep[20:]
	assert.Equal(t, 90, rest[0])
	for i := 1; i < len(rest); i++ {
		assert.Greater(t, rest[i-1], rest[i])
		assert.Less(t, scorer.Score(candidates[rest[i]].Text), 3)
	}
}

func TestPlanRetention_ImportantExceedTarget(t *testing.T) {
	var candidates []intelligence.Candidate
	for i := 0; i < 12; i++ {
		candidates = append(candidates, intelligence.Candidate{
			Text:      fmt.Sprintf("打开 device %d", i),
			Timestamp: fmt.Sprintf("2024-01-01T00:00:%02dZ", i),
		})
	}
	candidates = append(candidates, intelligence.Candidate{Text: "chatter", Timestamp: "2025-01-01T00:00:00Z"})

	plan := intelligence.PlanRetention(candidates, nil, 10, 3)

	// Important memories are never dropped, even beyond the target.
	assert.Equal(t, 7, plan.Target)
	assert.Equal(t, 12, plan.Important)
	assert.Len(t, plan.Keep, 12)
	assert.NotContains(t, plan.Keep, 12)
}

func TestRecencyOrder(t *testing.T) {
	timestamps := []string{
		"2024-01-01T10:00:00Z",
		"garbage",
		"2024-01-01T12:00:00+02:00", // 10:00Z, ties with the first
		"2024-03-01T00:00:00.123456",
		"2023-12-31 23:59:59",
	}

	order := intelligence.RecencyOrder(timestamps)

	assert.Equal(t, []int{3, 0, 2, 4, 1}, order)
}

func TestParseTimestamp(t *testing.T) {
	_, ok := intelligence.ParseTimestamp("2024-05-01T08:30:00.123456")
	assert.True(t, ok)

	_, ok = intelligence.ParseTimestamp(time.Now().Format(time.RFC3339Nano))
	assert.True(t, ok)

	_, ok = intelligence.ParseTimestamp("not a time")
	assert.False(t, ok)
}

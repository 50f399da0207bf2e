package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationRoundTrip(t *testing.T) {
	c := NewConversation("1")

	q, ticket, ok := c.Begin("  What is the total?  ")
	require.True(t, ok)
	assert.Equal(t, "What is the total?", q.Text)
	assert.Equal(t, "1", q.ClaimID)
	assert.True(t, c.Pending())

	_, _, ok = c.Begin("second question")
	assert.False(t, ok, "only one question may be in flight")

	applied := c.Complete(ticket, Reply{ID: "r1", Text: "$41,501.77", Timestamp: time.Now()})
	assert.True(t, applied)
	assert.False(t, c.Pending())

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, "$41,501.77", msgs[1].Content)
}

func TestConversationRejectsBlank(t *testing.T) {
	c := NewConversation("1")
	_, _, ok := c.Begin("   ")
	assert.False(t, ok)
	assert.Empty(t, c.Messages())
}

func TestConversationDropsStaleReplyAfterSwitch(t *testing.T) {
	c := NewConversation("1")
	_, ticket, ok := c.Begin("question about claim 1")
	require.True(t, ok)

	c.Switch("2")
	assert.Equal(t, "2", c.ClaimID())
	assert.False(t, c.Pending())

	assert.False(t, c.Complete(ticket, Reply{Text: "late answer"}))
	assert.Empty(t, c.Messages())
}

func TestConversationDropsStaleReplyAfterClear(t *testing.T) {
	c := NewConversation("1")
	_, old, _ := c.Begin("first")
	c.Clear()

	_, current, ok := c.Begin("second")
	require.True(t, ok)

	assert.False(t, c.Complete(old, Reply{Text: "stale"}))
	assert.True(t, c.Complete(current, Reply{Text: "fresh"}))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "fresh", msgs[1].Content)
}

func TestConversationSameClaimSwitchStillInvalidates(t *testing.T) {
	c := NewConversation("1")
	_, ticket, _ := c.Begin("q")
	c.Switch("1")
	assert.False(t, c.Complete(ticket, Reply{Text: "a"}))
}

package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/corddisc/corddisc/model"
)

func TestNeedsHeader(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := func(sender string, offset time.Duration) model.Message {
		return model.Message{SenderID: sender, CreatedAt: base.Add(offset)}
	}

	msgs := []model.Message{
		msg("alice", 0),
		msg("alice", 30*time.Second),           // same sender, close together
		msg("bob", 40*time.Second),             // sender change
		msg("bob", 40*time.Second+200*time.Second), // 200s gap, still grouped
		msg("bob", 40*time.Second+600*time.Second), // 400s further, splits
	}

	assert.True(t, NeedsHeader(msgs, 0), "first message always starts a group")
	assert.False(t, NeedsHeader(msgs, 1))
	assert.True(t, NeedsHeader(msgs, 2), "sender change starts a group")
	assert.False(t, NeedsHeader(msgs, 3), "gap under five minutes stays grouped")
	assert.True(t, NeedsHeader(msgs, 4), "gap over five minutes starts a group")
}

func TestNeedsHeaderExactBoundary(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msgs := []model.Message{
		{SenderID: "alice", CreatedAt: base},
		{SenderID: "alice", CreatedAt: base.Add(5 * time.Minute)},
	}
	assert.False(t, NeedsHeader(msgs, 1), "exactly the gap is still grouped")

	msgs[1].CreatedAt = base.Add(5*time.Minute + time.Millisecond)
	assert.True(t, NeedsHeader(msgs, 1))
}

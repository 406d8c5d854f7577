package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corddisc/corddisc/backend/memory"
	"github.com/corddisc/corddisc/chat"
)

func TestSendFailureRestoresEmptyComposerOnly(t *testing.T) {
	a := newApp(memory.New(), chat.NewState())

	m, _ := a.Update(sendDoneMsg{body: "lost message", err: chat.ErrNoRoom})
	a = m.(App)
	assert.Equal(t, "lost message", a.composer.Value(), "failed send restores the cleared composer")
	assert.Equal(t, "Select a room first.", a.notice)

	a.composer.SetValue("already retyping")
	m, _ = a.Update(sendDoneMsg{body: "lost message", err: chat.ErrNoRoom})
	a = m.(App)
	assert.Equal(t, "already retyping", a.composer.Value(), "in-flight typing is never overwritten")
}

func TestSendSuccessLeavesComposerAlone(t *testing.T) {
	a := newApp(memory.New(), chat.NewState())
	a.composer.SetValue("next message")

	m, _ := a.Update(sendDoneMsg{body: "sent message"})
	a = m.(App)
	assert.Equal(t, "next message", a.composer.Value())
	assert.Empty(t, a.notice)
}

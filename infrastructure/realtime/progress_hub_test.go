package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipforge/domain/model"
)

func TestProgressHub_FanOut(t *testing.T) {
	hub := NewProgressHub()

	a := hub.Subscribe("j1")
	b := hub.Subscribe("j1")
	require.Equal(t, 2, hub.Subscribers("j1"))

	hub.Publish("j1", model.ProgressEvent{Status: model.ProgressRendering, Progress: 50})

	for _, ch := range []chan model.ProgressEvent{a, b} {
		evt := <-ch
		assert.Equal(t, model.ProgressRendering, evt.Status)
		assert.Equal(t, 50, evt.Progress)
	}
}

func TestProgressHub_TerminalClearsSubscribers(t *testing.T) {
	hub := NewProgressHub()

	a := hub.Subscribe("j1")
	b := hub.Subscribe("j1")

	hub.Publish("j1", model.ProgressEvent{Status: model.ProgressCompleted, Progress: 100})

	for _, ch := range []chan model.ProgressEvent{a, b} {
		evt, ok := <-ch
		require.True(t, ok)
		assert.Equal(t, model.ProgressCompleted, evt.Status)
		_, ok = <-ch
		assert.False(t, ok, "channel should be closed after terminal event")
	}
	assert.Equal(t, 0, hub.Subscribers("j1"))
}

func TestProgressHub_UnsubscribeLeavesOthers(t *testing.T) {
	hub := NewProgressHub()

	a := hub.Subscribe("j1")
	b := hub.Subscribe("j1")

	hub.Unsubscribe("j1", a)
	_, ok := <-a
	assert.False(t, ok)

	hub.Publish("j1", model.ProgressEvent{Status: model.ProgressUploading, Progress: 90})
	evt := <-b
	assert.Equal(t, model.ProgressUploading, evt.Status)
	assert.Equal(t, 1, hub.Subscribers("j1"))
}

func TestProgressHub_LastUnsubscribeDiscardsEntry(t *testing.T) {
	hub := NewProgressHub()

	a := hub.Subscribe("j1")
	hub.Unsubscribe("j1", a)
	assert.Equal(t, 0, hub.Subscribers("j1"))

	// Double unsubscribe is a no-op, not a panic.
	hub.Unsubscribe("j1", a)
}

func TestProgressHub_PublishToUnknownJobIsNoop(t *testing.T) {
	hub := NewProgressHub()
	hub.Publish("nope", model.ProgressEvent{Status: model.ProgressDownloading})
}

func TestProgressHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewProgressHub()

	slow := hub.Subscribe("j1")
	fast := hub.Subscribe("j1")

	// Overflow the slow channel's buffer; Publish must never block.
	for i := 0; i < 20; i++ {
		hub.Publish("j1", model.ProgressEvent{Status: model.ProgressRendering, Progress: i})
		<-fast
	}
	assert.Len(t, slow, 8)
}

func TestProgressHub_IndependentJobs(t *testing.T) {
	hub := NewProgressHub()

	a := hub.Subscribe("j1")
	b := hub.Subscribe("j2")

	hub.Publish("j1", model.ProgressEvent{Status: model.ProgressCompleted, Progress: 100})

	evt := <-a
	assert.Equal(t, model.ProgressCompleted, evt.Status)
	assert.Len(t, b, 0)
	assert.Equal(t, 1, hub.Subscribers("j2"))
}

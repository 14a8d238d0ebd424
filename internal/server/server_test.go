package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Rishi-pixl/studylounge/internal/stats"
	"github.com/Rishi-pixl/studylounge/internal/testutil"
	"github.com/Rishi-pixl/studylounge/internal/types"
	"github.com/stretchr/testify/assert"
)

func waitForEvent(t *testing.T, sub *Subscriber) ([]byte, bool) {
	t.Helper()
	select {
	case data, ok := <-sub.send:
		return data, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for feed event")
		return nil, false
	}
}

func TestFeedServerFanout(t *testing.T) {
	mockStats := &stats.MockStatsUpdater{}
	defer mockStats.AssertExpectations(t)
	mockStats.On("RegisterMetric", stats.ActiveFeedConnections).Once()
	mockStats.On("Incr", stats.ActiveFeedConnections).Twice()
	mockStats.On("Decr", stats.ActiveFeedConnections).Twice()

	logger := testutil.TestLogger(t)
	fs := NewFeedServer(logger, mockStats)
	go fs.Run()

	sub := NewSubscriber(1, nil, fs, logger)
	otherRoomSub := NewSubscriber(2, nil, fs, logger)
	fs.Register(sub)
	fs.Register(otherRoomSub)

	msg := types.Message{
		Id:             10,
		Body:           "hello",
		AuthorId:       3,
		AuthorUsername: "sam",
		RoomId:         1,
		CreatedAt:      time.Now().UTC(),
	}
	fs.Publish(MessageCreated(msg))

	data, ok := waitForEvent(t, sub)
	assert.True(t, ok, "expected subscriber channel to be open")

	var ev FeedEvent
	assert.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, EventMessageCreated, ev.Type)
	assert.Equal(t, 1, ev.RoomId)
	assert.NotNil(t, ev.Message)
	assert.Equal(t, "hello", ev.Message.Body)
	assert.Equal(t, "sam", ev.Message.AuthorUsername)

	// the event must not reach subscribers of other rooms
	assert.Empty(t, otherRoomSub.send, "expected no event for other room")

	fs.Deregister(sub)
	_, ok = waitForEvent(t, sub)
	assert.False(t, ok, "expected subscriber channel to be closed after deregister")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, fs.Shutdown(ctx))

	_, ok = <-otherRoomSub.send
	assert.False(t, ok, "expected remaining subscriber channel to be closed on shutdown")
}

func TestFeedServerPublishAfterShutdown(t *testing.T) {
	mockStats := &stats.MockStatsUpdater{}
	mockStats.On("RegisterMetric", stats.ActiveFeedConnections).Once()
	fs := NewFeedServer(testutil.TestLogger(t), mockStats)
	go fs.Run()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, fs.Shutdown(ctx))

	done := make(chan struct{})
	go func() {
		fs.Publish(MessageDeleted(1, 2))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked after shutdown")
	}
}

func TestSubscriberQueueEventDropsWhenFull(t *testing.T) {
	sub := NewSubscriber(1, nil, nil, testutil.TestLogger(t))

	for i := 0; i < sendBufferSize; i++ {
		assert.True(t, sub.queueEvent([]byte("x")), "expected event %d to be queued", i)
	}
	assert.False(t, sub.queueEvent([]byte("x")), "expected queue to drop once full")
}

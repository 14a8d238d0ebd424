package server

import (
	"time"

	"github.com/Rishi-pixl/studylounge/internal/types"
)

const (
	EventMessageCreated = "message_created"
	EventMessageDeleted = "message_deleted"
)

// FeedEvent is the wire format pushed to room feed subscribers.
type FeedEvent struct {
	Type      string          `json:"type"`
	RoomId    int             `json:"room_id"`
	MessageId int             `json:"message_id,omitempty"`
	Message   *MessagePayload `json:"message,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type MessagePayload struct {
	Id             int       `json:"id"`
	Body           string    `json:"body"`
	AuthorId       int       `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	CreatedAt      time.Time `json:"created_at"`
}

func MessageCreated(msg types.Message) *FeedEvent {
	return &FeedEvent{
		Type:   EventMessageCreated,
		RoomId: msg.RoomId,
		Message: &MessagePayload{
			Id:             msg.Id,
			Body:           msg.Body,
			AuthorId:       msg.AuthorId,
			AuthorUsername: msg.AuthorUsername,
			CreatedAt:      msg.CreatedAt,
		},
		Timestamp: time.Now().UTC(),
	}
}

func MessageDeleted(roomId, messageId int) *FeedEvent {
	return &FeedEvent{
		Type:      EventMessageDeleted,
		RoomId:    roomId,
		MessageId: messageId,
		Timestamp: time.Now().UTC(),
	}
}

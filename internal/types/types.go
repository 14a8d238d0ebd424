package types

import (
	"time"
)

type User struct {
	Id        int
	Username  string
	Email     string
	Name      string
	Bio       string
	Avatar    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Topic struct {
	Id   int
	Name string
}

type Room struct {
	Id           int
	Name         string
	Description  string
	HostId       int
	HostUsername string
	Topic        Topic
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Message struct {
	Id             int
	Body           string
	AuthorId       int
	AuthorUsername string
	RoomId         int
	RoomName       string
	CreatedAt      time.Time
}

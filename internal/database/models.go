package database

import "time"

type User struct {
	Id           int
	Username     string
	Email        string
	PasswordHash string
	Name         string
	Bio          string
	Avatar       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
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
	TopicId      int
	TopicName    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Message struct {
	Id             int
	Body           string
	AccountId      int
	AuthorUsername string
	RoomId         int
	RoomName       string
	CreatedAt      time.Time
}

type CreateAccountParams struct {
	Username     string
	Email        string
	PasswordHash string
}

type UpdateAccountParams struct {
	UserId   int
	Username string
	Email    string
	Name     string
	Bio      string
	Avatar   string
}

type CreateRoomParams struct {
	Name        string
	Description string
	HostId      int
	TopicId     int
}

type UpdateRoomParams struct {
	RoomId      int
	Name        string
	Description string
	TopicId     int
}

type CreateMessageParams struct {
	Body      string
	AccountId int
	RoomId    int
}

package database

type StudyLoungeRepository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (User, error)
	UpdateAccount(params UpdateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)
	GetOrCreateTopic(name string) (Topic, error)
	ListTopics(limit int) ([]Topic, error)
	SearchTopics(query string) ([]Topic, error)
	SearchRooms(query string) ([]Room, error)
	GetRoomById(roomId int) (Room, error)
	ListRoomsByHost(hostId int) ([]Room, error)
	CreateRoom(params CreateRoomParams) (Room, error)
	UpdateRoom(params UpdateRoomParams) (Room, error)
	DeleteRoom(roomId int) error
	GetMessageById(messageId int) (Message, error)
	ListRoomMessages(roomId int) ([]Message, error)
	ListAccountMessages(accountId int) ([]Message, error)
	ListRecentMessages(limit int) ([]Message, error)
	SearchTopicMessages(query string, limit int) ([]Message, error)
	CreateMessage(params CreateMessageParams) (Message, error)
	DeleteMessage(messageId int) error
	ListParticipants(roomId int) ([]User, error)
}

package database

import (
	"github.com/stretchr/testify/mock"
)

type MockStudyLoungeRepository struct {
	mock.Mock
}

func (m *MockStudyLoungeRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockStudyLoungeRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockStudyLoungeRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockStudyLoungeRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockStudyLoungeRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockStudyLoungeRepository) GetOrCreateTopic(name string) (Topic, error) {
	args := m.Called(name)
	return args.Get(0).(Topic), args.Error(1)
}
func (m *MockStudyLoungeRepository) ListTopics(limit int) ([]Topic, error) {
	args := m.Called(limit)
	return args.Get(0).([]Topic), args.Error(1)
}
func (m *MockStudyLoungeRepository) SearchTopics(query string) ([]Topic, error) {
	args := m.Called(query)
	return args.Get(0).([]Topic), args.Error(1)
}
func (m *MockStudyLoungeRepository) SearchRooms(query string) ([]Room, error) {
	args := m.Called(query)
	return args.Get(0).([]Room), args.Error(1)
}
func (m *MockStudyLoungeRepository) GetRoomById(roomId int) (Room, error) {
	args := m.Called(roomId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockStudyLoungeRepository) ListRoomsByHost(hostId int) ([]Room, error) {
	args := m.Called(hostId)
	return args.Get(0).([]Room), args.Error(1)
}
func (m *MockStudyLoungeRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockStudyLoungeRepository) UpdateRoom(params UpdateRoomParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockStudyLoungeRepository) DeleteRoom(roomId int) error {
	args := m.Called(roomId)
	return args.Error(0)
}
func (m *MockStudyLoungeRepository) GetMessageById(messageId int) (Message, error) {
	args := m.Called(messageId)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockStudyLoungeRepository) ListRoomMessages(roomId int) ([]Message, error) {
	args := m.Called(roomId)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockStudyLoungeRepository) ListAccountMessages(accountId int) ([]Message, error) {
	args := m.Called(accountId)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockStudyLoungeRepository) ListRecentMessages(limit int) ([]Message, error) {
	args := m.Called(limit)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockStudyLoungeRepository) SearchTopicMessages(query string, limit int) ([]Message, error) {
	args := m.Called(query, limit)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockStudyLoungeRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockStudyLoungeRepository) DeleteMessage(messageId int) error {
	args := m.Called(messageId)
	return args.Error(0)
}
func (m *MockStudyLoungeRepository) ListParticipants(roomId int) ([]User, error) {
	args := m.Called(roomId)
	return args.Get(0).([]User), args.Error(1)
}

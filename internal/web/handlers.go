package web

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Rishi-pixl/studylounge/internal/database"
	"github.com/Rishi-pixl/studylounge/internal/server"
	"github.com/Rishi-pixl/studylounge/internal/stats"
	"github.com/Rishi-pixl/studylounge/internal/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	homeTopicLimit     = 5
	homeMessageLimit   = 5
	activityFeedLimit  = 4
	maxUploadBytes     = 5 << 20
	multipartParseSize = 8 << 20
)

func (s *StudyLoungeApp) home(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	dbRooms, err := s.db.SearchRooms(q)
	if err != nil {
		s.httpError(w, NewInternalServerError(err))
		return
	}

	dbTopics, err := s.db.ListTopics(homeTopicLimit)
	if err != nil {
		s.httpError(w, NewInternalServerError(err))
		return
	}

	dbMessages, err := s.db.SearchTopicMessages(q, homeMessageLimit)
	if err != nil {
		s.httpError(w, NewInternalServerError(err))
		return
	}

	s.render(w, http.StatusOK, "home.html.tmpl", &PageData{
		User:      s.sessionUser(r),
		Q:         q,
		Rooms:     toRooms(dbRooms),
		RoomCount: len(dbRooms),
		Topics:    toTopics(dbTopics),
		Messages:  toMessages(dbMessages),
	})
}

func (s *StudyLoungeApp) topics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	dbTopics, err := s.db.SearchTopics(q)
	if err != nil {
		s.httpError(w, NewInternalServerError(err))
		return
	}

	s.render(w, http.StatusOK, "topics.html.tmpl", &PageData{
		User:   s.sessionUser(r),
		Q:      q,
		Topics: toTopics(dbTopics),
	})
}

func (s *StudyLoungeApp) activity(w http.ResponseWriter, r *http.Request) {
	dbMessages, err := s.db.ListRecentMessages(activityFeedLimit)
	if err != nil {
		s.httpError(w, NewInternalServerError(err))
		return
	}

	s.render(w, http.StatusOK, "activity.html.tmpl", &PageData{
		User:     s.sessionUser(r),
		Messages: toMessages(dbMessages),
	})
}

// room serves the room detail page and accepts message posts into it.
func (s *StudyLoungeApp) room(w http.ResponseWriter, r *http.Request) {
	roomId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.httpError(w, NewBadRequestError())
		return
	}

	dbRoom, err := s.db.GetRoomById(roomId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.httpError(w, NewNotFoundError())
		} else {
			s.httpError(w, NewInternalServerError(err))
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.renderRoom(w, r, dbRoom, "")
	case http.MethodPost:
		// posting requires a session even though viewing does not
		userId, err := s.sessionUserId(r)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		author, err := s.db.GetAccountById(userId)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Redirect(w, r, "/login", http.StatusFound)
			} else {
				s.httpError(w, NewInternalServerError(err))
			}
			return
		}

		if err := r.ParseForm(); err != nil {
			s.httpError(w, NewBadRequestError())
			return
		}

		body := strings.TrimSpace(r.PostForm.Get("body"))
		if body == "" {
			s.renderRoom(w, r, dbRoom, "message cannot be empty")
			return
		}

		msg, err := s.db.CreateMessage(database.CreateMessageParams{
			Body:      body,
			AccountId: author.Id,
			RoomId:    dbRoom.Id,
		})
		if err != nil {
			s.httpError(w, NewInternalServerError(err))
			return
		}

		s.stats.Incr(stats.MessagesPosted)

		msg.AuthorUsername = author.Username
		s.fs.Publish(server.MessageCreated(toMessage(msg)))

		http.Redirect(w, r, fmt.Sprintf("/rooms/%d", dbRoom.Id), http.StatusFound)
	default:
		s.httpError(w, NewMethodNotAllowedError())
	}
}

func (s *StudyLoungeApp) renderRoom(w http.ResponseWriter, r *http.Request, dbRoom database.Room, notice string) {
	dbMessages, err := s.db.ListRoomMessages(dbRoom.Id)
	if err != nil {
		s.httpError(w, NewInternalServerError(err))
		return
	}

	dbParticipants, err := s.db.ListParticipants(dbRoom.Id)
	if err != nil {
		s.httpError(w, NewInternalServerError(err))
		return
	}

	room := toRoom(dbRoom)
	s.render(w, http.StatusOK, "room.html.tmpl", &PageData{
		User:         s.sessionUser(r),
		Notice:       notice,
		Room:         &room,
		Messages:     toMessages(dbMessages),
		Participants: toUsers(dbParticipants),
	})
}

func (s *StudyLoungeApp) createRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.renderRoomForm(w, r, nil, "")
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.httpError(w, NewBadRequestError())
			return
		}

		name := strings.TrimSpace(r.PostForm.Get("name"))
		topicName := strings.TrimSpace(r.PostForm.Get("topic"))
		if name == "" || topicName == "" {
			s.renderRoomForm(w, r, nil, "room name and topic are required")
			return
		}

		topic, err := s.db.GetOrCreateTopic(topicName)
		if err != nil {
			s.httpError(w, NewInternalServerError(err))
			return
		}

		_, err = s.db.CreateRoom(database.CreateRoomParams{
			Name:        name,
			Description: strings.TrimSpace(r.PostForm.Get("description")),
			HostId:      userId,
			TopicId:     topic.Id,
		})
		if err != nil {
			s.httpError(w, NewInternalServerError(err))
			return
		}

		s.stats.Incr(stats.RoomsCreated)
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		s.httpError(w, NewMethodNotAllowedError())
	}
}

func (s *StudyLoungeApp) updateRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	roomId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.httpError(w, NewBadRequestError())
		return
	}

	dbRoom, err := s.db.GetRoomById(roomId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.httpError(w, NewNotFoundError())
		} else {
			s.httpError(w, NewInternalServerError(err))
		}
		return
	}

	// only the host may change a room
	if dbRoom.HostId != userId {
		s.httpError(w, NewForbiddenError())
		return
	}

	switch r.Method {
	case http.MethodGet:
		room := toRoom(dbRoom)
		s.renderRoomForm(w, r, &room, "")
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.httpError(w, NewBadRequestError())
			return
		}

		name := strings.TrimSpace(r.PostForm.Get("name"))
		topicName := strings.TrimSpace(r.PostForm.Get("topic"))
		if name == "" || topicName == "" {
			room := toRoom(dbRoom)
			s.renderRoomForm(w, r, &room, "room name and topic are required")
			return
		}

		topic, err := s.db.GetOrCreateTopic(topicName)
		if err != nil {
			s.httpError(w, NewInternalServerError(err))
			return
		}

		_, err = s.db.UpdateRoom(database.UpdateRoomParams{
			RoomId:      dbRoom.Id,
			Name:        name,
			Description: strings.TrimSpace(r.PostForm.Get("description")),
			TopicId:     topic.Id,
		})
		if err != nil {
			s.httpError(w, NewInternalServerError(err))
			return
		}

		http.Redirect(w, r, "/", http.StatusFound)
	default:
		s.httpError(w, NewMethodNotAllowedError())
	}
}

func (s *StudyLoungeApp) renderRoomForm(w http.ResponseWriter, r *http.Request, room *types.Room, notice string) {
	dbTopics, err := s.db.ListTopics(0)
	if err != nil {
		s.httpError(w, NewInternalServerError(err))
		return
	}

	s.render(w, http.StatusOK, "room_form.html.tmpl", &PageData{
		User:   s.sessionUser(r),
		Notice: notice,
		Room:   room,
		Topics: toTopics(dbTopics),
	})
}

func (s *StudyLoungeApp) deleteRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	roomId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.httpError(w, NewBadRequestError())
		return
	}

	dbRoom, err := s.db.GetRoomById(roomId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.httpError(w, NewNotFoundError())
		} else {
			s.httpError(w, NewInternalServerError(err))
		}
		return
	}

	if dbRoom.HostId != userId {
		s.httpError(w, NewForbiddenError())
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.render(w, http.StatusOK, "delete.html.tmpl", &PageData{
			User:         s.sessionUser(r),
			DeleteTarget: dbRoom.Name,
		})
	case http.MethodPost:
		if err := s.db.DeleteRoom(dbRoom.Id); err != nil {
			s.httpError(w, NewInternalServerError(err))
			return
		}

		http.Redirect(w, r, "/", http.StatusFound)
	default:
		s.httpError(w, NewMethodNotAllowedError())
	}
}

func (s *StudyLoungeApp) deleteMessage(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	messageId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.httpError(w, NewBadRequestError())
		return
	}

	dbMsg, err := s.db.GetMessageById(messageId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.httpError(w, NewNotFoundError())
		} else {
			s.httpError(w, NewInternalServerError(err))
		}
		return
	}

	// only the author may delete a message
	if dbMsg.AccountId != userId {
		s.httpError(w, NewForbiddenError())
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.render(w, http.StatusOK, "delete.html.tmpl", &PageData{
			User:         s.sessionUser(r),
			DeleteTarget: dbMsg.Body,
		})
	case http.MethodPost:
		if err := s.db.DeleteMessage(dbMsg.Id); err != nil {
			s.httpError(w, NewInternalServerError(err))
			return
		}

		s.fs.Publish(server.MessageDeleted(dbMsg.RoomId, dbMsg.Id))
		http.Redirect(w, r, fmt.Sprintf("/rooms/%d", dbMsg.RoomId), http.StatusFound)
	default:
		s.httpError(w, NewMethodNotAllowedError())
	}
}

func (s *StudyLoungeApp) userProfile(w http.ResponseWriter, r *http.Request) {
	accountId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.httpError(w, NewBadRequestError())
		return
	}

	dbUser, err := s.db.GetAccountById(accountId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.httpError(w, NewNotFoundError())
		} else {
			s.httpError(w, NewInternalServerError(err))
		}
		return
	}

	dbRooms, err := s.db.ListRoomsByHost(dbUser.Id)
	if err != nil {
		s.httpError(w, NewInternalServerError(err))
		return
	}

	dbMessages, err := s.db.ListAccountMessages(dbUser.Id)
	if err != nil {
		s.httpError(w, NewInternalServerError(err))
		return
	}

	dbTopics, err := s.db.ListTopics(0)
	if err != nil {
		s.httpError(w, NewInternalServerError(err))
		return
	}

	profile := toUser(dbUser)
	s.render(w, http.StatusOK, "profile.html.tmpl", &PageData{
		User:      s.sessionUser(r),
		Profile:   &profile,
		Rooms:     toRooms(dbRooms),
		RoomCount: len(dbRooms),
		Messages:  toMessages(dbMessages),
		Topics:    toTopics(dbTopics),
	})
}

func (s *StudyLoungeApp) updateAccount(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	dbUser, err := s.db.GetAccountById(userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.httpError(w, NewNotFoundError())
		} else {
			s.httpError(w, NewInternalServerError(err))
		}
		return
	}

	profile := toUser(dbUser)

	switch r.Method {
	case http.MethodGet:
		s.render(w, http.StatusOK, "edit-account.html.tmpl", &PageData{
			User:    &profile,
			Profile: &profile,
		})
	case http.MethodPost:
		if err := r.ParseMultipartForm(multipartParseSize); err != nil {
			s.httpError(w, NewBadRequestError())
			return
		}

		username := strings.ToLower(strings.TrimSpace(r.PostForm.Get("username")))
		email := strings.TrimSpace(r.PostForm.Get("email"))
		if username == "" || email == "" {
			s.render(w, http.StatusOK, "edit-account.html.tmpl", &PageData{
				User:    &profile,
				Profile: &profile,
				Notice:  "username and email are required",
				Form:    r.PostForm,
			})
			return
		}

		avatar := dbUser.Avatar
		if path, err := s.saveAvatar(r); err != nil {
			s.render(w, http.StatusOK, "edit-account.html.tmpl", &PageData{
				User:    &profile,
				Profile: &profile,
				Notice:  err.Error(),
				Form:    r.PostForm,
			})
			return
		} else if path != "" {
			avatar = path
		}

		updated, err := s.db.UpdateAccount(database.UpdateAccountParams{
			UserId:   dbUser.Id,
			Username: username,
			Email:    email,
			Name:     strings.TrimSpace(r.PostForm.Get("name")),
			Bio:      strings.TrimSpace(r.PostForm.Get("bio")),
			Avatar:   avatar,
		})
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
				s.render(w, http.StatusOK, "edit-account.html.tmpl", &PageData{
					User:    &profile,
					Profile: &profile,
					Notice:  "an account with that username or email already exists",
					Form:    r.PostForm,
				})
				return
			}
			s.httpError(w, NewInternalServerError(err))
			return
		}

		http.Redirect(w, r, fmt.Sprintf("/users/%d", updated.Id), http.StatusFound)
	default:
		s.httpError(w, NewMethodNotAllowedError())
	}
}

// saveAvatar stores an uploaded avatar under the upload dir with a
// uuid-derived filename and returns its serving path. It returns "" when
// the form carries no avatar file.
func (s *StudyLoungeApp) saveAvatar(r *http.Request) (string, error) {
	file, header, err := r.FormFile("avatar")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", fmt.Errorf("read avatar: %w", err)
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		return "", fmt.Errorf("avatar exceeds the %d byte limit", maxUploadBytes)
	}

	name := uuid.NewString() + filepath.Ext(header.Filename)
	dst, err := os.Create(filepath.Join(s.uploadDir, name))
	if err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, maxUploadBytes)); err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}

	return "/uploads/" + name, nil
}

func toUser(u database.User) types.User {
	return types.User{
		Id:        u.Id,
		Username:  u.Username,
		Email:     u.Email,
		Name:      u.Name,
		Bio:       u.Bio,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUsers(users []database.User) []types.User {
	out := make([]types.User, 0, len(users))
	for _, u := range users {
		out = append(out, toUser(u))
	}
	return out
}

func toTopics(topics []database.Topic) []types.Topic {
	out := make([]types.Topic, 0, len(topics))
	for _, t := range topics {
		out = append(out, types.Topic{Id: t.Id, Name: t.Name})
	}
	return out
}

func toRoom(room database.Room) types.Room {
	return types.Room{
		Id:           room.Id,
		Name:         room.Name,
		Description:  room.Description,
		HostId:       room.HostId,
		HostUsername: room.HostUsername,
		Topic:        types.Topic{Id: room.TopicId, Name: room.TopicName},
		CreatedAt:    room.CreatedAt,
		UpdatedAt:    room.UpdatedAt,
	}
}

func toRooms(rooms []database.Room) []types.Room {
	out := make([]types.Room, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoom(room))
	}
	return out
}

func toMessage(msg database.Message) types.Message {
	return types.Message{
		Id:             msg.Id,
		Body:           msg.Body,
		AuthorId:       msg.AccountId,
		AuthorUsername: msg.AuthorUsername,
		RoomId:         msg.RoomId,
		RoomName:       msg.RoomName,
		CreatedAt:      msg.CreatedAt,
	}
}

func toMessages(messages []database.Message) []types.Message {
	out := make([]types.Message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, toMessage(msg))
	}
	return out
}

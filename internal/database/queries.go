package database

import (
	"database/sql"
	"strings"
	"time"
)

const (
	roomColumns = "SELECT r.id, r.name, r.description, r.host_id, a.username, r.topic_id, t.name, r.created_at, r.updated_at " +
		"FROM rooms r JOIN accounts a ON a.id = r.host_id JOIN topics t ON t.id = r.topic_id"
	messageColumns = "SELECT m.id, m.body, m.account_id, a.username, m.room_id, r.name, m.created_at " +
		"FROM messages m JOIN accounts a ON a.id = m.account_id JOIN rooms r ON r.id = m.room_id"
	addParticipantQuery = "INSERT INTO room_participants (room_id, account_id, created_at) " +
		"VALUES ($1, $2, $3) ON CONFLICT (room_id, account_id) DO NOTHING"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE metacharacters so a search term only ever
// matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (db *PgStudyLoungeRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (username, email, password_hash, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $4) RETURNING id, username, email, created_at, updated_at",
		params.Username,
		params.Email,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.Email,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgStudyLoungeRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"UPDATE accounts SET username = $2, email = $3, name = $4, bio = $5, avatar = $6, updated_at = $7 "+
			"WHERE id = $1 RETURNING id, username, email, name, bio, avatar, created_at, updated_at",
		params.UserId,
		params.Username,
		params.Email,
		params.Name,
		params.Bio,
		params.Avatar,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.Email,
		&u.Name,
		&u.Bio,
		&u.Avatar,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgStudyLoungeRepository) GetAccountById(accountId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, name, bio, avatar, created_at, updated_at FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		accountId,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.Email,
		&u.Name,
		&u.Bio,
		&u.Avatar,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgStudyLoungeRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, name, bio, avatar FROM accounts "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Bio,
		&u.Avatar,
	)

	return u, err
}

// GetOrCreateTopic is a single-statement upsert so that concurrent
// room saves with the same new topic name never create duplicates.
func (db *PgStudyLoungeRepository) GetOrCreateTopic(name string) (Topic, error) {
	res := db.conn.QueryRow(
		"INSERT INTO topics (name) VALUES ($1) "+
			"ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id, name",
		name,
	)

	var t Topic
	err := res.Scan(&t.Id, &t.Name)

	return t, err
}

func (db *PgStudyLoungeRepository) ListTopics(limit int) ([]Topic, error) {
	query := "SELECT id, name FROM topics ORDER BY id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []Topic
	for rows.Next() {
		var t Topic
		if err = rows.Scan(&t.Id, &t.Name); err != nil {
			break
		}

		topics = append(topics, t)
	}
	return topics, err
}

func (db *PgStudyLoungeRepository) SearchTopics(query string) ([]Topic, error) {
	rows, err := db.conn.Query(
		"SELECT id, name FROM topics WHERE name ILIKE '%' || $1 || '%' ESCAPE '\\' ORDER BY name",
		escapeLike(query),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []Topic
	for rows.Next() {
		var t Topic
		if err = rows.Scan(&t.Id, &t.Name); err != nil {
			break
		}

		topics = append(topics, t)
	}
	return topics, err
}

// SearchRooms returns rooms whose name, description or topic name contains
// query case-insensitively, newest first. An empty query matches all rooms.
func (db *PgStudyLoungeRepository) SearchRooms(query string) ([]Room, error) {
	rows, err := db.conn.Query(
		roomColumns+
			" WHERE r.name ILIKE '%' || $1 || '%' ESCAPE '\\'"+
			" OR r.description ILIKE '%' || $1 || '%' ESCAPE '\\'"+
			" OR t.name ILIKE '%' || $1 || '%' ESCAPE '\\'"+
			" ORDER BY r.created_at DESC",
		escapeLike(query),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRooms(rows)
}

func (db *PgStudyLoungeRepository) GetRoomById(roomId int) (Room, error) {
	row := db.conn.QueryRow(roomColumns+" WHERE r.id = $1 LIMIT 1", roomId)

	var room Room
	err := row.Scan(
		&room.Id,
		&room.Name,
		&room.Description,
		&room.HostId,
		&room.HostUsername,
		&room.TopicId,
		&room.TopicName,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	return room, err
}

func (db *PgStudyLoungeRepository) ListRoomsByHost(hostId int) ([]Room, error) {
	rows, err := db.conn.Query(
		roomColumns+" WHERE r.host_id = $1 ORDER BY r.created_at DESC",
		hostId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRooms(rows)
}

// CreateRoom inserts the room and joins the host to its participant set
// in one transaction.
func (db *PgStudyLoungeRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Room{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res := tx.QueryRow(
		"INSERT INTO rooms (name, description, host_id, topic_id, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $5) RETURNING id, name, description, host_id, topic_id, created_at, updated_at",
		params.Name,
		params.Description,
		params.HostId,
		params.TopicId,
		time.Now().UTC(),
	)

	var room Room
	err = res.Scan(
		&room.Id,
		&room.Name,
		&room.Description,
		&room.HostId,
		&room.TopicId,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return Room{}, err
	}

	_, err = tx.Exec(addParticipantQuery, room.Id, params.HostId, time.Now().UTC())
	if err != nil {
		return Room{}, err
	}

	if err = tx.Commit(); err != nil {
		return Room{}, err
	}

	return room, err
}

func (db *PgStudyLoungeRepository) UpdateRoom(params UpdateRoomParams) (Room, error) {
	res := db.conn.QueryRow(
		"UPDATE rooms SET name = $2, description = $3, topic_id = $4, updated_at = $5 "+
			"WHERE id = $1 RETURNING id, name, description, host_id, topic_id, created_at, updated_at",
		params.RoomId,
		params.Name,
		params.Description,
		params.TopicId,
		time.Now().UTC(),
	)

	var room Room
	err := res.Scan(
		&room.Id,
		&room.Name,
		&room.Description,
		&room.HostId,
		&room.TopicId,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	return room, err
}

func (db *PgStudyLoungeRepository) DeleteRoom(roomId int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.Exec("DELETE FROM room_participants WHERE room_id = $1", roomId)
	if err != nil {
		return err
	}

	_, err = tx.Exec("DELETE FROM messages WHERE room_id = $1", roomId)
	if err != nil {
		return err
	}

	_, err = tx.Exec("DELETE FROM rooms WHERE id = $1", roomId)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (db *PgStudyLoungeRepository) GetMessageById(messageId int) (Message, error) {
	row := db.conn.QueryRow(messageColumns+" WHERE m.id = $1 LIMIT 1", messageId)

	var msg Message
	err := row.Scan(
		&msg.Id,
		&msg.Body,
		&msg.AccountId,
		&msg.AuthorUsername,
		&msg.RoomId,
		&msg.RoomName,
		&msg.CreatedAt,
	)

	return msg, err
}

func (db *PgStudyLoungeRepository) ListRoomMessages(roomId int) ([]Message, error) {
	rows, err := db.conn.Query(
		messageColumns+" WHERE m.room_id = $1 ORDER BY m.created_at",
		roomId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (db *PgStudyLoungeRepository) ListAccountMessages(accountId int) ([]Message, error) {
	rows, err := db.conn.Query(
		messageColumns+" WHERE m.account_id = $1 ORDER BY m.created_at DESC",
		accountId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (db *PgStudyLoungeRepository) ListRecentMessages(limit int) ([]Message, error) {
	rows, err := db.conn.Query(
		messageColumns+" ORDER BY m.created_at DESC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// SearchTopicMessages returns the most recent messages whose room's topic
// name contains query case-insensitively.
func (db *PgStudyLoungeRepository) SearchTopicMessages(query string, limit int) ([]Message, error) {
	rows, err := db.conn.Query(
		messageColumns+
			" JOIN topics t ON t.id = r.topic_id"+
			" WHERE t.name ILIKE '%' || $1 || '%' ESCAPE '\\'"+
			" ORDER BY m.created_at DESC LIMIT $2",
		escapeLike(query),
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// CreateMessage inserts the message and adds its author to the room's
// participant set in one transaction. The participant insert is a no-op
// when the author already participates.
func (db *PgStudyLoungeRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res := tx.QueryRow(
		"INSERT INTO messages (body, account_id, room_id, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, body, account_id, room_id, created_at",
		params.Body,
		params.AccountId,
		params.RoomId,
		time.Now().UTC(),
	)

	var msg Message
	err = res.Scan(
		&msg.Id,
		&msg.Body,
		&msg.AccountId,
		&msg.RoomId,
		&msg.CreatedAt,
	)
	if err != nil {
		return Message{}, err
	}

	_, err = tx.Exec(addParticipantQuery, params.RoomId, params.AccountId, time.Now().UTC())
	if err != nil {
		return Message{}, err
	}

	if err = tx.Commit(); err != nil {
		return Message{}, err
	}

	return msg, err
}

func (db *PgStudyLoungeRepository) DeleteMessage(messageId int) error {
	_, err := db.conn.Exec("DELETE FROM messages WHERE id = $1", messageId)

	return err
}

func (db *PgStudyLoungeRepository) ListParticipants(roomId int) ([]User, error) {
	rows, err := db.conn.Query(
		"SELECT a.id, a.username, a.avatar FROM room_participants p "+
			"JOIN accounts a ON a.id = p.account_id WHERE p.room_id = $1 ORDER BY a.username",
		roomId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users = make([]User, 0)
	for rows.Next() {
		var u User
		if err = rows.Scan(&u.Id, &u.Username, &u.Avatar); err != nil {
			break
		}

		users = append(users, u)
	}
	return users, err
}

func scanRooms(rows *sql.Rows) ([]Room, error) {
	var rooms = make([]Room, 0)
	var err error
	for rows.Next() {
		var room Room
		if err = rows.Scan(
			&room.Id,
			&room.Name,
			&room.Description,
			&room.HostId,
			&room.HostUsername,
			&room.TopicId,
			&room.TopicName,
			&room.CreatedAt,
			&room.UpdatedAt,
		); err != nil {
			break
		}

		rooms = append(rooms, room)
	}
	return rooms, err
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var messages = make([]Message, 0)
	var err error
	for rows.Next() {
		var msg Message
		if err = rows.Scan(
			&msg.Id,
			&msg.Body,
			&msg.AccountId,
			&msg.AuthorUsername,
			&msg.RoomId,
			&msg.RoomName,
			&msg.CreatedAt,
		); err != nil {
			break
		}

		messages = append(messages, msg)
	}
	return messages, err
}

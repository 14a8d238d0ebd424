package web

import (
	"database/sql"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/Rishi-pixl/studylounge/internal/server"
	"github.com/gorilla/websocket"
)

// serveFeed upgrades the connection and streams room events until the
// client disconnects.
func (s *StudyLoungeApp) serveFeed(w http.ResponseWriter, r *http.Request) {
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

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return slices.Contains(s.allowedOrigins, origin)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("failed to upgrade feed connection: %s", err)
		return
	}

	sub := server.NewSubscriber(dbRoom.Id, conn, s.fs, s.log)
	s.fs.Register(sub)

	go sub.Write()
	go sub.Read()
}

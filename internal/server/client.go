package server

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

// Subscriber is a single websocket connection watching one room's feed.
type Subscriber struct {
	roomId int
	conn   *websocket.Conn
	fs     *FeedServer
	log    *log.Logger
	send   chan []byte
}

func NewSubscriber(roomId int, conn *websocket.Conn, fs *FeedServer, l *log.Logger) *Subscriber {
	return &Subscriber{
		roomId: roomId,
		conn:   conn,
		fs:     fs,
		log:    l,
		send:   make(chan []byte, sendBufferSize),
	}
}

// queueEvent is called from the feed server's run goroutine. It never
// blocks; a full buffer means the event is dropped.
func (s *Subscriber) queueEvent(data []byte) bool {
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

func (s *Subscriber) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}

			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.log.Println("feed write:", err)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Read discards anything the peer sends; the feed is one-way. It exists to
// keep pong handling alive and to deregister the subscriber when the
// connection closes.
func (s *Subscriber) Read() {
	defer func() {
		s.fs.Deregister(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.log.Println("feed read:", err)
			}
			return
		}
	}
}

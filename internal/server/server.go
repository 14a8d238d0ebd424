package server

import (
	"context"
	"encoding/json"
	"log"

	"github.com/Rishi-pixl/studylounge/internal/stats"
)

// FeedServer fans message events out to websocket subscribers grouped by
// room. All subscriber state is owned by the Run goroutine; handlers reach
// it only through channels.
type FeedServer struct {
	log            *log.Logger
	stats          stats.StatsProvider
	registerChan   chan *Subscriber
	deregisterChan chan *Subscriber
	eventChan      chan *FeedEvent
	rooms          map[int]map[*Subscriber]struct{}
	stop           chan struct{}
	done           chan struct{}
}

func NewFeedServer(logger *log.Logger, statsProvider stats.StatsProvider) *FeedServer {
	statsProvider.RegisterMetric(stats.ActiveFeedConnections)

	return &FeedServer{
		log:            logger,
		stats:          statsProvider,
		registerChan:   make(chan *Subscriber),
		deregisterChan: make(chan *Subscriber),
		eventChan:      make(chan *FeedEvent, 256),
		rooms:          make(map[int]map[*Subscriber]struct{}),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

func (fs *FeedServer) Run() {
	for {
		select {
		case sub := <-fs.registerChan:
			fs.addSubscriber(sub)
		case sub := <-fs.deregisterChan:
			fs.removeSubscriber(sub)
		case ev := <-fs.eventChan:
			fs.fanout(ev)
		case <-fs.stop:
			fs.log.Println("closing feed subscribers")
			for _, subs := range fs.rooms {
				for sub := range subs {
					close(sub.send)
				}
			}

			fs.rooms = make(map[int]map[*Subscriber]struct{})
			close(fs.done)
			return
		}
	}
}

func (fs *FeedServer) addSubscriber(sub *Subscriber) {
	subs, ok := fs.rooms[sub.roomId]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		fs.rooms[sub.roomId] = subs
	}

	subs[sub] = struct{}{}
	fs.stats.Incr(stats.ActiveFeedConnections)
	fs.log.Printf("feed subscriber added for room %d", sub.roomId)
}

func (fs *FeedServer) removeSubscriber(sub *Subscriber) {
	subs, ok := fs.rooms[sub.roomId]
	if !ok {
		return
	}

	if _, ok := subs[sub]; !ok {
		return
	}

	delete(subs, sub)
	if len(subs) == 0 {
		delete(fs.rooms, sub.roomId)
	}

	close(sub.send)
	fs.stats.Decr(stats.ActiveFeedConnections)
	fs.log.Printf("feed subscriber removed for room %d", sub.roomId)
}

func (fs *FeedServer) fanout(ev *FeedEvent) {
	subs, ok := fs.rooms[ev.RoomId]
	if !ok {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		fs.log.Println("marshal feed event:", err)
		return
	}

	for sub := range subs {
		if !sub.queueEvent(data) {
			fs.log.Printf("dropping %s event for slow subscriber in room %d", ev.Type, ev.RoomId)
		}
	}
}

func (fs *FeedServer) Register(sub *Subscriber) {
	select {
	case fs.registerChan <- sub:
	case <-fs.stop:
	}
}

func (fs *FeedServer) Deregister(sub *Subscriber) {
	select {
	case fs.deregisterChan <- sub:
	case <-fs.stop:
	}
}

// Publish never blocks the posting request; events are dropped if the
// feed server cannot keep up.
func (fs *FeedServer) Publish(ev *FeedEvent) {
	select {
	case fs.eventChan <- ev:
	case <-fs.stop:
	default:
		fs.log.Printf("feed event channel full, dropping %s event for room %d", ev.Type, ev.RoomId)
	}
}

func (fs *FeedServer) Shutdown(ctx context.Context) error {
	close(fs.stop)

	select {
	case <-fs.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

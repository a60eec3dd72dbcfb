// Package live streams election results to websocket subscribers.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/ballot/backend/internal/logger"
)

// TypeResultsUpdate is the message type carrying a fresh tally.
const TypeResultsUpdate = "results.update"

// ErrClosed is returned by Serve once the hub has stopped.
var ErrClosed = errors.New("live: hub closed")

// Message is the envelope written to subscribers.
type Message struct {
	Type       string      `json:"type"`
	ElectionID string      `json:"election_id"`
	Data       interface{} `json:"data"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Hub fans tally updates out to the clients watching each election.
type Hub struct {
	clients    map[string]map[*Client]bool // election id -> clients
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Run owns the client registry until ctx is cancelled, then disconnects
// every subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, clients := range h.clients {
				for c := range clients {
					close(c.send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.electionID] == nil {
				h.clients[c.electionID] = make(map[*Client]bool)
			}
			h.clients[c.electionID][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			h.remove(c)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Log().WithError(err).Error("live: marshal message")
				continue
			}
			h.mu.Lock()
			for c := range h.clients[msg.ElectionID] {
				select {
				case c.send <- payload:
				default:
					// slow consumer
					h.remove(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(c *Client) {
	clients, ok := h.clients[c.electionID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.clients, c.electionID)
	}
}

// Publish queues data for every subscriber of electionID. It never blocks;
// when the queue is full the update is dropped, since the next vote
// publishes a newer tally anyway.
func (h *Hub) Publish(electionID string, data interface{}) {
	msg := &Message{Type: TypeResultsUpdate, ElectionID: electionID, Data: data, Timestamp: time.Now().UTC()}
	select {
	case h.broadcast <- msg:
	default:
		logger.WithFields(logrus.Fields{"election_id": electionID}).Warn("live: broadcast queue full, dropping update")
	}
}

// Subscribers returns the number of clients watching electionID.
func (h *Hub) Subscribers(electionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[electionID])
}

// Serve upgrades the request and subscribes the connection to electionID.
// initial, when non-nil, is sent before any broadcast.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, electionID string, initial interface{}) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &Client{hub: h, conn: conn, send: make(chan []byte, 16), electionID: electionID}
	if initial != nil {
		payload, err := json.Marshal(&Message{Type: TypeResultsUpdate, ElectionID: electionID, Data: initial, Timestamp: time.Now().UTC()})
		if err == nil {
			c.send <- payload
		}
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return ErrClosed
	}

	go c.writePump()
	go c.readPump()
	return nil
}

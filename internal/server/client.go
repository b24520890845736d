package server

import (
	"errors"
	"sync"

	"github.com/amenassefagashaye/USA3/internal/protocol"
)

var (
	errClientClosed   = errors.New("client closed")
	errSendBufferFull = errors.New("send buffer full")
)

// seat is one (session, participant) pair joined through a connection.
type seat struct {
	gameID   string
	playerID string
}

// profile is what a register message left behind for later joins.
type profile struct {
	playerID string
	name     string
	phone    string
	stake    int64
	payment  int64
	boardID  int
}

// client is the server side of one websocket connection. Send never blocks:
// the writer goroutine drains the queue, and a slow reader loses messages
// rather than stalling a broadcast.
type client struct {
	send chan []byte

	mu         sync.Mutex
	closed     bool
	registered *profile
	seats      map[seat]struct{}
}

func newClient(buffer int) *client {
	return &client{
		send:  make(chan []byte, buffer),
		seats: make(map[seat]struct{}),
	}
}

// Send implements bingo.Sender.
func (c *client) Send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClientClosed
	}
	select {
	case c.send <- b:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *client) reply(p protocol.Payload) error {
	b, err := protocol.Encode(p)
	if err != nil {
		return err
	}
	return c.Send(b)
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *client) register(p profile) {
	c.mu.Lock()
	c.registered = &p
	c.mu.Unlock()
}

func (c *client) registration() (profile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.registered == nil {
		return profile{}, false
	}
	return *c.registered, true
}

func (c *client) bind(gameID, playerID string) {
	c.mu.Lock()
	c.seats[seat{gameID, playerID}] = struct{}{}
	c.mu.Unlock()
}

func (c *client) unbind(gameID string) {
	c.mu.Lock()
	for s := range c.seats {
		if s.gameID == gameID {
			delete(c.seats, s)
		}
	}
	c.mu.Unlock()
}

func (c *client) boundSeats() []seat {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]seat, 0, len(c.seats))
	for s := range c.seats {
		out = append(out, s)
	}
	return out
}

package game

import "sync"

// fakeConn records everything sent through it. failNext makes the next
// send error, which should mark the player disconnected.
type fakeConn struct {
	mu       sync.Mutex
	msgs     []any
	failNext bool
}

func (c *fakeConn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failNext {
		c.failNext = false
		return errSendFailed
	}
	c.msgs = append(c.msgs, v)
	return nil
}

func (c *fakeConn) messages() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.msgs))
	copy(out, c.msgs)
	return out
}

// lastOfType returns the most recent message whose "type" field matches.
func (c *fakeConn) lastOfType(msgType string) map[string]any {
	msgs := c.messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		m, ok := msgs[i].(map[string]any)
		if !ok {
			continue
		}
		if t, _ := m["type"].(string); t == msgType {
			return m
		}
	}
	return nil
}

// countOfType returns how many recorded messages carry the given type.
func (c *fakeConn) countOfType(msgType string) int {
	n := 0
	for _, msg := range c.messages() {
		m, ok := msg.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := m["type"].(string); t == msgType {
			n++
		}
	}
	return n
}

type sendError string

func (e sendError) Error() string { return string(e) }

const errSendFailed = sendError("send failed")

// seatPlayers attaches two named players to a game's session, the way the
// hub does at match time.
func seatPlayers(g Game, c1, c2 Conn) (*Player, *Player) {
	p1 := NewPlayer("alice", c1)
	p2 := NewPlayer("bob", c2)
	g.Base().Players = []*Player{p1, p2}
	return p1, p2
}

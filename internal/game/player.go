package game

import "sync"

// Conn is the live transport handle attached to a player. The websocket
// client implements it; tests substitute fakes.
type Conn interface {
	Send(v any) error
}

// Player is a named participant in one session. The conn is replaced on
// reconnect, never recreated, and a failed send marks the player
// disconnected instead of surfacing an error.
type Player struct {
	Name string

	mu        sync.Mutex
	conn      Conn
	connected bool
}

func NewPlayer(name string, conn Conn) *Player {
	return &Player{Name: name, conn: conn, connected: true}
}

// Attach binds a new live conn to the player (join or rejoin).
func (p *Player) Attach(conn Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn = conn
	p.connected = true
}

// Detach marks the player disconnected and drops the conn.
func (p *Player) Detach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn = nil
	p.connected = false
}

func (p *Player) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Uses reports whether the player is currently bound to the given conn.
func (p *Player) Uses(conn Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn == conn
}

// Send delivers a message to the player. A transport failure marks the
// player disconnected; it is never retried and never reported upward.
func (p *Player) Send(v any) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected || p.conn == nil {
		return false
	}
	if err := p.conn.Send(v); err != nil {
		p.connected = false
		return false
	}
	return true
}

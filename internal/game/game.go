package game

import "sync"

// Descriptor identifies a game type in the fixed registry.
type Descriptor struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MinPlayers int    `json:"min_players"`
	MaxPlayers int    `json:"max_players"`
}

// Game is the contract every shipped game implements. HandleMove validates
// phase and actor, mutates state and pushes updates; rule violations are
// reported to the acting player only and never corrupt shared state.
// StateFor returns the caller's personalized view and must not leak the
// opponent's hidden information.
type Game interface {
	Base() *Session
	Descriptor() Descriptor
	HandleMove(p *Player, data Payload)
	StateFor(p *Player) map[string]any
	BroadcastState()
	ResetForRematch()
}

// Session is the shared base embedded by every game: identity, the fixed
// participant list and the state mutex. Players is set once at match time.
type Session struct {
	ID      string
	Players []*Player

	mu sync.Mutex
}

// Opponent returns the first participant other than p.
func (s *Session) Opponent(p *Player) *Player {
	for _, other := range s.Players {
		if other != p {
			return other
		}
	}
	return nil
}

// SendTo sends to a single player. Failures mark the recipient
// disconnected, nothing else.
func (s *Session) SendTo(p *Player, msg any) {
	if p == nil {
		return
	}
	p.Send(msg)
}

// Broadcast sends to every connected player except exclude. A failed send
// marks that recipient disconnected and does not abort delivery to others.
func (s *Session) Broadcast(msg any, exclude *Player) {
	for _, p := range s.Players {
		if p == exclude {
			continue
		}
		p.Send(msg)
	}
}

// PushState sends each connected player their own view under the standard
// game_state envelope.
func (s *Session) PushState(view func(*Player) map[string]any) {
	for _, p := range s.Players {
		if !p.Connected() {
			continue
		}
		p.Send(map[string]any{"type": "game_state", "data": view(p)})
	}
}

// AllDisconnected reports whether every participant has dropped.
func (s *Session) AllDisconnected() bool {
	for _, p := range s.Players {
		if p.Connected() {
			return false
		}
	}
	return true
}

// FindPlayer returns the participant with the given name, or nil.
func (s *Session) FindPlayer(name string) *Player {
	for _, p := range s.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (s *Session) errorTo(p *Player, message string) {
	s.SendTo(p, map[string]any{"type": "error", "message": message})
}

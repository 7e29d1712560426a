package game

import (
	"fmt"
	"strings"
	"time"
)

var rpsDescriptor = Descriptor{
	ID:         "rps",
	Name:       "Rock Paper Scissors",
	MinPlayers: 2,
	MaxPlayers: 2,
}

const (
	rpsPhaseChoosing = "choosing"
	rpsPhaseReveal   = "reveal"
)

// beats maps each choice to the choice it defeats.
var beats = map[string]string{
	"rock":     "scissors",
	"paper":    "rock",
	"scissors": "paper",
}

// RockPaperScissors is a simultaneous-choice round machine. Scores and the
// round counter survive across rounds; choices are round-scoped.
type RockPaperScissors struct {
	Session

	phase   string
	choices map[string]string
	round   int
	scores  map[string]int

	// Pause between reveal and the next round. Tests shrink it.
	InterRoundDelay time.Duration
}

func NewRockPaperScissors(instanceID string) *RockPaperScissors {
	g := &RockPaperScissors{
		Session:         Session{ID: instanceID},
		scores:          map[string]int{},
		InterRoundDelay: 3 * time.Second,
	}
	g.resetLocked()
	return g
}

func (g *RockPaperScissors) Descriptor() Descriptor { return rpsDescriptor }
func (g *RockPaperScissors) Base() *Session         { return &g.Session }

func (g *RockPaperScissors) ResetForRematch() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
}

// resetLocked starts a fresh choosing phase, carrying scores over.
func (g *RockPaperScissors) resetLocked() {
	g.phase = rpsPhaseChoosing
	g.choices = map[string]string{}
	g.round++
	for _, p := range g.Players {
		if _, ok := g.scores[p.Name]; !ok {
			g.scores[p.Name] = 0
		}
	}
}

func (g *RockPaperScissors) HandleMove(p *Player, data Payload) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != rpsPhaseChoosing {
		g.errorTo(p, "Not in choosing phase")
		return
	}

	choice := strings.ToLower(data.String("choice"))
	if _, ok := beats[choice]; !ok {
		g.errorTo(p, fmt.Sprintf("Invalid choice: %s", choice))
		return
	}

	g.choices[p.Name] = choice
	g.PushState(g.stateLocked)

	if len(g.choices) == 2 {
		g.resolveRoundLocked()
	}
}

// resolveRoundLocked reveals both choices, scores the round and schedules
// the next one.
func (g *RockPaperScissors) resolveRoundLocked() {
	g.phase = rpsPhaseReveal
	g.PushState(g.stateLocked)

	p1, p2 := g.Players[0], g.Players[1]
	c1, c2 := g.choices[p1.Name], g.choices[p2.Name]

	var winner string
	var reason string
	switch {
	case c1 == c2:
		reason = "It's a tie!"
	case beats[c1] == c2:
		winner = p1.Name
		reason = fmt.Sprintf("%s beats %s", capitalize(c1), c2)
	default:
		winner = p2.Name
		reason = fmt.Sprintf("%s beats %s", capitalize(c2), c1)
	}

	if winner != "" {
		g.scores[winner]++
	}

	result := map[string]any{
		"type":    "round_result",
		"reason":  reason,
		"choices": copyStringMap(g.choices),
		"scores":  copyIntMap(g.scores),
	}
	if winner != "" {
		result["winner"] = winner
	} else {
		result["winner"] = nil
	}
	g.Broadcast(result, nil)

	time.AfterFunc(g.InterRoundDelay, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.phase != rpsPhaseReveal {
			return
		}
		g.resetLocked()
		g.Broadcast(map[string]any{"type": "new_round", "round": g.round}, nil)
		g.PushState(g.stateLocked)
	})
}

func (g *RockPaperScissors) StateFor(p *Player) map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked(p)
}

func (g *RockPaperScissors) BroadcastState() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.PushState(g.stateLocked)
}

// stateLocked builds p's view. During choosing the opponent's pending
// choice is replaced by a "chosen" marker.
func (g *RockPaperScissors) stateLocked(p *Player) map[string]any {
	if _, ok := g.scores[p.Name]; !ok {
		g.scores[p.Name] = 0
	}

	opponent := g.Opponent(p)

	var choicesView map[string]any
	if g.phase == rpsPhaseChoosing {
		choicesView = map[string]any{}
		if mine, ok := g.choices[p.Name]; ok {
			choicesView[p.Name] = mine
		} else {
			choicesView[p.Name] = nil
		}
		if opponent != nil {
			if _, ok := g.choices[opponent.Name]; ok {
				choicesView[opponent.Name] = "chosen"
			} else {
				choicesView[opponent.Name] = nil
			}
		}
	} else {
		choicesView = map[string]any{}
		for name, choice := range g.choices {
			choicesView[name] = choice
		}
	}

	state := map[string]any{
		"phase":   g.phase,
		"round":   g.round,
		"scores":  copyIntMap(g.scores),
		"choices": choicesView,
		"my_name": p.Name,
	}
	if opponent != nil {
		state["opponent_name"] = opponent.Name
		state["opponent_connected"] = opponent.Connected()
	} else {
		state["opponent_name"] = nil
		state["opponent_connected"] = false
	}
	return state
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

package domain

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Run is a solo-game save slot: an opaque state snapshot keyed by run id
// and scoped to a username. The multiplayer core never reads these; they
// exist for the single-player game's save/load surface.
type Run struct {
	RunID        string          `json:"run_id"`
	Username     string          `json:"username"`
	Status       string          `json:"status"`
	CurrentAct   int             `json:"current_act"`
	CurrentScene string          `json:"current_scene"`
	State        json.RawMessage `json:"state"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

package game

import "sort"

// Constructor builds a fresh game instance for a new session.
type Constructor func(instanceID string) Game

// Registry is the fixed table of shipped games. Add new games here and in
// descriptors below.
var Registry = map[string]Constructor{
	"rps":          func(id string) Game { return NewRockPaperScissors(id) },
	"image-reveal": func(id string) Game { return NewImageReveal(id) },
	"event-dash":   func(id string) Game { return NewEventDash(id) },
}

var descriptors = map[string]Descriptor{
	"rps":          rpsDescriptor,
	"image-reveal": imageRevealDescriptor,
	"event-dash":   eventDashDescriptor,
}

// Lookup returns the constructor for a game type.
func Lookup(gameID string) (Constructor, bool) {
	c, ok := Registry[gameID]
	return c, ok
}

// List returns descriptors for every registered game, sorted by id.
func List() []Descriptor {
	out := make([]Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

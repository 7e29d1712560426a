package game

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

var eventDashDescriptor = Descriptor{
	ID:         "event-dash",
	Name:       "Event Dash",
	MinPlayers: 2,
	MaxPlayers: 2,
}

const (
	edPhaseLobby     = "lobby"
	edPhaseCountdown = "countdown"
	edPhasePlaying   = "playing"
	edPhaseFinished  = "finished"

	edDefaultTimeLimit = 90
	// Unlimited play; serialized as null toward clients.
	edNoTimeLimit = 0
)

// edTimeLimits is the enumerated set of allowed time limits in seconds.
var edTimeLimits = map[int]bool{
	30: true, 60: true, 90: true, 120: true, 300: true, edNoTimeLimit: true,
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type placeSelection struct {
	PlaceID string  `json:"place_id"`
	Name    string  `json:"name"`
	Rating  float64 `json:"rating"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type playerSelections struct {
	Restaurants [2]*placeSelection `json:"restaurants"`
	Activity    *placeSelection    `json:"activity"`
}

func (s *playerSelections) finished() bool {
	return s != nil && s.Restaurants[0] != nil && s.Restaurants[1] != nil && s.Activity != nil
}

// EventDash is a timed scavenger hunt: both players drop into a random
// city and race to pick two restaurants and one activity. The opponent
// sees only selection counts until the round ends; the first finisher
// doubles the drain rate of the opponent's clock.
type EventDash struct {
	Session

	phase     string
	timeLimit int // seconds, edNoTimeLimit = unlimited
	sameStart bool
	hostIndex int

	city            *City
	startLocations  map[string]latLng
	selections      map[string]*playerSelections
	finishedOrder   []string
	timerStartedAt  time.Time
	timerDoubledAt  time.Time
	skipRequestedBy string
	readyForNext    []string

	cities []City
	now    func() time.Time
}

func NewEventDash(instanceID string) *EventDash {
	g := &EventDash{
		Session: Session{ID: instanceID},
		cities:  loadCities(),
		now:     time.Now,
	}
	g.resetLocked()
	return g
}

func (g *EventDash) Descriptor() Descriptor { return eventDashDescriptor }
func (g *EventDash) Base() *Session         { return &g.Session }

func (g *EventDash) ResetForRematch() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
}

func (g *EventDash) resetLocked() {
	g.phase = edPhaseLobby
	g.timeLimit = edDefaultTimeLimit
	g.sameStart = true
	g.hostIndex = 0
	g.city = nil
	g.startLocations = map[string]latLng{}
	g.selections = map[string]*playerSelections{}
	g.finishedOrder = nil
	g.timerStartedAt = time.Time{}
	g.timerDoubledAt = time.Time{}
	g.skipRequestedBy = ""
	g.readyForNext = nil
}

func (g *EventDash) host() *Player {
	if len(g.Players) == 0 {
		return nil
	}
	return g.Players[g.hostIndex]
}

func (g *EventDash) isHost(p *Player) bool { return p == g.host() }

func (g *EventDash) newCityLocked() {
	city := g.cities[rand.Intn(len(g.cities))]
	g.city = &city
	g.generateStartLocationsLocked()
}

func (g *EventDash) generateStartLocationsLocked() {
	if g.city == nil {
		return
	}
	minR, maxR := radiusRange(g.city.Population)

	if g.sameStart {
		lat, lng := randomPointInRadius(g.city.Lat, g.city.Lng, minR, maxR)
		for _, p := range g.Players {
			g.startLocations[p.Name] = latLng{Lat: lat, Lng: lng}
		}
	} else {
		for _, p := range g.Players {
			lat, lng := randomPointInRadius(g.city.Lat, g.city.Lng, minR, maxR)
			g.startLocations[p.Name] = latLng{Lat: lat, Lng: lng}
		}
	}
}

func (g *EventDash) initSelectionsLocked() {
	for _, p := range g.Players {
		g.selections[p.Name] = &playerSelections{}
	}
}

// remainingTimeLocked returns seconds left, or nil when unlimited.
// After the doubling instant, elapsed time counts at twice the rate.
func (g *EventDash) remainingTimeLocked() *float64 {
	if g.timeLimit == edNoTimeLimit {
		return nil
	}
	limit := float64(g.timeLimit)
	if g.timerStartedAt.IsZero() {
		return &limit
	}

	now := g.now()
	elapsed := now.Sub(g.timerStartedAt).Seconds()
	if !g.timerDoubledAt.IsZero() {
		normal := g.timerDoubledAt.Sub(g.timerStartedAt).Seconds()
		doubled := now.Sub(g.timerDoubledAt).Seconds() * 2
		elapsed = normal + doubled
	}

	remaining := limit - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

func (g *EventDash) scoreLocked(name string) float64 {
	sels := g.selections[name]
	if sels == nil {
		return 0
	}
	total := 0.0
	for _, r := range sels.Restaurants {
		if r != nil {
			total += r.Rating
		}
	}
	if sels.Activity != nil {
		total += sels.Activity.Rating
	}
	return math.Round(total*10) / 10
}

func (g *EventDash) HandleMove(p *Player, data Payload) {
	g.mu.Lock()
	defer g.mu.Unlock()

	action := data.String("action")
	switch action {
	case "configure":
		g.handleConfigure(p, data)
	case "start_game":
		g.handleStartGame(p)
	case "select_place":
		g.handleSelectPlace(p, data)
	case "request_skip":
		g.handleRequestSkip(p)
	case "respond_skip":
		g.handleRespondSkip(p, data)
	case "rematch":
		g.handleReady(p, false)
	case "new_city":
		g.handleReady(p, true)
	default:
		g.errorTo(p, fmt.Sprintf("Unknown action: %s", action))
	}
}

func (g *EventDash) handleConfigure(p *Player, data Payload) {
	if !g.isHost(p) {
		g.errorTo(p, "Only the host can configure the game")
		return
	}
	if g.phase != edPhaseLobby {
		g.errorTo(p, "Cannot configure game after it has started")
		return
	}

	timeLimit := edDefaultTimeLimit
	if data.IsNull("time_limit") {
		timeLimit = edNoTimeLimit
	} else if v, ok := data.Float("time_limit"); ok {
		timeLimit = int(v)
	}
	if !edTimeLimits[timeLimit] {
		timeLimit = edDefaultTimeLimit
	}

	g.timeLimit = timeLimit
	g.sameStart = data.BoolOr("same_start", true)

	g.Broadcast(map[string]any{
		"type": "game_configured",
		"data": g.configLocked(),
	}, nil)
}

func (g *EventDash) handleStartGame(p *Player) {
	if !g.isHost(p) {
		g.errorTo(p, "Only the host can start the game")
		return
	}
	if g.phase != edPhaseLobby {
		g.errorTo(p, "Game already started")
		return
	}
	if len(g.Players) < eventDashDescriptor.MinPlayers {
		g.errorTo(p, "Need 2 players to start")
		return
	}

	g.newCityLocked()
	g.initSelectionsLocked()

	// The countdown is rendered client-side; the server arms the timer
	// immediately so the baseline is shared.
	g.phase = edPhaseCountdown
	g.broadcastStartingLocked()
	g.phase = edPhasePlaying
	g.timerStartedAt = g.now()

	g.PushState(g.stateLocked)
}

func (g *EventDash) broadcastStartingLocked() {
	g.Broadcast(map[string]any{
		"type": "game_starting",
		"data": map[string]any{
			"city":      g.city.City,
			"state":     g.city.State,
			"countdown": 3,
		},
	}, nil)
}

func (g *EventDash) handleSelectPlace(p *Player, data Payload) {
	if g.phase != edPhasePlaying {
		g.errorTo(p, "Game is not in progress")
		return
	}

	if remaining := g.remainingTimeLocked(); remaining != nil && *remaining <= 0 {
		g.endGameLocked()
		return
	}

	placeID := data.String("place_id")
	category := data.String("category")
	name := data.String("name")
	if placeID == "" || category == "" || name == "" {
		g.errorTo(p, "Missing place information")
		return
	}
	if category != "restaurant" && category != "activity" {
		g.errorTo(p, "Invalid category")
		return
	}

	rating, _ := data.Float("rating")
	lat, _ := data.Float("lat")
	lng, _ := data.Float("lng")
	selection := &placeSelection{
		PlaceID: placeID,
		Name:    name,
		Rating:  rating,
		Lat:     lat,
		Lng:     lng,
	}

	sels := g.selections[p.Name]
	var slot int
	if category == "restaurant" {
		switch {
		case sels.Restaurants[0] == nil:
			sels.Restaurants[0] = selection
			slot = 1
		case sels.Restaurants[1] == nil:
			sels.Restaurants[1] = selection
			slot = 2
		default:
			g.errorTo(p, "Already selected 2 restaurants")
			return
		}
	} else {
		if sels.Activity != nil {
			g.errorTo(p, "Already selected an activity")
			return
		}
		sels.Activity = selection
		slot = 1
	}

	g.SendTo(p, map[string]any{
		"type": "selection_confirmed",
		"data": map[string]any{
			"category": category,
			"slot":     slot,
			"name":     name,
		},
	})

	// The opponent learns the category and slot, never the place.
	opponent := g.Opponent(p)
	if opponent != nil {
		g.SendTo(opponent, map[string]any{
			"type": "opponent_selection",
			"data": map[string]any{
				"category": category,
				"slot":     slot,
			},
		})
	}

	if sels.finished() && !contains(g.finishedOrder, p.Name) {
		g.finishedOrder = append(g.finishedOrder, p.Name)

		// First finisher doubles the opponent's clock drain.
		if len(g.finishedOrder) == 1 && opponent != nil {
			g.timerDoubledAt = g.now()
			g.SendTo(opponent, map[string]any{"type": "opponent_finished"})
		}
	}

	if g.bothFinishedLocked() {
		g.endGameLocked()
	} else {
		g.PushState(g.stateLocked)
	}
}

func (g *EventDash) bothFinishedLocked() bool {
	for _, p := range g.Players {
		if !g.selections[p.Name].finished() {
			return false
		}
	}
	return true
}

func (g *EventDash) handleRequestSkip(p *Player) {
	if g.phase != edPhasePlaying {
		g.errorTo(p, "Cannot skip when not playing")
		return
	}
	if g.skipRequestedBy != "" {
		g.errorTo(p, "Skip already requested")
		return
	}

	g.skipRequestedBy = p.Name

	if opponent := g.Opponent(p); opponent != nil {
		g.SendTo(opponent, map[string]any{"type": "skip_requested", "by": p.Name})
	}
	g.SendTo(p, map[string]any{"type": "waiting_for_skip_response"})
}

func (g *EventDash) handleRespondSkip(p *Player, data Payload) {
	if g.skipRequestedBy == p.Name {
		g.errorTo(p, "Cannot respond to your own skip request")
		return
	}
	if g.skipRequestedBy == "" {
		g.errorTo(p, "No skip request pending")
		return
	}

	if data.Bool("agree") {
		// Agreement draws a new city and restarts the clock from scratch.
		g.Broadcast(map[string]any{"type": "round_skipped"}, nil)
		g.newCityLocked()
		g.initSelectionsLocked()
		g.skipRequestedBy = ""
		g.finishedOrder = nil
		g.timerStartedAt = g.now()
		g.timerDoubledAt = time.Time{}

		g.broadcastStartingLocked()
		g.PushState(g.stateLocked)
	} else {
		g.skipRequestedBy = ""
		g.Broadcast(map[string]any{"type": "skip_declined"}, nil)
	}
}

// handleReady tracks the both-must-opt-in set for rematch (same city,
// fresh start points) and new-city restarts.
func (g *EventDash) handleReady(p *Player, newCity bool) {
	if g.phase != edPhaseFinished {
		return
	}

	if !contains(g.readyForNext, p.Name) {
		g.readyForNext = append(g.readyForNext, p.Name)
	}

	if len(g.readyForNext) < len(g.Players) {
		g.PushState(g.stateLocked)
		return
	}

	if newCity {
		g.newCityLocked()
	} else {
		g.generateStartLocationsLocked()
	}
	g.initSelectionsLocked()
	g.phase = edPhasePlaying
	g.finishedOrder = nil
	g.timerStartedAt = g.now()
	g.timerDoubledAt = time.Time{}
	g.skipRequestedBy = ""
	g.readyForNext = nil

	g.broadcastStartingLocked()
	g.PushState(g.stateLocked)
}

// endGameLocked tallies scores, reveals both players' selections and
// announces the winner (nil on a tie).
func (g *EventDash) endGameLocked() {
	g.phase = edPhaseFinished

	results := map[string]map[string]any{}
	for _, p := range g.Players {
		sels := g.selections[p.Name]
		list := []map[string]any{}
		if sels != nil {
			for _, r := range sels.Restaurants {
				if r != nil {
					list = append(list, selectionResult(r, "restaurant"))
				}
			}
			if sels.Activity != nil {
				list = append(list, selectionResult(sels.Activity, "activity"))
			}
		}
		results[p.Name] = map[string]any{
			"name":       p.Name,
			"selections": list,
			"total":      g.scoreLocked(p.Name),
		}
	}

	var winner any
	s1, s2 := g.scoreLocked(g.Players[0].Name), g.scoreLocked(g.Players[1].Name)
	if s1 > s2 {
		winner = g.Players[0].Name
	} else if s2 > s1 {
		winner = g.Players[1].Name
	}

	g.Broadcast(map[string]any{
		"type": "game_over",
		"data": map[string]any{
			"winner":  winner,
			"player1": results[g.Players[0].Name],
			"player2": results[g.Players[1].Name],
			"city":    g.city.City,
			"state":   g.city.State,
			"center":  latLng{Lat: g.city.Lat, Lng: g.city.Lng},
		},
	}, nil)

	g.PushState(g.stateLocked)
}

func selectionResult(s *placeSelection, category string) map[string]any {
	return map[string]any{
		"place_id": s.PlaceID,
		"name":     s.Name,
		"rating":   s.Rating,
		"lat":      s.Lat,
		"lng":      s.Lng,
		"category": category,
	}
}

func (g *EventDash) configLocked() map[string]any {
	cfg := map[string]any{"same_start": g.sameStart}
	if g.timeLimit == edNoTimeLimit {
		cfg["time_limit"] = nil
	} else {
		cfg["time_limit"] = g.timeLimit
	}
	return cfg
}

func (g *EventDash) StateFor(p *Player) map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked(p)
}

func (g *EventDash) BroadcastState() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.PushState(g.stateLocked)
}

// stateLocked builds p's view. The opponent's selections are reduced to a
// restaurant count and an activity flag until the round ends.
func (g *EventDash) stateLocked(p *Player) map[string]any {
	opponent := g.Opponent(p)

	oppRestaurantCount := 0
	oppHasActivity := false
	if opponent != nil {
		if sels := g.selections[opponent.Name]; sels != nil {
			for _, r := range sels.Restaurants {
				if r != nil {
					oppRestaurantCount++
				}
			}
			oppHasActivity = sels.Activity != nil
		}
	}

	state := map[string]any{
		"phase":                     g.phase,
		"is_host":                   g.isHost(p),
		"config":                    g.configLocked(),
		"my_name":                   p.Name,
		"opponent_restaurant_count": oppRestaurantCount,
		"opponent_has_activity":     oppHasActivity,
		"timer_doubled":             !g.timerDoubledAt.IsZero(),
		"i_finished":                contains(g.finishedOrder, p.Name),
	}

	if g.city != nil {
		state["city"] = g.city
	} else {
		state["city"] = nil
	}
	if start, ok := g.startLocations[p.Name]; ok {
		state["my_start"] = start
	} else {
		state["my_start"] = nil
	}
	if sels := g.selections[p.Name]; sels != nil {
		state["my_selections"] = sels
	} else {
		state["my_selections"] = nil
	}
	if remaining := g.remainingTimeLocked(); remaining != nil {
		state["remaining_time"] = *remaining
	} else {
		state["remaining_time"] = nil
	}
	if g.skipRequestedBy != "" {
		state["skip_requested_by"] = g.skipRequestedBy
	} else {
		state["skip_requested_by"] = nil
	}

	ready := g.readyForNext
	if ready == nil {
		ready = []string{}
	}
	state["ready_for_next"] = ready

	if opponent != nil {
		state["opponent_name"] = opponent.Name
		state["opponent_connected"] = opponent.Connected()
		state["opponent_finished"] = contains(g.finishedOrder, opponent.Name)
	} else {
		state["opponent_name"] = nil
		state["opponent_connected"] = false
		state["opponent_finished"] = false
	}
	return state
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

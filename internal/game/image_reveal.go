package game

import (
	"fmt"
	"math/rand"
	"strings"
)

var imageRevealDescriptor = Descriptor{
	ID:         "image-reveal",
	Name:       "Image Reveal",
	MinPlayers: 2,
	MaxPlayers: 2,
}

const (
	irPhaseWaitingForImage = "waiting_for_image"
	irPhaseWritingHint     = "writing_hint"
	irPhaseGuessing        = "guessing"
	irPhaseJudging         = "judging"
	irPhaseRoundComplete   = "round_complete"

	irGridSize       = 8  // 8x8 = 64 tiles
	irTilesPerReveal = 11 // ~6 hints to full reveal
)

type chatEntry struct {
	From       string `json:"from"`
	Text       string `json:"text"`
	PlayerName string `json:"player_name,omitempty"`
	IsHint     bool   `json:"is_hint,omitempty"`
	IsGuess    bool   `json:"is_guess,omitempty"`
	IsSystem   bool   `json:"is_system,omitempty"`
}

// ImageReveal pairs a picker (uploads a secret image, writes hints, judges
// guesses) with a guesser. Every hint uncovers a random batch of grid
// tiles; the guesser's score for a round is the number of hints used.
type ImageReveal struct {
	Session

	phase         string
	imageData     string
	revealedTiles [][2]int
	currentHint   string
	currentGuess  string
	hintRound     int
	pickerIndex   int
	swapRoles     bool
	gameRound     int
	scores        map[string][]int
	chat          []chatEntry
	gaveUp        string
}

func NewImageReveal(instanceID string) *ImageReveal {
	g := &ImageReveal{Session: Session{ID: instanceID}}
	g.resetAllLocked()
	return g
}

func (g *ImageReveal) Descriptor() Descriptor { return imageRevealDescriptor }
func (g *ImageReveal) Base() *Session         { return &g.Session }

func (g *ImageReveal) ResetForRematch() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetAllLocked()
}

func (g *ImageReveal) resetAllLocked() {
	g.phase = irPhaseWaitingForImage
	g.imageData = ""
	g.revealedTiles = nil
	g.currentHint = ""
	g.currentGuess = ""
	g.hintRound = 0
	g.pickerIndex = 0
	g.swapRoles = true
	g.gameRound = 1
	g.scores = map[string][]int{}
	g.chat = nil
	g.gaveUp = ""
}

func (g *ImageReveal) picker() *Player {
	if len(g.Players) == 0 {
		return nil
	}
	return g.Players[g.pickerIndex]
}

func (g *ImageReveal) guesser() *Player {
	if len(g.Players) < 2 {
		return nil
	}
	return g.Players[1-g.pickerIndex]
}

func (g *ImageReveal) isPicker(p *Player) bool { return p == g.picker() }

// revealTilesLocked uncovers up to irTilesPerReveal tiles chosen uniformly
// without replacement from the remaining covered ones.
func (g *ImageReveal) revealTilesLocked() {
	revealed := make(map[[2]int]bool, len(g.revealedTiles))
	for _, t := range g.revealedTiles {
		revealed[t] = true
	}

	var covered [][2]int
	for r := 0; r < irGridSize; r++ {
		for c := 0; c < irGridSize; c++ {
			if !revealed[[2]int{r, c}] {
				covered = append(covered, [2]int{r, c})
			}
		}
	}

	rand.Shuffle(len(covered), func(i, j int) {
		covered[i], covered[j] = covered[j], covered[i]
	})

	n := irTilesPerReveal
	if n > len(covered) {
		n = len(covered)
	}
	g.revealedTiles = append(g.revealedTiles, covered[:n]...)
}

func (g *ImageReveal) revealAllLocked() {
	g.revealedTiles = g.revealedTiles[:0]
	for r := 0; r < irGridSize; r++ {
		for c := 0; c < irGridSize; c++ {
			g.revealedTiles = append(g.revealedTiles, [2]int{r, c})
		}
	}
}

func (g *ImageReveal) HandleMove(p *Player, data Payload) {
	g.mu.Lock()
	defer g.mu.Unlock()

	action := data.String("action")
	switch action {
	case "upload_image":
		g.handleUploadImage(p, data)
	case "submit_hint":
		g.handleSubmitHint(p, data)
	case "submit_guess":
		g.handleSubmitGuess(p, data)
	case "judge_guess":
		g.handleJudgeGuess(p, data)
	case "chat":
		g.handleChat(p, data)
	case "give_up":
		g.handleGiveUp(p)
	case "next_round":
		g.handleNextRound(p)
	case "set_swap_roles":
		g.swapRolesSetting(p, data)
	default:
		g.errorTo(p, fmt.Sprintf("Unknown action: %s", action))
	}
}

func (g *ImageReveal) handleUploadImage(p *Player, data Payload) {
	if !g.isPicker(p) {
		g.errorTo(p, "Only the picker can upload an image")
		return
	}
	if g.phase != irPhaseWaitingForImage {
		g.errorTo(p, "Cannot upload image in current phase")
		return
	}

	imageData := data.String("image_data")
	if imageData == "" || !strings.HasPrefix(imageData, "data:image/") {
		g.errorTo(p, "Invalid image data")
		return
	}

	g.imageData = imageData
	g.phase = irPhaseWritingHint
	g.PushState(g.stateLocked)
}

func (g *ImageReveal) handleSubmitHint(p *Player, data Payload) {
	if !g.isPicker(p) {
		g.errorTo(p, "Only the picker can submit hints")
		return
	}
	if g.phase != irPhaseWritingHint {
		g.errorTo(p, "Cannot submit hint in current phase")
		return
	}

	hint := data.TrimmedString("hint")
	if hint == "" {
		g.errorTo(p, "Hint cannot be empty")
		return
	}

	g.currentHint = hint
	g.hintRound++
	g.revealTilesLocked()
	g.phase = irPhaseGuessing
	g.currentGuess = ""

	g.chat = append(g.chat, chatEntry{
		From:   "picker",
		Text:   fmt.Sprintf("Hint #%d: %s", g.hintRound, hint),
		IsHint: true,
	})

	g.PushState(g.stateLocked)
}

func (g *ImageReveal) handleSubmitGuess(p *Player, data Payload) {
	if g.isPicker(p) {
		g.errorTo(p, "Only the guesser can submit guesses")
		return
	}
	if g.phase != irPhaseGuessing {
		g.errorTo(p, "Cannot submit guess in current phase")
		return
	}

	guess := data.TrimmedString("guess")
	if guess == "" {
		g.errorTo(p, "Guess cannot be empty")
		return
	}

	g.currentGuess = guess
	g.phase = irPhaseJudging

	g.chat = append(g.chat, chatEntry{
		From:    "guesser",
		Text:    fmt.Sprintf("Guess: %s", guess),
		IsGuess: true,
	})

	g.PushState(g.stateLocked)
}

func (g *ImageReveal) handleJudgeGuess(p *Player, data Payload) {
	if !g.isPicker(p) {
		g.errorTo(p, "Only the picker can judge guesses")
		return
	}
	if g.phase != irPhaseJudging {
		g.errorTo(p, "No guess to judge")
		return
	}

	if data.Bool("correct") {
		guesser := g.guesser()
		if guesser != nil {
			g.scores[guesser.Name] = append(g.scores[guesser.Name], g.hintRound)
		}

		g.revealAllLocked()
		g.phase = irPhaseRoundComplete

		g.chat = append(g.chat, chatEntry{
			From:     "system",
			Text:     fmt.Sprintf("Correct! Guessed in %d hint(s)", g.hintRound),
			IsSystem: true,
		})

		result := map[string]any{
			"type":         "round_result",
			"rounds_taken": g.hintRound,
			"game_round":   g.gameRound,
		}
		if guesser != nil {
			result["winner"] = guesser.Name
		} else {
			result["winner"] = nil
		}
		g.Broadcast(result, nil)
	} else {
		g.phase = irPhaseWritingHint
		g.chat = append(g.chat, chatEntry{
			From:     "system",
			Text:     "Incorrect - try again!",
			IsSystem: true,
		})
	}

	g.PushState(g.stateLocked)
}

func (g *ImageReveal) handleChat(p *Player, data Payload) {
	text := data.TrimmedString("text")
	if text == "" {
		return
	}

	role := "guesser"
	if g.isPicker(p) {
		role = "picker"
	}
	g.chat = append(g.chat, chatEntry{From: role, Text: text, PlayerName: p.Name})

	g.PushState(g.stateLocked)
}

func (g *ImageReveal) handleGiveUp(p *Player) {
	if g.phase == irPhaseWaitingForImage || g.phase == irPhaseRoundComplete {
		g.errorTo(p, "Cannot give up in current phase")
		return
	}

	g.gaveUp = p.Name
	g.revealAllLocked()
	g.phase = irPhaseRoundComplete

	g.chat = append(g.chat, chatEntry{
		From:     "system",
		Text:     fmt.Sprintf("%s gave up - image revealed!", p.Name),
		IsSystem: true,
	})

	g.Broadcast(map[string]any{
		"type":       "round_result",
		"winner":     nil,
		"gave_up":    p.Name,
		"game_round": g.gameRound,
	}, nil)

	g.PushState(g.stateLocked)
}

// handleNextRound resets round-scoped state, optionally swapping roles.
// Scores and the round counter persist for the whole session.
func (g *ImageReveal) handleNextRound(p *Player) {
	if g.phase != irPhaseRoundComplete {
		g.errorTo(p, "Round is not complete")
		return
	}

	if g.swapRoles {
		g.pickerIndex = 1 - g.pickerIndex
	}

	g.phase = irPhaseWaitingForImage
	g.imageData = ""
	g.revealedTiles = nil
	g.currentHint = ""
	g.currentGuess = ""
	g.hintRound = 0
	g.gameRound++
	g.chat = nil
	g.gaveUp = ""

	g.Broadcast(map[string]any{"type": "new_round", "round": g.gameRound}, nil)
	g.PushState(g.stateLocked)
}

func (g *ImageReveal) swapRolesSetting(p *Player, data Payload) {
	if !g.isPicker(p) {
		g.errorTo(p, "Only the picker can change this setting")
		return
	}
	g.swapRoles = data.BoolOr("swap_roles", true)
	g.PushState(g.stateLocked)
}

func (g *ImageReveal) StateFor(p *Player) map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked(p)
}

func (g *ImageReveal) BroadcastState() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.PushState(g.stateLocked)
}

func (g *ImageReveal) stateLocked(p *Player) map[string]any {
	picker := g.picker()
	guesser := g.guesser()
	isPicker := g.isPicker(p)

	opponent := picker
	role := "guesser"
	if isPicker {
		opponent = guesser
		role = "picker"
	}

	state := map[string]any{
		"phase":      g.phase,
		"my_role":    role,
		"my_name":    p.Name,
		"grid_size":  irGridSize,
		"hint_round": g.hintRound,
		"game_round": g.gameRound,
		"scores":     g.scores,
		"chat":       g.chat,
		"swap_roles": g.swapRoles,
	}

	state["revealed_tiles"] = g.revealedTiles
	if g.revealedTiles == nil {
		state["revealed_tiles"] = [][2]int{}
	}
	if g.chat == nil {
		state["chat"] = []chatEntry{}
	}

	setOptional(state, "image_data", g.imageData)
	setOptional(state, "current_hint", g.currentHint)
	setOptional(state, "current_guess", g.currentGuess)
	setOptional(state, "gave_up", g.gaveUp)

	if picker != nil {
		state["picker_name"] = picker.Name
	} else {
		state["picker_name"] = nil
	}
	if guesser != nil {
		state["guesser_name"] = guesser.Name
	} else {
		state["guesser_name"] = nil
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

// setOptional stores nil for empty strings so clients see JSON null, not "".
func setOptional(state map[string]any, key, value string) {
	if value == "" {
		state[key] = nil
	} else {
		state[key] = value
	}
}

package ws

import (
	"sync"
	"time"

	"parlor/internal/game"
	"parlor/internal/logger"

	"github.com/google/uuid"
)

// ResumeTokens issues and verifies signed rejoin credentials. A nil
// implementation disables the feature; rejoin by id and name always works.
type ResumeTokens interface {
	Issue(instanceID, playerName string) (string, error)
	Verify(token string) (instanceID, playerName string, err error)
}

type queueEntry struct {
	name string
	conn game.Conn
}

// Hub owns all process-wide multiplayer state: the per-game-type FIFO
// matchmaking queues, the session registry, the conn→session map and the
// pending cleanup timers. Every mutation happens under one mutex; no
// registry state survives a restart.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]game.Game
	queues   map[string][]*queueEntry
	byConn   map[game.Conn]game.Game
	cleanups map[string]*time.Timer

	grace  time.Duration
	tokens ResumeTokens
}

func NewHub(grace time.Duration, tokens ResumeTokens) *Hub {
	return &Hub{
		sessions: make(map[string]game.Game),
		queues:   make(map[string][]*queueEntry),
		byConn:   make(map[game.Conn]game.Game),
		cleanups: make(map[string]*time.Timer),
		grace:    grace,
		tokens:   tokens,
	}
}

// Join queues the player, or pairs them with the oldest waiting entry for
// the game type. On a match both sides get a matched message followed by
// their personalized initial state.
func (h *Hub) Join(conn game.Conn, gameID, name string) {
	ctor, ok := game.Lookup(gameID)
	if !ok {
		h.sendRaw(conn, errorMsg("Unknown game: "+gameID))
		return
	}

	h.mu.Lock()

	// A repeat join supersedes any earlier entries by the same conn.
	h.purgeQueuesLocked(conn)

	queue := h.queues[gameID]
	if len(queue) == 0 {
		h.queues[gameID] = append(queue, &queueEntry{name: name, conn: conn})
		h.mu.Unlock()

		h.sendRaw(conn, waitingMessage{Type: "waiting", Message: "Waiting for opponent..."})
		logger.Info("player queued", "game", gameID, "player", name)
		return
	}

	// Oldest waiting entry wins; the matched conn leaves every queue so a
	// stale entry can never pair it into a second session.
	entry := queue[0]
	h.purgeQueuesLocked(entry.conn)

	instanceID := uuid.NewString()[:8]
	g := ctor(instanceID)

	opponent := game.NewPlayer(entry.name, entry.conn)
	player := game.NewPlayer(name, conn)
	g.Base().Players = []*game.Player{opponent, player}

	h.sessions[instanceID] = g
	h.byConn[entry.conn] = g
	h.byConn[conn] = g
	h.mu.Unlock()

	MatchesTotal.WithLabelValues(gameID).Inc()
	ActiveSessions.Inc()
	logger.Info("match created",
		"game", gameID, "instance", instanceID,
		"player1", opponent.Name, "player2", player.Name)

	opponent.Send(matchedMessage{
		Type:         "matched",
		InstanceID:   instanceID,
		OpponentName: player.Name,
		ResumeToken:  h.issueToken(instanceID, opponent.Name),
	})
	player.Send(matchedMessage{
		Type:         "matched",
		InstanceID:   instanceID,
		OpponentName: opponent.Name,
		ResumeToken:  h.issueToken(instanceID, player.Name),
	})

	g.BroadcastState()
}

// Rejoin reattaches a disconnected participant to their session and
// cancels any pending cleanup. It reports false when the session is gone,
// the name is unknown, or that name is still connected — callers degrade
// to a fresh join.
func (h *Hub) Rejoin(conn game.Conn, instanceID, name string) bool {
	h.mu.Lock()
	g, ok := h.sessions[instanceID]
	if !ok {
		h.mu.Unlock()
		logger.Info("rejoin failed: instance not found", "instance", instanceID)
		return false
	}

	player := g.Base().FindPlayer(name)
	if player == nil || player.Connected() {
		h.mu.Unlock()
		logger.Info("rejoin failed: player not reattachable",
			"instance", instanceID, "player", name)
		return false
	}

	player.Attach(conn)
	h.byConn[conn] = g
	h.cancelCleanupLocked(instanceID)
	h.mu.Unlock()

	logger.Info("player reconnected", "instance", instanceID, "player", name)

	opponent := g.Base().Opponent(player)
	if opponent != nil && opponent.Connected() {
		opponent.Send(presenceMessage{Type: "opponent_reconnected"})
	}

	opponentName := ""
	if opponent != nil {
		opponentName = opponent.Name
	}
	player.Send(matchedMessage{
		Type:         "rejoined",
		InstanceID:   instanceID,
		OpponentName: opponentName,
		ResumeToken:  h.issueToken(instanceID, name),
	})

	g.BroadcastState()
	return true
}

// purgeQueuesLocked removes every queue entry owned by conn, across all
// game types. Called whenever a conn is matched, disconnects or joins
// again, so no queue ever holds an entry for a conn that is gone or in a
// session.
func (h *Hub) purgeQueuesLocked(conn game.Conn) {
	for gameID, queue := range h.queues {
		kept := queue[:0]
		for _, entry := range queue {
			if entry.conn != conn {
				kept = append(kept, entry)
			}
		}
		h.queues[gameID] = kept
	}
}

// GameFor returns the session a live conn is attached to, if any.
func (h *Hub) GameFor(conn game.Conn) game.Game {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.byConn[conn]
}

// Disconnect purges the conn from every queue, unmaps it, marks its
// player disconnected and, once every participant has dropped, schedules
// the delayed session cleanup.
func (h *Hub) Disconnect(conn game.Conn) {
	h.mu.Lock()
	h.purgeQueuesLocked(conn)

	g, ok := h.byConn[conn]
	delete(h.byConn, conn)
	h.mu.Unlock()

	if !ok {
		return
	}

	var player *game.Player
	for _, p := range g.Base().Players {
		if p.Uses(conn) {
			player = p
			break
		}
	}
	if player == nil {
		return
	}

	player.Detach()
	logger.Info("player disconnected", "instance", g.Base().ID, "player", player.Name)

	opponent := g.Base().Opponent(player)
	if opponent != nil && opponent.Connected() {
		opponent.Send(presenceMessage{Type: "opponent_disconnected"})
	}

	if g.Base().AllDisconnected() {
		h.scheduleCleanup(g.Base().ID)
	}
}

// scheduleCleanup arms the grace-period timer for a fully disconnected
// session. At most one timer is pending per session id.
func (h *Hub) scheduleCleanup(instanceID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, pending := h.cleanups[instanceID]; pending {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(h.grace, func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		// Claim: a reconnect may have cancelled or replaced this timer
		// between firing and acquiring the lock.
		if h.cleanups[instanceID] != t {
			return
		}
		delete(h.cleanups, instanceID)

		g, ok := h.sessions[instanceID]
		if !ok || !g.Base().AllDisconnected() {
			return
		}
		delete(h.sessions, instanceID)
		ActiveSessions.Dec()
		CleanupsTotal.Inc()
		logger.Info("cleaned up inactive session", "instance", instanceID)
	})
	h.cleanups[instanceID] = t

	logger.Info("scheduled session cleanup", "instance", instanceID, "grace", h.grace)
}

func (h *Hub) cancelCleanupLocked(instanceID string) {
	if t, ok := h.cleanups[instanceID]; ok {
		t.Stop()
		delete(h.cleanups, instanceID)
	}
}

// Session looks up a live session by instance id.
func (h *Hub) Session(instanceID string) (game.Game, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.sessions[instanceID]
	return g, ok
}

func (h *Hub) issueToken(instanceID, playerName string) string {
	if h.tokens == nil {
		return ""
	}
	token, err := h.tokens.Issue(instanceID, playerName)
	if err != nil {
		logger.Warn("failed to issue resume token", "instance", instanceID, "error", err)
		return ""
	}
	return token
}

// VerifyToken resolves a resume token to its session id and player name.
func (h *Hub) VerifyToken(token string) (string, string, bool) {
	if h.tokens == nil || token == "" {
		return "", "", false
	}
	instanceID, playerName, err := h.tokens.Verify(token)
	if err != nil {
		return "", "", false
	}
	return instanceID, playerName, true
}

func (h *Hub) sendRaw(conn game.Conn, v any) {
	_ = conn.Send(v)
}

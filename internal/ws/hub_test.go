package ws

import (
	"sync"
	"testing"
	"time"

	"parlor/internal/game"
	"parlor/internal/service"
)

// stubConn records everything the hub sends through it.
type stubConn struct {
	mu   sync.Mutex
	msgs []any
}

func (c *stubConn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, v)
	return nil
}

func (c *stubConn) messages() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func (c *stubConn) matched() *matchedMessage {
	for _, msg := range c.messages() {
		if m, ok := msg.(matchedMessage); ok && m.Type == "matched" {
			return &m
		}
	}
	return nil
}

func (c *stubConn) sawType(msgType string) bool {
	for _, msg := range c.messages() {
		switch m := msg.(type) {
		case waitingMessage:
			if m.Type == msgType {
				return true
			}
		case matchedMessage:
			if m.Type == msgType {
				return true
			}
		case presenceMessage:
			if m.Type == msgType {
				return true
			}
		case errorMessage:
			if m.Type == msgType {
				return true
			}
		}
	}
	return false
}

func newTestHub() *Hub {
	return NewHub(50*time.Millisecond, nil)
}

func TestJoinQueuesFirstPlayer(t *testing.T) {
	h := newTestHub()
	c := &stubConn{}

	h.Join(c, "rps", "alice")

	if !c.sawType("waiting") {
		t.Fatal("first joiner got no waiting message")
	}
	if h.GameFor(c) != nil {
		t.Fatal("queued player has a session already")
	}
}

func TestJoinRejectsUnknownGame(t *testing.T) {
	h := newTestHub()
	c := &stubConn{}

	h.Join(c, "chess", "alice")

	if !c.sawType("error") {
		t.Fatal("unknown game type not rejected")
	}
}

func TestJoinMatchesFIFO(t *testing.T) {
	h := newTestHub()
	c1, c2, c3 := &stubConn{}, &stubConn{}, &stubConn{}

	h.Join(c1, "rps", "alice")
	h.Join(c2, "rps", "bob")

	m1, m2 := c1.matched(), c2.matched()
	if m1 == nil || m2 == nil {
		t.Fatal("players not matched")
	}
	if m1.InstanceID != m2.InstanceID {
		t.Fatal("players landed in different sessions")
	}
	if m1.OpponentName != "bob" || m2.OpponentName != "alice" {
		t.Fatalf("opponent names %q/%q", m1.OpponentName, m2.OpponentName)
	}

	// matched players are out of the queue; a third player waits
	h.Join(c3, "rps", "carol")
	if !c3.sawType("waiting") {
		t.Fatal("third player should be queued, not matched")
	}

	g := h.GameFor(c1)
	if g == nil || g != h.GameFor(c2) {
		t.Fatal("conn-to-session mapping wrong")
	}
	if _, ok := h.Session(m1.InstanceID); !ok {
		t.Fatal("session not registered")
	}
}

func TestMatchedConnLeavesEveryQueue(t *testing.T) {
	h := newTestHub()
	c1, c2, c3 := &stubConn{}, &stubConn{}, &stubConn{}

	// an impatient client joins twice before an opponent shows up
	h.Join(c1, "rps", "alice")
	h.Join(c1, "rps", "alice")
	h.Join(c2, "rps", "bob")

	m1 := c1.matched()
	if m1 == nil || c2.matched() == nil {
		t.Fatal("players not matched")
	}

	// no stale entry of the matched conn may pair a later joiner
	h.Join(c3, "rps", "carol")
	if c3.matched() != nil {
		t.Fatal("matched against a stale entry of an already-matched conn")
	}
	if !c3.sawType("waiting") {
		t.Fatal("third player not queued")
	}
	if g := h.GameFor(c1); g == nil || g.Base().ID != m1.InstanceID {
		t.Fatal("matched conn no longer maps to its session")
	}
}

func TestJoinPurgesEntriesInOtherQueues(t *testing.T) {
	h := newTestHub()
	c1, c2, c3 := &stubConn{}, &stubConn{}, &stubConn{}

	// c1 waits in rps, then switches to event-dash and gets matched there
	h.Join(c1, "rps", "alice")
	h.Join(c1, "event-dash", "alice")
	h.Join(c2, "event-dash", "bob")
	if c1.matched() == nil {
		t.Fatal("players not matched in event-dash")
	}

	// the abandoned rps entry must be gone
	h.Join(c3, "rps", "carol")
	if c3.matched() != nil {
		t.Fatal("matched against an abandoned queue entry")
	}
	if !c3.sawType("waiting") {
		t.Fatal("rps joiner not queued")
	}
}

func TestQueuesArePerGameType(t *testing.T) {
	h := newTestHub()
	c1, c2 := &stubConn{}, &stubConn{}

	h.Join(c1, "rps", "alice")
	h.Join(c2, "event-dash", "bob")

	if c1.matched() != nil || c2.matched() != nil {
		t.Fatal("players of different game types were matched")
	}
}

func TestDisconnectPurgesQueue(t *testing.T) {
	h := newTestHub()
	c1, c2 := &stubConn{}, &stubConn{}

	h.Join(c1, "rps", "alice")
	h.Disconnect(c1)

	h.Join(c2, "rps", "bob")
	if c2.matched() != nil {
		t.Fatal("matched against a disconnected queue entry")
	}
}

func TestDisconnectNotifiesOpponent(t *testing.T) {
	h := newTestHub()
	c1, c2 := &stubConn{}, &stubConn{}

	h.Join(c1, "rps", "alice")
	h.Join(c2, "rps", "bob")
	h.Disconnect(c1)

	if !c2.sawType("opponent_disconnected") {
		t.Fatal("opponent not told about the disconnect")
	}

	g, ok := h.Session(c2.matched().InstanceID)
	if !ok {
		t.Fatal("session removed while one player is still connected")
	}
	if g.Base().FindPlayer("alice").Connected() {
		t.Fatal("disconnected player still marked connected")
	}
}

func TestRejoinReattaches(t *testing.T) {
	h := newTestHub()
	c1, c2, c3 := &stubConn{}, &stubConn{}, &stubConn{}

	h.Join(c1, "rps", "alice")
	h.Join(c2, "rps", "bob")
	instanceID := c1.matched().InstanceID

	h.Disconnect(c1)
	if !h.Rejoin(c3, instanceID, "alice") {
		t.Fatal("rejoin refused")
	}

	if !c3.sawType("rejoined") {
		t.Fatal("rejoiner got no rejoined message")
	}
	if !c2.sawType("opponent_reconnected") {
		t.Fatal("opponent not told about the reconnect")
	}

	g, _ := h.Session(instanceID)
	if !g.Base().FindPlayer("alice").Uses(c3) {
		t.Fatal("player not bound to the new conn")
	}
	if h.GameFor(c3) != g {
		t.Fatal("new conn not mapped to the session")
	}
}

func TestRejoinRefusalCases(t *testing.T) {
	h := newTestHub()
	c1, c2, c3 := &stubConn{}, &stubConn{}, &stubConn{}

	h.Join(c1, "rps", "alice")
	h.Join(c2, "rps", "bob")
	instanceID := c1.matched().InstanceID

	if h.Rejoin(c3, "nope", "alice") {
		t.Fatal("rejoin to unknown session accepted")
	}
	if h.Rejoin(c3, instanceID, "mallory") {
		t.Fatal("rejoin with unknown name accepted")
	}
	// alice is still connected on c1
	if h.Rejoin(c3, instanceID, "alice") {
		t.Fatal("rejoin for a connected player accepted")
	}
}

func TestCleanupAfterGrace(t *testing.T) {
	h := newTestHub()
	c1, c2 := &stubConn{}, &stubConn{}

	h.Join(c1, "rps", "alice")
	h.Join(c2, "rps", "bob")
	instanceID := c1.matched().InstanceID

	h.Disconnect(c1)
	h.Disconnect(c2)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := h.Session(instanceID); !ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("session not cleaned up after grace period")
}

func TestReconnectCancelsCleanup(t *testing.T) {
	h := newTestHub()
	c1, c2, c3 := &stubConn{}, &stubConn{}, &stubConn{}

	h.Join(c1, "rps", "alice")
	h.Join(c2, "rps", "bob")
	instanceID := c1.matched().InstanceID

	h.Disconnect(c1)
	h.Disconnect(c2)

	if !h.Rejoin(c3, instanceID, "alice") {
		t.Fatal("rejoin refused during grace period")
	}

	time.Sleep(150 * time.Millisecond)
	if _, ok := h.Session(instanceID); !ok {
		t.Fatal("session cleaned up despite reconnect")
	}
}

func TestMatchedCarriesResumeTokens(t *testing.T) {
	h := NewHub(time.Minute, service.NewResumeTokenService("test-secret"))
	c1, c2 := &stubConn{}, &stubConn{}

	h.Join(c1, "rps", "alice")
	h.Join(c2, "rps", "bob")

	m := c1.matched()
	if m == nil || m.ResumeToken == "" {
		t.Fatal("no resume token issued")
	}

	instanceID, name, ok := h.VerifyToken(m.ResumeToken)
	if !ok {
		t.Fatal("issued token does not verify")
	}
	if instanceID != m.InstanceID || name != "alice" {
		t.Fatalf("token binds %q/%q; want %q/alice", instanceID, name, m.InstanceID)
	}
}

func TestTokensDisabledWithoutService(t *testing.T) {
	h := newTestHub()
	c1, c2 := &stubConn{}, &stubConn{}

	h.Join(c1, "rps", "alice")
	h.Join(c2, "rps", "bob")

	if m := c1.matched(); m.ResumeToken != "" {
		t.Fatal("token issued with tokens disabled")
	}
	if _, _, ok := h.VerifyToken("anything"); ok {
		t.Fatal("verification succeeded with tokens disabled")
	}
}

var _ game.Conn = (*stubConn)(nil)

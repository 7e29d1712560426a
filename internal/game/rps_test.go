package game

import (
	"testing"
	"time"
)

func newRPSMatch() (*RockPaperScissors, *Player, *Player, *fakeConn, *fakeConn) {
	// Long enough that reveal-phase assertions never race the next round;
	// the round-advance test shortens it.
	g := NewRockPaperScissors("test-rps")
	g.InterRoundDelay = time.Minute
	ca, cb := &fakeConn{}, &fakeConn{}
	pa, pb := seatPlayers(g, ca, cb)
	return g, pa, pb, ca, cb
}

func TestRPSBeats(t *testing.T) {
	cases := []struct {
		choice, loses string
	}{
		{"rock", "scissors"},
		{"paper", "rock"},
		{"scissors", "paper"},
	}

	for _, tc := range cases {
		if got := beats[tc.choice]; got != tc.loses {
			t.Fatalf("beats[%s] = %s; want %s", tc.choice, got, tc.loses)
		}
	}
}

func TestRPSHidesOpponentChoiceWhileChoosing(t *testing.T) {
	g, pa, pb, _, _ := newRPSMatch()

	g.HandleMove(pa, Payload{"choice": "rock"})

	own := g.StateFor(pa)["choices"].(map[string]any)
	if own["alice"] != "rock" {
		t.Fatalf("own choice = %v; want rock", own["alice"])
	}

	theirs := g.StateFor(pb)["choices"].(map[string]any)
	if theirs["alice"] != "chosen" {
		t.Fatalf("opponent sees %v; want the chosen marker", theirs["alice"])
	}
	if theirs["bob"] != nil {
		t.Fatalf("bob's own pending choice = %v; want nil", theirs["bob"])
	}
}

func TestRPSResolvesRound(t *testing.T) {
	g, pa, pb, ca, cb := newRPSMatch()

	g.HandleMove(pa, Payload{"choice": "rock"})
	g.HandleMove(pb, Payload{"choice": "scissors"})

	for _, c := range []*fakeConn{ca, cb} {
		if n := c.countOfType("round_result"); n != 1 {
			t.Fatalf("got %d round_result broadcasts; want exactly 1", n)
		}
		result := c.lastOfType("round_result")
		if result["winner"] != "alice" {
			t.Fatalf("winner = %v; want alice", result["winner"])
		}
		scores := result["scores"].(map[string]int)
		if scores["alice"] != 1 || scores["bob"] != 0 {
			t.Fatalf("scores = %v; want alice 1, bob 0", scores)
		}
	}

	// both choices revealed once resolved
	view := g.StateFor(pb)
	if view["phase"] != "reveal" {
		t.Fatalf("phase = %v; want reveal", view["phase"])
	}
	choices := view["choices"].(map[string]any)
	if choices["alice"] != "rock" || choices["bob"] != "scissors" {
		t.Fatalf("revealed choices = %v", choices)
	}
}

func TestRPSTieScoresNobody(t *testing.T) {
	g, pa, pb, ca, _ := newRPSMatch()

	g.HandleMove(pa, Payload{"choice": "paper"})
	g.HandleMove(pb, Payload{"choice": "paper"})

	result := ca.lastOfType("round_result")
	if result == nil {
		t.Fatal("no round_result broadcast")
	}
	if result["winner"] != nil {
		t.Fatalf("winner = %v; want nil on tie", result["winner"])
	}
	scores := result["scores"].(map[string]int)
	if scores["alice"] != 0 || scores["bob"] != 0 {
		t.Fatalf("scores after tie = %v; want zeroes", scores)
	}
}

func TestRPSRejectsInvalidChoice(t *testing.T) {
	g, pa, pb, ca, cb := newRPSMatch()

	g.HandleMove(pa, Payload{"choice": "lizard"})

	if ca.lastOfType("error") == nil {
		t.Fatal("actor got no error message")
	}
	if cb.lastOfType("error") != nil {
		t.Fatal("error leaked to the opponent")
	}
	view := g.StateFor(pb)
	if view["phase"] != "choosing" {
		t.Fatalf("phase = %v; want choosing unchanged", view["phase"])
	}
}

func TestRPSRejectsMoveDuringReveal(t *testing.T) {
	g, pa, pb, ca, _ := newRPSMatch()

	g.HandleMove(pa, Payload{"choice": "rock"})
	g.HandleMove(pb, Payload{"choice": "scissors"})

	g.HandleMove(pa, Payload{"choice": "paper"})
	msg := ca.lastOfType("error")
	if msg == nil {
		t.Fatal("move during reveal not rejected")
	}
	scores := g.StateFor(pa)["scores"].(map[string]int)
	if scores["alice"] != 1 {
		t.Fatalf("score changed by rejected move: %v", scores)
	}
}

func TestRPSStartsNextRoundAfterDelay(t *testing.T) {
	g, pa, pb, ca, _ := newRPSMatch()
	g.InterRoundDelay = 10 * time.Millisecond

	g.HandleMove(pa, Payload{"choice": "rock"})
	g.HandleMove(pb, Payload{"choice": "scissors"})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if g.StateFor(pa)["phase"] == "choosing" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	view := g.StateFor(pa)
	if view["phase"] != "choosing" {
		t.Fatalf("phase = %v; want choosing after delay", view["phase"])
	}
	if view["round"] != 2 {
		t.Fatalf("round = %v; want 2", view["round"])
	}
	choices := view["choices"].(map[string]any)
	if choices["alice"] != nil || choices["bob"] != nil {
		t.Fatalf("choices not cleared for new round: %v", choices)
	}
	// scores carry over
	scores := view["scores"].(map[string]int)
	if scores["alice"] != 1 {
		t.Fatalf("scores reset between rounds: %v", scores)
	}
	if ca.lastOfType("new_round") == nil {
		t.Fatal("no new_round broadcast")
	}
}

func TestRPSResetForRematchKeepsScores(t *testing.T) {
	g, pa, pb, _, _ := newRPSMatch()

	g.HandleMove(pa, Payload{"choice": "rock"})
	g.HandleMove(pb, Payload{"choice": "scissors"})

	g.ResetForRematch()

	view := g.StateFor(pa)
	if view["phase"] != "choosing" {
		t.Fatalf("phase = %v; want choosing", view["phase"])
	}
	if view["round"] != 2 {
		t.Fatalf("round = %v; want 2", view["round"])
	}
	scores := view["scores"].(map[string]int)
	if scores["alice"] != 1 {
		t.Fatalf("scores lost on rematch reset: %v", scores)
	}
}

package game

import "testing"

func TestPlayerSendFailureMarksDisconnected(t *testing.T) {
	conn := &fakeConn{failNext: true}
	p := NewPlayer("alice", conn)

	if p.Send("hello") {
		t.Fatal("failed send reported as delivered")
	}
	if p.Connected() {
		t.Fatal("player still connected after send failure")
	}
	if p.Send("again") {
		t.Fatal("send succeeded on a disconnected player")
	}
}

func TestPlayerReattach(t *testing.T) {
	c1, c2 := &fakeConn{}, &fakeConn{}
	p := NewPlayer("alice", c1)

	p.Detach()
	if p.Connected() {
		t.Fatal("player connected after detach")
	}
	if p.Send("dropped") {
		t.Fatal("send delivered while detached")
	}

	p.Attach(c2)
	if !p.Connected() || !p.Uses(c2) || p.Uses(c1) {
		t.Fatal("reattach did not bind the new conn")
	}
	if !p.Send("hello") {
		t.Fatal("send failed after reattach")
	}
	if len(c2.messages()) != 1 || len(c1.messages()) != 0 {
		t.Fatal("message went to the wrong conn")
	}
}

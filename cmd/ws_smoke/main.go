package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// Two-player smoke test against a running server: joins two clients to an
// rps match, plays one round and prints the result frames.
func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8500"
	}

	dialer := websocket.DefaultDialer

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	wsURL := fmt.Sprintf("ws://127.0.0.1:%s/ws/game/rps", port)

	connA, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("dial A: %v", err)
	}
	defer connA.Close()

	connB, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("dial B: %v", err)
	}
	defer connB.Close()

	if err := connA.WriteMessage(websocket.TextMessage, []byte(`{"type":"join","player_name":"smokeA"}`)); err != nil {
		log.Fatalf("join A: %v", err)
	}
	if err := connB.WriteMessage(websocket.TextMessage, []byte(`{"type":"join","player_name":"smokeB"}`)); err != nil {
		log.Fatalf("join B: %v", err)
	}

	// wait for the match (drain waiting/state messages)
	drainUntilMatched := func(conn *websocket.Conn, name string) {
		deadline := time.Now().Add(3 * time.Second)
		for time.Now().Before(deadline) {
			conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				continue
			}
			var obj map[string]any
			_ = json.Unmarshal(msg, &obj)
			if t, ok := obj["type"].(string); ok && t == "matched" {
				log.Printf("%s matched: %s", name, string(msg))
				return
			}
		}
		log.Fatalf("%s never matched", name)
	}

	drainUntilMatched(connA, "A")
	drainUntilMatched(connB, "B")

	// send choices
	if err := connA.WriteMessage(websocket.TextMessage, []byte(`{"type":"move","data":{"choice":"rock"}}`)); err != nil {
		log.Fatalf("write A: %v", err)
	}
	if err := connB.WriteMessage(websocket.TextMessage, []byte(`{"type":"move","data":{"choice":"scissors"}}`)); err != nil {
		log.Fatalf("write B: %v", err)
	}

	// read until the round result shows up
	readResult := func(conn *websocket.Conn, name string) {
		deadline := time.Now().Add(3 * time.Second)
		for time.Now().Before(deadline) {
			conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				continue
			}
			var obj map[string]any
			_ = json.Unmarshal(msg, &obj)
			if t, ok := obj["type"].(string); ok && t == "round_result" {
				log.Printf("%s got: %s", name, string(msg))
				return
			}
		}
		log.Printf("%s never saw a round result", name)
	}

	readResult(connA, "A")
	readResult(connB, "B")

	log.Println("smoke test finished")
}

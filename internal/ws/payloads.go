package ws

import "parlor/internal/game"

// client → server
type inboundMessage struct {
	Type       string       `json:"type"`
	PlayerName string       `json:"player_name"`
	InstanceID string       `json:"instance_id"`
	Token      string       `json:"token"`
	Data       game.Payload `json:"data"`
}

// server → client lifecycle messages. Game-specific payloads are built by
// the games themselves.
type waitingMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type matchedMessage struct {
	Type         string `json:"type"`
	InstanceID   string `json:"instance_id"`
	OpponentName string `json:"opponent_name"`
	ResumeToken  string `json:"resume_token,omitempty"`
}

type presenceMessage struct {
	Type string `json:"type"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func errorMsg(message string) errorMessage {
	return errorMessage{Type: "error", Message: message}
}

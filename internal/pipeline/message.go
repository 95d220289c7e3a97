package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Message is the queue payload that triggers a pipeline run. It is a
// denormalized snapshot; the persisted job and persona records stay
// authoritative for everything the message does not carry.
type Message struct {
	JobID     string `json:"jobId"`
	UserID    string `json:"userId"`
	PersonaID string `json:"personaId"`
	VideoURL  string `json:"videoUrl"`
}

// ParseMessage decodes a queue payload.
func ParseMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("decode job message: %w", err)
	}
	if strings.TrimSpace(msg.JobID) == "" {
		return Message{}, fmt.Errorf("decode job message: jobId is required")
	}
	return msg, nil
}

// Encode serializes a message for enqueueing.
func (m Message) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode job message: %w", err)
	}
	return data, nil
}

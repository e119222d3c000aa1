package store

import "time"

// Role tags a turn in a patient's conversation history
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged message in a conversation history
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is a read-only snapshot of a patient's state.
// Document is the latest uploaded discharge note ("" if none).
type Conversation struct {
	PatientID string    `json:"patient_id"`
	Document  string    `json:"document"`
	History   []Turn    `json:"history"`
	UpdatedAt time.Time `json:"updated_at"`
}

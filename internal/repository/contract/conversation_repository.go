package contract

import (
	"care-relay-be/pkg/store"
)

// ConversationRepository holds per-patient discharge documents and turn history.
// Implementations must be safe for concurrent use across patients.
type ConversationRepository interface {
	AppendTurn(patientID string, role store.Role, text string)
	GetHistory(patientID string) []store.Turn
	SetDocument(patientID string, text string)
	GetDocument(patientID string) string
	Snapshot(patientID string) (*store.Conversation, bool)
}

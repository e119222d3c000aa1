package events

import "context"

const (
	TypeParticipantConnected    = "PARTICIPANT_CONNECTED"
	TypeParticipantDisconnected = "PARTICIPANT_DISCONNECTED"
	TypeParticipantEvicted      = "PARTICIPANT_EVICTED"
	TypeMessageRelayed          = "MESSAGE_RELAYED"
	TypePeerUnavailable         = "PEER_UNAVAILABLE"
	TypeSenderUnrecognized      = "SENDER_UNRECOGNIZED"
	TypeAgentReplied            = "AGENT_REPLIED"
	TypeAgentFailed             = "AGENT_FAILED"
	TypeDocumentUploaded        = "DOCUMENT_UPLOADED"
)

// Sink forwards events outside the process.
type Sink interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

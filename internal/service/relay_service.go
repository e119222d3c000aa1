package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"care-relay-be/internal/constant"
	"care-relay-be/internal/pkg/logger"
	"care-relay-be/internal/repository/contract"
	"care-relay-be/internal/websocket"
	"care-relay-be/pkg/events"
	"care-relay-be/pkg/pairing"
	"care-relay-be/pkg/store"
)

var (
	ErrInvalidDocument = errors.New("document is not valid UTF-8 text")
	ErrMissingPatient  = errors.New("patient_id is required")
	ErrNotAgentRouted  = errors.New("patient is not routed to the agent")
)

type UploadResult struct {
	PatientID         string
	Bytes             int
	DeliveredToExpert bool
}

type RelayStats struct {
	Patients    int
	Experts     int
	Pairs       int
	AgentRouted int
}

// IRelayService routes every inbound frame and owns the upload side channel.
type IRelayService interface {
	websocket.Lifecycle
	UploadDocument(ctx context.Context, patientID, text string) (*UploadResult, error)
	Chat(ctx context.Context, patientID, text string) (string, error)
	Conversation(patientID string) (*store.Conversation, bool)
	Stats() RelayStats
}

type relayService struct {
	hub           *websocket.Hub
	pairings      *pairing.Table
	conversations contract.ConversationRepository
	agent         IAgentService
	publisher     IPublisherService
	logger        logger.ILogger

	// turnLocks serializes agent exchanges per patient across the websocket
	// and REST channels. Values are *sync.Mutex.
	turnLocks sync.Map
}

func NewRelayService(
	hub *websocket.Hub,
	pairings *pairing.Table,
	conversations contract.ConversationRepository,
	agent IAgentService,
	publisher IPublisherService,
	log logger.ILogger,
) IRelayService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &relayService{
		hub:           hub,
		pairings:      pairings,
		conversations: conversations,
		agent:         agent,
		publisher:     publisher,
		logger:        log,
	}
}

func (s *relayService) Connect(ctx context.Context, conn websocket.Connection) {
	evicted := s.hub.Register(conn)
	if evicted != nil {
		s.publish(ctx, events.TypeParticipantEvicted, conn, map[string]interface{}{
			"evicted_conn_id": evicted.ConnID().String(),
		})
	}
	s.publish(ctx, events.TypeParticipantConnected, conn, nil)

	if conn.Side() != websocket.SideExpert {
		return
	}
	patientID, ok := s.pairings.PatientOfExpert(conn.ParticipantID())
	if !ok {
		return
	}
	document := s.conversations.GetDocument(patientID)
	if document == "" {
		return
	}
	if err := conn.Send(fmt.Sprintf(constant.DocumentNotifyFmt, patientID, document)); err != nil {
		s.logger.Warn("RelayService", "Failed to push stored document to expert", map[string]interface{}{
			"expert_id":  conn.ParticipantID(),
			"patient_id": patientID,
			"error":      err.Error(),
		})
	}
}

func (s *relayService) Disconnect(ctx context.Context, conn websocket.Connection) {
	if s.hub.Unregister(conn) {
		s.publish(ctx, events.TypeParticipantDisconnected, conn, nil)
	}
}

func (s *relayService) HandleMessage(ctx context.Context, conn websocket.Connection, text string) {
	route, peerID := s.pairings.Classify(conn.ParticipantID())

	switch route {
	case pairing.RouteAgent:
		s.handleAgent(ctx, conn, text)
	case pairing.RoutePatientToExpert:
		s.relay(ctx, conn, websocket.SideExpert, peerID, constant.NoticeNoExpert, text)
	case pairing.RouteExpertToPatient:
		s.relay(ctx, conn, websocket.SidePatient, peerID, constant.NoticeNoPatient, text)
	default:
		s.reply(conn, constant.NoticeUnrecognized)
		s.publish(ctx, events.TypeSenderUnrecognized, conn, map[string]interface{}{
			"length": len(text),
		})
	}
}

// relay forwards text verbatim to the peer's live connection, or tells the
// sender the peer is unavailable. Nothing is queued.
func (s *relayService) relay(ctx context.Context, sender websocket.Connection, peerSide websocket.Side, peerID, unavailable, text string) {
	data := map[string]interface{}{
		"peer_id": peerID,
		"length":  len(text),
	}

	peer, ok := s.hub.Lookup(peerSide, peerID)
	if ok {
		err := peer.Send(text)
		if err == nil {
			s.publish(ctx, events.TypeMessageRelayed, sender, data)
			return
		}
		data["error"] = err.Error()
	}

	s.reply(sender, unavailable)
	s.publish(ctx, events.TypePeerUnavailable, sender, data)
}

func (s *relayService) handleAgent(ctx context.Context, conn websocket.Connection, text string) {
	reply, data, err := s.converse(ctx, conn.ParticipantID(), text)
	if err != nil {
		s.reply(conn, fmt.Sprintf(constant.NoticeAgentErrorFmt, err.Error()))
		s.publish(ctx, events.TypeAgentFailed, conn, data)
		return
	}
	s.reply(conn, reply)
	s.publish(ctx, events.TypeAgentReplied, conn, data)
}

// Chat runs one agent exchange for an agent-routed patient outside any
// websocket session.
func (s *relayService) Chat(ctx context.Context, patientID, text string) (string, error) {
	if patientID == "" {
		return "", ErrMissingPatient
	}
	if route, _ := s.pairings.Classify(patientID); route != pairing.RouteAgent {
		return "", ErrNotAgentRouted
	}

	reply, data, err := s.converse(ctx, patientID, text)
	data["participant_id"] = patientID
	data["side"] = string(websocket.SidePatient)
	data["channel"] = "rest"

	if err != nil {
		s.publisher.Publish(ctx, events.New(events.TypeAgentFailed, data))
		return "", err
	}
	s.publisher.Publish(ctx, events.New(events.TypeAgentReplied, data))
	return reply, nil
}

// converse appends the user turn, asks the agent and appends its reply.
// A failed exchange keeps the user turn.
func (s *relayService) converse(ctx context.Context, patientID, text string) (string, map[string]interface{}, error) {
	lock, _ := s.turnLocks.LoadOrStore(patientID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	s.conversations.AppendTurn(patientID, store.RoleUser, text)
	document := s.conversations.GetDocument(patientID)
	history := s.conversations.GetHistory(patientID)

	start := time.Now()
	reply, err := s.agent.Reply(ctx, document, history)
	data := map[string]interface{}{
		"history_turns": len(history),
		"duration_ms":   time.Since(start).Milliseconds(),
	}
	if err != nil {
		data["error"] = err.Error()
		return "", data, err
	}

	s.conversations.AppendTurn(patientID, store.RoleAssistant, reply)
	data["length"] = len(reply)
	return reply, data, nil
}

func (s *relayService) UploadDocument(ctx context.Context, patientID, text string) (*UploadResult, error) {
	if patientID == "" {
		return nil, ErrMissingPatient
	}
	if !utf8.ValidString(text) {
		return nil, ErrInvalidDocument
	}

	s.conversations.SetDocument(patientID, text)
	result := &UploadResult{PatientID: patientID, Bytes: len(text)}

	if expertID, ok := s.pairings.CounterpartOfPatient(patientID); ok {
		if expert, live := s.hub.Lookup(websocket.SideExpert, expertID); live {
			err := expert.Send(fmt.Sprintf(constant.DocumentNotifyFmt, patientID, text))
			result.DeliveredToExpert = err == nil
			if err != nil {
				s.logger.Warn("RelayService", "Failed to notify expert of new document", map[string]interface{}{
					"expert_id":  expertID,
					"patient_id": patientID,
					"error":      err.Error(),
				})
			}
		}
	}

	s.publisher.Publish(ctx, events.New(events.TypeDocumentUploaded, map[string]interface{}{
		"patient_id":          patientID,
		"bytes":               result.Bytes,
		"delivered_to_expert": result.DeliveredToExpert,
	}))
	return result, nil
}

func (s *relayService) Conversation(patientID string) (*store.Conversation, bool) {
	return s.conversations.Snapshot(patientID)
}

func (s *relayService) Stats() RelayStats {
	pairs, agent := s.pairings.Size()
	return RelayStats{
		Patients:    s.hub.Count(websocket.SidePatient),
		Experts:     s.hub.Count(websocket.SideExpert),
		Pairs:       pairs,
		AgentRouted: agent,
	}
}

// reply sends a notice back to the sender. A failure means the sender is
// going away and its own read loop will clean up.
func (s *relayService) reply(conn websocket.Connection, text string) {
	if err := conn.Send(text); err != nil {
		s.logger.Debug("RelayService", "Reply to sender dropped", map[string]interface{}{
			"participant_id": conn.ParticipantID(),
			"error":          err.Error(),
		})
	}
}

func (s *relayService) publish(ctx context.Context, eventType string, conn websocket.Connection, data map[string]interface{}) {
	if data == nil {
		data = make(map[string]interface{})
	}
	data["participant_id"] = conn.ParticipantID()
	data["side"] = string(conn.Side())
	data["conn_id"] = conn.ConnID().String()
	s.publisher.Publish(ctx, events.New(eventType, data))
}

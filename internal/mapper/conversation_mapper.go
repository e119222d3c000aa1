package mapper

import (
	"care-relay-be/internal/dto"
	"care-relay-be/pkg/store"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

func (m *ConversationMapper) ToResponse(c *store.Conversation) *dto.ConversationResponse {
	if c == nil {
		return nil
	}

	history := make([]dto.TurnResponse, len(c.History))
	for i, turn := range c.History {
		history[i] = dto.TurnResponse{
			Role:      string(turn.Role),
			Text:      turn.Text,
			CreatedAt: turn.CreatedAt,
		}
	}

	return &dto.ConversationResponse{
		PatientID: c.PatientID,
		Document:  c.Document,
		History:   history,
		UpdatedAt: c.UpdatedAt,
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"care-relay-be/internal/constant"
	"care-relay-be/internal/pkg/logger"
	"care-relay-be/pkg/llm"
	"care-relay-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrAgentTimeout = errors.New(constant.AgentReasonTimeout)
	ErrEmptyReply   = errors.New(constant.AgentReasonEmptyReply)
)

// IAgentService produces the automated counterpart's next turn.
type IAgentService interface {
	Reply(ctx context.Context, document string, history []store.Turn) (string, error)
}

type AgentSettings struct {
	Timeout       time.Duration
	HistoryWindow int
	Temperature   float64
	MaxTokens     int
}

type agentService struct {
	provider llm.LLMProvider
	settings AgentSettings
	logger   logger.ILogger
	tracer   trace.Tracer
}

func NewAgentService(provider llm.LLMProvider, settings AgentSettings, log logger.ILogger) IAgentService {
	if settings.Timeout <= 0 {
		settings.Timeout = 60 * time.Second
	}
	return &agentService{
		provider: provider,
		settings: settings,
		logger:   log,
		tracer:   otel.Tracer("care-relay-be/agent"),
	}
}

// Reply asks the model for the next assistant turn given the patient's
// document and full conversation so far (latest user turn last).
func (s *agentService) Reply(ctx context.Context, document string, history []store.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.settings.Timeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "AgentService.Reply")
	defer span.End()

	messages := s.buildMessages(document, history)
	span.SetAttributes(
		attribute.Int("agent.history_turns", len(history)),
		attribute.Int("agent.prompt_messages", len(messages)),
		attribute.Bool("agent.has_document", document != ""),
	)

	start := time.Now()
	reply, err := s.provider.Chat(ctx, messages,
		llm.WithTemperature(s.settings.Temperature),
		llm.WithMaxTokens(s.settings.MaxTokens),
	)
	elapsed := time.Since(start)

	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = ErrAgentTimeout
	}
	if err == nil {
		reply = strings.TrimSpace(reply)
		if reply == "" {
			err = ErrEmptyReply
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("AgentService", "Agent call failed", map[string]interface{}{
			"error":       err.Error(),
			"duration_ms": elapsed.Milliseconds(),
		})
		return "", err
	}

	s.logger.Debug("AgentService", "Agent replied", map[string]interface{}{
		"duration_ms":  elapsed.Milliseconds(),
		"reply_length": len(reply),
	})
	return reply, nil
}

func (s *agentService) buildMessages(document string, history []store.Turn) []llm.Message {
	system := constant.AgentSystemPrompt
	if document != "" {
		system = fmt.Sprintf("%s "+constant.AgentDocumentFmt, system, document)
	}

	window := history
	if n := s.settings.HistoryWindow; n > 0 && len(window) > n {
		window = window[len(window)-n:]
	}

	messages := make([]llm.Message, 0, len(window)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, turn := range window {
		role := llm.RoleUser
		if turn.Role == store.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Text})
	}
	return messages
}

package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ArnavJain-cy/sih-app/internal/account"
	"github.com/ArnavJain-cy/sih-app/internal/auth"
)

const (
	MsgEmptyMessage   = "Message is required"
	MsgNotConfigured  = "AI advisor is not configured"
	MsgUpstreamFailed = "AI advisor is unavailable, please try again"

	defaultRecommendation = "General Career Exploration"
)

type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

type Service struct {
	llm     Completer
	history History
	turns   int
	log     *slog.Logger
}

// NewService keeps up to turns prior question/answer pairs per caller.
func NewService(llm Completer, history History, turns int, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{llm: llm, history: history, turns: turns, log: log}
}

// HistoryLimit is the message cap a History should enforce for turns pairs.
func HistoryLimit(turns int) int {
	return turns * 2
}

func SystemPrompt(recommendation string) string {
	return fmt.Sprintf("You are an expert career advisor. The user's quiz result shows they are suited for: %s. Provide helpful career guidance.", orDefault(recommendation))
}

func Welcome(recommendation string) string {
	return fmt.Sprintf(`Hello! I'm your AI Career Advisor. Based on your quiz results showing "%s", I'm here to help you explore career opportunities, provide guidance on skill development, and answer any questions about your career path. How can I assist you today?`, orDefault(recommendation))
}

func (s *Service) Ask(ctx context.Context, id auth.Identity, recommendation, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", account.Validation(MsgEmptyMessage)
	}

	prior, err := s.history.Load(ctx, id.UserID)
	if err != nil {
		// history is best effort, answer without it
		s.log.WarnContext(ctx, "advisor history load failed", "user_id", id.UserID, "err", err)
		prior = nil
	}
	prior = tail(prior, HistoryLimit(s.turns))

	msgs := make([]Message, 0, len(prior)+2)
	msgs = append(msgs, Message{Role: "system", Content: SystemPrompt(recommendation)})
	msgs = append(msgs, prior...)
	user := Message{Role: "user", Content: message}
	msgs = append(msgs, user)

	reply, err := s.llm.Complete(ctx, msgs)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return "", account.Unavailable(MsgNotConfigured, err)
		}
		s.log.ErrorContext(ctx, "advisor completion failed", "user_id", id.UserID, "err", err)
		return "", account.Unavailable(MsgUpstreamFailed, err)
	}

	if err := s.history.Append(ctx, id.UserID, user, Message{Role: "assistant", Content: reply}); err != nil {
		s.log.WarnContext(ctx, "advisor history append failed", "user_id", id.UserID, "err", err)
	}

	return reply, nil
}

func (s *Service) ClearHistory(ctx context.Context, id auth.Identity) error {
	if err := s.history.Clear(ctx, id.UserID); err != nil {
		return account.Internal("Internal server error", err)
	}
	return nil
}

func orDefault(recommendation string) string {
	if r := strings.TrimSpace(recommendation); r != "" {
		return r
	}
	return defaultRecommendation
}

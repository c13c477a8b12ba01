package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"dashboard-backend/internal/logger"
	"dashboard-backend/internal/models"
)

// SystemPrompt is the fixed assistant persona sent ahead of every prompt.
const SystemPrompt = "You are an AI Student Dashboard Assistant. You must answer all questions asked by students clearly and helpfully."

// ChatProvider sends a conversation to a completion API and returns the reply text.
// Failures are reported as *UpstreamError.
type ChatProvider interface {
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
	Name() string
}

type ChatOptions struct {
	ConcurrentReqs int
	Timeout        time.Duration
	QueueTimeout   time.Duration
}

type ChatService struct {
	provider     ChatProvider
	log          *zap.Logger
	timeout      time.Duration
	queueTimeout time.Duration
	rateChan     chan struct{} // Token bucket
}

func NewChatService(provider ChatProvider, opts ChatOptions, log *zap.Logger) *ChatService {
	if opts.ConcurrentReqs <= 0 {
		opts.ConcurrentReqs = 1
	}

	rateChan := make(chan struct{}, opts.ConcurrentReqs)
	for i := 0; i < opts.ConcurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &ChatService{
		provider:     provider,
		log:          log,
		timeout:      opts.Timeout,
		queueTimeout: opts.QueueTimeout,
		rateChan:     rateChan,
	}
}

// BuildConversation returns the system persona followed by the user's prompt.
func BuildConversation(prompt string) []models.ChatMessage {
	return []models.ChatMessage{
		{Role: models.RoleSystem, Content: SystemPrompt},
		{Role: models.RoleUser, Content: prompt},
	}
}

// Reply relays prompt to the provider and returns the first completion's text.
func (s *ChatService) Reply(ctx context.Context, prompt string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := logger.FromContext(ctx, s.log).With(zap.String("provider", s.provider.Name()))

	start := time.Now()
	reply, err := s.provider.Complete(ctx, BuildConversation(prompt))
	if err != nil {
		fields := []zap.Field{zap.Error(err), zap.Duration("elapsed", time.Since(start))}
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			fields = append(fields, zap.String("kind", string(upstream.Kind)), zap.Int("upstream_status", upstream.StatusCode))
		}
		log.Warn("chat completion failed", fields...)
		return "", err
	}

	log.Debug("chat completion", zap.Duration("elapsed", time.Since(start)), zap.Int("reply_len", len(reply)))
	return reply, nil
}

// acquireRate blocks until a rate slot is available
func (s *ChatService) acquireRate(ctx context.Context) error {
	var wait <-chan time.Time
	if s.queueTimeout > 0 {
		timer := time.NewTimer(s.queueTimeout)
		defer timer.Stop()
		wait = timer.C
	}

	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ErrChatBusy
	case <-wait:
		return ErrChatBusy
	}
}

func (s *ChatService) releaseRate() {
	s.rateChan <- struct{}{}
}

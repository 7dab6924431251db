package mail

import (
	"context"
	"fmt"
)

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Limiter blocks until the next operation is allowed.
type Limiter interface {
	Wait(ctx context.Context) error
}

// ThrottledSender delays deliveries so that next never exceeds the limiter's rate.
type ThrottledSender struct {
	next    Sender
	limiter Limiter
}

// NewThrottledSender wraps next with limiter.
func NewThrottledSender(next Sender, limiter Limiter) *ThrottledSender {
	return &ThrottledSender{next: next, limiter: limiter}
}

func (s *ThrottledSender) Send(ctx context.Context, msg Message) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail to %s not sent: %w", msg.To, err)
	}
	return s.next.Send(ctx, msg)
}

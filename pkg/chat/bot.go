package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"GoChat/pkg/client"
	"GoChat/pkg/conversation"
	"GoChat/pkg/logger"
	"GoChat/pkg/types"
)

const (
	DefaultRetries    = 3
	DefaultRetryDelay = time.Second
)

// ErrRetriesExhausted is matched by every *ExhaustedError
var ErrRetriesExhausted = errors.New("retries exhausted")

// ExhaustedError reports that every attempt of an exchange failed
type ExhaustedError struct {
	Retries  int
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d retries with error: %v", e.Retries, e.Err)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrRetriesExhausted, e.Err}
}

// Bot keeps a conversation with a completion endpoint, retrying failed
// requests a fixed number of times with a fixed pause between them.
type Bot struct {
	completer  client.Completer
	store      *conversation.Store
	retries    int
	retryDelay time.Duration
	log        *logger.Logger
	sleep      func(context.Context, time.Duration) error
}

// Option configures a Bot
type Option func(*Bot)

// WithRetries sets how many times a failed request is retried
func WithRetries(n int) Option {
	return func(b *Bot) {
		if n >= 0 {
			b.retries = n
		}
	}
}

// WithRetryDelay sets the pause between attempts
func WithRetryDelay(d time.Duration) Option {
	return func(b *Bot) {
		if d >= 0 {
			b.retryDelay = d
		}
	}
}

// WithLogger sets the logger used for retry diagnostics
func WithLogger(l *logger.Logger) Option {
	return func(b *Bot) {
		if l != nil {
			b.log = l
		}
	}
}

// WithStore makes the bot append to an existing store
func WithStore(s *conversation.Store) Option {
	return func(b *Bot) {
		if s != nil {
			b.store = s
		}
	}
}

// New creates a bot with an empty conversation
func New(c client.Completer, opts ...Option) *Bot {
	b := &Bot{
		completer:  c,
		store:      conversation.New(),
		retries:    DefaultRetries,
		retryDelay: DefaultRetryDelay,
		log:        logger.Discard(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Store returns the conversation the bot appends to
func (b *Bot) Store() *conversation.Store {
	return b.store
}

// Retries returns the configured retry count
func (b *Bot) Retries() int {
	return b.retries
}

// AddInstruction records a system instruction. No request is made; it is
// sent along with the next message.
func (b *Bot) AddInstruction(content string) {
	b.store.Append(types.RoleSystem, content)
}

// SendWithRetry appends the message and requests a completion, making at
// most retries+1 attempts. On success the response is recorded and its
// first choice, if any, is appended as the assistant reply.
//
// When every attempt fails the appended message is removed again and an
// *ExhaustedError is returned.
func (b *Bot) SendWithRetry(ctx context.Context, role, content string) error {
	mark := b.store.Len()
	b.store.Append(role, content)

	var lastErr error
	for attempt := 0; attempt <= b.retries; attempt++ {
		if attempt > 0 {
			if err := b.sleep(ctx, b.retryDelay); err != nil {
				b.store.Truncate(mark)
				return err
			}
		}

		resp, err := b.completer.Complete(ctx, b.store.Messages())
		if err == nil {
			b.record(resp)
			return nil
		}

		lastErr = err
		if attempt < b.retries {
			b.log.Warn("attempt %d/%d failed: %v", attempt+1, b.retries+1, err)
		}
	}

	b.store.Truncate(mark)
	return &ExhaustedError{
		Retries:  b.retries,
		Attempts: b.retries + 1,
		Err:      lastErr,
	}
}

func (b *Bot) record(resp *types.ChatResponse) {
	if resp == nil {
		resp = &types.ChatResponse{}
	}
	if reply, ok := resp.Content(); ok {
		b.store.Append(types.RoleAssistant, reply)
	} else {
		b.log.Warn("response carried no choices")
	}
	b.store.AppendResponse(resp)
	b.log.Tokens(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
}

// Reply returns the assistant content of the latest response. ok is false
// when nothing was received yet or the latest response had no choices.
func (b *Bot) Reply() (reply string, ok bool) {
	resp, found := b.store.LastResponse()
	if !found {
		return "", false
	}
	return resp.Content()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"GoChat/pkg/chat"
	"GoChat/pkg/client"
	"GoChat/pkg/types"
)

type mockCompleter struct {
	resp  *types.ChatResponse
	err   error
	calls int
}

func (m *mockCompleter) Complete(ctx context.Context, messages []types.Message) (*types.ChatResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func replying(content string) *mockCompleter {
	return &mockCompleter{resp: &types.ChatResponse{
		Choices: []types.Choice{{Message: types.NewMessage(types.RoleAssistant, content)}},
	}}
}

func newLoop(c client.Completer, input string, opts ...chat.Option) (*Loop, *bytes.Buffer, *bytes.Buffer) {
	var prompts, out bytes.Buffer
	return &Loop{
		Bot:    chat.New(c, opts...),
		In:     strings.NewReader(input),
		Prompt: &prompts,
		Out:    &out,
	}, &prompts, &out
}

func TestRunSingleExchange(t *testing.T) {
	mock := replying("Hi there")
	loop, prompts, out := newLoop(mock, "\nHello\nexit\n")

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if out.String() != "Hi there\n" {
		t.Errorf("output = %q, want %q", out.String(), "Hi there\n")
	}

	msgs := loop.Bot.Store().Messages()
	if len(msgs) != 2 {
		t.Fatalf("store = %+v, want 2 messages", msgs)
	}
	if msgs[0].RoleName() != types.RoleUser || msgs[0].Content != "Hello" {
		t.Errorf("first message = %s:%q", msgs[0].RoleName(), msgs[0].Content)
	}
	if msgs[1].RoleName() != types.RoleAssistant || msgs[1].Content != "Hi there" {
		t.Errorf("second message = %s:%q", msgs[1].RoleName(), msgs[1].Content)
	}

	wantPrompts := InstructionPrompt + "\n" + MessagePrompt + MessagePrompt
	if prompts.String() != wantPrompts {
		t.Errorf("prompts = %q, want %q", prompts.String(), wantPrompts)
	}
}

func TestRunSentinels(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCalls int
	}{
		{"q first", "\nq\n", 0},
		{"quit first", "\nquit\n", 0},
		{"exit first", "\nexit\n", 0},
		{"padded sentinel", "\n  exit  \n", 0},
		{"sentinel at instruction prompt", "quit\nHello\n", 0},
		{"after exchanges", "be brief\none\ntwo\nq\nthree\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := replying("ok")
			loop, _, _ := newLoop(mock, tt.input)

			if err := loop.Run(context.Background()); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if mock.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", mock.calls, tt.wantCalls)
			}
		})
	}
}

func TestRunSystemInstruction(t *testing.T) {
	mock := replying("ok")
	loop, _, _ := newLoop(mock, "You are terse.\nHello\nexit\n")

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	msgs := loop.Bot.Store().Messages()
	if len(msgs) != 3 {
		t.Fatalf("store has %d messages, want 3", len(msgs))
	}
	if msgs[0].RoleName() != types.RoleSystem || msgs[0].Content != "You are terse." {
		t.Errorf("first message = %s:%q", msgs[0].RoleName(), msgs[0].Content)
	}
	if mock.calls != 1 {
		t.Errorf("calls = %d, want 1", mock.calls)
	}
}

func TestRunNoChoices(t *testing.T) {
	mock := &mockCompleter{resp: &types.ChatResponse{Choices: []types.Choice{}}}
	loop, _, out := newLoop(mock, "\nHello\nexit\n")

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if out.String() != NoResponse+"\n" {
		t.Errorf("output = %q, want placeholder", out.String())
	}
	if loop.Bot.Store().Len() != 1 {
		t.Errorf("store has %d messages, want only the user message", loop.Bot.Store().Len())
	}
	if last, _ := loop.Bot.Store().Last(); last.RoleName() != types.RoleUser {
		t.Errorf("last message role = %q", last.RoleName())
	}
}

func TestRunSkipsEmptyInput(t *testing.T) {
	mock := replying("ok")
	loop, _, out := newLoop(mock, "\n\n   \nHello\n")

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if mock.calls != 1 {
		t.Errorf("calls = %d, want 1", mock.calls)
	}
	if out.String() != "ok\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunEndOfInput(t *testing.T) {
	mock := replying("ok")
	loop, _, _ := newLoop(mock, "")

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if mock.calls != 0 {
		t.Errorf("calls = %d, want 0", mock.calls)
	}
}

func TestRunRetriesExhausted(t *testing.T) {
	mock := &mockCompleter{err: client.ErrRequestFailed}
	loop, _, out := newLoop(mock, "\nHello\nexit\n", chat.WithRetryDelay(0))

	err := loop.Run(context.Background())
	if !errors.Is(err, chat.ErrRetriesExhausted) {
		t.Fatalf("Run() error = %v, want ErrRetriesExhausted", err)
	}
	if mock.calls != chat.DefaultRetries+1 {
		t.Errorf("calls = %d, want %d", mock.calls, chat.DefaultRetries+1)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want none", out.String())
	}
}

func TestRunCancelledWhileWaitingForInput(t *testing.T) {
	for _, tt := range []struct {
		name  string
		input string
	}{
		{"at instruction prompt", ""},
		{"at message prompt", "\n"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			pr, pw := io.Pipe()
			defer pw.Close()

			mock := replying("ok")
			loop, _, _ := newLoop(mock, "")
			loop.In = pr

			ctx, cancel := context.WithCancel(context.Background())
			errc := make(chan error, 1)
			go func() { errc <- loop.Run(ctx) }()

			if tt.input != "" {
				if _, err := io.WriteString(pw, tt.input); err != nil {
					t.Fatal(err)
				}
			}
			cancel()

			select {
			case err := <-errc:
				if !errors.Is(err, context.Canceled) {
					t.Errorf("Run() error = %v, want context.Canceled", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("Run() still blocked on input after cancellation")
			}
			if mock.calls != 0 {
				t.Errorf("calls = %d, want 0", mock.calls)
			}
		})
	}
}

func TestRunLongLine(t *testing.T) {
	long := strings.Repeat("a", 200*1024)
	mock := replying("ok")
	loop, _, out := newLoop(mock, "\n"+long+"\nexit\n")

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if mock.calls != 1 {
		t.Errorf("calls = %d, want 1", mock.calls)
	}
	if out.String() != "ok\n" {
		t.Errorf("output = %q", out.String())
	}
	if first := loop.Bot.Store().Messages()[0]; first.Content != long {
		t.Errorf("stored message has %d bytes, want %d", len(first.Content), len(long))
	}
}

func TestIsSentinel(t *testing.T) {
	for _, in := range []string{"q", "quit", "exit"} {
		if !IsSentinel(in) {
			t.Errorf("IsSentinel(%q) = false", in)
		}
	}
	for _, in := range []string{"", "Q", "exit now", "bye"} {
		if IsSentinel(in) {
			t.Errorf("IsSentinel(%q) = true", in)
		}
	}
}

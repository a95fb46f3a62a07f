package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"GoChat/pkg/chat"
	"GoChat/pkg/logger"
	"GoChat/pkg/types"
)

const (
	InstructionPrompt = "> Provide a system instruction. Leave blank to skip."
	MessagePrompt     = "> Enter your message: "
	NoResponse        = "(no response)"

	// MaxLineSize bounds a single line of input
	MaxLineSize = 1 << 20
)

// IsSentinel reports whether input ends the session
func IsSentinel(input string) bool {
	switch input {
	case "q", "quit", "exit":
		return true
	}
	return false
}

// Loop is the interactive read-eval-print loop. Prompts are written to
// Prompt and assistant replies to Out.
type Loop struct {
	Bot    *chat.Bot
	In     io.Reader
	Prompt io.Writer
	Out    io.Writer
	// Reply colours printed replies; nil prints them plain.
	Reply *color.Color
	Log   *logger.Logger
}

// Run asks for an optional system instruction, then relays messages until
// a sentinel or end of input. An error is returned when an exchange could
// not be completed or ctx is cancelled, including while waiting for input.
func (l *Loop) Run(ctx context.Context) error {
	log := l.Log
	if log == nil {
		log = logger.Discard()
	}
	done := make(chan struct{})
	defer close(done)
	lines := readLines(l.In, done)

	fmt.Fprintln(l.Prompt, InstructionPrompt)
	instruction, ok, err := lines.next(ctx)
	if !ok || IsSentinel(instruction) {
		return err
	}
	if instruction != "" {
		l.Bot.AddInstruction(instruction)
		log.Debug("system instruction set (%d chars)", len(instruction))
	}

	for {
		fmt.Fprint(l.Prompt, MessagePrompt)
		input, ok, err := lines.next(ctx)
		if !ok {
			return err
		}
		if IsSentinel(input) {
			return nil
		}
		if input == "" {
			continue
		}

		if err := l.Bot.SendWithRetry(ctx, types.RoleUser, input); err != nil {
			return err
		}

		reply, ok := l.Bot.Reply()
		if !ok {
			fmt.Fprintln(l.Out, NoResponse)
			continue
		}
		if l.Reply != nil {
			l.Reply.Fprintln(l.Out, reply)
		} else {
			fmt.Fprintln(l.Out, reply)
		}
	}
}

// lineReader scans input on its own goroutine so a blocked read never
// hides a cancelled context.
type lineReader struct {
	ch  chan string
	err error // valid once ch is closed
}

func readLines(in io.Reader, done <-chan struct{}) *lineReader {
	r := &lineReader{ch: make(chan string)}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	go func() {
		defer close(r.ch)
		for scanner.Scan() {
			select {
			case r.ch <- strings.TrimSpace(scanner.Text()):
			case <-done:
				return
			}
		}
		r.err = scanner.Err()
	}()
	return r
}

// next returns the following trimmed line. ok is false at end of input,
// on a read error or when ctx is done; err is nil only at end of input.
func (r *lineReader) next(ctx context.Context) (string, bool, error) {
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case line, ok := <-r.ch:
		if !ok {
			return "", false, r.err
		}
		return line, true, nil
	}
}

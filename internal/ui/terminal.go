// Package ui provides a minimal, undecorated terminal implementation of
// the client's UI collaborator interface (internal/client.UI), grounded
// on client/ClientUI.py's five methods: alert, ask_for, display_text,
// draw, exit.
package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Terminal is a bufio.Scanner-driven UI: prompts and alerts are printed
// to out, chat lines submitted on in are forwarded to the registered
// message_submit callback.
type Terminal struct {
	in  *bufio.Scanner
	out io.Writer

	mu     sync.Mutex
	submit func(string)
}

// New builds a Terminal reading from in and writing to out.
func New(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewScanner(in), out: out}
}

func (t *Terminal) Alert(title, text string) {
	fmt.Fprintf(t.out, "[%s] %s\n", title, text)
}

func (t *Terminal) AskFor(title, prompt, def string) (string, error) {
	fmt.Fprintf(t.out, "[%s] %s", title, prompt)
	if !t.in.Scan() {
		if err := t.in.Err(); err != nil {
			return "", err
		}
		return def, io.EOF
	}
	answer := strings.TrimSpace(t.in.Text())
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

func (t *Terminal) DisplayText(text string) {
	fmt.Fprintln(t.out, text)
}

// Draw reads chat lines from in until ctx is cancelled or the input
// stream ends, dispatching each non-empty line to the message_submit
// callback.
func (t *Terminal) Draw(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for t.in.Scan() {
			lines <- t.in.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return t.in.Err()
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			t.mu.Lock()
			cb := t.submit
			t.mu.Unlock()
			if cb != nil {
				cb(line)
			}
		}
	}
}

func (t *Terminal) Exit(err error) {
	if err != nil {
		fmt.Fprintf(t.out, "Goodbye. (error: %v)\n", err)
		return
	}
	fmt.Fprintln(t.out, "Goodbye.")
}

func (t *Terminal) OnMessageSubmit(cb func(text string)) {
	t.mu.Lock()
	t.submit = cb
	t.mu.Unlock()
}

// Package chatbot bridges questions to the external assistant process. The
// process receives the question as its last argument and answers on stdout
// with CHATBOT_RESPONSE: or CHATBOT_ERROR: lines.
package chatbot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	DefaultTimeout = 5 * time.Second

	responsePrefix = "CHATBOT_RESPONSE:"
	errorPrefix    = "CHATBOT_ERROR:"
)

var (
	ErrEmptyQuestion   = errors.New("Please enter your question")
	ErrBridge          = errors.New("chatbot reported an error")
	ErrInvalidResponse = errors.New("chatbot response has no recognizable answer")
	ErrUnavailable     = errors.New("chatbot process could not be started")
)

// Bridge runs one process per question.
type Bridge struct {
	Command string
	Args    []string
	Dir     string
	// Env is appended to the current environment.
	Env     []string
	Timeout time.Duration
}

// Ask runs the bridge process and returns its answer. The exit status is
// ignored; only stdout decides the outcome.
func (b *Bridge) Ask(ctx context.Context, question string) (string, error) {
	question = flatten(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, b.Args...), question)
	cmd := exec.CommandContext(ctx, b.Command, args...)
	cmd.Dir = b.Dir
	if len(b.Env) > 0 {
		cmd.Env = append(os.Environ(), b.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	waitErr := cmd.Wait()

	if stderr.Len() > 0 {
		slog.WarnContext(ctx, "Chatbot stderr", "output", strings.TrimSpace(stderr.String()))
	}
	if waitErr != nil {
		slog.DebugContext(ctx, "Chatbot process exited", "error", waitErr)
	}

	answer, err := ParseOutput(stdout.String())
	if err != nil && ctx.Err() != nil {
		return "", fmt.Errorf("%w (%v)", err, ctx.Err())
	}
	return answer, err
}

// flatten turns a multi-line question into a single argument line.
func flatten(q string) string {
	q = strings.ReplaceAll(q, "\r\n", " ")
	q = strings.ReplaceAll(q, "\n", " ")
	return strings.TrimSpace(q)
}

// ParseOutput extracts the answer from the process output. The answer is the
// first CHATBOT_RESPONSE: line and every line after it, prefixes stripped,
// joined by newlines. Without one, a CHATBOT_ERROR: line yields ErrBridge
// carrying its message, and anything else yields ErrInvalidResponse.
func ParseOutput(out string) (string, error) {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	for i, line := range lines {
		if !strings.HasPrefix(line, responsePrefix) {
			continue
		}
		answer := make([]string, 0, len(lines)-i)
		for _, l := range lines[i:] {
			if strings.HasPrefix(l, responsePrefix) {
				l = strings.TrimLeft(strings.TrimPrefix(l, responsePrefix), " \t")
			}
			answer = append(answer, l)
		}
		return strings.TrimSpace(strings.Join(answer, "\n")), nil
	}

	for _, line := range lines {
		if strings.HasPrefix(line, errorPrefix) {
			msg := strings.TrimSpace(strings.TrimPrefix(line, errorPrefix))
			return "", fmt.Errorf("%w: %s", ErrBridge, msg)
		}
	}
	return "", ErrInvalidResponse
}

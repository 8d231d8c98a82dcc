package gorelease

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/bcomnes/gorelease/internal/errors"
)

// TerminalPrompt asks questions on Out and reads line answers from In. A single goroutine reads
// In; an answer typed after a canceled question goes to the next one. Close stops it.
type TerminalPrompt struct {
	Out    io.Writer
	reader *bufio.Reader

	lines chan lineResult
	quit  chan struct{}
	start sync.Once
	stop  sync.Once
	err   error
}

// NewTerminalPrompt returns a prompt reading from in and writing to out.
func NewTerminalPrompt(in io.Reader, out io.Writer) *TerminalPrompt {
	return &TerminalPrompt{
		Out:    out,
		reader: bufio.NewReader(in),
		lines:  make(chan lineResult),
		quit:   make(chan struct{}),
	}
}

type lineResult struct {
	text string
	err  error
}

func (p *TerminalPrompt) readLines() {
	for {
		text, err := p.reader.ReadString('\n')
		if err == io.EOF && text != "" {
			err = nil
		}

		select {
		case p.lines <- lineResult{strings.TrimSpace(text), err}:
		case <-p.quit:
			return
		}

		if err != nil {
			return
		}
	}
}

// Close releases the reader goroutine. A read already blocked on In ends with the input.
func (p *TerminalPrompt) Close() error {
	p.stop.Do(func() { close(p.quit) })

	return nil
}

// readLine prints the question and waits for one line, giving up when ctx is done.
func (p *TerminalPrompt) readLine(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if p.err != nil {
		return "", p.err
	}

	p.start.Do(func() { go p.readLines() })

	fmt.Fprint(p.Out, question)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-p.quit:
		return "", errors.Errorf("prompt is closed")
	case res := <-p.lines:
		if res.err != nil {
			p.err = errors.WithStackTrace(res.err)

			return "", p.err
		}

		return res.text, nil
	}
}

// Confirm asks a yes/no question. Only "y" and "yes" confirm.
func (p *TerminalPrompt) Confirm(ctx context.Context, message string) (bool, error) {
	resp, err := p.readLine(ctx, message+" (y/n) ")
	if err != nil {
		return false, err
	}

	switch strings.ToLower(resp) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Input asks for free text. An empty answer yields def.
func (p *TerminalPrompt) Input(ctx context.Context, message, def string) (string, error) {
	question := message + " "
	if def != "" {
		question = fmt.Sprintf("%s (%s) ", message, def)
	}

	resp, err := p.readLine(ctx, question)
	if err != nil {
		return "", err
	}

	if resp == "" {
		return def, nil
	}

	return resp, nil
}

// List prints numbered choices and accepts either the number or the choice itself. Invalid
// answers ask again.
func (p *TerminalPrompt) List(ctx context.Context, message string, choices []string) (string, error) {
	if len(choices) == 0 {
		return "", errors.Errorf("no choices given for %q", message)
	}

	fmt.Fprintln(p.Out, message)

	for i, choice := range choices {
		fmt.Fprintf(p.Out, "  %d) %s\n", i+1, choice)
	}

	for {
		resp, err := p.readLine(ctx, "> ")
		if err != nil {
			return "", err
		}

		if n, err := strconv.Atoi(resp); err == nil && n >= 1 && n <= len(choices) {
			return choices[n-1], nil
		}

		if i := slices.IndexFunc(choices, func(c string) bool { return strings.EqualFold(c, resp) }); i >= 0 {
			return choices[i], nil
		}

		fmt.Fprintf(p.Out, "Please answer with a number between 1 and %d.\n", len(choices))
	}
}

// AutoPrompt answers every question without user input: confirmations are accepted, lists
// pick their first choice and inputs take their default.
type AutoPrompt struct{}

func (AutoPrompt) Confirm(ctx context.Context, _ string) (bool, error) {
	return true, ctx.Err()
}

func (AutoPrompt) Input(ctx context.Context, _, def string) (string, error) {
	return def, ctx.Err()
}

func (AutoPrompt) List(ctx context.Context, message string, choices []string) (string, error) {
	if len(choices) == 0 {
		return "", errors.Errorf("no choices given for %q", message)
	}

	return choices[0], ctx.Err()
}

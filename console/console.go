// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package console runs the interactive question/answer loop.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/poiesic/chatter"
	"github.com/poiesic/chatter/config"
	"github.com/poiesic/chatter/core"
	"github.com/poiesic/chatter/search"
)

// Sentinel inputs, compared case-insensitively after trimming.
const (
	ExitCommand    = "exit"
	VerboseCommand = "verbose"
)

const (
	banner = "Chatbot is ready! Type 'exit' to quit."
	prompt = "You: "
	prefix = "Bot: "
)

// Asker answers queries. *chatter.Bot implements it.
type Asker interface {
	AskWithMonitor(ctx context.Context, query string, monitor search.ScoreMonitor) (*chatter.Reply, error)
}

// Console reads questions line by line and writes answers.
type Console struct {
	asker    Asker
	in       io.Reader
	out      io.Writer
	fallback string
	verbose  bool
	logger   *slog.Logger
}

// Option configures a Console.
type Option func(*Console)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// WithFallbackMessage sets the reply printed when a query fails.
func WithFallbackMessage(msg string) Option {
	return func(c *Console) {
		c.fallback = msg
	}
}

// WithVerbose starts the console with per-candidate scores enabled.
func WithVerbose(verbose bool) Option {
	return func(c *Console) {
		c.verbose = verbose
	}
}

// New creates a console reading from in and writing to out.
func New(asker Asker, in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		asker:    asker,
		in:       in,
		out:      out,
		fallback: config.DefaultFallbackMessage,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run loops until the exit sentinel, end of input or ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, banner)
	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case ExitCommand:
			c.say("Goodbye!")
			return nil
		case VerboseCommand:
			c.verbose = !c.verbose
			c.say("Verbose mode toggled.")
			continue
		}

		if err := c.answer(ctx, input); err != nil {
			return err
		}
	}
}

func (c *Console) answer(ctx context.Context, input string) error {
	var monitor search.ScoreMonitor
	if c.verbose {
		monitor = &scoreWriter{out: c.out}
	}

	reply, err := c.asker.AskWithMonitor(ctx, input, monitor)
	switch {
	case errors.Is(err, chatter.ErrNotTrained), errors.Is(err, context.Canceled):
		return err
	case err != nil:
		c.logger.Warn("query failed", "query", input, "err", err)
		c.say(c.fallback)
		return nil
	}
	c.say(reply.Text)
	return nil
}

func (c *Console) say(msg string) {
	fmt.Fprintln(c.out, prefix+msg)
}

// scoreWriter prints every scored candidate.
type scoreWriter struct {
	out io.Writer
}

var _ search.ScoreMonitor = (*scoreWriter)(nil)

func (w *scoreWriter) Start(string)                 {}
func (w *scoreWriter) AfterExpansion([]core.WordID) {}
func (w *scoreWriter) Finish(*search.Result)        {}

func (w *scoreWriter) Candidate(_ int, question []core.WordID, score float64) {
	fmt.Fprintf(w.out, "Question: %s Score: %s\n", FormatTuple(question), FormatScore(score))
}

// FormatTuple formats word IDs as "(1, 2, 3)". A single ID keeps its
// trailing comma, "(3,)".
func FormatTuple(ids []core.WordID) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, id := range ids {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	if len(ids) == 1 {
		sb.WriteByte(',')
	}
	sb.WriteByte(')')
	return sb.String()
}

// FormatScore formats a score in shortest form, always with a fractional
// part or exponent: 1 prints as "1.0".
func FormatScore(score float64) string {
	s := strconv.FormatFloat(score, 'g', -1, 64)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}
	return s + ".0"
}

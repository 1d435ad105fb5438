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


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/poiesic/chatter"
	"github.com/poiesic/chatter/batch"
	"github.com/poiesic/chatter/config"
	"github.com/poiesic/chatter/console"
	"github.com/poiesic/chatter/metrics"
	"github.com/poiesic/chatter/server"
	"github.com/poiesic/chatter/training"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const configKey = "config"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "chatter",
		Usage: "Closed-domain question answering over a trained knowledge base",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB snapshot store directory",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Set logging format (text, json)",
				Value: "text",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "train",
				Usage:  "Train a snapshot from a question/answer corpus and store it",
				Action: trainCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "corpus",
						Usage: "Path to corpus file (YAML or JSON mapping of question to answer)",
					},
					&cli.StringFlag{
						Name:  "overrides",
						Usage: "Path to weight override file",
					},
					&cli.UintFlag{
						Name:  "scale",
						Usage: "Weight scale factor",
						Value: uint(config.DefaultScale),
					},
				},
			},
			{
				Name:   "chat",
				Usage:  "Start an interactive session",
				Action: chatCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "Print every candidate's score",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a single question",
				ArgsUsage: "<question>",
				Action:    askCommand,
			},
			{
				Name:   "batch",
				Usage:  "Answer one question per input line",
				Action: batchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Input file, - for stdin",
						Value:   "-",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent workers (0 = one per CPU)",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N questions",
						Value: config.DefaultReportInterval,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve answers over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: config.DefaultServerAddr,
					},
					&cli.BoolFlag{
						Name:  "metrics",
						Usage: "Expose Prometheus metrics",
					},
				},
			},
			{
				Name:   "inspect",
				Usage:  "Describe the stored snapshot",
				Action: inspectCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "scores",
						Usage: "Print the word weight table in override file format",
					},
				},
			},
		},
	}
}

// setup loads configuration, applies global flags and installs the default logger.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("db") {
		cfg.Storage.Path = c.String("db")
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Logging.Format = c.String("log-format")
	}

	logger, err := newLogger(c.App.ErrWriter, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func newLogger(w io.Writer, levelStr, format string) (*slog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: must be one of text, json", format)
	}
}

func configFrom(c *cli.Context) *config.Config {
	cfg, _ := c.App.Metadata[configKey].(*config.Config)
	return cfg
}

func openBot(c *cli.Context, opts ...chatter.Option) (*chatter.Bot, error) {
	bot, err := chatter.Open(c.Context, configFrom(c), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	return bot, nil
}

func openTrainedBot(c *cli.Context, opts ...chatter.Option) (*chatter.Bot, error) {
	bot, err := openBot(c, opts...)
	if err != nil {
		return nil, err
	}
	if !bot.Trained() {
		bot.Close()
		return nil, fmt.Errorf("%w: run 'chatter train' first", chatter.ErrNotTrained)
	}
	return bot, nil
}

func trainCommand(c *cli.Context) error {
	cfg := configFrom(c)
	if c.IsSet("corpus") {
		cfg.Training.CorpusPath = c.String("corpus")
	}
	if c.IsSet("overrides") {
		cfg.Training.OverridesPath = c.String("overrides")
	}
	if c.IsSet("scale") {
		cfg.Training.Scale = uint32(c.Uint("scale"))
	}
	if cfg.Training.CorpusPath == "" {
		return fmt.Errorf("corpus path is required")
	}

	bot, err := openBot(c)
	if err != nil {
		return err
	}
	defer bot.Close()

	snapshot, err := bot.TrainFromConfig(c.Context)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Trained %d entries, %d words, %d weights (fingerprint %016x)\n",
		snapshot.Meta.Entries, snapshot.Meta.Vocabulary, snapshot.Meta.Weights, uint64(snapshot.Meta.Fingerprint))
	return nil
}

func chatCommand(c *cli.Context) error {
	bot, err := openTrainedBot(c)
	if err != nil {
		return err
	}
	defer bot.Close()

	reader := c.App.Reader
	if reader == nil {
		reader = os.Stdin
	}
	con := console.New(bot, reader, c.App.Writer,
		console.WithVerbose(c.Bool("verbose")),
		console.WithFallbackMessage(bot.Config().Matcher.FallbackMessage),
	)
	return con.Run(c.Context)
}

func askCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a question is required")
	}
	bot, err := openTrainedBot(c)
	if err != nil {
		return err
	}
	defer bot.Close()

	reply, err := bot.Ask(c.Context, strings.Join(c.Args().Slice(), " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, reply.Text)
	return nil
}

func batchCommand(c *cli.Context) error {
	cfg := configFrom(c)
	if c.IsSet("workers") {
		cfg.Batch.Workers = c.Int("workers")
	}
	if c.IsSet("report-interval") {
		cfg.Batch.ReportInterval = c.Int("report-interval")
	}
	if cfg.Batch.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	var in io.Reader = c.App.Reader
	if path := c.String("input"); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}
	if in == nil {
		in = os.Stdin
	}

	bot, err := openTrainedBot(c)
	if err != nil {
		return err
	}
	defer bot.Close()

	opts := []batch.Option{
		batch.WithProgress(c.App.ErrWriter, cfg.Batch.ReportInterval),
		batch.WithFallbackMessage(cfg.Matcher.FallbackMessage),
	}
	if cfg.Batch.Workers > 0 {
		opts = append(opts, batch.WithPoolSize(cfg.Batch.Workers))
	}
	answerer, err := batch.NewAnswerer(bot, opts...)
	if err != nil {
		return err
	}
	defer answerer.Release()

	return answerer.Process(c.Context, in, c.App.Writer)
}

func serveCommand(c *cli.Context) error {
	cfg := configFrom(c)
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}
	if c.IsSet("metrics") {
		cfg.Metrics.Enabled = c.Bool("metrics")
	}

	var m *metrics.Metrics
	var opts []chatter.Option
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
		opts = append(opts, chatter.WithMetrics(m))
	}

	bot, err := openBot(c, opts...)
	if err != nil {
		return err
	}
	defer bot.Close()
	if !bot.Trained() {
		slog.Warn("serving an untrained bot, /ask will return 503 until trained")
	}

	g, ctx := errgroup.WithContext(c.Context)
	g.Go(func() error {
		return server.ListenAndServe(ctx, cfg.Server.Addr, server.NewMux(bot, m, nil), nil)
	})
	if m != nil && cfg.Metrics.Addr != "" && cfg.Metrics.Addr != cfg.Server.Addr {
		g.Go(func() error {
			return m.Serve(ctx, cfg.Metrics.Addr, nil)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func inspectCommand(c *cli.Context) error {
	bot, err := openTrainedBot(c)
	if err != nil {
		return err
	}
	defer bot.Close()

	snapshot := bot.Snapshot()
	if c.Bool("scores") {
		return training.WriteScores(c.App.Writer, training.ScoresFromSnapshot(snapshot))
	}

	meta := snapshot.Meta
	w := c.App.Writer
	fmt.Fprintf(w, "Store:       %s\n", bot.Config().Storage.Path)
	fmt.Fprintf(w, "Fingerprint: %016x\n", uint64(meta.Fingerprint))
	fmt.Fprintf(w, "Trained at:  %s\n", meta.TrainedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Scale:       %d\n", meta.Scale)
	fmt.Fprintf(w, "Vocabulary:  %d\n", meta.Vocabulary)
	fmt.Fprintf(w, "Weights:     %d\n", meta.Weights)
	fmt.Fprintf(w, "Entries:     %d\n", meta.Entries)
	return nil
}

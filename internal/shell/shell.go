// Package shell provides the interactive REPL for dynlab.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"

	"github.com/san-kum/dynlab/internal/dynamo"
	"github.com/san-kum/dynlab/internal/render"
)

// Shell is the interactive command-line interface.
type Shell struct {
	session *Session
	rl      *readline.Instance
	logger  *log.Logger
}

// Config holds shell configuration.
type Config struct {
	HistoryFile string
	Prompt      string
	Seed        int64
}

func New(cfg Config, style render.Style, logger *log.Logger) (*Shell, error) {
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = "dynlab> "
	}
	if logger == nil {
		logger = log.Default()
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          lipgloss.NewStyle().Foreground(style.Theme.Primary).Bold(true).Render(prompt),
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    NewCompleter(),
	})
	if err != nil {
		return nil, err
	}

	return &Shell{
		session: NewSession(rl.Stdout(), style, cfg.Seed),
		rl:      rl,
		logger:  logger.WithPrefix("shell"),
	}, nil
}

// Run reads lines until :quit, EOF or cancellation.
func (s *Shell) Run(ctx context.Context) error {
	defer s.rl.Close()

	out := s.rl.Stdout()
	fmt.Fprintln(out, "Enter dx/dt = ... and dy/dt = ..., or a :command. :help lists them.")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if err := s.session.Exec(line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			s.logger.Debug("command failed", "line", line, "err", err)
			printError(out, err)
		}
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	var de *dynamo.Error
	if errors.As(err, &de) {
		for _, s := range de.Suggestions {
			fmt.Fprintf(w, "  hint: %s\n", s)
		}
	}
}

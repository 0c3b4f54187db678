package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"golang.org/x/sync/errgroup"

	"ems/internal/cli"
	"ems/internal/session"
	"ems/pkg/logging"
)

// Runner executes one command given its arguments, e.g. ["departments", "list"].
type Runner func(ctx context.Context, args []string) error

// errExit ends the read loop.
var errExit = errors.New("exit")

// authAliases lets the auth subcommands be typed without the group name.
var authAliases = map[string]bool{
	"login":  true,
	"logout": true,
	"status": true,
	"whoami": true,
}

// Shell is the interactive ems shell.
type Shell struct {
	mu          sync.RWMutex
	watcher     *session.Watcher
	run         Runner
	out         io.Writer
	historyFile string
	status      session.Status
	rl          *readline.Instance
}

// Option configures a Shell.
type Option func(*Shell)

// WithOutput sets where shell messages are written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Shell) {
		s.out = w
	}
}

// WithHistoryFile sets the readline history file.
func WithHistoryFile(path string) Option {
	return func(s *Shell) {
		s.historyFile = path
	}
}

// New creates a Shell whose prompt follows watcher and whose commands are
// executed by run.
func New(watcher *session.Watcher, run Runner, opts ...Option) *Shell {
	s := &Shell{
		watcher:     watcher,
		run:         run,
		out:         os.Stdout,
		historyFile: filepath.Join(os.TempDir(), ".ems_shell_history"),
		status:      watcher.Current(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prompt returns the prompt for the current authentication state.
func (s *Shell) Prompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BuildPrompt(s.status)
}

// Run starts the watcher and reads commands until exit, Ctrl+D or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:              s.Prompt(),
		HistoryFile:         s.historyFile,
		AutoComplete:        newCompleter(),
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	s.mu.Lock()
	s.rl = rl
	s.mu.Unlock()

	statuses, unsubscribe := s.watcher.Subscribe()
	defer unsubscribe()
	if err := s.watcher.Start(ctx); err != nil {
		return err
	}
	defer s.watcher.Stop()
	s.setStatus(s.watcher.Current())

	fmt.Fprintln(s.out, "ems shell. Type 'help' for available commands, 'exit' to leave. Use TAB for completion.")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.followStatus(gctx, statuses)
		return nil
	})
	g.Go(func() error {
		// Unblocks Readline when the context ends.
		<-gctx.Done()
		_ = rl.Close()
		return nil
	})
	g.Go(func() error {
		return s.readLoop(gctx)
	})

	err = g.Wait()
	if errors.Is(err, errExit) {
		fmt.Fprintln(s.out, "Goodbye!")
		return nil
	}
	return err
}

func (s *Shell) readLoop(ctx context.Context) error {
	for {
		line, err := s.rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			continue
		case errors.Is(err, io.EOF):
			return errExit
		case err != nil:
			if ctx.Err() != nil {
				return errExit
			}
			return fmt.Errorf("readline error: %w", err)
		}

		if err := s.Execute(ctx, line); err != nil {
			if errors.Is(err, errExit) {
				return errExit
			}
			s.report(err)
		}
	}
}

// report prints a failed command's error. Session problems get a hint
// pointing at the shell's own login alias.
func (s *Shell) report(err error) {
	fmt.Fprintln(s.out, cli.FormatError(err))
	if cli.IsAuthError(err) {
		fmt.Fprintln(s.out, "Type 'login' to sign in.")
	}
}

// Execute runs one input line.
func (s *Shell) Execute(ctx context.Context, line string) error {
	args, err := SplitArgs(strings.TrimSpace(line))
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	switch name := strings.ToLower(args[0]); {
	case name == "exit" || name == "quit":
		return errExit
	case name == "help" || name == "?":
		args = append([]string{"--help"}, args[1:]...)
	case name == "shell":
		return errors.New("already in the ems shell")
	case authAliases[name]:
		args[0] = name
		args = append([]string{"auth"}, args...)
	}

	err = s.run(ctx, args)
	// Expiry is only noticed by re-evaluating.
	s.watcher.Check()
	return err
}

func (s *Shell) followStatus(ctx context.Context, statuses <-chan session.Status) {
	for {
		select {
		case <-ctx.Done():
			return
		case status, ok := <-statuses:
			if !ok {
				return
			}
			s.setStatus(status)
		}
	}
}

func (s *Shell) setStatus(status session.Status) {
	s.mu.Lock()
	previous := s.status
	s.status = status
	rl := s.rl
	s.mu.Unlock()

	if previous.Authenticated && !status.Authenticated {
		logging.Debug("Shell", "Session ended")
		if rl != nil {
			fmt.Fprintf(rl.Stdout(), "\r\033[K%s\n", cli.FormatWarning("Your session has ended. Type 'login' to sign in again."))
		}
	}
	if rl != nil {
		rl.SetPrompt(BuildPrompt(status))
		rl.Refresh()
	}
}

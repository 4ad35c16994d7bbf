package admincli

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"amfcore/pkg/logging"
)

// CommandFunc executes one parsed REPL command line (already split on
// whitespace, args[0] is the verb) and writes its output to out.
type CommandFunc func(out io.Writer, args []string) error

// REPL is the amfadm interactive shell: history/completion via readline,
// log lines fed through pkg/logging's InitForREPL channel so they never
// interleave with an in-progress prompt redraw, matching the teacher's
// agent.REPL split between command execution and background log draining.
type REPL struct {
	rl       *readline.Instance
	commands map[string]CommandFunc
	logCh    <-chan logging.LogEntry
	stop     chan struct{}
}

// NewREPL builds a REPL reading from historyPath and draining logCh (as
// returned by logging.InitForREPL) in the background.
func NewREPL(historyPath string, logCh <-chan logging.LogEntry) (*REPL, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "amfadm> ",
		HistoryFile:     historyPath,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("admincli: building readline instance: %w", err)
	}
	return &REPL{
		rl:       rl,
		commands: make(map[string]CommandFunc),
		logCh:    logCh,
		stop:     make(chan struct{}),
	}, nil
}

// Register binds verb to fn. Re-registering a verb replaces the handler.
func (r *REPL) Register(verb string, fn CommandFunc) {
	r.commands[verb] = fn
}

// drainLogs prints log lines to the REPL's stdout without corrupting the
// current prompt line, using readline's own line-clean/redraw primitives.
func (r *REPL) drainLogs() {
	for {
		select {
		case entry, ok := <-r.logCh:
			if !ok {
				return
			}
			r.rl.Clean()
			fmt.Fprintf(r.rl.Stdout(), "[%s] %s: %s\n", entry.Level, entry.Subsystem, entry.Message)
			r.rl.Refresh()
		case <-r.stop:
			return
		}
	}
}

// Run reads lines until EOF/quit, dispatching each to its registered
// command. Unknown verbs and command errors are printed, not fatal.
func (r *REPL) Run() error {
	if r.logCh != nil {
		go r.drainLogs()
	}
	defer close(r.stop)
	defer r.rl.Close()

	for {
		line, err := r.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		verb, args := fields[0], fields[1:]

		if verb == "exit" || verb == "quit" {
			return nil
		}

		fn, ok := r.commands[verb]
		if !ok {
			fmt.Fprintf(r.rl.Stdout(), "unknown command %q\n", verb)
			continue
		}
		if err := fn(r.rl.Stdout(), args); err != nil {
			fmt.Fprintf(r.rl.Stdout(), "error: %v\n", err)
		}
	}
}

// Package repl provides an interactive REPL for browsing a pathway-core event
// store.
package repl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pathwaylearn/pathway-core/eventstore"
	"github.com/pathwaylearn/pathway-core/pwlog"
	"github.com/pathwaylearn/pathway-core/session"
)

// REPL is the interactive command loop over an event store.
type REPL struct {
	store      eventstore.Store
	log        *pwlog.Logger
	commands   map[string]Command
	history    []string
	currentSID string
	ctx        context.Context
	cancel     context.CancelFunc
}

// Command represents a slash command.
type Command struct {
	Name        string
	Description string
	Handler     func(args string) error
}

// New creates a new REPL with built-in commands over store.
func New(store eventstore.Store) *REPL {
	ctx, cancel := context.WithCancel(context.Background())
	r := &REPL{
		store:    store,
		log:      pwlog.Nop(),
		commands: make(map[string]Command),
		ctx:      ctx,
		cancel:   cancel,
	}
	r.registerBuiltins()
	return r
}

// SetSession pins the session_id subsequent commands default to when no
// argument is given.
func (r *REPL) SetSession(sessionID string) {
	r.currentSID = sessionID
}

func (r *REPL) sessionArg(args string) string {
	sid := strings.TrimSpace(args)
	if sid == "" {
		sid = r.currentSID
	}
	return sid
}

func (r *REPL) registerBuiltins() {
	r.Register(Command{
		Name: "/help", Description: "Show available commands",
		Handler: func(_ string) error {
			fmt.Println("Available commands:")
			for _, c := range r.commands {
				fmt.Printf("  %-20s %s\n", c.Name, c.Description)
			}
			fmt.Println()
			fmt.Println("Prefixes:")
			fmt.Println("  /<cmd>     Run a slash command")
			fmt.Println("  <text>     Set the active session_id")
			return nil
		},
	})
	r.Register(Command{
		Name: "/sessions", Description: "List known sessions",
		Handler: func(_ string) error {
			sessions, err := r.store.ListSessions(r.ctx)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions found.")
				return nil
			}
			for _, s := range sessions {
				fmt.Printf("  %-30s events=%-6d latest=%s\n", s.SessionID, s.EventCount, s.LatestTS.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	})
	r.Register(Command{
		Name: "/show", Description: "Show composed state for the active session",
		Handler: func(args string) error {
			sid := r.sessionArg(args)
			if sid == "" {
				return fmt.Errorf("usage: /show <session_id> (or set one first)")
			}
			st, err := session.Get(r.ctx, r.store, sid, r.log)
			if err != nil {
				return err
			}
			out, _ := json.MarshalIndent(st, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	})
	r.Register(Command{
		Name: "/events", Description: "List events for the active session",
		Handler: func(args string) error {
			sid := r.sessionArg(args)
			if sid == "" {
				return fmt.Errorf("usage: /events <session_id> (or set one first)")
			}
			events, err := r.store.GetEvents(r.ctx, sid, eventstore.Filter{Order: eventstore.Asc})
			if err != nil {
				return err
			}
			for _, e := range events {
				fmt.Printf("  [seq=%d head=%s] %s  id=%s\n", e.Seq, e.HeadID, e.Type, e.EventID)
			}
			return nil
		},
	})
	r.Register(Command{
		Name: "/heads", Description: "List branch tips for the active session",
		Handler: func(args string) error {
			sid := r.sessionArg(args)
			if sid == "" {
				return fmt.Errorf("usage: /heads <session_id> (or set one first)")
			}
			heads, err := r.store.GetHeads(r.ctx, sid)
			if err != nil {
				return err
			}
			for head, tip := range heads {
				fmt.Printf("  %-20s -> %s\n", head, tip)
			}
			return nil
		},
	})
	r.Register(Command{
		Name: "/history", Description: "Show session ids visited this REPL session",
		Handler: func(_ string) error {
			if len(r.history) == 0 {
				fmt.Println("No history yet.")
				return nil
			}
			for i, h := range r.history {
				fmt.Printf("  %d: %s\n", i+1, h)
			}
			return nil
		},
	})
	r.Register(Command{
		Name: "/clear", Description: "Clear session history",
		Handler: func(_ string) error {
			r.history = nil
			fmt.Println("History cleared.")
			return nil
		},
	})
	r.Register(Command{
		Name: "/quit", Description: "Exit the REPL",
		Handler: func(_ string) error {
			r.cancel()
			return nil
		},
	})
}

// Register adds a slash command.
func (r *REPL) Register(c Command) {
	r.commands[c.Name] = c
}

// Start begins the interactive loop.
func (r *REPL) Start() error {
	label := "pathway-core REPL v0.1.0"
	if r.currentSID != "" {
		label += fmt.Sprintf(" [%s]", r.currentSID)
	}
	fmt.Printf("%s — type /help for commands, /quit to exit\n", label)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		prompt := "pathway> "
		if r.currentSID != "" {
			prompt = r.currentSID + "> "
		}
		fmt.Print(prompt)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		select {
		case <-r.ctx.Done():
			fmt.Println("Goodbye.")
			return nil
		default:
		}

		if strings.HasPrefix(line, "/") {
			parts := strings.SplitN(line, " ", 2)
			cmdName := parts[0]
			args := ""
			if len(parts) > 1 {
				args = parts[1]
			}
			if cmd, ok := r.commands[cmdName]; ok {
				if err := cmd.Handler(args); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				}
			} else {
				fmt.Fprintf(os.Stderr, "Unknown command: %s (type /help for list)\n", cmdName)
			}
			select {
			case <-r.ctx.Done():
				fmt.Println("Goodbye.")
				return nil
			default:
			}
			continue
		}

		r.history = append(r.history, line)
		r.currentSID = line
		fmt.Printf("Active session set to %q.\n", line)
	}
	return scanner.Err()
}

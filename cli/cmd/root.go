// Package cmd provides the Pathway Core CLI command tree.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pathwaylearn/pathway-core/cli/repl"
	"github.com/pathwaylearn/pathway-core/config"
	"github.com/pathwaylearn/pathway-core/event"
	"github.com/pathwaylearn/pathway-core/eventstore"
	"github.com/pathwaylearn/pathway-core/eventstore/sqlite"
	"github.com/pathwaylearn/pathway-core/pwlog"
	"github.com/pathwaylearn/pathway-core/session"
)

// Execute runs the root CLI command.
func Execute() error {
	if len(os.Args) < 2 {
		return printUsage()
	}
	switch os.Args[1] {
	case "repl", "interactive":
		return runREPL()
	case "append":
		return runAppend()
	case "show":
		return runShow()
	case "events":
		return runEvents()
	case "heads":
		return runHeads()
	case "sessions":
		return runSessions()
	case "export":
		return runExport()
	case "import":
		return runImport()
	case "db":
		return runDB()
	case "config":
		return runConfig()
	case "version":
		fmt.Println("pathway-core v0.1.0")
		return nil
	case "help", "--help", "-h":
		return printUsage()
	default:
		return fmt.Errorf("unknown command: %s\nRun 'pathway help' for usage", os.Args[1])
	}
}

func printUsage() error {
	fmt.Println(`Pathway Core CLI — learning-journey event log

Usage:
  pathway <command> [options]

Commands:
  repl                          Start an interactive session browser
  append <session_id> <type>   Append an event; payload JSON read from stdin
  show <session_id>            Print the composed session state (journey/learned/artifacts)
  events <session_id>          List raw events for a session, ordered by seq
  heads <session_id>           List current branch tips
  sessions                     List known sessions
  export <session_id>          Export a session's events as JSONL to stdout
  import <session_id>          Import JSONL from stdin, overriding session_id
  db init                      Create the database and run migrations
  db status                    Print database path and session count
  config show                  Print the resolved configuration
  version                      Print version
  help                         Show this help

Environment:
  PATHWAY_CONFIG    Path to a YAML config file (see config.Load)
  PATHWAY_DB_PATH   Overrides db_path from config`)
	return nil
}

func loadConfig() config.Config {
	cfg := config.Default()
	if path := os.Getenv("PATHWAY_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err == nil {
			cfg = loaded
		} else {
			fmt.Fprintf(os.Stderr, "warning: could not load %s: %v\n", path, err)
		}
	}
	if dbPath := os.Getenv("PATHWAY_DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg
}

func openStore(cfg config.Config, log *pwlog.Logger) (*sqlite.Store, error) {
	store, err := sqlite.NewWithLogger(cfg.DBPath, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

func newLogger() *pwlog.Logger {
	return pwlog.New(os.Stderr, pwlog.LevelInfo)
}

func runREPL() error {
	args := os.Args[2:]
	cfg := loadConfig()
	store, err := openStore(cfg, newLogger())
	if err != nil {
		return err
	}
	defer store.Close()

	r := repl.New(store)
	if len(args) > 0 {
		r.SetSession(args[0])
	}
	return r.Start()
}

// runAppend reads a JSON payload from stdin and appends one event:
// pathway append <session_id> <type> [--head <id>] [--parent <event_id>] [--waypoint <id>]
func runAppend() error {
	args := os.Args[2:]
	if len(args) < 2 {
		return fmt.Errorf("usage: pathway append <session_id> <type> [--head id] [--parent event_id] [--waypoint id]")
	}
	sessionID, kind := args[0], args[1]

	n := event.NewEvent{
		SessionID: sessionID,
		Type:      event.Kind(kind),
	}
	for i := 2; i < len(args)-1; i++ {
		switch args[i] {
		case "--head":
			n.HeadID = args[i+1]
		case "--parent":
			n.ParentEventID = args[i+1]
		case "--waypoint":
			n.WaypointID = args[i+1]
		}
	}

	payload, err := readStdin()
	if err != nil {
		return fmt.Errorf("read payload from stdin: %w", err)
	}
	n.Payload = payload

	cfg := loadConfig()
	log := newLogger()
	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	stored, err := store.Append(context.Background(), n)
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}
	out, _ := json.MarshalIndent(stored, "", "  ")
	fmt.Println(string(out))
	return nil
}

func readStdin() (json.RawMessage, error) {
	var buf strings.Builder
	chunk := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if err != nil {
			break
		}
	}
	raw := strings.TrimSpace(buf.String())
	if raw == "" {
		return json.RawMessage(`{}`), nil
	}
	return json.RawMessage(raw), nil
}

func runShow() error {
	args := os.Args[2:]
	if len(args) < 1 {
		return fmt.Errorf("usage: pathway show <session_id>")
	}
	cfg := loadConfig()
	log := newLogger()
	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := session.Get(context.Background(), store, args[0], log)
	if err != nil {
		return fmt.Errorf("get session state: %w", err)
	}
	out, _ := json.MarshalIndent(st, "", "  ")
	fmt.Println(string(out))
	return nil
}

func runEvents() error {
	args := os.Args[2:]
	if len(args) < 1 {
		return fmt.Errorf("usage: pathway events <session_id>")
	}
	cfg := loadConfig()
	store, err := openStore(cfg, pwlog.Nop())
	if err != nil {
		return err
	}
	defer store.Close()

	events, err := store.GetEvents(context.Background(), args[0], eventstore.Filter{Order: eventstore.Asc})
	if err != nil {
		return fmt.Errorf("get events: %w", err)
	}
	for _, e := range events {
		fmt.Printf("[seq=%d head=%s] %s  id=%s parent=%s\n", e.Seq, e.HeadID, e.Type, e.EventID, e.ParentEventID)
	}
	return nil
}

func runHeads() error {
	args := os.Args[2:]
	if len(args) < 1 {
		return fmt.Errorf("usage: pathway heads <session_id>")
	}
	cfg := loadConfig()
	store, err := openStore(cfg, pwlog.Nop())
	if err != nil {
		return err
	}
	defer store.Close()

	heads, err := store.GetHeads(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("get heads: %w", err)
	}
	for head, tip := range heads {
		fmt.Printf("%-20s -> %s\n", head, tip)
	}
	return nil
}

func runSessions() error {
	cfg := loadConfig()
	store, err := openStore(cfg, pwlog.Nop())
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.ListSessions(context.Background())
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}
	fmt.Printf("%-30s %-10s %s\n", "SESSION", "EVENTS", "LATEST")
	for _, s := range summaries {
		fmt.Printf("%-30s %-10d %s\n", s.SessionID, s.EventCount, s.LatestTS.Format(time.RFC3339))
	}
	return nil
}

func runExport() error {
	args := os.Args[2:]
	if len(args) < 1 {
		return fmt.Errorf("usage: pathway export <session_id>")
	}
	cfg := loadConfig()
	store, err := openStore(cfg, pwlog.Nop())
	if err != nil {
		return err
	}
	defer store.Close()

	events, err := store.GetEvents(context.Background(), args[0], eventstore.Filter{Order: eventstore.Asc})
	if err != nil {
		return fmt.Errorf("get events: %w", err)
	}
	return eventstore.ExportJSONL(os.Stdout, events)
}

func runImport() error {
	args := os.Args[2:]
	if len(args) < 1 {
		return fmt.Errorf("usage: pathway import <session_id>")
	}
	candidates, err := eventstore.ImportJSONL(os.Stdin, args[0])
	if err != nil {
		return fmt.Errorf("import jsonl: %w", err)
	}

	cfg := loadConfig()
	log := newLogger()
	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	for _, n := range candidates {
		if _, err := store.Append(ctx, n); err != nil {
			return fmt.Errorf("append imported event %q: %w", n.EventID, err)
		}
	}
	fmt.Printf("Imported %d events into session %q.\n", len(candidates), args[0])
	return nil
}

func runDB() error {
	sub := "status"
	if len(os.Args) > 2 {
		sub = os.Args[2]
	}
	cfg := loadConfig()
	switch sub {
	case "init":
		store, err := openStore(cfg, newLogger())
		if err != nil {
			return err
		}
		defer store.Close()
		fmt.Println("Database initialized and migrated successfully.")
		return nil
	case "status":
		fmt.Printf("Database: %s\n", cfg.DBPath)
		store, err := openStore(cfg, pwlog.Nop())
		if err != nil {
			return nil
		}
		defer store.Close()
		summaries, _ := store.ListSessions(context.Background())
		fmt.Printf("Sessions: %d\n", len(summaries))
		return nil
	default:
		return fmt.Errorf("unknown db subcommand: %s\nUsage: pathway db [init|status]", sub)
	}
}

func runConfig() error {
	sub := "show"
	if len(os.Args) > 2 {
		sub = os.Args[2]
	}
	switch sub {
	case "show":
		cfg := loadConfig()
		fmt.Println("Pathway Core Configuration:")
		fmt.Printf("  db_path:               %s\n", cfg.DBPath)
		fmt.Printf("  api_key:               %s\n", maskAPIKey(cfg.APIKey))
		fmt.Printf("  max_payload_size:      %d\n", cfg.MaxPayloadSize)
		fmt.Printf("  session_id_max_length: %d\n", cfg.SessionIDMaxLength)
		return nil
	default:
		return fmt.Errorf("unknown config subcommand: %s\nUsage: pathway config show", sub)
	}
}

func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

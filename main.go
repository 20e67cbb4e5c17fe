package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	config "clarity/app/configs"
	"clarity/app/core/engine"
	"clarity/app/core/review"
	"clarity/app/core/status"
	"clarity/app/core/store"
	"clarity/app/core/store/db"
	"clarity/app/pkg/logger"
)

func main() {
	if err := logger.Init("output/logs"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cfgManager, err := config.NewManager(config.DefaultPath())
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}
	cfg := cfgManager.Get()
	for _, warning := range config.Warnings(cfg) {
		logger.Info("config warning: %s", warning)
	}

	database, err := db.NewSQLiteDB("output/db")
	if err != nil {
		logger.Error("Failed to initialize DB: %v", err)
		os.Exit(1)
	}
	defer database.Close()

	st := store.NewStore(database)
	ctx := context.Background()

	var exitCode int
	switch os.Args[1] {
	case "review":
		exitCode = runReview(ctx, st, cfg, os.Args[2:])
	case "apply":
		exitCode = runApply(ctx, st, cfg, os.Args[2:])
	case "status":
		exitCode = runStatus(ctx, st, cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		exitCode = 2
	}
	os.Exit(exitCode)
}

func runReview(ctx context.Context, st *store.Store, cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("review", flag.ExitOnError)
	start := fs.Int64("start", 0, "window start as unix seconds (default: end minus configured window)")
	end := fs.Int64("end", 0, "window end as unix seconds (default: now)")
	threshold := fs.Int("threshold", 0, "staleness threshold in days (default: from config)")
	projects := fs.String("projects", "", "comma-separated project ids to limit the review to")
	fs.Parse(args)

	svc := review.NewService(st, suggestionEngine(cfg), review.Options{
		WindowDays:          cfg.Review.WindowDays,
		ZombieThresholdDays: cfg.Review.ZombieThresholdDays,
		Caps: review.Caps{
			MaxCompleted: cfg.Review.MaxCompleted,
			MaxZombies:   cfg.Review.MaxZombies,
			MaxNotes:     cfg.Review.MaxNotes,
		},
		Tone: cfg.Engine.Tone,
	})

	payload, err := svc.GenerateInsights(ctx, review.WindowRequest{
		Start:               *start,
		End:                 *end,
		ZombieThresholdDays: *threshold,
		ProjectFilters:      splitIDs(*projects),
	})
	if err != nil {
		logger.Error("review failed: %v", err)
		fmt.Fprintf(os.Stderr, "review failed: %v\n", err)
		return 1
	}
	return printJSON(payload)
}

func runApply(ctx context.Context, st *store.Store, cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	file := fs.String("file", "-", "decisions JSON file; \"-\" reads stdin")
	fs.Parse(args)

	decisions, err := readDecisions(*file)
	if err != nil {
		logger.Error("apply failed: %v", err)
		fmt.Fprintf(os.Stderr, "apply failed: %v\n", err)
		return 1
	}

	applier := review.NewApplier(st, subtaskPlanner(cfg))
	result := applier.ApplyActions(ctx, decisions)

	logger.Info("apply: %s (%d error(s))", result.Message, len(result.Errors))
	return printJSON(result)
}

func runStatus(ctx context.Context, st *store.Store, cfg config.Config) int {
	reporter := status.NewReporter(st, cfg.Review.ZombieThresholdDays)
	summary, err := reporter.Summarize(ctx)
	if err != nil {
		logger.Error("status failed: %v", err)
		fmt.Fprintf(os.Stderr, "status failed: %v\n", err)
		return 1
	}
	return printJSON(summary)
}

// suggestionEngine builds the LLM client, or returns nil so the read
// path runs entirely on the deterministic fallback.
func suggestionEngine(cfg config.Config) review.SuggestionEngine {
	client, err := engine.New(cfg.Engine)
	if err != nil {
		logger.Info("generation engine unavailable, using fallback: %v", err)
		return nil
	}
	return client
}

// subtaskPlanner is the same client behind the planner contract; split
// decisions fail cleanly when it cannot be configured.
func subtaskPlanner(cfg config.Config) review.SubtaskPlanner {
	client, err := engine.New(cfg.Engine)
	if err != nil {
		logger.Info("subtask planner unavailable: %v", err)
		return nil
	}
	return client
}

func readDecisions(path string) ([]review.Decision, error) {
	var reader io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		reader = f
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	var decisions []review.Decision
	if err := json.Unmarshal(data, &decisions); err != nil {
		return nil, fmt.Errorf("parse decisions: %w", err)
	}
	return decisions, nil
}

func splitIDs(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func printJSON(v interface{}) int {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		return 1
	}
	fmt.Println(string(out))
	return 0
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: clarity <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  review   generate weekly review insights (highlights, zombies, note audits)")
	fmt.Fprintln(os.Stderr, "  apply    apply reviewer decisions from a JSON file or stdin")
	fmt.Fprintln(os.Stderr, "  status   print a summary of the task store")
}

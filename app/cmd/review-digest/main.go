// review-digest dumps the raw digest groups one review run would feed
// the generation engine. Useful for inspecting what a window actually
// picks up without spending an engine call.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	config "clarity/app/configs"
	"clarity/app/core/review"
	"clarity/app/core/store"
	"clarity/app/core/store/db"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to config json")
	dataDir := flag.String("data", filepath.Join("output", "db"), "database directory")
	outputPath := flag.String("output", "-", "path to write digests (use - for stdout)")
	start := flag.Int64("start", 0, "window start as unix seconds")
	end := flag.Int64("end", 0, "window end as unix seconds (default: now)")
	threshold := flag.Int("threshold", 0, "staleness threshold in days (default: from config)")
	projects := flag.String("projects", "", "comma-separated project ids")
	flag.Parse()

	cfg, err := config.LoadConfigFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "review digest failed: load config: %v\n", err)
		os.Exit(2)
	}

	database, err := db.NewSQLiteDB(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "review digest failed: open db: %v\n", err)
		os.Exit(2)
	}
	defer database.Close()

	window := review.ResolveWindow(review.WindowRequest{
		Start:               *start,
		End:                 *end,
		ZombieThresholdDays: *threshold,
		ProjectFilters:      splitIDs(*projects),
	}, cfg.Review.WindowDays, cfg.Review.ZombieThresholdDays)

	collector := review.NewCollector(store.NewStore(database), review.Caps{
		MaxCompleted: cfg.Review.MaxCompleted,
		MaxZombies:   cfg.Review.MaxZombies,
		MaxNotes:     cfg.Review.MaxNotes,
	})
	digests, err := collector.Collect(context.Background(), window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "review digest failed: collect: %v\n", err)
		os.Exit(1)
	}

	report := struct {
		Window  review.ReviewWindow `json:"window"`
		Digests review.Digests      `json:"digests"`
	}{Window: window, Digests: digests}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "review digest failed: marshal: %v\n", err)
		os.Exit(2)
	}
	payload = append(payload, '\n')

	if *outputPath == "-" {
		if _, err := os.Stdout.Write(payload); err != nil {
			fmt.Fprintf(os.Stderr, "review digest failed: write stdout: %v\n", err)
			os.Exit(2)
		}
		return
	}
	if err := os.MkdirAll(filepath.Dir(*outputPath), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "review digest failed: create output directory: %v\n", err)
		os.Exit(2)
	}
	if err := os.WriteFile(*outputPath, payload, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "review digest failed: write report: %v\n", err)
		os.Exit(2)
	}
	fmt.Printf("review digest written; report=%s\n", *outputPath)
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

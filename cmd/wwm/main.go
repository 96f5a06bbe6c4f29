// Package main implements the wwm CLI that prints the weekly schedule
// poster to the terminal in a chosen timezone.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/fatih/color"

	"github.com/elvina2036/wwm/pkg/poster"
	"github.com/elvina2036/wwm/pkg/schedule"
)

var (
	configPath = flag.String("config", "", "Path to schedule config JSON (or set WWM_CONFIG)")
	configURL  = flag.String("config-url", "", "URL of schedule config JSON (or set WWM_CONFIG_URL)")
	tz         = flag.String("tz", "", "IANA timezone to display times in (or set WWM_TZ; defaults to the schedule's base zone)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("wwm CLI v1.0.0")
		return
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *configPath == "" {
		*configPath = os.Getenv("WWM_CONFIG")
	}
	if *configURL == "" {
		*configURL = os.Getenv("WWM_CONFIG_URL")
	}
	if *tz == "" {
		*tz = os.Getenv("WWM_TZ")
	}

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Error("Failed to load schedule config", "error", err)
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}

	if *tz == "" {
		*tz = cfg.BaseTimezone
	}

	session := poster.NewSession(cfg, logger)
	updates, err := session.SelectZone(*tz)
	if err != nil {
		logger.Error("Zone selection failed", "tz", *tz, "error", err)
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}

	byNode := make(map[string]poster.Update, len(updates))
	for _, u := range updates {
		byNode[u.NodeID] = u
	}

	printPoster(cfg, *tz, byNode)
}

func loadConfig(logger *slog.Logger) (*schedule.Config, error) {
	switch {
	case *configPath != "":
		return schedule.Load(*configPath)
	case *configURL != "":
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		return schedule.Fetch(ctx, *configURL, logger)
	default:
		return nil, fmt.Errorf("no schedule config given: use -config or -config-url")
	}
}

func printPoster(cfg *schedule.Config, tz string, byNode map[string]poster.Update) {
	title := color.New(color.FgCyan, color.Bold)
	heading := color.New(color.FgBlue, color.Bold)
	dim := color.New(color.FgHiBlack)

	fmt.Println()
	title.Printf("📅 %s\n", cfg.Title)
	dim.Printf("   %s\n", zoneLabel(cfg, tz))
	fmt.Println(strings.Repeat("─", 50))

	if len(cfg.Daily) > 0 {
		heading.Println("Daily")
		for i, ev := range cfg.Daily {
			printEvent(ev, fmt.Sprintf("daily/%d", i), byNode)
		}
		fmt.Println()
	}

	for d, day := range cfg.Days {
		heading.Println(day.Label)
		for e, ev := range day.Events {
			printEvent(ev, fmt.Sprintf("day/%d/%d", d, e), byNode)
		}
		fmt.Println()
	}
}

func printEvent(ev schedule.Event, nodeID string, byNode map[string]poster.Update) {
	update := byNode[nodeID]
	fmt.Printf("  %-8s %s%s\n", update.Text, ev.Name, badgeSuffix(update))

	switch noteUpdate, ok := byNode[nodeID+"/note"]; {
	case ok:
		fmt.Printf("           └─ %s%s\n", flattenNote(noteUpdate.Text), badgeSuffix(noteUpdate))
	case ev.Note != "":
		fmt.Printf("           └─ %s\n", flattenNote(ev.Note))
	}
}

func badgeSuffix(u poster.Update) string {
	switch {
	case u.DayOffset > 0:
		return " " + color.New(color.FgGreen).Sprintf("[%s]", u.Badge)
	case u.DayOffset < 0:
		return " " + color.New(color.FgRed).Sprintf("[%s]", u.Badge)
	default:
		return ""
	}
}

// flattenNote strips any inline HTML the web poster config may carry in
// note fields so terminal output stays readable.
func flattenNote(note string) string {
	if !strings.Contains(note, "<") {
		return note
	}
	markdown, err := md.ConvertString(note)
	if err != nil {
		return note
	}
	return strings.TrimSpace(markdown)
}

func zoneLabel(cfg *schedule.Config, tz string) string {
	for _, opt := range cfg.Timezones {
		if opt.ID == tz {
			return opt.Label
		}
	}
	return tz
}

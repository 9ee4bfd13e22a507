package content

import (
	"context"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ignite/dailyhi/internal/pkg/logger"
)

// FactSource picks the day's fun fact. On the first day of the week
// it selects from a weekly-indexed list (same fact all day, same fact
// for everyone in the bucket); on other days it picks a random entry
// from the general list. When neither file yields a fact it falls
// back to the first item of a configured RSS feed. Every failure
// degrades to an empty fact, never an error.
type FactSource struct {
	weeklyPath  string
	generalPath string
	feedURL     string
	parser      *gofeed.Parser

	// intn is swapped in tests for determinism.
	intn func(n int) int
}

// NewFactSource creates a fact source over the given list files and
// optional RSS fallback feed.
func NewFactSource(weeklyPath, generalPath, feedURL string) *FactSource {
	return &FactSource{
		weeklyPath:  weeklyPath,
		generalPath: generalPath,
		feedURL:     feedURL,
		parser:      gofeed.NewParser(),
		intn:        rand.Intn,
	}
}

// FunFact returns the fact for localTime, or "" when no source yields one.
func (f *FactSource) FunFact(ctx context.Context, localTime time.Time) string {
	if localTime.Weekday() == time.Sunday {
		if fact := f.weeklyFact(localTime); fact != "" {
			return fact
		}
	}

	if lines := readLines(f.generalPath); len(lines) > 0 {
		return lines[f.intn(len(lines))]
	}

	return f.feedFact(ctx)
}

// weeklyFact indexes the weekly list by ISO week number, so the same
// entry comes back for every run on the same local date.
func (f *FactSource) weeklyFact(localTime time.Time) string {
	lines := readLines(f.weeklyPath)
	if len(lines) == 0 {
		return ""
	}
	_, week := localTime.ISOWeek()
	return lines[week%len(lines)]
}

func (f *FactSource) feedFact(ctx context.Context) string {
	if f.feedURL == "" {
		return ""
	}
	feed, err := f.parser.ParseURLWithContext(f.feedURL, ctx)
	if err != nil {
		logger.Warn("fact feed fetch failed", "feed", f.feedURL, "error", err.Error())
		return ""
	}
	if len(feed.Items) == 0 {
		return ""
	}
	return strings.TrimSpace(feed.Items[0].Title)
}

func readLines(path string) []string {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

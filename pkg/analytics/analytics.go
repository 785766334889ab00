// Package analytics computes summary statistics over a set of issues:
// counts by status, assignee, priority and type, plus average age.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/Sternrassler/jira-data-client/pkg/extract"
	"github.com/Sternrassler/jira-data-client/pkg/jira"
)

// Bucket names used when a field is missing.
const (
	UnknownStatus   = "Unknown"
	Unassigned      = "Unassigned"
	NoPriority      = "None"
	UnknownType     = "Unknown"
	DefaultTopLimit = 10
)

// createdLayouts are the timestamp formats Jira uses for fields.created.
var createdLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	time.RFC3339Nano,
	time.RFC3339,
}

// Counts maps a bucket name to the number of issues in it.
type Counts map[string]int

// Bucket is one row of a sorted Counts.
type Bucket struct {
	Name    string  `json:"name" yaml:"name"`
	Count   int     `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// Stats is the result of Analyze.
type Stats struct {
	Total      int    `json:"total" yaml:"total"`
	ByStatus   Counts `json:"by_status" yaml:"by_status"`
	ByAssignee Counts `json:"by_assignee" yaml:"by_assignee"`
	ByPriority Counts `json:"by_priority" yaml:"by_priority"`
	ByType     Counts `json:"by_type" yaml:"by_type"`
	Unassigned int    `json:"unassigned" yaml:"unassigned"`
	AvgAgeDays int    `json:"avg_age_days" yaml:"avg_age_days"`
}

// Analyze aggregates issues. Ages are whole days between fields.created and
// now; issues without a parseable created timestamp are left out of the
// average.
func Analyze(issues []jira.Issue, now time.Time) Stats {
	stats := Stats{
		Total:      len(issues),
		ByStatus:   Counts{},
		ByAssignee: Counts{},
		ByPriority: Counts{},
		ByType:     Counts{},
	}

	var totalAge, aged int
	for _, issue := range issues {
		stats.ByStatus[name(issue, "status.name", UnknownStatus)]++
		stats.ByPriority[name(issue, "priority.name", NoPriority)]++
		stats.ByType[name(issue, "issuetype.name", UnknownType)]++

		assignee := name(issue, "assignee.displayName", Unassigned)
		if assignee == Unassigned {
			stats.Unassigned++
		}
		stats.ByAssignee[assignee]++

		if created, ok := createdAt(issue); ok {
			totalAge += int(now.Sub(created).Hours() / 24)
			aged++
		}
	}

	if aged > 0 {
		stats.AvgAgeDays = int(math.Round(float64(totalAge) / float64(aged)))
	}
	return stats
}

func name(issue jira.Issue, path, fallback string) string {
	v, ok := extract.Lookup(issue.Fields, path)
	if !ok {
		return fallback
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return fallback
	}
	return s
}

func createdAt(issue jira.Issue) (time.Time, bool) {
	v, ok := extract.Lookup(issue.Fields, "created")
	if !ok {
		return time.Time{}, false
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Sorted returns the buckets ordered by count descending, then name.
func (c Counts) Sorted() []Bucket {
	total := 0
	for _, n := range c {
		total += n
	}

	buckets := make([]Bucket, 0, len(c))
	for k, n := range c {
		b := Bucket{Name: k, Count: n}
		if total > 0 {
			b.Percent = math.Round(float64(n)/float64(total)*1000) / 10
		}
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Name < buckets[j].Name
	})
	return buckets
}

// Top returns at most n buckets of Sorted. n <= 0 returns all.
func (c Counts) Top(n int) []Bucket {
	sorted := c.Sorted()
	if n > 0 && len(sorted) > n {
		return sorted[:n]
	}
	return sorted
}

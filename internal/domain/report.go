package domain

import "github.com/montanaflynn/stats"

// Report is the final result of one attribution run.
type Report struct {
	Entries []Entry `json:"entries"`
	// BotCommits is the number of commits diverted by the bot policy.
	BotCommits int `json:"bot_commits"`
	// TotalCommits is the grand total attributed to contributors; it always
	// equals the sum of the entry counts.
	TotalCommits int `json:"total_commits"`
	Contributors int `json:"contributors"`
	// RawCommits is the display-only total of commits counted directly in
	// every processed range, independent of the per-contributor breakdown.
	RawCommits int `json:"raw_commits"`

	MeanCommits   float64 `json:"mean_commits"`
	MedianCommits float64 `json:"median_commits"`
}

// BuildReport sorts the tally and assembles the totals and the display-only
// summary statistics.
func BuildReport(tally *Tally, botCommits, rawCommits int, ascending bool) *Report {
	entries := tally.Sorted(ascending)
	total := 0
	counts := make([]float64, 0, len(entries))
	for _, entry := range entries {
		total += entry.Count
		counts = append(counts, float64(entry.Count))
	}
	report := &Report{
		Entries:      entries,
		BotCommits:   botCommits,
		TotalCommits: total,
		Contributors: len(entries),
		RawCommits:   rawCommits,
	}
	if len(counts) > 0 {
		if mean, err := stats.Mean(counts); err == nil {
			report.MeanCommits = mean
		}
		if median, err := stats.Median(counts); err == nil {
			report.MedianCommits = median
		}
	}
	return report
}

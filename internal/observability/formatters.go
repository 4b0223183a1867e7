// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/jobrec-pipeline/internal/assembly"
	"github.com/jonathan/jobrec-pipeline/internal/cleaning"
	"github.com/jonathan/jobrec-pipeline/internal/labeling"
	"github.com/jonathan/jobrec-pipeline/internal/policy"
	"github.com/jonathan/jobrec-pipeline/internal/sampling"
	"github.com/jonathan/jobrec-pipeline/internal/validation"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintPolicy outputs the active labeling policy.
func (p *Printer) PrintPolicy(pol *policy.Policy) {
	if pol == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Version:  %s\n\n", pol.Version()))
	sb.WriteString("Label map:\n")
	for _, event := range pol.EventTypes() {
		label, _ := pol.Label(event)
		sb.WriteString(fmt.Sprintf("  • %-12s → %d (priority %d)\n", event, label, pol.Priority(event)))
	}
	if ignored := pol.IgnoredEvents(); len(ignored) > 0 {
		sb.WriteString(fmt.Sprintf("\nIgnored: %s", strings.Join(ignored, ", ")))
	}

	p.printBox("LABELING POLICY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintValidationReport outputs the row counts of validated raw datasets.
func (p *Printer) PrintValidationReport(report *validation.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Jobs:          %d\n", report.Jobs))
	sb.WriteString(fmt.Sprintf("Users:         %d\n", report.Users))
	sb.WriteString(fmt.Sprintf("Interactions:  %d", report.Interactions))
	if report.SynthesizedIDs {
		sb.WriteString("\n\nInteraction ids synthesized from row index")
	}

	p.printBox("RAW VALIDATION PASSED", sb.String())
}

// PrintCleaningStats outputs what interaction cleaning changed.
func (p *Printer) PrintCleaningStats(stats cleaning.Stats) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Input:        %d\n", stats.Input))
	sb.WriteString(fmt.Sprintf("Output:       %d\n", stats.Output))
	sb.WriteString(fmt.Sprintf("Duplicates:   %d\n", stats.Duplicates))
	sb.WriteString(fmt.Sprintf("Normalized:   %d\n", stats.Normalized))
	sb.WriteString(fmt.Sprintf("Trimmed IDs:  %d", stats.TrimmedIDs))

	p.printBox("INTERACTION CLEANING", sb.String())
}

// PrintJobCleaningStats outputs what job cleaning changed.
func (p *Printer) PrintJobCleaningStats(stats cleaning.JobStats) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Jobs:             %d\n", stats.Input))
	sb.WriteString(fmt.Sprintf("Unknown type:     %d\n", stats.UnknownEmploymentType))
	sb.WriteString(fmt.Sprintf("Salary swapped:   %d\n", stats.SwappedSalaryRanges))
	sb.WriteString(fmt.Sprintf("Markup stripped:  %d", stats.StrippedMarkup))

	p.printBox("JOB CLEANING", sb.String())
}

func (p *Printer) PrintUserCleaningStats(stats cleaning.UserStats) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Users:          %d\n", stats.Input))
	sb.WriteString(fmt.Sprintf("Items dropped:  %d", stats.DroppedItems))

	p.printBox("USER CLEANING", sb.String())
}

// PrintLabelStats outputs label generation counts and the label distribution.
func (p *Printer) PrintLabelStats(stats *labeling.Stats) {
	if stats == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Interactions: %d\n", stats.Interactions))
	sb.WriteString(fmt.Sprintf("Mapped:       %d\n", stats.Mapped))
	sb.WriteString(fmt.Sprintf("Dropped:      %d\n", stats.Dropped))
	sb.WriteString(fmt.Sprintf("Pairs:        %d\n", stats.Pairs))
	sb.WriteString(fmt.Sprintf("Conflicts:    %d\n", stats.Conflicts))

	if len(stats.LabelCounts) > 0 {
		labels := make([]int, 0, len(stats.LabelCounts))
		for label := range stats.LabelCounts {
			labels = append(labels, label)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(labels)))

		sb.WriteString("\nLabels:\n")
		for _, label := range labels {
			sb.WriteString(fmt.Sprintf("  • %d: %d\n", label, stats.LabelCounts[label]))
		}
	}

	p.printBox("LABEL GENERATION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSamplingReport outputs per-user negative counts and the most popular jobs.
func (p *Printer) PrintSamplingReport(strategy string, ratio int, report []sampling.UserSample, popular []sampling.JobCount) {
	if len(report) == 0 {
		return
	}

	total := 0
	short := 0
	for _, u := range report {
		total += u.Negatives
		if u.Negatives < u.Positives*ratio {
			short++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Strategy:  %s (ratio %d)\n", strategy, ratio))
	sb.WriteString(fmt.Sprintf("Users:     %d\n", len(report)))
	sb.WriteString(fmt.Sprintf("Negatives: %d\n", total))
	sb.WriteString(fmt.Sprintf("Users limited by candidates: %d\n", short))

	count := min(len(report), maxItemsToShow)
	sb.WriteString("\n")
	for i := 0; i < count; i++ {
		u := report[i]
		sb.WriteString(fmt.Sprintf("  • %s: %d pos → %d neg (%d candidates)\n", u.UserID, u.Positives, u.Negatives, u.Candidates))
	}
	if len(report) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more users\n", len(report)-maxItemsToShow))
	}

	if len(popular) > 0 {
		sb.WriteString("\nMost popular jobs:\n")
		count := min(len(popular), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  #%d %s (%d)\n", i+1, popular[i].JobID, popular[i].Count))
		}
	}

	p.printBox("NEGATIVE SAMPLING", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDatasetSummary outputs the composition of an assembled dataset.
func (p *Printer) PrintDatasetSummary(title string, summary assembly.Summary) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Rows:      %d\n", summary.Rows))
	sb.WriteString(fmt.Sprintf("Positives: %d\n", summary.Positives))
	sb.WriteString(fmt.Sprintf("Negatives: %d\n", summary.Negatives))
	sb.WriteString(fmt.Sprintf("Users:     %d\n", summary.Users))
	sb.WriteString(fmt.Sprintf("Jobs:      %d", summary.Jobs))
	if summary.Positives > 0 {
		sb.WriteString(fmt.Sprintf("\n\nNegatives per positive: %.2f", float64(summary.Negatives)/float64(summary.Positives)))
	}

	p.printBox(title, sb.String())
}

// PrintHydrationStats outputs how many rows were joined with features.
func (p *Printer) PrintHydrationStats(stats *assembly.HydrationStats) {
	if stats == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Input rows:       %d\n", stats.Input))
	sb.WriteString(fmt.Sprintf("Hydrated:         %d\n", stats.Hydrated))
	sb.WriteString(fmt.Sprintf("Missing user:     %d\n", stats.MissingUser))
	sb.WriteString(fmt.Sprintf("Missing job:      %d", stats.MissingJob))

	p.printBox("TRAINING ROWS", sb.String())
}

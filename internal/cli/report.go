package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"watchtime/internal/models"
	"watchtime/internal/reporter"

	json "github.com/goccy/go-json"
)

// Execute implements the go-flags Commander interface for ReportCommand.
func (c *ReportCommand) Execute(args []string) error {
	client := reporter.NewClient(c.globals.Server, c.globals.Timeout)
	summary, err := client.Rollup(context.Background(), c.From, c.To)
	if err != nil {
		return fmt.Errorf("fetch rollup: %w", err)
	}

	out := c.globals.out
	if c.globals.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	printSummary(out, summary)
	return nil
}

func printSummary(out io.Writer, s *models.RangeSummary) {
	if s.From == s.To {
		fmt.Fprintf(out, "Watch time for %s\n", s.From)
	} else {
		fmt.Fprintf(out, "Watch time %s .. %s (%d days)\n", s.From, s.To, s.Days)
	}
	fmt.Fprintf(out, "Total: %s\n", models.FormatClock(s.Total))

	if s.Total == 0 && len(s.Domains) == 0 {
		fmt.Fprintln(out, "No watch time recorded.")
		return
	}

	printShares(out, "Categories", s.CategoryBreakdown())
	printShares(out, "Domains", s.Breakdown())
}

func printShares(out io.Writer, title string, rows []models.DomainShare) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", title)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(tw, "  %s\t%s\t%5.1f%%\n", row.Domain, models.FormatClock(row.Seconds), row.Percent)
	}
	tw.Flush()
}

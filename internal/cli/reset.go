package cli

import (
	"context"
	"fmt"
	"watchtime/internal/reporter"
)

// Execute implements the go-flags Commander interface for ResetCommand.
func (c *ResetCommand) Execute(args []string) error {
	if c.Date == "" && !c.All {
		return fmt.Errorf("reset requires --date or --all")
	}
	if c.Date != "" && c.All {
		return fmt.Errorf("--date and --all are mutually exclusive")
	}

	client := reporter.NewClient(c.globals.Server, c.globals.Timeout)
	if err := client.Reset(context.Background(), c.Date); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	if c.All {
		fmt.Fprintln(c.globals.out, "All watch time cleared.")
	} else {
		fmt.Fprintf(c.globals.out, "Watch time for %s cleared.\n", c.Date)
	}
	return nil
}

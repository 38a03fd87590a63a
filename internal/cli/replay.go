package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"watchtime/internal/detector"
	"watchtime/internal/models"
	"watchtime/internal/providers"
	"watchtime/internal/reporter"

	"github.com/coder/quartz"
)

// countingSender tallies what was delivered so replay can summarize.
type countingSender struct {
	next    detector.Sender
	mu      sync.Mutex
	reports int
	seconds int64
	err     error
}

func (s *countingSender) Send(ctx context.Context, r *models.Report) error {
	err := s.next.Send(ctx, r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = err
		return err
	}
	s.reports++
	s.seconds += r.Seconds
	return nil
}

// Execute implements the go-flags Commander interface for ReplayCommand.
func (c *ReplayCommand) Execute(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return c.run(ctx)
}

// run replays the script until it ends or ctx is cancelled. Cancellation
// tears the page down, so seconds accrued since the last sync are flushed.
func (c *ReplayCommand) run(ctx context.Context) error {
	f, err := os.Open(c.Script)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	steps, err := detector.ParseScript(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("parse script: %w", err)
	}

	clock := quartz.NewReal()
	page, err := detector.NewScriptPage(steps, clock)
	if err != nil {
		return fmt.Errorf("load script: %w", err)
	}

	logger := providers.NewConsoleLogger(os.Stderr, c.LogLevel)
	sender := &countingSender{next: reporter.NewClient(c.globals.Server, c.globals.Timeout)}
	det := detector.NewDetector(page, sender, clock, logger, c.SyncInterval)

	// the detector outlives an interrupt so the teardown flush can still send
	detCtx, cancelDet := context.WithCancel(context.Background())
	defer cancelDet()

	det.Start(detCtx)
	runErr := page.Run(ctx)
	if runErr != nil && errors.Is(runErr, ctx.Err()) {
		page.Teardown()
		runErr = nil
	}
	det.Stop()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	fmt.Fprintf(c.globals.out, "Replayed %d steps: %d reports, %s sent\n", len(steps), sender.reports, models.FormatClock(sender.seconds))
	if runErr != nil {
		return runErr
	}
	if sender.err != nil {
		return fmt.Errorf("detector stopped early: %w", sender.err)
	}
	return nil
}

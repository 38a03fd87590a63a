package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"watchtime/internal/di"
	"watchtime/internal/structures"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	app, err := di.InitApp(&structures.CliFlags{ConfigPath: c.Config, DebugMode: c.Debug})
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Run(ctx)
}

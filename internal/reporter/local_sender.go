package reporter

import (
	"context"
	"watchtime/internal/models"
	"watchtime/internal/services"
)

// LocalSender hands reports straight to an in-process engine without
// waiting for the write, mirroring the HTTP path.
type LocalSender struct {
	engine services.AggregationServiceInterface
}

func NewLocalSender(engine services.AggregationServiceInterface) *LocalSender {
	return &LocalSender{engine: engine}
}

// Send returns services.ErrQueueClosed once the engine has stopped.
func (s *LocalSender) Send(ctx context.Context, report *models.Report) error {
	return s.engine.Enqueue(ctx, report)
}

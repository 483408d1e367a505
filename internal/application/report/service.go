package report

import (
	"context"

	"github.com/rs/zerolog"

	appOutbox "github.com/Tuwebai/safespot-sub004/internal/application/outbox"
	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
)

// Service fans out nearby-report alerts. The report itself is already
// durably committed by the report write path before this runs.
type Service struct {
	producer appOutbox.Producer
	logger   zerolog.Logger
}

// NewService creates a report alert service.
func NewService(producer appOutbox.Producer, logger zerolog.Logger) *Service {
	return &Service{
		producer: producer,
		logger:   logger.With().Str("service", "report-alerts").Logger(),
	}
}

// FanOutResult summarizes one nearby-alert fan-out.
type FanOutResult struct {
	Enqueued int
	Skipped  int
	Failed   int
}

// AlertNearby enqueues one REPORT_NEARBY notification per recipient. The
// deterministic job id collapses repeated triggers for the same
// (report, recipient) pair into a single pending job. Each recipient's
// enqueue is independent: one failure is logged and never blocks the rest.
func (s *Service) AlertNearby(ctx context.Context, reportID, title, message string, recipientIDs []string) FanOutResult {
	var res FanOutResult
	for _, recipientID := range recipientIDs {
		ev := notification.NewReportNearbyEvent(recipientID, reportID, title, message)
		job, err := s.producer.Enqueue(ctx, ev)
		switch {
		case err != nil:
			res.Failed++
			s.logger.Warn().
				Str("report_id", reportID).
				Str("recipient_id", recipientID).
				Str("result", "fail").
				Str("error_code", notification.ErrorCode(err)).
				Err(err).
				Msg("nearby alert enqueue failed")
		case job == nil:
			res.Skipped++
		default:
			res.Enqueued++
			s.logger.Info().
				Str("report_id", reportID).
				Str("recipient_id", recipientID).
				Str("job_id", job.ID).
				Bool("deduplicated", job.Deduplicated).
				Str("result", "ok").
				Msg("nearby alert enqueued")
		}
	}
	return res
}

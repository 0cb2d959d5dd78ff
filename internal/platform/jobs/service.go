package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	JobPayslipPDF       = "payslip_pdf"
	JobTransferOrderPDF = "transfer_order_pdf"
)

type RunFunc func(context.Context) (any, error)

// Service is a single-worker in-process queue. Every run is recorded in job_runs.
type Service struct {
	DB    *pgxpool.Pool
	queue chan job
}

type job struct {
	Type string
	Run  RunFunc
}

func New(db *pgxpool.Pool, queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = 128
	}
	return &Service{
		DB:    db,
		queue: make(chan job, queueSize),
	}
}

// Enqueue never blocks; a full queue drops the job with a warning.
func (s *Service) Enqueue(jobType string, run RunFunc) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// Run consumes the queue until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.DB != nil {
		if err := s.DB.QueryRow(ctx, `
      INSERT INTO job_runs (job_type, status)
      VALUES ($1,$2)
      RETURNING id::text
    `, j.Type, "running").Scan(&runID); err != nil {
			slog.Warn("job run insert failed", "err", err)
		}
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
		details = map[string]any{"error": err.Error(), "details": details}
	}
	detailsJSON, marshalErr := json.Marshal(summarize(details))
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

// summarize keeps rendered documents out of job_runs.
func summarize(details any) any {
	if data, ok := details.([]byte); ok {
		return map[string]any{"bytes": len(data)}
	}
	return details
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

var ErrRunNotFound = errors.New("job run not found")

// RunRecord is one row of job_runs.
type RunRecord struct {
	ID          string     `json:"id"`
	JobType     string     `json:"jobType"`
	Status      string     `json:"status"`
	Details     any        `json:"details"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type RunFilter struct {
	JobType string
	Status  string
	From    *time.Time
	To      *time.Time
}

const runColumns = "id::text, job_type, status, COALESCE(details_json, '{}'::jsonb), created_at, completed_at"

// Runs lists recorded runs, newest first. Without a database it returns nothing.
func (s *Service) Runs(ctx context.Context, filter RunFilter, limit, offset int) ([]RunRecord, error) {
	if s.DB == nil {
		return []RunRecord{}, nil
	}
	query, args := runsQuery("SELECT "+runColumns, filter)
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Service) CountRuns(ctx context.Context, filter RunFilter) (int, error) {
	if s.DB == nil {
		return 0, nil
	}
	query, args := runsQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) RunByID(ctx context.Context, id string) (RunRecord, error) {
	if s.DB == nil {
		return RunRecord{}, ErrRunNotFound
	}
	run, err := scanRun(s.DB.QueryRow(ctx, "SELECT "+runColumns+" FROM job_runs WHERE id::text = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return RunRecord{}, ErrRunNotFound
	}
	return run, err
}

func runsQuery(prefix string, filter RunFilter) (string, []any) {
	query := prefix + " FROM job_runs WHERE 1=1"
	var args []any
	if value := strings.TrimSpace(filter.JobType); value != "" {
		args = append(args, value)
		query += " AND job_type = $" + strconv.Itoa(len(args))
	}
	if value := strings.TrimSpace(filter.Status); value != "" {
		args = append(args, value)
		query += " AND status = $" + strconv.Itoa(len(args))
	}
	if filter.From != nil && !filter.From.IsZero() {
		args = append(args, *filter.From)
		query += " AND created_at >= $" + strconv.Itoa(len(args))
	}
	if filter.To != nil && !filter.To.IsZero() {
		args = append(args, *filter.To)
		query += " AND created_at <= $" + strconv.Itoa(len(args))
	}
	return query, args
}

func scanRun(row pgx.Row) (RunRecord, error) {
	var (
		run        RunRecord
		detailsRaw []byte
	)
	if err := row.Scan(&run.ID, &run.JobType, &run.Status, &detailsRaw, &run.CreatedAt, &run.CompletedAt); err != nil {
		return RunRecord{}, err
	}
	run.Details = decodeDetails(detailsRaw)
	return run, nil
}

func decodeDetails(raw []byte) any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}

// Package history persists completed checks in SQLite and answers history and stats queries.
package history

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Manjussha/allocheck/internal/db"
	"github.com/Manjussha/allocheck/internal/estimator"
)

// Store wraps the database and provides check history operations.
type Store struct {
	database *db.DB
}

// New creates a Store.
func New(database *db.DB) *Store {
	return &Store{database: database}
}

// Record inserts one estimate.
func (s *Store) Record(ctx context.Context, est *estimator.Estimate, source string) (int64, error) {
	res, err := s.database.ExecContext(ctx, `
		INSERT INTO checks (check_id, address, source, estimated_tokens, tier, tier_label,
		                    hardware_tier, task_score, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		est.ID, est.Address, source,
		est.Allocation.EstimatedTokens, int(est.Allocation.Tier), est.Allocation.TierLabel,
		est.Telemetry.HardwareTier, est.Telemetry.TaskScore,
		est.CheckedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("history.Record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history.Record: last insert id: %w", err)
	}
	return id, nil
}

// Publish implements estimator.Sink. Failures are logged, never returned.
func (s *Store) Publish(ctx context.Context, est *estimator.Estimate) {
	if _, err := s.Record(ctx, est, estimator.SourceFrom(ctx)); err != nil {
		log.Printf("history.Publish: %v", err)
	}
}

// Filter narrows List results. Zero values mean "any".
type Filter struct {
	Address string
	Tier    int
	Page    int
	Limit   int
}

// List returns checks newest first, plus the total matching count.
func (s *Store) List(ctx context.Context, f Filter) ([]db.Check, int, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	where := " WHERE 1=1"
	args := []interface{}{}
	if f.Address != "" {
		where += " AND address=?"
		args = append(args, f.Address)
	}
	if f.Tier > 0 {
		where += " AND tier=?"
		args = append(args, f.Tier)
	}

	var total int
	if err := s.database.QueryRowContext(ctx, "SELECT COUNT(*) FROM checks"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("history.List: count: %w", err)
	}

	query := `SELECT id, check_id, address, source, estimated_tokens, tier, tier_label,
		hardware_tier, task_score, created_at FROM checks` + where + ` ORDER BY id DESC LIMIT ? OFFSET ?`
	rows, err := s.database.QueryContext(ctx, query, append(args, f.Limit, (f.Page-1)*f.Limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("history.List: %w", err)
	}
	defer rows.Close()

	checks, err := scanChecks(rows)
	if err != nil {
		return nil, 0, err
	}
	return checks, total, nil
}

// Recent returns the n newest checks.
func (s *Store) Recent(ctx context.Context, n int) ([]db.Check, error) {
	checks, _, err := s.List(ctx, Filter{Limit: n})
	return checks, err
}

// Stats summarizes checks recorded since a point in time.
type Stats struct {
	Since           time.Time   `json:"since"`
	Total           int         `json:"total"`
	UniqueAddresses int         `json:"unique_addresses"`
	AverageTokens   int         `json:"average_tokens"`
	MaxTokens       int         `json:"max_tokens"`
	ByTier          map[int]int `json:"by_tier"`
}

// Stats aggregates checks created at or after since.
func (s *Store) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	st := &Stats{Since: since.UTC(), ByTier: make(map[int]int)}
	for tier := 1; tier <= 5; tier++ {
		st.ByTier[tier] = 0
	}

	var avg float64
	err := s.database.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT address),
		       COALESCE(AVG(estimated_tokens), 0), COALESCE(MAX(estimated_tokens), 0)
		FROM checks WHERE created_at >= ?`, since.UTC(),
	).Scan(&st.Total, &st.UniqueAddresses, &avg, &st.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("history.Stats: totals: %w", err)
	}
	st.AverageTokens = int(avg)

	rows, err := s.database.QueryContext(ctx,
		`SELECT tier, COUNT(*) FROM checks WHERE created_at >= ? GROUP BY tier`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("history.Stats: by tier: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tier, n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, fmt.Errorf("history.Stats: scan: %w", err)
		}
		st.ByTier[tier] = n
	}
	return st, rows.Err()
}

// Prune deletes checks older than the cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.database.ExecContext(ctx, `DELETE FROM checks WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("history.Prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("history.Prune: rows affected: %w", err)
	}
	return n, nil
}

func scanChecks(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}) ([]db.Check, error) {
	var checks []db.Check
	for rows.Next() {
		var c db.Check
		if err := rows.Scan(
			&c.ID, &c.CheckID, &c.Address, &c.Source, &c.EstimatedTokens, &c.Tier,
			&c.TierLabel, &c.HardwareTier, &c.TaskScore, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("history.scanChecks: %w", err)
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

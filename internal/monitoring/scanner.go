package monitoring

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DueScanner periodically sweeps the task store for overdue, incomplete
// tasks and logs a per-user summary. It never mutates tasks.
type DueScanner struct {
	db       *sql.DB
	schedule cron.Schedule
	done     chan struct{}
}

// NewDueScanner creates a scanner firing on the given standard cron
// expression.
func NewDueScanner(db *sql.DB, cronExpr string) (*DueScanner, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid scan schedule %q: %w", cronExpr, err)
	}
	return &DueScanner{
		db:       db,
		schedule: schedule,
		done:     make(chan struct{}),
	}, nil
}

// Run starts the scanner loop. It blocks until Stop is called.
func (s *DueScanner) Run() {
	log.Info().Msg("Starting due-task scanner...")
	for {
		next := s.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-s.done:
			timer.Stop()
			log.Info().Msg("Stopping due-task scanner.")
			return
		case <-timer.C:
			s.sweep()
		}
	}
}

// Stop halts the scanner.
func (s *DueScanner) Stop() {
	close(s.done)
}

func (s *DueScanner) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	counts, err := s.overdueCounts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Due-task sweep failed")
		return
	}

	total := 0
	for userID, n := range counts {
		total += n
		log.Info().Str("user_id", userID).Int("overdue", n).Msg("User has overdue tasks")
	}
	log.Info().Int("users", len(counts)).Int("overdue_total", total).Msg("Due-task sweep complete")
}

// overdueCounts returns, per user, the number of incomplete tasks whose due
// date has passed.
func (s *DueScanner) overdueCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, COUNT(*) FROM tasks WHERE completed = 0 AND due_date IS NOT NULL AND due_date < ? GROUP BY user_id",
		time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var userID string
		var n int
		if err := rows.Scan(&userID, &n); err != nil {
			return nil, err
		}
		counts[userID] = n
	}
	return counts, rows.Err()
}

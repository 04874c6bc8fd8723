// Package visits counts how often each visitor has opened the calculator.
// Counting is best effort: a failing counter never reaches the GPA code.
package visits

import (
	"context"
	"errors"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"gorm.io/gorm"

	"gpa-calculator/internal/models"
)

var ErrNoVisitor = errors.New("visitor id required")

// Counter increments the visitor's count and returns the new value.
type Counter interface {
	Hit(ctx context.Context, visitorID string) (int64, error)
}

// LocalCounter keeps counts in the service's sqlite database.
type LocalCounter struct {
	db  *gorm.DB
	now func() time.Time
}

func NewLocalCounter(db *gorm.DB) *LocalCounter {
	return &LocalCounter{db: db, now: time.Now}
}

func (c *LocalCounter) Hit(ctx context.Context, visitorID string) (int64, error) {
	if visitorID == "" {
		return 0, ErrNoVisitor
	}
	now := c.now()

	var visit models.Visit
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Visit{}).
			Where("visitor_id = ?", visitorID).
			Updates(map[string]interface{}{
				"count":     gorm.Expr("count + 1"),
				"last_seen": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			visit = models.Visit{VisitorID: visitorID, Count: 1, FirstSeen: now, LastSeen: now}
			return tx.Create(&visit).Error
		}
		return tx.First(&visit, "visitor_id = ?", visitorID).Error
	})
	if err != nil {
		return 0, err
	}
	return visit.Count, nil
}

type nopCounter struct{}

func (nopCounter) Hit(context.Context, string) (int64, error) { return 0, nil }

// NopCounter is used when visit counting is switched off.
func NopCounter() Counter { return nopCounter{} }

// Tracker wraps a Counter so that failures are logged and read as zero.
type Tracker struct {
	counter Counter
	logger  log.Logger
}

func NewTracker(counter Counter, logger log.Logger) *Tracker {
	return &Tracker{counter: counter, logger: logger}
}

func (t *Tracker) Visit(ctx context.Context, visitorID string) int64 {
	n, err := t.counter.Hit(ctx, visitorID)
	if err != nil {
		level.Warn(t.logger).Log("msg", "visit counter unavailable", "visitor", visitorID, "err", err)
		return 0
	}
	return n
}

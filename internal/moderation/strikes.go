package moderation

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/modbot/internal/db"
)

type strikeStore interface {
	GetStrikes(ctx context.Context, accountID string) (*db.AccountStrikes, error)
	AddReportedStrike(ctx context.Context, accountID string) error
	AddMaliciousStrike(ctx context.Context, accountID string) error
	UpsertSuspension(ctx context.Context, suspension *db.ReporterSuspension) error
	GetSuspension(ctx context.Context, accountID string) (*db.ReporterSuspension, error)
}

// Strikes tracks adverse findings per account: strikes against reported
// offenders, strikes against bad-faith reporters, and reporter
// suspensions with a fixed expiry window.
type Strikes struct {
	store      strikeStore
	suspendFor time.Duration
	logger     *log.Entry
}

func NewStrikes(store strikeStore, suspendFor time.Duration) *Strikes {
	return &Strikes{
		store:      store,
		suspendFor: suspendFor,
		logger:     log.WithField("component", "strikes"),
	}
}

func (s *Strikes) Get(ctx context.Context, accountID string) (reported, malicious int) {
	strikes, err := s.store.GetStrikes(ctx, accountID)
	if err != nil {
		s.logger.WithError(err).WithField("account", accountID).Error("cant get strikes")
		return 0, 0
	}
	return strikes.ReportedStrikes, strikes.MaliciousStrikes
}

func (s *Strikes) AddReported(ctx context.Context, accountID string) error {
	return errors.Wrap(s.store.AddReportedStrike(ctx, accountID), "add reported strike")
}

func (s *Strikes) AddMalicious(ctx context.Context, accountID string) error {
	return errors.Wrap(s.store.AddMaliciousStrike(ctx, accountID), "add malicious strike")
}

func (s *Strikes) SuspendReporter(ctx context.Context, accountID string, now time.Time) error {
	err := s.store.UpsertSuspension(ctx, &db.ReporterSuspension{AccountID: accountID, SuspendedAt: now})
	return errors.Wrap(err, "suspend reporter")
}

// IsSuspended reports whether the account currently has an unexpired
// reporting suspension. Expired entries are ignored, not deleted.
func (s *Strikes) IsSuspended(ctx context.Context, accountID string, now time.Time) bool {
	suspension, err := s.store.GetSuspension(ctx, accountID)
	if err != nil {
		s.logger.WithError(err).WithField("account", accountID).Error("cant get suspension")
		return false
	}
	if suspension == nil {
		return false
	}
	return now.Sub(suspension.SuspendedAt) < s.suspendFor
}

func (s *Strikes) SuspendDuration() time.Duration {
	return s.suspendFor
}

package db

import "time"

type (
	AccountStrikes struct {
		AccountID        string `db:"account_id"`
		ReportedStrikes  int    `db:"reported_strikes"`
		MaliciousStrikes int    `db:"malicious_strikes"`
	}

	ReporterSuspension struct {
		AccountID   string    `db:"account_id"`
		SuspendedAt time.Time `db:"suspended_at"`
	}

	BlacklistEntry struct {
		Entry   string    `db:"entry"`
		AddedAt time.Time `db:"added_at"`
	}

	// UserReport is one activity-ledger row; the primary key on
	// (reporter_id, message_url) is the duplicate-report guard.
	UserReport struct {
		ReporterID string    `db:"reporter_id"`
		MessageURL string    `db:"message_url"`
		ReportedAt time.Time `db:"reported_at"`
	}
)

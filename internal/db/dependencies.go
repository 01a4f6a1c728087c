package db

import "context"

type Client interface {
	Close() error

	GetStrikes(ctx context.Context, accountID string) (*AccountStrikes, error)
	AddReportedStrike(ctx context.Context, accountID string) error
	AddMaliciousStrike(ctx context.Context, accountID string) error

	UpsertSuspension(ctx context.Context, suspension *ReporterSuspension) error
	GetSuspension(ctx context.Context, accountID string) (*ReporterSuspension, error)

	InsertBlacklistEntry(ctx context.Context, entry string) error
	GetBlacklist(ctx context.Context) ([]string, error)

	InsertUserReport(ctx context.Context, report *UserReport) error
	HasUserReport(ctx context.Context, reporterID, messageURL string) (bool, error)
}

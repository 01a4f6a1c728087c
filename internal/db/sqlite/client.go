package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/iamwavecut/modbot/internal/db"
	"github.com/iamwavecut/modbot/resources"
)

type sqliteClient struct {
	db    *sqlx.DB
	mutex sync.RWMutex
}

func NewSQLiteClient(ctx context.Context, workDir, dbName string) (*sqliteClient, error) {
	dbx, err := sqlx.Open("sqlite", filepath.Join(workDir, dbName))
	if err != nil {
		return nil, errors.Wrap(err, "cant open db")
	}
	dbx.SetMaxOpenConns(42)
	if err := dbx.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "cant ping db")
	}

	migrationsSource := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: resources.FS,
		Root:       "migrations",
	}
	_, _, err = migrate.PlanMigration(dbx.DB, "sqlite3", migrationsSource, migrate.Up, 0)
	if err != nil {
		return nil, errors.Wrap(err, "migrate plan failed")
	}

	n, err := migrate.Exec(dbx.DB, "sqlite3", migrationsSource, migrate.Up)
	if err != nil {
		return nil, errors.Wrap(err, "migrate up failed")
	}
	if n > 0 {
		log.Infof("applied %d migrations!", n)
	}

	return &sqliteClient{db: dbx}, nil
}

func (c *sqliteClient) Close() error {
	return c.db.Close()
}

func (c *sqliteClient) GetStrikes(ctx context.Context, accountID string) (*db.AccountStrikes, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	res := &db.AccountStrikes{AccountID: accountID}
	err := c.db.GetContext(ctx, res,
		"SELECT account_id, reported_strikes, malicious_strikes FROM account_strikes WHERE account_id = ?", accountID)
	if err == sql.ErrNoRows {
		return res, nil
	}
	return res, err
}

func (c *sqliteClient) AddReportedStrike(ctx context.Context, accountID string) error {
	return c.bumpStrike(ctx, accountID, "reported_strikes")
}

func (c *sqliteClient) AddMaliciousStrike(ctx context.Context, accountID string) error {
	return c.bumpStrike(ctx, accountID, "malicious_strikes")
}

func (c *sqliteClient) bumpStrike(ctx context.Context, accountID, column string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO account_strikes (account_id, ` + column + `)
		VALUES (?, 1)
		ON CONFLICT(account_id) DO UPDATE SET ` + column + ` = ` + column + ` + 1;
	`
	_, err := c.db.ExecContext(ctx, query, accountID)
	return err
}

func (c *sqliteClient) UpsertSuspension(ctx context.Context, suspension *db.ReporterSuspension) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO reporter_suspensions (account_id, suspended_at)
		VALUES (:account_id, :suspended_at)
		ON CONFLICT(account_id) DO UPDATE SET suspended_at = excluded.suspended_at;
	`
	_, err := c.db.NamedExecContext(ctx, query, suspension)
	return err
}

func (c *sqliteClient) GetSuspension(ctx context.Context, accountID string) (*db.ReporterSuspension, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	res := &db.ReporterSuspension{}
	err := c.db.GetContext(ctx, res,
		"SELECT account_id, suspended_at FROM reporter_suspensions WHERE account_id = ?", accountID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

package sqlite

import (
	"context"
	"fmt"

	"github.com/iamwavecut/modbot/internal/db"
)

func (c *sqliteClient) InsertUserReport(ctx context.Context, report *db.UserReport) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO user_reports (reporter_id, message_url, reported_at)
		VALUES (:reporter_id, :message_url, :reported_at);
	`
	_, err := c.db.NamedExecContext(ctx, query, report)
	if err != nil {
		return fmt.Errorf("failed to insert user report: %w", err)
	}
	return nil
}

func (c *sqliteClient) HasUserReport(ctx context.Context, reporterID, messageURL string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var count int
	err := c.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM user_reports WHERE reporter_id = ? AND message_url = ?", reporterID, messageURL)
	return count > 0, err
}

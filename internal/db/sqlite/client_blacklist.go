package sqlite

import (
	"context"
)

func (c *sqliteClient) InsertBlacklistEntry(ctx context.Context, entry string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, err := c.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO blacklist (entry) VALUES (?)", entry)
	return err
}

func (c *sqliteClient) GetBlacklist(ctx context.Context) ([]string, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var entries []string
	err := c.db.SelectContext(ctx, &entries, "SELECT entry FROM blacklist")
	return entries, err
}

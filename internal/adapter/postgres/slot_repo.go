package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bbt/internal/domain"
)

var _ domain.SlotStore = (*DB)(nil)

// LoadSlot returns the payload saved under key.
func (d *DB) LoadSlot(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := d.sql.QueryRowContext(ctx, "SELECT payload FROM slots WHERE key = $1;", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %s: %w", key, err)
	}
	return payload, nil
}

// SaveSlot upserts the payload for key.
func (d *DB) SaveSlot(ctx context.Context, key string, payload []byte) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO slots(key, payload, updated_at) VALUES($1, $2, $3) ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at;",
		key, payload, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save slot %s: %w", key, err)
	}
	return nil
}

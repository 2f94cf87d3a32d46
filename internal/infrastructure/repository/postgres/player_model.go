package postgres

import (
	"database/sql"
	"time"
)

type playerTableModel struct {
	ID         int64          `db:"id"`
	PlayerID   string         `db:"player_id"`
	Name       string         `db:"name"`
	TeamID     sql.NullString `db:"team_id"`
	SeasonYear int            `db:"season_year"`
	Stats      []byte         `db:"stats"`
	SyncedAt   time.Time      `db:"synced_at"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

type playerInsertModel struct {
	PlayerID   string    `db:"player_id"`
	Name       string    `db:"name"`
	TeamID     *string   `db:"team_id"`
	SeasonYear int       `db:"season_year"`
	Stats      []byte    `db:"stats"`
	SyncedAt   time.Time `db:"synced_at"`
}

package postgres

import "time"

type teamTableModel struct {
	ID        int64     `db:"id"`
	TeamID    string    `db:"team_id"`
	Name      string    `db:"name"`
	Abbrev    string    `db:"abbrev"`
	SyncedAt  time.Time `db:"synced_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type teamInsertModel struct {
	TeamID   string    `db:"team_id"`
	Name     string    `db:"name"`
	Abbrev   string    `db:"abbrev"`
	SyncedAt time.Time `db:"synced_at"`
}

package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Source loads the current settings from their system of record.
type Source interface {
	Load(ctx context.Context) (Settings, error)
}

// StaticSource always returns the same settings.
type StaticSource Settings

func (s StaticSource) Load(context.Context) (Settings, error) {
	return Settings(s), nil
}

// PostgresSource reads the singleton row of the configs table.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

var ErrNotConfigured = errors.New("settings: configs row missing")

func (s *PostgresSource) Load(ctx context.Context) (Settings, error) {
	const q = `
SELECT meeting_dur_mins, meeting_buffer_mins,
       to_char(meeting_min_start, 'HH24:MI'), to_char(meeting_max_end, 'HH24:MI')
FROM configs
ORDER BY id
LIMIT 1
`
	var (
		out           Settings
		start, finish string
	)
	if err := s.db.QueryRowContext(ctx, q).Scan(&out.MeetingDurMins, &out.MeetingBufferMins, &start, &finish); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Settings{}, ErrNotConfigured
		}
		return Settings{}, err
	}

	var err error
	if out.MeetingMinStart, err = ParseTimeOfDay(start); err != nil {
		return Settings{}, fmt.Errorf("meeting_min_start: %w", err)
	}
	if out.MeetingMaxEnd, err = ParseTimeOfDay(finish); err != nil {
		return Settings{}, fmt.Errorf("meeting_max_end: %w", err)
	}
	return out, nil
}

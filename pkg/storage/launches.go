package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rubiojr/omnibox/pkg/core"
)

// Launch is one recorded app start.
type Launch struct {
	App        core.AppEntry
	LaunchedAt time.Time
}

// RecordLaunch stores that app was started at the given time.
func (s *Store) RecordLaunch(ctx context.Context, app core.AppEntry, at time.Time) error {
	if app.ID == "" {
		return fmt.Errorf("recording launch: app id is empty")
	}
	name := app.Name
	if name == "" {
		name = app.ID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO launches (app_id, name, exec, icon, launched_at) VALUES (?, ?, ?, ?, ?)`,
		app.ID, name, app.Exec, app.Icon, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording launch of %s: %w", app.ID, err)
	}
	return nil
}

// RecentLaunches returns the latest launch of each distinct app, most recent first.
func (s *Store) RecentLaunches(ctx context.Context, limit int) ([]Launch, error) {
	if limit <= 0 {
		limit = 8
	}
	// Bare columns come from the row holding MAX(id), i.e. the latest launch.
	rows, err := s.db.QueryContext(ctx, `
		SELECT app_id, name, exec, icon, launched_at, MAX(id) AS last
		FROM launches
		GROUP BY app_id
		ORDER BY last DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent launches: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warnf("failed to close rows: %v", err)
		}
	}()

	var launches []Launch
	for rows.Next() {
		var (
			l    Launch
			last int64
		)
		if err := rows.Scan(&l.App.ID, &l.App.Name, &l.App.Exec, &l.App.Icon, &l.LaunchedAt, &last); err != nil {
			return nil, fmt.Errorf("scanning launch row: %w", err)
		}
		launches = append(launches, l)
	}
	return launches, rows.Err()
}

// RecentApps returns distinct recently launched apps, most recent first.
func (s *Store) RecentApps(ctx context.Context, limit int) ([]core.AppEntry, error) {
	launches, err := s.RecentLaunches(ctx, limit)
	if err != nil {
		return nil, err
	}
	apps := make([]core.AppEntry, 0, len(launches))
	for _, l := range launches {
		apps = append(apps, l.App)
	}
	return apps, nil
}

// ClearLaunches deletes the launch history.
func (s *Store) ClearLaunches(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM launches`); err != nil {
		return fmt.Errorf("clearing launches: %w", err)
	}
	return nil
}

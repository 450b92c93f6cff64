package db

import (
	"context"
	"fmt"
	"time"
)

// Deployment is one journal row: what a single run copied and how it ended.
type Deployment struct {
	ID           int64
	StartedAt    time.Time
	FinishedAt   time.Time
	FilesCopied  int
	FilesDeleted int
	BytesCopied  int64
	SpriteStamp  string
	Status       string
}

func (d *Database) RecordDeployment(ctx context.Context, dep Deployment) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO deployments (started_at, finished_at, files_copied, files_deleted, bytes_copied, sprite_stamp, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		dep.StartedAt, dep.FinishedAt, dep.FilesCopied, dep.FilesDeleted, dep.BytesCopied, dep.SpriteStamp, dep.Status,
	)
	if err != nil {
		return fmt.Errorf("could not insert deployment record: %w", err)
	}
	return nil
}

func (d *Database) RecentDeployments(ctx context.Context, limit int) ([]Deployment, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, files_copied, files_deleted, bytes_copied, sprite_stamp, status
		FROM deployments ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("could not query deployment records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var deps []Deployment
	for rows.Next() {
		var dep Deployment
		err = rows.Scan(&dep.ID, &dep.StartedAt, &dep.FinishedAt, &dep.FilesCopied, &dep.FilesDeleted, &dep.BytesCopied, &dep.SpriteStamp, &dep.Status)
		if err != nil {
			return nil, fmt.Errorf("could not scan deployment record: %w", err)
		}
		deps = append(deps, dep)
	}
	return deps, rows.Err()
}

package archiver

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"envirofetch/services/archiver/db"

	_ "modernc.org/sqlite"
)

// Manifest is an audit log of archive runs kept in a sqlite file. It
// records outcomes only, the skip decision stays with the output files
// themselves.
type Manifest struct {
	database *sql.DB
	runId    int64
}

func OpenManifest(ctx context.Context, path string) (*Manifest, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = database.ExecContext(ctx, db.Schema)
	if err != nil {
		database.Close()
		return nil, err
	}

	res, err := database.ExecContext(
		ctx,
		`INSERT INTO runs (started_at) VALUES (?)`,
		time.Now().Unix(),
	)
	if err != nil {
		database.Close()
		return nil, err
	}
	runId, err := res.LastInsertId()
	if err != nil {
		database.Close()
		return nil, err
	}

	return &Manifest{database: database, runId: runId}, nil
}

func (m *Manifest) Record(ctx context.Context, item Item) error {
	_, err := m.database.ExecContext(
		ctx,
		`INSERT INTO run_items
			(run_id, table_name, year, status, row_count, path, reason, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.runId,
		item.Table,
		item.Year,
		string(item.Status),
		item.Rows,
		item.Path,
		item.Reason,
		time.Now().Unix(),
	)
	return err
}

func (m *Manifest) Close(ctx context.Context) error {
	_, err := m.database.ExecContext(
		ctx,
		`UPDATE runs SET finished_at = ? WHERE id = ?`,
		time.Now().Unix(),
		m.runId,
	)
	return errors.Join(err, m.database.Close())
}

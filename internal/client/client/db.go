package client

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/reconkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/reconkeeper/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/reconkeeper/internal/dbx"
	"github.com/dmitrijs2005/reconkeeper/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Repositories groups the local persistence the CLI opens at startup.
type Repositories struct {
	Sessions sessions.Repository
	DB       *sql.DB
}

// Close releases the underlying database handle.
func (r *Repositories) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the journal at dsn, creating its directory when needed,
// and applies the embedded migrations.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	if err := filex.EnsureParentDir(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		Sessions: sessions.NewSQLiteRepository(db),
		DB:       db,
	}, nil
}

// PruneSessions deletes confirmed and aborted journal rows last touched
// before the given time, in one transaction, and returns their file ids.
func (r *Repositories) PruneSessions(ctx context.Context, before time.Time) ([]string, error) {
	var ids []string

	err := dbx.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := sessions.NewSQLiteRepository(tx)

		settled, err := repo.ListSettled(ctx, before)
		if err != nil {
			return err
		}
		for _, s := range settled {
			if err := repo.Delete(ctx, s.FileID); err != nil {
				return err
			}
			ids = append(ids, s.FileID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("prune sessions: %w", err)
	}

	return ids, nil
}

// Package sessions provides the local journal of granted multipart uploads.
//
// # Overview
//
// Every multipart grant is recorded before the first part is sent, so a
// session left behind by a crash, a cancel or a failed confirm can later be
// listed and aborted against the object store. Single-shot uploads are never
// journaled: an unconfirmed single PUT leaves no server-side session.
//
// Key Types
//
//   - type Repository: contract used by the upload and orphan services
//   - type SQLiteRepository: SQLite implementation over dbx.DBTX
//
// Typical Usage
//
//	repo := sessions.NewSQLiteRepository(db)
//	_ = repo.Record(ctx, s)
//	_ = repo.SetStatus(ctx, s.FileID, models.SessionConfirmed, "")
//	open, _ := repo.ListOrphans(ctx)
package sessions

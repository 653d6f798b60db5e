// Package migration converts a legacy plaintext document store into the
// current sealed-column format.
//
// The conversion is a one-shot, all-or-nothing protocol: back up the store
// file, rebuild it sealed at a sibling path, verify the copy, then swap the
// new file into place. The original file stays recoverable from the backup
// until the swap has succeeded, so a failure at any step leaves the vault
// exactly as it was.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	cryptoService "github.com/scanvault/scanvault/internal/crypto/service"
	"github.com/scanvault/scanvault/internal/database"
	documentDomain "github.com/scanvault/scanvault/internal/document/domain"
	"github.com/scanvault/scanvault/internal/document/repository"
	apperrors "github.com/scanvault/scanvault/internal/errors"
)

var (
	// ErrMigrationFailed reports that a store conversion did not complete.
	// The joined error chain carries the step that failed.
	ErrMigrationFailed = apperrors.New("store migration failed")

	// ErrRestoreFailed reports that a failed conversion could not put the
	// original store file back. The backup stays on disk so the conversion
	// can be retried.
	ErrRestoreFailed = apperrors.New("failed to restore store backup")
)

const (
	// backupSuffix names the byte copy of the store kept while a
	// conversion is running.
	backupSuffix = ".migration-backup"

	// workingSuffix names the new store while it is being built.
	workingSuffix = ".migrating"

	defaultBatchSize = 500

	// maxBatchSize keeps the widest table's per-statement parameter count
	// inside sqlite's limit.
	maxBatchSize = 1000
)

// Status classifies the outcome of a migration run.
type Status string

const (
	// StatusNotNeeded means there was nothing to convert: no store file,
	// or the store already carries the cipher marker.
	StatusNotNeeded Status = "not_needed"

	// StatusSkipped means a file exists but cannot be queried as a
	// document store. It is left untouched.
	StatusSkipped Status = "skipped"

	// StatusMigrated means the store was converted.
	StatusMigrated Status = "migrated"
)

// Result describes one migration run.
type Result struct {
	Status     Status
	RowsCopied map[string]int64
	Duration   time.Duration
}

// tableSpec describes one table to copy. sealColumns lists the columns
// whose plaintext values are sealed on the way over.
type tableSpec struct {
	name        string
	columns     []string
	sealColumns []string
}

// sealIndexes resolves sealColumns to positions in columns.
func (t tableSpec) sealIndexes() []int {
	var indexes []int
	for i, column := range t.columns {
		for _, sealed := range t.sealColumns {
			if column == sealed {
				indexes = append(indexes, i)
			}
		}
	}
	return indexes
}

// copyOrder lists every table of the legacy store in foreign key dependency
// order, so each insert finds its referenced rows already present. The
// legacy full-text table is not listed: the token index is derived from the
// sealed columns after conversion.
var copyOrder = []tableSpec{
	{
		name:    "folders",
		columns: []string{"id", "name", "created_at", "updated_at"},
	},
	{
		name: "documents",
		columns: []string{
			"id", "title", "description", "thumbnail_path", "ocr_text",
			"ocr_status", "size_bytes", "mime_type", "folder_id",
			"is_favorite", "created_at", "updated_at",
		},
		sealColumns: []string{"title", "description", "ocr_text"},
	},
	{
		name:    "document_pages",
		columns: []string{"document_id", "page_number", "file_path"},
	},
	{
		name:    "tags",
		columns: []string{"id", "name", "color", "created_at"},
	},
	{
		name:    "document_tags",
		columns: []string{"document_id", "tag_id"},
	},
	{
		name:    "signatures",
		columns: []string{"id", "name", "file_path", "created_at"},
	},
	{
		name:        "search_history",
		columns:     []string{"id", "query", "searched_at"},
		sealColumns: []string{"query"},
	},
}

// Migrator converts the store file at a fixed path. It runs before the
// application opens the store for normal use, so it owns the file
// exclusively while it works.
type Migrator struct {
	storePath string
	codec     cryptoService.Codec
	batchSize int
	logger    *slog.Logger

	// beforeTableCopy runs before each table copy when set. Tests use it
	// to fail the conversion at a chosen point.
	beforeTableCopy func(table string) error
}

// NewMigrator creates a Migrator for the store file at storePath. batchSize
// bounds the rows per insert statement; out-of-range values are clamped.
func NewMigrator(storePath string, codec cryptoService.Codec, batchSize int, logger *slog.Logger) *Migrator {
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}
	if batchSize > maxBatchSize {
		batchSize = maxBatchSize
	}
	return &Migrator{
		storePath: storePath,
		codec:     codec,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run performs the conversion when one is needed. It is safe to call on
// every startup: a missing file, an already converted store, and a file
// that is not a document store at all each return without touching
// anything.
func (m *Migrator) Run(ctx context.Context) (*Result, error) {
	started := time.Now()

	if _, err := os.Stat(m.storePath); err != nil {
		if os.IsNotExist(err) {
			return &Result{Status: StatusNotNeeded, Duration: time.Since(started)}, nil
		}
		return nil, apperrors.Join(ErrMigrationFailed, apperrors.Wrap(err, "failed to stat store file"))
	}

	needed, probeErr := m.needsConversion(ctx)
	if probeErr != nil {
		m.logger.Warn("store is not queryable, skipping conversion",
			slog.String("path", m.storePath),
			slog.String("error", probeErr.Error()))
		return &Result{Status: StatusSkipped, Duration: time.Since(started)}, nil
	}
	if !needed {
		m.removeStaleBackup()
		return &Result{Status: StatusNotNeeded, Duration: time.Since(started)}, nil
	}

	m.logger.Info("store conversion started", slog.String("path", m.storePath))

	backupPath := m.storePath + backupSuffix
	if err := m.writeBackup(backupPath); err != nil {
		return nil, apperrors.Join(ErrMigrationFailed, err)
	}

	rowsCopied, err := m.convert(ctx)
	if err != nil {
		errs := []error{ErrMigrationFailed, err}
		if restoreErr := m.restore(backupPath); restoreErr != nil {
			errs = append(errs, restoreErr)
		}
		return nil, apperrors.Join(errs...)
	}

	// The conversion is complete and the new store is in place; the
	// backup no longer guards anything.
	if err := os.Remove(backupPath); err != nil {
		m.logger.Warn("failed to remove store backup",
			slog.String("path", backupPath),
			slog.String("error", err.Error()))
	}

	result := &Result{Status: StatusMigrated, RowsCopied: rowsCopied, Duration: time.Since(started)}
	var total int64
	for _, rows := range rowsCopied {
		total += rows
	}
	m.logger.Info("store conversion completed",
		slog.Int64("rows", total),
		slog.Duration("duration", result.Duration))
	return result, nil
}

// needsConversion probes the store file. An error return means the file is
// not a queryable document store.
func (m *Migrator) needsConversion(ctx context.Context) (bool, error) {
	db, err := database.Connect(m.connectConfig(m.storePath, true))
	if err != nil {
		return false, apperrors.Wrap(err, "failed to open store for probing")
	}
	defer func() { _ = db.Close() }()

	var documents int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&documents); err != nil {
		return false, apperrors.Wrap(err, "store has no queryable documents table")
	}

	// A store carrying the migration ledger was built by this application,
	// sealed from its first row. Legacy stores were created without it.
	var ledger int64
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'`,
	).Scan(&ledger)
	if err == nil && ledger > 0 {
		return false, nil
	}

	var marker string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM vault_meta WHERE key = ?`, documentDomain.MetaKeyCipherVersion,
	).Scan(&marker)
	switch {
	case err == nil:
		return false, nil
	case err == sql.ErrNoRows:
		return true, nil
	default:
		// Legacy stores predate vault_meta entirely; a missing table
		// reads the same as a missing marker.
		return true, nil
	}
}

// convert builds the sealed store at a sibling path and swaps it into
// place. On any error the working files are removed and the original store
// file is still present for restore.
func (m *Migrator) convert(ctx context.Context) (map[string]int64, error) {
	legacy, err := database.Connect(m.connectConfig(m.storePath, true))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open legacy store")
	}
	defer func() { _ = legacy.Close() }()

	workingPath := m.storePath + workingSuffix
	m.removeWorkingFiles(workingPath)

	next, err := database.Connect(m.connectConfig(workingPath, false))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create new store")
	}
	swapped := false
	defer func() {
		_ = next.Close()
		if !swapped {
			m.removeWorkingFiles(workingPath)
		}
	}()

	if err := database.MigrateUp(next); err != nil {
		return nil, apperrors.Wrap(err, "failed to apply schema to new store")
	}

	rowsCopied := make(map[string]int64, len(copyOrder))
	for _, table := range copyOrder {
		copied, err := m.copyTable(ctx, legacy, next, table)
		if err != nil {
			return nil, apperrors.Wrapf(err, "failed to copy table %s", table.name)
		}
		rowsCopied[table.name] = copied
		m.logger.Info("table copied",
			slog.String("table", table.name),
			slog.Int64("rows", copied))
	}

	if err := m.verify(ctx, legacy, next); err != nil {
		return nil, err
	}

	// The markers go in before the swap so a store sitting at the final
	// path is always either fully converted or fully legacy.
	meta := repository.NewSQLiteMetaRepository(next)
	if err := meta.Set(ctx, documentDomain.MetaKeyCipherVersion, documentDomain.CipherVersionSealed); err != nil {
		return nil, err
	}
	if err := meta.Set(ctx, documentDomain.MetaKeySearchIndexDirty, documentDomain.SearchIndexDirty); err != nil {
		return nil, err
	}

	// Closing checkpoints the new store into a single file before it is
	// renamed onto the legacy path.
	if err := next.Close(); err != nil {
		return nil, apperrors.Wrap(err, "failed to close new store")
	}
	if err := legacy.Close(); err != nil {
		return nil, apperrors.Wrap(err, "failed to close legacy store")
	}

	if err := os.Remove(m.storePath); err != nil {
		return nil, apperrors.Wrap(err, "failed to remove legacy store")
	}
	if err := os.Rename(workingPath, m.storePath); err != nil {
		return nil, apperrors.Wrap(err, "failed to move new store into place")
	}
	swapped = true
	return rowsCopied, nil
}

// copyTable moves one table's rows into the new store, sealing sensitive
// columns on the way. All inserts for a table run in one transaction.
func (m *Migrator) copyTable(ctx context.Context, legacy, next *sql.DB, table tableSpec) (int64, error) {
	if m.beforeTableCopy != nil {
		if err := m.beforeTableCopy(table.name); err != nil {
			return 0, err
		}
	}

	rows, err := legacy.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s", strings.Join(table.columns, ", "), table.name))
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read legacy rows")
	}
	defer rows.Close()

	tx, err := next.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to begin insert transaction")
	}
	defer func() { _ = tx.Rollback() }()

	sealIndexes := table.sealIndexes()

	var copied int64
	batch := make([][]any, 0, m.batchSize)
	for rows.Next() {
		values := make([]any, len(table.columns))
		scanTargets := make([]any, len(values))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return 0, apperrors.Wrap(err, "failed to scan legacy row")
		}

		for _, i := range sealIndexes {
			sealed, err := m.sealValue(ctx, values[i])
			if err != nil {
				return 0, err
			}
			values[i] = sealed
		}

		batch = append(batch, values)
		if len(batch) == m.batchSize {
			if err := insertBatch(ctx, tx, table, batch); err != nil {
				return 0, err
			}
			copied += int64(len(batch))
			batch = batch[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return 0, apperrors.Wrap(err, "failed to iterate legacy rows")
	}
	if len(batch) > 0 {
		if err := insertBatch(ctx, tx, table, batch); err != nil {
			return 0, err
		}
		copied += int64(len(batch))
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.Wrap(err, "failed to commit copied rows")
	}
	return copied, nil
}

// sealValue seals one sensitive column value. NULL and empty stay as they
// are, matching how the store writes absent values. A value that already
// looks sealed passes through unchanged so a retried conversion cannot
// seal twice.
func (m *Migrator) sealValue(ctx context.Context, value any) (any, error) {
	var s string
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unexpected value type %T in sealed column", value)
	}

	if s == "" || m.codec.IsLikelyEncryptedString(s) {
		return value, nil
	}
	sealed, err := m.codec.EncryptString(ctx, s)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to seal column value")
	}
	return sealed, nil
}

// insertBatch writes one multi-row insert for a batch of copied rows.
func insertBatch(ctx context.Context, tx *sql.Tx, table tableSpec, batch [][]any) error {
	placeholders := make([]string, len(table.columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	row := "(" + strings.Join(placeholders, ", ") + ")"

	valueRows := make([]string, len(batch))
	args := make([]any, 0, len(batch)*len(table.columns))
	for i, values := range batch {
		valueRows[i] = row
		args = append(args, values...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table.name, strings.Join(table.columns, ", "), strings.Join(valueRows, ", "))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.Wrap(err, "failed to insert batch")
	}
	return nil
}

// verify compares per-table row counts between the two stores and proves
// one copied document is readable in its new shape, including an unseal
// round trip on the title.
func (m *Migrator) verify(ctx context.Context, legacy, next *sql.DB) error {
	for _, table := range copyOrder {
		countQuery := "SELECT COUNT(*) FROM " + table.name

		var want, got int64
		if err := legacy.QueryRowContext(ctx, countQuery).Scan(&want); err != nil {
			return apperrors.Wrapf(err, "failed to count legacy rows in %s", table.name)
		}
		if err := next.QueryRowContext(ctx, countQuery).Scan(&got); err != nil {
			return apperrors.Wrapf(err, "failed to count copied rows in %s", table.name)
		}
		if want != got {
			return fmt.Errorf("row count mismatch in %s: legacy has %d rows, new store has %d", table.name, want, got)
		}
	}

	var id, title string
	err := next.QueryRowContext(ctx, `SELECT id, title FROM documents LIMIT 1`).Scan(&id, &title)
	switch {
	case err == sql.ErrNoRows:
		return nil
	case err != nil:
		return apperrors.Wrap(err, "failed to sample copied document")
	}

	if _, err := uuid.Parse(id); err != nil {
		return apperrors.Wrap(err, "sampled document has a malformed id")
	}
	if title != "" {
		if _, err := m.codec.DecryptString(ctx, title); err != nil {
			return apperrors.Wrap(err, "sampled document title does not unseal")
		}
	}
	return nil
}

// writeBackup copies the store file to backupPath and confirms the copy is
// byte complete before anything else runs.
func (m *Migrator) writeBackup(backupPath string) error {
	if err := copyFile(m.storePath, backupPath); err != nil {
		_ = os.Remove(backupPath)
		return apperrors.Wrap(err, "failed to write store backup")
	}

	src, err := os.Stat(m.storePath)
	if err != nil {
		_ = os.Remove(backupPath)
		return apperrors.Wrap(err, "failed to stat store file")
	}
	dst, err := os.Stat(backupPath)
	if err != nil {
		_ = os.Remove(backupPath)
		return apperrors.Wrap(err, "failed to stat store backup")
	}
	if src.Size() != dst.Size() {
		_ = os.Remove(backupPath)
		return fmt.Errorf("store backup size mismatch: store %d bytes, backup %d bytes", src.Size(), dst.Size())
	}

	m.logger.Info("store backup written", slog.String("path", backupPath))
	return nil
}

// restore puts the backup back over the store path. On success the backup
// is removed and the tree is exactly what it was before the run. On
// failure the backup stays so the conversion can be retried.
func (m *Migrator) restore(backupPath string) error {
	if err := copyFile(backupPath, m.storePath); err != nil {
		m.logger.Error("failed to restore store backup",
			slog.String("backup", backupPath),
			slog.String("error", err.Error()))
		return apperrors.Join(ErrRestoreFailed, err)
	}
	if err := os.Remove(backupPath); err != nil {
		m.logger.Warn("failed to remove store backup",
			slog.String("path", backupPath),
			slog.String("error", err.Error()))
	}
	m.logger.Info("store restored from backup", slog.String("path", m.storePath))
	return nil
}

// removeStaleBackup cleans up a backup that outlived a crash between the
// swap and the final cleanup. Once the store carries the cipher marker the
// backup guards nothing.
func (m *Migrator) removeStaleBackup() {
	backupPath := m.storePath + backupSuffix
	if err := os.Remove(backupPath); err == nil {
		m.logger.Warn("removed stale store backup", slog.String("path", backupPath))
	}
}

// removeWorkingFiles deletes the in-progress store and its journal
// siblings, typically leftovers of an interrupted run.
func (m *Migrator) removeWorkingFiles(workingPath string) {
	for _, path := range []string{workingPath, workingPath + "-wal", workingPath + "-shm"} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("failed to remove working file",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}
}

// connectConfig builds the connection settings for the conversion handles.
// A single pooled connection per handle keeps the copy strictly sequential.
func (m *Migrator) connectConfig(path string, readOnly bool) database.Config {
	return database.Config{
		Path:               path,
		MaxOpenConnections: 1,
		MaxIdleConnections: 1,
		BusyTimeout:        5 * time.Second,
		ReadOnly:           readOnly,
	}
}

// copyFile copies src over dst, flushing to disk before close.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

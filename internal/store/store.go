// Package store persists samples to an append-only SQLite table.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Dicklesworthstone/vitals/internal/errors"
	"github.com/Dicklesworthstone/vitals/internal/model"
)

// Store owns the measurements database handle. It is used by a single writer
// and must be closed once on shutdown.
type Store struct {
	db   *sql.DB
	path string

	closeOnce sync.Once
	closeErr  error
}

// Record is one stored row.
type Record struct {
	ID int64
	model.Sample
}

// Open opens or creates the database at path in WAL mode with
// synchronous=NORMAL: committed rows survive a process crash but not
// necessarily an OS crash at the instant of the write.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path, false))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrStore,
			"Failed to open store "+path, "")
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.WrapWithCode(err, errors.ErrStore,
			"Failed to open store "+path,
			"Check the directory exists and is writable")
	}
	return &Store{db: db, path: path}, nil
}

// OpenReadOnly opens an existing store for queries. It never creates the file
// and never migrates, so it is safe beside a running sampler. A store whose
// schema predates the current columns is rejected.
func OpenReadOnly(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrStore,
			"No store at "+path,
			"Check --db, or run vitals once to create it")
	}

	db, err := sql.Open("sqlite", dsn(path, true))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrStore,
			"Failed to open store "+path, "")
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, path: path}

	have, err := s.columns(ctx)
	if err != nil {
		s.Close()
		return nil, errors.WrapWithCode(err, errors.ErrStore,
			"Failed to open store "+path, "Check the file is a vitals database")
	}
	for _, col := range requiredColumns {
		if !have[col] {
			s.Close()
			return nil, errors.New(errors.ErrSchema,
				fmt.Sprintf("Store %s has no %s column", path, col),
				"Run vitals once against it to upgrade the schema")
		}
	}
	return s, nil
}

// uriEscaper escapes the characters SQLite gives meaning inside a file: URI,
// so any legal file name reaches the filesystem unchanged.
var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

func dsn(path string, readOnly bool) string {
	q := url.Values{}
	if readOnly {
		q.Set("mode", "ro")
	} else {
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "synchronous(NORMAL)")
	}
	q.Add("_pragma", "busy_timeout(5000)")
	u := url.URL{Scheme: "file", Opaque: uriEscaper.Replace(path), RawQuery: q.Encode()}
	return u.String()
}

// Path is the database file.
func (s *Store) Path() string { return s.path }

// EnsureSchema creates the measurements table when absent and adds any column
// missing from a store created by an older version. Existing rows are kept.
// Safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createMeasurements); err != nil {
		return schemaErr(err, "Failed to create measurements table")
	}

	have, err := s.columns(ctx)
	if err != nil {
		return schemaErr(err, "Failed to read measurements columns")
	}
	for _, col := range addedColumns {
		if have[col.name] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE measurements ADD COLUMN %s %s", col.name, col.decl)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return schemaErr(err, "Failed to add column "+col.name)
		}
	}

	if _, err := s.db.ExecContext(ctx, createCapturedAtIndex); err != nil {
		return schemaErr(err, "Failed to index measurements")
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return schemaErr(err, "Failed to stamp schema version")
	}
	return nil
}

func schemaErr(err error, msg string) error {
	return errors.WrapWithCode(err, errors.ErrSchema, msg,
		"The store cannot be used safely; check the file is writable")
}

// columns returns the set of column names in measurements.
func (s *Store) columns(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info(measurements)")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// SchemaVersion reports PRAGMA user_version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
	return v, err
}

// Append inserts one row and commits it before returning. Absent readings are
// stored as NULL.
func (s *Store) Append(ctx context.Context, smp model.Sample) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO measurements
            (captured_at, cpu_percent, ram_percent, gpu_load_percent, gpu_temp_c, cpu_temp_c)
         VALUES (?, ?, ?, ?, ?, ?)`,
		smp.CapturedAt.Local().Format(timeLayout),
		smp.CPUPercent,
		smp.RAMPercent,
		smp.GPULoadPercent.Ptr(),
		smp.GPUTempC.Ptr(),
		smp.CPUTempC.Ptr(),
	)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrStore,
			"Failed to append measurement",
			"Check free disk space and that no other process holds a write lock on "+s.path)
	}
	return nil
}

// Recent returns up to n of the newest rows, oldest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Record, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, captured_at, cpu_percent, ram_percent, gpu_load_percent, gpu_temp_c, cpu_temp_c
           FROM measurements ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrStore, "Failed to query measurements", "")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			at      string
			gpuLoad *float64
			gpuTemp *float64
			cpuTemp *float64
		)
		if err := rows.Scan(&rec.ID, &at, &rec.CPUPercent, &rec.RAMPercent, &gpuLoad, &gpuTemp, &cpuTemp); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrStore, "Failed to read measurement", "")
		}
		rec.CapturedAt, err = time.ParseInLocation(timeLayout, at, time.Local)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrStore,
				fmt.Sprintf("Row %d has a malformed timestamp", rec.ID), "")
		}
		rec.GPULoadPercent = model.FromPtr(gpuLoad)
		rec.GPUTempC = model.FromPtr(gpuTemp)
		rec.CPUTempC = model.FromPtr(cpuTemp)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrStore, "Failed to read measurements", "")
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Count returns the number of stored rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM measurements").Scan(&n); err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrStore, "Failed to count measurements", "")
	}
	return n, nil
}

// Close releases the database. Later calls return the first result.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

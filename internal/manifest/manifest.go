// Package manifest records what a build rewrote in a SQLite database so
// later tooling can ask which directories fed which module.
package manifest

import (
	"database/sql"
	"fmt"
	"path"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agentic-research/dirimport/internal/transform"
)

const schema = `
CREATE TABLE IF NOT EXISTS modules (
	file TEXT PRIMARY KEY,
	changed INTEGER NOT NULL,
	rewrites INTEGER NOT NULL,
	skips INTEGER NOT NULL,
	mtime INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS rewrites (
	file TEXT NOT NULL,
	source TEXT NOT NULL,
	mode TEXT NOT NULL,
	recursive INTEGER NOT NULL,
	container TEXT NOT NULL,
	directory TEXT NOT NULL,
	start_byte INTEGER NOT NULL,
	end_byte INTEGER NOT NULL,
	PRIMARY KEY (file, start_byte)
);

CREATE TABLE IF NOT EXISTS rewrite_files (
	file TEXT NOT NULL,
	start_byte INTEGER NOT NULL,
	seq INTEGER NOT NULL,
	pathname TEXT NOT NULL,
	slug TEXT NOT NULL,
	property TEXT NOT NULL,
	identifier TEXT NOT NULL,
	import_path TEXT NOT NULL,
	PRIMARY KEY (file, start_byte, seq)
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS skips (
	file TEXT NOT NULL,
	source TEXT NOT NULL,
	reason TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_skips_file ON skips(file);
`

// Writer appends transform results to a manifest database. Results are
// buffered in one transaction until Close.
type Writer struct {
	db *sql.DB
	tx *sql.Tx

	stmtModule  *sql.Stmt
	stmtRewrite *sql.Stmt
	stmtFile    *sql.Stmt
	stmtSkip    *sql.Stmt

	mu sync.Mutex
}

// Create opens (or creates) the manifest at dbPath. Rows previously
// recorded for a module are replaced when that module is recorded again.
func Create(dbPath string) (*Writer, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	w := &Writer{db: db}
	if err := w.begin(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) begin() error {
	var err error
	if w.tx, err = w.db.Begin(); err != nil {
		return err
	}
	if w.stmtModule, err = w.tx.Prepare(`
		INSERT OR REPLACE INTO modules (file, changed, rewrites, skips, mtime)
		VALUES (?, ?, ?, ?, ?)
	`); err != nil {
		return err
	}
	if w.stmtRewrite, err = w.tx.Prepare(`
		INSERT INTO rewrites (file, source, mode, recursive, container, directory, start_byte, end_byte)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`); err != nil {
		return err
	}
	if w.stmtFile, err = w.tx.Prepare(`
		INSERT INTO rewrite_files (file, start_byte, seq, pathname, slug, property, identifier, import_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`); err != nil {
		return err
	}
	w.stmtSkip, err = w.tx.Prepare(`INSERT INTO skips (file, source, reason) VALUES (?, ?, ?)`)
	return err
}

// Record writes one module's result.
func (w *Writer) Record(res *transform.Result) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, table := range []string{"rewrites", "rewrite_files", "skips"} {
		if _, err := w.tx.Exec("DELETE FROM "+table+" WHERE file = ?", res.File); err != nil {
			return fmt.Errorf("clear %s for %s: %w", table, res.File, err)
		}
	}

	if _, err := w.stmtModule.Exec(res.File, res.Changed(), len(res.Rewrites), len(res.Skips), time.Now().UnixNano()); err != nil {
		return fmt.Errorf("insert module %s: %w", res.File, err)
	}
	for _, rw := range res.Rewrites {
		if _, err := w.stmtRewrite.Exec(res.File, rw.Source, rw.Mode.String(), rw.Recursive,
			rw.Container, rw.Directory, rw.StartByte, rw.EndByte); err != nil {
			return fmt.Errorf("insert rewrite %q: %w", rw.Source, err)
		}
		for i, f := range rw.Files {
			if _, err := w.stmtFile.Exec(res.File, rw.StartByte, i, f.Pathname(), f.Slug(), f.Property, f.Identifier, f.ImportPath); err != nil {
				return fmt.Errorf("insert file %s: %w", f.Pathname(), err)
			}
		}
	}
	for _, s := range res.Skips {
		if _, err := w.stmtSkip.Exec(res.File, s.Source, s.Reason.String()); err != nil {
			return fmt.Errorf("insert skip %q: %w", s.Source, err)
		}
	}
	return nil
}

// Close commits everything recorded and closes the database.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, s := range []*sql.Stmt{w.stmtModule, w.stmtRewrite, w.stmtFile, w.stmtSkip} {
		if s != nil {
			_ = s.Close()
		}
	}
	if err := w.tx.Commit(); err != nil {
		_ = w.db.Close()
		return fmt.Errorf("commit manifest: %w", err)
	}
	return w.db.Close()
}

// Entry is one recorded directory import.
type Entry struct {
	File      string
	Source    string
	Mode      string
	Recursive bool
	Container string
	Directory string
	Files     []FileEntry
}

// FileEntry is one matched file of an Entry.
type FileEntry struct {
	Pathname   string
	Slug       string
	Property   string
	Identifier string
	ImportPath string
}

// Skipped is one recorded import left untouched.
type Skipped struct {
	File   string
	Source string
	Reason string
}

// Entries reads back every recorded rewrite, ordered by module then
// position in the module.
func Entries(dbPath string) ([]Entry, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.Query(`
		SELECT file, start_byte, source, mode, recursive, container, directory
		FROM rewrites ORDER BY file, start_byte
	`)
	if err != nil {
		return nil, fmt.Errorf("query rewrites: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type key struct {
		file  string
		start int64
	}
	var out []Entry
	index := make(map[key]int)
	for rows.Next() {
		var e Entry
		var start int64
		if err := rows.Scan(&e.File, &start, &e.Source, &e.Mode, &e.Recursive, &e.Container, &e.Directory); err != nil {
			return nil, err
		}
		index[key{e.File, start}] = len(out)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	frows, err := db.Query(`
		SELECT file, start_byte, pathname, slug, property, identifier, import_path
		FROM rewrite_files ORDER BY file, start_byte, seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query rewrite files: %w", err)
	}
	defer func() { _ = frows.Close() }()

	for frows.Next() {
		var k key
		var f FileEntry
		if err := frows.Scan(&k.file, &k.start, &f.Pathname, &f.Slug, &f.Property, &f.Identifier, &f.ImportPath); err != nil {
			return nil, err
		}
		if i, ok := index[k]; ok {
			out[i].Files = append(out[i].Files, f)
		}
	}
	return out, frows.Err()
}

// Skips reads back every recorded skip.
func Skips(dbPath string) ([]Skipped, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.Query(`SELECT file, source, reason FROM skips ORDER BY file, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query skips: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Skipped
	for rows.Next() {
		var s Skipped
		if err := rows.Scan(&s.File, &s.Source, &s.Reason); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Dirs returns the distinct directories rewritten for file, as slash
// paths. Build tooling uses it to know which directories to watch.
func Dirs(dbPath, file string) ([]string, error) {
	entries, err := Entries(dbPath)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if e.File != file || seen[e.Directory] {
			continue
		}
		seen[e.Directory] = true
		out = append(out, path.Clean(e.Directory))
	}
	return out, nil
}

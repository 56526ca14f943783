// Package store persists the dataset into SQLite: a files table, curated
// annotations, and the processed content with its merged metadata document.
// The pipeline core never writes here directly; it hands results to this
// sink, which owns its own transactional guarantees.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/duynguyendang/secdex/pkg/annotation"
	"github.com/duynguyendang/secdex/pkg/extract"
	"github.com/duynguyendang/secdex/pkg/process"
)

// FileRecord is one row of the files table.
type FileRecord struct {
	ID           int64      `json:"id"`
	Filename     string     `json:"filename"`
	FullPath     string     `json:"full_path"`
	FileType     string     `json:"file_type"`
	Size         int64      `json:"size"`
	ModifiedDate *time.Time `json:"modified_date,omitempty"`
	Category     string     `json:"category,omitempty"`
	Processed    bool       `json:"processed"`
}

// Stats summarizes dataset coverage.
type Stats struct {
	TotalFiles int64            `json:"total_files"`
	Processed  int64            `json:"processed"`
	Annotated  int64            `json:"annotated"`
	ByCategory map[string]int64 `json:"by_category"`
}

// Store wraps the SQLite dataset.
type Store struct {
	db *sql.DB
}

// Open opens (creating parent directories as needed) the dataset at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Init creates the schema if it does not exist.
func (s *Store) Init() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS files (
			id INTEGER PRIMARY KEY,
			filename TEXT NOT NULL,
			full_path TEXT NOT NULL,
			file_type TEXT,
			size INTEGER,
			modified_date DATETIME,
			category TEXT,
			processed BOOLEAN DEFAULT FALSE,
			UNIQUE(full_path)
		)`,
		`CREATE TABLE IF NOT EXISTS annotations (
			id INTEGER PRIMARY KEY,
			file_id INTEGER,
			annotation_date DATE,
			description TEXT,
			source_index TEXT,
			author TEXT,
			FOREIGN KEY(file_id) REFERENCES files(id)
		)`,
		`CREATE TABLE IF NOT EXISTS content (
			id INTEGER PRIMARY KEY,
			record_id TEXT NOT NULL,
			file_id INTEGER,
			raw_text TEXT,
			cleaned_text TEXT,
			metadata JSON,
			components JSON,
			FOREIGN KEY(file_id) REFERENCES files(id),
			UNIQUE(file_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_files_filename ON files(filename)`,
		`CREATE INDEX IF NOT EXISTS idx_files_category ON files(category)`,
		`CREATE INDEX IF NOT EXISTS idx_files_processed ON files(processed)`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_file_id ON annotations(file_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}

// AddFile upserts a file row keyed by full path and returns its id.
func (s *Store) AddFile(rec FileRecord) (int64, error) {
	_, err := s.db.Exec(`
		INSERT INTO files (filename, full_path, file_type, size, modified_date, category, processed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(full_path) DO UPDATE SET
			size = excluded.size,
			modified_date = excluded.modified_date,
			category = COALESCE(NULLIF(excluded.category, ''), files.category)`,
		rec.Filename, rec.FullPath, rec.FileType, rec.Size, rec.ModifiedDate, rec.Category, rec.Processed)
	if err != nil {
		return 0, fmt.Errorf("failed to add file: %w", err)
	}
	// last_insert_rowid is unreliable on the conflict path, so resolve the
	// id by path in both cases.
	var id int64
	err = s.db.QueryRow(`SELECT id FROM files WHERE full_path = ?`, rec.FullPath).Scan(&id)
	return id, err
}

// AddAnnotation stores one curated annotation for a file.
func (s *Store) AddAnnotation(fileID int64, ann *annotation.Annotation) error {
	var date any
	if ann.Date != nil {
		date = ann.Date.Format("2006-01-02")
	}
	_, err := s.db.Exec(`
		INSERT INTO annotations (file_id, annotation_date, description, source_index, author)
		VALUES (?, ?, ?, ?, ?)`,
		fileID, date, ann.Description, ann.SourceIndex, ann.Author)
	if err != nil {
		return fmt.Errorf("failed to add annotation: %w", err)
	}
	return nil
}

// SaveResult persists a processing result and marks the file processed.
// The content row is replaced on reprocessing.
func (s *Store) SaveResult(fileID int64, res *process.Result) error {
	metadata, err := json.Marshal(res.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	names := make([]string, 0, len(res.Metadata.Components))
	for _, c := range res.Metadata.Components {
		names = append(names, c.Name)
	}
	components, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to encode components: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO content (record_id, file_id, raw_text, cleaned_text, metadata, components)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET
			record_id = excluded.record_id,
			raw_text = excluded.raw_text,
			cleaned_text = excluded.cleaned_text,
			metadata = excluded.metadata,
			components = excluded.components`,
		uuid.NewString(), fileID, res.Content, extract.CleanText(res.Content), string(metadata), string(components))
	if err != nil {
		return fmt.Errorf("failed to save content: %w", err)
	}
	if _, err := tx.Exec(`UPDATE files SET processed = TRUE WHERE id = ?`, fileID); err != nil {
		return fmt.Errorf("failed to mark processed: %w", err)
	}
	return tx.Commit()
}

// UnprocessedFiles claims up to limit files that still need processing.
func (s *Store) UnprocessedFiles(limit int) ([]FileRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, filename, full_path, COALESCE(file_type, ''), COALESCE(size, 0), COALESCE(category, ''), processed
		FROM files WHERE processed = FALSE ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFiles(rows)
}

// Files lists files, optionally filtered by category.
func (s *Store) Files(category string, limit int) ([]FileRecord, error) {
	query := `
		SELECT id, filename, full_path, COALESCE(file_type, ''), COALESCE(size, 0), COALESCE(category, ''), processed
		FROM files`
	args := []any{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFiles(rows)
}

// FileMetadata returns the stored metadata document for a file, or nil when
// the file has no content row yet.
func (s *Store) FileMetadata(fileID int64) (*process.Metadata, error) {
	var raw string
	err := s.db.QueryRow(`SELECT metadata FROM content WHERE file_id = ?`, fileID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var md process.Metadata
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return &md, nil
}

// ComponentNames returns the distinct component names across the dataset.
func (s *Store) ComponentNames() ([]string, error) {
	rows, err := s.db.Query(`SELECT components FROM content`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var out []string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var names []string
		if err := json.Unmarshal([]byte(raw), &names); err != nil {
			continue
		}
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out, rows.Err()
}

// Stats reports dataset coverage.
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{ByCategory: make(map[string]int64)}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&st.TotalFiles); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM files WHERE processed = TRUE`).Scan(&st.Processed); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow(`SELECT COUNT(DISTINCT file_id) FROM annotations`).Scan(&st.Annotated); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT COALESCE(category, 'unknown'), COUNT(*) FROM files GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var cat string
		var n int64
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		st.ByCategory[cat] = n
	}
	return st, rows.Err()
}

func scanFiles(rows *sql.Rows) ([]FileRecord, error) {
	var out []FileRecord
	for rows.Next() {
		var rec FileRecord
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.FullPath, &rec.FileType, &rec.Size, &rec.Category, &rec.Processed); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

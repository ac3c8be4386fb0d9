package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/marcboeker/go-duckdb"
	"github.com/wedding-planner/backend/internal/models"
)

// DuckOptions tunes the DuckDB connection.
type DuckOptions struct {
	Threads     int
	MemoryLimit string
}

// DuckSceneStore keeps scene documents in a DuckDB file, one row per
// project with the document as a msgpack blob.
type DuckSceneStore struct {
	db     *sql.DB
	dbPath string
	logger *slog.Logger
}

// NewDuckSceneStore opens (or creates) the scene database at dbPath.
func NewDuckSceneStore(dbPath string, opts DuckOptions, logger *slog.Logger) (*DuckSceneStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	pragmas := []string{"PRAGMA enable_progress_bar=false"}
	if opts.Threads > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d", opts.Threads))
	}
	if opts.MemoryLimit != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit='%s'", opts.MemoryLimit))
	}

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return fmt.Errorf("%s: %w", pragma, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS scenes (
			project_id VARCHAR PRIMARY KEY,
			revision   BIGINT NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			payload    BLOB NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create scenes table: %w", err)
	}

	logger.Info("scene store ready", "path", dbPath)
	return &DuckSceneStore{db: db, dbPath: dbPath, logger: logger}, nil
}

// Save upserts a project's document.
func (s *DuckSceneStore) Save(ctx context.Context, doc models.SceneDocument) error {
	if doc.ProjectID == "" {
		return errors.New("scene document has no project id")
	}
	payload, err := EncodeScene(doc)
	if err != nil {
		return fmt.Errorf("encoding scene: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO scenes (project_id, revision, updated_at, payload) VALUES (?, ?, ?, ?)`,
		doc.ProjectID, doc.Revision, doc.UpdatedAt.UTC(), payload)
	if err != nil {
		return fmt.Errorf("saving scene %s: %w", doc.ProjectID, err)
	}
	s.logger.Debug("scene saved", "project", doc.ProjectID, "revision", doc.Revision, "bytes", len(payload))
	return nil
}

// Load returns a project's document.
func (s *DuckSceneStore) Load(ctx context.Context, projectID string) (models.SceneDocument, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM scenes WHERE project_id = ?`, projectID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SceneDocument{}, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	if err != nil {
		return models.SceneDocument{}, fmt.Errorf("loading scene %s: %w", projectID, err)
	}
	return DecodeScene(payload)
}

// List returns every stored project, most recently updated first.
func (s *DuckSceneStore) List(ctx context.Context) ([]models.ProjectInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, revision, updated_at, octet_length(payload)
		FROM scenes
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing scenes: %w", err)
	}
	defer rows.Close()

	var out []models.ProjectInfo
	for rows.Next() {
		var info models.ProjectInfo
		if err := rows.Scan(&info.ID, &info.Revision, &info.UpdatedAt, &info.Size); err != nil {
			return nil, fmt.Errorf("scanning scene row: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes a project's document.
func (s *DuckSceneStore) Delete(ctx context.Context, projectID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenes WHERE project_id = ?`, projectID)
	if err != nil {
		return fmt.Errorf("deleting scene %s: %w", projectID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	return nil
}

// Close closes the database. The file is kept.
func (s *DuckSceneStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

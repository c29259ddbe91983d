package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/andresmejia3/interviewlens/internal/report"
)

var ErrNotFound = errors.New("report not found")

// Store keeps one row per finished job in PostgreSQL.
type Store struct {
	conn *pgx.Conn
}

// Summary is a listing row.
type Summary struct {
	JobID         string
	VideoID       string
	VideoPath     string
	State         string
	Source        string
	OverallFacial *float64
	OverallText   *float64
	Warnings      int
	CreatedAt     time.Time
}

// New establishes a connection to the database and ensures the schema is initialized.
func New(ctx context.Context, connString string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS evaluation_reports (
			id TEXT PRIMARY KEY,
			video_id TEXT NOT NULL,
			video_path TEXT NOT NULL,
			state TEXT NOT NULL,
			source TEXT NOT NULL,
			overall_facial DOUBLE PRECISION,
			overall_text DOUBLE PRECISION,
			warnings INT NOT NULL DEFAULT 0,
			report JSONB NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS evaluation_reports_video_id_idx ON evaluation_reports (video_id);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *Store) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// SaveReport stores the rendered report of a job. Saving the same job again replaces it.
func (s *Store) SaveReport(ctx context.Context, videoID string, doc report.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encode report")
	}

	var facial, text *float64
	if doc.FacialExpressionAnalysis != nil {
		facial = &doc.FacialExpressionAnalysis.OverallScore
	}
	if doc.Evaluation != nil {
		text = &doc.Evaluation.OverallScore
	}

	_, err = s.conn.Exec(ctx, `
		INSERT INTO evaluation_reports (id, video_id, video_path, state, source, overall_facial, overall_text, warnings, report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (id) DO UPDATE SET
			video_id = EXCLUDED.video_id,
			video_path = EXCLUDED.video_path,
			state = EXCLUDED.state,
			source = EXCLUDED.source,
			overall_facial = EXCLUDED.overall_facial,
			overall_text = EXCLUDED.overall_text,
			warnings = EXCLUDED.warnings,
			report = EXCLUDED.report,
			created_at = NOW()
	`, doc.JobID, videoID, doc.Video, string(doc.State), doc.Source, facial, text, len(doc.Warnings), data)
	return err
}

// GetReport returns the stored document of a job, or ErrNotFound.
func (s *Store) GetReport(ctx context.Context, jobID string) (report.Document, error) {
	var data []byte
	err := s.conn.QueryRow(ctx, "SELECT report FROM evaluation_reports WHERE id = $1", jobID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return report.Document{}, ErrNotFound
	}
	if err != nil {
		return report.Document{}, err
	}
	return report.Unmarshal(data)
}

// ListReports returns the most recent jobs first. A limit <= 0 lists everything.
func (s *Store) ListReports(ctx context.Context, limit int) ([]Summary, error) {
	query := `
		SELECT id, video_id, video_path, state, source, overall_facial, overall_text, warnings, created_at
		FROM evaluation_reports
		ORDER BY created_at DESC, id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var r Summary
		if err := rows.Scan(&r.JobID, &r.VideoID, &r.VideoPath, &r.State, &r.Source,
			&r.OverallFacial, &r.OverallText, &r.Warnings, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Reset drops all application tables to clear the database state.
// This is useful for development to force a schema refresh without migrations.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `DROP TABLE IF EXISTS evaluation_reports CASCADE;`)
	return err
}

package repository

import (
	"context"
	"fmt"

	"github.com/courseqa/courseqa-backend/internal/entity"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FileRepository defines the interface for corpus file registry persistence
type FileRepository interface {
	Upsert(ctx context.Context, file entity.File) (*entity.File, error)
	List(ctx context.Context) ([]*entity.File, error)
	Delete(ctx context.Context, name string) error
}

var _ FileRepository = &FilePostgres{}

// FilePostgres implements FileRepository using PostgreSQL
type FilePostgres struct {
	db *pgxpool.Pool
}

func NewFilePostgres(db *pgxpool.Pool) *FilePostgres {
	return &FilePostgres{db: db}
}

// Upsert registers a file, refreshing the existing row when the name is
// already taken so re-ingestion bumps uploaded_at instead of failing.
func (r *FilePostgres) Upsert(ctx context.Context, file entity.File) (*entity.File, error) {
	const query = `
		INSERT INTO files (file_name, file_type, source_path)
		VALUES ($1, $2, $3)
		ON CONFLICT (file_name) DO UPDATE
		SET file_type = EXCLUDED.file_type,
		    source_path = EXCLUDED.source_path,
		    uploaded_at = now()
		RETURNING id, uploaded_at`

	row := r.db.QueryRow(ctx, query, file.Name, file.FileType, file.SourcePath)
	if err := row.Scan(&file.ID, &file.UploadedAt); err != nil {
		return nil, fmt.Errorf("upsert file: %w", err)
	}

	return &file, nil
}

func (r *FilePostgres) List(ctx context.Context) ([]*entity.File, error) {
	const query = `
		SELECT id, file_name, file_type, source_path, uploaded_at
		FROM files
		ORDER BY uploaded_at DESC, file_name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	files := make([]*entity.File, 0)
	for rows.Next() {
		var f entity.File
		if err := rows.Scan(&f.ID, &f.Name, &f.FileType, &f.SourcePath, &f.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		files = append(files, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file rows: %w", err)
	}

	return files, nil
}

func (r *FilePostgres) Delete(ctx context.Context, name string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM files WHERE file_name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return entity.ErrFileNotFound
	}

	return nil
}

package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

const uploadCols = `id, user_id, filename, file_size, mime_type, title, description, department, level, category,
	vimeo_upload_url, vimeo_uri, vimeo_ticket, video_id, status, progress, error_message, poll_count,
	created_at, updated_at`

var uploadSorts = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"filename":   "filename",
}

// UploadTasks handles upload task persistence.
type UploadTasks struct {
	pool *pgxpool.Pool
}

func scanUpload(row scanner) (models.UploadTask, error) {
	var t models.UploadTask
	err := row.Scan(&t.ID, &t.UserID, &t.Filename, &t.FileSize, &t.MimeType, &t.Title, &t.Description,
		&t.Department, &t.Level, &t.Category, &t.VimeoUploadURL, &t.VimeoURI, &t.VimeoTicket, &t.VideoID,
		&t.Status, &t.Progress, &t.ErrorMessage, &t.PollCount, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// Create inserts a task.
func (r *UploadTasks) Create(ctx context.Context, t *models.UploadTask) error {
	assignID(&t.ID)
	const q = `INSERT INTO upload_tasks (id, user_id, filename, file_size, mime_type, title, description, department,
		level, category, vimeo_upload_url, vimeo_uri, vimeo_ticket, video_id, status, progress, error_message,
		poll_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, t.ID, t.UserID, t.Filename, t.FileSize, t.MimeType, t.Title, t.Description,
		t.Department, t.Level, t.Category, t.VimeoUploadURL, t.VimeoURI, t.VimeoTicket, t.VideoID, t.Status,
		t.Progress, t.ErrorMessage, t.PollCount).Scan(&t.CreatedAt, &t.UpdatedAt)
	return translate(err)
}

// FindByID returns a task by ID.
func (r *UploadTasks) FindByID(ctx context.Context, id uuid.UUID) (*models.UploadTask, error) {
	t, err := scanUpload(r.pool.QueryRow(ctx, `SELECT `+uploadCols+` FROM upload_tasks WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// FindAll returns one page of tasks matching f and the total number of matches.
func (r *UploadTasks) FindAll(ctx context.Context, f store.UploadFilter) ([]models.UploadTask, int, error) {
	var b query.SQL
	b.EqIf(f.UserID != "", "user_id", f.UserID)
	eqFold(&b, "status", f.Status)
	b.Search(f.Search, "filename", "title")
	return list(ctx, r.pool, "upload_tasks", uploadCols, &b, b.OrderBy(f.ListParams, uploadSorts, "created_at"),
		f.ListParams, scanUpload)
}

// Update writes the mutable columns of t.
func (r *UploadTasks) Update(ctx context.Context, t *models.UploadTask) error {
	const q = `UPDATE upload_tasks SET title = $2, description = $3, department = $4, level = $5, category = $6,
		vimeo_upload_url = $7, vimeo_uri = $8, vimeo_ticket = $9, video_id = $10, status = $11, progress = $12,
		error_message = $13, poll_count = $14, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, t.ID, t.Title, t.Description, t.Department, t.Level, t.Category,
		t.VimeoUploadURL, t.VimeoURI, t.VimeoTicket, t.VideoID, t.Status, t.Progress, t.ErrorMessage, t.PollCount).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	return translate(err)
}

package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

const videoCols = `id, title, description, source, vimeo_id, vimeo_uri, youtube_id, embed_url, thumbnail_url,
	duration, department, level, category, is_premium, is_featured, is_popular, tags, instructor, status,
	view_count, like_count, rating_average, rating_count, created_at, updated_at`

var videoSorts = map[string]string{
	"created_at": "created_at",
	"title":      "title",
	"views":      "view_count",
	"likes":      "like_count",
	"rating":     "rating_average",
	"duration":   "duration",
}

// Videos handles video persistence.
type Videos struct {
	pool *pgxpool.Pool
}

func scanVideo(row scanner) (models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.Title, &v.Description, &v.Source, &v.VimeoID, &v.VimeoURI, &v.YouTubeID, &v.EmbedURL,
		&v.ThumbnailURL, &v.Duration, &v.Department, &v.Level, &v.Category, &v.IsPremium, &v.IsFeatured, &v.IsPopular,
		&v.Tags, &v.Instructor, &v.Status, &v.ViewCount, &v.LikeCount, &v.RatingAverage, &v.RatingCount,
		&v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func tags(t []string) []string {
	if t == nil {
		return []string{}
	}
	return t
}

// Create inserts a video.
func (r *Videos) Create(ctx context.Context, v *models.Video) error {
	assignID(&v.ID)
	const q = `INSERT INTO videos (id, title, description, source, vimeo_id, vimeo_uri, youtube_id, embed_url,
		thumbnail_url, duration, department, level, category, is_premium, is_featured, is_popular, tags, instructor,
		status, view_count, like_count, rating_average, rating_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, v.ID, v.Title, v.Description, v.Source, v.VimeoID, v.VimeoURI, v.YouTubeID,
		v.EmbedURL, v.ThumbnailURL, v.Duration, v.Department, v.Level, v.Category, v.IsPremium, v.IsFeatured,
		v.IsPopular, tags(v.Tags), v.Instructor, v.Status, v.ViewCount, v.LikeCount, v.RatingAverage, v.RatingCount).
		Scan(&v.CreatedAt, &v.UpdatedAt)
	return translate(err)
}

// FindByID returns a video by ID.
func (r *Videos) FindByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	v, err := scanVideo(r.pool.QueryRow(ctx, `SELECT `+videoCols+` FROM videos WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// FindAll returns one page of videos matching f and the total number of matches.
func (r *Videos) FindAll(ctx context.Context, f store.VideoFilter) ([]models.Video, int, error) {
	var b query.SQL
	eqFold(&b, "status", f.Status)
	eqFold(&b, "department", f.Department)
	eqFold(&b, "level", f.Level)
	eqFold(&b, "category", f.Category)
	eqFold(&b, "instructor", f.Instructor)
	b.EqIf(f.VimeoID != "", "vimeo_id", f.VimeoID)
	if f.Tag != "" {
		b.Cond("EXISTS (SELECT 1 FROM unnest(tags) t WHERE LOWER(t) = LOWER(?))", f.Tag)
	}
	boolEq(&b, "is_premium", f.Premium)
	boolEq(&b, "is_featured", f.Featured)
	boolEq(&b, "is_popular", f.Popular)
	b.Search(f.Search, "title", "description", "instructor", "array_to_string(tags, ' ')")
	return list(ctx, r.pool, "videos", videoCols, &b, b.OrderBy(f.ListParams, videoSorts, "created_at"),
		f.ListParams, scanVideo)
}

// Update writes every mutable column of v.
func (r *Videos) Update(ctx context.Context, v *models.Video) error {
	const q = `UPDATE videos SET title = $2, description = $3, source = $4, vimeo_id = $5, vimeo_uri = $6,
		youtube_id = $7, embed_url = $8, thumbnail_url = $9, duration = $10, department = $11, level = $12,
		category = $13, is_premium = $14, is_featured = $15, is_popular = $16, tags = $17, instructor = $18,
		status = $19, view_count = $20, like_count = $21, rating_average = $22, rating_count = $23, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, v.ID, v.Title, v.Description, v.Source, v.VimeoID, v.VimeoURI, v.YouTubeID,
		v.EmbedURL, v.ThumbnailURL, v.Duration, v.Department, v.Level, v.Category, v.IsPremium, v.IsFeatured,
		v.IsPopular, tags(v.Tags), v.Instructor, v.Status, v.ViewCount, v.LikeCount, v.RatingAverage, v.RatingCount).
		Scan(&v.CreatedAt, &v.UpdatedAt)
	return translate(err)
}

// Delete removes a video by ID.
func (r *Videos) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id))
}

// IncrementViews adds one to the view count.
func (r *Videos) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return affected(r.pool.Exec(ctx, `UPDATE videos SET view_count = view_count + 1 WHERE id = $1`, id))
}

// SetRating stores the aggregated rating of a video.
func (r *Videos) SetRating(ctx context.Context, id uuid.UUID, average float64, count int) error {
	const q = `UPDATE videos SET rating_average = $2, rating_count = $3, updated_at = NOW() WHERE id = $1`
	return affected(r.pool.Exec(ctx, q, id, average, count))
}

// Package uploads drives video upload tasks from creation through Vimeo transcoding to a
// catalogue entry:
//
//	PENDING -> UPLOADING -> PROCESSING -> COMPLETED
//
// Any non-terminal state may move to FAILED. COMPLETED and FAILED are terminal; a failed
// upload is started over as a new task.
package uploads

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/config"
	"github.com/aura-academy/backend/internal/metrics"
	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/realtime"
	"github.com/aura-academy/backend/internal/store"
	"github.com/aura-academy/backend/internal/vendors"
	"github.com/aura-academy/backend/internal/vendors/vimeo"
	"github.com/aura-academy/backend/pkg/queue"
)

var (
	ErrTaskNotFound      = errors.New("upload task not found")
	ErrInvalidTransition = errors.New("invalid upload task transition")
	ErrVendor            = errors.New("video host request failed")
)

// Failure messages recorded on tasks.
const (
	MsgProcessingTimeout = "processing timed out"
	MsgProcessingError   = "vimeo reported a processing error"
	MsgScheduleFailed    = "could not schedule processing"
)

var transitions = map[string][]string{
	models.UploadStatusPending:    {models.UploadStatusUploading, models.UploadStatusFailed},
	models.UploadStatusUploading:  {models.UploadStatusProcessing, models.UploadStatusFailed},
	models.UploadStatusProcessing: {models.UploadStatusCompleted, models.UploadStatusFailed},
}

// CanTransition reports whether a task may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether status accepts no further transitions.
func Terminal(status string) bool {
	return status == models.UploadStatusCompleted || status == models.UploadStatusFailed
}

// CreateRequest describes the file a client is about to upload.
type CreateRequest struct {
	Filename    string `json:"filename" binding:"required,max=255"`
	FileSize    int64  `json:"file_size" binding:"required,min=1"`
	MimeType    string `json:"mime_type" binding:"required,max=100"`
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=5000"`
	Department  string `json:"department" binding:"max=100"`
	Level       string `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	Category    string `json:"category" binding:"max=100"`
}

// Service owns upload task state.
type Service struct {
	tasks  store.UploadTasks
	videos store.Videos
	vimeo  vimeo.Client
	queue  queue.Broker
	events realtime.Publisher
	cfg    config.WorkerConfig
	logger *zap.Logger
}

// NewService creates an upload service. events may be nil.
func NewService(tasks store.UploadTasks, videos store.Videos, vc vimeo.Client, q queue.Broker,
	events realtime.Publisher, cfg config.WorkerConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 240
	}
	return &Service{tasks: tasks, videos: videos, vimeo: vc, queue: q, events: events, cfg: cfg, logger: logger}
}

// Get returns a task.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.UploadTask, error) {
	t, err := s.tasks.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find upload task: %w", err)
	}
	return t, nil
}

// List returns tasks matching f.
func (s *Service) List(ctx context.Context, f store.UploadFilter) ([]models.UploadTask, int, error) {
	return s.tasks.FindAll(ctx, f)
}

// transition moves t to status, persists it and announces the change.
func (s *Service) transition(ctx context.Context, t *models.UploadTask, to string) error {
	if !CanTransition(t.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, to)
	}
	from := t.Status
	t.Status = to
	if err := s.tasks.Update(ctx, t); err != nil {
		t.Status = from
		return fmt.Errorf("update upload task: %w", err)
	}
	metrics.RecordUploadTransition(to)
	s.logger.Info("upload task transition",
		zap.String("task_id", t.ID.String()),
		zap.String("from", from),
		zap.String("to", to),
	)
	s.publish(t)
	return nil
}

func (s *Service) publish(t *models.UploadTask) {
	if s.events == nil {
		return
	}
	s.events.Publish(realtime.TopicUploads, realtime.EventUploadUpdated, t)
	s.events.Publish(realtime.UserTopic(t.UserID), realtime.EventUploadUpdated, t)
}

func (s *Service) fail(ctx context.Context, t *models.UploadTask, msg string) error {
	t.ErrorMessage = msg
	return s.transition(ctx, t, models.UploadStatusFailed)
}

// Create records a task and opens a Vimeo upload slot for it. When Vimeo refuses, the task is
// stored as FAILED and ErrVendor is returned alongside it.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*models.UploadTask, error) {
	t := &models.UploadTask{
		UserID:      userID,
		Filename:    req.Filename,
		FileSize:    req.FileSize,
		MimeType:    req.MimeType,
		Title:       req.Title,
		Description: req.Description,
		Department:  req.Department,
		Level:       req.Level,
		Category:    req.Category,
		Status:      models.UploadStatusPending,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create upload task: %w", err)
	}
	metrics.RecordUploadTransition(models.UploadStatusPending)
	s.publish(t)

	up, err := s.vimeo.CreateUpload(ctx, req.Title, req.FileSize)
	if err != nil {
		s.logger.Warn("vimeo create upload failed", zap.String("task_id", t.ID.String()), zap.Error(err))
		if ferr := s.fail(ctx, t, "vimeo upload could not be created"); ferr != nil {
			return nil, ferr
		}
		return t, fmt.Errorf("%w: %v", ErrVendor, err)
	}
	t.VimeoUploadURL = up.UploadLink
	t.VimeoURI = up.URI
	t.VimeoTicket = up.Ticket
	if err := s.transition(ctx, t, models.UploadStatusUploading); err != nil {
		return nil, err
	}
	return t, nil
}

// ReportProgress records client-side upload progress. Progress is clamped and never decreases.
func (s *Service) ReportProgress(ctx context.Context, id uuid.UUID, percent int) (*models.UploadTask, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != models.UploadStatusUploading {
		return nil, fmt.Errorf("%w: progress reported while %s", ErrInvalidTransition, t.Status)
	}
	percent = max(0, min(100, percent))
	if percent <= t.Progress {
		return t, nil
	}
	t.Progress = percent
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update upload task: %w", err)
	}
	s.publish(t)
	return t, nil
}

// Complete marks the client upload finished and schedules the transcoding sync.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*models.UploadTask, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(t.Status, models.UploadStatusProcessing) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, models.UploadStatusProcessing)
	}
	t.Progress = 100
	if err := s.transition(ctx, t, models.UploadStatusProcessing); err != nil {
		return nil, err
	}
	if err := queue.EnqueueUploadSync(ctx, s.queue, t.ID, 0); err != nil {
		s.logger.Error("enqueue upload sync", zap.String("task_id", t.ID.String()), zap.Error(err))
		if ferr := s.fail(ctx, t, MsgScheduleFailed); ferr != nil {
			return nil, ferr
		}
	}
	return t, nil
}

// Fail marks a task failed with a client-supplied message.
func (s *Service) Fail(ctx context.Context, id uuid.UUID, msg string) (*models.UploadTask, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg == "" {
		msg = "upload failed"
	}
	if err := s.fail(ctx, t, msg); err != nil {
		return nil, err
	}
	return t, nil
}

// Sync checks Vimeo for a PROCESSING task. An available video becomes a draft catalogue entry
// and completes the task; a video still transcoding is polled again after the poll interval
// until MaxPolls is reached. Tasks in any other state are left alone. The returned error is
// non-nil only for storage or queue failures, which the worker retries.
func (s *Service) Sync(ctx context.Context, id uuid.UUID) (*models.UploadTask, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != models.UploadStatusProcessing {
		s.logger.Debug("skip sync of settled task", zap.String("task_id", id.String()), zap.String("status", t.Status))
		return t, nil
	}

	meta, err := s.vimeo.GetVideo(ctx, vimeo.IDFromURI(t.VimeoURI))
	switch {
	case errors.Is(err, vendors.ErrUnavailable):
		// breaker open: treat as another poll
		return t, s.poll(ctx, t)
	case err != nil:
		s.logger.Warn("vimeo get video failed", zap.String("task_id", id.String()), zap.Error(err))
		return t, s.fail(ctx, t, "vimeo status check failed")
	}

	switch meta.Status {
	case vimeo.StatusAvailable:
		v, err := s.catalogue(ctx, t, meta)
		if err != nil {
			return nil, err
		}
		t.VideoID = &v.ID
		t.Progress = 100
		return t, s.transition(ctx, t, models.UploadStatusCompleted)
	case vimeo.StatusError:
		return t, s.fail(ctx, t, MsgProcessingError)
	default:
		return t, s.poll(ctx, t)
	}
}

func (s *Service) poll(ctx context.Context, t *models.UploadTask) error {
	t.PollCount++
	if t.PollCount >= s.cfg.MaxPolls {
		return s.fail(ctx, t, MsgProcessingTimeout)
	}
	if err := s.tasks.Update(ctx, t); err != nil {
		return fmt.Errorf("update upload task: %w", err)
	}
	if err := queue.EnqueueUploadSync(ctx, s.queue, t.ID, s.cfg.PollInterval); err != nil {
		return fmt.Errorf("requeue upload sync: %w", err)
	}
	return nil
}

// catalogue returns the video for meta, creating a draft when none exists yet.
func (s *Service) catalogue(ctx context.Context, t *models.UploadTask, meta *vimeo.VideoMeta) (*models.Video, error) {
	existing, _, err := s.videos.FindAll(ctx, store.VideoFilter{VimeoID: meta.ID})
	if err != nil {
		return nil, fmt.Errorf("find video by vimeo id: %w", err)
	}
	if len(existing) > 0 {
		return &existing[0], nil
	}
	title := t.Title
	if title == "" {
		title = meta.Name
	}
	description := t.Description
	if description == "" {
		description = meta.Description
	}
	embed := meta.EmbedURL
	if embed == "" {
		embed = vimeo.EmbedURL(vimeo.SourceVimeo, meta.ID)
	}
	v := &models.Video{
		Title:        title,
		Description:  description,
		Source:       models.VideoSourceVimeo,
		VimeoID:      meta.ID,
		VimeoURI:     meta.URI,
		EmbedURL:     embed,
		ThumbnailURL: meta.ThumbnailURL,
		Duration:     meta.Duration,
		Department:   t.Department,
		Level:        t.Level,
		Category:     t.Category,
		Tags:         meta.Tags,
		Status:       models.VideoStatusDraft,
	}
	if err := s.videos.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}
	s.logger.Info("video catalogued from upload",
		zap.String("task_id", t.ID.String()),
		zap.String("video_id", v.ID.String()),
		zap.String("vimeo_id", meta.ID),
	)
	return v, nil
}

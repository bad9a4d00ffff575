package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/helpmarq/backend/internal/config"
	"github.com/helpmarq/backend/pkg/logger"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeNotify = "notification:deliver"
)

// EventTask is a notification delivery job.
type EventTask struct {
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurred_at"`

	RecipientName  string `json:"recipient_name"`
	RecipientEmail string `json:"recipient_email"`

	ProjectID       uint      `json:"project_id,omitempty"`
	ProjectTitle    string    `json:"project_title,omitempty"`
	ProjectLink     string    `json:"project_link,omitempty"`
	ProjectCategory string    `json:"project_category,omitempty"`
	XPReward        int       `json:"xp_reward,omitempty"`
	Deadline        time.Time `json:"deadline,omitempty"`
	OwnerID         string    `json:"owner_id,omitempty"`
	OwnerName       string    `json:"owner_name,omitempty"`
	OwnerEmail      string    `json:"owner_email,omitempty"`

	ReviewerID            uint    `json:"reviewer_id,omitempty"`
	ReviewerUserID        string  `json:"reviewer_user_id,omitempty"`
	ReviewerUsername      string  `json:"reviewer_username,omitempty"`
	ReviewerEmail         string  `json:"reviewer_email,omitempty"`
	ReviewerXP            int     `json:"reviewer_xp,omitempty"`
	ReviewerLevel         int     `json:"reviewer_level,omitempty"`
	ReviewerTotalReviews  int     `json:"reviewer_total_reviews,omitempty"`
	ReviewerAverageRating float64 `json:"reviewer_average_rating,omitempty"`

	ApplicationID   uint   `json:"application_id,omitempty"`
	Qualifications  string `json:"qualifications,omitempty"`
	FocusAreas      string `json:"focus_areas,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`

	FeedbackID      uint   `json:"feedback_id,omitempty"`
	FeedbackPreview string `json:"feedback_preview,omitempty"`
	ProjectRating   *int   `json:"project_rating,omitempty"`
	OwnerRating     *int   `json:"owner_rating,omitempty"`

	MessageID      uint   `json:"message_id,omitempty"`
	SenderName     string `json:"sender_name,omitempty"`
	SenderRole     string `json:"sender_role,omitempty"`
	MessagePreview string `json:"message_preview,omitempty"`

	XPAwarded     int  `json:"xp_awarded,omitempty"`
	PreviousLevel int  `json:"previous_level,omitempty"`
	LeveledUp     bool `json:"leveled_up,omitempty"`
	HoursLeft     int  `json:"hours_left,omitempty"`
	FirstProject  bool `json:"first_project,omitempty"`
}

// TaskProcessor delivers one notification task.
type TaskProcessor func(context.Context, *EventTask) error

// TaskQueue defines the interface for notification delivery
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(task *EventTask) error
	// IsAsync returns true if queue processes tasks asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// Global task queue instance
var (
	globalTaskQueue TaskQueue
	taskQueueOnce   sync.Once
)

// InitTaskQueue initializes the global task queue based on config
func InitTaskQueue(cfg *config.Config) TaskQueue {
	taskQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncQueue(&cfg.Redis)
			if err != nil {
				logger.Warnf("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
				globalTaskQueue = NewSyncQueue()
			} else {
				logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalTaskQueue = queue
			}
		} else {
			logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
			globalTaskQueue = NewSyncQueue()
		}
	})
	return globalTaskQueue
}

// GetTaskQueue returns the global task queue instance
func GetTaskQueue() TaskQueue {
	return globalTaskQueue
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue creates a new Redis-based async queue
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	// Listing queues doubles as a connectivity check
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// Enqueue adds a notification task to the async queue
func (q *AsyncQueue) Enqueue(task *EventTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeNotify, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("notifications"),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Str("event", task.Event).Msg("notification enqueued")
	return nil
}

// IsAsync returns true for async queue
func (q *AsyncQueue) IsAsync() bool {
	return true
}

// Close closes the async queue client
func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements TaskQueue in-process, without Redis
type SyncQueue struct {
	processor TaskProcessor
	wg        sync.WaitGroup
}

// NewSyncQueue creates a new in-process queue
func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function that delivers tasks
func (q *SyncQueue) SetProcessor(processor TaskProcessor) {
	q.processor = processor
}

// Enqueue hands the task to a goroutine so the caller never waits on delivery
func (q *SyncQueue) Enqueue(task *EventTask) error {
	if q.processor == nil {
		logger.Warnf("[SyncQueue] no processor set, %s notification dropped", task.Event)
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := q.processor(context.Background(), task); err != nil {
			logger.Warn().Err(err).Str("event", task.Event).Msg("notification delivery failed")
		}
	}()

	return nil
}

// IsAsync returns false for sync queue
func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close waits for in-flight deliveries
func (q *SyncQueue) Close() error {
	q.wg.Wait()
	return nil
}

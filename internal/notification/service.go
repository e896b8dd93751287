package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/core/docstore"
	"github.com/sethvargo/go-retry"
)

type Repository interface {
	Push(ctx context.Context, userID string, n *Notification) (string, error)
	List(ctx context.Context, userID string) ([]*Notification, error)
	// Exists reports whether notifications/{userID}/{id} exists.
	Exists(ctx context.Context, userID, id string) (bool, error)
	MarkRead(ctx context.Context, userID, id string) error
	// Watch streams writes below notifications/{userID} until ctx is cancelled.
	Watch(ctx context.Context, userID string) (<-chan docstore.Change, error)
}

// StreamEvent tells a listener that one of its notifications changed.
type StreamEvent struct {
	Kind docstore.ChangeKind `json:"kind"`
	ID   string              `json:"id,omitempty"`
	At   time.Time           `json:"at"`
}

type RetryConfig struct {
	MaxRetries     uint64
	InitialBackoff time.Duration
}

type Service struct {
	repo   Repository
	retry  RetryConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, retryConfig RetryConfig, logger *slog.Logger) *Service {
	if retryConfig.InitialBackoff <= 0 {
		retryConfig.InitialBackoff = 200 * time.Millisecond
	}
	return &Service{
		repo:   repo,
		retry:  retryConfig,
		logger: logger,
		now:    time.Now,
	}
}

// Emit appends n to the user's notifications, retrying transient store failures with
// exponential backoff. Permission and argument failures are not retried.
func (s *Service) Emit(ctx context.Context, userID string, n *Notification) (string, error) {
	if userID == "" {
		return "", internal.NewValidationFieldError("userId", "userId is required", internal.ErrCodeValidationFailed)
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}

	backoff := retry.WithMaxRetries(s.retry.MaxRetries, retry.NewExponential(s.retry.InitialBackoff))

	var id string
	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		key, err := s.repo.Push(ctx, userID, n)
		if err == nil {
			id = key
			return nil
		}
		switch docstore.CodeOf(err) {
		case docstore.CodePermissionDenied, docstore.CodeInvalidArgument:
			return err
		}
		s.logger.WarnContext(ctx, "notification write failed, retrying", "user_id", userID, "attempt", attempts, "error", err)
		return retry.RetryableError(err)
	})
	if err != nil {
		return "", fmt.Errorf("emit %s notification for %s after %d attempts: %w", n.Type, userID, attempts, err)
	}

	n.ID = id
	s.logger.InfoContext(ctx, "notification emitted", "user_id", userID, "type", n.Type, "id", id)
	return id, nil
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*Notification, error) {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for %s: %w", userID, err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	return items, nil
}

// MarkRead marks one notification read and clears its indicator.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	exists, err := s.repo.Exists(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to check notification %s: %w", id, err)
	}
	if !exists {
		return internal.NewNotFoundError("Notification not found", internal.ErrCodeNotificationMissing)
	}
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", id, err)
	}
	return nil
}

// Watch follows the user's notifications. The returned channel closes when ctx is done
// or the store stops the watch.
func (s *Service) Watch(ctx context.Context, userID string) (<-chan StreamEvent, error) {
	if userID == "" {
		return nil, internal.NewValidationFieldError("userId", "userId is required", internal.ErrCodeValidationFailed)
	}
	changes, err := s.repo.Watch(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to watch notifications for %s: %w", userID, err)
	}

	out := make(chan StreamEvent)
	go func() {
		defer close(out)
		prefix := docstore.Join("notifications", userID)
		for change := range changes {
			event := StreamEvent{Kind: change.Kind, At: change.At}
			if rest, ok := strings.CutPrefix(change.Path, prefix+"/"); ok {
				event.ID, _, _ = strings.Cut(rest, "/")
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

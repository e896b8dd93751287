package documents

import (
	"context"
	"encoding/json"
	"fmt"

	notificationDatamodel "github.com/frahmantamala/genops/internal/core/datamodel/notification"
	"github.com/frahmantamala/genops/internal/core/docstore"
	"github.com/frahmantamala/genops/internal/notification"
)

const collection = "notifications"

type NotificationRepository struct {
	store docstore.Store
}

func NewNotificationRepository(store docstore.Store) notification.Repository {
	return &NotificationRepository{store: store}
}

func (r *NotificationRepository) Push(ctx context.Context, userID string, n *notification.Notification) (string, error) {
	return r.store.Push(ctx, docstore.Join(collection, userID), notification.ToDataModel(n))
}

func (r *NotificationRepository) List(ctx context.Context, userID string) ([]*notification.Notification, error) {
	children, err := r.store.Children(ctx, docstore.Join(collection, userID))
	if err != nil {
		return nil, err
	}

	items := make([]*notification.Notification, 0, len(children))
	for id, raw := range children {
		var doc notificationDatamodel.Notification
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode notification %s: %w", id, err)
		}
		items = append(items, notification.FromDataModel(id, &doc))
	}
	return items, nil
}

func (r *NotificationRepository) Exists(ctx context.Context, userID, id string) (bool, error) {
	return r.store.Exists(ctx, docstore.Join(collection, userID, id))
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	return r.store.Update(ctx, docstore.Join(collection, userID, id), map[string]any{
		"read":         true,
		"hasIndicator": false,
	})
}

func (r *NotificationRepository) Watch(ctx context.Context, userID string) (<-chan docstore.Change, error) {
	return r.store.Watch(ctx, docstore.Join(collection, userID))
}

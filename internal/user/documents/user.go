package documents

import (
	"context"
	"encoding/json"
	"fmt"

	userDatamodel "github.com/frahmantamala/genops/internal/core/datamodel/user"
	"github.com/frahmantamala/genops/internal/core/docstore"
	"github.com/frahmantamala/genops/internal/user"
)

const collection = "users"

type UserRepository struct {
	store docstore.Store
}

func NewUserRepository(store docstore.Store) user.Repository {
	return &UserRepository{store: store}
}

func (r *UserRepository) GetByUID(ctx context.Context, uid string) (*user.User, error) {
	var doc userDatamodel.User
	found, err := r.store.Get(ctx, docstore.Join(collection, uid), &doc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return user.FromDataModel(uid, &doc), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	children, err := r.store.Children(ctx, collection)
	if err != nil {
		return nil, err
	}

	users := make([]*user.User, 0, len(children))
	for uid, raw := range children {
		var doc userDatamodel.User
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode user %s: %w", uid, err)
		}
		users = append(users, user.FromDataModel(uid, &doc))
	}
	return users, nil
}

func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	return r.store.Set(ctx, docstore.Join(collection, u.UID), user.ToDataModel(u))
}

package documents

import (
	"context"
	"encoding/json"
	"fmt"

	shopDatamodel "github.com/frahmantamala/genops/internal/core/datamodel/shop"
	"github.com/frahmantamala/genops/internal/core/docstore"
	"github.com/frahmantamala/genops/internal/shop"
)

const collection = "shops"

type ShopRepository struct {
	store docstore.Store
}

func NewShopRepository(store docstore.Store) shop.Repository {
	return &ShopRepository{store: store}
}

func (r *ShopRepository) GetByID(ctx context.Context, id string) (*shop.Shop, error) {
	var doc shopDatamodel.Shop
	found, err := r.store.Get(ctx, docstore.Join(collection, id), &doc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return shop.FromDataModel(id, &doc), nil
}

func (r *ShopRepository) List(ctx context.Context) ([]*shop.Shop, error) {
	children, err := r.store.Children(ctx, collection)
	if err != nil {
		return nil, err
	}

	shops := make([]*shop.Shop, 0, len(children))
	for id, raw := range children {
		var doc shopDatamodel.Shop
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode shop %s: %w", id, err)
		}
		shops = append(shops, shop.FromDataModel(id, &doc))
	}
	return shops, nil
}

func (r *ShopRepository) Create(ctx context.Context, s *shop.Shop) (string, error) {
	return r.store.Push(ctx, collection, shop.ToDataModel(s))
}

func (r *ShopRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	return r.store.Update(ctx, docstore.Join(collection, id), fields)
}

func (r *ShopRepository) Delete(ctx context.Context, id string) error {
	return r.store.Remove(ctx, docstore.Join(collection, id))
}

package documents

import (
	"context"
	"encoding/json"
	"fmt"

	invoiceDatamodel "github.com/frahmantamala/genops/internal/core/datamodel/invoice"
	"github.com/frahmantamala/genops/internal/core/docstore"
	"github.com/frahmantamala/genops/internal/invoice"
)

const collection = "invoices"

type InvoiceRepository struct {
	store docstore.Store
}

func NewInvoiceRepository(store docstore.Store) invoice.Repository {
	return &InvoiceRepository{store: store}
}

func (r *InvoiceRepository) Exists(ctx context.Context, id string) (bool, error) {
	return r.store.Exists(ctx, docstore.Join(collection, id))
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*invoice.Invoice, error) {
	var doc invoiceDatamodel.Invoice
	found, err := r.store.Get(ctx, docstore.Join(collection, id), &doc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return invoice.FromDataModel(id, &doc), nil
}

func (r *InvoiceRepository) List(ctx context.Context) ([]*invoice.Invoice, error) {
	children, err := r.store.Children(ctx, collection)
	if err != nil {
		return nil, err
	}

	invoices := make([]*invoice.Invoice, 0, len(children))
	for id, raw := range children {
		var doc invoiceDatamodel.Invoice
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode invoice %s: %w", id, err)
		}
		invoices = append(invoices, invoice.FromDataModel(id, &doc))
	}
	return invoices, nil
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	return r.store.Set(ctx, docstore.Join(collection, inv.ID), invoice.ToDataModel(inv))
}

func (r *InvoiceRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	return r.store.Update(ctx, docstore.Join(collection, id), fields)
}

package invoice_test

import (
	"context"
	"sync"

	"github.com/frahmantamala/genops/internal/invoice"
)

type fieldUpdate struct {
	ID     string
	Fields map[string]any
}

type mockRepository struct {
	mu      sync.Mutex
	docs    map[string]*invoice.Invoice
	creates []*invoice.Invoice
	updates []fieldUpdate
	exists  int

	existsErr error
	createErr error
	updateErr error
	listErr   error

	// block, when set, holds Exists until it is closed.
	block chan struct{}
	// blockUpdate, when set, holds Update until it is closed.
	blockUpdate chan struct{}
}

func newMockRepository() *mockRepository {
	return &mockRepository{docs: map[string]*invoice.Invoice{}}
}

func (m *mockRepository) Exists(ctx context.Context, id string) (bool, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exists++
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.docs[id]
	return ok, nil
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*invoice.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	copied := *inv
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context) ([]*invoice.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*invoice.Invoice, 0, len(m.docs))
	for _, inv := range m.docs {
		copied := *inv
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.creates = append(m.creates, inv)
	m.docs[inv.ID] = inv
	return nil
}

func (m *mockRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	if m.blockUpdate != nil {
		<-m.blockUpdate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates = append(m.updates, fieldUpdate{ID: id, Fields: fields})
	if inv, ok := m.docs[id]; ok {
		if status, ok := fields["status"].(string); ok {
			inv.Status = invoice.Status(status)
		}
	}
	return nil
}

func (m *mockRepository) Creates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.creates)
}

func (m *mockRepository) Updates() []fieldUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]fieldUpdate(nil), m.updates...)
}

type notice struct {
	Kind      invoice.NoticeKind
	ActorID   string
	InvoiceID string
}

type mockNotifier struct {
	mu      sync.Mutex
	notices []notice
	err     error
}

func (m *mockNotifier) Notify(ctx context.Context, kind invoice.NoticeKind, actorID string, inv *invoice.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, notice{Kind: kind, ActorID: actorID, InvoiceID: inv.ID})
	return m.err
}

func (m *mockNotifier) Notices() []notice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notice(nil), m.notices...)
}

package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/frahmantamala/genops/internal"
)

type Service struct {
	repo     Repository
	notifier Notifier
	drafts   *DraftRegistry
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, notifier Notifier, drafts *DraftRegistry, logger *slog.Logger) *Service {
	if drafts == nil {
		drafts = NewDraftRegistry()
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		drafts:   drafts,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Drafts() *DraftRegistry {
	return s.drafts
}

// List returns every invoice, newest invoice date first.
func (s *Service) List(ctx context.Context) ([]*Invoice, error) {
	invoices, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	sort.SliceStable(invoices, func(i, j int) bool {
		if !invoices[i].Date.Equal(invoices[j].Date) {
			return invoices[i].Date.After(invoices[j].Date)
		}
		return invoices[i].ID < invoices[j].ID
	})
	return invoices, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice %s: %w", id, err)
	}
	if inv == nil {
		return nil, internal.ErrInvoiceNotFound
	}
	return inv, nil
}

// OpenDraft opens an editor for clientID: a blank one when invoiceID is empty, else one
// hydrated from the stored invoice.
func (s *Service) OpenDraft(ctx context.Context, clientID, invoiceID string) (string, *Editor, error) {
	var editor *Editor
	if invoiceID == "" {
		editor = NewCreateEditor(s.repo, s.notifier, s.logger)
	} else {
		inv, err := s.GetByID(ctx, invoiceID)
		if err != nil {
			return "", nil, err
		}
		editor = NewEditEditor(inv, s.repo, s.notifier, s.logger)
	}

	draftID := s.drafts.Open(clientID, editor)
	s.logger.DebugContext(ctx, "invoice draft opened", "draft_id", draftID, "mode", editor.Mode(), "invoice_id", invoiceID)
	return draftID, editor, nil
}

func (s *Service) Draft(clientID, draftID string) (*Editor, error) {
	return s.drafts.Get(clientID, draftID)
}

func (s *Service) CloseDraft(clientID, draftID string) {
	s.drafts.Close(clientID, draftID)
}

// SubmitDraft submits a draft and closes it once the write succeeds.
func (s *Service) SubmitDraft(ctx context.Context, clientID, draftID, actorID string) (*Invoice, error) {
	editor, err := s.drafts.Get(clientID, draftID)
	if err != nil {
		return nil, err
	}
	return editor.Submit(ctx, actorID, Callbacks{
		OnSuccess: func(id string) {
			s.logger.InfoContext(ctx, "invoice draft submitted", "draft_id", draftID, "invoice_id", id)
		},
		OnClose: func() {
			s.drafts.Close(clientID, draftID)
		},
	})
}

// UpdateStatus changes the status of a stored invoice.
func (s *Service) UpdateStatus(ctx context.Context, actorID, id string, status Status) (*Invoice, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	editor := NewEditEditor(inv, s.repo, s.notifier, s.logger)
	if err := editor.UpdateStatus(ctx, actorID, status); err != nil {
		return nil, err
	}

	inv.Status = status
	inv.UpdatedAt = s.now().UTC()
	return inv, nil
}

// MarkOverdue moves every pending invoice past its due date to Overdue and returns how
// many were moved. It keeps going after a failed write and reports the last failure.
func (s *Service) MarkOverdue(ctx context.Context) (int, error) {
	invoices, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list invoices: %w", err)
	}

	now := s.now().UTC()
	moved := 0
	var lastErr error
	for _, inv := range invoices {
		if !inv.IsOverdue(now) {
			continue
		}
		if err := s.repo.Update(ctx, inv.ID, StatusFields(StatusOverdue, now)); err != nil {
			s.logger.ErrorContext(ctx, "failed to mark invoice overdue", "invoice_id", inv.ID, "error", err)
			lastErr = err
			continue
		}
		moved++
	}

	if moved > 0 {
		s.logger.InfoContext(ctx, "overdue invoices marked", "count", moved)
	}
	return moved, lastErr
}

package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/genops/internal"
	"github.com/google/uuid"
)

// BannerTTL is how long a submit banner stays visible.
const BannerTTL = 3500 * time.Millisecond

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

type NoticeKind string

const (
	NoticeCreated NoticeKind = "invoice_created"
	NoticeUpdated NoticeKind = "invoice_updated"
	NoticePaid    NoticeKind = "invoice_paid"
)

// Notifier records that an invoice changed on behalf of actorID.
type Notifier interface {
	Notify(ctx context.Context, kind NoticeKind, actorID string, inv *Invoice) error
}

// Repository persists invoices at invoices/{id}.
type Repository interface {
	Exists(ctx context.Context, id string) (bool, error)
	// GetByID returns nil, nil when the invoice does not exist.
	GetByID(ctx context.Context, id string) (*Invoice, error)
	List(ctx context.Context) ([]*Invoice, error)
	Create(ctx context.Context, inv *Invoice) error
	Update(ctx context.Context, id string, fields map[string]any) error
}

// Callbacks are invoked in order after a successful submit.
type Callbacks struct {
	OnSuccess func(id string)
	OnClose   func()
}

type BannerKind string

const (
	BannerSuccess BannerKind = "success"
	BannerError   BannerKind = "error"
)

type Banner struct {
	Kind      BannerKind `json:"kind"`
	Message   string     `json:"message"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

type Field string

const (
	FieldDescription Field = "description"
	FieldQty         Field = "qty"
	FieldUnitPrice   Field = "unitPrice"
	FieldAmount      Field = "amount"
)

// Snapshot is a consistent view of an editor.
type Snapshot struct {
	Mode        Mode    `json:"mode"`
	Draft       Draft   `json:"draft"`
	Totals      Totals  `json:"totals"`
	Submitting  bool    `json:"submitting"`
	InlineError string  `json:"inlineError,omitempty"`
	Banner      *Banner `json:"banner,omitempty"`
}

// Editor owns one draft for one edit session.
type Editor struct {
	mu          sync.Mutex
	mode        Mode
	draft       Draft
	inlineError string
	banner      *Banner
	busy        atomic.Bool

	repo     Repository
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

type EditorOption func(*Editor)

func WithClock(now func() time.Time) EditorOption {
	return func(e *Editor) { e.now = now }
}

func WithIDGenerator(newID func() string) EditorOption {
	return func(e *Editor) { e.newID = newID }
}

// NewCreateEditor starts an empty draft dated today with a single row.
func NewCreateEditor(repo Repository, notifier Notifier, logger *slog.Logger, opts ...EditorOption) *Editor {
	e := newEditor(ModeCreate, repo, notifier, logger, opts)
	today := e.now().UTC().Truncate(24 * time.Hour)
	e.draft = Draft{
		Date:      today,
		Status:    StatusPending,
		LineItems: []LineItem{e.blankRow()},
	}
	return e
}

// NewEditEditor hydrates a draft from a persisted invoice.
func NewEditEditor(inv *Invoice, repo Repository, notifier Notifier, logger *slog.Logger, opts ...EditorOption) *Editor {
	e := newEditor(ModeEdit, repo, notifier, logger, opts)
	e.draft = Draft{
		ID:          inv.ID,
		CompanyName: inv.CompanyName,
		Description: inv.Description,
		Date:        inv.Date,
		DueDate:     inv.DueDate,
		Status:      inv.Status,
		LineItems:   inv.LineItems,
	}
	e.draft = e.draft.clone()
	for i := range e.draft.LineItems {
		if e.draft.LineItems[i].ID == "" {
			e.draft.LineItems[i].ID = e.newID()
		}
	}
	if len(e.draft.LineItems) == 0 {
		e.draft.LineItems = []LineItem{e.blankRow()}
	}
	return e
}

func newEditor(mode Mode, repo Repository, notifier Notifier, logger *slog.Logger, opts []EditorOption) *Editor {
	e := &Editor{
		mode:     mode,
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Editor) blankRow() LineItem {
	return LineItem{ID: e.newID(), Qty: float(1), UnitPrice: float(0)}
}

func (e *Editor) Mode() Mode {
	return e.mode
}

// Draft returns a copy of the draft.
func (e *Editor) Draft() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.clone()
}

func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Mode:        e.mode,
		Draft:       e.draft.clone(),
		Totals:      ComputeTotals(e.draft.LineItems),
		Submitting:  e.busy.Load(),
		InlineError: e.inlineError,
		Banner:      e.activeBanner(),
	}
}

// Totals are recomputed from the current rows on every call.
func (e *Editor) Totals() Totals {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ComputeTotals(e.draft.LineItems)
}

func (e *Editor) Submitting() bool {
	return e.busy.Load()
}

func (e *Editor) InlineError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inlineError
}

// Banner returns the visible banner, or nil once it has expired.
func (e *Editor) Banner() *Banner {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeBanner()
}

func (e *Editor) activeBanner() *Banner {
	if e.banner == nil || !e.now().Before(e.banner.ExpiresAt) {
		return nil
	}
	b := *e.banner
	return &b
}

// AddRow appends an empty row and returns its id.
func (e *Editor) AddRow() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	row := e.blankRow()
	e.draft.LineItems = append(e.draft.LineItems, row)
	return row.ID
}

// RemoveRow removes a row. Removing the last remaining row or an unknown row does nothing.
func (e *Editor) RemoveRow(rowID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.draft.LineItems) <= 1 {
		return
	}
	for i, item := range e.draft.LineItems {
		if item.ID == rowID {
			e.draft.LineItems = append(e.draft.LineItems[:i:i], e.draft.LineItems[i+1:]...)
			return
		}
	}
}

// UpdateRow sets one field of one row. Numeric fields are coerced with ParseNumber.
func (e *Editor) UpdateRow(rowID string, field Field, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := -1
	for i, item := range e.draft.LineItems {
		if item.ID == rowID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return internal.ErrRowNotFound
	}

	row := &e.draft.LineItems[idx]
	switch field {
	case FieldDescription:
		switch v := value.(type) {
		case nil:
			row.Description = ""
		case string:
			row.Description = v
		default:
			row.Description = fmt.Sprint(v)
		}
	case FieldQty:
		row.Qty = ParseNumber(value)
	case FieldUnitPrice:
		row.UnitPrice = ParseNumber(value)
	case FieldAmount:
		row.Amount = ParseNumber(value)
	default:
		return internal.NewValidationFieldError("field", fmt.Sprintf("unknown line item field %q", field), internal.ErrCodeValidationFailed)
	}
	return nil
}

// SetID changes the invoice id. The id cannot change once the invoice exists.
func (e *Editor) SetID(id string) error {
	if e.mode == ModeEdit {
		return internal.NewValidationFieldError("id", "Invoice ID cannot be changed.", internal.ErrCodeInvoiceIDImmutable)
	}
	e.mu.Lock()
	e.draft.ID = id
	e.mu.Unlock()
	return nil
}

func (e *Editor) SetCompanyName(name string) {
	e.mu.Lock()
	e.draft.CompanyName = name
	e.mu.Unlock()
}

func (e *Editor) SetDescription(description string) {
	e.mu.Lock()
	e.draft.Description = description
	e.mu.Unlock()
}

func (e *Editor) SetDate(date time.Time) {
	e.mu.Lock()
	e.draft.Date = date
	e.mu.Unlock()
}

// SetDueDate sets or, with nil, clears the due date.
func (e *Editor) SetDueDate(due *time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if due == nil {
		e.draft.DueDate = nil
		return
	}
	d := *due
	e.draft.DueDate = &d
}

func (e *Editor) SetStatus(status Status) error {
	if !status.Valid() {
		return internal.NewValidationFieldError("status", fmt.Sprintf("status must be one of %s", strings.Join(Statuses, ", ")), internal.ErrCodeInvalidStatus)
	}
	e.mu.Lock()
	e.draft.Status = status
	e.mu.Unlock()
	return nil
}

// Validate runs the draft rules and makes the first failure the inline error, or
// clears the inline error when the draft passes.
func (e *Editor) Validate() *internal.AppError {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.validateLocked()
}

func (e *Editor) validateLocked() *internal.AppError {
	if err := Validate(e.draft); err != nil {
		e.inlineError = InlineMessage(err)
		return err
	}
	e.inlineError = ""
	return nil
}

// Submit persists the draft. Create mode refuses ids that already exist; edit mode
// writes a partial update of the same payload. Notifications are best-effort.
func (e *Editor) Submit(ctx context.Context, actorID string, cb Callbacks) (*Invoice, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return nil, internal.ErrEditorBusy
	}
	defer e.busy.Store(false)

	e.mu.Lock()
	if err := e.validateLocked(); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	draft := e.draft.clone()
	e.mu.Unlock()

	now := e.now().UTC()
	inv := &Invoice{
		ID:          strings.TrimSpace(draft.ID),
		CompanyName: strings.TrimSpace(draft.CompanyName),
		Description: draft.Description,
		Date:        draft.Date,
		DueDate:     draft.DueDate,
		Status:      draft.Status,
		LineItems:   draft.LineItems,
		Amount:      ComputeTotals(draft.LineItems).Total,
		UpdatedAt:   now,
	}

	var (
		kind NoticeKind
		err  error
	)
	switch e.mode {
	case ModeCreate:
		inv.CreatedBy = actorID
		kind = NoticeCreated
		err = e.create(ctx, inv)
	default:
		kind = NoticeUpdated
		err = e.update(ctx, inv)
	}
	if err != nil {
		e.fail(err)
		return nil, err
	}

	e.notify(ctx, kind, actorID, inv)
	e.succeed(fmt.Sprintf("Invoice %s saved.", inv.ID))

	if cb.OnSuccess != nil {
		cb.OnSuccess(inv.ID)
	}
	if cb.OnClose != nil {
		cb.OnClose()
	}
	return inv, nil
}

func (e *Editor) create(ctx context.Context, inv *Invoice) error {
	exists, err := e.repo.Exists(ctx, inv.ID)
	if err != nil {
		return fmt.Errorf("check invoice %s: %w", inv.ID, err)
	}
	if exists {
		return internal.NewConflictError(fmt.Sprintf("Invoice %s already exists.", inv.ID), internal.ErrCodeInvoiceDuplicateID)
	}
	if err := e.repo.Create(ctx, inv); err != nil {
		return fmt.Errorf("create invoice %s: %w", inv.ID, err)
	}
	e.logger.InfoContext(ctx, "invoice created", "invoice_id", inv.ID, "amount", inv.Amount)
	return nil
}

func (e *Editor) update(ctx context.Context, inv *Invoice) error {
	fields, err := PayloadFields(inv)
	if err != nil {
		return err
	}
	delete(fields, "createdBy")
	if err := e.repo.Update(ctx, inv.ID, fields); err != nil {
		return fmt.Errorf("update invoice %s: %w", inv.ID, err)
	}
	e.logger.InfoContext(ctx, "invoice updated", "invoice_id", inv.ID, "amount", inv.Amount)
	return nil
}

// UpdateStatus writes only the status and update time of the invoice being edited.
// Moving to Paid emits a single paid notification. The rest of the draft is not validated.
// It shares the busy flag with Submit.
func (e *Editor) UpdateStatus(ctx context.Context, actorID string, status Status) error {
	if e.mode != ModeEdit {
		return internal.NewConflictError("Status can only be changed on an existing invoice.", internal.ErrCodeEditorModeMismatch)
	}
	if !status.Valid() {
		return internal.NewValidationFieldError("status", fmt.Sprintf("status must be one of %s", strings.Join(Statuses, ", ")), internal.ErrCodeInvalidStatus)
	}
	if !e.busy.CompareAndSwap(false, true) {
		return internal.ErrEditorBusy
	}
	defer e.busy.Store(false)

	e.mu.Lock()
	id := e.draft.ID
	e.mu.Unlock()

	now := e.now().UTC()
	if err := e.repo.Update(ctx, id, StatusFields(status, now)); err != nil {
		err = fmt.Errorf("update invoice %s status: %w", id, err)
		e.fail(err)
		return err
	}

	e.mu.Lock()
	e.draft.Status = status
	snapshot := e.draft.clone()
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "invoice status changed", "invoice_id", id, "status", status)

	if status == StatusPaid {
		e.notify(ctx, NoticePaid, actorID, &Invoice{
			ID:          snapshot.ID,
			CompanyName: snapshot.CompanyName,
			Status:      status,
			Amount:      ComputeTotals(snapshot.LineItems).Total,
			UpdatedAt:   now,
		})
	}
	e.succeed(fmt.Sprintf("Invoice %s marked as %s.", id, status))
	return nil
}

func (e *Editor) notify(ctx context.Context, kind NoticeKind, actorID string, inv *Invoice) {
	if e.notifier == nil || actorID == "" {
		return
	}
	if err := e.notifier.Notify(ctx, kind, actorID, inv); err != nil {
		e.logger.WarnContext(ctx, "invoice notification failed", "kind", kind, "invoice_id", inv.ID, "error", err)
	}
}

func (e *Editor) succeed(message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.banner = &Banner{Kind: BannerSuccess, Message: message, ExpiresAt: e.now().Add(BannerTTL)}
}

func (e *Editor) fail(err error) {
	message := InlineMessage(err)
	var appErr *internal.AppError
	if !errors.As(err, &appErr) {
		e.logger.Error("invoice write failed", "error", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.inlineError = message
	e.banner = &Banner{Kind: BannerError, Message: message, ExpiresAt: e.now().Add(BannerTTL)}
}

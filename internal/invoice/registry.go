package invoice

import (
	"sync"
	"time"

	"github.com/frahmantamala/genops/internal"
	"github.com/google/uuid"
)

type draftEntry struct {
	clientID string
	editor   *Editor
	lastSeen time.Time
}

// DraftRegistry keeps the open editors of every client. A draft is only visible to the
// client that opened it.
type DraftRegistry struct {
	mu      sync.Mutex
	entries map[string]*draftEntry
	now     func() time.Time
}

func NewDraftRegistry() *DraftRegistry {
	return &DraftRegistry{
		entries: make(map[string]*draftEntry),
		now:     time.Now,
	}
}

// Open registers editor for clientID and returns its draft id.
func (r *DraftRegistry) Open(clientID string, editor *Editor) string {
	draftID := uuid.NewString()
	r.mu.Lock()
	r.entries[draftID] = &draftEntry{clientID: clientID, editor: editor, lastSeen: r.now()}
	r.mu.Unlock()
	return draftID
}

func (r *DraftRegistry) Get(clientID, draftID string) (*Editor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[draftID]
	if !ok || entry.clientID != clientID {
		return nil, internal.ErrDraftNotFound
	}
	entry.lastSeen = r.now()
	return entry.editor, nil
}

// Close discards a draft. Closing an unknown draft is a no-op.
func (r *DraftRegistry) Close(clientID, draftID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[draftID]; ok && entry.clientID == clientID {
		delete(r.entries, draftID)
	}
}

// ForgetClient discards every draft of a client.
func (r *DraftRegistry) ForgetClient(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, entry := range r.entries {
		if entry.clientID == clientID {
			delete(r.entries, id)
		}
	}
}

// EvictIdle discards drafts untouched for ttl, skipping drafts that are submitting.
func (r *DraftRegistry) EvictIdle(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, entry := range r.entries {
		if entry.lastSeen.Before(cutoff) && !entry.editor.Submitting() {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

func (r *DraftRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

package services

import (
	"html"
	"sync"
	"time"

	"github.com/google/uuid"

	"warren-backend/internal/models"
)

// Notifier receives every transcript mutation. The session manager wires it
// to the pub/sub feed; the widget's auto-scroll follows from being pushed
// the newest entry on each change.
type Notifier func(msg models.WSMessage)

// Transcript is the ordered chat log for one conversation, plus the busy
// flag that gates turn initiation. Assistant entries are mutable while a
// reply streams in; everything else is immutable once appended. The only
// entry ever removed is the transient loading placeholder.
type Transcript struct {
	mu          sync.Mutex
	entries     []*models.TranscriptEntry
	busy        bool
	placeholder *models.TranscriptEntry
	notify      Notifier
}

func NewTranscript(notify Notifier) *Transcript {
	if notify == nil {
		notify = func(models.WSMessage) {}
	}
	return &Transcript{notify: notify}
}

// Append adds an entry and returns its handle. Assistant content is expected
// to be sanitized HTML (from Renderer.RenderAssistant); user and error
// content is escaped here as literal text. The raw flag is the single escape
// hatch for caller-built markup (the photo preview); trust is granted by
// the flag, never inferred from the content itself.
func (t *Transcript) Append(role, content string, raw bool) *models.TranscriptEntry {
	if role != models.RoleAssistant && !raw {
		content = html.EscapeString(content)
	}

	t.mu.Lock()
	entry := &models.TranscriptEntry{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		Final:     role != models.RoleAssistant,
		CreatedAt: time.Now(),
	}
	t.entries = append(t.entries, entry)
	snapshot := *entry
	t.mu.Unlock()

	t.notify(models.WSMessage{Type: models.WSEntryAdded, Payload: models.EntryEvent{Entry: snapshot}})
	return entry
}

// Update replaces the content of a streaming assistant entry. Finalized
// entries are left untouched.
func (t *Transcript) Update(entry *models.TranscriptEntry, content string, chunksSent int) {
	t.mu.Lock()
	if entry.Final {
		t.mu.Unlock()
		return
	}
	entry.Content = content
	id := entry.ID
	t.mu.Unlock()

	t.notify(models.WSMessage{Type: models.WSAssistantPartial, Payload: models.PartialEvent{
		EntryID:    id,
		Content:    content,
		ChunksSent: chunksSent,
	}})
}

// Finalize marks an assistant entry complete; no further mutation.
func (t *Transcript) Finalize(entry *models.TranscriptEntry) {
	t.mu.Lock()
	entry.Final = true
	t.mu.Unlock()
}

// Discard removes an assistant entry that never received content, so a turn
// failing before its first fragment does not leave an empty bubble next to
// the error entry. The entry is finalized so late updates are ignored.
func (t *Transcript) Discard(entry *models.TranscriptEntry) {
	t.mu.Lock()
	for i, e := range t.entries {
		if e == entry {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			break
		}
	}
	entry.Final = true
	id := entry.ID
	t.mu.Unlock()

	t.notify(models.WSMessage{Type: models.WSEntryRemoved, Payload: models.EntryRemovedEvent{EntryID: id}})
}

// SetBusy toggles the in-flight state. While busy the widget disables its
// text input and both submit controls, and exactly one loading placeholder
// is shown. Idempotent in both directions.
func (t *Transcript) SetBusy(busy bool) {
	t.mu.Lock()
	if t.busy == busy {
		t.mu.Unlock()
		return
	}
	t.busy = busy

	var added *models.TranscriptEntry
	var removedID uuid.UUID
	if busy {
		added = &models.TranscriptEntry{
			ID:        uuid.New(),
			Role:      models.RoleLoading,
			CreatedAt: time.Now(),
		}
		t.placeholder = added
		t.entries = append(t.entries, added)
	} else if t.placeholder != nil {
		removedID = t.placeholder.ID
		for i, e := range t.entries {
			if e == t.placeholder {
				t.entries = append(t.entries[:i], t.entries[i+1:]...)
				break
			}
		}
		t.placeholder = nil
	}
	t.mu.Unlock()

	if added != nil {
		t.notify(models.WSMessage{Type: models.WSEntryAdded, Payload: models.EntryEvent{Entry: *added}})
	}
	if removedID != uuid.Nil {
		t.notify(models.WSMessage{Type: models.WSEntryRemoved, Payload: models.EntryRemovedEvent{EntryID: removedID}})
	}
	t.notify(models.WSMessage{Type: models.WSBusyState, Payload: models.BusyEvent{Busy: busy}})
}

func (t *Transcript) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.busy
}

// Snapshot returns a copy of the transcript for the reconnect path.
func (t *Transcript) Snapshot() []models.TranscriptEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.TranscriptEntry, len(t.entries))
	for i, e := range t.entries {
		out[i] = *e
	}
	return out
}

// Content returns the current content of an entry. Test and handler helper.
func (t *Transcript) Content(entry *models.TranscriptEntry) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return entry.Content
}

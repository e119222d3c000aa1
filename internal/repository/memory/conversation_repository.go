package memory

import (
	"sync"
	"time"

	"care-relay-be/internal/repository/contract"
	"care-relay-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// conversation is the mutable per-patient entry; mu guards every field.
type conversation struct {
	mu        sync.Mutex
	document  string
	history   []store.Turn
	updatedAt time.Time
}

type ConversationRepository struct {
	cache *cache.Cache
	now   func() time.Time
}

var _ contract.ConversationRepository = (*ConversationRepository)(nil)

func NewConversationRepository() *ConversationRepository {
	// Conversations live for the whole process, so nothing expires and
	// the janitor is disabled.
	c := cache.New(cache.NoExpiration, 0)
	return &ConversationRepository{
		cache: c,
		now:   time.Now,
	}
}

// entry returns the patient's conversation, creating it on first use.
// Concurrent creators converge on whichever entry cache.Add stored first.
func (r *ConversationRepository) entry(patientID string) *conversation {
	if x, found := r.cache.Get(patientID); found {
		return x.(*conversation)
	}
	fresh := &conversation{}
	if err := r.cache.Add(patientID, fresh, cache.NoExpiration); err == nil {
		return fresh
	}
	x, _ := r.cache.Get(patientID)
	return x.(*conversation)
}

func (r *ConversationRepository) lookup(patientID string) (*conversation, bool) {
	x, found := r.cache.Get(patientID)
	if !found {
		return nil, false
	}
	return x.(*conversation), true
}

func (r *ConversationRepository) AppendTurn(patientID string, role store.Role, text string) {
	c := r.entry(patientID)
	now := r.now()

	c.mu.Lock()
	c.history = append(c.history, store.Turn{Role: role, Text: text, CreatedAt: now})
	c.updatedAt = now
	c.mu.Unlock()
}

// GetHistory returns a copy of the patient's turns in arrival order.
func (r *ConversationRepository) GetHistory(patientID string) []store.Turn {
	c, ok := r.lookup(patientID)
	if !ok {
		return []store.Turn{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]store.Turn, len(c.history))
	copy(out, c.history)
	return out
}

func (r *ConversationRepository) SetDocument(patientID string, text string) {
	c := r.entry(patientID)
	now := r.now()

	c.mu.Lock()
	c.document = text
	c.updatedAt = now
	c.mu.Unlock()
}

func (r *ConversationRepository) GetDocument(patientID string) string {
	c, ok := r.lookup(patientID)
	if !ok {
		return ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.document
}

func (r *ConversationRepository) Snapshot(patientID string) (*store.Conversation, bool) {
	c, ok := r.lookup(patientID)
	if !ok {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	history := make([]store.Turn, len(c.history))
	copy(history, c.history)
	return &store.Conversation{
		PatientID: patientID,
		Document:  c.document,
		History:   history,
		UpdatedAt: c.updatedAt,
	}, true
}

package memory

import (
	"fmt"
	"sync"
	"testing"

	"care-relay-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationRepository_History(t *testing.T) {
	repo := NewConversationRepository()

	assert.Empty(t, repo.GetHistory("patient1"))

	repo.AppendTurn("patient1", store.RoleUser, "hello")
	repo.AppendTurn("patient1", store.RoleAssistant, "hi there")

	history := repo.GetHistory("patient1")
	require.Len(t, history, 2)
	assert.Equal(t, store.RoleUser, history[0].Role)
	assert.Equal(t, "hello", history[0].Text)
	assert.Equal(t, store.RoleAssistant, history[1].Role)
	assert.Equal(t, "hi there", history[1].Text)

	// Mutating the snapshot must not leak into the store.
	history[0].Text = "tampered"
	assert.Equal(t, "hello", repo.GetHistory("patient1")[0].Text)

	assert.Empty(t, repo.GetHistory("patient2"))
}

func TestConversationRepository_DocumentOverwrite(t *testing.T) {
	repo := NewConversationRepository()

	assert.Equal(t, "", repo.GetDocument("patient1"))

	repo.SetDocument("patient1", "first note")
	repo.SetDocument("patient1", "second note")
	assert.Equal(t, "second note", repo.GetDocument("patient1"))

	repo.AppendTurn("patient1", store.RoleUser, "question")
	assert.Equal(t, "second note", repo.GetDocument("patient1"))
}

func TestConversationRepository_Snapshot(t *testing.T) {
	repo := NewConversationRepository()

	_, ok := repo.Snapshot("nobody")
	assert.False(t, ok)

	repo.SetDocument("patient1", "note")
	repo.AppendTurn("patient1", store.RoleUser, "q")

	snap, ok := repo.Snapshot("patient1")
	require.True(t, ok)
	assert.Equal(t, "patient1", snap.PatientID)
	assert.Equal(t, "note", snap.Document)
	assert.Len(t, snap.History, 1)
	assert.False(t, snap.UpdatedAt.IsZero())
}

func TestConversationRepository_ConcurrentPatients(t *testing.T) {
	repo := NewConversationRepository()

	const patients = 8
	const turns = 200

	var wg sync.WaitGroup
	for p := 0; p < patients; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			id := fmt.Sprintf("patient%d", p)
			for i := 0; i < turns; i++ {
				repo.AppendTurn(id, store.RoleUser, fmt.Sprintf("%d", i))
				if i%50 == 0 {
					repo.SetDocument(id, fmt.Sprintf("doc-%d", i))
				}
			}
		}(p)
	}
	wg.Wait()

	for p := 0; p < patients; p++ {
		id := fmt.Sprintf("patient%d", p)
		history := repo.GetHistory(id)
		require.Len(t, history, turns)
		for i, turn := range history {
			assert.Equal(t, fmt.Sprintf("%d", i), turn.Text)
		}
		assert.Equal(t, "doc-150", repo.GetDocument(id))
	}
}

func TestConversationRepository_ConcurrentFirstWrite(t *testing.T) {
	repo := NewConversationRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			repo.AppendTurn("patient1", store.RoleUser, "x")
		}()
	}
	wg.Wait()

	assert.Len(t, repo.GetHistory("patient1"), 50)
}

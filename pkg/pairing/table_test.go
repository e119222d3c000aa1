package pairing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	table, err := New(
		map[string]string{
			"patient1": "expert1",
			"patient2": "expert2",
			"patient3": "expert3",
		},
		[]string{"patient3", "patient4"},
	)
	require.NoError(t, err)
	return table
}

func TestClassify(t *testing.T) {
	table := newTestTable(t)

	tests := []struct {
		name      string
		id        string
		wantRoute Route
		wantPeer  string
	}{
		{name: "paired patient", id: "patient1", wantRoute: RoutePatientToExpert, wantPeer: "expert1"},
		{name: "paired expert", id: "expert2", wantRoute: RouteExpertToPatient, wantPeer: "patient2"},
		{name: "agent only patient", id: "patient4", wantRoute: RouteAgent},
		{name: "agent wins over pairing", id: "patient3", wantRoute: RouteAgent},
		{name: "expert of agent routed patient still relays", id: "expert3", wantRoute: RouteExpertToPatient, wantPeer: "patient3"},
		{name: "unknown", id: "patient9", wantRoute: RouteUnrecognized},
		{name: "empty", id: "", wantRoute: RouteUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, peer := table.Classify(tt.id)
			assert.Equal(t, tt.wantRoute, route)
			assert.Equal(t, tt.wantPeer, peer)
		})
	}
}

func TestReverseLookupIsTotalAndUnique(t *testing.T) {
	pairs := map[string]string{
		"patient1": "expert1",
		"patient2": "expert2",
		"patient5": "expert5",
	}
	table, err := New(pairs, nil)
	require.NoError(t, err)

	for patient, expert := range pairs {
		got, ok := table.PatientOfExpert(expert)
		assert.True(t, ok)
		assert.Equal(t, patient, got)
	}

	_, ok := table.PatientOfExpert("expert9")
	assert.False(t, ok)
	_, ok = table.PatientOfExpert("patient1")
	assert.False(t, ok)
}

func TestNewRejectsInvalidTables(t *testing.T) {
	t.Run("duplicate expert", func(t *testing.T) {
		_, err := New(map[string]string{"patient1": "expert1", "patient2": "expert1"}, nil)
		assert.ErrorIs(t, err, ErrDuplicateExpert)
	})

	t.Run("empty expert", func(t *testing.T) {
		_, err := New(map[string]string{"patient1": " "}, nil)
		assert.ErrorIs(t, err, ErrEmptyIdentifier)
	})

	t.Run("empty agent id", func(t *testing.T) {
		_, err := New(nil, []string{""})
		assert.ErrorIs(t, err, ErrEmptyIdentifier)
	})

	t.Run("identifier on both sides", func(t *testing.T) {
		_, err := New(map[string]string{"a": "b", "b": "c"}, nil)
		assert.ErrorIs(t, err, ErrPatientIsExpert)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pairings.yaml")
	data := []byte("pairs:\n  patient1: expert1\n  patient2: expert2\nagent:\n  - patient7\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	table, err := Load(path)
	require.NoError(t, err)

	pairs, agent := table.Size()
	assert.Equal(t, 2, pairs)
	assert.Equal(t, 1, agent)
	assert.True(t, table.IsAgentRouted("patient7"))

	expert, ok := table.CounterpartOfPatient("patient2")
	assert.True(t, ok)
	assert.Equal(t, "expert2", expert)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("pairs: [not, a, map]"))
	assert.Error(t, err)
}

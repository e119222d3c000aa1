package pairing

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrDuplicateExpert = errors.New("expert is paired with more than one patient")
	ErrEmptyIdentifier = errors.New("pairing identifier must not be empty")
	ErrPatientIsExpert = errors.New("identifier is used as both patient and expert")
)

// Route is the outcome of classifying a sender identifier
type Route int

const (
	RouteUnrecognized Route = iota
	RouteAgent
	RoutePatientToExpert
	RouteExpertToPatient
)

func (r Route) String() string {
	switch r {
	case RouteAgent:
		return "agent"
	case RoutePatientToExpert:
		return "patient_to_expert"
	case RouteExpertToPatient:
		return "expert_to_patient"
	default:
		return "unrecognized"
	}
}

// File is the on-disk layout of the pairing table.
//
//	pairs:
//	  patient1: expert1
//	agent:
//	  - patient4
type File struct {
	Pairs map[string]string `yaml:"pairs"`
	Agent []string          `yaml:"agent"`
}

// Table is the fixed patient<->expert assignment plus the agent-routed set.
// It is immutable after construction and safe for concurrent reads.
type Table struct {
	patientToExpert map[string]string
	expertToPatient map[string]string
	agentRouted     map[string]struct{}
}

// New builds a table from a forward mapping and the agent-routed patients.
// The inverse index is precomputed, so every expert maps back to exactly one patient.
func New(pairs map[string]string, agent []string) (*Table, error) {
	t := &Table{
		patientToExpert: make(map[string]string, len(pairs)),
		expertToPatient: make(map[string]string, len(pairs)),
		agentRouted:     make(map[string]struct{}, len(agent)),
	}

	// Sorted so that a duplicate-expert error always names the same patients.
	patients := make([]string, 0, len(pairs))
	for p := range pairs {
		patients = append(patients, p)
	}
	sort.Strings(patients)

	for _, patient := range patients {
		expert := strings.TrimSpace(pairs[patient])
		patient = strings.TrimSpace(patient)
		if patient == "" || expert == "" {
			return nil, ErrEmptyIdentifier
		}
		if prev, ok := t.expertToPatient[expert]; ok {
			return nil, fmt.Errorf("%w: %s (%s, %s)", ErrDuplicateExpert, expert, prev, patient)
		}
		t.patientToExpert[patient] = expert
		t.expertToPatient[expert] = patient
	}

	for patient := range t.patientToExpert {
		if _, ok := t.expertToPatient[patient]; ok {
			return nil, fmt.Errorf("%w: %s", ErrPatientIsExpert, patient)
		}
	}

	for _, id := range agent {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, ErrEmptyIdentifier
		}
		t.agentRouted[id] = struct{}{}
	}

	return t, nil
}

// Load reads a YAML pairing file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pairing file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML pairing data.
func Parse(data []byte) (*Table, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse pairing file: %w", err)
	}
	return New(f.Pairs, f.Agent)
}

// CounterpartOfPatient returns the expert paired with patientID.
func (t *Table) CounterpartOfPatient(patientID string) (string, bool) {
	expert, ok := t.patientToExpert[patientID]
	return expert, ok
}

// PatientOfExpert returns the single patient paired with expertID.
func (t *Table) PatientOfExpert(expertID string) (string, bool) {
	patient, ok := t.expertToPatient[expertID]
	return patient, ok
}

// IsAgentRouted reports whether patientID is always serviced by the agent.
func (t *Table) IsAgentRouted(patientID string) bool {
	_, ok := t.agentRouted[patientID]
	return ok
}

// Classify resolves how a message from id is routed and, for human relays,
// the peer identifier. First match wins: agent set, patient key, expert value.
func (t *Table) Classify(id string) (Route, string) {
	if t.IsAgentRouted(id) {
		return RouteAgent, ""
	}
	if expert, ok := t.CounterpartOfPatient(id); ok {
		return RoutePatientToExpert, expert
	}
	if patient, ok := t.PatientOfExpert(id); ok {
		return RouteExpertToPatient, patient
	}
	return RouteUnrecognized, ""
}

// Size returns the number of human pairs and agent-routed patients.
func (t *Table) Size() (pairs int, agent int) {
	return len(t.patientToExpert), len(t.agentRouted)
}

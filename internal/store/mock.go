package store

import (
	"ndjaka/mineral-tax/internal/models"
)

// MockMachineStore is an in-memory MachineLookup for tests.
type MockMachineStore struct {
	Machines map[string]models.Machine
}

// NewMockMachineStore indexes machines by ID.
func NewMockMachineStore(machines ...models.Machine) *MockMachineStore {
	m := &MockMachineStore{Machines: make(map[string]models.Machine, len(machines))}
	for _, machine := range machines {
		m.Machines[machine.ID] = machine
	}
	return m
}

// Machine returns the machine with the given ID.
func (m *MockMachineStore) Machine(id string) (models.Machine, bool) {
	machine, ok := m.Machines[id]
	return machine, ok
}

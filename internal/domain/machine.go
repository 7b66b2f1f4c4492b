package domain

import "time"

// MachineStatus is derived from open tasks: a machine needing work shows
// ATTENTION, otherwise OK.
type MachineStatus string

const (
	MachineStatusOK        MachineStatus = "OK"
	MachineStatusAttention MachineStatus = "ATTENTION"
)

// Machine represents a piece of shop equipment. machine name is the key.
type Machine struct {
	Name        string
	Type        string
	DisplayName string
	Location    string
	AddedAt     time.Time
}

// MachineWithStatus joins a machine with its derived status and the count
// of non-resolved tasks, computed on the list read path.
type MachineWithStatus struct {
	Machine
	Status    MachineStatus
	OpenTasks int
}

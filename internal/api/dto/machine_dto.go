package dto

import (
	"time"

	"github.com/spec-kit/makerspace-admin/internal/domain"
)

// CreateMachineRequest payload. Name is the machine's stable identifier.
type CreateMachineRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
	Location    string `json:"location"`
}

// MachineResponse renders a machine together with its derived status.
type MachineResponse struct {
	Name        string               `json:"name"`
	Type        string               `json:"type"`
	DisplayName string               `json:"display_name"`
	Location    string               `json:"location"`
	Status      domain.MachineStatus `json:"status"`
	OpenTasks   int                  `json:"open_tasks"`
	AddedAt     time.Time            `json:"added_at"`
}

// NewMachineResponse maps a machine with its status annotation.
func NewMachineResponse(machine *domain.MachineWithStatus) MachineResponse {
	return MachineResponse{
		Name:        machine.Name,
		Type:        machine.Type,
		DisplayName: machine.DisplayName,
		Location:    machine.Location,
		Status:      machine.Status,
		OpenTasks:   machine.OpenTasks,
		AddedAt:     machine.AddedAt,
	}
}

// NewMachineResponses maps a slice of machines, preserving order.
func NewMachineResponses(machines []domain.MachineWithStatus) []MachineResponse {
	result := make([]MachineResponse, 0, len(machines))
	for i := range machines {
		result = append(result, NewMachineResponse(&machines[i]))
	}
	return result
}

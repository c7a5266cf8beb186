// models/machine.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Machine statuses
const (
	MachineStatusRunning     = "RUNNING"
	MachineStatusStopped     = "STOPPED"
	MachineStatusMaintenance = "MAINTENANCE"
	MachineStatusOff         = "OFF"
)

// Machine model
type Machine struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Code      string             `json:"code" bson:"code"`
	Status    string             `json:"status" bson:"status"`
	Location  string             `json:"location,omitempty" bson:"location,omitempty"`
	IsActive  bool               `json:"isActive" bson:"isActive"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

var validMachineStatuses = map[string]bool{
	MachineStatusRunning:     true,
	MachineStatusStopped:     true,
	MachineStatusMaintenance: true,
	MachineStatusOff:         true,
}

// IsValidMachineStatus reports whether s is a known machine status.
func IsValidMachineStatus(s string) bool {
	return validMachineStatuses[s]
}

// MachineStatusUpdateRequest is the payload for status changes.
type MachineStatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason,omitempty"`
}

// models/shift.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shift statuses
const (
	ShiftStatusInProgress = "IN_PROGRESS"
	ShiftStatusCompleted  = "COMPLETED"
	ShiftStatusArchived   = "ARCHIVED"
)

// Shift aggregates one machine's production counters for a work shift.
// In-progress shifts are refreshed by the scheduler, completed ones are
// archived once their day is over.
type Shift struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	MachineID     primitive.ObjectID `json:"machineId" bson:"machineId"`
	ShiftDate     time.Time          `json:"shiftDate" bson:"shiftDate"`
	ShiftNumber   int                `json:"shiftNumber" bson:"shiftNumber"`
	Status        string             `json:"status" bson:"status"`
	TestsApproved int64              `json:"testsApproved" bson:"testsApproved"`
	TestsRejected int64              `json:"testsRejected" bson:"testsRejected"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
	ArchivedAt    *time.Time         `json:"archivedAt,omitempty" bson:"archivedAt,omitempty"`
}

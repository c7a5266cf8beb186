// models/quality_test.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Quality test results
const (
	TestResultApproved = "APPROVED"
	TestResultRejected = "REJECTED"
)

// QualityTest records one inspection performed on a machine during a
// production run.
type QualityTest struct {
	ID         primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	MachineID  primitive.ObjectID     `json:"machineId" bson:"machineId"`
	UserID     primitive.ObjectID     `json:"userId" bson:"userId"`
	Result     string                 `json:"result" bson:"result"`
	Parameters map[string]interface{} `json:"parameters,omitempty" bson:"parameters,omitempty"`
	Notes      string                 `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt  time.Time              `json:"createdAt" bson:"createdAt"`
}

// IsValidTestResult reports whether r is a known test result.
func IsValidTestResult(r string) bool {
	return r == TestResultApproved || r == TestResultRejected
}

// CreateQualityTestRequest is the payload for registering a test.
type CreateQualityTestRequest struct {
	MachineID  string                 `json:"machineId" validate:"required"`
	Result     string                 `json:"result" validate:"required"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Notes      string                 `json:"notes,omitempty"`
}

// QualityTestSummary aggregates pass/fail counts over a reporting window.
type QualityTestSummary struct {
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}

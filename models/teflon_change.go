// models/teflon_change.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TeflonValidityDays is the wear horizon of a teflon sheet after
// installation.
const TeflonValidityDays = 30

// TeflonChange tracks a teflon sheet installed on a machine. The
// NotificationSent flag keeps the expiry job from alerting twice for the
// same installation.
type TeflonChange struct {
	ID               primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	MachineID        primitive.ObjectID `json:"machineId" bson:"machineId"`
	UserID           primitive.ObjectID `json:"userId" bson:"userId"`
	ChangeDate       time.Time          `json:"changeDate" bson:"changeDate"`
	ExpirationDate   time.Time          `json:"expirationDate" bson:"expirationDate"`
	NotificationSent bool               `json:"notificationSent" bson:"notificationSent"`
	Notes            string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
}

// CreateTeflonChangeRequest is the payload for registering a change.
// ChangeDate defaults to now when omitted.
type CreateTeflonChangeRequest struct {
	MachineID  string     `json:"machineId" validate:"required"`
	ChangeDate *time.Time `json:"changeDate,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleOperator = "OPERATOR"
	RoleLeader   = "LEADER"
	RoleManager  = "MANAGER"
	RoleAdmin    = "ADMIN"
)

// LeadershipRoles is the audience for machine and quality alerts.
var LeadershipRoles = []string{RoleLeader, RoleManager, RoleAdmin}

// ManagementRoles is the audience for periodic reports.
var ManagementRoles = []string{RoleManager, RoleAdmin}

// NotificationPrefs holds the per-user delivery channel opt-ins. The
// in-app channel cannot be disabled.
type NotificationPrefs struct {
	Email bool `json:"email" bson:"email"`
	Push  bool `json:"push" bson:"push"`
}

// User model
type User struct {
	ID                primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email             string             `json:"email" bson:"email"`
	Password          string             `json:"password,omitempty" bson:"password"`
	FullName          string             `json:"fullName" bson:"fullName"`
	Role              string             `json:"role" bson:"role"`
	BadgeNumber       string             `json:"badgeNumber,omitempty" bson:"badgeNumber,omitempty"`
	IsActive          bool               `json:"isActive" bson:"isActive"`
	LastActivityAt    time.Time          `json:"lastActivityAt" bson:"lastActivityAt"`
	FCMToken          string             `json:"fcmToken,omitempty" bson:"fcmToken,omitempty"`
	NotificationPrefs NotificationPrefs  `json:"notificationPrefs" bson:"notificationPrefs"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updatedAt"`
}

var validRoles = map[string]bool{
	RoleOperator: true,
	RoleLeader:   true,
	RoleManager:  true,
	RoleAdmin:    true,
}

// IsValidRole reports whether r is a known user role.
func IsValidRole(r string) bool {
	return validRoles[r]
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe,omitempty"`
}

// LoginResponse carries the issued tokens and the authenticated user.
type LoginResponse struct {
	Token           string `json:"token"`
	RefreshToken    string `json:"refreshToken"`
	RememberMeToken string `json:"rememberMeToken,omitempty"`
	User            User   `json:"user"`
}

// FCMTokenUpdateRequest updates the device token used for push delivery.
type FCMTokenUpdateRequest struct {
	FCMToken string `json:"fcmToken" validate:"required"`
}

// NotificationPrefsUpdateRequest updates channel opt-ins.
type NotificationPrefsUpdateRequest struct {
	Email *bool `json:"email,omitempty"`
	Push  *bool `json:"push,omitempty"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

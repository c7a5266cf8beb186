// models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types
const (
	NotificationTypeQualityTest   = "QUALITY_TEST"
	NotificationTypeTeflonChange  = "TEFLON_CHANGE"
	NotificationTypeMachineStatus = "MACHINE_STATUS"
	NotificationTypeSystemAlert   = "SYSTEM_ALERT"
	NotificationTypeDailyReport   = "DAILY_REPORT"
	NotificationTypeWeeklyReport  = "WEEKLY_REPORT"
	NotificationTypeBatch         = "BATCH"
)

// Notification priorities
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// Delivery channels
const (
	ChannelEmail  = "EMAIL"
	ChannelPush   = "PUSH"
	ChannelSystem = "SYSTEM"
)

// Notification model. One document per recipient: role-targeted and
// broadcast notifications are resolved to their audience at creation time.
type Notification struct {
	ID             primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	UserID         primitive.ObjectID     `json:"userId" bson:"userId"`
	Type           string                 `json:"type" bson:"type"`
	Priority       string                 `json:"priority" bson:"priority"`
	Title          string                 `json:"title" bson:"title"`
	Message        string                 `json:"message" bson:"message"`
	MachineID      *primitive.ObjectID    `json:"machineId,omitempty" bson:"machineId,omitempty"`
	QualityTestID  *primitive.ObjectID    `json:"qualityTestId,omitempty" bson:"qualityTestId,omitempty"`
	TeflonChangeID *primitive.ObjectID    `json:"teflonChangeId,omitempty" bson:"teflonChangeId,omitempty"`
	Channels       []string               `json:"channels" bson:"channels"`
	Metadata       map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
	IsRead         bool                   `json:"isRead" bson:"isRead"`
	CreatedAt      time.Time              `json:"createdAt" bson:"createdAt"`
	ReadAt         *time.Time             `json:"readAt,omitempty" bson:"readAt,omitempty"`
}

// CreateNotificationRequest is the payload accepted by the notification
// creation endpoint and by scheduler jobs. At least one audience must be
// set: a target user, one or more target roles, or broadcast.
type CreateNotificationRequest struct {
	Type           string                 `json:"type" validate:"required"`
	Priority       string                 `json:"priority"`
	Title          string                 `json:"title" validate:"required"`
	Message        string                 `json:"message" validate:"required"`
	UserID         *primitive.ObjectID    `json:"userId,omitempty"`
	TargetRoles    []string               `json:"targetRoles,omitempty"`
	Broadcast      bool                   `json:"broadcast,omitempty"`
	MachineID      *primitive.ObjectID    `json:"machineId,omitempty"`
	QualityTestID  *primitive.ObjectID    `json:"qualityTestId,omitempty"`
	TeflonChangeID *primitive.ObjectID    `json:"teflonChangeId,omitempty"`
	Channels       []string               `json:"channels,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// NotificationFilter narrows ListForUser results.
type NotificationFilter struct {
	Type     string
	Priority string
	IsRead   *bool
}

// Pagination bounds for notification listing.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Pagination holds bounded page/limit values. Use NormalizePagination to
// build one from raw request values.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// NormalizePagination clamps page to >= 1 and limit to [1, MaxPageLimit].
// Out-of-range values are clamped, not rejected.
func NormalizePagination(page, limit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// Offset returns the number of records to skip for this page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// NotificationList is the paginated listing response.
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	Total         int64          `json:"total"`
	Page          int            `json:"page"`
	Limit         int            `json:"limit"`
}

var validNotificationTypes = map[string]bool{
	NotificationTypeQualityTest:   true,
	NotificationTypeTeflonChange:  true,
	NotificationTypeMachineStatus: true,
	NotificationTypeSystemAlert:   true,
	NotificationTypeDailyReport:   true,
	NotificationTypeWeeklyReport:  true,
	NotificationTypeBatch:         true,
}

var validPriorities = map[string]bool{
	PriorityLow:    true,
	PriorityMedium: true,
	PriorityHigh:   true,
	PriorityUrgent: true,
}

var validChannels = map[string]bool{
	ChannelEmail:  true,
	ChannelPush:   true,
	ChannelSystem: true,
}

// IsValidNotificationType reports whether t is a known notification type.
func IsValidNotificationType(t string) bool {
	return validNotificationTypes[t]
}

// IsValidPriority reports whether p is a known priority.
func IsValidPriority(p string) bool {
	return validPriorities[p]
}

// IsValidChannel reports whether ch is a known delivery channel.
func IsValidChannel(ch string) bool {
	return validChannels[ch]
}

// HasChannel reports whether the notification was created with the given
// delivery channel enabled.
func (n *Notification) HasChannel(ch string) bool {
	for _, c := range n.Channels {
		if c == ch {
			return true
		}
	}
	return false
}

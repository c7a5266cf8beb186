package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"firebase.google.com/go/v4/messaging"

	"github.com/sistema-zara/zara-backend/config"
	"github.com/sistema-zara/zara-backend/models"
)

// PushService delivers notifications through Firebase Cloud Messaging.
// The channel is enabled only when the Firebase app initialized, which in
// turn requires credentials in the environment.
type PushService struct{}

func NewPushService() *PushService {
	s := &PushService{}
	if !s.Enabled() {
		log.Println("Firebase credentials not configured, push channel disabled")
	}
	return s
}

func (s *PushService) Name() string {
	return models.ChannelPush
}

func (s *PushService) Enabled() bool {
	return config.FirebaseApp != nil
}

// Send delivers one notification to one recipient's device. Users who
// opted out of push or have no registered device token are skipped
// silently.
func (s *PushService) Send(ctx context.Context, notification *models.Notification, user *models.User) error {
	if !user.NotificationPrefs.Push || user.FCMToken == "" {
		return nil
	}
	if config.FirebaseApp == nil {
		return fmt.Errorf("firebase app not initialized")
	}

	client, err := config.FirebaseApp.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging client: %w", err)
	}

	data := map[string]string{
		"type":           notification.Type,
		"priority":       notification.Priority,
		"notificationId": notification.ID.Hex(),
		"timestamp":      notification.CreatedAt.Format(time.RFC3339),
	}
	if notification.MachineID != nil {
		data["machineId"] = notification.MachineID.Hex()
	}

	message := &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Message,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: androidPriority(notification.Priority),
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "zara_fcm_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: notification.Title,
						Body:  notification.Message,
					},
					Sound:    "default",
					Badge:    func() *int { v := 1; return &v }(),
					Category: notification.Type,
				},
			},
		},
	}

	response, err := client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send FCM notification to user %s: %w", user.ID.Hex(), err)
	}

	log.Printf("FCM notification sent to user %s: %s", user.ID.Hex(), response)
	return nil
}

// androidPriority maps notification priorities onto FCM's two levels.
func androidPriority(priority string) string {
	if priority == models.PriorityHigh || priority == models.PriorityUrgent {
		return "high"
	}
	return "normal"
}

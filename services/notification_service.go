package services

import (
	"context"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sistema-zara/zara-backend/models"
	"github.com/sistema-zara/zara-backend/repositories"
	"github.com/sistema-zara/zara-backend/websocket"
)

// deliveryTimeout bounds every outbound email/push attempt so a slow
// provider cannot stall a scheduled job.
const deliveryTimeout = 10 * time.Second

// DeliveryChannel is a side channel (email, push) a persisted
// notification is handed to after the write succeeds. Adapters report
// failures through their own logs; the service only records the flag.
type DeliveryChannel interface {
	Name() string
	Enabled() bool
	Send(ctx context.Context, notification *models.Notification, user *models.User) error
}

// RealtimeGateway pushes events to connected clients grouped into rooms.
type RealtimeGateway interface {
	Publish(rooms []string, event websocket.Event)
}

// realtimeRooms maps a notification type to the rooms its creation event
// is published to. Types without an entry broadcast to all clients.
// Explicitly user-targeted notifications bypass this map and go to the
// user's private room.
var realtimeRooms = map[string][]string{
	models.NotificationTypeQualityTest:   {websocket.RoomLeadership},
	models.NotificationTypeMachineStatus: {websocket.RoomLeadership},
	models.NotificationTypeTeflonChange:  {websocket.RoomOperators, websocket.RoomLeadership},
}

// NotificationService is the single point of creation, persistence and
// fan-out for notifications.
type NotificationService struct {
	notifications repositories.NotificationStore
	users         repositories.UserStore
	channels      []DeliveryChannel

	mu      sync.RWMutex
	gateway RealtimeGateway
}

// NewNotificationService wires the service with its store and delivery
// channels. The real-time gateway is attached later via SetGateway.
func NewNotificationService(notifications repositories.NotificationStore, users repositories.UserStore, channels ...DeliveryChannel) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		channels:      channels,
	}
}

// SetGateway attaches the real-time transport. Supplied externally so the
// transport can be replaced in tests.
func (s *NotificationService) SetGateway(gateway RealtimeGateway) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gateway = gateway
}

func (s *NotificationService) getGateway() RealtimeGateway {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gateway
}

// CreateAndDispatch validates the request, resolves the audience, writes
// one notification per recipient, and then fans out to the delivery
// channels and the real-time gateway. Fan-out is best-effort: it starts
// only after persistence succeeds and its failures are logged, never
// returned. Role audiences are resolved to their active members at write
// time; users joining the role later do not see the notification.
func (s *NotificationService) CreateAndDispatch(ctx context.Context, req models.CreateNotificationRequest) ([]models.Notification, error) {
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if len(req.Channels) == 0 {
		req.Channels = []string{models.ChannelSystem}
	}

	if !models.IsValidNotificationType(req.Type) {
		return nil, newValidationError("invalid notification type %q", req.Type)
	}
	if !models.IsValidPriority(req.Priority) {
		return nil, newValidationError("invalid priority %q", req.Priority)
	}
	for _, ch := range req.Channels {
		if !models.IsValidChannel(ch) {
			return nil, newValidationError("invalid delivery channel %q", ch)
		}
	}
	for _, role := range req.TargetRoles {
		if !models.IsValidRole(role) {
			return nil, newValidationError("invalid target role %q", role)
		}
	}
	if req.Title == "" || req.Message == "" {
		return nil, newValidationError("title and message are required")
	}
	if req.UserID == nil && len(req.TargetRoles) == 0 && !req.Broadcast {
		return nil, newValidationError("notification needs a target user, target roles, or broadcast")
	}

	recipients, err := s.resolveAudience(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return []models.Notification{}, nil
	}

	now := time.Now()
	notifications := make([]*models.Notification, 0, len(recipients))
	for i := range recipients {
		notifications = append(notifications, &models.Notification{
			ID:             primitive.NewObjectID(),
			UserID:         recipients[i].ID,
			Type:           req.Type,
			Priority:       req.Priority,
			Title:          req.Title,
			Message:        req.Message,
			MachineID:      req.MachineID,
			QualityTestID:  req.QualityTestID,
			TeflonChangeID: req.TeflonChangeID,
			Channels:       req.Channels,
			Metadata:       req.Metadata,
			IsRead:         false,
			CreatedAt:      now,
		})
	}

	if err := s.notifications.InsertMany(ctx, notifications); err != nil {
		return nil, &PersistenceError{Op: "notification insert", Err: err}
	}

	s.fanOut(req, notifications, recipients)

	created := make([]models.Notification, 0, len(notifications))
	for _, n := range notifications {
		created = append(created, *n)
	}
	return created, nil
}

func (s *NotificationService) resolveAudience(ctx context.Context, req models.CreateNotificationRequest) ([]models.User, error) {
	switch {
	case req.UserID != nil:
		user, err := s.users.FindByID(ctx, *req.UserID)
		if err != nil {
			return nil, &PersistenceError{Op: "user lookup", Err: err}
		}
		if user == nil {
			return nil, newValidationError("target user %s does not exist", req.UserID.Hex())
		}
		return []models.User{*user}, nil
	case len(req.TargetRoles) > 0:
		users, err := s.users.FindActiveByRoles(ctx, req.TargetRoles)
		if err != nil {
			return nil, &PersistenceError{Op: "role resolution", Err: err}
		}
		return users, nil
	default:
		users, err := s.users.FindAllActive(ctx)
		if err != nil {
			return nil, &PersistenceError{Op: "broadcast resolution", Err: err}
		}
		return users, nil
	}
}

// fanOut delivers the persisted notifications through the side channels
// and the real-time gateway. Channels run in parallel and each failure is
// terminal at this layer.
func (s *NotificationService) fanOut(req models.CreateNotificationRequest, notifications []*models.Notification, recipients []models.User) {
	var wg sync.WaitGroup

	for _, channel := range s.channels {
		if !channel.Enabled() {
			continue
		}
		if !notifications[0].HasChannel(channel.Name()) {
			continue
		}

		for i := range notifications {
			wg.Add(1)
			go func(channel DeliveryChannel, notification *models.Notification, user models.User) {
				defer wg.Done()
				ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
				defer cancel()

				if err := channel.Send(ctx, notification, &user); err != nil {
					log.Printf("%s delivery for notification %s failed: %v",
						channel.Name(), notification.ID.Hex(), err)
				}
			}(channel, notifications[i], recipients[i])
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.publishRealtime(req, notifications)
	}()

	wg.Wait()
}

func (s *NotificationService) publishRealtime(req models.CreateNotificationRequest, notifications []*models.Notification) {
	gateway := s.getGateway()
	if gateway == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("realtime publish panicked: %v", r)
		}
	}()

	event := websocket.Event{
		Event:   "notification",
		Payload: notifications[0],
	}

	if req.UserID != nil {
		gateway.Publish([]string{websocket.UserRoom(*req.UserID)}, event)
		return
	}
	rooms, ok := realtimeRooms[req.Type]
	if !ok {
		rooms = []string{websocket.RoomBroadcast}
	}
	gateway.Publish(rooms, event)
}

// MarkRead marks a single notification read on behalf of its owner.
// Marking an already-read notification again is a no-op success. A
// notification owned by someone else is reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, requestingUserID primitive.ObjectID) (*models.Notification, error) {
	notification, err := s.notifications.FindByID(ctx, notificationID)
	if err != nil {
		return nil, &PersistenceError{Op: "notification lookup", Err: err}
	}
	if notification == nil || notification.UserID != requestingUserID {
		return nil, &NotFoundError{Resource: "notification"}
	}
	if notification.IsRead {
		return notification, nil
	}

	readAt := time.Now()
	if err := s.notifications.MarkRead(ctx, notificationID, readAt); err != nil {
		return nil, &PersistenceError{Op: "mark read", Err: err}
	}
	notification.IsRead = true
	notification.ReadAt = &readAt
	return notification, nil
}

// MarkAllRead marks every unread notification of the user read and
// returns the number affected. Zero matches is not an error.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	count, err := s.notifications.MarkAllRead(ctx, userID, time.Now())
	if err != nil {
		return 0, &PersistenceError{Op: "mark all read", Err: err}
	}
	return count, nil
}

// Delete removes a notification owned by the requesting user.
func (s *NotificationService) Delete(ctx context.Context, notificationID, requestingUserID primitive.ObjectID) error {
	notification, err := s.notifications.FindByID(ctx, notificationID)
	if err != nil {
		return &PersistenceError{Op: "notification lookup", Err: err}
	}
	if notification == nil || notification.UserID != requestingUserID {
		return &NotFoundError{Resource: "notification"}
	}
	if err := s.notifications.Delete(ctx, notificationID); err != nil {
		return &PersistenceError{Op: "notification delete", Err: err}
	}
	return nil
}

// ListForUser returns the user's notifications newest-first, filtered and
// paginated. Page and limit are clamped, not rejected.
func (s *NotificationService) ListForUser(ctx context.Context, userID primitive.ObjectID, filter models.NotificationFilter, page, limit int) (*models.NotificationList, error) {
	if filter.Type != "" && !models.IsValidNotificationType(filter.Type) {
		return nil, newValidationError("invalid notification type %q", filter.Type)
	}
	if filter.Priority != "" && !models.IsValidPriority(filter.Priority) {
		return nil, newValidationError("invalid priority %q", filter.Priority)
	}

	pagination := models.NormalizePagination(page, limit)
	notifications, total, err := s.notifications.ListByUser(ctx, userID, filter, pagination)
	if err != nil {
		return nil, &PersistenceError{Op: "notification list", Err: err}
	}

	return &models.NotificationList{
		Notifications: notifications,
		Total:         total,
		Page:          pagination.Page,
		Limit:         pagination.Limit,
	}, nil
}

package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sistema-zara/zara-backend/models"
	"github.com/sistema-zara/zara-backend/repositories"
	"github.com/sistema-zara/zara-backend/websocket"
)

// fakeChannel records deliveries and can be told to fail.
type fakeChannel struct {
	name    string
	enabled bool
	fail    bool

	mu    sync.Mutex
	sends []primitive.ObjectID
}

func (f *fakeChannel) Name() string  { return f.name }
func (f *fakeChannel) Enabled() bool { return f.enabled }

func (f *fakeChannel) Send(ctx context.Context, n *models.Notification, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("provider unavailable")
	}
	f.sends = append(f.sends, n.UserID)
	return nil
}

func (f *fakeChannel) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

// fakeGateway records published rooms.
type fakeGateway struct {
	mu     sync.Mutex
	rooms  [][]string
	events []websocket.Event
}

func (f *fakeGateway) Publish(rooms []string, event websocket.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms = append(f.rooms, rooms)
	f.events = append(f.events, event)
}

func (f *fakeGateway) published() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rooms
}

func activeUser(role string) models.User {
	return models.User{
		ID:       primitive.NewObjectID(),
		Email:    role + "@zara.local",
		Role:     role,
		IsActive: true,
	}
}

func TestCreateAndDispatchToRoles(t *testing.T) {
	leader := activeUser(models.RoleLeader)
	manager := activeUser(models.RoleManager)
	operator := activeUser(models.RoleOperator)
	inactiveAdmin := activeUser(models.RoleAdmin)
	inactiveAdmin.IsActive = false

	store := repositories.NewMemoryNotificationStore()
	users := repositories.NewMemoryUserStore(leader, manager, operator, inactiveAdmin)
	svc := NewNotificationService(store, users)

	created, err := svc.CreateAndDispatch(context.Background(), models.CreateNotificationRequest{
		Type:        models.NotificationTypeMachineStatus,
		Title:       "Machine stopped",
		Message:     "Press 3 stopped",
		TargetRoles: models.LeadershipRoles,
	})
	if err != nil {
		t.Fatalf("CreateAndDispatch: %v", err)
	}

	// Only the active leadership members get a row, the operator and the
	// inactive admin do not.
	if len(created) != 2 {
		t.Fatalf("created %d notifications, want 2", len(created))
	}
	if store.Count() != 2 {
		t.Fatalf("store holds %d notifications, want 2", store.Count())
	}

	recipients := map[primitive.ObjectID]bool{}
	for _, n := range created {
		recipients[n.UserID] = true
		if n.Priority != models.PriorityMedium {
			t.Errorf("priority = %q, want default %q", n.Priority, models.PriorityMedium)
		}
		if len(n.Channels) != 1 || n.Channels[0] != models.ChannelSystem {
			t.Errorf("channels = %v, want default [SYSTEM]", n.Channels)
		}
	}
	if !recipients[leader.ID] || !recipients[manager.ID] {
		t.Errorf("recipients = %v, want leader and manager", recipients)
	}
}

func TestCreateAndDispatchToUser(t *testing.T) {
	user := activeUser(models.RoleOperator)

	store := repositories.NewMemoryNotificationStore()
	users := repositories.NewMemoryUserStore(user)
	gateway := &fakeGateway{}
	svc := NewNotificationService(store, users)
	svc.SetGateway(gateway)

	created, err := svc.CreateAndDispatch(context.Background(), models.CreateNotificationRequest{
		Type:    models.NotificationTypeSystemAlert,
		Title:   "Password changed",
		Message: "Your password was changed",
		UserID:  &user.ID,
	})
	if err != nil {
		t.Fatalf("CreateAndDispatch: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created %d notifications, want 1", len(created))
	}

	rooms := gateway.published()
	if len(rooms) != 1 {
		t.Fatalf("published %d events, want 1", len(rooms))
	}
	want := websocket.UserRoom(user.ID)
	if len(rooms[0]) != 1 || rooms[0][0] != want {
		t.Errorf("published to rooms %v, want [%s]", rooms[0], want)
	}
}

func TestCreateAndDispatchRealtimeRooms(t *testing.T) {
	leader := activeUser(models.RoleLeader)

	cases := []struct {
		notifType string
		wantRooms []string
	}{
		{models.NotificationTypeQualityTest, []string{websocket.RoomLeadership}},
		{models.NotificationTypeTeflonChange, []string{websocket.RoomOperators, websocket.RoomLeadership}},
		{models.NotificationTypeDailyReport, []string{websocket.RoomBroadcast}},
	}

	for _, tc := range cases {
		store := repositories.NewMemoryNotificationStore()
		users := repositories.NewMemoryUserStore(leader)
		gateway := &fakeGateway{}
		svc := NewNotificationService(store, users)
		svc.SetGateway(gateway)

		_, err := svc.CreateAndDispatch(context.Background(), models.CreateNotificationRequest{
			Type:        tc.notifType,
			Title:       "t",
			Message:     "m",
			TargetRoles: []string{models.RoleLeader},
		})
		if err != nil {
			t.Fatalf("%s: CreateAndDispatch: %v", tc.notifType, err)
		}

		rooms := gateway.published()
		if len(rooms) != 1 {
			t.Fatalf("%s: published %d events, want 1", tc.notifType, len(rooms))
		}
		if len(rooms[0]) != len(tc.wantRooms) {
			t.Fatalf("%s: published to %v, want %v", tc.notifType, rooms[0], tc.wantRooms)
		}
		for i := range tc.wantRooms {
			if rooms[0][i] != tc.wantRooms[i] {
				t.Errorf("%s: published to %v, want %v", tc.notifType, rooms[0], tc.wantRooms)
			}
		}
	}
}

func TestCreateAndDispatchValidation(t *testing.T) {
	user := activeUser(models.RoleOperator)
	missingID := primitive.NewObjectID()

	store := repositories.NewMemoryNotificationStore()
	users := repositories.NewMemoryUserStore(user)
	svc := NewNotificationService(store, users)

	broadcast := models.CreateNotificationRequest{Broadcast: true, Title: "t", Message: "m"}

	cases := []struct {
		name string
		req  models.CreateNotificationRequest
	}{
		{"unknown type", func() models.CreateNotificationRequest {
			r := broadcast
			r.Type = "BOGUS"
			return r
		}()},
		{"unknown priority", func() models.CreateNotificationRequest {
			r := broadcast
			r.Type = models.NotificationTypeSystemAlert
			r.Priority = "SEVERE"
			return r
		}()},
		{"unknown channel", func() models.CreateNotificationRequest {
			r := broadcast
			r.Type = models.NotificationTypeSystemAlert
			r.Channels = []string{"SMS"}
			return r
		}()},
		{"unknown role", models.CreateNotificationRequest{
			Type: models.NotificationTypeSystemAlert, Title: "t", Message: "m",
			TargetRoles: []string{"SUPERVISOR"},
		}},
		{"missing title", models.CreateNotificationRequest{
			Type: models.NotificationTypeSystemAlert, Message: "m", Broadcast: true,
		}},
		{"no audience", models.CreateNotificationRequest{
			Type: models.NotificationTypeSystemAlert, Title: "t", Message: "m",
		}},
		{"missing target user", models.CreateNotificationRequest{
			Type: models.NotificationTypeSystemAlert, Title: "t", Message: "m",
			UserID: &missingID,
		}},
	}

	for _, tc := range cases {
		_, err := svc.CreateAndDispatch(context.Background(), tc.req)
		if !IsValidationError(err) {
			t.Errorf("%s: got %v, want ValidationError", tc.name, err)
		}
	}
	if store.Count() != 0 {
		t.Errorf("store holds %d notifications after rejected requests, want 0", store.Count())
	}
}

func TestCreateAndDispatchEmptyAudience(t *testing.T) {
	store := repositories.NewMemoryNotificationStore()
	users := repositories.NewMemoryUserStore()
	svc := NewNotificationService(store, users)

	created, err := svc.CreateAndDispatch(context.Background(), models.CreateNotificationRequest{
		Type:        models.NotificationTypeSystemAlert,
		Title:       "t",
		Message:     "m",
		TargetRoles: []string{models.RoleAdmin},
	})
	if err != nil {
		t.Fatalf("CreateAndDispatch: %v", err)
	}
	if len(created) != 0 || store.Count() != 0 {
		t.Errorf("created %d, stored %d; want 0 for an empty audience", len(created), store.Count())
	}
}

func TestChannelFailureDoesNotFailDispatch(t *testing.T) {
	user := activeUser(models.RoleOperator)

	store := repositories.NewMemoryNotificationStore()
	users := repositories.NewMemoryUserStore(user)
	failing := &fakeChannel{name: models.ChannelEmail, enabled: true, fail: true}
	svc := NewNotificationService(store, users, failing)

	created, err := svc.CreateAndDispatch(context.Background(), models.CreateNotificationRequest{
		Type:     models.NotificationTypeSystemAlert,
		Title:    "t",
		Message:  "m",
		UserID:   &user.ID,
		Channels: []string{models.ChannelSystem, models.ChannelEmail},
	})
	if err != nil {
		t.Fatalf("CreateAndDispatch returned %v, delivery failures must not surface", err)
	}
	if len(created) != 1 || store.Count() != 1 {
		t.Errorf("notification not persisted despite channel failure")
	}
}

func TestChannelSelection(t *testing.T) {
	user := activeUser(models.RoleOperator)

	store := repositories.NewMemoryNotificationStore()
	users := repositories.NewMemoryUserStore(user)
	email := &fakeChannel{name: models.ChannelEmail, enabled: true}
	push := &fakeChannel{name: models.ChannelPush, enabled: true}
	disabled := &fakeChannel{name: models.ChannelEmail, enabled: false}
	svc := NewNotificationService(store, users, email, push, disabled)

	_, err := svc.CreateAndDispatch(context.Background(), models.CreateNotificationRequest{
		Type:     models.NotificationTypeSystemAlert,
		Title:    "t",
		Message:  "m",
		UserID:   &user.ID,
		Channels: []string{models.ChannelSystem, models.ChannelEmail},
	})
	if err != nil {
		t.Fatalf("CreateAndDispatch: %v", err)
	}

	if email.sendCount() != 1 {
		t.Errorf("email sends = %d, want 1", email.sendCount())
	}
	if push.sendCount() != 0 {
		t.Errorf("push sends = %d, want 0; PUSH was not requested", push.sendCount())
	}
	if disabled.sendCount() != 0 {
		t.Errorf("disabled channel sends = %d, want 0", disabled.sendCount())
	}
}

func TestMarkRead(t *testing.T) {
	owner := activeUser(models.RoleOperator)
	other := activeUser(models.RoleOperator)

	store := repositories.NewMemoryNotificationStore()
	users := repositories.NewMemoryUserStore(owner, other)
	svc := NewNotificationService(store, users)

	created, err := svc.CreateAndDispatch(context.Background(), models.CreateNotificationRequest{
		Type:    models.NotificationTypeSystemAlert,
		Title:   "t",
		Message: "m",
		UserID:  &owner.ID,
	})
	if err != nil {
		t.Fatalf("CreateAndDispatch: %v", err)
	}
	id := created[0].ID

	// Someone else's notification reads as not found, not as forbidden.
	if _, err := svc.MarkRead(context.Background(), id, other.ID); !IsNotFoundError(err) {
		t.Errorf("MarkRead by non-owner: got %v, want NotFoundError", err)
	}

	n, err := svc.MarkRead(context.Background(), id, owner.ID)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !n.IsRead || n.ReadAt == nil {
		t.Errorf("notification not marked read: isRead=%v readAt=%v", n.IsRead, n.ReadAt)
	}
	firstReadAt := *n.ReadAt

	// Marking again is a no-op success and keeps the original timestamp.
	again, err := svc.MarkRead(context.Background(), id, owner.ID)
	if err != nil {
		t.Fatalf("repeated MarkRead: %v", err)
	}
	if again.ReadAt == nil || !again.ReadAt.Equal(firstReadAt) {
		t.Errorf("repeated MarkRead changed readAt: %v -> %v", firstReadAt, again.ReadAt)
	}

	if _, err := svc.MarkRead(context.Background(), primitive.NewObjectID(), owner.ID); !IsNotFoundError(err) {
		t.Errorf("MarkRead of missing notification: got %v, want NotFoundError", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	alice := activeUser(models.RoleOperator)
	bob := activeUser(models.RoleOperator)

	store := repositories.NewMemoryNotificationStore()
	users := repositories.NewMemoryUserStore(alice, bob)
	svc := NewNotificationService(store, users)

	for _, target := range []primitive.ObjectID{alice.ID, alice.ID, bob.ID} {
		id := target
		if _, err := svc.CreateAndDispatch(context.Background(), models.CreateNotificationRequest{
			Type:    models.NotificationTypeSystemAlert,
			Title:   "t",
			Message: "m",
			UserID:  &id,
		}); err != nil {
			t.Fatalf("CreateAndDispatch: %v", err)
		}
	}

	count, err := svc.MarkAllRead(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if count != 2 {
		t.Errorf("MarkAllRead updated %d, want 2", count)
	}

	// Bob's notification is untouched.
	for _, n := range store.All() {
		if n.UserID == bob.ID && n.IsRead {
			t.Errorf("MarkAllRead for alice touched bob's notification")
		}
	}

	// Nothing left unread, second call reports zero.
	count, err = svc.MarkAllRead(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("second MarkAllRead: %v", err)
	}
	if count != 0 {
		t.Errorf("second MarkAllRead updated %d, want 0", count)
	}
}

func TestDelete(t *testing.T) {
	owner := activeUser(models.RoleOperator)
	other := activeUser(models.RoleOperator)

	store := repositories.NewMemoryNotificationStore()
	users := repositories.NewMemoryUserStore(owner, other)
	svc := NewNotificationService(store, users)

	created, err := svc.CreateAndDispatch(context.Background(), models.CreateNotificationRequest{
		Type:    models.NotificationTypeSystemAlert,
		Title:   "t",
		Message: "m",
		UserID:  &owner.ID,
	})
	if err != nil {
		t.Fatalf("CreateAndDispatch: %v", err)
	}
	id := created[0].ID

	if err := svc.Delete(context.Background(), id, other.ID); !IsNotFoundError(err) {
		t.Errorf("Delete by non-owner: got %v, want NotFoundError", err)
	}
	if store.Count() != 1 {
		t.Fatalf("non-owner delete removed the notification")
	}

	if err := svc.Delete(context.Background(), id, owner.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("notification still present after delete")
	}
}

func TestListForUser(t *testing.T) {
	user := activeUser(models.RoleOperator)

	store := repositories.NewMemoryNotificationStore()
	users := repositories.NewMemoryUserStore(user)
	svc := NewNotificationService(store, users)

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateAndDispatch(context.Background(), models.CreateNotificationRequest{
			Type:    models.NotificationTypeSystemAlert,
			Title:   "t",
			Message: "m",
			UserID:  &user.ID,
		}); err != nil {
			t.Fatalf("CreateAndDispatch: %v", err)
		}
	}

	// Out-of-range paging values are clamped, not rejected.
	list, err := svc.ListForUser(context.Background(), user.ID, models.NotificationFilter{}, 0, 150)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if list.Page != 1 || list.Limit != models.MaxPageLimit {
		t.Errorf("pagination = page %d limit %d, want page 1 limit %d", list.Page, list.Limit, models.MaxPageLimit)
	}
	if list.Total != 3 || len(list.Notifications) != 3 {
		t.Errorf("list returned %d/%d notifications, want 3/3", len(list.Notifications), list.Total)
	}

	// Unknown filter enums are rejected.
	if _, err := svc.ListForUser(context.Background(), user.ID, models.NotificationFilter{Type: "BOGUS"}, 1, 10); !IsValidationError(err) {
		t.Errorf("bogus type filter: got %v, want ValidationError", err)
	}
	if _, err := svc.ListForUser(context.Background(), user.ID, models.NotificationFilter{Priority: "SEVERE"}, 1, 10); !IsValidationError(err) {
		t.Errorf("bogus priority filter: got %v, want ValidationError", err)
	}
}

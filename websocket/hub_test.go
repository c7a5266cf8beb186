package websocket

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sistema-zara/zara-backend/models"
)

func TestRoomsForRole(t *testing.T) {
	cases := []struct {
		role string
		want []string
	}{
		{models.RoleOperator, []string{RoomBroadcast, RoomOperators}},
		{models.RoleLeader, []string{RoomBroadcast, RoomLeadership}},
		{models.RoleManager, []string{RoomBroadcast, RoomLeadership}},
		{models.RoleAdmin, []string{RoomBroadcast, RoomLeadership}},
		{"UNKNOWN", []string{RoomBroadcast}},
	}

	for _, tc := range cases {
		got := RoomsForRole(tc.role)
		if len(got) != len(tc.want) {
			t.Errorf("RoomsForRole(%q) = %v, want %v", tc.role, got, tc.want)
			continue
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Errorf("RoomsForRole(%q) = %v, want %v", tc.role, got, tc.want)
			}
		}
	}
}

func TestUserRoom(t *testing.T) {
	id := primitive.NewObjectID()
	want := "user:" + id.Hex()
	if got := UserRoom(id); got != want {
		t.Errorf("UserRoom = %q, want %q", got, want)
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	leader := &Client{UserID: primitive.NewObjectID(), Role: models.RoleLeader}
	operator := &Client{UserID: primitive.NewObjectID(), Role: models.RoleOperator}

	hub.register <- leader
	hub.register <- operator

	// The loop is sequential: once it receives the sentinel, the two real
	// registrations are fully processed.
	sentinel := &Client{UserID: primitive.NewObjectID(), Role: "UNKNOWN"}
	hub.register <- sentinel

	if got := hub.RoomSize(RoomLeadership); got != 1 {
		t.Errorf("leadership room has %d clients, want 1", got)
	}
	if got := hub.RoomSize(RoomOperators); got != 1 {
		t.Errorf("operators room has %d clients, want 1", got)
	}
	if got := hub.RoomSize(UserRoom(leader.UserID)); got != 1 {
		t.Errorf("leader's private room has %d clients, want 1", got)
	}
}

package models

import "testing"

func TestNormalizePagination(t *testing.T) {
	cases := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{1, 20, 1, 20},
		{0, 0, 1, DefaultPageLimit},
		{-3, -1, 1, DefaultPageLimit},
		{2, 150, 2, MaxPageLimit},
		{5, 100, 5, 100},
		{1, 101, 1, MaxPageLimit},
	}

	for _, tc := range cases {
		got := NormalizePagination(tc.page, tc.limit)
		if got.Page != tc.wantPage || got.Limit != tc.wantLimit {
			t.Errorf("NormalizePagination(%d, %d) = %+v, want page %d limit %d",
				tc.page, tc.limit, got, tc.wantPage, tc.wantLimit)
		}
	}
}

func TestPaginationOffset(t *testing.T) {
	if got := (Pagination{Page: 1, Limit: 20}).Offset(); got != 0 {
		t.Errorf("first page offset = %d, want 0", got)
	}
	if got := (Pagination{Page: 3, Limit: 25}).Offset(); got != 50 {
		t.Errorf("third page offset = %d, want 50", got)
	}
}

func TestEnumValidators(t *testing.T) {
	if !IsValidNotificationType(NotificationTypeQualityTest) || IsValidNotificationType("BOGUS") {
		t.Error("IsValidNotificationType misclassifies")
	}
	if !IsValidPriority(PriorityUrgent) || IsValidPriority("SEVERE") {
		t.Error("IsValidPriority misclassifies")
	}
	if !IsValidChannel(ChannelPush) || IsValidChannel("SMS") {
		t.Error("IsValidChannel misclassifies")
	}
	if !IsValidRole(RoleOperator) || IsValidRole("SUPERVISOR") {
		t.Error("IsValidRole misclassifies")
	}
	if !IsValidMachineStatus(MachineStatusMaintenance) || IsValidMachineStatus("BROKEN") {
		t.Error("IsValidMachineStatus misclassifies")
	}
	if !IsValidTestResult(TestResultRejected) || IsValidTestResult("MAYBE") {
		t.Error("IsValidTestResult misclassifies")
	}
}

func TestHasChannel(t *testing.T) {
	n := &Notification{Channels: []string{ChannelSystem, ChannelEmail}}
	if !n.HasChannel(ChannelEmail) {
		t.Error("HasChannel(EMAIL) = false, want true")
	}
	if n.HasChannel(ChannelPush) {
		t.Error("HasChannel(PUSH) = true, want false")
	}
}

package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sistema-zara/zara-backend/models"
	"github.com/sistema-zara/zara-backend/repositories"
)

type schedulerFixture struct {
	scheduler     *SchedulerService
	notifications *repositories.MemoryNotificationStore
	users         *repositories.MemoryUserStore
	machines      *repositories.MemoryMachineStore
	tests         *repositories.MemoryQualityTestStore
	teflon        *repositories.MemoryTeflonStore
	shifts        *repositories.MemoryShiftStore
}

func newSchedulerFixture(t *testing.T, users ...models.User) *schedulerFixture {
	t.Helper()

	f := &schedulerFixture{
		notifications: repositories.NewMemoryNotificationStore(),
		users:         repositories.NewMemoryUserStore(users...),
		machines:      repositories.NewMemoryMachineStore(),
		tests:         repositories.NewMemoryQualityTestStore(),
		teflon:        repositories.NewMemoryTeflonStore(),
		shifts:        repositories.NewMemoryShiftStore(),
	}
	notifier := NewNotificationService(f.notifications, f.users)
	f.scheduler = NewSchedulerService(notifier, f.notifications, f.machines, f.tests, f.teflon, f.shifts)
	return f
}

func TestTeflonExpiryCheckNotifiesOnce(t *testing.T) {
	operator := activeUser(models.RoleOperator)
	leader := activeUser(models.RoleLeader)
	f := newSchedulerFixture(t, operator, leader)

	machineID := primitive.NewObjectID()
	change := models.TeflonChange{
		ID:             primitive.NewObjectID(),
		MachineID:      machineID,
		ChangeDate:     time.Now().AddDate(0, 0, -27),
		ExpirationDate: time.Now().AddDate(0, 0, 3),
	}
	f.teflon = repositories.NewMemoryTeflonStore(change)
	f.scheduler.teflon = f.teflon

	if err := f.scheduler.RunTeflonExpiryCheck(context.Background()); err != nil {
		t.Fatalf("RunTeflonExpiryCheck: %v", err)
	}

	// One row per audience member: the operator and the leader.
	if f.notifications.Count() != 2 {
		t.Fatalf("first run created %d notifications, want 2", f.notifications.Count())
	}
	for _, n := range f.notifications.All() {
		if n.Type != models.NotificationTypeTeflonChange {
			t.Errorf("notification type = %q, want TEFLON_CHANGE", n.Type)
		}
		if n.Priority != models.PriorityHigh {
			t.Errorf("priority = %q, want HIGH for an upcoming expiry", n.Priority)
		}
		if n.TeflonChangeID == nil || *n.TeflonChangeID != change.ID {
			t.Errorf("notification not linked to the teflon change")
		}
	}

	stored := f.teflon.Find(change.ID)
	if stored == nil || !stored.NotificationSent {
		t.Fatalf("change not flagged as notified after successful dispatch")
	}

	// A second run sees the flag and stays silent.
	if err := f.scheduler.RunTeflonExpiryCheck(context.Background()); err != nil {
		t.Fatalf("second RunTeflonExpiryCheck: %v", err)
	}
	if f.notifications.Count() != 2 {
		t.Errorf("second run created %d extra notifications, want 0", f.notifications.Count()-2)
	}
}

func TestTeflonExpiryCheckExpiredIsUrgent(t *testing.T) {
	operator := activeUser(models.RoleOperator)
	f := newSchedulerFixture(t, operator)

	change := models.TeflonChange{
		ID:             primitive.NewObjectID(),
		MachineID:      primitive.NewObjectID(),
		ChangeDate:     time.Now().AddDate(0, 0, -32),
		ExpirationDate: time.Now().AddDate(0, 0, -2),
	}
	f.teflon = repositories.NewMemoryTeflonStore(change)
	f.scheduler.teflon = f.teflon

	if err := f.scheduler.RunTeflonExpiryCheck(context.Background()); err != nil {
		t.Fatalf("RunTeflonExpiryCheck: %v", err)
	}

	all := f.notifications.All()
	if len(all) != 1 {
		t.Fatalf("created %d notifications, want 1", len(all))
	}
	if all[0].Priority != models.PriorityUrgent {
		t.Errorf("priority = %q, want URGENT for an already expired sheet", all[0].Priority)
	}
	if !strings.Contains(all[0].Message, "expired") {
		t.Errorf("message %q does not mention expiry", all[0].Message)
	}
}

func TestNotificationCleanup(t *testing.T) {
	f := newSchedulerFixture(t)
	userID := primitive.NewObjectID()
	readAt := time.Now()

	old := time.Now().Add(-NotificationRetention - 24*time.Hour)
	recent := time.Now().Add(-time.Hour)

	seed := []*models.Notification{
		{ID: primitive.NewObjectID(), UserID: userID, Type: models.NotificationTypeSystemAlert, IsRead: true, ReadAt: &readAt, CreatedAt: old},
		{ID: primitive.NewObjectID(), UserID: userID, Type: models.NotificationTypeSystemAlert, IsRead: true, ReadAt: &readAt, CreatedAt: recent},
		{ID: primitive.NewObjectID(), UserID: userID, Type: models.NotificationTypeSystemAlert, IsRead: false, CreatedAt: old},
	}
	if err := f.notifications.InsertMany(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := f.scheduler.RunNotificationCleanup(context.Background()); err != nil {
		t.Fatalf("RunNotificationCleanup: %v", err)
	}

	// Only the read-and-old notification goes, unread ones survive any age.
	if f.notifications.Count() != 2 {
		t.Fatalf("%d notifications remain, want 2", f.notifications.Count())
	}
	for _, n := range f.notifications.All() {
		if n.ID == seed[0].ID {
			t.Errorf("read notification older than retention was not removed")
		}
	}
}

func TestMachineInactivityCheck(t *testing.T) {
	leader := activeUser(models.RoleLeader)
	f := newSchedulerFixture(t, leader)

	idle := models.Machine{ID: primitive.NewObjectID(), Name: "Press 1", IsActive: true, Status: models.MachineStatusRunning}
	busy := models.Machine{ID: primitive.NewObjectID(), Name: "Press 2", IsActive: true, Status: models.MachineStatusRunning}
	inactive := models.Machine{ID: primitive.NewObjectID(), Name: "Press 3", IsActive: false}
	f.machines = repositories.NewMemoryMachineStore(idle, busy, inactive)
	f.scheduler.machines = f.machines

	f.tests = repositories.NewMemoryQualityTestStore(
		models.QualityTest{MachineID: idle.ID, Result: models.TestResultApproved, CreatedAt: time.Now().Add(-3 * time.Hour)},
		models.QualityTest{MachineID: busy.ID, Result: models.TestResultApproved, CreatedAt: time.Now().Add(-10 * time.Minute)},
	)
	f.scheduler.tests = f.tests

	if err := f.scheduler.RunMachineInactivityCheck(context.Background()); err != nil {
		t.Fatalf("RunMachineInactivityCheck: %v", err)
	}

	all := f.notifications.All()
	if len(all) != 1 {
		t.Fatalf("created %d notifications, want 1 (idle machine only)", len(all))
	}
	if all[0].MachineID == nil || *all[0].MachineID != idle.ID {
		t.Errorf("alert references machine %v, want the idle one", all[0].MachineID)
	}

	// The alert just created suppresses a duplicate on the next run.
	if err := f.scheduler.RunMachineInactivityCheck(context.Background()); err != nil {
		t.Fatalf("second RunMachineInactivityCheck: %v", err)
	}
	if f.notifications.Count() != 1 {
		t.Errorf("second run raised a duplicate alert")
	}
}

func TestDailyReport(t *testing.T) {
	manager := activeUser(models.RoleManager)
	admin := activeUser(models.RoleAdmin)
	operator := activeUser(models.RoleOperator)
	f := newSchedulerFixture(t, manager, admin, operator)

	machineID := primitive.NewObjectID()
	yesterday := time.Now().Add(-20 * time.Hour)
	f.tests = repositories.NewMemoryQualityTestStore(
		models.QualityTest{MachineID: machineID, Result: models.TestResultApproved, CreatedAt: yesterday},
		models.QualityTest{MachineID: machineID, Result: models.TestResultRejected, CreatedAt: yesterday},
	)
	f.scheduler.tests = f.tests

	f.machines = repositories.NewMemoryMachineStore(
		models.Machine{Name: "Press 1", IsActive: true},
	)
	f.scheduler.machines = f.machines

	if err := f.scheduler.RunDailyReport(context.Background()); err != nil {
		t.Fatalf("RunDailyReport: %v", err)
	}

	all := f.notifications.All()
	// Reports go to management only, one row each for manager and admin.
	if len(all) != 2 {
		t.Fatalf("created %d notifications, want 2", len(all))
	}
	recipients := map[primitive.ObjectID]bool{}
	for _, n := range all {
		recipients[n.UserID] = true
		if n.Type != models.NotificationTypeDailyReport {
			t.Errorf("notification type = %q, want DAILY_REPORT", n.Type)
		}
		if n.Priority != models.PriorityLow {
			t.Errorf("priority = %q, want LOW", n.Priority)
		}
	}
	if recipients[operator.ID] {
		t.Errorf("operator received a daily report")
	}
}

func TestShiftArchiver(t *testing.T) {
	f := newSchedulerFixture(t)

	completed := models.Shift{
		ID:        primitive.NewObjectID(),
		MachineID: primitive.NewObjectID(),
		ShiftDate: time.Now().AddDate(0, 0, -1),
		Status:    models.ShiftStatusCompleted,
	}
	inProgress := models.Shift{
		ID:        primitive.NewObjectID(),
		MachineID: primitive.NewObjectID(),
		ShiftDate: time.Now().AddDate(0, 0, -1),
		Status:    models.ShiftStatusInProgress,
	}
	f.shifts = repositories.NewMemoryShiftStore(completed, inProgress)
	f.scheduler.shifts = f.shifts

	if err := f.scheduler.RunShiftArchiver(context.Background()); err != nil {
		t.Fatalf("RunShiftArchiver: %v", err)
	}

	if got := f.shifts.Find(completed.ID); got.Status != models.ShiftStatusArchived || got.ArchivedAt == nil {
		t.Errorf("completed shift from yesterday not archived: %+v", got)
	}
	if got := f.shifts.Find(inProgress.ID); got.Status != models.ShiftStatusInProgress {
		t.Errorf("in-progress shift was archived: %+v", got)
	}
}

func TestShiftRefresher(t *testing.T) {
	f := newSchedulerFixture(t)

	machineID := primitive.NewObjectID()
	otherMachine := primitive.NewObjectID()
	shiftStart := time.Now().Add(-2 * time.Hour)

	shift := models.Shift{
		ID:          primitive.NewObjectID(),
		MachineID:   machineID,
		ShiftDate:   shiftStart,
		ShiftNumber: 1,
		Status:      models.ShiftStatusInProgress,
	}
	f.shifts = repositories.NewMemoryShiftStore(shift)
	f.scheduler.shifts = f.shifts

	f.tests = repositories.NewMemoryQualityTestStore(
		models.QualityTest{MachineID: machineID, Result: models.TestResultApproved, CreatedAt: shiftStart.Add(30 * time.Minute)},
		models.QualityTest{MachineID: machineID, Result: models.TestResultApproved, CreatedAt: shiftStart.Add(time.Hour)},
		models.QualityTest{MachineID: machineID, Result: models.TestResultRejected, CreatedAt: shiftStart.Add(90 * time.Minute)},
		// Outside the shift window and on another machine, not counted.
		models.QualityTest{MachineID: machineID, Result: models.TestResultApproved, CreatedAt: shiftStart.Add(-time.Hour)},
		models.QualityTest{MachineID: otherMachine, Result: models.TestResultApproved, CreatedAt: shiftStart.Add(time.Hour)},
	)
	f.scheduler.tests = f.tests

	if err := f.scheduler.RunShiftRefresher(context.Background()); err != nil {
		t.Fatalf("RunShiftRefresher: %v", err)
	}

	got := f.shifts.Find(shift.ID)
	if got.TestsApproved != 2 || got.TestsRejected != 1 {
		t.Errorf("aggregates = %d approved / %d rejected, want 2/1", got.TestsApproved, got.TestsRejected)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	f := newSchedulerFixture(t)

	for _, status := range f.scheduler.Status() {
		if status.Running {
			t.Errorf("job %s running before StartAll", status.Name)
		}
	}

	f.scheduler.StartAll()
	defer f.scheduler.StopAll()

	for _, status := range f.scheduler.Status() {
		if !status.Running {
			t.Errorf("job %s not running after StartAll", status.Name)
		}
		if status.NextRun == nil {
			t.Errorf("job %s has no next run after StartAll", status.Name)
		}
	}

	if err := f.scheduler.Stop(JobDailyReport); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	for _, status := range f.scheduler.Status() {
		if status.Name == JobDailyReport && status.Running {
			t.Errorf("job %s still running after Stop", status.Name)
		}
	}

	if err := f.scheduler.Start(JobDailyReport); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := f.scheduler.Stop("no-such-job"); !IsNotFoundError(err) {
		t.Errorf("Stop of unknown job: got %v, want NotFoundError", err)
	}
	if err := f.scheduler.Start("no-such-job"); !IsNotFoundError(err) {
		t.Errorf("Start of unknown job: got %v, want NotFoundError", err)
	}
}

func TestRunJobContainsPanics(t *testing.T) {
	f := newSchedulerFixture(t)

	j := &job{
		name:     "panicking",
		interval: time.Hour,
		run: func(ctx context.Context) error {
			panic("boom")
		},
	}

	// Must not propagate, the scheduler logs and moves on.
	f.scheduler.runJob(j)

	if j.lastRun.IsZero() {
		t.Errorf("lastRun not recorded for a panicking job")
	}
}

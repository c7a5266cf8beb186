package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sistema-zara/zara-backend/models"
	"github.com/sistema-zara/zara-backend/repositories"
)

// Job names.
const (
	JobDailyReport         = "daily-report"
	JobTeflonExpiryCheck   = "teflon-expiry-check"
	JobNotificationCleanup = "notification-cleanup"
	JobMachineInactivity   = "machine-inactivity-check"
	JobShiftArchiver       = "shift-archiver"
	JobShiftRefresher      = "shift-refresher"
)

// Domain check windows.
const (
	TeflonExpiryLookahead   = 5 * 24 * time.Hour
	NotificationRetention   = 30 * 24 * time.Hour
	MachineInactivityWindow = 2 * time.Hour

	// jobTimeout bounds a single run of any job.
	jobTimeout = 5 * time.Minute

	// shiftDuration is the length of one work shift. Shift N of a day
	// starts N-1 shift lengths after the shift date.
	shiftDuration = 8 * time.Hour
)

type job struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error

	stopChan chan struct{}
	running  bool
	lastRun  time.Time
	nextRun  time.Time
}

// JobStatus is the observable state of one registered job.
type JobStatus struct {
	Name     string     `json:"name"`
	Interval string     `json:"interval"`
	Running  bool       `json:"running"`
	LastRun  *time.Time `json:"lastRun,omitempty"`
	NextRun  *time.Time `json:"nextRun,omitempty"`
}

// SchedulerService owns the fixed set of recurring jobs. The registry is
// in-memory only: manual stop/start overrides are lost on restart. Jobs
// run on independent tickers and may overlap; each one catches its own
// failures so a bad run never affects the others or the next tick.
type SchedulerService struct {
	notifier *NotificationService

	notifications repositories.NotificationStore
	machines      repositories.MachineStore
	tests         repositories.QualityTestStore
	teflon        repositories.TeflonStore
	shifts        repositories.ShiftStore

	mu    sync.Mutex
	jobs  map[string]*job
	order []string
}

// NewSchedulerService registers the job set. Nothing runs until StartAll.
func NewSchedulerService(
	notifier *NotificationService,
	notifications repositories.NotificationStore,
	machines repositories.MachineStore,
	tests repositories.QualityTestStore,
	teflon repositories.TeflonStore,
	shifts repositories.ShiftStore,
) *SchedulerService {
	s := &SchedulerService{
		notifier:      notifier,
		notifications: notifications,
		machines:      machines,
		tests:         tests,
		teflon:        teflon,
		shifts:        shifts,
		jobs:          make(map[string]*job),
	}

	s.registerJob(JobDailyReport, 24*time.Hour, s.RunDailyReport)
	s.registerJob(JobTeflonExpiryCheck, 6*time.Hour, s.RunTeflonExpiryCheck)
	s.registerJob(JobNotificationCleanup, 24*time.Hour, s.RunNotificationCleanup)
	s.registerJob(JobMachineInactivity, 2*time.Hour, s.RunMachineInactivityCheck)
	s.registerJob(JobShiftArchiver, 15*time.Minute, s.RunShiftArchiver)
	s.registerJob(JobShiftRefresher, 5*time.Minute, s.RunShiftRefresher)

	return s
}

func (s *SchedulerService) registerJob(name string, interval time.Duration, run func(ctx context.Context) error) {
	s.jobs[name] = &job{name: name, interval: interval, run: run}
	s.order = append(s.order, name)
}

// StartAll starts every registered job.
func (s *SchedulerService) StartAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range s.order {
		s.startLocked(s.jobs[name])
	}
	log.Printf("Scheduler started with %d jobs", len(s.order))
}

// Start resumes a single stopped job.
func (s *SchedulerService) Start(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, exists := s.jobs[name]
	if !exists {
		return &NotFoundError{Resource: "job"}
	}
	s.startLocked(j)
	return nil
}

func (s *SchedulerService) startLocked(j *job) {
	if j.running {
		return
	}
	j.running = true
	j.stopChan = make(chan struct{})
	j.nextRun = time.Now().Add(j.interval)
	go s.loop(j, j.stopChan)
	log.Printf("Job %s scheduled every %v", j.name, j.interval)
}

// Stop halts a single job until Start or process restart.
func (s *SchedulerService) Stop(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, exists := s.jobs[name]
	if !exists {
		return &NotFoundError{Resource: "job"}
	}
	if j.running {
		close(j.stopChan)
		j.running = false
		j.nextRun = time.Time{}
		log.Printf("Job %s stopped", name)
	}
	return nil
}

// StopAll halts every job. Called at process shutdown.
func (s *SchedulerService) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range s.order {
		j := s.jobs[name]
		if j.running {
			close(j.stopChan)
			j.running = false
		}
	}
	log.Println("Scheduler stopped")
}

// Status reports every job's state in registration order.
func (s *SchedulerService) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.order))
	for _, name := range s.order {
		j := s.jobs[name]
		status := JobStatus{
			Name:     j.name,
			Interval: j.interval.String(),
			Running:  j.running,
		}
		if !j.lastRun.IsZero() {
			t := j.lastRun
			status.LastRun = &t
		}
		if !j.nextRun.IsZero() {
			t := j.nextRun
			status.NextRun = &t
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func (s *SchedulerService) loop(j *job, stop chan struct{}) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runJob(j)
		case <-stop:
			return
		}
	}
}

// runJob executes one tick. Panics and errors are terminal here: they are
// logged with the job name and the job stays eligible for its next tick.
func (s *SchedulerService) runJob(j *job) {
	runID := uuid.New().String()[:8]
	start := time.Now()

	s.mu.Lock()
	j.lastRun = start
	j.nextRun = start.Add(j.interval)
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Job %s run %s panicked: %v", j.name, runID, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := j.run(ctx); err != nil {
		log.Printf("Job %s run %s failed: %v", j.name, runID, err)
		return
	}
	log.Printf("Job %s run %s finished in %v", j.name, runID, time.Since(start))
}

// RunDailyReport summarizes the prior day's quality tests and the active
// machine count into one report notification for management.
func (s *SchedulerService) RunDailyReport(ctx context.Context) error {
	now := time.Now()
	dayEnd := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayStart := dayEnd.Add(-24 * time.Hour)

	summary, err := s.tests.SummarizeBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("failed to summarize quality tests: %w", err)
	}

	machines, err := s.machines.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active machines: %w", err)
	}

	_, err = s.notifier.CreateAndDispatch(ctx, models.CreateNotificationRequest{
		Type:        models.NotificationTypeDailyReport,
		Priority:    models.PriorityLow,
		Title:       "Daily production report",
		Message:     fmt.Sprintf("%s: %d tests (%d approved, %d rejected), %d active machines", dayStart.Format("2006-01-02"), summary.Total, summary.Approved, summary.Rejected, len(machines)),
		TargetRoles: models.ManagementRoles,
		Channels:    []string{models.ChannelSystem, models.ChannelEmail},
		Metadata: map[string]interface{}{
			"date":           dayStart.Format("2006-01-02"),
			"testsTotal":     summary.Total,
			"testsApproved":  summary.Approved,
			"testsRejected":  summary.Rejected,
			"activeMachines": len(machines),
		},
	})
	return err
}

// RunTeflonExpiryCheck alerts on teflon sheets expiring within the
// lookahead window. Each record is flagged after its alert goes out, so
// re-running the job never re-notifies the same installation.
func (s *SchedulerService) RunTeflonExpiryCheck(ctx context.Context) error {
	cutoff := time.Now().Add(TeflonExpiryLookahead)

	changes, err := s.teflon.FindExpiringUnnotified(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to find expiring teflon changes: %w", err)
	}

	for i := range changes {
		change := changes[i]
		daysLeft := int(time.Until(change.ExpirationDate).Hours() / 24)

		priority := models.PriorityHigh
		message := fmt.Sprintf("Teflon expires in %d days (on %s)", daysLeft, change.ExpirationDate.Format("2006-01-02"))
		if daysLeft < 0 {
			priority = models.PriorityUrgent
			message = fmt.Sprintf("Teflon expired on %s", change.ExpirationDate.Format("2006-01-02"))
		}

		_, err := s.notifier.CreateAndDispatch(ctx, models.CreateNotificationRequest{
			Type:           models.NotificationTypeTeflonChange,
			Priority:       priority,
			Title:          "Teflon change required",
			Message:        message,
			TargetRoles:    append([]string{models.RoleOperator}, models.LeadershipRoles...),
			MachineID:      &change.MachineID,
			TeflonChangeID: &change.ID,
			Channels:       []string{models.ChannelSystem, models.ChannelEmail, models.ChannelPush},
		})
		if err != nil {
			// Leave the flag unset so the next run retries this record.
			log.Printf("Teflon expiry notification for change %s failed: %v", change.ID.Hex(), err)
			continue
		}

		if err := s.teflon.MarkNotificationSent(ctx, change.ID); err != nil {
			log.Printf("Failed to flag teflon change %s as notified: %v", change.ID.Hex(), err)
		}
	}
	return nil
}

// RunNotificationCleanup hard-deletes notifications that are both read
// and older than the retention threshold.
func (s *SchedulerService) RunNotificationCleanup(ctx context.Context) error {
	cutoff := time.Now().Add(-NotificationRetention)

	count, err := s.notifications.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean up notifications: %w", err)
	}
	if count > 0 {
		log.Printf("Notification cleanup removed %d read notifications older than %s", count, cutoff.Format("2006-01-02"))
	}
	return nil
}

// RunMachineInactivityCheck alerts leadership about active machines with
// no quality test inside the lookback window. An existing recent alert
// for the machine suppresses a duplicate.
func (s *SchedulerService) RunMachineInactivityCheck(ctx context.Context) error {
	now := time.Now()
	cutoff := now.Add(-MachineInactivityWindow)

	machines, err := s.machines.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active machines: %w", err)
	}

	lastTests, err := s.tests.LastTestTimes(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve last test times: %w", err)
	}

	for i := range machines {
		machine := machines[i]
		if last, ok := lastTests[machine.ID]; ok && last.After(cutoff) {
			continue
		}

		exists, err := s.notifications.ExistsRecentForMachine(ctx, machine.ID, models.NotificationTypeMachineStatus, cutoff)
		if err != nil {
			log.Printf("Duplicate check for machine %s failed: %v", machine.ID.Hex(), err)
			continue
		}
		if exists {
			continue
		}

		_, err = s.notifier.CreateAndDispatch(ctx, models.CreateNotificationRequest{
			Type:        models.NotificationTypeMachineStatus,
			Priority:    models.PriorityHigh,
			Title:       "Machine without activity",
			Message:     fmt.Sprintf("%s has no quality test registered in the last %v", machine.Name, MachineInactivityWindow),
			TargetRoles: models.LeadershipRoles,
			MachineID:   &machine.ID,
			Channels:    []string{models.ChannelSystem, models.ChannelPush},
		})
		if err != nil {
			log.Printf("Inactivity notification for machine %s failed: %v", machine.ID.Hex(), err)
		}
	}
	return nil
}

// RunShiftArchiver archives completed shifts from previous days.
func (s *SchedulerService) RunShiftArchiver(ctx context.Context) error {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	count, err := s.shifts.ArchiveCompletedBefore(ctx, dayStart)
	if err != nil {
		return fmt.Errorf("failed to archive shifts: %w", err)
	}
	if count > 0 {
		log.Printf("Archived %d completed shifts", count)
	}
	return nil
}

// RunShiftRefresher recomputes the test counters of in-progress shifts
// from the quality tests registered during each shift's window.
func (s *SchedulerService) RunShiftRefresher(ctx context.Context) error {
	shifts, err := s.shifts.ListInProgress(ctx)
	if err != nil {
		return fmt.Errorf("failed to list in-progress shifts: %w", err)
	}

	for i := range shifts {
		shift := shifts[i]
		from := shift.ShiftDate.Add(time.Duration(shift.ShiftNumber-1) * shiftDuration)
		to := from.Add(shiftDuration)

		summary, err := s.tests.SummarizeForMachineBetween(ctx, shift.MachineID, from, to)
		if err != nil {
			log.Printf("Aggregate refresh for shift %s failed: %v", shift.ID.Hex(), err)
			continue
		}

		if err := s.shifts.UpdateAggregates(ctx, shift.ID, summary.Approved, summary.Rejected); err != nil {
			log.Printf("Aggregate update for shift %s failed: %v", shift.ID.Hex(), err)
		}
	}
	return nil
}

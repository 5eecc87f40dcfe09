package scheduler

import "log/slog"

// Kit groups several related tasks (an MQTT kit, a network controller)
// that register themselves with the scheduler as a unit. RegisterTasks
// re-emits Push calls against the scheduler it is given, mirroring
// spec.md §4.D's "push(connectionKit) (kit re-emits push calls)".
type Kit interface {
	RegisterTasks(s *Scheduler)
}

// Scheduler runs a single cooperative loop over its registered tasks, in
// the order they were pushed (spec.md §4.D, §5: "Scheduler tasks run in
// registration order each pass").
type Scheduler struct {
	tasks           []*Task
	totalElapsedMs  uint64
	yield           func()
	log             *slog.Logger
}

// New creates an empty Scheduler. yield, if non-nil, is called between
// each task's loop() — the cooperative yield point named in spec.md §5;
// pass nil to run tasks back-to-back (e.g. in tests).
func New(yield func()) *Scheduler {
	return &Scheduler{yield: yield, log: slog.Default()}
}

// Push registers task under name, to run every scheduler pass from now
// on. Duplicate names are allowed — tasks are identified by position, not
// name uniqueness, matching the underlying timer-per-task model.
func (s *Scheduler) Push(name string, task *Task) {
	task.name = name
	s.tasks = append(s.tasks, task)
}

// PushKit lets a Kit register its own tasks against this scheduler.
func (s *Scheduler) PushKit(kit Kit) {
	kit.RegisterTasks(s)
}

// Loop runs every registered task's loop() once, in registration order,
// yielding between tasks if a yield func was configured, and accumulates
// elapsed wall-clock time. Call this repeatedly from the program's main
// loop (spec.md §5: "The only entry point that runs user logic is
// Scheduler.loop()").
func (s *Scheduler) Loop(deltaMs uint64) {
	s.totalElapsedMs += deltaMs
	for _, t := range s.tasks {
		t.loop()
		if s.yield != nil {
			s.yield()
		}
	}
}

// GetTotalElapsedMs returns the scheduler's cumulative wall-clock time
// across every Loop call.
func (s *Scheduler) GetTotalElapsedMs() uint64 { return s.totalElapsedMs }

// TaskInfo is the per-task snapshot exportTasksInfo hands to its callback
// (spec.md §4.D, supplemented per SPEC_FULL.md §3).
type TaskInfo struct {
	Name           string
	PeriodMs       uint32
	RepeatsLeft    int32
	ElapsedMsTotal uint64
	Attached       bool
}

// ExportTasksInfo invokes cb once per registered task, in registration
// order, with a snapshot of its current state.
func (s *Scheduler) ExportTasksInfo(cb func(TaskInfo)) {
	for _, t := range s.tasks {
		cb(TaskInfo{
			Name:           t.name,
			PeriodMs:       t.periodMs,
			RepeatsLeft:    t.repeatsLeft,
			ElapsedMsTotal: t.elapsedMsTotal,
			Attached:       t.IsAttached(),
		})
	}
}

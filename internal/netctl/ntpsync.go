package netctl

import (
	"time"

	"github.com/beevik/ntp"

	"uniotcore/internal/check"
	"uniotcore/internal/platform/timer"
	"uniotcore/internal/scheduler"
)

const (
	defaultNTPPool      = "pool.ntp.org"
	defaultNTPIntervalMs = 60000
	defaultNTPThreshold = 500 * time.Millisecond
)

// NTPPhase is the NTP sync checker's health state, adapted from the
// teacher's ntp.Checker (internal/signal/ntp/checker.go) onto the same
// mutex-free, single scheduler.Task cooperative model the rest of this
// package uses (spec.md §5: no goroutines touch shared state).
type NTPPhase uint8

const (
	NTPUnchecked NTPPhase = iota + 1
	NTPHealthy
	NTPUnhealthyOffset
	NTPError
)

func (p NTPPhase) String() string {
	switch p {
	case NTPUnchecked:
		return "unchecked"
	case NTPHealthy:
		return "healthy"
	case NTPUnhealthyOffset:
		return "unhealthy_offset"
	case NTPError:
		return "error"
	default:
		return "unknown"
	}
}

func (p NTPPhase) transition(to NTPPhase) NTPPhase {
	ok := false
	switch p {
	case NTPUnchecked:
		ok = to == NTPHealthy || to == NTPUnhealthyOffset || to == NTPError
	case NTPHealthy:
		ok = to == NTPUnhealthyOffset || to == NTPError || to == NTPHealthy
	case NTPUnhealthyOffset:
		ok = to == NTPHealthy || to == NTPError || to == NTPUnhealthyOffset
	case NTPError:
		ok = to == NTPHealthy || to == NTPUnhealthyOffset || to == NTPError
	}
	check.Assertf(ok, "ntp transition: %s -> %s", p, to)
	if !ok {
		return p
	}
	return to
}

// NTPStatus is a single check result.
type NTPStatus struct {
	Offset    time.Duration
	Phase     NTPPhase
	Error     string
	CheckedAt time.Time
}

// QueryFunc performs one NTP query, returning the server's reported
// clock offset. Overridable in tests in place of a real ntp.Query call,
// mirroring the teacher's Checker.CheckFunc escape hatch.
type QueryFunc func(pool string) (time.Duration, error)

func queryNTP(pool string) (time.Duration, error) {
	resp, err := ntp.Query(pool)
	if err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}

// NTPSync is the time-sync half of spec.md §4.J's connect precondition:
// "network up AND time-synced". It polls an NTP pool from a scheduler
// task and reports MarkTimeSynced(true) once it has observed an
// acceptably small clock offset.
type NTPSync struct {
	pool      string
	threshold time.Duration
	query     QueryFunc
	now       func() time.Time

	status NTPPhase
	last   NTPStatus

	onSynced func(bool)

	task *scheduler.Task
}

// NewNTPSync creates an NTPSync polling pool (defaults to pool.ntp.org if
// empty) every 60 s, calling onSynced(true) each time a check finds the
// offset back under threshold (defaults to 500 ms if zero) and onSynced(false)
// whenever a subsequent check regresses to error or excessive offset.
func NewNTPSync(pool string, threshold time.Duration, newTimer timer.Factory, onSynced func(bool)) *NTPSync {
	if pool == "" {
		pool = defaultNTPPool
	}
	if threshold == 0 {
		threshold = defaultNTPThreshold
	}
	n := &NTPSync{
		pool:      pool,
		threshold: threshold,
		query:     queryNTP,
		now:       time.Now,
		status:    NTPUnchecked,
		onSynced:  onSynced,
	}
	n.task = scheduler.NewTask("netctl.ntpsync", newTimer, n.tick)
	return n
}

// RegisterTasks satisfies scheduler.Kit, checking every 60 s. The first
// check runs one full interval after registration; no check runs at
// registration time.
func (n *NTPSync) RegisterTasks(s *scheduler.Scheduler) {
	s.Push("netctl.ntpsync", n.task)
	_ = n.task.Attach(defaultNTPIntervalMs, 0)
}

// Status returns the most recent check result.
func (n *NTPSync) Status() NTPStatus { return n.last }

func (n *NTPSync) tick(_ *scheduler.Task, _ int32) {
	offset, err := n.query(n.pool)
	now := n.now()

	if err != nil {
		n.last = NTPStatus{Error: err.Error(), Phase: NTPError, CheckedAt: now}
		synced := n.status == NTPHealthy
		n.status = n.status.transition(NTPError)
		if synced && n.onSynced != nil {
			n.onSynced(false)
		}
		return
	}

	phase := NTPUnhealthyOffset
	if offset < n.threshold && offset > -n.threshold {
		phase = NTPHealthy
	}
	n.last = NTPStatus{Offset: offset, Phase: phase, CheckedAt: now}

	wasHealthy := n.status == NTPHealthy
	n.status = n.status.transition(phase)

	if n.onSynced == nil {
		return
	}
	if phase == NTPHealthy && !wasHealthy {
		n.onSynced(true)
	} else if phase != NTPHealthy && wasHealthy {
		n.onSynced(false)
	}
}

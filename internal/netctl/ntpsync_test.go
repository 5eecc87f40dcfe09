package netctl

import (
	"errors"
	"testing"
	"time"

	"uniotcore/internal/platform/timer"
)

func TestNTPSyncTransitionsToHealthyAndCallsOnSynced(t *testing.T) {
	newTimer, _ := timer.NewSimulated()

	var syncedCalls []bool
	n := NewNTPSync("pool.example", 0, newTimer, func(ok bool) {
		syncedCalls = append(syncedCalls, ok)
	})
	n.query = func(_ string) (time.Duration, error) {
		return 10 * time.Millisecond, nil
	}

	n.tick(nil, -1)

	if n.Status().Phase != NTPHealthy {
		t.Fatalf("Phase = %v, want %v", n.Status().Phase, NTPHealthy)
	}
	if len(syncedCalls) != 1 || !syncedCalls[0] {
		t.Fatalf("onSynced calls = %v, want [true]", syncedCalls)
	}
}

func TestNTPSyncReportsUnsyncedOnError(t *testing.T) {
	newTimer, _ := timer.NewSimulated()

	var syncedCalls []bool
	n := NewNTPSync("pool.example", 0, newTimer, func(ok bool) {
		syncedCalls = append(syncedCalls, ok)
	})
	n.query = func(_ string) (time.Duration, error) {
		return 10 * time.Millisecond, nil
	}
	n.tick(nil, -1)

	n.query = func(_ string) (time.Duration, error) {
		return 0, errors.New("ntp: no route to host")
	}
	n.tick(nil, -1)

	if n.Status().Phase != NTPError {
		t.Fatalf("Phase = %v, want %v", n.Status().Phase, NTPError)
	}
	if len(syncedCalls) != 2 || syncedCalls[1] != false {
		t.Fatalf("onSynced calls = %v, want [true false]", syncedCalls)
	}
}

func TestNTPSyncUnhealthyOffsetDoesNotMarkSynced(t *testing.T) {
	newTimer, _ := timer.NewSimulated()

	var syncedCalls []bool
	n := NewNTPSync("pool.example", 50*time.Millisecond, newTimer, func(ok bool) {
		syncedCalls = append(syncedCalls, ok)
	})
	n.query = func(_ string) (time.Duration, error) {
		return 500 * time.Millisecond, nil
	}

	n.tick(nil, -1)

	if n.Status().Phase != NTPUnhealthyOffset {
		t.Fatalf("Phase = %v, want %v", n.Status().Phase, NTPUnhealthyOffset)
	}
	if len(syncedCalls) != 0 {
		t.Fatalf("onSynced calls = %v, want none", syncedCalls)
	}
}

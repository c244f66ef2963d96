package supervisor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeUnit struct {
	name     string
	stubborn bool // ignores Stop, only dies on Kill

	mu     sync.Mutex
	alive  bool
	starts int
	stops  int
	kills  int
}

func (u *fakeUnit) Name() string { return u.name }

func (u *fakeUnit) Start() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.starts++
	u.alive = true
	return nil
}

func (u *fakeUnit) Stop() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stops++
	if !u.stubborn {
		u.alive = false
	}
	return nil
}

func (u *fakeUnit) Kill() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.kills++
	u.alive = false
	return nil
}

func (u *fakeUnit) Alive() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.alive
}

func (u *fakeUnit) crash() {
	u.mu.Lock()
	u.alive = false
	u.mu.Unlock()
}

func (u *fakeUnit) counts() (starts, stops, kills int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.starts, u.stops, u.kills
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestSupervisorRestartsCrashedUnit(t *testing.T) {
	unit := &fakeUnit{name: "ingestor"}
	sup := New([]Unit{unit}, 5*time.Millisecond, 50*time.Millisecond, 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = sup.Run(ctx)
		close(done)
	}()

	waitFor(t, time.Second, func() bool {
		starts, _, _ := unit.counts()
		return starts == 1
	})

	unit.crash()

	waitFor(t, time.Second, func() bool {
		starts, _, _ := unit.counts()
		return starts == 2
	})
	if got := sup.Restarts("ingestor"); got != 1 {
		t.Errorf("Restarts = %d, want 1", got)
	}
	if got := sup.State("ingestor"); got != StateRunning {
		t.Errorf("State = %q, want %q", got, StateRunning)
	}

	cancel()
	<-done
}

func TestSupervisorAbandonsUnitAfterRestartBudget(t *testing.T) {
	unit := &fakeUnit{name: "processor"}
	sup := New([]Unit{unit}, 5*time.Millisecond, 50*time.Millisecond, 2, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = sup.Run(ctx)
		close(done)
	}()

	// Crash the unit every time it comes up.
	waitFor(t, time.Second, func() bool {
		if unit.Alive() {
			unit.crash()
		}
		return sup.State("processor") == StateFailed
	})

	// Initial start plus the two budgeted restarts.
	starts, _, _ := unit.counts()
	if starts != 3 {
		t.Errorf("starts = %d, want 3", starts)
	}

	// An abandoned unit stays down.
	time.Sleep(25 * time.Millisecond)
	if unit.Alive() {
		t.Error("abandoned unit was restarted")
	}

	cancel()
	<-done
}

type unstartableUnit struct {
	fakeUnit
}

func (u *unstartableUnit) Start() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.starts++
	return errors.New("bind: address already in use")
}

func TestSupervisorBudgetsFailedStartAttempts(t *testing.T) {
	unit := &unstartableUnit{fakeUnit: fakeUnit{name: "api"}}
	sup := New([]Unit{unit}, 5*time.Millisecond, 50*time.Millisecond, 2, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = sup.Run(ctx)
		close(done)
	}()

	waitFor(t, time.Second, func() bool {
		return sup.State("api") == StateFailed
	})

	// Initial attempt plus the two budgeted retries, then no more.
	starts, _, _ := unit.counts()
	if starts != 3 {
		t.Errorf("starts = %d, want 3", starts)
	}
	time.Sleep(25 * time.Millisecond)
	if again, _, _ := unit.counts(); again != starts {
		t.Errorf("abandoned unit retried: starts went from %d to %d", starts, again)
	}

	cancel()
	<-done
}

func TestSupervisorAbandonedUnitDoesNotStopOthers(t *testing.T) {
	crasher := &fakeUnit{name: "processor"}
	steady := &fakeUnit{name: "api"}
	sup := New([]Unit{crasher, steady}, 5*time.Millisecond, 50*time.Millisecond, 1, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = sup.Run(ctx)
		close(done)
	}()

	waitFor(t, time.Second, func() bool {
		if crasher.Alive() {
			crasher.crash()
		}
		return sup.State("processor") == StateFailed
	})

	if !steady.Alive() {
		t.Error("healthy unit went down with the abandoned one")
	}

	cancel()
	<-done
}

func TestSupervisorGracefulShutdown(t *testing.T) {
	unit := &fakeUnit{name: "api"}
	sup := New([]Unit{unit}, 5*time.Millisecond, 100*time.Millisecond, 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = sup.Run(ctx)
		close(done)
	}()

	waitFor(t, time.Second, func() bool { return unit.Alive() })
	cancel()
	<-done

	_, stops, kills := unit.counts()
	if stops != 1 {
		t.Errorf("stops = %d, want 1", stops)
	}
	if kills != 0 {
		t.Errorf("kills = %d, want 0 for a unit that stops cleanly", kills)
	}
	if got := sup.State("api"); got != StateStopped {
		t.Errorf("State = %q, want %q", got, StateStopped)
	}
}

func TestSupervisorKillsStubbornUnitAfterGrace(t *testing.T) {
	unit := &fakeUnit{name: "processor", stubborn: true}
	sup := New([]Unit{unit}, 5*time.Millisecond, 20*time.Millisecond, 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = sup.Run(ctx)
		close(done)
	}()

	waitFor(t, time.Second, func() bool { return unit.Alive() })
	cancel()
	<-done

	_, stops, kills := unit.counts()
	if stops != 1 {
		t.Errorf("stops = %d, want 1", stops)
	}
	if kills != 1 {
		t.Errorf("kills = %d, want 1 for a unit that ignores Stop", kills)
	}
	if unit.Alive() {
		t.Error("unit still alive after shutdown")
	}
}

package supervisor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// UnitState tracks where a unit is in its lifecycle.
type UnitState string

const (
	// StateStopped means the unit is not running and not wanted down:
	// the monitor will try to start it.
	StateStopped UnitState = "stopped"
	StateRunning UnitState = "running"
	// StateFailed means the unit exceeded its restart budget and is
	// abandoned for the remainder of the run.
	StateFailed UnitState = "failed"
)

// Supervisor starts a set of units, restarts any that exit unexpectedly, and
// shuts them all down when its context is canceled. Each unit gets a restart
// budget; a unit that exhausts it is abandoned while the others keep running.
type Supervisor struct {
	units       []Unit
	interval    time.Duration
	grace       time.Duration
	maxRestarts int
	logger      *zap.Logger

	mu       sync.Mutex
	states   map[string]UnitState
	restarts map[string]int
}

// New creates a supervisor. maxRestarts bounds restarts per unit for the
// lifetime of the run; 0 means unlimited.
func New(units []Unit, interval, grace time.Duration, maxRestarts int, logger *zap.Logger) *Supervisor {
	states := make(map[string]UnitState, len(units))
	restarts := make(map[string]int, len(units))
	for _, u := range units {
		states[u.Name()] = StateStopped
	}
	return &Supervisor{
		units:       units,
		interval:    interval,
		grace:       grace,
		maxRestarts: maxRestarts,
		logger:      logger,
		states:      states,
		restarts:    restarts,
	}
}

// State returns the current lifecycle state of the named unit.
func (s *Supervisor) State(name string) UnitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[name]
}

// Restarts returns how many times the named unit has been restarted.
func (s *Supervisor) Restarts(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restarts[name]
}

// Run starts all units and monitors them until ctx is canceled, then shuts
// them down gracefully. It only returns after shutdown completes.
func (s *Supervisor) Run(ctx context.Context) error {
	for _, u := range s.units {
		s.startUnit(u, false)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep restarts any unit that died since the last check.
func (s *Supervisor) sweep() {
	for _, u := range s.units {
		name := u.Name()
		s.mu.Lock()
		state := s.states[name]
		s.mu.Unlock()

		switch state {
		case StateFailed:
			continue
		case StateRunning:
			if u.Alive() {
				continue
			}
			s.logger.Warn("unit exited unexpectedly", zap.String("unit", name))
			s.startUnit(u, true)
		case StateStopped:
			// Previous start attempt failed; retries draw from the same
			// budget as crash restarts so a unit that can never start
			// does not loop unbounded.
			s.startUnit(u, true)
		}
	}
}

func (s *Supervisor) startUnit(u Unit, isRestart bool) {
	name := u.Name()

	if isRestart {
		s.mu.Lock()
		s.restarts[name]++
		count := s.restarts[name]
		s.mu.Unlock()

		if s.maxRestarts > 0 && count > s.maxRestarts {
			s.logger.Error("unit exceeded restart budget, abandoning",
				zap.String("unit", name),
				zap.Int("restarts", count-1))
			s.setState(name, StateFailed)
			return
		}
		s.logger.Info("restarting unit",
			zap.String("unit", name),
			zap.Int("restart", count))
	} else {
		s.logger.Info("starting unit", zap.String("unit", name))
	}

	if err := u.Start(); err != nil {
		s.logger.Error("unit failed to start", zap.String("unit", name), zap.Error(err))
		s.setState(name, StateStopped)
		return
	}
	s.setState(name, StateRunning)
}

func (s *Supervisor) setState(name string, state UnitState) {
	s.mu.Lock()
	s.states[name] = state
	s.mu.Unlock()
}

// shutdown stops every running unit, waits up to the grace period, and kills
// whatever is still alive.
func (s *Supervisor) shutdown() {
	s.logger.Info("shutting down units")
	for _, u := range s.units {
		if err := u.Stop(); err != nil {
			s.logger.Warn("stop failed", zap.String("unit", u.Name()), zap.Error(err))
		}
	}

	deadline := time.Now().Add(s.grace)
	for time.Now().Before(deadline) {
		if !s.anyAlive() {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	for _, u := range s.units {
		if u.Alive() {
			s.logger.Warn("unit did not stop in time, killing", zap.String("unit", u.Name()))
			if err := u.Kill(); err != nil {
				s.logger.Error("kill failed", zap.String("unit", u.Name()), zap.Error(err))
			}
		}
		s.setState(u.Name(), StateStopped)
	}
	s.logger.Info("all units stopped")
}

func (s *Supervisor) anyAlive() bool {
	for _, u := range s.units {
		if u.Alive() {
			return true
		}
	}
	return false
}

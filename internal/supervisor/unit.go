package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
)

// Unit is a supervised service. Implementations must tolerate Stop and Kill
// being called on a unit that already exited.
type Unit interface {
	Name() string
	Start() error
	// Stop requests a graceful shutdown.
	Stop() error
	// Kill terminates the unit immediately.
	Kill() error
	Alive() bool
}

// ProcessUnit runs a service as a child OS process, re-invoking the foundry
// binary with a subcommand. Output is piped to the supervisor's own stdout.
type ProcessUnit struct {
	name   string
	binary string
	args   []string

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
}

func NewProcessUnit(name, binary string, args ...string) *ProcessUnit {
	return &ProcessUnit{name: name, binary: binary, args: args}
}

func (u *ProcessUnit) Name() string { return u.name }

func (u *ProcessUnit) Start() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	cmd := exec.Command(u.binary, u.args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", u.name, err)
	}

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()

	u.cmd = cmd
	u.done = done
	return nil
}

func (u *ProcessUnit) Stop() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.cmd == nil || !alive(u.done) {
		return nil
	}
	return u.cmd.Process.Signal(syscall.SIGTERM)
}

func (u *ProcessUnit) Kill() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.cmd == nil || !alive(u.done) {
		return nil
	}
	return u.cmd.Process.Kill()
}

func (u *ProcessUnit) Alive() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cmd != nil && alive(u.done)
}

func alive(done chan struct{}) bool {
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

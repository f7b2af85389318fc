// Package system performs the host actions requested by the service buttons.
package system

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"
)

// Actions restarts or powers off the host.
type Actions interface {
	// Restart reboots the host.
	Restart() error

	// PowerOff halts the host.
	PowerOff() error
}

// Default commands, run without a shell.
var (
	RestartCommand  = []string{"shutdown", "-r", "now"}
	PowerOffCommand = []string{"shutdown", "now"}
)

// commandTimeout bounds how long shutdown may take to accept the request.
const commandTimeout = 30 * time.Second

// Shell runs the shutdown commands on the host.
type Shell struct {
	restart  []string
	powerOff []string
	run      func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewShell returns Actions that execute restart and powerOff.
// Empty commands fall back to the defaults.
func NewShell(restart, powerOff []string) *Shell {
	if len(restart) == 0 {
		restart = RestartCommand
	}
	if len(powerOff) == 0 {
		powerOff = PowerOffCommand
	}
	return &Shell{
		restart:  restart,
		powerOff: powerOff,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
}

// Restart runs the restart command.
func (s *Shell) Restart() error {
	return s.exec("restart", s.restart)
}

// PowerOff runs the power-off command.
func (s *Shell) PowerOff() error {
	return s.exec("power off", s.powerOff)
}

func (s *Shell) exec(action string, argv []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	log.Printf("system: %s: running %q", action, strings.Join(argv, " "))
	out, err := s.run(ctx, argv[0], argv[1:]...)
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", action, err, msg)
		}
		return fmt.Errorf("%s: %w", action, err)
	}
	return nil
}

// DryRun logs the requested action instead of performing it.
type DryRun struct{}

// Restart logs a restart request.
func (DryRun) Restart() error {
	log.Printf("system: dry run: restart requested")
	return nil
}

// PowerOff logs a power-off request.
func (DryRun) PowerOff() error {
	log.Printf("system: dry run: power off requested")
	return nil
}

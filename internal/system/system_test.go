package system

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type recordedCall struct {
	name string
	args []string
}

func newRecordingShell(restart, powerOff []string, out []byte, err error) (*Shell, *[]recordedCall) {
	s := NewShell(restart, powerOff)
	var calls []recordedCall
	s.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, recordedCall{name: name, args: args})
		return out, err
	}
	return s, &calls
}

func TestShellDefaults(t *testing.T) {
	s, calls := newRecordingShell(nil, nil, nil, nil)

	if err := s.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := s.PowerOff(); err != nil {
		t.Fatalf("power off: %v", err)
	}

	if len(*calls) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(*calls))
	}
	restart := (*calls)[0]
	if restart.name != "shutdown" || strings.Join(restart.args, " ") != "-r now" {
		t.Errorf("restart: got %s %v", restart.name, restart.args)
	}
	powerOff := (*calls)[1]
	if powerOff.name != "shutdown" || strings.Join(powerOff.args, " ") != "now" {
		t.Errorf("power off: got %s %v", powerOff.name, powerOff.args)
	}
}

func TestShellCustomCommands(t *testing.T) {
	s, calls := newRecordingShell([]string{"systemctl", "reboot"}, []string{"systemctl", "poweroff"}, nil, nil)

	s.Restart()
	s.PowerOff()

	if (*calls)[0].name != "systemctl" || (*calls)[0].args[0] != "reboot" {
		t.Errorf("restart: got %+v", (*calls)[0])
	}
	if (*calls)[1].args[0] != "poweroff" {
		t.Errorf("power off: got %+v", (*calls)[1])
	}
}

func TestShellErrorIncludesOutput(t *testing.T) {
	runErr := errors.New("exit status 1")
	s, _ := newRecordingShell(nil, nil, []byte("Failed to talk to init daemon.\n"), runErr)

	err := s.Restart()
	if !errors.Is(err, runErr) {
		t.Fatalf("got %v, want wrapped %v", err, runErr)
	}
	if !strings.Contains(err.Error(), "Failed to talk to init daemon.") {
		t.Errorf("error should include command output, got %q", err.Error())
	}
}

func TestDryRun(t *testing.T) {
	var a Actions = DryRun{}
	if err := a.Restart(); err != nil {
		t.Errorf("restart: %v", err)
	}
	if err := a.PowerOff(); err != nil {
		t.Errorf("power off: %v", err)
	}
}

func TestFake(t *testing.T) {
	f := &Fake{}
	f.Restart()
	f.Restart()
	f.PowerOff()
	if f.Restarts != 2 || f.PowerOffs != 1 {
		t.Errorf("got restarts=%d power offs=%d", f.Restarts, f.PowerOffs)
	}

	f.Err = errors.New("boom")
	if err := f.Restart(); err == nil {
		t.Error("expected error")
	}
	if f.Restarts != 3 {
		t.Errorf("failed call should still be counted, got %d", f.Restarts)
	}
}

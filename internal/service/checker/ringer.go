package checker

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
)

// Ringer makes the alarm audible.
type Ringer interface {
	Ring(ctx context.Context, state *domain.State) error
}

// RingerFunc adapts a function to Ringer.
type RingerFunc func(ctx context.Context, state *domain.State) error

// Ring calls f.
func (f RingerFunc) Ring(ctx context.Context, state *domain.State) error {
	return f(ctx, state)
}

// errEmptyCommand is returned by NewCommandRinger for an empty argv.
var errEmptyCommand = errors.New("ring command is empty")

// CommandRinger runs an external command, e.g. a media player.
// The wakeup moment is passed to it in ALARM_TIME.
type CommandRinger struct {
	argv []string
}

// NewCommandRinger returns a ringer running argv[0] with argv[1:].
func NewCommandRinger(argv []string) (*CommandRinger, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, errEmptyCommand
	}

	return &CommandRinger{argv: append([]string(nil), argv...)}, nil
}

// Ring starts the command and waits for it to finish.
func (r *CommandRinger) Ring(ctx context.Context, state *domain.State) error {
	//nolint:gosec // The command comes from the operator's settings.
	cmd := exec.CommandContext(ctx, r.argv[0], r.argv[1:]...)
	cmd.Env = append(cmd.Environ(), "ALARM_TIME="+domain.FormatWire(state.WakeupAt))

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("run %s: %w: %s", r.argv[0], err, output)
	}

	return nil
}

// logRinger only reports the alarm; it is used without a ring command and in debug mode.
type logRinger struct{}

func (logRinger) Ring(ctx context.Context, state *domain.State) error {
	logger.WarnKV(ctx, "ALARM", "time", domain.FormatWire(state.WakeupAt), "actor", state.UpdatedBy)
	return nil
}

package soundtrigger

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Player plays a sound file. Play blocks until playback finishes.
type Player interface {
	Play(ctx context.Context, path string) error
}

// CommandPlayer plays files by running an external program with the file
// path appended to Args.
type CommandPlayer struct {
	Command string
	Args    []string
}

// DefaultPlayerCommand returns the usual command line player for the host OS
func DefaultPlayerCommand() (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		return "afplay", nil
	case "windows":
		return "powershell", []string{"-NoProfile", "-Command", "(New-Object Media.SoundPlayer $args[0]).PlaySync()"}
	default:
		return "aplay", []string{"-q"}
	}
}

// NewCommandPlayer creates a player for command. An empty command selects
// DefaultPlayerCommand.
func NewCommandPlayer(command string, args ...string) *CommandPlayer {
	if command == "" {
		command, args = DefaultPlayerCommand()
	}
	return &CommandPlayer{Command: command, Args: args}
}

// Play runs the player on path
func (p *CommandPlayer) Play(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("sound file: %w", err)
	}

	args := append(append([]string{}, p.Args...), path)
	cmd := exec.CommandContext(ctx, p.Command, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w (output: %s)", p.Command, err, out)
	}
	return nil
}

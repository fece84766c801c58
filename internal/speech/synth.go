package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandSynthesizer announces messages by running an external
// text-to-speech command with the message appended as the final argument.
// Cancelling the context kills the running process, which is how the
// worker interrupts an announcement mid-utterance.
type CommandSynthesizer struct {
	name string
	args []string
}

// NewCommandSynthesizer parses a command line such as "espeak -s 150".
func NewCommandSynthesizer(command string) *CommandSynthesizer {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return &CommandSynthesizer{name: "espeak"}
	}
	return &CommandSynthesizer{name: fields[0], args: fields[1:]}
}

// Say runs the command synchronously.
func (s *CommandSynthesizer) Say(ctx context.Context, message string) error {
	args := append(append([]string{}, s.args...), message)
	cmd := exec.CommandContext(ctx, s.name, args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("run %s: %w", s.name, err)
	}
	return nil
}

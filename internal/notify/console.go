package notify

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
)

// LogTray is a Tray that records icon and tooltip changes to the log. Used
// when no platform tray integration is wired in.
type LogTray struct {
	log *slog.Logger
}

// NewLogTray creates a LogTray.
func NewLogTray(log *slog.Logger) *LogTray {
	return &LogTray{log: log}
}

// SetTooltip logs the new tooltip text.
func (t *LogTray) SetTooltip(text string) error {
	t.log.Info("tray tooltip", "text", text)
	return nil
}

// SetIcon logs the new icon state.
func (t *LogTray) SetIcon(icon Icon) error {
	t.log.Debug("tray icon", "icon", int(icon))
	return nil
}

// ConsolePrompter is a Prompter that prints the reminder and blocks until
// the user presses Enter.
type ConsolePrompter struct {
	In  io.Reader
	Out io.Writer
}

// Prompt writes the reminder to Out and waits for a line on In.
func (p *ConsolePrompter) Prompt(message string) error {
	if _, err := fmt.Fprintf(p.Out, "Reminder: %s\nPress Enter to acknowledge...\n", message); err != nil {
		return fmt.Errorf("write prompt: %w", err)
	}
	if _, err := bufio.NewReader(p.In).ReadString('\n'); err != nil {
		return fmt.Errorf("read acknowledgment: %w", err)
	}
	return nil
}

package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Icon identifies which tray icon is shown.
type Icon int

// Tray icons. The two alert icons alternate while the indicator blinks.
const (
	IconNormal Icon = iota
	IconAlertA
	IconAlertB
)

// State is the attention state of the visual indicator.
type State int

// Indicator states. Alert moves the indicator to StateAlerting; Acknowledge
// moves it to StateAcknowledged and stops the blinking.
const (
	StateIdle State = iota
	StateAlerting
	StateAcknowledged
)

// Tray is the interface to the platform tray icon.
type Tray interface {
	SetTooltip(text string) error
	SetIcon(icon Icon) error
}

// Indicator drives the tray icon's attention state. It owns the single
// blink loop; there are no timers outside of it.
type Indicator struct {
	tray  Tray
	log   *slog.Logger
	blink time.Duration

	mu        sync.Mutex
	state     State
	stopBlink chan struct{}
}

// NewIndicator creates an idle Indicator with the default 500ms blink
// interval.
func NewIndicator(tray Tray, log *slog.Logger) *Indicator {
	return &Indicator{
		tray:  tray,
		log:   log,
		blink: 500 * time.Millisecond,
		state: StateIdle,
	}
}

// SetBlinkInterval overrides the default blink interval. Takes effect on
// the next Alert.
func (i *Indicator) SetBlinkInterval(d time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.blink = d
}

// State returns the current attention state.
func (i *Indicator) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Alert sets the tooltip to msg and starts blinking until acknowledged.
// A second Alert while already alerting just replaces the tooltip.
func (i *Indicator) Alert(msg string) {
	if err := i.tray.SetTooltip(msg); err != nil {
		i.log.Error("set tooltip", "error", err)
	}

	i.mu.Lock()
	i.state = StateAlerting
	if i.stopBlink == nil {
		stop := make(chan struct{})
		i.stopBlink = stop
		go i.blinkLoop(stop, i.blink)
	}
	i.mu.Unlock()
}

// Acknowledge clears the attention state: blinking stops and the normal
// icon is restored. A no-op unless the indicator is alerting.
func (i *Indicator) Acknowledge() {
	i.mu.Lock()
	if i.state != StateAlerting {
		i.mu.Unlock()
		return
	}
	i.state = StateAcknowledged
	close(i.stopBlink)
	i.stopBlink = nil
	i.mu.Unlock()

	if err := i.tray.SetIcon(IconNormal); err != nil {
		i.log.Error("restore icon", "error", err)
	}
}

// Close stops the blink loop if it is running and returns the indicator to
// idle. Called on shutdown.
func (i *Indicator) Close() {
	i.mu.Lock()
	if i.stopBlink != nil {
		close(i.stopBlink)
		i.stopBlink = nil
	}
	i.state = StateIdle
	i.mu.Unlock()
}

func (i *Indicator) blinkLoop(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	on := false
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			on = !on
			icon := IconAlertA
			if !on {
				icon = IconAlertB
			}
			if err := i.tray.SetIcon(icon); err != nil {
				i.log.Error("blink icon", "error", err)
			}
		}
	}
}

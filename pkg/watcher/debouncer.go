package watcher

import (
	"context"
	"time"

	"github.com/panelwise/panelwright/pkg/logging"
)

// Debouncer batches rapid file system events so one editor save does not
// trigger several reload-and-recalculate rounds.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// run holds back events until the input has been quiet for quietPeriod,
// or maxWait has elapsed since the first pending event.
func (d *Debouncer) run(ctx context.Context) {
	var (
		timer        *time.Timer
		maxWaitTimer *time.Timer
		pending      *ChangeEvent
	)

	flush := func() {
		if pending == nil {
			return
		}
		logging.Debug("flushing debounced change", "path", pending.Path)
		d.output <- *pending
		pending = nil

		if timer != nil {
			timer.Stop()
		}
		if maxWaitTimer != nil {
			maxWaitTimer.Stop()
			maxWaitTimer = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}

			ev := event
			pending = &ev

			if timer == nil {
				timer = time.NewTimer(d.quietPeriod)
			} else {
				timer.Reset(d.quietPeriod)
			}
			if maxWaitTimer == nil {
				maxWaitTimer = time.NewTimer(d.maxWait)
			}

		case <-timerC(timer):
			flush()

		case <-timerC(maxWaitTimer):
			flush()
		}
	}
}

func timerC(t *time.Timer) <-chan time.Time {
	if t != nil {
		return t.C
	}
	return nil
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

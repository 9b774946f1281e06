package session

import (
	"time"

	"github.com/mudler/xlog"
	"github.com/robfig/cron/v3"
)

// Sweeper periodically expires inactive sessions under a root directory.
// It runs as a separate goroutine; Shutdown stops it.
type Sweeper struct {
	root        string
	maxAgeHours float64
	interval    time.Duration
	schedule    string
	cron        *cron.Cron
	stop        chan bool
}

// NewSweeper builds a sweeper for root. Sessions idle for more than
// maxAgeHours are deleted every interval. A non-empty six-field cron
// schedule (seconds first) replaces the fixed interval.
func NewSweeper(root string, maxAgeHours float64, interval time.Duration, schedule string) *Sweeper {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Sweeper{
		root:        root,
		maxAgeHours: maxAgeHours,
		interval:    interval,
		schedule:    schedule,
		stop:        make(chan bool, 1),
	}
}

// Run sweeps once immediately, then blocks sweeping until Shutdown is
// called. With a cron schedule it delegates timing to the scheduler,
// otherwise it ticks on the interval.
func (sw *Sweeper) Run() {
	xlog.Info("[Sweeper] starting session sweeper", "root", sw.root, "maxAgeHours", sw.maxAgeHours)
	sw.sweep()

	if sw.schedule != "" {
		sw.cron = cron.New(cron.WithSeconds())
		if _, err := sw.cron.AddFunc(sw.schedule, sw.sweep); err != nil {
			xlog.Error("[Sweeper] invalid schedule, falling back to interval", "schedule", sw.schedule, "error", err)
		} else {
			sw.cron.Start()
			<-sw.stop
			sw.cron.Stop()
			xlog.Info("[Sweeper] stopping session sweeper")
			return
		}
	}

	for {
		select {
		case <-sw.stop:
			xlog.Info("[Sweeper] stopping session sweeper")
			return
		case <-time.After(sw.interval):
			sw.sweep()
		}
	}
}

func (sw *Sweeper) sweep() {
	swept, kept := SweepExpired(sw.root, sw.maxAgeHours)
	if len(swept) > 0 {
		xlog.Info("[Sweeper] sweep complete", "swept", len(swept), "kept", len(kept))
	}
}

func (sw *Sweeper) Shutdown() {
	sw.stop <- true
}

package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Reloader refreshes a data source from disk.
type Reloader interface {
	Reload() error
	Len() int
}

// Pruner drops expired entries.
type Pruner interface {
	Prune(now time.Time) int
}

// Scheduler periodically reloads the station directory and prunes the download cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	stations  Reloader
	cache     Pruner
	interval  time.Duration

	// OnReload is called with the station count after each successful reload.
	OnReload func(n int)
}

// New creates a new Scheduler.
func New(interval time.Duration, stations Reloader, cache Pruner) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		stations:  stations,
		cache:     cache,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens one interval after Start.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().WaitForSchedule().Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce performs one refresh cycle.
func (s *Scheduler) RunOnce() {
	log.Println("scheduler: running refresh job")

	if s.stations != nil {
		if err := s.stations.Reload(); err != nil {
			log.Printf("scheduler: station reload failed, keeping previous directory: %v", err)
		} else if s.OnReload != nil {
			s.OnReload(s.stations.Len())
		}
	}
	if s.cache != nil {
		if n := s.cache.Prune(time.Now()); n > 0 {
			log.Printf("scheduler: pruned %d expired datasets", n)
		}
	}

	log.Println("scheduler: completed refresh job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

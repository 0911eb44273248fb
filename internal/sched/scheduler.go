package sched

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kayz/scout/internal/logger"
	"github.com/kayz/scout/internal/research"
	"github.com/kayz/scout/internal/theme"
)

// Researcher runs one research pass for a theme.
type Researcher interface {
	RunResearch(ctx context.Context, th theme.Theme) (*research.Run, error)
}

// ThemeLister supplies the current theme collection.
type ThemeLister interface {
	Themes() ([]theme.Theme, error)
}

// scheduleSpecs maps the theme schedule tags to cron expressions.
var scheduleSpecs = map[string]string{
	"hourly": "@hourly",
	"daily":  "@daily",
	"weekly": "@weekly",
}

// runTimeout bounds one theme's research pass inside a tick.
const runTimeout = 15 * time.Minute

// Scheduler periodically runs research for every active theme. One cron
// entry exists per schedule tag; each tick walks the active themes
// carrying that tag.
type Scheduler struct {
	cron       *cron.Cron
	themes     ThemeLister
	researcher Researcher

	mu      sync.Mutex
	ticking bool
}

func New(themes ThemeLister, researcher Researcher) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		themes:     themes,
		researcher: researcher,
	}
}

// Start registers the schedule entries and starts the cron loop.
func (s *Scheduler) Start() error {
	for tag, spec := range scheduleSpecs {
		tag := tag
		if _, err := s.cron.AddFunc(spec, func() { s.tick(tag) }); err != nil {
			return err
		}
	}
	s.cron.Start()
	logger.Info("[SCHED] scheduler started (%d schedule tags)", len(scheduleSpecs))
	return nil
}

// Stop stops the cron loop and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("[SCHED] scheduler stopped")
}

// tick runs research for every active theme with the given schedule tag.
// Ticks never overlap: a tick that fires while another is still working
// is dropped, the next scheduled one will pick the themes up again.
func (s *Scheduler) tick(tag string) {
	s.mu.Lock()
	if s.ticking {
		s.mu.Unlock()
		logger.Warn("[SCHED] previous tick still running, skipping %q", tag)
		return
	}
	s.ticking = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.ticking = false
		s.mu.Unlock()
	}()

	themes, err := s.themes.Themes()
	if err != nil {
		logger.Error("[SCHED] failed to list themes: %v", err)
		return
	}

	for _, th := range themes {
		if th.Status != theme.StatusActive || th.Schedule != tag {
			continue
		}

		logger.Info("[SCHED] running %s research for theme %q", tag, th.Name)
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		if _, err := s.researcher.RunResearch(ctx, th); err != nil {
			logger.Error("[SCHED] research for theme %q failed: %v", th.Name, err)
		}
		cancel()
	}
}

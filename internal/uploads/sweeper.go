package uploads

import (
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper deletes staged files that were never claimed, e.g. after a crash
// between staging and the move into a project directory.
type Sweeper struct {
	dir    string
	maxAge time.Duration
	log    *zap.Logger
	now    func() time.Time
	cron   *cron.Cron
}

func NewSweeper(dir string, maxAge time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{dir: dir, maxAge: maxAge, log: log, now: time.Now}
}

// Start schedules Sweep with a cron spec such as "@every 10m".
func (s *Sweeper) Start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		removed, err := s.Sweep()
		if err != nil {
			s.log.Warn("staging sweep failed", zap.Error(err))
			return
		}
		if removed > 0 {
			s.log.Info("staging sweep removed stale uploads", zap.Int("removed", removed))
		}
	}); err != nil {
		return err
	}
	s.cron = c
	c.Start()
	s.log.Info("staging sweeper started", zap.String("spec", spec), zap.Duration("max_age", s.maxAge))
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Sweep removes regular files in the staging directory older than maxAge.
func (s *Sweeper) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			s.log.Warn("remove stale upload", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}

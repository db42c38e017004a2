package service

import (
	"context"
	"time"

	"pulse_monitor/internal/logger"
)

// idleCloser is the part of HeartRateService the reaper drives.
type idleCloser interface {
	CloseIdle(ctx context.Context, now time.Time) int
}

// ReaperService periodically closes sessions whose device went quiet.
type ReaperService struct {
	sessions idleCloser
	log      *logger.Logger
}

func NewReaperService(sessions idleCloser, log *logger.Logger) *ReaperService {
	if log == nil {
		log = logger.Nop()
	}
	return &ReaperService{sessions: sessions, log: log}
}

// Run ticks at the given interval until ctx is canceled.
func (r *ReaperService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := r.sessions.CloseIdle(ctx, now); n > 0 {
				r.log.Debugw("reaper_closed_sessions", "count", n)
			}
		}
	}
}

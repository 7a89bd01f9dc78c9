package scheduler

import (
	"time"

	"github.com/aristath/fpl-planner/internal/clients/fpl"
	"github.com/rs/zerolog"
)

// imminentWindow is how close a deadline has to be before the refresh
// cycle and the status endpoint flag it.
const imminentWindow = 24 * time.Hour

// DeadlineService reports upcoming gameweek deadlines. The provider
// publishes deadline times in UTC in the bootstrap events feed.
type DeadlineService struct {
	log zerolog.Logger
	now func() time.Time
}

// NewDeadlineService creates a new deadline service
func NewDeadlineService(log zerolog.Logger) *DeadlineService {
	return &DeadlineService{
		log: log.With().Str("component", "deadlines").Logger(),
		now: time.Now,
	}
}

// NextDeadline returns the first gameweek whose deadline is still ahead.
// The events feed is ordered by gameweek, so the first future deadline is
// the next one. Returns false once the season is over.
func (s *DeadlineService) NextDeadline(bootstrap *fpl.Bootstrap) (fpl.Gameweek, bool) {
	now := s.now()
	for _, gw := range bootstrap.Events {
		if gw.DeadlineTime.After(now) {
			return gw, true
		}
	}
	return fpl.Gameweek{}, false
}

// DeadlineStatus describes the next deadline for the status endpoint.
type DeadlineStatus struct {
	Event        int       `json:"event"`
	Name         string    `json:"name"`
	DeadlineTime time.Time `json:"deadline_time"`
	HoursLeft    float64   `json:"hours_left"`
	Imminent     bool      `json:"imminent"`
}

// Status summarizes the next deadline, or nil when none remains.
func (s *DeadlineService) Status(bootstrap *fpl.Bootstrap) *DeadlineStatus {
	gw, ok := s.NextDeadline(bootstrap)
	if !ok {
		s.log.Debug().Msg("No future deadlines in the events feed")
		return nil
	}

	left := gw.DeadlineTime.Sub(s.now())
	return &DeadlineStatus{
		Event:        gw.ID,
		Name:         gw.Name,
		DeadlineTime: gw.DeadlineTime,
		HoursLeft:    left.Hours(),
		Imminent:     left <= imminentWindow,
	}
}

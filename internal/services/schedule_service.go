package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/ballot/backend/internal/logger"
	"github.com/Wikid82/ballot/backend/internal/models"
	"github.com/Wikid82/ballot/backend/internal/store"
)

// ScheduleService closes elections whose end_date has passed. It only runs
// when a cron schedule is configured.
type ScheduleService struct {
	store store.Store
	cron  *cron.Cron
	now   func() time.Time
}

func NewScheduleService(s store.Store) *ScheduleService {
	return &ScheduleService{store: s, now: time.Now}
}

// SweepExpired deactivates active elections with an end_date in the past
// and returns how many were closed.
func (s *ScheduleService) SweepExpired(ctx context.Context) (int64, error) {
	q := store.From(models.TableElections).
		Eq("is_active", true).
		Where(store.Lt("end_date", s.now().UTC()))
	n, err := s.store.Update(ctx, q, map[string]interface{}{"is_active": false})
	if err != nil {
		return 0, fmt.Errorf("sweep expired elections: %w", err)
	}
	return n, nil
}

// Start schedules SweepExpired with a standard five-field cron spec.
func (s *ScheduleService) Start(spec string) error {
	c := cron.New(cron.WithLogger(cron.PrintfLogger(log.New(logger.Writer(), "cron: ", 0))))
	_, err := c.AddFunc(spec, func() {
		n, err := s.SweepExpired(context.Background())
		if err != nil {
			logger.Log().WithError(err).Error("election sweep failed")
			return
		}
		if n > 0 {
			logger.WithFields(logrus.Fields{"closed": n}).Info("closed expired elections")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	s.cron = c
	c.Start()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *ScheduleService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

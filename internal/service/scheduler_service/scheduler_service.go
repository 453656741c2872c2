package scheduler_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/tcp_snm/qotd/internal/metrics"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
	"github.com/tcp_snm/qotd/internal/service"
)

func (s *Scheduler) init() {
	s.initOnce.Do(func() {
		if s.DB == nil {
			panic("scheduler expects non-nil db")
		}
		if s.Judge == nil {
			panic("scheduler expects non-nil judge")
		}
		if s.Content == nil {
			panic("scheduler expects non-nil content fetcher")
		}
		if s.Editorial == nil {
			panic("scheduler expects non-nil editorial generator")
		}
		if s.MinRating > s.MaxRating {
			panic(fmt.Sprintf("scheduler rating range [%v, %v] is empty", s.MinRating, s.MaxRating))
		}
		if s.Location == nil {
			s.Location = time.Local
		}
		if s.CycleTimeout <= 0 {
			s.CycleTimeout = defaultCycleTimeout
		}
		if s.Pick == nil {
			s.Pick = func(n int) (int, error) {
				return service.GenerateSecureRandomInt(0, n-1)
			}
		}
		if s.logger == nil {
			s.logger = logrus.WithFields(logrus.Fields{
				"from": "scheduler",
			})
		}
	})
}

// Start runs the startup check and then installs the recurring timer when
// auto publication is enabled. It blocks for the duration of the startup
// check only.
func (s *Scheduler) Start(ctx context.Context) {
	s.init()

	s.logger.Info("running startup check for today's question")
	s.RunCycle(ctx, TriggerStartup)

	if !s.Enabled {
		s.logger.Info("auto publication is disabled, cron timer not installed")
		return
	}

	if _, err := cron.ParseStandard(s.CronSchedule); err != nil {
		s.logger.Errorf("invalid cron schedule %q, timer not installed, %v", s.CronSchedule, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Stop may have been called while the startup check was running
	if s.stopped {
		s.logger.Info("scheduler stopped before the cron timer was installed")
		return
	}

	c := cron.New(
		cron.WithLocation(s.Location),
		cron.WithLogger(cron.PrintfLogger(s.logger)),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(s.logger))),
	)
	if _, err := c.AddFunc(s.CronSchedule, func() { s.RunCycle(ctx, TriggerCron) }); err != nil {
		s.logger.Errorf("cannot install cron timer for %q, %v", s.CronSchedule, err)
		return
	}
	c.Start()
	s.cron = c

	s.logger.Infof("cron timer installed with schedule %q", s.CronSchedule)
}

// Stop removes the timer. An in-flight cycle is not waited for.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.cron == nil {
		return
	}
	s.cron.Stop()
	s.cron = nil
	if s.logger != nil {
		s.logger.Info("cron timer stopped")
	}
}

// TimerInstalled reports whether the recurring timer is active.
func (s *Scheduler) TimerInstalled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

// RunCycle runs one bounded publication cycle. Failures are logged, counted
// and reported to the managers, never retried.
func (s *Scheduler) RunCycle(ctx context.Context, trigger string) (EnsureResult, error) {
	s.init()

	ctx, cancel := context.WithTimeout(ctx, s.CycleTimeout)
	defer cancel()

	logger := s.logger.WithField("trigger", trigger)

	res, err := s.EnsureTodaysQuestion(ctx)
	if err == nil {
		if res.Created {
			metrics.SchedulerCycles.WithLabelValues(resultCreated).Inc()
			logger.Infof("published question %v for today", res.Question.ID)
		} else {
			metrics.SchedulerCycles.WithLabelValues(resultExisting).Inc()
			logger.Debugf("question %v already exists for today", res.Question.ID)
		}
		return res, nil
	}

	if errors.Is(err, qotd_errors.ErrNoCandidateProblems) {
		metrics.SchedulerCycles.WithLabelValues(resultNoCandidates).Inc()
	} else {
		metrics.SchedulerCycles.WithLabelValues(resultFailed).Inc()
	}
	logger.Errorf("publication cycle failed, %v", err)
	s.alert(trigger, err)

	return EnsureResult{}, err
}

func (s *Scheduler) alert(trigger string, cycleErr error) {
	if s.Alerter == nil {
		return
	}

	// the cycle context may already be expired
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	subject := "daily question was not published"
	body := fmt.Sprintf(
		"The %s publication cycle at %s ended without a question for today.\n\nError: %v\n",
		trigger,
		s.Clock.Now().In(s.Location).Format(time.RFC1123),
		cycleErr,
	)
	if err := s.Alerter.AlertManagers(ctx, subject, body); err != nil {
		s.logger.Warnf("cannot alert managers about failed cycle, %v", err)
	}
}

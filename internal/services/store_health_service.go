package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/containrrr/shoutrrr"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/dcarbon/emailpreview/internal/logger"
	"github.com/dcarbon/emailpreview/internal/metrics"
)

// Pinger checks content store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

const probeTimeout = 10 * time.Second

// StoreHealthService probes the content store on a schedule and alerts on
// up/down transitions.
type StoreHealthService struct {
	pinger   Pinger
	alertURL string
	send     func(url, message string) error

	mu      sync.RWMutex
	up      bool
	checked bool
	lastErr string

	cron *cron.Cron
}

// NewStoreHealthService creates a monitor. alertURL is a shoutrrr service
// URL; when empty no alerts are sent.
func NewStoreHealthService(p Pinger, alertURL string) *StoreHealthService {
	return &StoreHealthService{
		pinger:   p,
		alertURL: alertURL,
		send:     shoutrrr.Send,
	}
}

// Check probes the store once, updates state and returns whether it is up.
func (s *StoreHealthService) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	err := s.pinger.Ping(ctx)
	up := err == nil
	msg := ""
	if err != nil {
		msg = err.Error()
	}

	s.mu.Lock()
	changed := s.checked && s.up != up
	s.up, s.checked, s.lastErr = up, true, msg
	s.mu.Unlock()

	metrics.SetStoreUp(up)
	if changed {
		s.notify(up, msg)
	}
	return up
}

// Status returns the last probe result. checked is false before the first probe.
func (s *StoreHealthService) Status() (up bool, checked bool, lastErr string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.up, s.checked, s.lastErr
}

// Start runs an initial probe and schedules further probes with a cron spec
// such as "@every 1m".
func (s *StoreHealthService) Start(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { s.Check(context.Background()) }); err != nil {
		return fmt.Errorf("schedule store health probe: %w", err)
	}
	s.cron = c
	s.Check(context.Background())
	c.Start()
	return nil
}

// Stop halts scheduled probes and waits for a running one to finish.
func (s *StoreHealthService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *StoreHealthService) notify(up bool, msg string) {
	state := "down"
	if up {
		state = "up"
	}
	entry := logger.WithFields(logrus.Fields{"store_state": state})
	if up {
		entry.Info("content store recovered")
	} else {
		entry.WithField("error", msg).Warn("content store unreachable")
	}

	if s.alertURL == "" {
		return
	}
	text := fmt.Sprintf("Email preview: content store is %s", state)
	if msg != "" {
		text += "\n\n" + msg
	}
	if err := s.send(s.alertURL, text); err != nil {
		entry.WithError(err).Warn("failed to send store health alert")
	}
}

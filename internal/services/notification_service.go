package services

import (
	"fmt"
	"sync"

	"github.com/containrrr/shoutrrr"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/ballot/backend/internal/logger"
	"github.com/Wikid82/ballot/backend/internal/version"
)

// NotificationService pushes election lifecycle messages to external
// services (Discord, Slack, email, ...) through shoutrrr. Delivery is
// asynchronous and failures are only logged. A nil or unconfigured service
// is a no-op.
type NotificationService struct {
	send func(message string) []error
	wg   sync.WaitGroup
}

// NewNotificationService validates the shoutrrr URLs up front so a typo
// fails at startup rather than on the first event.
func NewNotificationService(urls []string) (*NotificationService, error) {
	if len(urls) == 0 {
		return &NotificationService{}, nil
	}
	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, fmt.Errorf("create notification sender: %w", err)
	}
	return &NotificationService{
		send: func(message string) []error { return sender.Send(message, nil) },
	}, nil
}

// Enabled reports whether any destination is configured.
func (s *NotificationService) Enabled() bool {
	return s != nil && s.send != nil
}

// Send delivers title and message in the background.
func (s *NotificationService) Send(title, message string) {
	if !s.Enabled() {
		return
	}
	// Use newline for better formatting in chat apps
	msg := fmt.Sprintf("%s\n\n%s", title, message)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for _, err := range s.send(msg) {
			if err != nil {
				logger.WithFields(logrus.Fields{"title": title}).WithError(err).Warn("failed to send notification")
			}
		}
	}()
}

// ElectionEvent announces an admin change to an election.
func (s *NotificationService) ElectionEvent(action, subject string) {
	s.Send(fmt.Sprintf("[%s] Election %s", version.Name, action), subject)
}

// Wait blocks until in-flight deliveries finish.
func (s *NotificationService) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/mail"
	"github.com/spec-kit/helpdesk/internal/service"
)

// StartNotificationWorker starts the mail scheduler and registers the
// notification handlers. The returned func stops the scheduler.
func StartNotificationWorker(notificationService *service.NotificationService, queue *mail.Queue, logger *zap.Logger) func() {
	if queue != nil {
		queue.Start()
	}
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	logger.Info("notification worker started")

	return func() {
		if queue == nil {
			return
		}
		if err := queue.Shutdown(); err != nil {
			logger.Warn("mail queue shutdown", zap.Error(err))
		}
	}
}

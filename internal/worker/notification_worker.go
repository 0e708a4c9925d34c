package worker

import (
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/service"
)

// StartNotificationWorker registers notification handlers and, when a sink
// is given, the Kafka export of every ticket event.
func StartNotificationWorker(notificationService *service.NotificationService, dispatcher events.Dispatcher, sink *events.KafkaSink) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if sink != nil && dispatcher != nil {
		sink.Register(dispatcher)
	}
}

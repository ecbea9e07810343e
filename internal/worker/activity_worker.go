package worker

import (
	"github.com/spec-kit/finance-tracker/internal/service"
)

// StartActivityWorker registers the transaction event subscribers.
func StartActivityWorker(activityService *service.ActivityService) {
	if activityService == nil {
		return
	}
	activityService.RegisterHandlers()
}

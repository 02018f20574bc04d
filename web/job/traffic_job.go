// Package job provides the cron jobs of the sx-ui panel.
package job

import (
	"github.com/sorooshm/sx-ui/logger"
	"github.com/sorooshm/sx-ui/web/service"
)

// TrafficJob periodically reconciles live Xray traffic counters into the
// store so quota/expiry policy is enforced even when nobody polls the stats
// endpoint.
type TrafficJob struct {
	trafficService *service.TrafficService
}

// NewTrafficJob creates the reconciliation job.
func NewTrafficJob(trafficService *service.TrafficService) *TrafficJob {
	return &TrafficJob{trafficService: trafficService}
}

// Run executes one reconciliation cycle. Implements cron.Job.
func (j *TrafficJob) Run() {
	result, err := j.trafficService.Reconcile()
	if err != nil {
		// Stats-unavailable is routine while Xray is restarting.
		logger.Debug("traffic job:", err)
		return
	}
	if len(result.DisabledSubscriptions) > 0 {
		logger.Infof("traffic job disabled %d subscriptions: %v",
			len(result.DisabledSubscriptions), result.DisabledSubscriptions)
	}
}

package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/sorooshm/sx-ui/database"
	"github.com/sorooshm/sx-ui/database/model"
	"github.com/sorooshm/sx-ui/logger"
	"github.com/sorooshm/sx-ui/util/common"
	"github.com/sorooshm/sx-ui/xray"

	"gorm.io/gorm"
)

// TrafficFetcher pulls the since-last-read per-identity counters from the
// running proxy, zeroing them at the source.
type TrafficFetcher interface {
	GetTraffic(reset bool) ([]*xray.Traffic, error)
}

// ReconcileResult is the outcome of one reconciliation cycle.
type ReconcileResult struct {
	// Clients carries the persisted counters after the merge (or the
	// last-known ones when the stats source was unavailable).
	Clients []*model.Client `json:"clients"`
	// Online lists identities that moved bytes this cycle.
	Online []string `json:"online"`
	// DisabledSubscriptions lists remarks of subscriptions disabled by
	// policy evaluation this cycle.
	DisabledSubscriptions []string `json:"disabledSubscriptions"`
	// Applied reports whether a config regenerate+apply was triggered and
	// succeeded; ApplyError carries the failure otherwise.
	Applied    bool   `json:"applied"`
	ApplyError string `json:"applyError,omitempty"`
}

// TrafficService reconciles live proxy counters into persistent client
// counters and evaluates subscription quota/expiry policy.
type TrafficService struct {
	fetcher TrafficFetcher
	applier Applier

	subscriptionService SubscriptionService
}

// NewTrafficService wires the reconciler to a stats source and the apply
// pipeline used after policy disablements.
func NewTrafficService(fetcher TrafficFetcher, applier Applier) *TrafficService {
	return &TrafficService{fetcher: fetcher, applier: applier}
}

// Reconcile runs one cycle: fetch the live delta (with reset), merge it
// atomically into persistent counters, evaluate policy for the touched
// subscriptions, and regenerate+apply the proxy config when any
// subscription was disabled.
//
// When the stats source is unavailable the cycle aborts with
// common.ErrStatsUnavailable and the returned result carries the last
// persisted counters unchanged. A merge failure after a successful fetch
// loses that delta — the source already reset; accepted tradeoff.
func (s *TrafficService) Reconcile() (*ReconcileResult, error) {
	result := &ReconcileResult{}

	traffics, err := s.fetcher.GetTraffic(true)
	if err != nil {
		if !errors.Is(err, common.ErrStatsUnavailable) {
			err = fmt.Errorf("%v: %w", err, common.ErrStatsUnavailable)
		}
		logger.Warning("traffic reconciliation skipped:", err)
		if loadErr := s.loadClients(result); loadErr != nil {
			return nil, loadErr
		}
		return result, err
	}

	var identities []string
	for _, t := range traffics {
		if t.Up > 0 || t.Down > 0 {
			result.Online = append(result.Online, t.Identity)
		}
		identities = append(identities, t.Identity)
	}

	var disabledIds []int
	if len(traffics) > 0 {
		err = database.GetDB().Transaction(func(tx *gorm.DB) error {
			for _, t := range traffics {
				err := tx.Model(&model.Client{}).
					Where("uuid = ?", t.Identity).
					UpdateColumns(map[string]any{
						"up":   gorm.Expr("up + ?", t.Up),
						"down": gorm.Expr("down + ?", t.Down),
					}).Error
				if err != nil {
					return err
				}
			}

			var subIds []int
			err := tx.Model(&model.Client{}).
				Where("uuid in ?", identities).
				Distinct("subscription_id").
				Pluck("subscription_id", &subIds).Error
			if err != nil {
				return err
			}

			disabledIds, err = s.subscriptionService.disableExhausted(tx, subIds, time.Now())
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	for _, id := range disabledIds {
		sub := &model.Subscription{}
		if err := database.GetDB().First(sub, id).Error; err == nil {
			result.DisabledSubscriptions = append(result.DisabledSubscriptions, sub.Remark)
		}
	}

	// Push the shrunken eligible-client set to the proxy promptly rather
	// than waiting for the next unrelated mutation.
	if len(disabledIds) > 0 {
		if applyErr := s.applier.Apply(); applyErr != nil {
			result.ApplyError = applyErr.Error()
		} else {
			result.Applied = true
		}
	}

	if err := s.loadClients(result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *TrafficService) loadClients(result *ReconcileResult) error {
	return database.GetDB().Order("id").Find(&result.Clients).Error
}

package service

import (
	"time"

	"github.com/sorooshm/sx-ui/database"
	"github.com/sorooshm/sx-ui/database/model"
	"github.com/sorooshm/sx-ui/logger"
	"github.com/sorooshm/sx-ui/util/common"
	"github.com/sorooshm/sx-ui/util/random"

	"gorm.io/gorm"
)

// SubscriptionService manages quota/expiry policy groups and evaluates their
// policy against accumulated client traffic.
type SubscriptionService struct{}

// GetSubscriptions returns all subscriptions in store order.
func (s *SubscriptionService) GetSubscriptions() ([]*model.Subscription, error) {
	db := database.GetDB()
	var subs []*model.Subscription
	err := db.Order("id").Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// GetSubscription returns one subscription by id.
func (s *SubscriptionService) GetSubscription(id int) (*model.Subscription, error) {
	db := database.GetDB()
	sub := &model.Subscription{}
	err := db.First(sub, id).Error
	if database.IsNotFound(err) {
		return nil, common.NotFoundf("subscription %d", id)
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// GetSubscriptionByToken returns one subscription by its access token.
func (s *SubscriptionService) GetSubscriptionByToken(token string) (*model.Subscription, error) {
	db := database.GetDB()
	sub := &model.Subscription{}
	err := db.Where("sub_token = ?", token).First(sub).Error
	if database.IsNotFound(err) {
		return nil, common.NotFoundf("subscription token %q", token)
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// AddSubscription creates a subscription, generating an access token when
// none is supplied.
func (s *SubscriptionService) AddSubscription(sub *model.Subscription) error {
	if sub.SubToken == "" {
		sub.SubToken = random.Token()
	}
	return database.GetDB().Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.Subscription{}).
			Where("remark = ? or sub_token = ?", sub.Remark, sub.SubToken).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return common.Conflictf("subscription remark %q or token already in use", sub.Remark)
		}

		err = tx.Create(sub).Error
		if database.IsDuplicate(err) {
			return common.Conflictf("subscription remark %q or token already in use", sub.Remark)
		}
		return err
	})
}

// UpdateSubscription applies the non-nil patch fields and returns the
// updated row.
func (s *SubscriptionService) UpdateSubscription(id int, patch *model.SubscriptionPatch) (*model.Subscription, error) {
	sub := &model.Subscription{}
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		err := tx.First(sub, id).Error
		if database.IsNotFound(err) {
			return common.NotFoundf("subscription %d", id)
		}
		if err != nil {
			return err
		}

		if patch.Remark != nil && *patch.Remark != sub.Remark {
			var count int64
			if err := tx.Model(&model.Subscription{}).
				Where("remark = ? and id != ?", *patch.Remark, id).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return common.Conflictf("subscription remark %q already in use", *patch.Remark)
			}
			sub.Remark = *patch.Remark
		}
		if patch.Total != nil {
			sub.Total = *patch.Total
		}
		if patch.ExpiryTime != nil {
			sub.ExpiryTime = *patch.ExpiryTime
		}
		if patch.Enable != nil {
			sub.Enable = *patch.Enable
		}

		err = tx.Save(sub).Error
		if database.IsDuplicate(err) {
			return common.Conflictf("subscription remark already in use")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// DelSubscription deletes a subscription. Deletion is blocked while clients
// still reference it, so credentials never silently lose their policy group.
func (s *SubscriptionService) DelSubscription(id int) error {
	return database.GetDB().Transaction(func(tx *gorm.DB) error {
		sub := &model.Subscription{}
		err := tx.First(sub, id).Error
		if database.IsNotFound(err) {
			return common.NotFoundf("subscription %d", id)
		}
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&model.Client{}).
			Where("subscription_id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return common.Conflictf("subscription %d still has %d clients", id, count)
		}

		return tx.Delete(sub).Error
	})
}

// GetUsage returns the aggregate up+down bytes across the subscription's
// clients.
func (s *SubscriptionService) GetUsage(id int) (int64, error) {
	return subscriptionUsage(database.GetDB(), id)
}

func subscriptionUsage(tx *gorm.DB, id int) (int64, error) {
	var usage int64
	err := tx.Model(&model.Client{}).
		Where("subscription_id = ?", id).
		Select("ifnull(sum(up + down), 0)").
		Scan(&usage).Error
	return usage, err
}

// getOrCreateByRemark resolves a subscription by remark inside tx, creating
// it when absent. On a creation race the unique index makes one writer win;
// the loser re-reads and reuses the winner's row.
func (s *SubscriptionService) getOrCreateByRemark(tx *gorm.DB, remark string) (*model.Subscription, error) {
	sub := &model.Subscription{}
	err := tx.Where("remark = ?", remark).First(sub).Error
	if err == nil {
		return sub, nil
	}
	if !database.IsNotFound(err) {
		return nil, err
	}

	sub = &model.Subscription{
		Remark:   remark,
		SubToken: random.Token(),
		Enable:   true,
	}
	err = tx.Create(sub).Error
	if database.IsDuplicate(err) {
		sub = &model.Subscription{}
		err = tx.Where("remark = ?", remark).First(sub).Error
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// disableExhausted evaluates quota/expiry policy for the given subscription
// ids inside tx and disables every breached one. It returns the ids that
// were disabled.
func (s *SubscriptionService) disableExhausted(tx *gorm.DB, ids []int, now time.Time) ([]int, error) {
	var disabled []int
	for _, id := range ids {
		sub := &model.Subscription{}
		if err := tx.First(sub, id).Error; err != nil {
			if database.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if !sub.Enable {
			continue
		}

		usage, err := subscriptionUsage(tx, id)
		if err != nil {
			return nil, err
		}

		quotaBreached := sub.Total > 0 && usage >= sub.Total
		expired := sub.ExpiryTime > 0 && now.Unix() >= sub.ExpiryTime
		if !quotaBreached && !expired {
			continue
		}

		if err := tx.Model(sub).Update("enable", false).Error; err != nil {
			return nil, err
		}
		logger.Warningf("subscription %q disabled (quota breached: %v, expired: %v)",
			sub.Remark, quotaBreached, expired)
		disabled = append(disabled, id)
	}
	return disabled, nil
}

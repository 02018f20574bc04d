package service

import (
	"github.com/sorooshm/sx-ui/database"
	"github.com/sorooshm/sx-ui/database/model"
	"github.com/sorooshm/sx-ui/util/common"
	"github.com/sorooshm/sx-ui/util/random"

	"gorm.io/gorm"
)

// ClientService manages credentials bound to inbounds and subscriptions.
type ClientService struct {
	subscriptionService SubscriptionService
}

// GetClients returns all clients of an inbound in store order.
func (s *ClientService) GetClients(inboundId int) ([]*model.Client, error) {
	db := database.GetDB()

	var count int64
	if err := db.Model(&model.Inbound{}).Where("id = ?", inboundId).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, common.NotFoundf("inbound %d", inboundId)
	}

	var clients []*model.Client
	err := db.Where("inbound_id = ?", inboundId).Order("id").Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}

// GetClient returns one client by id.
func (s *ClientService) GetClient(id int) (*model.Client, error) {
	db := database.GetDB()
	client := &model.Client{}
	err := db.First(client, id).Error
	if database.IsNotFound(err) {
		return nil, common.NotFoundf("client %d", id)
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// GetClientsForSubscription returns all clients grouped under a subscription.
func (s *ClientService) GetClientsForSubscription(subscriptionId int) ([]*model.Client, error) {
	db := database.GetDB()
	var clients []*model.Client
	err := db.Where("subscription_id = ?", subscriptionId).Order("id").Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}

// AddClient attaches a new credential to an inbound. The subscription is
// resolved from subscriptionId when positive, otherwise looked up by
// subRemark and created on the fly if absent — all inside one transaction.
// A zero-value identity token is generated.
func (s *ClientService) AddClient(inboundId int, remark string, subscriptionId int, subRemark string) (*model.Client, error) {
	client := &model.Client{
		InboundId: inboundId,
		UUID:      random.UUID(),
		Remark:    remark,
	}

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Inbound{}).Where("id = ?", inboundId).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return common.NotFoundf("inbound %d", inboundId)
		}

		var sub *model.Subscription
		var err error
		if subscriptionId > 0 {
			sub = &model.Subscription{}
			err = tx.First(sub, subscriptionId).Error
			if database.IsNotFound(err) {
				return common.NotFoundf("subscription %d", subscriptionId)
			}
			if err != nil {
				return err
			}
		} else {
			if subRemark == "" {
				subRemark = remark
			}
			sub, err = s.subscriptionService.getOrCreateByRemark(tx, subRemark)
			if err != nil {
				return err
			}
		}
		client.SubscriptionId = sub.Id

		err = tx.Create(client).Error
		if database.IsDuplicate(err) {
			return common.Conflictf("client identity already in use")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// UpdateClient applies the non-nil patch fields and returns the updated
// row.
func (s *ClientService) UpdateClient(id int, patch *model.ClientPatch) (*model.Client, error) {
	client := &model.Client{}
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		err := tx.First(client, id).Error
		if database.IsNotFound(err) {
			return common.NotFoundf("client %d", id)
		}
		if err != nil {
			return err
		}

		if patch.UUID != nil && *patch.UUID != client.UUID {
			var count int64
			if err := tx.Model(&model.Client{}).
				Where("uuid = ? and id != ?", *patch.UUID, id).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return common.Conflictf("client identity already in use")
			}
			client.UUID = *patch.UUID
		}
		if patch.Remark != nil {
			client.Remark = *patch.Remark
		}
		if patch.SubscriptionId != nil {
			sub := &model.Subscription{}
			err := tx.First(sub, *patch.SubscriptionId).Error
			if database.IsNotFound(err) {
				return common.NotFoundf("subscription %d", *patch.SubscriptionId)
			}
			if err != nil {
				return err
			}
			client.SubscriptionId = sub.Id
		}

		err = tx.Save(client).Error
		if database.IsDuplicate(err) {
			return common.Conflictf("client identity already in use")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// DelClient deletes one client.
func (s *ClientService) DelClient(id int) error {
	return database.GetDB().Transaction(func(tx *gorm.DB) error {
		client := &model.Client{}
		err := tx.First(client, id).Error
		if database.IsNotFound(err) {
			return common.NotFoundf("client %d", id)
		}
		if err != nil {
			return err
		}
		return tx.Delete(client).Error
	})
}

package service

import (
	"github.com/sorooshm/sx-ui/database"
	"github.com/sorooshm/sx-ui/database/model"
	"github.com/sorooshm/sx-ui/logger"
	"github.com/sorooshm/sx-ui/util/common"

	"gorm.io/gorm"
)

// InboundService manages inbound endpoints. All mutations are transactional;
// uniqueness violations surface as common.ErrConflict and missing ids as
// common.ErrNotFound.
type InboundService struct{}

// GetInbounds returns all inbounds in store order.
func (s *InboundService) GetInbounds() ([]*model.Inbound, error) {
	db := database.GetDB()
	var inbounds []*model.Inbound
	err := db.Order("id").Find(&inbounds).Error
	if err != nil {
		return nil, err
	}
	return inbounds, nil
}

// GetInbound returns one inbound by id.
func (s *InboundService) GetInbound(id int) (*model.Inbound, error) {
	db := database.GetDB()
	inbound := &model.Inbound{}
	err := db.First(inbound, id).Error
	if database.IsNotFound(err) {
		return nil, common.NotFoundf("inbound %d", id)
	}
	if err != nil {
		return nil, err
	}
	return inbound, nil
}

// AddInbound validates and creates a new inbound.
func (s *InboundService) AddInbound(inbound *model.Inbound) error {
	if inbound.Port < 1 || inbound.Port > 65535 {
		return common.NewErrorf("invalid port %d", inbound.Port)
	}
	if err := inbound.StreamSettings.Validate(); err != nil {
		return err
	}

	return database.GetDB().Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.Inbound{}).
			Where("port = ? or remark = ?", inbound.Port, inbound.Remark).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return common.Conflictf("port %d or remark %q already in use",
				inbound.Port, inbound.Remark)
		}

		err = tx.Create(inbound).Error
		if database.IsDuplicate(err) {
			return common.Conflictf("port %d or remark %q already in use",
				inbound.Port, inbound.Remark)
		}
		return err
	})
}

// UpdateInbound applies the non-nil patch fields to the inbound and returns
// the updated row.
func (s *InboundService) UpdateInbound(id int, patch *model.InboundPatch) (*model.Inbound, error) {
	if patch.StreamSettings != nil {
		if err := patch.StreamSettings.Validate(); err != nil {
			return nil, err
		}
	}
	if patch.Port != nil && (*patch.Port < 1 || *patch.Port > 65535) {
		return nil, common.NewErrorf("invalid port %d", *patch.Port)
	}

	inbound := &model.Inbound{}
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		err := tx.First(inbound, id).Error
		if database.IsNotFound(err) {
			return common.NotFoundf("inbound %d", id)
		}
		if err != nil {
			return err
		}

		if patch.Port != nil && *patch.Port != inbound.Port {
			var count int64
			if err := tx.Model(&model.Inbound{}).
				Where("port = ? and id != ?", *patch.Port, id).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return common.Conflictf("port %d already in use", *patch.Port)
			}
			inbound.Port = *patch.Port
		}
		if patch.Remark != nil && *patch.Remark != inbound.Remark {
			var count int64
			if err := tx.Model(&model.Inbound{}).
				Where("remark = ? and id != ?", *patch.Remark, id).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return common.Conflictf("remark %q already in use", *patch.Remark)
			}
			inbound.Remark = *patch.Remark
		}
		if patch.Enable != nil {
			inbound.Enable = *patch.Enable
		}
		if patch.Protocol != nil {
			inbound.Protocol = *patch.Protocol
		}
		if patch.Settings != nil {
			inbound.Settings = *patch.Settings
		}
		if patch.StreamSettings != nil {
			inbound.StreamSettings = *patch.StreamSettings
		}
		if patch.Sniffing != nil {
			inbound.Sniffing = *patch.Sniffing
		}

		err = tx.Save(inbound).Error
		if database.IsDuplicate(err) {
			return common.Conflictf("port or remark already in use")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return inbound, nil
}

// DelInbound deletes an inbound and all of its clients in one transaction.
func (s *InboundService) DelInbound(id int) error {
	return database.GetDB().Transaction(func(tx *gorm.DB) error {
		inbound := &model.Inbound{}
		err := tx.First(inbound, id).Error
		if database.IsNotFound(err) {
			return common.NotFoundf("inbound %d", id)
		}
		if err != nil {
			return err
		}

		result := tx.Where("inbound_id = ?", id).Delete(&model.Client{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			logger.Infof("deleted %d clients of inbound %d", result.RowsAffected, id)
		}

		return tx.Delete(inbound).Error
	})
}

// Package service implements the sx-ui business logic on top of the entity
// store: inbound/client/subscription management, Xray config synthesis and
// apply, and traffic reconciliation.
package service

import (
	"github.com/sorooshm/sx-ui/database"
	"github.com/sorooshm/sx-ui/database/model"

	"gorm.io/gorm"
)

// SettingService manages the singleton panel Setting row.
type SettingService struct{}

func defaultSettings() *model.Setting {
	return &model.Setting{
		Id:           model.SettingId,
		ListenPort:   443,
		Locale:       "en",
		TimeZone:     "Local",
		CalendarType: "Gregorian",
	}
}

// GetSettings returns the Setting singleton, creating it with defaults on
// first read.
func (s *SettingService) GetSettings() (*model.Setting, error) {
	db := database.GetDB()

	setting := &model.Setting{}
	err := db.First(setting, model.SettingId).Error
	if err == nil {
		return setting, nil
	}
	if !database.IsNotFound(err) {
		return nil, err
	}

	setting = defaultSettings()
	if err := db.Create(setting).Error; err != nil {
		// Lost a creation race; the winner's row is authoritative.
		if database.IsDuplicate(err) {
			err = db.First(setting, model.SettingId).Error
		}
		if err != nil {
			return nil, err
		}
	}
	return setting, nil
}

// UpdateSettings applies the non-nil patch fields to the singleton and
// returns the updated row.
func (s *SettingService) UpdateSettings(patch *model.SettingPatch) (*model.Setting, error) {
	setting, err := s.GetSettings()
	if err != nil {
		return nil, err
	}

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if patch.ListenPort != nil {
			setting.ListenPort = *patch.ListenPort
		}
		if patch.Domain != nil {
			setting.Domain = *patch.Domain
		}
		if patch.CertFile != nil {
			setting.CertFile = *patch.CertFile
		}
		if patch.KeyFile != nil {
			setting.KeyFile = *patch.KeyFile
		}
		if patch.Locale != nil {
			setting.Locale = *patch.Locale
		}
		if patch.TimeZone != nil {
			setting.TimeZone = *patch.TimeZone
		}
		if patch.CalendarType != nil {
			setting.CalendarType = *patch.CalendarType
		}
		if patch.NotificationsEnabled != nil {
			setting.NotificationsEnabled = *patch.NotificationsEnabled
		}
		if patch.ExternalTrafficEnabled != nil {
			setting.ExternalTrafficEnabled = *patch.ExternalTrafficEnabled
		}
		if patch.ExternalTrafficURI != nil {
			setting.ExternalTrafficURI = *patch.ExternalTrafficURI
		}
		return tx.Save(setting).Error
	})
	if err != nil {
		return nil, err
	}
	return setting, nil
}

// Package model defines the database models of the sx-ui panel.
package model

import "github.com/sorooshm/sx-ui/xray"

// Protocol represents the protocol type of an Xray inbound.
type Protocol string

// Protocol constants for the supported inbound protocols.
const (
	VMESS  Protocol = "vmess"
	VLESS  Protocol = "vless"
	Trojan Protocol = "trojan"
)

// User represents a panel admin account.
type User struct {
	Id       int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Username string `json:"username" gorm:"unique"`
	Password string `json:"-"`
}

// Inbound represents one listening endpoint of the proxy. Port and Remark
// are each globally unique. Deleting an inbound cascades to its clients at
// the store boundary.
type Inbound struct {
	Id             int                 `json:"id" form:"id" gorm:"primaryKey;autoIncrement"`
	Remark         string              `json:"remark" form:"remark" gorm:"unique"`
	Enable         bool                `json:"enable" form:"enable"`
	Port           int                 `json:"port" form:"port" gorm:"unique"`
	Protocol       Protocol            `json:"protocol" form:"protocol"`
	Settings       string              `json:"settings" form:"settings"`
	StreamSettings xray.StreamSettings `json:"streamSettings" gorm:"serializer:json"`
	Sniffing       string              `json:"sniffing" form:"sniffing"`
}

// Client is one credential bound to exactly one inbound and one
// subscription. Enable/quota/expiry state is inherited entirely from the
// subscription; the client only accumulates traffic counters.
type Client struct {
	Id             int    `json:"id" gorm:"primaryKey;autoIncrement"`
	InboundId      int    `json:"inboundId" gorm:"index"`
	SubscriptionId int    `json:"subscriptionId" gorm:"index"`
	UUID           string `json:"uuid" gorm:"unique"`
	Remark         string `json:"remark"`
	Up             int64  `json:"up" gorm:"default:0"`
	Down           int64  `json:"down" gorm:"default:0"`
}

// Subscription groups clients across inbounds under a shared quota/expiry
// policy. Total is in bytes, zero means unlimited; ExpiryTime is a unix
// timestamp, zero means never.
type Subscription struct {
	Id         int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Remark     string `json:"remark" gorm:"unique"`
	Total      int64  `json:"total" gorm:"default:0"`
	ExpiryTime int64  `json:"expiryTime" gorm:"default:0"`
	SubToken   string `json:"subToken" gorm:"unique"`
	Enable     bool   `json:"enable"`
}

// Setting is the singleton panel configuration row (id fixed to 1),
// created lazily with defaults on first read.
type Setting struct {
	Id                     int    `json:"id" gorm:"primaryKey"`
	ListenPort             int    `json:"listenPort"`
	Domain                 string `json:"domain"`
	CertFile               string `json:"certFile"`
	KeyFile                string `json:"keyFile"`
	Locale                 string `json:"locale"`
	TimeZone               string `json:"timeZone"`
	CalendarType           string `json:"calendarType"`
	NotificationsEnabled   bool   `json:"notificationsEnabled"`
	ExternalTrafficEnabled bool   `json:"externalTrafficEnabled"`
	ExternalTrafficURI     string `json:"externalTrafficUri"`
}

// SettingId is the fixed primary key of the Setting singleton.
const SettingId = 1

// InboundPatch is a sparse update of an Inbound: only non-nil fields are
// applied.
type InboundPatch struct {
	Remark         *string              `json:"remark"`
	Enable         *bool                `json:"enable"`
	Port           *int                 `json:"port"`
	Protocol       *Protocol            `json:"protocol"`
	Settings       *string              `json:"settings"`
	StreamSettings *xray.StreamSettings `json:"streamSettings"`
	Sniffing       *string              `json:"sniffing"`
}

// ClientPatch is a sparse update of a Client.
type ClientPatch struct {
	Remark         *string `json:"remark"`
	UUID           *string `json:"uuid"`
	SubscriptionId *int    `json:"subscriptionId"`
}

// SubscriptionPatch is a sparse update of a Subscription.
type SubscriptionPatch struct {
	Remark     *string `json:"remark"`
	Total      *int64  `json:"total"`
	ExpiryTime *int64  `json:"expiryTime"`
	Enable     *bool   `json:"enable"`
}

// SettingPatch is a sparse update of the Setting singleton.
type SettingPatch struct {
	ListenPort             *int    `json:"listenPort"`
	Domain                 *string `json:"domain"`
	CertFile               *string `json:"certFile"`
	KeyFile                *string `json:"keyFile"`
	Locale                 *string `json:"locale"`
	TimeZone               *string `json:"timeZone"`
	CalendarType           *string `json:"calendarType"`
	NotificationsEnabled   *bool   `json:"notificationsEnabled"`
	ExternalTrafficEnabled *bool   `json:"externalTrafficEnabled"`
	ExternalTrafficURI     *string `json:"externalTrafficUri"`
}

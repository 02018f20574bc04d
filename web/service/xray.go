package service

import (
	"fmt"

	"github.com/sorooshm/sx-ui/config"
	"github.com/sorooshm/sx-ui/database"
	"github.com/sorooshm/sx-ui/database/model"
	"github.com/sorooshm/sx-ui/logger"
	"github.com/sorooshm/sx-ui/util/common"
	"github.com/sorooshm/sx-ui/util/json_util"
	"github.com/sorooshm/sx-ui/xray"
)

const defaultSniffing = `{"enabled":true,"destOverride":["http","tls"]}`

// Applier makes the current entity-store state take effect on the proxy.
type Applier interface {
	Apply() error
}

// XrayService synthesizes the Xray configuration document from entity-store
// state and drives the apply pipeline.
type XrayService struct {
	proc *xray.ProcessManager
}

// NewXrayService creates the service around the given process manager.
func NewXrayService(proc *xray.ProcessManager) *XrayService {
	return &XrayService{proc: proc}
}

// GenerateConfig renders the complete configuration document from the
// current enabled set of inbounds and clients. It is a pure read: safe to
// call repeatedly, never consults traffic counters, and yields identical
// output for identical store state.
func (s *XrayService) GenerateConfig() (*xray.Config, error) {
	cfg := configSkeleton()

	db := database.GetDB()
	var inbounds []*model.Inbound
	if err := db.Order("id").Find(&inbounds).Error; err != nil {
		return nil, err
	}

	for _, inbound := range inbounds {
		if !inbound.Enable {
			continue
		}

		// Only clients whose subscription is enabled are eligible; the
		// client itself carries no enable flag.
		var clients []*model.Client
		err := db.
			Joins("join subscriptions on subscriptions.id = clients.subscription_id").
			Where("clients.inbound_id = ? and subscriptions.enable = ?", inbound.Id, true).
			Order("clients.id").
			Find(&clients).Error
		if err != nil {
			return nil, err
		}
		// An inbound with no eligible clients is meaningless to Xray.
		if len(clients) == 0 {
			continue
		}

		cfg.Inbounds = append(cfg.Inbounds, synthesizeInbound(inbound, clients))
	}

	return cfg, nil
}

// Apply synthesizes the current document and runs the apply pipeline:
// write the config file, then reload Xray. Write failures abort before any
// reload is attempted.
func (s *XrayService) Apply() error {
	cfg, err := s.GenerateConfig()
	if err != nil {
		return fmt.Errorf("%v: %w", err, common.ErrSynthesisFailed)
	}
	if err := s.proc.Apply(cfg); err != nil {
		logger.Error("apply xray config:", err)
		return err
	}
	logger.Debugf("applied xray config with %d inbounds", len(cfg.Inbounds))
	return nil
}

// Process exposes the underlying process manager for lifecycle control.
func (s *XrayService) Process() *xray.ProcessManager {
	return s.proc
}

func configSkeleton() *xray.Config {
	return &xray.Config{
		Log: &xray.LogConfig{LogLevel: "warning"},
		API: &xray.APIConfig{
			Tag:      "api",
			Services: []string{"StatsService"},
		},
		Stats: &xray.StatsConfig{},
		Policy: &xray.PolicyConfig{
			Levels: map[string]xray.LevelPolicy{
				"0": {StatsUserUplink: true, StatsUserDownlink: true},
			},
			System: xray.SystemPolicy{
				StatsInboundUplink:   true,
				StatsInboundDownlink: true,
			},
		},
		Inbounds: []*xray.InboundConfig{
			{
				Tag:      "api",
				Listen:   "127.0.0.1",
				Port:     config.GetXrayAPIPort(),
				Protocol: "dokodemo-door",
				Settings: &xray.InboundSettings{Address: "127.0.0.1"},
			},
		},
		Outbounds: []xray.OutboundConfig{
			{Protocol: "freedom", Tag: "direct"},
			{Protocol: "blackhole", Tag: "blackhole"},
		},
		Routing: &xray.RoutingConfig{
			Rules: []xray.RoutingRule{
				{Type: "field", InboundTag: []string{"api"}, OutboundTag: "blackhole"},
			},
		},
	}
}

func synthesizeInbound(inbound *model.Inbound, clients []*model.Client) *xray.InboundConfig {
	settings := &xray.InboundSettings{}
	for _, client := range clients {
		cc := &xray.ClientConfig{
			ID:    client.UUID,
			Email: client.Remark,
			Level: 0,
		}
		if inbound.Protocol == model.VMESS {
			zero := 0
			cc.AlterID = &zero
		}
		settings.Clients = append(settings.Clients, cc)
	}
	if inbound.Protocol == model.VLESS {
		settings.Decryption = "none"
	}

	sniffing := inbound.Sniffing
	if sniffing == "" {
		sniffing = defaultSniffing
	}

	streamSettings := inbound.StreamSettings
	return &xray.InboundConfig{
		// Deterministic tag keyed by port keeps re-synthesis stable.
		Tag:            fmt.Sprintf("inbound-%d", inbound.Port),
		Listen:         "0.0.0.0",
		Port:           inbound.Port,
		Protocol:       string(inbound.Protocol),
		Settings:       settings,
		StreamSettings: &streamSettings,
		Sniffing:       json_util.RawMessage(sniffing),
	}
}

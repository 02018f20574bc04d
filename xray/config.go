// Package xray models the Xray configuration document and the panel's
// interface to the running Xray process (stats gRPC API, config file,
// service control).
package xray

import (
	"github.com/sorooshm/sx-ui/util/common"
	"github.com/sorooshm/sx-ui/util/json_util"
)

// Network kinds supported for inbound transports.
const (
	NetworkTCP       = "tcp"
	NetworkWebSocket = "ws"
	NetworkGRPC      = "grpc"
	NetworkHTTP      = "http"
)

// Security modes supported for inbound transports.
const (
	SecurityNone = "none"
	SecurityTLS  = "tls"
)

// Config is the top-level Xray configuration document written to the config
// file the Xray process reads on reload.
type Config struct {
	Log       *LogConfig       `json:"log"`
	API       *APIConfig       `json:"api"`
	Stats     *StatsConfig     `json:"stats"`
	Policy    *PolicyConfig    `json:"policy"`
	Inbounds  []*InboundConfig `json:"inbounds"`
	Outbounds []OutboundConfig `json:"outbounds"`
	Routing   *RoutingConfig   `json:"routing"`
}

// LogConfig controls Xray process logging.
type LogConfig struct {
	LogLevel string `json:"loglevel"`
}

// APIConfig exposes the gRPC services on the administrative inbound.
type APIConfig struct {
	Tag      string   `json:"tag"`
	Services []string `json:"services"`
}

// StatsConfig enables the stats subsystem. Xray only requires the object to
// be present.
type StatsConfig struct{}

// PolicyConfig enables per-level traffic accounting.
type PolicyConfig struct {
	Levels map[string]LevelPolicy `json:"levels"`
	System SystemPolicy           `json:"system"`
}

// LevelPolicy enables per-user uplink/downlink counters for one access level.
type LevelPolicy struct {
	StatsUserUplink   bool `json:"statsUserUplink"`
	StatsUserDownlink bool `json:"statsUserDownlink"`
}

// SystemPolicy enables per-inbound counters.
type SystemPolicy struct {
	StatsInboundUplink   bool `json:"statsInboundUplink"`
	StatsInboundDownlink bool `json:"statsInboundDownlink"`
}

// InboundConfig is one listening endpoint in the document.
type InboundConfig struct {
	Tag            string               `json:"tag"`
	Listen         string               `json:"listen"`
	Port           int                  `json:"port"`
	Protocol       string               `json:"protocol"`
	Settings       *InboundSettings     `json:"settings"`
	StreamSettings *StreamSettings      `json:"streamSettings,omitempty"`
	Sniffing       json_util.RawMessage `json:"sniffing,omitempty"`
}

// InboundSettings carries the protocol-specific client list.
type InboundSettings struct {
	Address    string          `json:"address,omitempty"`
	Clients    []*ClientConfig `json:"clients,omitempty"`
	Decryption string          `json:"decryption,omitempty"`
}

// ClientConfig is one credential entry in an inbound's client list.
type ClientConfig struct {
	ID      string `json:"id"`
	AlterID *int   `json:"alterId,omitempty"`
	Email   string `json:"email"`
	Level   int    `json:"level"`
}

// OutboundConfig is one egress route.
type OutboundConfig struct {
	Protocol string `json:"protocol"`
	Tag      string `json:"tag"`
}

// RoutingConfig holds the routing rule list.
type RoutingConfig struct {
	Rules []RoutingRule `json:"rules"`
}

// RoutingRule routes traffic from inbound tags to an outbound tag.
type RoutingRule struct {
	Type        string   `json:"type"`
	InboundTag  []string `json:"inboundTag"`
	OutboundTag string   `json:"outboundTag"`
}

// StreamSettings is the transport configuration of an inbound, modeled as a
// tagged union over the supported network kinds. Exactly the block matching
// Network may be set; Validate rejects anything else before it can reach the
// Xray process.
type StreamSettings struct {
	Network      string             `json:"network"`
	Security     string             `json:"security"`
	TLSSettings  *TLSSettings       `json:"tlsSettings,omitempty"`
	WSSettings   *WebSocketSettings `json:"wsSettings,omitempty"`
	GRPCSettings *GRPCSettings      `json:"grpcSettings,omitempty"`
	HTTPSettings *HTTPSettings      `json:"httpSettings,omitempty"`
}

// TLSSettings carries certificate material for security "tls".
type TLSSettings struct {
	ServerName   string            `json:"serverName,omitempty"`
	Certificates []TLSCertificate  `json:"certificates,omitempty"`
}

// TLSCertificate points at one certificate/key pair on disk.
type TLSCertificate struct {
	CertificateFile string `json:"certificateFile"`
	KeyFile         string `json:"keyFile"`
}

// WebSocketSettings configures the "ws" transport.
type WebSocketSettings struct {
	Path string `json:"path"`
	Host string `json:"host,omitempty"`
}

// GRPCSettings configures the "grpc" transport.
type GRPCSettings struct {
	ServiceName string `json:"serviceName"`
}

// HTTPSettings configures the "http" (h2) transport.
type HTTPSettings struct {
	Path string   `json:"path"`
	Host []string `json:"host,omitempty"`
}

// Validate checks the union invariants: known network and security kinds,
// and no transport block attached for a different network.
func (s *StreamSettings) Validate() error {
	switch s.Network {
	case NetworkTCP, NetworkWebSocket, NetworkGRPC, NetworkHTTP:
	default:
		return common.NewErrorf("unknown stream network %q", s.Network)
	}

	switch s.Security {
	case SecurityNone, SecurityTLS:
	default:
		return common.NewErrorf("unknown stream security %q", s.Security)
	}

	if s.WSSettings != nil && s.Network != NetworkWebSocket {
		return common.NewErrorf("wsSettings set but network is %q", s.Network)
	}
	if s.GRPCSettings != nil && s.Network != NetworkGRPC {
		return common.NewErrorf("grpcSettings set but network is %q", s.Network)
	}
	if s.HTTPSettings != nil && s.Network != NetworkHTTP {
		return common.NewErrorf("httpSettings set but network is %q", s.Network)
	}
	if s.TLSSettings != nil && s.Security != SecurityTLS {
		return common.NewErrorf("tlsSettings set but security is %q", s.Security)
	}
	return nil
}

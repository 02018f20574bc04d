package sub

import (
	"encoding/base64"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sorooshm/sx-ui/database/model"
	"github.com/sorooshm/sx-ui/xray"
)

func TestShareLinkWebSocket(t *testing.T) {
	var s LinkService

	inbound := &model.Inbound{
		Remark:   "edge",
		Port:     2053,
		Protocol: model.VLESS,
		StreamSettings: xray.StreamSettings{
			Network:    xray.NetworkWebSocket,
			Security:   xray.SecurityTLS,
			WSSettings: &xray.WebSocketSettings{Path: "/ray", Host: "cdn.example.com"},
		},
	}
	client := &model.Client{
		UUID:   "d5eb4b21-08eb-4156-aa1a-fd367e6aea64",
		Remark: "alice phone",
	}

	link := s.ShareLink(inbound, client, "example.com")

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("link does not parse: %v", err)
	}
	if u.Scheme != "vless" {
		t.Errorf("scheme = %q", u.Scheme)
	}
	if u.User.Username() != client.UUID {
		t.Errorf("user = %q", u.User.Username())
	}
	if u.Hostname() != "example.com" || u.Port() != "2053" {
		t.Errorf("host = %q", u.Host)
	}

	q := u.Query()
	if q.Get("type") != "ws" || q.Get("security") != "tls" {
		t.Errorf("transport params: %v", q)
	}
	if q.Get("path") != "/ray" || q.Get("host") != "cdn.example.com" {
		t.Errorf("ws params: %v", q)
	}

	if u.Fragment != "alice phone" {
		t.Errorf("fragment = %q", u.Fragment)
	}
	// The remark must be percent-escaped in the raw URI.
	if !strings.HasSuffix(link, "#alice%20phone") {
		t.Errorf("raw fragment not escaped: %q", link)
	}
}

func TestShareLinkGRPC(t *testing.T) {
	var s LinkService

	inbound := &model.Inbound{
		Port:     443,
		Protocol: model.Trojan,
		StreamSettings: xray.StreamSettings{
			Network:      xray.NetworkGRPC,
			Security:     xray.SecurityTLS,
			GRPCSettings: &xray.GRPCSettings{ServiceName: "tunnel"},
		},
	}
	client := &model.Client{UUID: "secret-password", Remark: "bob"}

	link := s.ShareLink(inbound, client, "example.com")
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("link does not parse: %v", err)
	}
	if u.Scheme != "trojan" {
		t.Errorf("scheme = %q", u.Scheme)
	}
	q := u.Query()
	if q.Get("type") != "grpc" || q.Get("serviceName") != "tunnel" {
		t.Errorf("grpc params: %v", q)
	}
	if q.Has("path") {
		t.Error("path param present for grpc transport")
	}
}

func TestShareLinkTCPNone(t *testing.T) {
	var s LinkService

	inbound := &model.Inbound{
		Port:     10086,
		Protocol: model.VMESS,
		StreamSettings: xray.StreamSettings{
			Network:  xray.NetworkTCP,
			Security: xray.SecurityNone,
		},
	}
	client := &model.Client{UUID: "b831381d-6324-4d53-ad4f-8cda48b30811", Remark: "c"}

	link := s.ShareLink(inbound, client, "198.51.100.7")
	want := "vmess://b831381d-6324-4d53-ad4f-8cda48b30811@198.51.100.7:10086?security=none&type=tcp#c"
	if link != want {
		t.Fatalf("link = %q, want %q", link, want)
	}
}

func TestInfoEntry(t *testing.T) {
	var s LinkService
	now := time.Unix(1_700_000_000, 0)

	t.Run("quota and expiry", func(t *testing.T) {
		sub := &model.Subscription{
			Total:      10 << 30,
			ExpiryTime: now.Add(72 * time.Hour).Unix(),
		}
		entry := s.InfoEntry(sub, 4<<30, now)

		u, err := url.Parse(entry)
		if err != nil {
			t.Fatalf("entry does not parse: %v", err)
		}
		if u.User.Username() != nullIdentity {
			t.Errorf("info entry carries a real identity: %q", u.User.Username())
		}
		if !strings.Contains(u.Fragment, "6.00GB") {
			t.Errorf("remaining quota missing: %q", u.Fragment)
		}
		if !strings.Contains(u.Fragment, "3 Days") {
			t.Errorf("remaining days missing: %q", u.Fragment)
		}
	})

	t.Run("unlimited", func(t *testing.T) {
		entry := s.InfoEntry(&model.Subscription{}, 123, now)
		u, err := url.Parse(entry)
		if err != nil {
			t.Fatalf("entry does not parse: %v", err)
		}
		if u.Fragment != "♾" {
			t.Errorf("fragment = %q", u.Fragment)
		}
	})

	t.Run("overdrawn quota clamps to zero", func(t *testing.T) {
		sub := &model.Subscription{Total: 1 << 30}
		entry := s.InfoEntry(sub, 2<<30, now)
		u, err := url.Parse(entry)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(u.Fragment, "0.00B") {
			t.Errorf("fragment = %q", u.Fragment)
		}
	})
}

func TestBundle(t *testing.T) {
	var s LinkService

	links := []string{
		"vless://" + nullIdentity + "@127.0.0.1:0?security=none&type=tcp#info",
		"vless://abc@example.com:443?security=tls&type=tcp#alice",
	}
	body := s.Bundle(links)

	decoded, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		t.Fatalf("bundle is not valid base64: %v", err)
	}
	lines := strings.Split(string(decoded), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != links[0] || lines[1] != links[1] {
		t.Fatalf("decoded bundle differs:\n%s", decoded)
	}
}

func TestUserInfoHeader(t *testing.T) {
	var s LinkService

	sub := &model.Subscription{Total: 1000, ExpiryTime: 1_700_000_000}
	got := s.UserInfoHeader(sub, 120, 340)
	want := "upload=120; download=340; total=1000; expire=1700000000"
	if got != want {
		t.Fatalf("header = %q, want %q", got, want)
	}
}

func TestFormatTraffic(t *testing.T) {
	cases := []struct {
		bytes int64
		want  string
	}{
		{0, "0.00B"},
		{1023, "1023.00B"},
		{1024, "1.00KB"},
		{5 << 20, "5.00MB"},
		{3 << 30, "3.00GB"},
		{2 << 40, "2.00TB"},
	}
	for _, c := range cases {
		if got := formatTraffic(c.bytes); got != c.want {
			t.Errorf("formatTraffic(%d) = %q, want %q", c.bytes, got, c.want)
		}
	}
}

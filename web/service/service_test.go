package service

import (
	"path/filepath"
	"testing"

	"github.com/sorooshm/sx-ui/database"
	"github.com/sorooshm/sx-ui/database/model"
	"github.com/sorooshm/sx-ui/xray"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	if err := database.InitDB(filepath.Join(t.TempDir(), "sx-ui.db")); err != nil {
		t.Fatalf("init test db: %v", err)
	}
	t.Cleanup(func() {
		if err := database.CloseDB(); err != nil {
			t.Errorf("close test db: %v", err)
		}
	})
}

func tcpStream() xray.StreamSettings {
	return xray.StreamSettings{Network: xray.NetworkTCP, Security: xray.SecurityNone}
}

func mustAddInbound(t *testing.T, port int, remark string) *model.Inbound {
	t.Helper()
	inbound := &model.Inbound{
		Remark:         remark,
		Enable:         true,
		Port:           port,
		Protocol:       model.VLESS,
		StreamSettings: tcpStream(),
	}
	var s InboundService
	if err := s.AddInbound(inbound); err != nil {
		t.Fatalf("add inbound %q: %v", remark, err)
	}
	return inbound
}

func mustAddClient(t *testing.T, inboundId int, remark, subRemark string) *model.Client {
	t.Helper()
	var s ClientService
	client, err := s.AddClient(inboundId, remark, 0, subRemark)
	if err != nil {
		t.Fatalf("add client %q: %v", remark, err)
	}
	return client
}

func mustGetSubscription(t *testing.T, id int) *model.Subscription {
	t.Helper()
	var s SubscriptionService
	sub, err := s.GetSubscription(id)
	if err != nil {
		t.Fatalf("get subscription %d: %v", id, err)
	}
	return sub
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func int64Ptr(i int64) *int64 { return &i }
func boolPtr(b bool) *bool    { return &b }

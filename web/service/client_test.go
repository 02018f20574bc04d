package service

import (
	"errors"
	"testing"

	"github.com/sorooshm/sx-ui/database/model"
	"github.com/sorooshm/sx-ui/util/common"
)

func TestAddClientCreatesSubscriptionByRemark(t *testing.T) {
	setupTestDB(t)
	inbound := mustAddInbound(t, 443, "edge")

	client := mustAddClient(t, inbound.Id, "alice", "")
	if client.UUID == "" {
		t.Fatal("expected generated identity")
	}
	if client.SubscriptionId == 0 {
		t.Fatal("expected subscription to be created")
	}

	// Empty subscription remark falls back to the client remark.
	sub := mustGetSubscription(t, client.SubscriptionId)
	if sub.Remark != "alice" {
		t.Errorf("subscription remark = %q, want %q", sub.Remark, "alice")
	}
	if sub.SubToken == "" {
		t.Error("expected generated subscription token")
	}
	if !sub.Enable {
		t.Error("auto-created subscription should start enabled")
	}
}

func TestAddClientReusesSubscriptionByRemark(t *testing.T) {
	setupTestDB(t)
	inbound := mustAddInbound(t, 443, "edge")

	first := mustAddClient(t, inbound.Id, "alice", "family")
	second := mustAddClient(t, inbound.Id, "bob", "family")

	if first.SubscriptionId != second.SubscriptionId {
		t.Fatalf("same remark resolved to different subscriptions: %d vs %d",
			first.SubscriptionId, second.SubscriptionId)
	}

	var subService SubscriptionService
	subs, err := subService.GetSubscriptions()
	if err != nil {
		t.Fatalf("get subscriptions: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected single subscription row, got %d", len(subs))
	}
}

func TestAddClientWithExplicitSubscription(t *testing.T) {
	setupTestDB(t)
	inbound := mustAddInbound(t, 443, "edge")

	var subService SubscriptionService
	sub := &model.Subscription{Remark: "premium", Enable: true}
	if err := subService.AddSubscription(sub); err != nil {
		t.Fatalf("add subscription: %v", err)
	}

	var clientService ClientService
	client, err := clientService.AddClient(inbound.Id, "alice", sub.Id, "")
	if err != nil {
		t.Fatalf("add client: %v", err)
	}
	if client.SubscriptionId != sub.Id {
		t.Fatalf("client bound to subscription %d, want %d", client.SubscriptionId, sub.Id)
	}
}

func TestAddClientUnknownReferences(t *testing.T) {
	setupTestDB(t)
	var clientService ClientService

	if _, err := clientService.AddClient(42, "alice", 0, ""); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("unknown inbound: want ErrNotFound, got %v", err)
	}

	inbound := mustAddInbound(t, 443, "edge")
	if _, err := clientService.AddClient(inbound.Id, "alice", 99, ""); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("unknown subscription: want ErrNotFound, got %v", err)
	}
}

func TestUpdateClient(t *testing.T) {
	setupTestDB(t)
	inbound := mustAddInbound(t, 443, "edge")
	client := mustAddClient(t, inbound.Id, "alice", "")
	other := mustAddClient(t, inbound.Id, "bob", "")

	var s ClientService
	updated, err := s.UpdateClient(client.Id, &model.ClientPatch{Remark: strPtr("alice-laptop")})
	if err != nil {
		t.Fatalf("update client: %v", err)
	}
	if updated.Remark != "alice-laptop" {
		t.Errorf("remark = %q", updated.Remark)
	}
	if updated.UUID != client.UUID {
		t.Error("identity changed by unrelated patch")
	}

	if _, err := s.UpdateClient(client.Id, &model.ClientPatch{UUID: &other.UUID}); !errors.Is(err, common.ErrConflict) {
		t.Fatalf("duplicate identity: want ErrConflict, got %v", err)
	}

	if _, err := s.UpdateClient(client.Id, &model.ClientPatch{SubscriptionId: intPtr(99)}); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("unknown subscription: want ErrNotFound, got %v", err)
	}
}

func TestDelClient(t *testing.T) {
	setupTestDB(t)
	inbound := mustAddInbound(t, 443, "edge")
	client := mustAddClient(t, inbound.Id, "alice", "")

	var s ClientService
	if err := s.DelClient(client.Id); err != nil {
		t.Fatalf("del client: %v", err)
	}
	if _, err := s.GetClient(client.Id); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("client survived delete: %v", err)
	}
	if err := s.DelClient(client.Id); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("double delete: want ErrNotFound, got %v", err)
	}
}

func TestGetClientsForSubscription(t *testing.T) {
	setupTestDB(t)
	inbound := mustAddInbound(t, 443, "edge")
	other := mustAddInbound(t, 8443, "backup")

	a := mustAddClient(t, inbound.Id, "alice", "family")
	b := mustAddClient(t, other.Id, "alice-tv", "family")
	mustAddClient(t, inbound.Id, "stranger", "solo")

	var s ClientService
	clients, err := s.GetClientsForSubscription(a.SubscriptionId)
	if err != nil {
		t.Fatalf("get clients for subscription: %v", err)
	}
	if len(clients) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(clients))
	}
	if clients[0].Id != a.Id || clients[1].Id != b.Id {
		t.Fatalf("unexpected order: %d, %d", clients[0].Id, clients[1].Id)
	}
}

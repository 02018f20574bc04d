package service

import (
	"errors"
	"testing"
	"time"

	"github.com/sorooshm/sx-ui/database"
	"github.com/sorooshm/sx-ui/database/model"
	"github.com/sorooshm/sx-ui/util/common"

	"gorm.io/gorm"
)

func TestAddSubscriptionGeneratesToken(t *testing.T) {
	setupTestDB(t)
	var s SubscriptionService

	sub := &model.Subscription{Remark: "premium", Enable: true}
	if err := s.AddSubscription(sub); err != nil {
		t.Fatalf("add subscription: %v", err)
	}
	if sub.SubToken == "" {
		t.Fatal("expected generated token")
	}

	got, err := s.GetSubscriptionByToken(sub.SubToken)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got.Id != sub.Id {
		t.Fatalf("token resolved to subscription %d, want %d", got.Id, sub.Id)
	}

	if _, err := s.GetSubscriptionByToken("no-such-token"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("unknown token: want ErrNotFound, got %v", err)
	}
}

func TestAddSubscriptionDuplicateRemark(t *testing.T) {
	setupTestDB(t)
	var s SubscriptionService

	if err := s.AddSubscription(&model.Subscription{Remark: "premium", Enable: true}); err != nil {
		t.Fatalf("add subscription: %v", err)
	}
	err := s.AddSubscription(&model.Subscription{Remark: "premium", Enable: true})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestDelSubscriptionBlockedWhileReferenced(t *testing.T) {
	setupTestDB(t)
	inbound := mustAddInbound(t, 443, "edge")
	client := mustAddClient(t, inbound.Id, "alice", "")

	var subService SubscriptionService
	err := subService.DelSubscription(client.SubscriptionId)
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want ErrConflict while clients exist, got %v", err)
	}

	var clientService ClientService
	if err := clientService.DelClient(client.Id); err != nil {
		t.Fatalf("del client: %v", err)
	}
	if err := subService.DelSubscription(client.SubscriptionId); err != nil {
		t.Fatalf("del subscription after last client: %v", err)
	}
	if _, err := subService.GetSubscription(client.SubscriptionId); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("subscription survived delete: %v", err)
	}
}

func TestGetUsageSumsClients(t *testing.T) {
	setupTestDB(t)
	inbound := mustAddInbound(t, 443, "edge")
	a := mustAddClient(t, inbound.Id, "alice", "family")
	b := mustAddClient(t, inbound.Id, "bob", "family")

	db := database.GetDB()
	if err := db.Model(a).Updates(map[string]any{"up": 100, "down": 50}).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Model(b).Updates(map[string]any{"up": 5, "down": 5}).Error; err != nil {
		t.Fatal(err)
	}

	var s SubscriptionService
	usage, err := s.GetUsage(a.SubscriptionId)
	if err != nil {
		t.Fatalf("get usage: %v", err)
	}
	if usage != 160 {
		t.Fatalf("usage = %d, want 160", usage)
	}
}

func TestGetUsageEmptySubscription(t *testing.T) {
	setupTestDB(t)
	var s SubscriptionService

	sub := &model.Subscription{Remark: "empty", Enable: true}
	if err := s.AddSubscription(sub); err != nil {
		t.Fatal(err)
	}
	usage, err := s.GetUsage(sub.Id)
	if err != nil {
		t.Fatalf("get usage: %v", err)
	}
	if usage != 0 {
		t.Fatalf("usage = %d, want 0", usage)
	}
}

func TestGetOrCreateByRemarkReusesRaceWinner(t *testing.T) {
	setupTestDB(t)
	db := database.GetDB()

	// Simulate losing the creation race: a competing writer commits a row
	// with the same remark between our lookup and our insert. The callback
	// fires right before the insert statement executes.
	raced := false
	err := db.Callback().Create().Before("gorm:create").Register("competing_writer", func(tx *gorm.DB) {
		if raced {
			return
		}
		if _, ok := tx.Statement.Dest.(*model.Subscription); !ok {
			return
		}
		raced = true
		// Commit on a separate connection so the competing row survives the
		// losing insert's rollback, as a real concurrent writer's would.
		db.Exec(
			"insert into subscriptions (remark, total, expiry_time, sub_token, enable) values (?, 0, 0, ?, ?)",
			"family", "winner-token", true)
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Callback().Create().Remove("competing_writer"); err != nil {
			t.Errorf("remove callback: %v", err)
		}
	})

	var s SubscriptionService
	sub, err := s.getOrCreateByRemark(db, "family")
	if err != nil {
		t.Fatalf("getOrCreateByRemark: %v", err)
	}
	if !raced {
		t.Fatal("competing insert never ran")
	}

	// The loser must come back with the winner's row, not a duplicate.
	if sub.SubToken != "winner-token" {
		t.Fatalf("got token %q, want the winner's row", sub.SubToken)
	}
	var count int64
	if err := db.Model(&model.Subscription{}).Where("remark = ?", "family").Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("remark %q has %d rows, want exactly 1", "family", count)
	}
}

func TestDisableExhausted(t *testing.T) {
	setupTestDB(t)
	inbound := mustAddInbound(t, 443, "edge")
	now := time.Now()

	// quota breached
	overQuota := mustAddClient(t, inbound.Id, "over-quota", "")
	// expired
	expired := mustAddClient(t, inbound.Id, "expired", "")
	// unlimited, heavy usage
	unlimited := mustAddClient(t, inbound.Id, "unlimited", "")
	// within quota and not yet expired
	healthy := mustAddClient(t, inbound.Id, "healthy", "")

	db := database.GetDB()
	seed := []struct {
		client *model.Client
		up     int64
		total  int64
		expiry int64
	}{
		{overQuota, 2000, 1000, 0},
		{expired, 10, 0, now.Add(-time.Hour).Unix()},
		{unlimited, 1 << 40, 0, 0},
		{healthy, 10, 1000, now.Add(time.Hour).Unix()},
	}
	var ids []int
	for _, row := range seed {
		if err := db.Model(row.client).Update("up", row.up).Error; err != nil {
			t.Fatal(err)
		}
		err := db.Model(&model.Subscription{}).
			Where("id = ?", row.client.SubscriptionId).
			Updates(map[string]any{"total": row.total, "expiry_time": row.expiry}).Error
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, row.client.SubscriptionId)
	}

	var s SubscriptionService
	var disabled []int
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		disabled, err = s.disableExhausted(tx, ids, now)
		return err
	})
	if err != nil {
		t.Fatalf("disableExhausted: %v", err)
	}

	want := map[int]bool{overQuota.SubscriptionId: true, expired.SubscriptionId: true}
	if len(disabled) != len(want) {
		t.Fatalf("disabled %v, want ids of over-quota and expired", disabled)
	}
	for _, id := range disabled {
		if !want[id] {
			t.Errorf("unexpected disabled subscription %d", id)
		}
	}

	for _, row := range seed {
		sub := mustGetSubscription(t, row.client.SubscriptionId)
		if sub.Enable == want[sub.Id] {
			t.Errorf("subscription %q enable = %v", sub.Remark, sub.Enable)
		}
	}
}

func TestDisableExhaustedSkipsAlreadyDisabled(t *testing.T) {
	setupTestDB(t)
	inbound := mustAddInbound(t, 443, "edge")
	client := mustAddClient(t, inbound.Id, "alice", "")

	db := database.GetDB()
	if err := db.Model(client).Update("up", 2000).Error; err != nil {
		t.Fatal(err)
	}
	err := db.Model(&model.Subscription{}).
		Where("id = ?", client.SubscriptionId).
		Updates(map[string]any{"total": 1000, "enable": false}).Error
	if err != nil {
		t.Fatal(err)
	}

	var s SubscriptionService
	var disabled []int
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		disabled, err = s.disableExhausted(tx, []int{client.SubscriptionId}, time.Now())
		return err
	})
	if err != nil {
		t.Fatalf("disableExhausted: %v", err)
	}
	if len(disabled) != 0 {
		t.Fatalf("already-disabled subscription reported again: %v", disabled)
	}
}

package xray

import (
	"testing"

	statsService "github.com/xtls/xray-core/app/stats/command"
)

func TestAggregateStats(t *testing.T) {
	stats := []*statsService.Stat{
		{Name: "user>>>bbb-uuid>>>traffic>>>uplink", Value: 10},
		{Name: "user>>>aaa-uuid>>>traffic>>>downlink", Value: 50},
		{Name: "user>>>aaa-uuid>>>traffic>>>uplink", Value: 100},
		{Name: "user>>>bbb-uuid>>>traffic>>>downlink", Value: 0},
	}

	traffics := aggregateStats(stats)
	if len(traffics) != 2 {
		t.Fatalf("expected 2 identities, got %d", len(traffics))
	}

	// Sorted by identity.
	if traffics[0].Identity != "aaa-uuid" || traffics[1].Identity != "bbb-uuid" {
		t.Fatalf("unexpected order: %q, %q", traffics[0].Identity, traffics[1].Identity)
	}
	if traffics[0].Up != 100 || traffics[0].Down != 50 {
		t.Errorf("aaa-uuid = %d/%d, want 100/50", traffics[0].Up, traffics[0].Down)
	}
	if traffics[1].Up != 10 || traffics[1].Down != 0 {
		t.Errorf("bbb-uuid = %d/%d, want 10/0", traffics[1].Up, traffics[1].Down)
	}
}

func TestAggregateStatsSkipsForeignNames(t *testing.T) {
	stats := []*statsService.Stat{
		{Name: "inbound>>>inbound-443>>>traffic>>>uplink", Value: 999},
		{Name: "user>>>broken-name", Value: 5},
		{Name: "user>>>uuid>>>traffic>>>sideways", Value: 7},
		{Name: "user>>>uuid>>>traffic>>>uplink", Value: 1},
	}

	traffics := aggregateStats(stats)
	if len(traffics) != 1 {
		t.Fatalf("expected 1 identity, got %d", len(traffics))
	}
	if traffics[0].Identity != "uuid" || traffics[0].Up != 1 || traffics[0].Down != 0 {
		t.Fatalf("unexpected traffic: %+v", traffics[0])
	}
}

func TestAggregateStatsEmpty(t *testing.T) {
	if got := aggregateStats(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

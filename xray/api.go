package xray

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sorooshm/sx-ui/util/common"

	statsService "github.com/xtls/xray-core/app/stats/command"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	trafficPattern  = "user>>>"
	queryTimeout    = 3 * time.Second
	directionUplink = "uplink"
	directionDown   = "downlink"
)

// API is a client for the stats gRPC service exposed on the administrative
// inbound of the local Xray process.
type API struct {
	conn        *grpc.ClientConn
	statsClient statsService.StatsServiceClient
}

// NewAPI connects to the stats service on the given loopback port. The
// connection is lazy; failures surface on the first query.
func NewAPI(apiPort int) (*API, error) {
	conn, err := grpc.NewClient(
		fmt.Sprintf("127.0.0.1:%d", apiPort),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, err
	}
	return &API{
		conn:        conn,
		statsClient: statsService.NewStatsServiceClient(conn),
	}, nil
}

// Close releases the underlying gRPC connection.
func (a *API) Close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}

// GetTraffic queries all per-user counters. With reset, Xray zeroes its
// internal counters after returning them, so every call yields the delta
// since the previous one. Records are grouped per identity with uplink and
// downlink summed independently, and returned sorted by identity.
func (a *API) GetTraffic(reset bool) ([]*Traffic, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	resp, err := a.statsClient.QueryStats(ctx, &statsService.QueryStatsRequest{
		Pattern: trafficPattern,
		Reset_:  reset,
	})
	if err != nil {
		return nil, fmt.Errorf("query stats: %v: %w", err, common.ErrStatsUnavailable)
	}

	return aggregateStats(resp.GetStat()), nil
}

// aggregateStats groups the raw per-direction counters per identity. Names
// that do not follow the user>>>identity>>>traffic>>>direction form are
// skipped.
func aggregateStats(stats []*statsService.Stat) []*Traffic {
	byIdentity := make(map[string]*Traffic)
	for _, stat := range stats {
		parts := strings.Split(stat.Name, ">>>")
		if len(parts) != 4 || parts[0] != "user" {
			continue
		}
		identity, direction := parts[1], parts[3]

		t, ok := byIdentity[identity]
		if !ok {
			t = &Traffic{Identity: identity}
			byIdentity[identity] = t
		}
		switch direction {
		case directionUplink:
			t.Up += stat.Value
		case directionDown:
			t.Down += stat.Value
		}
	}

	traffics := make([]*Traffic, 0, len(byIdentity))
	for _, t := range byIdentity {
		traffics = append(traffics, t)
	}
	sort.Slice(traffics, func(i, j int) bool {
		return traffics[i].Identity < traffics[j].Identity
	})
	return traffics
}

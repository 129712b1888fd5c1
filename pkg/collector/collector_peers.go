package collector

import (
	"context"
	"fmt"

	"github.com/cirocosta/ether-exporter/pkg/snapshot"
)

// collectPeers reports the number of connected peers. Zero peers is a
// reading like any other, distinct from a failed query.
//
func (c *Collector) collectPeers(ctx context.Context, s *snapshot.Snapshot) error {
	n, err := c.node.PeerCount(ctx)
	if err != nil {
		return fmt.Errorf("peer count: %w", err)
	}

	return s.Add(Peers, float64(n))
}

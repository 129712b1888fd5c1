package collector

import (
	"context"
	"fmt"

	"github.com/cirocosta/ether-exporter/pkg/snapshot"
)

// collectMining fills both the mining flag and the hash rate. The hash rate
// is only asked for when the node is mining; otherwise it reads zero.
//
func (c *Collector) collectMining(ctx context.Context, s *snapshot.Snapshot) error {
	mining, err := c.node.IsMining(ctx)
	if err != nil {
		return fmt.Errorf("is mining: %w", err)
	}

	if !mining {
		if err := s.Add(Mining, 0); err != nil {
			return err
		}

		return s.Add(HashRate, 0)
	}

	if err := s.Add(Mining, 1); err != nil {
		return err
	}

	rate, err := c.node.HashRate(ctx)
	if err != nil {
		return fmt.Errorf("hash rate: %w", err)
	}

	return s.Add(HashRate, float64(rate))
}

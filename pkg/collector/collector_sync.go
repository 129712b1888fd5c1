package collector

import (
	"context"
	"fmt"

	"github.com/cirocosta/ether-exporter/pkg/ether"
	"github.com/cirocosta/ether-exporter/pkg/snapshot"
)

// collectSync fills the syncing flag and the lag behind the highest known
// block. Neither is reported if the node's progress doesn't make sense.
//
func (c *Collector) collectSync(ctx context.Context, s *snapshot.Snapshot) error {
	progress, err := c.node.SyncStatus(ctx)
	if err != nil {
		return fmt.Errorf("sync status: %w", err)
	}

	if progress == nil {
		if err := s.Add(Syncing, 0); err != nil {
			return err
		}

		return s.Add(Lag, 0)
	}

	if progress.HighestBlock < progress.CurrentBlock {
		return fmt.Errorf("sync status: %w: highest block %d behind current block %d",
			ether.ErrProtocol, progress.HighestBlock, progress.CurrentBlock)
	}

	if err := s.Add(Syncing, 1); err != nil {
		return err
	}

	return s.Add(Lag, float64(progress.HighestBlock-progress.CurrentBlock))
}

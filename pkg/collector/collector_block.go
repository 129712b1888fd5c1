package collector

import (
	"context"
	"fmt"
	"math/big"

	"github.com/cirocosta/ether-exporter/pkg/ether"
	"github.com/cirocosta/ether-exporter/pkg/snapshot"
)

func (c *Collector) collectBlockNumber(ctx context.Context, s *snapshot.Snapshot) error {
	n, err := c.node.CurrentBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("current block number: %w", err)
	}

	return s.Add(BlockNumber, float64(n))
}

func (c *Collector) collectGasPrice(ctx context.Context, s *snapshot.Snapshot) error {
	price, err := c.node.GasPriceWei(ctx)
	if err != nil {
		return fmt.Errorf("gas price: %w", err)
	}

	if price == nil {
		return fmt.Errorf("gas price: %w: empty reply", ether.ErrProtocol)
	}

	v, _ := new(big.Float).SetInt(price).Float64()

	return s.Add(GasPrice, v)
}

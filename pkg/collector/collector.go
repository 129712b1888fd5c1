package collector

import (
	"context"
	"errors"
	"math/big"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cirocosta/ether-exporter/pkg/ether"
	"github.com/cirocosta/ether-exporter/pkg/snapshot"
)

// Node is the set of queries a cycle issues against an ethereum node.
//
// Errors are expected to wrap either ether.ErrConnectivity or
// ether.ErrProtocol, although any error is handled the same way: logged, and
// the readings that depended on it left out of the snapshot.
//
type Node interface {
	CurrentBlockNumber(ctx context.Context) (uint64, error)
	GasPriceWei(ctx context.Context) (*big.Int, error)
	IsMining(ctx context.Context) (bool, error)
	HashRate(ctx context.Context) (uint64, error)
	SyncStatus(ctx context.Context) (*ether.SyncProgress, error)
	PeerCount(ctx context.Context) (uint64, error)
	ListAccounts(ctx context.Context) ([]string, error)
	BalanceWei(ctx context.Context, account string) (*big.Int, error)
}

var _ Node = (*ether.Client)(nil)

// Collector runs collection cycles against a node.
//
type Collector struct {
	// node is the ethereum node that we query.
	//
	node Node

	// accounts toggles the collection of account balances entirely.
	//
	accounts bool

	// additionalAccounts are always part of the set of accounts whose
	// balances we collect, regardless of what the node's wallet lists.
	//
	additionalAccounts []string

	// balanceConcurrency bounds how many balance queries may be in flight
	// at once.
	//
	balanceConcurrency int

	log logr.Logger
}

// ensure that we implement prometheus' collector interface.
//
var _ prometheus.Collector = &Collector{}

// Option is a type used by functional arguments to mutate the collector to
// override default behavior.
//
type Option func(c *Collector)

// WithAccounts enables or disables the collection of account balances.
// Enabled by default.
//
func WithAccounts(v bool) Option {
	return func(c *Collector) {
		c.accounts = v
	}
}

// WithAdditionalAccounts adds addresses whose balance is collected even if
// the node's wallet doesn't know about them.
//
func WithAdditionalAccounts(v []string) Option {
	return func(c *Collector) {
		c.additionalAccounts = append([]string(nil), v...)
	}
}

// WithBalanceConcurrency overrides the default of querying one balance at a
// time.
//
func WithBalanceConcurrency(v int) Option {
	return func(c *Collector) {
		c.balanceConcurrency = v
	}
}

// WithLogger overrides the default no-op logger.
//
func WithLogger(v logr.Logger) Option {
	return func(c *Collector) {
		c.log = v
	}
}

// New instantiates a collector for `node`.
//
func New(node Node, opts ...Option) *Collector {
	c := &Collector{
		node:               node,
		accounts:           true,
		balanceConcurrency: 1,
		log:                logr.Discard(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.balanceConcurrency < 1 {
		c.balanceConcurrency = 1
	}

	return c
}

// CollectFunc defines a standardized signature for the steps of a cycle that
// add readings to a snapshot.
//
type CollectFunc func(ctx context.Context, s *snapshot.Snapshot) error

// Snapshot runs one collection cycle.
//
// It never fails: a query that errors out is logged and the readings that
// depend on it are left out, while every other query still runs.
//
func (c *Collector) Snapshot(ctx context.Context) *snapshot.Snapshot {
	s := snapshot.New(Catalog(c.accounts)...)

	if c.accounts {
		c.collectBalances(ctx, s)
	}

	for _, step := range []struct {
		metric string
		fn     CollectFunc
	}{
		{BlockNumber, c.collectBlockNumber},
		{GasPrice, c.collectGasPrice},
		{Mining, c.collectMining},
		{Syncing, c.collectSync},
		{Peers, c.collectPeers},
	} {
		c.attempt(step.metric, func() error {
			return step.fn(ctx, s)
		})
	}

	return s
}

// attempt runs `fn`, logging its failure (if any) along with the metric it
// was meant to feed. It reports whether `fn` succeeded.
//
func (c *Collector) attempt(
	metric string, fn func() error, keysAndValues ...interface{},
) bool {
	err := fn()
	if err == nil {
		return true
	}

	kv := append([]interface{}{
		"metric", metric,
		"kind", errorKind(err),
	}, keysAndValues...)

	c.log.Error(err, "collect failed", kv...)

	return false
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ether.ErrConnectivity):
		return "connectivity"
	case errors.Is(err, ether.ErrProtocol):
		return "protocol"
	default:
		return "unknown"
	}
}

// Describe implements the Describe function of the Collector interface.
//
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	// Because we can present the description of the metrics at collection
	// time, we don't need to write anything to the channel.
}

// Collect implements the Collect function of the Collector interface.
//
// Every call runs a full cycle against the node.
//
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	emit(c.Snapshot(context.Background()), ch)
}

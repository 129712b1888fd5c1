package ether

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// DefaultTimeout bounds how long a single query may take when no other
// timeout has been configured.
//
const DefaultTimeout = 10 * time.Second

// SyncProgress is the subset of `eth_syncing` that we care about.
//
type SyncProgress struct {
	CurrentBlock uint64
	HighestBlock uint64
}

// Client is a typed view over an ethereum node's JSON-RPC interface.
//
// Every method returns either a value or an error wrapping ErrConnectivity or
// ErrProtocol.
//
type Client struct {
	// rpc is the raw JSON-RPC client, used for the methods that ethclient
	// doesn't expose (mining, hash rate, wallet accounts).
	//
	rpc *rpc.Client

	// eth wraps `rpc` with typed calls for the standard `eth_` namespace.
	//
	eth *ethclient.Client

	// timeout bounds every single call made against the node.
	//
	timeout time.Duration
}

// Option is a functional argument that overrides Client defaults.
//
type Option func(c *Client)

// WithTimeout overrides DefaultTimeout.
//
func WithTimeout(v time.Duration) Option {
	return func(c *Client) {
		c.timeout = v
	}
}

// Dial prepares a client for the node at `uri`.
//
// No connection is established here: HTTP transports connect lazily on the
// first call.
//
func Dial(uri string, opts ...Option) (*Client, error) {
	c := &Client{
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		Timeout: c.timeout,
	}

	rpcClient, err := rpc.DialHTTPWithClient(uri, httpClient)
	if err != nil {
		return nil, fmt.Errorf("dial http '%s': %w", uri, err)
	}

	c.rpc = rpcClient
	c.eth = ethclient.NewClient(rpcClient)

	return c, nil
}

// Close releases the underlying rpc client.
//
func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// CurrentBlockNumber retrieves the number of the most recent block.
//
func (c *Client) CurrentBlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, classify("eth_blockNumber", err)
	}

	return n, nil
}

// GasPriceWei retrieves the node's suggested gas price.
//
func (c *Client) GasPriceWei(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	price, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, classify("eth_gasPrice", err)
	}

	return price, nil
}

// IsMining tells whether the node is actively mining.
//
func (c *Client) IsMining(ctx context.Context) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var mining bool

	err := c.rpc.CallContext(ctx, &mining, "eth_mining")
	if err != nil {
		return false, classify("eth_mining", err)
	}

	return mining, nil
}

// HashRate retrieves the number of hashes per second the node is mining
// with.
//
func (c *Client) HashRate(ctx context.Context) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var rate hexutil.Uint64

	err := c.rpc.CallContext(ctx, &rate, "eth_hashrate")
	if err != nil {
		return 0, classify("eth_hashrate", err)
	}

	return uint64(rate), nil
}

// SyncStatus retrieves the sync progress of the node. A nil progress with a
// nil error means that the node is fully synced.
//
func (c *Client) SyncStatus(ctx context.Context) (*SyncProgress, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	progress, err := c.eth.SyncProgress(ctx)
	if err != nil {
		return nil, classify("eth_syncing", err)
	}

	if progress == nil {
		return nil, nil
	}

	return &SyncProgress{
		CurrentBlock: progress.CurrentBlock,
		HighestBlock: progress.HighestBlock,
	}, nil
}

// PeerCount retrieves the number of peers connected to the node.
//
func (c *Client) PeerCount(ctx context.Context) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	n, err := c.eth.PeerCount(ctx)
	if err != nil {
		return 0, classify("net_peerCount", err)
	}

	return n, nil
}

// ListAccounts retrieves the addresses owned by the node's wallet, in
// checksummed hex form.
//
func (c *Client) ListAccounts(ctx context.Context) ([]string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var addrs []common.Address

	err := c.rpc.CallContext(ctx, &addrs, "eth_accounts")
	if err != nil {
		return nil, classify("eth_accounts", err)
	}

	accounts := make([]string, len(addrs))
	for idx, addr := range addrs {
		accounts[idx] = addr.Hex()
	}

	return accounts, nil
}

// BalanceWei retrieves the balance of `account` at the latest block.
//
func (c *Client) BalanceWei(ctx context.Context, account string) (*big.Int, error) {
	if !common.IsHexAddress(account) {
		return nil, fmt.Errorf("eth_getBalance: %w: invalid address '%s'",
			ErrProtocol, account)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	balance, err := c.eth.BalanceAt(ctx, common.HexToAddress(account), nil)
	if err != nil {
		return nil, classify("eth_getBalance", err)
	}

	return balance, nil
}

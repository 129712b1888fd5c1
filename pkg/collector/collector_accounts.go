package collector

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/cirocosta/ether-exporter/pkg/ether"
	"github.com/cirocosta/ether-exporter/pkg/snapshot"
)

// collectBalances adds one reading per account of the account set.
//
// Failing to list the node's accounts skips balances altogether for this
// cycle; failing to fetch the balance of one account only skips that
// account.
//
func (c *Collector) collectBalances(ctx context.Context, s *snapshot.Snapshot) {
	var accounts []string

	ok := c.attempt(AccountBalance, func() error {
		var err error

		accounts, err = c.accountSet(ctx)
		return err
	})
	if !ok {
		return
	}

	c.log.V(1).Info("collecting balances", "accounts", accounts)

	balances := make([]*big.Int, len(accounts))

	g := new(errgroup.Group)
	g.SetLimit(c.balanceConcurrency)

	for idx, account := range accounts {
		g.Go(func() error {
			c.attempt(AccountBalance, func() error {
				wei, err := c.node.BalanceWei(ctx, account)
				if err != nil {
					return fmt.Errorf("balance: %w", err)
				}

				if wei == nil {
					return fmt.Errorf("balance: %w: empty reply",
						ether.ErrProtocol)
				}

				balances[idx] = wei
				return nil
			}, "account", account)

			// per-account failures are already logged and must not
			// cancel the others.
			return nil
		})
	}

	_ = g.Wait()

	for idx, account := range accounts {
		if balances[idx] == nil {
			continue
		}

		account, wei := account, balances[idx]

		c.attempt(AccountBalance, func() error {
			return s.Add(AccountBalance, ether.WeiToEther(wei),
				balanceCurrency, account, balanceType)
		}, "account", account)
	}
}

// accountSet computes the union of the accounts known by the node's wallet
// and the additional ones that we were configured with.
//
func (c *Collector) accountSet(ctx context.Context) ([]string, error) {
	listed, err := c.node.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	seen := map[string]struct{}{}
	accounts := make([]string, 0, len(listed)+len(c.additionalAccounts))

	for _, list := range [][]string{listed, c.additionalAccounts} {
		for _, account := range list {
			account = normalizeAccount(account)
			if account == "" {
				continue
			}

			if _, found := seen[account]; found {
				continue
			}

			seen[account] = struct{}{}
			accounts = append(accounts, account)
		}
	}

	sort.Strings(accounts)

	return accounts, nil
}

// normalizeAccount turns valid hex addresses into their checksummed form so
// that differently cased spellings of the same address are deduplicated.
// Anything else is kept as is.
//
func normalizeAccount(account string) string {
	account = strings.TrimSpace(account)

	if common.IsHexAddress(account) {
		return common.HexToAddress(account).Hex()
	}

	return account
}

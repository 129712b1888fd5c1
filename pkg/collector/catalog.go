package collector

import "github.com/cirocosta/ether-exporter/pkg/snapshot"

const (
	BlockNumber    = "ether_block_number"
	GasPrice       = "ether_gas_price_wei"
	Mining         = "ether_mining"
	HashRate       = "ether_hash_rate"
	Syncing        = "ether_syncing"
	Lag            = "ether_lag"
	Peers          = "ether_peers"
	AccountBalance = "account_balance"
)

const (
	balanceCurrency = "ETH"
	balanceType     = "ether"
)

var nodeDefinitions = []snapshot.Definition{
	{Name: BlockNumber, Help: "The number of the most recent block"},
	{Name: GasPrice, Help: "The current gas price in Wei"},
	{Name: Mining, Help: "Boolean mining status"},
	{Name: HashRate, Help: "The current number of hashes per second the node is mining with"},
	{Name: Syncing, Help: "Boolean syncing status"},
	{Name: Lag, Help: "The difference between highestBlock and currentBlock"},
	{Name: Peers, Help: "The number of ethereum peers"},
}

var accountBalanceDefinition = snapshot.Definition{
	Name:   AccountBalance,
	Help:   "Account Balance",
	Labels: []string{"currency", "account", "type"},
}

// Catalog lists the definitions of every metric a cycle produces. The
// account balance metric is only part of it when `withAccounts` is set.
//
func Catalog(withAccounts bool) []snapshot.Definition {
	defs := make([]snapshot.Definition, 0, len(nodeDefinitions)+1)
	defs = append(defs, nodeDefinitions...)

	if withAccounts {
		defs = append(defs, accountBalanceDefinition)
	}

	return defs
}

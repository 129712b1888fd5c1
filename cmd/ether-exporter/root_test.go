package main

import (
	"bytes"
	"context"
	"math/big"
	"sort"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cirocosta/ether-exporter/pkg/collector"
	"github.com/cirocosta/ether-exporter/pkg/config"
	"github.com/cirocosta/ether-exporter/pkg/ether"
)

// syncedNode is a healthy node that isn't mining nor syncing.
//
type syncedNode struct{}

func (syncedNode) CurrentBlockNumber(context.Context) (uint64, error) {
	return 12345, nil
}

func (syncedNode) GasPriceWei(context.Context) (*big.Int, error) {
	return big.NewInt(20000000000), nil
}

func (syncedNode) IsMining(context.Context) (bool, error) { return false, nil }

func (syncedNode) HashRate(context.Context) (uint64, error) { return 0, nil }

func (syncedNode) SyncStatus(context.Context) (*ether.SyncProgress, error) {
	return nil, nil
}

func (syncedNode) PeerCount(context.Context) (uint64, error) { return 5, nil }

func (syncedNode) ListAccounts(context.Context) ([]string, error) {
	return []string{"0x0000000000000000000000000000000000000001"}, nil
}

func (syncedNode) BalanceWei(context.Context, string) (*big.Int, error) {
	return big.NewInt(1), nil
}

var _ collector.Node = syncedNode{}

func gatheredNames(t *testing.T, export config.Export) []string {
	t.Helper()

	registry, err := newRegistry(&config.Config{
		Export:             export,
		EnableAccounts:     true,
		BalanceConcurrency: 1,
	}, syncedNode{}, logr.Discard())
	require.NoError(t, err)

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}

	sort.Strings(names)
	return names
}

func catalogNames() []string {
	names := []string{}
	for _, def := range collector.Catalog(true) {
		names = append(names, def.Name)
	}

	sort.Strings(names)
	return names
}

func TestNewRegistry_text(t *testing.T) {
	assert.Equal(t, catalogNames(), gatheredNames(t, config.ExportText))
}

func TestNewRegistry_http(t *testing.T) {
	names := gatheredNames(t, config.ExportHTTP)

	assert.Subset(t, names, catalogNames())
	assert.Contains(t, names, "go_goroutines")

	var process int
	for _, name := range names {
		if strings.HasPrefix(name, "process_") {
			process++
		}
	}
	assert.NotZero(t, process, "process metrics must be served")
}

func TestCommand_flags(t *testing.T) {
	cmd := (&command{}).Cmd()

	for _, name := range []string{
		"config",
		"prom-folder",
		"interval",
		"ether-uri",
		"additional-accounts",
		"enable-accounts",
		"export",
		"listen-port",
		"listen-address",
		"telemetry-path",
		"rpc-timeout",
		"balance-concurrency",
		"log-level",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag --%s", name)
	}
}

func TestCommand_invalidConfig(t *testing.T) {
	cmd := (&command{}).Cmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--config", "",
		"--export", "carrier-pigeon",
	})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export")
}

func TestVersion(t *testing.T) {
	cmd := (&command{}).Cmd()
	cmd.AddCommand(versionCmd)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "dev dev\n", out.String())
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = newLogger("loud")
	assert.Error(t, err)
}

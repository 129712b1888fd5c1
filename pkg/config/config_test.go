package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cirocosta/ether-exporter/pkg/config"
)

// flagSet returns a flagset with every setting bound, parsed from `args`.
// The configuration file points at a missing file unless `args` says
// otherwise, so that the host's /etc doesn't leak into tests.
//
func flagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.BindFlags(flags)

	require.NoError(t, flags.Set("config", filepath.Join(t.TempDir(), "missing.yml")))
	flags.Lookup("config").Changed = false

	require.NoError(t, flags.Parse(args))

	return flags
}

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ether_exporter.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoad_defaults(t *testing.T) {
	cfg, err := config.Load(flagSet(t))
	require.NoError(t, err)

	assert.Equal(t, &config.Config{
		PromFolder:         "/var/lib/node_exporter",
		Interval:           60 * time.Second,
		EtherURI:           "http://localhost:8545",
		AdditionalAccounts: []string{},
		EnableAccounts:     true,
		Export:             config.ExportText,
		ListenAddress:      "127.0.0.1",
		ListenPort:         9305,
		TelemetryPath:      "/metrics",
		RPCTimeout:         10 * time.Second,
		BalanceConcurrency: 1,
		LogLevel:           "info",
	}, cfg)

	assert.Equal(t, "/var/lib/node_exporter/ether-exporter.prom", cfg.TextfilePath())
	assert.Equal(t, "127.0.0.1:9305", cfg.ListenAddr())
}

func TestLoad_file(t *testing.T) {
	path := writeFile(t, `
ether_exporter:
  prom_folder: /tmp/prom
  interval: 15
  ether_uri: http://geth:8545
  additional_accounts:
    - "0x52908400098527886E0F7030069857D2E4169EE7"
    - "0xde0B295669a9FD93d5F28D9Ec85E40f4cb697BAe"
  enable_accounts: off
  export: http
  listen_port: 9999
  listen_address: 0.0.0.0
`)

	cfg, err := config.Load(flagSet(t, "--config", path))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/prom", cfg.PromFolder)
	assert.Equal(t, 15*time.Second, cfg.Interval)
	assert.Equal(t, "http://geth:8545", cfg.EtherURI)
	assert.Equal(t, []string{
		"0x52908400098527886E0F7030069857D2E4169EE7",
		"0xde0B295669a9FD93d5F28D9Ec85E40f4cb697BAe",
	}, cfg.AdditionalAccounts)
	assert.False(t, cfg.EnableAccounts)
	assert.Equal(t, config.ExportHTTP, cfg.Export)
	assert.Equal(t, "0.0.0.0:9999", cfg.ListenAddr())
}

func TestLoad_priority(t *testing.T) {
	path := writeFile(t, `
ether_exporter:
  interval: 15
  listen_port: 9999
  ether_uri: http://from-file:8545
`)

	t.Setenv("ETHER_EXPORTER_INTERVAL", "30")
	t.Setenv("ETHER_EXPORTER_LISTEN_PORT", "7000")
	t.Setenv("ETHER_EXPORTER_ADDITIONAL_ACCOUNTS", "0x1, 0x2")

	cfg, err := config.Load(flagSet(t, "--config", path, "--listen-port", "8000"))
	require.NoError(t, err)

	assert.Equal(t, "http://from-file:8545", cfg.EtherURI)
	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.Equal(t, 8000, cfg.ListenPort)
	assert.Equal(t, []string{"0x1", "0x2"}, cfg.AdditionalAccounts)
}

func TestLoad_flags(t *testing.T) {
	cfg, err := config.Load(flagSet(t,
		"--additional-accounts", "0xA,0xB",
		"--enable-accounts", "off",
		"--export", "http",
		"--rpc-timeout", "3",
		"--balance-concurrency", "8",
		"--telemetry-path", "/telemetry",
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"0xA", "0xB"}, cfg.AdditionalAccounts)
	assert.False(t, cfg.EnableAccounts)
	assert.Equal(t, config.ExportHTTP, cfg.Export)
	assert.Equal(t, 3*time.Second, cfg.RPCTimeout)
	assert.Equal(t, 8, cfg.BalanceConcurrency)
	assert.Equal(t, "/telemetry", cfg.TelemetryPath)
}

func TestLoad_logLevelFromEnv(t *testing.T) {
	t.Setenv("LOGLEVEL", "DEBUG")

	cfg, err := config.Load(flagSet(t))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_missingExplicitFile(t *testing.T) {
	_, err := config.Load(flagSet(t,
		"--config", filepath.Join(t.TempDir(), "nope.yml"),
	))
	assert.Error(t, err)
}

func TestLoad_invalid(t *testing.T) {
	for _, tc := range []struct {
		name string
		args []string
	}{
		{"export", []string{"--export", "carrier-pigeon"}},
		{"enable accounts", []string{"--enable-accounts", "maybe"}},
		{"interval", []string{"--interval", "0"}},
		{"rpc timeout", []string{"--rpc-timeout=-1"}},
		{"listen port", []string{"--listen-port", "70000"}},
		{"balance concurrency", []string{"--balance-concurrency", "0"}},
		{"ether uri", []string{"--ether-uri", ""}},
		{"log level", []string{"--log-level", "loud"}},
		{"telemetry path", []string{"--export", "http", "--telemetry-path", "metrics"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(flagSet(t, tc.args...))
			assert.Error(t, err)
		})
	}
}

func TestLoad_malformedFile(t *testing.T) {
	path := writeFile(t, "ether_exporter: [this is: not valid")

	_, err := config.Load(flagSet(t, "--config", path))
	assert.Error(t, err)
}

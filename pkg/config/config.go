// Package config loads the exporter's settings once at startup into an
// immutable Config value.
//
// Settings are looked up with increasing priority in: defaults, the yaml
// file (under an `ether_exporter` section), environment variables
// (ETHER_EXPORTER_<OPTION>) and command-line flags.
//
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultFile is where the configuration file is looked for when no
	// other has been specified. Its absence is not an error.
	//
	DefaultFile = "/etc/ether_exporter.yml"

	// TextfileName is the name of the file written into PromFolder in
	// text export mode.
	//
	TextfileName = "ether-exporter.prom"

	section    = "ether_exporter"
	configFlag = "config"
)

// Export is the transport through which metrics are handed over.
//
type Export string

const (
	// ExportText periodically writes metrics to a file for a node
	// exporter's textfile collector to pick up.
	//
	ExportText Export = "text"

	// ExportHTTP serves metrics on demand, running a collection for every
	// scrape.
	//
	ExportHTTP Export = "http"
)

const (
	keyPromFolder         = "prom_folder"
	keyInterval           = "interval"
	keyEtherURI           = "ether_uri"
	keyAdditionalAccounts = "additional_accounts"
	keyEnableAccounts     = "enable_accounts"
	keyExport             = "export"
	keyListenPort         = "listen_port"
	keyListenAddress      = "listen_address"
	keyTelemetryPath      = "telemetry_path"
	keyRPCTimeout         = "rpc_timeout"
	keyBalanceConcurrency = "balance_concurrency"
	keyLogLevel           = "log_level"
)

var defaults = map[string]interface{}{
	keyPromFolder:         "/var/lib/node_exporter",
	keyInterval:           60,
	keyEtherURI:           "http://localhost:8545",
	keyAdditionalAccounts: []string{},
	keyEnableAccounts:     "on",
	keyExport:             string(ExportText),
	keyListenPort:         9305,
	keyListenAddress:      "127.0.0.1",
	keyTelemetryPath:      "/metrics",
	keyRPCTimeout:         10,
	keyBalanceConcurrency: 1,
	keyLogLevel:           "info",
}

// Config holds every setting of the exporter.
//
type Config struct {
	// PromFolder is the directory where the textfile is written to.
	//
	PromFolder string

	// Interval is how long to wait between two textfile writes.
	//
	Interval time.Duration

	// EtherURI is the node's JSON-RPC endpoint.
	//
	EtherURI string

	// AdditionalAccounts are always included in balance collection.
	//
	AdditionalAccounts []string

	// EnableAccounts toggles balance collection entirely.
	//
	EnableAccounts bool

	Export        Export
	ListenAddress string
	ListenPort    int
	TelemetryPath string

	// RPCTimeout bounds every single query made against the node.
	//
	RPCTimeout time.Duration

	// BalanceConcurrency bounds how many balance queries a cycle keeps
	// in flight.
	//
	BalanceConcurrency int

	LogLevel string
}

// TextfilePath is the full path of the file written in text export mode.
//
func (c Config) TextfilePath() string {
	return filepath.Join(c.PromFolder, TextfileName)
}

// ListenAddr is the address that the http exporter binds to.
//
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.ListenAddress, strconv.Itoa(c.ListenPort))
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// BindFlags registers one flag per setting, plus `--config` for the location
// of the configuration file.
//
func BindFlags(flags *pflag.FlagSet) {
	flags.String(configFlag, DefaultFile,
		"path to the yaml configuration file")

	flags.String(flagName(keyPromFolder), defaults[keyPromFolder].(string),
		"directory where "+TextfileName+" is written to in text export mode")
	flags.Int(flagName(keyInterval), defaults[keyInterval].(int),
		"seconds between two writes in text export mode")
	flags.String(flagName(keyEtherURI), defaults[keyEtherURI].(string),
		"json-rpc endpoint of the ethereum node")
	flags.StringSlice(flagName(keyAdditionalAccounts), nil,
		"addresses whose balance is always collected")
	flags.String(flagName(keyEnableAccounts), defaults[keyEnableAccounts].(string),
		"whether account balances are collected (on|off)")
	flags.String(flagName(keyExport), defaults[keyExport].(string),
		"how metrics are exported (text|http)")
	flags.Int(flagName(keyListenPort), defaults[keyListenPort].(int),
		"port to serve metrics on in http export mode")
	flags.String(flagName(keyListenAddress), defaults[keyListenAddress].(string),
		"address to serve metrics on in http export mode")
	flags.String(flagName(keyTelemetryPath), defaults[keyTelemetryPath].(string),
		"endpoint at which metrics are served in http export mode")
	flags.Int(flagName(keyRPCTimeout), defaults[keyRPCTimeout].(int),
		"seconds after which a query against the node is abandoned")
	flags.Int(flagName(keyBalanceConcurrency), defaults[keyBalanceConcurrency].(int),
		"maximum number of balance queries in flight")
	flags.String(flagName(keyLogLevel), defaults[keyLogLevel].(string),
		"log level (debug|info|warn|error)")
}

// Load reads the configuration. `flags` may be nil, in which case only
// defaults, DefaultFile and the environment are considered.
//
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(section+"."+key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.BindEnv(section+"."+keyLogLevel,
		"ETHER_EXPORTER_LOG_LEVEL", "LOGLEVEL")
	if err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	configFile, explicit := DefaultFile, false

	if flags != nil {
		for key := range defaults {
			flag := flags.Lookup(flagName(key))
			if flag == nil {
				continue
			}

			if err := v.BindPFlag(section+"."+key, flag); err != nil {
				return nil, fmt.Errorf("bind flag '%s': %w", flag.Name, err)
			}
		}

		if flag := flags.Lookup(configFlag); flag != nil {
			configFile, explicit = flag.Value.String(), flag.Changed
		}
	}

	if err := readFile(v, configFile, explicit); err != nil {
		return nil, err
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	return cfg, nil
}

func readFile(v *viper.Viper, path string, required bool) error {
	if path == "" {
		return nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}

	return fmt.Errorf("read config '%s': %w", path, err)
}

func decode(v *viper.Viper) (*Config, error) {
	get := func(key string) interface{} {
		return v.Get(section + "." + key)
	}

	enableAccounts, err := parseSwitch(cast.ToString(get(keyEnableAccounts)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", keyEnableAccounts, err)
	}

	accounts, err := stringList(get(keyAdditionalAccounts))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", keyAdditionalAccounts, err)
	}

	ints := map[string]int{}
	for _, key := range []string{
		keyInterval, keyListenPort, keyRPCTimeout, keyBalanceConcurrency,
	} {
		n, err := cast.ToIntE(get(key))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}

		ints[key] = n
	}

	return &Config{
		PromFolder:         cast.ToString(get(keyPromFolder)),
		Interval:           time.Duration(ints[keyInterval]) * time.Second,
		EtherURI:           cast.ToString(get(keyEtherURI)),
		AdditionalAccounts: accounts,
		EnableAccounts:     enableAccounts,
		Export:             Export(strings.ToLower(cast.ToString(get(keyExport)))),
		ListenAddress:      cast.ToString(get(keyListenAddress)),
		ListenPort:         ints[keyListenPort],
		TelemetryPath:      cast.ToString(get(keyTelemetryPath)),
		RPCTimeout:         time.Duration(ints[keyRPCTimeout]) * time.Second,
		BalanceConcurrency: ints[keyBalanceConcurrency],
		LogLevel:           strings.ToLower(cast.ToString(get(keyLogLevel))),
	}, nil
}

// parseSwitch accepts on/off as well as the usual boolean spellings.
//
func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected 'on' or 'off', got '%s'", s)
	}
}

// stringList turns either a list or a comma/space separated string into a
// list of non-empty strings.
//
func stringList(raw interface{}) ([]string, error) {
	var items []string

	switch val := raw.(type) {
	case nil:
		return []string{}, nil
	case string:
		items = strings.FieldsFunc(val, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		})
	default:
		var err error

		items, err = cast.ToStringSliceE(val)
		if err != nil {
			return nil, err
		}
	}

	res := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(strings.Trim(strings.TrimSpace(item), "[]"))
		if item == "" {
			continue
		}

		res = append(res, item)
	}

	return res, nil
}

// Validate checks that the configuration is usable.
//
func (c Config) Validate() error {
	switch c.Export {
	case ExportText, ExportHTTP:
	default:
		return fmt.Errorf("%s: expected '%s' or '%s', got '%s'",
			keyExport, ExportText, ExportHTTP, c.Export)
	}

	if c.EtherURI == "" {
		return fmt.Errorf("%s: must not be empty", keyEtherURI)
	}

	if c.Interval <= 0 {
		return fmt.Errorf("%s: must be a positive number of seconds", keyInterval)
	}

	if c.RPCTimeout <= 0 {
		return fmt.Errorf("%s: must be a positive number of seconds", keyRPCTimeout)
	}

	if c.BalanceConcurrency <= 0 {
		return fmt.Errorf("%s: must be positive", keyBalanceConcurrency)
	}

	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("%s: %d out of range", keyListenPort, c.ListenPort)
	}

	if c.Export == ExportText && c.PromFolder == "" {
		return fmt.Errorf("%s: must not be empty", keyPromFolder)
	}

	if c.Export == ExportHTTP && !strings.HasPrefix(c.TelemetryPath, "/") {
		return fmt.Errorf("%s: must start with '/'", keyTelemetryPath)
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%s: %w", keyLogLevel, err)
	}

	return nil
}

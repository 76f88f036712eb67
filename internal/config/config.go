package config

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/USA-RedDragon/germ-rpctest/internal/keys"
	"github.com/go-errors/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log     Log     `json:"log"`
	Node    Node    `json:"node"`
	Suite   Suite   `json:"suite"`
	Report  Report  `json:"report"`
	Metrics Metrics `json:"metrics"`
	Tracing Tracing `json:"tracing"`
	History History `json:"history"`
	Events  Events  `json:"events"`
	DevNode DevNode `json:"devnode" yaml:"devnode"`
}

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

type Log struct {
	Level LogLevel `json:"level"`
}

type Node struct {
	URL     string        `json:"url"`
	Timeout time.Duration `json:"timeout"`
}

type Suite struct {
	GenesisKey     string   `json:"genesis_key" yaml:"genesis_key"`
	GenesisAccount string   `json:"genesis_account" yaml:"genesis_account"`
	Seed           string   `json:"seed"`
	SendAmount     string   `json:"send_amount" yaml:"send_amount"`
	Run            []string `json:"run"`
}

type ReportDriver string

const (
	ReportDriverFilesystem ReportDriver = "filesystem"
	ReportDriverS3         ReportDriver = "s3"
)

type S3 struct {
	Region   string `json:"region"`
	Bucket   string `json:"bucket"`
	Endpoint string `json:"endpoint"`
	Prefix   string `json:"prefix"`
}

type Report struct {
	Driver    ReportDriver `json:"driver"`
	Name      string       `json:"name"`
	Directory string       `json:"directory"`
	Compress  bool         `json:"compress"`
	S3        S3           `json:"s3" yaml:"s3"`
}

type Metrics struct {
	Textfile string `json:"textfile"`
}

type Tracing struct {
	Enabled bool `json:"enabled"`
}

type DatabaseDriver string

const (
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
)

type Database struct {
	Driver          DatabaseDriver `json:"driver"`
	Database        string         `json:"database"`
	Username        string         `json:"username"`
	Password        string         `json:"password"`
	Host            string         `json:"host"`
	Port            uint16         `json:"port"`
	ExtraParameters string         `json:"extra_parameters" yaml:"extra_parameters"`
}

type History struct {
	Enabled  bool     `json:"enabled"`
	Limit    int      `json:"limit"`
	Retain   int      `json:"retain"`
	Database Database `json:"database"`
}

type Events struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Subject string `json:"subject"`
}

type HTTPListener struct {
	IPV4Host string `json:"ipv4_host" yaml:"ipv4_host"`
	IPV6Host string `json:"ipv6_host" yaml:"ipv6_host"`
	Port     uint16 `json:"port"`
}

type PProf struct {
	Enabled bool `json:"enabled"`
}

type DevNodeMetrics struct {
	HTTPListener `yaml:",inline"`
	Enabled      bool `json:"enabled"`
}

type DevNode struct {
	HTTPListener `yaml:",inline"`
	PProf        PProf          `json:"pprof"`
	CORSHosts    []string       `json:"cors_hosts" yaml:"cors_hosts"`
	Metrics      DevNodeMetrics `json:"metrics"`
}

//nolint:golint,gochecknoglobals
var (
	ConfigFileKey                     = "config"
	EnvFileKey                        = "env_file"
	LogLevelKey                       = "log.level"
	NodeURLKey                        = "node.url"
	NodeTimeoutKey                    = "node.timeout"
	SuiteGenesisKeyKey                = "suite.genesis_key"
	SuiteGenesisAccountKey            = "suite.genesis_account"
	SuiteSeedKey                      = "suite.seed"
	SuiteSendAmountKey                = "suite.send_amount"
	SuiteRunKey                       = "suite.run"
	ReportDriverKey                   = "report.driver"
	ReportNameKey                     = "report.name"
	ReportDirectoryKey                = "report.directory"
	ReportCompressKey                 = "report.compress"
	ReportS3RegionKey                 = "report.s3.region"
	ReportS3BucketKey                 = "report.s3.bucket"
	ReportS3EndpointKey               = "report.s3.endpoint"
	ReportS3PrefixKey                 = "report.s3.prefix"
	MetricsTextfileKey                = "metrics.textfile"
	TracingEnabledKey                 = "tracing.enabled"
	HistoryEnabledKey                 = "history.enabled"
	HistoryLimitKey                   = "history.limit"
	HistoryRetainKey                  = "history.retain"
	HistoryDatabaseDriverKey          = "history.database.driver"
	HistoryDatabaseDatabaseKey        = "history.database.database"
	HistoryDatabaseUsernameKey        = "history.database.username"
	HistoryDatabasePasswordKey        = "history.database.password"
	HistoryDatabaseHostKey            = "history.database.host"
	HistoryDatabasePortKey            = "history.database.port"
	HistoryDatabaseExtraParametersKey = "history.database.extra_parameters"
	EventsEnabledKey                  = "events.enabled"
	EventsURLKey                      = "events.url"
	EventsSubjectKey                  = "events.subject"
	DevNodeIPV4HostKey                = "devnode.ipv4_host"
	DevNodeIPV6HostKey                = "devnode.ipv6_host"
	DevNodePortKey                    = "devnode.port"
	DevNodePProfEnabledKey            = "devnode.pprof.enabled"
	DevNodeCORSHostsKey               = "devnode.cors_hosts"
	DevNodeMetricsEnabledKey          = "devnode.metrics.enabled"
	DevNodeMetricsIPV4HostKey         = "devnode.metrics.ipv4_host"
	DevNodeMetricsIPV6HostKey         = "devnode.metrics.ipv6_host"
	DevNodeMetricsPortKey             = "devnode.metrics.port"
)

const (
	DefaultConfigPath           = "config.yaml"
	DefaultEnvFile              = ".env"
	DefaultLogLevel             = LogLevelInfo
	DefaultNodeURL              = "http://localhost:55000"
	DefaultGenesisKey           = "34F0A37AAD20F4A260F0A5B3CB3D7FB50673212263E58A380BC10474BB039CE4"
	DefaultGenesisAccount       = "xrb_3e3j5tkog48pnny9dmfzj1r16pg8t1e76dz5tmac6iq689wyjfpiij4txtdo"
	DefaultSeed                 = "74F2B37AAD20F4A260F0A5B3CB3D7FB51673212263E58A380BC10474BB039CEE"
	DefaultSendAmount           = "100000000000"
	DefaultReportDriver         = ReportDriverFilesystem
	DefaultReportName           = "rpc_test.txt"
	DefaultReportDirectory      = "."
	DefaultHistoryLimit         = 10
	DefaultHistoryDriver        = DatabaseDriverSQLite
	DefaultHistoryDatabase      = "rpctest.db"
	DefaultEventsURL            = "nats://localhost:4222"
	DefaultEventsSubject        = "rpctest"
	DefaultDevNodeIPV4Host      = "127.0.0.1"
	DefaultDevNodePort          = 55000
	DefaultDevNodeMetricsIPV4   = "127.0.0.1"
	DefaultDevNodeMetricsPort   = 55001
)

func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringP(ConfigFileKey, "c", DefaultConfigPath, "Config file path")
	flags.String(EnvFileKey, DefaultEnvFile, "Dotenv file loaded before reading the environment")
	flags.String(LogLevelKey, string(DefaultLogLevel), "Log level (debug, info, warn, error)")
	flags.String(NodeURLKey, DefaultNodeURL, "Node RPC endpoint")
	flags.Duration(NodeTimeoutKey, 0, "Per-call timeout, 0 waits forever")
	flags.String(SuiteGenesisKeyKey, DefaultGenesisKey, "Private key of the funded genesis account")
	flags.String(SuiteGenesisAccountKey, "", "Account address expected for the genesis key, derived from the key when empty")
	flags.String(SuiteSeedKey, DefaultSeed, "Wallet seed used by the seed cases")
	flags.String(SuiteSendAmountKey, DefaultSendAmount, "Raw amount moved by the send case")
	flags.StringSlice(SuiteRunKey, []string{}, "Comma-separated list of cases to run, empty runs all")
	flags.String(ReportDriverKey, string(DefaultReportDriver), "Report storage driver (filesystem, s3)")
	flags.String(ReportNameKey, DefaultReportName, "Report file name")
	flags.String(ReportDirectoryKey, DefaultReportDirectory, "Report directory for the filesystem driver")
	flags.Bool(ReportCompressKey, false, "Compress the report with zstd")
	flags.String(ReportS3RegionKey, "", "S3 region")
	flags.String(ReportS3BucketKey, "", "S3 bucket")
	flags.String(ReportS3EndpointKey, "", "S3 endpoint override")
	flags.String(ReportS3PrefixKey, "", "S3 key prefix")
	flags.String(MetricsTextfileKey, "", "Write run metrics to this node_exporter textfile")
	flags.Bool(TracingEnabledKey, false, "Enable Open Telemetry tracing")
	flags.Bool(HistoryEnabledKey, false, "Record runs in the history database")
	flags.Int(HistoryLimitKey, DefaultHistoryLimit, "Number of runs listed by the history command")
	flags.Int(HistoryRetainKey, 0, "Number of runs kept when pruning the history, 0 keeps all")
	flags.String(HistoryDatabaseDriverKey, string(DefaultHistoryDriver), "Database driver")
	flags.String(HistoryDatabaseDatabaseKey, DefaultHistoryDatabase, "Database name or path")
	flags.String(HistoryDatabaseUsernameKey, "", "Database username")
	flags.String(HistoryDatabasePasswordKey, "", "Database password")
	flags.String(HistoryDatabaseHostKey, "", "Database host")
	flags.Uint16(HistoryDatabasePortKey, 0, "Database port")
	flags.String(HistoryDatabaseExtraParametersKey, "", "Database extra parameters")
	flags.Bool(EventsEnabledKey, false, "Publish run events to NATS")
	flags.String(EventsURLKey, DefaultEventsURL, "NATS server URL")
	flags.String(EventsSubjectKey, DefaultEventsSubject, "NATS subject prefix")
	flags.String(DevNodeIPV4HostKey, DefaultDevNodeIPV4Host, "Simulated node IPv4 host")
	flags.String(DevNodeIPV6HostKey, "", "Simulated node IPv6 host, empty disables")
	flags.Uint16(DevNodePortKey, DefaultDevNodePort, "Simulated node port")
	flags.Bool(DevNodePProfEnabledKey, false, "Enable pprof on the simulated node")
	flags.StringSlice(DevNodeCORSHostsKey, []string{}, "Comma-separated list of CORS hosts")
	flags.Bool(DevNodeMetricsEnabledKey, false, "Enable the simulated node metrics server")
	flags.String(DevNodeMetricsIPV4HostKey, DefaultDevNodeMetricsIPV4, "Metrics server IPv4 host")
	flags.String(DevNodeMetricsIPV6HostKey, "", "Metrics server IPv6 host, empty disables")
	flags.Uint16(DevNodeMetricsPortKey, DefaultDevNodeMetricsPort, "Metrics server port")
}

var (
	ErrInvalidLogLevel        = errors.New("log level must be one of debug, info, warn, error")
	ErrNodeURLRequired        = errors.New("node URL is required")
	ErrInvalidNodeURL         = errors.New("node URL must be an http or https URL")
	ErrInvalidGenesisKey      = errors.New("genesis key must be 64 hexadecimal characters")
	ErrGenesisAccountMismatch = errors.New("genesis account does not match the genesis key")
	ErrInvalidSeed            = errors.New("seed must be 64 hexadecimal characters")
	ErrInvalidSendAmount      = errors.New("send amount must be a positive integer")
	ErrInvalidReportDriver    = errors.New("report driver must be filesystem or s3")
	ErrReportNameRequired     = errors.New("report name is required")
	ErrS3BucketRequired       = errors.New("S3 bucket is required")
	ErrDBHostRequired         = errors.New("Database host is required")
	ErrDBDatabaseRequired     = errors.New("Database name is required")
	ErrDatabaseDriverRequired = errors.New("Database driver is required")
	ErrEventsURLRequired      = errors.New("NATS URL is required when events are enabled")
	ErrInvalidHistoryRetain   = errors.New("history retain must not be negative")
)

func (c *Config) Validate() error {
	switch c.Log.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return ErrInvalidLogLevel
	}
	if c.Node.URL == "" {
		return ErrNodeURLRequired
	}
	if u, err := url.Parse(c.Node.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidNodeURL
	}
	genesis, err := keys.ParsePrivateKey(c.Suite.GenesisKey)
	if err != nil {
		return ErrInvalidGenesisKey
	}
	if c.Suite.GenesisAccount != genesis.Public().Account() {
		return ErrGenesisAccountMismatch
	}
	if _, err := keys.ParsePrivateKey(c.Suite.Seed); err != nil {
		return ErrInvalidSeed
	}
	if amount, ok := new(big.Int).SetString(c.Suite.SendAmount, 10); !ok || amount.Sign() <= 0 {
		return ErrInvalidSendAmount
	}
	switch c.Report.Driver {
	case ReportDriverFilesystem:
	case ReportDriverS3:
		if c.Report.S3.Bucket == "" {
			return ErrS3BucketRequired
		}
	default:
		return ErrInvalidReportDriver
	}
	if c.Report.Name == "" {
		return ErrReportNameRequired
	}
	if c.History.Retain < 0 {
		return ErrInvalidHistoryRetain
	}
	if c.History.Enabled {
		if c.History.Database.Driver == "" {
			return ErrDatabaseDriverRequired
		}
		if c.History.Database.Driver != DatabaseDriverSQLite && c.History.Database.Host == "" {
			return ErrDBHostRequired
		}
		if c.History.Database.Database == "" {
			return ErrDBDatabaseRequired
		}
	}
	if c.Events.Enabled && c.Events.URL == "" {
		return ErrEventsURLRequired
	}

	return nil
}

// SlogLevel maps the configured level onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func LoadConfig(cmd *cobra.Command) (*Config, error) {
	var config Config

	envFile, err := cmd.Flags().GetString(EnvFileKey)
	if err != nil {
		return &config, fmt.Errorf("failed to get env file: %w", err)
	}
	if envFile != "" {
		// Existing environment variables win over the file
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &config, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	// Load flags from envs
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if ctx.Err() != nil {
			return
		}
		optName := strings.ReplaceAll(strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_"), ".", "__")
		if val, ok := os.LookupEnv(optName); !f.Changed && ok {
			if err := f.Value.Set(val); err != nil {
				cancel(err)
			}
			f.Changed = true
		}
	})
	if ctx.Err() != nil {
		return &config, fmt.Errorf("failed to load env: %w", context.Cause(ctx))
	}

	configPath, err := cmd.Flags().GetString(ConfigFileKey)
	if err != nil {
		return &config, fmt.Errorf("failed to get config path: %w", err)
	}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return &config, fmt.Errorf("failed to read config: %w", err)
		} else if err == nil {
			if err := yaml.Unmarshal(data, &config); err != nil {
				return &config, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		}
	}

	err = overrideFlags(&config, cmd)
	if err != nil {
		return &config, fmt.Errorf("failed to override flags: %w", err)
	}

	// Defaults
	if config.Log.Level == "" {
		config.Log.Level = DefaultLogLevel
	}
	if config.Node.URL == "" {
		config.Node.URL = DefaultNodeURL
	}
	if config.Suite.GenesisKey == "" {
		config.Suite.GenesisKey = DefaultGenesisKey
	}
	if config.Suite.GenesisAccount == "" {
		// an unparsable key is reported by Validate
		if genesis, err := keys.ParsePrivateKey(config.Suite.GenesisKey); err == nil {
			config.Suite.GenesisAccount = genesis.Public().Account()
		}
	}
	if config.Suite.Seed == "" {
		config.Suite.Seed = DefaultSeed
	}
	if config.Suite.SendAmount == "" {
		config.Suite.SendAmount = DefaultSendAmount
	}
	if config.Report.Driver == "" {
		config.Report.Driver = DefaultReportDriver
	}
	if config.Report.Name == "" {
		config.Report.Name = DefaultReportName
	}
	if config.Report.Directory == "" {
		config.Report.Directory = DefaultReportDirectory
	}
	if config.History.Limit <= 0 {
		config.History.Limit = DefaultHistoryLimit
	}
	if config.History.Database.Driver == "" {
		config.History.Database.Driver = DefaultHistoryDriver
	}
	if config.History.Database.Database == "" {
		config.History.Database.Database = DefaultHistoryDatabase
	}
	if config.Events.URL == "" {
		config.Events.URL = DefaultEventsURL
	}
	if config.Events.Subject == "" {
		config.Events.Subject = DefaultEventsSubject
	}
	if config.DevNode.IPV4Host == "" {
		config.DevNode.IPV4Host = DefaultDevNodeIPV4Host
	}
	if config.DevNode.Port == 0 {
		config.DevNode.Port = DefaultDevNodePort
	}
	if config.DevNode.Metrics.IPV4Host == "" {
		config.DevNode.Metrics.IPV4Host = DefaultDevNodeMetricsIPV4
	}
	if config.DevNode.Metrics.Port == 0 {
		config.DevNode.Metrics.Port = DefaultDevNodeMetricsPort
	}

	return &config, nil
}

func overrideFlags(config *Config, cmd *cobra.Command) error {
	var err error

	if cmd.Flags().Changed(LogLevelKey) {
		level, err := cmd.Flags().GetString(LogLevelKey)
		if err != nil {
			return fmt.Errorf("failed to get log level: %w", err)
		}
		config.Log.Level = LogLevel(strings.ToLower(level))
	}

	if cmd.Flags().Changed(NodeURLKey) {
		config.Node.URL, err = cmd.Flags().GetString(NodeURLKey)
		if err != nil {
			return fmt.Errorf("failed to get node URL: %w", err)
		}
	}

	if cmd.Flags().Changed(NodeTimeoutKey) {
		config.Node.Timeout, err = cmd.Flags().GetDuration(NodeTimeoutKey)
		if err != nil {
			return fmt.Errorf("failed to get node timeout: %w", err)
		}
	}

	if cmd.Flags().Changed(SuiteGenesisKeyKey) {
		config.Suite.GenesisKey, err = cmd.Flags().GetString(SuiteGenesisKeyKey)
		if err != nil {
			return fmt.Errorf("failed to get genesis key: %w", err)
		}
	}

	if cmd.Flags().Changed(SuiteGenesisAccountKey) {
		config.Suite.GenesisAccount, err = cmd.Flags().GetString(SuiteGenesisAccountKey)
		if err != nil {
			return fmt.Errorf("failed to get genesis account: %w", err)
		}
	}

	if cmd.Flags().Changed(SuiteSeedKey) {
		config.Suite.Seed, err = cmd.Flags().GetString(SuiteSeedKey)
		if err != nil {
			return fmt.Errorf("failed to get seed: %w", err)
		}
	}

	if cmd.Flags().Changed(SuiteSendAmountKey) {
		config.Suite.SendAmount, err = cmd.Flags().GetString(SuiteSendAmountKey)
		if err != nil {
			return fmt.Errorf("failed to get send amount: %w", err)
		}
	}

	if cmd.Flags().Changed(SuiteRunKey) {
		config.Suite.Run, err = cmd.Flags().GetStringSlice(SuiteRunKey)
		if err != nil {
			return fmt.Errorf("failed to get case filter: %w", err)
		}
	}

	if cmd.Flags().Changed(ReportDriverKey) {
		drvr, err := cmd.Flags().GetString(ReportDriverKey)
		if err != nil {
			return fmt.Errorf("failed to get report driver: %w", err)
		}
		config.Report.Driver = ReportDriver(strings.ToLower(drvr))
	}

	if cmd.Flags().Changed(ReportNameKey) {
		config.Report.Name, err = cmd.Flags().GetString(ReportNameKey)
		if err != nil {
			return fmt.Errorf("failed to get report name: %w", err)
		}
	}

	if cmd.Flags().Changed(ReportDirectoryKey) {
		config.Report.Directory, err = cmd.Flags().GetString(ReportDirectoryKey)
		if err != nil {
			return fmt.Errorf("failed to get report directory: %w", err)
		}
	}

	if cmd.Flags().Changed(ReportCompressKey) {
		config.Report.Compress, err = cmd.Flags().GetBool(ReportCompressKey)
		if err != nil {
			return fmt.Errorf("failed to get report compression: %w", err)
		}
	}

	if cmd.Flags().Changed(ReportS3RegionKey) {
		config.Report.S3.Region, err = cmd.Flags().GetString(ReportS3RegionKey)
		if err != nil {
			return fmt.Errorf("failed to get S3 region: %w", err)
		}
	}

	if cmd.Flags().Changed(ReportS3BucketKey) {
		config.Report.S3.Bucket, err = cmd.Flags().GetString(ReportS3BucketKey)
		if err != nil {
			return fmt.Errorf("failed to get S3 bucket: %w", err)
		}
	}

	if cmd.Flags().Changed(ReportS3EndpointKey) {
		config.Report.S3.Endpoint, err = cmd.Flags().GetString(ReportS3EndpointKey)
		if err != nil {
			return fmt.Errorf("failed to get S3 endpoint: %w", err)
		}
	}

	if cmd.Flags().Changed(ReportS3PrefixKey) {
		config.Report.S3.Prefix, err = cmd.Flags().GetString(ReportS3PrefixKey)
		if err != nil {
			return fmt.Errorf("failed to get S3 prefix: %w", err)
		}
	}

	if cmd.Flags().Changed(MetricsTextfileKey) {
		config.Metrics.Textfile, err = cmd.Flags().GetString(MetricsTextfileKey)
		if err != nil {
			return fmt.Errorf("failed to get metrics textfile: %w", err)
		}
	}

	if cmd.Flags().Changed(TracingEnabledKey) {
		config.Tracing.Enabled, err = cmd.Flags().GetBool(TracingEnabledKey)
		if err != nil {
			return fmt.Errorf("failed to get tracing enabled: %w", err)
		}
	}

	if cmd.Flags().Changed(HistoryEnabledKey) {
		config.History.Enabled, err = cmd.Flags().GetBool(HistoryEnabledKey)
		if err != nil {
			return fmt.Errorf("failed to get history enabled: %w", err)
		}
	}

	if cmd.Flags().Changed(HistoryLimitKey) {
		config.History.Limit, err = cmd.Flags().GetInt(HistoryLimitKey)
		if err != nil {
			return fmt.Errorf("failed to get history limit: %w", err)
		}
	}

	if cmd.Flags().Changed(HistoryRetainKey) {
		config.History.Retain, err = cmd.Flags().GetInt(HistoryRetainKey)
		if err != nil {
			return fmt.Errorf("failed to get history retain: %w", err)
		}
	}

	if cmd.Flags().Changed(HistoryDatabaseDriverKey) {
		drvr, err := cmd.Flags().GetString(HistoryDatabaseDriverKey)
		if err != nil {
			return fmt.Errorf("failed to get database driver: %w", err)
		}
		config.History.Database.Driver = DatabaseDriver(strings.ToLower(drvr))
	}

	if cmd.Flags().Changed(HistoryDatabaseDatabaseKey) {
		config.History.Database.Database, err = cmd.Flags().GetString(HistoryDatabaseDatabaseKey)
		if err != nil {
			return fmt.Errorf("failed to get database name: %w", err)
		}
	}

	if cmd.Flags().Changed(HistoryDatabaseUsernameKey) {
		config.History.Database.Username, err = cmd.Flags().GetString(HistoryDatabaseUsernameKey)
		if err != nil {
			return fmt.Errorf("failed to get database username: %w", err)
		}
	}

	if cmd.Flags().Changed(HistoryDatabasePasswordKey) {
		config.History.Database.Password, err = cmd.Flags().GetString(HistoryDatabasePasswordKey)
		if err != nil {
			return fmt.Errorf("failed to get database password: %w", err)
		}
	}

	if cmd.Flags().Changed(HistoryDatabaseHostKey) {
		config.History.Database.Host, err = cmd.Flags().GetString(HistoryDatabaseHostKey)
		if err != nil {
			return fmt.Errorf("failed to get database host: %w", err)
		}
	}

	if cmd.Flags().Changed(HistoryDatabasePortKey) {
		config.History.Database.Port, err = cmd.Flags().GetUint16(HistoryDatabasePortKey)
		if err != nil {
			return fmt.Errorf("failed to get database port: %w", err)
		}
	}

	if cmd.Flags().Changed(HistoryDatabaseExtraParametersKey) {
		config.History.Database.ExtraParameters, err = cmd.Flags().GetString(HistoryDatabaseExtraParametersKey)
		if err != nil {
			return fmt.Errorf("failed to get database extra parameters: %w", err)
		}
	}

	if cmd.Flags().Changed(EventsEnabledKey) {
		config.Events.Enabled, err = cmd.Flags().GetBool(EventsEnabledKey)
		if err != nil {
			return fmt.Errorf("failed to get events enabled: %w", err)
		}
	}

	if cmd.Flags().Changed(EventsURLKey) {
		config.Events.URL, err = cmd.Flags().GetString(EventsURLKey)
		if err != nil {
			return fmt.Errorf("failed to get NATS URL: %w", err)
		}
	}

	if cmd.Flags().Changed(EventsSubjectKey) {
		config.Events.Subject, err = cmd.Flags().GetString(EventsSubjectKey)
		if err != nil {
			return fmt.Errorf("failed to get NATS subject: %w", err)
		}
	}

	if cmd.Flags().Changed(DevNodeIPV4HostKey) {
		config.DevNode.IPV4Host, err = cmd.Flags().GetString(DevNodeIPV4HostKey)
		if err != nil {
			return fmt.Errorf("failed to get devnode IPv4 host: %w", err)
		}
	}

	if cmd.Flags().Changed(DevNodeIPV6HostKey) {
		config.DevNode.IPV6Host, err = cmd.Flags().GetString(DevNodeIPV6HostKey)
		if err != nil {
			return fmt.Errorf("failed to get devnode IPv6 host: %w", err)
		}
	}

	if cmd.Flags().Changed(DevNodePortKey) {
		config.DevNode.Port, err = cmd.Flags().GetUint16(DevNodePortKey)
		if err != nil {
			return fmt.Errorf("failed to get devnode port: %w", err)
		}
	}

	if cmd.Flags().Changed(DevNodePProfEnabledKey) {
		config.DevNode.PProf.Enabled, err = cmd.Flags().GetBool(DevNodePProfEnabledKey)
		if err != nil {
			return fmt.Errorf("failed to get pprof enabled: %w", err)
		}
	}

	if cmd.Flags().Changed(DevNodeCORSHostsKey) {
		config.DevNode.CORSHosts, err = cmd.Flags().GetStringSlice(DevNodeCORSHostsKey)
		if err != nil {
			return fmt.Errorf("failed to get CORS hosts: %w", err)
		}
	}

	if cmd.Flags().Changed(DevNodeMetricsEnabledKey) {
		config.DevNode.Metrics.Enabled, err = cmd.Flags().GetBool(DevNodeMetricsEnabledKey)
		if err != nil {
			return fmt.Errorf("failed to get metrics enabled: %w", err)
		}
	}

	if cmd.Flags().Changed(DevNodeMetricsIPV4HostKey) {
		config.DevNode.Metrics.IPV4Host, err = cmd.Flags().GetString(DevNodeMetricsIPV4HostKey)
		if err != nil {
			return fmt.Errorf("failed to get metrics IPv4 host: %w", err)
		}
	}

	if cmd.Flags().Changed(DevNodeMetricsIPV6HostKey) {
		config.DevNode.Metrics.IPV6Host, err = cmd.Flags().GetString(DevNodeMetricsIPV6HostKey)
		if err != nil {
			return fmt.Errorf("failed to get metrics IPv6 host: %w", err)
		}
	}

	if cmd.Flags().Changed(DevNodeMetricsPortKey) {
		config.DevNode.Metrics.Port, err = cmd.Flags().GetUint16(DevNodeMetricsPortKey)
		if err != nil {
			return fmt.Errorf("failed to get metrics port: %w", err)
		}
	}

	return nil
}

package util

import (
	"fmt"
	"github.com/ValentinKolb/kvguard/lib/guard"
	"github.com/ValentinKolb/kvguard/rpc/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		if lineWidth > 0 && lineWidth+1+len(word) > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}
		currentLine.WriteString(word)
		lineWidth += len(word)
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}
	return strings.Join(wrappedLines, "\n")
}

// passthroughFlags are the flags forwarded to the driver, keyed by flag name
var passthroughFlags = []string{
	"timeout",
	"transport",
	"serializer",
	"compression",
	"shard",
	"write-buffer",
	"read-buffer",
	"tcp-nodelay",
	"tcp-keepalive",
	"tcp-linger",
}

// SetupGuardFlags adds the guard and driver flags to a command
func SetupGuardFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	// guard
	flags.String("hosts", guard.DefaultHosts, WrapString("Comma-separated list of store endpoints"))
	flags.Int("max-conns-per-node", guard.DefaultMaxConnsPerNode, WrapString("Connections per endpoint; at most max-conns-per-node - 1 operations run at once (but at least min-conns-per-node)"))
	flags.Int("min-conns-per-node", guard.DefaultMinConnsPerNode, WrapString("Lower bound for the number of operations running at once"))
	flags.Int("retry-count", guard.DefaultRetryCount, WrapString("How often a timed out operation is retried (0 disables retries)"))
	flags.Int("retry-backoff", guard.DefaultRetryBackoff, WrapString("Base of the exponential backoff in milliseconds (delay = base^retry ms)"))
	flags.Duration("max-elapsed", 0, WrapString("Upper bound for the time spent in one operation including retries (0 means unbounded)"))

	// driver
	defaults := common.DefaultClientConfig()
	flags.Int("timeout", defaults.TimeoutSecond, WrapString("Timeout of a single request in seconds"))
	flags.String("transport", defaults.Transport, WrapString("Transport to use (tcp, unix, http)"))
	flags.String("serializer", defaults.Serializer, WrapString("Serializer to use (json, gob)"))
	flags.Bool("compression", defaults.Compression, WrapString("Whether to compress messages with zstd"))
	flags.Uint64("shard", defaults.ShardID, WrapString("ID of the shard to connect to"))
	flags.Int("write-buffer", 512, WrapString("The size of the socket write buffer (in KB, ignored for http)"))
	flags.Int("read-buffer", 512, WrapString("The size of the socket read buffer (in KB, ignored for http)"))
	flags.Bool("tcp-nodelay", defaults.TCPNoDelay, WrapString("Whether to enable TCP_NODELAY (only for tcp)"))
	flags.Int("tcp-keepalive", 0, WrapString("The keepalive interval in seconds (only for tcp)"))
	flags.Int("tcp-linger", 0, WrapString("The linger time in seconds (only for tcp)"))

	flags.String("log-level", "warning", WrapString("Log level (debug, info, warning, error)"))
}

// InitConfig loads .env files and makes viper read KVGUARD_* environment variables
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("kvguard")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetGuardConfig reads the guard configuration from viper
func GetGuardConfig() guard.Config {
	passthrough := make(map[string]any, len(passthroughFlags))
	for _, key := range passthroughFlags {
		passthrough[key] = viper.Get(key)
	}
	// buffer flags are given in KB
	passthrough["write-buffer"] = viper.GetInt("write-buffer") * 1024
	passthrough["read-buffer"] = viper.GetInt("read-buffer") * 1024

	return guard.Config{
		Hosts:           viper.GetString("hosts"),
		MaxConnsPerNode: viper.GetInt("max-conns-per-node"),
		MinConnsPerNode: viper.GetInt("min-conns-per-node"),
		RetryCount:      viper.GetInt("retry-count"),
		RetryBackoff:    viper.GetInt("retry-backoff"),
		MaxElapsed:      viper.GetDuration("max-elapsed"),
		Passthrough:     passthrough,
	}
}

// NewGuard initializes the loggers, creates a guard from the configuration and connects it
func NewGuard() (*guard.Guard, error) {
	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return nil, err
	}

	g, err := guard.New(GetGuardConfig(), guard.WithName("cli"))
	if err != nil {
		return nil, err
	}

	if !g.Connect() {
		_ = g.Close()
		return nil, fmt.Errorf("could not connect to %s: %w", viper.GetString("hosts"), g.LastError())
	}
	return g, nil
}

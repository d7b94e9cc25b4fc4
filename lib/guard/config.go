package guard

import (
	"fmt"
	"github.com/ValentinKolb/kvguard/rpc/common"
	"github.com/go-viper/mapstructure/v2"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Default values of the recognized options
const (
	DefaultHosts           = "localhost:3000"
	DefaultMaxConnsPerNode = 2
	DefaultMinConnsPerNode = 1
	DefaultRetryCount      = 3
	DefaultRetryBackoff    = 20
)

// Config is the configuration of a Guard.
//
// Passthrough holds driver options that are forwarded to the RPC driver
// (see common.ClientConfig for the accepted keys, e.g. "timeout", "transport",
// "serializer", "compression", "shard"). Unknown keys are rejected.
type Config struct {
	// Hosts is a comma-separated list of store endpoints
	Hosts string
	// MaxConnsPerNode is forwarded to the driver as connections per endpoint
	MaxConnsPerNode int
	// MinConnsPerNode is the lower bound of the permit pool capacity. It may exceed
	// MaxConnsPerNode, the pool then has MinConnsPerNode permits.
	MinConnsPerNode int
	// RetryCount is how often a timed out operation is retried. Unlike the other options a
	// zero RetryCount is not replaced with its default: Config{Hosts: "x"} never retries.
	// Start from DefaultConfig() to get DefaultRetryCount retries.
	RetryCount int
	// RetryBackoff is the base in milliseconds of the exponential backoff (delay = base^retry ms)
	RetryBackoff int
	// MaxElapsed bounds the total time spent in one call including backoff, zero means no bound
	MaxElapsed time.Duration
	// Passthrough contains driver options forwarded verbatim
	Passthrough map[string]any
}

// DefaultConfig returns a Config with all recognized options set to their defaults
func DefaultConfig() Config {
	return Config{
		Hosts:           DefaultHosts,
		MaxConnsPerNode: DefaultMaxConnsPerNode,
		MinConnsPerNode: DefaultMinConnsPerNode,
		RetryCount:      DefaultRetryCount,
		RetryBackoff:    DefaultRetryBackoff,
	}
}

// withDefaults replaces unset options with their defaults.
// RetryCount is left alone since zero is a meaningful value.
func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Hosts) == "" {
		c.Hosts = DefaultHosts
	}
	if c.MaxConnsPerNode == 0 {
		c.MaxConnsPerNode = DefaultMaxConnsPerNode
	}
	if c.MinConnsPerNode == 0 {
		c.MinConnsPerNode = DefaultMinConnsPerNode
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	return c
}

// Validate checks the configuration including the passthrough options
func (c Config) Validate() error {
	if len(c.HostList()) == 0 {
		return fmt.Errorf("%w: no hosts given", ErrInvalidConfig)
	}
	if c.MaxConnsPerNode < 1 {
		return fmt.Errorf("%w: MaxConnsPerNode must be at least 1, got %d", ErrInvalidConfig, c.MaxConnsPerNode)
	}
	if c.MinConnsPerNode < 1 {
		return fmt.Errorf("%w: MinConnsPerNode must be at least 1, got %d", ErrInvalidConfig, c.MinConnsPerNode)
	}
	if c.RetryCount < 0 {
		return fmt.Errorf("%w: RetryCount must not be negative, got %d", ErrInvalidConfig, c.RetryCount)
	}
	if c.RetryBackoff < 1 {
		return fmt.Errorf("%w: RetryBackoff must be at least 1 ms, got %d", ErrInvalidConfig, c.RetryBackoff)
	}
	if c.MaxElapsed < 0 {
		return fmt.Errorf("%w: MaxElapsed must not be negative, got %s", ErrInvalidConfig, c.MaxElapsed)
	}
	_, err := c.DriverConfig()
	return err
}

// HostList returns the trimmed, non-empty entries of Hosts
func (c Config) HostList() []string {
	var hosts []string
	for _, h := range strings.Split(c.Hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// PermitCapacity returns the number of operations allowed in flight at once
func (c Config) PermitCapacity() int {
	return max(c.MaxConnsPerNode-1, c.MinConnsPerNode, 1)
}

// RetryPolicy returns the default retry policy of the configuration
func (c Config) RetryPolicy() RetryPolicy {
	return RetryPolicy{Count: c.RetryCount, Backoff: c.RetryBackoff}
}

// DriverConfig builds the driver configuration: driver defaults, overlaid with the
// passthrough options, with endpoints and connections per endpoint taken from the guard config
func (c Config) DriverConfig() (common.ClientConfig, error) {
	driverConfig := common.DefaultClientConfig()

	if len(c.Passthrough) > 0 {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &driverConfig,
			ErrorUnused:      true,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return common.ClientConfig{}, err
		}
		if err := decoder.Decode(c.Passthrough); err != nil {
			return common.ClientConfig{}, fmt.Errorf("%w: passthrough: %v", ErrInvalidConfig, err)
		}
	}

	driverConfig.Endpoints = c.HostList()
	driverConfig.ConnectionsPerEndpoint = c.MaxConnsPerNode

	if err := driverConfig.Validate(); err != nil {
		return common.ClientConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return driverConfig, nil
}

// String returns a formatted string representation of the configuration
func (c Config) String() string {
	var sb strings.Builder

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	sb.WriteString("\nGUARD\n")
	addField("Hosts", c.Hosts)
	addField("Max Conns Per Node", strconv.Itoa(c.MaxConnsPerNode))
	addField("Min Conns Per Node", strconv.Itoa(c.MinConnsPerNode))
	addField("Permit Capacity", strconv.Itoa(c.PermitCapacity()))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Retry Backoff", fmt.Sprintf("%d ms (base)", c.RetryBackoff))
	if c.MaxElapsed > 0 {
		addField("Max Elapsed", c.MaxElapsed.String())
	} else {
		addField("Max Elapsed", "unbounded")
	}

	if len(c.Passthrough) > 0 {
		sb.WriteString("\nPASSTHROUGH\n")
		keys := make([]string, 0, len(c.Passthrough))
		for k := range c.Passthrough {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			addField(k, fmt.Sprintf("%v", c.Passthrough[k]))
		}
	}
	return sb.String()
}

package guard

import (
	"fmt"
	"github.com/ValentinKolb/kvguard/rpc/client"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("guard")

// Guard bounds and retries the operations issued against one remote store connection.
// It is constructed once and shared by all callers; all methods are safe for concurrent use.
type Guard struct {
	name    string
	config  Config
	policy  RetryPolicy
	permits *PermitPool
	conn    *ConnectionManager
	metrics *guardMetrics
	clock   Clock
}

// Option configures optional parts of a Guard
type Option func(o *options)

type options struct {
	name  string
	dial  DialFunc
	clock Clock
	set   *metrics.Set
}

// WithName sets the name used in log lines and as the "guard" label of all metrics
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithDialer replaces client.Dial, the function that establishes the driver handle
func WithDialer(dial DialFunc) Option {
	return func(o *options) { o.dial = dial }
}

// WithClock replaces the wall clock used to time and wait between retries
func WithClock(clock Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithMetricsSet registers the guard's metrics in set instead of a new private set.
// Guards sharing a set need distinct names.
func WithMetricsSet(set *metrics.Set) Option {
	return func(o *options) { o.set = set }
}

// New creates a guard. Unset options of cfg are replaced with their defaults and the
// result is validated. The guard is not connected yet, see Connect.
func New(cfg Config, opts ...Option) (*Guard, error) {
	o := options{
		name: "default",
		dial: client.Dial,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.set == nil {
		o.set = metrics.NewSet()
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	driverConfig, err := cfg.DriverConfig()
	if err != nil {
		return nil, err
	}

	permits := NewPermitPool(cfg.PermitCapacity())
	g := &Guard{
		name:    o.name,
		config:  cfg,
		policy:  cfg.RetryPolicy(),
		permits: permits,
		conn:    NewConnectionManager(driverConfig, o.dial),
		metrics: newGuardMetrics(o.set, o.name, permits),
		clock:   o.clock,
	}

	Logger.Debugf("Created guard %q: permits=%d retries=%d backoff=%dms", g.name, permits.Capacity(), g.policy.Count, g.policy.Backoff)
	return g, nil
}

// Connect establishes the shared connection. It is idempotent and reports whether the
// guard is connected afterwards, see ConnectionManager.Connect.
func (g *Guard) Connect() bool {
	return g.conn.Connect()
}

// Client returns the live driver handle for direct use, bypassing permits and retries.
// It is the same handle Execute passes to operations.
func (g *Guard) Client() client.IRemoteStore {
	return g.conn.Client()
}

// Close closes the connection; operations issued afterwards fail with ErrClosed
func (g *Guard) Close() error {
	return g.conn.Close()
}

// State returns the connection state
func (g *Guard) State() State {
	return g.conn.State()
}

// LastError returns the error of the last failed connect or the cause of the last disconnect
func (g *Guard) LastError() error {
	return g.conn.LastError()
}

// Permits returns the permit pool bounding the operations of the guard
func (g *Guard) Permits() *PermitPool {
	return g.permits
}

// Policy returns the default retry policy
func (g *Guard) Policy() RetryPolicy {
	return g.policy
}

// Config returns the effective configuration
func (g *Guard) Config() Config {
	return g.config
}

// Name returns the name of the guard
func (g *Guard) Name() string {
	return g.name
}

// String returns a short description of the guard
func (g *Guard) String() string {
	return fmt.Sprintf("guard %q (%s, %d/%d permits in use)", g.name, g.State(), g.permits.InFlight(), g.permits.Capacity())
}

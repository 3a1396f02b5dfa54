package nosql

import (
	"context"
	"fmt"
	"sync"
)

// Options tune a Manager. Both fields are optional.
type Options struct {
	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used
}

// Manager holds at most one registered DataSource and at most one live Driver.
// The driver is built and connected on the first Instance call and reused by
// every later caller. Close tears it down once.
//
// Re-registering a DataSource after the driver was built does not replace it.
type Manager struct {
	mu     sync.Mutex
	ds     DataSource
	driver Driver
	closed bool

	log   Logger
	hooks Hooks
}

// NewManager returns an empty manager. Register a data source before Instance.
func NewManager(opts Options) *Manager {
	return &Manager{
		log:   coalesce[Logger](opts.Logger, NopLogger{}),
		hooks: coalesce[Hooks](opts.Hooks, NopHooks{}),
	}
}

// Configure swaps the logger and hooks.
func (m *Manager) Configure(opts Options) {
	m.mu.Lock()
	m.log = coalesce[Logger](opts.Logger, NopLogger{})
	m.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	m.mu.Unlock()
}

// SetDataSource registers ds. Later calls overwrite earlier ones until the
// first Instance call builds the driver; after that they have no effect on it.
func (m *Manager) SetDataSource(ds DataSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.driver != nil {
		m.log.Warn("data source registered after driver was built; ignored until restart",
			Fields{"backend": backendOf(ds), "active": backendOf(m.ds)})
	}
	m.ds = ds
}

// Instance returns the shared driver, building and connecting it on first use.
// Construction errors (*ConfigurationError, *ConnectionError) go to the caller
// and nothing is cached, so a later call retries.
func (m *Manager) Instance(ctx context.Context) (Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, &ConnectionError{Backend: backendOf(m.ds), Err: ErrManagerClosed}
	}
	if m.driver != nil {
		return m.driver, nil
	}
	if m.ds == nil {
		return nil, &ConnectionError{Err: ErrNoDataSource}
	}

	backend := m.ds.Backend()
	d := m.ds.Driver()
	if d == nil {
		err := NewConfigurationError(backend, "", "data source returned no driver")
		m.hooks.ConnectFailed(backend, err)
		return nil, err
	}
	if srv, ok := d.(Server); ok {
		if err := srv.Connect(ctx, m.ds); err != nil {
			// release whatever Connect managed to open
			_ = m.disconnect(ctx, backend, srv)
			m.log.Error("connect failed", Fields{"backend": backend, "err": err})
			m.hooks.ConnectFailed(backend, err)
			return nil, err
		}
	}
	m.driver = d
	m.log.Info("driver ready", Fields{"backend": backend})
	m.hooks.Connected(backend)
	return d, nil
}

// Close disconnects the shared driver if it implements Server. It runs once;
// later calls are no-ops. Teardown errors and panics are logged, reported to
// Hooks.TeardownSuppressed and never returned.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	if m.driver == nil {
		return
	}
	backend := backendOf(m.ds)
	if srv, ok := m.driver.(Server); ok {
		if err := m.disconnect(ctx, backend, srv); err != nil {
			m.log.Warn("disconnect failed (suppressed)", Fields{"backend": backend, "err": err})
			m.hooks.TeardownSuppressed(backend, err)
		} else {
			m.log.Info("disconnected", Fields{"backend": backend})
		}
	}
	m.driver = nil
}

func (m *Manager) disconnect(ctx context.Context, backend string, srv Server) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("nosql %s: disconnect panicked: %v", backend, r)
		}
	}()
	return srv.Disconnect(ctx)
}

func backendOf(ds DataSource) string {
	if ds == nil {
		return ""
	}
	return ds.Backend()
}

// std is the process-wide manager behind the package-level functions.
var std = NewManager(Options{})

// Default returns the process-wide manager.
func Default() *Manager { return std }

// SetDataSource registers ds with the process-wide manager.
func SetDataSource(ds DataSource) { std.SetDataSource(ds) }

// Instance returns the process-wide shared driver.
func Instance(ctx context.Context) (Driver, error) { return std.Instance(ctx) }

// Close tears down the process-wide driver. Call it (typically deferred in main)
// when the application scope ends.
func Close(ctx context.Context) { std.Close(ctx) }

package nosql

// Hooks are lightweight callbacks for connection lifecycle events.
// Implementations MUST be cheap and non-blocking; the manager calls them
// while holding its construction lock.
type Hooks interface {
	// A driver was created and, if it implements Server, connected.
	Connected(backend string)

	// Building or connecting the driver failed; the error went to the caller.
	ConnectFailed(backend string, err error)

	// Disconnect failed (or panicked) during Close. The error was swallowed.
	TeardownSuppressed(backend string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Connected(string)                 {}
func (NopHooks) ConnectFailed(string, error)      {}
func (NopHooks) TeardownSuppressed(string, error) {}

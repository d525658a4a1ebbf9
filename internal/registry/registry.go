// Package registry keeps the ordered list of per-device protocol drivers and
// matches a newly seen physical connection against them first-fit. Vendor
// drivers register first and claim exclusively; the generic HID gamepad
// driver is expected last and matches anything no vendor driver wanted, so
// unknown controllers degrade gracefully via descriptor parsing instead of
// being dropped.
package registry

import (
	"fmt"
	"sync"

	"github.com/retropad/corebridge/internal/event"
	"github.com/retropad/corebridge/internal/transport"
)

// Identity is everything the registry knows about a connection before any
// driver has claimed it: advertised name, class-of-device, vendor/product
// ids, and whether the link is BLE.
type Identity struct {
	Name         string
	ClassOfDevice [3]byte
	VendorID     uint16
	ProductID    uint16
	IsBLE        bool
}

// EventSink receives decoded input events from a driver. The router
// implements this; kept as an interface here to avoid an import cycle.
type EventSink interface {
	SubmitInput(e event.Event)
}

// Connection is the per-connection handle a registry hands to the driver
// that claimed it. Ownership is transferred to the driver for the
// connection's lifetime; the registry holds only a back-reference for
// dispatch.
type Connection struct {
	DeviceAddr byte
	Instance   byte
	Identity   Identity
	Raw        transport.Raw
	Sink       EventSink
}

// Source identifies a connection for registry lookups.
type Source = event.Source

// Driver is the capability set every per-device protocol driver implements.
// Each driver owns a fixed-size pool of per-connection state blocks keyed by
// (DeviceAddr, Instance); Init grabs a free block or refuses.
type Driver interface {
	// Name identifies the driver for logging and registration order checks.
	Name() string
	// Match reports whether this driver claims a connection with the given
	// identity. Checked in registration order, first-fit.
	Match(id Identity) bool
	// Init primes a free per-connection state block and queues the driver's
	// init state machine. Returns false on resource exhaustion (no free
	// slot); the caller leaves the device unbound and it remains matchable
	// on the next attempt.
	Init(conn *Connection) bool
	// ProcessReport decodes one report/notification for the connection.
	ProcessReport(conn *Connection, data []byte)
	// Task advances the driver's state machine (timers, keep-alives,
	// feedback dispatch). Called once per scheduler tick for every active
	// connection this driver owns.
	Task(conn *Connection, nowMicros uint64)
	// Disconnect releases the connection's state block. Implementations
	// must clear router state (zero buttons, center sticks) via a final
	// neutral event submitted through conn.Sink before returning, so no
	// stuck input survives the disconnect.
	Disconnect(conn *Connection)
}

type binding struct {
	driver Driver
	conn   *Connection
}

// Registry is the ordered, first-fit device driver list.
type Registry struct {
	mu       sync.Mutex
	drivers  []Driver
	bindings map[Source]*binding
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{bindings: make(map[Source]*binding)}
}

// Register appends d to the end of the match order. Callers must register
// vendor-specific drivers before the generic catch-all.
func (r *Registry) Register(d Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers = append(r.drivers, d)
}

// Drivers returns the registered drivers in match order (for diagnostics).
func (r *Registry) Drivers() []Driver {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Driver, len(r.drivers))
	copy(out, r.drivers)
	return out
}

// Connect matches id against the registered drivers first-fit and, on a
// match, attempts Init. Returns the claiming driver, or an error if no
// driver matched or the matching driver refused for resource exhaustion.
func (r *Registry) Connect(addr, instance byte, id Identity, raw transport.Raw, sink EventSink) (Driver, error) {
	r.mu.Lock()
	drivers := make([]Driver, len(r.drivers))
	copy(drivers, r.drivers)
	r.mu.Unlock()

	for _, d := range drivers {
		if !d.Match(id) {
			continue
		}
		conn := &Connection{DeviceAddr: addr, Instance: instance, Identity: id, Raw: raw, Sink: sink}
		if !d.Init(conn) {
			return nil, fmt.Errorf("registry: driver %q matched %q but refused init (resource exhaustion)", d.Name(), id.Name)
		}
		src := Source{DeviceAddr: addr, Instance: instance}
		r.mu.Lock()
		r.bindings[src] = &binding{driver: d, conn: conn}
		r.mu.Unlock()
		return d, nil
	}
	return nil, fmt.Errorf("registry: no driver matched identity %+v", id)
}

// ProcessReport dispatches a raw report to the driver bound to src, if any.
func (r *Registry) ProcessReport(src Source, data []byte) {
	r.mu.Lock()
	b, ok := r.bindings[src]
	r.mu.Unlock()
	if !ok {
		return
	}
	b.driver.ProcessReport(b.conn, data)
}

// Task advances every currently bound connection's driver state machine.
func (r *Registry) Task(nowMicros uint64) {
	r.mu.Lock()
	bindings := make([]*binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		bindings = append(bindings, b)
	}
	r.mu.Unlock()

	for _, b := range bindings {
		b.driver.Task(b.conn, nowMicros)
	}
}

// Disconnect releases the binding for src, if any, invoking the driver's
// disconnect hook first.
func (r *Registry) Disconnect(src Source) {
	r.mu.Lock()
	b, ok := r.bindings[src]
	if ok {
		delete(r.bindings, src)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	b.driver.Disconnect(b.conn)
}

// Bound reports whether src currently has a claiming driver.
func (r *Registry) Bound(src Source) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.bindings[src]
	return ok
}

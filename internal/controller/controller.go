package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/zoneshadow/internal/journal"
	"github.com/nerrad567/zoneshadow/internal/shadow"
	"github.com/nerrad567/zoneshadow/internal/zone"
)

// ShadowClient is the subset of *shadow.Client the controller drives.
type ShadowClient interface {
	Events() <-chan shadow.Event
	RequestShadow(deviceID string) error
	SubscribeToDelta(deviceID string) error
	ReportState(deviceID string, on bool) error
	Pending() int
}

// Journal records actuation attempts.
type Journal interface {
	Record(ctx context.Context, e *journal.Entry) error
}

// Telemetry receives zone state changes.
type Telemetry interface {
	WriteZoneState(deviceID, zone string, on bool, source string)
}

// Logger defines the logging interface for the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Controller. Client and Zones are required; the rest
// are optional.
type Options struct {
	Client    ShadowClient
	Zones     []*zone.Zone
	Logger    Logger
	Journal   Journal
	Telemetry Telemetry
	Metrics   *Metrics
}

// ZoneStatus is a read-only view of one zone for status reporting.
type ZoneStatus struct {
	Name       string    `json:"name"`
	DeviceID   string    `json:"device_id"`
	State      string    `json:"state"`
	Lines      int       `json:"lines"`
	LastSource string    `json:"last_source,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`
}

// Controller applies shadow desired state to zones and reports it back.
//
// All zone mutation happens on the goroutine running Run. Snapshot and
// Zone may be called from any goroutine.
type Controller struct {
	client    ShadowClient
	order     []*zone.Zone
	zones     map[string]*zone.Zone
	logger    Logger
	journal   Journal
	telemetry Telemetry
	metrics   *Metrics

	statusMu sync.RWMutex
	status   map[string]ZoneStatus
}

// New creates a controller for the given zones.
//
// Returns:
//   - *Controller: ready to Run
//   - error: if Client is nil or two zones share a device id
func New(opts Options) (*Controller, error) {
	if opts.Client == nil {
		return nil, errors.New("controller: shadow client is required")
	}

	c := &Controller{
		client:    opts.Client,
		zones:     make(map[string]*zone.Zone, len(opts.Zones)),
		logger:    opts.Logger,
		journal:   opts.Journal,
		telemetry: opts.Telemetry,
		metrics:   opts.Metrics,
		status:    make(map[string]ZoneStatus, len(opts.Zones)),
	}
	if c.logger == nil {
		c.logger = noopLogger{}
	}

	for _, z := range opts.Zones {
		if _, dup := c.zones[z.DeviceID()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateZone, z.DeviceID())
		}
		c.zones[z.DeviceID()] = z
		c.order = append(c.order, z)
		c.status[z.DeviceID()] = ZoneStatus{
			Name:     z.Name(),
			DeviceID: z.DeviceID(),
			State:    shadow.StateString(z.State()),
			Lines:    z.Lines(),
		}
	}

	return c, nil
}

// Run resynchronises every zone and then processes events until ctx is
// cancelled or the event stream closes.
//
// Returns:
//   - ctx.Err() on cancellation
//   - ErrQueueClosed when the event stream ends; the caller must rebuild
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("controller starting", "zones", len(c.order))
	c.resync()

	events := c.client.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				c.logger.Error("event queue closed")
				return ErrQueueClosed
			}
			c.handle(ctx, ev)
			c.metrics.backlog(c.client.Pending())
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev shadow.Event) {
	c.metrics.event(ev.Kind.String())

	switch ev.Kind {
	case shadow.EventReconnected:
		c.logger.Info("connection restored, resynchronising")
		c.resync()
	case shadow.EventGetResponse:
		c.apply(ctx, ev, journal.SourceGet)
	case shadow.EventDeltaUpdate:
		c.apply(ctx, ev, journal.SourceDelta)
	default:
		c.logger.Warn("ignoring event of unknown kind", "kind", int(ev.Kind))
	}
}

// resync requests the full shadow and subscribes to deltas for every zone,
// in configuration order. Failures are logged per zone and per operation.
func (c *Controller) resync() {
	c.metrics.resync()

	for _, z := range c.order {
		if err := c.client.RequestShadow(z.DeviceID()); err != nil {
			c.logger.Warn("shadow request failed", "device_id", z.DeviceID(), "error", err)
		}
		if err := c.client.SubscribeToDelta(z.DeviceID()); err != nil {
			c.logger.Warn("delta subscribe failed", "device_id", z.DeviceID(), "error", err)
		}
	}
}

// apply decodes the desired value from ev and drives the matching zone.
//
// A get response is always reported back after a successful apply; a delta
// is reported only when the zone actually changed.
func (c *Controller) apply(ctx context.Context, ev shadow.Event, source string) {
	decode := shadow.DecodeDeltaState
	if source == journal.SourceGet {
		decode = shadow.DecodeDesiredState
	}

	value, err := decode(ev.Document)
	if err != nil {
		c.metrics.drop(dropDecode)
		c.logger.Warn("dropping undecodable shadow document",
			"device_id", ev.DeviceID,
			"source", source,
			"payload", string(ev.Document),
			"error", err,
		)
		return
	}

	z, ok := c.zones[ev.DeviceID]
	if !ok {
		c.metrics.drop(dropUnknownZone)
		c.logger.Warn("dropping event",
			"device_id", ev.DeviceID,
			"source", source,
			"error", fmt.Errorf("%w: %s", ErrUnknownZone, ev.DeviceID),
		)
		return
	}

	desired := shadow.IsOn(value)
	start := time.Now()
	changed, err := z.SetState(desired)
	elapsed := time.Since(start).Seconds()

	c.record(ctx, z, source, desired, changed, err)

	if err != nil {
		c.metrics.apply(z.DeviceID(), resultHardware, elapsed)
		c.setStatus(z, source, err)
		c.logger.Error("zone switch failed",
			"zone", z.Name(),
			"device_id", z.DeviceID(),
			"desired", shadow.StateString(desired),
			"error", err,
		)
		return
	}

	result := resultUnchanged
	if changed {
		result = resultChanged
		c.logger.Info("zone switched",
			"zone", z.Name(),
			"device_id", z.DeviceID(),
			"state", shadow.StateString(desired),
			"source", source,
		)
		if c.telemetry != nil {
			c.telemetry.WriteZoneState(z.DeviceID(), z.Name(), desired, source)
		}
	}
	c.metrics.apply(z.DeviceID(), result, elapsed)
	c.metrics.state(z.DeviceID(), z.State())
	c.setStatus(z, source, nil)

	if source == journal.SourceGet || changed {
		err := c.client.ReportState(z.DeviceID(), z.State())
		c.metrics.report(err)
		if err != nil {
			c.logger.Warn("reporting state failed", "device_id", z.DeviceID(), "error", err)
		}
	}
}

func (c *Controller) record(ctx context.Context, z *zone.Zone, source string, desired, changed bool, applyErr error) {
	if c.journal == nil {
		return
	}

	e := &journal.Entry{
		DeviceID: z.DeviceID(),
		Zone:     z.Name(),
		Source:   source,
		Desired:  desired,
		Changed:  changed,
	}
	if applyErr != nil {
		e.Error = applyErr.Error()
	}
	if err := c.journal.Record(ctx, e); err != nil {
		c.logger.Warn("journal write failed", "device_id", z.DeviceID(), "error", err)
	}
}

func (c *Controller) setStatus(z *zone.Zone, source string, err error) {
	s := ZoneStatus{
		Name:       z.Name(),
		DeviceID:   z.DeviceID(),
		State:      shadow.StateString(z.State()),
		Lines:      z.Lines(),
		LastSource: source,
		UpdatedAt:  time.Now().UTC(),
	}
	if err != nil {
		s.LastError = err.Error()
	}

	c.statusMu.Lock()
	c.status[z.DeviceID()] = s
	c.statusMu.Unlock()
}

// Snapshot returns the status of every zone in configuration order.
func (c *Controller) Snapshot() []ZoneStatus {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()

	out := make([]ZoneStatus, 0, len(c.order))
	for _, z := range c.order {
		out = append(out, c.status[z.DeviceID()])
	}
	return out
}

// Zone returns the status of a single zone.
func (c *Controller) Zone(deviceID string) (ZoneStatus, bool) {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	s, ok := c.status[deviceID]
	return s, ok
}

// Close releases every zone's output lines. Call it after Run returns.
func (c *Controller) Close() error {
	var errs []error
	for _, z := range c.order {
		if err := z.Close(); err != nil {
			errs = append(errs, fmt.Errorf("zone %s: %w", z.DeviceID(), err))
		}
	}
	return errors.Join(errs...)
}

// Package host implements §4.7's end-to-end host runtime: it assembles
// internal/hostabi, internal/runtime/alloc, internal/runtime/broker,
// internal/runtime/clockrand, and internal/runtime/effectbus into one
// hostabi.Host per registered spirit, and drives them with
// internal/runtime/scheduler. This is the import object a real wasm
// engine binds the 22 "vudo" imports against, and what a Go-level test
// harness calls directly without an engine at all.
package host

import (
	"github.com/google/uuid"

	"github.com/vudoc/vudoc/internal/diagnostics"
	"github.com/vudoc/vudoc/internal/hostabi"
	"github.com/vudoc/vudoc/internal/runtime/alloc"
	"github.com/vudoc/vudoc/internal/runtime/broker"
	"github.com/vudoc/vudoc/internal/runtime/clockrand"
	"github.com/vudoc/vudoc/internal/runtime/effectbus"
	"github.com/vudoc/vudoc/internal/runtime/scheduler"
)

// Config carries the per-process construction knobs internal/config loads
// from vudoc.toml/VUDOC_SEED.
type Config struct {
	HeapCapacity  int32 // bytes available to each spirit's bump allocator
	Seed          int64
	Deterministic bool
	PoolSize      int
	Logger        *diagnostics.Logger
}

// Runtime owns the services shared across every spirit registered with it:
// one message broker, one effect bus, one scheduler. Each spirit gets its
// own allocator (guest memory is per-instance) and its own hostabi.Host
// binding those shared services plus its private allocator.
type Runtime struct {
	cfg       Config
	broker    *broker.Broker
	effects   *effectbus.Bus
	scheduler *scheduler.Scheduler
	clock     *clockrand.Clock
	random    *clockrand.Random
}

// New assembles a Runtime. Deterministic mode (cfg.Deterministic, set by
// internal/config from VUDOC_SEED) routes the clock and random provider
// through their virtual-time/seeded variants.
func New(cfg Config) (*Runtime, error) {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 32
	}
	if cfg.HeapCapacity <= 0 {
		cfg.HeapCapacity = 16 << 20
	}
	sched, err := scheduler.New(cfg.PoolSize)
	if err != nil {
		return nil, err
	}
	var clock *clockrand.Clock
	var random *clockrand.Random
	if cfg.Deterministic {
		clock = clockrand.NewDeterministicClock()
		random = clockrand.NewSeededRandom(cfg.Seed)
	} else {
		clock = clockrand.NewClock()
		random = clockrand.NewRandom()
	}
	return &Runtime{
		cfg:       cfg,
		broker:    broker.New(),
		effects:   effectbus.New(cfg.Logger),
		scheduler: sched,
		clock:     clock,
		random:    random,
	}, nil
}

// Spirit is one registered guest instance: its hostabi.Host (the 22
// import implementations) and the bookkeeping needed to unregister it.
type Spirit struct {
	ID   string
	Host *hostabi.Host

	rt    *Runtime
	alloc *alloc.Bump
}

// NewSpirit registers a spirit. An empty id generates one via
// google/uuid (§2 DOMAIN STACK: "spirit instance id generation when
// caller doesn't supply one").
func (rt *Runtime) NewSpirit(id string) *Spirit {
	if id == "" {
		id = uuid.NewString()
	}
	rt.broker.Register(id)
	bump := alloc.NewDefault(rt.cfg.HeapCapacity)
	sp := &Spirit{ID: id, rt: rt, alloc: bump}
	sp.Host = &hostabi.Host{
		SpiritID: id,
		Alloc:    bump,
		Broker:   rt.broker,
		Clock:    rt.clock,
		Random:   rt.random,
		Effects:  &spiritEffects{bus: rt.effects, spirit: sp},
		Debug:    debugLogger{log: rt.cfg.Logger},
		Log:      rt.cfg.Logger,
	}
	return sp
}

// Unregister tears the spirit's broker inbox down (§4.7: "torn down on
// unregistration, which drains and frees all pending messages").
func (sp *Spirit) Unregister() { sp.rt.broker.Unregister(sp.ID) }

// LiveAllocations reports the spirit's allocator's current live count,
// the observable §8 scenario S3 checks against.
func (sp *Spirit) LiveAllocations() int { return sp.alloc.LiveCount() }

// Run submits entry to the shared scheduler under this spirit's id.
func (rt *Runtime) Run(spiritID string, entry func() error) error {
	return rt.scheduler.Run(spiritID, entry)
}

// Wait blocks until every spirit submitted via Run has finished.
func (rt *Runtime) Wait() []scheduler.Outcome { return rt.scheduler.Wait() }

// Release shuts down the scheduler pool.
func (rt *Runtime) Release() { rt.scheduler.Release() }

// Subscribe registers a Go-level handler on the shared effect bus —
// exposed for a host driver or test harness wanting to observe effects
// emitted by any spirit, independent of the guest-facing vudo_subscribe.
func (rt *Runtime) Subscribe(pattern string, handler effectbus.Handler) int32 {
	return rt.effects.SubscribeHandler(pattern, handler)
}

// spiritEffects adapts the shared effect bus to hostabi.EffectBus for one
// spirit: vudo_subscribe (called from inside that spirit's own guest code)
// registers a handler that relays the event back into the spirit's own
// broker inbox as a Structured message, since the guest has no Go closure
// to hand the bus directly.
type spiritEffects struct {
	bus    *effectbus.Bus
	spirit *Spirit
}

func (e *spiritEffects) Emit(payloadJSON []byte) hostabi.ResultCode {
	return e.bus.Emit(payloadJSON)
}

func (e *spiritEffects) Subscribe(channel string) int32 {
	return e.bus.SubscribeHandler(channel, func(event effectbus.Event) hostabi.ResultCode {
		envelope, err := effectbus.NormalizeEnvelope(event)
		if err != nil {
			return hostabi.Error
		}
		msg := hostabi.Message{
			Sender:      "effects",
			TimestampMs: uint64(event.TimestampMs),
			PayloadType: hostabi.PayloadStructured,
			Payload:     envelope,
		}
		return e.spirit.rt.broker.Send("effects", e.spirit.ID, msg)
	})
}

type debugLogger struct{ log *diagnostics.Logger }

func (d debugLogger) Breakpoint() {
	if d.log != nil {
		d.log.Debug("vudo_breakpoint hit")
	}
}

func (d debugLogger) AssertFailed(message string) {
	if d.log != nil {
		d.log.Error("assertion failed: %s", message)
	}
}

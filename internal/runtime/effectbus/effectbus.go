// Package effectbus implements §4.7's effects subsystem: a subscription
// table keyed by channel pattern (literal or "*" wildcard), JSON effect
// payload parsing via tidwall/gjson, envelope normalization via
// tidwall/sjson, and in-subscription-id-order dispatch (§5: "Effect
// dispatch for a single emit_effect notifies subscribers in
// subscription-id order").
package effectbus

import (
	"sort"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/vudoc/vudoc/internal/diagnostics"
	"github.com/vudoc/vudoc/internal/hostabi"
)

// Event is the decoded form of an emit_effect payload:
// {effect_type, payload, timestamp?}.
type Event struct {
	EffectType  string
	Payload     string // raw JSON value of the "payload" field
	TimestampMs int64
}

// Handler is notified of every Event whose channel pattern matches. It
// returns the result code Emit should surface to the caller when this
// handler is the one that determined the outcome.
type Handler func(Event) hostabi.ResultCode

type subscription struct {
	id      int32
	pattern string
	handler Handler
}

// Bus holds the subscription table and dispatches emitted effects.
type Bus struct {
	mu     sync.Mutex
	subs   []subscription
	nextID int32
	log    *diagnostics.Logger
}

// New creates an empty Bus. log may be nil (subscriber panics are then
// swallowed silently, matching "caught and logged" degrading gracefully
// to "caught" when there is nowhere to log to).
func New(log *diagnostics.Logger) *Bus {
	return &Bus{log: log}
}

// Subscribe implements hostabi.EffectBus's subscription half: pattern is
// either a literal channel name or "*" for every channel. Returns a
// subscription id ≥ 1 (§4.6 primitive #19).
func (b *Bus) Subscribe(pattern string) int32 {
	return b.SubscribeHandler(pattern, nil)
}

// SubscribeHandler is the Go-side entry point a host driver or test uses
// to actually receive dispatched events; vudo_subscribe (the guest-facing
// primitive) only reserves an id via Subscribe, since the guest has no Go
// closure to hand the bus — internal/runtime/host wires a guest
// subscription's handler to deliver the event as a message into that
// spirit's own broker inbox.
func (b *Bus) SubscribeHandler(pattern string, handler Handler) int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subs = append(b.subs, subscription{id: b.nextID, pattern: pattern, handler: handler})
	return b.nextID
}

// Unsubscribe removes a previously issued subscription id.
func (b *Bus) Unsubscribe(id int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

func matches(pattern, effectType string) bool {
	return pattern == "*" || pattern == effectType
}

// Emit implements vudo_emit_effect (#18): parses payloadJSON as
// {effect_type, payload, timestamp?}, dispatches to every subscriber whose
// pattern matches effect_type in ascending subscription-id order, and
// returns the result code. A malformed payload (missing effect_type) is
// InvalidArg; a subscriber handler panicking is caught and logged, and
// does not prevent the remaining subscribers from running (§4.7).
//
// Open Question decision: when more than one subscriber matches, Emit
// returns the first non-Ok code reported, or Ok if every matching handler
// (including zero of them) succeeded — §4.7's "returns the handler's
// result code" is singular and does not say what happens when several
// subscribers exist for one channel.
func (b *Bus) Emit(payloadJSON []byte) hostabi.ResultCode {
	if !gjson.ValidBytes(payloadJSON) {
		b.warn("emit_effect: payload is not valid JSON")
		return hostabi.InvalidArg
	}
	parsed := gjson.ParseBytes(payloadJSON)
	effectType := parsed.Get("effect_type")
	if !effectType.Exists() || effectType.String() == "" {
		b.warn("emit_effect: missing effect_type")
		return hostabi.InvalidArg
	}

	ts := parsed.Get("timestamp")
	timestampMs := ts.Int()
	if !ts.Exists() {
		timestampMs = time.Now().UnixMilli()
	}
	event := Event{
		EffectType:  effectType.String(),
		Payload:     parsed.Get("payload").Raw,
		TimestampMs: timestampMs,
	}

	b.mu.Lock()
	matched := make([]subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if matches(s.pattern, event.EffectType) {
			matched = append(matched, s)
		}
	}
	b.mu.Unlock()
	sort.Slice(matched, func(i, j int) bool { return matched[i].id < matched[j].id })

	result := hostabi.Ok
	for _, s := range matched {
		if s.handler == nil {
			continue
		}
		code := b.invoke(s, event)
		if code != hostabi.Ok && result == hostabi.Ok {
			result = code
		}
	}
	return result
}

// invoke runs one handler with panic recovery so a misbehaving subscriber
// cannot abort dispatch to the rest of the table.
func (b *Bus) invoke(s subscription, event Event) (code hostabi.ResultCode) {
	defer func() {
		if r := recover(); r != nil {
			b.warn("subscriber %d (%s) panicked: %v", s.id, s.pattern, r)
			code = hostabi.Error
		}
	}()
	return s.handler(event)
}

func (b *Bus) warn(format string, args ...interface{}) {
	if b.log != nil {
		b.log.Warn(format, args...)
	}
}

// NormalizeEnvelope rebuilds a canonical {effect_type, payload, timestamp}
// JSON document, used when relaying an Event to a guest's inbox as a
// Structured message (internal/runtime/host wires this so a guest
// subscription receives exactly the shape it would have sent).
func NormalizeEnvelope(event Event) ([]byte, error) {
	doc := []byte(`{}`)
	var err error
	doc, err = sjson.SetBytes(doc, "effect_type", event.EffectType)
	if err != nil {
		return nil, err
	}
	doc, err = sjson.SetRawBytes(doc, "payload", []byte(orEmptyJSON(event.Payload)))
	if err != nil {
		return nil, err
	}
	doc, err = sjson.SetBytes(doc, "timestamp", event.TimestampMs)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func orEmptyJSON(raw string) string {
	if raw == "" {
		return "null"
	}
	return raw
}

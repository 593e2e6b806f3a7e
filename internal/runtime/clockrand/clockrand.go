// Package clockrand implements §4.7's time and random providers: a wall
// clock, a strictly non-decreasing monotonic clock (§8 invariant 8), and a
// random source that prefers crypto/rand and falls back to a seeded
// pseudorandom one for deterministic tests, mirroring the teacher's
// AILANG_SEED / virtual-time pattern under VUDOC_SEED.
package clockrand

import (
	crand "crypto/rand"
	"math/rand/v2"
	"os"
	"strconv"
	"sync"
	"time"
)

// SeedEnvVar is the environment variable that puts the clock and random
// provider into deterministic mode, renamed from the teacher's
// AILANG_SEED for this project's own namespace.
const SeedEnvVar = "VUDOC_SEED"

// LoadSeed reads VUDOC_SEED; ok is false when unset or unparsable, in
// which case production (wall-clock, crypto-random) mode applies.
func LoadSeed() (seed int64, ok bool) {
	raw := os.Getenv(SeedEnvVar)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Clock provides vudo_now and vudo_monotonic_now (§4.6 primitives #8, #10).
//
// Production mode: now() is epoch + time.Since(startTime) rather than a
// fresh time.Now() call, so an NTP step or manual clock change during a
// run cannot make monotonic_now (or now) appear to go backwards.
// Deterministic mode (VUDOC_SEED set): both read a virtual nanosecond
// counter that never consults the real clock; Sleep advances it by the slept
// duration and each MonotonicNanos call advances it by one nanosecond.
type Clock struct {
	mu            sync.Mutex
	startTime     time.Time
	epochMs       int64
	virtualNs     int64
	monoNs        int64
	deterministic bool
}

// NewClock creates a production clock anchored to the current time.
func NewClock() *Clock {
	now := time.Now()
	return &Clock{startTime: now, epochMs: now.UnixMilli()}
}

// NewDeterministicClock creates a clock whose now()/monotonic_now() never
// touch the real wall clock; seed only affects NewRandom, not the clock
// itself, but deterministic mode is still keyed off VUDOC_SEED being set.
func NewDeterministicClock() *Clock {
	return &Clock{deterministic: true}
}

func (c *Clock) NowUnixMilli() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deterministic {
		return c.virtualNs / int64(time.Millisecond)
	}
	return c.epochMs + time.Since(c.startTime).Milliseconds()
}

// MonotonicNanos returns a strictly non-decreasing nanosecond counter.
// Production mode delegates to time.Since, which on every supported Go
// platform is backed by a monotonic clock reading, and a reading that does
// not exceed the previous one is bumped to previous+1; deterministic mode
// adds one nanosecond to the virtual counter on every call, so two
// back-to-back calls with no Sleep between them still return increasing
// values.
func (c *Clock) MonotonicNanos() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deterministic {
		c.virtualNs++
		return c.virtualNs
	}
	n := time.Since(c.startTime).Nanoseconds()
	if n <= c.monoNs {
		n = c.monoNs + 1
	}
	c.monoNs = n
	return n
}

// Sleep implements vudo_sleep (#9): a real delay in production mode, a
// virtual-time advance with no actual wait in deterministic mode.
func (c *Clock) Sleep(d time.Duration) {
	c.mu.Lock()
	if c.deterministic {
		c.virtualNs += int64(d)
		c.monoNs += int64(d)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	time.Sleep(d)
}

// Random provides vudo_random and vudo_random_bytes (§4.6 primitives #16,
// #17). Production mode prefers crypto/rand; deterministic mode (an
// explicit seed) uses math/rand/v2's PCG source so a VUDOC_SEED run is
// byte-for-byte reproducible across invocations.
type Random struct {
	mu  sync.Mutex
	det *rand.Rand // nil in production mode
}

// NewRandom creates a production Random backed by crypto/rand.
func NewRandom() *Random { return &Random{} }

// NewSeededRandom creates a deterministic Random for VUDOC_SEED mode.
func NewSeededRandom(seed int64) *Random {
	return &Random{det: rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))}
}

func (r *Random) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.det != nil {
		return r.det.Float64()
	}
	var b [8]byte
	if _, err := crand.Reader.Read(b[:]); err != nil {
		return 0
	}
	// 53 bits of entropy into [0,1), matching math/rand's Float64 contract.
	return float64(uint64FromBytes(b[:])>>11) / (1 << 53)
}

func (r *Random) Bytes(n int32) []byte {
	if n <= 0 {
		return nil
	}
	out := make([]byte, n)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.det != nil {
		for i := range out {
			out[i] = byte(r.det.IntN(256))
		}
		return out
	}
	if _, err := crand.Read(out); err != nil {
		// crypto/rand failing indicates a broken OS entropy source; rather
		// than returning a short read to the guest, fall back to
		// math/rand/v2's pseudorandom generator. No warning is logged:
		// Random holds no logger.
		for i := range out {
			out[i] = byte(rand.IntN(256))
		}
	}
	return out
}

func uint64FromBytes(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

package scanner

import (
	"strings"
	"time"
	"unicode"

	"github.com/pontodigital/pdv-backend/pkg/config"
)

// bufferCap bounds the rolling keystroke buffer; the oldest character is
// dropped once the cap is hit.
const bufferCap = 50

// Thresholds parameterize the scanner-vs-typing heuristic so it can be
// tuned and tested without simulating real keyboard timing.
type Thresholds struct {
	MaxPerChar time.Duration
	Debounce   time.Duration
	IdleClear  time.Duration
	MinLength  int
}

// DefaultThresholds matches the tuning the terminals ship with.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxPerChar: 80 * time.Millisecond,
		Debounce:   500 * time.Millisecond,
		IdleClear:  3 * time.Second,
		MinLength:  3,
	}
}

// ThresholdsFromConfig builds thresholds from the runtime configuration.
func ThresholdsFromConfig(cfg config.ScannerConfig) Thresholds {
	return Thresholds{
		MaxPerChar: time.Duration(cfg.MaxMillisPerChar) * time.Millisecond,
		Debounce:   time.Duration(cfg.DebounceMillis) * time.Millisecond,
		IdleClear:  time.Duration(cfg.IdleClearMillis) * time.Millisecond,
		MinLength:  cfg.MinLength,
	}
}

// Capture is the keystroke state machine that separates hardware-scanner
// bursts from human typing. Callers feed it timestamped keystrokes; it
// never touches the sale state itself, only hands back completed codes.
//
// Times are passed in explicitly so bursts can be replayed over HTTP or
// in tests with exact offsets.
type Capture struct {
	thresholds Thresholds

	buffer       []rune
	startedAt    time.Time
	lastKeyAt    time.Time
	lastAccepted time.Time
}

func NewCapture(thresholds Thresholds) *Capture {
	return &Capture{thresholds: thresholds}
}

// Key appends one printable keystroke at the given instant. Non-printable
// runes are ignored. A gap longer than the idle-clear threshold discards
// the stale partial buffer first.
func (c *Capture) Key(at time.Time, r rune) {
	if !unicode.IsPrint(r) || r == ' ' {
		return
	}

	if len(c.buffer) > 0 && at.Sub(c.lastKeyAt) > c.thresholds.IdleClear {
		c.buffer = c.buffer[:0]
	}
	if len(c.buffer) == 0 {
		c.startedAt = at
	}

	c.buffer = append(c.buffer, r)
	if len(c.buffer) > bufferCap {
		c.buffer = c.buffer[1:]
	}
	c.lastKeyAt = at
}

// Enter resolves the buffer at the given instant. The buffer counts as a
// scan only when the average per-character pace is below the threshold,
// the debounce window since the last accepted scan has passed, and the
// buffer is long enough. The buffer is consumed either way.
func (c *Capture) Enter(at time.Time) (string, bool) {
	code := string(c.buffer)
	length := len(c.buffer)
	startedAt := c.startedAt
	c.buffer = c.buffer[:0]

	if length < c.thresholds.MinLength {
		return "", false
	}

	elapsed := at.Sub(startedAt)
	perChar := elapsed / time.Duration(max(1, length))
	if perChar >= c.thresholds.MaxPerChar {
		return "", false
	}

	// Debounce runs from the last accepted scan, not the last keystroke,
	// so duplicate trigger events from one physical scan are dropped.
	if !c.lastAccepted.IsZero() && at.Sub(c.lastAccepted) < c.thresholds.Debounce {
		return "", false
	}

	c.lastAccepted = at
	return strings.TrimSpace(code), true
}

package scanner

import (
	"testing"
	"time"
)

func feed(c *Capture, base time.Time, code string, perChar time.Duration) time.Time {
	at := base
	for _, r := range code {
		c.Key(at, r)
		at = at.Add(perChar)
	}
	return at
}

func TestCaptureAcceptsFastBurst(t *testing.T) {
	c := NewCapture(DefaultThresholds())
	base := time.Now()

	// 13 characters inside 200ms, well under 80ms/char.
	end := feed(c, base, "2000001001250", 200*time.Millisecond/13)
	code, ok := c.Enter(end)
	if !ok {
		t.Fatal("fast burst should be classified as a scan")
	}
	if code != "2000001001250" {
		t.Fatalf("code = %q", code)
	}
}

func TestCaptureRejectsSlowTyping(t *testing.T) {
	c := NewCapture(DefaultThresholds())
	base := time.Now()

	// Same 13 characters over 3000ms is human typing.
	end := feed(c, base, "2000001001250", 3000*time.Millisecond/13)
	if _, ok := c.Enter(end); ok {
		t.Fatal("slow typing should be discarded")
	}
}

func TestCaptureRejectsShortBuffer(t *testing.T) {
	c := NewCapture(DefaultThresholds())
	base := time.Now()
	end := feed(c, base, "12", 10*time.Millisecond)
	if _, ok := c.Enter(end); ok {
		t.Fatal("buffers below the minimum length should be discarded")
	}
}

func TestCaptureDebounceFromLastAcceptedScan(t *testing.T) {
	c := NewCapture(DefaultThresholds())
	base := time.Now()

	end := feed(c, base, "7891000100103", 10*time.Millisecond)
	if _, ok := c.Enter(end); !ok {
		t.Fatal("first scan should be accepted")
	}

	// A different code 100ms later is still inside the debounce window
	// and is dropped even though it is a genuine scan.
	second := end.Add(100 * time.Millisecond)
	end = feed(c, second, "7891000100104", 10*time.Millisecond)
	if _, ok := c.Enter(end); ok {
		t.Fatal("scan inside the debounce window should be dropped")
	}

	// Past the window the next scan goes through.
	third := end.Add(600 * time.Millisecond)
	end = feed(c, third, "7891000100104", 10*time.Millisecond)
	if _, ok := c.Enter(end); !ok {
		t.Fatal("scan after the debounce window should be accepted")
	}
}

func TestCaptureIdleClear(t *testing.T) {
	c := NewCapture(DefaultThresholds())
	base := time.Now()

	feed(c, base, "789", 10*time.Millisecond)

	// After 4s of silence the stale partial is dropped; the new burst
	// stands alone.
	resume := base.Add(4 * time.Second)
	end := feed(c, resume, "7891000100103", 10*time.Millisecond)
	code, ok := c.Enter(end)
	if !ok {
		t.Fatal("fresh burst after idle clear should be accepted")
	}
	if code != "7891000100103" {
		t.Fatalf("stale prefix leaked into the code: %q", code)
	}
}

func TestCaptureBufferCapDropsOldest(t *testing.T) {
	c := NewCapture(DefaultThresholds())
	base := time.Now()

	at := base
	for i := 0; i < bufferCap+5; i++ {
		c.Key(at, 'a')
		at = at.Add(time.Millisecond)
	}
	c.Key(at, 'z')

	code, ok := c.Enter(at.Add(time.Millisecond))
	if !ok {
		t.Fatal("burst should be accepted")
	}
	if len(code) != bufferCap {
		t.Fatalf("buffer length = %d, want %d", len(code), bufferCap)
	}
	if code[len(code)-1] != 'z' {
		t.Fatal("newest character should be kept")
	}
}

func TestCaptureIgnoresNonPrintable(t *testing.T) {
	c := NewCapture(DefaultThresholds())
	base := time.Now()

	c.Key(base, '\t')
	end := feed(c, base.Add(time.Millisecond), "789100", 5*time.Millisecond)
	code, ok := c.Enter(end)
	if !ok || code != "789100" {
		t.Fatalf("code = %q, ok = %v", code, ok)
	}
}

package backtrace

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureHere(d *Depot) *Backtrace {
	return d.Capture(0)
}

func TestCaptureStack(t *testing.T) {
	d := NewDepot(0)
	assert.Equal(t, DefaultMaxFrames, d.MaxFrames())

	bt := d.Capture(0)
	require.NotNil(t, bt)
	assert.NotZero(t, bt.ID())
	assert.Positive(t, bt.Depth())
	assert.Same(t, bt, d.Lookup(bt.ID()))
}

func TestCaptureDeduplicates(t *testing.T) {
	d := NewDepot(8)

	var got []*Backtrace
	for i := 0; i < 3; i++ {
		got = append(got, d.Capture(0))
	}
	assert.Same(t, got[0], got[1])
	assert.Same(t, got[1], got[2])

	unique, mem := d.Stats()
	assert.Equal(t, 1, unique)
	assert.Positive(t, mem)
}

func TestCaptureDistinctSites(t *testing.T) {
	d := NewDepot(8)
	a := d.Capture(0)
	b := captureHere(d)
	assert.NotEqual(t, a.ID(), b.ID())

	unique, _ := d.Stats()
	assert.Equal(t, 2, unique)
}

func TestCaptureSkip(t *testing.T) {
	d := NewDepot(16)
	bt := captureHere(d)
	require.NotEmpty(t, bt.Frames())
	assert.True(t, strings.HasSuffix(bt.Frames()[0].Function, ".captureHere"), bt.Frames()[0].Function)

	// Skipping one frame starts at the test function.
	bt = func() *Backtrace { return d.Capture(1) }()
	require.NotEmpty(t, bt.Frames())
	assert.True(t, strings.HasSuffix(bt.Frames()[0].Function, ".TestCaptureSkip"), bt.Frames()[0].Function)
}

func TestMaxFramesBoundsDepth(t *testing.T) {
	d := NewDepot(2)
	bt := d.Capture(0)
	assert.LessOrEqual(t, bt.Depth(), 2)
}

func TestLookupMissing(t *testing.T) {
	d := NewDepot(0)
	assert.Nil(t, d.Lookup(0))
	assert.Nil(t, d.Lookup(0x123456789abcdef0))
}

func TestFormat(t *testing.T) {
	d := NewDepot(0)
	bt := d.Capture(0)

	out := bt.Format()
	assert.Contains(t, out, "TestFormat()")
	assert.Contains(t, out, "backtrace_test.go:")
	assert.NotContains(t, out, "runtime.goexit")
	assert.Equal(t, out, bt.String())
	assert.Contains(t, bt.Top(), "TestFormat")
}

func TestFormatNil(t *testing.T) {
	var bt *Backtrace
	assert.Equal(t, "N/A", bt.Top())
	assert.Contains(t, bt.Format(), "no backtrace")
}

func TestNewCopiesPCs(t *testing.T) {
	pcs := []uintptr{1, 2, 3}
	bt := New(pcs)
	pcs[0] = 99
	assert.Equal(t, []uintptr{1, 2, 3}, bt.PCs())
	assert.Equal(t, New([]uintptr{1, 2, 3}).ID(), bt.ID())
}

func TestSkipFrame(t *testing.T) {
	assert.True(t, skipFrame("runtime.goexit"))
	assert.True(t, skipFrame("github.com/kolkov/leaktrack/internal/leak/tracker.(*Tracker).record"))
	assert.True(t, skipFrame("github.com/kolkov/leaktrack/leak.RecordCreation"))
	assert.True(t, skipFrame("main.record_gc_object_creation"))
	assert.True(t, skipFrame("record_gc_object_creation"))
	assert.True(t, skipFrame("main._cgoexp_0123abcd_record_gc_object_creation"))
	assert.True(t, skipFrame("_cgo_0123abcd_Cfunc_js_new_shape"))
	assert.False(t, skipFrame("main.newObject"))
	assert.False(t, skipFrame("js_new_shape"))
}

func TestInternDeduplicates(t *testing.T) {
	d := NewDepot(4)
	pcs := []uintptr{0x1000, 0x2000, 0x3000}
	a := d.Intern(pcs)
	require.NotNil(t, a)
	pcs[0] = 0x9000
	b := d.Intern([]uintptr{0x1000, 0x2000, 0x3000})
	assert.Same(t, a, b)
	assert.Same(t, a, d.Lookup(a.ID()))
	assert.NotSame(t, a, d.Intern(pcs))
}

func TestInternTruncatesAndRejectsEmpty(t *testing.T) {
	d := NewDepot(2)
	bt := d.Intern([]uintptr{1, 2, 3, 4})
	assert.Equal(t, []uintptr{1, 2}, bt.PCs())
	assert.Nil(t, d.Intern(nil))
}

func TestFrameStringWithoutLine(t *testing.T) {
	f := Frame{Function: "js_new_shape", File: "/usr/lib/libqjs.so"}
	assert.Equal(t, "js_new_shape /usr/lib/libqjs.so", f.String())
	f.Line = 12
	assert.Equal(t, "js_new_shape /usr/lib/libqjs.so:12", f.String())
}

func TestReset(t *testing.T) {
	d := NewDepot(0)
	bt := d.Capture(0)
	d.Reset()
	assert.Nil(t, d.Lookup(bt.ID()))
	assert.NotEmpty(t, bt.Format())
}

func TestConcurrentCapture(t *testing.T) {
	d := NewDepot(0)
	const goroutines = 32

	results := make([]*Backtrace, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = captureHere(d)
		}(i)
	}
	wg.Wait()

	// Every goroutine has the same stack, so all of them share one entry.
	for _, bt := range results[1:] {
		assert.Same(t, results[0], bt)
	}
	unique, _ := d.Stats()
	assert.Equal(t, 1, unique)
}

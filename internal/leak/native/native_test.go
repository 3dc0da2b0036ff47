//go:build cgo && (linux || darwin)

package native_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/leaktrack/internal/leak/native/nativetest"
	"github.com/kolkov/leaktrack/leak"
)

func useTracker(t *testing.T) *leak.Tracker {
	t.Helper()
	tr := leak.NewTracker()
	leak.SetDefault(tr)
	t.Cleanup(func() { leak.SetDefault(nil) })
	return tr
}

// Headers are passed to C unlinked: cgo forbids Go pointers inside memory
// handed to C.
func TestCreationRecordsCallingCFunction(t *testing.T) {
	tr := useTracker(t)

	shape, code := &leak.ObjectHeader{}, &leak.ObjectHeader{}
	nativetest.NewShape(shape)
	nativetest.NewBytecode(code)

	shapeBT, ok := tr.Ledger().Lookup(shape.Identity())
	require.True(t, ok)
	require.NotNil(t, shapeBT)
	codeBT, ok := tr.Ledger().Lookup(code.Identity())
	require.True(t, ok)
	require.NotNil(t, codeBT)

	assert.NotEqual(t, shapeBT.ID(), codeBT.ID())
	assert.Contains(t, shapeBT.Top(), "js_new_shape")
	assert.Contains(t, codeBT.Top(), "js_new_bytecode")
	assert.NotContains(t, shapeBT.Format(), "record_gc_object_creation")
	assert.NotContains(t, shapeBT.Format(), "_cgoexp_")
}

func TestSameCSiteSharesBacktrace(t *testing.T) {
	tr := useTracker(t)

	a, b := &leak.ObjectHeader{}, &leak.ObjectHeader{}
	nativetest.NewShape(a)
	nativetest.NewShape(b)

	btA, _ := tr.Ledger().Lookup(a.Identity())
	btB, _ := tr.Ledger().Lookup(b.Identity())
	assert.Same(t, btA, btB)
	assert.Equal(t, 2, tr.Ledger().Len())
}

func TestDisabledTrackerIgnoresNativeCreation(t *testing.T) {
	tr := useTracker(t)
	tr.SetEnabled(false)

	nativetest.NewShape(&leak.ObjectHeader{})
	assert.Equal(t, 0, tr.Ledger().Len())
}

func TestGetBacktrace(t *testing.T) {
	useTracker(t)

	out := nativetest.DumpStack()
	assert.Contains(t, out, "js_dump_stack")
	assert.NotContains(t, out, "get_backtrace")
}

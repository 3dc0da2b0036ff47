package layout

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkOffsetMatchesFieldOrder(t *testing.T) {
	var h ObjectHeader
	// int32 + uint8 + uint8 + uint16 packs into 8 bytes on every target.
	assert.Equal(t, uintptr(8), LinkOffset)
	assert.Equal(t, unsafe.Offsetof(h.Link), LinkOffset)
}

func TestRecoverHeader(t *testing.T) {
	headers := make([]ObjectHeader, 4)
	for i := range headers {
		got := RecoverHeader(&headers[i].Link)
		require.Same(t, &headers[i], got)
	}
}

func TestIdentityIsHeaderAddress(t *testing.T) {
	h := &ObjectHeader{}
	assert.Equal(t, Identity(uintptr(unsafe.Pointer(h))), h.Identity())
	assert.Equal(t, h.Identity(), RecoverHeader(&h.Link).Identity())
}

func TestDecodeTypeTag(t *testing.T) {
	want := []TypeTag{
		TypeJSObject,
		TypeFunctionBytecode,
		TypeShape,
		TypeVarRef,
		TypeAsyncFunction,
		TypeJSContext,
	}
	for nibble := 0; nibble < 16; nibble++ {
		// High nibble must not influence the tag.
		for _, high := range []uint8{0x00, 0x50, 0xF0} {
			got := DecodeTypeTag(high | uint8(nibble))
			if nibble < len(want) {
				assert.Equal(t, want[nibble], got, "nibble %d", nibble)
				assert.True(t, got.Known())
			} else {
				assert.Equal(t, TypeUnknown, got, "nibble %d", nibble)
				assert.False(t, got.Known())
			}
		}
	}
}

func TestTypeTagString(t *testing.T) {
	cases := map[TypeTag]string{
		TypeJSObject:         "JS_OBJECT",
		TypeFunctionBytecode: "FUNCTION_BYTECODE",
		TypeShape:            "SHAPE",
		TypeVarRef:           "VAR_REF",
		TypeAsyncFunction:    "ASYNC_FUNCTION",
		TypeJSContext:        "JS_CONTEXT",
		TypeUnknown:          "UNKNOWN",
		TypeTag(6):           "UNKNOWN",
	}
	for tag, name := range cases {
		assert.Equal(t, name, tag.String())
	}
}

func TestMarkBitsAllBytes(t *testing.T) {
	for b := 0; b < 256; b++ {
		assert.Equal(t, uint8(b>>4)&0x0F, MarkBits(uint8(b)))
	}
}

func TestPackMarkRoundTrip(t *testing.T) {
	mark := PackMark(TypeShape, 0x9)
	assert.Equal(t, TypeShape, DecodeTypeTag(mark))
	assert.Equal(t, uint8(0x9), MarkBits(mark))

	h := ObjectHeader{GCObjMark: mark, RefCount: 3, Reserved1: 7, Reserved2: 300}
	s := h.Snapshot()
	assert.Equal(t, h.Identity(), s.ID)
	assert.Equal(t, TypeShape, s.Type())
	assert.Equal(t, uint8(0x9), s.Mark())
	assert.Equal(t, int32(3), s.RefCount)
	assert.Equal(t, uint16(300), s.Reserved2)
}

func TestSchemaValidate(t *testing.T) {
	native := Native()
	require.NoError(t, native.Validate(native))

	t.Run("minor version is compatible", func(t *testing.T) {
		host := native
		host.Version = "v1.4.2"
		assert.NoError(t, native.Validate(host))
	})

	t.Run("major version mismatch", func(t *testing.T) {
		host := native
		host.Version = "v2.0.0"
		err := native.Validate(host)
		assert.True(t, errors.Is(err, ErrIncompatibleVersion))
	})

	t.Run("invalid version", func(t *testing.T) {
		host := native
		host.Version = "1.0"
		assert.ErrorIs(t, native.Validate(host), ErrIncompatibleVersion)
	})

	t.Run("all mismatches are reported", func(t *testing.T) {
		host := native
		host.LinkOffset = 16
		host.Size = native.Size + 8
		err := native.Validate(host)
		require.ErrorIs(t, err, ErrSchemaMismatch)
		assert.Contains(t, err.Error(), "link offset")
		assert.Contains(t, err.Error(), "size")
		assert.Contains(t, err.Error(), "2 errors occurred")
	})
}

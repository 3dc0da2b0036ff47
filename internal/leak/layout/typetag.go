package layout

// TypeTag is the GC object type stored in the low nibble of the mark byte.
type TypeTag uint8

// Known type tags. Values are the raw nibble values written by the host.
const (
	TypeJSObject TypeTag = iota
	TypeFunctionBytecode
	TypeShape
	TypeVarRef
	TypeAsyncFunction
	TypeJSContext

	// TypeUnknown is returned for any nibble outside the known set.
	TypeUnknown TypeTag = 0xFF
)

var typeNames = [...]string{
	TypeJSObject:         "JS_OBJECT",
	TypeFunctionBytecode: "FUNCTION_BYTECODE",
	TypeShape:            "SHAPE",
	TypeVarRef:           "VAR_REF",
	TypeAsyncFunction:    "ASYNC_FUNCTION",
	TypeJSContext:        "JS_CONTEXT",
}

// DecodeTypeTag extracts the type tag from a mark byte.
func DecodeTypeTag(mark uint8) TypeTag {
	tag := TypeTag(mark & 0x0F)
	if int(tag) >= len(typeNames) {
		return TypeUnknown
	}
	return tag
}

// MarkBits extracts the collector mark bits from a mark byte.
func MarkBits(mark uint8) uint8 {
	return (mark & 0xF0) >> 4
}

// String returns the name used in reports.
func (t TypeTag) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "UNKNOWN"
}

// Known reports whether t is one of the decodable tags.
func (t TypeTag) Known() bool {
	return int(t) < len(typeNames)
}

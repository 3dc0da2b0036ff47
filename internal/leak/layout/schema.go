package layout

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/mod/semver"
)

// SchemaVersion is the version of the header layout this package implements.
//
// The major version changes whenever a field is added, removed or reordered.
const SchemaVersion = "v1.0.0"

var (
	// ErrSchemaMismatch is returned when a host layout differs from Native.
	ErrSchemaMismatch = errors.New("object header layout mismatch")

	// ErrIncompatibleVersion is returned when the host schema version has a
	// different major version or is not a valid semantic version.
	ErrIncompatibleVersion = errors.New("incompatible object header schema version")
)

// Schema describes the byte layout of ObjectHeader.
//
// The host fills one in from its C definitions (sizeof/offsetof) and passes it
// to Validate before recording any object.
type Schema struct {
	Version         string
	Size            uintptr
	RefCountOffset  uintptr
	MarkOffset      uintptr
	Reserved1Offset uintptr
	Reserved2Offset uintptr
	LinkOffset      uintptr
}

// Native returns the layout of ObjectHeader as compiled into this binary.
func Native() Schema {
	var h ObjectHeader
	return Schema{
		Version:         SchemaVersion,
		Size:            unsafe.Sizeof(h),
		RefCountOffset:  unsafe.Offsetof(h.RefCount),
		MarkOffset:      unsafe.Offsetof(h.GCObjMark),
		Reserved1Offset: unsafe.Offsetof(h.Reserved1),
		Reserved2Offset: unsafe.Offsetof(h.Reserved2),
		LinkOffset:      LinkOffset,
	}
}

// Validate checks that host describes the same layout as s.
//
// Every differing field is reported. The returned error matches
// ErrSchemaMismatch or ErrIncompatibleVersion with errors.Is.
func (s Schema) Validate(host Schema) error {
	if !semver.IsValid(host.Version) {
		return fmt.Errorf("%w: host version %q is not a semantic version", ErrIncompatibleVersion, host.Version)
	}
	if semver.Major(host.Version) != semver.Major(s.Version) {
		return fmt.Errorf("%w: host %s, native %s", ErrIncompatibleVersion, host.Version, s.Version)
	}

	var result *multierror.Error
	check := func(field string, got, want uintptr) {
		if got != want {
			result = multierror.Append(result,
				fmt.Errorf("%w: %s is %d on host, %d native", ErrSchemaMismatch, field, got, want))
		}
	}
	check("size", host.Size, s.Size)
	check("ref_count offset", host.RefCountOffset, s.RefCountOffset)
	check("gc_obj_mark offset", host.MarkOffset, s.MarkOffset)
	check("dummy1 offset", host.Reserved1Offset, s.Reserved1Offset)
	check("dummy2 offset", host.Reserved2Offset, s.Reserved2Offset)
	check("link offset", host.LinkOffset, s.LinkOffset)

	return result.ErrorOrNil()
}

package reporter

import (
	"fmt"
	"io"
	"time"

	"github.com/google/pprof/profile"

	"github.com/kolkov/leaktrack/internal/leak/backtrace"
)

// unknownSite stands in for leaked objects recorded without a backtrace.
const unknownSite = "<unknown allocation site>"

// Profile converts the leaked objects into a pprof profile.
//
// Each distinct creation backtrace becomes one sample whose value is the
// number of leaked objects created there, so `go tool pprof -top` lists the
// worst allocation sites first.
func (r *Report) Profile() *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "leaked_objects", Unit: "count"}},
		PeriodType: &profile.ValueType{Type: "leaked_objects", Unit: "count"},
		Period:     1,
		TimeNanos:  time.Now().UnixNano(),
	}

	functions := make(map[string]*profile.Function)
	type locKey struct {
		pc       uintptr
		function string
	}
	locations := make(map[locKey]*profile.Location)
	samples := make(map[uint64]*profile.Sample)

	function := func(name, file string) *profile.Function {
		if fn, ok := functions[name]; ok {
			return fn
		}
		fn := &profile.Function{
			ID:         uint64(len(p.Function) + 1),
			Name:       name,
			SystemName: name,
			Filename:   file,
		}
		functions[name] = fn
		p.Function = append(p.Function, fn)
		return fn
	}
	location := func(f backtrace.Frame) *profile.Location {
		key := locKey{pc: f.PC, function: f.Function}
		if loc, ok := locations[key]; ok {
			return loc
		}
		loc := &profile.Location{
			ID:      uint64(len(p.Location) + 1),
			Address: uint64(f.PC),
			Line:    []profile.Line{{Function: function(f.Function, f.File), Line: int64(f.Line)}},
		}
		locations[key] = loc
		p.Location = append(p.Location, loc)
		return loc
	}

	for _, e := range r.Leaked {
		var key uint64
		if e.Backtrace != nil {
			key = e.Backtrace.ID()
		}
		if s, ok := samples[key]; ok {
			s.Value[0]++
			continue
		}

		s := &profile.Sample{Value: []int64{1}}
		if e.Backtrace != nil {
			for _, f := range e.Backtrace.Frames() {
				s.Location = append(s.Location, location(f))
			}
		}
		if len(s.Location) == 0 {
			s.Location = []*profile.Location{location(backtrace.Frame{Function: unknownSite})}
		}
		samples[key] = s
		p.Sample = append(p.Sample, s)
	}
	return p
}

// WritePprof writes the leak profile in gzip-compressed pprof format.
func (r *Report) WritePprof(w io.Writer) error {
	p := r.Profile()
	if err := p.CheckValid(); err != nil {
		return fmt.Errorf("invalid leak profile: %w", err)
	}
	if err := p.Write(w); err != nil {
		return fmt.Errorf("failed to write leak profile: %w", err)
	}
	return nil
}

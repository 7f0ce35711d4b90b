package relo

import (
	"fmt"

	"github.com/arkheio/relbin/errs"
	"github.com/arkheio/relbin/format"
	"github.com/arkheio/relbin/stream"
)

// EmitFunc writes one child's bytes at the writer's cursor during the data
// pass. The callback may construct a nested Writer on the same stream to
// defer its own offset fields; it must flush that nested writer before
// returning.
type EmitFunc func(*stream.Writer) error

// pendingChild records one placeholder written in the header pass: where the
// placeholder sits, the rule governing its child's alignment and width, and
// the callback that will produce the child's bytes. Consumed exactly once by
// Flush.
type pendingChild struct {
	rule        format.FieldRule
	placeholder int64
	emit        EmitFunc
}

// Writer implements the write side of the offset protocol for one structure
// scope: placeholders in pass 1, aligned child emission plus backpatching in
// pass 2. All offsets patched by this writer are relative to its base.
//
// A Writer is single-use: after Flush it cannot accept further Defer calls.
type Writer struct {
	w       *stream.Writer
	base    int64
	pending []pendingChild
	flushed bool
}

// NewWriter creates a deferred-offset writer over w with the given base
// offset. Nested sub-containers create their own Writer with their own base.
func NewWriter(w *stream.Writer, base int64) *Writer {
	return &Writer{w: w, base: base}
}

// Stream returns the underlying stream writer.
func (dw *Writer) Stream() *stream.Writer {
	return dw.w
}

// Base returns the base offset placeholders are patched relative to.
func (dw *Writer) Base() int64 {
	return dw.base
}

// Pending returns the number of children recorded but not yet emitted.
func (dw *Writer) Pending() int {
	return len(dw.pending)
}

// Defer writes the placeholder (and paired count, per the rule's layout) for
// one offset field at the current cursor and records the child for the data
// pass.
//
// A nil emit marks the child absent: the placeholder stays zero and no bytes
// are emitted. A zero count behaves the same when the rule sets EmptyAsNull;
// otherwise the child is still emitted (typically zero bytes) and the
// placeholder is patched with a valid offset to the aligned, empty region.
func (dw *Writer) Defer(rule format.FieldRule, count uint64, emit EmitFunc) error {
	if dw.flushed {
		return fmt.Errorf("%w: field %q", errs.ErrAlreadyFlushed, rule.Name)
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	if rule.Layout == format.LayoutCountOffset {
		if err := dw.writeCount(rule, count); err != nil {
			return err
		}
	}

	placeholder := dw.w.Tell()
	if err := dw.w.WriteUintN(0, rule.Width); err != nil {
		return fmt.Errorf("field %q: %w", rule.Name, err)
	}

	if rule.Layout == format.LayoutOffsetCount {
		if err := dw.writeCount(rule, count); err != nil {
			return err
		}
	}

	absent := emit == nil || (count == 0 && rule.EmptyAsNull)
	if absent {
		return nil
	}

	dw.pending = append(dw.pending, pendingChild{
		rule:        rule,
		placeholder: placeholder,
		emit:        emit,
	})

	return nil
}

func (dw *Writer) writeCount(rule format.FieldRule, count uint64) error {
	if err := dw.w.WriteUintN(count, rule.EffectiveCountWidth()); err != nil {
		return fmt.Errorf("field %q count: %w", rule.Name, err)
	}

	return nil
}

// DeferString writes the placeholder for an offset-only string field and
// registers it with the pool. Identical strings deferred through the same
// pool share one physical copy. An empty string under EmptyAsNull keeps a
// null offset.
func (dw *Writer) DeferString(rule format.FieldRule, value string, sp *StringPool) error {
	if dw.flushed {
		return fmt.Errorf("%w: field %q", errs.ErrAlreadyFlushed, rule.Name)
	}

	return sp.Defer(dw.w, rule, value)
}

// Flush runs the data-emission pass: children are emitted in the order they
// were deferred, each aligned per its rule, and every placeholder is
// backpatched exactly once with the child's position relative to the base.
//
// Emit callbacks may Defer further children on this writer; they are
// appended to the visitation order and consumed by the same pass.
func (dw *Writer) Flush() error {
	if dw.flushed {
		return errs.ErrAlreadyFlushed
	}

	// Indexed loop: emit callbacks may append while we iterate.
	for i := 0; i < len(dw.pending); i++ {
		p := dw.pending[i]

		dw.w.SeekEnd()
		if err := dw.w.Align(p.rule.Align, p.rule.PadByte); err != nil {
			return fmt.Errorf("field %q: %w", p.rule.Name, err)
		}

		childPos := dw.w.Tell()
		if childPos < dw.base {
			return fmt.Errorf("%w: field %q: child at %d before base %d",
				errs.ErrOffsetOverflow, p.rule.Name, childPos, dw.base)
		}

		if err := p.emit(dw.w); err != nil {
			return fmt.Errorf("field %q: %w", p.rule.Name, err)
		}

		if err := dw.w.PatchUintN(p.placeholder, uint64(childPos-dw.base), p.rule.Width); err != nil {
			return fmt.Errorf("field %q: %w", p.rule.Name, err)
		}
	}

	dw.pending = nil
	dw.flushed = true
	dw.w.SeekEnd()

	return nil
}

package relo

import (
	"fmt"
	"sort"

	"github.com/arkheio/relbin/errs"
	"github.com/arkheio/relbin/format"
	"github.com/arkheio/relbin/internal/hash"
	"github.com/arkheio/relbin/stream"
)

// poolRef is one placeholder awaiting the shared string position.
type poolRef struct {
	pos   int64
	width format.OffsetWidth
}

// poolEntry is one unique string value and every placeholder referencing it.
type poolEntry struct {
	value string
	refs  []poolRef
}

// StringPool deduplicates string payloads referenced by multiple offset
// fields within one container. Dedup is by exact byte equality; the xxHash64
// index is only a fast path and collisions fall back to comparison.
//
// The pool accumulates placeholders during the header pass and emits each
// unique string once during Flush, backpatching every registered placeholder
// with the single resolved position.
type StringPool struct {
	order   format.PoolOrder
	byHash  map[uint64][]int
	entries []poolEntry
}

// NewStringPool creates an empty pool with the given emission order.
func NewStringPool(order format.PoolOrder) *StringPool {
	return &StringPool{
		order:  order,
		byHash: make(map[uint64][]int),
	}
}

// Len returns the number of unique strings registered.
func (sp *StringPool) Len() int {
	return len(sp.entries)
}

// Add registers a placeholder position against a string value. Repeated
// values accumulate positions on the same entry.
func (sp *StringPool) Add(value string, placeholderPos int64, width format.OffsetWidth) {
	h := hash.ID(value)
	for _, idx := range sp.byHash[h] {
		if sp.entries[idx].value == value {
			sp.entries[idx].refs = append(sp.entries[idx].refs, poolRef{pos: placeholderPos, width: width})
			return
		}
	}

	sp.byHash[h] = append(sp.byHash[h], len(sp.entries))
	sp.entries = append(sp.entries, poolEntry{
		value: value,
		refs:  []poolRef{{pos: placeholderPos, width: width}},
	})
}

// Defer writes a zero placeholder for an offset-only string field at the
// writer's cursor and registers it. An empty string under EmptyAsNull keeps
// the null offset and is not registered.
func (sp *StringPool) Defer(w *stream.Writer, rule format.FieldRule, value string) error {
	if rule.Layout != format.LayoutOffsetOnly {
		return fmt.Errorf("%w: field %q: string fields carry no count (layout %s)",
			errs.ErrInvalidFieldRule, rule.Name, rule.Layout)
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	pos := w.Tell()
	if err := w.WriteUintN(0, rule.Width); err != nil {
		return fmt.Errorf("field %q: %w", rule.Name, err)
	}

	if value == "" && rule.EmptyAsNull {
		return nil
	}

	sp.Add(value, pos, rule.Width)

	return nil
}

// Flush emits each unique string once (NUL-terminated, aligned per the given
// boundary and pad byte) and backpatches every registered placeholder with
// position - base. An empty pool performs no writes and leaves the cursor
// unchanged. The pool is drained and reusable afterwards.
func (sp *StringPool) Flush(w *stream.Writer, base int64, align uint32, pad byte) error {
	if len(sp.entries) == 0 {
		return nil
	}

	order := make([]int, len(sp.entries))
	for i := range order {
		order[i] = i
	}
	if sp.order == format.OrderLexical {
		sort.Slice(order, func(a, b int) bool {
			return sp.entries[order[a]].value < sp.entries[order[b]].value
		})
	}

	for _, idx := range order {
		entry := sp.entries[idx]

		w.SeekEnd()
		if err := w.Align(align, pad); err != nil {
			return err
		}

		pos := w.Tell()
		if pos < base {
			return fmt.Errorf("%w: string pool at %d before base %d", errs.ErrOffsetOverflow, pos, base)
		}
		if err := w.WriteCString(entry.value); err != nil {
			return err
		}

		for _, ref := range entry.refs {
			if err := w.PatchUintN(ref.pos, uint64(pos-base), ref.width); err != nil {
				return fmt.Errorf("string %q: %w", entry.value, err)
			}
		}
	}

	sp.entries = sp.entries[:0]
	sp.byHash = make(map[uint64][]int)
	w.SeekEnd()

	return nil
}

// Package delta implements the rich-text operation log used for document
// content and edits: ordered insert/retain/delete runs with per-run
// formatting attributes, plus the composition algebra over them.
package delta

import (
	"reflect"
	"unicode/utf8"
)

// Attributes holds the formatting of a run, e.g. {"bold": true}. In an
// attribute delta a nil value means the key was removed.
type Attributes map[string]interface{}

// Op is a single operation. Exactly one of Insert, Retain or Delete is set.
type Op struct {
	Insert     string     `json:"insert,omitempty"`
	Retain     int        `json:"retain,omitempty"`
	Delete     int        `json:"delete,omitempty"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// Delta is an ordered operation log. A document state is a delta consisting
// only of inserts; an edit may contain all three op kinds.
type Delta struct {
	Ops []Op `json:"ops"`
}

// New returns an empty delta.
func New() Delta {
	return Delta{}
}

// Length returns the op's length in characters.
func (o Op) Length() int {
	switch {
	case o.Insert != "":
		return utf8.RuneCountInString(o.Insert)
	case o.Retain > 0:
		return o.Retain
	default:
		return o.Delete
	}
}

// IsInsert reports whether the op inserts text.
func (o Op) IsInsert() bool { return o.Insert != "" }

// IsRetain reports whether the op retains existing text.
func (o Op) IsRetain() bool { return o.Insert == "" && o.Retain > 0 }

// IsDelete reports whether the op deletes existing text.
func (o Op) IsDelete() bool { return o.Insert == "" && o.Retain == 0 && o.Delete > 0 }

// Insert appends an insert op, merging with a preceding insert that carries
// the same attributes.
func (d Delta) Insert(text string, attrs Attributes) Delta {
	if text == "" {
		return d
	}
	return d.push(Op{Insert: text, Attributes: attrs})
}

// Retain appends a retain op.
func (d Delta) Retain(n int, attrs Attributes) Delta {
	if n <= 0 {
		return d
	}
	return d.push(Op{Retain: n, Attributes: attrs})
}

// Delete appends a delete op.
func (d Delta) Delete(n int) Delta {
	if n <= 0 {
		return d
	}
	return d.push(Op{Delete: n})
}

// push appends op, merging it into the previous op when both are the same
// kind with identical attributes.
func (d Delta) push(op Op) Delta {
	ops := d.Ops
	if n := len(ops); n > 0 {
		last := ops[n-1]
		switch {
		case op.IsDelete() && last.IsDelete():
			ops[n-1].Delete += op.Delete
			return Delta{Ops: ops}
		case op.IsInsert() && last.IsInsert() && attributesEqual(op.Attributes, last.Attributes):
			ops[n-1].Insert += op.Insert
			return Delta{Ops: ops}
		case op.IsRetain() && last.IsRetain() && attributesEqual(op.Attributes, last.Attributes):
			ops[n-1].Retain += op.Retain
			return Delta{Ops: ops}
		}
	}
	return Delta{Ops: append(ops, op)}
}

// Chop removes a trailing retain with no attributes; such an op has no
// effect and only pads the log.
func (d Delta) Chop() Delta {
	for n := len(d.Ops); n > 0; n = len(d.Ops) {
		last := d.Ops[n-1]
		if !last.IsRetain() || len(last.Attributes) != 0 {
			break
		}
		d.Ops = d.Ops[:n-1]
	}
	return d
}

// Length returns the total length of the delta in characters.
func (d Delta) Length() int {
	total := 0
	for _, op := range d.Ops {
		total += op.Length()
	}
	return total
}

// PlainText projects a document-state delta to its text, ignoring
// formatting. Retain runs contribute nothing.
func (d Delta) PlainText() string {
	var out []byte
	for _, op := range d.Ops {
		out = append(out, op.Insert...)
	}
	return string(out)
}

// Compose returns the delta equivalent to applying a and then b.
func Compose(a, b Delta) Delta {
	ia := newIterator(a.Ops)
	ib := newIterator(b.Ops)
	out := New()

	for ia.hasNext() || ib.hasNext() {
		if ib.peekIsInsert() {
			op := ib.next(-1)
			out = out.push(op)
			continue
		}
		if ia.peekIsDelete() {
			op := ia.next(-1)
			out = out.push(op)
			continue
		}

		length := minInt(ia.peekLength(), ib.peekLength())
		aOp := ia.next(length)
		bOp := ib.next(length)

		switch {
		case bOp.IsRetain():
			op := Op{}
			if aOp.IsRetain() {
				op.Retain = length
			} else {
				op.Insert = aOp.Insert
			}
			// A retain over an insert bakes the attribute delta into the
			// insert; removed keys disappear rather than staying nil.
			op.Attributes = composeAttributes(aOp.Attributes, bOp.Attributes, op.Retain > 0)
			out = out.push(op)
		case bOp.IsDelete() && aOp.IsRetain():
			out = out.push(Op{Delete: bOp.Delete})
		}
		// bOp delete over aOp insert cancels out entirely.
	}

	return out.Chop()
}

// composeAttributes layers b over a. When keepNil is false, keys removed by
// b (nil values) are dropped from the result instead of kept as nil.
func composeAttributes(a, b Attributes, keepNil bool) Attributes {
	merged := Attributes{}
	for k, v := range a {
		merged[k] = v
	}
	for k, v := range b {
		merged[k] = v
	}
	if !keepNil {
		for k, v := range merged {
			if v == nil {
				delete(merged, k)
			}
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func attributesEqual(a, b Attributes) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// iterator walks a delta's ops, supporting partial consumption of a run.
type iterator struct {
	ops    []Op
	index  int
	offset int
}

func newIterator(ops []Op) *iterator {
	return &iterator{ops: ops}
}

func (it *iterator) hasNext() bool {
	return it.index < len(it.ops)
}

func (it *iterator) peekLength() int {
	if !it.hasNext() {
		return maxRunLength
	}
	return it.ops[it.index].Length() - it.offset
}

func (it *iterator) peekIsInsert() bool {
	return it.hasNext() && it.ops[it.index].IsInsert()
}

func (it *iterator) peekIsDelete() bool {
	return it.hasNext() && it.ops[it.index].IsDelete()
}

const maxRunLength = int(^uint(0) >> 1)

// next consumes up to length characters of the current op. A negative
// length consumes the whole remainder of the op. Exhausted input yields an
// implicit infinite retain so the other side can drain.
func (it *iterator) next(length int) Op {
	if !it.hasNext() {
		if length < 0 {
			length = maxRunLength
		}
		return Op{Retain: length}
	}

	op := it.ops[it.index]
	remaining := op.Length() - it.offset
	wholeOp := length < 0 || length >= remaining
	if wholeOp {
		length = remaining
	}

	var out Op
	switch {
	case op.IsDelete():
		out = Op{Delete: length}
	case op.IsRetain():
		out = Op{Retain: length, Attributes: op.Attributes}
	default:
		runes := []rune(op.Insert)
		out = Op{Insert: string(runes[it.offset : it.offset+length]), Attributes: op.Attributes}
	}

	if wholeOp {
		it.index++
		it.offset = 0
	} else {
		it.offset += length
	}
	return out
}

package delta

import "reflect"

// attributedChar is one character of a flattened document state. Retain
// runs flatten to a zero rune, matching the null placeholder the editor
// uses for position-only runs.
type attributedChar struct {
	ch    rune
	attrs Attributes
}

// flatten expands a delta into one entry per character.
func flatten(d Delta) []attributedChar {
	var out []attributedChar
	for _, op := range d.Ops {
		switch {
		case op.IsInsert():
			for _, r := range op.Insert {
				out = append(out, attributedChar{ch: r, attrs: op.Attributes})
			}
		case op.IsRetain():
			for i := 0; i < op.Retain; i++ {
				out = append(out, attributedChar{attrs: op.Attributes})
			}
		}
	}
	return out
}

type segmentKind int

const (
	segEqual segmentKind = iota
	segDelete
	segInsert
)

// segment is one run of a text edit script: equal spans advance both
// sides, deletes advance only the old side, inserts only the new side.
type segment struct {
	kind   segmentKind
	length int
}

// Diff computes the minimal edit script turning old into new, as a delta
// of retain/insert/delete ops. Equal text spans still get per-position
// attribute comparison, so pure formatting changes come out as attributed
// retains. The result satisfies Compose(old, Diff(old, new)) == new.
func Diff(oldState, newState Delta) Delta {
	a := flatten(oldState)
	b := flatten(newState)

	out := New()
	ai, bi := 0, 0
	for _, seg := range diffChars(a, b) {
		switch seg.kind {
		case segEqual:
			// Formatting may differ even where text matches: group
			// positions by identical attribute delta.
			start := 0
			groupAttrs := diffAttributes(a[ai].attrs, b[bi].attrs)
			for i := 1; i <= seg.length; i++ {
				if i == seg.length {
					out = out.Retain(i-start, groupAttrs)
					break
				}
				next := diffAttributes(a[ai+i].attrs, b[bi+i].attrs)
				if !attributesEqual(next, groupAttrs) {
					out = out.Retain(i-start, groupAttrs)
					start = i
					groupAttrs = next
				}
			}
			ai += seg.length
			bi += seg.length
		case segInsert:
			start := 0
			for i := 1; i <= seg.length; i++ {
				if i == seg.length {
					out = out.Insert(charsToString(b[bi+start:bi+i]), b[bi+start].attrs)
					break
				}
				if !attributesEqual(b[bi+i].attrs, b[bi+start].attrs) {
					out = out.Insert(charsToString(b[bi+start:bi+i]), b[bi+start].attrs)
					start = i
				}
			}
			bi += seg.length
		case segDelete:
			out = out.Delete(seg.length)
			ai += seg.length
		}
	}

	return out.Chop()
}

// diffAttributes returns the changed keys between old and new attributes:
// changed or added keys map to their new value, removed keys map to nil.
func diffAttributes(oldA, newA Attributes) Attributes {
	out := Attributes{}
	for k, v := range newA {
		if ov, ok := oldA[k]; !ok || !valueEqual(ov, v) {
			out[k] = v
		}
	}
	for k := range oldA {
		if _, ok := newA[k]; !ok {
			out[k] = nil
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func valueEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func charsToString(chars []attributedChar) string {
	runes := make([]rune, len(chars))
	for i, c := range chars {
		runes[i] = c.ch
	}
	return string(runes)
}

// diffChars produces the equal/delete/insert script over the plain text
// projections. Common prefix and suffix are trimmed first, then the
// remaining middle goes through a longest-common-subsequence walk.
func diffChars(a, b []attributedChar) []segment {
	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix].ch == b[prefix].ch {
		prefix++
	}
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix &&
		a[len(a)-1-suffix].ch == b[len(b)-1-suffix].ch {
		suffix++
	}

	var segs []segment
	if prefix > 0 {
		segs = append(segs, segment{kind: segEqual, length: prefix})
	}
	segs = appendMiddle(segs, a[prefix:len(a)-suffix], b[prefix:len(b)-suffix])
	if suffix > 0 {
		segs = append(segs, segment{kind: segEqual, length: suffix})
	}
	return segs
}

// appendMiddle runs an LCS table over the trimmed middle sections and
// backtracks into delete/insert/equal runs, merging adjacent runs of the
// same kind.
func appendMiddle(segs []segment, a, b []attributedChar) []segment {
	push := func(kind segmentKind, length int) {
		if length == 0 {
			return
		}
		if n := len(segs); n > 0 && segs[n-1].kind == kind {
			segs[n-1].length += length
			return
		}
		segs = append(segs, segment{kind: kind, length: length})
	}

	if len(a) == 0 && len(b) == 0 {
		return segs
	}
	if len(a) == 0 {
		push(segInsert, len(b))
		return segs
	}
	if len(b) == 0 {
		push(segDelete, len(a))
		return segs
	}

	n, m := len(a), len(b)
	table := make([][]int, n+1)
	for i := range table {
		table[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i].ch == b[j].ch {
				table[i][j] = table[i+1][j+1] + 1
			} else if table[i+1][j] >= table[i][j+1] {
				table[i][j] = table[i+1][j]
			} else {
				table[i][j] = table[i][j+1]
			}
		}
	}

	// Emit deletes before inserts at each divergence, matching the classic
	// equal/delete/insert triple ordering.
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i].ch == b[j].ch:
			push(segEqual, 1)
			i++
			j++
		case table[i+1][j] >= table[i][j+1]:
			push(segDelete, 1)
			i++
		default:
			push(segInsert, 1)
			j++
		}
	}
	push(segDelete, n-i)
	push(segInsert, m-j)
	return segs
}

package delta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffIdenticalStates(t *testing.T) {
	tests := []struct {
		name  string
		state Delta
	}{
		{name: "empty", state: New()},
		{name: "plain text", state: New().Insert("hello world", nil)},
		{
			name: "formatted text",
			state: New().
				Insert("hello ", nil).
				Insert("world", Attributes{"bold": true}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.state, tt.state)
			assert.Empty(t, got.Ops, "diff of a state with itself must trim to empty")
		})
	}
}

func TestDiffInsertion(t *testing.T) {
	oldState := New().Insert("hello", nil)
	newState := New().Insert("hello world", nil)

	got := Diff(oldState, newState)

	require.Len(t, got.Ops, 2)
	assert.Equal(t, 5, got.Ops[0].Retain)
	assert.Equal(t, " world", got.Ops[1].Insert)
}

func TestDiffDeletion(t *testing.T) {
	oldState := New().Insert("hello world", nil)
	newState := New().Insert("hello", nil)

	got := Diff(oldState, newState)

	require.Len(t, got.Ops, 2)
	assert.Equal(t, 5, got.Ops[0].Retain)
	assert.Equal(t, 6, got.Ops[1].Delete)
}

func TestDiffFormattingOnly(t *testing.T) {
	oldState := New().Insert("hello world", nil)
	newState := New().
		Insert("hello ", nil).
		Insert("world", Attributes{"bold": true})

	got := Diff(oldState, newState)

	require.Len(t, got.Ops, 2)
	assert.Equal(t, 6, got.Ops[0].Retain)
	assert.Nil(t, got.Ops[0].Attributes)
	assert.Equal(t, 5, got.Ops[1].Retain)
	assert.Equal(t, Attributes{"bold": true}, got.Ops[1].Attributes)
}

func TestDiffFormattingRemoval(t *testing.T) {
	oldState := New().Insert("abc", Attributes{"bold": true})
	newState := New().Insert("abc", nil)

	got := Diff(oldState, newState)

	require.Len(t, got.Ops, 1)
	assert.Equal(t, 3, got.Ops[0].Retain)
	assert.Equal(t, Attributes{"bold": nil}, got.Ops[0].Attributes)
}

func TestDiffInsertGroupsByAttributes(t *testing.T) {
	oldState := New()
	newState := New().
		Insert("ab", nil).
		Insert("cd", Attributes{"italic": true})

	got := Diff(oldState, newState)

	require.Len(t, got.Ops, 2)
	assert.Equal(t, "ab", got.Ops[0].Insert)
	assert.Equal(t, "cd", got.Ops[1].Insert)
	assert.Equal(t, Attributes{"italic": true}, got.Ops[1].Attributes)
}

func TestDiffComposeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		base Delta
		next Delta
	}{
		{
			name: "append",
			base: New().Insert("hello", nil),
			next: New().Insert("hello world", nil),
		},
		{
			name: "prepend",
			base: New().Insert("world", nil),
			next: New().Insert("hello world", nil),
		},
		{
			name: "replace middle",
			base: New().Insert("the quick brown fox", nil),
			next: New().Insert("the slow brown fox", nil),
		},
		{
			name: "delete everything",
			base: New().Insert("goodbye", nil),
			next: New(),
		},
		{
			name: "from empty",
			base: New(),
			next: New().Insert("fresh start", nil),
		},
		{
			name: "formatting change inside edit",
			base: New().Insert("hello world", nil),
			next: New().
				Insert("hi ", nil).
				Insert("world", Attributes{"bold": true}),
		},
		{
			name: "disjoint edits",
			base: New().Insert("aaa bbb ccc", nil),
			next: New().Insert("xxx bbb yyy", nil),
		},
		{
			name: "unicode",
			base: New().Insert("héllo wörld", nil),
			next: New().Insert("héllo there wörld", nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Diff(tt.base, tt.next)
			got := Compose(tt.base, d)
			assert.Equal(t, tt.next.PlainText(), got.PlainText())
			assert.Equal(t, normalize(tt.next), normalize(got))
		})
	}
}

// normalize rebuilds a state delta through the builder so equivalent op
// logs with different run boundaries compare equal.
func normalize(d Delta) Delta {
	out := New()
	for _, op := range d.Ops {
		if op.IsInsert() {
			out = out.Insert(op.Insert, op.Attributes)
		}
	}
	return out
}

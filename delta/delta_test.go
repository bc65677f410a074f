package delta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushMergesRuns(t *testing.T) {
	d := New().
		Insert("hel", nil).
		Insert("lo", nil).
		Insert("!", Attributes{"bold": true}).
		Delete(2).
		Delete(3)

	require.Len(t, d.Ops, 3)
	assert.Equal(t, "hello", d.Ops[0].Insert)
	assert.Equal(t, "!", d.Ops[1].Insert)
	assert.Equal(t, 5, d.Ops[2].Delete)
}

func TestChop(t *testing.T) {
	tests := []struct {
		name string
		d    Delta
		want int
	}{
		{
			name: "trailing bare retain removed",
			d:    New().Insert("a", nil).Retain(5, nil),
			want: 1,
		},
		{
			name: "attributed retain kept",
			d:    New().Insert("a", nil).Retain(5, Attributes{"bold": true}),
			want: 2,
		},
		{
			name: "multiple trailing retains removed",
			d:    Delta{Ops: []Op{{Insert: "a"}, {Retain: 2}, {Retain: 3}}},
			want: 1,
		},
		{
			name: "retain only delta trims to empty",
			d:    New().Retain(7, nil),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.d.Chop().Ops, tt.want)
		})
	}
}

func TestComposeInsertOverRetain(t *testing.T) {
	base := New().Insert("hello", nil)
	edit := New().Retain(5, nil).Insert(" world", nil)

	got := Compose(base, edit)

	require.Len(t, got.Ops, 1)
	assert.Equal(t, "hello world", got.Ops[0].Insert)
}

func TestComposeDelete(t *testing.T) {
	base := New().Insert("hello world", nil)
	edit := New().Retain(5, nil).Delete(6)

	got := Compose(base, edit)

	require.Len(t, got.Ops, 1)
	assert.Equal(t, "hello", got.Ops[0].Insert)
}

func TestComposeFormatting(t *testing.T) {
	base := New().Insert("hello", nil)
	edit := New().Retain(5, Attributes{"bold": true})

	got := Compose(base, edit)

	require.Len(t, got.Ops, 1)
	assert.Equal(t, "hello", got.Ops[0].Insert)
	assert.Equal(t, Attributes{"bold": true}, got.Ops[0].Attributes)
}

func TestComposeRemovesFormattingOverInsert(t *testing.T) {
	base := New().Insert("hi", Attributes{"bold": true})
	edit := New().Retain(2, Attributes{"bold": nil})

	got := Compose(base, edit)

	require.Len(t, got.Ops, 1)
	assert.Equal(t, "hi", got.Ops[0].Insert)
	assert.Nil(t, got.Ops[0].Attributes)
}

func TestComposeInsertInMiddle(t *testing.T) {
	base := New().Insert("ad", nil)
	edit := New().Retain(1, nil).Insert("bc", nil)

	got := Compose(base, edit)

	require.Len(t, got.Ops, 1)
	assert.Equal(t, "abcd", got.Ops[0].Insert)
}

func TestComposeDeleteCancelsInsert(t *testing.T) {
	base := New().Insert("abc", nil)
	edit := New().Delete(3).Insert("xyz", nil)

	got := Compose(base, edit)

	assert.Equal(t, "xyz", got.PlainText())
}

func TestComposeMixedAttributes(t *testing.T) {
	base := New().
		Insert("plain", nil).
		Insert("bold", Attributes{"bold": true})
	edit := New().
		Retain(5, Attributes{"italic": true}).
		Retain(4, Attributes{"bold": nil})

	got := Compose(base, edit)

	require.Len(t, got.Ops, 2)
	assert.Equal(t, Attributes{"italic": true}, got.Ops[0].Attributes)
	assert.Equal(t, "bold", got.Ops[1].Insert)
	assert.Nil(t, got.Ops[1].Attributes)
}

func TestLength(t *testing.T) {
	d := New().Insert("héllo", nil).Retain(3, nil).Delete(2)
	assert.Equal(t, 10, d.Length())
	assert.Equal(t, "héllo", d.PlainText())
}

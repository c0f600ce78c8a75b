package parameter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParameterKinds(t *testing.T) {
	tests := []struct {
		value any
		kind  ValueKind
	}{
		{float32(1.5), ValueKindFloat32},
		{2.5, ValueKindFloat32},
		{[]float32{1, 2, 3}, ValueKindFloat32s},
		{3, ValueKindInt32},
		{int32(4), ValueKindInt32},
		{true, ValueKindBool},
		{[16]float32{}, ValueKindMatrix},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			p, err := NewParameter("p", tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, p.Kind())
		})
	}
}

func TestNewParameterRejectsUnsupported(t *testing.T) {
	_, err := NewParameter("s", "text")
	assert.ErrorIs(t, err, ErrUnsupportedValue)

	_, err = NewParameter("v", []float32{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, ErrUnsupportedValue)

	assert.Panics(t, func() { MustParameter("s", struct{}{}) })
}

func TestParameterAccessors(t *testing.T) {
	f := MustParameter("scale", float32(0.5))
	v, ok := f.Float32s()
	require.True(t, ok)
	assert.Equal(t, []float32{0.5}, v)
	_, ok = f.Int32()
	assert.False(t, ok)

	b := MustParameter("enabled", true)
	i, ok := b.Int32()
	require.True(t, ok)
	assert.Equal(t, int32(1), i)

	var m [16]float32
	m[0], m[15] = 1, 1
	mp := MustParameter("world", m)
	got, ok := mp.Matrix()
	require.True(t, ok)
	assert.Equal(t, m, got)
	_, ok = mp.Float32s()
	assert.False(t, ok)
}

func TestParameterValueIsCopied(t *testing.T) {
	src := []float32{1, 2}
	p := MustParameter("offset", src)
	src[0] = 9

	v, _ := p.Float32s()
	assert.Equal(t, []float32{1, 2}, v)

	v[1] = 7
	again, _ := p.Float32s()
	assert.Equal(t, []float32{1, 2}, again)
}

func TestSetValueKeepsKind(t *testing.T) {
	p := MustParameter("index", 0)
	require.NoError(t, p.SetValue(int32(2)))
	require.NoError(t, p.SetValue(3))
	assert.Equal(t, int32(3), p.Value())

	err := p.SetValue(float32(1))
	assert.ErrorIs(t, err, ErrValueKindMismatch)
	assert.Equal(t, int32(3), p.Value())
}

func TestParameterSet(t *testing.T) {
	set := NewParameterSet(
		MustParameter("a", 1),
		MustParameter("b", float32(2)),
		nil,
		MustParameter("a", 5),
	)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"a", "b"}, set.Names())

	a, ok := set.Get("a")
	require.True(t, ok)
	assert.Equal(t, int32(5), a.Value())

	require.NoError(t, set.Set("b", float32(4)))
	b, _ := set.Get("b")
	assert.Equal(t, float32(4), b.Value())

	assert.ErrorIs(t, set.Set("missing", 1), ErrUnknownParameter)
	assert.ErrorIs(t, set.Add(MustParameter("b", 1)), ErrDuplicateParameter)

	require.NoError(t, set.Add(MustParameter("c", true)))
	assert.Equal(t, []string{"a", "b", "c"}, set.Names())

	_, ok = set.Get("missing")
	assert.False(t, ok)
}

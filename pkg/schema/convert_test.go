package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverters_Decode(t *testing.T) {
	reg := NewConverterRegistry()

	field := func(raw string) *Field { return ParseField("f", raw, true, nil) }

	t.Run("int from driver bytes", func(t *testing.T) {
		v, err := reg.For(field("int(11)")).Decode([]byte("42"))
		require.NoError(t, err)
		assert.Equal(t, int64(42), v)
	})

	t.Run("int passthrough", func(t *testing.T) {
		v, err := reg.For(field("bigint")).Decode(int64(7))
		require.NoError(t, err)
		assert.Equal(t, int64(7), v)
	})

	t.Run("float from string", func(t *testing.T) {
		v, err := reg.For(field("decimal(10,2)")).Decode("3.25")
		require.NoError(t, err)
		assert.Equal(t, 3.25, v)
	})

	t.Run("bool from tinyint", func(t *testing.T) {
		v, err := reg.For(field("tinyint(1)")).Decode(int64(1))
		require.NoError(t, err)
		assert.Equal(t, true, v)
	})

	t.Run("time from datetime string", func(t *testing.T) {
		v, err := reg.For(field("datetime")).Decode("2024-05-01 10:30:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), v)
	})

	t.Run("time passthrough", func(t *testing.T) {
		now := time.Now()
		v, err := reg.For(field("timestamp")).Decode(now)
		require.NoError(t, err)
		assert.Equal(t, now, v)
	})

	t.Run("date", func(t *testing.T) {
		v, err := reg.For(field("date")).Decode("2024-05-01")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), v)
	})

	t.Run("set splits members", func(t *testing.T) {
		v, err := reg.For(field("set('a','b','c')")).Decode("a,c")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, v)
	})

	t.Run("empty set", func(t *testing.T) {
		v, err := reg.For(field("set('a','b')")).Decode("")
		require.NoError(t, err)
		assert.Equal(t, []string{}, v)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		v, err := reg.For(field("int(11)")).Decode(nil)
		require.NoError(t, err)
		assert.Nil(t, v)
	})
}

func TestSetConverter_Encode(t *testing.T) {
	reg := NewConverterRegistry()
	f := ParseField("tags", "set('a','b','c')", true, nil)

	v, err := reg.For(f).Encode([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "a,b", v)
}

func TestRegisterKind_Override(t *testing.T) {
	reg := NewConverterRegistry()
	reg.RegisterKind(KindBool, stringConverter{})

	f := ParseField("active", "boolean", false, nil)
	v, err := reg.For(f).Decode([]byte("true"))
	require.NoError(t, err)
	assert.Equal(t, "true", v)
}

func TestZeroValue(t *testing.T) {
	assert.Equal(t, int64(0), ZeroValue(KindInt))
	assert.Equal(t, float64(0), ZeroValue(KindFloat))
	assert.Equal(t, false, ZeroValue(KindBool))
	assert.Equal(t, "", ZeroValue(KindString))
	assert.Equal(t, time.Time{}, ZeroValue(KindTime))
}

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  ProtocolVersion
	}{
		{"1.0", ProtocolVersion{1, 0}},
		{"1.1", ProtocolVersion{1, 1}},
		{"10.23", ProtocolVersion{10, 23}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, tt.input, v.String())
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "1", "abc", "1.0.0", ".1", "1.", "-1.0", "70000.0"} {
		t.Run(s, func(t *testing.T) {
			_, err := Parse(s)
			assert.Error(t, err)
		})
	}
}

func TestCompatible(t *testing.T) {
	v := MustParse("1.2")
	assert.True(t, v.Compatible(MustParse("1.0")))
	assert.True(t, v.Compatible(MustParse("1.9")))
	assert.False(t, v.Compatible(MustParse("2.0")))
}

func TestCheck(t *testing.T) {
	v, err := Check(Current)
	require.NoError(t, err)
	assert.Equal(t, MustParse(Current), v)

	_, err = Check("1.7")
	assert.NoError(t, err)

	_, err = Check("2.0")
	assert.ErrorIs(t, err, ErrIncompatible)

	_, err = Check("one")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrIncompatible)
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("x") })
}

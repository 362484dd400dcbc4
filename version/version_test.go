package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input      string
		major      int
		minor      int
		patch      int
		tweak      int
		components int
	}{
		{"5", 5, 0, 0, 0, 1},
		{"3.16", 3, 16, 0, 0, 2},
		{"1.2.3", 1, 2, 3, 0, 3},
		{"1.0.0.4", 1, 0, 0, 4, 4},
		{" 2.1 ", 2, 1, 0, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.major, v.Major)
			assert.Equal(t, tt.minor, v.Minor)
			assert.Equal(t, tt.patch, v.Patch)
			assert.Equal(t, tt.tweak, v.Tweak)
			assert.Equal(t, tt.components, v.Components)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "1.2.3.4.5", "a.b", "1.-2", "1..2", "1.2-beta"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("not.a.version") })
}

func TestString(t *testing.T) {
	assert.Equal(t, "3.16", MustParse("3.16").String())
	assert.Equal(t, "1.2.3", (&Version{Major: 1, Minor: 2, Patch: 3, Components: 3}).String())
	assert.Equal(t, "4", (&Version{Major: 4}).String())
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{"equal", "3.16", "3.16.0", 0},
		{"major less", "2.8", "3.0", -1},
		{"minor greater", "3.20", "3.16", 1},
		{"patch less", "3.16.1", "3.16.2", -1},
		{"tweak greater", "1.0.0.1", "1.0.0", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MustParse(tt.a).Compare(MustParse(tt.b)))
		})
	}
}

func TestLessThanAndMax(t *testing.T) {
	a := MustParse("3.10")
	b := MustParse("3.16")
	assert.True(t, a.LessThan(b))
	assert.Same(t, b, Max(a, b))
	assert.Same(t, a, Max(a, nil))
	assert.Same(t, b, Max(nil, b))
}

func TestMajorString(t *testing.T) {
	assert.Equal(t, "2", MajorString("2.1.0"))
	assert.Equal(t, "3", MajorString("3.x"))
	assert.Equal(t, "10", MajorString("10"))
	assert.Equal(t, "", MajorString("v1.0"))
	assert.Equal(t, "", MajorString(""))
}

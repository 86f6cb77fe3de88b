package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestParameters_TypedGetters(t *testing.T) {
	t.Parallel()

	p, err := FromMap(map[string]any{
		"TIME_DELTA_T":              0.05,
		"TIME_DELTA_T_STR":          "0.25",
		"OPTION_LOOP_INFO_INTERVAL": int64(1000),
		"OPTION_VERBOSE":            true,
		"OPTION_VERBOSE_STR":        "false",
		"SOURCE_STF_TYPE":           "erf",
		"MODEL_3D_VOLUMETRIC_LIST":  []any{"s40rts", "crust1"},
		"MODEL_3D_GEOMETRIC_LIST":   "moho  topography",
	}, "test")
	require.NoError(t, err)

	dt, err := p.Float("TIME_DELTA_T")
	require.NoError(t, err)
	assert.Equal(t, 0.05, dt)

	dt, err = p.Float("TIME_DELTA_T_STR")
	require.NoError(t, err)
	assert.Equal(t, 0.25, dt)

	n, err := p.Int("OPTION_LOOP_INFO_INTERVAL")
	require.NoError(t, err)
	assert.Equal(t, 1000, n)

	b, err := p.Bool("OPTION_VERBOSE")
	require.NoError(t, err)
	assert.True(t, b)

	b, err = p.Bool("OPTION_VERBOSE_STR")
	require.NoError(t, err)
	assert.False(t, b)

	s, err := p.Text("SOURCE_STF_TYPE")
	require.NoError(t, err)
	assert.Equal(t, "erf", s)

	list, err := p.Strings("MODEL_3D_VOLUMETRIC_LIST")
	require.NoError(t, err)
	assert.Equal(t, []string{"s40rts", "crust1"}, list)

	list, err = p.Strings("MODEL_3D_GEOMETRIC_LIST")
	require.NoError(t, err)
	assert.Equal(t, []string{"moho", "topography"}, list)

	list, err = p.Strings("NOT_SET")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestParameters_Errors(t *testing.T) {
	t.Parallel()

	p, err := FromMap(map[string]any{
		"HALF": 0.5,
		"WORD": "abc",
	}, "test")
	require.NoError(t, err)

	_, err = p.Float("MISSING")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingKey))
	var keyErr *KeyError
	require.True(t, errors.As(err, &keyErr))
	assert.Equal(t, "MISSING", keyErr.Key)

	_, err = p.Int("HALF")
	assert.True(t, errors.Is(err, ErrInvalidValue), "non-integral number must not convert to int")

	_, err = p.Float("WORD")
	assert.True(t, errors.Is(err, ErrInvalidValue))

	_, err = p.Bool("WORD")
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestParameters_DefaultsAndMerge(t *testing.T) {
	t.Parallel()

	base := NewParameters(map[string]cty.Value{
		"A": cty.NumberIntVal(1),
		"B": cty.StringVal("base"),
		"C": cty.NullVal(cty.Number),
	}, "base.hcl")
	override := NewParameters(map[string]cty.Value{
		"B": cty.StringVal("override"),
	}, "override.toml")

	merged := base.Merge(override)
	s, err := merged.Text("B")
	require.NoError(t, err)
	assert.Equal(t, "override", s)
	assert.Equal(t, "override.toml", merged.Origin("B"))
	assert.Equal(t, "base.hcl", merged.Origin("A"))

	// Original set is untouched.
	s, err = base.Text("B")
	require.NoError(t, err)
	assert.Equal(t, "base", s)

	assert.False(t, merged.Has("C"), "null values count as unset")
	f, err := merged.FloatOr("C", 1.5)
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)

	withD := merged.With("D", cty.True)
	b, err := withD.BoolOr("D", false)
	require.NoError(t, err)
	assert.True(t, b)
	assert.False(t, merged.Has("D"))

	assert.Equal(t, []string{"A", "B", "C"}, merged.Keys())
}

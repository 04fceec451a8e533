package release

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/excel-form-extractor/internal/config"
)

// lookupFrom builds a LookupFunc over a fixed set of variables.
func lookupFrom(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := vars[key]
		return value, ok
	}
}

// TestResolveVersion strips exactly one leading "v" and leaves other values untouched.
func TestResolveVersion(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"v1.2.3":      "1.2.3",
		"1.2.3":       "1.2.3",
		"v":           "",
		"vv2":         "v2",
		"V1.0":        "V1.0",
		"2024.10-rc1": "2024.10-rc1",
		"version-7":   "ersion-7",
	}

	for in, want := range cases {
		got, err := ResolveVersion(lookupFrom(map[string]string{ReleaseVersionVariable: in}), ReleaseVersionVariable)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}

// TestResolveVersion_Missing reports the consulted variable for unset and empty values.
func TestResolveVersion_Missing(t *testing.T) {
	t.Parallel()

	for _, vars := range []map[string]string{{}, {PackageVersionVariable: ""}} {
		_, err := ResolveVersion(lookupFrom(vars), PackageVersionVariable)

		var missing *MissingVersionError

		require.ErrorAs(t, err, &missing)
		require.Equal(t, PackageVersionVariable, missing.Variable)
		require.Contains(t, err.Error(), PackageVersionVariable)
	}
}

// TestVersionVariable maps variants to their environment variables.
func TestVersionVariable(t *testing.T) {
	t.Parallel()

	require.Equal(t, PackageVersionVariable, VersionVariable(config.VariantLocal))
	require.Equal(t, ReleaseVersionVariable, VersionVariable(config.VariantCI))
	require.Equal(t, ReleaseVersionVariable, VersionVariable(""))
}

package resource_test

import (
	"testing"

	"github.com/sbl8/jyafn/resource"
	"github.com/stretchr/testify/require"
)

func TestParseManifestTolerant(t *testing.T) {
	src := []byte(`{
		"ok_accessor": "jyafn_ok",
		"err_accessor": "jyafn_err",
		"drop_accessor": "jyafn_drop_outcome",
		"dumped_accessor": "jyafn_dumped",
		"string_drop": "jyafn_drop_string",
		"resources": {
			// a single resource type
			"counter": {
				"fn_from_bytes": "counter_from_bytes",
				"fn_dump": "counter_dump",
				"fn_size": "counter_size",
				"fn_get_method_def": "counter_get_method_def",
				"fn_drop": "counter_drop",
			},
		},
	}`)

	m, err := resource.ParseManifest(src)
	require.NoError(t, err)
	require.Contains(t, m.Resources, "counter")
	require.Equal(t, "counter_from_bytes", m.Resources["counter"].FromBytes)
}

func TestParseManifestRejectsEmpty(t *testing.T) {
	_, err := resource.ParseManifest([]byte(`{"resources": {}}`))
	require.Error(t, err)

	var pluginErr *resource.PluginError
	require.ErrorAs(t, err, &pluginErr)
	require.Equal(t, resource.ManifestInvalid, pluginErr.Kind)
}

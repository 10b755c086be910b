package stats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCountersAndDump(t *testing.T) {
	before := testutil.ToFloat64(SavesTotal.WithLabelValues("accepted"))
	SavesTotal.WithLabelValues("accepted").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(SavesTotal.WithLabelValues("accepted")))

	path := filepath.Join(t.TempDir(), "stats")
	require.NoError(t, DumpPrometheusDefaults(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(content), "payloadd_saves_total"))
}

package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordScriptLoad(t *testing.T) {
	okBefore := testutil.ToFloat64(ScriptLoadsTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(ScriptLoadsTotal.WithLabelValues("error"))

	RecordScriptLoad(nil)
	RecordScriptLoad(errors.New("404"))
	RecordScriptLoad(errors.New("timeout"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ScriptLoadsTotal.WithLabelValues("ok")))
	assert.Equal(t, errBefore+2, testutil.ToFloat64(ScriptLoadsTotal.WithLabelValues("error")))
}

func TestWriteTextfile(t *testing.T) {
	ContextEventsTotal.WithLabelValues("webglcontextlost").Inc()
	path := filepath.Join(t.TempDir(), "glcontext.prom")

	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `glcontext_context_events_total{type="webglcontextlost"}`))
}

func TestWriteTextfileBadPath(t *testing.T) {
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write metrics:")
}

package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	ts := time.Date(2025, 12, 6, 10, 45, 0, 0, time.UTC)
	testCases := []struct {
		fields []any
		expect string
	}{
		{
			expect: "2025-12-06T10:45:00 [WARN] [registry] skipped\n",
		},
		{
			fields: []any{"source", "a.json", "count", 2},
			expect: "2025-12-06T10:45:00 [WARN] [registry] skipped source=a.json count=2\n",
		},
		{
			fields: []any{"source", "a.json", "orphan"},
			expect: "2025-12-06T10:45:00 [WARN] [registry] skipped source=a.json orphan=<missing>\n",
		},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expect, format(ts, LevelWarn, CatRegistry, "skipped", tc.fields...))
	}
}

func TestSetOutput_LevelsAndDisable(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	Debug(CatDB, "debug entry")
	SetMinLevel(LevelWarn)
	Info(CatDB, "info entry")
	Warn(CatDB, "warn entry")
	ErrorErr(CatDB, "failed", errors.New("boom"))
	ErrorErr(CatDB, "failed nil", nil)

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] [db] debug entry")
	assert.NotContains(t, out, "info entry")
	assert.Contains(t, out, "[WARN] [db] warn entry")
	assert.Contains(t, out, "[ERROR] [db] failed error=boom")
	assert.Contains(t, out, "failed nil error=<nil>")

	buf.Reset()
	SetEnabled(false)
	Error(CatDB, "hidden")
	assert.Empty(t, buf.String())
}

func TestNoLogger(t *testing.T) {
	SetOutput(nil)
	assert.NotPanics(t, func() {
		Info(CatShell, "nobody listening")
		SetMinLevel(LevelError)
		SetEnabled(true)
	})
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sqldict.log")
	cleanup, err := Init(path)
	require.NoError(t, err)
	Info(CatConfig, "loaded", "path", "x.yaml")
	cleanup()
	SetOutput(nil)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] [config] loaded path=x.yaml")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, l)
	l, err = ParseLevel("Warning")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, l)
	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

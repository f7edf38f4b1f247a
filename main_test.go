package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockApp struct {
	opts   AppOptions
	called map[string]bool
	err    error
}

func newMockApp() *mockApp {
	return &mockApp{
		called: make(map[string]bool),
	}
}

func (m *mockApp) ApplyOptions(opts AppOptions) { m.opts = opts }

func (m *mockApp) RunMarkers(context.Context) error {
	m.called["RunMarkers"] = true
	return m.err
}

func (m *mockApp) RunSummary(context.Context) error {
	m.called["RunSummary"] = true
	return m.err
}

func (m *mockApp) RunConfig(context.Context) error {
	m.called["RunConfig"] = true
	return m.err
}

func TestRun_Commands(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		expectedCalled string
		verifyOpts     func(*testing.T, AppOptions)
	}{
		{
			name:           "Markers",
			args:           []string{"markers", "--game", "siu", "--cache-dir", "/tmp/cache", "-o", "out.json"},
			expectedCalled: "RunMarkers",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				assert.Equal(t, "siu", opts.Game)
				assert.Equal(t, "/tmp/cache", opts.CacheDir)
				assert.Equal(t, "out.json", opts.OutputFile)
				assert.Equal(t, "gameClasses.json", opts.ClassesFile)
			},
		},
		{
			name: "MarkersOutputs",
			args: []string{"markers", "--geojson", "m.geojson", "--crosscheck", "check.csv", "--db", "m.db",
				"--legacy-dir", "legacy", "--classes", "classes.json"},
			expectedCalled: "RunMarkers",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				assert.Equal(t, "siu", opts.Game)
				assert.Equal(t, "m.geojson", opts.GeoJSONFile)
				assert.Equal(t, "check.csv", opts.CrossCheckFile)
				assert.Equal(t, "m.db", opts.DBFile)
				assert.Equal(t, "legacy", opts.LegacyDir)
				assert.Equal(t, "classes.json", opts.ClassesFile)
			},
		},
		{
			name:           "Summary",
			args:           []string{"summary", "-g", "slc", "--top", "3", "--config", "config.yaml", "--log-level", "debug"},
			expectedCalled: "RunSummary",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				assert.Equal(t, "slc", opts.Game)
				assert.Equal(t, 3, opts.Top)
				assert.Equal(t, "config.yaml", opts.ConfigFile)
				assert.Equal(t, "debug", opts.LogLevel)
			},
		},
		{
			name:           "Config",
			args:           []string{"config", "-g", "sl", "--cache-dir", "/data/sl", "-o", "effective.yaml"},
			expectedCalled: "RunConfig",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				assert.Equal(t, "sl", opts.Game)
				assert.Equal(t, "/data/sl", opts.CacheDir)
				assert.Equal(t, "effective.yaml", opts.OutputFile)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newMockApp()
			var out bytes.Buffer
			require.NoError(t, run(context.Background(), tt.args, &out, app))
			assert.True(t, app.called[tt.expectedCalled], "expected %s to be called", tt.expectedCalled)
			if tt.verifyOpts != nil {
				tt.verifyOpts(t, app.opts)
			}
		})
	}
}

func TestRun_Version(t *testing.T) {
	app := newMockApp()
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"version"}, &out, app))
	assert.Equal(t, "supramaps version: "+Version+"\n", out.String())
	assert.Empty(t, app.called)
}

func TestRun_Errors(t *testing.T) {
	t.Run("command error is returned and printed", func(t *testing.T) {
		app := newMockApp()
		app.err = errors.New("area dump not found")
		var out bytes.Buffer
		err := run(context.Background(), []string{"markers"}, &out, app)
		assert.ErrorIs(t, err, app.err)
		assert.Contains(t, out.String(), "Error: area dump not found")
	})

	t.Run("unknown flag", func(t *testing.T) {
		var out bytes.Buffer
		err := run(context.Background(), []string{"markers", "--nope"}, &out, newMockApp())
		assert.Error(t, err)
	})

	t.Run("unexpected argument", func(t *testing.T) {
		var out bytes.Buffer
		err := run(context.Background(), []string{"summary", "extra"}, &out, newMockApp())
		assert.Error(t, err)
	})
}

func TestRun_Help(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--help"}, &out, newMockApp()))
	assert.Contains(t, out.String(), "markers")
	assert.Contains(t, out.String(), "summary")
}

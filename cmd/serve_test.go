package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospector/internal/config"
	"github.com/sells-group/prospector/internal/model"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid identifier", eris.Wrap(model.ErrInvalidIdentifier, "bad input"), http.StatusBadRequest},
		{"not found", eris.Wrapf(model.ErrNotFound, "identity %q", "x"), http.StatusNotFound},
		{"invalid state", eris.Wrap(model.ErrInvalidState, "still pending"), http.StatusConflict},
		{"internal", eris.New("db exploded"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)
			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestResolveDepth(t *testing.T) {
	cfg = &config.Config{Pipeline: config.PipelineConfig{DefaultDepth: "standard"}}

	d, err := resolveDepth("")
	require.NoError(t, err)
	assert.Equal(t, model.DepthStandard, d)

	d, err = resolveDepth("comprehensive")
	require.NoError(t, err)
	assert.Equal(t, model.DepthComprehensive, d)

	_, err = resolveDepth("extreme")
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrInvalidIdentifier))
}

package changelog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/minecraftwithtwink/Modpack-Updater/job"
	"github.com/minecraftwithtwink/Modpack-Updater/log"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.Initialize(false)
	defer log.Close()
	os.Exit(m.Run())
}

const sample = "# Changelog\n\n## v1.2.0\n\n- Faster fetches\n- Fixed the branch picker\n"

func TestRun_FetchesAndRenders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sample))
	}))
	defer srv.Close()

	f := NewFetcher(WithURL(srv.URL), WithStyle("notty"), WithWidth(60))
	out, err := f.Run(context.Background(), job.Discard)
	require.NoError(t, err)
	assert.Contains(t, out, "Changelog")
	assert.Contains(t, out, "Faster fetches")
	assert.Contains(t, out, "Fixed the branch picker")
}

func TestRun_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewFetcher(WithURL(srv.URL), WithStyle("notty")).Run(context.Background(), job.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetch_RawMarkdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sample))
	}))
	defer srv.Close()

	md, err := NewFetcher(WithURL(srv.URL), WithStyle("notty")).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sample, md)
}

func TestRender_WrapsToWidth(t *testing.T) {
	long := strings.Repeat("word ", 60)
	out, err := Render(long, 40, "notty")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Greater(t, len(lines), 1)
	for _, line := range lines {
		// allow for the style's margin
		assert.LessOrEqual(t, len(strings.TrimRight(line, " ")), 44)
	}
}

func TestNewFetcher_DefaultStyle(t *testing.T) {
	assert.Equal(t, DefaultStyle, NewFetcher().style)
	assert.Equal(t, "light", NewFetcher(WithStyle("light")).style)
}

func TestStyleFor(t *testing.T) {
	assert.Equal(t, "notty", StyleFor(termenv.Ascii))
	assert.Equal(t, DefaultStyle, StyleFor(termenv.ANSI256))
	assert.Equal(t, DefaultStyle, StyleFor(termenv.TrueColor))
}

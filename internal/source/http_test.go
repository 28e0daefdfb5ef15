package source_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/memrun/internal/source"
)

func TestNewHTTPSource(t *testing.T) {
	require := require.New(t)

	s, err := source.NewHTTPSource(source.HTTPSourceConfig{})
	require.Error(err)
	require.Nil(s)
}

func TestHTTPSourceFetch(t *testing.T) {
	content := []byte("fake-binary-payload")

	tests := map[string]struct {
		handler http.Handler
		path    string
		expName string
		expErr  bool
	}{
		"A successful download should produce the artifact.": {
			handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(content)
			}),
			path:    "/releases/tool-linux-amd64",
			expName: "tool-linux-amd64",
		},
		"A non 200 response should fail.": {
			handler: http.NotFoundHandler(),
			path:    "/missing",
			expErr:  true,
		},
		"An empty body should fail validation.": {
			handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
			path:    "/empty",
			expErr:  true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			server := httptest.NewServer(test.handler)
			t.Cleanup(server.Close)

			srcURL := server.URL + test.path
			s, err := source.NewHTTPSource(source.HTTPSourceConfig{URL: srcURL})
			require.NoError(err)

			artifact, err := s.Fetch(context.Background())

			if test.expErr {
				require.Error(err)
				return
			}
			require.NoError(err)

			assert.Equal(test.expName, artifact.Name)
			assert.Equal(content, artifact.Data)
			assert.Equal(srcURL, artifact.Origin)
			assert.Equal(digest.FromBytes(content).String(), artifact.Digest)
			assert.Equal(int64(len(content)), artifact.SizeBytes)
		})
	}
}

func TestHTTPSourceFetchProgress(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	content := bytes.Repeat([]byte("x"), 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		_, _ = w.Write(content)
	}))
	t.Cleanup(server.Close)

	var status bytes.Buffer
	s, err := source.NewHTTPSource(source.HTTPSourceConfig{
		URL:            server.URL + "/tool",
		ProgressOutput: &status,
	})
	require.NoError(err)

	artifact, err := s.Fetch(context.Background())
	require.NoError(err)

	assert.Equal(content, artifact.Data)
	assert.NotEmpty(status.String())
	assert.Contains(status.String(), "%")
}

func TestHTTPSourceFetchNameFallsBackToHost(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(err)

	s, err := source.NewHTTPSource(source.HTTPSourceConfig{URL: server.URL + "/"})
	require.NoError(err)

	artifact, err := s.Fetch(context.Background())
	require.NoError(err)

	assert.Equal(u.Host, artifact.Name)
}

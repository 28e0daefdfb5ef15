package memfd_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/memrun/internal/memfd"
)

func TestCreate(t *testing.T) {
	tests := map[string]struct {
		name string
		data []byte
	}{
		"The created file should hold exactly the given bytes.": {
			name: "tool",
			data: []byte("\x7fELF fake image contents"),
		},

		"An empty buffer should still produce a valid sealed file.": {
			name: "empty",
			data: []byte{},
		},

		"Names with slashes should be accepted (sanitized).": {
			name: "/usr/bin/tool",
			data: []byte("bytes"),
		},

		"An empty name should be accepted (fallback name).": {
			name: "",
			data: []byte("bytes"),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			f, err := memfd.Create(test.name, test.data)
			require.NoError(err)
			defer f.Close()

			// Opening the proc path gives an independent descriptor at
			// offset zero over the same memory.
			got, err := os.ReadFile(memfd.ProcPath(f))
			require.NoError(err)
			assert.Equal(test.data, got)
		})
	}
}

func TestCreateSealed(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	f, err := memfd.Create("sealed", []byte("immutable"))
	require.NoError(err)
	defer f.Close()

	_, err = f.Write([]byte("tampering"))
	assert.Error(err, "writes after sealing should be rejected")

	err = f.Truncate(0)
	assert.Error(err, "resizing after sealing should be rejected")

	err = f.Truncate(1024)
	assert.Error(err, "growing after sealing should be rejected")
}

func TestProcPath(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	f, err := memfd.Create("pathcheck", []byte("bytes"))
	require.NoError(err)
	defer f.Close()

	assert.Equal(fmt.Sprintf("/proc/self/fd/%d", f.Fd()), memfd.ProcPath(f))

	// The descriptor must sit above the standard stream slots so the
	// child side stdio rewiring can never close it.
	assert.GreaterOrEqual(int(f.Fd()), 3)
}

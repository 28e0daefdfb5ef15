package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slok/memrun/internal/model"
)

func TestRunSpecValidate(t *testing.T) {
	tests := map[string]struct {
		spec   model.RunSpec
		expErr bool
	}{
		"Zero value spec should be valid (everything inherited).": {
			spec: model.RunSpec{},
		},

		"Explicit inherit streams should be valid.": {
			spec: model.RunSpec{
				Stdin:  model.StreamSpec{Mode: model.StreamInherit},
				Stdout: model.StreamSpec{Mode: model.StreamInherit},
				Stderr: model.StreamSpec{Mode: model.StreamInherit},
			},
		},

		"Null streams should be valid.": {
			spec: model.RunSpec{
				Stdin:  model.StreamSpec{Mode: model.StreamNull},
				Stdout: model.StreamSpec{Mode: model.StreamNull},
				Stderr: model.StreamSpec{Mode: model.StreamNull},
			},
		},

		"Captured stdout and stderr should be valid.": {
			spec: model.RunSpec{
				Stdout: model.StreamSpec{Mode: model.StreamCapture},
				Stderr: model.StreamSpec{Mode: model.StreamCapture},
			},
		},

		"Captured stdin should fail.": {
			spec: model.RunSpec{
				Stdin: model.StreamSpec{Mode: model.StreamCapture},
			},
			expErr: true,
		},

		"File stream with a path should be valid.": {
			spec: model.RunSpec{
				Stdout: model.StreamSpec{Mode: model.StreamFile, Path: "/tmp/out.log"},
			},
		},

		"File stream without a path should fail.": {
			spec: model.RunSpec{
				Stdout: model.StreamSpec{Mode: model.StreamFile},
			},
			expErr: true,
		},

		"Unknown stream mode should fail.": {
			spec: model.RunSpec{
				Stderr: model.StreamSpec{Mode: "broadcast"},
			},
			expErr: true,
		},

		"TTY with inherited streams should be valid.": {
			spec: model.RunSpec{TTY: true},
		},

		"TTY with a captured stream should fail.": {
			spec: model.RunSpec{
				TTY:    true,
				Stdout: model.StreamSpec{Mode: model.StreamCapture},
			},
			expErr: true,
		},

		"Negative timeout should fail.": {
			spec: model.RunSpec{
				Timeout: -1 * time.Second,
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			err := test.spec.Validate()

			if test.expErr {
				assert.Error(err)
				assert.ErrorIs(err, model.ErrNotValid)
			} else {
				assert.NoError(err)
			}
		})
	}
}

func TestParseStreamSpec(t *testing.T) {
	tests := map[string]struct {
		value   string
		expSpec model.StreamSpec
		expErr  bool
	}{
		"Empty value should keep the zero value.": {
			value:   "",
			expSpec: model.StreamSpec{},
		},

		"Inherit should parse.": {
			value:   "inherit",
			expSpec: model.StreamSpec{Mode: model.StreamInherit},
		},

		"Null should parse.": {
			value:   "null",
			expSpec: model.StreamSpec{Mode: model.StreamNull},
		},

		"Capture should parse.": {
			value:   "capture",
			expSpec: model.StreamSpec{Mode: model.StreamCapture},
		},

		"File with a path should parse.": {
			value:   "file:/tmp/out.log",
			expSpec: model.StreamSpec{Mode: model.StreamFile, Path: "/tmp/out.log"},
		},

		"File without a path should fail.": {
			value:  "file:",
			expErr: true,
		},

		"Unknown value should fail.": {
			value:  "everywhere",
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			spec, err := model.ParseStreamSpec(test.value)

			if test.expErr {
				assert.Error(err)
				assert.ErrorIs(err, model.ErrNotValid)
			} else {
				assert.NoError(err)
				assert.Equal(test.expSpec, spec)
			}
		})
	}
}

func TestSourceSpecValidate(t *testing.T) {
	tests := map[string]struct {
		source model.SourceSpec
		expErr bool
	}{
		"File source should be valid.": {
			source: model.SourceSpec{File: "/bin/true"},
		},

		"URL source should be valid.": {
			source: model.SourceSpec{URL: "https://example.org/tool"},
		},

		"Image source should be valid.": {
			source: model.SourceSpec{Image: &model.ImageSourceSpec{Ref: "busybox:latest", Path: "/bin/busybox"}},
		},

		"Stdin source should be valid.": {
			source: model.SourceSpec{Stdin: true},
		},

		"Empty source should fail.": {
			source: model.SourceSpec{},
			expErr: true,
		},

		"Multiple sources should fail.": {
			source: model.SourceSpec{File: "/bin/true", URL: "https://example.org/tool"},
			expErr: true,
		},

		"Image source without ref should fail.": {
			source: model.SourceSpec{Image: &model.ImageSourceSpec{Path: "/bin/busybox"}},
			expErr: true,
		},

		"Image source without path should fail.": {
			source: model.SourceSpec{Image: &model.ImageSourceSpec{Ref: "busybox:latest"}},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			err := test.source.Validate()

			if test.expErr {
				assert.Error(err)
				assert.ErrorIs(err, model.ErrNotValid)
			} else {
				assert.NoError(err)
			}
		})
	}
}

func TestRunValidate(t *testing.T) {
	t0 := time.Now()

	tests := map[string]struct {
		run    model.Run
		expErr bool
	}{
		"A complete run record should be valid.": {
			run: model.Run{
				ID:        "01JMR6ZZZZZZZZZZZZZZZZZZZZ",
				Name:      "busybox",
				Status:    model.RunStatusCompleted,
				CreatedAt: t0,
			},
		},

		"Missing ID should fail.": {
			run: model.Run{
				Name:      "busybox",
				Status:    model.RunStatusCompleted,
				CreatedAt: t0,
			},
			expErr: true,
		},

		"Missing name should fail.": {
			run: model.Run{
				ID:        "01JMR6ZZZZZZZZZZZZZZZZZZZZ",
				Status:    model.RunStatusCompleted,
				CreatedAt: t0,
			},
			expErr: true,
		},

		"Unknown status should fail.": {
			run: model.Run{
				ID:        "01JMR6ZZZZZZZZZZZZZZZZZZZZ",
				Name:      "busybox",
				Status:    "exploded",
				CreatedAt: t0,
			},
			expErr: true,
		},

		"Missing creation timestamp should fail.": {
			run: model.Run{
				ID:     "01JMR6ZZZZZZZZZZZZZZZZZZZZ",
				Name:   "busybox",
				Status: model.RunStatusSignaled,
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			err := test.run.Validate()

			if test.expErr {
				assert.Error(err)
				assert.ErrorIs(err, model.ErrNotValid)
			} else {
				assert.NoError(err)
			}
		})
	}
}

package historyrm_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/memrun/internal/app/historyrm"
	"github.com/slok/memrun/internal/log"
	"github.com/slok/memrun/internal/model"
	"github.com/slok/memrun/internal/storage/storagemock"
)

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		cfg    historyrm.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			cfg: historyrm.ServiceConfig{
				Repository: &storagemock.MockRepository{},
				Logger:     log.Noop,
			},
		},

		"missing repository should fail": {
			cfg:    historyrm.ServiceConfig{Logger: log.Noop},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			svc, err := historyrm.NewService(test.cfg)

			if test.expErr {
				assert.Error(err)
				assert.Nil(svc)
			} else {
				assert.NoError(err)
				assert.NotNil(svc)
			}
		})
	}
}

func TestService_Run(t *testing.T) {
	tests := map[string]struct {
		mock       func(m *storagemock.MockRepository)
		req        historyrm.Request
		expRemoved int
		expErr     bool
	}{
		"removing a run by ID should succeed": {
			mock: func(m *storagemock.MockRepository) {
				m.On("DeleteRun", mock.Anything, "run-1").Once().Return(nil)
			},
			req:        historyrm.Request{ID: "run-1"},
			expRemoved: 1,
		},

		"removing a missing run should fail with not found": {
			mock: func(m *storagemock.MockRepository) {
				m.On("DeleteRun", mock.Anything, "run-1").Once().Return(model.ErrNotFound)
			},
			req:    historyrm.Request{ID: "run-1"},
			expErr: true,
		},

		"removing everything should report the count": {
			mock: func(m *storagemock.MockRepository) {
				m.On("DeleteAllRuns", mock.Anything).Once().Return(3, nil)
			},
			req:        historyrm.Request{All: true},
			expRemoved: 3,
		},

		"a repository failure should propagate": {
			mock: func(m *storagemock.MockRepository) {
				m.On("DeleteAllRuns", mock.Anything).Once().Return(0, fmt.Errorf("boom"))
			},
			req:    historyrm.Request{All: true},
			expErr: true,
		},

		"neither an ID nor all should fail": {
			mock:   func(m *storagemock.MockRepository) {},
			req:    historyrm.Request{},
			expErr: true,
		},

		"both an ID and all should fail": {
			mock:   func(m *storagemock.MockRepository) {},
			req:    historyrm.Request{ID: "run-1", All: true},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := &storagemock.MockRepository{}
			test.mock(m)

			svc, err := historyrm.NewService(historyrm.ServiceConfig{Repository: m, Logger: log.Noop})
			require.NoError(err)

			removed, err := svc.Run(context.TODO(), test.req)

			if test.expErr {
				assert.Error(err)
			} else {
				require.NoError(err)
				assert.Equal(test.expRemoved, removed)
			}

			m.AssertExpectations(t)
		})
	}
}

package historylist_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/memrun/internal/app/historylist"
	"github.com/slok/memrun/internal/log"
	"github.com/slok/memrun/internal/model"
	"github.com/slok/memrun/internal/storage/storagemock"
)

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		cfg    historylist.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			cfg: historylist.ServiceConfig{
				Repository: &storagemock.MockRepository{},
				Logger:     log.Noop,
			},
		},

		"missing repository should fail": {
			cfg:    historylist.ServiceConfig{Logger: log.Noop},
			expErr: true,
		},

		"nil logger should default to noop": {
			cfg: historylist.ServiceConfig{
				Repository: &storagemock.MockRepository{},
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			svc, err := historylist.NewService(test.cfg)

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
	createdAt := time.Date(2026, 2, 17, 10, 0, 0, 0, time.UTC)

	completed := model.RunStatusCompleted
	signaled := model.RunStatusSignaled

	tests := map[string]struct {
		mock      func(m *storagemock.MockRepository)
		req       historylist.Request
		expResult func() []model.Run
		expErr    bool
	}{
		"list all runs without filter": {
			mock: func(m *storagemock.MockRepository) {
				m.On("ListRuns", mock.Anything).Once().Return([]model.Run{
					{ID: "id1", Name: "tool-1", Status: model.RunStatusCompleted, CreatedAt: createdAt},
					{ID: "id2", Name: "tool-2", Status: model.RunStatusSignaled, Signal: 9, ExitCode: -1, CreatedAt: createdAt},
				}, nil)
			},
			req: historylist.Request{},
			expResult: func() []model.Run {
				return []model.Run{
					{ID: "id1", Name: "tool-1", Status: model.RunStatusCompleted, CreatedAt: createdAt},
					{ID: "id2", Name: "tool-2", Status: model.RunStatusSignaled, Signal: 9, ExitCode: -1, CreatedAt: createdAt},
				}
			},
		},

		"filter by completed status": {
			mock: func(m *storagemock.MockRepository) {
				m.On("ListRuns", mock.Anything).Once().Return([]model.Run{
					{ID: "id1", Name: "tool-1", Status: model.RunStatusCompleted, CreatedAt: createdAt},
					{ID: "id2", Name: "tool-2", Status: model.RunStatusSignaled, CreatedAt: createdAt},
					{ID: "id3", Name: "tool-3", Status: model.RunStatusCompleted, CreatedAt: createdAt},
				}, nil)
			},
			req: historylist.Request{StatusFilter: &completed},
			expResult: func() []model.Run {
				return []model.Run{
					{ID: "id1", Name: "tool-1", Status: model.RunStatusCompleted, CreatedAt: createdAt},
					{ID: "id3", Name: "tool-3", Status: model.RunStatusCompleted, CreatedAt: createdAt},
				}
			},
		},

		"filter with no matches returns empty list": {
			mock: func(m *storagemock.MockRepository) {
				m.On("ListRuns", mock.Anything).Once().Return([]model.Run{
					{ID: "id1", Name: "tool-1", Status: model.RunStatusCompleted, CreatedAt: createdAt},
				}, nil)
			},
			req: historylist.Request{StatusFilter: &signaled},
			expResult: func() []model.Run {
				return []model.Run{}
			},
		},

		"empty repository returns empty list": {
			mock: func(m *storagemock.MockRepository) {
				m.On("ListRuns", mock.Anything).Once().Return([]model.Run{}, nil)
			},
			req: historylist.Request{},
			expResult: func() []model.Run {
				return []model.Run{}
			},
		},

		"repository error should propagate": {
			mock: func(m *storagemock.MockRepository) {
				m.On("ListRuns", mock.Anything).Once().Return(nil, fmt.Errorf("boom"))
			},
			req:    historylist.Request{},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := &storagemock.MockRepository{}
			test.mock(m)

			svc, err := historylist.NewService(historylist.ServiceConfig{Repository: m, Logger: log.Noop})
			require.NoError(err)

			runs, err := svc.Run(context.TODO(), test.req)

			if test.expErr {
				assert.Error(err)
			} else {
				require.NoError(err)
				assert.Equal(test.expResult(), runs)
			}

			m.AssertExpectations(t)
		})
	}
}

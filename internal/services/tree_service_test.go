package services_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vytor/openingtree/internal/errors"
	"github.com/vytor/openingtree/internal/models"
	"github.com/vytor/openingtree/internal/services"
	"github.com/vytor/openingtree/internal/stats"
	"github.com/vytor/openingtree/internal/testutil/mocks"
	"github.com/vytor/openingtree/internal/tree"
	"github.com/vytor/openingtree/internal/worker"
)

func record(id int64, white, black, result string, moves ...string) models.GameRecord {
	return models.GameRecord{ID: id, White: white, Black: black, Result: result, Date: "2021.05.01", Moves: moves}
}

func carlsenFilter() models.FilterCriteria {
	f := models.NewFilterCriteria()
	f.PlayerName = "carlsen"
	return f
}

type TreeServiceSuite struct {
	suite.Suite
	repo    *mocks.MockGameRepository
	pool    *worker.Pool
	metrics *stats.Memory
	svc     services.TreeService
}

func (s *TreeServiceSuite) SetupTest() {
	s.repo = new(mocks.MockGameRepository)
	s.pool = worker.NewPool(1, 4)
	s.pool.Start(context.Background())
	s.metrics = stats.NewMemory()

	svc, err := services.NewTreeService(tree.NewBuilder(s.repo), s.pool, s.metrics, 2)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *TreeServiceSuite) TearDownTest() {
	s.pool.Stop()
}

func (s *TreeServiceSuite) wait(h *services.BuildHandle) services.BuildResult {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := h.Wait(ctx)
	s.Require().NoError(err)
	return res
}

func (s *TreeServiceSuite) TestBuild_RecordsMetrics() {
	s.repo.On("SearchByPlayer", mock.Anything, "carlsen").Return([]models.GameRecord{
		record(1, "Carlsen", "Caruana", "1-0", "e4", "e5"),
		record(2, "Nakamura", "Carlsen", "1-0", "d4", "d5"),
	}, nil)

	res, err := s.svc.Build(context.Background(), carlsenFilter(), nil)
	s.Require().NoError(err)

	s.Assert().Equal(2, res.Root.GameCount())
	s.Assert().Equal(int64(1), s.metrics.Counter(stats.MetricBuildsCompleted))
	s.Assert().Equal(int64(2), s.metrics.Counter(stats.MetricGamesFetched))
	s.Assert().Equal(int64(5), s.metrics.Gauge(stats.MetricTreeNodes))
	s.Assert().Len(s.metrics.Observations(stats.MetricBuildSeconds), 1)
}

func (s *TreeServiceSuite) TestBuild_StoreFailure() {
	s.repo.On("SearchByPlayer", mock.Anything, "carlsen").Return(nil, stderrors.New("locked"))

	_, err := s.svc.Build(context.Background(), carlsenFilter(), nil)
	s.Assert().True(errors.IsDataSource(err))
	s.Assert().Equal(int64(1), s.metrics.Counter(stats.MetricBuildsFailed))
}

func (s *TreeServiceSuite) TestSubmit_DeliversResultOnce() {
	s.repo.On("SearchByPlayer", mock.Anything, "carlsen").Return([]models.GameRecord{
		record(1, "Carlsen", "Caruana", "1-0", "e4", "e5"),
		record(2, "Carlsen", "So", "1/2-1/2", "e4", "c5"),
	}, nil)

	h, err := s.svc.Submit(context.Background(), carlsenFilter())
	s.Require().NoError(err)
	s.Assert().NotEmpty(h.ID())

	var res services.BuildResult
	select {
	case res = <-h.Done():
	case <-time.After(5 * time.Second):
		s.FailNow("build did not finish")
	}
	s.Require().NoError(res.Err)
	s.Assert().Equal(2, res.Root.GameCount())
	s.Assert().Equal(services.StatusDone, h.Status())
	s.Assert().Equal(services.Progress{Phase: tree.PhaseBuilding, Current: 2, Total: 2}, h.Progress())

	select {
	case <-h.Done():
		s.Fail("result delivered twice")
	default:
	}

	again, ok := h.Result()
	s.Require().True(ok)
	s.Assert().Same(res.Root, again.Root)
	s.Assert().Equal(int64(1), s.metrics.Counter(stats.MetricBuildsSubmitted))
	s.Assert().Equal(int64(1), s.metrics.Gauge(stats.MetricTreesCached))
}

func (s *TreeServiceSuite) TestSubmit_FailureIsReported() {
	s.repo.On("SearchByPlayer", mock.Anything, "carlsen").Return(nil, stderrors.New("locked"))

	h, err := s.svc.Submit(context.Background(), carlsenFilter())
	s.Require().NoError(err)

	res := s.wait(h)
	s.Assert().True(errors.IsDataSource(res.Err))
	s.Assert().Nil(res.Root)
	s.Assert().Equal(services.StatusFailed, h.Status())

	_, err = s.svc.Navigate(h.ID(), nil)
	appErr, ok := errors.As(err)
	s.Require().True(ok)
	s.Assert().Equal(errors.ErrCodeConflict, appErr.Code)
}

func (s *TreeServiceSuite) TestNavigate() {
	s.repo.On("SearchByPlayer", mock.Anything, "carlsen").Return([]models.GameRecord{
		record(1, "Carlsen", "Caruana", "1-0", "e4", "e5", "Nf3"),
	}, nil)

	h, err := s.svc.Submit(context.Background(), carlsenFilter())
	s.Require().NoError(err)
	s.wait(h)

	node, err := s.svc.Navigate(h.ID(), []string{"e4", "e5"})
	s.Require().NoError(err)
	s.Assert().Equal("e5", node.Move())
	s.Assert().Equal(2, node.Ply())

	root, err := s.svc.Navigate(h.ID(), nil)
	s.Require().NoError(err)
	s.Assert().True(root.IsRoot())

	_, err = s.svc.Navigate(h.ID(), []string{"d4"})
	appErr, ok := errors.As(err)
	s.Require().True(ok)
	s.Assert().Equal(errors.ErrCodeNotFound, appErr.Code)

	_, err = s.svc.Navigate("missing", nil)
	appErr, ok = errors.As(err)
	s.Require().True(ok)
	s.Assert().Equal(errors.ErrCodeNotFound, appErr.Code)
}

func (s *TreeServiceSuite) TestRegistryEvictsOldestBuild() {
	s.repo.On("SearchByPlayer", mock.Anything, "carlsen").Return([]models.GameRecord{}, nil)

	var handles []*services.BuildHandle
	for i := 0; i < 3; i++ {
		h, err := s.svc.Submit(context.Background(), carlsenFilter())
		s.Require().NoError(err)
		s.wait(h)
		handles = append(handles, h)
	}

	_, ok := s.svc.Lookup(handles[0].ID())
	s.Assert().False(ok)
	for _, h := range handles[1:] {
		_, ok := s.svc.Lookup(h.ID())
		s.Assert().True(ok)
	}
}

func (s *TreeServiceSuite) TestCancelRunningBuild() {
	started := make(chan struct{})
	s.repo.On("SearchByPlayer", mock.Anything, "carlsen").
		Run(func(args mock.Arguments) {
			close(started)
			<-args.Get(0).(context.Context).Done()
		}).
		Return([]models.GameRecord{record(1, "Carlsen", "Caruana", "1-0", "e4")}, nil)

	h, err := s.svc.Submit(context.Background(), carlsenFilter())
	s.Require().NoError(err)
	<-started
	s.Require().NoError(s.svc.Cancel(h.ID()))

	res := s.wait(h)
	s.Assert().ErrorIs(res.Err, context.Canceled)
	s.Assert().Equal(services.StatusCancelled, h.Status())
}

func (s *TreeServiceSuite) TestCancelUnknownBuild() {
	err := s.svc.Cancel("nope")
	appErr, ok := errors.As(err)
	s.Require().True(ok)
	s.Assert().Equal(errors.ErrCodeNotFound, appErr.Code)
}

func TestTreeServiceSuite(t *testing.T) {
	suite.Run(t, new(TreeServiceSuite))
}

func TestSubmit_QueueFull(t *testing.T) {
	repo := new(mocks.MockGameRepository)
	pool := worker.NewPool(1, 1)
	svc, err := services.NewTreeService(tree.NewBuilder(repo), pool, nil, 4)
	require.NoError(t, err)

	first, err := svc.Submit(context.Background(), carlsenFilter())
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), carlsenFilter())
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeRateLimit, appErr.Code)

	require.NoError(t, svc.Cancel(first.ID()))
	res, ok := first.Result()
	require.True(t, ok)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, services.StatusCancelled, first.Status())

	pool.Start(context.Background())
	pool.Stop()
}

func TestClose_SettlesBuildsDroppedByPool(t *testing.T) {
	repo := new(mocks.MockGameRepository)
	started := make(chan struct{})
	repo.On("SearchByPlayer", mock.Anything, "carlsen").
		Run(func(args mock.Arguments) {
			close(started)
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.Canceled).Once()

	pool := worker.NewPool(1, 4)
	pool.Start(context.Background())
	svc, err := services.NewTreeService(tree.NewBuilder(repo), pool, nil, 4)
	require.NoError(t, err)

	first, err := svc.Submit(context.Background(), carlsenFilter())
	require.NoError(t, err)
	<-started
	second, err := svc.Submit(context.Background(), carlsenFilter())
	require.NoError(t, err)

	pool.Stop()
	svc.Close()

	for _, h := range []*services.BuildHandle{first, second} {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		res, err := h.Wait(ctx)
		cancel()
		require.NoError(t, err)
		assert.ErrorIs(t, res.Err, context.Canceled)
		assert.Equal(t, services.StatusCancelled, h.Status())
	}
	repo.AssertNumberOfCalls(t, "SearchByPlayer", 1)

	_, err = svc.Submit(context.Background(), carlsenFilter())
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInternal, appErr.Code)
}

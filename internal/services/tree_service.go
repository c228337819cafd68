package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vytor/openingtree/internal/errors"
	"github.com/vytor/openingtree/internal/logger"
	"github.com/vytor/openingtree/internal/models"
	"github.com/vytor/openingtree/internal/stats"
	"github.com/vytor/openingtree/internal/tree"
	"github.com/vytor/openingtree/internal/worker"
)

// BuildStatus is the lifecycle state of a submitted build.
type BuildStatus string

const (
	StatusQueued    BuildStatus = "queued"
	StatusRunning   BuildStatus = "running"
	StatusDone      BuildStatus = "done"
	StatusFailed    BuildStatus = "failed"
	StatusCancelled BuildStatus = "cancelled"
)

// Progress is a snapshot of a running build.
type Progress struct {
	Phase   tree.Phase `json:"phase"`
	Current int        `json:"current"`
	Total   int        `json:"total"`
}

// BuildResult is delivered once when a submitted build ends.
type BuildResult struct {
	Root    *tree.Node
	Summary tree.Summary
	Err     error
}

// BuildHandle tracks one submitted build.
type BuildHandle struct {
	id        string
	filter    models.FilterCriteria
	submitted time.Time

	mu       sync.RWMutex
	status   BuildStatus
	progress Progress
	result   *BuildResult
	cancel   context.CancelFunc
	done     chan BuildResult
	finished chan struct{}
}

func newBuildHandle(filter models.FilterCriteria) *BuildHandle {
	return &BuildHandle{
		id:        uuid.NewString(),
		filter:    filter,
		submitted: time.Now(),
		status:    StatusQueued,
		done:      make(chan BuildResult, 1),
		finished:  make(chan struct{}),
	}
}

func (h *BuildHandle) ID() string                    { return h.id }
func (h *BuildHandle) Filter() models.FilterCriteria { return h.filter }
func (h *BuildHandle) SubmittedAt() time.Time        { return h.submitted }

func (h *BuildHandle) Status() BuildStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

func (h *BuildHandle) Progress() Progress {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.progress
}

// Done delivers the result exactly once. Use Result or Wait for repeated
// reads.
func (h *BuildHandle) Done() <-chan BuildResult {
	return h.done
}

// Result returns the outcome if the build has ended.
func (h *BuildHandle) Result() (BuildResult, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.result == nil {
		return BuildResult{}, false
	}
	return *h.result, true
}

// Wait blocks until the build ends or ctx is done.
func (h *BuildHandle) Wait(ctx context.Context) (BuildResult, error) {
	select {
	case <-h.finished:
		res, _ := h.Result()
		return res, nil
	case <-ctx.Done():
		return BuildResult{}, ctx.Err()
	}
}

func (h *BuildHandle) setProgress(phase tree.Phase, current, total int) {
	h.mu.Lock()
	h.progress = Progress{Phase: phase, Current: current, Total: total}
	h.mu.Unlock()
}

// start moves a queued handle to running. It fails if the build was
// cancelled while queued.
func (h *BuildHandle) start(cancel context.CancelFunc) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status != StatusQueued {
		return false
	}
	h.status = StatusRunning
	h.cancel = cancel
	return true
}

// requestCancel cancels a running build, or marks a queued one so it
// never starts. It reports whether the build was still queued.
func (h *BuildHandle) requestCancel() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.status {
	case StatusQueued:
		h.status = StatusCancelled
		return true
	case StatusRunning:
		if h.cancel != nil {
			h.cancel()
		}
	}
	return false
}

func (h *BuildHandle) finish(res BuildResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.result != nil {
		return
	}
	switch {
	case res.Err == nil:
		h.status = StatusDone
	case isCancellation(res.Err):
		h.status = StatusCancelled
	default:
		h.status = StatusFailed
	}
	h.result = &res
	h.cancel = nil
	h.done <- res
	close(h.finished)
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// TreeService builds opening trees and keeps the finished ones for
// navigation.
type TreeService interface {
	// Build runs a build on the calling goroutine.
	Build(ctx context.Context, filter models.FilterCriteria, progress tree.ProgressFunc) (*tree.Result, error)
	// Submit queues a build on the worker pool.
	Submit(ctx context.Context, filter models.FilterCriteria) (*BuildHandle, error)
	Lookup(id string) (*BuildHandle, bool)
	Cancel(id string) error
	Navigate(id string, path []string) (*tree.Node, error)
	RunBuild(ctx context.Context, id string) error
	// Close cancels every queued or running build and rejects new ones.
	// Call it after stopping the pool so dropped builds still finish.
	Close()
}

type treeService struct {
	builder *tree.Builder
	pool    *worker.Pool
	metrics stats.Collector

	mu       sync.Mutex
	closed   bool
	pending  map[string]*BuildHandle
	finished *lru.Cache[string, *BuildHandle]
}

var _ worker.BuildRunner = (*treeService)(nil)

// NewTreeService creates a TreeService. Submitted builds run on pool,
// which should have a single worker so builds are serialized; a nil pool
// limits the service to Build. Up to cacheSize finished builds are kept.
func NewTreeService(builder *tree.Builder, pool *worker.Pool, metrics stats.Collector, cacheSize int) (TreeService, error) {
	if metrics == nil {
		metrics = stats.Noop{}
	}
	cache, err := lru.New[string, *BuildHandle](cacheSize)
	if err != nil {
		return nil, err
	}
	return &treeService{
		builder:  builder,
		pool:     pool,
		metrics:  metrics,
		pending:  make(map[string]*BuildHandle),
		finished: cache,
	}, nil
}

func (s *treeService) Build(ctx context.Context, filter models.FilterCriteria, progress tree.ProgressFunc) (*tree.Result, error) {
	log := logger.FromContext(ctx).WithPrefix("tree_service")
	log.Info("building tree for %s", filter)

	res, err := s.builder.Build(ctx, filter, progress)
	if err != nil {
		s.metrics.IncCounter(stats.MetricBuildsFailed, 1)
		log.Error("build failed: %v", err)
		return nil, err
	}

	st := tree.Stats(res.Root)
	s.metrics.IncCounter(stats.MetricBuildsCompleted, 1)
	s.metrics.IncCounter(stats.MetricGamesFetched, int64(res.Summary.Fetched))
	s.metrics.IncCounter(stats.MetricGamesRetained, int64(res.Summary.Retained))
	s.metrics.ObserveHistogram(stats.MetricBuildSeconds, res.Summary.Duration.Seconds())
	s.metrics.SetGauge(stats.MetricTreeNodes, int64(st.TotalVariations+1))
	log.Info("tree ready: games=%d variations=%d depth=%d", st.TotalGames, st.TotalVariations, st.MaxDepth)
	return res, nil
}

func (s *treeService) Submit(ctx context.Context, filter models.FilterCriteria) (*BuildHandle, error) {
	log := logger.FromContext(ctx).WithPrefix("tree_service")
	if s.pool == nil {
		return nil, errors.NewInternalError(worker.ErrPoolStopped)
	}
	h := newBuildHandle(filter.Normalize())

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.NewInternalError(worker.ErrPoolStopped)
	}
	s.pending[h.id] = h
	s.mu.Unlock()

	if err := s.pool.Submit(&worker.BuildTreeJob{Runner: s, BuildID: h.id}); err != nil {
		s.mu.Lock()
		delete(s.pending, h.id)
		s.mu.Unlock()
		log.Warn("rejecting build: %v", err)
		if errors.Is(err, worker.ErrQueueFull) {
			return nil, errors.NewRateLimitError("build queue is full")
		}
		return nil, errors.NewInternalError(err)
	}

	s.metrics.IncCounter(stats.MetricBuildsSubmitted, 1)
	log.WithField("build_id", h.id).Info("queued build for %s", h.filter)
	return h, nil
}

func (s *treeService) Lookup(id string) (*BuildHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.pending[id]; ok {
		return h, true
	}
	return s.finished.Get(id)
}

// Cancel stops a queued or running build. Finished builds are left as
// they are.
func (s *treeService) Cancel(id string) error {
	h, ok := s.Lookup(id)
	if !ok {
		return errors.NewNotFoundError("build", id)
	}

	if h.requestCancel() {
		s.complete(h, BuildResult{Err: context.Canceled})
	}
	return nil
}

func (s *treeService) Navigate(id string, path []string) (*tree.Node, error) {
	h, ok := s.Lookup(id)
	if !ok {
		return nil, errors.NewNotFoundError("build", id)
	}
	res, ok := h.Result()
	if !ok {
		return nil, errors.NewConflictError("build " + id + " is still " + string(h.Status()))
	}
	if res.Err != nil {
		return nil, errors.NewConflictError("build " + id + " did not produce a tree")
	}
	node, ok := tree.Navigate(res.Root, path)
	if !ok {
		return nil, errors.NewNotFoundError("move path", strings.Join(path, " "))
	}
	return node, nil
}

// RunBuild executes a queued build. It is called by the worker pool.
func (s *treeService) RunBuild(ctx context.Context, id string) error {
	s.mu.Lock()
	h, ok := s.pending[id]
	s.mu.Unlock()
	if !ok {
		logger.FromContext(ctx).Debug("build %s is no longer pending", id)
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if !h.start(cancel) {
		return nil
	}

	ctx = logger.NewContext(ctx, logger.FromContext(ctx).WithField("build_id", id))
	res, err := s.Build(ctx, h.filter, h.setProgress)
	if err != nil {
		s.complete(h, BuildResult{Err: err})
		return err
	}
	s.complete(h, BuildResult{Root: res.Root, Summary: res.Summary})
	return nil
}

func (s *treeService) Close() {
	s.mu.Lock()
	s.closed = true
	handles := make([]*BuildHandle, 0, len(s.pending))
	for _, h := range s.pending {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	for _, h := range handles {
		if h.requestCancel() {
			s.complete(h, BuildResult{Err: context.Canceled})
		}
	}
	if len(handles) > 0 {
		logger.Default().WithPrefix("tree_service").Info("cancelled %d pending builds", len(handles))
	}
}

// complete records the outcome and moves the handle from the pending set
// into the LRU registry.
func (s *treeService) complete(h *BuildHandle, res BuildResult) {
	h.finish(res)

	s.mu.Lock()
	delete(s.pending, h.id)
	s.finished.Add(h.id, h)
	cached := s.finished.Len()
	s.mu.Unlock()

	s.metrics.SetGauge(stats.MetricTreesCached, int64(cached))
}

// Package service 提供了推荐相关的业务逻辑：分层加载快照、缓存结果、对外的查询操作。
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"movie-rec-go/internal/cache"
	"movie-rec-go/internal/engine"
	"movie-rec-go/internal/model"
	"movie-rec-go/internal/repository"
	"movie-rec-go/internal/resolver"
	"movie-rec-go/pkg/log"
	"movie-rec-go/pkg/metrics"
	"movie-rec-go/pkg/tasks"
)

// phaseThreshold 是判定某一阶段完成所需的语料规模比例。
const phaseThreshold = 0.9

// SnapshotBuilder 构建指定层级的快照。*pipeline.Builder 实现了该接口。
type SnapshotBuilder interface {
	Build(ctx context.Context, tier model.Tier, limit int) (*engine.Snapshot, error)
}

// EventPublisher 发布快照生命周期事件。*kafka.Producer 实现了该接口。
type EventPublisher interface {
	PublishSnapshotEvent(ctx context.Context, ev tasks.SnapshotEvent) error
}

type noopPublisher struct{}

func (noopPublisher) PublishSnapshotEvent(context.Context, tasks.SnapshotEvent) error { return nil }

// Options 是推荐服务的运行参数。
type Options struct {
	QuickStartLimit int
	LoadLimit       int
	DefaultLimit    int
	MaxLimit        int
	DatasetType     string
	// SampleSize 与构建器的抽样规模一致，<= 0 表示不抽样。
	SampleSize int
}

// RecommendationService 接口定义了推荐操作。
type RecommendationService interface {
	// Initialize 等待 Phase 1 快照就绪，成功后在后台启动 Phase 2。已初始化时直接返回。
	Initialize(ctx context.Context) error
	// GetSimilarMovies 总是返回结构化结果，失败信息放在结果中。
	GetSimilarMovies(ctx context.Context, identifier string, limit int) *model.SimilarMoviesResponse
	GetModelStatus() *model.ModelStatus
	SearchMovies(ctx context.Context, query string, limit int) (*model.SearchResponse, error)
	// Reload 在后台重建完整快照。已有构建在运行时返回 model.ErrReloadInProgress。
	Reload(ctx context.Context) error
	TrainingRuns(ctx context.Context, limit int) ([]model.TrainingRun, error)
	// Shutdown 取消后台构建并等待其与事件发送结束，ctx 到期时放弃等待。
	Shutdown(ctx context.Context) error
}

// initCall 是一次进行中的 Phase 1 构建，等待者共享其结果。
type initCall struct {
	done chan struct{}
	snap *engine.Snapshot
	err  error
}

type recommendationService struct {
	builder SnapshotBuilder
	cache   cache.Cache
	events  EventPublisher
	runs    repository.TrainingRunRepository
	opts    Options

	// baseCtx 约束所有后台构建，Shutdown 时取消
	baseCtx context.Context
	cancel  context.CancelFunc

	active   atomic.Pointer[engine.Snapshot]
	initMu   sync.Mutex
	initCall *initCall
	building atomic.Bool
	wg       sync.WaitGroup
}

// NewRecommendationService 创建一个新的 RecommendationService 实例。
// c、events、runs 可以为 nil，分别表示不缓存、不发布事件、不提供构建历史。
func NewRecommendationService(builder SnapshotBuilder, c cache.Cache, events EventPublisher, runs repository.TrainingRunRepository, opts Options) RecommendationService {
	if c == nil {
		c = cache.Noop{}
	}
	if events == nil {
		events = noopPublisher{}
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	baseCtx, cancel := context.WithCancel(context.Background())
	return &recommendationService{
		builder: builder,
		cache:   c,
		events:  events,
		runs:    runs,
		opts:    opts,
		baseCtx: baseCtx,
		cancel:  cancel,
	}
}

func (s *recommendationService) Initialize(ctx context.Context) error {
	_, err := s.ensureInitialized(ctx)
	return err
}

// ensureInitialized 返回当前快照，必要时启动 Phase 1。同一时间只有一个构建在运行，
// 其余调用方等待同一结果；调用方的 ctx 结束时停止等待，构建继续进行。
func (s *recommendationService) ensureInitialized(ctx context.Context) (*engine.Snapshot, error) {
	if snap := s.active.Load(); snap != nil {
		return snap, nil
	}

	s.initMu.Lock()
	if snap := s.active.Load(); snap != nil {
		s.initMu.Unlock()
		return snap, nil
	}
	call := s.initCall
	if call == nil {
		call = &initCall{done: make(chan struct{})}
		s.initCall = call
		s.wg.Add(1)
		go s.runPhaseOne(call)
	}
	s.initMu.Unlock()

	select {
	case <-call.done:
		return call.snap, call.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", model.ErrNotInitialized, ctx.Err())
	}
}

func (s *recommendationService) runPhaseOne(call *initCall) {
	defer s.wg.Done()
	defer func() {
		// 先清除进行中的构建再通知等待者，失败后的下一个请求会重新构建
		s.initMu.Lock()
		s.initCall = nil
		s.initMu.Unlock()
		close(call.done)
	}()

	log.Infof("[Coordinator] Phase 1: 开始快速启动, limit: %d", s.opts.QuickStartLimit)
	start := time.Now()
	snap, err := s.builder.Build(s.baseCtx, model.TierQuickStart, s.opts.QuickStartLimit)
	if err != nil {
		log.Error("[Coordinator] Phase 1 失败，保持未初始化状态", err)
		s.publish(failedEvent(model.TierQuickStart, time.Since(start), err))
		call.err = fmt.Errorf("%w: %v", model.ErrNotInitialized, err)
		return
	}

	// 后台的完整构建可能已先完成，此时保留更大的快照
	if !s.active.CompareAndSwap(nil, snap) {
		call.snap = s.active.Load()
		return
	}
	call.snap = snap
	s.onSwap(snap, time.Since(start))
	log.Infof("[Coordinator] Phase 1 完成, 可用电影数: %d", snap.Size())

	if s.phaseTwoEnabled() {
		s.startFullBuild()
	}
}

func (s *recommendationService) phaseTwoEnabled() bool {
	q, l := s.opts.QuickStartLimit, s.opts.LoadLimit
	if q <= 0 || (l > 0 && l <= q) {
		return false
	}
	// 抽样规模不超过快速启动上限时，完整快照与 Phase 1 完全相同
	return s.opts.SampleSize <= 0 || s.opts.SampleSize > q
}

// expectedSize 返回按 limit 构建时语料的规模上限，抽样会进一步压低该值。0 表示不限。
func (s *recommendationService) expectedSize(limit int) int {
	if n := s.opts.SampleSize; n > 0 && (limit <= 0 || n < limit) {
		return n
	}
	return limit
}

// fullLimit 是完整快照的行数上限，0 表示全部读取。
func (s *recommendationService) fullLimit() int {
	q, l := s.opts.QuickStartLimit, s.opts.LoadLimit
	if q <= 0 || l <= 0 {
		return 0
	}
	return max(q, l)
}

// startFullBuild 在后台构建完整快照，成功后原子替换当前快照。同一时间只运行一个。
func (s *recommendationService) startFullBuild() bool {
	if !s.building.CompareAndSwap(false, true) {
		return false
	}
	limit := s.fullLimit()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.building.Store(false)
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("[Coordinator] Phase 2 异常: %v", r)
			}
		}()

		log.Infof("[Coordinator] Phase 2: 后台加载完整数据集, limit: %d", limit)
		start := time.Now()
		snap, err := s.builder.Build(s.baseCtx, model.TierFull, limit)
		if err != nil {
			log.Error("[Coordinator] Phase 2 失败，继续使用当前快照", err)
			s.publish(failedEvent(model.TierFull, time.Since(start), err))
			return
		}
		s.active.Store(snap)
		s.onSwap(snap, time.Since(start))
		log.Infof("[Coordinator] Phase 2 完成, 可用电影数: %d", snap.Size())
	}()
	return true
}

func (s *recommendationService) onSwap(snap *engine.Snapshot, elapsed time.Duration) {
	metrics.RecordActiveSnapshot(snap.Size(), snap.Index.VocabularySize())
	s.publish(tasks.SnapshotEvent{
		Type:           tasks.EventSnapshotReady,
		SnapshotID:     snap.ID,
		Tier:           snap.Tier.String(),
		Movies:         snap.Size(),
		VocabularySize: snap.Index.VocabularySize(),
		DurationMs:     elapsed.Milliseconds(),
		OccurredAt:     time.Now(),
	})
}

func failedEvent(tier model.Tier, elapsed time.Duration, err error) tasks.SnapshotEvent {
	return tasks.SnapshotEvent{
		Type:       tasks.EventSnapshotFailed,
		Tier:       tier.String(),
		DurationMs: elapsed.Milliseconds(),
		Error:      err.Error(),
		OccurredAt: time.Now(),
	}
}

// publish 异步发送事件，消息队列不可用不影响请求。
func (s *recommendationService) publish(ev tasks.SnapshotEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.events.PublishSnapshotEvent(ctx, ev); err != nil {
			log.Warnf("[Coordinator] 发布快照事件失败, type: %s, error: %v", ev.Type, err)
		}
	}()
}

func (s *recommendationService) normalizeLimit(limit int) int {
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}
	if s.opts.MaxLimit > 0 && limit > s.opts.MaxLimit {
		limit = s.opts.MaxLimit
	}
	return limit
}

func (s *recommendationService) GetSimilarMovies(ctx context.Context, identifier string, limit int) *model.SimilarMoviesResponse {
	limit = s.normalizeLimit(limit)
	key := cache.Key{Identifier: identifier, Limit: limit}

	// 1. 查缓存
	if cached, ok := s.cache.Get(ctx, key); ok {
		metrics.RecordCacheLookup(true)
		metrics.RecommendationsTotal.WithLabelValues(cached.ModelStatus).Inc()
		return cached
	}
	metrics.RecordCacheLookup(false)

	// 2. 计算，只缓存成功的结果
	resp := s.compute(ctx, identifier, limit)
	if resp.Success {
		s.cache.Put(ctx, key, resp)
	}
	metrics.RecommendationsTotal.WithLabelValues(resp.ModelStatus).Inc()
	return resp
}

func (s *recommendationService) compute(ctx context.Context, identifier string, limit int) *model.SimilarMoviesResponse {
	failure := func(status string, err error) *model.SimilarMoviesResponse {
		return &model.SimilarMoviesResponse{
			Success:       false,
			MovieID:       identifier,
			SimilarMovies: []model.Recommendation{},
			ModelStatus:   status,
			Error:         err.Error(),
		}
	}

	snap, err := s.ensureInitialized(ctx)
	if err != nil {
		return failure(model.StatusNotReady, err)
	}

	// 同一个请求只读取一次快照引用
	title, recs, err := snap.Recommend(identifier, limit)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			log.Errorf("[RecommendationService] 计算推荐失败, identifier: %s, error: %v", identifier, err)
		}
		resp := failure(model.StatusError, err)
		resp.SnapshotID, resp.CorpusSize = snap.ID, snap.Size()
		return resp
	}
	if len(recs) == 0 {
		resp := failure(model.StatusNoResults, fmt.Errorf("no recommendations found for %s", title))
		resp.MovieTitle = title
		resp.SnapshotID, resp.CorpusSize = snap.ID, snap.Size()
		return resp
	}

	return &model.SimilarMoviesResponse{
		Success:       true,
		MovieID:       identifier,
		MovieTitle:    title,
		SimilarMovies: recs,
		TotalFound:    len(recs),
		ModelStatus:   model.StatusReady,
		SnapshotID:    snap.ID,
		CorpusSize:    snap.Size(),
	}
}

func (s *recommendationService) GetModelStatus() *model.ModelStatus {
	snap := s.active.Load()
	if snap == nil {
		return &model.ModelStatus{
			DatasetType:  s.opts.DatasetType,
			LoadingPhase: model.PhaseInitializing,
			PhaseMessage: "Initializing (0 movies)",
			FeaturesUsed: []string{},
		}
	}

	n := snap.Size()
	status := &model.ModelStatus{
		ModelLoaded:       true,
		SystemInitialized: true,
		MoviesAvailable:   n,
		DatasetType:       s.opts.DatasetType,
		IsTrained:         true,
		FeaturesUsed:      snap.FeatureColumns,
		SnapshotID:        snap.ID,
	}
	trainedAt := snap.TrainedAt
	status.TrainedAt = &trainedAt

	switch {
	case reached(n, s.expectedSize(s.opts.LoadLimit)) || (s.opts.LoadLimit <= 0 && snap.Tier == model.TierFull):
		status.LoadingPhase = model.PhaseTwoComplete
		status.PhaseMessage = fmt.Sprintf("Full dataset loaded (%d movies)", n)
	case reached(n, s.expectedSize(s.opts.QuickStartLimit)):
		status.LoadingPhase = model.PhaseOneComplete
		status.PhaseMessage = fmt.Sprintf("Quick start complete, loading full dataset in background (%d movies)", n)
	default:
		status.LoadingPhase = model.PhaseInitializing
		status.PhaseMessage = fmt.Sprintf("Initializing (%d movies)", n)
	}
	return status
}

// reached 判断语料规模是否达到目标行数的 90%。目标 <= 0 表示读取全部，不参与判断。
func reached(n, target int) bool {
	return target > 0 && float64(n) >= float64(target)*phaseThreshold
}

func (s *recommendationService) SearchMovies(ctx context.Context, query string, limit int) (*model.SearchResponse, error) {
	snap := s.active.Load()
	if snap == nil {
		return nil, model.ErrNotInitialized
	}
	results := resolver.Search(query, snap.Corpus, s.normalizeLimit(limit))
	if results == nil {
		results = []string{}
	}
	return &model.SearchResponse{
		Query:      query,
		Results:    results,
		TotalFound: len(results),
	}, nil
}

func (s *recommendationService) Reload(ctx context.Context) error {
	if !s.startFullBuild() {
		return model.ErrReloadInProgress
	}
	log.Infof("[Coordinator] 已触发后台重建")
	return nil
}

func (s *recommendationService) TrainingRuns(ctx context.Context, limit int) ([]model.TrainingRun, error) {
	if s.runs == nil {
		return []model.TrainingRun{}, nil
	}
	return s.runs.ListRecent(ctx, s.normalizeLimit(limit))
}

func (s *recommendationService) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info("[Coordinator] 后台任务已全部结束")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("等待后台任务结束超时: %w", ctx.Err())
	}
}

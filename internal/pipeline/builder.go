// Package pipeline 定义了快照构建的核心流程：准备数据集、加载语料、组合特征、拟合索引。
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"movie-rec-go/internal/corpus"
	"movie-rec-go/internal/engine"
	"movie-rec-go/internal/feature"
	"movie-rec-go/internal/index"
	"movie-rec-go/internal/model"
	"movie-rec-go/internal/repository"
	"movie-rec-go/pkg/log"
	"movie-rec-go/pkg/metrics"
)

// Options 控制构建参数。
type Options struct {
	// MinRows 数据集最少行数，用于识别被截断的文件。
	MinRows int
	// SampleSize 拟合前按人气抽样的行数，<= 0 表示不抽样。
	SampleSize int
	// Index 向量化参数。
	Index index.Options
}

// Builder 封装了快照构建的所有依赖。
type Builder struct {
	source DatasetSource
	opts   Options
	runs   repository.TrainingRunRepository
}

// NewBuilder 创建一个新的 Builder 实例。runs 为 nil 时不记录构建历史。
func NewBuilder(source DatasetSource, opts Options, runs repository.TrainingRunRepository) *Builder {
	return &Builder{source: source, opts: opts, runs: runs}
}

// Build 读取至多 limit 行数据并构建一个完整的快照。
// 失败时返回包装了 model.ErrLoad 或 model.ErrTrain 的错误。
func (b *Builder) Build(ctx context.Context, tier model.Tier, limit int) (*engine.Snapshot, error) {
	start := time.Now()
	snap, err := b.build(ctx, tier, limit)
	elapsed := time.Since(start)

	metrics.RecordSnapshotBuild(tier.String(), elapsed, err)
	b.record(ctx, tier, limit, snap, elapsed, err)
	return snap, err
}

func (b *Builder) build(ctx context.Context, tier model.Tier, limit int) (*engine.Snapshot, error) {
	log.Infof("[Builder] 开始构建快照, tier: %s, limit: %d", tier, limit)

	// 1. 准备数据集文件
	path, err := b.source.Prepare(ctx)
	if err != nil {
		log.Errorf("[Builder] 步骤1: 准备数据集失败, Error: %v", err)
		return nil, err
	}

	// 2. 加载语料
	c, err := corpus.Load(path, corpus.LoadOptions{Limit: limit, MinRows: b.opts.MinRows})
	if err != nil {
		log.Errorf("[Builder] 步骤2: 加载语料失败, Error: %v", err)
		return nil, err
	}
	log.Infof("[Builder] 步骤2: 语料加载完成, 共 %d 部电影", c.Len())

	// 3. 按人气抽样
	if b.opts.SampleSize > 0 && c.Len() > b.opts.SampleSize {
		c = c.TopByPopularity(b.opts.SampleSize)
		log.Infof("[Builder] 步骤3: 按人气抽样 %d 部电影", c.Len())
	}
	if c.Len() == 0 {
		return nil, fmt.Errorf("%w: 语料为空", model.ErrTrain)
	}

	// 4. 组合加权特征并拟合索引
	docs := make([]string, c.Len())
	for i := range docs {
		docs[i] = feature.Compose(c.At(i))
	}
	idx, err := index.Fit(ctx, docs, b.opts.Index)
	if err != nil {
		log.Errorf("[Builder] 步骤4: 拟合索引失败, Error: %v", err)
		return nil, err
	}

	snap := engine.NewSnapshot(tier, c, idx)
	log.Infow("[Builder] 快照构建完成",
		"snapshotId", snap.ID,
		"tier", tier.String(),
		"movies", c.Len(),
		"vocabulary", idx.VocabularySize(),
	)
	return snap, nil
}

// record 把构建结果写入 training_runs。写入失败只记录日志。
func (b *Builder) record(ctx context.Context, tier model.Tier, limit int, snap *engine.Snapshot, elapsed time.Duration, buildErr error) {
	if b.runs == nil {
		return
	}
	run := &model.TrainingRun{
		Tier:       tier.String(),
		RowLimit:   limit,
		DurationMs: elapsed.Milliseconds(),
		Success:    buildErr == nil,
	}
	if snap != nil {
		run.SnapshotID = snap.ID
		run.Movies = snap.Size()
		run.VocabularySize = snap.Index.VocabularySize()
		run.FeatureColumns = strings.Join(snap.FeatureColumns, ",")
	}
	if buildErr != nil {
		run.Error = buildErr.Error()
	}
	if err := b.runs.Create(ctx, run); err != nil {
		log.Warnf("[Builder] 保存构建记录失败: %v", err)
	}
}

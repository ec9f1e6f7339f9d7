// Package engine 持有不可变的推荐快照，并在快照上计算相似电影。
package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"movie-rec-go/internal/corpus"
	"movie-rec-go/internal/feature"
	"movie-rec-go/internal/index"
	"movie-rec-go/internal/model"
	"movie-rec-go/internal/resolver"
)

// GenreBoost 是每个共同类型附加的分数。
const GenreBoost = 0.15

// Snapshot 是一次完整构建的结果：语料与在其上拟合的索引。
// 构建后不再修改，请求之间共享。
type Snapshot struct {
	ID             string
	Tier           model.Tier
	Corpus         *corpus.Corpus
	Index          *index.Index
	FeatureColumns []string
	TrainedAt      time.Time
}

// NewSnapshot 组装快照并分配唯一 ID。idx 必须是在 c 上按行拟合的。
func NewSnapshot(tier model.Tier, c *corpus.Corpus, idx *index.Index) *Snapshot {
	return &Snapshot{
		ID:             uuid.NewString(),
		Tier:           tier,
		Corpus:         c,
		Index:          idx,
		FeatureColumns: c.FeatureColumns(),
		TrainedAt:      time.Now(),
	}
}

// Size 返回快照中的电影数。
func (s *Snapshot) Size() int { return s.Corpus.Len() }

// Recommend 解析 identifier 并返回至多 limit 部相似电影。
// 解析失败返回 model.ErrNotFound，打分过程中的意外错误返回 model.ErrEngine。
func (s *Snapshot) Recommend(identifier string, limit int) (title string, recs []model.Recommendation, err error) {
	defer func() {
		if r := recover(); r != nil {
			title, recs = "", nil
			err = fmt.Errorf("%w: %v", model.ErrEngine, r)
		}
	}()

	// 1. 解析片名并定位源电影所在行
	title, err = resolver.Resolve(identifier, s.Corpus)
	if err != nil {
		return "", nil, err
	}
	row, ok := s.Corpus.IndexOfTitle(title)
	if !ok {
		return "", nil, fmt.Errorf("%w: 片名 %q 不在语料中", model.ErrNotFound, title)
	}
	if limit <= 0 {
		return title, []model.Recommendation{}, nil
	}
	source := s.Corpus.At(row)

	// 2. 用与拟合时相同的特征组合对全部行打分
	scores := s.Index.Score(s.Index.Transform(feature.Compose(source)))

	// 3. 取候选池
	pool := max(3*limit, limit+10)
	candidates := topCandidates(scores, pool)

	// 4. 跳过源电影与重复片名，按类型重合度加分
	sourceGenres := feature.GenreTokens(source.Genres)
	seen := make(map[string]struct{}, limit)
	recs = make([]model.Recommendation, 0, limit)
	for _, c := range candidates {
		m := s.Corpus.At(c.row)
		if m.Title == title {
			continue
		}
		if _, dup := seen[m.Title]; dup {
			continue
		}
		overlap := feature.Overlap(sourceGenres, feature.GenreTokens(m.Genres))
		recs = append(recs, model.Recommendation{
			Title:           m.Title,
			SimilarityScore: c.score + GenreBoost*float64(overlap),
			GenreOverlap:    overlap,
		})
		seen[m.Title] = struct{}{}
		if len(recs) >= limit {
			break
		}
	}

	// 5. 按加分后的分数稳定排序，重新编号
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].SimilarityScore > recs[j].SimilarityScore
	})
	for i := range recs {
		recs[i].Rank = i + 1
	}
	return title, recs, nil
}

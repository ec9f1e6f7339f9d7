// Package corpus 负责把电影数据集读入内存，并提供按行号、片名、id 的查找。
package corpus

import (
	"sort"

	"movie-rec-go/internal/model"
)

// 参与推荐的特征列，按数据集中可能出现的顺序排列。
var featureColumnOrder = []string{
	"genres", "keywords", "tagline", "overview",
	"original_language", "spoken_languages", "production_countries",
}

// Corpus 是按行号寻址的电影序列。行号即拟合时的矩阵行。
// 构建完成后只读，可被多个请求并发访问。
type Corpus struct {
	movies         []model.MovieRecord
	featureColumns []string
	hasID          bool

	titles     []string // 去重后的片名，保持首次出现顺序
	titleIndex map[string]int
	idIndex    map[int64]int
}

func newCorpus(movies []model.MovieRecord, featureColumns []string, hasID bool) *Corpus {
	c := &Corpus{
		movies:         movies,
		featureColumns: featureColumns,
		hasID:          hasID,
		titleIndex:     make(map[string]int, len(movies)),
		idIndex:        make(map[int64]int),
	}
	for i := range movies {
		m := &movies[i]
		if _, ok := c.titleIndex[m.Title]; !ok {
			c.titleIndex[m.Title] = i
			c.titles = append(c.titles, m.Title)
		}
		if m.ID != nil {
			if _, ok := c.idIndex[*m.ID]; !ok {
				c.idIndex[*m.ID] = i
			}
		}
	}
	return c
}

// New 由已有记录构建语料，主要用于测试和内存数据源。
func New(movies []model.MovieRecord, featureColumns []string, hasID bool) *Corpus {
	copied := make([]model.MovieRecord, len(movies))
	copy(copied, movies)
	cols := append([]string(nil), featureColumns...)
	return newCorpus(copied, cols, hasID)
}

// Len 返回语料行数。
func (c *Corpus) Len() int { return len(c.movies) }

// At 返回第 i 行。返回的指针指向只读数据，调用方不得修改。
func (c *Corpus) At(i int) *model.MovieRecord { return &c.movies[i] }

// FeatureColumns 返回数据集中实际存在的特征列。
func (c *Corpus) FeatureColumns() []string {
	return append([]string(nil), c.featureColumns...)
}

// HasID 表示数据集是否带有数值 id 列。
func (c *Corpus) HasID() bool { return c.hasID }

// Titles 返回去重后的片名列表。
func (c *Corpus) Titles() []string { return c.titles }

// IndexOfTitle 返回片名首次出现的行号。
func (c *Corpus) IndexOfTitle(title string) (int, bool) {
	i, ok := c.titleIndex[title]
	return i, ok
}

// IndexOfID 返回 id 首次出现的行号。
func (c *Corpus) IndexOfID(id int64) (int, bool) {
	i, ok := c.idIndex[id]
	return i, ok
}

// TopByPopularity 返回人气最高的 n 行组成的新语料，人气相同的保持原有顺序。
// n <= 0 或 n 不小于语料规模时返回自身。
func (c *Corpus) TopByPopularity(n int) *Corpus {
	if n <= 0 || n >= len(c.movies) {
		return c
	}
	order := make([]int, len(c.movies))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return popularity(&c.movies[order[a]]) > popularity(&c.movies[order[b]])
	})
	sampled := make([]model.MovieRecord, n)
	for i := 0; i < n; i++ {
		sampled[i] = c.movies[order[i]]
	}
	return newCorpus(sampled, c.featureColumns, c.hasID)
}

func popularity(m *model.MovieRecord) float64 {
	if m.Popularity == nil {
		return 0
	}
	return *m.Popularity
}

// Package index 实现 TF-IDF 相似度索引：拟合词表、向量化文本、对全部行打分。
package index

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"movie-rec-go/internal/model"
	"movie-rec-go/pkg/log"
	"movie-rec-go/pkg/textproc"
)

// Options 为向量化参数。
type Options struct {
	// MaxFeatures 词表上限，按全语料词频保留最高的若干项。
	MaxFeatures int
	// MinDF 词项至少出现在多少篇文档中。
	MinDF int
	// MaxDFRatio 词项出现的文档比例必须严格小于该值。
	MaxDFRatio float64
	// NGramMax 最大 n 元长度。
	NGramMax int
}

// DefaultOptions 返回推荐使用的参数：5000 个特征，一元与二元词，min_df=2，max_df<90%。
func DefaultOptions() Options {
	return Options{
		MaxFeatures: 5000,
		MinDF:       2,
		MaxDFRatio:  0.9,
		NGramMax:    2,
	}
}

// Vector 是 L2 归一化后的稀疏向量，Terms 递增。
type Vector struct {
	Terms   []int32
	Weights []float32
}

// Len 返回非零分量个数。
func (v Vector) Len() int { return len(v.Terms) }

// Index 是拟合完成的 TF-IDF 模型与文档矩阵，构建后只读，可并发使用。
type Index struct {
	analyzer *textproc.Analyzer
	vocab    map[string]int32
	terms    []string
	idf      []float64
	matrix   *cscMatrix
}

type docCounts map[string]int

// Fit 对 docs 拟合词表并构建 L2 归一化的文档矩阵，行号与 docs 下标一致。
func Fit(ctx context.Context, docs []string, opts Options) (*Index, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: 语料为空", model.ErrTrain)
	}
	start := time.Now()

	analyzer, err := textproc.NewAnalyzer(opts.NGramMax)
	if err != nil {
		return nil, fmt.Errorf("%w: 创建分析器失败: %v", model.ErrTrain, err)
	}

	// 1. 并发分词，统计每篇文档的词频
	counts, err := analyzeAll(ctx, analyzer, docs)
	if err != nil {
		return nil, err
	}

	// 2. 统计文档频率与全语料词频，按阈值剪枝并截取词表
	terms, df := selectVocabulary(counts, opts)
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: 剪枝后词表为空", model.ErrTrain)
	}

	idx := &Index{
		analyzer: analyzer,
		vocab:    make(map[string]int32, len(terms)),
		terms:    terms,
		idf:      make([]float64, len(terms)),
	}
	n := float64(len(docs))
	for i, t := range terms {
		idx.vocab[t] = int32(i)
		idx.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	// 3. 逐行加权、归一化并构建列存储矩阵
	rows := make([]Vector, len(counts))
	for i, c := range counts {
		rows[i] = idx.weigh(c)
	}
	rowEntries := make([][]entry, len(rows))
	for i, v := range rows {
		es := make([]entry, v.Len())
		for j := range v.Terms {
			es[j] = entry{col: v.Terms[j], val: v.Weights[j]}
		}
		rowEntries[i] = es
	}
	idx.matrix = newCSC(rowEntries, len(terms))

	log.Infof("[Index] 拟合完成, 文档数: %d, 词表大小: %d, 非零元素: %d, 耗时: %v",
		len(docs), len(terms), idx.matrix.nnz(), time.Since(start))
	return idx, nil
}

func analyzeAll(ctx context.Context, analyzer *textproc.Analyzer, docs []string) ([]docCounts, error) {
	counts := make([]docCounts, len(docs))

	workers := runtime.GOMAXPROCS(0)
	chunk := (len(docs) + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(docs); lo += chunk {
		lo, hi := lo, min(lo+chunk, len(docs))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				c := make(docCounts)
				for _, term := range analyzer.Analyze(docs[i]) {
					c[term]++
				}
				counts[i] = c
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: 分词中断: %v", model.ErrTrain, err)
	}
	return counts, nil
}

func selectVocabulary(counts []docCounts, opts Options) ([]string, map[string]int) {
	df := make(map[string]int)
	total := make(map[string]int)
	for _, c := range counts {
		for term, n := range c {
			df[term]++
			total[term] += n
		}
	}

	maxDF := opts.MaxDFRatio * float64(len(counts))
	var kept []string
	for term, d := range df {
		if d >= opts.MinDF && (opts.MaxDFRatio <= 0 || float64(d) < maxDF) {
			kept = append(kept, term)
		}
	}

	if opts.MaxFeatures > 0 && len(kept) > opts.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if total[kept[i]] != total[kept[j]] {
				return total[kept[i]] > total[kept[j]]
			}
			return kept[i] < kept[j]
		})
		kept = kept[:opts.MaxFeatures]
	}
	// 词表下标按词项字典序分配
	sort.Strings(kept)
	return kept, df
}

// weigh 把词频映射为 tf×idf 并做 L2 归一化，忽略词表外的词项。
func (idx *Index) weigh(c docCounts) Vector {
	cols := make([]int32, 0, len(c))
	for term := range c {
		if col, ok := idx.vocab[term]; ok {
			cols = append(cols, col)
		}
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })

	raw := make([]float64, len(cols))
	var norm float64
	for i, col := range cols {
		w := float64(c[idx.terms[col]]) * idx.idf[col]
		raw[i] = w
		norm += w * w
	}
	if norm == 0 {
		return Vector{}
	}
	norm = math.Sqrt(norm)

	v := Vector{Terms: cols, Weights: make([]float32, len(cols))}
	for i, w := range raw {
		v.Weights[i] = float32(w / norm)
	}
	return v
}

// Transform 用拟合好的词表与 idf 把文本映射为归一化向量。全部词项都不在词表中时返回零向量。
func (idx *Index) Transform(text string) Vector {
	c := make(docCounts)
	for _, term := range idx.analyzer.Analyze(text) {
		c[term]++
	}
	return idx.weigh(c)
}

// Score 返回 q 与每一行的点积（即余弦相似度），顺序与拟合时的文档一致。
func (idx *Index) Score(q Vector) []float64 {
	scores := make([]float64, idx.matrix.rows)
	idx.matrix.mulVec(q, scores)
	return scores
}

// VocabularySize 返回词表大小。
func (idx *Index) VocabularySize() int { return len(idx.terms) }

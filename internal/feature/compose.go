// Package feature 把电影记录组合成用于 TF-IDF 的加权文本。
//
// 训练时对每一行、查询时对解析出的那一行都必须调用同一个 Compose，
// 否则查询向量与矩阵不在同一空间中。
package feature

import (
	"strings"

	"movie-rec-go/internal/model"
)

// 各字段的重复次数。通过重复提高词频权重，而不是使用加权向量化。
const (
	genreWeight    = 4
	keywordWeight  = 2
	overviewWeight = 1
	languageWeight = 1
)

// Compose 返回 genres×4、keywords×2、overview、original_language 以单个空格拼接的文本。
func Compose(m *model.MovieRecord) string {
	parts := make([]string, 0, genreWeight+keywordWeight+overviewWeight+languageWeight)
	parts = repeat(parts, m.Genres, genreWeight)
	parts = repeat(parts, m.Keywords, keywordWeight)
	parts = repeat(parts, m.Overview, overviewWeight)
	parts = repeat(parts, m.OriginalLanguage, languageWeight)
	return strings.Join(parts, " ")
}

func repeat(parts []string, s string, n int) []string {
	for i := 0; i < n; i++ {
		parts = append(parts, s)
	}
	return parts
}

// GenreTokens 解析类型字符串：包含逗号时按逗号切分，否则按空白切分。
func GenreTokens(genres string) map[string]struct{} {
	var raw []string
	if strings.Contains(genres, ",") {
		raw = strings.Split(genres, ",")
	} else {
		raw = strings.Fields(genres)
	}
	tokens := make(map[string]struct{}, len(raw))
	for _, g := range raw {
		g = strings.TrimSpace(g)
		if g != "" {
			tokens[g] = struct{}{}
		}
	}
	return tokens
}

// Overlap 返回两个类型集合的交集大小。
func Overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for g := range a {
		if _, ok := b[g]; ok {
			n++
		}
	}
	return n
}

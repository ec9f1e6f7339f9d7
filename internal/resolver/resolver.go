// Package resolver 把用户提供的标识符（数值 id、片名或近似片名）解析为语料中的片名。
package resolver

import (
	"fmt"
	"strconv"
	"strings"

	"movie-rec-go/internal/corpus"
	"movie-rec-go/internal/model"
	"movie-rec-go/pkg/fuzzy"
)

// Cutoff 是近似匹配的最低相似度。
const Cutoff = 0.3

// Resolve 依次尝试：数值 id、精确片名、相似度最高的近似片名、大小写不敏感的子串匹配。
// 全部失败时返回包装了 model.ErrNotFound 的错误。
func Resolve(identifier string, c *corpus.Corpus) (string, error) {
	// 1. 纯数字且数据集带 id 列时按 id 查找
	if c.HasID() && isDigits(identifier) {
		if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
			if i, ok := c.IndexOfID(id); ok {
				return c.At(i).Title, nil
			}
		}
	}

	// 2. 精确片名
	if _, ok := c.IndexOfTitle(identifier); ok {
		return identifier, nil
	}

	// 3. 近似匹配
	titles := c.Titles()
	if matches := fuzzy.CloseMatches(identifier, titles, 1, Cutoff); len(matches) > 0 {
		return matches[0], nil
	}

	// 4. 子串匹配，取语料中第一个
	lowered := strings.ToLower(identifier)
	for _, t := range titles {
		if strings.Contains(strings.ToLower(t), lowered) {
			return t, nil
		}
	}

	return "", fmt.Errorf("%w: %q", model.ErrNotFound, identifier)
}

// Search 返回至多 limit 个与 query 近似的片名，按相似度降序。
func Search(query string, c *corpus.Corpus, limit int) []string {
	return fuzzy.CloseMatches(query, c.Titles(), limit, Cutoff)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

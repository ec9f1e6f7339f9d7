// Package fuzzy 提供基于 Ratcliff/Obershelp 相似度的近似字符串匹配。
package fuzzy

import (
	"sort"

	"github.com/pmezard/go-difflib/difflib"
)

type match struct {
	score float64
	value string
}

// CloseMatches 返回 candidates 中与 word 相似度不低于 cutoff 的至多 n 个字符串，
// 按相似度降序排列，相似度相同时按字符串降序。
func CloseMatches(word string, candidates []string, n int, cutoff float64) []string {
	if n <= 0 || len(candidates) == 0 {
		return nil
	}

	m := difflib.NewMatcher(nil, nil)
	m.SetSeq2(runes(word))

	var matches []match
	for _, c := range candidates {
		m.SetSeq1(runes(c))
		// 先用代价低的上界排除，再计算完整的 Ratio
		if m.RealQuickRatio() >= cutoff && m.QuickRatio() >= cutoff {
			if score := m.Ratio(); score >= cutoff {
				matches = append(matches, match{score: score, value: c})
			}
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].value > matches[j].value
	})
	if len(matches) > n {
		matches = matches[:n]
	}

	out := make([]string, len(matches))
	for i, mt := range matches {
		out[i] = mt.value
	}
	return out
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

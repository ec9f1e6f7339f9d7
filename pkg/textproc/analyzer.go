// Package textproc 把文本切分为 TF-IDF 使用的词项：一元词与相邻二元词。
package textproc

import (
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/stop"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// Analyzer 由 bleve 的分词器与过滤器组成。实例无状态，可并发使用。
type Analyzer struct {
	tokenizer analysis.Tokenizer
	filters   []analysis.TokenFilter
	ngramMax  int
}

// NewAnalyzer 创建分析器：unicode 分词 → 合并连续表意字符 → 小写 → 英文停用词过滤。
// ngramMax 为输出的最大 n 元长度，小于 1 时按 1 处理。
func NewAnalyzer(ngramMax int) (*Analyzer, error) {
	stopWords := analysis.NewTokenMap()
	if err := stopWords.LoadBytes(en.EnglishStopWords); err != nil {
		return nil, err
	}
	if ngramMax < 1 {
		ngramMax = 1
	}
	return &Analyzer{
		tokenizer: unicode.NewUnicodeTokenizer(),
		filters: []analysis.TokenFilter{
			ideographRunFilter{},
			lowercase.NewLowerCaseFilter(),
			stop.NewStopTokensFilter(stopWords),
		},
		ngramMax: ngramMax,
	}, nil
}

// Tokens 返回过滤后的单词序列，不生成 n 元组合。单字符词项被丢弃。
func (a *Analyzer) Tokens(text string) []string {
	stream := a.tokenizer.Tokenize([]byte(text))
	for _, f := range a.filters {
		stream = f.Filter(stream)
	}
	tokens := make([]string, 0, len(stream))
	for _, tok := range stream {
		if utf8.RuneCount(tok.Term) < 2 {
			continue
		}
		tokens = append(tokens, string(tok.Term))
	}
	return tokens
}

// Analyze 先输出所有一元词，再依次输出 2..ngramMax 元的相邻组合（空格连接）。
func (a *Analyzer) Analyze(text string) []string {
	tokens := a.Tokens(text)
	if a.ngramMax == 1 || len(tokens) < 2 {
		return tokens
	}
	terms := make([]string, 0, len(tokens)*a.ngramMax)
	terms = append(terms, tokens...)
	for n := 2; n <= a.ngramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// ideographRunFilter 把紧邻的表意字符（汉字、假名）合并为一个词项。
// unicode 分词器把每个表意字符切成单独的词项，不合并的话会被单字符过滤全部丢弃。
type ideographRunFilter struct{}

func (ideographRunFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	out := make(analysis.TokenStream, 0, len(input))
	for _, tok := range input {
		if n := len(out); n > 0 && tok.Type == analysis.Ideographic {
			prev := out[n-1]
			if prev.Type == analysis.Ideographic && prev.End == tok.Start {
				term := make([]byte, 0, len(prev.Term)+len(tok.Term))
				prev.Term = append(append(term, prev.Term...), tok.Term...)
				prev.End = tok.End
				continue
			}
		}
		out = append(out, tok)
	}
	for i, tok := range out {
		tok.Position = i + 1
	}
	return out
}

// Package model 定义了推荐服务使用的数据模型与 DTO。
package model

// MovieRecord 代表语料中的一行电影数据。加入快照后不再修改。
type MovieRecord struct {
	ID                  *int64 // 数据集没有 id 列或无法解析时为 nil
	Title               string
	Genres              string
	Keywords            string
	Tagline             string
	Overview            string
	OriginalLanguage    string
	SpokenLanguages     string
	ProductionCountries string
	Popularity          *float64 // 仅用于抽样优先级
}

// Tier 表示快照属于哪一层加载。
type Tier int

const (
	// TierQuickStart 同步构建的小语料快照（Phase 1）。
	TierQuickStart Tier = 1
	// TierFull 后台构建的完整语料快照（Phase 2）。
	TierFull Tier = 2
)

func (t Tier) String() string {
	switch t {
	case TierQuickStart:
		return "quick_start"
	case TierFull:
		return "full"
	default:
		return "unknown"
	}
}

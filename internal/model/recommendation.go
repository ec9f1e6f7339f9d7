package model

import "time"

// Recommendation 是排序结果中的一项。Rank 从 1 开始且连续。
type Recommendation struct {
	Title           string  `json:"title"`
	SimilarityScore float64 `json:"similarityScore"`
	Rank            int     `json:"rank"`
	GenreOverlap    int     `json:"-"`
}

// 推荐接口返回的 modelStatus 取值。
const (
	StatusNotReady  = "not_ready"
	StatusReady     = "ready"
	StatusNoResults = "no_results"
	StatusError     = "error"
)

// SimilarMoviesResponse 是 getSimilarMovies 的结构化返回值，失败时同样返回该结构。
type SimilarMoviesResponse struct {
	Success       bool             `json:"success"`
	MovieID       string           `json:"movieId"`
	MovieTitle    string           `json:"movieTitle,omitempty"`
	SimilarMovies []Recommendation `json:"similarMovies"`
	TotalFound    int              `json:"totalFound"`
	ModelStatus   string           `json:"modelStatus"`
	Error         string           `json:"error,omitempty"`
	SnapshotID    string           `json:"snapshotId,omitempty"`
	CorpusSize    int              `json:"corpusSize,omitempty"`
}

// 加载阶段取值，由当前快照的语料规模推导。
const (
	PhaseInitializing = "initializing"
	PhaseOneComplete  = "phase_1_complete"
	PhaseTwoComplete  = "phase_2_complete"
)

// ModelStatus 是 getModelStatus 的返回结构。
type ModelStatus struct {
	ModelLoaded       bool       `json:"modelLoaded"`
	SystemInitialized bool       `json:"systemInitialized"`
	MoviesAvailable   int        `json:"moviesAvailable"`
	DatasetType       string     `json:"datasetType"`
	IsTrained         bool       `json:"isTrained"`
	LoadingPhase      string     `json:"loadingPhase"`
	PhaseMessage      string     `json:"phaseMessage"`
	FeaturesUsed      []string   `json:"featuresUsed"`
	SnapshotID        string     `json:"snapshotId,omitempty"`
	TrainedAt         *time.Time `json:"trainedAt,omitempty"`
}

// SearchResponse 是片名模糊搜索的返回结构。
type SearchResponse struct {
	Query      string   `json:"query"`
	Results    []string `json:"results"`
	TotalFound int      `json:"totalFound"`
}

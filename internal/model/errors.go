package model

import "errors"

// 推荐核心的错误类型。各层用 fmt.Errorf("...: %w", ErrXxx) 包装，调用方用 errors.Is 判断。
var (
	// ErrLoad 数据集文件不可读、格式错误或疑似被截断。
	ErrLoad = errors.New("load error")
	// ErrTrain 语料为空或剪枝后词表为空。
	ErrTrain = errors.New("train error")
	// ErrNotInitialized 尚无可用快照，且按需初始化也失败。
	ErrNotInitialized = errors.New("recommendation system not initialized")
	// ErrNotFound 任何解析策略都无法将标识符映射到片名。
	ErrNotFound = errors.New("movie not found")
	// ErrEngine 打分过程中的意外失败。
	ErrEngine = errors.New("engine error")
	// ErrReloadInProgress 后台已有快照构建在运行。
	ErrReloadInProgress = errors.New("snapshot build already in progress")
)

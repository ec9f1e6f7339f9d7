package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"movie-rec-go/internal/model"
	"movie-rec-go/pkg/log"
	"movie-rec-go/pkg/storage"
)

// DatasetSource 提供一个本地可读的数据集文件路径。
type DatasetSource interface {
	Prepare(ctx context.Context) (string, error)
}

// LocalSource 直接使用本地路径。
type LocalSource struct {
	Path string
}

func (s LocalSource) Prepare(context.Context) (string, error) {
	return s.Path, nil
}

// MinIOSource 在本地文件缺失时从 MinIO 下载数据集。
// Refresh 为 true 时，进程内第一次 Prepare 总是重新下载。
type MinIOSource struct {
	Client  storage.ObjectFetcher
	Bucket  string
	Object  string
	Path    string
	Refresh bool

	mu      sync.Mutex
	fetched bool
}

func (s *MinIOSource) Prepare(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fetched {
		return s.Path, nil
	}
	if !s.Refresh {
		if _, err := os.Stat(s.Path); err == nil {
			log.Infof("[DatasetSource] 本地数据集已存在, 跳过下载: %s", s.Path)
			s.fetched = true
			return s.Path, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return "", fmt.Errorf("%w: 创建数据集目录失败: %v", model.ErrLoad, err)
	}
	if err := storage.FetchObject(ctx, s.Client, s.Bucket, s.Object, s.Path); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrLoad, err)
	}
	s.fetched = true
	return s.Path, nil
}

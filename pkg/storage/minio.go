// Package storage提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"movie-rec-go/internal/config"
	"movie-rec-go/pkg/log"
)

// MinioClient 是一个全局的 MinIO 客户端实例。
var MinioClient *minio.Client

// InitMinIO 初始化 MinIO 客户端并确认数据集所在的存储桶存在。
func InitMinIO(cfg config.MinIOConfig) {
	var err error

	// 1. 初始化 MinIO 客户端
	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("初始化 MinIO 客户端失败", err)
	}

	log.Info("MinIO 客户端初始化成功")

	// 2. 数据集只读取不写入，存储桶不存在属于配置错误
	exists, err := MinioClient.BucketExists(context.Background(), cfg.BucketName)
	if err != nil {
		log.Fatal("检查 MinIO 存储桶失败", err)
	}
	if !exists {
		log.Fatalf("存储桶 '%s' 不存在", cfg.BucketName)
	}
	log.Infof("存储桶 '%s' 已存在", cfg.BucketName)
}

// ObjectFetcher 是下载对象到本地文件所需的最小接口，*minio.Client 满足该接口。
type ObjectFetcher interface {
	FGetObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.GetObjectOptions) error
}

// FetchObject 把对象下载到本地路径。
func FetchObject(ctx context.Context, client ObjectFetcher, bucket, object, dest string) error {
	log.Infof("[Storage] 从MinIO下载对象, Bucket: %s, Object: %s, Dest: %s", bucket, object, dest)
	if err := client.FGetObject(ctx, bucket, object, dest, minio.GetObjectOptions{}); err != nil {
		log.Errorf("[Storage] 从MinIO下载对象失败, Object: %s, Error: %v", object, err)
		return fmt.Errorf("从 MinIO 下载对象失败: %w", err)
	}
	return nil
}

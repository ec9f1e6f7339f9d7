// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"movie-rec-go/internal/cache"
	"movie-rec-go/internal/config"
	"movie-rec-go/internal/handler"
	"movie-rec-go/internal/index"
	"movie-rec-go/internal/middleware"
	"movie-rec-go/internal/model"
	"movie-rec-go/internal/pipeline"
	"movie-rec-go/internal/repository"
	"movie-rec-go/internal/service"
	"movie-rec-go/pkg/database"
	"movie-rec-go/pkg/kafka"
	"movie-rec-go/pkg/log"
	"movie-rec-go/pkg/storage"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化可选的外部依赖
	var runs repository.TrainingRunRepository
	if cfg.Database.MySQL.DSN != "" {
		database.InitMySQL(cfg.Database.MySQL.DSN, &model.TrainingRun{})
		runs = repository.NewTrainingRunRepository(database.DB)
	} else {
		log.Info("未配置 MySQL DSN, 不记录快照构建历史")
	}

	resultCache := newResultCache(cfg.Cache, cfg.Database.Redis)

	var source pipeline.DatasetSource = pipeline.LocalSource{Path: cfg.Dataset.Path}
	if cfg.MinIO.Enabled {
		storage.InitMinIO(cfg.MinIO)
		source = &pipeline.MinIOSource{
			Client: storage.MinioClient,
			Bucket: cfg.MinIO.BucketName,
			Object: cfg.MinIO.DatasetObject,
			Path:   cfg.Dataset.Path,
		}
	}

	var events service.EventPublisher
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka)
		events = producer
	}

	// 4. 初始化快照构建器与推荐服务
	builder := pipeline.NewBuilder(source, pipeline.Options{
		MinRows:    cfg.Dataset.MinRows,
		SampleSize: cfg.Recommendation.SampleSize,
		Index:      index.DefaultOptions(),
	}, runs)

	recService := service.NewRecommendationService(builder, resultCache, events, runs, service.Options{
		QuickStartLimit: cfg.Recommendation.QuickStartLimit,
		LoadLimit:       cfg.Recommendation.LoadLimit,
		DefaultLimit:    cfg.Recommendation.DefaultLimit,
		MaxLimit:        cfg.Recommendation.MaxLimit,
		DatasetType:     cfg.Dataset.Type,
		SampleSize:      cfg.Recommendation.SampleSize,
	})

	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()

	// 5. 启动后台任务：预热快照与 Kafka 重建指令消费者
	if cfg.Recommendation.EagerInit {
		go func() {
			if err := recService.Initialize(bgCtx); err != nil {
				log.Error("启动预热失败, 将在首个请求时重试", err)
			}
		}()
	}
	if cfg.Kafka.Enabled {
		go kafka.StartReloadConsumer(bgCtx, cfg.Kafka, recService)
	}

	// 6. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7. 注册路由
	apiV1 := r.Group("/api/v1/ml")
	handler.NewRecommendationHandler(recService).Register(apiV1)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 先停止后台消费者，再关闭 HTTP 服务
	cancelBg()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	// 等待后台构建与事件发送结束后再关闭生产者
	if err := recService.Shutdown(ctx); err != nil {
		log.Error("推荐服务未能在超时内结束后台任务", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Errorf("关闭 Kafka 生产者失败: %v", err)
		}
	}
	if closer, ok := resultCache.(interface{ Close() }); ok {
		closer.Close()
	}
	log.Info("服务已优雅关闭")
}

// newResultCache 根据配置选择推荐结果缓存的后端。
func newResultCache(cfg config.CacheConfig, redisCfg config.RedisConfig) cache.Cache {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	switch cfg.Backend {
	case "redis":
		database.InitRedis(redisCfg.Addr, redisCfg.Password, redisCfg.DB)
		log.Infof("推荐结果缓存使用 Redis, TTL: %s", ttl)
		return cache.NewRedis(database.RDB, ttl)
	case "none":
		log.Info("推荐结果缓存已关闭")
		return cache.Noop{}
	default:
		mem, err := cache.NewMemory(ttl, cfg.MaxEntries)
		if err != nil {
			log.Fatal("初始化内存缓存失败", err)
		}
		log.Infof("推荐结果缓存使用内存, TTL: %s, 容量: %d", ttl, cfg.MaxEntries)
		return mem
	}
}

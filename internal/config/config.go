// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Log            LogConfig            `mapstructure:"log"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	MinIO          MinIOConfig          `mapstructure:"minio"`
	Dataset        DatasetConfig        `mapstructure:"dataset"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Cache          CacheConfig          `mapstructure:"cache"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。DSN 为空时不记录训练历史。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Brokers     string `mapstructure:"brokers"`
	Topic       string `mapstructure:"topic"`        // 快照生命周期事件
	ReloadTopic string `mapstructure:"reload_topic"` // 重新加载指令
	GroupID     string `mapstructure:"group_id"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
	DatasetObject   string `mapstructure:"dataset_object"`
}

// DatasetConfig 描述电影数据集文件。
type DatasetConfig struct {
	Path    string `mapstructure:"path"`
	Type    string `mapstructure:"type"`
	MinRows int    `mapstructure:"min_rows"`
}

// RecommendationConfig 存储分层加载与推荐参数。
type RecommendationConfig struct {
	QuickStartLimit int  `mapstructure:"quick_start_limit"`
	LoadLimit       int  `mapstructure:"load_limit"`
	SampleSize      int  `mapstructure:"sample_size"`
	DefaultLimit    int  `mapstructure:"default_limit"`
	MaxLimit        int  `mapstructure:"max_limit"`
	EagerInit       bool `mapstructure:"eager_init"`
}

// CacheConfig 存储推荐结果缓存的配置。
type CacheConfig struct {
	Backend    string `mapstructure:"backend"` // memory | redis | none
	TTLSeconds int    `mapstructure:"ttl_seconds"`
	MaxEntries int64  `mapstructure:"max_entries"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = *cfg
}

// Load 读取配置文件并返回解析结果，不修改全局变量。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("kafka.topic", "movie-rec.snapshots")
	v.SetDefault("kafka.reload_topic", "movie-rec.reload")
	v.SetDefault("kafka.group_id", "movie-rec-go-consumer")
	v.SetDefault("dataset.path", "data/tmbd.csv")
	v.SetDefault("dataset.type", "TMDB Large Dataset")
	v.SetDefault("dataset.min_rows", 10)
	v.SetDefault("recommendation.quick_start_limit", 100000)
	v.SetDefault("recommendation.load_limit", 1500000)
	v.SetDefault("recommendation.sample_size", 0)
	v.SetDefault("recommendation.default_limit", 10)
	v.SetDefault("recommendation.max_limit", 100)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl_seconds", 900)
	v.SetDefault("cache.max_entries", 10000)
}

// bindEnv 兼容旧部署中使用的环境变量名。
func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("recommendation.quick_start_limit", "ML_QUICK_START_LIMIT")
	_ = v.BindEnv("recommendation.load_limit", "ML_LOAD_LIMIT")
	_ = v.BindEnv("recommendation.sample_size", "ML_SAMPLE_SIZE")
	_ = v.BindEnv("cache.ttl_seconds", "ML_CACHE_TTL")
	_ = v.BindEnv("dataset.path", "DATASET_PATH")
	_ = v.BindEnv("database.mysql.dsn", "DATABASE_URL")
}

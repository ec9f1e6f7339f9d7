// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"errors"
	"strings"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"movie-rec-go/internal/config"
	"movie-rec-go/internal/model"
	"movie-rec-go/pkg/log"
	"movie-rec-go/pkg/tasks"
)

// ReloadHandler 定义了能够处理重建指令的服务。
// 这将 Kafka 消费者与具体的推荐服务实现解耦。
type ReloadHandler interface {
	Reload(ctx context.Context) error
}

// messageWriter 是 kafka.Writer 中生产者用到的部分，便于测试替换。
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer 把快照事件发送到 Kafka。
type Producer struct {
	writer messageWriter
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers(cfg.Brokers)...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Infof("Kafka 生产者初始化成功, topic: %s", cfg.Topic)
	return &Producer{writer: w}
}

// PublishSnapshotEvent 发送一条快照事件，以层级作为消息键。
func (p *Producer) PublishSnapshotEvent(ctx context.Context, ev tasks.SnapshotEvent) error {
	msg, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close 关闭底层 writer。
func (p *Producer) Close() error {
	return p.writer.Close()
}

func encodeEvent(ev tasks.SnapshotEvent) (kafka.Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{Key: []byte(ev.Tier), Value: value}, nil
}

// StartReloadConsumer 启动一个 Kafka 消费者来处理重建指令，直到 ctx 被取消。
func StartReloadConsumer(ctx context.Context, cfg config.KafkaConfig, handler ReloadHandler) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg.Brokers),
		Topic:    cfg.ReloadTopic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 1e6, // 1MB
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.ReloadTopic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Error("从 Kafka 读取消息失败", err)
			}
			break
		}

		log.Infof("收到 Kafka 消息: offset %d", m.Offset)
		handleReloadMessage(ctx, m, handler)

		// 重建是幂等的，无论结果如何都提交 offset，不做重试
		if err := r.CommitMessages(ctx, m); err != nil {
			log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
		}
	}

	if err := r.Close(); err != nil {
		log.Errorf("关闭 Kafka 消费者失败: %v", err)
	}
}

// handleReloadMessage 解析并执行一条重建指令，返回是否触发了重建。
func handleReloadMessage(ctx context.Context, m kafka.Message, handler ReloadHandler) bool {
	var task tasks.ReloadTask
	if err := json.Unmarshal(m.Value, &task); err != nil {
		log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
		return false
	}

	log.Infof("开始处理重建指令: requestedBy=%s", task.RequestedBy)
	if err := handler.Reload(ctx); err != nil {
		if errors.Is(err, model.ErrReloadInProgress) {
			log.Infof("已有快照构建在运行，忽略本次重建指令")
		} else {
			log.Errorf("重建指令处理失败: %v", err)
		}
		return false
	}
	return true
}

func brokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

package adapter

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"yuxian/internal/service/order/domain"
)

// KafkaNotificationAdapter 把支付成功事件写入 Kafka，
// 供站外消费者（报表、风控等）订阅。与 Redis 通道二选一，由配置决定。
type KafkaNotificationAdapter struct {
	writer *kafka.Writer
}

func NewKafkaNotificationAdapter(brokers []string, topic string) *KafkaNotificationAdapter {
	return &KafkaNotificationAdapter{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

// OrderPaid 以用户名为分区键写入一条事件。
func (a *KafkaNotificationAdapter) OrderPaid(ctx context.Context, event *domain.OrderPaidEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal order paid event")
	}
	err = a.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Username),
		Value: payload,
	})
	return errors.Wrap(err, "write order paid event")
}

// Close 关闭底层的 Kafka writer。
func (a *KafkaNotificationAdapter) Close() error {
	return a.writer.Close()
}

// NopNotificationAdapter 关闭通知通道时使用的空实现。
type NopNotificationAdapter struct{}

func (NopNotificationAdapter) OrderPaid(context.Context, *domain.OrderPaidEvent) error {
	return nil
}

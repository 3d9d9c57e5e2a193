package adapter

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"yuxian/internal/pkg/logger"
	"yuxian/internal/service/order/domain"
)

// RedisNotificationAdapter 通过 Redis Pub/Sub 下发支付成功事件。
// 发布与订阅解耦后，多实例部署时每个节点的 Hub 都能收到事件。
type RedisNotificationAdapter struct {
	client  *redis.Client
	channel string
}

func NewRedisNotificationAdapter(client *redis.Client, channel string) *RedisNotificationAdapter {
	return &RedisNotificationAdapter{client: client, channel: channel}
}

// OrderPaid 把事件发布到约定频道。没有订阅者也算发布成功，语义是 at-most-once。
func (a *RedisNotificationAdapter) OrderPaid(ctx context.Context, event *domain.OrderPaidEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal order paid event")
	}
	if err := a.client.Publish(ctx, a.channel, payload).Err(); err != nil {
		return errors.Wrap(err, "publish order paid event")
	}
	return nil
}

// SubscribeHub 订阅事件频道并把收到的消息转发给 Hub 广播，作为后台任务运行。
func SubscribeHub(client *redis.Client, channel string, hub *Hub) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sub := client.Subscribe(ctx, channel)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case msg, ok := <-ch:
				if !ok {
					return nil
				}
				hub.Broadcast([]byte(msg.Payload))
				logger.Logger.Debug().Str("channel", channel).Msg("order event relayed to websocket hub")
			}
		}
	}
}

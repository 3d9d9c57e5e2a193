package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"yuxian/internal/pkg/bootstrap"
	"yuxian/internal/pkg/config"
	orderapp "yuxian/internal/service/order/application"
	orderdomain "yuxian/internal/service/order/domain"
	orderinfra "yuxian/internal/service/order/infrastructure"
	"yuxian/internal/service/order/infrastructure/adapter"
	orderifaces "yuxian/internal/service/order/interfaces"
	"yuxian/internal/service/order/port"
	promoapp "yuxian/internal/service/promotion/application"
	promoinfra "yuxian/internal/service/promotion/infrastructure"
	promoifaces "yuxian/internal/service/promotion/interfaces"
)

const serviceName = "yuxian-order-service"

func main() {
	cfg, err := config.Load(getEnv("CONFIG_FILE", "configs/config.yaml"))
	if err != nil {
		log.Fatalf("FATAL: load config: %v", err)
	}

	db, err := orderinfra.Open(cfg.MySQL.DSN)
	if err != nil {
		log.Fatalf("FATAL: connect mysql: %v", err)
	}
	if err := orderinfra.AutoMigrate(db); err != nil {
		log.Fatalf("FATAL: migrate order schema: %v", err)
	}
	if err := promoinfra.AutoMigrate(db); err != nil {
		log.Fatalf("FATAL: migrate promotion schema: %v", err)
	}

	pricing, err := loadPricing(cfg)
	if err != nil {
		log.Fatalf("FATAL: invalid pricing config: %v", err)
	}
	refundWindow := time.Duration(cfg.Refund.WindowDays) * 24 * time.Hour

	hub := adapter.NewHub()
	runners := []func(ctx context.Context) error{hub.Run}
	var onShutdown []func(ctx context.Context) error

	var notifier port.NotificationProducer
	switch cfg.Notify.Transport {
	case "kafka":
		kafkaNotifier := adapter.NewKafkaNotificationAdapter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		notifier = kafkaNotifier
		onShutdown = append(onShutdown, func(context.Context) error { return kafkaNotifier.Close() })
	case "none":
		notifier = adapter.NopNotificationAdapter{}
	default:
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		notifier = adapter.NewRedisNotificationAdapter(redisClient, cfg.Redis.Channel)
		runners = append(runners, adapter.SubscribeHub(redisClient, cfg.Redis.Channel, hub))
		onShutdown = append(onShutdown, func(context.Context) error { return redisClient.Close() })
	}

	tracer := otel.Tracer(serviceName)

	// 一套事务同时覆盖订单、库存、优惠券三张台账
	txManager := orderinfra.NewGormTxManager(db, func(tx *gorm.DB) port.Repos {
		return port.Repos{
			Orders:    orderinfra.NewGormOrderRepository(tx),
			Feedback:  orderinfra.NewGormFeedbackRepository(tx),
			Inventory: orderinfra.NewGormInventoryService(tx),
			Coupons:   promoinfra.NewGormCouponRedemption(tx),
		}
	})

	orderService := orderapp.NewOrderApplicationService(txManager, notifier, tracer, pricing, refundWindow)
	promotionService := promoapp.NewPromotionService(promoinfra.NewGormTxManager(db), tracer)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName:    serviceName,
		Port:           cfg.Server.Port,
		JaegerEndpoint: cfg.Jaeger.Endpoint,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			orderifaces.NewOrderHandler(orderService, hub).RegisterRoutes(appCtx.Mux)
			promoifaces.NewPromotionHandler(promotionService).RegisterRoutes(appCtx.Mux)
		},
		Runners:    runners,
		OnShutdown: onShutdown,
	})
}

func loadPricing(cfg *config.Config) (orderdomain.PricingPolicy, error) {
	threshold, err := decimal.NewFromString(cfg.Pricing.FreeShippingThreshold)
	if err != nil {
		return orderdomain.PricingPolicy{}, err
	}
	fee, err := decimal.NewFromString(cfg.Pricing.ShippingFee)
	if err != nil {
		return orderdomain.PricingPolicy{}, err
	}
	return orderdomain.PricingPolicy{FreeShippingThreshold: threshold, ShippingFee: fee}, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config 汇总了服务运行所需的全部配置。
// 加载顺序：内置默认值 -> YAML 配置文件 -> 环境变量覆盖。
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	MySQL struct {
		DSN string `yaml:"dsn"`
	} `yaml:"mysql"`

	Redis struct {
		Addr    string `yaml:"addr"`
		Channel string `yaml:"channel"`
	} `yaml:"redis"`

	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	Jaeger struct {
		Endpoint string `yaml:"endpoint"`
	} `yaml:"jaeger"`

	// Notify.Transport 选择支付成功通知的下发通道：redis / kafka / none
	Notify struct {
		Transport string `yaml:"transport"`
	} `yaml:"notify"`

	Pricing struct {
		// 免邮门槛：商品小计（不含运费、未扣优惠）超过该值时免运费
		FreeShippingThreshold string `yaml:"freeShippingThreshold"`
		ShippingFee           string `yaml:"shippingFee"`
	} `yaml:"pricing"`

	Refund struct {
		// 下单后允许申请售后的天数
		WindowDays int `yaml:"windowDays"`
	} `yaml:"refund"`
}

// Default 返回内置默认配置。
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.MySQL.DSN = "root:root@tcp(localhost:3306)/yuxian?charset=utf8mb4&parseTime=True&loc=Local"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.Channel = "orders:events"
	cfg.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Kafka.Topic = "order-notifications"
	cfg.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Notify.Transport = "redis"
	cfg.Pricing.FreeShippingThreshold = "200.00"
	cfg.Pricing.ShippingFee = "20.00"
	cfg.Refund.WindowDays = 10
	return cfg
}

// Load 读取 YAML 配置文件并套用环境变量覆盖。
// path 为空或文件不存在时仅使用默认值 + 环境变量。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, errors.Wrapf(err, "read config file %s", path)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config file %s", path)
		}
	}

	cfg.MySQL.DSN = getEnv("MYSQL_DSN", cfg.MySQL.DSN)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Jaeger.Endpoint)
	cfg.Notify.Transport = getEnv("NOTIFY_TRANSPORT", cfg.Notify.Transport)
	if port, err := strconv.Atoi(getEnv("SERVER_PORT", "")); err == nil && port > 0 {
		cfg.Server.Port = port
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.Kafka.Brokers = []string{brokers}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

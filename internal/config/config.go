package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_HTTP_ADDR = ":8080"
	DEFAULT_GRPC_ADDR = ":50051"
	DEFAULT_REDIS_DNS = "localhost:6379"

	StoreRedis = "redis"
	StoreMySQL = "mysql"

	SinkLog     = "log"
	SinkWebhook = "webhook"
	SinkQueue   = "queue"
)

var ConfigStore atomic.Value

// Duration reads "90s"-style strings from JSON and the environment. Bare
// JSON numbers are seconds.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var seconds float64
	if err := json.Unmarshal(data, &seconds); err == nil {
		*d = Duration(seconds * float64(time.Second))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string or a number of seconds: %w", err)
	}
	return d.Decode(s)
}

// Decode implements envconfig.Decoder.
func (d *Duration) Decode(value string) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

type ServerConfig struct {
	HTTPAddr        string   `json:"http_addr" envconfig:"CART_SERVER_HTTP_ADDR"`
	GRPCAddr        string   `json:"grpc_addr" envconfig:"CART_SERVER_GRPC_ADDR"`
	ShutdownTimeout Duration `json:"shutdown_timeout" envconfig:"CART_SERVER_SHUTDOWN_TIMEOUT"`
}

type StoreConfig struct {
	Driver string `json:"driver" envconfig:"CART_STORE_DRIVER"`
}

type RedisConfig struct {
	Dns       string `json:"dns" envconfig:"CART_REDIS_DNS"`
	KeyPrefix string `json:"key_prefix" envconfig:"CART_REDIS_KEY_PREFIX"`
}

type MySQLConfig struct {
	Dns          string `json:"dns" envconfig:"CART_MYSQL_DNS"`
	MaxOpenConns int    `json:"max_open_conns" envconfig:"CART_MYSQL_MAX_OPEN_CONNS"`
	MaxIdleConns int    `json:"max_idle_conns" envconfig:"CART_MYSQL_MAX_IDLE_CONNS"`
}

type WebhookConfig struct {
	Url           string            `json:"url" envconfig:"CART_WEBHOOK_URL"`
	Headers       map[string]string `json:"headers"`
	Timeout       Duration          `json:"timeout" envconfig:"CART_WEBHOOK_TIMEOUT"`
	MaxRetries    uint64            `json:"max_retries" envconfig:"CART_WEBHOOK_MAX_RETRIES"`
	RetryInterval Duration          `json:"retry_interval" envconfig:"CART_WEBHOOK_RETRY_INTERVAL"`
}

type QueueConfig struct {
	Name        string `json:"name" envconfig:"CART_QUEUE_NAME"`
	MaxRetry    int    `json:"max_retry" envconfig:"CART_QUEUE_MAX_RETRY"`
	Concurrency int    `json:"concurrency" envconfig:"CART_QUEUE_CONCURRENCY"`
}

type Notification struct {
	Sink    string        `json:"sink" envconfig:"CART_NOTIFICATION_SINK"`
	Webhook WebhookConfig `json:"webhook"`
	Queue   QueueConfig   `json:"queue"`
}

type RemindersConfig struct {
	ImmediateAfter Duration `json:"immediate_after" envconfig:"CART_REMINDERS_IMMEDIATE_AFTER"`
	UrgentAfter    Duration `json:"urgent_after" envconfig:"CART_REMINDERS_URGENT_AFTER"`
	FinalAfter     Duration `json:"final_after" envconfig:"CART_REMINDERS_FINAL_AFTER"`
	SinkTimeout    Duration `json:"sink_timeout" envconfig:"CART_REMINDERS_SINK_TIMEOUT"`
}

type MonitorConfig struct {
	BackInStockCooldown Duration `json:"back_in_stock_cooldown" envconfig:"CART_MONITOR_BACK_IN_STOCK_COOLDOWN"`
	PriceDropThreshold  float64  `json:"price_drop_threshold" envconfig:"CART_MONITOR_PRICE_DROP_THRESHOLD"`
}

type LogConfig struct {
	Level  string `json:"level" envconfig:"CART_LOG_LEVEL"`
	Format string `json:"format" envconfig:"CART_LOG_FORMAT"`
}

type Configuration struct {
	Server       ServerConfig    `json:"server"`
	Store        StoreConfig     `json:"store"`
	Redis        RedisConfig     `json:"redis"`
	MySQL        MySQLConfig     `json:"mysql"`
	Notification Notification    `json:"notification"`
	Reminders    RemindersConfig `json:"reminders"`
	Monitor      MonitorConfig   `json:"monitor"`
	Log          LogConfig       `json:"log"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&cnf); err != nil {
			return fmt.Errorf("parse %s: %w", file, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not found, using env variables")
	}

	if err := envconfig.Process("cart", &cnf); err != nil {
		return err
	}

	if err := cnf.validateAndAddDefaults(); err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return nil
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded, call InitConfig first")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	cnf.Server.HTTPAddr = strings.TrimSpace(cnf.Server.HTTPAddr)
	cnf.Server.GRPCAddr = strings.TrimSpace(cnf.Server.GRPCAddr)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.MySQL.Dns = strings.TrimSpace(cnf.MySQL.Dns)
	cnf.Store.Driver = strings.ToLower(strings.TrimSpace(cnf.Store.Driver))
	cnf.Notification.Sink = strings.ToLower(strings.TrimSpace(cnf.Notification.Sink))

	if cnf.Server.HTTPAddr == "" {
		cnf.Server.HTTPAddr = DEFAULT_HTTP_ADDR
	}
	if cnf.Server.GRPCAddr == "" {
		cnf.Server.GRPCAddr = DEFAULT_GRPC_ADDR
	}
	if cnf.Server.ShutdownTimeout <= 0 {
		cnf.Server.ShutdownTimeout = Duration(5 * time.Second)
	}

	if cnf.Store.Driver == "" {
		cnf.Store.Driver = StoreRedis
	}
	switch cnf.Store.Driver {
	case StoreRedis:
	case StoreMySQL:
		if cnf.MySQL.Dns == "" {
			return errors.New("mysql DNS is required")
		}
	default:
		return fmt.Errorf("unknown store driver %q", cnf.Store.Driver)
	}
	if cnf.MySQL.MaxOpenConns <= 0 {
		cnf.MySQL.MaxOpenConns = 50
	}
	if cnf.MySQL.MaxIdleConns <= 0 {
		cnf.MySQL.MaxIdleConns = 25
	}

	if cnf.Redis.Dns == "" {
		log.Printf("Warning: Redis DNS not specified. Setting default: %s", DEFAULT_REDIS_DNS)
		cnf.Redis.Dns = DEFAULT_REDIS_DNS
	}

	if cnf.Notification.Sink == "" {
		cnf.Notification.Sink = SinkLog
	}
	switch cnf.Notification.Sink {
	case SinkLog, SinkQueue:
	case SinkWebhook:
		if cnf.Notification.Webhook.Url == "" {
			return errors.New("webhook url is required")
		}
	default:
		return fmt.Errorf("unknown notification sink %q", cnf.Notification.Sink)
	}
	if cnf.Notification.Webhook.Timeout <= 0 {
		cnf.Notification.Webhook.Timeout = Duration(10 * time.Second)
	}
	if cnf.Notification.Webhook.MaxRetries == 0 {
		cnf.Notification.Webhook.MaxRetries = 3
	}
	if cnf.Notification.Webhook.RetryInterval <= 0 {
		cnf.Notification.Webhook.RetryInterval = Duration(500 * time.Millisecond)
	}
	if cnf.Notification.Queue.Name == "" {
		cnf.Notification.Queue.Name = "notifications"
	}
	if cnf.Notification.Queue.MaxRetry <= 0 {
		cnf.Notification.Queue.MaxRetry = 5
	}
	if cnf.Notification.Queue.Concurrency <= 0 {
		cnf.Notification.Queue.Concurrency = 10
	}

	r := &cnf.Reminders
	if r.ImmediateAfter <= 0 {
		r.ImmediateAfter = Duration(30 * time.Minute)
	}
	if r.UrgentAfter <= 0 {
		r.UrgentAfter = Duration(2 * time.Hour)
	}
	if r.FinalAfter <= 0 {
		r.FinalAfter = Duration(24 * time.Hour)
	}
	if r.SinkTimeout <= 0 {
		r.SinkTimeout = Duration(10 * time.Second)
	}
	if !(r.ImmediateAfter < r.UrgentAfter && r.UrgentAfter < r.FinalAfter) {
		return errors.New("reminder offsets must increase from immediate to final")
	}

	if cnf.Monitor.BackInStockCooldown <= 0 {
		cnf.Monitor.BackInStockCooldown = Duration(24 * time.Hour)
	}
	if cnf.Monitor.PriceDropThreshold == 0 {
		cnf.Monitor.PriceDropThreshold = 0.05
	}
	if cnf.Monitor.PriceDropThreshold < 0 || cnf.Monitor.PriceDropThreshold >= 1 {
		return errors.New("price drop threshold must be between 0 and 1")
	}

	if cnf.Log.Level == "" {
		cnf.Log.Level = "info"
	}
	if cnf.Log.Format == "" {
		cnf.Log.Format = "json"
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}

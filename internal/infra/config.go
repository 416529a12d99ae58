package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации всех трех сервисов.
// Каждый бинарь читает общий файл, но использует только свою секцию.
type Config struct {
	Seller   SellerConfig   `mapstructure:"seller"`
	Agent    AgentConfig    `mapstructure:"agent"`
	Reviewer ReviewerConfig `mapstructure:"reviewer"`
	Client   ClientConfig   `mapstructure:"client"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// SellerConfig — настройки авторитетного сервиса заказов.
type SellerConfig struct {
	Port        int    `mapstructure:"port"`
	ReviewerURL string `mapstructure:"reviewer_url"`

	// ProgressiveConfirmation прогоняет каждый НЕ-агентский заказ через
	// pending_confirmation вместо мгновенной доставки.
	ProgressiveConfirmation bool `mapstructure:"progressive_confirmation"`

	// SimulateErrors включает fuzz-гейт симулированного сбоя обработки:
	// свежий заказ уходит в error до любых проверок политик.
	SimulateErrors bool `mapstructure:"simulate_errors"`

	// Вероятности обоих fuzz-гейтов. В проде 0.1; тесты подставляют 0 и 1.
	ErrorFuzzProbability  float64 `mapstructure:"error_fuzz_probability"`
	ReviewFuzzProbability float64 `mapstructure:"review_fuzz_probability"`

	AuditLog string `mapstructure:"audit_log"`
}

// AgentConfig — настройки сервиса-покупателя.
type AgentConfig struct {
	Port      int    `mapstructure:"port"`
	SellerURL string `mapstructure:"seller_url"`
	AuditLog  string `mapstructure:"audit_log"`

	// StartingBalance — баланс нового счета до первого депозита.
	StartingBalance float64 `mapstructure:"starting_balance"`

	Loop LoopConfig `mapstructure:"loop"`
}

// LoopConfig — параметры автономного цикла заказов.
type LoopConfig struct {
	MinDelay    time.Duration `mapstructure:"min_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
	MaxQuantity int           `mapstructure:"max_quantity"`
}

// ReviewerConfig — настройки сервиса ревью.
type ReviewerConfig struct {
	Port      int    `mapstructure:"port"`
	SellerURL string `mapstructure:"seller_url"`
	AuditLog  string `mapstructure:"audit_log"`

	// ReconcileInterval — период сверки с /pending продавца. Сверка
	// компенсирует потерянные notify (они fire-and-forget и не
	// ретраятся). 0 выключает джобу.
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
}

// ClientConfig — поведение исходящих HTTP-вызовов между сервисами.
type ClientConfig struct {
	// Timeout обязателен: зависший межсервисный вызов трактуется как
	// UpstreamUnavailable, а не висит вечно.
	Timeout time.Duration `mapstructure:"timeout"`
}

// AuditConfig управляет audit trail.
type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Monitoring дублирует аудит-события в обычный лог.
	Monitoring bool `mapstructure:"monitoring"`
}

// LoggerConfig настраивает zap.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig объединяет файл, ENV и дефолты.
// ENV перекрывает файл: SELLER_REVIEWER_URL=... перекроет seller.reviewer_url.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Файла нет — работаем на ENV и дефолтах
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("seller.port", 4000)
	v.SetDefault("seller.reviewer_url", "http://localhost:5002")
	v.SetDefault("seller.error_fuzz_probability", 0.1)
	v.SetDefault("seller.review_fuzz_probability", 0.1)
	v.SetDefault("seller.audit_log", "audit.log")

	v.SetDefault("agent.port", 5001)
	v.SetDefault("agent.seller_url", "http://localhost:4000")
	v.SetDefault("agent.audit_log", "agent_audit.log")
	v.SetDefault("agent.starting_balance", 1000)
	v.SetDefault("agent.loop.min_delay", 1*time.Second)
	v.SetDefault("agent.loop.max_delay", 5*time.Second)
	v.SetDefault("agent.loop.max_quantity", 5)

	v.SetDefault("reviewer.port", 5002)
	v.SetDefault("reviewer.seller_url", "http://localhost:4000")
	v.SetDefault("reviewer.audit_log", "reviewer_audit.log")
	v.SetDefault("reviewer.reconcile_interval", 30*time.Second)

	v.SetDefault("client.timeout", 10*time.Second)

	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.monitoring", false)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
}

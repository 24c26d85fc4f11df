package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	DB      DBConfig      `mapstructure:"db"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Chain   ChainConfig   `mapstructure:"chain"`
	Vault   VaultConfig   `mapstructure:"vault"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Storage StorageConfig `mapstructure:"storage"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
	BaseURL  string `mapstructure:"base_url"` // 对外访问地址，用于拼接审批链接
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	MQType   string `mapstructure:"mq_type"` // "redis" or "kafka"
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
}

// ChainConfig 链上扫描配置
type ChainConfig struct {
	RpcUrl                 string `mapstructure:"rpc_url"`
	ChainID                int64  `mapstructure:"chain_id"`
	TokenAddress           string `mapstructure:"token_address"` // 稳定币合约地址
	AgentAddress           string `mapstructure:"agent_address"` // 多签 Safe 地址 (mint/burn 的执行者)
	GenesisBlock           uint64 `mapstructure:"genesis_block"` // 扫描起始区块 (合约部署高度)
	MaxBlockRange          uint64 `mapstructure:"max_block_range"`
	UnmintedAlertThreshold int    `mapstructure:"unminted_alert_threshold"`
}

// VaultConfig 金库余额守卫配置
type VaultConfig struct {
	BalanceURL          string `mapstructure:"balance_url"`           // 金库余额抓取端点
	LockWaitSeconds     int    `mapstructure:"lock_wait_seconds"`     // 锁等待窗口 (默认 45s)
	LockPollSeconds     int    `mapstructure:"lock_poll_seconds"`     // 轮询间隔 (默认 1s)
	ScrapeRetries       int    `mapstructure:"scrape_retries"`        // 零余额重试次数 (默认 5)
	RetrySpacingSeconds int    `mapstructure:"retry_spacing_seconds"` // 重试间隔 (默认 30s)
	ProceedWithoutLock  bool   `mapstructure:"proceed_without_lock"`  // 超时后是否降级为无锁执行
}

type NotifyConfig struct {
	WebhookURL   string `mapstructure:"webhook_url"`
	AlertChannel string `mapstructure:"alert_channel"`
	EmailFrom    string `mapstructure:"email_from"`
}

type StorageConfig struct {
	BasePath      string `mapstructure:"base_path"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

var Global Config

func Init() {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// 环境变量设置
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 设置默认值
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			log.Fatalf("Fatal error config file: %s \n", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.http_port", "8080")
	viper.SetDefault("app.base_url", "http://localhost:8080")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.user", "reserve_user")
	viper.SetDefault("db.password", "reserve_password")
	viper.SetDefault("db.name", "reserve_db")

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.mq_type", "redis")

	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})

	viper.SetDefault("chain.chain_id", 1)
	viper.SetDefault("chain.genesis_block", 0)
	viper.SetDefault("chain.max_block_range", 5000)
	viper.SetDefault("chain.unminted_alert_threshold", 3)

	viper.SetDefault("vault.lock_wait_seconds", 45)
	viper.SetDefault("vault.lock_poll_seconds", 1)
	viper.SetDefault("vault.scrape_retries", 5)
	viper.SetDefault("vault.retry_spacing_seconds", 30)
	viper.SetDefault("vault.proceed_without_lock", true)

	viper.SetDefault("notify.alert_channel", "reserve-alerts")

	viper.SetDefault("storage.base_path", "./data/objects")
	viper.SetDefault("storage.public_base_url", "http://localhost:8080/objects")
}

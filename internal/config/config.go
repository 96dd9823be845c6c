// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Engine   EngineConfig
	Storage  StorageConfig
}

type AppConfig struct {
	LogLevel string
}

type DatabaseConfig struct {
	URL      string // full connection string, overrides the discrete settings
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	PolicyTTLSeconds int
}

// EngineConfig holds tunables for the forecasting and optimization engine.
// The defaults mirror the constants the system has always used; overriding
// them is an operational decision, not a code change.
type EngineConfig struct {
	Strategy            string  // seasonal, forest or neural
	DefaultHorizonDays  int     // forecast horizon when the caller does not specify one
	DefaultServiceLevel float64 // target probability of not stocking out during lead time
	OrderCost           float64 // fixed cost per purchase order
	HoldingCostFraction float64 // annual holding cost as a fraction of unit cost

	Forest ForestConfig
	Neural NeuralConfig
}

type ForestConfig struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	Seed            int64
}

type NeuralConfig struct {
	HiddenUnits  []int
	DropoutRate  float64
	LearningRate float64
	Epochs       int
	BatchSize    int
	Seed         int64
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("APP_LOG_LEVEL", "info")
		viper.SetDefault("DATABASE_URL", "")
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "stockcast")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_POLICY_TTL_SECONDS", 300)
		viper.SetDefault("ENGINE_STRATEGY", "seasonal")
		viper.SetDefault("ENGINE_DEFAULT_HORIZON_DAYS", 30)
		viper.SetDefault("ENGINE_DEFAULT_SERVICE_LEVEL", 0.95)
		viper.SetDefault("ENGINE_ORDER_COST", 25.0)
		viper.SetDefault("ENGINE_HOLDING_COST_FRACTION", 0.25)
		viper.SetDefault("ENGINE_FOREST_TREES", 100)
		viper.SetDefault("ENGINE_FOREST_MAX_DEPTH", 10)
		viper.SetDefault("ENGINE_FOREST_MIN_SAMPLES_SPLIT", 5)
		viper.SetDefault("ENGINE_FOREST_SEED", 42)
		viper.SetDefault("ENGINE_NEURAL_DROPOUT", 0.2)
		viper.SetDefault("ENGINE_NEURAL_LEARNING_RATE", 0.001)
		viper.SetDefault("ENGINE_NEURAL_EPOCHS", 50)
		viper.SetDefault("ENGINE_NEURAL_BATCH_SIZE", 32)
		viper.SetDefault("ENGINE_NEURAL_SEED", 42)
		viper.SetDefault("STORAGE_ENABLED", false)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "stockcast-reports")
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			App: AppConfig{
				LogLevel: viper.GetString("APP_LOG_LEVEL"),
			},
			Database: DatabaseConfig{
				URL:      viper.GetString("DATABASE_URL"),
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:          viper.GetBool("CACHE_ENABLED"),
				RedisURL:         viper.GetString("REDIS_URL"),
				RedisHost:        viper.GetString("REDIS_HOST"),
				RedisPort:        viper.GetString("REDIS_PORT"),
				RedisPassword:    viper.GetString("REDIS_PASSWORD"),
				RedisDB:          viper.GetInt("REDIS_DB"),
				PolicyTTLSeconds: viper.GetInt("CACHE_POLICY_TTL_SECONDS"),
			},
			Engine: EngineConfig{
				Strategy:            viper.GetString("ENGINE_STRATEGY"),
				DefaultHorizonDays:  viper.GetInt("ENGINE_DEFAULT_HORIZON_DAYS"),
				DefaultServiceLevel: viper.GetFloat64("ENGINE_DEFAULT_SERVICE_LEVEL"),
				OrderCost:           viper.GetFloat64("ENGINE_ORDER_COST"),
				HoldingCostFraction: viper.GetFloat64("ENGINE_HOLDING_COST_FRACTION"),
				Forest: ForestConfig{
					Trees:           viper.GetInt("ENGINE_FOREST_TREES"),
					MaxDepth:        viper.GetInt("ENGINE_FOREST_MAX_DEPTH"),
					MinSamplesSplit: viper.GetInt("ENGINE_FOREST_MIN_SAMPLES_SPLIT"),
					Seed:            viper.GetInt64("ENGINE_FOREST_SEED"),
				},
				Neural: NeuralConfig{
					HiddenUnits:  []int{64, 32},
					DropoutRate:  viper.GetFloat64("ENGINE_NEURAL_DROPOUT"),
					LearningRate: viper.GetFloat64("ENGINE_NEURAL_LEARNING_RATE"),
					Epochs:       viper.GetInt("ENGINE_NEURAL_EPOCHS"),
					BatchSize:    viper.GetInt("ENGINE_NEURAL_BATCH_SIZE"),
					Seed:         viper.GetInt64("ENGINE_NEURAL_SEED"),
				},
			},
			Storage: StorageConfig{
				Enabled:   viper.GetBool("STORAGE_ENABLED"),
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Region:    viper.GetString("STORAGE_REGION"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
		}
	})

	return instance
}

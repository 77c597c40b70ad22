package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Blockchain BlockchainConfig
	Cache      CacheConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL            string
	Password       string
	IdempotencyTTL time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret       string
	Issuer       string
	AccessExpiry time.Duration
}

// BlockchainConfig holds node endpoints and the signing wallet
type BlockchainConfig struct {
	// RPCURLs maps a CAIP-2 chain id (eip155:8453) to its JSON-RPC endpoint
	RPCURLs          map[string]string
	SignerPrivateKey string
	DefaultBlockTag  string
	RequestTimeout   time.Duration
	// TxStatusInterval is how often pending transactions are reconciled; 0 disables it
	TxStatusInterval time.Duration
}

// CacheConfig holds in-process cache sizes
type CacheConfig struct {
	ContractCacheSize int
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "contract_gateway"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:            getEnv("REDIS_URL", "redis://localhost:6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			IdempotencyTTL: getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		JWT: JWTConfig{
			Secret:       getEnv("JWT_SECRET", "change-this-in-production"),
			Issuer:       getEnv("JWT_ISSUER", "contract-gateway"),
			AccessExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		},
		Blockchain: BlockchainConfig{
			RPCURLs:          parseRPCURLs(getEnv("CHAIN_RPC_URLS", "eip155:84532=https://sepolia.base.org")),
			SignerPrivateKey: getEnv("SIGNER_PRIVATE_KEY", os.Getenv("PRIVATE_KEY")),
			DefaultBlockTag:  getEnv("DEFAULT_BLOCK_TAG", "latest"),
			RequestTimeout:   getEnvAsDuration("RPC_REQUEST_TIMEOUT", 15*time.Second),
			TxStatusInterval: getEnvAsDuration("TX_STATUS_INTERVAL", 30*time.Second),
		},
		Cache: CacheConfig{
			ContractCacheSize: getEnvAsInt("CONTRACT_CACHE_SIZE", 256),
		},
	}
}

// parseRPCURLs reads "caip2=url,caip2=url". Malformed pairs are skipped.
func parseRPCURLs(raw string) map[string]string {
	urls := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		chainID, url, ok := strings.Cut(strings.TrimSpace(pair), "=")
		chainID = strings.TrimSpace(chainID)
		url = strings.TrimSpace(url)
		if !ok || chainID == "" || url == "" {
			continue
		}
		urls[chainID] = url
	}
	return urls
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

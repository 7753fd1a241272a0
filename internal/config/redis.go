package config

import (
	"net"
	"strconv"
	"time"
)

// RedisPort is fixed; only the host is configurable.
const RedisPort = 6379

// RedisConfig describes how to reach the store and how patiently to wait for
// it at startup.
//
//	REDIS_HOST             - hostname of the Redis server (default "redis")
//	REDIS_PASSWORD         - optional password
//	REDIS_DB               - database number (default 0)
//	REDIS_CONNECT_ATTEMPTS - startup attempts before giving up (default 10)
//	REDIS_CONNECT_DELAY    - fixed wait between attempts (default 1s)
type RedisConfig struct {
	Host        string
	Password    string
	DB          int
	MaxAttempts int
	RetryDelay  time.Duration
	PingTimeout time.Duration
}

// Addr returns host:port for the client options.
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(RedisPort))
}

func LoadRedisConfig() RedisConfig {
	cfg := RedisConfig{
		Host:        getenv("REDIS_HOST", "redis"),
		Password:    getenv("REDIS_PASSWORD", ""),
		DB:          envInt("REDIS_DB", 0),
		MaxAttempts: envInt("REDIS_CONNECT_ATTEMPTS", 10),
		RetryDelay:  envDur("REDIS_CONNECT_DELAY", time.Second),
		PingTimeout: 2 * time.Second,
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = time.Second
	}
	return cfg
}

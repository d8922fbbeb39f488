package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type APIConfig struct {
	Port      string
	DBDSN     string
	RedisAddr string
	RMQURL    string
	Queue     string
	CacheTTL  time.Duration
}

type WorkerConfig struct {
	DBDSN        string
	RMQURL       string
	Queue        string
	RewardAmount int64
}

var (
	API    APIConfig
	Worker WorkerConfig
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("required env %s is not set", k)
	}
	return v
}

func getduration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("env %s: %v", k, err)
	}
	return d
}

func getint64(k string, def int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Fatalf("env %s: %v", k, err)
	}
	return n
}

func MustLoadAPI() {
	API = APIConfig{
		Port:      getenv("PORT", "8080"),
		DBDSN:     mustEnv("DB_DSN"),
		RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),
		RMQURL:    mustEnv("RMQ_URL"),
		Queue:     getenv("QUEUE", "review.submitted"),
		CacheTTL:  getduration("CACHE_TTL", time.Hour),
	}
}

func MustLoadWorker() {
	Worker = WorkerConfig{
		DBDSN:        mustEnv("DB_DSN"),
		RMQURL:       mustEnv("RMQ_URL"),
		Queue:        getenv("QUEUE", "review.submitted"),
		RewardAmount: getint64("REWARD_AMOUNT", 3000),
	}
}

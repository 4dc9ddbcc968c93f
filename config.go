package anchor

import (
	"os"
	"strconv"
)

type Config struct {
	RedisAddress     string
	RedisPassword    string
	Namespace        string
	RetirementWindow int
	SeedStrategy     SeedStrategy
}

func GetConfig() Config {
	return Config{
		RedisAddress:     getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		Namespace:        getEnv("ANCHOR_NAMESPACE", "anchor"),
		RetirementWindow: getEnvInt("ANCHOR_RETIREMENT_WINDOW", DefaultRetirementWindow),
		SeedStrategy:     SeedStrategy(getEnv("ANCHOR_SEED_STRATEGY", string(SeedMaxObserved))),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port        string
	DatabaseDSN string
	Env         string
	BcryptCost  int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// Load 读取环境变量（优先加载 .env 文件），非法值回退到默认值。
func Load() Config {
	_ = godotenv.Load()

	cost, err := strconv.Atoi(getenv("BCRYPT_COST", strconv.Itoa(bcrypt.DefaultCost)))
	if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Config{
		Port:        getenv("APP_PORT", "8080"),
		DatabaseDSN: getenv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=memberchat port=5432 sslmode=disable TimeZone=UTC"),
		Env:         getenv("APP_ENV", "dev"),
		BcryptCost:  cost,
	}
}

// Validate 在启动前检查配置是否完整可用。
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("port must not be empty")
	}
	if cfg.DatabaseDSN == "" {
		return errors.New("database dsn must not be empty")
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return errors.New("bcrypt cost out of range")
	}
	return nil
}

package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr  string
	DatabaseURL string

	CookieHashKey  []byte
	CookieBlockKey []byte

	KafkaBrokers []string
	KafkaTopic   string

	// DevMode runs the in-memory store, generates throwaway cookie keys,
	// and disables the login gate.
	DevMode bool
}

func FromEnv() (Config, error) {
	// .env is a local-dev convenience; absence is fine
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:  getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		KafkaTopic:  getenv("KAFKA_TOPIC", "bookings.status"),
		DevMode:     strings.TrimSpace(os.Getenv("DEV_MODE")) == "1",
	}

	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if cfg.DevMode {
		cfg.CookieHashKey = securecookie.GenerateRandomKey(32)
		cfg.CookieBlockKey = securecookie.GenerateRandomKey(32)
		return cfg, nil
	}

	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required (or set DEV_MODE=1)")
	}
	var err error
	cfg.CookieHashKey, err = mustB64("COOKIE_HASH_KEY")
	if err != nil {
		return cfg, err
	}
	cfg.CookieBlockKey, err = mustB64("COOKIE_BLOCK_KEY")
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func mustB64(k string) ([]byte, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return nil, fmt.Errorf("%s is required (base64)", k)
	}
	if b, err := base64.StdEncoding.DecodeString(v); err == nil {
		return b, nil
	}
	b, err := base64.RawStdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}

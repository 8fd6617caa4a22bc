package config

import (
	"log"
	"os"
	"strconv"
)

// Config is the process configuration, entirely environment-driven.
type Config struct {
	Token           string
	APISecretKey    string
	APIPort         int
	GuildConfigFile string
	DataDir         string
	VATUSAToken     string
	RedisURL        string
	ImageBaseURL    string
	CommandGuildID  string
}

func Load() Config {
	return Config{
		Token:           os.Getenv("DISCORD_TOKEN"),
		APISecretKey:    os.Getenv("API_SECRET_KEY"),
		APIPort:         getenvInt("API_PORT", 5500),
		GuildConfigFile: getenv("GUILD_CONFIG_FILE", "data/guild_config.json"),
		DataDir:         getenv("DATA_DIR", "data"),
		VATUSAToken:     os.Getenv("VATUSA_TOKEN"),
		RedisURL:        os.Getenv("REDIS_URL"),
		ImageBaseURL:    os.Getenv("IMAGE_BASE_URL"),
		CommandGuildID:  os.Getenv("APP_COMMANDS_GUILD_ID"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

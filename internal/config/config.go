package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	DBPath     string        `mapstructure:"db_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	RoomName   string        `mapstructure:"room_name"`

	MuteMessage             string              `mapstructure:"mute_message"`
	AllowedRoles            []string            `mapstructure:"allowed_roles"`
	ProtectedRoles          []string            `mapstructure:"protected_roles"`
	AllowTalkingWhenCaptain bool                `mapstructure:"allow_talking_when_captain"`
	RoleGrants              map[string][]string `mapstructure:"role_grants"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "warden.db")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("room_name", "warden")
	v.SetDefault("mute_message", "You are muted and cannot chat.")
	v.SetDefault("allowed_roles", []string{"admin"})
	v.SetDefault("protected_roles", []string{})
	v.SetDefault("allow_talking_when_captain", false)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Room: %s\n", cfg.Mode, cfg.Port, cfg.RoomName)
	return &cfg, nil
}

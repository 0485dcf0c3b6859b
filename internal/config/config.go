package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// CRMConfig names the fixed pipeline/stage auto-enrollment targets. They are
// resolved to ids once at startup; an empty or unresolvable name disables
// enrollment instead of failing transitions.
type CRMConfig struct {
	ActiveMembersPipeline string `yaml:"active_members_pipeline"`
	ActiveStage           string `yaml:"active_stage"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret   string `yaml:"jwt_secret"`
		TokenTTLMin int    `yaml:"token_ttl_minutes"`
	} `yaml:"auth"`
	CRM CRMConfig `yaml:"crm"`
}

func LoadConfig() *Config {
	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	f, err := os.Open("config/config.yaml")
	if err != nil {
		panic("Failed to open config.yaml: " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse config.yaml: " + err.Error())
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.CRM.ActiveMembersPipeline == "" {
		cfg.CRM.ActiveMembersPipeline = "Active Members"
	}
	if cfg.CRM.ActiveStage == "" {
		cfg.CRM.ActiveStage = "Active"
	}
	return &cfg
}

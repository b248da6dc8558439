package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// InstallerConfig points at the hosted provisioning API used by
// POST /api/installer/run.
type InstallerConfig struct {
	ProvisionURL   string        `yaml:"provision_url"`
	ProvisionToken string        `yaml:"provision_token"`
	Timeout        time.Duration `yaml:"timeout"`
}

// WorkerConfig tunes the background plumbing: how long insert events are coalesced
// before deciding refetch vs invalidate, the quiet period for update/delete
// debouncing, and the analyzer/sweep schedules.
type WorkerConfig struct {
	CoalesceWindow    time.Duration `yaml:"coalesce_window"`
	DebounceWindow    time.Duration `yaml:"debounce_window"`
	AnalyzerCron      string        `yaml:"analyzer_cron"`
	SweepCron         string        `yaml:"sweep_cron"`
	DecisionRetention time.Duration `yaml:"decision_retention"`
	StagnantDealAfter time.Duration `yaml:"stagnant_deal_after"`
	ChurnRiskAfter    time.Duration `yaml:"churn_risk_after"`
}

type Config struct {
	DB        DBConfig        `yaml:"db"`
	MQ        MQConfig        `yaml:"mq"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	Server    ServerConfig    `yaml:"server"`
	Installer InstallerConfig `yaml:"installer"`
	Worker    WorkerConfig    `yaml:"worker"`
}

func Load() *Config {
	f, err := os.Open("config.yaml")
	if err != nil {
		log.Fatalf("failed to open config.yaml: %v", err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config.yaml: %v", err)
	}

	cfg.ApplyDefaults()
	overrideFromEnv(&cfg)

	return &cfg
}

func (cfg *Config) ApplyDefaults() {
	if cfg.Worker.CoalesceWindow == 0 {
		cfg.Worker.CoalesceWindow = 50 * time.Millisecond
	}
	if cfg.Worker.DebounceWindow == 0 {
		cfg.Worker.DebounceWindow = 100 * time.Millisecond
	}
	if cfg.Worker.AnalyzerCron == "" {
		cfg.Worker.AnalyzerCron = "@every 15m"
	}
	if cfg.Worker.SweepCron == "" {
		cfg.Worker.SweepCron = "@hourly"
	}
	if cfg.Worker.DecisionRetention == 0 {
		cfg.Worker.DecisionRetention = 7 * 24 * time.Hour
	}
	if cfg.Worker.StagnantDealAfter == 0 {
		cfg.Worker.StagnantDealAfter = 14 * 24 * time.Hour
	}
	if cfg.Worker.ChurnRiskAfter == 0 {
		cfg.Worker.ChurnRiskAfter = 30 * 24 * time.Hour
	}
	if cfg.Installer.Timeout == 0 {
		cfg.Installer.Timeout = 30 * time.Second
	}
}

func overrideFromEnv(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}

	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}

	if url := os.Getenv("INSTALLER_PROVISION_URL"); url != "" {
		cfg.Installer.ProvisionURL = url
	}
	if token := os.Getenv("INSTALLER_PROVISION_TOKEN"); token != "" {
		cfg.Installer.ProvisionToken = token
	}
}

package core

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env            string `yaml:"env" env:"ENV" env-default:"local"`
	TelegramApiKey string `yaml:"telegram_api_key" env:"TELEGRAM_API_KEY" env-default:""`
	Username       string `yaml:"username" env-default:""`
	AdminId        int64  `yaml:"admin_id" env:"ADMIN_ID" env-default:"0"`
	AssetsDir      string `yaml:"assets_dir" env-default:"assets"`
	MaxReferences  int    `yaml:"max_references" env-default:"3"`
	DailyLimit     int    `yaml:"daily_limit" env-default:"5"`
	QuotaTimezone  string `yaml:"quota_timezone" env-default:"Europe/Moscow"`
	Provider       struct {
		ApiKey         string  `yaml:"api_key" env:"PROVIDER_API_KEY" env-default:""`
		BaseURL        string  `yaml:"base_url" env-default:"https://api.generation.example/v1"`
		Model          string  `yaml:"model" env-default:"photo-composite-1"`
		TimeoutSeconds int     `yaml:"timeout_seconds" env-default:"180"`
		MaxConcurrent  int64   `yaml:"max_concurrent" env-default:"4"`
		RatePerSecond  float64 `yaml:"rate_per_second" env-default:"1"`
	} `yaml:"provider"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:"admin"`
		Password string `yaml:"password" env-default:"pass"`
		Database string `yaml:"database" env-default:""`
	} `yaml:"mongo"`
}

var instance *Config
var once sync.Once

func GetConfig(path string) (*Config, error) {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
		}
	})
	return instance, err
}

func MustLoad(path string) *Config {
	conf, err := GetConfig(path)
	if err != nil {
		log.Fatal(err)
	}
	return conf
}

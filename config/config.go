package config

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// PostgresConfig carries the relational datastore connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
}

// AudioStoreConfig configures the S3 bucket that holds WAV responses.
type AudioStoreConfig struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Endpoint  string `mapstructure:"endpoint"`
}

// Application config structure
type AppConfig struct {
	Name        string `mapstructure:"service_name" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port" validate:"required"`
	LogLevel    string `mapstructure:"log_level" validate:"required"`
	LogPath     string `mapstructure:"log_path"`
	Secret      string `mapstructure:"secret" validate:"required"`

	PostgresConfig   PostgresConfig   `mapstructure:"postgres"`
	RedisConfig      RedisConfig      `mapstructure:"redis"`
	AudioStoreConfig AudioStoreConfig `mapstructure:"audio_store"`

	// Question authoring is protected with basic auth; empty credentials
	// disable the authoring endpoints outside development.
	AuthoringUsername string `mapstructure:"authoring_username"`
	AuthoringPassword string `mapstructure:"authoring_password"`

	// Researcher access is wrapped in a global kill switch.
	EnableResearcherAccess bool   `mapstructure:"enable_researcher_access"`
	ResearchLoginURL       string `mapstructure:"research_login_url"`

	SendgridApiKey   string `mapstructure:"sendgrid_api_key"`
	FromEmail        string `mapstructure:"from_email"`
	SlackWebhookURL  string `mapstructure:"slack_webhook_url"`
	DeepgramApiKey   string `mapstructure:"deepgram_api_key"`
	RateLimitPerHour int    `mapstructure:"rate_limit_per_hour"`
}

func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		log.Printf("Reading from env variables.")
	}
	return vConfig, nil
}

func setDefault(vConfig *viper.Viper) {
	vConfig.SetDefault("service_name", "moment-api")
	vConfig.SetDefault("version", "1.0.0")
	vConfig.SetDefault("environment", "development")
	vConfig.SetDefault("port", 4000)
	vConfig.SetDefault("log_level", "info")
	vConfig.SetDefault("rate_limit_per_hour", 100000)
}

// GetAppConfig unmarshals and validates the application configuration.
func GetAppConfig(vConfig *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := vConfig.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

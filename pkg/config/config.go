package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"github.com/user/illust-harvester/internal/entity"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	PostgresURL   string `mapstructure:"POSTGRES_URL"`

	AuditLogPath   string `mapstructure:"AUDIT_LOG_PATH"`
	DefaultChannel string `mapstructure:"DEFAULT_CHANNEL"`

	SiteBaseURL  string `mapstructure:"SITE_BASE_URL"`
	LoginURL     string `mapstructure:"LOGIN_URL"`
	ImageOrigin  string `mapstructure:"IMAGE_ORIGIN"`
	ImageReferer string `mapstructure:"IMAGE_REFERER"`

	AnchorTimeoutMS   int `mapstructure:"ANCHOR_TIMEOUT_MS"`
	NavTimeoutMS      int `mapstructure:"NAVIGATION_TIMEOUT_MS"`
	FetchTimeoutMS    int `mapstructure:"FETCH_TIMEOUT_MS"`
	ThrottleDelayMS   int `mapstructure:"THROTTLE_DELAY_MS"`
	RetryDelayMS      int `mapstructure:"RETRY_DELAY_MS"`
	SettleDelayMS     int `mapstructure:"SETTLE_DELAY_MS"`
	PostLoginDelayMS  int `mapstructure:"POST_LOGIN_DELAY_MS"`
	SearchTypeDelayMS int `mapstructure:"SEARCH_TYPE_DELAY_MS"`
	ScrollStepPX      int `mapstructure:"SCROLL_STEP_PX"`
	ScrollDelayMS     int `mapstructure:"SCROLL_DELAY_MS"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// The .env file is optional; production is configured purely through the environment
	_ = v.ReadInConfig()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("AUDIT_LOG_PATH", defaultAuditLogPath())
	v.SetDefault("DEFAULT_CHANNEL", "electron-socket")
	v.SetDefault("SITE_BASE_URL", "https://www.pixiv.net")
	v.SetDefault("LOGIN_URL", "https://accounts.pixiv.net/login")
	v.SetDefault("IMAGE_ORIGIN", "https://i.pximg.net")
	v.SetDefault("IMAGE_REFERER", "https://www.pixiv.net/")
	v.SetDefault("ANCHOR_TIMEOUT_MS", 60000)
	v.SetDefault("NAVIGATION_TIMEOUT_MS", 30000)
	v.SetDefault("FETCH_TIMEOUT_MS", 60000)
	v.SetDefault("THROTTLE_DELAY_MS", 3000)
	v.SetDefault("RETRY_DELAY_MS", 2000)
	v.SetDefault("SETTLE_DELAY_MS", 2000)
	v.SetDefault("POST_LOGIN_DELAY_MS", 3000)
	v.SetDefault("SEARCH_TYPE_DELAY_MS", 3000)
	v.SetDefault("SCROLL_STEP_PX", 300)
	v.SetDefault("SCROLL_DELAY_MS", 2000)
}

func defaultAuditLogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "illust-harvester", "download.log")
}

// Timing converts the millisecond settings into the pipeline's timing bounds.
func (c *Config) Timing() entity.Timing {
	return entity.Timing{
		AnchorTimeout:     ms(c.AnchorTimeoutMS),
		NavigationTimeout: ms(c.NavTimeoutMS),
		FetchTimeout:      ms(c.FetchTimeoutMS),
		ThrottleDelay:     ms(c.ThrottleDelayMS),
		RetryDelay:        ms(c.RetryDelayMS),
		SettleDelay:       ms(c.SettleDelayMS),
		PostLoginDelay:    ms(c.PostLoginDelayMS),
		SearchTypeDelay:   ms(c.SearchTypeDelayMS),
		ScrollStep:        c.ScrollStepPX,
		ScrollDelay:       ms(c.ScrollDelayMS),
	}
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Jaxius6/SocialMediaScraper/internal/airtable"
	"github.com/Jaxius6/SocialMediaScraper/internal/models"
	"github.com/Jaxius6/SocialMediaScraper/internal/platforms"
	"github.com/Jaxius6/SocialMediaScraper/internal/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Airtable AirtableConfig                 `mapstructure:"airtable"`
	Browser  models.BrowserOptions          `mapstructure:"browser"`
	Scrape   map[string]models.ScrapeConfig `mapstructure:"scrape"` // 按平台键覆盖抓取参数
	Logging  LoggingConfig                  `mapstructure:"logging"`
	Output   OutputConfig                   `mapstructure:"output"`
}

// AirtableConfig Airtable配置
// 凭据只从环境变量读取(.env或进程环境),不落在配置文件里
type AirtableConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Retries   int    `mapstructure:"retries"`
	RetryWait int    `mapstructure:"retry_wait"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	// .env优先加载,缺失不是错误(凭据可能来自进程环境)
	if err := godotenv.Load(); err == nil {
		utils.Debug("已加载 .env 文件")
	}

	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".socialscraper"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在,使用默认值
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := config.Browser.Validate(); err != nil {
		return nil, fmt.Errorf("浏览器配置无效: %w", err)
	}
	for key, sc := range config.Scrape {
		if err := sc.Validate(); err != nil {
			return nil, fmt.Errorf("平台 %s 抓取配置无效: %w", key, err)
		}
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// Airtable配置默认值
	v.SetDefault("airtable.base_url", "https://api.airtable.com/v0")
	v.SetDefault("airtable.retries", 3)
	v.SetDefault("airtable.retry_wait", 1)

	// 浏览器配置默认值
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.launch_retries", 3)
	v.SetDefault("browser.nav_timeout", 30)
	v.SetDefault("browser.lookup_timeout", 5)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "output")
}

// AirtableClientConfig 组装Airtable客户端配置(凭据来自环境变量)
func (c *Config) AirtableClientConfig() airtable.Config {
	return airtable.Config{
		BaseURL:   c.Airtable.BaseURL,
		PAT:       os.Getenv("AIRTABLE_PAT"),
		BaseID:    os.Getenv("AIRTABLE_BASE_ID"),
		TableName: os.Getenv("AIRTABLE_TABLE_NAME"),
		Retries:   c.Airtable.Retries,
		RetryWait: c.Airtable.RetryWait,
	}
}

// ScrapeConfigFor 返回平台的抓取配置
// 配置文件中的平台段整体覆盖内置默认值,未配置的平台使用平台定义自带的默认值
func (c *Config) ScrapeConfigFor(def *platforms.Definition) models.ScrapeConfig {
	if sc, ok := c.Scrape[string(def.Key)]; ok {
		return sc
	}
	return def.Defaults
}

// LogConfig 组装日志配置
func (c *Config) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
}

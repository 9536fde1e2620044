package models

import (
	"fmt"
	"time"
)

// DelayRange 随机延迟区间(秒)
// 随机化延迟用于避免固定间隔的请求指纹
type DelayRange struct {
	Min float64 `mapstructure:"min" json:"min"` // 下限(秒)
	Max float64 `mapstructure:"max" json:"max"` // 上限(秒)
}

// Validate 验证区间合法性
func (d DelayRange) Validate() error {
	if d.Min < 0 {
		return fmt.Errorf("延迟下限不能为负数: %.2f", d.Min)
	}
	if d.Max < d.Min {
		return fmt.Errorf("延迟上限(%.2f)不能小于下限(%.2f)", d.Max, d.Min)
	}
	return nil
}

// MinDuration 区间下限对应的Duration
func (d DelayRange) MinDuration() time.Duration {
	return time.Duration(d.Min * float64(time.Second))
}

// MaxDuration 区间上限对应的Duration
func (d DelayRange) MaxDuration() time.Duration {
	return time.Duration(d.Max * float64(time.Second))
}

// ScrapeConfig 单平台抓取配置
type ScrapeConfig struct {
	MaxRetries        int        `mapstructure:"max_retries" json:"max_retries"`                 // 单账号最大尝试次数 (>=1)
	RetryDelay        DelayRange `mapstructure:"retry_delay" json:"retry_delay"`                 // 重试前随机等待区间
	InterRequestDelay DelayRange `mapstructure:"inter_request_delay" json:"inter_request_delay"` // 账号之间随机间隔区间
	NavWait           DelayRange `mapstructure:"nav_wait" json:"nav_wait"`                       // 导航后等待动态内容加载的区间
	QuickAttempts     int        `mapstructure:"quick_attempts" json:"quick_attempts"`           // 单次导航内的快速定位尝试次数
	QuickDelay        DelayRange `mapstructure:"quick_delay" json:"quick_delay"`                 // 快速尝试之间的等待区间
}

// Validate 验证配置
func (c *ScrapeConfig) Validate() error {
	if c.MaxRetries < 1 || c.MaxRetries > 10 {
		return fmt.Errorf("最大尝试次数必须在1-10之间,当前值: %d", c.MaxRetries)
	}
	if c.QuickAttempts < 0 || c.QuickAttempts > 20 {
		return fmt.Errorf("快速尝试次数必须在0-20之间,当前值: %d", c.QuickAttempts)
	}
	for name, r := range map[string]DelayRange{
		"retry_delay":         c.RetryDelay,
		"inter_request_delay": c.InterRequestDelay,
		"nav_wait":            c.NavWait,
		"quick_delay":         c.QuickDelay,
	} {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%s配置无效: %w", name, err)
		}
	}
	return nil
}

// BrowserOptions 浏览器会话选项
type BrowserOptions struct {
	Headless      bool   `mapstructure:"headless" json:"headless"`             // 无头模式 (默认:true)
	UserAgent     string `mapstructure:"user_agent" json:"user_agent"`         // User-Agent
	WindowWidth   int    `mapstructure:"window_width" json:"window_width"`     // 窗口宽度
	WindowHeight  int    `mapstructure:"window_height" json:"window_height"`   // 窗口高度
	LaunchRetries int    `mapstructure:"launch_retries" json:"launch_retries"` // 浏览器启动重试次数
	NavTimeout    int    `mapstructure:"nav_timeout" json:"nav_timeout"`       // 导航超时(秒)
	LookupTimeout int    `mapstructure:"lookup_timeout" json:"lookup_timeout"` // 元素查找超时(秒)
}

// Validate 验证浏览器选项
func (o *BrowserOptions) Validate() error {
	if o.WindowWidth < 320 || o.WindowHeight < 240 {
		return fmt.Errorf("窗口尺寸过小: %dx%d", o.WindowWidth, o.WindowHeight)
	}
	if o.LaunchRetries < 1 || o.LaunchRetries > 10 {
		return fmt.Errorf("浏览器启动重试次数必须在1-10之间,当前值: %d", o.LaunchRetries)
	}
	if o.NavTimeout < 1 || o.NavTimeout > 300 {
		return fmt.Errorf("导航超时必须在1-300秒之间,当前值: %d", o.NavTimeout)
	}
	return nil
}

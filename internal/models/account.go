package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Platform 社交平台标识
type Platform string

const (
	PlatformFacebook  Platform = "facebook"  // Facebook
	PlatformInstagram Platform = "instagram" // Instagram
	PlatformTwitter   Platform = "twitter"   // Twitter/X
	PlatformYouTube   Platform = "youtube"   // YouTube
)

// AllPlatforms 返回所有支持的平台(按固定顺序)
func AllPlatforms() []Platform {
	return []Platform{
		PlatformFacebook,
		PlatformInstagram,
		PlatformTwitter,
		PlatformYouTube,
	}
}

// ParsePlatform 解析平台名称
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "facebook", "fb":
		return PlatformFacebook, nil
	case "instagram", "ig":
		return PlatformInstagram, nil
	case "twitter", "x":
		return PlatformTwitter, nil
	case "youtube", "yt":
		return PlatformYouTube, nil
	}
	return "", fmt.Errorf("无效的平台名称: %s (有效值: facebook, instagram, twitter, youtube)", s)
}

// Account 单个抓取目标
// RecordID是外部数据存储(Airtable)的记录主键,本次运行中不可变
type Account struct {
	RecordID string   `json:"record_id"` // Airtable记录ID
	Username string   `json:"username"`  // 平台用户名
	Platform Platform `json:"platform"`  // 所属平台
}

// ScrapeResult 单账号抓取结果
// 约束: 运行结束时Count和Error恰好一个有效(后续重试成功会清除先前的错误)
type ScrapeResult struct {
	Username  string    `json:"username"`         // 平台用户名
	Count     *float64  `json:"count,omitempty"`  // 粉丝/订阅数(未找到时为nil)
	Attempts  int       `json:"attempts"`         // 消耗的尝试次数
	Source    string    `json:"source,omitempty"` // 数据来源: probe(静态探测)或browser(浏览器)
	Timestamp time.Time `json:"timestamp"`        // 运行级时间戳(整批共享)
	Error     string    `json:"error,omitempty"`  // 终态失败原因
}

// Succeeded 是否成功获取到数值
func (r *ScrapeResult) Succeeded() bool {
	return r.Count != nil
}

// RunStats 单次运行统计
type RunStats struct {
	Total    int     `json:"total"`    // 处理账号总数
	Success  int     `json:"success"`  // 成功数
	Failed   int     `json:"failed"`   // 失败数
	Updated  int     `json:"updated"`  // 写回数据存储的记录数
	Duration float64 `json:"duration"` // 总耗时(秒)
}

// RunBatch 一次完整运行的结果集合
// 所有条目共享同一个时间戳,这是交给持久化层的最小单元
type RunBatch struct {
	ID        string         `json:"id"`        // 运行唯一ID (UUID)
	Platform  Platform       `json:"platform"`  // 目标平台
	Timestamp time.Time      `json:"timestamp"` // 批次开始时间(所有结果共享)
	Results   []ScrapeResult `json:"results"`   // 按输入顺序的逐账号结果
	Stats     RunStats       `json:"stats"`     // 运行统计
}

// NewRunBatch 创建新的运行批次,时间戳在此刻捕获
func NewRunBatch(platform Platform) *RunBatch {
	return &RunBatch{
		ID:        uuid.New().String(),
		Platform:  platform,
		Timestamp: time.Now(),
		Results:   make([]ScrapeResult, 0),
	}
}

// Finalize 汇总统计信息
func (b *RunBatch) Finalize(duration time.Duration) {
	b.Stats.Total = len(b.Results)
	b.Stats.Success = 0
	b.Stats.Failed = 0
	for i := range b.Results {
		if b.Results[i].Succeeded() {
			b.Stats.Success++
		} else {
			b.Stats.Failed++
		}
	}
	b.Stats.Duration = duration.Seconds()
}

// Successes 返回成功的结果子集
func (b *RunBatch) Successes() []ScrapeResult {
	out := make([]ScrapeResult, 0, len(b.Results))
	for _, r := range b.Results {
		if r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

// Failures 返回失败的结果子集
func (b *RunBatch) Failures() []ScrapeResult {
	out := make([]ScrapeResult, 0)
	for _, r := range b.Results {
		if !r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

// ToJSON 序列化为JSON
func (b *RunBatch) ToJSON() ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// FromJSON 从JSON反序列化
func (b *RunBatch) FromJSON(data []byte) error {
	return json.Unmarshal(data, b)
}

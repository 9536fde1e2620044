package models

import (
	"testing"
	"time"
)

// TestParsePlatform 测试平台名称解析
func TestParsePlatform(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Platform
		wantErr  bool
		reason   string
	}{
		{"标准名称", "facebook", PlatformFacebook, false, "完整平台名"},
		{"fb别名", "fb", PlatformFacebook, false, "常用缩写"},
		{"ig别名", "ig", PlatformInstagram, false, "常用缩写"},
		{"x别名", "x", PlatformTwitter, false, "改名后的新别名"},
		{"yt别名", "yt", PlatformYouTube, false, "常用缩写"},
		{"大小写混合", "YouTube", PlatformYouTube, false, "解析不区分大小写"},
		{"带空白", "  twitter  ", PlatformTwitter, false, "前后空白被剥离"},
		{"未知平台", "tiktok", "", true, "不支持的平台是明确错误"},
		{"空字符串", "", "", true, "空输入是错误"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlatform(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Errorf("期望解析失败,得到 %s (原因: %s)", got, tt.reason)
				}
				return
			}

			if err != nil {
				t.Fatalf("解析失败: %v (原因: %s)", err, tt.reason)
			}
			if got != tt.expected {
				t.Errorf("期望 %s,得到 %s (原因: %s)", tt.expected, got, tt.reason)
			}
		})
	}
}

// TestRunBatchFinalize 测试批次统计汇总
func TestRunBatchFinalize(t *testing.T) {
	batch := NewRunBatch(PlatformTwitter)

	count := 1500.0
	batch.Results = append(batch.Results,
		ScrapeResult{Username: "a", Count: &count, Attempts: 1},
		ScrapeResult{Username: "b", Error: "未找到粉丝数", Attempts: 3},
		ScrapeResult{Username: "c", Count: &count, Attempts: 2},
	)

	batch.Finalize(90 * time.Second)

	if batch.Stats.Total != 3 {
		t.Errorf("期望总数3,得到 %d", batch.Stats.Total)
	}
	if batch.Stats.Success != 2 {
		t.Errorf("期望成功2,得到 %d", batch.Stats.Success)
	}
	if batch.Stats.Failed != 1 {
		t.Errorf("期望失败1,得到 %d", batch.Stats.Failed)
	}
	if batch.Stats.Duration != 90 {
		t.Errorf("期望耗时90秒,得到 %.1f", batch.Stats.Duration)
	}

	if len(batch.Successes()) != 2 {
		t.Errorf("期望成功子集2条,得到 %d", len(batch.Successes()))
	}
	if len(batch.Failures()) != 1 {
		t.Errorf("期望失败子集1条,得到 %d", len(batch.Failures()))
	}
	if batch.ID == "" {
		t.Error("批次必须携带运行ID")
	}
}

// TestRunBatchJSONRoundTrip 批次可序列化保存并恢复
func TestRunBatchJSONRoundTrip(t *testing.T) {
	batch := NewRunBatch(PlatformYouTube)
	count := 42.0
	batch.Results = append(batch.Results, ScrapeResult{
		Username:  "someone",
		Count:     &count,
		Attempts:  1,
		Source:    "browser",
		Timestamp: batch.Timestamp,
	})
	batch.Finalize(time.Second)

	data, err := batch.ToJSON()
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}

	var restored RunBatch
	if err := restored.FromJSON(data); err != nil {
		t.Fatalf("反序列化失败: %v", err)
	}

	if restored.ID != batch.ID {
		t.Errorf("运行ID不一致: %s != %s", restored.ID, batch.ID)
	}
	if restored.Platform != PlatformYouTube {
		t.Errorf("平台不一致: %s", restored.Platform)
	}
	if len(restored.Results) != 1 || !restored.Results[0].Succeeded() {
		t.Error("结果列表未正确恢复")
	}
}

// TestScrapeConfigValidate 测试抓取配置验证
func TestScrapeConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ScrapeConfig
		wantErr bool
		reason  string
	}{
		{
			name: "合法配置",
			cfg: ScrapeConfig{
				MaxRetries:    3,
				RetryDelay:    DelayRange{Min: 1, Max: 2},
				QuickAttempts: 5,
			},
			reason: "常规参数",
		},
		{
			name:    "重试次数为零",
			cfg:     ScrapeConfig{MaxRetries: 0},
			wantErr: true,
			reason:  "至少尝试一次",
		},
		{
			name:    "重试次数过大",
			cfg:     ScrapeConfig{MaxRetries: 11},
			wantErr: true,
			reason:  "防止无界重试",
		},
		{
			name: "延迟区间倒置",
			cfg: ScrapeConfig{
				MaxRetries: 2,
				RetryDelay: DelayRange{Min: 5, Max: 1},
			},
			wantErr: true,
			reason:  "上限不能小于下限",
		},
		{
			name: "负延迟",
			cfg: ScrapeConfig{
				MaxRetries: 2,
				NavWait:    DelayRange{Min: -1, Max: 1},
			},
			wantErr: true,
			reason:  "延迟不能为负",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("期望验证失败 (原因: %s)", tt.reason)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("验证失败: %v (原因: %s)", err, tt.reason)
			}
		})
	}
}

// TestDelayRangeDurations 区间端点换算
func TestDelayRangeDurations(t *testing.T) {
	r := DelayRange{Min: 0.5, Max: 2}
	if r.MinDuration() != 500*time.Millisecond {
		t.Errorf("期望500ms,得到 %v", r.MinDuration())
	}
	if r.MaxDuration() != 2*time.Second {
		t.Errorf("期望2s,得到 %v", r.MaxDuration())
	}
}

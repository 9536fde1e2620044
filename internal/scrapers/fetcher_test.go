package scrapers

import (
	"fmt"
	"testing"
	"time"

	"github.com/Jaxius6/SocialMediaScraper/internal/models"
	"github.com/Jaxius6/SocialMediaScraper/internal/platforms"
)

// testDefinition 抓取循环测试用的极简平台定义
func testDefinition() *platforms.Definition {
	return &platforms.Definition{
		Key:         "testplatform",
		DisplayName: "TestPlatform",
		Label:       "followers",
		Keywords:    []string{"follow"},
		Strategies: []models.Strategy{
			{Kind: models.BySelectorText, Name: "main", Selector: "sel-main"},
		},
		URLs: func(username string) []string {
			return []string{fmt.Sprintf("https://test.example/%s", username)}
		},
	}
}

// zeroDelayConfig 测试用零延迟配置
func zeroDelayConfig(maxRetries int) models.ScrapeConfig {
	return models.ScrapeConfig{
		MaxRetries:    maxRetries,
		QuickAttempts: 1,
	}
}

// newTestFetcher 创建不真实睡眠的抓取循环
func newTestFetcher(session PageSession, def *platforms.Definition, cfg models.ScrapeConfig) *Fetcher {
	f := NewFetcher(session, def, cfg)
	f.sleep = func(time.Duration) {}
	return f
}

// TestFetchAccountSuccess 首次尝试成功
func TestFetchAccountSuccess(t *testing.T) {
	m := newMockSession()
	m.texts["sel-main"] = []string{"1.2M followers"}

	f := newTestFetcher(m, testDefinition(), zeroDelayConfig(3))
	result := f.FetchAccount("alice", time.Now())

	if !result.Succeeded() {
		t.Fatalf("期望成功,得到错误: %s", result.Error)
	}
	if *result.Count != 1200000 {
		t.Errorf("期望 1200000,得到 %.0f", *result.Count)
	}
	if result.Attempts != 1 {
		t.Errorf("期望1次尝试,实际 %d 次", result.Attempts)
	}
	if result.Source != "browser" {
		t.Errorf("期望来源browser,得到 %s", result.Source)
	}
	if result.Error != "" {
		t.Errorf("成功结果不应携带错误: %s", result.Error)
	}
}

// TestFetchAccountExhaustsRetries 持续失败消耗全部重试预算
func TestFetchAccountExhaustsRetries(t *testing.T) {
	m := newMockSession()
	// sel-main 不注册,每次定位都失败

	f := newTestFetcher(m, testDefinition(), zeroDelayConfig(3))
	result := f.FetchAccount("bob", time.Now())

	if result.Succeeded() {
		t.Fatal("期望失败,却得到了数值")
	}
	if result.Attempts != 3 {
		t.Errorf("期望恰好3次尝试,实际 %d 次", result.Attempts)
	}
	if result.Error == "" {
		t.Error("失败结果必须携带失败原因")
	}
	if m.navCount != 3 {
		t.Errorf("每次尝试都应重新导航,期望3次导航,实际 %d 次", m.navCount)
	}
}

// TestFetchAccountLateSuccess 晚到的重试成功清除先前的错误
func TestFetchAccountLateSuccess(t *testing.T) {
	m := newMockSession()

	def := testDefinition()
	cfg := zeroDelayConfig(3)
	f := newTestFetcher(m, def, cfg)

	// 第二次导航后注册候选,模拟第一次渲染未完成
	origNav := 0
	f.sleep = func(time.Duration) {
		if m.navCount >= 2 && origNav != m.navCount {
			m.texts["sel-main"] = []string{"3.4K followers"}
			origNav = m.navCount
		}
	}

	result := f.FetchAccount("carol", time.Now())

	if !result.Succeeded() {
		t.Fatalf("期望最终成功,得到错误: %s", result.Error)
	}
	if *result.Count != 3400 {
		t.Errorf("期望 3400,得到 %.0f", *result.Count)
	}
	if result.Attempts != 2 {
		t.Errorf("期望恰好2次尝试,实际 %d 次", result.Attempts)
	}
	if result.Error != "" {
		t.Errorf("重试成功后先前的错误必须被清除: %s", result.Error)
	}
}

// TestFetchAccountNotExistMarkerIsTerminal 正文中的不可用标记跳过剩余重试
func TestFetchAccountNotExistMarkerIsTerminal(t *testing.T) {
	def := testDefinition()
	def.NotExistMarkers = []string{"This account doesn't exist"}

	m := newMockSession()
	m.bodyText = "Sorry. This account doesn't exist. Try again."
	m.texts["sel-main"] = []string{"1.2M followers"} // 即使有候选也不应读取

	f := newTestFetcher(m, def, zeroDelayConfig(5))
	result := f.FetchAccount("dave", time.Now())

	if result.Succeeded() {
		t.Fatal("期望失败,却得到了数值")
	}
	if result.Attempts != 1 {
		t.Errorf("终态错误应跳过剩余重试,期望1次尝试,实际 %d 次", result.Attempts)
	}
	if result.Error == "" {
		t.Error("失败结果必须携带失败原因")
	}
}

// TestFetchAccountRedirectIsTerminal 导航落在别处的URL跳过剩余重试
func TestFetchAccountRedirectIsTerminal(t *testing.T) {
	def := testDefinition()
	def.CheckRedirect = true

	m := &redirectingSession{mockSession: newMockSession(), landURL: "https://test.example/login"}

	f := newTestFetcher(m, def, zeroDelayConfig(5))
	result := f.FetchAccount("dave", time.Now())

	if result.Succeeded() {
		t.Fatal("期望失败,却得到了数值")
	}
	if result.Attempts != 1 {
		t.Errorf("重定向是终态,期望1次尝试,实际 %d 次", result.Attempts)
	}
}

// redirectingSession 导航后落在固定URL的mock(模拟平台重定向)
type redirectingSession struct {
	*mockSession
	landURL string
}

func (s *redirectingSession) Navigate(url string) error {
	s.navCount++
	s.currentURL = s.landURL
	return nil
}

func (s *redirectingSession) CurrentURL() (string, error) {
	return s.landURL, nil
}

// TestFetchAccountNoSessionNoProbe 无会话且无探测时返回明确失败而非panic
func TestFetchAccountNoSessionNoProbe(t *testing.T) {
	def := testDefinition()
	def.ProbeMeta = true

	f := newTestFetcher(nil, def, zeroDelayConfig(2))
	result := f.FetchAccount("erin", time.Now())

	if result.Succeeded() {
		t.Fatal("无会话且无探测时不可能成功")
	}
	if result.Error == "" {
		t.Error("必须携带失败原因")
	}
}

// TestFetchAccountPanicIsolated 页面操作panic转换为该次尝试的失败
func TestFetchAccountPanicIsolated(t *testing.T) {
	m := &panickingSession{mockSession: newMockSession()}

	f := newTestFetcher(m, testDefinition(), zeroDelayConfig(2))
	result := f.FetchAccount("frank", time.Now())

	if result.Succeeded() {
		t.Fatal("期望失败,却得到了数值")
	}
	if result.Attempts != 2 {
		t.Errorf("panic是普通失败,应消耗全部重试,期望2次,实际 %d 次", result.Attempts)
	}
}

// panickingSession 每次查找都panic的mock
type panickingSession struct {
	*mockSession
}

func (s *panickingSession) Navigate(url string) error {
	s.navCount++
	return nil
}

func (s *panickingSession) Texts(selector string, xpath bool) ([]string, error) {
	panic("页面已崩溃")
}

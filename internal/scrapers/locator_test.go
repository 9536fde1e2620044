package scrapers

import (
	"fmt"
	"time"

	"testing"

	"github.com/Jaxius6/SocialMediaScraper/internal/models"
	"github.com/Jaxius6/SocialMediaScraper/internal/utils"
)

func init() {
	// 测试时静默日志输出
	utils.InitTestLogger()
}

// mockSession 可编程的页面会话mock
// texts/attributes/evalResults 按选择器/脚本返回预设结果,
// calls 记录每个选择器被查询的次数(用于验证短路行为)
type mockSession struct {
	currentURL string
	bodyText   string

	texts      map[string][]string
	attributes map[string]string
	evalOut    map[string]string

	navErr   error
	navCount int

	calls map[string]int

	clicked map[string]bool
	closed  int
}

func newMockSession() *mockSession {
	return &mockSession{
		texts:      make(map[string][]string),
		attributes: make(map[string]string),
		evalOut:    make(map[string]string),
		calls:      make(map[string]int),
		clicked:    make(map[string]bool),
	}
}

func (m *mockSession) Navigate(url string) error {
	m.navCount++
	if m.navErr != nil {
		return m.navErr
	}
	m.currentURL = url
	return nil
}

func (m *mockSession) CurrentURL() (string, error) {
	return m.currentURL, nil
}

func (m *mockSession) Texts(selector string, xpath bool) ([]string, error) {
	m.calls[selector]++
	texts, ok := m.texts[selector]
	if !ok {
		return nil, fmt.Errorf("元素未找到: %s", selector)
	}
	return texts, nil
}

func (m *mockSession) Attribute(selector string, attribute string, xpath bool) (string, error) {
	m.calls[selector]++
	value, ok := m.attributes[selector]
	if !ok {
		return "", fmt.Errorf("元素未找到: %s", selector)
	}
	return value, nil
}

func (m *mockSession) Eval(script string) (string, error) {
	m.calls[script]++
	out, ok := m.evalOut[script]
	if !ok {
		return "", fmt.Errorf("脚本执行失败")
	}
	return out, nil
}

func (m *mockSession) BodyText() (string, error) {
	return m.bodyText, nil
}

func (m *mockSession) TryClick(selector string, timeout time.Duration) bool {
	return m.clicked[selector]
}

func (m *mockSession) Close() error {
	m.closed++
	return nil
}

// TestLocateCount 测试策略表定位
func TestLocateCount(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*mockSession)
		table     []models.Strategy
		keywords  []string
		expected  float64
		wantErr   bool
		reason    string
		postCheck func(*testing.T, *mockSession)
	}{
		{
			name: "首个策略命中即返回",
			setup: func(m *mockSession) {
				m.texts["sel-a"] = []string{"1.2M followers"}
				m.texts["sel-b"] = []string{"999 followers"}
			},
			table: []models.Strategy{
				{Kind: models.BySelectorText, Name: "a", Selector: "sel-a"},
				{Kind: models.BySelectorText, Name: "b", Selector: "sel-b"},
			},
			keywords: []string{"follow"},
			expected: 1200000,
			reason:   "按表顺序短路,可靠策略优先",
			postCheck: func(t *testing.T, m *mockSession) {
				if m.calls["sel-b"] != 0 {
					t.Errorf("首个策略已命中,后续策略不应执行 (sel-b被调用 %d 次)", m.calls["sel-b"])
				}
			},
		},
		{
			name: "策略报错继续下一个",
			setup: func(m *mockSession) {
				// sel-a 不注册,查找报错
				m.texts["sel-b"] = []string{"500 followers"}
			},
			table: []models.Strategy{
				{Kind: models.BySelectorText, Name: "a", Selector: "sel-a"},
				{Kind: models.BySelectorText, Name: "b", Selector: "sel-b"},
			},
			keywords: []string{"follow"},
			expected: 500,
			reason:   "单策略报错视为无候选,不中断整体定位",
		},
		{
			name: "候选缺少关键词被过滤",
			setup: func(m *mockSession) {
				m.texts["sel-a"] = []string{"42 posts", "3.4K followers"}
			},
			table: []models.Strategy{
				{Kind: models.BySelectorText, Name: "a", Selector: "sel-a"},
			},
			keywords: []string{"follow"},
			expected: 3400,
			reason:   "同一策略内取首个含关键词且可解析的候选",
		},
		{
			name: "AllowBare策略接受纯数字",
			setup: func(m *mockSession) {
				m.texts["sel-a"] = []string{"52,300"}
			},
			table: []models.Strategy{
				{Kind: models.BySelectorText, Name: "a", Selector: "sel-a", AllowBare: true},
			},
			keywords: []string{"follow"},
			expected: 52300,
			reason:   "AllowBare跳过关键词过滤",
		},
		{
			name: "属性策略",
			setup: func(m *mockSession) {
				m.attributes["meta-og"] = "2,771 Followers, 100 Following - profile"
			},
			table: []models.Strategy{
				{Kind: models.ByAttribute, Name: "og", Selector: "meta-og", Attribute: "content"},
			},
			keywords: []string{"follow"},
			expected: 2771,
			reason:   "元标签属性值参与同样的过滤和解析",
		},
		{
			name: "脚本策略按行拆候选",
			setup: func(m *mockSession) {
				m.evalOut["scan-script"] = "\n\n1.5K Followers\n"
			},
			table: []models.Strategy{
				{Kind: models.ByScriptedSearch, Name: "scan", Script: "scan-script"},
			},
			keywords: []string{"follower"},
			expected: 1500,
			reason:   "脚本输出每行一个候选,空行剔除",
		},
		{
			name:  "全部策略未命中",
			setup: func(m *mockSession) {},
			table: []models.Strategy{
				{Kind: models.BySelectorText, Name: "a", Selector: "sel-a"},
				{Kind: models.BySelectorText, Name: "b", Selector: "sel-b"},
			},
			keywords: []string{"follow"},
			wantErr:  true,
			reason:   "策略表耗尽返回未找到",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockSession()
			tt.setup(m)

			value, _, err := LocateCount(m, tt.table, tt.keywords)

			if tt.wantErr {
				if err == nil {
					t.Errorf("期望定位失败,但得到 %.0f (原因: %s)", value, tt.reason)
				}
				return
			}

			if err != nil {
				t.Fatalf("定位失败: %v (原因: %s)", err, tt.reason)
			}
			if value != tt.expected {
				t.Errorf("期望 %.0f,得到 %.0f (原因: %s)", tt.expected, value, tt.reason)
			}
			if tt.postCheck != nil {
				tt.postCheck(t, m)
			}
		})
	}
}

// TestIsPlausible 测试候选过滤
func TestIsPlausible(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		keywords  []string
		allowBare bool
		expected  bool
		reason    string
	}{
		{"含关键词和数字", "1.2M followers", []string{"follow"}, false, true, "正常候选"},
		{"关键词大小写", "100 FOLLOWERS", []string{"follow"}, false, true, "关键词匹配不区分大小写"},
		{"无数字", "followers", []string{"follow"}, false, false, "必须包含数字"},
		{"无关键词", "42 posts", []string{"follow"}, false, false, "缺少平台关键词"},
		{"AllowBare放行纯数字", "52300", []string{"follow"}, true, true, "策略显式允许裸数字"},
		{"空文本", "  ", []string{"follow"}, true, false, "空白候选直接拒绝"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isPlausible(tt.text, tt.keywords, tt.allowBare)
			if got != tt.expected {
				t.Errorf("期望 %v,得到 %v (原因: %s)", tt.expected, got, tt.reason)
			}
		})
	}
}

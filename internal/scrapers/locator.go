package scrapers

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/Jaxius6/SocialMediaScraper/internal/models"
	"github.com/Jaxius6/SocialMediaScraper/internal/utils"
)

// PageSession 页面访问能力(外部协作者边界)
// 生产实现是RodSession,测试使用mock
type PageSession interface {
	// Navigate 导航到URL并等待页面加载
	Navigate(url string) error

	// CurrentURL 返回当前页面URL(用于重定向检测)
	CurrentURL() (string, error)

	// Texts 收集选择器命中元素的文本,xpath=true时Selector按XPath解释
	Texts(selector string, xpath bool) ([]string, error)

	// Attribute 读取首个命中元素的属性值
	Attribute(selector string, attribute string, xpath bool) (string, error)

	// Eval 在页面内执行JS函数并返回字符串结果
	Eval(script string) (string, error)

	// BodyText 返回页面正文文本(用于终态标记检测)
	BodyText() (string, error)

	// TryClick 尝试在超时内点击元素,目标不存在是正常结果而非错误
	TryClick(selector string, timeout time.Duration) bool

	// Close 释放会话,所有退出路径都必须调用且只调用一次
	Close() error
}

// LocateCount 按策略表顺序定位粉丝数
// 对每个策略: 执行查找 -> 过滤含平台关键词且含数字的候选 -> 取首个可解析的候选
// 首个命中即短路返回,后续更投机的策略不再尝试;
// 单个策略抛错(元素缺失/超时)视为无候选,继续下一个策略
func LocateCount(session PageSession, table []models.Strategy, keywords []string) (float64, string, error) {
	for _, strategy := range table {
		candidates, err := collectCandidates(session, strategy)
		if err != nil {
			utils.Debugf("策略未命中 [%s]: %v", strategy.Name, err)
			continue
		}

		for _, text := range candidates {
			if !isPlausible(text, keywords, strategy.AllowBare) {
				continue
			}
			value, perr := ParseFollowerCount(text)
			if perr != nil {
				continue
			}
			utils.Debugf("策略命中 [%s]: %q", strategy.Name, text)
			return value, text, nil
		}
	}

	return 0, "", models.ErrExtractionNotFound
}

// collectCandidates 按策略类型执行查找,返回原始候选文本
func collectCandidates(session PageSession, s models.Strategy) ([]string, error) {
	switch s.Kind {
	case models.ByAttribute:
		value, err := session.Attribute(s.Selector, s.Attribute, s.XPath)
		if err != nil {
			return nil, err
		}
		return []string{value}, nil

	case models.BySelectorText:
		return session.Texts(s.Selector, s.XPath)

	case models.ByScriptedSearch:
		out, err := session.Eval(s.Script)
		if err != nil {
			return nil, err
		}
		return splitNonEmptyLines(out), nil
	}

	return nil, fmt.Errorf("未知的策略类型: %s", s.Kind)
}

// isPlausible 候选文本过滤: 必须含数字,且含平台关键词(除非策略允许纯数字)
func isPlausible(text string, keywords []string, allowBare bool) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	if !containsDigit(text) {
		return false
	}
	if allowBare || len(keywords) == 0 {
		return true
	}

	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// containsDigit 文本中是否包含数字
func containsDigit(text string) bool {
	for _, r := range text {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// splitNonEmptyLines 按行拆分并去掉空行
func splitNonEmptyLines(s string) []string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

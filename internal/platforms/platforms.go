package platforms

import (
	"fmt"
	"strings"

	"github.com/Jaxius6/SocialMediaScraper/internal/models"
)

// Definition 单个平台的完整声明式描述
// 选择器表是尽力而为的启发式,不是稳定契约,平台改版后需要更新数据而非代码
type Definition struct {
	Key         models.Platform // 平台标识
	DisplayName string          // 展示名称
	Label       string          // 数值的称谓: followers / subscribers

	UserField  string // Airtable用户名字段
	CountField string // Airtable粉丝数字段

	Keywords        []string // 候选文本必须包含的平台关键词(小写)
	NotExistMarkers []string // 页面正文中表示"账号不存在"的终态标记
	CheckRedirect   bool     // 导航后URL不再包含用户名视为账号不存在
	ProbeMeta       bool     // 允许静态探测og:description元标签

	PopupSelectors []string // 可选的弹窗/登录墙关闭按钮选择器(CSS)

	Strategies []models.Strategy   // 按可靠性降序的提取策略表
	Defaults   models.ScrapeConfig // 默认抓取参数

	// URLs 依序尝试的资料页URL(首个为主路径,后续为回退路径)
	URLs func(username string) []string
}

// ProfileURLs 生成账号的资料页URL列表(按尝试顺序)
func (d *Definition) ProfileURLs(username string) []string {
	return d.URLs(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}

// Lookup 按平台标识查找定义
func Lookup(p models.Platform) (*Definition, error) {
	for _, def := range All() {
		if def.Key == p {
			return def, nil
		}
	}
	return nil, fmt.Errorf("不支持的平台: %s", p)
}

// All 返回全部平台定义(按固定执行顺序)
func All() []*Definition {
	return []*Definition{facebook, instagram, twitter, youtube}
}

// facebook 移动端优先,桌面端回退
// 移动端页面更轻量,且粉丝数直接出现在简介区文本中
var facebook = &Definition{
	Key:         models.PlatformFacebook,
	DisplayName: "Facebook",
	Label:       "followers",
	UserField:   "facebook_user",
	CountField:  "facebook_followers",
	Keywords:    []string{"follow", "people"},
	NotExistMarkers: []string{
		"This page isn't available",
		"This content isn't available",
	},
	ProbeMeta: true,
	PopupSelectors: []string{
		`div[aria-label="Close"]`,
		`[data-cookiebanner="accept_only_essential_button"]`,
	},
	Strategies: []models.Strategy{
		{Kind: models.BySelectorText, Name: "followers_link_span", Selector: `//a[contains(@href, 'followers')]/span`, XPath: true},
		{Kind: models.BySelectorText, Name: "followers_link", Selector: `//a[contains(@href, 'followers')]`, XPath: true},
		{Kind: models.BySelectorText, Name: "followers_div", Selector: `//div[contains(text(), 'followers') or contains(text(), 'Followers')]`, XPath: true},
		{Kind: models.BySelectorText, Name: "people_follow_div", Selector: `//div[contains(text(), 'people follow')]`, XPath: true},
		{Kind: models.BySelectorText, Name: "followers_span", Selector: `//span[contains(text(), 'followers') or contains(text(), 'Followers')]`, XPath: true},
	},
	Defaults: models.ScrapeConfig{
		MaxRetries:        2,
		RetryDelay:        models.DelayRange{Min: 2, Max: 3},
		InterRequestDelay: models.DelayRange{Min: 3, Max: 5},
		NavWait:           models.DelayRange{Min: 2, Max: 3},
		QuickAttempts:     1,
		QuickDelay:        models.DelayRange{Min: 0.5, Max: 0.5},
	},
	URLs: func(username string) []string {
		return []string{
			fmt.Sprintf("https://m.facebook.com/%s", username),
			fmt.Sprintf("https://www.facebook.com/%s", username),
		}
	},
}

// instagram og:description元标签最稳定,其后是逐渐投机的DOM启发式
var instagram = &Definition{
	Key:         models.PlatformInstagram,
	DisplayName: "Instagram",
	Label:       "followers",
	UserField:   "ig_user",
	CountField:  "ig_followers",
	Keywords:    []string{"follow"},
	NotExistMarkers: []string{
		"Sorry, this page isn't available",
	},
	ProbeMeta: true,
	PopupSelectors: []string{
		`div[role="dialog"] [aria-label="Close"]`,
	},
	Strategies: []models.Strategy{
		{Kind: models.ByAttribute, Name: "og_description_meta", Selector: `meta[property="og:description"]`, Attribute: "content"},
		{Kind: models.BySelectorText, Name: "followers_link_count", Selector: `//a[contains(@href, '/followers')]/span/span`, XPath: true, AllowBare: true},
		// Instagram的混淆class名会轮换,这几个前缀是历史观测值
		{Kind: models.BySelectorText, Name: "stats_class_spans", Selector: `span[class*='_ac2a'], span[class*='_aacl'], span[class*='x1lliihq']`, AllowBare: true},
		{Kind: models.BySelectorText, Name: "followers_text_sweep", Selector: `//*[contains(text(),'followers') or contains(text(),'Followers')]`, XPath: true},
	},
	Defaults: models.ScrapeConfig{
		MaxRetries:        2,
		RetryDelay:        models.DelayRange{Min: 1, Max: 2},
		InterRequestDelay: models.DelayRange{Min: 1, Max: 2},
		NavWait:           models.DelayRange{Min: 3, Max: 5},
		QuickAttempts:     1,
		QuickDelay:        models.DelayRange{Min: 0.5, Max: 0.5},
	},
	URLs: func(username string) []string {
		return []string{
			fmt.Sprintf("https://www.instagram.com/%s/", username),
		}
	},
}

// twitterFollowerScan 页面内搜索脚本
// 先处理受保护账号的统计区(数字和"Followers"标签在相邻元素),
// 未命中时回退到常规资料页选择器,每行返回一个候选文本
const twitterFollowerScan = `() => {
	const results = [];
	const isValidFollowerText = (text) => {
		return /^\d[\d,\.]*\s*[KMBkmb]?\s+Followers$/.test(text.trim());
	};

	// 受保护账号: 数字与"Followers"标签分居相邻元素
	for (const elem of document.querySelectorAll('span, div')) {
		const text = elem.textContent.trim();
		if (/^[\d,\.]+\s*[KMBkmb]?$/.test(text)) {
			const next = elem.nextElementSibling;
			if (next && next.textContent.trim() === 'Followers') {
				results.push(text + ' Followers');
			}
		}
	}

	// 常规资料页: followers链接(注意排除following)
	if (results.length === 0) {
		for (const link of document.querySelectorAll('a[href$="/followers"]')) {
			const text = link.textContent.trim();
			if (isValidFollowerText(text)) {
				results.push(text);
			}
		}
	}

	// 最后的回退: 统计区的ltr文本扫描
	if (results.length === 0) {
		for (const span of document.querySelectorAll('span[dir="ltr"]')) {
			const text = span.textContent.trim();
			if (isValidFollowerText(text)) {
				results.push(text);
			}
		}
	}

	return results.join('\n');
}`

// twitter 页面几乎全部由脚本渲染,主策略是页面内脚本搜索
// 资料页会把不存在的账号重定向走,因此开启重定向检测
var twitter = &Definition{
	Key:         models.PlatformTwitter,
	DisplayName: "Twitter",
	Label:       "followers",
	UserField:   "twitter_user",
	CountField:  "twitter_followers",
	Keywords:    []string{"follower"},
	NotExistMarkers: []string{
		"This account doesn't exist",
		"Account suspended",
	},
	CheckRedirect: true,
	Strategies: []models.Strategy{
		{Kind: models.ByScriptedSearch, Name: "followers_page_scan", Script: twitterFollowerScan},
		{Kind: models.BySelectorText, Name: "followers_link", Selector: `a[href$="/followers"]`},
	},
	Defaults: models.ScrapeConfig{
		MaxRetries:        3,
		RetryDelay:        models.DelayRange{Min: 10, Max: 10},
		InterRequestDelay: models.DelayRange{Min: 1, Max: 2},
		NavWait:           models.DelayRange{Min: 1, Max: 2},
		QuickAttempts:     5,
		QuickDelay:        models.DelayRange{Min: 0.5, Max: 0.5},
	},
	URLs: func(username string) []string {
		return []string{
			fmt.Sprintf("https://twitter.com/%s", username),
			fmt.Sprintf("https://x.com/%s", username),
		}
	},
}

// youtube 订阅数在频道头部,选择器从具体到宽泛
var youtube = &Definition{
	Key:         models.PlatformYouTube,
	DisplayName: "YouTube",
	Label:       "subscribers",
	UserField:   "youtube_user",
	CountField:  "youtube_followers",
	Keywords:    []string{"subscriber"},
	NotExistMarkers: []string{
		"This page isn't available",
	},
	PopupSelectors: []string{
		`button[aria-label="Accept all"]`,
	},
	Strategies: []models.Strategy{
		{Kind: models.BySelectorText, Name: "attributed_string_spans", Selector: `span.yt-core-attributed-string[role='text']`},
		{Kind: models.BySelectorText, Name: "owner_renderer", Selector: `yt-formatted-string.ytd-video-owner-renderer`},
		{Kind: models.BySelectorText, Name: "attributed_string_any", Selector: `.yt-core-attributed-string[role='text']`},
		{Kind: models.BySelectorText, Name: "subscriber_count_id", Selector: `#subscriber-count`},
		{Kind: models.BySelectorText, Name: "subscriber_count_formatted", Selector: `yt-formatted-string#subscriber-count`},
	},
	Defaults: models.ScrapeConfig{
		MaxRetries:        2,
		RetryDelay:        models.DelayRange{Min: 1, Max: 2},
		InterRequestDelay: models.DelayRange{Min: 1, Max: 2},
		NavWait:           models.DelayRange{Min: 3, Max: 5},
		QuickAttempts:     1,
		QuickDelay:        models.DelayRange{Min: 0.5, Max: 0.5},
	},
	URLs: func(username string) []string {
		return []string{
			fmt.Sprintf("https://www.youtube.com/@%s", username),
		}
	},
}

package scrapers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Jaxius6/SocialMediaScraper/internal/models"
	"github.com/Jaxius6/SocialMediaScraper/internal/platforms"
	"github.com/Jaxius6/SocialMediaScraper/internal/utils"
)

// popupWaitTimeout 弹窗关闭按钮的有界等待时间
const popupWaitTimeout = 3 * time.Second

// Fetcher 单账号抓取循环
// 状态机: START -> NAVIGATING -> (POPUP_HANDLING)? -> LOCATING -> {FOUND, RETRY, NOT_FOUND}
type Fetcher struct {
	session PageSession // 浏览器会话,纯静态探测模式下为nil
	def     *platforms.Definition
	cfg     models.ScrapeConfig
	probe   *StaticProbe // 可选的静态探测,nil表示禁用

	sleep func(time.Duration)
}

// NewFetcher 创建抓取循环
func NewFetcher(session PageSession, def *platforms.Definition, cfg models.ScrapeConfig) *Fetcher {
	return &Fetcher{
		session: session,
		def:     def,
		cfg:     cfg,
		sleep:   time.Sleep,
	}
}

// WithProbe 启用静态元标签探测(浏览器导航之前的廉价路径)
func (f *Fetcher) WithProbe(probe *StaticProbe) *Fetcher {
	f.probe = probe
	return f
}

// FetchAccount 处理单个账号,返回终态结果
// 账号级错误不会向上传播,全部转换为结果中的失败原因
func (f *Fetcher) FetchAccount(username string, timestamp time.Time) models.ScrapeResult {
	result := models.ScrapeResult{
		Username:  username,
		Timestamp: timestamp,
	}

	// 静态探测: 部分平台的粉丝数直接出现在HTML元标签里,无需付出浏览器导航的成本
	if f.probe != nil && f.def.ProbeMeta {
		if value, text, err := f.probe.Probe(f.def, username); err == nil {
			utils.Infof("✅ 静态探测命中 @%s: %q -> %.0f", username, text, value)
			result.Count = &value
			result.Attempts = 1
			result.Source = "probe"
			return result
		}
		utils.Debugf("静态探测未命中 @%s,回退到浏览器", username)
	}

	if f.session == nil {
		result.Error = "静态探测未命中且无浏览器会话"
		return result
	}

	for attempt := 1; attempt <= f.cfg.MaxRetries; attempt++ {
		result.Attempts = attempt
		utils.Infof("@%s (尝试 %d/%d)", username, attempt, f.cfg.MaxRetries)

		value, err := f.attempt(username)
		if err == nil {
			v := value
			result.Count = &v
			result.Source = "browser"
			result.Error = "" // 晚到的重试成功清除先前的错误
			return result
		}

		result.Error = err.Error()

		// 账号不存在是终态,跳过剩余重试
		if errors.Is(err, models.ErrAccountNotExist) {
			utils.Warnf("@%s 账号不存在,不再重试: %v", username, err)
			return result
		}

		utils.Warnf("@%s 尝试 %d 失败: %v", username, attempt, err)
		if attempt < f.cfg.MaxRetries {
			delay := utils.RandomDelay(f.cfg.RetryDelay)
			utils.Infof("重试中... %.1f秒后重新导航 (%d/%d)", delay.Seconds(), attempt, f.cfg.MaxRetries)
			f.sleep(delay)
		}
	}

	utils.Errorf("❌ @%s 在 %d 次尝试后失败: %s", username, f.cfg.MaxRetries, result.Error)
	return result
}

// attempt 单次抓取尝试: 依次导航各个surface,定位粉丝数
// 页面操作panic统一转换为错误,不得中断批次
func (f *Fetcher) attempt(username string) (value float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("页面操作panic: %v", r)
		}
	}()

	urls := f.def.ProfileURLs(username)
	var lastErr error = models.ErrExtractionNotFound

	for _, profileURL := range urls {
		utils.Debugf("导航: %s", profileURL)
		if navErr := f.session.Navigate(profileURL); navErr != nil {
			lastErr = navErr
			continue // 导航失败,尝试回退surface
		}

		// 等待动态内容加载
		f.sleep(utils.RandomDelay(f.cfg.NavWait))

		// 终态检测: 账号不存在不消耗剩余重试
		if termErr := f.checkTerminal(username); termErr != nil {
			return 0, termErr
		}

		// 可选的弹窗处理,目标缺失是正常结果
		f.dismissPopups()

		// 快速定位循环(单次导航内多次尝试,等待脚本渲染完成)
		quick := f.cfg.QuickAttempts
		if quick < 1 {
			quick = 1
		}
		for q := 0; q < quick; q++ {
			located, text, locErr := LocateCount(f.session, f.def.Strategies, f.def.Keywords)
			if locErr == nil {
				utils.Infof("✅ 找到%s: %q -> %.0f", f.def.Label, text, located)
				return located, nil
			}
			lastErr = locErr
			if q < quick-1 {
				f.sleep(utils.RandomDelay(f.cfg.QuickDelay))
			}
		}
		// 此surface未命中,继续回退surface
	}

	return 0, lastErr
}

// checkTerminal 检测"账号不存在"类终态指示
// 包括重定向离开资料页和页面正文中的不可用标记
func (f *Fetcher) checkTerminal(username string) error {
	if f.def.CheckRedirect {
		current, err := f.session.CurrentURL()
		if err == nil {
			trimmed := strings.ToLower(strings.TrimRight(current, "/"))
			if !strings.HasSuffix(trimmed, strings.ToLower(username)) {
				return fmt.Errorf("%w: 检测到重定向 (%s)", models.ErrAccountNotExist, current)
			}
		}
	}

	if len(f.def.NotExistMarkers) > 0 {
		body, err := f.session.BodyText()
		if err == nil {
			for _, marker := range f.def.NotExistMarkers {
				if strings.Contains(body, marker) {
					return fmt.Errorf("%w: 页面提示 %q", models.ErrAccountNotExist, marker)
				}
			}
		}
	}

	return nil
}

// dismissPopups 尽力关闭登录墙/cookie横幅,全部有界等待
func (f *Fetcher) dismissPopups() {
	for _, selector := range f.def.PopupSelectors {
		if f.session.TryClick(selector, popupWaitTimeout) {
			utils.Debugf("已关闭弹窗: %s", selector)
		}
	}
}

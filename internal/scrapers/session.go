package scrapers

import (
	"fmt"
	"time"

	"github.com/Jaxius6/SocialMediaScraper/internal/models"
	"github.com/Jaxius6/SocialMediaScraper/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/shirou/gopsutil/v3/mem"
)

// browserMemoryFloor 启动浏览器前要求的最低可用内存
const browserMemoryFloor = 500 * 1024 * 1024 // 500MB

// webdriverMask 抹掉navigator.webdriver自动化标记
const webdriverMask = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`

// RodSession 基于Rod的浏览器会话
// 整批运行共享一个会话,严格串行使用,由批量运行器独占持有并保证释放
type RodSession struct {
	browser *rod.Browser
	page    *rod.Page
	lc      *launcher.Launcher

	navTimeout    time.Duration
	lookupTimeout time.Duration

	closed bool
}

// AcquireSession 获取浏览器会话
// 启动失败时依次回退: 默认launcher -> 系统已安装的Chrome,每档重试opts.LaunchRetries次
func AcquireSession(opts models.BrowserOptions) (*RodSession, error) {
	checkMemoryBudget()

	var lastErr error
	for attempt := 1; attempt <= opts.LaunchRetries; attempt++ {
		// 第一次用默认launcher(自动下载浏览器),之后回退到系统Chrome
		useSystemBin := attempt > 1

		session, err := launchOnce(opts, useSystemBin)
		if err == nil {
			utils.Debugf("浏览器会话已建立 (尝试 %d/%d)", attempt, opts.LaunchRetries)
			return session, nil
		}

		lastErr = err
		utils.Warnf("浏览器启动失败,准备重试 (%d/%d): %v", attempt, opts.LaunchRetries, err)
		time.Sleep(2 * time.Second)
	}

	return nil, fmt.Errorf("%w: %v", models.ErrSessionAcquisition, lastErr)
}

// checkMemoryBudget 启动前检查可用内存,不足时仅告警不阻断
func checkMemoryBudget() {
	vm, err := mem.VirtualMemory()
	if err != nil {
		utils.Debugf("读取系统内存信息失败: %v", err)
		return
	}
	if vm.Available < browserMemoryFloor {
		utils.Warnf("可用内存不足 %dMB,浏览器可能不稳定 (当前可用: %dMB)",
			browserMemoryFloor/(1024*1024), vm.Available/(1024*1024))
	}
}

// launchOnce 单次启动尝试
func launchOnce(opts models.BrowserOptions, useSystemBin bool) (session *RodSession, err error) {
	// Rod内部会panic,统一转换为会话获取错误
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("浏览器启动panic: %v", r)
		}
	}()

	l := launcher.New().
		Headless(opts.Headless).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("disable-software-rasterizer").
		Set("disable-webgl").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", fmt.Sprintf("%d,%d", opts.WindowWidth, opts.WindowHeight))

	if opts.UserAgent != "" {
		l = l.Set("user-agent", opts.UserAgent)
	}

	if useSystemBin {
		path, exists := launcher.LookPath()
		if !exists {
			return nil, fmt.Errorf("未找到系统安装的Chrome/Chromium")
		}
		l = l.Bin(path)
		utils.Debugf("回退到系统浏览器: %s", path)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("创建标签页失败: %w", err)
	}

	// 在每个文档加载前注入反检测脚本
	if _, err := page.EvalOnNewDocument(webdriverMask); err != nil {
		utils.Warnf("注入反检测脚本失败: %v", err)
	}

	navTimeout := time.Duration(opts.NavTimeout) * time.Second
	lookupTimeout := time.Duration(opts.LookupTimeout) * time.Second
	if lookupTimeout <= 0 {
		lookupTimeout = 5 * time.Second
	}

	return &RodSession{
		browser:       browser,
		page:          page,
		lc:            l,
		navTimeout:    navTimeout,
		lookupTimeout: lookupTimeout,
	}, nil
}

// Navigate 导航到URL并等待load事件
func (s *RodSession) Navigate(url string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: 导航panic: %v", models.ErrNavigation, r)
		}
	}()

	page := s.page.Timeout(s.navTimeout)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("%w: %v", models.ErrNavigation, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("%w: 等待页面加载失败: %v", models.ErrNavigation, err)
	}
	return nil
}

// CurrentURL 返回当前页面URL
func (s *RodSession) CurrentURL() (string, error) {
	info, err := s.page.Info()
	if err != nil {
		return "", fmt.Errorf("获取页面信息失败: %w", err)
	}
	return info.URL, nil
}

// Texts 收集选择器命中元素的文本
func (s *RodSession) Texts(selector string, xpath bool) (texts []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("元素查找panic: %v", r)
		}
	}()

	page := s.page.Timeout(s.lookupTimeout)

	var elements rod.Elements
	if xpath {
		elements, err = page.ElementsX(selector)
	} else {
		elements, err = page.Elements(selector)
	}
	if err != nil {
		return nil, err
	}

	texts = make([]string, 0, len(elements))
	for _, el := range elements {
		text, terr := el.Text()
		if terr != nil {
			continue // 过期引用等,跳过该元素
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// Attribute 读取首个命中元素的属性值
func (s *RodSession) Attribute(selector string, attribute string, xpath bool) (value string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("属性读取panic: %v", r)
		}
	}()

	page := s.page.Timeout(s.lookupTimeout)

	var el *rod.Element
	if xpath {
		el, err = page.ElementX(selector)
	} else {
		el, err = page.Element(selector)
	}
	if err != nil {
		return "", err
	}

	attr, err := el.Attribute(attribute)
	if err != nil {
		return "", err
	}
	if attr == nil {
		return "", fmt.Errorf("元素缺少属性: %s", attribute)
	}
	return *attr, nil
}

// Eval 在页面内执行JS函数并返回字符串结果
func (s *RodSession) Eval(script string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("脚本执行panic: %v", r)
		}
	}()

	obj, err := s.page.Timeout(s.lookupTimeout).Eval(script)
	if err != nil {
		return "", fmt.Errorf("脚本执行失败: %w", err)
	}
	return obj.Value.Str(), nil
}

// BodyText 返回页面正文文本
func (s *RodSession) BodyText() (string, error) {
	return s.Eval(`() => document.body ? document.body.innerText : ""`)
}

// TryClick 尝试在超时内点击元素
// 弹窗/登录墙不一定出现,目标缺失是正常结果
func (s *RodSession) TryClick(selector string, timeout time.Duration) (clicked bool) {
	defer func() {
		if r := recover(); r != nil {
			clicked = false
		}
	}()

	el, err := s.page.Timeout(timeout).Element(selector)
	if err != nil {
		return false
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false
	}
	return true
}

// Close 释放浏览器会话
func (s *RodSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			firstErr = err
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.lc != nil {
		s.lc.Cleanup()
	}

	utils.Debugf("浏览器会话已关闭")
	return firstErr
}

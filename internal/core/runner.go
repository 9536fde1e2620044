package core

import (
	"fmt"
	"time"

	"github.com/Jaxius6/SocialMediaScraper/internal/models"
	"github.com/Jaxius6/SocialMediaScraper/internal/platforms"
	"github.com/Jaxius6/SocialMediaScraper/internal/scrapers"
	"github.com/Jaxius6/SocialMediaScraper/internal/utils"
)

// 运行模式
const (
	ModeAll     = "all"     // 静态探测优先,未命中回退浏览器
	ModeStatic  = "static"  // 仅静态探测,不启动浏览器
	ModeDynamic = "dynamic" // 仅浏览器
)

// probeTimeout 静态探测的HTTP请求超时
const probeTimeout = 15 * time.Second

// SessionFactory 浏览器会话工厂,测试时注入mock
type SessionFactory func(opts models.BrowserOptions) (scrapers.PageSession, error)

// DefaultSessionFactory 生产环境的会话工厂
func DefaultSessionFactory(opts models.BrowserOptions) (scrapers.PageSession, error) {
	return scrapers.AcquireSession(opts)
}

// Runner 单平台批量运行器
// 整批共享一个浏览器会话,账号严格串行处理,
// 单账号的任何失败(包括panic)都被隔离为该账号的结果,不中断批次
type Runner struct {
	def     *platforms.Definition
	cfg     models.ScrapeConfig
	browser models.BrowserOptions
	mode    string

	outputDir string
	factory   SessionFactory
	sleep     func(time.Duration)
}

// NewRunner 创建批量运行器
func NewRunner(def *platforms.Definition, cfg models.ScrapeConfig, browser models.BrowserOptions, mode string, outputDir string) *Runner {
	return &Runner{
		def:       def,
		cfg:       cfg,
		browser:   browser,
		mode:      mode,
		outputDir: outputDir,
		factory:   DefaultSessionFactory,
		sleep:     time.Sleep,
	}
}

// WithSessionFactory 替换会话工厂(测试注入)
func (r *Runner) WithSessionFactory(factory SessionFactory) *Runner {
	r.factory = factory
	return r
}

// Run 执行一次完整的批量抓取
// 空账号列表是合法输入,产出一次成功的空运行;
// 会话获取失败是运行级错误,向上传播
func (r *Runner) Run(accounts []models.Account) (*models.RunBatch, error) {
	batch := models.NewRunBatch(r.def.Key)
	startTime := time.Now()

	if len(accounts) == 0 {
		utils.Warnf("%s 没有待处理的账号,跳过", r.def.DisplayName)
		batch.Finalize(time.Since(startTime))
		return batch, nil
	}

	utils.Infof("🚀 开始%s批量抓取,共 %d 个账号 (模式: %s)", r.def.DisplayName, len(accounts), r.mode)

	// 纯静态模式不付出浏览器启动的成本
	var session scrapers.PageSession
	if r.mode != ModeStatic {
		var err error
		session, err = r.factory(r.browser)
		if err != nil {
			return nil, fmt.Errorf("获取浏览器会话失败: %w", err)
		}
		// 所有退出路径(包括panic逃逸)都保证释放会话
		defer func() {
			if cerr := session.Close(); cerr != nil {
				utils.Warnf("关闭浏览器会话失败: %v", cerr)
			}
		}()
	}

	fetcher := scrapers.NewFetcher(session, r.def, r.cfg)
	if r.mode != ModeDynamic && r.def.ProbeMeta {
		fetcher.WithProbe(scrapers.NewStaticProbe(r.browser.UserAgent, probeTimeout))
	}

	bar := utils.NewProgressBar(len(accounts), fmt.Sprintf("%s抓取", r.def.DisplayName))

	for i, account := range accounts {
		result := r.processAccount(fetcher, account, batch.Timestamp)
		batch.Results = append(batch.Results, result)
		_ = bar.Add(1)

		// 账号之间随机间隔,最后一个账号之后不再等待
		if i < len(accounts)-1 {
			r.sleep(utils.RandomDelay(r.cfg.InterRequestDelay))
		}
	}

	batch.Finalize(time.Since(startTime))
	r.printSummary(batch)

	reporter := utils.NewReporter(r.outputDir, r.def.Key)
	if err := reporter.SaveRunReport(batch); err != nil {
		utils.Warnf("保存运行报告失败: %v", err)
	}

	return batch, nil
}

// processAccount 处理单个账号,panic被隔离为该账号的失败结果
func (r *Runner) processAccount(fetcher *scrapers.Fetcher, account models.Account, timestamp time.Time) (result models.ScrapeResult) {
	defer func() {
		if rec := recover(); rec != nil {
			utils.Errorf("❌ @%s 处理时发生panic: %v", account.Username, rec)
			result = models.ScrapeResult{
				Username:  account.Username,
				Timestamp: timestamp,
				Error:     fmt.Sprintf("账号处理panic: %v", rec),
			}
		}
	}()

	return fetcher.FetchAccount(account.Username, timestamp)
}

// printSummary 打印运行摘要
func (r *Runner) printSummary(batch *models.RunBatch) {
	utils.Info("============================================================")
	utils.Infof("📊 %s 运行摘要", r.def.DisplayName)
	utils.Info("============================================================")
	utils.Infof("  总计: %d", batch.Stats.Total)
	utils.Infof("  成功: %d", batch.Stats.Success)
	utils.Infof("  失败: %d", batch.Stats.Failed)
	utils.Infof("  耗时: %.1f秒", batch.Stats.Duration)

	failures := batch.Failures()
	if len(failures) > 0 {
		utils.Info("  失败账号:")
		for _, f := range failures {
			utils.Infof("    ❌ @%s: %s", f.Username, f.Error)
		}
	}
	utils.Info("============================================================")
}

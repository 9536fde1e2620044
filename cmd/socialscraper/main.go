package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Jaxius6/SocialMediaScraper/internal/airtable"
	"github.com/Jaxius6/SocialMediaScraper/internal/core"
	"github.com/Jaxius6/SocialMediaScraper/internal/models"
	"github.com/Jaxius6/SocialMediaScraper/internal/platforms"
	"github.com/Jaxius6/SocialMediaScraper/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// 抓取参数
	platformFlag string
	mode         string
	headless     bool
	usernameFile string
	dryRun       bool
	outputDir    string
	limit        int
)

var rootCmd = &cobra.Command{
	Use:   "socialscraper",
	Short: "社交媒体粉丝数批量抓取工具",
	Long: `SocialMediaScraper - 社交媒体公开粉丝数批量抓取工具 (Go版本)

定期抓取Facebook/Instagram/Twitter/YouTube账号的公开粉丝/订阅数,
解析"1.2M followers"等自由文本并写回Airtable,支持:
  • 四大平台,单平台或全平台依次运行
  • 静态元标签探测 + 浏览器回退的双模式抓取
  • 账号级失败隔离,单账号失败不中断批次
  • 随机化请求间隔和有界重试
  • JSON运行报告

凭据通过环境变量提供 (.env文件或进程环境):
  AIRTABLE_PAT, AIRTABLE_BASE_ID, AIRTABLE_TABLE_NAME

示例:
  # 全平台运行
  socialscraper

  # 只抓Twitter,带限额试运行
  socialscraper -p twitter --limit 5 --dry-run

  # 从文件读取用户名(跳过Airtable)
  socialscraper -p youtube -f usernames.txt

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		logConfig := config.LogConfig()

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if verbose {
			logConfig.Level = "debug"
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 设置信号处理(Ctrl+C优雅退出)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		go func() {
			sig := <-sigChan
			utils.Warnf("\n收到中断信号: %v, 正在优雅关闭...", sig)
			os.Exit(0)
		}()

		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 验证参数
		if err := ValidateFlags(platformFlag, mode, limit, usernameFile); err != nil {
			return err
		}

		// 命令行参数覆盖配置文件
		appConfig.Browser.Headless = headless

		// 解析目标平台列表
		defs, err := resolvePlatforms(platformFlag)
		if err != nil {
			return err
		}

		// 文件模式跳过Airtable;否则客户端在任何抓取开始前创建,
		// 凭据缺失在这里就失败,不浪费浏览器启动
		var client *airtable.Client
		if usernameFile == "" {
			client, err = airtable.NewClient(appConfig.AirtableClientConfig())
			if err != nil {
				return fmt.Errorf("创建Airtable客户端失败: %w", err)
			}
		}

		// 逐平台运行,单平台的运行级失败记录后继续后续平台
		type platformOutcome struct {
			def   *platforms.Definition
			stats models.RunStats
			err   error
		}
		outcomes := make([]platformOutcome, 0, len(defs))

		for _, def := range defs {
			stats, runErr := runPlatform(client, appConfig, def)
			outcomes = append(outcomes, platformOutcome{def: def, stats: stats, err: runErr})
			if runErr != nil {
				utils.Errorf("❌ %s 运行失败: %v", def.DisplayName, runErr)
			}
		}

		// 全平台摘要
		fmt.Println("\n==================================================")
		fmt.Println("📊 运行总览")
		fmt.Println("==================================================")
		var hadFailure bool
		for _, o := range outcomes {
			if o.err != nil {
				fmt.Printf("✗ %-10s 运行失败: %v\n", o.def.DisplayName, o.err)
				hadFailure = true
				continue
			}
			fmt.Printf("✓ %-10s 成功 %d/%d, 写回 %d\n",
				o.def.DisplayName, o.stats.Success, o.stats.Total, o.stats.Updated)
		}
		fmt.Println("==================================================")

		if hadFailure {
			return fmt.Errorf("部分平台运行失败")
		}

		utils.Info("✨ 抓取任务完成!")
		return nil
	},
}

// resolvePlatforms 解析--platform参数为平台定义列表
func resolvePlatforms(flag string) ([]*platforms.Definition, error) {
	if flag == "all" {
		return platforms.All(), nil
	}

	p, err := models.ParsePlatform(flag)
	if err != nil {
		return nil, err
	}
	def, err := platforms.Lookup(p)
	if err != nil {
		return nil, err
	}
	return []*platforms.Definition{def}, nil
}

// runPlatform 执行单个平台的完整流程: 取账号 -> 批量抓取 -> 写回
func runPlatform(client *airtable.Client, cfg *core.Config, def *platforms.Definition) (models.RunStats, error) {
	accounts, err := loadAccounts(client, def)
	if err != nil {
		return models.RunStats{}, fmt.Errorf("获取账号列表失败: %w", err)
	}

	if limit > 0 && len(accounts) > limit {
		utils.Infof("应用账号限额: %d/%d", limit, len(accounts))
		accounts = accounts[:limit]
	}

	runner := core.NewRunner(def, cfg.ScrapeConfigFor(def), cfg.Browser, mode, outputDir)
	batch, err := runner.Run(accounts)
	if err != nil {
		return models.RunStats{}, err
	}

	// 成功结果写回Airtable(文件模式和dry-run跳过)
	if client != nil && !dryRun {
		updates := collectUpdates(accounts, batch)
		if len(updates) > 0 {
			updated, uerr := client.UpdateCounts(def, updates)
			batch.Stats.Updated = updated
			if uerr != nil {
				utils.Warnf("部分写回失败 (%d/%d 成功): %v", updated, len(updates), uerr)
			}
			if updated != batch.Stats.Success {
				utils.Warnf("写回数(%d)与成功数(%d)不一致", updated, batch.Stats.Success)
			}
		}
	} else if dryRun {
		utils.Infof("dry-run模式,跳过 %d 条写回", batch.Stats.Success)
	}

	return batch.Stats, nil
}

// loadAccounts 从Airtable或本地文件加载抓取目标
func loadAccounts(client *airtable.Client, def *platforms.Definition) ([]models.Account, error) {
	if usernameFile != "" {
		usernames, err := utils.ReadUsernamesFromFile(usernameFile)
		if err != nil {
			return nil, err
		}
		accounts := make([]models.Account, 0, len(usernames))
		for _, u := range usernames {
			// 文件来源没有记录ID,结果只进报告不写回
			accounts = append(accounts, models.Account{Username: u, Platform: def.Key})
		}
		return accounts, nil
	}

	return client.FetchAccounts(def)
}

// collectUpdates 把成功结果映射回Airtable记录
func collectUpdates(accounts []models.Account, batch *models.RunBatch) []airtable.CountUpdate {
	recordIDs := make(map[string]string, len(accounts))
	for _, a := range accounts {
		recordIDs[a.Username] = a.RecordID
	}

	updates := make([]airtable.CountUpdate, 0, len(batch.Results))
	for _, r := range batch.Successes() {
		id := recordIDs[r.Username]
		if id == "" {
			continue
		}
		updates = append(updates, airtable.CountUpdate{RecordID: id, Count: *r.Count})
	}
	return updates
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("SocialMediaScraper %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - 社交媒体粉丝数抓取工具")
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// 抓取参数
	rootCmd.Flags().StringVarP(&platformFlag, "platform", "p", "all", "目标平台 (all|facebook|instagram|twitter|youtube)")
	rootCmd.Flags().StringVarP(&mode, "mode", "m", core.ModeAll, "抓取模式 (all|static|dynamic)")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.Flags().StringVarP(&usernameFile, "file", "f", "", "用户名列表文件(跳过Airtable,仅生成报告)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "只抓取不写回Airtable")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "output", "输出目录")
	rootCmd.Flags().IntVar(&limit, "limit", 0, "每个平台最多处理的账号数 (0=不限)")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

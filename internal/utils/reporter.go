package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Jaxius6/SocialMediaScraper/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 运行报告生成器
// 报告目录结构: output/{platform}/reports/
type Reporter struct {
	outputDir string
	platform  string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string, platform models.Platform) *Reporter {
	return &Reporter{
		outputDir: outputDir,
		platform:  string(platform),
	}
}

// SaveRunReport 保存运行报告
// 写入三个文件: 主报告(完整批次)、成功列表、失败列表
func (r *Reporter) SaveRunReport(batch *models.RunBatch) error {
	reportsDir := filepath.Join(r.outputDir, r.platform, "reports")
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	// 保存主报告
	if err := r.saveJSONReport(reportsDir, "run_report.json", batch); err != nil {
		return err
	}

	// 保存成功结果列表
	if err := r.saveJSONReport(reportsDir, "success_results.json", batch.Successes()); err != nil {
		return err
	}

	// 保存失败结果列表
	if err := r.saveJSONReport(reportsDir, "failed_results.json", batch.Failures()); err != nil {
		return err
	}

	Infof("✅ 报告已生成: %s", reportsDir)
	return nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(dir string, filename string, data interface{}) error {
	path := filepath.Join(dir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

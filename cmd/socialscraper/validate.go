package main

import (
	"fmt"

	"github.com/Jaxius6/SocialMediaScraper/internal/models"
)

// ValidateFlags 验证命令行标志
func ValidateFlags(platform string, mode string, limit int, usernameFile string) error {
	// 验证平台
	if platform != "all" {
		if _, err := models.ParsePlatform(platform); err != nil {
			return err
		}
	}

	// 验证模式
	validModes := map[string]bool{
		"all":     true,
		"static":  true,
		"dynamic": true,
	}
	if !validModes[mode] {
		return fmt.Errorf("无效的抓取模式: %s (有效值: all, static, dynamic)", mode)
	}

	// 验证限额
	if limit < 0 {
		return fmt.Errorf("账号限额不能为负数,当前值: %d", limit)
	}

	// 文件模式必须指定单一平台(文件里只有用户名,无法区分平台)
	if usernameFile != "" && platform == "all" {
		return fmt.Errorf("使用 --file 时必须通过 --platform 指定单一平台")
	}

	return nil
}

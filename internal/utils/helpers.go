package utils

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/Jaxius6/SocialMediaScraper/internal/models"
)

// usernamePattern 平台用户名的宽松校验(字母数字、点、下划线、连字符)
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// RandomDelay 在区间内取均匀随机延迟
// 随机化间隔专门用于避免固定频率的请求指纹
func RandomDelay(r models.DelayRange) time.Duration {
	if r.Max <= r.Min {
		return r.MinDuration()
	}
	span := r.Max - r.Min
	return time.Duration((r.Min + rand.Float64()*span) * float64(time.Second))
}

// ValidateUsername 验证用户名格式
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("用户名不能为空")
	}
	if len(username) > 100 {
		return fmt.Errorf("用户名过长: %d 字符", len(username))
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("用户名包含非法字符: %s", username)
	}
	return nil
}

// ReadUsernamesFromFile 从文件中读取用户名列表
// 每行一个用户名,跳过空行和#注释行,允许带@前缀
func ReadUsernamesFromFile(filepath string) ([]string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("打开用户名文件失败: %w", err)
	}
	defer file.Close()

	usernames := make([]string, 0)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// 跳过空行和注释行
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		line = strings.TrimPrefix(line, "@")
		if err := ValidateUsername(line); err != nil {
			Warnf("跳过无效用户名 (行 %d): %s - %v", lineNum, line, err)
			continue
		}

		usernames = append(usernames, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取用户名文件失败: %w", err)
	}

	Infof("从文件加载了 %d 个用户名", len(usernames))
	return usernames, nil
}

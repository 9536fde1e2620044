package scrapers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Jaxius6/SocialMediaScraper/internal/models"
)

// countPattern 匹配数值token: 数字、可选千分位逗号、至多一个小数点、
// 可选的K/M/B量级后缀(大小写不敏感)
// 不要求整串匹配,粉丝数通常混在"1.2M followers"这类自由文本里
var countPattern = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*([KMB])?\b`)

// ParseFollowerCount 从自由文本中解析粉丝/订阅数
// "2,771 followers" -> 2771, "1.2M followers" -> 1200000, "100K" -> 100000
// 解析失败返回ErrParseFailure,由调用方决定重试或视为永久不可解析
func ParseFollowerCount(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("%w: 输入为空", models.ErrParseFailure)
	}

	m := countPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", models.ErrParseFailure, text)
	}

	// 去掉千分位分隔符后按浮点数解析
	numberStr := strings.ReplaceAll(m[1], ",", "")
	value, err := strconv.ParseFloat(numberStr, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", models.ErrParseFailure, text)
	}

	// 量级后缀在基数解析之后应用
	switch strings.ToUpper(m[2]) {
	case "K":
		value *= 1e3
	case "M":
		value *= 1e6
	case "B":
		value *= 1e9
	}

	return value, nil
}

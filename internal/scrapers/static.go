package scrapers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Jaxius6/SocialMediaScraper/internal/models"
	"github.com/Jaxius6/SocialMediaScraper/internal/platforms"
	"github.com/Jaxius6/SocialMediaScraper/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"golang.org/x/net/html"
)

// StaticProbe 静态元标签探测器
// Instagram/Facebook的资料页HTML里,粉丝数通常直接出现在og:description元标签中,
// 先用一次普通HTTP请求探测,命中则省掉整个浏览器导航
type StaticProbe struct {
	userAgent string
	timeout   time.Duration
}

// NewStaticProbe 创建静态探测器
func NewStaticProbe(userAgent string, timeout time.Duration) *StaticProbe {
	return &StaticProbe{
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// Probe 依次探测账号的各个资料页surface
// 返回首个可解析的og:description结果,全部未命中返回ErrExtractionNotFound
func (p *StaticProbe) Probe(def *platforms.Definition, username string) (float64, string, error) {
	if !def.ProbeMeta {
		return 0, "", fmt.Errorf("平台 %s 未启用静态探测", def.Key)
	}

	for _, profileURL := range def.ProfileURLs(username) {
		meta, err := p.fetchMetaDescription(profileURL)
		if err != nil {
			utils.Debugf("静态探测请求失败 [%s]: %v", profileURL, err)
			continue
		}
		if meta == "" {
			continue
		}

		if !isPlausible(meta, def.Keywords, false) {
			utils.Debugf("静态探测候选被过滤 [%s]: %q", profileURL, meta)
			continue
		}

		value, perr := ParseFollowerCount(meta)
		if perr != nil {
			continue
		}
		return value, meta, nil
	}

	return 0, "", models.ErrExtractionNotFound
}

// fetchMetaDescription 抓取单个URL并提取og:description内容
// 每次探测使用新collector,避免重试时被已访问检查拦截
func (p *StaticProbe) fetchMetaDescription(profileURL string) (string, error) {
	collector := colly.NewCollector(
		colly.UserAgent(p.userAgent),
		colly.IgnoreRobotsTxt(),
	)
	collector.SetRequestTimeout(p.timeout)

	collector.OnRequest(func(r *colly.Request) {
		// 显式声明编码,响应体由我们自己解压
		r.Headers.Set("Accept-Encoding", "gzip, deflate, br")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	var meta string
	var fetchErr error
	collector.OnResponse(func(r *colly.Response) {
		body := r.Body
		if encoding := r.Headers.Get("Content-Encoding"); encoding != "" {
			decompressed, err := decompressResponse(encoding, r.Body)
			if err != nil {
				fetchErr = fmt.Errorf("解压响应失败 (编码=%s): %w", encoding, err)
				return
			}
			body = decompressed
		}
		meta = extractMetaDescription(body)
	})

	if err := collector.Visit(profileURL); err != nil {
		return "", err
	}
	collector.Wait()

	if fetchErr != nil {
		return "", fetchErr
	}
	return meta, nil
}

// decompressResponse 按Content-Encoding解压响应体
func decompressResponse(encoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		return io.ReadAll(reader)
	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()
		return io.ReadAll(reader)
	case "br":
		return io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
	case "identity", "":
		return body, nil
	}
	return nil, fmt.Errorf("不支持的编码: %s", encoding)
}

// extractMetaDescription 从HTML中提取og:description元标签内容
func extractMetaDescription(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var content string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if content != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			var property, metaContent string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "property", "name":
					property = attr.Val
				case "content":
					metaContent = attr.Val
				}
			}
			if property == "og:description" {
				content = metaContent
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return content
}

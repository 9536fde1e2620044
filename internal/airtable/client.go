package airtable

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/Jaxius6/SocialMediaScraper/internal/models"
	"github.com/Jaxius6/SocialMediaScraper/internal/platforms"
	"github.com/Jaxius6/SocialMediaScraper/internal/utils"
	"github.com/go-resty/resty/v2"
)

// batchSize Airtable单次PATCH的记录上限(API限制)
const batchSize = 10

// Config Airtable客户端配置
type Config struct {
	BaseURL   string // API根地址 (默认: https://api.airtable.com/v0)
	PAT       string // Personal Access Token (必需)
	BaseID    string // Base ID (必需)
	TableName string // 表名 (必需)
	Retries   int    // 请求重试次数
	RetryWait int    // 重试基础等待(秒),指数退避
}

// Validate 验证必需配置
func (c *Config) Validate() error {
	missing := make([]string, 0)
	if c.PAT == "" {
		missing = append(missing, "AIRTABLE_PAT")
	}
	if c.BaseID == "" {
		missing = append(missing, "AIRTABLE_BASE_ID")
	}
	if c.TableName == "" {
		missing = append(missing, "AIRTABLE_TABLE_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", models.ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

// Client Airtable REST客户端
// 写回的退避重试独立于抓取侧的重试策略
type Client struct {
	http      *resty.Client
	baseID    string
	tableName string
}

// record Airtable记录
type record struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

// recordsPage 列表响应(带分页游标)
type recordsPage struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// updatePayload 批量更新请求体
type updatePayload struct {
	Records []record `json:"records"`
}

// CountUpdate 单条写回
type CountUpdate struct {
	RecordID string  // Airtable记录ID
	Count    float64 // 抓取到的数值,写回时取整
}

// NewClient 创建客户端
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.airtable.com/v0"
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = 3
	}
	retryWait := cfg.RetryWait
	if retryWait <= 0 {
		retryWait = 1
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(cfg.PAT).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second).
		SetRetryCount(retries).
		SetRetryWaitTime(time.Duration(retryWait) * time.Second).
		SetRetryMaxWaitTime(time.Duration(retryWait) * 8 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			// 网络错误、限流和服务端错误触发退避重试
			if err != nil {
				return true
			}
			return resp.StatusCode() == 429 || resp.StatusCode() >= 500
		})

	return &Client{
		http:      httpClient,
		baseID:    cfg.BaseID,
		tableName: cfg.TableName,
	}, nil
}

// tablePath 表的API路径
func (c *Client) tablePath() string {
	return fmt.Sprintf("/%s/%s", c.baseID, url.PathEscape(c.tableName))
}

// FetchAccounts 拉取某平台的抓取目标
// 只读取该平台的用户名字段,跳过字段为空的记录,自动跟随分页游标
func (c *Client) FetchAccounts(def *platforms.Definition) ([]models.Account, error) {
	accounts := make([]models.Account, 0)
	offset := ""

	for {
		var page recordsPage
		req := c.http.R().
			SetResult(&page).
			SetQueryParam("fields[]", def.UserField)
		if offset != "" {
			req.SetQueryParam("offset", offset)
		}

		resp, err := req.Get(c.tablePath())
		if err != nil {
			return nil, fmt.Errorf("获取Airtable记录失败: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("获取Airtable记录失败: HTTP %d: %s", resp.StatusCode(), resp.String())
		}

		for _, rec := range page.Records {
			username, _ := rec.Fields[def.UserField].(string)
			username = strings.TrimSpace(username)
			if username == "" {
				continue
			}
			accounts = append(accounts, models.Account{
				RecordID: rec.ID,
				Username: username,
				Platform: def.Key,
			})
		}

		if page.Offset == "" {
			break
		}
		offset = page.Offset
	}

	utils.Infof("从Airtable获取到 %d 个%s账号", len(accounts), def.DisplayName)
	return accounts, nil
}

// UpdateCounts 批量写回粉丝数
// 每批10条(API限制);单批失败只记录日志,不回滚此前已成功的批次(部分成功语义)
// 返回实际更新的记录数;所有批次完成后若存在失败批次,返回ErrPersistence
func (c *Client) UpdateCounts(def *platforms.Definition, updates []CountUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	updated := 0
	var lastErr error

	for start := 0; start < len(updates); start += batchSize {
		end := start + batchSize
		if end > len(updates) {
			end = len(updates)
		}
		batch := updates[start:end]

		payload := updatePayload{Records: make([]record, 0, len(batch))}
		for _, u := range batch {
			payload.Records = append(payload.Records, record{
				ID: u.RecordID,
				Fields: map[string]interface{}{
					// 数值在持久化点取整
					def.CountField: int64(math.Round(u.Count)),
				},
			})
		}

		resp, err := c.http.R().
			SetBody(payload).
			Patch(c.tablePath())
		if err != nil {
			lastErr = err
			utils.Errorf("❌ 批量更新失败 (%d-%d): %v", start+1, end, err)
			continue
		}
		if resp.IsError() {
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.String())
			utils.Errorf("❌ 批量更新失败 (%d-%d): %v", start+1, end, lastErr)
			continue
		}

		updated += len(batch)
		utils.Infof("✅ 成功更新 %d 条记录", len(batch))
	}

	if lastErr != nil {
		return updated, fmt.Errorf("%w: %v", models.ErrPersistence, lastErr)
	}
	return updated, nil
}

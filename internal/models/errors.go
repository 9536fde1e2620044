package models

import "errors"

// 错误分类
// 传播策略: 账号级错误不会逃出抓取循环,只有会话获取和配置错误会终止整次运行
var (
	ErrMissingConfig      = errors.New("缺少必需的配置")    // 致命: 抓取开始前中止
	ErrSessionAcquisition = errors.New("浏览器会话获取失败")  // 致命: 整批失败,无账号级降级
	ErrNavigation         = errors.New("页面导航失败")     // 可恢复: 触发重试
	ErrExtractionNotFound = errors.New("所有提取策略均未命中") // 可恢复: 触发重试
	ErrParseFailure       = errors.New("文本无法解析为数值")  // 与ExtractionNotFound同等对待
	ErrAccountNotExist    = errors.New("账号不存在")      // 终态: 跳过剩余重试
	ErrPersistence        = errors.New("数据写回失败")     // 可恢复: 独立的退避重试,不丢弃已采集结果
)

package models

// StrategyKind 提取策略类型
type StrategyKind string

const (
	ByAttribute      StrategyKind = "attribute"       // 读取单个元素的属性值(如meta标签content)
	BySelectorText   StrategyKind = "selector_text"   // 收集选择器命中元素的文本
	ByScriptedSearch StrategyKind = "scripted_search" // 在页面内执行脚本搜索(每行一个候选)
)

// Strategy 声明式提取策略
// 每个平台维护一张按可靠性降序排列的策略表,由通用定位器依次求值,
// 新增平台只需要增加数据,不需要增加控制流
type Strategy struct {
	Kind      StrategyKind `json:"kind"`                 // 策略类型
	Name      string       `json:"name"`                 // 策略名(用于日志)
	Selector  string       `json:"selector,omitempty"`   // CSS选择器或XPath表达式
	XPath     bool         `json:"xpath,omitempty"`      // Selector是否为XPath
	Attribute string       `json:"attribute,omitempty"`  // ByAttribute时读取的属性名
	Script    string       `json:"script,omitempty"`     // ByScriptedSearch时执行的JS函数
	AllowBare bool         `json:"allow_bare,omitempty"` // 允许纯数字候选(跳过关键词过滤)
}

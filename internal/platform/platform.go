package platform

import "brandpatrol/internal/workflow"

// Known platform identifiers.
const (
	Xiaohongshu = "xiaohongshu"
	Xianyu      = "xianyu"
	Taobao      = "taobao"
)

func init() {
	Register(Xiaohongshu, workflow.XiaohongshuDefinition())
	Register(Xianyu, workflow.XianyuDefinition())
	Register(Taobao, workflow.TaobaoDefinition())
}

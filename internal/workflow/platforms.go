package workflow

import (
	"time"

	"brandpatrol/internal/device"
	"brandpatrol/internal/locator"
)

// Placeholders substituted by the patrol session before a step runs.
const (
	PlaceholderKeyword      = "{keyword}"
	PlaceholderReportReason = "{report_reason}"
)

// belowStatusBar is the default region of interest for positional element
// fallback: everything except the device's top status strip, which is full
// of clickable system widgets that must never be tapped.
var belowStatusBar = &device.Rect{Left: 0, Top: 80, Right: 1 << 14, Bottom: 1 << 14}

func containsAny(texts ...string) func(*device.Snapshot) bool {
	return func(snap *device.Snapshot) bool {
		for _, t := range texts {
			if snap.ContainsText(t) {
				return true
			}
		}
		return false
	}
}

// XiaohongshuDefinition is the reporting workflow for the Xiaohongshu app:
// open the listing's overflow menu, find the report entry (scrolling the
// sheet if needed), pick the IP-infringement type and reason, fill the
// description, optionally attach the evidence screenshot, submit.
func XiaohongshuDefinition() Definition {
	return Definition{
		Platform:  "xiaohongshu",
		AppTarget: "com.xingin.xhs",
		SearchSteps: []Step{
			{
				Name:    "open_search",
				Targets: []locator.Descriptor{{Text: "搜索"}, {Role: locator.RoleClickable}},
				Action:  ActionTap,
				ROI:     belowStatusBar,
			},
			{
				Name:    "enter_keyword",
				Targets: []locator.Descriptor{{Role: locator.RoleEditable}},
				Action:  ActionInject,
				Text:    PlaceholderKeyword,
			},
			{
				Name:    "switch_to_goods_tab",
				Targets: []locator.Descriptor{{Text: "商品"}, {Text: "goods"}},
				Action:  ActionTap,
			},
		},
		Stages: []Stage{
			{
				To: StateMenuOpened,
				Steps: []Step{{
					Name:     "open_overflow_menu",
					Targets:  []locator.Descriptor{{Text: "..."}, {Text: "更多"}},
					Fallback: []locator.Descriptor{{Role: locator.RoleClickable}},
					Action:   ActionTap,
					ROI:      &device.Rect{Left: 0, Top: 80, Right: 1 << 14, Bottom: 300},
					Verify:   containsAny("举报", "分享"),
				}},
			},
			{
				To: StateReportEntryFound,
				Steps: []Step{
					{
						Name:      "scroll_menu_sheet",
						Action:    ActionSwipe,
						SwipeFrom: device.Point{X: 360, Y: 1400},
						SwipeTo:   device.Point{X: 360, Y: 900},
						SwipeDur:  250 * time.Millisecond,
					},
					{
						Name:    "tap_report_entry",
						Targets: []locator.Descriptor{{Text: "举报"}, {Text: "投诉"}},
						Action:  ActionTap,
						Verify:  containsAny("举报类型", "选择举报原因", "侵权"),
					},
				},
			},
			{
				To: StateTypeSelected,
				Steps: []Step{{
					Name: "select_report_type",
					Targets: []locator.Descriptor{
						{Text: "侵权举报"},
						{Text: "知识产权侵权"},
						{Text: "盗版侵权"},
					},
					Fallback: []locator.Descriptor{{Text: "其他"}},
					Action:   ActionTap,
				}},
			},
			{
				To: StateReasonSelected,
				Steps: []Step{{
					Name: "select_report_reason",
					Targets: []locator.Descriptor{
						{Text: "盗版"},
						{Text: "版权"},
						{Text: "侵犯知识产权"},
					},
					Fallback: []locator.Descriptor{{Text: "其他问题"}},
					Action:   ActionTap,
				}},
			},
			{
				To: StateDescriptionFilled,
				Steps: []Step{{
					Name:    "fill_description",
					Targets: []locator.Descriptor{{Text: "请输入"}, {Role: locator.RoleEditable}},
					Action:  ActionInject,
					Text:    PlaceholderReportReason,
				}},
			},
			{
				To:       StateEvidenceUploaded,
				Optional: true,
				Steps: []Step{{
					Name:    "attach_evidence",
					Targets: []locator.Descriptor{{Text: "添加图片"}, {Text: "上传图片"}, {Text: "+"}},
					Action:  ActionTap,
				}},
			},
			{
				To: StateSubmitted,
				Steps: []Step{{
					Name:    "submit_report",
					Targets: []locator.Descriptor{{Text: "提交"}, {Text: "确认"}},
					Action:  ActionTap,
					Verify:  containsAny("举报成功", "已收到", "提交成功"),
				}},
			},
		},
		Recover: []Step{
			{Name: "dismiss_dialog", Action: ActionBack},
			{Name: "back_to_list", Action: ActionBack},
		},
	}
}

// XianyuDefinition is the reporting workflow for the Xianyu app. The shape
// mirrors Xiaohongshu's; only the labels and the entry point differ.
func XianyuDefinition() Definition {
	def := Definition{
		Platform:  "xianyu",
		AppTarget: "com.taobao.idlefish",
		SearchSteps: []Step{
			{
				Name:    "open_search",
				Targets: []locator.Descriptor{{Text: "搜索"}},
				Action:  ActionTap,
				ROI:     belowStatusBar,
			},
			{
				Name:    "enter_keyword",
				Targets: []locator.Descriptor{{Role: locator.RoleEditable}},
				Action:  ActionInject,
				Text:    PlaceholderKeyword,
			},
		},
		Recover: []Step{
			{Name: "dismiss_dialog", Action: ActionBack},
			{Name: "back_to_list", Action: ActionBack},
		},
	}
	def.Stages = []Stage{
		{
			To: StateMenuOpened,
			Steps: []Step{{
				Name:     "open_overflow_menu",
				Targets:  []locator.Descriptor{{Text: "更多"}, {Text: "..."}},
				Fallback: []locator.Descriptor{{Role: locator.RoleClickable}},
				Action:   ActionTap,
				ROI:      &device.Rect{Left: 0, Top: 80, Right: 1 << 14, Bottom: 300},
			}},
		},
		{
			To: StateReportEntryFound,
			Steps: []Step{{
				Name:    "tap_report_entry",
				Targets: []locator.Descriptor{{Text: "举报"}, {Text: "举报该商品"}},
				Action:  ActionTap,
			}},
		},
		{
			To: StateTypeSelected,
			Steps: []Step{{
				Name:     "select_report_type",
				Targets:  []locator.Descriptor{{Text: "知识产权"}, {Text: "侵权"}},
				Fallback: []locator.Descriptor{{Text: "其他"}},
				Action:   ActionTap,
			}},
		},
		{
			To: StateReasonSelected,
			Steps: []Step{{
				Name:     "select_report_reason",
				Targets:  []locator.Descriptor{{Text: "盗版"}, {Text: "假冒"}},
				Fallback: []locator.Descriptor{{Text: "其他"}},
				Action:   ActionTap,
			}},
		},
		{
			To: StateDescriptionFilled,
			Steps: []Step{{
				Name:    "fill_description",
				Targets: []locator.Descriptor{{Role: locator.RoleEditable}},
				Action:  ActionInject,
				Text:    PlaceholderReportReason,
			}},
		},
		{
			To:       StateEvidenceUploaded,
			Optional: true,
			Steps: []Step{{
				Name:    "attach_evidence",
				Targets: []locator.Descriptor{{Text: "添加图片"}, {Text: "+"}},
				Action:  ActionTap,
			}},
		},
		{
			To: StateSubmitted,
			Steps: []Step{{
				Name:    "submit_report",
				Targets: []locator.Descriptor{{Text: "提交"}},
				Action:  ActionTap,
			}},
		},
	}
	return def
}

// TaobaoDefinition is the reporting workflow for the Taobao app.
func TaobaoDefinition() Definition {
	def := XianyuDefinition()
	def.Platform = "taobao"
	def.AppTarget = "com.taobao.taobao"
	// Taobao puts the report entry behind the seller complaint flow.
	def.Stages[1].Steps[0].Targets = []locator.Descriptor{{Text: "举报"}, {Text: "投诉商家"}}
	return def
}

package alert

import (
	"fmt"
	"strings"

	"github.com/lyu3239-oss/heartbeat-app/internal/models"
)

// 语音文案使用 TwiML（Twilio 的 XML 标记），嵌入用户名前必须做 XML 转义
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeForXML 转义用于嵌入 TwiML 的文本
func EscapeForXML(s string) string {
	return xmlEscaper.Replace(s)
}

// ComposeVoiceMessage 为紧急联系人生成语音播报的 TwiML
// 结构固定四段：问候、紧急说明（带用户名）、重复紧急说明、结束语
// displayName 去掉首尾空白后为空时使用通用称呼兜底
func ComposeVoiceMessage(displayName string, language models.Language) string {
	name := strings.TrimSpace(displayName)

	if language == models.LanguageZH {
		if name == "" {
			name = "您的朋友"
		}
		spoken := EscapeForXML(name)
		return strings.Join([]string{
			`<Response>`,
			`  <Say language="zh-CN">您好，这是Heartbeat应用的紧急提醒。`,
			fmt.Sprintf(`    您的朋友 %s 已经超过两天没有打卡，`, spoken),
			`    请尽快联系确认其安全状况。`,
			fmt.Sprintf(`    重复一次，%s 已超过两天未打卡，请关注其安全。`, spoken),
			`  </Say>`,
			`  <Pause length="2"/>`,
			`  <Say language="zh-CN">感谢您的关注，再见。</Say>`,
			`</Response>`,
		}, "\n")
	}

	if name == "" {
		name = "your friend"
	}
	spoken := EscapeForXML(name)
	return strings.Join([]string{
		`<Response>`,
		`  <Say language="en-US">Hello, this is an emergency alert from the Heartbeat app. `,
		fmt.Sprintf(`    Your friend %s has not checked in for over two days. `, spoken),
		`    Please contact them as soon as possible to confirm their safety. `,
		fmt.Sprintf(`    Again, %s has not checked in for over two days. Please check on them.`, spoken),
		`  </Say>`,
		`  <Pause length="2"/>`,
		`  <Say language="en-US">Thank you for your attention. Goodbye.</Say>`,
		`</Response>`,
	}, "\n")
}

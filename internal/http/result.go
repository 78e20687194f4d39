package httpapi

import "net/http"

// Result 与 iOS 客户端 APIClient 的响应约定保持一致
// - ok: 是否成功
// - message: 提示文案（可本地化）
// 其余业务字段平铺在 Result 里返回
type Result map[string]any

// Ok 成功响应，extra 中的业务字段平铺进响应体
func Ok(w http.ResponseWriter, extra Result) {
	body := Result{"ok": true}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// Fail 失败响应
func Fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Result{"ok": false, "message": message})
}

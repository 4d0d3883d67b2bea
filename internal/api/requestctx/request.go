// 文件路径: internal/api/requestctx/request.go
// 模块说明: 在 context 中保存中间件解析出的请求体、表单和 Cookie，供下游 handler 读取。
package requestctx

import "context"

type contextKey string

const (
	bodyContextKey    contextKey = "acquisitions-body"
	formContextKey    contextKey = "acquisitions-form"
	cookiesContextKey contextKey = "acquisitions-cookies"
)

// WithBody attaches a decoded JSON body.
func WithBody(ctx context.Context, body any) context.Context {
	return context.WithValue(ctx, bodyContextKey, body)
}

// Body returns the decoded JSON body and whether one was parsed.
func Body(ctx context.Context) (any, bool) {
	if ctx == nil {
		return nil, false
	}
	body := ctx.Value(bodyContextKey)
	return body, body != nil
}

// WithForm attaches a decoded url-encoded body.
func WithForm(ctx context.Context, form map[string]any) context.Context {
	return context.WithValue(ctx, formContextKey, form)
}

// Form 返回解析后的表单，未解析时返回 nil。
func Form(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	form, _ := ctx.Value(formContextKey).(map[string]any)
	return form
}

// WithCookies attaches the parsed request cookies.
func WithCookies(ctx context.Context, cookies map[string]string) context.Context {
	return context.WithValue(ctx, cookiesContextKey, cookies)
}

// Cookies returns the parsed cookies; never nil.
func Cookies(ctx context.Context) map[string]string {
	if ctx == nil {
		return map[string]string{}
	}
	cookies, ok := ctx.Value(cookiesContextKey).(map[string]string)
	if !ok || cookies == nil {
		return map[string]string{}
	}
	return cookies
}

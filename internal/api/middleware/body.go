// 文件路径: internal/api/middleware/body.go
// 模块说明: 请求体解析中间件，支持 JSON 与 application/x-www-form-urlencoded（含嵌套语法）
package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/creamcroissant/acquisitions/internal/api/requestctx"
)

var (
	// ErrMalformedJSON 请求体不是合法 JSON
	ErrMalformedJSON = errors.New("malformed JSON body")
	// ErrUnsupportedCharset 仅支持 UTF 编码
	ErrUnsupportedCharset = errors.New("unsupported charset")
)

const defaultBodyLimit = 100 << 10 // 100KB

// BodyConfig 请求体解析配置
type BodyConfig struct {
	MaxBytes int64 // 最大字节数，超出返回 413
	Strict   bool  // JSON 仅接受对象和数组
}

// DefaultBodyConfig 默认配置（100KB，严格模式）
func DefaultBodyConfig() BodyConfig {
	return BodyConfig{
		MaxBytes: defaultBodyLimit,
		Strict:   true,
	}
}

// JSONBody 解析 Content-Type 为 JSON 的请求体，结果写入 requestctx.Body。
// 非法 JSON 直接返回 400，不会进入下游 handler。
func JSONBody(config BodyConfig) func(http.Handler) http.Handler {
	if config.MaxBytes <= 0 {
		config.MaxBytes = defaultBodyLimit
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mediaType, params, ok := requestMediaType(r)
			if !ok || !isJSONMediaType(mediaType) {
				next.ServeHTTP(w, r)
				return
			}
			if !isUTFCharset(params["charset"]) {
				writeBodyError(w, http.StatusUnsupportedMediaType, fmt.Errorf("%w %q", ErrUnsupportedCharset, params["charset"]))
				return
			}

			data, status, err := readBody(w, r, config.MaxBytes)
			if err != nil {
				writeBodyError(w, status, err)
				return
			}

			var body any = map[string]any{}
			if len(bytes.TrimSpace(data)) > 0 {
				if config.Strict && !startsWithContainer(data) {
					writeBodyError(w, http.StatusBadRequest, ErrMalformedJSON)
					return
				}
				if err := json.Unmarshal(data, &body); err != nil {
					writeBodyError(w, http.StatusBadRequest, ErrMalformedJSON)
					return
				}
			}

			ctx := requestctx.WithBody(r.Context(), body)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// URLEncodedBody 解析表单请求体，结果写入 requestctx.Form。
func URLEncodedBody(config BodyConfig) func(http.Handler) http.Handler {
	if config.MaxBytes <= 0 {
		config.MaxBytes = defaultBodyLimit
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mediaType, params, ok := requestMediaType(r)
			if !ok || mediaType != "application/x-www-form-urlencoded" {
				next.ServeHTTP(w, r)
				return
			}
			if !isUTFCharset(params["charset"]) {
				writeBodyError(w, http.StatusUnsupportedMediaType, fmt.Errorf("%w %q", ErrUnsupportedCharset, params["charset"]))
				return
			}

			data, status, err := readBody(w, r, config.MaxBytes)
			if err != nil {
				writeBodyError(w, status, err)
				return
			}

			form, err := parseExtendedForm(string(data))
			if err != nil {
				writeBodyError(w, http.StatusRequestEntityTooLarge, err)
				return
			}

			ctx := requestctx.WithForm(r.Context(), form)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestMediaType(r *http.Request) (string, map[string]string, bool) {
	raw := r.Header.Get("Content-Type")
	if raw == "" {
		return "", nil, false
	}
	mediaType, params, err := mime.ParseMediaType(raw)
	if err != nil {
		return "", nil, false
	}
	return mediaType, params, true
}

func isJSONMediaType(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func isUTFCharset(charset string) bool {
	return charset == "" || strings.HasPrefix(strings.ToLower(charset), "utf-")
}

func startsWithContainer(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// readBody 读取完整请求体并放回 r.Body，方便下游再次读取
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, int, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, http.StatusOK, nil
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("read request body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data, http.StatusOK, nil
}

func writeBodyError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

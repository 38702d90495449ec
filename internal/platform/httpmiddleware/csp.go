package httpmiddleware

import (
	"net/http"
	"strings"

	"catalog.local/gee"
	"catalog.local/internal/platform/security"
)

// CSPOptions 描述 Content-Security-Policy 的可变部分；ScriptSources 之外的指令固定。
type CSPOptions struct {
	ReportOnly    bool
	ScriptSources []string // 额外允许的脚本来源，例如 AddThis 的域名
}

// CSP 为每个请求创建一个 NonceGenerator 放进请求 context，并在响应头里声明同一个 nonce。
// 模板里的 cspNonce 通过 security.NonceGeneratorFrom 拿到它，因此页面和响应头一致。
func CSP(opts CSPOptions) gee.HandlerFunc {
	header := "Content-Security-Policy"
	if opts.ReportOnly {
		header = "Content-Security-Policy-Report-Only"
	}
	extra := strings.Join(opts.ScriptSources, " ")

	return func(ctx *gee.Context) {
		gen := security.NewNonceGenerator()
		nonce, err := gen.Nonce()
		if err != nil {
			ctx.AbortWithError(http.StatusInternalServerError, "nonce generation failed")
			return
		}
		ctx.Req = ctx.Req.WithContext(security.WithNonceGenerator(ctx.Req.Context(), gen))
		ctx.SetHeader(header, policy(nonce, extra))
		ctx.Next()
	}
}

func policy(nonce, extraScripts string) string {
	script := "script-src 'self' 'nonce-" + nonce + "'"
	if extraScripts != "" {
		script += " " + extraScripts
	}
	return strings.Join([]string{
		"default-src 'self'",
		script,
		"object-src 'none'",
		"base-uri 'self'",
		"img-src 'self' data: https:",
		"style-src 'self' 'unsafe-inline'",
	}, "; ")
}

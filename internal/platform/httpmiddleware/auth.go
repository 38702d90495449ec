package httpmiddleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"catalog.local/gee"
	"catalog.local/internal/platform/auth"
)

var (
	errNoCredentials = errors.New("missing authorization header")
	errNotBearer     = errors.New("invalid authorization format")
	errBadToken      = errors.New("invalid token")
)

// bearerIdentity 从 Authorization: Bearer <jwt> 中取出调用方身份。
func bearerIdentity(req *http.Request, ts auth.TokenService) (auth.Identity, error) {
	header := req.Header.Get("Authorization")
	if header == "" {
		return auth.Identity{}, errNoCredentials
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.ContainsAny(token, " \t") {
		return auth.Identity{}, errNotBearer
	}
	claims, err := ts.Verify(token)
	if err != nil {
		return auth.Identity{}, errBadToken
	}
	return auth.Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

func withIdentity(ctx *gee.Context, id auth.Identity) {
	ctx.Req = ctx.Req.WithContext(auth.WithIdentity(ctx.Req.Context(), id))
}

// AuthRequired 没有合法 token 的请求直接 401。
func AuthRequired(ts auth.TokenService) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id, err := bearerIdentity(ctx.Req, ts)
		if err != nil {
			ctx.AbortWithError(http.StatusUnauthorized, err.Error())
			return
		}
		withIdentity(ctx, id)
		ctx.Next()
	}
}

// AuthOptional 有合法 token 就带上身份，否则按匿名请求放行
func AuthOptional(ts auth.TokenService) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		if id, err := bearerIdentity(ctx.Req, ts); err == nil {
			withIdentity(ctx, id)
		}
		ctx.Next()
	}
}

// RequireRole 放行角色在 roles 之中的调用方；必须挂在 AuthRequired 之后。
func RequireRole(roles ...string) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id, ok := auth.GetIdentity(ctx.Req.Context())
		if !ok {
			ctx.AbortWithError(http.StatusUnauthorized, "unauthorized")
			return
		}
		if !slices.Contains(roles, id.Role) {
			ctx.AbortWithError(http.StatusForbidden, "forbidden")
			return
		}
		ctx.Next()
	}
}

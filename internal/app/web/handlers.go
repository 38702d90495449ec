package web

import (
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"catalog.local/gee"
	"catalog.local/gee/middleware"
	"catalog.local/internal/app/ils"
	"catalog.local/internal/app/search"
	"catalog.local/internal/app/viewhelper"
	"catalog.local/internal/platform/i18n"
)

//go:embed templates/*.html
var templates embed.FS

//go:embed static
var static embed.FS

const consentCookie = "cookie_consent"

type Handlers struct {
	Params  *search.ParamsRegistry
	Index   *Index
	ILS     *ils.Connection
	Catalog *i18n.Catalog
	// BaseURL is the public origin used for permalinks.
	BaseURL string
}

type page struct {
	Title     string
	Lang      string
	Languages []string
	Params    *search.Params // nil on the home page
	Total     int
	Start     int
	Records   []recordView
	Permalink string
}

type recordView struct {
	Record
	Holdings []ils.HoldingStatus
}

// LoadTemplates installs the helper FuncMap on r, binds request-scoped helpers
// per render and parses the embedded pages.
func LoadTemplates(r *gee.Engine, m *viewhelper.Manager) error {
	r.SetFuncMap(m.FuncMap())
	r.SetFuncBinder(func(ctx *gee.Context) (template.FuncMap, error) {
		return m.Bind(viewhelper.Scope{Writer: ctx.Writer, Request: ctx.Req})
	})
	return r.LoadHTMLFS(templates, "templates/*.html")
}

func RegisterRoutes(r *gee.Engine, h *Handlers) {
	r.GET("/", h.Home)
	r.GET("/Search/Results", h.Results)
	r.GET("/AJAX/JSON", h.AJAX)
	r.POST("/language", h.SetLanguage)
	r.POST("/cookie-consent", h.AcceptCookies)

	assets, _ := fs.Sub(static, "static")
	r.StaticFS("/static", assets)
}

func (h *Handlers) newPage(r *http.Request, title string) page {
	return page{
		Title:     title,
		Lang:      h.Catalog.Translator(Language(r)).Lang(),
		Languages: h.Catalog.Languages(),
	}
}

func (h *Handlers) Home(ctx *gee.Context) {
	ctx.HTML(http.StatusOK, "home", h.newPage(ctx.Req, "site_title"))
}

func (h *Handlers) Results(ctx *gee.Context) {
	p, err := h.Params.Get(viewhelper.DefaultSearchClass)
	if err != nil {
		slog.Error("search params", "request_id", middleware.RequestID(ctx), "err", err)
		ctx.AbortWithError(http.StatusInternalServerError, "search unavailable")
		return
	}
	p.InitFromRequest(ctx.QueryValues())
	total, records := h.Index.Search(p)

	views := make([]recordView, 0, len(records))
	withStatus := h.ILS.CheckCapability("getStatus")
	for _, rec := range records {
		v := recordView{Record: rec}
		if withStatus {
			// Connection.Status logs failures; the record renders without holdings.
			v.Holdings, _ = h.ILS.Status(ctx.Req.Context(), rec.ID)
		}
		views = append(views, v)
	}

	pg := h.newPage(ctx.Req, "search_results")
	pg.Params = p
	pg.Total = total
	pg.Start = p.Offset() + 1
	pg.Records = views
	pg.Permalink = h.BaseURL + "/Search/Results?" + p.Encode()
	ctx.HTML(http.StatusOK, "results", pg)
}

// AJAX serves /AJAX/JSON?method=...; only keepAlive is implemented.
func (h *Handlers) AJAX(ctx *gee.Context) {
	switch ctx.Query("method") {
	case "keepAlive":
		ctx.SetHeader("Cache-Control", "no-store")
		ctx.JSON(http.StatusOK, gee.H{"data": true})
	default:
		ctx.AbortWithError(http.StatusBadRequest, "unknown method")
	}
}

func (h *Handlers) SetLanguage(ctx *gee.Context) {
	lang := ctx.PostForm("mylang")
	if !h.Catalog.Has(lang) {
		ctx.AbortWithError(http.StatusBadRequest, "unknown language")
		return
	}
	sess, ok := sessionFrom(ctx.Req)
	if !ok {
		ctx.AbortWithError(http.StatusInternalServerError, "no session")
		return
	}
	sess.cookies.Set(LanguageCookie, lang, time.Now().AddDate(1, 0, 0))
	ctx.Redirect(http.StatusSeeOther, backTo(ctx.Req))
}

func (h *Handlers) AcceptCookies(ctx *gee.Context) {
	sess, ok := sessionFrom(ctx.Req)
	if !ok {
		ctx.AbortWithError(http.StatusInternalServerError, "no session")
		return
	}
	sess.cookies.Set(consentCookie, "1", time.Now().AddDate(1, 0, 0))
	ctx.Redirect(http.StatusSeeOther, backTo(ctx.Req))
}

// backTo returns the same-host page the form was posted from, "/" otherwise.
func backTo(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) {
		return "/"
	}
	if u.Path == "" || u.Path[0] != '/' {
		return "/"
	}
	// browsers read "//host" and "/\host" as protocol-relative
	uri := u.RequestURI()
	for _, p := range []string{u.Path, uri} {
		if strings.HasPrefix(p, "//") || strings.HasPrefix(p, `/\`) {
			return "/"
		}
	}
	return uri
}

package gee

import (
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

// FuncBinder returns the request-bound implementations of template functions.
// Every name it returns must already be present in the FuncMap used at parse time.
type FuncBinder func(ctx *Context) (template.FuncMap, error)

type Engine struct {
	*RouterGroup
	router        *router
	groups        []*RouterGroup
	htmlTemplates *template.Template // for html render
	funcMap       template.FuncMap   // for html render
	funcBinder    FuncBinder         // per-request template funcs
	noMethod      []HandlerFunc
	noRoute       []HandlerFunc
}

type RouterGroup struct {
	prefix      string
	middlewares []HandlerFunc
	parent      *RouterGroup
	engine      *Engine
}

func New() *Engine {
	engine := &Engine{
		router: newRouter(),
	}
	engine.noRoute = []HandlerFunc{func(ctx *Context) { ctx.String(http.StatusNotFound, "404 NOT FOUND %s", ctx.Path) }}
	engine.noMethod = []HandlerFunc{func(ctx *Context) { ctx.String(http.StatusMethodNotAllowed, "405 Method Not Allowed %s", ctx.Path) }}
	engine.RouterGroup = &RouterGroup{engine: engine}
	engine.groups = []*RouterGroup{engine.RouterGroup}
	return engine
}

func Default() *Engine {
	engine := New()
	engine.Use(Recovery(), Logger())
	return engine
}

func (e *Engine) NoRoute(handlers ...HandlerFunc) {
	e.noRoute = handlers
}

func (e *Engine) NoMethod(handlers ...HandlerFunc) {
	e.noMethod = handlers
}

// Routes lists the registered routes as "METHOD pattern", sorted.
func (e *Engine) Routes() []string {
	return e.router.routes()
}

func (e *Engine) SetFuncMap(funcMap template.FuncMap) {
	e.funcMap = funcMap
}

// SetFuncBinder installs a binder used by Context.HTML to replace the
// parse-time funcs with request-scoped ones before executing a template.
func (e *Engine) SetFuncBinder(binder FuncBinder) {
	e.funcBinder = binder
}

// LoadHTMLFS parses templates from fsys (typically an embed.FS).
func (e *Engine) LoadHTMLFS(fsys fs.FS, patterns ...string) error {
	t, err := template.New("").Funcs(e.funcMap).ParseFS(fsys, patterns...)
	if err != nil {
		return err
	}
	e.htmlTemplates = t
	return nil
}

func (e *Engine) templatesFor(ctx *Context) (*template.Template, error) {
	if e.funcBinder == nil {
		return e.htmlTemplates, nil
	}
	funcs, err := e.funcBinder(ctx)
	if err != nil {
		return nil, err
	}
	// Funcs mutates the set, so each request works on its own clone.
	t, err := e.htmlTemplates.Clone()
	if err != nil {
		return nil, err
	}
	return t.Funcs(funcs), nil
}

func (group *RouterGroup) Group(prefix string) *RouterGroup {
	engine := group.engine
	newGroup := &RouterGroup{
		prefix: group.prefix + prefix,
		parent: group,
		engine: engine,
	}
	engine.groups = append(engine.groups, newGroup)
	return newGroup
}

// Use 添加中间件
func (group *RouterGroup) Use(middlewares ...HandlerFunc) {
	group.middlewares = append(group.middlewares, middlewares...)
}

func (group *RouterGroup) addRoute(method string, comp string, handlers ...HandlerFunc) {
	pattern := group.prefix + comp
	slog.Debug("route registered", "method", method, "pattern", pattern)
	group.engine.router.addRoute(method, pattern, handlers...)
}

// GET defines the method to add GET request
func (group *RouterGroup) GET(pattern string, handlers ...HandlerFunc) {
	group.addRoute("GET", pattern, handlers...)
}

// POST defines the method to add POST request
func (group *RouterGroup) POST(pattern string, handlers ...HandlerFunc) {
	group.addRoute("POST", pattern, handlers...)
}

// PUT defines the method to add PUT request
func (group *RouterGroup) PUT(pattern string, handlers ...HandlerFunc) {
	group.addRoute("PUT", pattern, handlers...)
}

// StaticFS 在 relativePath 下提供 fsys 里的文件（通常是 embed.FS），不列目录。
func (group *RouterGroup) StaticFS(relativePath string, fsys fs.FS) {
	prefix := path.Join(group.prefix, relativePath)
	files := http.StripPrefix(prefix, http.FileServerFS(fsys))
	group.GET(path.Join(relativePath, "/*filepath"), func(ctx *Context) {
		name := strings.TrimPrefix(ctx.Param("filepath"), "/")
		if st, err := fs.Stat(fsys, name); err != nil || st.IsDir() {
			ctx.AbortWithStatus(http.StatusNotFound)
			return
		}
		files.ServeHTTP(ctx.Writer, ctx.Req)
	})
}

// underPrefix 按路径段匹配分组前缀："/api" 匹配 "/api/x"，不匹配 "/apix"。
func underPrefix(p, prefix string) bool {
	if prefix == "" || p == prefix {
		return true
	}
	return strings.HasPrefix(p, strings.TrimSuffix(prefix, "/")+"/")
}

// ServeHTTP implements http.Handler interface
func (e *Engine) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var middlewares []HandlerFunc
	for _, group := range e.groups {
		if underPrefix(req.URL.Path, group.prefix) {
			middlewares = append(middlewares, group.middlewares...)
		}
	}
	ctx := newContext(w, req)
	ctx.handlers = middlewares
	ctx.engine = e
	e.router.handle(ctx)
}

// Run starts the HTTP server
func (e *Engine) Run(addr string) error {
	return http.ListenAndServe(addr, e)
}

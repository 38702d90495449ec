package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"catalog.local/gee"
	"catalog.local/gee/middleware"
	"catalog.local/internal/app/content"
	"catalog.local/internal/app/ils"
	"catalog.local/internal/app/search"
	"catalog.local/internal/app/urlshortener"
	urlcache "catalog.local/internal/app/urlshortener/cache"
	shortenerhttpapi "catalog.local/internal/app/urlshortener/httpapi"
	"catalog.local/internal/app/urlshortener/repo"
	"catalog.local/internal/app/urlshortener/stats"
	"catalog.local/internal/app/viewhelper"
	"catalog.local/internal/app/web"
	"catalog.local/internal/platform/auth"
	platformcache "catalog.local/internal/platform/cache"
	"catalog.local/internal/platform/config"
	"catalog.local/internal/platform/cookie"
	"catalog.local/internal/platform/db"
	"catalog.local/internal/platform/httpmiddleware"
	"catalog.local/internal/platform/httpserver"
	"catalog.local/internal/platform/i18n"
	"catalog.local/internal/platform/metrics"
	"catalog.local/internal/platform/migrate"
	"catalog.local/internal/platform/ratelimit"
	"catalog.local/internal/platform/trace"
	"catalog.local/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cfg := config.Load()

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if strings.EqualFold(cfg.LogFormat, "text") {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))

	kind, err := urlshortener.Kind(cfg.URLShortener)
	if err != nil {
		log.Fatal(err)
	}

	//DB：只有数据库短链需要
	var dbPool *pgxpool.Pool
	if kind == "database" {
		dbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		dbPool, err = db.New(dbCtx, cfg.DBDSN)
		if err != nil {
			cancel()
			log.Fatal(err)
		}
		if err := dbPool.Ping(dbCtx); err != nil {
			cancel()
			log.Fatal(err)
		}
		res, err := migrate.Up(dbCtx, dbPool, migrate.Options{Dir: cfg.MigrationsDir, FS: migrations.FS})
		cancel()
		if err != nil {
			log.Fatal(err)
		}
		slog.Info("数据库连接成功", "migrations_source", res.Source, "applied", len(res.AppliedFiles))
		defer dbPool.Close()
	}

	//Redis：限流和短链二级缓存共用
	var redisClient *redis.Client
	if cfg.RateLimitEnabled || kind == "database" {
		redisClient, err = platformcache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal(err)
		}
		defer redisClient.Close()
	}
	//限流器
	var limiter *ratelimit.Limiter
	if cfg.RateLimitEnabled {
		limiter = ratelimit.NewLimiter(redisClient)
	} else {
		slog.Warn("RateLimit disabled by config", "RATELIMIT_ENABLED", false)
	}

	// 短链
	var (
		shortener       urlshortener.Shortener = urlshortener.None{}
		shortlinks      *repo.Shortlinks
		collector       stats.Collector = stats.Discard{}
		kafkaConsumer   *stats.KafkaConsumer
		channelConsumer *stats.Consumer
	)
	if kind == "database" {
		localCache, err := urlcache.NewLocal(urlcache.LocalOptions{MaxItems: 100_000})
		if err != nil {
			log.Fatal(err)
		}
		urls := urlcache.NewURLs(redisClient, localCache)
		defer urls.Close()
		shortlinks = repo.NewShortlinks(dbPool, urls)

		// 预期 100 万短码，1% 误判率；启动时从数据库预热，之后由 Shorten 和回源补充
		known := urlcache.NewKnownIDs(1_000_000, 0.01)
		warmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := shortlinks.IDs(warmCtx, known.Add); err != nil {
			cancel()
			log.Fatal(err)
		}
		cancel()
		slog.Info("bloom filter warmed", "ids", known.Len())
		shortener = urlshortener.NewDatabase(shortlinks, known, cfg.BaseURL)

		sink := stats.NewPostgresSink(dbPool)
		if cfg.KafkaEnabled {
			slog.Info("使用 Kafka 收集点击统计", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
			kopts := stats.KafkaOptions{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic}
			collector = stats.NewKafkaCollector(kopts)
			kafkaConsumer = stats.NewKafkaConsumer(kopts, sink)
		} else {
			slog.Info("使用 Channel 收集点击统计")
			channelCollector := stats.NewChannelCollector(10000)
			collector = channelCollector
			channelConsumer = stats.NewConsumer(sink, channelCollector)
		}
	}

	// JWT
	ts, err := auth.NewHS256Service(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		log.Fatal(err)
	}

	// 视图助手的依赖
	catalog, err := i18n.Builtin(cfg.DefaultLanguage)
	if err != nil {
		log.Fatal(err)
	}
	var options *search.OptionsRegistry
	if cfg.SearchesFile != "" {
		options, err = search.LoadOptionsFile(cfg.SearchesFile)
	} else {
		options, err = search.DefaultOptions()
	}
	if err != nil {
		log.Fatal(err)
	}
	params := search.NewParamsRegistry(options)

	driver, err := ils.NewDriver(cfg.ILSDriver)
	if err != nil {
		log.Fatal(err)
	}
	conn := ils.NewConnection(driver)

	summaries, authorNotes := content.NewLoader(), content.NewLoader()
	if cfg.SyndeticsKey != "" {
		syndetics := content.NewSyndeticsClient(content.SyndeticsOptions{
			BaseURL:       cfg.SyndeticsURL,
			ClientKey:     cfg.SyndeticsKey,
			Timeout:       cfg.ContentTimeout,
			RatePerSecond: cfg.ContentRateLimit,
		})
		summaries = content.NewLoader(syndetics.Summaries())
		authorNotes = content.NewLoader(syndetics.AuthorNotes())
	} else {
		slog.Warn("SYNDETICS_KEY not set, summaries and author notes are empty")
	}

	cookieOpts := cookie.Options{
		LimitByPath: cfg.CookieLimitByPath,
		OnlySecure:  cfg.CookieOnlySecure,
		Domain:      cfg.CookieDomain,
		SessionName: cfg.SessionName,
		BasePath:    "/",
	}
	helpers := viewhelper.Setup(viewhelper.Deps{
		AddThisKey:        cfg.AddThisKey,
		SyndeticsPlus:     cfg.SyndeticsPlus,
		KeepAliveInterval: cfg.KeepAliveInterval,
		ILS:               conn,
		AuthorNotes:       authorNotes,
		Summaries:         summaries,
		Shortener:         shortener,
		SearchOptions:     options,
		SearchParams:      params,
		Cookies:           web.ScopeCookies(cookieOpts),
		Nonce:             web.ScopeNonce,
		Translator:        web.ScopeTranslator(catalog),
	})

	index, err := web.BuiltinIndex()
	if err != nil {
		log.Fatal(err)
	}

	metrics.Init()

	shutdownTrace, err := trace.Init(trace.Options{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.OtlpGrpcEndpoint,
		ServiceName: cfg.OtlpServiceName,
	})
	if err != nil {
		slog.Error("Trace init failed", "err", err)
	}
	if !cfg.TracingEnabled {
		slog.Warn("Tracing disabled by config", "TRACING_ENABLED", false)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := shutdownTrace(ctx); err != nil {
			slog.Error("trace shutdown", "err", err)
		}
	}()

	// 对外业务
	var scriptSources []string
	if cfg.AddThisKey != "" {
		scriptSources = append(scriptSources, "https://s7.addthis.com")
	}
	r := gee.New()
	r.Use(
		gee.Recovery(),
		middleware.ReqID(),
		middleware.AccessLog(),
		httpmiddleware.Metrics(),
		httpmiddleware.TraceName(),
		httpmiddleware.CSP(httpmiddleware.CSPOptions{ScriptSources: scriptSources}),
		web.Session(catalog, cookieOpts),
	)
	if err := web.LoadTemplates(r, helpers); err != nil {
		log.Fatal(err)
	}

	web.RegisterRoutes(r, &web.Handlers{
		Params:  params,
		Index:   index,
		ILS:     conn,
		Catalog: catalog,
		BaseURL: cfg.BaseURL,
	})
	shortenerhttpapi.RegisterPublicRoutes(r, shortener, collector, limiter)
	if shortlinks != nil {
		api := r.Group("/api/v1")
		shortenerhttpapi.RegisterAdminRoutes(api, shortlinks, ts, limiter)
	}

	r.GET("/healthz", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "ok")
	})

	slog.Debug("routes registered", "routes", r.Routes())

	publicHandler := http.Handler(r)
	if cfg.TracingEnabled {
		publicHandler = otelhttp.NewHandler(r, "http")
	}
	publicSrv := httpserver.New(cfg, publicHandler)

	// 仅本机/内网
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	adminMux.HandleFunc("/readyz", readyz(dbPool, redisClient))

	adminMux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"service_name": cfg.ServiceName,
			"version":      version,
			"commit":       commit,
			"build_time":   buildTime,
			"go_version":   runtime.Version(),
			"ils_driver":   conn.DriverName(),
			"shortener":    kind,
			"helpers":      helpers.Names(),
		})
	})

	if cfg.PprofEnabled {
		adminMux.HandleFunc("/debug/pprof/", pprof.Index)
		adminMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		adminMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		adminMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		adminMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	adminSrv := httpserver.NewAdmin(cfg, adminMux)

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errch := make(chan error, 2)

	go func() {
		errch <- httpserver.Serve(stopCtx, publicSrv, cfg.ShutdownTimeout)
	}()
	go func() {
		errch <- httpserver.Serve(stopCtx, adminSrv, cfg.ShutdownTimeout)
	}()

	// 启动 Kafka consumer（如果启用）
	if kafkaConsumer != nil {
		go kafkaConsumer.Run(stopCtx)
		defer kafkaConsumer.Close()
	}
	// 启动 Channel consumer（如果启用）
	if channelConsumer != nil {
		go channelConsumer.Run(stopCtx)
	}
	defer collector.Close()

	slog.Info("catalog web started", "addr", cfg.Addr, "admin_addr", cfg.AdminAddr, "version", version)

	err = <-errch
	if err != nil {
		stop()
		select {
		case <-errch:
		case <-time.After(cfg.ShutdownTimeout + time.Second):
		}
		log.Fatal(err)
	}

	stop()
	<-errch
}

// readyz 探测依赖；没启用的依赖（nil）跳过
func readyz(db *pgxpool.Pool, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if db != nil {
			if err := db.Ping(ctx); err != nil {
				http.Error(w, "db ping: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				http.Error(w, "redis ping: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("ready"))
	}
}

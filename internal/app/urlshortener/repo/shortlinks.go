package repo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"catalog.local/internal/app/urlshortener"
	"catalog.local/internal/app/urlshortener/cache"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAlreadyDisabled = errors.New("short url already disabled")

type Metadata struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Disabled   bool      `json:"disabled"`
	ClickCount int64     `json:"click_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Click struct {
	ID        int64     `json:"id"` // 下一页查询的 cursor
	ClickedAt time.Time `json:"clicked_at"`
	Referer   string    `json:"referer"`
	UserAgent string    `json:"user_agent"`
}

type Stats struct {
	TotalClicks  int64   `json:"total_clicks"`
	RecentClicks []Click `json:"recent_clicks"`
	NextCursor   *int64  `json:"next_cursor,omitempty"`
}

type Shortlinks struct {
	db    *pgxpool.Pool
	cache *cache.URLs
}

// NewShortlinks 的 cache 可为 nil（只走数据库）。
func NewShortlinks(db *pgxpool.Pool, cache *cache.URLs) *Shortlinks {
	return &Shortlinks{db: db, cache: cache}
}

// Create 保存长链接并返回它的短 id；同一个 URL 重复保存得到同一个 id。
func (s *Shortlinks) Create(ctx context.Context, url string) (string, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := s.db.Begin(dbctx)
	if err != nil {
		slog.Error("shortlinks: begin tx failed", "err", err)
		return "", err
	}
	defer tx.Rollback(dbctx) // 提交后 rollback 无效，可忽略

	var (
		rowID int64
		id    string
	)
	// url_hash 上有唯一约束；冲突时 DO UPDATE 让 RETURNING 拿到已有行
	if err := tx.QueryRow(dbctx,
		`INSERT INTO shortlinks (url) VALUES ($1)
		 ON CONFLICT (url_hash) DO UPDATE SET url=EXCLUDED.url
		 RETURNING id, COALESCE(short_id,'')`, url).
		Scan(&rowID, &id); err != nil {
		slog.Error("shortlinks: insert failed", "err", err)
		return "", err
	}

	if id == "" {
		newID, err := urlshortener.EncodeID(uint64(rowID))
		if err != nil {
			return "", err
		}
		// 只在缺失时写入；并发事务已写入的话回退到 SELECT
		err = tx.QueryRow(dbctx,
			`UPDATE shortlinks SET short_id=$1 WHERE id=$2 AND short_id IS NULL RETURNING short_id`, newID, rowID).
			Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			err = tx.QueryRow(dbctx, `SELECT short_id FROM shortlinks WHERE id=$1`, rowID).Scan(&id)
		}
		if err != nil {
			slog.Error("shortlinks: set short id failed", "err", err, "row", rowID)
			return "", err
		}
	}

	if err := tx.Commit(dbctx); err != nil {
		slog.Error("shortlinks: commit failed", "err", err)
		return "", err
	}

	// 立刻写缓存，覆盖之前可能存在的负缓存
	if s.cache != nil {
		cacheCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_ = s.cache.Set(cacheCtx, id, url)
	}
	return id, nil
}

// Resolve 返回 id 对应的长链接；不存在或已禁用时返回 urlshortener.ErrNotFound。
func (s *Shortlinks) Resolve(ctx context.Context, id string) (string, error) {
	if s.cache != nil {
		url, res, err := s.cache.Get(ctx, id)
		switch {
		case err != nil:
			// Redis 故障时降级查库
			slog.Warn("shortlinks: cache get failed", "err", err, "id", id)
		case res == cache.HitNotFound:
			return "", urlshortener.ErrNotFound
		case res == cache.Hit:
			return url, nil
		}
	}

	dbctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	var url string
	err := s.db.QueryRow(dbctx, `SELECT url FROM shortlinks WHERE short_id=$1 AND disabled=false`, id).Scan(&url)
	if errors.Is(err, pgx.ErrNoRows) {
		if s.cache != nil {
			_ = s.cache.SetNotFound(ctx, id)
		}
		return "", urlshortener.ErrNotFound
	}
	if err != nil {
		slog.Error("shortlinks: resolve failed", "err", err, "id", id)
		return "", err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, id, url)
	}
	return url, nil
}

func (s *Shortlinks) FindByID(ctx context.Context, id string) (*Metadata, error) {
	dbctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	md := Metadata{ID: id}
	err := s.db.QueryRow(dbctx,
		`SELECT url, disabled, click_count, created_at, updated_at FROM shortlinks WHERE short_id=$1`, id).
		Scan(&md.URL, &md.Disabled, &md.ClickCount, &md.CreatedAt, &md.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, urlshortener.ErrNotFound
	}
	if err != nil {
		slog.Error("shortlinks: find failed", "err", err, "id", id)
		return nil, err
	}
	return &md, nil
}

// Disable 禁用短链并删除缓存。
func (s *Shortlinks) Disable(ctx context.Context, id string) error {
	dbctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	var ok int
	err := s.db.QueryRow(dbctx,
		`UPDATE shortlinks SET disabled=true, updated_at=now() WHERE short_id=$1 AND disabled=false RETURNING 1`, id).
		Scan(&ok)
	if err == nil {
		if s.cache != nil {
			_ = s.cache.Delete(ctx, id)
		}
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		slog.Error("shortlinks: disable failed", "err", err, "id", id)
		return err
	}

	// 没有更新到行：要么不存在，要么已禁用
	var disabled bool
	if err := s.db.QueryRow(dbctx, `SELECT disabled FROM shortlinks WHERE short_id=$1`, id).Scan(&disabled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return urlshortener.ErrNotFound
		}
		slog.Error("shortlinks: disable lookup failed", "err", err, "id", id)
		return err
	}
	if disabled {
		return ErrAlreadyDisabled
	}
	return errors.New("short url disable failed")
}

// Stats 返回总点击数和一页点击明细，cursor=0 表示第一页。
func (s *Shortlinks) Stats(ctx context.Context, id string, limit int, cursor int64) (*Stats, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	out := &Stats{}
	if err := s.db.QueryRow(dbctx, `SELECT click_count FROM shortlinks WHERE short_id=$1`, id).Scan(&out.TotalClicks); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, urlshortener.ErrNotFound
		}
		slog.Error("shortlinks: stats count failed", "err", err, "id", id)
		return nil, err
	}

	var (
		rows pgx.Rows
		err  error
	)
	if cursor == 0 {
		rows, err = s.db.Query(dbctx,
			`SELECT id, clicked_at, referer, user_agent FROM click_stats WHERE short_id=$1 ORDER BY id DESC LIMIT $2`, id, limit)
	} else {
		rows, err = s.db.Query(dbctx,
			`SELECT id, clicked_at, referer, user_agent FROM click_stats WHERE short_id=$1 AND id<$2 ORDER BY id DESC LIMIT $3`, id, cursor, limit)
	}
	if err != nil {
		slog.Error("shortlinks: stats query failed", "err", err, "id", id)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c Click
		if err := rows.Scan(&c.ID, &c.ClickedAt, &c.Referer, &c.UserAgent); err != nil {
			return nil, err
		}
		out.RecentClicks = append(out.RecentClicks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out.RecentClicks) == limit {
		// 还有下一页
		out.NextCursor = &out.RecentClicks[len(out.RecentClicks)-1].ID
	}
	return out, nil
}

// IDs 逐个回调所有已发放的 id，启动时用来预热布隆过滤器。
func (s *Shortlinks) IDs(ctx context.Context, fn func(id string)) error {
	rows, err := s.db.Query(ctx, `SELECT short_id FROM shortlinks WHERE short_id IS NOT NULL`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		fn(id)
	}
	return rows.Err()
}

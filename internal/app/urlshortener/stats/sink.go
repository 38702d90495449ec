package stats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sink 持久化一批点击事件。
type Sink interface {
	Write(ctx context.Context, batch []ClickEvent) error
}

// PostgresSink 写 click_stats 明细并累加 shortlinks.click_count。
type PostgresSink struct {
	db *pgxpool.Pool
}

func NewPostgresSink(db *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{db: db}
}

// Write 每行一个 savepoint：单行失败只回滚这一行，不会让整个事务进入 aborted 状态。
func (s *PostgresSink) Write(ctx context.Context, batch []ClickEvent) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(context.Background())

	for _, e := range batch {
		if err := writeClick(ctx, tx, sanitize(e)); err != nil {
			slog.Error("click stats: row skipped", "err", err, "id", e.ShortID)
		}
	}
	return tx.Commit(ctx)
}

func writeClick(ctx context.Context, tx pgx.Tx, e ClickEvent) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return err
	}
	defer sp.Rollback(context.Background())

	if _, err := sp.Exec(ctx,
		`INSERT INTO click_stats (short_id, clicked_at, ip, user_agent, referer) VALUES ($1,$2,$3,$4,$5)`,
		e.ShortID, e.ClickedAt, e.IP, e.UserAgent, e.Referer); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	if _, err := sp.Exec(ctx,
		`UPDATE shortlinks SET click_count = click_count + 1 WHERE short_id = $1`, e.ShortID); err != nil {
		return fmt.Errorf("update count: %w", err)
	}
	return sp.Commit(ctx)
}

// sanitize 清理请求头带来的文本：PostgreSQL 的 text 不接受非法 UTF-8 和 NUL。
func sanitize(e ClickEvent) ClickEvent {
	clean := func(s string) string {
		return strings.ReplaceAll(strings.ToValidUTF8(s, "\uFFFD"), "\x00", "")
	}
	e.ShortID = clean(e.ShortID)
	e.IP = clean(e.IP)
	e.UserAgent = clean(e.UserAgent)
	e.Referer = clean(e.Referer)
	return e
}

// batcher 攒批：满 size 条或每 interval 刷一次。
type batcher struct {
	sink     Sink
	size     int
	interval time.Duration
	name     string
}

func (b *batcher) run(ctx context.Context, events <-chan ClickEvent) {
	batch := make([]ClickEvent, 0, b.size)
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.flush(batch) // 清理剩余事件
			return
		case event, ok := <-events:
			if !ok {
				b.flush(batch)
				return
			}
			batch = append(batch, event)
			if len(batch) >= b.size {
				b.flush(batch)
				batch = batch[:0] // 保留容量，避免反复分配
			}
		case <-ticker.C:
			if len(batch) > 0 {
				b.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (b *batcher) flush(batch []ClickEvent) error {
	if len(batch) == 0 {
		return nil
	}
	// ctx 可能已取消，刷盘用独立超时
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.sink.Write(ctx, batch); err != nil {
		slog.Error(b.name+": flush failed", "err", err, "count", len(batch))
		return err
	}
	slog.Debug(b.name+": flushed", "count", len(batch))
	return nil
}

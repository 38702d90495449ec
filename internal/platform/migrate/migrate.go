// Package migrate 在启动时执行 migrations/ 下的 SQL 文件。
package migrate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// 多个实例同时启动时只有一个在跑迁移
const lockID int64 = 0x6361_7461_6c6f_67 // "catalog"

// Options 指定迁移文件来源：Dir 非空时读磁盘目录，否则用 FS（通常是嵌入的 migrations.FS）。
type Options struct {
	Dir string
	FS  fs.FS
}

type Result struct {
	Source       string
	AppliedFiles []string
	SkippedFiles []string
}

// Up 按文件名顺序执行还没记录在 schema_migrations 里的 .sql 文件，每个文件一个事务。
func Up(ctx context.Context, db *pgxpool.Pool, opts Options) (*Result, error) {
	fsys, source, err := resolveSource(opts)
	if err != nil {
		return nil, err
	}
	files, err := listSQLFiles(fsys)
	if err != nil {
		return nil, err
	}

	conn, err := db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, lockID); err != nil {
		return nil, fmt.Errorf("migrate: lock: %w", err)
	}
	defer conn.Exec(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, lockID)

	if _, err := conn.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version TEXT PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return nil, err
	}
	done, err := appliedVersions(ctx, conn)
	if err != nil {
		return nil, err
	}

	res := &Result{Source: source}
	for _, name := range files {
		version := path.Base(name)
		if done[version] {
			res.SkippedFiles = append(res.SkippedFiles, name)
			continue
		}
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return res, fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := apply(ctx, conn, version, string(body)); err != nil {
			return res, err
		}
		slog.Info("migration applied", "file", name, "source", source)
		res.AppliedFiles = append(res.AppliedFiles, name)
	}
	return res, nil
}

func appliedVersions(ctx context.Context, conn *pgxpool.Conn) (map[string]bool, error) {
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	done := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		done[v] = true
	}
	return done, rows.Err()
}

// apply 整个文件作为一个批次执行；文件本身尽量用 IF NOT EXISTS 保持幂等
func apply(ctx context.Context, conn *pgxpool.Conn, version, body string) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, body); err != nil {
		return fmt.Errorf("apply migration %s: %w", version, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	return tx.Commit(ctx)
}

// listSQLFiles 递归找出 .sql 文件（不区分大小写），按文件名而不是路径排序。
func listSQLFiles(fsys fs.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && strings.EqualFold(path.Ext(p), ".sql") {
			files = append(files, p)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(files, func(a, b string) int { return strings.Compare(path.Base(a), path.Base(b)) })
	return files, nil
}

func resolveSource(opts Options) (fs.FS, string, error) {
	dir := strings.TrimSpace(opts.Dir)
	switch {
	case dir != "":
		dir = filepath.Clean(dir)
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			return nil, "", fmt.Errorf("migrations dir not found: %s", dir)
		}
		return os.DirFS(dir), dir, nil
	case opts.FS != nil:
		return opts.FS, "embedded", nil
	default:
		return nil, "", errors.New("migrate: neither Dir nor FS set")
	}
}

package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
)

type SqlCommons interface {
	GetTable(...interface{}) string
}

type ConnectConfig interface {
	FormatDSN() string
}

// SqlProvider 一个主库加若干只读副本，副本轮询使用
type SqlProvider struct {
	master   *sqlx.DB
	replicas []*sqlx.DB
	next     atomic.Uint64
}

type TransactionKey struct{}

func (s *SqlProvider) GetTxFromCtx(ctx context.Context) *sqlx.Tx {
	if driver, ok := ctx.Value(TransactionKey{}).(*sqlx.Tx); ok {
		return driver
	}
	return nil
}

func (s *SqlProvider) GetMaster() *sqlx.DB {
	return s.master
}

func (s *SqlProvider) GetReplica() *sqlx.DB {
	n := s.next.Add(1)
	return s.replicas[n%uint64(len(s.replicas))]
}

// Transaction 在 ctx 中开启事务，嵌套调用复用外层事务
// next 返回错误或 panic 时回滚
func (s *SqlProvider) Transaction(ctx context.Context, next func(ctx context.Context) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if s.GetTxFromCtx(ctx) != nil {
		return next(ctx)
	}

	tx, err := s.master.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction, %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("transaction rolled back", slog.Any("recover", r))
			_ = tx.Rollback()
			panic(r)
		}
		if err != nil {
			slog.Warn("transaction rolled back", slog.String("error", err.Error()))
			_ = tx.Rollback()
		}
	}()

	if err = next(context.WithValue(ctx, TransactionKey{}, tx)); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SqlProvider) Close() error {
	seen := map[*sqlx.DB]bool{s.master: true}
	err := s.master.Close()
	for _, r := range s.replicas {
		if seen[r] {
			continue
		}
		seen[r] = true
		if cerr := r.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// MustSetupProvider 没有配置副本时读写都走主库
func MustSetupProvider(m ConnectConfig, s ...ConnectConfig) *SqlProvider {
	provider := &SqlProvider{
		master: sqlx.MustOpen("postgres", m.FormatDSN()),
	}

	for _, v := range s {
		provider.replicas = append(provider.replicas, sqlx.MustOpen("postgres", v.FormatDSN()))
	}
	if len(provider.replicas) == 0 {
		provider.replicas = append(provider.replicas, provider.master)
	}

	return provider
}

package sqlstore

import (
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/manuscripta/apm/app/store"
	"github.com/manuscripta/apm/pkg/register"
	"github.com/manuscripta/apm/pkg/sqlstore"
	"github.com/manuscripta/apm/pkg/types"
)

//go:embed *.sql
var CreateTableFiles embed.FS

func init() {
	sq.StatementBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

var provider = &Provider{
	stores: &Stores{},
}

func GetProvider() *Provider {
	return provider
}

type Provider struct {
	*sqlstore.SqlProvider
	stores *Stores
}

var _ store.Provider = (*Provider)(nil)

type Stores struct {
	store.ElementStore
	store.ItemStore
	store.ColumnVersionStore
	store.EdNoteStore
	store.DocStore
	store.PageStore
	store.PersonStore
	store.TranscriptionQueryStore
}

type RegisterKey struct{}

func MustSetup(m sqlstore.ConnectConfig, s ...sqlstore.ConnectConfig) func() *Provider {

	provider.SqlProvider = sqlstore.MustSetupProvider(m, s...)

	for _, f := range register.ResolveFuncHandlers[*Provider](RegisterKey{}) {
		f(provider)
	}

	return func() *Provider {
		return provider
	}
}

// Install 初始化所有数据表
func (p *Provider) Install() error {
	// 确保迁移记录表存在
	if err := p.ensureMigrationTable(); err != nil {
		return err
	}

	files, err := CreateTableFiles.ReadDir(".")
	if err != nil {
		return err
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}
		// 检查文件是否已经执行过
		if executed, err := p.isFileExecuted(file.Name()); err != nil {
			return err
		} else if executed {
			continue
		}

		sql, err := CreateTableFiles.ReadFile(file.Name())
		if err != nil {
			return err
		}

		if err = p.executeSQLFile(string(sql), file.Name()); err != nil {
			return fmt.Errorf("failed to execute %s: %w", file.Name(), err)
		}

		if err = p.markFileExecuted(file.Name()); err != nil {
			return err
		}
	}
	return nil
}

// ensureMigrationTable 确保迁移记录表存在
func (p *Provider) ensureMigrationTable() error {
	createTableSQL := `
CREATE TABLE IF NOT EXISTS ` + types.TABLE_PREFIX + `schema_migrations (
    filename VARCHAR(255) PRIMARY KEY,
    executed_at BIGINT NOT NULL
);`
	_, err := p.SqlProvider.GetMaster().Exec(createTableSQL)
	return err
}

// isFileExecuted 检查文件是否已经执行过
func (p *Provider) isFileExecuted(filename string) (bool, error) {
	var count int
	err := p.SqlProvider.GetReplica().Get(&count,
		"SELECT COUNT(*) FROM "+types.TABLE_PREFIX+"schema_migrations WHERE filename = $1", filename)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// markFileExecuted 标记文件为已执行
func (p *Provider) markFileExecuted(filename string) error {
	_, err := p.SqlProvider.GetMaster().Exec(
		"INSERT INTO "+types.TABLE_PREFIX+"schema_migrations (filename, executed_at) VALUES ($1, $2) ON CONFLICT (filename) DO NOTHING",
		filename, time.Now().Unix())
	return err
}

func (p *Provider) executeSQLFile(content, filename string) error {
	slog.Info("execute migration", slog.String("file", filename))
	_, err := p.SqlProvider.GetMaster().Exec(content)
	return err
}

func (p *Provider) ElementStore() store.ElementStore {
	return p.stores.ElementStore
}

func (p *Provider) ItemStore() store.ItemStore {
	return p.stores.ItemStore
}

func (p *Provider) ColumnVersionStore() store.ColumnVersionStore {
	return p.stores.ColumnVersionStore
}

func (p *Provider) EdNoteStore() store.EdNoteStore {
	return p.stores.EdNoteStore
}

func (p *Provider) DocStore() store.DocStore {
	return p.stores.DocStore
}

func (p *Provider) PageStore() store.PageStore {
	return p.stores.PageStore
}

func (p *Provider) PersonStore() store.PersonStore {
	return p.stores.PersonStore
}

func (p *Provider) TranscriptionQueryStore() store.TranscriptionQueryStore {
	return p.stores.TranscriptionQueryStore
}

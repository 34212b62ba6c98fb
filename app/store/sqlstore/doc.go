package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/manuscripta/apm/pkg/register"
	"github.com/manuscripta/apm/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.DocStore = NewDocStore(provider)
	})
}

type DocStore struct {
	CommonFields
}

// NewDocStore
func NewDocStore(provider SqlProviderAchieve) *DocStore {
	repo := &DocStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_DOCS)
	repo.SetAllColumns("id", "title", "short_title", "lang", "doc_type", "legacy_id", "created_at")
	return repo
}

// Create
func (s *DocStore) Create(ctx context.Context, data types.Doc) (int64, error) {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns("title", "short_title", "lang", "doc_type", "legacy_id", "created_at").
		Values(data.Title, data.ShortTitle, data.Lang, data.DocType, data.LegacyID, data.CreatedAt).
		Suffix("RETURNING id")

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var id int64
	if err = s.GetMaster(ctx).QueryRowx(queryString, args...).Scan(&id); err != nil {
		return 0, wrapWriteError(err)
	}
	return id, nil
}

// Get
func (s *DocStore) Get(ctx context.Context, id int64) (*types.Doc, error) {
	return s.get(ctx, sq.Eq{"id": id})
}

func (s *DocStore) GetByLegacyID(ctx context.Context, legacyID string) (*types.Doc, error) {
	return s.get(ctx, sq.Eq{"legacy_id": legacyID})
}

func (s *DocStore) get(ctx context.Context, where sq.Eq) (*types.Doc, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(where)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.Doc
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/manuscripta/apm/pkg/register"
	"github.com/manuscripta/apm/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.TranscriptionQueryStore = NewTranscriptionQueryStore(provider)
	})
}

// TranscriptionQueryStore 条目、元素与页面的连接查询
type TranscriptionQueryStore struct {
	CommonFields
}

func NewTranscriptionQueryStore(provider SqlProviderAchieve) *TranscriptionQueryStore {
	repo := &TranscriptionQueryStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_ITEMS)
	repo.SetAllColumns(
		"i.id", "i.type", "i.seq", "i.lang", "i.hand_id", "i.text", "i.alt_text", "i.extra_info", "i.length", "i.target",
		"i.ce_id", "e.type AS e_type", "e.seq AS e_seq", "e.lang AS e_lang", "e.hand_id AS e_hand_id",
		"e.reference AS e_reference", "e.placement AS e_placement", "e.column_number", "e.page_id",
		"p.seq AS p_seq", "p.foliation", "p.doc_id",
	)
	return repo
}

// rows 基础连接查询，条目与元素都在 t 时有效
func (s *TranscriptionQueryStore) rows(t time.Time) sq.SelectBuilder {
	return sq.Select(s.GetAllColumns()...).
		From(s.GetTable()+" i").
		Join(types.TABLE_ELEMENTS.Name()+" e ON e.id = i.ce_id").
		Join(types.TABLE_PAGES.Name()+" p ON p.id = e.page_id").
		Where(validAt("i", t)).
		Where(validAt("e", t)).
		OrderBy("p.seq ASC", "e.column_number ASC", "e.seq ASC", "i.seq ASC")
}

func (s *TranscriptionQueryStore) selectRows(ctx context.Context, query sq.SelectBuilder) ([]types.ItemStreamRow, error) {
	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.ItemStreamRow
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *TranscriptionQueryStore) ListChunkMarks(ctx context.Context, filter types.ChunkMarkFilter, t time.Time) ([]types.ChunkMarkRow, error) {
	query := s.rows(t).Where(sq.Eq{"i.type": types.ITEM_CHUNK_MARK})
	if filter.WorkID != "" {
		query = query.Where(sq.Eq{"i.text": filter.WorkID})
	}
	if filter.ChunkNumber > 0 {
		query = query.Where(sq.Eq{"i.target": filter.ChunkNumber})
	}
	if filter.DocID > 0 {
		query = query.Where(sq.Eq{"p.doc_id": filter.DocID})
	}
	if filter.WitnessLocalID != "" {
		if filter.WitnessLocalID == types.DEFAULT_LOCAL_WITNESS_ID {
			// 旧数据没有写入本地见证编号
			query = query.Where(sq.Or{sq.Eq{"i.extra_info": filter.WitnessLocalID}, sq.Eq{"i.extra_info": ""}})
		} else {
			query = query.Where(sq.Eq{"i.extra_info": filter.WitnessLocalID})
		}
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.ChunkMarkRow
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *TranscriptionQueryStore) ListItemRowsBetween(ctx context.Context, docID int64, from, to types.ItemLocation, t time.Time) ([]types.ItemStreamRow, error) {
	query := s.rows(t).
		Where(sq.Eq{"p.doc_id": docID, "e.type": types.ELEMENT_LINE}).
		Where(sq.Expr("(p.seq, e.column_number, e.seq, i.seq) >= (?, ?, ?, ?)", from.PageSeq, from.ColumnNumber, from.ElementSeq, from.ItemSeq)).
		Where(sq.Expr("(p.seq, e.column_number, e.seq, i.seq) <= (?, ?, ?, ?)", to.PageSeq, to.ColumnNumber, to.ElementSeq, to.ItemSeq))

	return s.selectRows(ctx, query)
}

func (s *TranscriptionQueryStore) ListItemRowsBefore(ctx context.Context, pageID int64, column int, loc types.ItemLocation, t time.Time) ([]types.ItemStreamRow, error) {
	query := s.rows(t).
		Where(sq.Eq{"e.page_id": pageID, "e.column_number": column, "e.type": types.ELEMENT_LINE}).
		Where(sq.Expr("(e.seq, i.seq) < (?, ?)", loc.ElementSeq, loc.ItemSeq))

	return s.selectRows(ctx, query)
}

func (s *TranscriptionQueryStore) ListAdditionItemRows(ctx context.Context, targets []int64, t time.Time) ([]types.ItemStreamRow, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	query := s.rows(t).
		Where(sq.Eq{"i.type": types.ITEM_ADDITION}).
		Where(sq.Expr("i.target = ANY(?)", pq.Array(targets)))

	return s.selectRows(ctx, query)
}

func (s *TranscriptionQueryStore) ListReplacementElementRows(ctx context.Context, targets []int64, t time.Time) ([]types.ItemStreamRow, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	query := s.rows(t).
		Where(sq.Eq{"e.type": []types.ElementType{types.ELEMENT_ADDITION, types.ELEMENT_SUBSTITUTION}}).
		Where(sq.Expr("e.reference = ANY(?)", pq.Array(targets)))

	return s.selectRows(ctx, query)
}

func (s *TranscriptionQueryStore) ListTranscribedPages(ctx context.Context, docID int64, t time.Time) ([]types.TranscribedPage, error) {
	query := sq.Select("DISTINCT p.id AS page_id", "p.seq", "p.page_number", "p.foliation", "p.num_cols").
		From(types.TABLE_PAGES.Name() + " p").
		Join(types.TABLE_ELEMENTS.Name() + " e ON e.page_id = p.id").
		Where(sq.Eq{"p.doc_id": docID}).
		Where(validAt("e", t)).
		OrderBy("p.seq ASC")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.TranscribedPage
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

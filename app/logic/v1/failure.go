package v1

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/manuscripta/apm/app/store"
	"github.com/manuscripta/apm/pkg/errors"
	"github.com/manuscripta/apm/pkg/i18n"
	"github.com/manuscripta/apm/pkg/itemstream"
)

// IDMap 调用方提交的条目 id（可能是临时 id）到最终写入数据库的 id
type IDMap map[int64]int64

// Resolve 没有映射时返回原 id
func (m IDMap) Resolve(id int64) (int64, bool) {
	if newID, ok := m[id]; ok {
		return newID, true
	}
	return id, false
}

// invalid 输入校验失败，可恢复
func invalid(trace, message, reason string, attrs ...any) *errors.CustomizedError {
	slog.Warn("validation failed", append([]any{slog.String("trace", trace), slog.String("reason", reason)}, attrs...)...)
	return errors.New(trace, message, nil).Code(http.StatusBadRequest)
}

func notFound(trace, message string, err error) *errors.CustomizedError {
	return errors.New(trace, message, err).Code(http.StatusNotFound)
}

func isIntegrityError(err error) bool {
	return errors.Is(err, store.ErrRowDoesNotExist) ||
		errors.Is(err, store.ErrRowAlreadyExists) ||
		errors.Is(err, store.ErrInvalidTimeString) ||
		errors.Is(err, itemstream.ErrUnknownItemType) ||
		errors.Is(err, itemstream.ErrUnknownElementType)
}

// storeFailure 数据层错误一律视为致命错误；完整性错误说明数据已损坏，需要带上行信息记录下来
func storeFailure(trace string, err error, attrs ...any) *errors.CustomizedError {
	if isIntegrityError(err) {
		slog.Error("store integrity failure", append([]any{slog.String("trace", trace), slog.String("error", err.Error())}, attrs...)...)
		return errors.New(trace, i18n.ERROR_STORE_INTEGRITY, err).Code(http.StatusInternalServerError)
	}
	return errors.New(trace, i18n.ERROR_INTERNAL, err).Code(http.StatusInternalServerError)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

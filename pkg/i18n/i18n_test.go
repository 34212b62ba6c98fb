package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLang(t *testing.T) {
	l := NewLocalizer("zh-CN", "en")

	assert.Equal(t, "Document not found", l.Get("en", ERROR_DOCUMENT_NOT_FOUND))
	assert.Equal(t, "文档不存在", l.Get("zh-CN", ERROR_DOCUMENT_NOT_FOUND))
	assert.Equal(t, "Document not found", l.Get("fr", ERROR_DOCUMENT_NOT_FOUND))
	assert.Equal(t, "unknown.id", l.Get("en", "unknown.id"))
	assert.Equal(t, "unknown.id", NewLocalizer().Get("en", "unknown.id"))
}

func TestGetWithData(t *testing.T) {
	l := NewLocalizer("zh-CN", "en")

	assert.Equal(t, "Column 2 holds transcriptions, the page needs at least 2 columns",
		l.GetWithData("en", ERROR_COLUMN_IN_USE, map[string]interface{}{"MaxColumn": 2}))
	assert.Equal(t, "第 1 栏已有版本在 2021-03-01 10:00:00.000000 开始或结束",
		l.GetWithData("zh-CN", ERROR_VERSION_TIME_CONFLICT, map[string]interface{}{"Column": 1, "Time": "2021-03-01 10:00:00.000000"}))
}

package v1

import (
	"context"
)

const (
	LANGUAGE_KEY   = "__apm.accept_language"
	EDITOR_TID_KEY = "editor_tid"
)

// InjectEditorTid 请求头中声明的编辑者
func InjectEditorTid(ctx context.Context) (int64, bool) {
	val, ok := ctx.Value(EDITOR_TID_KEY).(int64)
	return val, ok && val > 0
}

func InjectLanguage(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(LANGUAGE_KEY).(string)
	return val, ok
}

package types

const (
	NO_PAGINATION = 0
)

const (
	LANGUAGE_EN_KEY = "en"
)

// DEFAULT_LANG_CODES 默认允许的转写语言，可以通过配置覆盖
var DEFAULT_LANG_CODES = []string{"ar", "he", "la", "jrb"}

const DEFAULT_TRANSCRIPTION_LANG = "la"

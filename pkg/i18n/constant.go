package i18n

var ALLOW_LANG = map[string]bool{
	"en":    true,
	"zh-CN": true,
}

const DEFAULT_LANG = "en"

const (
	ERROR_INTERNAL          = "error.internal"
	ERROR_NOT_FOUND         = "error.notfound"
	ERROR_INVALIDARGUMENT   = "error.invalidargument"
	ERROR_EXIST             = "error.exist"
	ERROR_CONFLICT          = "error.conflict"
	ERROR_UNAUTHORIZED      = "error.unauthorized"
	ERROR_TOO_MANY_REQUESTS = "error.toomanyrequests"

	ERROR_NO_LOCATIONS          = "error.transcription.no_locations"
	ERROR_DOCUMENT_NOT_FOUND    = "error.transcription.document_not_found"
	ERROR_PAGE_NOT_FOUND        = "error.transcription.page_not_found"
	ERROR_ELEMENT_NOT_FOUND     = "error.transcription.element_not_found"
	ERROR_VERSION_NOT_FOUND     = "error.transcription.version_not_found"
	ERROR_INVALID_COLUMN        = "error.transcription.invalid_column"
	ERROR_INVALID_LANGUAGE      = "error.transcription.invalid_language"
	ERROR_INVALID_EDITOR        = "error.transcription.invalid_editor"
	ERROR_EMPTY_ELEMENT         = "error.transcription.empty_element"
	ERROR_VERSION_TIME_CONFLICT = "error.transcription.version_time_conflict"
	ERROR_COLUMN_IN_USE         = "error.transcription.column_in_use"
	ERROR_STORE_INTEGRITY       = "error.store.integrity"
	ERROR_CACHE                 = "error.cache"
)

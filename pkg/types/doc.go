package types

// Doc 文档基本信息
type Doc struct {
	ID         int64  `json:"id" db:"id"`
	Title      string `json:"title" db:"title"`
	ShortTitle string `json:"short_title" db:"short_title"`
	Lang       string `json:"lang" db:"lang"`
	DocType    string `json:"doc_type" db:"doc_type"`
	LegacyID   string `json:"legacy_id" db:"legacy_id"`
	CreatedAt  int64  `json:"created_at" db:"created_at"`
}

// Page 文档页面，seq 为页面在文档中的顺序，page_number 为物理页码
type Page struct {
	ID         int64  `json:"id" db:"id"`
	DocID      int64  `json:"doc_id" db:"doc_id"`
	Seq        int    `json:"seq" db:"seq"`
	PageNumber int    `json:"page_number" db:"page_number"`
	Foliation  string `json:"foliation" db:"foliation"`
	NumCols    int    `json:"num_cols" db:"num_cols"`
	Lang       string `json:"lang" db:"lang"`
	Type       int    `json:"type" db:"type"`
	UpdatedAt  int64  `json:"updated_at" db:"updated_at"`
}

// PageSettings 页面设置更新参数，nil 表示不修改
type PageSettings struct {
	Foliation *string `json:"foliation"`
	NumCols   *int    `json:"num_cols"`
	Lang      *string `json:"lang"`
	Type      *int    `json:"type"`
}

// TranscribedPage 文档中含有转写内容的页面
type TranscribedPage struct {
	PageID     int64  `json:"page_id" db:"page_id"`
	Seq        int    `json:"seq" db:"seq"`
	PageNumber int    `json:"page_number" db:"page_number"`
	Foliation  string `json:"foliation" db:"foliation"`
	NumCols    int    `json:"num_cols" db:"num_cols"`
}

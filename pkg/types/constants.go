package types

// 条目分隔相关常量
const (
	// CHAPTER_MARK_SEPARATOR 章节标记的 text 字段由 appellation 与 title 组成
	CHAPTER_MARK_SEPARATOR = "\u001e"

	CHUNK_MARK_START = "start"
	CHUNK_MARK_END   = "end"

	// DEFAULT_LOCAL_WITNESS_ID 同一文档中只有一个见证时使用的本地编号
	DEFAULT_LOCAL_WITNESS_ID = "A"

	WITNESS_TYPE_FULL_TX = "fullTx"
)

package types

import (
	"fmt"
)

// 位置整数编码使用的固定宽度乘数
const (
	LOCATION_PAGE_FACTOR    int64 = 1_000_000_000_000
	LOCATION_COLUMN_FACTOR  int64 = 1_000_000_000
	LOCATION_ELEMENT_FACTOR int64 = 1_000_000
)

// ItemLocation 条目在文档中的位置，按 (页面顺序, 栏, 元素顺序, 条目顺序) 全序排列
type ItemLocation struct {
	DocID        int64 `json:"doc_id"`
	PageSeq      int   `json:"page_seq"`
	PageID       int64 `json:"page_id"`
	ColumnNumber int   `json:"column_number"`
	ElementSeq   int   `json:"element_seq"`
	ItemSeq      int   `json:"item_seq"`
}

// IntLocation 把位置编码为可比较的整数，只在同一文档内有意义
func (l ItemLocation) IntLocation() int64 {
	return int64(l.PageSeq)*LOCATION_PAGE_FACTOR +
		int64(l.ColumnNumber)*LOCATION_COLUMN_FACTOR +
		int64(l.ElementSeq)*LOCATION_ELEMENT_FACTOR +
		int64(l.ItemSeq)
}

func (l ItemLocation) IsSet() bool {
	return l.PageID != 0
}

// IsAfter 跨文档的位置没有顺序可言，返回错误
func (l ItemLocation) IsAfter(other ItemLocation) (bool, error) {
	if l.DocID != other.DocID {
		return false, fmt.Errorf("cannot compare locations in different documents (%d, %d)", l.DocID, other.DocID)
	}
	return l.IntLocation() > other.IntLocation(), nil
}

func (l ItemLocation) String() string {
	return fmt.Sprintf("doc %d page seq %d col %d e %d i %d", l.DocID, l.PageSeq, l.ColumnNumber, l.ElementSeq, l.ItemSeq)
}

// ChunkMarkLocation 单个 chunk 起止标记的位置
type ChunkMarkLocation struct {
	WorkID         string       `json:"work_id"`
	ChunkNumber    int          `json:"chunk_number"`
	SegmentNumber  int          `json:"segment_number"`
	DocID          int64        `json:"doc_id"`
	WitnessLocalID string       `json:"witness_local_id"`
	Type           string       `json:"type"`
	ItemID         int64        `json:"item_id"`
	Location       ItemLocation `json:"location"`
}

func (m ChunkMarkLocation) IsSet() bool {
	return m.Location.IsSet()
}

func (m ChunkMarkLocation) IntLocation() int64 {
	return m.Location.IntLocation()
}

// SegmentStatus chunk 段的有效性
type SegmentStatus int

const (
	SEGMENT_VALID                       SegmentStatus = 0
	SEGMENT_NO_CHUNK_START              SegmentStatus = 1
	SEGMENT_NO_CHUNK_END                SegmentStatus = 2
	SEGMENT_CHUNK_START_AFTER_END       SegmentStatus = 3
	SEGMENT_DUPLICATE_CHUNK_START_MARKS SegmentStatus = 4
	SEGMENT_DUPLICATE_CHUNK_END_MARKS   SegmentStatus = 5
)

var segmentStatusNames = map[SegmentStatus]string{
	SEGMENT_VALID:                       "VALID",
	SEGMENT_NO_CHUNK_START:              "NO_CHUNK_START",
	SEGMENT_NO_CHUNK_END:                "NO_CHUNK_END",
	SEGMENT_CHUNK_START_AFTER_END:       "CHUNK_START_AFTER_END",
	SEGMENT_DUPLICATE_CHUNK_START_MARKS: "DUPLICATE_CHUNK_START_MARKS",
	SEGMENT_DUPLICATE_CHUNK_END_MARKS:   "DUPLICATE_CHUNK_END_MARKS",
}

func (s SegmentStatus) String() string {
	if name, ok := segmentStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SEGMENT_STATUS_%d", int(s))
}

func (s SegmentStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SegmentStatus) UnmarshalText(b []byte) error {
	for k, v := range segmentStatusNames {
		if v == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown segment status %q", string(b))
}

// ChunkSegmentLocation 一个见证中某一段的起止标记
type ChunkSegmentLocation struct {
	Start          ChunkMarkLocation `json:"start"`
	End            ChunkMarkLocation `json:"end"`
	DuplicateStart bool              `json:"duplicate_start"`
	DuplicateEnd   bool              `json:"duplicate_end"`
}

// AddMark 记录一个标记；同一段中重复出现的标记只保留第一个，并标记重复
func (s *ChunkSegmentLocation) AddMark(mark ChunkMarkLocation) {
	switch mark.Type {
	case CHUNK_MARK_START:
		if s.Start.IsSet() {
			s.DuplicateStart = true
			return
		}
		s.Start = mark
	case CHUNK_MARK_END:
		if s.End.IsSet() {
			s.DuplicateEnd = true
			return
		}
		s.End = mark
	}
}

func (s *ChunkSegmentLocation) Status() SegmentStatus {
	switch {
	case s.DuplicateStart:
		return SEGMENT_DUPLICATE_CHUNK_START_MARKS
	case s.DuplicateEnd:
		return SEGMENT_DUPLICATE_CHUNK_END_MARKS
	case !s.Start.IsSet():
		return SEGMENT_NO_CHUNK_START
	case !s.End.IsSet():
		return SEGMENT_NO_CHUNK_END
	}
	if after, err := s.Start.Location.IsAfter(s.End.Location); err != nil || after {
		return SEGMENT_CHUNK_START_AFTER_END
	}
	return SEGMENT_VALID
}

func (s *ChunkSegmentLocation) IsValid() bool {
	return s.Status() == SEGMENT_VALID
}

// ChunkMarkFilter 查询 chunk 标记的可选条件，零值表示不过滤
type ChunkMarkFilter struct {
	WorkID         string
	ChunkNumber    int
	DocID          int64
	WitnessLocalID string
}

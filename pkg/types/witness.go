package types

import (
	"sort"
	"time"
)

// ItemStreamRow 条目、元素与页面的连接查询结果，是构建条目流的输入
type ItemStreamRow struct {
	ID        int64    `json:"id" db:"id"`
	Type      ItemType `json:"type" db:"type"`
	Seq       int      `json:"seq" db:"seq"`
	Lang      string   `json:"lang" db:"lang"`
	HandID    int      `json:"hand_id" db:"hand_id"`
	Text      string   `json:"text" db:"text"`
	AltText   string   `json:"alt_text" db:"alt_text"`
	ExtraInfo string   `json:"extra_info" db:"extra_info"`
	Length    int      `json:"length" db:"length"`
	Target    int64    `json:"target" db:"target"`

	ColumnElementID  int64       `json:"ce_id" db:"ce_id"`
	ElementType      ElementType `json:"e_type" db:"e_type"`
	ElementSeq       int         `json:"e_seq" db:"e_seq"`
	ElementLang      string      `json:"e_lang" db:"e_lang"`
	ElementHandID    int         `json:"e_hand_id" db:"e_hand_id"`
	ElementReference int64       `json:"e_reference" db:"e_reference"`
	ElementPlacement string      `json:"e_placement" db:"e_placement"`
	ColumnNumber     int         `json:"column_number" db:"column_number"`
	PageID           int64       `json:"page_id" db:"page_id"`

	PageSeq   int    `json:"p_seq" db:"p_seq"`
	Foliation string `json:"foliation" db:"foliation"`
	DocID     int64  `json:"doc_id" db:"doc_id"`
}

func (r ItemStreamRow) Location() ItemLocation {
	return ItemLocation{
		DocID:        r.DocID,
		PageSeq:      r.PageSeq,
		PageID:       r.PageID,
		ColumnNumber: r.ColumnNumber,
		ElementSeq:   r.ElementSeq,
		ItemSeq:      r.Seq,
	}
}

func (r ItemStreamRow) Item() Item {
	return Item{
		ID:              r.ID,
		Type:            r.Type,
		ColumnElementID: r.ColumnElementID,
		Seq:             r.Seq,
		Lang:            r.Lang,
		HandID:          r.HandID,
		Text:            r.Text,
		AltText:         r.AltText,
		ExtraInfo:       r.ExtraInfo,
		Length:          r.Length,
		Target:          r.Target,
	}
}

// ItemStreamRowIDs 返回所有行的条目 id
func ItemStreamRowIDs(segments ...[]ItemStreamRow) []int64 {
	var ids []int64
	for _, rows := range segments {
		for _, r := range rows {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// ChunkMarkRow chunk 标记条目及其位置
type ChunkMarkRow struct {
	ItemStreamRow
}

// Mark 把 chunk 标记条目解析为位置，缺省的本地见证编号为 A，缺省段号为 1
func (r ChunkMarkRow) Mark() ChunkMarkLocation {
	lwid := r.ExtraInfo
	if lwid == "" {
		lwid = DEFAULT_LOCAL_WITNESS_ID
	}
	segment := r.Length
	if segment <= 0 {
		segment = 1
	}
	return ChunkMarkLocation{
		WorkID:         r.Text,
		ChunkNumber:    int(r.Target),
		SegmentNumber:  segment,
		DocID:          r.DocID,
		WitnessLocalID: lwid,
		Type:           r.AltText,
		ItemID:         r.ID,
		Location:       r.Location(),
	}
}

// ChunkLocationMap workId -> chunkNumber -> docId -> localWitnessId -> segmentNumber
type ChunkLocationMap map[string]map[int]map[int64]map[string]map[int]*ChunkSegmentLocation

func (m ChunkLocationMap) Add(mark ChunkMarkLocation) {
	chunks, ok := m[mark.WorkID]
	if !ok {
		chunks = make(map[int]map[int64]map[string]map[int]*ChunkSegmentLocation)
		m[mark.WorkID] = chunks
	}
	docs, ok := chunks[mark.ChunkNumber]
	if !ok {
		docs = make(map[int64]map[string]map[int]*ChunkSegmentLocation)
		chunks[mark.ChunkNumber] = docs
	}
	witnesses, ok := docs[mark.DocID]
	if !ok {
		witnesses = make(map[string]map[int]*ChunkSegmentLocation)
		docs[mark.DocID] = witnesses
	}
	segments, ok := witnesses[mark.WitnessLocalID]
	if !ok {
		segments = make(map[int]*ChunkSegmentLocation)
		witnesses[mark.WitnessLocalID] = segments
	}
	segment, ok := segments[mark.SegmentNumber]
	if !ok {
		segment = &ChunkSegmentLocation{}
		segments[mark.SegmentNumber] = segment
	}
	segment.AddMark(mark)
}

// Segments 按段号升序返回某个见证的所有段
func (m ChunkLocationMap) Segments(workID string, chunk int, docID int64, localWitnessID string) []*ChunkSegmentLocation {
	segments := m[workID][chunk][docID][localWitnessID]
	numbers := make([]int, 0, len(segments))
	for n := range segments {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	res := make([]*ChunkSegmentLocation, 0, len(numbers))
	for _, n := range numbers {
		res = append(res, segments[n])
	}
	return res
}

// WitnessInfo 某个 chunk 在某个文档中的见证概况
type WitnessInfo struct {
	WorkID         string                        `json:"work_id"`
	ChunkNumber    int                           `json:"chunk_number"`
	DocID          int64                         `json:"doc_id"`
	LocalWitnessID string                        `json:"local_witness_id"`
	Type           string                        `json:"type"`
	Lang           string                        `json:"lang"`
	Segments       map[int]*ChunkSegmentLocation `json:"segments"`
	IsValid        bool                          `json:"is_valid"`
	ErrorCode      SegmentStatus                 `json:"error_code"`
	LastChangeTime time.Time                     `json:"last_change_time"`
}

// NewWitnessInfo 任一段无效则整个见证无效，错误码取段号最小的无效段
func NewWitnessInfo(workID string, chunk int, docID int64, localWitnessID string, segments map[int]*ChunkSegmentLocation) WitnessInfo {
	info := WitnessInfo{
		WorkID:         workID,
		ChunkNumber:    chunk,
		DocID:          docID,
		LocalWitnessID: localWitnessID,
		Type:           WITNESS_TYPE_FULL_TX,
		Segments:       segments,
		IsValid:        true,
		ErrorCode:      SEGMENT_VALID,
	}

	numbers := make([]int, 0, len(segments))
	for n := range segments {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	for _, n := range numbers {
		if status := segments[n].Status(); status != SEGMENT_VALID {
			info.IsValid = false
			info.ErrorCode = status
			break
		}
	}
	return info
}

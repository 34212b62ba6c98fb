package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	v1 "github.com/manuscripta/apm/app/logic/v1"
	"github.com/manuscripta/apm/app/response"
	"github.com/manuscripta/apm/pkg/bitemporal"
	"github.com/manuscripta/apm/pkg/types"
	"github.com/manuscripta/apm/pkg/utils"
)

type ColumnUri struct {
	PageID int64 `uri:"pageid" binding:"required"`
	Column int   `uri:"col" binding:"required,min=1"`
}

type GetColumnElementsRequest struct {
	TimeStamp string `json:"timestamp" form:"timestamp"`
}

type GetColumnElementsResponse struct {
	Elements  []types.Element `json:"elements"`
	EdNotes   []types.EdNote  `json:"ednotes"`
	TimeStamp string          `json:"timestamp"`
}

func (s *HttpSrv) GetColumnElements(c *gin.Context) {
	var (
		err error
		uri ColumnUri
		req GetColumnElementsRequest
	)
	if err = bindUri(c, &uri); err != nil {
		response.APIError(c, err)
		return
	}
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	t, err := parseTimestamp("api.GetColumnElements.timestamp", req.TimeStamp)
	if err != nil {
		response.APIError(c, err)
		return
	}

	elements, err := v1.NewTranscriptionLogic(c, s.Core).GetColumnElements(uri.PageID, uri.Column, t)
	if err != nil {
		response.APIError(c, err)
		return
	}

	itemIDs := lo.FlatMap(elements, func(e types.Element, _ int) []int64 { return e.ItemIDs() })
	notes, err := v1.NewEdNoteLogic(c, s.Core).GetEditorialNotesByItemIDs(itemIDs)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, GetColumnElementsResponse{
		Elements:  elements,
		EdNotes:   notes,
		TimeStamp: bitemporal.FormatTime(t),
	})
}

type VersionInfoRequest struct {
	Description string `json:"description" binding:"max=1024"`
	IsMinor     bool   `json:"is_minor"`
	IsReview    bool   `json:"is_review"`
	IsPublished bool   `json:"is_published"`
}

type SaveColumnRequest struct {
	Elements    []types.Element    `json:"elements"`
	EdNotes     []types.EdNote     `json:"ednotes"`
	VersionInfo VersionInfoRequest `json:"version_info"`
}

type SaveColumnResponse struct {
	Version types.ColumnVersionInfo `json:"version"`
	IDMap   map[int64]int64         `json:"id_map"`
}

// SaveColumn 没有填写编辑者的元素和注释使用请求头中的编辑者
func (s *HttpSrv) SaveColumn(c *gin.Context) {
	var (
		err error
		uri ColumnUri
		req SaveColumnRequest
	)
	if err = bindUri(c, &uri); err != nil {
		response.APIError(c, err)
		return
	}
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	editor, _ := v1.InjectEditorTid(c)
	for i := range req.Elements {
		if req.Elements[i].EditorTid == 0 {
			req.Elements[i].EditorTid = editor
		}
	}
	for i := range req.EdNotes {
		if req.EdNotes[i].AuthorTid == 0 {
			req.EdNotes[i].AuthorTid = editor
		}
	}

	ids, version, err := v1.NewTranscriptionLogic(c, s.Core).SaveColumn(uri.PageID, uri.Column, req.Elements, req.EdNotes, types.ColumnVersionInfo{
		AuthorTid:   editor,
		Description: req.VersionInfo.Description,
		IsMinor:     req.VersionInfo.IsMinor,
		IsReview:    req.VersionInfo.IsReview,
		IsPublished: req.VersionInfo.IsPublished,
	})
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, SaveColumnResponse{
		Version: version,
		IDMap:   ids,
	})
}

type GetColumnVersionsRequest struct {
	Num int `json:"num" form:"num" binding:"min=0"`
}

func (s *HttpSrv) GetColumnVersions(c *gin.Context) {
	var (
		err error
		uri ColumnUri
		req GetColumnVersionsRequest
	)
	if err = bindUri(c, &uri); err != nil {
		response.APIError(c, err)
		return
	}
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, err := v1.NewColumnVersionLogic(c, s.Core).GetColumnVersionInfoByPageCol(uri.PageID, uri.Column, req.Num)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, list)
}

type VersionUri struct {
	ID int64 `uri:"id" binding:"required"`
}

func (s *HttpSrv) PublishVersion(c *gin.Context) {
	var uri VersionUri
	if err := bindUri(c, &uri); err != nil {
		response.APIError(c, err)
		return
	}
	if err := v1.NewColumnVersionLogic(c, s.Core).PublishVersion(uri.ID); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

func (s *HttpSrv) UnPublishVersion(c *gin.Context) {
	var uri VersionUri
	if err := bindUri(c, &uri); err != nil {
		response.APIError(c, err)
		return
	}
	if err := v1.NewColumnVersionLogic(c, s.Core).UnPublishVersion(uri.ID); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

type GetRecentVersionsRequest struct {
	Limit uint64 `json:"limit" form:"limit" binding:"max=200"`
}

func (s *HttpSrv) GetRecentVersions(c *gin.Context) {
	var req GetRecentVersionsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	if req.Limit == 0 {
		req.Limit = 20
	}

	list, err := v1.NewColumnVersionLogic(c, s.Core).GetRecentVersions(req.Limit)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, list)
}

type ElementUri struct {
	ID int64 `uri:"id" binding:"required"`
}

func (s *HttpSrv) DeleteElement(c *gin.Context) {
	var uri ElementUri
	if err := bindUri(c, &uri); err != nil {
		response.APIError(c, err)
		return
	}
	if err := v1.NewTranscriptionLogic(c, s.Core).DeleteElement(uri.ID, bitemporal.Now()); err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/manuscripta/apm/app/logic/v1"
	"github.com/manuscripta/apm/app/response"
	"github.com/manuscripta/apm/pkg/itemstream"
	"github.com/manuscripta/apm/pkg/types"
	"github.com/manuscripta/apm/pkg/utils"
)

type ChunkUri struct {
	WorkID string `uri:"workid" binding:"required,max=64"`
	Chunk  int    `uri:"chunk" binding:"required,min=1"`
}

type TimeStampRequest struct {
	TimeStamp string `json:"timestamp" form:"timestamp"`
}

func (s *HttpSrv) GetWitnessesForChunk(c *gin.Context) {
	var (
		err error
		uri ChunkUri
		req TimeStampRequest
	)
	if err = bindUri(c, &uri); err != nil {
		response.APIError(c, err)
		return
	}
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	t, err := parseTimestamp("api.GetWitnessesForChunk.timestamp", req.TimeStamp)
	if err != nil {
		response.APIError(c, err)
		return
	}

	list, err := v1.NewTranscriptionLogic(c, s.Core).GetWitnessesForChunk(uri.WorkID, uri.Chunk, t)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, list)
}

type WitnessUri struct {
	ChunkUri
	DocID          int64  `uri:"docid" binding:"required"`
	LocalWitnessID string `uri:"lwid" binding:"required,max=8"`
}

type GetTranscriptionWitnessRequest struct {
	TimeStamp string `json:"timestamp" form:"timestamp"`
	Lang      string `json:"lang" form:"lang" binding:"omitempty,apmlang"`
}

type GetTranscriptionWitnessResponse struct {
	*v1.TranscriptionWitness
	Items []itemstream.Entry `json:"items"`
}

func (s *HttpSrv) GetTranscriptionWitness(c *gin.Context) {
	var (
		err error
		uri WitnessUri
		req GetTranscriptionWitnessRequest
	)
	if err = bindUri(c, &uri); err != nil {
		response.APIError(c, err)
		return
	}
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	witness, err := v1.NewTranscriptionLogic(c, s.Core).GetTranscriptionWitness(uri.WorkID, uri.Chunk, uri.DocID, uri.LocalWitnessID, req.TimeStamp, req.Lang)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, GetTranscriptionWitnessResponse{
		TranscriptionWitness: witness,
		Items:                witness.Stream.Items(),
	})
}

type DocUri struct {
	DocID int64 `uri:"docid" binding:"required"`
}

func (s *HttpSrv) GetDocInfo(c *gin.Context) {
	var uri DocUri
	if err := bindUri(c, &uri); err != nil {
		response.APIError(c, err)
		return
	}
	doc, err := v1.NewPageLogic(c, s.Core).GetDocInfo(uri.DocID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, doc)
}

func (s *HttpSrv) GetDocChunkMap(c *gin.Context) {
	var (
		err error
		uri DocUri
		req TimeStampRequest
	)
	if err = bindUri(c, &uri); err != nil {
		response.APIError(c, err)
		return
	}
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	t, err := parseTimestamp("api.GetDocChunkMap.timestamp", req.TimeStamp)
	if err != nil {
		response.APIError(c, err)
		return
	}

	m, err := v1.NewTranscriptionLogic(c, s.Core).GetChunkLocationMapForDoc(uri.DocID, t)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, m)
}

func (s *HttpSrv) GetTranscribedPages(c *gin.Context) {
	var uri DocUri
	if err := bindUri(c, &uri); err != nil {
		response.APIError(c, err)
		return
	}
	if _, err := v1.NewPageLogic(c, s.Core).GetDocInfo(uri.DocID); err != nil {
		response.APIError(c, err)
		return
	}

	list, err := v1.NewTranscriptionLogic(c, s.Core).GetTranscribedPages(uri.DocID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, list)
}

type PageUri struct {
	PageID int64 `uri:"pageid" binding:"required"`
}

type UpdatePageSettingsRequest struct {
	Foliation *string `json:"foliation" binding:"omitempty,max=32"`
	NumCols   *int    `json:"num_cols" binding:"omitempty,min=1"`
	Lang      *string `json:"lang" binding:"omitempty,apmlang"`
	Type      *int    `json:"type"`
}

func (s *HttpSrv) UpdatePageSettings(c *gin.Context) {
	var (
		err error
		uri PageUri
		req UpdatePageSettingsRequest
	)
	if err = bindUri(c, &uri); err != nil {
		response.APIError(c, err)
		return
	}
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	err = v1.NewPageLogic(c, s.Core).UpdatePageSettings(uri.PageID, types.PageSettings{
		Foliation: req.Foliation,
		NumCols:   req.NumCols,
		Lang:      req.Lang,
		Type:      req.Type,
	})
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}

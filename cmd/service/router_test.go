package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuscripta/apm/app/core"
	"github.com/manuscripta/apm/app/store/memstore"
	"github.com/manuscripta/apm/cmd/service/handler"
	"github.com/manuscripta/apm/cmd/service/middleware"
	"github.com/manuscripta/apm/pkg/types"
)

type apiResponse struct {
	Meta struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"meta"`
	Data json.RawMessage `json:"data"`
}

type testServer struct {
	engine    *gin.Engine
	docID     int64
	pageID    int64
	editorTid int64
}

func setupServer(t *testing.T, configure ...func(*core.CoreConfig)) testServer {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	cfg := core.LoadBaseConfigFromENV()
	for _, f := range configure {
		f(&cfg)
	}
	app := core.MustSetupCore(cfg, core.WithStore(memstore.New()), core.WithCache(memstore.NewCache()))

	docID, err := app.Store().DocStore().Create(ctx, types.Doc{Title: "Vat. ebr. 343", Lang: "he"})
	require.NoError(t, err)
	pageID, err := app.Store().PageStore().Create(ctx, types.Page{DocID: docID, Seq: 1, PageNumber: 1, NumCols: 1, Lang: "he"})
	require.NoError(t, err)
	editorTid, err := app.Store().PersonStore().Create(ctx, types.Person{Name: "editor", IsUser: true})
	require.NoError(t, err)

	setupHttpRouter(&handler.HttpSrv{Core: app, Engine: app.HttpEngine()})
	return testServer{engine: app.HttpEngine(), docID: docID, pageID: pageID, editorTid: editorTid}
}

func (s testServer) do(t *testing.T, method, path string, body any, editor bool) (int, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if editor {
		req.Header.Set(middleware.EDITOR_HEADER_KEY, strconv.FormatInt(s.editorTid, 10))
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var res apiResponse
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &res)
	}
	return w.Code, res
}

func TestTranscriptionRoutes(t *testing.T) {
	s := setupServer(t)
	columnPath := fmt.Sprintf("/api/v1/pages/%d/columns/1", s.pageID)

	save := handler.SaveColumnRequest{
		Elements: []types.Element{{
			Type: types.ELEMENT_LINE,
			Lang: "he",
			Items: []types.Item{
				{Type: types.ITEM_CHUNK_MARK, Text: "AW47", Target: 1, AltText: types.CHUNK_MARK_START},
				{Type: types.ITEM_TEXT, Text: "בראשית"},
				{Type: types.ITEM_CHUNK_MARK, Text: "AW47", Target: 1, AltText: types.CHUNK_MARK_END},
			},
		}},
		VersionInfo: handler.VersionInfoRequest{Description: "initial"},
	}

	code, _ := s.do(t, http.MethodPost, columnPath+"/save", save, false)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, res := s.do(t, http.MethodPost, columnPath+"/save", save, true)
	require.Equal(t, http.StatusOK, code, string(res.Data))
	var saved handler.SaveColumnResponse
	require.NoError(t, json.Unmarshal(res.Data, &saved))
	assert.Equal(t, s.editorTid, saved.Version.AuthorTid)

	code, res = s.do(t, http.MethodGet, columnPath+"/elements", nil, false)
	require.Equal(t, http.StatusOK, code)
	var elements handler.GetColumnElementsResponse
	require.NoError(t, json.Unmarshal(res.Data, &elements))
	require.Len(t, elements.Elements, 1)
	assert.Len(t, elements.Elements[0].Items, 3)
	assert.Equal(t, s.editorTid, elements.Elements[0].EditorTid)

	code, res = s.do(t, http.MethodGet, columnPath+"/versions", nil, false)
	require.Equal(t, http.StatusOK, code)
	var versions []types.ColumnVersionInfo
	require.NoError(t, json.Unmarshal(res.Data, &versions))
	require.Len(t, versions, 1)

	code, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/versions/%d/publish", versions[0].ID), nil, true)
	assert.Equal(t, http.StatusOK, code)

	code, res = s.do(t, http.MethodGet, "/api/v1/chunks/AW47/1/witnesses", nil, false)
	require.Equal(t, http.StatusOK, code)
	var witnesses []types.WitnessInfo
	require.NoError(t, json.Unmarshal(res.Data, &witnesses))
	require.Len(t, witnesses, 1)
	assert.True(t, witnesses[0].IsValid)

	code, res = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/chunks/AW47/1/witness/%d/A", s.docID), nil, false)
	require.Equal(t, http.StatusOK, code)
	var witness struct {
		PlainText string `json:"plain_text"`
		Lang      string `json:"lang"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &witness))
	assert.Equal(t, "בראשית", witness.PlainText)
	assert.Equal(t, "he", witness.Lang)

	code, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/chunks/AW47/2/witness/%d/A", s.docID), nil, false)
	assert.Equal(t, http.StatusNotFound, code)

	code, res = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/docs/%d/pages", s.docID), nil, false)
	require.Equal(t, http.StatusOK, code)
	var pages []types.TranscribedPage
	require.NoError(t, json.Unmarshal(res.Data, &pages))
	assert.Len(t, pages, 1)

	code, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/docs/%d/chunkmap", s.docID), nil, false)
	assert.Equal(t, http.StatusOK, code)
}

func TestPageSettingsRoute(t *testing.T) {
	s := setupServer(t)
	path := fmt.Sprintf("/api/v1/pages/%d/settings", s.pageID)

	code, _ := s.do(t, http.MethodPut, path, map[string]any{"lang": "xx"}, true)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPut, path, map[string]any{"lang": "ar", "num_cols": 2}, true)
	assert.Equal(t, http.StatusOK, code)

	save := handler.SaveColumnRequest{
		Elements:    []types.Element{{Type: types.ELEMENT_LINE, Lang: "ar", Items: []types.Item{{Type: types.ITEM_TEXT, Text: "بسم"}}}},
		VersionInfo: handler.VersionInfoRequest{Description: "second column"},
	}
	code, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/pages/%d/columns/2/save", s.pageID), save, true)
	require.Equal(t, http.StatusOK, code)

	code, res := s.do(t, http.MethodPut, path, map[string]any{"num_cols": 1}, true)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Column 2 holds transcriptions, the page needs at least 2 columns", res.Meta.Message)

	code, _ = s.do(t, http.MethodPut, "/api/v1/pages/abc/settings", map[string]any{}, true)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/metrics", nil, false)
	assert.Equal(t, http.StatusOK, code)
}

func TestWriteRateLimit(t *testing.T) {
	s := setupServer(t, func(cfg *core.CoreConfig) {
		cfg.Transcription.SaveLimit = 1
	})
	path := fmt.Sprintf("/api/v1/pages/%d/settings", s.pageID)

	for i := 0; i < 2; i++ {
		code, _ := s.do(t, http.MethodPut, path, map[string]any{"foliation": "1r"}, true)
		assert.Equal(t, http.StatusOK, code)
	}
	code, _ := s.do(t, http.MethodPut, path, map[string]any{"foliation": "1r"}, true)
	assert.Equal(t, http.StatusTooManyRequests, code)

	// 读接口不限流
	code, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/docs/%d/pages", s.docID), nil, false)
	assert.Equal(t, http.StatusOK, code)
}

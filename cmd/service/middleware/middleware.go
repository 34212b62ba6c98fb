package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/manuscripta/apm/app/core"
	v1 "github.com/manuscripta/apm/app/logic/v1"
	"github.com/manuscripta/apm/app/response"
	"github.com/manuscripta/apm/pkg/errors"
	"github.com/manuscripta/apm/pkg/i18n"
	"github.com/manuscripta/apm/pkg/safe"
	"github.com/manuscripta/apm/pkg/types"
	"github.com/manuscripta/apm/pkg/utils"
)

func I18n() gin.HandlerFunc {
	var allowList []string
	for k := range i18n.ALLOW_LANG {
		allowList = append(allowList, k)
	}
	l := i18n.NewLocalizer(allowList...)

	return response.ProvideResponseLocalizer(l)
}

// AcceptLanguage 目前服务端支持 en: English, zh-CN: 简体中文
func AcceptLanguage() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tag := utils.PreferredLanguage(ctx.Request.Header.Get("Accept-Language"))
		ctx.Set(v1.LANGUAGE_KEY, lo.If(strings.HasPrefix(tag, "zh"), "zh-CN").Else(types.LANGUAGE_EN_KEY))
	}
}

const EDITOR_HEADER_KEY = "X-Editor-Tid"

// Editor 解析请求头中的编辑者 tid，是否为真实用户由写入逻辑校验
func Editor() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(EDITOR_HEADER_KEY)
		if raw == "" {
			return
		}
		tid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || tid <= 0 {
			response.APIError(c, errors.New("middleware.Editor.ParseInt", i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest))
			return
		}
		c.Set(v1.EDITOR_TID_KEY, tid)
	}
}

// RequireEditor 写操作必须带上编辑者
func RequireEditor(c *gin.Context) {
	if _, ok := v1.InjectEditorTid(c); !ok {
		response.APIError(c, errors.New("middleware.RequireEditor", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized))
	}
}

// UseLimit 按编辑者限流，需放在 RequireEditor 之后
func UseLimit(appCore *core.Core, operation string, opts ...core.LimitOption) gin.HandlerFunc {
	return func(c *gin.Context) {
		tid, _ := v1.InjectEditorTid(c)
		if !appCore.UseLimiter(strconv.FormatInt(tid, 10), operation, opts...).Allow() {
			response.APIError(c, errors.New("middleware.limiter", i18n.ERROR_TOO_MANY_REQUESTS, nil).Code(http.StatusTooManyRequests))
		}
	}
}

// Metrics 记录接口耗时与错误数，api 使用路由模板避免 label 过多
func Metrics(core *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		api := c.FullPath()
		if api == "" {
			api = "unknown"
		}
		timer := core.Metrics().ApiResponseTimer(api)
		c.Next()
		timer.ObserveDuration()

		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			core.Metrics().ApiErrorInc(c.Request.Method, api, status)
		}
	}
}

// Recovery handler 中的 panic 以 500 返回
func Recovery(c *gin.Context) {
	if err := safe.Run("http "+c.Request.Method+" "+c.FullPath(), c.Next); err != nil {
		response.APIError(c, errors.New("middleware.Recovery", i18n.ERROR_INTERNAL, err).Code(http.StatusInternalServerError))
	}
}

func Cors(c *gin.Context) {
	method := c.Request.Method
	origin := c.Request.Header.Get("Origin")
	if origin != "" {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Header("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, "+EDITOR_HEADER_KEY)
		c.Header("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers, Cache-Control, Content-Language, Content-Type")
		c.Header("Access-Control-Allow-Credentials", "true")
	}
	if method == "OPTIONS" {
		c.AbortWithStatus(http.StatusNoContent)
	}
	c.Next()
}

package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/manuscripta/apm/app/core"
	"github.com/manuscripta/apm/pkg/bitemporal"
	"github.com/manuscripta/apm/pkg/errors"
	"github.com/manuscripta/apm/pkg/i18n"
)

// HttpSrv HTTP服务结构
type HttpSrv struct {
	Core   *core.Core
	Engine *gin.Engine
}

// bindUri 路径参数
func bindUri(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindUri(req); err != nil {
		return errors.New(fmt.Sprintf("Gin.ShouldBindUri.%s", c.FullPath()), i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest)
	}
	return nil
}

// parseTimestamp 为空时使用当前时间
func parseTimestamp(trace, s string) (time.Time, error) {
	t, err := bitemporal.ParseTimeOrNow(s)
	if err != nil {
		return t, errors.New(trace, i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest)
	}
	return t, nil
}

package utils

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/holdno/snowFlakeByGo"
	"golang.org/x/text/language"

	"github.com/manuscripta/apm/pkg/errors"
	"github.com/manuscripta/apm/pkg/i18n"
)

var (
	// idWorker 编辑注释、栏版本与请求 id 的生成器
	idWorker *snowFlakeByGo.Worker
)

func init() {
	// 未调用 SetupIDWorker 时（例如测试中）使用 0 号集群
	idWorker, _ = snowFlakeByGo.NewWorker(0)
}

func SetupIDWorker(clusterID int64) {
	idWorker, _ = snowFlakeByGo.NewWorker(clusterID)
}

// GenUniqID 用于编辑注释与栏版本，条目和元素的 id 由数据库序列生成
func GenUniqID() int64 {
	return idWorker.GetId()
}

func GenRequestID() string {
	return strconv.FormatInt(GenUniqID(), 36)
}

func BindArgsWithGin(c *gin.Context, req interface{}) error {
	err := c.ShouldBindWith(req, binding.Default(c.Request.Method, c.ContentType()))
	if err != nil {
		return errors.New(fmt.Sprintf("Gin.ShouldBindWith.%s.%s", c.Request.Method, c.Request.URL.Path), i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest)
	}
	return nil
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeWhitespace 合并连续空白并去掉首尾空白
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// PreferredLanguage 返回 Accept-Language 中权重最高的语言，无法解析时返回空字符串
func PreferredLanguage(header string) string {
	if header == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	return tags[0].String()
}

package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/manuscripta/apm/app/core"
)

// RegisterValidators 注册 apmlang 校验规则：语言必须在配置的列表中
func RegisterValidators(core *core.Core) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("apmlang", func(fl validator.FieldLevel) bool {
		return core.Cfg().Transcription.IsValidLang(fl.Field().String())
	})
}

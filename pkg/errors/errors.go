package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

type CustomizedError struct {
	cause   error
	message string
	trace   []string
	wrap    error
	code    int
	data    map[string]interface{}
	// 提示语模板参数
	tmpl map[string]interface{}
}

func (e *CustomizedError) WithData(data map[string]interface{}) *CustomizedError {
	e.data = data
	return e
}

// WithTemplate 本地化提示语时使用的模板参数
func (e *CustomizedError) WithTemplate(data map[string]interface{}) *CustomizedError {
	e.tmpl = data
	return e
}

func (e *CustomizedError) TemplateData() map[string]interface{} {
	return e.tmpl
}

func (e *CustomizedError) Code(c int) *CustomizedError {
	e.code = c
	return e
}

func (e *CustomizedError) GetCode() int {
	return e.code
}

func New(trace, message string, err error) *CustomizedError {
	code := http.StatusInternalServerError
	return &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
		code:    code,
	}
}

func (e *CustomizedError) Trace(trace string) *CustomizedError {
	e.trace = append(e.trace, trace)
	return e
}

func Wrap(err error, trace, message string) *CustomizedError {
	ce := &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
		wrap:    err,
	}
	if income, ok := err.(*CustomizedError); ok {
		ce.code = income.code
	}
	return ce
}

func Trace(trace string, err error) *CustomizedError {
	if ce, ok := err.(*CustomizedError); ok {
		ce.trace = append(ce.trace, trace)
		return ce
	}
	return Wrap(err, trace, err.Error())
}

// Unwrap 使 errors.Is / errors.As 可以穿透到原始错误
func (e *CustomizedError) Unwrap() error {
	if e.wrap != nil {
		return e.wrap
	}
	return e.cause
}

func (e *CustomizedError) Data() map[string]interface{} {
	return e.data
}

// CodeOf 返回错误链上第一个 CustomizedError 的 code，普通错误视为 500
func CodeOf(err error) int {
	var ce *CustomizedError
	if stderrors.As(err, &ce) && ce.code != 0 {
		return ce.code
	}
	return http.StatusInternalServerError
}

// Is 转发到标准库，避免调用方同时引入两个 errors 包
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func (e *CustomizedError) Message() string {
	if e.message == "" && e.cause != nil {
		return e.cause.Error()
	}
	return e.message
}

func (e *CustomizedError) Error() string {
	otherDetails := `""`
	if ce, ok := e.wrap.(*CustomizedError); ok {
		otherDetails = ce.Error()
	} else if e.wrap != nil {
		otherDetails = fmt.Sprint("\"", e.wrap.Error(), "\"")
	}
	return fmt.Sprintf(`{"trace":"%s","code":%d,"msg":"%s","error":"%v","wrapd":%s}`, strings.Join(e.trace, "->"), e.code, e.message, e.cause, otherDetails)
}

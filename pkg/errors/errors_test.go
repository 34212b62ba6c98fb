package errors_test

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/manuscripta/apm/pkg/errors"
)

func Test_CustomizedErrorChain(t *testing.T) {
	err := errors.New("Store.Get", "error.notfound", sql.ErrNoRows).Code(http.StatusNotFound)
	traced := errors.Trace("Logic.Get", err)

	assert.True(t, errors.Is(traced, sql.ErrNoRows))
	assert.Equal(t, http.StatusNotFound, errors.CodeOf(traced))
	assert.Equal(t, http.StatusInternalServerError, errors.CodeOf(fmt.Errorf("plain")))
	assert.Contains(t, traced.Error(), "Store.Get->Logic.Get")

	wrapped := errors.Trace("Logic.Other", fmt.Errorf("boom: %w", sql.ErrConnDone))
	assert.True(t, errors.Is(wrapped, sql.ErrConnDone))
}

func Test_CustomizedErrorTemplate(t *testing.T) {
	err := errors.New("Logic.Check", "error.transcription.column_in_use", nil).
		WithTemplate(map[string]interface{}{"MaxColumn": 2}).
		Code(http.StatusBadRequest)
	traced := errors.Trace("Handler.Check", err)

	assert.Equal(t, map[string]interface{}{"MaxColumn": 2}, traced.TemplateData())
	assert.Nil(t, errors.New("Logic.Check", "error.notfound", nil).TemplateData())
}

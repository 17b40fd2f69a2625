package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsInnerCode(t *testing.T) {
	inner := NotFound("snip abc")
	wrapped := Wrap(inner, "delete failed")

	assert.Equal(t, CodeNotFound, GetCode(wrapped))
	assert.Equal(t, "delete failed: snip abc not found", wrapped.Error())
	assert.True(t, errors.Is(wrapped, inner))
}

func TestWrapPlainErrorIsInternal(t *testing.T) {
	err := Wrapf(errors.New("disk full"), "save %s", "book.xlsx")
	assert.Equal(t, CodeInternal, GetCode(err))
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodePersistence, fmt.Errorf("bad blob"))
	assert.True(t, HasCode(err, CodePersistence))
	assert.False(t, HasCode(nil, CodePersistence))
	assert.Equal(t, CodeUnknown, GetCode(errors.New("plain")))
}

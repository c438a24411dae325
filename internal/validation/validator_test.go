package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBad = errors.New("bad thing")

type sample struct {
	Name  string `validate:"required"`
	Limit int    `validate:"gt=0"`
	Mode  string `validate:"oneof=json bolt"`
}

func TestCheckCollectsFields(t *testing.T) {
	err := Check(sample{Mode: "redis"}, errBad)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBad)

	var ve *Error
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 3)
	assert.Contains(t, err.Error(), "sample.Name is required")
	assert.Contains(t, err.Error(), "must be one of [json bolt]")
}

func TestCheckPasses(t *testing.T) {
	assert.NoError(t, Check(sample{Name: "x", Limit: 1, Mode: "json"}, errBad))
}

func TestInvalid(t *testing.T) {
	err := Invalid(errBad, "limits", "must match columns")
	assert.ErrorIs(t, err, errBad)
	assert.Equal(t, "bad thing: limits must match columns", err.Error())
}

package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAPI(t *testing.T) {
	assert.NoError(t, ValidateAPI("http://webinos.org/api/sensors"))
	assert.Error(t, ValidateAPI(""))
	assert.Error(t, ValidateAPI("   "))
	assert.Error(t, ValidateAPI("svc@id"))
	assert.Error(t, ValidateAPI(strings.Repeat("a", MaxAPILength+1)))
}

func TestValidateMethodName(t *testing.T) {
	assert.NoError(t, ValidateMethodName("findServices"))
	assert.NoError(t, ValidateMethodName("_private2"))
	assert.Error(t, ValidateMethodName(""))
	assert.Error(t, ValidateMethodName("2fast"))
	assert.Error(t, ValidateMethodName("a.b"))
}

func TestValidateEventName(t *testing.T) {
	assert.NoError(t, ValidateEventName("configChanged"))
	assert.NoError(t, ValidateEventName("sensor:reading.v1"))
	assert.Error(t, ValidateEventName(""))
	assert.Error(t, ValidateEventName("has space"))
}

func TestValidateSize(t *testing.T) {
	assert.NoError(t, ValidateSize([]byte("abc"), 3))
	assert.Error(t, ValidateSize([]byte("abcd"), 3))
}

func TestValidateRecordText(t *testing.T) {
	assert.NoError(t, ValidateRecordText("Accel", "x"))
	assert.Error(t, ValidateRecordText(strings.Repeat("n", MaxNameLength+1), ""))
	assert.Error(t, ValidateRecordText("", strings.Repeat("d", MaxDescriptionLength+1)))
}

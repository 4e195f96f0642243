package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDPacking(t *testing.T) {
	id := newID(7, 3)
	assert.Equal(t, uint32(7), id.Index())
	assert.Equal(t, uint32(3), id.Generation())
	assert.Equal(t, "7:3", id.String())
	assert.NotEqual(t, NoID, newID(0, 1))
}

package setutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDSet(t *testing.T) {
	s := NewIDSet(3, 1, 3)
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has(1))
	assert.False(t, s.Has(2))

	s.Add(2)
	assert.Equal(t, []int64{1, 2, 3}, s.Sorted())

	assert.True(t, s.Remove(2))
	assert.False(t, s.Remove(2))
	assert.Equal(t, []int64{1, 3}, s.Sorted())
}

func TestIDSet_Nil(t *testing.T) {
	var s *IDSet
	assert.False(t, s.Has(1))
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Sorted())
}

package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconstructPath(t *testing.T) {
	// 0 <- 1 <- 3, 2 unreached
	predecessor := []int{-1, 0, -1, 1}

	assert.Equal(t, []int{0, 1, 3}, ReconstructPath(predecessor, 3, 0))
	assert.Equal(t, []int{0}, ReconstructPath(predecessor, 0, 0))
	assert.Nil(t, ReconstructPath(predecessor, 2, 0))

	// a cycle never reaches start
	assert.Nil(t, ReconstructPath([]int{-1, 2, 1}, 1, 0))
}

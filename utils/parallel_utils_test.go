package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionMap(t *testing.T) {
	{ // Bucket sizes
		histo := func(K, Np int) (h map[int]int) {
			pm := NewPartitionMap(Np, K)
			h = make(map[int]int)
			for n := 0; n < pm.ParallelDegree; n++ {
				h[pm.GetBucketDimension(n)]++
			}
			return
		}
		assert.Equal(t, map[int]int{0: 30, 1: 2}, histo(2, 32))
		assert.Equal(t, map[int]int{1: 32}, histo(32, 32))
		assert.Equal(t, map[int]int{8: 32}, histo(256, 32))
		assert.Equal(t, map[int]int{8: 1, 9: 31}, histo(287, 32))
	}
	{ // Contiguous cover of the range
		for maxIndex := 0; maxIndex < 100; maxIndex++ {
			pm := NewPartitionMap(7, maxIndex)
			next := 0
			for n := 0; n < pm.ParallelDegree; n++ {
				kMin, kMax := pm.GetBucketRange(n)
				assert.Equal(t, next, kMin)
				next = kMax
			}
			assert.Equal(t, maxIndex, next)
		}
		assert.Equal(t, 1, NewPartitionMap(0, 5).ParallelDegree)
	}
	{ // By bucket size
		pm := NewPartitionMapBySize(10, 3)
		assert.Equal(t, 4, pm.ParallelDegree)
		assert.Equal(t, [][2]int{{0, 3}, {3, 6}, {6, 8}, {8, 10}}, pm.Partitions)
		assert.Equal(t, 1, NewPartitionMapBySize(10, 0).ParallelDegree)
		assert.Equal(t, 1, NewPartitionMapBySize(3, 5).ParallelDegree)
	}
}

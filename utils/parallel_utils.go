package utils

// PartitionMap splits [0, MaxIndex) into ParallelDegree contiguous buckets
// with a maximum imbalance of one item.
type PartitionMap struct {
	MaxIndex       int
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	var (
		size      = maxIndex / ParallelDegree
		remainder = maxIndex % ParallelDegree
		start     int
	)
	// The first remainder buckets take one more item
	for n := range pm.Partitions {
		end := start + size
		if n < remainder {
			end++
		}
		pm.Partitions[n] = [2]int{start, end}
		start = end
	}
	return
}

// NewPartitionMapBySize uses as few buckets as possible while keeping every
// bucket at or below maxBucket items.
func NewPartitionMapBySize(maxIndex, maxBucket int) (pm *PartitionMap) {
	var (
		np = 1
	)
	if maxBucket > 0 && maxIndex > maxBucket {
		np = (maxIndex + maxBucket - 1) / maxBucket
	}
	return NewPartitionMap(np, maxIndex)
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetBucketDimension(bn int) int {
	kMin, kMax := pm.GetBucketRange(bn)
	return kMax - kMin
}

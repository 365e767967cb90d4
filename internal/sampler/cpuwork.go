package sampler

import (
	"github.com/jgivc/datasetgen/internal/entity"
	"github.com/jgivc/datasetgen/internal/random"
)

const (
	minWallTime = 60
	maxWallTime = 600
)

// FakeCPUWork synthesizes job timings: a wall time in [60, 600], a CPU share
// of it and the remaining IO time.
func FakeCPUWork(src *random.Source, numCPUs int) entity.CPUWork {
	if numCPUs < 1 {
		numCPUs = 1
	}

	wallTime := float64(minWallTime + src.Rand().IntN(maxWallTime-minWallTime+1))
	singleCPUTime := src.Rand().Float64() * wallTime
	cpuTime := singleCPUTime * float64(numCPUs)

	return entity.CPUWork{
		NumCPU:        numCPUs,
		WallTime:      wallTime,
		CPUTime:       cpuTime,
		SingleCPUTime: singleCPUTime,
		IOTime:        wallTime - cpuTime/float64(numCPUs),
	}
}

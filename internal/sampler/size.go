// Package sampler draws file sizes, file catalogs and job timings.
package sampler

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jgivc/datasetgen/internal/common"
	"github.com/jgivc/datasetgen/internal/random"
)

type SizeMode string

const (
	ModeBanded    SizeMode = "banded"
	ModeEmpirical SizeMode = "empirical"

	bandCount = 32
	edgeBands = 2

	inRangeBaseWeight = 0.5
	edgeWeightScale   = 0.1
)

// Names used by configurations written for the first version of the tool.
var modeAliases = map[string]SizeMode{
	"gen_random_sizes":          ModeBanded,
	"gen_in_range_random_sizes": ModeEmpirical,
}

// empiricalHistogram is an observed distribution of dataset file sizes split
// in 100 equal-width buckets between the smallest and the largest file.
var empiricalHistogram = [100]float64{
	0.0003, 0.0045, 0.0189, 0.0403, 0.0621, 0.0798, 0.0918, 0.0983, 0.1002, 0.0987,
	0.0948, 0.0893, 0.0831, 0.0765, 0.0698, 0.0633, 0.0572, 0.0515, 0.0462, 0.0414,
	0.0371, 0.0332, 0.0296, 0.0265, 0.0237, 0.0211, 0.0189, 0.0169, 0.0151, 0.0136,
	0.0122, 0.0109, 0.0098, 0.0088, 0.0079, 0.0071, 0.0064, 0.0058, 0.0053, 0.0048,
	0.0043, 0.0039, 0.0036, 0.0033, 0.0031, 0.0030, 0.0029, 0.0029, 0.0030, 0.0033,
	0.0038, 0.0044, 0.0052, 0.0062, 0.0074, 0.0088, 0.0102, 0.0116, 0.0129, 0.0141,
	0.0150, 0.0156, 0.0157, 0.0155, 0.0148, 0.0138, 0.0126, 0.0111, 0.0096, 0.0081,
	0.0066, 0.0053, 0.0042, 0.0032, 0.0024, 0.0018, 0.0014, 0.0010, 0.0008, 0.0006,
	0.0005, 0.0004, 0.0004, 0.0003, 0.0003, 0.0003, 0.0003, 0.0003, 0.0003, 0.0003,
	0.0003, 0.0003, 0.0003, 0.0002, 0.0002, 0.0002, 0.0002, 0.0002, 0.0002, 0.0002,
}

func ParseSizeMode(name string) (SizeMode, error) {
	switch mode := SizeMode(name); mode {
	case ModeBanded, ModeEmpirical:
		return mode, nil
	}

	if mode, exists := modeAliases[name]; exists {
		return mode, nil
	}

	return "", fmt.Errorf("%w: unknown size generator %q", common.ErrInvalidConfiguration, name)
}

// SampleSizes returns numFiles sizes in [minSize, maxSize] drawn with the
// given model.
func SampleSizes(src *random.Source, numFiles int, minSize, maxSize float64, mode string) ([]float64, error) {
	sizeMode, err := ParseSizeMode(mode)
	if err != nil {
		return nil, err
	}

	if numFiles < 0 {
		return nil, fmt.Errorf("%w: negative number of files %d", common.ErrInvalidConfiguration, numFiles)
	}

	if minSize < 0 || maxSize < minSize {
		return nil, fmt.Errorf("%w: bad size range [%g, %g]", common.ErrInvalidConfiguration, minSize, maxSize)
	}

	if numFiles == 0 {
		return []float64{}, nil
	}

	switch sizeMode {
	case ModeEmpirical:
		return sampleEmpirical(src, numFiles, minSize, maxSize), nil
	default:
		return sampleBanded(src, numFiles, minSize, maxSize), nil
	}
}

func sampleBanded(src *random.Source, numFiles int, minSize, maxSize float64) []float64 {
	sizes := make([]float64, numFiles)

	step := (maxSize - minSize) / bandCount
	if step == 0 {
		for i := range sizes {
			sizes[i] = minSize
		}

		return sizes
	}

	values := make([]float64, 0, bandCount+1+2*edgeBands)
	weights := make([]float64, 0, cap(values))
	for i := -edgeBands; i <= bandCount+edgeBands; i++ {
		values = append(values, minSize+float64(i)*step)

		if i >= 0 && i <= bandCount {
			weights = append(weights, inRangeBaseWeight+src.Rand().Float64())
		} else {
			weights = append(weights, edgeWeightScale*src.Rand().Float64())
		}
	}

	bands := distuv.NewCategorical(weights, src.Dist())
	for i := range sizes {
		sizes[i] = clamp(math.Round(values[int(bands.Rand())]), minSize, maxSize)
	}

	return sizes
}

func sampleEmpirical(src *random.Source, numFiles int, minSize, maxSize float64) []float64 {
	sizes := make([]float64, numFiles)

	width := (maxSize - minSize) / float64(len(empiricalHistogram))
	buckets := distuv.NewCategorical(empiricalHistogram[:], src.Dist())
	for i := range sizes {
		lo := minSize + float64(int(buckets.Rand()))*width
		sizes[i] = clamp(math.Round(lo+src.Rand().Float64()*width), minSize, maxSize)
	}

	return sizes
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

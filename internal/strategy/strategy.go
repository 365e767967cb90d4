// Package strategy holds the algorithms deciding which files are requested
// on a simulated day, how often and in which order.
package strategy

import (
	"fmt"
	"iter"
	"math"
	"sort"

	"gopkg.in/yaml.v2"

	"github.com/jgivc/datasetgen/internal/common"
	"github.com/jgivc/datasetgen/internal/entity"
	"github.com/jgivc/datasetgen/internal/random"
	"github.com/jgivc/datasetgen/internal/util"
)

const (
	NameUniform        = "uniform"
	NameHighFrequency  = "high_frequency"
	NameRecencyFocused = "recency_focused"
	NameSizeFocused    = "size_focused"

	// NoProgress is reported by strategies that do not track their position
	// inside a day.
	NoProgress Progress = -1

	// ConfiguredRequests asks GenerateDay for the budget set by Configure.
	ConfiguredRequests = -1
)

// Progress is the position inside a day in [0, 100], or NoProgress.
type Progress float64

func (p Progress) Tracked() bool {
	return p >= 0
}

// Args are strategy constructor parameters keyed by their configuration name.
type Args map[string]any

// Strategy produces the requests of one simulated day. A strategy is owned by
// a single generator and keeps state between days.
type Strategy interface {
	Name() string
	// Configure sets the request budget used when GenerateDay is called with
	// ConfiguredRequests.
	Configure(requestsPerDay int)
	// GenerateDay returns a single-use sequence of the day's requests. Every
	// call draws a fresh realization from the random source.
	GenerateDay(dayIndex, maxRequests int) iter.Seq2[entity.Request, Progress]
	Catalog() *entity.Catalog
	ToConfig() Args
}

type factory func(args Args, src *random.Source) (Strategy, error)

var registry = map[string]factory{
	NameUniform:        func(a Args, s *random.Source) (Strategy, error) { return NewUniform(a, s) },
	NameHighFrequency:  func(a Args, s *random.Source) (Strategy, error) { return NewHighFrequency(a, s) },
	NameRecencyFocused: func(a Args, s *random.Source) (Strategy, error) { return NewRecencyFocused(a, s) },
	NameSizeFocused:    func(a Args, s *random.Source) (Strategy, error) { return NewSizeFocused(a, s) },
}

// Names of the first version of the tool, still found in saved configurations.
var aliases = map[string]string{
	"RandomGenerator":       NameUniform,
	"HighFrequencyDataset":  NameHighFrequency,
	"RecencyFocusedDataset": NameRecencyFocused,
	"SizeFocusedDataset":    NameSizeFocused,
}

func canonicalName(name string) (string, error) {
	if _, exists := registry[name]; exists {
		return name, nil
	}

	if canonical, exists := aliases[name]; exists {
		return canonical, nil
	}

	return "", fmt.Errorf("%w: %q", common.ErrUnknownStrategy, name)
}

// New instantiates the named strategy.
func New(name string, args Args, src *random.Source) (Strategy, error) {
	canonical, err := canonicalName(name)
	if err != nil {
		return nil, err
	}

	return registry[canonical](args, src)
}

// Names returns the registered strategy names in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Defaults returns the constructor parameters a strategy uses when none are
// given.
func Defaults(name string) (Args, error) {
	canonical, err := canonicalName(name)
	if err != nil {
		return nil, err
	}

	switch canonical {
	case NameHighFrequency:
		return toArgs(defaultHighFrequencyParams())
	case NameRecencyFocused:
		return toArgs(defaultRecencyParams())
	case NameSizeFocused:
		return toArgs(defaultSizeFocusedParams())
	default:
		return toArgs(defaultUniformParams())
	}
}

type catalogParams struct {
	NumFiles      int     `yaml:"num_files"`
	MinFileSize   float64 `yaml:"min_file_size"`
	MaxFileSize   float64 `yaml:"max_file_size"`
	SizeGenerator string  `yaml:"size_generator_function"`
}

func defaultCatalogParams() catalogParams {
	return catalogParams{
		NumFiles:      100,
		MinFileSize:   100,
		MaxFileSize:   24000,
		SizeGenerator: "banded",
	}
}

func (p catalogParams) validate() error {
	if p.NumFiles < 1 {
		return fmt.Errorf("%w: num_files must be positive, got %d", common.ErrInvalidConfiguration, p.NumFiles)
	}

	return nil
}

// decodeArgs overlays args on the defaults already stored in params. Unknown
// keys and values of the wrong type are configuration errors.
func decodeArgs(args Args, params any) error {
	if len(args) == 0 {
		return nil
	}

	data, err := yaml.Marshal(map[string]any(args))
	if err != nil {
		return fmt.Errorf("%w: cannot encode arguments: %v", common.ErrInvalidConfiguration, err)
	}

	if err := yaml.UnmarshalStrict(data, params); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidConfiguration, err)
	}

	if err := util.CheckIntegral(map[string]any(args), params); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidConfiguration, err)
	}

	return nil
}

func toArgs(params any) (Args, error) {
	data, err := yaml.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("cannot encode parameters: %w", err)
	}

	args := Args{}
	if err := yaml.Unmarshal(data, &args); err != nil {
		return nil, fmt.Errorf("cannot decode parameters: %w", err)
	}

	return args, nil
}

func mustArgs(params any) Args {
	args, err := toArgs(params)
	if err != nil {
		panic(err)
	}

	return args
}

func validatePercentage(name string, v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%w: %s must be in [0, 100], got %g", common.ErrInvalidConfiguration, name, v)
	}

	return nil
}

// countOf returns round(total*perc/100), the size of a percentage of files.
func countOf(total int, perc float64) int {
	return int(math.Round(float64(total) * perc / 100))
}

// visibleSubset picks ceil(perc%) of ids at random, or all of them when perc
// is 0 or 100. The subset is returned in ascending order.
func visibleSubset(src *random.Source, ids []int, perc float64) []int {
	subset := make([]int, len(ids))
	copy(subset, ids)

	if perc <= 0 || perc >= 100 || len(ids) == 0 {
		return subset
	}

	n := max(1, int(math.Ceil(float64(len(ids))*perc/100)))
	src.Shuffle(subset)
	subset = subset[:n]
	sort.Ints(subset)

	return subset
}

// budget is maxRequests, or the configured budget for a negative
// maxRequests. Zero means an empty day.
func budget(maxRequests, configured int) int {
	if maxRequests >= 0 {
		return maxRequests
	}

	return max(configured, 0)
}

func progressOf(done, total int) Progress {
	if total <= 0 {
		return 100
	}

	return Progress(float64(done) / float64(total) * 100)
}

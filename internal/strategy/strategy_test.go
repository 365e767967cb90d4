package strategy

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/jgivc/datasetgen/internal/common"
	"github.com/jgivc/datasetgen/internal/entity"
	"github.com/jgivc/datasetgen/internal/random"
)

type emitted struct {
	requests []entity.Request
	progress []Progress
}

func collect(s Strategy, day, maxRequests int) emitted {
	var out emitted
	for req, p := range s.GenerateDay(day, maxRequests) {
		out.requests = append(out.requests, req)
		out.progress = append(out.progress, p)
	}

	return out
}

func requireMonotonic(t *testing.T, progress []Progress) {
	t.Helper()

	for i := 1; i < len(progress); i++ {
		require.GreaterOrEqual(t, progress[i], progress[i-1])
	}

	if len(progress) > 0 {
		require.InDelta(t, 100, float64(progress[len(progress)-1]), 1e-9)
	}
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name    string
		args    Args
		want    string
		wantErr error
	}{
		{name: NameUniform, want: NameUniform},
		{name: "RandomGenerator", want: NameUniform},
		{name: "HighFrequencyDataset", want: NameHighFrequency},
		{name: "RecencyFocusedDataset", want: NameRecencyFocused},
		{name: "SizeFocusedDataset", want: NameSizeFocused},
		{name: "zipf", wantErr: common.ErrUnknownStrategy},
		{name: NameUniform, args: Args{"num_files": 10.5}, wantErr: common.ErrInvalidConfiguration},
		{name: NameUniform, args: Args{"num_files": 0}, wantErr: common.ErrInvalidConfiguration},
		{name: NameUniform, args: Args{"num_filez": 10}, wantErr: common.ErrInvalidConfiguration},
		{name: NameUniform, args: Args{"size_generator_function": "nope"}, wantErr: common.ErrInvalidConfiguration},
		{name: NameRecencyFocused, args: Args{"perc_noise": 120}, wantErr: common.ErrInvalidConfiguration},
		{name: NameHighFrequency, args: Args{"lambda_more_req_files": -1}, wantErr: common.ErrInvalidConfiguration},
		{
			name:    NameSizeFocused,
			args:    Args{"min_file_size": 100, "max_file_size": 200, "noise_min_file_size": 150, "noise_max_file_size": 300},
			wantErr: common.ErrInvalidConfiguration,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(tc.name, tc.args, random.New(random.DefaultSeed))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.want, s.Name())
		})
	}
}

func TestUnknownStrategyIsInvalidConfiguration(t *testing.T) {
	_, err := New("zipf", nil, random.New(1))
	require.ErrorIs(t, err, common.ErrInvalidConfiguration)
}

func TestDefaultsRoundTrip(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			args, err := Defaults(name)
			require.NoError(t, err)
			require.Contains(t, args, "num_files")

			s, err := New(name, args, random.New(1))
			require.NoError(t, err)
			require.Equal(t, args, s.ToConfig())
		})
	}

	_, err := Defaults("zipf")
	require.ErrorIs(t, err, common.ErrUnknownStrategy)
}

func TestUniformScenario(t *testing.T) {
	s, err := New(NameUniform, Args{"num_files": 10, "min_file_size": 100, "max_file_size": 200}, random.New(random.DefaultSeed))
	require.NoError(t, err)

	out := collect(s, 0, 50)
	require.Len(t, out.requests, 50)

	for i, req := range out.requests {
		require.GreaterOrEqual(t, req.Filename, int64(0))
		require.LessOrEqual(t, req.Filename, int64(9))
		require.GreaterOrEqual(t, req.Size, 100.0)
		require.LessOrEqual(t, req.Size, 200.0)
		require.False(t, out.progress[i].Tracked())
	}
}

func TestConfiguredBudget(t *testing.T) {
	for _, name := range []string{NameUniform, NameRecencyFocused, NameSizeFocused} {
		t.Run(name, func(t *testing.T) {
			s, err := New(name, Args{"num_files": 10}, random.New(3))
			require.NoError(t, err)

			s.Configure(17)
			require.Len(t, collect(s, 0, ConfiguredRequests).requests, 17)
			require.Len(t, collect(s, 1, 5).requests, 5)
			require.Empty(t, collect(s, 2, 0).requests)
		})
	}
}

func TestHighFrequencyPartition(t *testing.T) {
	s, err := NewHighFrequency(Args{"num_files": 50, "perc_more_req_files": 20}, random.New(9))
	require.NoError(t, err)

	more, less := s.MoreRequested(), s.LessRequested()
	require.Len(t, more, 10)
	require.Len(t, less, 40)

	seen := make(map[int]struct{})
	for _, id := range append(more, less...) {
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
	require.Len(t, seen, 50)
}

func TestHighFrequencyDay(t *testing.T) {
	s, err := NewHighFrequency(Args{
		"num_files":             40,
		"perc_more_req_files":   25,
		"lambda_more_req_files": 20,
		"lambda_less_req_files": 0,
		"perc_files_x_day":      100,
	}, random.New(4))
	require.NoError(t, err)

	out := collect(s, 0, 1)
	require.NotEmpty(t, out.requests)
	requireMonotonic(t, out.progress)

	hot := make(map[int64]struct{})
	for _, id := range s.MoreRequested() {
		hot[int64(id)] = struct{}{}
	}

	// Less requested files draw from a zero rate and never show up.
	for _, req := range out.requests {
		_, ok := hot[req.Filename]
		require.True(t, ok)
	}
}

func TestHighFrequencyResamplesEveryDay(t *testing.T) {
	s, err := NewHighFrequency(Args{"num_files": 100}, random.New(4))
	require.NoError(t, err)

	first := collect(s, 0, 0).requests
	second := collect(s, 1, 0).requests
	require.NotEqual(t, first, second)
}

func TestRecencyFocusedLocality(t *testing.T) {
	s, err := NewRecencyFocused(Args{"num_files": 100, "perc_files_x_day": 10, "perc_noise": 0}, random.New(2))
	require.NoError(t, err)

	out := collect(s, 0, 10)
	require.Len(t, out.requests, 10)
	requireMonotonic(t, out.progress)

	window := s.Window()
	require.Len(t, window, 10)

	// Without noise one lap visits every window file exactly once.
	var ids []int
	for _, req := range out.requests {
		ids = append(ids, int(req.Filename))
	}
	require.ElementsMatch(t, window, ids)
}

func TestRecencyFocusedNoiseStaysInWindow(t *testing.T) {
	s, err := NewRecencyFocused(Args{"num_files": 60, "perc_files_x_day": 20, "perc_noise": 100}, random.New(8))
	require.NoError(t, err)

	for req := range s.GenerateDay(0, 12) {
		require.Contains(t, s.Window(), int(req.Filename))
	}
}

func TestSizeFocusedScenario(t *testing.T) {
	s, err := NewSizeFocused(Args{"num_files": 20, "perc_noise": 25}, random.New(random.DefaultSeed))
	require.NoError(t, err)

	require.Len(t, s.NormalFiles(), 15)
	require.Len(t, s.NoiseFiles(), 5)

	noise := make(map[int64]struct{})
	for _, id := range s.NoiseFiles() {
		noise[int64(id)] = struct{}{}
	}

	for day := range 3 {
		out := collect(s, day, 200)
		require.Len(t, out.requests, 200)
		requireMonotonic(t, out.progress)

		for _, req := range out.requests {
			if _, isNoise := noise[req.Filename]; isNoise {
				require.GreaterOrEqual(t, req.Size, 25000.0)
				require.LessOrEqual(t, req.Size, 48000.0)
			} else {
				require.GreaterOrEqual(t, req.Size, 100.0)
				require.LessOrEqual(t, req.Size, 24000.0)
			}
		}
	}
}

func TestSizeFocusedRoundRobin(t *testing.T) {
	s, err := NewSizeFocused(Args{"num_files": 10, "perc_noise": 0, "perc_files_x_day": 100}, random.New(6))
	require.NoError(t, err)

	counts := make(map[int64]int)
	for req := range s.GenerateDay(0, 30) {
		counts[req.Filename]++
	}

	require.Len(t, counts, 10)
	for _, c := range counts {
		require.Equal(t, 3, c)
	}
}

func TestStopPulling(t *testing.T) {
	s, err := New(NameRecencyFocused, nil, random.New(1))
	require.NoError(t, err)

	var n int
	for range s.GenerateDay(0, 100) {
		n++
		if n == 5 {
			break
		}
	}

	require.Equal(t, 5, n)
}

func TestProperty_CountTargetStrategiesEmitExactly(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	for _, name := range []string{NameRecencyFocused, NameSizeFocused} {
		properties.Property(name+" emits exactly maxRequests requests", prop.ForAll(
			func(numFiles, maxRequests int, percFiles float64, seed int64) bool {
				s, err := New(name, Args{"num_files": numFiles, "perc_files_x_day": percFiles}, random.New(seed))
				if err != nil {
					return false
				}

				var n int
				for range s.GenerateDay(0, maxRequests) {
					n++
				}

				return n == maxRequests
			},
			gen.IntRange(1, 60),
			gen.IntRange(1, 400),
			gen.Float64Range(0, 100),
			gen.Int64(),
		))
	}

	properties.TestingRun(t)
}

func TestProperty_HighFrequencyPartitionCoversCatalog(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("more and less requested files are disjoint and cover num_files", prop.ForAll(
		func(numFiles int, percMore float64) bool {
			s, err := NewHighFrequency(Args{"num_files": numFiles, "perc_more_req_files": percMore}, random.New(1))
			if err != nil {
				return false
			}

			seen := make(map[int]struct{}, numFiles)
			for _, id := range append(s.MoreRequested(), s.LessRequested()...) {
				if _, dup := seen[id]; dup {
					return false
				}
				seen[id] = struct{}{}
			}

			return len(seen) == numFiles && s.Catalog().Len() == numFiles
		},
		gen.IntRange(1, 500),
		gen.Float64Range(0, 100),
	))

	properties.TestingRun(t)
}

package stats

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jgivc/datasetgen/internal/common"
	"github.com/jgivc/datasetgen/internal/entity"
)

const (
	KeyPrefix        = "ds"
	KeyVersion1      = "v1"
	KeyVersion2      = "v2"
	KeyActiveVersion = "av"    // STRING. ds:av
	KeyDays          = "days"  // HASH. ds:days:ver date: requests
	KeyBytes         = "bytes" // HASH. ds:bytes:ver date: bytes
	KeyFiles         = "files" // HASH. ds:files:ver file_id: counter
	KeySizes         = "sizes" // HASH. ds:sizes:ver file_id: size
	KeyMeta          = "meta"  // HASH. ds:meta:ver field: value

	fieldRunID       = "run_id"
	fieldSeed        = "seed"
	fieldStrategy    = "strategy"
	fieldFingerprint = "fingerprint"
	fieldNumDays     = "num_days"
	fieldRequests    = "requests"
	fieldUniqueFiles = "unique_files"
	fieldBytes       = "bytes"

	KeyEmpty     = ""
	KeySeparator = ":"

	ScanCount = 1000
)

type statsRepository struct {
	ver atomic.Value
	cl  *redis.Client
	log *slog.Logger
}

func NewStatsRepository(ctx context.Context, cl *redis.Client, log *slog.Logger) (*statsRepository, error) {
	repo := &statsRepository{
		cl:  cl,
		log: log.With(slog.String("item", "StatsRepository")),
	}

	ver, _, err := repo.getVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot get active version: %w", err)
	}

	repo.ver.Store(ver)

	return repo, nil
}

// Save writes the run into the standby version, then makes it the active
// one. Readers keep seeing the previous run until the switch.
func (r *statsRepository) Save(ctx context.Context, meta entity.RunMeta, st entity.DatasetStats) error {
	verActive, verStandby, err := r.getVersions(ctx)
	if err != nil {
		r.log.Error("Cannot get standby data version", slog.Any("error", err))

		return fmt.Errorf("cannot get active version: %w", err)
	}
	r.log.Info("Save new data", slog.String("active_version", verActive), slog.String("standby_version", verStandby))

	if err := r.clearOldData(ctx, verStandby); err != nil {
		r.log.Error("Cannot clear old data", slog.String("version", verStandby), slog.Any("error", err))

		return fmt.Errorf("cannot clear old data: %w", err)
	}

	if err := r.saveNewData(ctx, verStandby, meta, st); err != nil {
		r.log.Error("Cannot save new data", slog.String("version", verStandby), slog.Any("error", err))

		return fmt.Errorf("cannot save new data: %w", err)
	}

	if _, err := r.cl.Set(ctx, getKey(KeyPrefix, KeyActiveVersion), verStandby, 0).Result(); err != nil {
		r.log.Error("Cannot switch to new version", slog.String("version", verStandby), slog.Any("error", err))

		return fmt.Errorf("cannot switch to new version: %w", err)
	}

	r.ver.Store(verStandby)

	return nil
}

func (r *statsRepository) saveNewData(ctx context.Context, ver string, meta entity.RunMeta, st entity.DatasetStats) error {
	log := r.log.With(slog.String("op", "saveNewData"), slog.String("version", ver))
	log.Info("Save new data", slog.Int("days", len(st.Days)), slog.Int("files", len(st.Files)))

	pipe := r.cl.Pipeline()

	pipe.HSet(ctx, getKey(KeyPrefix, KeyMeta, ver), map[string]any{
		fieldRunID:       meta.RunID,
		fieldSeed:        meta.Seed,
		fieldStrategy:    meta.Strategy,
		fieldFingerprint: meta.Fingerprint,
		fieldNumDays:     st.NumDays,
		fieldRequests:    st.Requests,
		fieldUniqueFiles: st.UniqueFiles,
		fieldBytes:       formatFloat(st.Bytes),
	})

	keyDays, keyBytes := getKey(KeyPrefix, KeyDays, ver), getKey(KeyPrefix, KeyBytes, ver)
	for _, ds := range st.Days {
		date := ds.Date.Format(time.DateOnly)
		pipe.HSet(ctx, keyDays, date, ds.Requests)
		pipe.HSet(ctx, keyBytes, date, formatFloat(ds.Bytes))
	}

	keyFiles, keySizes := getKey(KeyPrefix, KeyFiles, ver), getKey(KeyPrefix, KeySizes, ver)
	for _, fc := range st.Files {
		id := strconv.FormatInt(fc.ID, 10)
		pipe.HSet(ctx, keyFiles, id, fc.Counter)
		pipe.HSet(ctx, keySizes, id, formatFloat(fc.Size))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cannot save new data: %w", err)
	}

	return nil
}

func (r *statsRepository) clearOldData(ctx context.Context, ver string) error {
	log := r.log.With(slog.String("op", "clearOldData"), slog.String("version", ver))

	pattern := getKey(KeyPrefix, "*", ver)

	var (
		cursor       uint64
		deletedCount int64
	)

	for {
		keys, nextCursor, err := r.cl.Scan(ctx, cursor, pattern, ScanCount).Result()
		if err != nil {
			return fmt.Errorf("error scanning keys: %w", err)
		}

		if len(keys) > 0 {
			count, err := r.cl.Del(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("error deleting keys: %w", err)
			}
			deletedCount += count
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	log.Info("Clear keys", slog.String("pattern", pattern), slog.Int64("key_count", deletedCount))

	return nil
}

// getVersions returns the active and the standby versions.
func (r *statsRepository) getVersions(ctx context.Context) (string, string, error) {
	key := getKey(KeyPrefix, KeyActiveVersion)

	ver, err := r.cl.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return KeyEmpty, KeyEmpty, fmt.Errorf("cannot get active version: %w", err)
	}

	switch ver {
	case KeyVersion1:
		return KeyVersion1, KeyVersion2, nil
	case KeyVersion2:
		return KeyVersion2, KeyVersion1, nil
	}

	r.log.Info("Active version key is not found. Try to set new one", slog.String("version", KeyVersion1))

	if _, err = r.cl.Set(ctx, key, KeyVersion1, 0).Result(); err != nil {
		return KeyEmpty, KeyEmpty, fmt.Errorf("cannot set version key: %w", err)
	}

	return KeyVersion1, KeyVersion2, nil
}

func (r *statsRepository) getActiveVersion() string {
	return r.ver.Load().(string)
}

func (r *statsRepository) Meta(ctx context.Context) (entity.RunMeta, error) {
	fields, err := r.cl.HGetAll(ctx, getKey(KeyPrefix, KeyMeta, r.getActiveVersion())).Result()
	if err != nil {
		return entity.RunMeta{}, fmt.Errorf("cannot get run meta: %w", err)
	}

	if len(fields) < 1 {
		return entity.RunMeta{}, common.ErrStatsNotFound
	}

	seed, err := strconv.ParseInt(fields[fieldSeed], 10, 64)
	if err != nil {
		return entity.RunMeta{}, fmt.Errorf("cannot parse seed: %w", err)
	}

	return entity.RunMeta{
		RunID:       fields[fieldRunID],
		Seed:        seed,
		Strategy:    fields[fieldStrategy],
		Fingerprint: fields[fieldFingerprint],
	}, nil
}

// FileCounters iterates over the published per file counters in no
// particular order.
func (r *statsRepository) FileCounters(ctx context.Context) iter.Seq2[entity.FileCounter, error] {
	ver := r.getActiveVersion()

	return func(yield func(entity.FileCounter, error) bool) {
		pipe := r.cl.Pipeline()
		filesCmd := pipe.HGetAll(ctx, getKey(KeyPrefix, KeyFiles, ver))
		sizesCmd := pipe.HGetAll(ctx, getKey(KeyPrefix, KeySizes, ver))
		if _, err := pipe.Exec(ctx); err != nil {
			yield(entity.FileCounter{}, fmt.Errorf("cannot exec pipe: %w", err))

			return
		}

		sizes := sizesCmd.Val()
		for fileID, counter := range filesCmd.Val() {
			id, err := strconv.ParseInt(fileID, 10, 64)
			if err != nil {
				r.log.Error("Cannot convert file id", slog.String("file_id", fileID), slog.Any("error", err))

				continue
			}

			fc := entity.FileCounter{ID: id}

			if fc.Counter, err = strconv.ParseInt(counter, 10, 64); err != nil {
				r.log.Error("Cannot convert counter value", slog.String("file_id", fileID), slog.Any("error", err))
			}

			if size, exists := sizes[fileID]; exists {
				if fc.Size, err = strconv.ParseFloat(size, 64); err != nil {
					r.log.Error("Cannot convert size value", slog.String("file_id", fileID), slog.Any("error", err))
				}
			}

			if !yield(fc, nil) {
				return
			}
		}
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func getKey(keys ...string) string {
	return strings.Join(keys, KeySeparator)
}

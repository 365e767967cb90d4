package entity

import "time"

// DayStats summarizes one generated day.
type DayStats struct {
	Date        time.Time `yaml:"date"`
	Requests    int       `yaml:"requests"`
	UniqueFiles int       `yaml:"unique_files"`
	Bytes       float64   `yaml:"bytes"`
}

// DatasetStats summarizes every day a generator holds.
type DatasetStats struct {
	NumDays     int           `yaml:"num_days"`
	Requests    int           `yaml:"requests"`
	UniqueFiles int           `yaml:"unique_files"`
	Bytes       float64       `yaml:"bytes"`
	Days        []DayStats    `yaml:"days"`
	Files       []FileCounter `yaml:"files"` // Sorted by counter desc, id asc
}

// RunMeta identifies a generation run.
type RunMeta struct {
	RunID       string `yaml:"run_id"`
	Seed        int64  `yaml:"seed"`
	Strategy    string `yaml:"strategy"`
	Fingerprint string `yaml:"fingerprint"`
}

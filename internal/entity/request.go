package entity

import (
	"database/sql"
	"strconv"
)

// Request is one simulated access event produced by a strategy.
type Request struct {
	Filename int64
	Size     float64
	Protocol int64
}

// Record converts the request into a schema row. Every other column stays null.
func (r Request) Record() Record {
	return Record{
		Filename: valid(r.Filename),
		Size:     valid(r.Size),
		Protocol: valid(r.Protocol),
	}
}

// Record is one row of a day table. A column without a valid value is
// written as null.
type Record struct {
	Filename        sql.Null[int64]
	SiteName        sql.Null[int64]
	UserID          sql.Null[int64]
	TaskID          sql.Null[int64]
	TaskMonitorID   sql.Null[int64]
	JobID           sql.Null[int64]
	Protocol        sql.Null[int64]
	JobExecExitCode sql.Null[int64]
	JobStart        sql.Null[int64]
	JobEnd          sql.Null[int64]
	NumCPU          sql.Null[int64]
	WrapWC          sql.Null[float64]
	WrapCPU         sql.Null[float64]
	Size            sql.Null[float64]
	DataType        sql.Null[int64]
	FileType        sql.Null[int64]
	JobLengthH      sql.Null[float64]
	JobLengthM      sql.Null[float64]
	JobSuccess      sql.Null[bool]
	CPUTime         sql.Null[float64]
	IOTime          sql.Null[float64]
	ReqDay          sql.Null[int64]
	Region          sql.Null[int64]
	Campain         sql.Null[int64]
	Process         sql.Null[int64]
}

// HasCPUWork reports whether any of the CPU timing columns is set.
func (r *Record) HasCPUWork() bool {
	return r.NumCPU.Valid || r.WrapWC.Valid || r.WrapCPU.Valid || r.CPUTime.Valid || r.IOTime.Valid
}

// SetCPUWork fills the five CPU timing columns.
func (r *Record) SetCPUWork(w CPUWork) {
	r.NumCPU = valid(int64(w.NumCPU))
	r.WrapWC = valid(w.WallTime)
	r.WrapCPU = valid(w.CPUTime)
	r.CPUTime = valid(w.SingleCPUTime)
	r.IOTime = valid(w.IOTime)
}

// Values returns the row formatted in schema order.
func (r *Record) Values() []string {
	return []string{
		formatInt(r.Filename),
		formatInt(r.SiteName),
		formatInt(r.UserID),
		formatInt(r.TaskID),
		formatInt(r.TaskMonitorID),
		formatInt(r.JobID),
		formatInt(r.Protocol),
		formatInt(r.JobExecExitCode),
		formatInt(r.JobStart),
		formatInt(r.JobEnd),
		formatInt(r.NumCPU),
		formatFloat(r.WrapWC),
		formatFloat(r.WrapCPU),
		formatFloat(r.Size),
		formatInt(r.DataType),
		formatInt(r.FileType),
		formatFloat(r.JobLengthH),
		formatFloat(r.JobLengthM),
		formatBool(r.JobSuccess),
		formatFloat(r.CPUTime),
		formatFloat(r.IOTime),
		formatInt(r.ReqDay),
		formatInt(r.Region),
		formatInt(r.Campain),
		formatInt(r.Process),
	}
}

// CPUWork is the synthetic job timing attached to a record.
type CPUWork struct {
	NumCPU        int
	WallTime      float64
	CPUTime       float64
	SingleCPUTime float64
	IOTime        float64
}

func valid[T any](v T) sql.Null[T] {
	return sql.Null[T]{V: v, Valid: true}
}

// Valid wraps v as a non-null column value.
func Valid[T any](v T) sql.Null[T] {
	return valid(v)
}

func formatInt(v sql.Null[int64]) string {
	if !v.Valid {
		return ""
	}

	return strconv.FormatInt(v.V, 10)
}

// formatFloat keeps a trailing ".0" on integral values, as float columns are
// read back by consumers that infer types from the text.
func formatFloat(v sql.Null[float64]) string {
	if !v.Valid {
		return ""
	}

	s := strconv.FormatFloat(v.V, 'f', -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s
		}
	}

	return s + ".0"
}

func formatBool(v sql.Null[bool]) string {
	switch {
	case !v.Valid:
		return ""
	case v.V:
		return "True"
	default:
		return "False"
	}
}

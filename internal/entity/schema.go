package entity

type ColumnType string

const (
	ColumnInt   ColumnType = "int64"
	ColumnFloat ColumnType = "float64"
	ColumnBool  ColumnType = "bool"
)

type Column struct {
	Name string
	Type ColumnType
}

// Schema is the column layout of every persisted day. Column names and order
// are part of the output format and must match Record.Values.
var Schema = []Column{
	{"Filename", ColumnInt},
	{"SiteName", ColumnInt},
	{"UserID", ColumnInt},
	{"TaskID", ColumnInt},
	{"TaskMonitorID", ColumnInt},
	{"JobID", ColumnInt},
	{"Protocol", ColumnInt},
	{"JobExecExitCode", ColumnInt},
	{"JobStart", ColumnInt},
	{"JobEnd", ColumnInt},
	{"NumCPU", ColumnInt},
	{"WrapWC", ColumnFloat},
	{"WrapCPU", ColumnFloat},
	{"Size", ColumnFloat},
	{"DataType", ColumnInt},
	{"FileType", ColumnInt},
	{"JobLengthH", ColumnFloat},
	{"JobLengthM", ColumnFloat},
	{"JobSuccess", ColumnBool},
	{"CPUTime", ColumnFloat},
	{"IOTime", ColumnFloat},
	{"reqDay", ColumnInt},
	{"Region", ColumnInt},
	{"Campain", ColumnInt},
	{"Process", ColumnInt},
}

func Header() []string {
	names := make([]string, len(Schema))
	for i, col := range Schema {
		names[i] = col.Name
	}

	return names
}

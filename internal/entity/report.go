package entity

// TableRef points to the persisted table of one day.
type TableRef struct {
	Date     string
	Name     string
	Path     string
	Requests int
}

// Report is everything a run report shows.
type Report struct {
	Meta       RunMeta
	Stats      DatasetStats
	TopFiles   []FileCounter
	Tables     []TableRef
	DestFolder string
}

package tpladapter

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"os"
	"strconv"
	"text/template"
	"time"

	_ "embed"

	"github.com/jgivc/datasetgen/internal/entity"
)

const (
	templateNameFile  = "FILE"
	templateNameFiles = "FILES"

	funcNameFile  = "file"
	funcNameFiles = "files"
	funcNameDate  = "date"
	funcNameBytes = "bytes"
	funcNameShare = "share"
)

var (
	//go:embed templates/report.md
	defaultReportTemplate string

	//go:embed templates/page.html
	defaultPageTemplate string

	byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB"}
)

type tplAdapter struct {
	tpl    *template.Template
	page   *htmltemplate.Template
	report *entity.Report
}

// NewTplAdapter parses the report template from templateFileName, or the
// embedded one when it is empty. A custom template must define FILE and
// FILES when it calls file or files.
func NewTplAdapter(templateFileName string) (*tplAdapter, error) {
	a := &tplAdapter{}
	tpl := template.New("").Funcs(template.FuncMap{
		funcNameFile:  a.renderFile,
		funcNameFiles: a.renderFiles,
		funcNameDate:  formatDate,
		funcNameBytes: formatBytes,
		funcNameShare: a.share,
	})

	src := defaultReportTemplate
	if templateFileName != "" {
		data, err := os.ReadFile(templateFileName)
		if err != nil {
			return nil, fmt.Errorf("cannot read template: %w", err)
		}

		src = string(data)
	}

	if _, err := tpl.Parse(src); err != nil {
		return nil, fmt.Errorf("cannot parse template: %w", err)
	}

	page, err := htmltemplate.New("").Parse(defaultPageTemplate)
	if err != nil {
		return nil, fmt.Errorf("cannot parse page template: %w", err)
	}

	a.tpl = tpl
	a.page = page

	return a, nil
}

// Markdown renders the report source.
func (a *tplAdapter) Markdown(report *entity.Report) ([]byte, error) {
	a.report = report

	buf := bytes.Buffer{}
	if err := a.tpl.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("cannot execute template: %w", err)
	}

	return buf.Bytes(), nil
}

// Page wraps an HTML fragment into a standalone document.
func (a *tplAdapter) Page(title string, body []byte) ([]byte, error) {
	buf := bytes.Buffer{}

	err := a.page.Execute(&buf, struct {
		Title string
		Body  htmltemplate.HTML
	}{
		Title: title,
		Body:  htmltemplate.HTML(body),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot execute page template: %w", err)
	}

	return buf.Bytes(), nil
}

func (a *tplAdapter) lookupFile(id int64) *entity.FileCounter {
	if a.report == nil {
		return nil
	}

	for i := range a.report.TopFiles {
		if a.report.TopFiles[i].ID == id {
			return &a.report.TopFiles[i]
		}
	}

	for i := range a.report.Stats.Files {
		if a.report.Stats.Files[i].ID == id {
			return &a.report.Stats.Files[i]
		}
	}

	return nil
}

func (a *tplAdapter) renderFile(id int64) (string, error) {
	tpl := a.tpl.Lookup(templateNameFile)
	if tpl == nil {
		return "", fmt.Errorf("template %s must be defined", templateNameFile)
	}

	file := a.lookupFile(id)
	if file == nil {
		return "", fmt.Errorf("cannot find file: %d", id)
	}

	buf := bytes.Buffer{}
	if err := tpl.Execute(&buf, file); err != nil {
		return "", fmt.Errorf("cannot execute template %s: %w", templateNameFile, err)
	}

	return buf.String(), nil
}

func (a *tplAdapter) renderFiles() (string, error) {
	tpl := a.tpl.Lookup(templateNameFiles)
	if tpl == nil {
		return "", fmt.Errorf("template %s must be defined", templateNameFiles)
	}

	buf := bytes.Buffer{}
	if err := tpl.Execute(&buf, a.report.TopFiles); err != nil {
		return "", fmt.Errorf("cannot execute template %s: %w", templateNameFiles, err)
	}

	return buf.String(), nil
}

// share is the percentage of all requests of the report.
func (a *tplAdapter) share(requests int64) string {
	if a.report == nil || a.report.Stats.Requests == 0 {
		return "0%"
	}

	return strconv.FormatFloat(float64(requests)/float64(a.report.Stats.Requests)*100, 'f', 2, 64) + "%"
}

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func formatBytes(v float64) string {
	unit := 0
	for v >= 1024 && unit < len(byteUnits)-1 {
		v /= 1024
		unit++
	}

	if unit == 0 {
		return strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[unit]
	}

	return strconv.FormatFloat(v, 'f', 2, 64) + " " + byteUnits[unit]
}

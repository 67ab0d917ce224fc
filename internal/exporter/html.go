package exporter

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

var tableTemplate = template.Must(template.New("table").Parse(`<table border="1" class="dataframe">
  <thead>
    <tr>
{{- range .Headers}}
      <th>{{.}}</th>
{{- end}}
    </tr>
  </thead>
  <tbody>
{{- range .Rows}}
    <tr>
{{- range .}}
      <td>{{.}}</td>
{{- end}}
    </tr>
{{- end}}
  </tbody>
</table>
`))

// HTMLExporter renders the dataset as an unstyled markup table.
type HTMLExporter struct{}

// Format implements Exporter
func (e *HTMLExporter) Format() domain.Format { return domain.FormatHTML }

// Export implements Exporter
func (e *HTMLExporter) Export(ds domain.Dataset) (*domain.Artifact, error) {
	rows := make([][]string, 0, ds.Len())
	for _, p := range ds.Rows {
		rows = append(rows, record(p))
	}

	var buf bytes.Buffer
	err := tableTemplate.Execute(&buf, struct {
		Headers []string
		Rows    [][]string
	}{Columns, rows})
	if err != nil {
		return nil, fmt.Errorf("render table: %w", err)
	}

	return &domain.Artifact{
		Kind:        domain.KindMarkupTable,
		Format:      domain.FormatHTML,
		ContentType: "text/html; charset=utf-8",
		Extension:   "html",
		Content:     buf.Bytes(),
		Rows:        ds.Len(),
	}, nil
}

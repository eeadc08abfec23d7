package report

import (
	"bytes"
	"html/template"
	"sort"
	"strings"

	"github.com/techjoec/driftbuster/internal/diff"
)

// reportTemplate renders a self-contained HTML document: every style is
// inlined and no <script>/<link> references an external asset, so the
// output can be saved and opened offline (spec §4.10).
var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>DriftBuster Report</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #1b1b1b; }
table { border-collapse: collapse; width: 100%; margin-bottom: 2em; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.6em; text-align: left; vertical-align: top; }
th { background: #f0f0f0; }
pre { background: #f7f7f7; padding: 0.6em; overflow-x: auto; }
.pending { color: #a15c00; }
.approved { color: #1a7a1a; }
</style>
</head>
<body>
<h1>DriftBuster Report</h1>
<h2>Detections</h2>
<table>
<tr><th>Plugin</th><th>Format</th><th>Variant</th><th>Confidence</th><th>Reasons</th><th>Approved tokens</th><th>Pending reviews</th></tr>
{{range .Payloads}}
<tr>
<td>{{.Plugin}}</td>
<td>{{.Format}}</td>
<td>{{.Variant}}</td>
<td>{{printf "%.2f" .Confidence}}</td>
<td>{{range .Reasons}}{{.}}<br>{{end}}</td>
<td class="approved">{{range .ApprovedTokens}}{{.}}<br>{{end}}</td>
<td class="pending">{{range .PendingReviews}}{{.}}<br>{{end}}</td>
</tr>
{{end}}
</table>
{{if .Diffs}}
<h2>Diffs</h2>
{{range .Diffs}}
<h3>{{.ConfigID}}</h3>
<pre>{{.DiffText}}</pre>
{{end}}
{{end}}
</body>
</html>
`))

type reportDiff struct {
	ConfigID string
	DiffText string
}

type reportData struct {
	Payloads []Payload
	Diffs    []reportDiff
}

// RenderHTMLReport produces a self-contained HTML string from already-
// computed payloads and diff results. maskTokens is swept over the diff text
// a second time before rendering: BuildUnifiedDiff already redacts every
// configured rule, but a caller assembling a report from stored results may
// pass token literals directly, so this is a last line of defence before
// anything reaches the template (spec §4.10, "all tokens listed in
// mask_tokens are pre-sanitised in embedded diffs").
func RenderHTMLReport(payloads []Payload, diffResults map[string]diff.Result, maskTokens []string) (string, error) {
	configIDs := make([]string, 0, len(diffResults))
	for id := range diffResults {
		configIDs = append(configIDs, id)
	}
	sort.Strings(configIDs)

	diffs := make([]reportDiff, 0, len(configIDs))
	for _, id := range configIDs {
		result := diffResults[id]
		diffs = append(diffs, reportDiff{
			ConfigID: id,
			DiffText: sweepMaskTokens(result.DiffText, maskTokens),
		})
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, reportData{Payloads: payloads, Diffs: diffs}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sweepMaskTokens(text string, maskTokens []string) string {
	for _, tok := range maskTokens {
		if tok == "" {
			continue
		}
		text = strings.ReplaceAll(text, tok, "[[TOKEN:"+tok+"]]")
	}
	return text
}

package output

import (
	"html/template"
	"io"
	"sort"
	"time"

	"github.com/selimozcann/RealityScout/internal/model"
)

// Summary contains counters for the HTML summary section.
type Summary struct {
	Probes    int
	Positives int
	Negatives int
	Errors    int
}

// OutcomeView is one probe row in the HTML report.
type OutcomeView struct {
	Kind       model.ProbeKind
	Finding    model.Finding
	Evidence   string
	Negative   bool
	Error      bool
	DurationMs int64
	Detail     []Param
}

// PageData provides the full context for the HTML report.
type PageData struct {
	Title         string
	GeneratedAt   time.Time
	Params        map[string]string
	OrderedParams []Param
	Variant       model.Variant
	Target        string
	Summary       Summary
	Verdict       model.Verdict
	Outcomes      []OutcomeView
	CDN           *model.CDNFinding
}

// Param represents a rendered key/value pair.
type Param struct {
	Key   string
	Value string
}

func sortedParams(m map[string]string) []Param {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make([]Param, 0, len(keys))
	for _, k := range keys {
		ordered = append(ordered, Param{Key: k, Value: m[k]})
	}
	return ordered
}

// BuildPage derives the HTML page context from a report.
func BuildPage(rep *model.Report, params map[string]string) PageData {
	page := PageData{
		Title:       "RealityScout " + string(rep.Variant) + " report: " + rep.Target.Host,
		GeneratedAt: rep.StartedAt,
		Params:      params,
		Variant:     rep.Variant,
		Target:      rep.Target.Addr(),
		Verdict:     rep.Verdict,
		CDN:         rep.CDN,
		Summary:     Summary{Probes: len(rep.Outcomes)},
	}
	for _, o := range rep.Outcomes {
		view := OutcomeView{
			Kind:       o.Kind,
			Finding:    o.Finding,
			Evidence:   o.Evidence,
			Negative:   o.Negative(),
			Error:      o.Finding == model.FindingError,
			DurationMs: o.Duration.Milliseconds(),
			Detail:     sortedParams(o.Detail),
		}
		if view.Negative {
			page.Summary.Negatives++
		} else {
			page.Summary.Positives++
		}
		if view.Error {
			page.Summary.Errors++
		}
		page.Outcomes = append(page.Outcomes, view)
	}
	return page
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"formatTime": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
}).Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
:root { color-scheme: light dark; }
body { font-family: system-ui, -apple-system, Segoe UI, Roboto, sans-serif; margin: 24px; background:#fafafa; color:#111; }
header { margin-bottom: 24px; }
h1 { font-size: 26px; margin: 0 0 8px; }
.section { border:1px solid #e5e7eb; border-radius:16px; padding:16px 20px; margin-bottom:18px; background:#fff; box-shadow:0 1px 2px rgba(15,23,42,0.08); }
h2 { font-size:20px; margin:0 0 12px; }
dt { font-weight:600; }
dd { margin:0 0 8px 0; }
.summary-grid { display:grid; gap:12px; grid-template-columns: repeat(auto-fit,minmax(180px,1fr)); }
.summary-card { display:block; padding:12px; border-radius:12px; border:1px solid #cbd5f5; text-decoration:none; color:inherit; position:relative; background:linear-gradient(180deg,#eef2ff,#fff); }
.summary-card[data-active="true"] { border-color:#4f46e5; box-shadow:0 0 0 2px rgba(79,70,229,0.4); }
.summary-card .badge { position:absolute; top:12px; right:12px; padding:2px 10px; border-radius:999px; background:#4f46e5; color:#fff; font-size:12px; }
.verdict { font-size:18px; font-weight:700; }
.verdict.ok { color:#15803d; }
.verdict.bad { color:#b91c1c; }
.meta { color:#6b7280; font-size:12px; }
.table { width:100%; border-collapse:collapse; font-size:14px; }
.table th, .table td { border-bottom:1px solid #e5e7eb; padding:6px 8px; text-align:left; vertical-align:top; }
.table th { background:#f9fafb; }
.neg td.evidence { color:#b45309; }
.err td.evidence { color:#b91c1c; }
.mono { font-family: ui-monospace, SFMono-Regular, Menlo, Consolas, monospace; font-size:13px; }
.footer { text-align:center; font-size:12px; color:#6b7280; margin-top:24px; }
@media (prefers-color-scheme: dark) {
        body { background:#0f172a; color:#e2e8f0; }
        .section { background:#1e293b; border-color:#334155; box-shadow:none; }
        .summary-card { background:linear-gradient(180deg,#312e81,#1e293b); border-color:#4338ca; color:#e0e7ff; }
        .meta { color:#94a3b8; }
        .table th { background:#1e293b; }
}
</style>
<script>
document.addEventListener('DOMContentLoaded', function() {
  const cards = document.querySelectorAll('[data-filter]');
  const rows = document.querySelectorAll('tr.probe');
  function apply(filter) {
    cards.forEach(c => c.dataset.active = (c.dataset.filter === filter ? 'true' : 'false'));
    rows.forEach(row => {
      let show = true;
      if (filter === 'positive') show = row.dataset.negative === '0';
      if (filter === 'negative') show = row.dataset.negative === '1';
      if (filter === 'errors') show = row.dataset.error === '1';
      row.style.display = show ? '' : 'none';
    });
  }
  cards.forEach(card => card.addEventListener('click', function (ev) {
    ev.preventDefault();
    apply(card.dataset.filter || 'all');
  }));
  apply('all');
});
</script>
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  <p class="meta">Generated at {{formatTime .GeneratedAt}}</p>
</header>
<section id="verdict" class="section">
  <h2>Verdict</h2>
  {{if .Verdict.Acceptable}}
  <p class="verdict ok">Host {{.Target}} is suitable as {{.Variant}}</p>
  {{else}}
  <p class="verdict bad">Host {{.Target}} is NOT suitable as {{.Variant}}</p>
  {{end}}
  {{if .CDN}}{{if .CDN.Detected}}{{range .CDN.Providers}}<p class="meta">CDN: {{.Name}} (via {{.Method}})</p>{{end}}{{end}}{{end}}
</section>
<section id="summary" class="section">
  <h2>Summary</h2>
  <div class="summary-grid">
    <a class="summary-card" href="#probes" data-filter="all"><strong>Probes</strong><span class="badge">{{.Summary.Probes}}</span></a>
    <a class="summary-card" href="#probes" data-filter="positive"><strong>Positives</strong><span class="badge">{{.Summary.Positives}}</span></a>
    <a class="summary-card" href="#probes" data-filter="negative"><strong>Negatives</strong><span class="badge">{{.Summary.Negatives}}</span></a>
    <a class="summary-card" href="#probes" data-filter="errors"><strong>Errors</strong><span class="badge">{{.Summary.Errors}}</span></a>
  </div>
</section>
<section id="parameters" class="section">
  <h2>Parameters</h2>
  <dl>
  {{- range .OrderedParams }}
    <dt>{{.Key}}</dt>
    <dd><span class="mono">{{.Value}}</span></dd>
  {{- end }}
  </dl>
</section>
<section id="probes" class="section">
  <h2>Probes</h2>
  <table class="table">
    <thead>
      <tr><th>Probe</th><th>Finding</th><th>Evidence</th><th>Detail</th><th>Time (ms)</th></tr>
    </thead>
    <tbody>
    {{range .Outcomes}}
      <tr class="probe{{if .Error}} err{{else if .Negative}} neg{{end}}" data-negative="{{if .Negative}}1{{else}}0{{end}}" data-error="{{if .Error}}1{{else}}0{{end}}">
        <td>{{.Kind}}</td>
        <td>{{.Finding}}</td>
        <td class="evidence">{{.Evidence}}</td>
        <td class="mono">{{range .Detail}}{{.Key}}={{.Value}}<br>{{end}}</td>
        <td>{{.DurationMs}}</td>
      </tr>
    {{end}}
    </tbody>
  </table>
</section>
<footer class="footer">
  RealityScout report generated at {{formatTime .GeneratedAt}}
</footer>
</body>
</html>
`))

// RenderHTML renders the HTML report using the provided data.
func RenderHTML(w io.Writer, data PageData) error {
	if data.Params != nil {
		data.OrderedParams = sortedParams(data.Params)
	}
	return htmlTemplate.Execute(w, data)
}

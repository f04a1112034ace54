package server

import (
	"bytes"
	"html/template"
	"io"

	"github.com/vango-dev/tableview/pkg/snapshot"
	"github.com/vango-dev/tableview/pkg/table"
)

// pageSizes are the choices offered by the page-size selector.
var pageSizes = []int{10, 20, 50, 100}

const tableTemplate = `{{define "table"}}<table class="tv-table">
<thead><tr>
{{- range .Headers}}
{{- if .Sortable}}
<th class="sortable" data-intent="toggle_sort" data-column="{{.ID}}"{{if .Position}} data-position="{{.Position}}"{{end}}>{{.Label}}{{if .Indicator}} <span class="tv-indicator">{{.Indicator}}</span>{{end}}</th>
{{- else}}
<th>{{.Label}}</th>
{{- end}}
{{- end}}
</tr></thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- else}}
<tr><td colspan="{{len .Headers}}">No rows</td></tr>
{{- end}}
</tbody>
</table>
<div class="tv-paging">
<button type="button" data-intent="set_page_index" data-value="{{.PrevPage}}"{{if not .HasPrev}} disabled{{end}}>Previous</button>
<span>Page {{.PageNumber}}</span>
<button type="button" data-intent="set_page_index" data-value="{{.NextPage}}">Next</button>
<select data-intent="set_page_size">
{{- range .PageSizes}}
<option value="{{.Size}}"{{if .Selected}} selected{{end}}>{{.Size}} rows</option>
{{- end}}
</select>
</div>
<div class="tv-filters">
{{- range .Filters}}
<span class="tv-filter">{{.ColumnID}} {{.Operator}} {{.Value}} <button type="button" data-intent="remove_filter" data-column="{{.ColumnID}}">&times;</button></span>
{{- end}}
<form data-intent="add_filter">
<select name="column">{{range .Headers}}<option value="{{.ID}}">{{.Label}}</option>{{end}}</select>
<input name="operator" value="=" size="3">
<input name="value" placeholder="value">
<button type="submit">Add filter</button>
</form>
</div>
<pre class="tv-debug">{{.Debug}}</pre>
{{end}}`

const pageTemplate = `{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
th.sortable { cursor: pointer; user-select: none; }
.tv-indicator { font-size: 0.8em; }
.tv-debug { background: #f4f4f4; padding: 0.5em; }
</style>
</head>
<body data-session="{{.Client.Session}}">
<div class="tv-actions">
<button type="button" data-intent="sort_by" data-column="{{.FirstColumn}}" data-value="asc">Sort by {{.FirstColumn}} asc</button>
<button type="button" data-intent="clear">Clear Parameters</button>
<button type="button" data-intent="preset" data-value="test">Set Test Params</button>
</div>
<div id="{{.Target}}">{{template "table" .Table}}</div>
<script>
(function () {
  var cfg = {{.Client}};
  if (cfg.url !== location.pathname + location.search) {
    history.replaceState(null, "", cfg.url);
  }
  var seq = 0;
  var scheme = location.protocol === "https:" ? "wss:" : "ws:";
  var ws = new WebSocket(scheme + "//" + location.host + cfg.ws + "?session=" + encodeURIComponent(cfg.session));

  function send(intent) {
    if (ws.readyState !== 1) { return; }
    seq += 1;
    intent.seq = seq;
    ws.send(JSON.stringify({ type: "intent", intent: intent }));
  }
  function intentFrom(el) {
    return {
      type: el.dataset.intent,
      column: el.dataset.column || "",
      operator: el.dataset.operator || "",
      value: el.dataset.value || ""
    };
  }
  function apply(p) {
    var url = (p.path || location.pathname) + (p.query ? "?" + p.query : "");
    switch (p.op) {
    case "url_push": history.pushState(null, "", url); break;
    case "url_replace": history.replaceState(null, "", url); break;
    case "html":
      var target = document.getElementById(p.target);
      if (target) { target.innerHTML = p.html; }
      break;
    }
  }

  document.addEventListener("click", function (e) {
    var el = e.target.closest("[data-intent]");
    if (!el || (el.tagName !== "BUTTON" && el.tagName !== "TH")) { return; }
    e.preventDefault();
    send(intentFrom(el));
  });
  document.addEventListener("change", function (e) {
    var el = e.target;
    if (el.tagName !== "SELECT" || !el.dataset.intent) { return; }
    var intent = intentFrom(el);
    intent.value = el.value;
    send(intent);
  });
  document.addEventListener("submit", function (e) {
    var form = e.target;
    if (form.dataset.intent !== "add_filter") { return; }
    e.preventDefault();
    send({
      type: "add_filter",
      column: form.elements.column.value,
      operator: form.elements.operator.value,
      value: form.elements.value.value
    });
  });
  ws.onmessage = function (ev) {
    var frame = JSON.parse(ev.data);
    if (frame.type === "error") {
      console.warn("tableview:", frame.error.code, frame.error.message);
      return;
    }
    if (frame.type === "patches") {
      frame.patches.patches.forEach(apply);
    }
  };
  ws.onclose = function () { document.body.dataset.disconnected = "true"; };
  window.addEventListener("popstate", function () { location.reload(); });
})();
</script>
</body>
</html>
{{end}}`

// renderer renders the page and the table region with html/template.
type renderer struct {
	tmpl *template.Template
}

func newRenderer() *renderer {
	tmpl := template.Must(template.New("tableview").Parse(tableTemplate))
	template.Must(tmpl.Parse(pageTemplate))
	return &renderer{tmpl: tmpl}
}

type pageSizeOption struct {
	Size     int
	Selected bool
}

// tableView is the table template's data.
type tableView struct {
	table.Model
	Debug      string
	HasPrev    bool
	PrevPage   int
	NextPage   int
	PageNumber int
	PageSizes  []pageSizeOption
}

func newTableView(m table.Model) (tableView, error) {
	debug, err := snapshot.Encode(m.State)
	if err != nil {
		return tableView{}, err
	}
	v := tableView{
		Model:      m,
		Debug:      string(debug),
		HasPrev:    m.PageIndex > 0,
		PrevPage:   max(m.PageIndex-1, 0),
		NextPage:   m.PageIndex + 1,
		PageNumber: m.PageIndex + 1,
	}
	sizes := pageSizes
	found := false
	for _, n := range pageSizes {
		found = found || n == m.PageSize
	}
	if !found {
		sizes = append([]int{m.PageSize}, pageSizes...)
	}
	for _, n := range sizes {
		v.PageSizes = append(v.PageSizes, pageSizeOption{Size: n, Selected: n == m.PageSize})
	}
	return v, nil
}

// Table renders the table region for an HTML patch.
func (r *renderer) Table(m table.Model) (string, error) {
	v, err := newTableView(m)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "table", v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// clientConfig is handed to the page script as JSON.
type clientConfig struct {
	Session string `json:"session"`
	WS      string `json:"ws"`
	URL     string `json:"url"`
}

type pageView struct {
	Title       string
	Target      string
	FirstColumn string
	Table       tableView
	Client      clientConfig
}

// Page renders the whole document.
func (r *renderer) Page(w io.Writer, sessionID, path, rawQuery string, m table.Model) error {
	v, err := newTableView(m)
	if err != nil {
		return err
	}
	url := path
	if rawQuery != "" {
		url += "?" + rawQuery
	}
	page := pageView{
		Title:  "tableview",
		Target: TableTarget,
		Table:  v,
		Client: clientConfig{Session: sessionID, WS: "/ws", URL: url},
	}
	if len(m.Headers) > 0 {
		page.FirstColumn = m.Headers[0].ID
	}
	return r.tmpl.ExecuteTemplate(w, "page", page)
}

package http

import (
	"fmt"
	"html/template"
	"net/http"

	"housevalue/artifact"
)

type formField struct {
	Name  string
	Value string
}

type selectField struct {
	Name     string
	Options  []string
	Selected string
}

type pageData struct {
	Ready             bool
	ModelName         string
	MAPE              float64
	NumericFields     []formField
	CategoricalFields []selectField
	HasResult         bool
	Price             string
	ErrorField        string
	ErrorMessage      string
}

var pageTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>House Price Predictor</title>
<style>
  body { font-family: sans-serif; max-width: 720px; margin: 2rem auto; padding: 0 1rem; color: #222; }
  h1 { font-size: 1.5rem; }
  form { display: grid; grid-template-columns: 1fr 1fr; gap: 0.75rem 1.5rem; }
  label { display: flex; flex-direction: column; font-size: 0.9rem; gap: 0.25rem; }
  input, select { padding: 0.4rem; border: 1px solid #bbb; border-radius: 4px; }
  button { grid-column: 1 / -1; padding: 0.6rem; background: #2f6f4f; color: #fff; border: 0; border-radius: 4px; cursor: pointer; }
  .result { margin-top: 1.5rem; padding: 1rem; background: #eef7f0; border-left: 4px solid #2f6f4f; }
  .error { margin-top: 1.5rem; padding: 1rem; background: #fbeeee; border-left: 4px solid #b04343; }
  .meta { margin-top: 2rem; font-size: 0.8rem; color: #777; }
  #activity { margin-top: 1rem; font-size: 0.8rem; color: #555; max-height: 8rem; overflow-y: auto; }
</style>
</head>
<body>
<h1>House Price Predictor</h1>
{{if not .Ready}}
<p class="error">No model is loaded yet. Run a training job first.</p>
{{else}}
<form method="POST" action="/predict">
  {{range .NumericFields}}
  <label>{{.Name}}
    <input type="number" step="any" name="{{.Name}}" value="{{.Value}}" required>
  </label>
  {{end}}
  {{range .CategoricalFields}}
  <label>{{.Name}}
    <select name="{{.Name}}">
      {{$selected := .Selected}}
      {{range .Options}}
      <option value="{{.}}" {{if eq . $selected}}selected{{end}}>{{.}}</option>
      {{end}}
    </select>
  </label>
  {{end}}
  <button type="submit">Predict Price</button>
</form>
{{if .HasResult}}
<div class="result">Estimated value: <strong>${{.Price}}</strong></div>
{{end}}
{{if .ErrorMessage}}
<div class="error">{{with .ErrorField}}<strong>{{.}}</strong>: {{end}}{{.ErrorMessage}}</div>
{{end}}
<p class="meta">Serving model: {{.ModelName}} (eval MAPE {{printf "%.2f" .MAPE}}%)</p>
<div id="activity"></div>
<script>
(function() {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/api/ws/activity");
  var box = document.getElementById("activity");
  ws.onmessage = function(ev) {
    var line = document.createElement("div");
    line.textContent = ev.data;
    box.prepend(line);
  };
})();
</script>
{{end}}
</body>
</html>
`))

// renderPage writes the form page. submitted carries the user's last
// values so the form keeps them after a round trip.
func (s *Server) renderPage(w http.ResponseWriter, submitted map[string]string, price float64, hasResult bool, validationErr *ValidationError, errMessage string) {
	data := pageData{}

	bundle := s.service.Current()
	if bundle != nil {
		data.Ready = true
		data.ModelName = bundle.Metadata.ModelName
		data.MAPE = bundle.Metadata.MAPE * 100
		data.NumericFields, data.CategoricalFields = fieldsFor(bundle, submitted)
	}

	if hasResult {
		data.HasResult = true
		data.Price = fmt.Sprintf("%.2f", price)
	}
	if validationErr != nil {
		data.ErrorField = validationErr.Field
		data.ErrorMessage = validationErr.Message
	} else if errMessage != "" {
		data.ErrorMessage = errMessage
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.log.Warnw("page render failed", "error", err)
	}
}

func fieldsFor(bundle *artifact.Bundle, submitted map[string]string) ([]formField, []selectField) {
	encoder := bundle.Encoder
	numeric := make([]formField, 0, len(encoder.NumericCols))
	for _, col := range encoder.NumericCols {
		numeric = append(numeric, formField{Name: col, Value: submitted[col]})
	}
	categorical := make([]selectField, 0, len(encoder.CategoricalCols))
	for _, col := range encoder.CategoricalCols {
		categorical = append(categorical, selectField{
			Name:     col,
			Options:  encoder.Categories[col],
			Selected: submitted[col],
		})
	}
	return numeric, categorical
}

package server

import "html/template"

// The templates mirror the pages of the original web frontend: an
// upload form, a gallery of results, and a plain error page.

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>Autotagger</title></head>
<body>
  <h1>Autotagger</h1>
  <form action="/evaluate" method="post" enctype="multipart/form-data">
    <p><input type="file" name="file" accept="image/*" multiple required></p>
    <p><label>Threshold <input type="number" name="threshold" value="0.1" min="0" max="1" step="0.01"></label></p>
    <p><label>Limit <input type="number" name="limit" value="50" min="1"></label></p>
    <p><label>Format
      <select name="format">
        <option value="html" selected>HTML</option>
        <option value="json">JSON</option>
      </select>
    </label></p>
    <p><input type="submit" value="Evaluate"></p>
  </form>
</body>
</html>
`))

var evaluateTemplate = template.Must(template.New("evaluate").Parse(`<!DOCTYPE html>
<html>
<head><title>Autotagger</title></head>
<body>
  <h1>Results</h1>
  {{range .}}
  <div class="result">
    <img src="data:{{.Mime}};base64,{{.Base64}}" alt="{{.Filename}}" width="300">
    <h2>{{.Filename}}</h2>
    <table>
      <tr><th>Tag</th><th>Score</th></tr>
      {{range .Tags}}
      <tr><td>{{.Name}}</td><td>{{printf "%.3f" .Score}}</td></tr>
      {{end}}
    </table>
  </div>
  {{end}}
</body>
</html>
`))

var errorTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head><title>Error</title></head>
<body>
  <h1>{{.Error}}</h1>
  <p>{{.Message}}</p>
</body>
</html>
`))

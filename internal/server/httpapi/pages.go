package httpapi

import (
	"bytes"
	"html/template"
	"net/http"
)

var verifyPage = template.Must(template.New("verify").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h2>{{.Title}}</h2>
<p>{{.Text}}</p>
{{if .LoginURL}}<p><a href="{{.LoginURL}}">Go to login</a></p>{{end}}
</body>
</html>
`))

type pageData struct {
	Title    string
	Text     string
	LoginURL string
}

func writePage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := verifyPage.Execute(&buf, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set(headerContentType, contentTypeHTML)
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

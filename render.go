package unfurl

import (
	"fmt"
	"text/template"

	"github.com/tvanier/unfurl/bufferpool"
)

// Label is one extra Twitter Card label/data pair, such as "Organizer".
type Label struct {
	Name  string
	Value string
}

// RenderModel is everything a preview page shows. Subject, Description,
// OrganizerName and label values must already be HTML-escaped, and the URLs
// must be absolute; Renderer interpolates them verbatim.
type RenderModel struct {
	Product       string
	Subject       string
	Description   string
	OrganizerName string
	RedirectURL   string
	ImageURL      string
	TwitterLabels []Label
}

// Title is the page title, "{product} - {subject}" or just the product.
func (m RenderModel) Title() string {
	if m.Subject == "" {
		return m.Product
	}
	return m.Product + " - " + m.Subject
}

// text/template on purpose: html/template would escape a second time.
var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8">

    <link rel="icon" href="{{.AssetBaseURL}}/favicon.ico">
    <link rel="icon" type="image/png" sizes="32x32" href="{{.AssetBaseURL}}/img/daisy-x32.png">
    <link rel="icon" type="image/png" sizes="16x16" href="{{.AssetBaseURL}}/img/daisy-x16.png">

    <title>GoTo</title>

    <meta property="og:type" content="website">
    <meta property="og:site_name" content="GoTo">
    <meta property="og:description" content="{{.Description}}">
    <meta property="og:title" content="{{.PageTitle}}">
    <meta property="og:url" content="{{.RedirectURL}}">
    <meta property="og:image" content="{{.ImageURL}}">

    <meta name="twitter:card" content="summary">
    <meta name="twitter:title" value="{{.PageTitle}}">
    <meta name="twitter:description" value="{{.Description}}">
    <meta name="twitter:url" value="{{.RedirectURL}}">
    <meta name="twitter:image" content="{{.ImageURL}}">
{{- range $i, $l := .TwitterLabels}}
    <meta name="twitter:label{{inc $i}}" value="{{$l.Name}}">
    <meta name="twitter:data{{inc $i}}" value="{{$l.Value}}">
{{- end}}

    <meta name="description" content="{{.Description}}">
    <meta name="author" content="{{.OrganizerName}}">
  </head>

  <body>
    <noscript>
      <h3>{{.PageTitle}}</h3>
      If you are not automatically redirected, please click this link<br>
      <a href="{{.RedirectURL}}">{{.RedirectURL}}</a>
    </noscript>

    <script>
      window.location.replace('{{.RedirectURL}}');
    </script>
  </body>
</html>
`))

// Renderer turns a RenderModel into a preview page.
type Renderer struct {
	assetBaseURL string
	pool         *bufferpool.BufferPool
}

// NewRenderer creates a Renderer whose favicons are served from assetBaseURL.
func NewRenderer(assetBaseURL string) *Renderer {
	return &Renderer{
		assetBaseURL: assetBaseURL,
		pool:         bufferpool.New(),
	}
}

// Render renders the page. It performs no escaping of its own.
func (r *Renderer) Render(m RenderModel) (string, error) {
	buf := r.pool.Get()
	defer r.pool.Put(buf)

	data := struct {
		RenderModel
		PageTitle    string
		AssetBaseURL string
	}{
		RenderModel:  m,
		PageTitle:    m.Title(),
		AssetBaseURL: r.assetBaseURL,
	}
	if err := pageTemplate.Execute(buf, data); err != nil {
		return "", fmt.Errorf("error rendering page: %w", err)
	}
	return buf.String(), nil
}

package gateway

import (
	"html/template"
	"log/slog"
	"net/url"
	"strings"

	"catphotos"
)

// PageState is everything the HTML surface needs to render the home page.
type PageState struct {
	FamilyID string
	Message  string
	Error    string
	Photos   []catphotos.PhotoRecord
}

// PageRenderer is the optional HTML capability of the handler. A handler
// without one serves the JSON API only.
type PageRenderer interface {
	RenderHome(state PageState) string
}

// HTMLRenderer renders the self-contained home page document: a login form
// when unauthenticated, otherwise alerts, the upload form, and the gallery.
// All interpolated text goes through html/template's contextual escaping.
type HTMLRenderer struct{}

func NewHTMLRenderer() *HTMLRenderer { return &HTMLRenderer{} }

type photoView struct {
	Title       string
	Description string
	UploadedAt  string
	ContentURL  string
}

type homeData struct {
	FamilyID string
	Message  string
	Error    string
	Photos   []photoView
}

// RenderHome is a pure function of its state.
func (h *HTMLRenderer) RenderHome(state PageState) string {
	data := homeData{
		FamilyID: state.FamilyID,
		Message:  state.Message,
		Error:    state.Error,
	}
	for _, rec := range state.Photos {
		title := rec.Title
		if title == "" {
			title = "Untitled cat photo"
		}
		data.Photos = append(data.Photos, photoView{
			Title:       title,
			Description: rec.Description,
			UploadedAt:  rec.UploadedAt,
			ContentURL:  "/photos/" + url.PathEscape(rec.PhotoID) + "/content",
		})
	}

	var b strings.Builder
	if err := homeTemplate.Execute(&b, data); err != nil {
		// The template is static and the data plain strings; this does not
		// happen outside of programmer error.
		slog.Error("failed to render home page", "error", err)
		return "<!DOCTYPE html><html><body><p>Internal error</p></body></html>"
	}
	return b.String()
}

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Family Cat Photos</title>
    <style>
      body { font-family: system-ui, sans-serif; margin: 0; padding: 0; background: #f7f7f7; color: #222; }
      header { background: #3f51b5; color: #fff; padding: 1.5rem; text-align: center; }
      main { max-width: 960px; margin: 2rem auto; padding: 0 1rem; }
      .panel { background: #fff; padding: 1.5rem; border-radius: 0.75rem; box-shadow: 0 8px 24px rgba(0,0,0,0.08); margin-bottom: 1.5rem; }
      label { display: block; margin-bottom: 0.75rem; font-weight: 600; }
      input[type="text"], input[type="datetime-local"], input[type="file"], textarea { width: 100%; padding: 0.5rem; margin-top: 0.35rem; border-radius: 0.5rem; border: 1px solid #ccc; }
      button { background: #3f51b5; color: #fff; border: none; border-radius: 0.5rem; padding: 0.75rem 1.5rem; cursor: pointer; }
      button:hover { background: #303f9f; }
      .gallery { display: grid; grid-template-columns: repeat(auto-fit, minmax(220px, 1fr)); gap: 1.5rem; }
      figure { margin: 0; background: #fafafa; padding: 1rem; border-radius: 0.75rem; box-shadow: inset 0 0 0 1px rgba(0,0,0,0.05); }
      figure img { width: 100%; height: auto; border-radius: 0.5rem; object-fit: cover; }
      figcaption { margin-top: 0.75rem; }
      .alert { padding: 0.75rem 1rem; border-radius: 0.5rem; margin-bottom: 1rem; }
      .alert-success { background: #e8f5e9; color: #256029; }
      .alert-error { background: #ffebee; color: #c62828; }
      .welcome { margin-bottom: 1rem; }
      .empty { color: #666; }
    </style>
  </head>
  <body>
    <header>
      <h1>Family Cat Photos</h1>
      <p>Private space to share your favorite feline moments.</p>
    </header>
{{- if .FamilyID}}
    <main>
      {{- if .Message}}
      <div class="alert alert-success">{{.Message}}</div>
      {{- end}}
      {{- if .Error}}
      <div class="alert alert-error">{{.Error}}</div>
      {{- end}}
      <p class="welcome">Viewing photos for <strong>{{.FamilyID}}</strong></p>
      <form method="POST" action="/session/logout">
        <button type="submit">Sign out</button>
      </form>
      <section class="panel">
        <h2>Upload a new cat photo</h2>
        <form method="POST" action="/photos/form-upload" enctype="multipart/form-data">
          <input type="hidden" name="family_id" value="{{.FamilyID}}">
          <label>Photo file
            <input type="file" name="photo" accept="image/*" required>
          </label>
          <label>Title
            <input type="text" name="title" maxlength="120">
          </label>
          <label>Description
            <textarea name="description" rows="3" maxlength="500"></textarea>
          </label>
          <label>Taken at (optional)
            <input type="datetime-local" name="taken_at">
          </label>
          <button type="submit">Upload photo</button>
        </form>
      </section>
      <section class="panel">
        <h2>Your photos</h2>
        {{- if .Photos}}
        <section class="gallery">
          {{- range .Photos}}
          <figure>
            <img src="{{.ContentURL}}" alt="{{.Title}}" loading="lazy" referrerpolicy="no-referrer">
            <figcaption>
              <strong>{{.Title}}</strong><br>
              <small>Uploaded at {{.UploadedAt}}</small><br>
              <span>{{.Description}}</span>
            </figcaption>
          </figure>
          {{- end}}
        </section>
        {{- else}}
        <p class="empty">No cat photos yet. Upload your first one!</p>
        {{- end}}
      </section>
    </main>
{{- else}}
    <main>
      <section class="panel">
        {{- if .Message}}
        <div class="alert alert-success">{{.Message}}</div>
        {{- end}}
        {{- if .Error}}
        <div class="alert alert-error">{{.Error}}</div>
        {{- end}}
        <h2>Sign in to see your family cats</h2>
        <form method="POST" action="/session">
          <label>Family identifier
            <input type="text" name="family_id" required autofocus>
          </label>
          <button type="submit">Continue</button>
        </form>
      </section>
    </main>
{{- end}}
  </body>
</html>
`))

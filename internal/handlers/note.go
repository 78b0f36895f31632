package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/jigintern/2025-summer-c/internal/contextutil"
	"github.com/jigintern/2025-summer-c/internal/service"
	"github.com/jigintern/2025-summer-c/internal/storage"
)

// NoteHandler serves a single map note as a rendered HTML page.
type NoteHandler struct {
	submissions service.SubmissionService
	parser      goldmark.Markdown
	template    *template.Template
}

// notePageData holds template data for rendered note pages.
type notePageData struct {
	Title     string
	ID        string
	Era       string
	CreatedAt string
	Content   template.HTML
	Photos    []string
	Comments  []commentData
}

type commentData struct {
	CreatedAt string
	Content   template.HTML
}

// NewNoteHandler creates a new handler for note pages.
func NewNoteHandler(submissions service.SubmissionService) *NoteHandler {
	tmpl := template.Must(template.New("note").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 900px;
      line-height: 1.7;
      background: #f7f5ef;
      color: #1f2933;
    }
    header {
      margin-bottom: 2rem;
      border-bottom: 1px solid #d9d3c3;
      padding-bottom: 1.5rem;
    }
    h1 {
      margin-top: 0;
      font-size: 2rem;
    }
    article, .comment {
      background: #fffdf8;
      border: 1px solid #e4ddcb;
      border-radius: 12px;
      padding: 1.5rem 2rem;
    }
    .comment {
      margin-top: 1rem;
      padding: 1rem 1.5rem;
    }
    .meta {
      color: #6b7280;
      font-size: 0.95rem;
      margin-top: 0.5rem;
    }
    .photos img {
      max-width: 100%;
      border-radius: 8px;
      margin-top: 1rem;
    }
    a {
      color: #2563eb;
    }
    @media (max-width: 640px) {
      body {
        padding: 1rem;
      }
      article {
        padding: 1.25rem;
      }
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <p class="meta">{{if .Era}}{{.Era}} &middot; {{end}}Posted {{.CreatedAt}}</p>
  </header>
  <article>{{.Content}}</article>
  {{if .Photos}}<div class="photos">{{range .Photos}}
    <img src="{{.}}" alt="">{{end}}
  </div>{{end}}
  <section>
    <h2>Comments ({{len .Comments}})</h2>{{range .Comments}}
    <div class="comment">
      <p class="meta">{{.CreatedAt}}</p>
      {{.Content}}
    </div>{{end}}
  </section>
</body>
</html>`))

	return &NoteHandler{
		submissions: submissions,
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Table,
				extension.TaskList,
				extension.Strikethrough,
				extension.Linkify,
				extension.Typographer,
			),
			goldmark.WithRendererOptions(
				ghhtml.WithHardWraps(),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		template: tmpl,
	}
}

// ServeHTTP renders the note named by the {id} URL parameter. Raw HTML in
// note and comment text is not rendered.
func (h *NoteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := contextutil.With(r.Context(), "record_id", id)
	logger := contextutil.LoggerFromContext(ctx)

	record, err := h.submissions.Get(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			http.Error(w, "note not found", http.StatusNotFound)
		case errors.Is(err, service.ErrInvalidInput):
			http.Error(w, "note id is required", http.StatusBadRequest)
		default:
			logger.ErrorContext(ctx, "failed to load note", "error", err)
			http.Error(w, "failed to load note", http.StatusInternalServerError)
		}
		return
	}

	pageData, err := h.pageData(record)
	if err != nil {
		logger.ErrorContext(ctx, "failed to render markdown", "error", err)
		http.Error(w, "failed to render note", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := h.template.Execute(&buf, pageData); err != nil {
		logger.ErrorContext(ctx, "failed to execute note template", "error", err)
		http.Error(w, "failed to render note", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *NoteHandler) pageData(record *storage.Record) (notePageData, error) {
	content, err := h.renderMarkdown(record.Comment)
	if err != nil {
		return notePageData{}, err
	}

	data := notePageData{
		Title:     inferTitle(record),
		ID:        record.ID,
		Era:       era(record.Decade),
		CreatedAt: record.CreatedAt,
		Content:   content,
		Photos:    record.Photos,
		Comments:  make([]commentData, 0, len(record.Thread)),
	}
	for _, c := range record.Thread {
		html, err := h.renderMarkdown(c.Comment)
		if err != nil {
			return notePageData{}, err
		}
		data.Comments = append(data.Comments, commentData{CreatedAt: c.CreatedAt, Content: html})
	}
	return data, nil
}

func (h *NoteHandler) renderMarkdown(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := h.parser.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func inferTitle(record *storage.Record) string {
	if record.Name != "" {
		return record.Name
	}
	return "Untitled note"
}

// era describes the indexed years of a decade.
func era(d *storage.Decade) string {
	first, last, ok := d.Span()
	switch {
	case !ok:
		return ""
	case first == last:
		return fmt.Sprintf("%d", first)
	default:
		return fmt.Sprintf("%d to %d", first, last)
	}
}

package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/wellschematic/wellschematic/internal/engine"
	"github.com/wellschematic/wellschematic/internal/render"
	"github.com/wellschematic/wellschematic/internal/schema"
)

const maxUploadSize = 1 << 20 // 1MB

// Handler renders documents posted in the request body without storing them.
type Handler struct {
	mode  schema.Mode
	image render.Options
}

func NewHandler(mode schema.Mode, image render.Options) *Handler {
	return &Handler{mode: mode, image: image}
}

// Render responds with the schematic as JSON.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	s, ok := h.schematic(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// RenderPNG responds with the schematic as a PNG image.
func (h *Handler) RenderPNG(w http.ResponseWriter, r *http.Request) {
	s, ok := h.schematic(w, r)
	if !ok {
		return
	}

	opts, err := h.image.WithQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := render.PNG(&buf, s, opts); err != nil {
		if errors.Is(err, render.ErrInvalidSize) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("render png", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	name := sanitizeName(r.URL.Query().Get("name"))
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="`+name+`.png"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func (h *Handler) schematic(w http.ResponseWriter, r *http.Request) (*engine.Schematic, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "request too large", http.StatusBadRequest)
		return nil, false
	}

	q := r.URL.Query()
	mode := h.mode
	if v := q.Get("strict"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid strict flag", http.StatusBadRequest)
			return nil, false
		}
		mode = schema.Lenient
		if strict {
			mode = schema.Strict
		}
	}

	opts, err := engine.ParseOptions(q.Get("which"), q.Get("asOf"), q.Get("top"), q.Get("bottom"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}

	format := schema.FormatFromContentType(r.Header.Get("Content-Type"))
	doc, err := schema.NewDecoder(mode).Decode(body, format)
	if err != nil {
		// Every decode failure is a problem with the submitted document.
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}

	s, err := engine.Render(doc, opts)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}
	return s, true
}

func sanitizeName(name string) string {
	if name == "" {
		return "schematic"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

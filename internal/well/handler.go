package well

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wellschematic/wellschematic/internal/engine"
	"github.com/wellschematic/wellschematic/internal/render"
	"github.com/wellschematic/wellschematic/internal/schema"
)

const maxDocumentSize = 1 << 20

type Handler struct {
	service *Service
	image   render.Options
}

func NewHandler(service *Service, image render.Options) *Handler {
	return &Handler{service: service, image: image}
}

// Routes mounts the well endpoints on r.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/wells", h.List).Methods("GET")
	r.HandleFunc("/wells", h.Create).Methods("POST")
	r.HandleFunc("/wells/{wellId}", h.Get).Methods("GET")
	r.HandleFunc("/wells/{wellId}", h.Update).Methods("PUT")
	r.HandleFunc("/wells/{wellId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/wells/{wellId}/schematic", h.Schematic).Methods("GET")
	r.HandleFunc("/wells/{wellId}/schematic.png", h.SchematicPNG).Methods("GET")
}

type documentRequest struct {
	Name     string          `json:"name"`
	Document json.RawMessage `json:"document"`
	Version  int             `json:"version,omitempty"`
}

// readDocument accepts either a JSON envelope {"name", "document", "version"}
// or, for YAML content types, a bare YAML document with the name in the
// query string.
func readDocument(r *http.Request) (documentRequest, schema.Format, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentSize+1))
	if err != nil {
		return documentRequest{}, "", fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxDocumentSize {
		return documentRequest{}, "", errors.New("document too large")
	}

	if schema.FormatFromContentType(r.Header.Get("Content-Type")) == schema.FormatYAML {
		req := documentRequest{Name: r.URL.Query().Get("name"), Document: body}
		if v := r.URL.Query().Get("version"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return documentRequest{}, "", fmt.Errorf("invalid version %q", v)
			}
			req.Version = n
		}
		return req, schema.FormatYAML, nil
	}

	var req documentRequest
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&req); err != nil {
		return documentRequest{}, "", errors.New("invalid request body")
	}
	if len(req.Document) == 0 {
		return documentRequest{}, "", errors.New("document is required")
	}
	return req, schema.FormatJSON, nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, format, err := readDocument(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	well, err := h.service.Create(r.Context(), req.Name, req.Document, format)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, well)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	well, err := h.service.Get(r.Context(), mux.Vars(r)["wellId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, well)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	wells, err := h.service.List(r.Context())
	if err != nil {
		slog.Error("list wells failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, wells)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	req, format, err := readDocument(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	well, err := h.service.Update(r.Context(), mux.Vars(r)["wellId"], req.Name, req.Document, format, req.Version)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, well)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["wellId"]); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Schematic(w http.ResponseWriter, r *http.Request) {
	s, ok := h.renderRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) SchematicPNG(w http.ResponseWriter, r *http.Request) {
	s, ok := h.renderRequest(w, r)
	if !ok {
		return
	}

	opts, err := h.image.WithQuery(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := render.PNG(&buf, s, opts); err != nil {
		if errors.Is(err, render.ErrInvalidSize) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		slog.Error("render png failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) renderRequest(w http.ResponseWriter, r *http.Request) (*engine.Schematic, bool) {
	q := r.URL.Query()
	opts, err := engine.ParseOptions(q.Get("which"), q.Get("asOf"), q.Get("top"), q.Get("bottom"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}

	s, err := h.service.Render(r.Context(), mux.Vars(r)["wellId"], opts)
	if err != nil {
		handleServiceError(w, err)
		return nil, false
	}
	return s, true
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "version conflict"})
	case errors.Is(err, ErrInvalidDocument),
		errors.Is(err, schema.ErrValidation),
		errors.Is(err, engine.ErrNoDiameters),
		errors.Is(err, engine.ErrInvalidScale),
		errors.Is(err, engine.ErrTooManyPrimitives):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

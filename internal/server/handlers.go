package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	paletteerrors "github.com/conneroisu/palette/internal/errors"
	"github.com/conneroisu/palette/internal/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// PaletteResponse is the grouped palette.
type PaletteResponse struct {
	Groups  []types.CanonicalGroup `json:"groups"`
	Loading bool                   `json:"loading"`
}

// DiagnosticsResponse carries diagnostics of an operation.
type DiagnosticsResponse struct {
	Enabled     []string           `json:"enabled,omitempty"`
	Diagnostics []types.Diagnostic `json:"diagnostics"`
}

// EnabledRequest replaces the enabled library list.
type EnabledRequest struct {
	IDs []string `json:"ids"`
}

// RenderRequest carries preview props. Omitted props use the component's
// default props.
type RenderRequest struct {
	Props map[string]any `json:"props"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"loading": s.facade.Loading(),
		"types":   s.registry.Count(),
	})
}

func (s *Server) handlePalette(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PaletteResponse{
		Groups:  s.registry.Groups(),
		Loading: s.facade.Loading(),
	})
}

func (s *Server) handleComponent(w http.ResponseWriter, r *http.Request) {
	runtimeType, err := runtimeTypeParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	meta, ok := s.registry.Metadata(runtimeType)
	if !ok {
		writeError(w, http.StatusNotFound, paletteerrors.NewValidationError(
			paletteerrors.ErrCodeComponentMissing, "component not found"))
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	runtimeType, err := runtimeTypeParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req RenderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	component, err := s.registry.Render(runtimeType, req.Props)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	var buf bytes.Buffer
	if err := component.Render(r.Context(), &buf); err != nil {
		s.logger.Error(r.Context(), err, "Preview render failed", "runtime_type", runtimeType)
		writeError(w, http.StatusInternalServerError,
			paletteerrors.NewInternalError(paletteerrors.ErrCodeRenderFailed, "render failed", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleLibraries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.facade.Options())
}

func (s *Server) handleStates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.facade.States())
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, DiagnosticsResponse{Diagnostics: nonNil(s.facade.Diagnostics())})
}

func (s *Server) handleSetEnabled(w http.ResponseWriter, r *http.Request) {
	var req EnabledRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	diagnostics, err := s.facade.SetEnabled(r.Context(), req.IDs)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, DiagnosticsResponse{
		Enabled:     s.facade.Enabled(),
		Diagnostics: nonNil(diagnostics),
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	diagnostics := s.facade.ReloadAll(r.Context())
	writeJSON(w, http.StatusOK, DiagnosticsResponse{Diagnostics: nonNil(diagnostics)})
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	diagnostics, err := s.facade.Retry(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, DiagnosticsResponse{Diagnostics: nonNil(diagnostics)})
}

func runtimeTypeParam(r *http.Request) (string, error) {
	runtimeType, err := url.PathUnescape(chi.URLParam(r, "runtimeType"))
	if err != nil {
		return "", paletteerrors.NewValidationError(paletteerrors.ErrCodeComponentMissing, "malformed runtime type")
	}
	return runtimeType, nil
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return paletteerrors.NewValidationError(paletteerrors.ErrCodeConfigInvalid, "invalid request body: "+err.Error())
	}
	return nil
}

func statusFor(err error) int {
	var e *paletteerrors.ExtLibError
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch {
	case e.Code == paletteerrors.ErrCodeComponentMissing:
		return http.StatusNotFound
	case e.Type == paletteerrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case paletteerrors.IsRecoverable(e):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var e *paletteerrors.ExtLibError
	if errors.As(err, &e) {
		resp.Code = e.Code
	}
	writeJSON(w, status, resp)
}

func nonNil(diagnostics []types.Diagnostic) []types.Diagnostic {
	if diagnostics == nil {
		return []types.Diagnostic{}
	}
	return diagnostics
}

package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"imoveis/internal/adapters/auth"
	"imoveis/internal/app"
	"imoveis/internal/domain"
)

type Handlers struct {
	Q     *app.QueryService
	P     *app.PropertyService
	Leads *app.LeadService
	Auth  *auth.Issuer

	ItemsPerPage int
	LeadsRPS     float64
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/properties", h.landing)
		r.Post("/properties/search", h.search)
		r.Get("/properties/highlights", h.highlights)
		r.Get("/properties/{code}", h.getProperty)
		r.With(RateLimit(h.LeadsRPS, 3)).Post("/leads", h.submitLead)
		r.Post("/auth/token", h.issueToken)

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdmin(h.Auth, func(w http.ResponseWriter, status int, msg string) {
				writeEnvelope(w, status, envelope{Error: msg})
			}))
			r.Get("/properties", h.adminList)
			r.Post("/properties", h.createProperty)
			r.Delete("/properties", h.deleteProperty)
			r.Get("/properties/{ref}", h.adminGet)
			r.Put("/properties/{ref}", h.updateProperty)
			r.Put("/properties/{ref}/active", h.toggleActive)
			r.Put("/properties/{ref}/highlight", h.toggleHighlight)
			r.Post("/properties/{ref}/uploads", h.presignUpload)
			r.Post("/properties/{ref}/media", h.attachMedia)
			r.Post("/images/highlight", h.setImageHighlight)
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps err onto a problem response. Internal causes are logged,
// never returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := domain.StatusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeProblem(w, status, http.StatusText(status), msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return &domain.ValidationError{Message: "invalid data format"}
	}
	return nil
}

// landing never fails; storage errors yield an empty page.
func (h *Handlers) landing(w http.ResponseWriter, r *http.Request) {
	page := h.Q.LandingPage(r.Context(), queryInt(r, "page", 1), queryInt(r, "itemsPerPage", h.ItemsPerPage))
	writeJSON(w, http.StatusOK, page)
}

type searchRequest struct {
	Filters      domain.PropertyFilters `json:"filters"`
	ItemsPerPage int                    `json:"itemsPerPage"`
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ItemsPerPage == 0 {
		req.ItemsPerPage = h.ItemsPerPage
	}
	page, err := h.Q.ListByFilters(r.Context(), req.Filters, req.ItemsPerPage)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) highlights(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.ListHighlighted(r.Context(), queryInt(r, "limit", h.ItemsPerPage))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) getProperty(w http.ResponseWriter, r *http.Request) {
	p, err := h.Q.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !p.Active) {
		writeProblem(w, http.StatusNotFound, "Not Found", "property not found")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	etag, body := calcETagAndBody(p)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write property body")
	}
}

func (h *Handlers) submitLead(w http.ResponseWriter, r *http.Request) {
	var lead domain.Lead
	if err := decodeJSON(w, r, &lead); err != nil {
		writeError(w, r, err)
		return
	}
	receipt, err := h.Leads.Submit(r.Context(), lead)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) issueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tok, exp, err := h.Auth.Login(req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": tok, "expiresAt": exp.UTC()})
}

package httpserver

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"imoveis/internal/adapters/observability"
	"imoveis/internal/app"
	"imoveis/internal/domain"
)

const maxFormMemory = 32 << 20

// Multipart field names carrying media files.
var fileFields = []string{"files", "media"}

// envelope is the response shape of the admin write routes.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, e envelope) {
	e.Success = status < http.StatusBadRequest
	writeJSON(w, status, e)
}

// finish records the pipeline outcome and writes either data or the
// caller-safe message of err.
func finish(w http.ResponseWriter, r *http.Request, op string, status int, data any, err error) {
	if err != nil {
		var msg string
		status, msg = domain.StatusOf(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("op", op).Str("path", r.URL.Path).Msg("pipeline failed")
		}
		observability.ObservePipeline(op, status)
		writeEnvelope(w, status, envelope{Error: msg})
		return
	}
	observability.ObservePipeline(op, status)
	writeEnvelope(w, status, envelope{Data: data})
}

// readPropertyForm collects the multipart values and opens every uploaded
// file. The returned func closes the files and removes temp storage.
func readPropertyForm(r *http.Request) (app.PropertyForm, func(), error) {
	noop := func() {}
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return app.PropertyForm{}, noop, &domain.ValidationError{Message: "invalid data format"}
	}
	mf := r.MultipartForm
	form := app.PropertyForm{Values: make(map[string]string, len(mf.Value))}
	for k, vs := range mf.Value {
		if len(vs) == 0 {
			continue
		}
		form.Values[k] = vs[0]
		// checkbox style: infrastructure=pool[&infrastructure=gym]
		if k == "infrastructure" && (len(vs) > 1 || isCheckboxValue(vs[0])) {
			b, _ := json.Marshal(vs)
			form.Values[k] = string(b)
		}
	}

	var opened []multipart.File
	cleanup := func() {
		for _, f := range opened {
			_ = f.Close()
		}
		_ = mf.RemoveAll()
	}
	for _, field := range fileFields {
		for _, fh := range mf.File[field] {
			f, err := fh.Open()
			if err != nil {
				cleanup()
				return app.PropertyForm{}, noop, &domain.ValidationError{Field: field, Message: "unreadable file " + fh.Filename}
			}
			opened = append(opened, f)
			form.Files = append(form.Files, domain.MediaFile{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Body:        f,
			})
		}
	}
	return form, cleanup, nil
}

// isCheckboxValue reports whether v is a bare item name rather than JSON.
func isCheckboxValue(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	switch v[0] {
	case '[', '{', '"':
		return false
	}
	return true
}

func (h *Handlers) adminList(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Q.ListAll(r.Context())
	if err != nil {
		writeEnvelope(w, http.StatusInternalServerError, envelope{Error: "failed to list properties"})
		log.Error().Err(err).Msg("admin list failed")
		return
	}
	writeEnvelope(w, http.StatusOK, envelope{Data: ps})
}

func (h *Handlers) adminGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.P.Get(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		status, msg := domain.StatusOf(err)
		writeEnvelope(w, status, envelope{Error: msg})
		return
	}
	writeEnvelope(w, http.StatusOK, envelope{Data: p})
}

func (h *Handlers) createProperty(w http.ResponseWriter, r *http.Request) {
	form, done, err := readPropertyForm(r)
	defer done()
	if err != nil {
		finish(w, r, "create", 0, nil, err)
		return
	}
	p, err := h.P.Create(r.Context(), form)
	finish(w, r, "create", http.StatusCreated, p, err)
}

func (h *Handlers) updateProperty(w http.ResponseWriter, r *http.Request) {
	form, done, err := readPropertyForm(r)
	defer done()
	if err != nil {
		finish(w, r, "update", 0, nil, err)
		return
	}
	p, err := h.P.Update(r.Context(), chi.URLParam(r, "ref"), form)
	finish(w, r, "update", http.StatusOK, p, err)
}

func (h *Handlers) deleteProperty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		finish(w, r, "delete", 0, nil, err)
		return
	}
	err := h.P.Delete(r.Context(), req.Code)
	finish(w, r, "delete", http.StatusOK, map[string]string{"code": req.Code}, err)
}

func (h *Handlers) toggleActive(w http.ResponseWriter, r *http.Request) {
	p, err := h.P.ToggleActive(r.Context(), chi.URLParam(r, "ref"))
	finish(w, r, "toggle_active", http.StatusOK, p, err)
}

func (h *Handlers) toggleHighlight(w http.ResponseWriter, r *http.Request) {
	p, err := h.P.ToggleHighlight(r.Context(), chi.URLParam(r, "ref"))
	finish(w, r, "toggle_highlight", http.StatusOK, p, err)
}

func (h *Handlers) setImageHighlight(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID         int64 `json:"id"`
		PropertyID int64 `json:"propertyId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		finish(w, r, "image_highlight", 0, nil, err)
		return
	}
	err := h.P.SetImageHighlight(r.Context(), req.ID, req.PropertyID)
	finish(w, r, "image_highlight", http.StatusOK, map[string]int64{"id": req.ID, "propertyId": req.PropertyID}, err)
}

func (h *Handlers) presignUpload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileName string `json:"fileName"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		finish(w, r, "presign", 0, nil, err)
		return
	}
	up, err := h.P.PresignUpload(r.Context(), chi.URLParam(r, "ref"), req.FileName)
	finish(w, r, "presign", http.StatusOK, up, err)
}

func (h *Handlers) attachMedia(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key         string `json:"key"`
		Name        string `json:"name"`
		ContentType string `json:"contentType"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		finish(w, r, "attach_media", 0, nil, err)
		return
	}
	p, err := h.P.AttachUploaded(r.Context(), chi.URLParam(r, "ref"), req.Key, req.Name, req.ContentType)
	finish(w, r, "attach_media", http.StatusCreated, p, err)
}

package httpapi

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"cardvault/internal/library"
	"cardvault/internal/services"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Request body must be JSON with username and password.")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		s.writeMessage(w, http.StatusBadRequest, "Username and password are required.")
		return
	}
	user, err := s.auth.ValidateCredentials(req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	token, expires, err := s.auth.IssueToken(user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Login successful.",
		"token":     token,
		"expiresAt": expires.UTC(),
		"user":      user,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]any{"valid": true, "user": user})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	idx, err := s.library.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=0, must-revalidate")
	s.writeJSON(w, http.StatusOK, idx)
}

func (s *Server) handleGetCharacter(w http.ResponseWriter, r *http.Request) {
	c, err := s.library.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dl, err := s.library.Download(services.WithCharacterID(r.Context(), id), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dl.Data)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.library.OpenFile(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r, 2*s.library.MaxUploadBytes()+multipartOverhead); err != nil {
		s.writeError(w, r, err)
		return
	}
	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		s.writeMessage(w, http.StatusBadRequest, "No file uploaded.")
		return
	}
	upload, err := readUpload(headers[0])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, v, err := s.library.Upload(services.WithOperation(r.Context(), "upload"), upload)
	if err != nil {
		if !v.Valid() {
			s.writeJSON(w, http.StatusBadRequest, map[string]any{
				"message":    "Invalid character card.",
				"error":      strings.Join(v.Errors, " "),
				"validation": v,
			})
			return
		}
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Character uploaded successfully.",
		"character": c,
		"warnings":  v.Warnings,
	})
}

func (s *Server) handleValidateBatch(w http.ResponseWriter, r *http.Request) {
	uploads, ok := s.readBatch(w, r)
	if !ok {
		return
	}
	results, err := s.library.ValidateBatch(services.WithOperation(r.Context(), "validate"), uploads)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	valid := 0
	for _, v := range results {
		if v.Valid() {
			valid++
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": strconv.Itoa(valid) + " of " + strconv.Itoa(len(results)) + " files are valid.",
		"results": results,
		"summary": map[string]int{"total": len(results), "valid": valid, "invalid": len(results) - valid},
	})
}

func (s *Server) handleUploadBatch(w http.ResponseWriter, r *http.Request) {
	uploads, ok := s.readBatch(w, r)
	if !ok {
		return
	}
	result, err := s.library.UploadBatch(services.WithOperation(r.Context(), "batch_upload"), uploads)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": result.Message(),
		"result":  result,
	})
}

func (s *Server) handleUpdateCharacter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.parseMultipart(w, r, 2*s.library.MaxUploadBytes()+multipartOverhead); err != nil {
		s.writeError(w, r, err)
		return
	}
	form := r.MultipartForm
	edit := library.Edit{
		Name:        formValue(form.Value, "name"),
		Version:     formValue(form.Value, "version"),
		Description: formValue(form.Value, "description"),
	}
	if headers := form.File["file"]; len(headers) > 0 {
		upload, err := readUpload(headers[0])
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		edit.File = &upload
	}
	ctx := services.WithOperation(services.WithCharacterID(r.Context(), id), "update")
	c, err := s.library.Update(ctx, id, edit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Character updated successfully.",
		"character": c,
	})
}

func (s *Server) handleDeleteCharacter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := services.WithOperation(services.WithCharacterID(r.Context(), id), "delete")
	if _, err := s.library.Delete(ctx, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Character deleted successfully."})
}

func (s *Server) readBatch(w http.ResponseWriter, r *http.Request) ([]library.Upload, bool) {
	if err := s.parseMultipart(w, r, maxBatchFiles*s.library.MaxUploadBytes()+multipartOverhead); err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	headers := batchFiles(r.MultipartForm)
	switch {
	case len(headers) == 0:
		s.writeMessage(w, http.StatusBadRequest, "No files found to upload.")
		return nil, false
	case len(headers) > maxBatchFiles:
		s.writeMessage(w, http.StatusBadRequest, "Too many files; the limit is "+strconv.Itoa(maxBatchFiles)+".")
		return nil, false
	}
	uploads := make([]library.Upload, 0, len(headers))
	for _, fh := range headers {
		upload, err := readUpload(fh)
		if err != nil {
			s.writeError(w, r, err)
			return nil, false
		}
		uploads = append(uploads, upload)
	}
	return uploads, true
}

package gateway

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"egov/pkg/faults"

	"github.com/go-chi/chi/v5"
)

// Uploaded files are read fully before relaying, so cap the form size.
const maxUploadBytes = 32 << 20

type fileUpload struct {
	RequestID string `json:"requestId"`
	Name      string `json:"name,omitempty"`
	Type      string `json:"type,omitempty"`
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	Data      []byte `json:"data"`
}

type fileDownload struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	Data     []byte `json:"data"`
}

// handleUploadDocument accepts a multipart form with a single "file" field
// plus requestId/name/type metadata, and relays the bytes to the registry.
func (g *Gateway) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		faults.WriteHTTP(w, faults.Wrap(err, faults.KindBadRequest, "malformed multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		faults.WriteHTTP(w, faults.Wrap(err, faults.KindBadRequest, "missing file field"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		faults.WriteHTTP(w, faults.Wrap(err, faults.KindInternal, "reading upload"))
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	payload := fileUpload{
		RequestID: r.FormValue("requestId"),
		Name:      r.FormValue("name"),
		Type:      r.FormValue("type"),
		FileName:  header.Filename,
		MimeType:  mimeType,
		Data:      data,
	}
	var reply struct {
		ID string `json:"id"`
	}
	if err := g.fetch(r, MupService, "uploadDocument", payload, &reply); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

// handleStreamDocument serves the stored bytes back with their original
// content type. The file key is an unguessable object name, so possession of
// it is the access credential for authenticated callers.
func (g *Gateway) handleStreamDocument(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}
	key := chi.URLParam(r, "fileUrl")
	var result fileDownload
	if err := g.fetch(r, MupService, "getDocumentFile", map[string]string{"fileUrl": key}, &result); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(result.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", result.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (g *Gateway) handleDocumentURL(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}
	g.forward(w, r, MupService, "getDocumentUrl", map[string]string{"fileUrl": chi.URLParam(r, "fileUrl")})
}

func (g *Gateway) handleDeleteDocumentFile(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := Require(p); err != nil {
		faults.WriteHTTP(w, err)
		return
	}
	g.forward(w, r, MupService, "deleteDocumentFile", map[string]string{"fileUrl": chi.URLParam(r, "fileUrl")})
}

package http

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/couchcryptid/epw-weather-service/internal/epw"
	"github.com/couchcryptid/epw-weather-service/internal/pipeline"
)

const defaultUploadName = "upload"

// handleConvert renders an uploaded EPW body in the format named by the path.
// Identical uploads are served from the cache.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	format, err := epw.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name, body, ok := s.readUpload(w, r)
	if !ok {
		s.countConvert(format, "error")
		return
	}

	sum := sha256.Sum256(body)
	key := fmt.Sprintf("%s|%s|%s", format, name, hex.EncodeToString(sum[:]))
	if hit, ok := s.converted.Get(key); ok {
		s.countCache("hit")
		s.countConvert(format, "success")
		writeRendered(w, hit)
		return
	}
	s.countCache("miss")

	var buf bytes.Buffer
	if err := epw.FromBytes(name, body).Render(&buf, format); err != nil {
		s.countConvert(format, "error")
		writeError(w, statusFor(err), err.Error())
		return
	}
	out := rendered{contentType: format.ContentType(), body: buf.Bytes()}
	s.converted.Put(key, out)
	s.countConvert(format, "success")
	writeRendered(w, out)
}

// handleSummary parses an uploaded EPW body and returns its summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	name, body, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	summary, err := pipeline.Summarize(epw.FromBytes(name, body), s.opts.Clock.Now().UTC())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// readUpload reads the request body within the upload limit. The file name
// comes from the "name" query parameter.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = defaultUploadName
	}
	reader := io.Reader(r.Body)
	if s.opts.MaxUploadBytes > 0 {
		reader = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return "", nil, false
		}
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return "", nil, false
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "empty upload")
		return "", nil, false
	}
	return name, body, true
}

// statusFor maps weather file errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, epw.ErrFormat), errors.Is(err, epw.ErrValidation), errors.Is(err, epw.ErrNoDesignConditions):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeRendered(w http.ResponseWriter, out rendered) {
	w.Header().Set("Content-Type", out.contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(out.body) //nolint:errcheck // client went away
}

func (s *Server) countConvert(format epw.Format, outcome string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.ConvertRequests.WithLabelValues(string(format), outcome).Inc()
	}
}

func (s *Server) countCache(result string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.ConvertCache.WithLabelValues(result).Inc()
	}
}

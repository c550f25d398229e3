package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/shandysiswandi/mindjournal/internal/pkg/goerror"
)

const maxBodyBytes = 1 << 20

// Request is what handlers receive. RemoteAddr already holds the resolved
// client IP.
type Request struct {
	*http.Request
}

// DecodeBody reads exactly one JSON object into dst. Empty, oversized,
// trailing or unknown-field bodies are invalid format.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return goerror.NewInvalidFormat()
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil || len(raw) > maxBodyBytes || len(bytes.TrimSpace(raw)) == 0 {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return goerror.NewInvalidFormat()
	}

	return nil
}

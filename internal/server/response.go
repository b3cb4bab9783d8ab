package server

import (
	"encoding/json"
	"net/http"

	errs "github.com/matzehuels/crewviz/pkg/errors"
	"github.com/matzehuels/crewviz/pkg/pipeline"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      errs.Code `json:"code"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// writeError maps err to a status through its error code. Errors without a
// code are reported as internal errors without their message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errs.GetCode(err)
	msg := errs.UserMessage(err)
	if code == "" {
		code = errs.ErrCodeInternal
		msg = "internal server error"
	}
	writeJSON(w, errs.HTTPStatus(code), errorBody{Error: errorDetail{
		Code:      code,
		Message:   msg,
		RequestID: requestIDFrom(r.Context()),
	}})
}

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
}

func writeArtifact(w http.ResponseWriter, format string, data []byte) {
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

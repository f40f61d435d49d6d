package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/valyala/fastjson"

	"github.com/teranos/patql/errors"
	"github.com/teranos/patql/query"
	"github.com/teranos/patql/query/parser"
)

// maxBodyBytes bounds request bodies when the query size limit is disabled
const maxBodyBytes = 16 << 20

// errorResponse is the body of every non-2xx API response
type errorResponse struct {
	Error       string        `json:"error"`
	Kind        string        `json:"kind,omitempty"`
	Range       *parser.Range `json:"range,omitempty"`
	Token       string        `json:"token,omitempty"`
	Suggestions []string      `json:"suggestions,omitempty"`
	RequestID   string        `json:"request_id,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return errors.Wrap(err, "failed to encode JSON")
	}
	return nil
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	_ = writeJSON(w, status, errorResponse{
		Error:     message,
		RequestID: w.Header().Get(headerRequestID),
	})
}

// writeParseError maps a parse failure to 422 (structural) or 413 (resource limit)
func writeParseError(w http.ResponseWriter, err error) {
	var pe *parser.ParseError
	if !errors.As(err, &pe) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusUnprocessableEntity
	if pe.Kind == parser.ErrorKindResourceLimit {
		status = http.StatusRequestEntityTooLarge
	}
	_ = writeJSON(w, status, errorResponse{
		Error:       pe.Message,
		Kind:        string(pe.Kind),
		Range:       pe.Range,
		Token:       pe.Token,
		Suggestions: pe.Suggestions,
		RequestID:   w.Header().Get(headerRequestID),
	})
}

// queryRequest is the decoded body of the /api endpoints
type queryRequest struct {
	Query string
}

// bodyLimit allows for JSON escaping of a query at the size limit
func bodyLimit(limits query.Limits) int64 {
	maxInput := limits.MaxInputBytes
	if maxInput == 0 {
		maxInput = query.DefaultMaxInputBytes
	}
	if maxInput < 0 {
		return maxBodyBytes
	}
	return int64(maxInput)*6 + 1024
}

// readQuery decodes {"query": "..."} from the request body
func (s *Server) readQuery(w http.ResponseWriter, r *http.Request) (queryRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, bodyLimit(s.Limits())))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return queryRequest{}, errors.Wrap(errors.ErrResourceLimit, "request body too large")
		}
		return queryRequest{}, errors.NewInvalidRequestError("failed to read body: %v", err)
	}

	p := s.parsers.Get()
	defer s.parsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return queryRequest{}, errors.NewInvalidRequestError("invalid JSON: %v", err)
	}
	if v.Type() != fastjson.TypeObject {
		return queryRequest{}, errors.NewInvalidRequestError("request body must be a JSON object")
	}

	q := v.Get("query")
	if q == nil || q.Type() != fastjson.TypeString {
		return queryRequest{}, errors.NewInvalidRequestError(`"query" must be a string`)
	}
	text, _ := q.StringBytes()
	return queryRequest{Query: string(text)}, nil
}

// writeRequestError answers a readQuery failure
func writeRequestError(w http.ResponseWriter, err error) {
	if errors.IsResourceLimitError(err) {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// parseID extracts a positive integer path parameter. On failure it writes
// a 400 response and returns false.
func parseID(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (int64, bool) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, logger, http.StatusBadRequest, "Invalid "+name+": "+raw)
		return 0, false
	}
	return id, true
}

// decodeBody decodes a JSON request body into dst. On failure it writes a
// 400 response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// Descriptor accepts a connection descriptor sent either as a JSON string
// holding the document or as the object itself.
type Descriptor string

// UnmarshalJSON implements json.Unmarshaler.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*d = ""
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = Descriptor(s)
	default:
		*d = Descriptor(trimmed)
	}
	return nil
}

// queryBool reads a boolean query parameter; anything but "true" is false.
func queryBool(r *http.Request, name string) bool {
	return strings.EqualFold(r.URL.Query().Get(name), "true")
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/apperrors"
	"github.com/ydh4481/llm-ddp/pkg/llm"
)

// MsgSuccess is the envelope message of every successful response.
const MsgSuccess = "요청이 성공적으로 처리되었습니다."

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope wraps every JSON body returned by the API.
type Envelope struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	Code      int    `json:"code"`
	Timestamp string `json:"timestamp"`
}

func newEnvelope(statusCode int, message string, data any) Envelope {
	status := StatusSuccess
	if statusCode >= http.StatusBadRequest {
		status = StatusError
	}
	return Envelope{
		Status:    status,
		Message:   message,
		Data:      data,
		Code:      statusCode,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteData writes data inside a success envelope.
func WriteData(w http.ResponseWriter, statusCode int, data any) error {
	return WriteJSON(w, statusCode, newEnvelope(statusCode, MsgSuccess, data))
}

// WritePayload writes data inside an envelope whose status follows statusCode.
// Generation rejections use it to return their ERROR payload with a 4xx code.
func WritePayload(w http.ResponseWriter, statusCode int, data any) error {
	message := MsgSuccess
	if statusCode >= http.StatusBadRequest {
		message = http.StatusText(statusCode)
	}
	return WriteJSON(w, statusCode, newEnvelope(statusCode, message, data))
}

// ErrorResponse writes an error envelope with a null data field.
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, newEnvelope(statusCode, message, nil))
}

// StatusForError maps service errors to HTTP status codes.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidConnectionDescriptor),
		errors.Is(err, apperrors.ErrInvalidQuestion),
		errors.Is(err, apperrors.ErrInvalidInput),
		errors.Is(err, apperrors.ErrNoQueryInSession),
		errors.Is(err, apperrors.ErrNoRelevantTables):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrConnectionFailed),
		errors.Is(err, apperrors.ErrInvalidAgentOutput):
		return http.StatusBadGateway
	}

	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeServiceError renders err with its mapped status. Unexpected failures
// are logged with the operation name.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	status := StatusForError(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("op", op), zap.Error(err))
	} else {
		logger.Debug("Request rejected", zap.String("op", op), zap.Error(err))
	}
	if werr := ErrorResponse(w, status, err.Error()); werr != nil {
		logger.Error("Failed to write error response", zap.Error(werr))
	}
}

// writeData writes data and logs a failed write.
func writeData(w http.ResponseWriter, logger *zap.Logger, statusCode int, data any) {
	if err := WriteData(w, statusCode, data); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeError writes an error envelope and logs a failed write.
func writeError(w http.ResponseWriter, logger *zap.Logger, statusCode int, message string) {
	if err := ErrorResponse(w, statusCode, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/mind-engage/mindengage-assembly/internal/assembly"
	"github.com/mind-engage/mindengage-assembly/internal/itembank"
	"github.com/mind-engage/mindengage-assembly/internal/paper"
	"github.com/mind-engage/mindengage-assembly/internal/platform/logger"
)

const maxBody = 4 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Anything unrecognised is a
// 500 and gets logged.
func writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, assembly.ErrInvalidConfig),
		errors.Is(err, itembank.ErrInvalidItem),
		errors.Is(err, paper.ErrNoItems):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, itembank.ErrNotFound), errors.Is(err, paper.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Error("request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return b, nil
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

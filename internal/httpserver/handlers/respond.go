package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"stationgate/internal/engine"

	"go.uber.org/zap"
)

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// respondOp reports an engine operation as {ok, message} so consoles can show
// the outcome without special-casing. Invalid transitions map to 409 and
// missing rows to 404; anything else is a store failure.
func respondOp(w http.ResponseWriter, lg *zap.SugaredLogger, op string, err error) {
	if err == nil {
		respondJSON(w, map[string]any{"ok": true})
		return
	}
	status := http.StatusInternalServerError
	var inv *engine.InvalidStateError
	var nf *engine.NotFoundError
	switch {
	case errors.As(err, &inv):
		status = http.StatusConflict
	case errors.As(err, &nf):
		status = http.StatusNotFound
	}
	lg.Warnw("operation failed", "op", op, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "message": err.Error()})
}

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	service "github.com/okian/hiscore/internal/app"
	"github.com/okian/hiscore/internal/domain/model"
)

const maxBodyBytes = 1 << 20

// duplicateMessage is the error body clients already match on.
const duplicateMessage = "Duplicate score submission"

// ScoresHandler serves GET and POST /api/scores.
type ScoresHandler struct {
	deps         Dependencies
	defaultLimit int
	maxLimit     int
}

// NewScoresHandler creates a scores handler.
func NewScoresHandler(deps Dependencies, defaultLimit, maxLimit int) *ScoresHandler {
	return &ScoresHandler{deps: deps, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// HandleScores dispatches on method.
func (h *ScoresHandler) HandleScores(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.handleGet(w, r)
	case http.MethodPost:
		h.handlePost(w, r)
	default:
		methodNotAllowed(w, "api.scores", "GET, HEAD, POST")
	}
}

// handleGet serves GET /api/scores?limit=N. Missing limit means the default,
// values above the cap are clamped and values below 1 yield [].
func (h *ScoresHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scores"

	n := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("limit must be an integer")))
			return
		}
		n = min(v, h.maxLimit)
	}

	writeJSON(w, http.StatusOK, h.deps.TopN(r.Context(), n))
}

// handlePost serves POST /api/scores. An empty body is an empty submission;
// anything that is not a JSON object with an optional string player_name and
// an optional integer score is rejected.
func (h *ScoresHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_score"

	var sub model.Submission
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&sub); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Submit(r.Context(), sub)
	switch {
	case errors.Is(err, service.ErrDuplicateSubmission):
		writeError(w, http.StatusBadRequest, "duplicate", errors.New(duplicateMessage))
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	case res.Offline || res.Record == nil:
		writeJSON(w, http.StatusOK, messageResponse{Message: res.Message})
	default:
		writeJSON(w, http.StatusCreated, res.Record)
	}
}

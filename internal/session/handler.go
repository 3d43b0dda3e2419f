package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/trellislab/trellis/backend-go/internal/engine"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name string `json:"name"`
}

type createResponse struct {
	Sketch    *Session `json:"sketch"`
	EditToken string   `json:"editToken"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	sess, token, err := h.service.Create(req.Name)
	if err != nil {
		slog.Error("create sketch failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, createResponse{Sketch: sess, EditToken: token})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.List())
}

type sketchResponse struct {
	*Session
	Info engine.Info `json:"info"`
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(mux.Vars(r)["sketchId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sketchResponse{Session: sess, Info: sess.Engine.Info()})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(mux.Vars(r)["sketchId"]); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Scene(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(mux.Vars(r)["sketchId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess.Engine.Scene())
}

// ApplyOp runs one editor operation against the sketch. Refused
// operations still answer 200: the result carries the reason, and the
// model is untouched.
func (h *Handler) ApplyOp(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(mux.Vars(r)["sketchId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var op engine.Op
	if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	res := sess.Engine.Apply(op)
	if res.Applied {
		slog.Info("op applied", "sketch", sess.ID, "type", op.Type, "revision", res.Revision)
	}
	writeJSON(w, http.StatusOK, res)
}

// HitSeed answers which seed point, if any, is within grab range of the
// queried position.
func (h *Handler) HitSeed(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(mux.Vars(r)["sketchId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if errX != nil || errY != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "x and y query parameters are required"})
		return
	}

	idx, ok := sess.Engine.HitSeed(x, y)
	writeJSON(w, http.StatusOK, map[string]interface{}{"hit": ok, "index": idx})
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

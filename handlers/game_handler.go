package handlers

import (
	"net/http"
	"strconv"

	"github.com/Dosada05/bracket-pool/models"
	"github.com/Dosada05/bracket-pool/services"
	"github.com/go-chi/chi/v5"
)

type GameHandler struct {
	gameService *services.GameService
}

func NewGameHandler(gameService *services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.CreateGame(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	var round *models.Round
	if raw := r.URL.Query().Get("round"); raw != "" {
		value := models.Round(raw)
		round = &value
	}

	games, err := h.gameService.ListGames(r.Context(), round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// EnterResult записывает результат игры и запускает полный пересчёт очков.
// Повторный запрос по той же игре перезаписывает результат.
func (h *GameHandler) EnterResult(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		notFoundResponse(w, r)
		return
	}

	var input services.ResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.gameService.EnterResult(r.Context(), id, input); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "scores recomputed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

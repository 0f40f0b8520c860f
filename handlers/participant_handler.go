package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Dosada05/bracket-pool/pool"
	"github.com/Dosada05/bracket-pool/services"
	"github.com/go-chi/chi/v5"
)

type ParticipantHandler struct {
	registrationService *services.RegistrationService
	emailService        *services.EmailService
	hub                 *pool.Hub
	logger              *slog.Logger
}

func NewParticipantHandler(
	registrationService *services.RegistrationService,
	emailService *services.EmailService,
	hub *pool.Hub,
	logger *slog.Logger,
) *ParticipantHandler {
	return &ParticipantHandler{
		registrationService: registrationService,
		emailService:        emailService,
		hub:                 hub,
		logger:              logger,
	}
}

// Register регистрирует участника пула. Всегда успешен при наличии
// ростера: деградировавшая раздача лишь сигналит оператору, а не валит запрос.
func (h *ParticipantHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.registrationService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if h.emailService != nil {
		if err := h.emailService.SendWelcomeEmail(result.Participant, result.Teams); err != nil {
			h.logger.Warn("failed to send welcome email",
				slog.String("email", result.Participant.Email),
				slog.Any("error", err),
			)
		}
	}

	if result.Degraded {
		h.logger.Warn("allocation degraded: retry budget exhausted",
			slog.Int("participant_id", result.Participant.ID),
		)
		if h.emailService != nil {
			if err := h.emailService.SendAllocationAlert(result.Participant); err != nil {
				h.logger.Warn("failed to send allocation alert", slog.Any("error", err))
			}
		}
	}

	if h.hub != nil {
		h.hub.BroadcastEvent(pool.EventParticipantRegistered, map[string]interface{}{
			"participant_id": result.Participant.ID,
			"name":           result.Participant.Name,
		})
	}

	response := jsonResponse{
		"participant": result.Participant,
		"degraded":    result.Degraded,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	participants, err := h.registrationService.ListParticipants(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ParticipantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		notFoundResponse(w, r)
		return
	}

	participant, err := h.registrationService.GetParticipant(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Package events holds the HTTP handlers for the event read/CRUD surface.
package events

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/dtg-lucifer/sahotsava-be/internal/events"
	resp "github.com/dtg-lucifer/sahotsava-be/internal/lib/api/response"
	sl "github.com/dtg-lucifer/sahotsava-be/internal/lib/logger"
	"github.com/dtg-lucifer/sahotsava-be/internal/middleware/authn"
	"github.com/dtg-lucifer/sahotsava-be/internal/models"
)

type EventRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Venue       string    `json:"venue" validate:"required"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required"`
	Capacity    int       `json:"capacity" validate:"required,gt=0"`
}

type EventResponse struct {
	resp.Response
	Event models.Event `json:"event"`
}

type ListResponse struct {
	resp.Response
	Events []models.Event `json:"events"`
}

type RegistrationsResponse struct {
	resp.Response
	Registrations []models.Registration `json:"registrations"`
}

func NewList(log *slog.Logger, svc *events.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.NewList"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		list, err := svc.List(ctx)
		if err != nil {
			log.Error("failed to list events", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Events:   list,
		})
	}
}

func NewGet(log *slog.Logger, svc *events.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.NewGet"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		event, err := svc.Get(ctx, chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, events.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Event not found"))

				return
			}

			log.Error("failed to get event", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, EventResponse{
			Response: resp.OK(),
			Event:    event,
		})
	}
}

func NewCreate(log *slog.Logger, validate *validator.Validate, svc *events.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.NewCreate"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		claims, ok := authn.Claims(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("missing credentials"))

			return
		}

		var req EventRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		event, err := svc.Create(ctx, claims.Role, models.Event{
			Title:       req.Title,
			Description: req.Description,
			Venue:       req.Venue,
			StartsAt:    req.StartsAt,
			EndsAt:      req.EndsAt,
			Capacity:    req.Capacity,
			CreatedBy:   claims.UID,
		})
		if err != nil {
			if errors.Is(err, events.ErrForbidden) {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.Error("Forbidden"))

				return
			}

			log.Error("failed to create event", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("event created", slog.String("event_id", event.ID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, EventResponse{
			Response: resp.OK(),
			Event:    event,
		})
	}
}

func NewUpdate(log *slog.Logger, validate *validator.Validate, svc *events.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.NewUpdate"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		claims, ok := authn.Claims(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("missing credentials"))

			return
		}

		var req EventRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		err := svc.Update(ctx, claims.Role, models.Event{
			ID:          chi.URLParam(r, "id"),
			Title:       req.Title,
			Description: req.Description,
			Venue:       req.Venue,
			StartsAt:    req.StartsAt,
			EndsAt:      req.EndsAt,
			Capacity:    req.Capacity,
		})
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		render.JSON(w, r, resp.OK())
	}
}

func NewDelete(log *slog.Logger, svc *events.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.NewDelete"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		claims, ok := authn.Claims(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("missing credentials"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := svc.Delete(ctx, claims.Role, chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		render.JSON(w, r, resp.OK())
	}
}

func NewRegistrations(log *slog.Logger, svc *events.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.NewRegistrations"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		regs, err := svc.Registrations(ctx, chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		render.JSON(w, r, RegistrationsResponse{
			Response:      resp.OK(),
			Registrations: regs,
		})
	}
}

type TicketResponse struct {
	resp.Response
	Ticket models.Ticket `json:"ticket"`
}

func NewIssueTicket(log *slog.Logger, svc *events.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.events.NewIssueTicket"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		claims, ok := authn.Claims(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("missing credentials"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		issuer := models.User{ID: claims.UID, Email: claims.Email, Role: claims.Role}

		ticket, err := svc.IssueTicket(ctx, issuer, chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}

		log.Info("ticket issued", slog.String("ticket_id", ticket.ID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, TicketResponse{
			Response: resp.OK(),
			Ticket:   ticket,
		})
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, events.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error("Event not found"))
	case errors.Is(err, events.ErrForbidden):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, resp.Error("Forbidden"))
	default:
		log.Error("event operation failed", sl.Err(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, resp.Error("Internal error"))
	}
}

package resend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/dtg-lucifer/sahotsava-be/internal/auth"
	resp "github.com/dtg-lucifer/sahotsava-be/internal/lib/api/response"
	sl "github.com/dtg-lucifer/sahotsava-be/internal/lib/logger"
	"github.com/dtg-lucifer/sahotsava-be/internal/lib/verification"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
}

type Response struct {
	resp.Response
	Detail string `json:"detail,omitempty"`
}

// New reissues a verification token and queues the email. This endpoint is
// allowed to reveal that an address is unknown or already verified: it is
// not a login path, and admins need to operate on real addresses.
func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
	msgSender verification.Publisher,
	baseURL string,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resend.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
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

		token, err := authService.ResendVerification(ctx, req.Email)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("User not found"))

				return
			}
			if errors.Is(err, auth.ErrAlreadyVerified) {
				render.JSON(w, r, Response{
					Response: resp.OK(),
					Detail:   "already verified",
				})

				return
			}

			log.Error("failed to resend verification", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		verification.SendLink(ctx, log, msgSender, baseURL, req.Email, token)

		log.Info("verification email queued")

		render.JSON(w, r, Response{
			Response: resp.OK(),
		})
	}
}

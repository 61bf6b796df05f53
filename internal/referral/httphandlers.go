package referral

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"clinic-desk/internal/apierrors"
	"clinic-desk/internal/auth"
	"clinic-desk/internal/configs"
	"clinic-desk/internal/database"
	"clinic-desk/internal/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type httpHandler struct {
	authorizer auth.Authorizer
	service    Service
	logger     *log.Logger
}

// Setup setups the routes handled by referral context.
func Setup(router *chi.Mux, logger *log.Logger, authorizer auth.Authorizer, config configs.Config, dbConn database.Connection) {
	handler := &httpHandler{logger: logger, authorizer: authorizer, service: NewService(config, dbConn)}

	// protected routes, only for secretaries
	router.Group(func(group chi.Router) {
		group.Use(auth.JwtValidator(authorizer))
		group.Use(auth.AllowedRole(authorizer, auth.SecretaryRole))
		group.Get("/appointment-referral-list/", handler.ListReferrals)
		group.Get("/appointment/doctor-schedule/{doctorID}", handler.GetDoctorSchedule)
		group.Post("/appointment/schedule-appointment/", handler.ScheduleAppointment)
	})
}

// parseDoctorIDParameter parses the doctor ID path parameter.
func (h httpHandler) parseDoctorIDParameter(r *http.Request) (int64, error) {
	doctorIDPar := chi.URLParam(r, "doctorID")
	if doctorIDPar == "" {
		return 0, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidIdentifier), apierrors.WithHTTPStatusCode(http.StatusNotFound))
	}
	doctorID, err := strconv.ParseInt(doctorIDPar, 10, 64)
	if err != nil || doctorID <= 0 {
		return 0, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidIdentifier), apierrors.WithHTTPStatusCode(http.StatusBadRequest))
	}
	return doctorID, nil
}

// parseDateParameter parses an optional date query parameter.
func (h httpHandler) parseDateParameter(r *http.Request, parName string) (time.Time, error) {
	var zeroTime time.Time
	datePar := r.URL.Query().Get(parName)
	if datePar == "" {
		return zeroTime, nil
	}
	date, err := time.Parse("2006-01-02", datePar)
	if err != nil {
		return zeroTime, apierrors.NewAPIError(apierrors.WithDetail(ErrInvalidDateReference), apierrors.WithHTTPStatusCode(http.StatusBadRequest))
	}
	return date, nil
}

func (h httpHandler) ListReferrals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	referrals, err := h.service.ListPendingReferrals(ctx)
	if err != nil {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		switch v := err.(type) {
		case *apierrors.APIError:
			w.WriteHeader(v.HTTPStatusCode())
			_ = json.NewEncoder(w).Encode(err)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(referrals)
}

func (h httpHandler) GetDoctorSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doctorID, err := h.parseDoctorIDParameter(r)
	if err != nil {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		if apiErr, isAPIErr := err.(*apierrors.APIError); isAPIErr {
			w.WriteHeader(apiErr.HTTPStatusCode())
			_ = json.NewEncoder(w).Encode(apiErr)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	from, err := h.parseDateParameter(r, "start_date")
	if err != nil {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		if apiErr, isAPIErr := err.(*apierrors.APIError); isAPIErr {
			w.WriteHeader(apiErr.HTTPStatusCode())
			_ = json.NewEncoder(w).Encode(apiErr)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	to, err := h.parseDateParameter(r, "end_date")
	if err != nil {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		if apiErr, isAPIErr := err.(*apierrors.APIError); isAPIErr {
			w.WriteHeader(apiErr.HTTPStatusCode())
			_ = json.NewEncoder(w).Encode(apiErr)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	schedule, err := h.service.GetDoctorSchedule(ctx, doctorID, from, to)
	if err != nil {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		switch v := err.(type) {
		case *apierrors.APIError:
			w.WriteHeader(v.HTTPStatusCode())
			_ = json.NewEncoder(w).Encode(err)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(schedule)
}

func (h httpHandler) ScheduleAppointment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.authorizer.GetAuthenticatedUser(ctx)
	if err != nil {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	appointmentRequest := new(AppointmentRequest)
	if err = json.NewDecoder(r.Body).Decode(appointmentRequest); err != nil {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	updated, err := h.service.ScheduleAppointment(ctx, user, *appointmentRequest)
	if err != nil {
		logging.PrintlnError(h.logger, fmt.Sprint(r.Context().Value(middleware.RequestIDKey), " ", err))
		switch v := err.(type) {
		case *apierrors.APIError:
			w.WriteHeader(v.HTTPStatusCode())
			_ = json.NewEncoder(w).Encode(err)
			return
		case *apierrors.ValidationError:
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(err)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(updated)
}

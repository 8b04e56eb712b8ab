package racehandlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	raceservice "github.com/Black-And-White-Club/podium-bot/app/modules/race/application"
	"github.com/Black-And-White-Club/podium-bot/app/shared/httputil"
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/go-chi/chi/v5"
)

// maxCalendarSize bounds calendar uploads.
const maxCalendarSize = 5 << 20

// RaceHandlers serves the race and driver API.
type RaceHandlers struct {
	service raceservice.Service
	logger  *slog.Logger
}

func NewRaceHandlers(service raceservice.Service, logger *slog.Logger) *RaceHandlers {
	return &RaceHandlers{service: service, logger: logger}
}

type qualifyingRequest struct {
	P1 string `json:"p1"`
	P2 string `json:"p2"`
	P3 string `json:"p3"`
}

// HandleListRaces serves GET /api/races?status=open&from=RFC3339&to=RFC3339.
func (h *RaceHandlers) HandleListRaces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := raceservice.RaceFilter{Status: bettingdomain.BettingStatus(q.Get("status"))}
	switch filter.Status {
	case "", bettingdomain.StatusPending, bettingdomain.StatusOpen, bettingdomain.StatusClosed, bettingdomain.StatusCompleted:
	default:
		httputil.WriteError(w, http.StatusBadRequest, "status must be pending, open, closed or completed")
		return
	}
	for key, dst := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, key+" must be an RFC3339 timestamp")
			return
		}
		*dst = t
	}

	races, err := h.service.ListRaces(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, races)
}

// HandleGetRace serves GET /api/races/{raceID}.
func (h *RaceHandlers) HandleGetRace(w http.ResponseWriter, r *http.Request) {
	raceID, err := httputil.UUIDParam(r, "raceID")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	race, err := h.service.GetRace(r.Context(), raceID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, race)
}

// HandleCreateRace serves POST /api/races.
func (h *RaceHandlers) HandleCreateRace(w http.ResponseWriter, r *http.Request) {
	var req raceservice.RaceInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	race, err := h.service.CreateRace(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, race)
}

// HandleUpdateRace serves PUT /api/races/{raceID}.
func (h *RaceHandlers) HandleUpdateRace(w http.ResponseWriter, r *http.Request) {
	raceID, err := httputil.UUIDParam(r, "raceID")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req raceservice.RaceInput
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	race, err := h.service.UpdateRace(r.Context(), raceID, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, race)
}

// HandleSetQualifying serves PUT /api/races/{raceID}/qualifying. An empty
// body clears the qualifying order.
func (h *RaceHandlers) HandleSetQualifying(w http.ResponseWriter, r *http.Request) {
	raceID, err := httputil.UUIDParam(r, "raceID")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req *qualifyingRequest
	if r.ContentLength != 0 {
		req = &qualifyingRequest{}
		if err := httputil.DecodeJSON(r, req); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	var quali *sharedtypes.Podium
	if req != nil {
		p := sharedtypes.NewPodium(req.P1, req.P2, req.P3)
		quali = &p
	}
	race, err := h.service.SetQualifying(r.Context(), raceID, quali)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, race)
}

// HandleDeleteRace serves DELETE /api/races/{raceID}.
func (h *RaceHandlers) HandleDeleteRace(w http.ResponseWriter, r *http.Request) {
	raceID, err := httputil.UUIDParam(r, "raceID")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.service.DeleteRace(r.Context(), raceID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleImportCalendar serves POST /api/races/import with an xlsx in the
// multipart field "file".
func (h *RaceHandlers) HandleImportCalendar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCalendarSize)
	if err := r.ParseMultipartForm(maxCalendarSize); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	summary, err := h.service.ImportCalendar(r.Context(), data)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if len(summary.Created) > 0 {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, summary)
}

// HandleListDrivers serves GET /api/drivers.
func (h *RaceHandlers) HandleListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.service.ListDrivers(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, drivers)
}

// HandleCreateDriver serves POST /api/drivers.
func (h *RaceHandlers) HandleCreateDriver(w http.ResponseWriter, r *http.Request) {
	var req raceservice.DriverInfo
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.upsertDriver(w, r, req, http.StatusCreated)
}

// HandleUpdateDriver serves PUT /api/drivers/{driverID}. The path code wins
// over any code in the body.
func (h *RaceHandlers) HandleUpdateDriver(w http.ResponseWriter, r *http.Request) {
	var req raceservice.DriverInfo
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ID = sharedtypes.DriverID(chi.URLParam(r, "driverID"))
	h.upsertDriver(w, r, req, http.StatusOK)
}

func (h *RaceHandlers) upsertDriver(w http.ResponseWriter, r *http.Request, req raceservice.DriverInfo, status int) {
	driver, err := h.service.UpsertDriver(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, status, driver)
}

// HandleDeleteDriver serves DELETE /api/drivers/{driverID}.
func (h *RaceHandlers) HandleDeleteDriver(w http.ResponseWriter, r *http.Request) {
	id := sharedtypes.DriverID(chi.URLParam(r, "driverID"))
	if err := h.service.DeleteDriver(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case raceservice.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, raceservice.ErrRaceNotFound), errors.Is(err, raceservice.ErrDriverNotFound):
		return http.StatusNotFound
	case errors.Is(err, raceservice.ErrDuplicateRace), errors.Is(err, raceservice.ErrRaceHasResult):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *RaceHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Race request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		httputil.WriteError(w, status, "internal error")
		return
	}
	httputil.WriteError(w, status, err.Error())
}

package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/ride-lifecycle/internal/lifecycle"
	"github.com/example/ride-lifecycle/internal/models"
	"github.com/example/ride-lifecycle/internal/ride"
)

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

type requestRideBody struct {
	RiderID       string          `json:"rider_id"`
	Pickup        models.Location `json:"pickup"`
	Destination   models.Location `json:"destination"`
	VehicleType   string          `json:"vehicle_type"`
	PaymentMethod string          `json:"payment_method"`
	Fare          float64         `json:"fare"`
	SplitFare     bool            `json:"split_fare"`
	SplitWith     []string        `json:"split_with"`
}

func (s *Server) handleRequestRide(w http.ResponseWriter, r *http.Request) {
	var body requestRideBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if body.RiderID == "" {
		writeBadRequest(w, "rider_id is required")
		return
	}
	if !validLocation(body.Pickup) || !validLocation(body.Destination) {
		writeBadRequest(w, "pickup and destination must carry valid coordinates")
		return
	}
	newRide, err := s.Engine.RequestRide(r.Context(), lifecycle.RequestInput{
		RiderID:       body.RiderID,
		Pickup:        body.Pickup,
		Destination:   body.Destination,
		VehicleType:   body.VehicleType,
		PaymentMethod: body.PaymentMethod,
		Fare:          body.Fare,
		SplitFare:     body.SplitFare,
		SplitWith:     body.SplitWith,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newRide)
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	pending := s.Engine.ListPending(r.URL.Query().Get("driver_id"))
	writeJSON(w, http.StatusOK, pending)
}

func (s *Server) handleAcceptRide(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DriverID string `json:"driver_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DriverID == "" {
		writeBadRequest(w, "driver_id is required")
		return
	}
	accepted, err := s.Engine.AcceptRide(r.Context(), body.DriverID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accepted)
}

func (s *Server) handleRejectRide(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DriverID string `json:"driver_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DriverID == "" {
		writeBadRequest(w, "driver_id is required")
		return
	}
	s.Engine.RejectRide(body.DriverID, mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartRide(w http.ResponseWriter, r *http.Request) {
	started, err := s.Engine.StartRide(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, started)
}

func (s *Server) handleConfirmRider(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Rating int `json:"rating"`
	}
	// an empty body means "confirm without rating"; chunked requests carry
	// no Content-Length, so decode rather than sniff
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid request body")
		return
	}
	status, err := s.Engine.ConfirmByRider(r.Context(), mux.Vars(r)["id"], body.Rating)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleConfirmDriver(w http.ResponseWriter, r *http.Request) {
	status, err := s.Engine.ConfirmByDriver(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleConfirmationStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.Engine.CompletionStatus(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCancelRide(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.CancelRide(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// rideView enriches a stored ride for client display.
type rideView struct {
	*models.Ride
	PotentialPoints int     `json:"potential_points,omitempty"`
	DriverBonus     float64 `json:"driver_bonus,omitempty"`
}

func (s *Server) handleGetRide(w http.ResponseWriter, r *http.Request) {
	found, err := s.Engine.RideByID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	view := rideView{Ride: found}
	switch found.Status {
	case models.StatusCompleted:
		view.DriverBonus = s.Engine.DriverBonus(found)
	case models.StatusCanceled:
	default:
		view.PotentialPoints = s.Engine.PotentialPoints(found)
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		IsDriver bool   `json:"is_driver"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if in.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}
	writeJSON(w, http.StatusCreated, s.Accounts.CreateUser(in.Name, in.IsDriver))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.Accounts.GetUser(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// historyItem joins the driver's public profile into a completed ride.
type historyItem struct {
	*models.Ride
	DriverName   string  `json:"driver_name,omitempty"`
	DriverRating float64 `json:"driver_rating,omitempty"`
}

func (s *Server) handleUserRides(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	rides, err := s.Engine.Store.RidesForUser(mux.Vars(r)["id"], limit)
	if err != nil {
		writeError(w, err)
		return
	}
	items := make([]historyItem, len(rides))
	for i, rd := range rides {
		items[i] = historyItem{Ride: rd}
		if rd.DriverID == "" {
			continue
		}
		if d, err := s.Directory.Get(rd.DriverID); err == nil {
			items[i].DriverName = d.Name
			items[i].DriverRating = d.Rating
		}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleListDrivers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Directory.Available())
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Accounts.Leaderboard(10))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	s.WSReg.Add(userID, conn)
}

func validLocation(l models.Location) bool {
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError translates domain errors into HTTP responses. The engine never
// logs or retries; it only returns typed errors for this layer to map.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ride.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Code: "not_found", Message: err.Error()})
	case errors.Is(err, ride.ErrAlreadyMatched):
		writeJSON(w, http.StatusConflict, errorBody{Code: "already_matched", Message: err.Error()})
	case errors.Is(err, ride.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorBody{Code: "invalid_transition", Message: err.Error()})
	case errors.Is(err, ride.ErrInvalidRideState):
		writeJSON(w, http.StatusConflict, errorBody{Code: "invalid_ride_state", Message: err.Error()})
	case errors.Is(err, ride.ErrDriverUnavailable):
		writeJSON(w, http.StatusConflict, errorBody{Code: "driver_unavailable", Message: err.Error()})
	case errors.Is(err, ride.ErrInvalidRating):
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "invalid_rating", Message: err.Error()})
	case errors.Is(err, ride.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "invalid_request", Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Code: "internal", Message: err.Error()})
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Code: "bad_request", Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

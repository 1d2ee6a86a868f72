package essentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Reader is the read side of the store the HTTP API serves.
type Reader interface {
	PeopleByZip(ctx context.Context, zip string) ([]Person, error)
	PersonByID(ctx context.Context, id string) (*Person, error)
	AreasContaining(ctx context.Context, lat, lng float64) ([]AreaMatch, error)
}

// Handlers serves people and area lookups.
type Handlers struct {
	store Reader
}

func NewHandlers(store Reader) *Handlers {
	return &Handlers{store: store}
}

type PeopleOut struct {
	Zip    string   `json:"zip,omitempty"`
	Count  int      `json:"count"`
	People []Person `json:"people"`
}

type AreasOut struct {
	Lat   float64     `json:"lat"`
	Lng   float64     `json:"lng"`
	Areas []AreaMatch `json:"areas"`
}

var zip5Re = regexp.MustCompile(`^\d{5}$`)

func isZip5(s string) bool {
	return zip5Re.MatchString(s)
}

// GetPeopleByZip lists the representatives computed for a zip code.
func (h *Handlers) GetPeopleByZip(w http.ResponseWriter, r *http.Request) {
	zip := chi.URLParam(r, "zip")
	if !isZip5(zip) {
		http.Error(w, "Missing or invalid zip parameter", http.StatusBadRequest)
		return
	}

	t0 := time.Now()
	people, err := h.store.PeopleByZip(r.Context(), zip)
	if err != nil {
		h.fail(w, "people by zip", err)
		return
	}
	if people == nil {
		people = []Person{}
	}

	addServerTiming(w, [2]string{"dbread", ms(time.Since(t0))})
	addCacheHeaders(w, 3600, 86400)
	writeJSON(w, PeopleOut{Zip: zip, Count: len(people), People: people})
}

// GetPerson returns one person. Ids contain slashes, so they travel as the
// id query parameter.
func (h *Handlers) GetPerson(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if !strings.HasPrefix(id, "ocd-person/") {
		http.Error(w, "Missing or invalid id parameter", http.StatusBadRequest)
		return
	}

	p, err := h.store.PersonByID(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "Person not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.fail(w, "person", err)
		return
	}
	addCacheHeaders(w, 3600, 86400)
	writeJSON(w, p)
}

// GetAreasAtPoint lists every stored area containing a coordinate.
func (h *Handlers) GetAreasAtPoint(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		http.Error(w, "Missing or invalid lat/lng parameters", http.StatusBadRequest)
		return
	}

	t0 := time.Now()
	matches, err := h.store.AreasContaining(r.Context(), lat, lng)
	if err != nil {
		h.fail(w, "areas at point", err)
		return
	}
	if matches == nil {
		matches = []AreaMatch{}
	}

	addServerTiming(w, [2]string{"dbread", ms(time.Since(t0))})
	addCacheHeaders(w, 86400, 86400)
	writeJSON(w, AreasOut{Lat: lat, Lng: lng, Areas: matches})
}

func (h *Handlers) fail(w http.ResponseWriter, what string, err error) {
	zap.L().Error("lookup failed", zap.String("component", "essentials"), zap.String("lookup", what), zap.Error(err))
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

func addCacheHeaders(w http.ResponseWriter, maxAgeSeconds, swrSeconds int) {
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", maxAgeSeconds, swrSeconds))
	w.Header().Set("Vary", "Accept-Encoding")
}

func ms(d time.Duration) string {
	return strconv.FormatFloat(float64(d.Microseconds())/1000, 'f', 1, 64)
}

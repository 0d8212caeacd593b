package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Clark-Hu/boxoffice-monthly/internal/apperr"
	"github.com/Clark-Hu/boxoffice-monthly/internal/currency"
	"github.com/Clark-Hu/boxoffice-monthly/internal/domain"
	"github.com/Clark-Hu/boxoffice-monthly/internal/ranking"
)

const boxOfficeCacheControl = "public, s-maxage=3600, stale-while-revalidate=86400"

var errNoDigits = errors.New("no leading digits")

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *errorBody  `json:"error,omitempty"`
}

type errorBody struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

type boxOfficeData struct {
	Movies   []domain.RankedMovie `json:"movies"`
	Year     int                  `json:"year"`
	Month    int                  `json:"month"`
	Currency currency.Currency    `json:"currency,omitempty"`
	Note     string               `json:"note,omitempty"`
}

type boxOfficeQuery struct {
	Year     int
	Month    int
	Currency currency.Currency
}

func (s *Server) handleBoxOffice(w http.ResponseWriter, r *http.Request) {
	q, err := buildBoxOfficeQuery(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	movies, err := s.ranker.Top(r.Context(), q.Year, q.Month)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if movies == nil {
		movies = []domain.RankedMovie{}
	}
	if q.Currency != "" {
		for i := range movies {
			movies[i].BoxOfficeFormatted = s.formatter.Format(movies[i].BoxOffice, q.Currency)
		}
	}

	data := boxOfficeData{
		Movies:   movies,
		Year:     q.Year,
		Month:    q.Month,
		Currency: q.Currency,
	}
	if len(movies) < ranking.TopN {
		data.Note = fmt.Sprintf("Only %d movies with release data were found for %04d-%02d", len(movies), q.Year, q.Month)
	}

	w.Header().Set("Cache-Control", boxOfficeCacheControl)
	s.respondJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

// buildBoxOfficeQuery reads year, month and the optional display currency.
// Range checks are left to the ranking validator.
func buildBoxOfficeQuery(query url.Values) (boxOfficeQuery, error) {
	var q boxOfficeQuery

	rawYear, rawMonth := query.Get("year"), query.Get("month")
	if rawYear == "" || rawMonth == "" {
		return q, apperr.Validation("Year and month parameters are required")
	}
	year, yearErr := parseLooseInt(rawYear)
	month, monthErr := parseLooseInt(rawMonth)
	if yearErr != nil || monthErr != nil {
		return q, apperr.Validation("Year and month must be valid numbers")
	}
	q.Year, q.Month = year, month

	c, err := currency.Parse(query.Get("currency"))
	if err != nil {
		return q, apperr.Validation(err.Error())
	}
	q.Currency = c
	return q, nil
}

// parseLooseInt reads a leading base-10 integer the way browsers parse form
// values: leading whitespace and one sign are accepted and anything after
// the digits is ignored, so "2024abc" and "3.9" yield 2024 and 3. Values
// beyond the int range saturate.
func parseLooseInt(raw string) (int, error) {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, errNoDigits
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		n = math.MaxInt
	}
	if neg {
		n = -n
	}
	return n, nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err)
		status = http.StatusInternalServerError
		body = []byte(`{"success":false,"error":{"code":"SERVER_ERROR","message":"An unexpected error occurred"}}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// respondError writes the public form of err. Causes and upstream details
// only go to the log.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := apperr.Public(err)
	status := apperr.HTTPStatus(code)

	reqID := middleware.GetReqID(r.Context())
	switch {
	case status >= http.StatusInternalServerError:
		s.logger.Error("box office request failed", "request_id", reqID, "code", code, "error", err)
	case code != apperr.CodeValidation:
		s.logger.Warn("box office request failed", "request_id", reqID, "code", code, "error", err)
	}

	s.respondJSON(w, status, envelope{
		Success: false,
		Error:   &errorBody{Code: code, Message: message},
	})
}

/* handlers.go
 * Contains the HTTP handlers. Each one decodes the request, calls the api and maps the result or error to JSON
 */

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"hdc-league/api/api"
	"hdc-league/api/external"
	"hdc-league/api/logic"
	"hdc-league/api/store"

	"github.com/gorilla/mux"
)

// maxUploadSize caps spreadsheet and CSV uploads
const maxUploadSize = 10 << 20

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// statusFor maps an api error to its HTTP status
func statusFor(err error) int {
	var parseErr *external.ParseError
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, api.ErrUnmatchedTeam), errors.Is(err, api.ErrSubmissionContention),
		errors.Is(err, store.ErrDuplicateFixture):
		return http.StatusConflict
	case errors.Is(err, api.ErrInvalidRequest), errors.Is(err, logic.ErrInvalidSubmission),
		errors.Is(err, api.ErrNoGames), errors.As(err, &parseErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondWithAPIError writes the error response for err. Internal errors are logged and their detail is hidden
func respondWithAPIError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		requestLogger(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondWithError(w, code, "internal error")
		return
	}

	body := ErrorResponse{Error: err.Error()}
	if ute, ok := api.IsUnmatchedTeam(err); ok {
		body.Unmatched = &UnmatchedTeam{Side: ute.Side.String(), Roster: ute.Roster, Candidates: ute.Candidates}
	}
	respondWithJSON(w, code, body)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func pathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}

func adminKey(r *http.Request) string {
	return r.Header.Get(AdminKeyHeader)
}

// IngestSeries scrapes and stores a series from its URL
func (s *Server) IngestSeries(w http.ResponseWriter, r *http.Request) {
	var req api.IngestRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := s.api.IngestSeries(r.Context(), req)
	if err != nil {
		requestLogger(r).Warn().Err(err).Str("series_url", req.SeriesURL).Msg("ingest failed")
		respondWithAPIError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// IngestUpload stores a series from an uploaded CSV or spreadsheet. The multipart form carries the file under "file"
// and the division, week, team_a_id and team_b_id fields
func (s *Server) IngestUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Could not read upload")
		return
	}

	division, errDiv := strconv.Atoi(r.FormValue("division"))
	week, errWeek := strconv.Atoi(r.FormValue("week"))
	if errDiv != nil || errWeek != nil {
		respondWithError(w, http.StatusBadRequest, "division and week must be numbers")
		return
	}

	report, err := s.api.IngestUpload(r.Context(), api.UploadRequest{
		Filename: header.Filename,
		Data:     data,
		Division: division,
		Week:     week,
		TeamAID:  strings.TrimSpace(r.FormValue("team_a_id")),
		TeamBID:  strings.TrimSpace(r.FormValue("team_b_id")),
	})
	if err != nil {
		requestLogger(r).Warn().Err(err).Str("filename", header.Filename).Msg("upload failed")
		respondWithAPIError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// SubmitResult records one team's claimed series result
func (s *Server) SubmitResult(w http.ResponseWriter, r *http.Request) {
	var req api.SubmissionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := s.api.SubmitResult(r.Context(), req)
	if err != nil {
		respondWithAPIError(w, r, err)
		return
	}

	code := http.StatusOK
	if res.Outcome == logic.OutcomePending {
		code = http.StatusAccepted
	}
	respondWithJSON(w, code, res)
}

func (s *Server) GetTeams(w http.ResponseWriter, r *http.Request) {
	division := 0
	if v := r.URL.Query().Get("division"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "division must be a number")
			return
		}
		division = d
	}

	teams, err := s.api.GetTeams(r.Context(), division)
	if err != nil {
		respondWithAPIError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, teams)
}

func (s *Server) GetStandings(w http.ResponseWriter, r *http.Request) {
	division, err := pathInt(r, "division")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "division must be a number")
		return
	}

	table, err := s.api.GetStandings(r.Context(), division)
	if err != nil {
		respondWithAPIError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, table)
}

// GetLeaderboard returns the division leaderboard, sorted by the optional ?sort= key
func (s *Server) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	division, err := pathInt(r, "division")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "division must be a number")
		return
	}

	board, err := s.api.GetLeaderboard(r.Context(), division, r.URL.Query().Get("sort"))
	if err != nil {
		respondWithAPIError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, board)
}

func (s *Server) GetMatch(w http.ResponseWriter, r *http.Request) {
	detail, err := s.api.GetMatchDetail(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithAPIError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, detail)
}

func (s *Server) GetDisputes(w http.ResponseWriter, r *http.Request) {
	fixtures, err := s.api.GetDisputed(r.Context())
	if err != nil {
		respondWithAPIError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, fixtures)
}

// ApproveSubmission records the submission's score as the official result
func (s *Server) ApproveSubmission(w http.ResponseWriter, r *http.Request) {
	match, err := s.api.ApproveSubmission(r.Context(), adminKey(r), mux.Vars(r)["id"])
	if err != nil {
		respondWithAPIError(w, r, err)
		return
	}
	requestLogger(r).Info().Str("match_id", match.ID).Str("match_key", match.MatchKey).Msg("submission approved")
	respondWithJSON(w, http.StatusOK, match)
}

func (s *Server) DeleteSubmission(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.api.DeleteSubmission(r.Context(), adminKey(r), id); err != nil {
		respondWithAPIError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("submission %s deleted", id)})
}

// AddMatch records a result directly, bypassing the submission workflow
func (s *Server) AddMatch(w http.ResponseWriter, r *http.Request) {
	var req api.MatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	match, err := s.api.AddMatch(r.Context(), adminKey(r), req)
	if err != nil {
		respondWithAPIError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, match)
}

func (s *Server) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.api.DeleteMatch(r.Context(), adminKey(r), id); err != nil {
		respondWithAPIError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("match %s deleted", id)})
}

/* models.go
 * Contains the structs used by the web server and its JSON responses
 */

package web

import (
	"hdc-league/api/api"
	"hdc-league/api/logic"

	"github.com/rs/zerolog"
)

// Config holds the configuration for the web server
type Config struct {
	Addr        string
	API         *api.API
	CORSOrigins []string
	Logger      zerolog.Logger
}

// Server is the HTTP server that exposes the league api as JSON
type Server struct {
	api    *api.API
	logger zerolog.Logger
}

// ErrorResponse is the body of every non 2xx response
type ErrorResponse struct {
	Error     string         `json:"error"`
	Unmatched *UnmatchedTeam `json:"unmatched,omitempty"`
}

// UnmatchedTeam tells the caller which side needs a manual team selection
type UnmatchedTeam struct {
	Side       string            `json:"side"`
	Roster     []string          `json:"roster"`
	Candidates []logic.TeamScore `json:"candidates"`
}

// MessageResponse is returned by routes that have nothing else to report
type MessageResponse struct {
	Message string `json:"message"`
}

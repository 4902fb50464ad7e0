/* reconcile.go
 * Contains the decision half of the Submission Reconciler. Both teams of a fixture report the series score on their
 * own. The first report waits as pending; a second report either confirms it or puts both into dispute. Storage and
 * atomicity live in the api package, this file only decides
 */

package logic

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"hdc-league/api/shared"
)

// Best of five rules
const (
	MapsToWinSeries = 3
	MaxSeriesMaps   = 5
)

var ErrInvalidSubmission = errors.New("invalid submission")

// InvalidSubmissionError is returned before any state is touched when a report cannot be accepted
type InvalidSubmissionError struct {
	Reason string
}

func (e *InvalidSubmissionError) Error() string {
	return "invalid submission: " + e.Reason
}

func (e *InvalidSubmissionError) Unwrap() error {
	return ErrInvalidSubmission
}

func invalidf(format string, args ...any) error {
	return &InvalidSubmissionError{Reason: fmt.Sprintf(format, args...)}
}

// ScoreReport is a result as typed by one team, oriented from that team's point of view
type ScoreReport struct {
	Division     int
	Week         int
	TeamID       string
	OpponentID   string
	TeamMaps     int
	OpponentMaps int
	SubmittedBy  string
}

// Outcome is what a new report does to the fixture
type Outcome int

const (
	OutcomePending   Outcome = iota // first report, waiting for the opponent
	OutcomeConfirmed                // both reports agree, a match is created
	OutcomeDisputed                 // reports disagree, both wait for an admin
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeDisputed:
		return "disputed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Decision is the reconciler's verdict. ExistingStatus is empty when there was no pending report
type Decision struct {
	Outcome        Outcome
	IncomingStatus shared.SubmissionStatus
	ExistingStatus shared.SubmissionStatus
}

// MatchKey identifies a fixture independent of which team reports it
func MatchKey(teamA, teamB string, week int) string {
	ids := []string{teamA, teamB}
	sort.Strings(ids)
	return fmt.Sprintf("%s_%s_w%d", ids[0], ids[1], week)
}

// ValidateSeriesScore checks a best of five map score
func ValidateSeriesScore(mapsA, mapsB int) error {
	if mapsA < 0 || mapsB < 0 {
		return invalidf("map counts cannot be negative")
	}
	if mapsA+mapsB > MaxSeriesMaps {
		return invalidf("a best of %d cannot have %d maps", MaxSeriesMaps, mapsA+mapsB)
	}
	if mapsA < MapsToWinSeries && mapsB < MapsToWinSeries {
		return invalidf("one team must win %d maps", MapsToWinSeries)
	}
	if mapsA >= MapsToWinSeries && mapsB >= MapsToWinSeries {
		return invalidf("both teams cannot win %d maps", MapsToWinSeries)
	}
	return nil
}

// NormalizeReport validates a report and turns it into a submission in canonical orientation, lower team id first.
// The returned submission has no id, timestamp or status yet
func NormalizeReport(r ScoreReport) (shared.Submission, error) {
	teamID := strings.TrimSpace(r.TeamID)
	opponentID := strings.TrimSpace(r.OpponentID)
	if teamID == "" || opponentID == "" {
		return shared.Submission{}, invalidf("both teams are required")
	}
	if teamID == opponentID {
		return shared.Submission{}, invalidf("a team cannot play itself")
	}
	if r.Week < 1 {
		return shared.Submission{}, invalidf("week must be at least 1")
	}
	if err := ValidateSeriesScore(r.TeamMaps, r.OpponentMaps); err != nil {
		return shared.Submission{}, err
	}

	s := shared.Submission{
		MatchKey:         MatchKey(teamID, opponentID, r.Week),
		Division:         r.Division,
		Week:             r.Week,
		SubmittingTeamID: teamID,
		SubmittedBy:      r.SubmittedBy,
	}
	if teamID < opponentID {
		s.Team1ID, s.Team2ID = teamID, opponentID
		s.Team1Maps, s.Team2Maps = r.TeamMaps, r.OpponentMaps
	} else {
		s.Team1ID, s.Team2ID = opponentID, teamID
		s.Team1Maps, s.Team2Maps = r.OpponentMaps, r.TeamMaps
	}
	return s, nil
}

// Reconcile decides what a new report does given the pending report for the same fixture, if any.
// Preconditions: incoming came from NormalizeReport; existing is the pending submission for the same match key or nil
// Postconditions: Returns the outcome and the statuses both reports move to, or an InvalidSubmissionError when the
// same team reports twice while its first report is still waiting
func Reconcile(existing *shared.Submission, incoming shared.Submission) (Decision, error) {
	if existing == nil || existing.Status != shared.StatusPending {
		return Decision{Outcome: OutcomePending, IncomingStatus: shared.StatusPending}, nil
	}
	if existing.MatchKey != incoming.MatchKey {
		return Decision{}, fmt.Errorf("reconcile %s against %s: match keys differ", incoming.MatchKey, existing.MatchKey)
	}
	if existing.SubmittingTeamID != "" && existing.SubmittingTeamID == incoming.SubmittingTeamID {
		return Decision{}, invalidf("this team already reported the fixture, waiting for the opponent")
	}

	if existing.Team1Maps == incoming.Team1Maps && existing.Team2Maps == incoming.Team2Maps {
		return Decision{
			Outcome:        OutcomeConfirmed,
			IncomingStatus: shared.StatusResolved,
			ExistingStatus: shared.StatusResolved,
		}, nil
	}
	return Decision{
		Outcome:        OutcomeDisputed,
		IncomingStatus: shared.StatusDisputed,
		ExistingStatus: shared.StatusDisputed,
	}, nil
}

// MatchFromSubmission builds the confirmed match for a submission. Id and timestamp are left to the caller
func MatchFromSubmission(s shared.Submission, adminApproved bool) shared.Match {
	return shared.Match{
		MatchKey:      s.MatchKey,
		Division:      s.Division,
		Week:          s.Week,
		Team1ID:       s.Team1ID,
		Team2ID:       s.Team2ID,
		Team1Maps:     s.Team1Maps,
		Team2Maps:     s.Team2Maps,
		AdminApproved: adminApproved,
	}
}

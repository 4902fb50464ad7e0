/* submissions.go
 * Contains the submission workflow and the admin overrides. The decision for a new report is made by the logic
 * package; this file applies it to the store with conditional updates so that two reports arriving together cannot
 * both confirm the same pending report
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hdc-league/api/logic"
	"hdc-league/api/shared"
	"hdc-league/api/store"

	"github.com/google/uuid"
)

// maxSubmitAttempts bounds how often a submission re-reads the fixture after losing a race
const maxSubmitAttempts = 3

// SubmitResult records one team's claimed result for a fixture
// Preconditions: Receives the report. Teams may be named instead of given by id
// Postconditions: Returns what the report did to the fixture, an InvalidSubmissionError if it was rejected before
// any state changed, or ErrSubmissionContention if the fixture kept changing underneath it
func (a *API) SubmitResult(ctx context.Context, req SubmissionRequest) (SubmissionResult, error) {
	teamID, opponentID, err := a.resolveSubmissionTeams(ctx, req)
	if err != nil {
		return SubmissionResult{}, err
	}

	incoming, err := logic.NormalizeReport(logic.ScoreReport{
		Division:     req.Division,
		Week:         req.Week,
		TeamID:       teamID,
		OpponentID:   opponentID,
		TeamMaps:     req.TeamMaps,
		OpponentMaps: req.OpponentMaps,
		SubmittedBy:  req.SubmittedBy,
	})
	if err != nil {
		return SubmissionResult{}, err
	}

	log := a.logger.With().Str("match_key", incoming.MatchKey).Str("team_id", teamID).Logger()

	for attempt := 1; attempt <= maxSubmitAttempts; attempt++ {
		existing, err := a.Store.FindPendingSubmission(ctx, incoming.MatchKey)
		if err != nil {
			return SubmissionResult{}, err
		}
		decision, err := logic.Reconcile(existing, incoming)
		if err != nil {
			return SubmissionResult{}, err
		}

		result, err := a.applyDecision(ctx, decision, existing, incoming)
		if errors.Is(err, store.ErrPendingExists) || errors.Is(err, store.ErrStaleSubmission) {
			log.Debug().Int("attempt", attempt).Err(err).Msg("fixture changed during submission, retrying")
			continue
		}
		if err != nil {
			return SubmissionResult{}, err
		}

		log.Info().Str("outcome", decision.Outcome.String()).Msg("submission recorded")
		return result, nil
	}

	log.Warn().Int("attempts", maxSubmitAttempts).Msg("giving up on contended fixture")
	return SubmissionResult{}, ErrSubmissionContention
}

// applyDecision writes one reconciler decision. The existing report is always moved first, with a condition on its
// current status, so a lost race is reported as ErrStaleSubmission before anything else is written
func (a *API) applyDecision(ctx context.Context, d logic.Decision, existing *shared.Submission, incoming shared.Submission) (SubmissionResult, error) {
	sub := incoming
	sub.ID = uuid.NewString()
	sub.CreatedAt = time.Now().UTC()
	sub.Status = d.IncomingStatus
	result := SubmissionResult{Outcome: d.Outcome, Status: d.Outcome.String(), Submission: sub}

	if d.Outcome == logic.OutcomePending {
		if err := a.Store.InsertSubmission(ctx, sub); err != nil {
			return SubmissionResult{}, err
		}
		return result, nil
	}

	if err := a.Store.TransitionSubmission(ctx, existing.ID, shared.StatusPending, d.ExistingStatus); err != nil {
		return SubmissionResult{}, err
	}

	if d.Outcome == logic.OutcomeConfirmed {
		match := logic.MatchFromSubmission(incoming, false)
		match.ID = uuid.NewString()
		match.CreatedAt = sub.CreatedAt
		if err := a.Store.InsertMatch(ctx, match); err != nil {
			a.rollback(ctx, existing.ID, d.ExistingStatus)
			if errors.Is(err, store.ErrDuplicateFixture) {
				return SubmissionResult{}, &logic.InvalidSubmissionError{Reason: "a result for this fixture is already recorded"}
			}
			return SubmissionResult{}, fmt.Errorf("failed to create match: %w", err)
		}
		result.Match = &match
	}

	if err := a.Store.InsertSubmission(ctx, sub); err != nil {
		// the existing report has already moved on, the incoming one is still worth surfacing
		a.logger.Error().Err(err).Str("match_key", sub.MatchKey).Msg("failed to store second submission")
		return SubmissionResult{}, fmt.Errorf("failed to store submission: %w", err)
	}
	return result, nil
}

func (a *API) rollback(ctx context.Context, id string, from shared.SubmissionStatus) {
	if err := a.Store.TransitionSubmission(ctx, id, from, shared.StatusPending); err != nil {
		a.logger.Error().Err(err).Str("submission_id", id).Msg("failed to roll back submission")
	}
}

// resolveSubmissionTeams turns names into ids when ids were not given
func (a *API) resolveSubmissionTeams(ctx context.Context, req SubmissionRequest) (string, string, error) {
	teamID := strings.TrimSpace(req.TeamID)
	opponentID := strings.TrimSpace(req.OpponentID)
	if teamID != "" && opponentID != "" {
		return teamID, opponentID, nil
	}

	teams, err := a.Store.GetTeams(ctx, req.Division)
	if err != nil {
		return "", "", fmt.Errorf("failed to load teams: %w", err)
	}

	resolve := func(id, name string) (string, error) {
		if id != "" {
			return id, nil
		}
		matched, invalid := logic.ResolveTeams([]string{name}, teams)
		if len(invalid) > 0 || len(matched) == 0 {
			return "", &logic.InvalidSubmissionError{Reason: fmt.Sprintf("unknown team '%s'", strings.TrimSpace(name))}
		}
		return matched[0].ID, nil
	}

	if teamID, err = resolve(teamID, req.TeamName); err != nil {
		return "", "", err
	}
	if opponentID, err = resolve(opponentID, req.OpponentName); err != nil {
		return "", "", err
	}
	return teamID, opponentID, nil
}

// ApproveSubmission is the admin override that turns a pending or disputed submission into a confirmed match
func (a *API) ApproveSubmission(ctx context.Context, adminKey, id string) (shared.Match, error) {
	if err := a.Authorize(adminKey); err != nil {
		return shared.Match{}, err
	}

	sub, err := a.Store.GetSubmission(ctx, id)
	if err != nil {
		return shared.Match{}, err
	}
	if sub.Status == shared.StatusResolved {
		return shared.Match{}, &logic.InvalidSubmissionError{Reason: "submission is already resolved"}
	}

	if err := a.Store.TransitionSubmission(ctx, sub.ID, sub.Status, shared.StatusResolved); err != nil {
		return shared.Match{}, err
	}

	match := logic.MatchFromSubmission(sub, true)
	match.ID = uuid.NewString()
	match.CreatedAt = time.Now().UTC()
	if err := a.Store.InsertMatch(ctx, match); err != nil {
		if rbErr := a.Store.TransitionSubmission(ctx, sub.ID, shared.StatusResolved, sub.Status); rbErr != nil {
			a.logger.Error().Err(rbErr).Str("submission_id", sub.ID).Msg("failed to roll back approval")
		}
		if errors.Is(err, store.ErrDuplicateFixture) {
			return shared.Match{}, &logic.InvalidSubmissionError{Reason: "a result for this fixture is already recorded"}
		}
		return shared.Match{}, fmt.Errorf("failed to create match: %w", err)
	}

	// the other side of a dispute is settled by the same approval
	if _, err := a.Store.ResolveSubmissions(ctx, sub.MatchKey); err != nil {
		a.logger.Warn().Err(err).Str("match_key", sub.MatchKey).Msg("failed to resolve remaining submissions")
	}

	a.logger.Info().Str("submission_id", sub.ID).Str("match_id", match.ID).Msg("submission approved by admin")
	return match, nil
}

// DeleteSubmission is the admin override that discards a submission without creating a match
func (a *API) DeleteSubmission(ctx context.Context, adminKey, id string) error {
	if err := a.Authorize(adminKey); err != nil {
		return err
	}
	if err := a.Store.DeleteSubmission(ctx, id); err != nil {
		return err
	}
	a.logger.Info().Str("submission_id", id).Msg("submission deleted by admin")
	return nil
}

// AddMatch lets an admin record a confirmed result directly
func (a *API) AddMatch(ctx context.Context, adminKey string, req MatchRequest) (shared.Match, error) {
	if err := a.Authorize(adminKey); err != nil {
		return shared.Match{}, err
	}

	sub, err := logic.NormalizeReport(logic.ScoreReport{
		Division:     req.Division,
		Week:         req.Week,
		TeamID:       req.Team1ID,
		OpponentID:   req.Team2ID,
		TeamMaps:     req.Team1Maps,
		OpponentMaps: req.Team2Maps,
	})
	if err != nil {
		return shared.Match{}, err
	}

	match := logic.MatchFromSubmission(sub, true)
	match.ID = uuid.NewString()
	match.CreatedAt = time.Now().UTC()
	if err := a.Store.InsertMatch(ctx, match); err != nil {
		if errors.Is(err, store.ErrDuplicateFixture) {
			return shared.Match{}, &logic.InvalidSubmissionError{Reason: "a result for this fixture is already recorded"}
		}
		return shared.Match{}, err
	}
	if _, err := a.Store.ResolveSubmissions(ctx, match.MatchKey); err != nil {
		a.logger.Warn().Err(err).Str("match_key", match.MatchKey).Msg("failed to resolve open submissions")
	}
	return match, nil
}

// DeleteMatch lets an admin remove a match with its games and stats
func (a *API) DeleteMatch(ctx context.Context, adminKey, id string) error {
	if err := a.Authorize(adminKey); err != nil {
		return err
	}
	if err := a.Store.DeleteMatch(ctx, id); err != nil {
		return err
	}
	a.logger.Info().Str("match_id", id).Msg("match deleted by admin")
	return nil
}

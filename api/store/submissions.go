/* submissions.go
 * Contains the methods for the match_submissions collection. Status changes are conditional on the current status so
 * two concurrent submitters cannot both act on the same pending record
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hdc-league/api/shared"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FindPendingSubmission returns the pending submission for a fixture, or nil if there is none
func (s *Store) FindPendingSubmission(ctx context.Context, matchKey string) (*shared.Submission, error) {
	var sub shared.Submission
	err := s.Collections.Submissions.FindOne(ctx, bson.M{"match_key": matchKey, "status": shared.StatusPending}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending submission for %s: %w", matchKey, err)
	}
	return &sub, nil
}

// InsertSubmission stores a submission. Inserting a second pending submission for one fixture returns
// ErrPendingExists
func (s *Store) InsertSubmission(ctx context.Context, submission shared.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = time.Now().UTC()
	}
	if !submission.Status.Valid() {
		return fmt.Errorf("invalid submission status %q", submission.Status)
	}
	if _, err := s.Collections.Submissions.InsertOne(ctx, submission); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrPendingExists
		}
		return fmt.Errorf("failed to insert submission for %s: %w", submission.MatchKey, err)
	}
	return nil
}

// TransitionSubmission moves a submission from one status to another
// Preconditions: Receives the submission id, the status it is expected to be in and the status to move to
// Postconditions: Returns ErrStaleSubmission if the submission was not in the expected status, otherwise nil or a
// driver error
func (s *Store) TransitionSubmission(ctx context.Context, id string, from, to shared.SubmissionStatus) error {
	if !to.Valid() {
		return fmt.Errorf("invalid submission status %q", to)
	}
	res, err := s.Collections.Submissions.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		return fmt.Errorf("failed to update submission %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrStaleSubmission
	}
	return nil
}

// GetSubmission returns a submission by id, or ErrNotFound
func (s *Store) GetSubmission(ctx context.Context, id string) (shared.Submission, error) {
	var sub shared.Submission
	if err := s.Collections.Submissions.FindOne(ctx, bson.M{"_id": id}).Decode(&sub); err != nil {
		return shared.Submission{}, notFoundOr(err, "failed to find submission %s", id)
	}
	return sub, nil
}

// GetSubmissionsByStatus returns all submissions in a status, oldest first
func (s *Store) GetSubmissionsByStatus(ctx context.Context, status shared.SubmissionStatus) ([]shared.Submission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.Collections.Submissions.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s submissions: %w", status, err)
	}
	defer cursor.Close(ctx)

	subs := []shared.Submission{}
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode submissions: %w", err)
	}
	return subs, nil
}

// ResolveSubmissions marks every open submission of a fixture resolved and returns how many were changed
func (s *Store) ResolveSubmissions(ctx context.Context, matchKey string) (int64, error) {
	res, err := s.Collections.Submissions.UpdateMany(ctx,
		bson.M{"match_key": matchKey, "status": bson.M{"$in": bson.A{shared.StatusPending, shared.StatusDisputed}}},
		bson.M{"$set": bson.M{"status": shared.StatusResolved}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve submissions for %s: %w", matchKey, err)
	}
	return res.ModifiedCount, nil
}

// DeleteSubmission removes a submission by id
func (s *Store) DeleteSubmission(ctx context.Context, id string) error {
	res, err := s.Collections.Submissions.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete submission %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/domains/author/model"
	"bookreview-backend/internal/domains/author/source"
	"bookreview-backend/internal/infrastructure/metrics"
)

// =====================================================
// RECONCILIATION
// =====================================================

// Reconcile resolves rec to exactly one canonical author.
//
// Lookup order: external id for rec.Source, then exact (given, family)
// name. A match is backfilled with whatever it is still missing; no match
// creates a new row. Calls for the same name are serialized in-process and
// the store resolves cross-process races with create-or-fetch.
func (s *authorService) Reconcile(ctx context.Context, rec model.ExternalAuthorRecord) (*model.Author, error) {
	given, family := model.SplitName(rec.DisplayName())
	if given == "" {
		metrics.ReconcileOutcomes.WithLabelValues("error").Inc()
		return nil, model.ErrEmptyAuthorName
	}
	if !rec.Source.Valid() {
		metrics.ReconcileOutcomes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownSource, rec.Source)
	}

	unlock := s.locks.Lock(source.FoldName(given + " " + family))
	defer unlock()

	author, outcome, err := s.reconcile(ctx, rec, given, family)
	if err != nil {
		metrics.ReconcileOutcomes.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ReconcileOutcomes.WithLabelValues(outcome).Inc()

	log.Debug().
		Int64("author_id", author.ID).
		Str("source", string(rec.Source)).
		Str("outcome", outcome).
		Msg("author reconciled")

	return author, nil
}

func (s *authorService) reconcile(ctx context.Context, rec model.ExternalAuthorRecord, given, family string) (*model.Author, string, error) {
	// Step 1: external id
	if rec.SourceID != "" {
		existing, err := s.repo.FindByExternalID(ctx, rec.Source, rec.SourceID)
		if err != nil {
			return nil, "", fmt.Errorf("find author by external id: %w", err)
		}
		if existing != nil {
			updated, err := s.backfill(ctx, existing, rec, false)
			return updated, "matched_id", err
		}
	}

	// Step 2: exact name
	existing, err := s.repo.FindByName(ctx, given, family)
	if err != nil {
		return nil, "", fmt.Errorf("find author by name: %w", err)
	}
	if existing != nil {
		updated, err := s.backfill(ctx, existing, rec, true)
		return updated, "matched_name", err
	}

	// Step 3: create
	author := &model.Author{
		GivenName:  given,
		FamilyName: family,
		Bio:        nonEmpty(rec.Bio),
		PhotoURL:   nonEmpty(rec.PhotoURL),
	}
	author.SetExternalID(rec.Source, rec.SourceID)

	created, err := s.repo.Create(ctx, author)
	if err != nil {
		return nil, "", fmt.Errorf("create author: %w", err)
	}
	return created, "created", nil
}

// backfill fills fields that are still empty on existing. Populated fields
// are never overwritten.
func (s *authorService) backfill(ctx context.Context, existing *model.Author, rec model.ExternalAuthorRecord, withExternalID bool) (*model.Author, error) {
	patch := *existing
	changed := false

	if withExternalID && patch.SetExternalID(rec.Source, rec.SourceID) {
		changed = true
	}
	if !patch.HasBio() {
		if bio := nonEmpty(rec.Bio); bio != nil {
			patch.Bio = bio
			changed = true
		}
	}
	if !patch.HasPhoto() {
		if photo := nonEmpty(rec.PhotoURL); photo != nil {
			patch.PhotoURL = photo
			changed = true
		}
	}

	if !changed {
		return existing, nil
	}

	updated, err := s.repo.Update(ctx, &patch)
	if err != nil {
		// The id already belongs to another row; keep the name match as is
		if errors.Is(err, model.ErrDuplicateExtID) {
			log.Warn().
				Int64("author_id", existing.ID).
				Str("source", string(rec.Source)).
				Str("source_id", rec.SourceID).
				Msg("external id already linked to another author")
			return existing, nil
		}
		return nil, fmt.Errorf("backfill author %d: %w", existing.ID, err)
	}
	return updated, nil
}

// ReconcileAll reconciles records one by one. A failure never stops the
// remaining records.
func (s *authorService) ReconcileAll(ctx context.Context, recs []model.ExternalAuthorRecord) ([]*model.Author, error) {
	authors := make([]*model.Author, len(recs))
	var errs []error

	for i, rec := range recs {
		author, err := s.Reconcile(ctx, rec)
		if err != nil {
			errs = append(errs, fmt.Errorf("reconcile %q from %s: %w", rec.DisplayName(), rec.Source, err))
			continue
		}
		authors[i] = author
	}

	return authors, errors.Join(errs...)
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sapiencia-analitica/matricula-portal/types"
)

const lookupTimeout = 10 * time.Second

// EnrollmentRepository defines the reporting-view read used by the service.
type EnrollmentRepository interface {
	FindByDocument(ctx context.Context, documento string) (types.RecordSet, error)
}

// EnrollmentService answers document lookups against the reporting view.
// Document format validation is the caller's job; the service returns the
// complete, unmodified row set.
type EnrollmentService struct {
	repo EnrollmentRepository
}

func NewEnrollmentService(repo EnrollmentRepository) *EnrollmentService {
	return &EnrollmentService{repo: repo}
}

// Lookup returns every row matching the document number. An empty set is a
// valid answer and must not be confused with a failure; only store errors
// produce ErrQuery.
func (s *EnrollmentService) Lookup(ctx context.Context, documento string) (types.RecordSet, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	set, err := s.repo.FindByDocument(ctx, documento)
	if err != nil {
		return types.RecordSet{}, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return set, nil
}

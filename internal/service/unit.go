package service

import (
	"context"
	"errors"

	"github.com/spec-kit/orgchart-service/internal/domain"
	"github.com/spec-kit/orgchart-service/internal/events"
	"github.com/spec-kit/orgchart-service/internal/repository"
	apperrors "github.com/spec-kit/orgchart-service/pkg/util/errorutil"
)

// unitOfWork collects what one mutating call produced. It rides in the
// context so engines can report actions and events without extra plumbing;
// the facade acts on it only after the transaction committed.
type unitOfWork struct {
	commit  *domain.Commit
	actions []domain.CommitAction
	events  []events.Event
}

// errNothingChanged rolls back a unit of work that produced no actions or events.
var errNothingChanged = errors.New("nothing changed")

func (u *unitOfWork) empty() bool {
	return len(u.actions) == 0 && len(u.events) == 0
}

type unitKey struct{}

func withUnit(ctx context.Context, u *unitOfWork) context.Context {
	return context.WithValue(ctx, unitKey{}, u)
}

func unitFrom(ctx context.Context) *unitOfWork {
	u, _ := ctx.Value(unitKey{}).(*unitOfWork)
	return u
}

func emit(ctx context.Context, event events.Event) {
	if u := unitFrom(ctx); u != nil {
		u.events = append(u.events, event)
	}
}

// notFound translates repository.ErrNotFound into the domain error for resource.
func notFound(err error, resource string, details map[string]any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, details)
	}
	return apperrors.MapError(err)
}

func namePtr(name string) *string {
	return &name
}

func errorIsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

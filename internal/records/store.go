package records

import (
	"context"

	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/domain"
)

// Store is the persistence gateway for the two record kinds the funnel owns.
// All implementations address records by the opaque ids the remote store
// assigns. Link/unlink maintain the only relationship in the model: a contact
// belongs to a project iff its id is in the project's link list.
type Store interface {
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	CreateProject(ctx context.Context, fields domain.ProjectPatch) (*domain.Project, error)
	UpdateProject(ctx context.Context, id string, fields domain.ProjectPatch) (*domain.Project, error)
	DeleteProject(ctx context.Context, id string) error

	// GetContactsByIDs batches a find-by-id-set. Result order is not
	// guaranteed to match the input. An empty id set returns an empty slice
	// without any remote call.
	GetContactsByIDs(ctx context.Context, ids []string) ([]domain.Contact, error)
	CreateContact(ctx context.Context, fields domain.ContactPatch) (*domain.Contact, error)
	UpdateContact(ctx context.Context, id string, fields domain.ContactPatch) (*domain.Contact, error)
	DeleteContact(ctx context.Context, id string) error

	// Link and unlink are read-modify-write on the project's link list and
	// are not atomic against concurrent writers; last write wins.
	LinkContactToProject(ctx context.Context, projectID, contactID string) error
	UnlinkContactFromProject(ctx context.Context, projectID, contactID string) error
}

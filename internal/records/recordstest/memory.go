// Package recordstest provides an in-memory Store for tests.
package recordstest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/domain"
	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/stage"
	"github.com/packsmith-hq/magic-cards-backend/internal/records"
)

// MemoryStore keeps projects and contacts in maps and counts calls so tests
// can assert which gateway operations ran. Error hooks let a test fail a
// single operation.
type MemoryStore struct {
	mu sync.Mutex

	projects map[string]*domain.Project
	contacts map[string]*domain.Contact
	nextID   int

	// Calls counts invocations by operation name, e.g. "GetContactsByIDs".
	Calls map[string]int

	// FailOn maps an operation name to the error it should return.
	FailOn map[string]error
}

var _ records.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]*domain.Project),
		contacts: make(map[string]*domain.Contact),
		Calls:    make(map[string]int),
		FailOn:   make(map[string]error),
	}
}

func (s *MemoryStore) hit(op string) error {
	s.Calls[op]++
	if err, ok := s.FailOn[op]; ok {
		return err
	}
	return nil
}

func (s *MemoryStore) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s%06d", prefix, s.nextID)
}

func (s *MemoryStore) GetProject(_ context.Context, id string) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("GetProject"); err != nil {
		return nil, err
	}
	p, ok := s.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) ListProjects(_ context.Context) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("ListProjects"); err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (s *MemoryStore) CreateProject(_ context.Context, fields domain.ProjectPatch) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("CreateProject"); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := &domain.Project{
		ID:        s.newID("recP"),
		Stage:     stage.Initial,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyProjectPatch(p, fields)
	s.projects[p.ID] = p
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) UpdateProject(_ context.Context, id string, fields domain.ProjectPatch) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("UpdateProject"); err != nil {
		return nil, err
	}
	p, ok := s.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	applyProjectPatch(p, fields)
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("DeleteProject"); err != nil {
		return err
	}
	if _, ok := s.projects[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

func (s *MemoryStore) GetContactsByIDs(_ context.Context, ids []string) ([]domain.Contact, error) {
	if len(ids) == 0 {
		return []domain.Contact{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("GetContactsByIDs"); err != nil {
		return nil, err
	}
	out := make([]domain.Contact, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.contacts[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateContact(_ context.Context, fields domain.ContactPatch) (*domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("CreateContact"); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c := &domain.Contact{
		ID:        s.newID("recC"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyContactPatch(c, fields)
	s.contacts[c.ID] = c
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) UpdateContact(_ context.Context, id string, fields domain.ContactPatch) (*domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("UpdateContact"); err != nil {
		return nil, err
	}
	c, ok := s.contacts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	applyContactPatch(c, fields)
	c.UpdatedAt = time.Now().UTC()
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) DeleteContact(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("DeleteContact"); err != nil {
		return err
	}
	if _, ok := s.contacts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.contacts, id)
	return nil
}

func (s *MemoryStore) LinkContactToProject(_ context.Context, projectID, contactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("LinkContactToProject"); err != nil {
		return err
	}
	p, ok := s.projects[projectID]
	if !ok {
		return domain.ErrNotFound
	}
	if !p.HasLinkedContact(contactID) {
		p.LinkedContacts = append(p.LinkedContacts, contactID)
	}
	return nil
}

func (s *MemoryStore) UnlinkContactFromProject(_ context.Context, projectID, contactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("UnlinkContactFromProject"); err != nil {
		return err
	}
	p, ok := s.projects[projectID]
	if !ok {
		return domain.ErrNotFound
	}
	links := make([]string, 0, len(p.LinkedContacts))
	for _, id := range p.LinkedContacts {
		if id != contactID {
			links = append(links, id)
		}
	}
	p.LinkedContacts = links
	return nil
}

// SeedProject inserts a project directly, bypassing call counters.
func (s *MemoryStore) SeedProject(p *domain.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.projects[p.ID] = &cp
}

// SeedContact inserts a contact directly, bypassing call counters.
func (s *MemoryStore) SeedContact(c *domain.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.contacts[c.ID] = &cp
}

// ContactExists reports whether a contact row is still stored.
func (s *MemoryStore) ContactExists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.contacts[id]
	return ok
}

func applyProjectPatch(p *domain.Project, f domain.ProjectPatch) {
	if f.Stage != nil {
		p.Stage = stage.Stage(*f.Stage)
	}
	if f.Name != nil {
		p.Name = *f.Name
	}
	if f.TrackingNumber != nil {
		p.TrackingNumber = *f.TrackingNumber
	}
	if f.PrinterSubmissionDate != nil {
		p.PrinterSubmissionDate = *f.PrinterSubmissionDate
	}
	if f.ShippedToPacksmithDate != nil {
		p.ShippedToPacksmithDate = *f.ShippedToPacksmithDate
	}
	if f.FinalDesignFileLink != nil {
		p.FinalDesignFileLink = *f.FinalDesignFileLink
	}
	if f.IllustratorFiles != nil {
		p.IllustratorFiles = append([]domain.Attachment{}, (*f.IllustratorFiles)...)
	}
	if f.LinkedContacts != nil {
		p.LinkedContacts = append([]string{}, (*f.LinkedContacts)...)
	}
}

func applyContactPatch(c *domain.Contact, f domain.ContactPatch) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setB := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.Name, f.Name)
	set(&c.Company, f.Company)
	set(&c.Email, f.Email)
	set(&c.Phone, f.Phone)
	set(&c.AddressLine1, f.AddressLine1)
	set(&c.AddressLine2, f.AddressLine2)
	set(&c.City, f.City)
	set(&c.State, f.State)
	set(&c.PostalCode, f.PostalCode)
	set(&c.Country, f.Country)
	set(&c.LinkedInURL, f.LinkedInURL)
	set(&c.ContactAddedBy, f.ContactAddedBy)
	set(&c.CopyTitle1, f.CopyTitle1)
	set(&c.CopyTitle2, f.CopyTitle2)
	set(&c.CopyTitle3, f.CopyTitle3)
	set(&c.CopyMainText, f.CopyMainText)
	set(&c.ImageDirection, f.ImageDirection)
	if f.Round1Draft != nil {
		c.Round1Draft = append([]domain.Attachment{}, (*f.Round1Draft)...)
	}
	set(&c.Round1DraftFeedback, f.Round1DraftFeedback)
	setB(&c.RejectRound1, f.RejectRound1)
	if f.Round2Draft != nil {
		c.Round2Draft = append([]domain.Attachment{}, (*f.Round2Draft)...)
	}
	set(&c.Round2DraftFeedback, f.Round2DraftFeedback)
	setB(&c.RejectRound2, f.RejectRound2)
	set(&c.ContactReview, f.ContactReview)
	set(&c.ContactReviewFeedback, f.ContactReviewFeedback)
	setB(&c.MagicCards, f.MagicCards)
	setB(&c.SFSBook, f.SFSBook)
	setB(&c.GoldenRecord, f.GoldenRecord)
}

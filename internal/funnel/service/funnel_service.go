// Package service owns the funnel workflow for one project: loading the
// funnel view, advancing and reverting stages, contact membership, and the
// stage-gated field mutations the per-stage editors submit.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/domain"
	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/stage"
	"github.com/packsmith-hq/magic-cards-backend/internal/records"
)

// AssetUploader pushes one file to the asset host and returns its public URL.
type AssetUploader interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

// FunnelService is the single authority over stage transitions and the
// stage-derived gating applied to contact edits. All state lives in the
// record store; every mutation round-trips through it and the response
// carries the store's returned representation, never a local merge.
type FunnelService struct {
	store    records.Store
	uploader AssetUploader
}

// NewFunnelService creates a funnel service.
func NewFunnelService(store records.Store, uploader AssetUploader) *FunnelService {
	return &FunnelService{store: store, uploader: uploader}
}

// View is one project's funnel: the project, its linked contacts, and the
// derived per-stage flags. The flags are recomputed from project.Stage on
// every load; they are never stored.
type View struct {
	Project  *domain.Project  `json:"project"`
	Contacts []domain.Contact `json:"contacts"`
	Stages   []stage.Status   `json:"stages"`
}

// UploadFile is one file submitted in an upload batch.
type UploadFile struct {
	Filename string
	Data     []byte
}

// Load fetches a project and its linked contacts. A project whose persisted
// stage is outside the funnel sequence fails loudly rather than rendering an
// empty funnel.
func (s *FunnelService) Load(ctx context.Context, projectID string) (*View, error) {
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, p)
}

func (s *FunnelService) buildView(ctx context.Context, p *domain.Project) (*View, error) {
	statuses, err := stage.Statuses(p.Stage)
	if err != nil {
		return nil, fmt.Errorf("project %s has stage %q: %w", p.ID, p.Stage, err)
	}

	contacts := []domain.Contact{}
	if len(p.LinkedContacts) > 0 {
		contacts, err = s.store.GetContactsByIDs(ctx, p.LinkedContacts)
		if err != nil {
			return nil, fmt.Errorf("load contacts: %w", err)
		}
	}

	return &View{Project: p, Contacts: contacts, Stages: statuses}, nil
}

// CreateProject starts a new project at the initial stage.
func (s *FunnelService) CreateProject(ctx context.Context, name string) (*domain.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.Invalid("name", "name is required")
	}
	initial := string(stage.Initial)
	trimmed := strings.TrimSpace(name)
	return s.store.CreateProject(ctx, domain.ProjectPatch{
		Name:  &trimmed,
		Stage: &initial,
	})
}

// ListProjects returns every project for the dashboard index.
func (s *FunnelService) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return s.store.ListProjects(ctx)
}

// DeleteProject removes a project row. Linked contacts are left in place;
// contact deletion is always an explicit, separate action.
func (s *FunnelService) DeleteProject(ctx context.Context, projectID string) error {
	return s.store.DeleteProject(ctx, projectID)
}

// UpdateProject saves the free-form scalar fields. These carry no stage
// gating of their own. Stage and link mutations are rejected here; they go
// through Advance/Revert and the contact operations.
func (s *FunnelService) UpdateProject(ctx context.Context, projectID string, patch domain.ProjectPatch) (*domain.Project, error) {
	if patch.Stage != nil {
		return nil, domain.Invalid("stage", "stage changes go through advance and revert")
	}
	if patch.LinkedContacts != nil {
		return nil, domain.Invalid("linked_contacts", "contact links go through the contact operations")
	}
	if patch.FinalDesignFileLink != nil && *patch.FinalDesignFileLink != "" {
		if err := validateURL("final_design_file_link", *patch.FinalDesignFileLink); err != nil {
			return nil, err
		}
	}
	return s.store.UpdateProject(ctx, projectID, patch)
}

// Advance moves the project to the next stage and persists it. At the
// terminal stage it is a no-op: the current view is returned and no write is
// issued. On persistence failure nothing changes; there was no optimistic
// update to roll back.
func (s *FunnelService) Advance(ctx context.Context, projectID string) (*View, error) {
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !stage.Valid(p.Stage) {
		return nil, fmt.Errorf("project %s has stage %q: %w", p.ID, p.Stage, stage.ErrUnknown)
	}

	next, ok := stage.Next(p.Stage)
	if !ok {
		return s.buildView(ctx, p)
	}

	nextStr := string(next)
	updated, err := s.store.UpdateProject(ctx, projectID, domain.ProjectPatch{Stage: &nextStr})
	if err != nil {
		records.NewLogger(ctx).LogError("advance_stage", err)
		return nil, fmt.Errorf("persist stage advance: %w", err)
	}
	return s.buildView(ctx, updated)
}

// Revert moves the project back exactly one stage. The target must equal the
// stage immediately preceding the current one; this is an undo of the last
// advance, never a jump into arbitrary history.
func (s *FunnelService) Revert(ctx context.Context, projectID string, target stage.Stage) (*View, error) {
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !stage.Valid(p.Stage) {
		return nil, fmt.Errorf("project %s has stage %q: %w", p.ID, p.Stage, stage.ErrUnknown)
	}

	prev, ok := stage.Previous(p.Stage)
	if !ok {
		return nil, domain.Invalid("stage", "the first stage cannot be reverted")
	}
	if target != prev {
		return nil, domain.Invalid("stage", fmt.Sprintf("revert target must be %q", prev))
	}

	prevStr := string(prev)
	updated, err := s.store.UpdateProject(ctx, projectID, domain.ProjectPatch{Stage: &prevStr})
	if err != nil {
		records.NewLogger(ctx).LogError("revert_stage", err)
		return nil, fmt.Errorf("persist stage revert: %w", err)
	}
	return s.buildView(ctx, updated)
}

// CreateContact creates a contact row and links it to the project. If the
// link fails the contact row exists unlinked; that window is accepted and
// logged, not repaired here.
func (s *FunnelService) CreateContact(ctx context.Context, projectID string, fields domain.ContactPatch) (*domain.Contact, error) {
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.checkContactGating(p.Stage, &fields); err != nil {
		return nil, err
	}

	c, err := s.store.CreateContact(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	if err := s.store.LinkContactToProject(ctx, projectID, c.ID); err != nil {
		records.NewLogger(ctx).LogError("link_contact", err)
		return nil, fmt.Errorf("link contact %s: %w", c.ID, err)
	}
	return c, nil
}

// UpdateContact saves a subset of contact fields, enforcing the stage gating:
// a field group owned by a completed stage is frozen, and a group owned by a
// stage not yet reached is not editable either. Review fields have their own
// operation and are rejected here.
func (s *FunnelService) UpdateContact(ctx context.Context, projectID, contactID string, patch domain.ContactPatch) (*domain.Contact, error) {
	if patch.ContactReview != nil || patch.ContactReviewFeedback != nil {
		return nil, domain.Invalid("contact_review", "review verdicts go through the review operation")
	}
	if patch.LinkedInURL != nil && *patch.LinkedInURL != "" {
		if err := validateURL("linkedin_url", *patch.LinkedInURL); err != nil {
			return nil, err
		}
	}

	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !p.HasLinkedContact(contactID) {
		return nil, domain.ErrContactNotLinked
	}
	if err := s.checkContactGating(p.Stage, &patch); err != nil {
		return nil, err
	}

	return s.store.UpdateContact(ctx, contactID, patch)
}

// checkContactGating rejects writes to field groups whose owning stage is
// completed (frozen) or not yet rendered. The independent toggles carry no
// owning stage and always pass.
func (s *FunnelService) checkContactGating(current stage.Stage, patch *domain.ContactPatch) error {
	if !stage.Valid(current) {
		return fmt.Errorf("stage %q: %w", current, stage.ErrUnknown)
	}

	groups := []struct {
		touched bool
		owner   stage.Stage
		field   string
	}{
		{patch.HasIdentityFields(), stage.Contacts, "contact fields"},
		{patch.HasCopyFields(), stage.Copy, "copy fields"},
		{patch.HasRound1Fields(), stage.DesignRound1, "round 1 fields"},
		{patch.HasRound2Fields(), stage.DesignRound2, "round 2 fields"},
	}
	for _, g := range groups {
		if !g.touched {
			continue
		}
		if stage.IsCompleted(g.owner, current) {
			return domain.Invalid(g.field, fmt.Sprintf("read-only: the %s stage is completed", g.owner))
		}
		if !stage.ShouldRender(g.owner, current) {
			return domain.Invalid(g.field, fmt.Sprintf("the %s stage has not been reached", g.owner))
		}
	}
	return nil
}

// DeleteContact unlinks the contact from the project and then deletes the
// row. If the unlink fails the delete is never attempted, so a deleted row is
// never left referenced. The reverse window (unlinked but delete failed) is
// accepted; the link is not restored.
func (s *FunnelService) DeleteContact(ctx context.Context, projectID, contactID string) error {
	if err := s.store.UnlinkContactFromProject(ctx, projectID, contactID); err != nil {
		records.NewLogger(ctx).LogError("unlink_contact", err)
		return fmt.Errorf("unlink contact %s: %w", contactID, err)
	}
	if err := s.store.DeleteContact(ctx, contactID); err != nil {
		records.NewLogger(ctx).LogError("delete_contact", err)
		return fmt.Errorf("delete contact %s: %w", contactID, err)
	}
	return nil
}

// SetContactReview applies the tri-state review verdict. Flag requires
// feedback text. Switching to Do Not Send while feedback is present requires
// the caller to confirm, and the feedback is then cleared. The verdict is
// independent of stage gating.
func (s *FunnelService) SetContactReview(ctx context.Context, projectID, contactID, verdict string, feedback *string, confirmClear bool) (*domain.Contact, error) {
	if !domain.ValidReview(verdict) {
		return nil, domain.Invalid("contact_review", fmt.Sprintf("unknown verdict %q", verdict))
	}

	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !p.HasLinkedContact(contactID) {
		return nil, domain.ErrContactNotLinked
	}

	existing, err := s.store.GetContactsByIDs(ctx, []string{contactID})
	if err != nil {
		return nil, fmt.Errorf("load contact: %w", err)
	}
	if len(existing) == 0 {
		return nil, domain.ErrNotFound
	}
	current := existing[0]

	patch := domain.ContactPatch{ContactReview: &verdict}
	switch verdict {
	case domain.ReviewFlag:
		if feedback == nil || strings.TrimSpace(*feedback) == "" {
			return nil, domain.Invalid("contact_review_feedback", "feedback is required when flagging")
		}
		patch.ContactReviewFeedback = feedback
	case domain.ReviewDoNotSend:
		if current.ContactReviewFeedback != "" && !confirmClear {
			return nil, domain.Invalid("confirm_clear_feedback", "confirmation required: switching to Do Not Send clears the review feedback")
		}
		empty := ""
		patch.ContactReviewFeedback = &empty
	case domain.ReviewApprove:
		if feedback != nil {
			patch.ContactReviewFeedback = feedback
		}
	}

	return s.store.UpdateContact(ctx, contactID, patch)
}

// UploadIllustratorFiles uploads a batch of files and appends them, in
// submission order, to the project's illustrator file list. The batch is
// all-or-nothing: files are uploaded sequentially and a single failure aborts
// the whole batch before anything is appended.
func (s *FunnelService) UploadIllustratorFiles(ctx context.Context, projectID string, files []UploadFile) (*domain.Project, error) {
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.uploadBatch(ctx, files)
	if err != nil {
		return nil, err
	}

	list := append(append([]domain.Attachment{}, p.IllustratorFiles...), uploaded...)
	return s.store.UpdateProject(ctx, projectID, domain.ProjectPatch{IllustratorFiles: &list})
}

// RemoveIllustratorFile removes one attachment by index. Attachment lists
// keep upload order and support only index-based removal.
func (s *FunnelService) RemoveIllustratorFile(ctx context.Context, projectID string, index int) (*domain.Project, error) {
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(p.IllustratorFiles) {
		return nil, domain.Invalid("index", "attachment index out of range")
	}
	list := append([]domain.Attachment{}, p.IllustratorFiles[:index]...)
	list = append(list, p.IllustratorFiles[index+1:]...)
	return s.store.UpdateProject(ctx, projectID, domain.ProjectPatch{IllustratorFiles: &list})
}

// UploadContactDrafts uploads a batch of files and appends them to the
// contact's draft list for the given design round (1 or 2). Same
// all-or-nothing semantics as the project file batch, and the round's stage
// gating applies.
func (s *FunnelService) UploadContactDrafts(ctx context.Context, projectID, contactID string, round int, files []UploadFile) (*domain.Contact, error) {
	if round != 1 && round != 2 {
		return nil, domain.Invalid("round", "round must be 1 or 2")
	}

	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !p.HasLinkedContact(contactID) {
		return nil, domain.ErrContactNotLinked
	}

	existing, err := s.store.GetContactsByIDs(ctx, []string{contactID})
	if err != nil {
		return nil, fmt.Errorf("load contact: %w", err)
	}
	if len(existing) == 0 {
		return nil, domain.ErrNotFound
	}
	current := existing[0]

	// Gate on the round's owning stage before anything reaches the asset
	// host; a rejected batch must not upload a single file.
	var list []domain.Attachment
	patch := domain.ContactPatch{}
	if round == 1 {
		list = append([]domain.Attachment{}, current.Round1Draft...)
		patch.Round1Draft = &list
	} else {
		list = append([]domain.Attachment{}, current.Round2Draft...)
		patch.Round2Draft = &list
	}
	if err := s.checkContactGating(p.Stage, &patch); err != nil {
		return nil, err
	}

	uploaded, err := s.uploadBatch(ctx, files)
	if err != nil {
		return nil, err
	}
	list = append(list, uploaded...)

	return s.store.UpdateContact(ctx, contactID, patch)
}

// uploadBatch pushes every file sequentially. The first failure aborts the
// batch; already-uploaded files stay on the host but are never appended to
// any record, so persisted state is untouched.
func (s *FunnelService) uploadBatch(ctx context.Context, files []UploadFile) ([]domain.Attachment, error) {
	if len(files) == 0 {
		return nil, domain.Invalid("files", "no files submitted")
	}
	uploaded := make([]domain.Attachment, 0, len(files))
	for _, f := range files {
		u, err := s.uploader.Upload(ctx, f.Filename, f.Data)
		if err != nil {
			records.NewLogger(ctx).LogError("upload_batch", err)
			return nil, fmt.Errorf("upload %s: %w", f.Filename, err)
		}
		uploaded = append(uploaded, domain.Attachment{URL: u, Filename: f.Filename})
	}
	return uploaded, nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.Invalid(field, "must be a valid http(s) URL")
	}
	return nil
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *domain.ValidationError
	return errors.As(err, &ve)
}

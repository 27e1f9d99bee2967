package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/domain"
	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/stage"
	"github.com/packsmith-hq/magic-cards-backend/internal/records/recordstest"
)

type fakeUploader struct {
	calls    int
	failName string
}

func (f *fakeUploader) Upload(_ context.Context, filename string, _ []byte) (string, error) {
	if filename == f.failName {
		return "", errors.New("asset host rejected the file")
	}
	f.calls++
	return "https://assets.test/" + filename, nil
}

func newTestService() (*FunnelService, *recordstest.MemoryStore, *fakeUploader) {
	store := recordstest.NewMemoryStore()
	up := &fakeUploader{}
	return NewFunnelService(store, up), store, up
}

func seedProject(store *recordstest.MemoryStore, id string, st stage.Stage, contactIDs ...string) {
	store.SeedProject(&domain.Project{
		ID:             id,
		Name:           "Q3 Magic Cards",
		Stage:          st,
		LinkedContacts: contactIDs,
	})
}

func strp(s string) *string { return &s }

func TestLoad_ProjectWithContacts(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Contacts, "c1")
	store.SeedContact(&domain.Contact{ID: "c1", Name: "Ada Lovelace"})

	view, err := svc.Load(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", view.Project.ID)
	require.Len(t, view.Contacts, 1)
	assert.Equal(t, "Ada Lovelace", view.Contacts[0].Name)
	require.Len(t, view.Stages, 8)
	assert.True(t, view.Stages[0].Active)
}

func TestLoad_EmptyLinkedContactsSkipsGatewayCall(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Contacts)

	view, err := svc.Load(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, view.Contacts)
	assert.Zero(t, store.Calls["GetContactsByIDs"])
}

func TestLoad_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoad_InvalidPersistedStage(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Stage("Shipped"))

	_, err := svc.Load(context.Background(), "p1")
	assert.ErrorIs(t, err, stage.ErrUnknown)
}

func TestAdvance_MovesToNextStageAndPersists(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Contacts, "c1")
	store.SeedContact(&domain.Contact{ID: "c1"})

	view, err := svc.Advance(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, stage.Copy, view.Project.Stage)
	assert.Equal(t, 1, store.Calls["UpdateProject"])

	// Stage 1 is now completed and frozen, stage 2 active.
	assert.True(t, view.Stages[0].Completed)
	assert.True(t, view.Stages[1].Active)

	// Re-read confirms the stage was persisted, not locally patched.
	reread, err := svc.Load(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, stage.Copy, reread.Project.Stage)
}

func TestAdvance_TerminalStageIsNoOp(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.ProjectComplete)

	view, err := svc.Advance(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, stage.ProjectComplete, view.Project.Stage)
	assert.Zero(t, store.Calls["UpdateProject"], "no write should be issued at the terminal stage")
}

func TestAdvance_PersistFailureLeavesStateUnchanged(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Copy)
	store.FailOn["UpdateProject"] = errors.New("remote store is down")

	_, err := svc.Advance(context.Background(), "p1")
	require.Error(t, err)

	delete(store.FailOn, "UpdateProject")
	view, err := svc.Load(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, stage.Copy, view.Project.Stage)
}

func TestRevert_OnlyToImmediatelyPrecedingStage(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.DesignBrief)

	_, err := svc.Revert(context.Background(), "p1", stage.Contacts)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	view, err := svc.Revert(context.Background(), "p1", stage.Copy)
	require.NoError(t, err)
	assert.Equal(t, stage.Copy, view.Project.Stage)
}

func TestRevert_FirstStageRejected(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Contacts)

	_, err := svc.Revert(context.Background(), "p1", stage.Contacts)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Zero(t, store.Calls["UpdateProject"])
}

func TestCreateContact_LinksToProject(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Contacts)

	c, err := svc.CreateContact(context.Background(), "p1", domain.ContactPatch{Name: strp("Ada Lovelace")})
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)
	assert.Equal(t, 1, store.Calls["LinkContactToProject"])

	view, err := svc.Load(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, view.Project.LinkedContacts)
}

func TestDeleteContact_UnlinksFirst(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Contacts, "c1")
	store.SeedContact(&domain.Contact{ID: "c1"})

	require.NoError(t, svc.DeleteContact(context.Background(), "p1", "c1"))
	assert.False(t, store.ContactExists("c1"))

	view, err := svc.Load(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, view.Project.LinkedContacts)
}

func TestDeleteContact_FailedUnlinkNeverDeletes(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Contacts, "c1")
	store.SeedContact(&domain.Contact{ID: "c1"})
	store.FailOn["UnlinkContactFromProject"] = errors.New("remote rejection")

	err := svc.DeleteContact(context.Background(), "p1", "c1")
	require.Error(t, err)
	assert.Zero(t, store.Calls["DeleteContact"])
	assert.True(t, store.ContactExists("c1"))
}

func TestLinkUnlinkRoundTrip(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Contacts, "c0")
	store.SeedContact(&domain.Contact{ID: "c0"})

	c, err := svc.CreateContact(context.Background(), "p1", domain.ContactPatch{Name: strp("Temp")})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteContact(context.Background(), "p1", c.ID))

	view, err := svc.Load(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c0"}, view.Project.LinkedContacts)
}

func TestUpdateContact_GatingFollowsStage(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Copy, "c1")
	store.SeedContact(&domain.Contact{ID: "c1", Name: "Ada"})

	// Identity fields are frozen once the Contacts stage is completed.
	_, err := svc.UpdateContact(context.Background(), "p1", "c1", domain.ContactPatch{Name: strp("Renamed")})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	// Copy fields belong to the active stage and are accepted.
	c, err := svc.UpdateContact(context.Background(), "p1", "c1", domain.ContactPatch{CopyTitle1: strp("Dear Ada")})
	require.NoError(t, err)
	assert.Equal(t, "Dear Ada", c.CopyTitle1)
	assert.Equal(t, "Ada", c.Name)
}

func TestUpdateContact_UnreachedStageRejected(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Contacts, "c1")
	store.SeedContact(&domain.Contact{ID: "c1"})

	_, err := svc.UpdateContact(context.Background(), "p1", "c1", domain.ContactPatch{CopyMainText: strp("early copy")})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestUpdateContact_TogglesAlwaysWritable(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.ReadyForPrint, "c1")
	store.SeedContact(&domain.Contact{ID: "c1"})

	on := true
	c, err := svc.UpdateContact(context.Background(), "p1", "c1", domain.ContactPatch{MagicCards: &on, GoldenRecord: &on})
	require.NoError(t, err)
	assert.True(t, c.MagicCards)
	assert.True(t, c.GoldenRecord)
}

func TestUpdateContact_NotLinked(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Contacts)
	store.SeedContact(&domain.Contact{ID: "c1"})

	_, err := svc.UpdateContact(context.Background(), "p1", "c1", domain.ContactPatch{Name: strp("X")})
	assert.ErrorIs(t, err, domain.ErrContactNotLinked)
}

func TestUpdateContact_ReviewFieldsRejected(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Contacts, "c1")
	store.SeedContact(&domain.Contact{ID: "c1"})

	_, err := svc.UpdateContact(context.Background(), "p1", "c1", domain.ContactPatch{ContactReview: strp(domain.ReviewApprove)})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestSetContactReview_FlagRequiresFeedback(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Handoff, "c1")
	store.SeedContact(&domain.Contact{ID: "c1"})

	_, err := svc.SetContactReview(context.Background(), "p1", "c1", domain.ReviewFlag, strp("  "), false)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	c, err := svc.SetContactReview(context.Background(), "p1", "c1", domain.ReviewFlag, strp("needs better photo"), false)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewFlag, c.ContactReview)
	assert.Equal(t, "needs better photo", c.ContactReviewFeedback)
}

func TestSetContactReview_DoNotSendClearsFeedbackAfterConfirmation(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Handoff, "c1")
	store.SeedContact(&domain.Contact{ID: "c1"})

	_, err := svc.SetContactReview(context.Background(), "p1", "c1", domain.ReviewFlag, strp("needs better photo"), false)
	require.NoError(t, err)

	// Switching directly to Do Not Send with feedback present needs an
	// explicit confirmation.
	_, err = svc.SetContactReview(context.Background(), "p1", "c1", domain.ReviewDoNotSend, nil, false)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	c, err := svc.SetContactReview(context.Background(), "p1", "c1", domain.ReviewDoNotSend, nil, true)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewDoNotSend, c.ContactReview)
	assert.Equal(t, "", c.ContactReviewFeedback)
}

func TestSetContactReview_UnknownVerdict(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Handoff, "c1")
	store.SeedContact(&domain.Contact{ID: "c1"})

	_, err := svc.SetContactReview(context.Background(), "p1", "c1", "Maybe", nil, false)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestUploadIllustratorFiles_AppendsInOrder(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Handoff)

	p, err := svc.UploadIllustratorFiles(context.Background(), "p1", []UploadFile{
		{Filename: "front.ai", Data: []byte("a")},
		{Filename: "back.ai", Data: []byte("b")},
	})
	require.NoError(t, err)
	require.Len(t, p.IllustratorFiles, 2)
	assert.Equal(t, "front.ai", p.IllustratorFiles[0].Filename)
	assert.Equal(t, "back.ai", p.IllustratorFiles[1].Filename)
	assert.Equal(t, "https://assets.test/front.ai", p.IllustratorFiles[0].URL)
}

func TestUploadIllustratorFiles_BatchIsAllOrNothing(t *testing.T) {
	svc, store, up := newTestService()
	seedProject(store, "p1", stage.Handoff)
	up.failName = "back.ai"

	_, err := svc.UploadIllustratorFiles(context.Background(), "p1", []UploadFile{
		{Filename: "front.ai", Data: []byte("a")},
		{Filename: "back.ai", Data: []byte("b")},
	})
	require.Error(t, err)
	assert.Zero(t, store.Calls["UpdateProject"], "a failed batch must append nothing")

	view, err := svc.Load(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, view.Project.IllustratorFiles)
}

func TestRemoveIllustratorFile_ByIndex(t *testing.T) {
	svc, store, _ := newTestService()
	store.SeedProject(&domain.Project{
		ID:    "p1",
		Stage: stage.Handoff,
		IllustratorFiles: []domain.Attachment{
			{URL: "https://assets.test/a.ai", Filename: "a.ai"},
			{URL: "https://assets.test/b.ai", Filename: "b.ai"},
			{URL: "https://assets.test/c.ai", Filename: "c.ai"},
		},
	})

	p, err := svc.RemoveIllustratorFile(context.Background(), "p1", 1)
	require.NoError(t, err)
	require.Len(t, p.IllustratorFiles, 2)
	assert.Equal(t, "a.ai", p.IllustratorFiles[0].Filename)
	assert.Equal(t, "c.ai", p.IllustratorFiles[1].Filename)

	_, err = svc.RemoveIllustratorFile(context.Background(), "p1", 5)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestUploadContactDrafts_RoundGating(t *testing.T) {
	svc, store, up := newTestService()
	seedProject(store, "p1", stage.DesignRound1, "c1")
	store.SeedContact(&domain.Contact{ID: "c1"})

	c, err := svc.UploadContactDrafts(context.Background(), "p1", "c1", 1, []UploadFile{
		{Filename: "draft.png", Data: []byte("x")},
	})
	require.NoError(t, err)
	require.Len(t, c.Round1Draft, 1)
	require.Equal(t, 1, up.calls)

	// Round 2 hasn't been reached yet; nothing may reach the asset host.
	_, err = svc.UploadContactDrafts(context.Background(), "p1", "c1", 2, []UploadFile{
		{Filename: "draft2.png", Data: []byte("y")},
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, 1, up.calls)
}

func TestUpdateProject_RejectsStageAndLinkPatches(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Contacts)

	st := string(stage.Copy)
	_, err := svc.UpdateProject(context.Background(), "p1", domain.ProjectPatch{Stage: &st})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	links := []string{"c9"}
	_, err = svc.UpdateProject(context.Background(), "p1", domain.ProjectPatch{LinkedContacts: &links})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestUpdateProject_ValidatesDesignFileLink(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Handoff)

	_, err := svc.UpdateProject(context.Background(), "p1", domain.ProjectPatch{FinalDesignFileLink: strp("not a url")})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	p, err := svc.UpdateProject(context.Background(), "p1", domain.ProjectPatch{FinalDesignFileLink: strp("https://files.test/final.ai")})
	require.NoError(t, err)
	assert.Equal(t, "https://files.test/final.ai", p.FinalDesignFileLink)
}

func TestCreateProject_StartsAtInitialStage(t *testing.T) {
	svc, _, _ := newTestService()

	p, err := svc.CreateProject(context.Background(), "  Q3 Magic Cards  ")
	require.NoError(t, err)
	assert.Equal(t, stage.Initial, p.Stage)
	assert.Equal(t, "Q3 Magic Cards", p.Name)

	_, err = svc.CreateProject(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestFullFunnelWalk(t *testing.T) {
	svc, store, _ := newTestService()
	seedProject(store, "p1", stage.Contacts)

	for i := 0; i < len(stage.Order)-1; i++ {
		view, err := svc.Advance(context.Background(), "p1")
		require.NoError(t, err, "advance %d", i)
		assert.Equal(t, stage.Order[i+1], view.Project.Stage, fmt.Sprintf("after advance %d", i))
	}

	view, err := svc.Advance(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, stage.ProjectComplete, view.Project.Stage)
	assert.Equal(t, len(stage.Order)-1, store.Calls["UpdateProject"])
}

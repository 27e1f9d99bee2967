package domain

import (
	"time"

	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/stage"
)

// Attachment is one uploaded file reference stored on a project or contact.
// Lists of attachments are append-only and keep upload order.
type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Project is a single Magic Cards production project.
// It is storage-agnostic and used across the records and HTTP layers.
type Project struct {
	ID                     string       `json:"id"`
	Stage                  stage.Stage  `json:"stage"`
	Name                   string       `json:"name"`
	TrackingNumber         string       `json:"tracking_number"`
	PrinterSubmissionDate  string       `json:"printer_submission_date"`
	ShippedToPacksmithDate string       `json:"shipped_to_packsmith_date"`
	FinalDesignFileLink    string       `json:"final_design_file_link"`
	IllustratorFiles       []Attachment `json:"illustrator_files"`
	LinkedContacts         []string     `json:"linked_contacts"`
	CreatedAt              time.Time    `json:"created_at"`
	UpdatedAt              time.Time    `json:"updated_at"`
}

// Contact is one recipient of the project's print collateral.
type Contact struct {
	ID string `json:"id"`

	// Identity fields, owned by the Contacts stage.
	Name           string `json:"name"`
	Company        string `json:"company"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	AddressLine1   string `json:"address_line_1"`
	AddressLine2   string `json:"address_line_2"`
	City           string `json:"city"`
	State          string `json:"state"`
	PostalCode     string `json:"postal_code"`
	Country        string `json:"country"`
	LinkedInURL    string `json:"linkedin_url"`
	ContactAddedBy string `json:"contact_added_by"`

	// Copy fields, owned by the Copy stage.
	CopyTitle1     string `json:"copy_title_1"`
	CopyTitle2     string `json:"copy_title_2"`
	CopyTitle3     string `json:"copy_title_3"`
	CopyMainText   string `json:"copy_main_text"`
	ImageDirection string `json:"image_direction"`

	// Design round fields, owned by Design Round 1 / Design Round 2.
	Round1Draft         []Attachment `json:"round_1_draft"`
	Round1DraftFeedback string       `json:"round_1_draft_feedback"`
	RejectRound1        bool         `json:"reject_round_1"`
	Round2Draft         []Attachment `json:"round_2_draft"`
	Round2DraftFeedback string       `json:"round_2_draft_feedback"`
	RejectRound2        bool         `json:"reject_round_2"`

	// Round 3 is inert storage: the funnel never reaches it and no endpoint
	// mutates it, but persisted values survive round trips.
	Round3Draft []Attachment `json:"round_3_draft"`

	// Review verdict, independent of stage gating.
	ContactReview         string `json:"contact_review"`
	ContactReviewFeedback string `json:"contact_review_feedback"`

	// Independent toggles.
	MagicCards   bool `json:"magic_cards"`
	SFSBook      bool `json:"sfs_book"`
	GoldenRecord bool `json:"golden_record"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Review verdict values.
const (
	ReviewApprove   = "Approve"
	ReviewFlag      = "Flag"
	ReviewDoNotSend = "Do Not Send"
)

// ValidReview reports whether v is one of the three review verdicts.
func ValidReview(v string) bool {
	return v == ReviewApprove || v == ReviewFlag || v == ReviewDoNotSend
}

// HasLinkedContact reports whether the contact id is in the project's link list.
func (p *Project) HasLinkedContact(contactID string) bool {
	for _, id := range p.LinkedContacts {
		if id == contactID {
			return true
		}
	}
	return false
}

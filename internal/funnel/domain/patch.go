package domain

// ProjectPatch carries a partial project update. Nil means "leave unchanged".
// Attachment lists are replaced whole; the record store has no append op.
type ProjectPatch struct {
	Stage                  *string       `json:"stage,omitempty"`
	Name                   *string       `json:"name,omitempty"`
	TrackingNumber         *string       `json:"tracking_number,omitempty"`
	PrinterSubmissionDate  *string       `json:"printer_submission_date,omitempty"`
	ShippedToPacksmithDate *string       `json:"shipped_to_packsmith_date,omitempty"`
	FinalDesignFileLink    *string       `json:"final_design_file_link,omitempty"`
	IllustratorFiles       *[]Attachment `json:"illustrator_files,omitempty"`
	LinkedContacts         *[]string     `json:"linked_contacts,omitempty"`
}

// ContactPatch carries a partial contact update. Nil means "leave unchanged".
type ContactPatch struct {
	// Contacts stage.
	Name           *string `json:"name,omitempty"`
	Company        *string `json:"company,omitempty"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	AddressLine1   *string `json:"address_line_1,omitempty"`
	AddressLine2   *string `json:"address_line_2,omitempty"`
	City           *string `json:"city,omitempty"`
	State          *string `json:"state,omitempty"`
	PostalCode     *string `json:"postal_code,omitempty"`
	Country        *string `json:"country,omitempty"`
	LinkedInURL    *string `json:"linkedin_url,omitempty"`
	ContactAddedBy *string `json:"contact_added_by,omitempty"`

	// Copy stage.
	CopyTitle1     *string `json:"copy_title_1,omitempty"`
	CopyTitle2     *string `json:"copy_title_2,omitempty"`
	CopyTitle3     *string `json:"copy_title_3,omitempty"`
	CopyMainText   *string `json:"copy_main_text,omitempty"`
	ImageDirection *string `json:"image_direction,omitempty"`

	// Design Round 1.
	Round1Draft         *[]Attachment `json:"round_1_draft,omitempty"`
	Round1DraftFeedback *string       `json:"round_1_draft_feedback,omitempty"`
	RejectRound1        *bool         `json:"reject_round_1,omitempty"`

	// Design Round 2.
	Round2Draft         *[]Attachment `json:"round_2_draft,omitempty"`
	Round2DraftFeedback *string       `json:"round_2_draft_feedback,omitempty"`
	RejectRound2        *bool         `json:"reject_round_2,omitempty"`

	// Review, independent of stage gating.
	ContactReview         *string `json:"contact_review,omitempty"`
	ContactReviewFeedback *string `json:"contact_review_feedback,omitempty"`

	// Independent toggles.
	MagicCards   *bool `json:"magic_cards,omitempty"`
	SFSBook      *bool `json:"sfs_book,omitempty"`
	GoldenRecord *bool `json:"golden_record,omitempty"`
}

// HasIdentityFields reports whether the patch touches Contacts-stage fields.
func (p *ContactPatch) HasIdentityFields() bool {
	return p.Name != nil || p.Company != nil || p.Email != nil || p.Phone != nil ||
		p.AddressLine1 != nil || p.AddressLine2 != nil || p.City != nil ||
		p.State != nil || p.PostalCode != nil || p.Country != nil ||
		p.LinkedInURL != nil || p.ContactAddedBy != nil
}

// HasCopyFields reports whether the patch touches Copy-stage fields.
func (p *ContactPatch) HasCopyFields() bool {
	return p.CopyTitle1 != nil || p.CopyTitle2 != nil || p.CopyTitle3 != nil ||
		p.CopyMainText != nil || p.ImageDirection != nil
}

// HasRound1Fields reports whether the patch touches Design Round 1 fields.
func (p *ContactPatch) HasRound1Fields() bool {
	return p.Round1Draft != nil || p.Round1DraftFeedback != nil || p.RejectRound1 != nil
}

// HasRound2Fields reports whether the patch touches Design Round 2 fields.
func (p *ContactPatch) HasRound2Fields() bool {
	return p.Round2Draft != nil || p.Round2DraftFeedback != nil || p.RejectRound2 != nil
}

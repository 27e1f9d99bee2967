package records

import (
	"time"

	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/domain"
	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/stage"
)

// Column names in the remote base. The base predates this service, so a few
// names diverge from the domain vocabulary; the translation stays inside this
// file and never leaks into the core types.
const (
	fieldName                   = "Name"
	fieldStage                  = "Stage"
	fieldTrackingNumber         = "Tracking Number"
	fieldPrinterSubmissionDate  = "Printer Submission Date"
	fieldShippedToPacksmithDate = "Shipped to Packsmith Date"
	fieldFinalDesignFileLink    = "Final Design File Link"
	fieldIllustratorFiles       = "Illustrator Files"
	fieldLinkedContacts         = "Contacts"
	fieldLastModified           = "Last Modified"

	fieldCompany        = "Company"
	fieldEmail          = "Email"
	fieldPhone          = "Phone"
	fieldAddressLine1   = "Address Line 1"
	fieldAddressLine2   = "Address Line 2"
	fieldCity           = "City"
	fieldState          = "State"
	fieldPostalCode     = "Postal Code"
	fieldCountry        = "Country"
	fieldLinkedInURL    = "LinkedIn URL"
	fieldContactAddedBy = "Contact Added By"

	fieldCopyTitle1     = "Copy Title 1"
	fieldCopyTitle2     = "Copy Title 2"
	fieldCopyTitle3     = "Copy Title 3"
	fieldCopyMainText   = "Copy Main Text"
	fieldImageDirection = "Image Direction"

	fieldRound1Draft         = "Round 1 Draft"
	fieldRound1DraftFeedback = "Round 1 Draft Feedback"
	fieldRejectRound1        = "Reject Round 1"
	fieldRound2Draft         = "Round 2 Draft"
	fieldRound2DraftFeedback = "Round 2 Draft Feedback"
	fieldRejectRound2        = "Reject Round 2"
	fieldRound3Draft         = "Round 3 Draft"

	// Legacy column, misspelled in the base. The domain concept is
	// contact_review; only this adapter knows the persisted name.
	fieldContactReview         = "Contact Reviewd"
	fieldContactReviewFeedback = "Contact Review Feedback"

	fieldMagicCards   = "Magic Cards"
	fieldSFSBook      = "SFS Book"
	fieldGoldenRecord = "Golden Record"
)

func projectFromRecord(rec *record) *domain.Project {
	f := rec.Fields
	return &domain.Project{
		ID:                     rec.ID,
		Stage:                  stage.Stage(str(f, fieldStage)),
		Name:                   str(f, fieldName),
		TrackingNumber:         str(f, fieldTrackingNumber),
		PrinterSubmissionDate:  str(f, fieldPrinterSubmissionDate),
		ShippedToPacksmithDate: str(f, fieldShippedToPacksmithDate),
		FinalDesignFileLink:    str(f, fieldFinalDesignFileLink),
		IllustratorFiles:       attachments(f, fieldIllustratorFiles),
		LinkedContacts:         strSlice(f, fieldLinkedContacts),
		CreatedAt:              rec.CreatedTime,
		UpdatedAt:              timeField(f, fieldLastModified, rec.CreatedTime),
	}
}

func projectFields(p domain.ProjectPatch) map[string]interface{} {
	f := map[string]interface{}{}
	setStr(f, fieldStage, p.Stage)
	setStr(f, fieldName, p.Name)
	setStr(f, fieldTrackingNumber, p.TrackingNumber)
	setStr(f, fieldPrinterSubmissionDate, p.PrinterSubmissionDate)
	setStr(f, fieldShippedToPacksmithDate, p.ShippedToPacksmithDate)
	setStr(f, fieldFinalDesignFileLink, p.FinalDesignFileLink)
	if p.IllustratorFiles != nil {
		f[fieldIllustratorFiles] = wireAttachments(*p.IllustratorFiles)
	}
	if p.LinkedContacts != nil {
		f[fieldLinkedContacts] = *p.LinkedContacts
	}
	return f
}

func contactFromRecord(rec *record) *domain.Contact {
	f := rec.Fields
	return &domain.Contact{
		ID:             rec.ID,
		Name:           str(f, fieldName),
		Company:        str(f, fieldCompany),
		Email:          str(f, fieldEmail),
		Phone:          str(f, fieldPhone),
		AddressLine1:   str(f, fieldAddressLine1),
		AddressLine2:   str(f, fieldAddressLine2),
		City:           str(f, fieldCity),
		State:          str(f, fieldState),
		PostalCode:     str(f, fieldPostalCode),
		Country:        str(f, fieldCountry),
		LinkedInURL:    str(f, fieldLinkedInURL),
		ContactAddedBy: str(f, fieldContactAddedBy),

		CopyTitle1:     str(f, fieldCopyTitle1),
		CopyTitle2:     str(f, fieldCopyTitle2),
		CopyTitle3:     str(f, fieldCopyTitle3),
		CopyMainText:   str(f, fieldCopyMainText),
		ImageDirection: str(f, fieldImageDirection),

		Round1Draft:         attachments(f, fieldRound1Draft),
		Round1DraftFeedback: str(f, fieldRound1DraftFeedback),
		RejectRound1:        boolField(f, fieldRejectRound1),
		Round2Draft:         attachments(f, fieldRound2Draft),
		Round2DraftFeedback: str(f, fieldRound2DraftFeedback),
		RejectRound2:        boolField(f, fieldRejectRound2),
		Round3Draft:         attachments(f, fieldRound3Draft),

		ContactReview:         str(f, fieldContactReview),
		ContactReviewFeedback: str(f, fieldContactReviewFeedback),

		MagicCards:   boolField(f, fieldMagicCards),
		SFSBook:      boolField(f, fieldSFSBook),
		GoldenRecord: boolField(f, fieldGoldenRecord),

		CreatedAt: rec.CreatedTime,
		UpdatedAt: timeField(f, fieldLastModified, rec.CreatedTime),
	}
}

func contactFields(p domain.ContactPatch) map[string]interface{} {
	f := map[string]interface{}{}
	setStr(f, fieldName, p.Name)
	setStr(f, fieldCompany, p.Company)
	setStr(f, fieldEmail, p.Email)
	setStr(f, fieldPhone, p.Phone)
	setStr(f, fieldAddressLine1, p.AddressLine1)
	setStr(f, fieldAddressLine2, p.AddressLine2)
	setStr(f, fieldCity, p.City)
	setStr(f, fieldState, p.State)
	setStr(f, fieldPostalCode, p.PostalCode)
	setStr(f, fieldCountry, p.Country)
	setStr(f, fieldLinkedInURL, p.LinkedInURL)
	setStr(f, fieldContactAddedBy, p.ContactAddedBy)

	setStr(f, fieldCopyTitle1, p.CopyTitle1)
	setStr(f, fieldCopyTitle2, p.CopyTitle2)
	setStr(f, fieldCopyTitle3, p.CopyTitle3)
	setStr(f, fieldCopyMainText, p.CopyMainText)
	setStr(f, fieldImageDirection, p.ImageDirection)

	if p.Round1Draft != nil {
		f[fieldRound1Draft] = wireAttachments(*p.Round1Draft)
	}
	setStr(f, fieldRound1DraftFeedback, p.Round1DraftFeedback)
	setBool(f, fieldRejectRound1, p.RejectRound1)
	if p.Round2Draft != nil {
		f[fieldRound2Draft] = wireAttachments(*p.Round2Draft)
	}
	setStr(f, fieldRound2DraftFeedback, p.Round2DraftFeedback)
	setBool(f, fieldRejectRound2, p.RejectRound2)

	setStr(f, fieldContactReview, p.ContactReview)
	setStr(f, fieldContactReviewFeedback, p.ContactReviewFeedback)

	setBool(f, fieldMagicCards, p.MagicCards)
	setBool(f, fieldSFSBook, p.SFSBook)
	setBool(f, fieldGoldenRecord, p.GoldenRecord)
	return f
}

func wireAttachments(list []domain.Attachment) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(list))
	for _, a := range list {
		out = append(out, map[string]interface{}{
			"url":      a.URL,
			"filename": a.Filename,
		})
	}
	return out
}

func str(f map[string]interface{}, key string) string {
	if v, ok := f[key].(string); ok {
		return v
	}
	return ""
}

func boolField(f map[string]interface{}, key string) bool {
	v, _ := f[key].(bool)
	return v
}

func strSlice(f map[string]interface{}, key string) []string {
	raw, ok := f[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func attachments(f map[string]interface{}, key string) []domain.Attachment {
	raw, ok := f[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]domain.Attachment, 0, len(raw))
	for _, v := range raw {
		m, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, domain.Attachment{
			URL:      str(m, "url"),
			Filename: str(m, "filename"),
		})
	}
	return out
}

func timeField(f map[string]interface{}, key string, fallback time.Time) time.Time {
	if s, ok := f[key].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return fallback
}

func setStr(f map[string]interface{}, key string, v *string) {
	if v != nil {
		f[key] = *v
	}
}

func setBool(f map[string]interface{}, key string, v *bool) {
	if v != nil {
		f[key] = *v
	}
}

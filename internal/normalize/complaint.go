package normalize

import (
	"github.com/aawaaz/grievance-portal/internal/models"
)

const (
	anonymousName     = "Anonymous"
	defaultAuthorName = "Staff"
)

// Complaint normalizes a complaint payload. An anonymous complaint never
// carries the submitter's student id or name.
func (n *Normalizer) Complaint(v any) models.Complaint {
	r := asRaw(v)
	now := n.now()

	c := models.Complaint{
		ID:          idOf(r),
		CreatedByID: r.str(at("createdBy", "_id"), at("createdBy", "id"), at("createdBy"), at("createdById")),
		Title:       r.str(at("title")),
		Description: r.str(at("description")),
		Category:    r.str(at("category")),
		Priority:    priorityOf(r.str(at("priority"))),
		Status:      statusOf(r.str(at("status"))),
		StudentID:   r.str(at("createdBy", "studentId"), at("studentId")),
		StudentName: r.str(at("createdBy", "name"), at("studentName")),
		Department:  r.str(at("department"), at("createdBy", "department")),
		IsAnonymous: isAnonymous(r),
		Attachments: n.assets.ResolveAll(r.list(at("attachments"))),
		Remarks:     make([]models.Remark, 0),
		CreatedAt:   r.timestamp(now, at("createdAt")),
		UpdatedAt:   r.timestamp(now, at("updatedAt")),
	}

	for _, item := range r.list(at("remarks")) {
		c.Remarks = append(c.Remarks, n.Remark(item))
	}

	if rv, ok := r.obj(at("resolutionVerification")); ok {
		c.ResolutionVerification = &models.ResolutionVerification{
			Status:     verificationOf(rv.str(at("status"))),
			Comment:    rv.str(at("comment")),
			VerifiedAt: rv.str(at("verifiedAt")),
		}
	}

	if c.IsAnonymous {
		c.StudentID = ""
		c.StudentName = anonymousName
	}
	return c
}

// Complaints normalizes a list of complaint payloads
func (n *Normalizer) Complaints(v any) []models.Complaint {
	items, _ := v.([]any)
	out := make([]models.Complaint, 0, len(items))
	for _, item := range items {
		out = append(out, n.Complaint(item))
	}
	return out
}

// Remark normalizes a remark payload
func (n *Normalizer) Remark(v any) models.Remark {
	r := asRaw(v)
	return models.Remark{
		ID:      idOf(r),
		Content: r.str(at("content"), at("comment")),
		// addedBy is either a populated user object or a bare id
		AuthorID:   r.str(at("authorId"), at("addedBy", "_id"), at("addedBy", "id"), at("addedBy")),
		AuthorName: orDefault(r.str(at("authorName"), at("addedBy", "name")), defaultAuthorName),
		CreatedAt:  r.timestamp(n.now(), at("createdAt"), at("addedAt")),
	}
}

// isAnonymous accepts boolean true and the string "true"
func isAnonymous(r Raw) bool {
	switch v := r["isAnonymous"].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

func priorityOf(s string) models.Priority {
	switch models.Priority(s) {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		return models.Priority(s)
	}
	return models.PriorityMedium
}

func statusOf(s string) models.ComplaintStatus {
	switch st := models.ComplaintStatus(s); st {
	case models.StatusPendingReview, models.StatusOpen, models.StatusInProgress,
		models.StatusResolved, models.StatusRejected:
		return st
	}
	return models.StatusPendingReview
}

func verificationOf(s string) models.VerificationStatus {
	switch vs := models.VerificationStatus(s); vs {
	case models.VerificationConfirmed, models.VerificationReopened:
		return vs
	}
	return models.VerificationPending
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

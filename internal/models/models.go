// Package models defines the data structures used across the portal client.
// These are the typed shapes that server payloads are normalized into.
package models

// Role is the portal role of a user
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// Privileged reports whether the role triages complaints
func (r Role) Privileged() bool {
	return r == RoleStaff || r == RoleAdmin
}

// Priority of a complaint
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ComplaintStatus is the triage state of a complaint
type ComplaintStatus string

const (
	StatusPendingReview ComplaintStatus = "pending_review"
	StatusOpen          ComplaintStatus = "open"
	StatusInProgress    ComplaintStatus = "in_progress"
	StatusResolved      ComplaintStatus = "resolved"
	StatusRejected      ComplaintStatus = "rejected"
)

// VerificationStatus is the student's answer to a resolution
type VerificationStatus string

const (
	VerificationPending   VerificationStatus = "pending"
	VerificationConfirmed VerificationStatus = "confirmed"
	VerificationReopened  VerificationStatus = "reopened"
)

// NotificationType classifies a stored notification
type NotificationType string

const (
	NotificationStatusChange NotificationType = "status_change"
	NotificationNewRemark    NotificationType = "new_remark"
	NotificationGeneral      NotificationType = "general"
)

// User is a portal account.
// ProfilePhoto is an absolute URL or empty.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	StudentID    string `json:"studentId,omitempty"`
	Department   string `json:"department,omitempty"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

// Complaint is a filed grievance.
// When IsAnonymous is set, StudentID is empty and StudentName is "Anonymous".
type Complaint struct {
	ID                     string                  `json:"id"`
	CreatedByID            string                  `json:"createdById"`
	Title                  string                  `json:"title"`
	Description            string                  `json:"description"`
	Category               string                  `json:"category"`
	Priority               Priority                `json:"priority"`
	Status                 ComplaintStatus         `json:"status"`
	StudentID              string                  `json:"studentId"`
	StudentName            string                  `json:"studentName"`
	Department             string                  `json:"department,omitempty"`
	IsAnonymous            bool                    `json:"isAnonymous"`
	Attachments            []string                `json:"attachments"`
	Remarks                []Remark                `json:"remarks"`
	ResolutionVerification *ResolutionVerification `json:"resolutionVerification,omitempty"`
	CreatedAt              string                  `json:"createdAt"`
	UpdatedAt              string                  `json:"updatedAt"`
}

// ResolutionVerification records whether the submitter accepted a resolution
type ResolutionVerification struct {
	Status     VerificationStatus `json:"status"`
	Comment    string             `json:"comment,omitempty"`
	VerifiedAt string             `json:"verifiedAt,omitempty"`
}

// Remark is a staff comment on a complaint
type Remark struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
	CreatedAt  string `json:"createdAt"`
}

// Notification is a stored, per-user notification
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"isRead"`
	Type      NotificationType `json:"type"`
	CreatedAt string           `json:"createdAt"`
}

// Analytics is the dashboard summary for staff and admins.
// AverageResolutionTime is in hours.
type Analytics struct {
	TotalComplaints       float64            `json:"totalComplaints"`
	StatusCounts          map[string]float64 `json:"statusCounts"`
	CategoryCounts        map[string]float64 `json:"categoryCounts"`
	ResolutionRate        float64            `json:"resolutionRate"`
	AverageResolutionTime float64            `json:"averageResolutionTime"`
}

// HealthStatus represents the local API health check response
type HealthStatus struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Archive   string `json:"archive,omitempty"`
	Cache     string `json:"cache,omitempty"`
	LiveState string `json:"live_state,omitempty"`
}

// ChannelStatus is the read-only view of the live notification channel
type ChannelStatus struct {
	State     string `json:"state"`
	Connected bool   `json:"connected"`
	UserID    string `json:"user_id,omitempty"`
}

package domain

import "github.com/shopspring/decimal"

// Role gates which top-level views are reachable. It is orthogonal to
// authentication: a role can be selected on the landing page before login.
type Role string

const (
	RoleReader Role = "reader"
	RoleWriter Role = "writer"
)

// ParseRole validates a role string coming from forms or storage.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleReader:
		return RoleReader, true
	case RoleWriter:
		return RoleWriter, true
	default:
		return "", false
	}
}

type BookStatus string

const (
	StatusDraft     BookStatus = "draft"
	StatusPublished BookStatus = "published"
)

// UserProfile is the identity record owned by the session. It is replaced
// wholesale on profile update, never patched field by field.
type UserProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Book is owned by the backend; the client only references it and mutates it
// through full-record submits. Cover and file paths are relative and resolve
// against the asset base URL.
type Book struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	ISBN        string          `json:"isbn"`
	PageCount   int             `json:"pageCount,omitempty"`
	Language    string          `json:"language"`
	Price       decimal.Decimal `json:"price"`
	Status      BookStatus      `json:"status"`
	CoverImage  string          `json:"coverImage,omitempty"`
	FileURL     string          `json:"fileUrl,omitempty"`
	WriterID    string          `json:"writerId"`
}

package revieweat

import (
	"time"

	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is the default role new accounts get
	RoleUser UserRole = "user"
	// RoleAdmin can run operational endpoints
	RoleAdmin UserRole = "admin"
)

// User is the user model. The session_* columns mirror the most recently
// issued token for audit and logout; they are never the validation path.
type User struct {
	bun.BaseModel    `bun:"table:users,alias:usr"`
	ID               int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Role             UserRole   `bun:"role,notnull" json:"role,omitempty"`
	Username         string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email            string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash     string     `bun:"password_hash,notnull" json:"-"`
	LoginAttempts    int        `bun:"login_attempts" json:"-"`
	LoginAttemptAt   *time.Time `bun:"login_attempt_at" json:"-"`
	LastLoginAt      *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	SessionToken     *string    `bun:"session_token" json:"-"`
	SessionHTTPOnly  bool       `bun:"is_http_only" json:"-"`
	SessionSecure    bool       `bun:"is_secure" json:"-"`
	SessionExpiresAt *time.Time `bun:"session_expires_at,nullzero" json:"-"`
	CreatedAt        *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Review is a restaurant review written by a user
type Review struct {
	bun.BaseModel `bun:"table:reviews,alias:rev"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserID        int64      `bun:"user_id,notnull" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	PlaceName     string     `bun:"place_name,notnull" json:"place_name,omitempty"`
	PlaceAddress  string     `bun:"place_address" json:"place_address,omitempty"`
	ReviewDate    string     `bun:"review_date,notnull" json:"review_date,omitempty"`
	Rating        int        `bun:"rating,notnull" json:"rating,omitempty"`
	Companion     string     `bun:"companion" json:"companion,omitempty"`
	ReviewText    string     `bun:"review_text" json:"review_text,omitempty"`
	ImagePaths    []string   `bun:"image_paths,type:jsonb" json:"image_paths,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// SearchHistory is one recent search made by a user. IsPlace marks
// searches that resolved to a concrete place, Name keeps the place name.
type SearchHistory struct {
	bun.BaseModel `bun:"table:search_history,alias:sch"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserID        int64      `bun:"user_id,notnull" json:"user_id,omitempty"`
	Query         string     `bun:"query,notnull" json:"query,omitempty"`
	IsPlace       bool       `bun:"is_place" json:"is_place"`
	Name          string     `bun:"name" json:"name,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

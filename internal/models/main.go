// Package models defines the core data structures shared by the
// messenger client and the development backend.
package models

// Session is the persisted credential pair identifying the current client.
type Session struct {
	// Token is the opaque bearer token issued at login or signup.
	Token string `json:"token"`
	// Role is the access role of the session ("user" or "admin").
	Role string `json:"role"`
}

// Role values recognized by the client.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an application user profile.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Name is the display name of the user.
	Name string `json:"name"`
	// Username is the unique login name chosen by the user.
	Username string `json:"username"`
	// Number is the phone number of the user.
	Number string `json:"number"`
	// Bio holds the user-provided profile text.
	Bio string `json:"bio,omitempty"`
	// AvatarURL references the uploaded avatar image, if any.
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Message is a single immutable message between two users.
// The client never edits or deletes a message, only appends.
type Message struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	// Kind is the payload kind, one of the Kind* constants.
	Kind string `json:"kind"`
	// Text is set for text messages.
	Text string `json:"text,omitempty"`
	// MediaURL is set for media messages and points at an uploaded file.
	MediaURL  string `json:"media_url,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Known message payload kinds.
const (
	KindText  = "text"
	KindImage = "image"
	KindVideo = "video"
	KindAudio = "audio"
	KindVoice = "voice"
	KindFile  = "file"
)

// Conversation pairs a counterpart with the latest message exchanged
// with them. Ordering of conversation lists is server-determined.
type Conversation struct {
	// Other is the counterpart user.
	Other User `json:"other"`
	// Last is the most recent message in either direction.
	Last Message `json:"last"`
}

// AdminUser is the moderation view of a user account.
type AdminUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Number   string `json:"number"`
	IsActive bool   `json:"is_active"`
	IsAdmin  bool   `json:"is_admin"`
	// LastIP is the address the account last authenticated from.
	LastIP string `json:"last_ip,omitempty"`
}

// AdminLogEntry records one moderation action.
type AdminLogEntry struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	TargetID  string `json:"target_id"`
	Details   string `json:"details,omitempty"`
	CreatedAt string `json:"created_at"`
}

package entity

// SubmissionSource tells which flow produced a submission
type SubmissionSource string

const (
	SubmissionSourceGroup   SubmissionSource = "group"
	SubmissionSourcePrivate SubmissionSource = "private"
)

// VideoKind is the attachment form the video arrived in
type VideoKind string

const (
	VideoKindVideo    VideoKind = "video"
	VideoKindDocument VideoKind = "document"
)

// Submitter identifies the Telegram user who sent the video
type Submitter struct {
	ID           int64  `json:"id"`
	Username     string `json:"username,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// VideoRef points at a Telegram file; storage path and size are filled when resolved via getFile
type VideoRef struct {
	FileID       string    `json:"file_id"`
	FileUniqueID string    `json:"file_unique_id,omitempty"`
	Kind         VideoKind `json:"kind,omitempty"`
	MimeType     string    `json:"mime_type,omitempty"`
	FileName     string    `json:"file_name,omitempty"`
	FilePath     string    `json:"file_path,omitempty"`
	FileSize     int64     `json:"file_size,omitempty"`
}

// Submission is the payload delivered to the publishing workflow
type Submission struct {
	SubmissionID string           `json:"submission_id"`
	Source       SubmissionSource `json:"source"`
	ChatID       int64            `json:"chat_id"`
	MessageID    int              `json:"message_id"`
	Timestamp    string           `json:"timestamp"`
	User         *Submitter       `json:"user,omitempty"`
	Video        VideoRef         `json:"video"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Tags         []string         `json:"tags"`
	SourceLink   string           `json:"source_link,omitempty"`
	Channel      string           `json:"channel,omitempty"`
}

// DispatchResult is the workflow endpoint's answer to a submission
type DispatchResult struct {
	OK         bool
	StatusCode int
	Body       string
}

// FileMetadata is Telegram's answer to a getFile lookup.
// OK is false when Telegram rejected the file reference; ErrorDescription then holds its reason.
type FileMetadata struct {
	OK               bool
	FilePath         string
	FileSize         int64
	FileUniqueID     string
	ErrorDescription string
}

// BotIdentity is the bot's own Telegram account
type BotIdentity struct {
	ID       int64
	Username string
}

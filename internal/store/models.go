package store

// Flat records persisted as JSON collections, one collection per key.
// Shapes are implied by first write, there is no schema versioning and no
// referential integrity between collections (a Post's UserID is not checked
// against the user directory).

type UserStats struct {
	Points int `json:"points"`
	Streak int `json:"streak"`
	Level  int `json:"level"`
}

type UserSettings struct {
	IsIncognito          bool   `json:"isIncognito"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	Theme                string `json:"theme"`
}

type User struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Email    string       `json:"email"`
	Role     string       `json:"role"` // student | instructor | admin
	IsAdmin  bool         `json:"isAdmin"`
	Avatar   string       `json:"avatar,omitempty"`
	Bio      string       `json:"bio,omitempty"`
	Status   string       `json:"status,omitempty"`
	Stats    UserStats    `json:"stats"`
	Settings UserSettings `json:"settings"`
}

type Comment struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type Post struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	UserAvatar string    `json:"userAvatar"`
	Content    string    `json:"content"`
	MediaURL   string    `json:"mediaUrl,omitempty"`
	Likes      int       `json:"likes"`
	Comments   []Comment `json:"comments"`
	Timestamp  string    `json:"timestamp"`
}

type Task struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	DueDate  string `json:"dueDate"`
	Status   string `json:"status"` // pending | completed | overdue
	Priority string `json:"priority"`
	Subject  string `json:"subject"`
}

type Quiz struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Subject        string `json:"subject"`
	QuestionsCount int    `json:"questionsCount"`
	TimeLimit      int    `json:"timeLimit"`
	Difficulty     string `json:"difficulty"`
}

// CollaborativeNote is a shared document with no merge semantics: the most
// recent whole-value save wins, and LastEditedBy/LastEditedAt only record
// the winner.
type CollaborativeNote struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Emoji         string   `json:"emoji"`
	Content       string   `json:"content"`
	LastEditedBy  string   `json:"lastEditedBy"`
	LastEditedAt  string   `json:"lastEditedAt"`
	Collaborators []string `json:"collaborators"`
}

type PulseItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Category  string `json:"category"` // fact | tip | quote
	Timestamp string `json:"timestamp"`
}

type ChatMessage struct {
	ID          string `json:"id"`
	ChannelID   string `json:"channelId"`
	SenderID    string `json:"senderId"`
	SenderName  string `json:"senderName"`
	RecipientID string `json:"recipientId,omitempty"`
	Content     string `json:"content"`
	Timestamp   string `json:"timestamp"`
	IsAnonymous bool   `json:"isAnonymous,omitempty"`
	Type        string `json:"type"` // text | image | voice
}

type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // general | subject | qa
	Icon string `json:"icon"`
}

type Mentor struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Avatar    string   `json:"avatar"`
	Strengths []string `json:"strengths"`
	HelpCount int      `json:"helpCount"`
	Rating    float64  `json:"rating"`
	Status    string   `json:"status"` // online | offline
}

type Announcement struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	IsPinned  bool   `json:"isPinned"`
	Timestamp string `json:"timestamp"`
	AdminID   string `json:"adminId"`
}

// SystemStats is an admin-only aggregate held as independent state, not
// derived from the other collections.
type SystemStats struct {
	TotalUsers   int     `json:"totalUsers"`
	ActiveNow    int     `json:"activeNow"`
	AIRequests   int     `json:"aiRequests"`
	SystemHealth float64 `json:"systemHealth"`
}

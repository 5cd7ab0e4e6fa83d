package app

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"classnet/api/internal/assist"
	"classnet/api/internal/config"
	"classnet/api/internal/search"
	"classnet/api/internal/store"
	"classnet/api/internal/syncbus"
	"classnet/api/internal/util"
)

// dataStore is the slice of store.Store the service needs.
type dataStore interface {
	Load(ctx context.Context, key string, dest any) (bool, error)
	Save(ctx context.Context, key string, value any) error
	Ping(ctx context.Context) error
}

type assistant interface {
	FunFact(ctx context.Context) string
	StudyTip(ctx context.Context) string
	QuizQuestion(ctx context.Context, subject string) assist.QuizQuestion
}

type searchIndex interface {
	Search(ctx context.Context, q search.Query) search.Response
	IndexUser(rec search.UserRecord)
	IndexPost(rec search.PostRecord)
	DeletePost(id string)
}

// Service implements the classroom operations on top of the content
// store, the sync bus and the assistant. Storage failures degrade to
// in-memory defaults rather than failing the request; only validation
// and authorization problems surface as errors.
type Service struct {
	cfg    config.Config
	store  dataStore
	bus    syncbus.Bus
	assist assistant
	search searchIndex

	mu          sync.RWMutex
	feed        []store.Post
	feedLoaded  bool
	unsubscribe func()
}

func New(cfg config.Config, ds dataStore, bus syncbus.Bus, asst assistant, idx searchIndex) *Service {
	return &Service{
		cfg:    cfg,
		store:  ds,
		bus:    bus,
		assist: asst,
		search: idx,
	}
}

// Start subscribes to content-change notifications from other
// instances so the feed snapshot stays fresh.
func (s *Service) Start() error {
	unsub, err := s.bus.Subscribe(s.invalidateFeed)
	if err != nil {
		return err
	}
	s.unsubscribe = unsub
	return nil
}

func (s *Service) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func (s *Service) invalidateFeed() {
	s.mu.Lock()
	s.feedLoaded = false
	s.feed = nil
	s.mu.Unlock()
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// publish notifies other instances that stored content changed.
// Delivery is best effort.
func (s *Service) publish(ctx context.Context) {
	if err := s.bus.Publish(ctx); err != nil {
		log.Printf("app: sync publish failed: %v", err)
	}
}

func (s *Service) loadOr(ctx context.Context, key string, dest any, def func()) {
	found, err := s.store.Load(ctx, key, dest)
	if err != nil {
		log.Printf("app: load %s failed, serving default: %v", key, err)
		def()
		return
	}
	if !found {
		def()
	}
}

func (s *Service) save(ctx context.Context, key string, value any) bool {
	if err := s.store.Save(ctx, key, value); err != nil {
		log.Printf("app: save %s failed, keeping in-memory copy: %v", key, err)
		return false
	}
	return true
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func initial(name string) string {
	for _, r := range name {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// --- onboarding and profile ---

type JoinInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Service) Join(ctx context.Context, in JoinInput) (store.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" {
		return store.User{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name and email are required", nil)
	}
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = "student"
	}
	if role != "student" && role != "instructor" {
		return store.User{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "role must be student or instructor", map[string]any{"role": role})
	}

	isAdmin := strings.EqualFold(email, s.cfg.AdminEmail)
	id := util.NewID("usr")
	if isAdmin {
		id = "admin-0"
		role = "admin"
	}
	user := store.User{
		ID:      id,
		Name:    name,
		Email:   email,
		Role:    role,
		IsAdmin: isAdmin,
		Avatar:  initial(name),
		Status:  "online",
		Stats:   store.UserStats{Points: 150, Streak: 1, Level: 1},
		Settings: store.UserSettings{
			IsIncognito:          false,
			NotificationsEnabled: true,
			Theme:                "dark",
		},
	}
	s.save(ctx, store.KeyUser, user)

	// Joining again with a known email replaces the directory entry
	// instead of duplicating it.
	var directory []store.User
	s.loadOr(ctx, store.KeyAllUsers, &directory, func() { directory = nil })
	replaced := false
	for i := range directory {
		if strings.EqualFold(directory[i].Email, user.Email) {
			directory[i] = user
			replaced = true
			break
		}
	}
	if !replaced {
		directory = append(directory, user)
	}
	s.save(ctx, store.KeyAllUsers, directory)

	s.ensureSeeds(ctx)
	s.search.IndexUser(search.UserRecord{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role})
	s.publish(ctx)
	return user, nil
}

// ensureSeeds writes the starter collections for keys that have never
// been saved. Existing content is left untouched.
func (s *Service) ensureSeeds(ctx context.Context) {
	seed := func(key string, value any) {
		var raw json.RawMessage
		found, err := s.store.Load(ctx, key, &raw)
		if err != nil || found {
			return
		}
		s.save(ctx, key, value)
	}
	seed(store.KeyPosts, store.SeedPosts())
	seed(store.KeyTasks, store.SeedTasks())
	seed(store.KeyQuizzes, store.SeedQuizzes())
	seed(store.KeyNotes, store.SeedNotes())
	seed(store.KeyPulse, store.SeedPulse())
	seed(store.KeyChannels, store.SeedChannels())
	seed(store.KeyMentors, store.SeedMentors())
	seed(store.KeyStats, store.SeedStats())
}

func (s *Service) Profile(ctx context.Context) (store.User, error) {
	var user store.User
	found, err := s.store.Load(ctx, store.KeyUser, &user)
	if err != nil {
		log.Printf("app: load profile failed: %v", err)
	}
	if err != nil || !found {
		return store.User{}, domainError(http.StatusNotFound, "ONBOARDING_REQUIRED", "no profile found, join first", nil)
	}
	return user, nil
}

type ProfileUpdateInput struct {
	Name     *string             `json:"name"`
	Bio      *string             `json:"bio"`
	Avatar   *string             `json:"avatar"`
	Status   *string             `json:"status"`
	Settings *store.UserSettings `json:"settings"`
}

func (s *Service) UpdateProfile(ctx context.Context, in ProfileUpdateInput) (store.User, error) {
	user, err := s.Profile(ctx)
	if err != nil {
		return store.User{}, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return store.User{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name cannot be empty", nil)
		}
		user.Name = name
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}
	if in.Status != nil {
		user.Status = *in.Status
	}
	if in.Settings != nil {
		user.Settings = *in.Settings
	}
	s.save(ctx, store.KeyUser, user)
	s.syncDirectory(ctx, user)
	s.search.IndexUser(search.UserRecord{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role})
	s.publish(ctx)
	return user, nil
}

// syncDirectory mirrors a profile change into the all_users directory so
// the admin view and the store-scan search see the current record.
func (s *Service) syncDirectory(ctx context.Context, user store.User) {
	var directory []store.User
	s.loadOr(ctx, store.KeyAllUsers, &directory, func() { directory = nil })
	for i := range directory {
		if directory[i].ID == user.ID {
			directory[i] = user
			s.save(ctx, store.KeyAllUsers, directory)
			return
		}
	}
	directory = append(directory, user)
	s.save(ctx, store.KeyAllUsers, directory)
}

// --- feed ---

func (s *Service) Feed(ctx context.Context) []store.Post {
	s.mu.RLock()
	if s.feedLoaded {
		cached := append([]store.Post(nil), s.feed...)
		s.mu.RUnlock()
		return cached
	}
	s.mu.RUnlock()

	var posts []store.Post
	s.loadOr(ctx, store.KeyPosts, &posts, func() { posts = store.SeedPosts() })

	s.mu.Lock()
	s.feed = posts
	s.feedLoaded = true
	s.mu.Unlock()
	return posts
}

func (s *Service) saveFeed(ctx context.Context, posts []store.Post) {
	s.mu.Lock()
	s.feed = posts
	s.feedLoaded = true
	s.mu.Unlock()
	if s.save(ctx, store.KeyPosts, posts) {
		s.publish(ctx)
	}
}

type PostInput struct {
	Content  string `json:"content"`
	MediaURL string `json:"mediaUrl"`
}

// CreatePost publishes a new post at the head of the feed. A post with
// neither content nor media is silently dropped; created reports
// whether anything was written.
func (s *Service) CreatePost(ctx context.Context, in PostInput) (store.Post, bool, error) {
	content := strings.TrimSpace(in.Content)
	mediaURL := strings.TrimSpace(in.MediaURL)
	if content == "" && mediaURL == "" {
		return store.Post{}, false, nil
	}
	user, err := s.Profile(ctx)
	if err != nil {
		return store.Post{}, false, err
	}
	post := store.Post{
		ID:         util.NewID("post"),
		UserID:     user.ID,
		UserName:   user.Name,
		UserAvatar: initial(user.Name),
		Content:    content,
		MediaURL:   mediaURL,
		Likes:      0,
		Comments:   []store.Comment{},
		Timestamp:  nowStamp(),
	}
	posts := append([]store.Post{post}, s.Feed(ctx)...)
	s.saveFeed(ctx, posts)
	s.search.IndexPost(search.PostRecord{ID: post.ID, Content: post.Content, UserName: post.UserName})
	return post, true, nil
}

func (s *Service) LikePost(ctx context.Context, id string) (store.Post, error) {
	posts := s.Feed(ctx)
	for i := range posts {
		if posts[i].ID == id {
			posts[i].Likes++
			s.saveFeed(ctx, posts)
			return posts[i], nil
		}
	}
	return store.Post{}, domainError(http.StatusNotFound, "NOT_FOUND", "post not found", map[string]any{"id": id})
}

func (s *Service) CommentPost(ctx context.Context, postID, content string) (store.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return store.Post{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "comment content is required", nil)
	}
	user, err := s.Profile(ctx)
	if err != nil {
		return store.Post{}, err
	}
	posts := s.Feed(ctx)
	for i := range posts {
		if posts[i].ID == postID {
			posts[i].Comments = append(posts[i].Comments, store.Comment{
				ID:        util.NewID("cmt"),
				UserID:    user.ID,
				UserName:  user.Name,
				Content:   content,
				Timestamp: nowStamp(),
			})
			s.saveFeed(ctx, posts)
			return posts[i], nil
		}
	}
	return store.Post{}, domainError(http.StatusNotFound, "NOT_FOUND", "post not found", map[string]any{"id": postID})
}

func (s *Service) DeletePost(ctx context.Context, id string) error {
	if _, err := s.requireAdmin(ctx); err != nil {
		return err
	}
	posts := s.Feed(ctx)
	kept := posts[:0:0]
	for _, p := range posts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(posts) {
		return domainError(http.StatusNotFound, "NOT_FOUND", "post not found", map[string]any{"id": id})
	}
	s.saveFeed(ctx, kept)
	s.search.DeletePost(id)
	return nil
}

// --- tasks ---

func (s *Service) Tasks(ctx context.Context) []store.Task {
	var tasks []store.Task
	s.loadOr(ctx, store.KeyTasks, &tasks, func() { tasks = store.SeedTasks() })
	return tasks
}

func (s *Service) SetTaskStatus(ctx context.Context, id, status string) (store.Task, error) {
	switch status {
	case "pending", "completed", "overdue":
	default:
		return store.Task{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "status must be pending, completed or overdue", map[string]any{"status": status})
	}
	tasks := s.Tasks(ctx)
	for i := range tasks {
		if tasks[i].ID == id {
			tasks[i].Status = status
			if s.save(ctx, store.KeyTasks, tasks) {
				s.publish(ctx)
			}
			return tasks[i], nil
		}
	}
	return store.Task{}, domainError(http.StatusNotFound, "NOT_FOUND", "task not found", map[string]any{"id": id})
}

// --- quizzes ---

func (s *Service) Quizzes(ctx context.Context) []store.Quiz {
	var quizzes []store.Quiz
	s.loadOr(ctx, store.KeyQuizzes, &quizzes, func() { quizzes = store.SeedQuizzes() })
	return quizzes
}

func (s *Service) GenerateQuizQuestion(ctx context.Context, subject string) (assist.QuizQuestion, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return assist.QuizQuestion{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "subject is required", nil)
	}
	q := s.assist.QuizQuestion(ctx, subject)
	s.recordAIRequest(ctx)
	return q, nil
}

// --- collaborative notes ---

func (s *Service) Notes(ctx context.Context) []store.CollaborativeNote {
	var notes []store.CollaborativeNote
	s.loadOr(ctx, store.KeyNotes, &notes, func() { notes = store.SeedNotes() })
	return notes
}

func (s *Service) CreateNote(ctx context.Context) (store.CollaborativeNote, error) {
	user, err := s.Profile(ctx)
	if err != nil {
		return store.CollaborativeNote{}, err
	}
	note := store.CollaborativeNote{
		ID:            util.NewID("note"),
		Title:         "New Synthesis",
		Emoji:         "📝",
		Content:       "",
		LastEditedBy:  user.Name,
		LastEditedAt:  nowStamp(),
		Collaborators: []string{user.Name},
	}
	notes := append([]store.CollaborativeNote{note}, s.Notes(ctx)...)
	if s.save(ctx, store.KeyNotes, notes) {
		s.publish(ctx)
	}
	return note, nil
}

type NoteUpdateInput struct {
	Title   *string `json:"title"`
	Emoji   *string `json:"emoji"`
	Content *string `json:"content"`
}

// UpdateNote applies a last-write-wins edit and stamps the editor.
func (s *Service) UpdateNote(ctx context.Context, id string, in NoteUpdateInput) (store.CollaborativeNote, error) {
	user, err := s.Profile(ctx)
	if err != nil {
		return store.CollaborativeNote{}, err
	}
	notes := s.Notes(ctx)
	for i := range notes {
		if notes[i].ID != id {
			continue
		}
		if in.Title != nil {
			notes[i].Title = *in.Title
		}
		if in.Emoji != nil {
			notes[i].Emoji = *in.Emoji
		}
		if in.Content != nil {
			notes[i].Content = *in.Content
		}
		notes[i].LastEditedBy = user.Name
		notes[i].LastEditedAt = nowStamp()
		if !contains(notes[i].Collaborators, user.Name) {
			notes[i].Collaborators = append(notes[i].Collaborators, user.Name)
		}
		if s.save(ctx, store.KeyNotes, notes) {
			s.publish(ctx)
		}
		return notes[i], nil
	}
	return store.CollaborativeNote{}, domainError(http.StatusNotFound, "NOT_FOUND", "note not found", map[string]any{"id": id})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// --- pulse ---

func (s *Service) Pulse(ctx context.Context) []store.PulseItem {
	var items []store.PulseItem
	s.loadOr(ctx, store.KeyPulse, &items, func() { items = store.SeedPulse() })
	return items
}

func (s *Service) RefreshPulse(ctx context.Context, category string) (store.PulseItem, error) {
	var title, content string
	switch category {
	case "fact":
		title = "Neural Fact"
		content = s.assist.FunFact(ctx)
	case "tip":
		title = "Study Tip"
		content = s.assist.StudyTip(ctx)
	default:
		return store.PulseItem{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "category must be fact or tip", map[string]any{"category": category})
	}
	item := store.PulseItem{
		ID:        util.NewID("pulse"),
		Title:     title,
		Content:   content,
		Category:  category,
		Timestamp: nowStamp(),
	}
	items := append([]store.PulseItem{item}, s.Pulse(ctx)...)
	if s.save(ctx, store.KeyPulse, items) {
		s.publish(ctx)
	}
	s.recordAIRequest(ctx)
	return item, nil
}

// --- channels and messages ---

func (s *Service) Channels(ctx context.Context) []store.Channel {
	var channels []store.Channel
	s.loadOr(ctx, store.KeyChannels, &channels, func() { channels = store.SeedChannels() })
	return channels
}

func (s *Service) channel(ctx context.Context, id string) (store.Channel, error) {
	for _, ch := range s.Channels(ctx) {
		if ch.ID == id {
			return ch, nil
		}
	}
	return store.Channel{}, domainError(http.StatusNotFound, "NOT_FOUND", "channel not found", map[string]any{"id": id})
}

func (s *Service) ChannelMessages(ctx context.Context, channelID string) ([]store.ChatMessage, error) {
	if _, err := s.channel(ctx, channelID); err != nil {
		return nil, err
	}
	var messages []store.ChatMessage
	s.loadOr(ctx, store.MessagesKeyPrefix+channelID, &messages, func() { messages = []store.ChatMessage{} })
	return messages, nil
}

type MessageInput struct {
	Content   string `json:"content"`
	Anonymous bool   `json:"anonymous"`
}

func (s *Service) PostMessage(ctx context.Context, channelID string, in MessageInput) (store.ChatMessage, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return store.ChatMessage{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "message content is required", nil)
	}
	channel, err := s.channel(ctx, channelID)
	if err != nil {
		return store.ChatMessage{}, err
	}
	user, err := s.Profile(ctx)
	if err != nil {
		return store.ChatMessage{}, err
	}
	anonymous := in.Anonymous || channel.Type == "qa" || user.Settings.IsIncognito
	senderName := user.Name
	if anonymous {
		senderName = "Anonymous"
	}
	msg := store.ChatMessage{
		ID:          util.NewID("msg"),
		ChannelID:   channelID,
		SenderID:    user.ID,
		SenderName:  senderName,
		Content:     content,
		IsAnonymous: anonymous,
		Type:        "text",
		Timestamp:   nowStamp(),
	}
	messages, err := s.ChannelMessages(ctx, channelID)
	if err != nil {
		return store.ChatMessage{}, err
	}
	messages = append(messages, msg)
	if s.save(ctx, store.MessagesKeyPrefix+channelID, messages) {
		s.publish(ctx)
	}
	return msg, nil
}

// --- mentors ---

func (s *Service) Mentors(ctx context.Context) []store.Mentor {
	var mentors []store.Mentor
	s.loadOr(ctx, store.KeyMentors, &mentors, func() { mentors = store.SeedMentors() })
	return mentors
}

// --- search ---

func (s *Service) Search(ctx context.Context, text, filterType string, limit int) search.Response {
	return s.search.Search(ctx, search.Query{Text: text, FilterType: search.ResultType(filterType), Limit: limit})
}

// --- admin ---

func (s *Service) requireAdmin(ctx context.Context) (store.User, error) {
	user, err := s.Profile(ctx)
	if err != nil {
		return store.User{}, err
	}
	if !user.IsAdmin {
		return store.User{}, domainError(http.StatusForbidden, "FORBIDDEN", "admin access required", nil)
	}
	return user, nil
}

func (s *Service) Stats(ctx context.Context) (store.SystemStats, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return store.SystemStats{}, err
	}
	var stats store.SystemStats
	s.loadOr(ctx, store.KeyStats, &stats, func() { stats = store.SeedStats() })
	return stats, nil
}

func (s *Service) Directory(ctx context.Context, filter string) ([]store.User, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	var users []store.User
	s.loadOr(ctx, store.KeyAllUsers, &users, func() { users = []store.User{} })
	if filter == "" {
		return users, nil
	}
	needle := strings.ToLower(filter)
	matched := users[:0:0]
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Name), needle) || strings.Contains(strings.ToLower(u.Email), needle) {
			matched = append(matched, u)
		}
	}
	return matched, nil
}

func (s *Service) Announcements(ctx context.Context) []store.Announcement {
	var items []store.Announcement
	s.loadOr(ctx, store.KeyAnnouncements, &items, func() { items = []store.Announcement{} })
	return items
}

type AnnouncementInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Pinned  bool   `json:"pinned"`
}

func (s *Service) CreateAnnouncement(ctx context.Context, in AnnouncementInput) (store.Announcement, error) {
	user, err := s.requireAdmin(ctx)
	if err != nil {
		return store.Announcement{}, err
	}
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return store.Announcement{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title and content are required", nil)
	}
	item := store.Announcement{
		ID:        util.NewID("ann"),
		Title:     title,
		Content:   content,
		IsPinned:  in.Pinned,
		Timestamp: nowStamp(),
		AdminID:   user.ID,
	}
	items := append([]store.Announcement{item}, s.Announcements(ctx)...)
	if s.save(ctx, store.KeyAnnouncements, items) {
		s.publish(ctx)
	}
	return item, nil
}

// DeleteContent removes a single item from a moderated collection.
func (s *Service) DeleteContent(ctx context.Context, collection, id string) error {
	if _, err := s.requireAdmin(ctx); err != nil {
		return err
	}
	switch collection {
	case "posts":
		posts := s.Feed(ctx)
		kept := posts[:0:0]
		for _, p := range posts {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(posts) {
			return domainError(http.StatusNotFound, "NOT_FOUND", "post not found", map[string]any{"id": id})
		}
		s.saveFeed(ctx, kept)
		s.search.DeletePost(id)
		return nil
	case "tasks":
		return removeItem(s, ctx, store.KeyTasks, s.Tasks(ctx), id, func(t store.Task) string { return t.ID })
	case "quizzes":
		return removeItem(s, ctx, store.KeyQuizzes, s.Quizzes(ctx), id, func(q store.Quiz) string { return q.ID })
	case "notes":
		return removeItem(s, ctx, store.KeyNotes, s.Notes(ctx), id, func(n store.CollaborativeNote) string { return n.ID })
	case "pulse":
		return removeItem(s, ctx, store.KeyPulse, s.Pulse(ctx), id, func(p store.PulseItem) string { return p.ID })
	default:
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown collection", map[string]any{"collection": collection})
	}
}

func removeItem[T any](s *Service, ctx context.Context, key string, items []T, id string, idOf func(T) string) error {
	kept := items[:0:0]
	for _, item := range items {
		if idOf(item) != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return domainError(http.StatusNotFound, "NOT_FOUND", "item not found", map[string]any{"id": id})
	}
	if s.save(ctx, key, kept) {
		s.publish(ctx)
	}
	return nil
}

func (s *Service) recordAIRequest(ctx context.Context) {
	var stats store.SystemStats
	s.loadOr(ctx, store.KeyStats, &stats, func() { stats = store.SeedStats() })
	stats.AIRequests++
	s.save(ctx, store.KeyStats, stats)
}

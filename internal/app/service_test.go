package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"classnet/api/internal/assist"
	"classnet/api/internal/config"
	"classnet/api/internal/search"
	"classnet/api/internal/store"
)

type recordingBus struct {
	published int
}

func (b *recordingBus) Publish(ctx context.Context) error { b.published++; return nil }
func (b *recordingBus) Subscribe(h func()) (func(), error) {
	return func() {}, nil
}
func (b *recordingBus) Close() error { return nil }

type stubAssistant struct{}

func (stubAssistant) FunFact(ctx context.Context) string  { return "Bananas are berries." }
func (stubAssistant) StudyTip(ctx context.Context) string { return "Sleep before the exam." }
func (stubAssistant) QuizQuestion(ctx context.Context, subject string) assist.QuizQuestion {
	return assist.FallbackQuestion(subject)
}

type stubIndex struct {
	deletedPosts []string
}

func (s *stubIndex) Search(ctx context.Context, q search.Query) search.Response {
	return search.Response{Results: []search.Result{}, Query: q.Text}
}
func (s *stubIndex) IndexUser(search.UserRecord) {}
func (s *stubIndex) IndexPost(search.PostRecord) {}
func (s *stubIndex) DeletePost(id string)        { s.deletedPosts = append(s.deletedPosts, id) }

func newTestService(t *testing.T) (*Service, *store.MemoryStore, *recordingBus) {
	t.Helper()
	cfg := config.Config{Profile: "default", AdminEmail: "head@classnet.test"}
	ms := store.NewMemoryStore()
	bus := &recordingBus{}
	svc := New(cfg, ms, bus, stubAssistant{}, &stubIndex{})
	return svc, ms, bus
}

func joinAs(t *testing.T, svc *Service, name, email string) store.User {
	t.Helper()
	user, err := svc.Join(context.Background(), JoinInput{Name: name, Email: email, Role: "student"})
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	return user
}

func domainStatus(t *testing.T, err error) (int, string) {
	t.Helper()
	var derr *DomainError
	if !errors.As(err, &derr) {
		t.Fatalf("expected a domain error, got %v", err)
	}
	return derr.Status, derr.Code
}

func TestJoinCreatesProfileAndSeeds(t *testing.T) {
	svc, ms, bus := newTestService(t)
	user := joinAs(t, svc, "Aisha Khan", "aisha@example.com")

	if !strings.HasPrefix(user.ID, "usr_") {
		t.Errorf("unexpected user id %q", user.ID)
	}
	if user.IsAdmin {
		t.Error("regular student must not be admin")
	}
	if user.Stats.Points != 150 || user.Stats.Streak != 1 || user.Stats.Level != 1 {
		t.Errorf("unexpected starter stats: %+v", user.Stats)
	}
	if user.Settings.Theme != "dark" || !user.Settings.NotificationsEnabled {
		t.Errorf("unexpected default settings: %+v", user.Settings)
	}

	var posts []store.Post
	found, err := ms.Load(context.Background(), store.KeyPosts, &posts)
	if err != nil || !found {
		t.Fatalf("seed posts missing: found=%v err=%v", found, err)
	}
	if len(posts) == 0 {
		t.Error("expected seeded posts")
	}
	if bus.published == 0 {
		t.Error("join must notify other instances")
	}
}

func TestJoinDetectsAdminEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	user := joinAs(t, svc, "Rehan", "HEAD@classnet.TEST")

	if !user.IsAdmin {
		t.Fatal("admin email must grant admin")
	}
	if user.ID != "admin-0" {
		t.Errorf("unexpected admin id %q", user.ID)
	}
	if user.Role != "admin" {
		t.Errorf("unexpected admin role %q", user.Role)
	}
}

func TestJoinValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Join(context.Background(), JoinInput{Name: "  ", Email: "x@example.com"})
	if status, _ := domainStatus(t, err); status != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", status)
	}
}

func TestRejoinReplacesDirectoryEntry(t *testing.T) {
	svc, ms, _ := newTestService(t)
	joinAs(t, svc, "Aisha Khan", "aisha@example.com")
	rejoined := joinAs(t, svc, "Aisha K.", "AISHA@example.com")

	var directory []store.User
	if _, err := ms.Load(context.Background(), store.KeyAllUsers, &directory); err != nil {
		t.Fatalf("load directory: %v", err)
	}
	if len(directory) != 1 {
		t.Fatalf("expected 1 directory entry after rejoin, got %d", len(directory))
	}
	if directory[0].ID != rejoined.ID || directory[0].Name != "Aisha K." {
		t.Errorf("directory entry not replaced: %+v", directory[0])
	}
}

func TestUpdateProfileSyncsDirectory(t *testing.T) {
	svc, ms, _ := newTestService(t)
	user := joinAs(t, svc, "Aisha Khan", "aisha@example.com")

	ctx := context.Background()
	name := "Aisha Rahman"
	if _, err := svc.UpdateProfile(ctx, ProfileUpdateInput{Name: &name}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	var directory []store.User
	if _, err := ms.Load(ctx, store.KeyAllUsers, &directory); err != nil {
		t.Fatalf("load directory: %v", err)
	}
	if len(directory) != 1 {
		t.Fatalf("expected 1 directory entry, got %d", len(directory))
	}
	if directory[0].ID != user.ID || directory[0].Name != "Aisha Rahman" {
		t.Errorf("rename not mirrored into the directory: %+v", directory[0])
	}
}

func TestProfileBeforeJoin(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Profile(context.Background())
	status, code := domainStatus(t, err)
	if status != http.StatusNotFound || code != "ONBOARDING_REQUIRED" {
		t.Errorf("expected 404 ONBOARDING_REQUIRED, got %d %s", status, code)
	}
}

func TestCreatePostEmptyIsNoOp(t *testing.T) {
	svc, _, bus := newTestService(t)
	joinAs(t, svc, "Aisha Khan", "aisha@example.com")

	ctx := context.Background()
	before := svc.Feed(ctx)
	publishedBefore := bus.published

	_, created, err := svc.CreatePost(ctx, PostInput{Content: "   ", MediaURL: ""})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if created {
		t.Error("empty post must not be created")
	}
	if got := svc.Feed(ctx); len(got) != len(before) {
		t.Errorf("feed changed from %d to %d posts", len(before), len(got))
	}
	if bus.published != publishedBefore {
		t.Error("empty post must not trigger a notification")
	}
}

func TestCreatePostPrependsNewest(t *testing.T) {
	svc, _, _ := newTestService(t)
	joinAs(t, svc, "Aisha Khan", "aisha@example.com")

	ctx := context.Background()
	post, created, err := svc.CreatePost(ctx, PostInput{Content: "First day of class!"})
	if err != nil || !created {
		t.Fatalf("CreatePost failed: created=%v err=%v", created, err)
	}

	feed := svc.Feed(ctx)
	if len(feed) == 0 || feed[0].ID != post.ID {
		t.Errorf("new post must be first in the feed")
	}
	if feed[0].UserAvatar != "A" {
		t.Errorf("unexpected avatar glyph %q", feed[0].UserAvatar)
	}
}

func TestLikePost(t *testing.T) {
	svc, _, _ := newTestService(t)
	joinAs(t, svc, "Aisha Khan", "aisha@example.com")

	ctx := context.Background()
	post, _, err := svc.CreatePost(ctx, PostInput{Content: "like me"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	liked, err := svc.LikePost(ctx, post.ID)
	if err != nil {
		t.Fatalf("LikePost failed: %v", err)
	}
	if liked.Likes != 1 {
		t.Errorf("expected 1 like, got %d", liked.Likes)
	}

	_, err = svc.LikePost(ctx, "post_missing")
	if status, _ := domainStatus(t, err); status != http.StatusNotFound {
		t.Errorf("expected 404 for unknown post, got %d", status)
	}
}

func TestDeletePostRequiresAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)
	joinAs(t, svc, "Aisha Khan", "aisha@example.com")

	ctx := context.Background()
	post, _, err := svc.CreatePost(ctx, PostInput{Content: "delete me"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	err = svc.DeletePost(ctx, post.ID)
	status, code := domainStatus(t, err)
	if status != http.StatusForbidden || code != "FORBIDDEN" {
		t.Errorf("expected 403 FORBIDDEN, got %d %s", status, code)
	}
}

func TestDeletePostAsAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)
	joinAs(t, svc, "Rehan", "head@classnet.test")

	ctx := context.Background()
	post, _, err := svc.CreatePost(ctx, PostInput{Content: "moderated away"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if err := svc.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	for _, p := range svc.Feed(ctx) {
		if p.ID == post.ID {
			t.Error("deleted post still in feed")
		}
	}
}

func TestSetTaskStatusValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	joinAs(t, svc, "Aisha Khan", "aisha@example.com")

	ctx := context.Background()
	tasks := svc.Tasks(ctx)
	if len(tasks) == 0 {
		t.Fatal("expected seeded tasks")
	}

	updated, err := svc.SetTaskStatus(ctx, tasks[0].ID, "completed")
	if err != nil {
		t.Fatalf("SetTaskStatus failed: %v", err)
	}
	if updated.Status != "completed" {
		t.Errorf("unexpected status %q", updated.Status)
	}

	_, err = svc.SetTaskStatus(ctx, tasks[0].ID, "done")
	if status, _ := domainStatus(t, err); status != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for unknown status, got %d", status)
	}
}

func TestGenerateQuizQuestionBumpsAIRequests(t *testing.T) {
	svc, ms, _ := newTestService(t)
	joinAs(t, svc, "Aisha Khan", "aisha@example.com")

	ctx := context.Background()
	var before store.SystemStats
	if _, err := ms.Load(ctx, store.KeyStats, &before); err != nil {
		t.Fatalf("load stats: %v", err)
	}

	q, err := svc.GenerateQuizQuestion(ctx, "Biology")
	if err != nil {
		t.Fatalf("GenerateQuizQuestion failed: %v", err)
	}
	if len(q.Options) != 4 {
		t.Errorf("expected 4 options, got %d", len(q.Options))
	}

	var after store.SystemStats
	if _, err := ms.Load(ctx, store.KeyStats, &after); err != nil {
		t.Fatalf("load stats: %v", err)
	}
	if after.AIRequests != before.AIRequests+1 {
		t.Errorf("AI request counter: before=%d after=%d", before.AIRequests, after.AIRequests)
	}

	_, err = svc.GenerateQuizQuestion(ctx, "  ")
	if status, _ := domainStatus(t, err); status != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for blank subject, got %d", status)
	}
}

func TestUpdateNoteStampsEditor(t *testing.T) {
	svc, _, _ := newTestService(t)
	joinAs(t, svc, "Aisha Khan", "aisha@example.com")

	ctx := context.Background()
	note, err := svc.CreateNote(ctx)
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	if note.Title != "New Synthesis" || note.Emoji != "📝" {
		t.Errorf("unexpected new note defaults: %+v", note)
	}

	content := "Updated outline"
	updated, err := svc.UpdateNote(ctx, note.ID, NoteUpdateInput{Content: &content})
	if err != nil {
		t.Fatalf("UpdateNote failed: %v", err)
	}
	if updated.Content != content {
		t.Errorf("content not applied: %q", updated.Content)
	}
	if updated.LastEditedBy != "Aisha Khan" {
		t.Errorf("editor not stamped: %q", updated.LastEditedBy)
	}
	if updated.LastEditedAt == "" {
		t.Error("edit time not stamped")
	}
	if !contains(updated.Collaborators, "Aisha Khan") {
		t.Errorf("editor missing from collaborators: %v", updated.Collaborators)
	}
}

func TestRefreshPulse(t *testing.T) {
	svc, _, _ := newTestService(t)
	joinAs(t, svc, "Aisha Khan", "aisha@example.com")

	ctx := context.Background()
	item, err := svc.RefreshPulse(ctx, "fact")
	if err != nil {
		t.Fatalf("RefreshPulse failed: %v", err)
	}
	if item.Title != "Neural Fact" || item.Content != "Bananas are berries." {
		t.Errorf("unexpected pulse item: %+v", item)
	}
	if got := svc.Pulse(ctx); len(got) == 0 || got[0].ID != item.ID {
		t.Error("refreshed item must be first in the pulse")
	}

	_, err = svc.RefreshPulse(ctx, "gossip")
	if status, _ := domainStatus(t, err); status != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for unknown category, got %d", status)
	}
}

func TestPostMessageAnonymousInQAChannel(t *testing.T) {
	svc, _, _ := newTestService(t)
	joinAs(t, svc, "Aisha Khan", "aisha@example.com")

	ctx := context.Background()
	msg, err := svc.PostMessage(ctx, "qa", MessageInput{Content: "How does recursion work?"})
	if err != nil {
		t.Fatalf("PostMessage failed: %v", err)
	}
	if !msg.IsAnonymous || msg.SenderName != "Anonymous" {
		t.Errorf("qa channel must force anonymity: %+v", msg)
	}

	named, err := svc.PostMessage(ctx, "gen", MessageInput{Content: "Hello everyone"})
	if err != nil {
		t.Fatalf("PostMessage failed: %v", err)
	}
	if named.IsAnonymous || named.SenderName != "Aisha Khan" {
		t.Errorf("general channel must keep the sender name: %+v", named)
	}

	messages, err := svc.ChannelMessages(ctx, "qa")
	if err != nil {
		t.Fatalf("ChannelMessages failed: %v", err)
	}
	if len(messages) != 1 || messages[0].ID != msg.ID {
		t.Errorf("unexpected qa history: %+v", messages)
	}

	_, err = svc.PostMessage(ctx, "nope", MessageInput{Content: "hi"})
	if status, _ := domainStatus(t, err); status != http.StatusNotFound {
		t.Errorf("expected 404 for unknown channel, got %d", status)
	}
}

func TestAdminStatsAndDirectory(t *testing.T) {
	svc, _, _ := newTestService(t)
	joinAs(t, svc, "Rehan", "head@classnet.test")

	ctx := context.Background()
	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalUsers == 0 {
		t.Error("expected seeded stats")
	}

	users, err := svc.Directory(ctx, "rehan")
	if err != nil {
		t.Fatalf("Directory failed: %v", err)
	}
	if len(users) != 1 || users[0].Name != "Rehan" {
		t.Errorf("unexpected directory filter result: %+v", users)
	}

	users, err = svc.Directory(ctx, "nobody-matches")
	if err != nil {
		t.Fatalf("Directory failed: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("expected empty result, got %+v", users)
	}
}

func TestDeleteContentCollections(t *testing.T) {
	svc, _, _ := newTestService(t)
	joinAs(t, svc, "Rehan", "head@classnet.test")

	ctx := context.Background()
	tasks := svc.Tasks(ctx)
	if len(tasks) == 0 {
		t.Fatal("expected seeded tasks")
	}
	if err := svc.DeleteContent(ctx, "tasks", tasks[0].ID); err != nil {
		t.Fatalf("DeleteContent failed: %v", err)
	}
	for _, task := range svc.Tasks(ctx) {
		if task.ID == tasks[0].ID {
			t.Error("deleted task still present")
		}
	}

	err := svc.DeleteContent(ctx, "grades", "g1")
	if status, _ := domainStatus(t, err); status != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for unknown collection, got %d", status)
	}
}

func TestInvalidateFeedReloadsFromStore(t *testing.T) {
	svc, ms, _ := newTestService(t)
	joinAs(t, svc, "Aisha Khan", "aisha@example.com")

	ctx := context.Background()
	svc.Feed(ctx) // warm the cache

	// Another instance rewrites the feed behind our back.
	if err := ms.Save(ctx, store.KeyPosts, []store.Post{{ID: "p_remote", Content: "from elsewhere"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	svc.invalidateFeed()

	feed := svc.Feed(ctx)
	if len(feed) != 1 || feed[0].ID != "p_remote" {
		t.Errorf("cache not refreshed after notification: %+v", feed)
	}
}

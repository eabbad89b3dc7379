package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-achievements-backend/internal/auth"
	"github.com/tbourn/go-achievements-backend/internal/domain"
	"github.com/tbourn/go-achievements-backend/internal/http/middleware"
	"github.com/tbourn/go-achievements-backend/internal/services"
)

// handlerEnv bundles a wired router with its backing database and session
// signer for endpoint tests.
type handlerEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	sessions *auth.Sessions
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("h_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.Achievement{}, &domain.Unlock{}, &domain.Profile{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	sessions := &auth.Sessions{Secret: []byte("handler-test-secret"), TTL: time.Hour}
	h := New(
		&services.AchievementService{DB: db},
		&services.StatusService{DB: db},
		&services.DashboardService{DB: db},
		&services.RankingService{DB: db},
		&services.ProfileService{DB: db},
	)

	r := gin.New()
	r.Use(middleware.Auth(sessions))
	r.GET("/achievements", h.ListAchievements)
	r.PUT("/achievements/:id/status", h.UpdateStatus)
	r.GET("/tags", h.ListTags)
	r.GET("/dashboard", h.GetDashboard)
	r.GET("/ranking", h.GetRanking)
	r.GET("/profile", h.GetProfile)
	r.PUT("/profile", h.UpdateProfile)

	return &handlerEnv{router: r, db: db, sessions: sessions}
}

// do performs a request, attaching a bearer token for userID when non-empty.
func (e *handlerEnv) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		tok, err := e.sessions.Issue(auth.Identity{ID: userID, Email: userID + "@example.com"})
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *handlerEnv) seedAchievement(t *testing.T, a domain.Achievement) domain.Achievement {
	t.Helper()
	if err := e.db.Create(&a).Error; err != nil {
		t.Fatalf("seed achievement: %v", err)
	}
	return a
}

func codePtr(s string) *string { return &s }

func TestListAchievements_AnonymousAndAuthenticated(t *testing.T) {
	e := newHandlerEnv(t)
	e.seedAchievement(t, domain.Achievement{Code: codePtr("A1"), Category: "INT", Title: "One", BasePoints: 10})
	e.seedAchievement(t, domain.Achievement{Code: codePtr("A2"), Category: "VIT", Title: "Two", BasePoints: 20})

	// Unlock A1 for u1.
	if w := e.do(t, http.MethodPut, "/achievements/A1/status", "u1", gin.H{"status": "unlocked"}); w.Code != http.StatusNoContent {
		t.Fatalf("unlock: %d %s", w.Code, w.Body.String())
	}

	// Anonymous: everything locked.
	w := e.do(t, http.MethodGet, "/achievements", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous list: %d", w.Code)
	}
	var resp ListAchievementsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("total = %d", resp.Total)
	}
	for _, v := range resp.Achievements {
		if v.Status != domain.StatusLocked {
			t.Fatalf("anonymous view must be locked, got %s", v.Status)
		}
	}

	// Authenticated: A1 unlocked.
	w = e.do(t, http.MethodGet, "/achievements", "u1", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Achievements[0].Status != domain.StatusUnlocked || resp.Achievements[1].Status != domain.StatusLocked {
		t.Fatalf("overlay wrong: %+v", resp.Achievements)
	}
}

func TestListTags_DistinctAndSorted(t *testing.T) {
	e := newHandlerEnv(t)

	// Empty catalog yields an empty array, not null.
	w := e.do(t, http.MethodGet, "/tags", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("tags: %d", w.Code)
	}
	if body := w.Body.String(); body != `{"tags":[]}` {
		t.Fatalf("empty catalog body = %s", body)
	}

	e.seedAchievement(t, domain.Achievement{Code: codePtr("A1"), Category: "VIT", Title: "One", Tags: "health,habit"})
	e.seedAchievement(t, domain.Achievement{Code: codePtr("A2"), Category: "INT", Title: "Two", Tags: "career, health"})
	e.seedAchievement(t, domain.Achievement{Code: codePtr("A3"), Category: "EXP", Title: "Three"})

	w = e.do(t, http.MethodGet, "/tags", "", nil)
	var resp ListTagsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	want := []string{"career", "habit", "health"}
	if len(resp.Tags) != len(want) {
		t.Fatalf("tags = %v, want %v", resp.Tags, want)
	}
	for i := range want {
		if resp.Tags[i] != want[i] {
			t.Fatalf("tags = %v, want %v", resp.Tags, want)
		}
	}

	// Tags also ride along on the listing itself.
	w = e.do(t, http.MethodGet, "/achievements", "", nil)
	var list ListAchievementsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("json: %v", err)
	}
	for _, v := range list.Achievements {
		if v.ID == "A1" && len(v.Tags) != 2 {
			t.Fatalf("A1 tags = %v", v.Tags)
		}
		if v.ID == "A3" && v.Tags != nil {
			t.Fatalf("untagged A3 must omit tags, got %v", v.Tags)
		}
	}
}

func TestListAchievements_ETagRoundTrip(t *testing.T) {
	e := newHandlerEnv(t)
	e.seedAchievement(t, domain.Achievement{Code: codePtr("A1"), Category: "INT", Title: "One"})

	w1 := e.do(t, http.MethodGet, "/achievements", "u1", nil)
	etag := w1.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	// Replay with If-None-Match -> 304.
	tok, _ := e.sessions.Issue(auth.Identity{ID: "u1"})
	req := httptest.NewRequest(http.MethodGet, "/achievements", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("If-None-Match", etag)
	w2 := httptest.NewRecorder()
	e.router.ServeHTTP(w2, req)
	if w2.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w2.Code)
	}

	// A successful mutation must invalidate the fingerprint.
	time.Sleep(5 * time.Millisecond)
	if w := e.do(t, http.MethodPut, "/achievements/A1/status", "u1", gin.H{"status": "in-progress"}); w.Code != http.StatusNoContent {
		t.Fatalf("mutation: %d", w.Code)
	}
	w3 := httptest.NewRecorder()
	e.router.ServeHTTP(w3, req)
	if w3.Code != http.StatusOK {
		t.Fatalf("stale ETag must miss, got %d", w3.Code)
	}
	if w3.Header().Get("ETag") == etag {
		t.Fatal("fingerprint did not change after mutation")
	}
}

func TestUpdateStatus_ErrorMapping(t *testing.T) {
	e := newHandlerEnv(t)
	e.seedAchievement(t, domain.Achievement{
		Code: codePtr("EXP_BORN"), Category: "EXP", Title: "Be born",
		AllowedStatuses: "locked,unlocked",
	})

	cases := []struct {
		name   string
		path   string
		user   string
		body   any
		status int
		code   string
	}{
		{"anonymous", "/achievements/EXP_BORN/status", "", gin.H{"status": "unlocked"}, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"bad body", "/achievements/EXP_BORN/status", "u1", gin.H{}, http.StatusBadRequest, ErrCodeBadRequest},
		{"persisted vocabulary rejected", "/achievements/EXP_BORN/status", "u1", gin.H{"status": "COMPLETED"}, http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown achievement", "/achievements/NO_SUCH/status", "u1", gin.H{"status": "unlocked"}, http.StatusNotFound, ErrCodeNotFound},
		{"restricted status", "/achievements/EXP_BORN/status", "u1", gin.H{"status": "in-progress"}, http.StatusConflict, ErrCodeStatusNotAllowed},
		{"success", "/achievements/EXP_BORN/status", "u1", gin.H{"status": "unlocked"}, http.StatusNoContent, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(t, http.MethodPut, tc.path, tc.user, tc.body)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.status, w.Body.String())
			}
			if tc.code != "" {
				var er ErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
					t.Fatalf("json: %v", err)
				}
				if er.Code != tc.code {
					t.Fatalf("code = %q, want %q", er.Code, tc.code)
				}
			}
		})
	}
}

func TestGetDashboard(t *testing.T) {
	e := newHandlerEnv(t)
	e.seedAchievement(t, domain.Achievement{Code: codePtr("A1"), Category: "INT", Title: "One", BasePoints: 10})
	e.seedAchievement(t, domain.Achievement{Code: codePtr("A2"), Category: "VIT", Title: "Two", BasePoints: 30})

	if w := e.do(t, http.MethodGet, "/dashboard", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous dashboard: %d, want 401", w.Code)
	}

	if w := e.do(t, http.MethodPut, "/achievements/A1/status", "u1", gin.H{"status": "unlocked"}); w.Code != http.StatusNoContent {
		t.Fatalf("unlock: %d", w.Code)
	}

	w := e.do(t, http.MethodGet, "/dashboard", "u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: %d", w.Code)
	}
	var d services.Dashboard
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("json: %v", err)
	}
	if d.UnlockedCount != 1 || d.TotalPoints != 10 || d.MaxPoints != 40 || d.AchievementRate != 50 {
		t.Fatalf("dashboard wrong: %+v", d)
	}
}

func TestGetRanking_EndToEnd(t *testing.T) {
	e := newHandlerEnv(t)
	e.seedAchievement(t, domain.Achievement{Code: codePtr("A1"), Category: "INT", Title: "One", BasePoints: 10})
	e.seedAchievement(t, domain.Achievement{Code: codePtr("A2"), Category: "VIT", Title: "Two", BasePoints: 20})

	// alice unlocks both and goes public; bob unlocks one, stays private.
	for _, id := range []string{"A1", "A2"} {
		if w := e.do(t, http.MethodPut, "/achievements/"+id+"/status", "alice", gin.H{"status": "unlocked"}); w.Code != http.StatusNoContent {
			t.Fatalf("alice unlock %s: %d", id, w.Code)
		}
	}
	if w := e.do(t, http.MethodPut, "/profile", "alice", gin.H{"display_name": "Alice", "is_public": true}); w.Code != http.StatusOK {
		t.Fatalf("alice profile: %d %s", w.Code, w.Body.String())
	}
	if w := e.do(t, http.MethodPut, "/achievements/A1/status", "bob", gin.H{"status": "unlocked"}); w.Code != http.StatusNoContent {
		t.Fatalf("bob unlock: %d", w.Code)
	}

	w := e.do(t, http.MethodGet, "/ranking", "bob", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ranking: %d", w.Code)
	}
	var r services.Ranking
	if err := json.Unmarshal(w.Body.Bytes(), &r); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(r.Entries) != 2 {
		t.Fatalf("entries = %d, want 2 (alice public + bob appended)", len(r.Entries))
	}
	if r.Entries[0].Name != "Alice" || r.Entries[0].TotalPoints != 30 || r.Entries[0].AchievementRate != 100 {
		t.Fatalf("leader wrong: %+v", r.Entries[0])
	}
	if r.OwnEntry == nil || r.OwnEntry.TotalPoints != 10 || r.OwnEntry.AchievementRate != 50 {
		t.Fatalf("own entry wrong: %+v", r.OwnEntry)
	}

	// Anonymous callers only see alice. Decode into a fresh value so the
	// omitted own_entry key cannot inherit bob's pointer from above.
	w = e.do(t, http.MethodGet, "/ranking", "", nil)
	r = services.Ranking{}
	if err := json.Unmarshal(w.Body.Bytes(), &r); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(r.Entries) != 1 || r.OwnEntry != nil {
		t.Fatalf("anonymous ranking wrong: %+v", r)
	}
}

func TestGetRanking_ETagChangesOnVisibilityToggle(t *testing.T) {
	e := newHandlerEnv(t)
	e.seedAchievement(t, domain.Achievement{Code: codePtr("A1"), Category: "INT", Title: "One", BasePoints: 10})

	w1 := e.do(t, http.MethodGet, "/ranking", "", nil)
	etag := w1.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	time.Sleep(5 * time.Millisecond)
	if w := e.do(t, http.MethodPut, "/profile", "carol", gin.H{"display_name": "Carol", "is_public": true}); w.Code != http.StatusOK {
		t.Fatalf("profile: %d", w.Code)
	}

	w2 := e.do(t, http.MethodGet, "/ranking", "", nil)
	if w2.Header().Get("ETag") == etag {
		t.Fatal("visibility change must rotate the ranking fingerprint")
	}
}

func TestGetRanking_LimitTrimsEntries(t *testing.T) {
	e := newHandlerEnv(t)
	e.seedAchievement(t, domain.Achievement{Code: codePtr("A1"), Category: "INT", Title: "One", BasePoints: 10})

	for _, u := range []string{"alice", "bob"} {
		if w := e.do(t, http.MethodPut, "/achievements/A1/status", u, gin.H{"status": "unlocked"}); w.Code != http.StatusNoContent {
			t.Fatalf("%s unlock: %d", u, w.Code)
		}
		if w := e.do(t, http.MethodPut, "/profile", u, gin.H{"display_name": u, "is_public": true}); w.Code != http.StatusOK {
			t.Fatalf("%s profile: %d", u, w.Code)
		}
	}

	w := e.do(t, http.MethodGet, "/ranking?limit=1", "bob", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ranking: %d", w.Code)
	}
	var r services.Ranking
	if err := json.Unmarshal(w.Body.Bytes(), &r); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(r.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(r.Entries))
	}
	// Bob keeps his standing even when trimmed out of the visible board.
	if r.OwnEntry == nil || r.OwnEntry.TotalPoints != 10 {
		t.Fatalf("own entry wrong: %+v", r.OwnEntry)
	}

	// A junk limit is ignored.
	w = e.do(t, http.MethodGet, "/ranking?limit=oops", "bob", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &r); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(r.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(r.Entries))
	}
}

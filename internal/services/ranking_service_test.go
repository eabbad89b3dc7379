package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-achievements-backend/internal/domain"
	"github.com/tbourn/go-achievements-backend/internal/repo"
)

func seedUnlock(t *testing.T, db *gorm.DB, userID string, achievementID uint, status domain.PersistedStatus) {
	t.Helper()
	var at *time.Time
	if status == domain.StatusCompleted {
		now := time.Now().UTC()
		at = &now
	}
	if err := repo.UpsertUnlock(context.Background(), db, userID, achievementID, status, at); err != nil {
		t.Fatalf("seed unlock: %v", err)
	}
}

func seedProfile(t *testing.T, db *gorm.DB, id, name string, public bool) {
	t.Helper()
	p := &domain.Profile{ID: id, IsPublic: public}
	if name != "" {
		p.DisplayName = &name
	}
	if err := repo.CreateProfile(context.Background(), db, p); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func TestRankingCompute_TwoUsers(t *testing.T) {
	db := newServiceDB(t)
	a1 := seedAchievement(t, db, domain.Achievement{Code: strp("A1"), Category: "INT", Title: "One", BasePoints: 10})
	a2 := seedAchievement(t, db, domain.Achievement{Code: strp("A2"), Category: "VIT", Title: "Two", BasePoints: 20})

	seedProfile(t, db, "alice", "Alice", true)
	seedProfile(t, db, "bob", "Bob", true)
	seedUnlock(t, db, "alice", a1.ID, domain.StatusCompleted)
	seedUnlock(t, db, "alice", a2.ID, domain.StatusCompleted)
	seedUnlock(t, db, "bob", a1.ID, domain.StatusCompleted)
	// In-progress rows never count toward the board.
	seedUnlock(t, db, "bob", a2.ID, domain.StatusChallenging)

	svc := &RankingService{DB: db}
	r, err := svc.Compute(context.Background(), "bob")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if r.TotalAchievements != 2 {
		t.Fatalf("total achievements = %d, want 2", r.TotalAchievements)
	}
	if len(r.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(r.Entries))
	}
	if r.Entries[0].UserID != "alice" || r.Entries[0].TotalPoints != 30 || r.Entries[0].AchievementRate != 100 {
		t.Fatalf("first entry wrong: %+v", r.Entries[0])
	}
	if r.Entries[1].UserID != "bob" || r.Entries[1].TotalPoints != 10 || r.Entries[1].AchievementRate != 50 {
		t.Fatalf("second entry wrong: %+v", r.Entries[1])
	}
	if !r.Entries[1].IsCurrentUser || r.Entries[0].IsCurrentUser {
		t.Fatal("IsCurrentUser flag misplaced")
	}
	if r.OwnEntry == nil || r.OwnEntry.UserID != "bob" || r.OwnEntry.TotalPoints != 10 {
		t.Fatalf("own entry wrong: %+v", r.OwnEntry)
	}
}

func TestRankingCompute_PrivateRequesterAppended(t *testing.T) {
	db := newServiceDB(t)
	a1 := seedAchievement(t, db, domain.Achievement{Code: strp("A1"), Category: "INT", Title: "One", BasePoints: 10})

	seedProfile(t, db, "alice", "Alice", true)
	seedProfile(t, db, "carol", "Carol", false)
	seedUnlock(t, db, "carol", a1.ID, domain.StatusCompleted)

	svc := &RankingService{DB: db}
	r, err := svc.Compute(context.Background(), "carol")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// Carol is private but still appears, exactly once, flagged as current.
	var carols int
	for _, e := range r.Entries {
		if e.UserID == "carol" {
			carols++
			if !e.IsCurrentUser {
				t.Fatal("appended own row must carry IsCurrentUser")
			}
			if e.Name != "Carol" {
				t.Fatalf("own row name = %q, want Carol", e.Name)
			}
		}
	}
	if carols != 1 {
		t.Fatalf("requester appeared %d times, want 1", carols)
	}

	// Carol leads the board: 10 points beats Alice's 0.
	if r.Entries[0].UserID != "carol" {
		t.Fatalf("leader = %s, want carol", r.Entries[0].UserID)
	}
}

func TestRankingCompute_AnonymousCaller(t *testing.T) {
	db := newServiceDB(t)
	seedProfile(t, db, "alice", "Alice", true)
	seedProfile(t, db, "carol", "Carol", false)

	svc := &RankingService{DB: db}
	r, err := svc.Compute(context.Background(), "")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if r.OwnEntry != nil {
		t.Fatal("anonymous caller must not get an own entry")
	}
	if len(r.Entries) != 1 || r.Entries[0].UserID != "alice" {
		t.Fatalf("only public profiles may appear, got %+v", r.Entries)
	}
}

func TestRankingCompute_NameAndAvatarFallbacks(t *testing.T) {
	db := newServiceDB(t)
	seedProfile(t, db, "ghost", "", true)

	svc := &RankingService{DB: db}
	r, err := svc.Compute(context.Background(), "")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if r.Entries[0].Name != "Anonymous Player" {
		t.Fatalf("name fallback = %q", r.Entries[0].Name)
	}
	if r.Entries[0].Avatar != "😊" {
		t.Fatalf("avatar fallback = %q", r.Entries[0].Avatar)
	}
}

func TestRankingCompute_RequesterWithoutProfile(t *testing.T) {
	db := newServiceDB(t)

	svc := &RankingService{DB: db}
	r, err := svc.Compute(context.Background(), "newcomer")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if r.OwnEntry == nil || r.OwnEntry.Name != "You" {
		t.Fatalf("profile-less requester fallback wrong: %+v", r.OwnEntry)
	}
	if r.OwnEntry.AchievementRate != 0 {
		t.Fatalf("rate with empty catalog must be 0, got %d", r.OwnEntry.AchievementRate)
	}
}

func TestRankingCompute_TieBreakOrder(t *testing.T) {
	db := newServiceDB(t)
	a1 := seedAchievement(t, db, domain.Achievement{Code: strp("A1"), Category: "INT", Title: "One", BasePoints: 10})
	a2 := seedAchievement(t, db, domain.Achievement{Code: strp("A2"), Category: "INT", Title: "Two", BasePoints: 10})
	a3 := seedAchievement(t, db, domain.Achievement{Code: strp("A3"), Category: "INT", Title: "Three", BasePoints: 20})

	seedProfile(t, db, "b-user", "B", true)
	seedProfile(t, db, "a-user", "A", true)
	seedProfile(t, db, "c-user", "C", true)

	// a-user and b-user both hold 20 points, a-user with more unlocks.
	seedUnlock(t, db, "a-user", a1.ID, domain.StatusCompleted)
	seedUnlock(t, db, "a-user", a2.ID, domain.StatusCompleted)
	seedUnlock(t, db, "b-user", a3.ID, domain.StatusCompleted)
	// c-user ties b-user exactly; the user id decides.
	seedUnlock(t, db, "c-user", a3.ID, domain.StatusCompleted)

	svc := &RankingService{DB: db}
	r, err := svc.Compute(context.Background(), "")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	got := []string{r.Entries[0].UserID, r.Entries[1].UserID, r.Entries[2].UserID}
	want := []string{"a-user", "b-user", "c-user"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestAchievementRate_Boundaries(t *testing.T) {
	cases := []struct {
		unlocked int
		total    int64
		want     int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 10, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
	}
	for _, c := range cases {
		if got := achievementRate(c.unlocked, c.total); got != c.want {
			t.Errorf("achievementRate(%d, %d) = %d, want %d", c.unlocked, c.total, got, c.want)
		}
	}
}

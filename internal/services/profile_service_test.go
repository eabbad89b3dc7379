package services

import (
	"context"
	"testing"

	"github.com/tbourn/go-achievements-backend/internal/auth"
	"github.com/tbourn/go-achievements-backend/internal/domain"
	"github.com/tbourn/go-achievements-backend/internal/repo"
)

func TestProfileGet_Unauthenticated(t *testing.T) {
	svc := &ProfileService{DB: newServiceDB(t)}
	if _, err := svc.Get(context.Background(), auth.Identity{}); err != ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestProfileGet_LazyCreate(t *testing.T) {
	db := newServiceDB(t)
	svc := &ProfileService{DB: db}
	actor := auth.Identity{ID: "u1", Email: "jane.doe@example.com", AvatarURL: "https://cdn.example.com/jane.png"}

	p, err := svc.Get(context.Background(), actor)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.ID != "u1" || p.IsPublic {
		t.Fatalf("lazy profile wrong: %+v", p)
	}
	if p.DisplayName == nil || *p.DisplayName != "Jane Doe" {
		t.Fatalf("display name = %v, want Jane Doe", p.DisplayName)
	}
	if p.AvatarURL == nil || *p.AvatarURL != actor.AvatarURL {
		t.Fatalf("avatar = %v", p.AvatarURL)
	}

	// Stored, not just synthesized.
	if _, err := repo.GetProfile(context.Background(), db, "u1"); err != nil {
		t.Fatalf("profile not persisted: %v", err)
	}
}

func TestProfileGet_ExistingWins(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()
	if err := repo.CreateProfile(ctx, db, &domain.Profile{ID: "u1", DisplayName: strp("Kept"), IsPublic: true}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := &ProfileService{DB: db}
	p, err := svc.Get(ctx, auth.Identity{ID: "u1", Name: "Ignored"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.DisplayName == nil || *p.DisplayName != "Kept" || !p.IsPublic {
		t.Fatalf("existing profile overwritten: %+v", p)
	}
}

func TestProfileUpdate_CreatesThenApplies(t *testing.T) {
	db := newServiceDB(t)
	svc := &ProfileService{DB: db}
	ctx := context.Background()

	p, err := svc.Update(ctx, auth.Identity{ID: "u1", Name: "Jane"}, ProfileUpdate{
		DisplayName: strp("Achiever"),
		IsPublic:    true,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.DisplayName == nil || *p.DisplayName != "Achiever" {
		t.Fatalf("display name = %v", p.DisplayName)
	}
	if !p.IsPublic {
		t.Fatal("visibility not applied")
	}
}

func TestProfileUpdate_TogglesVisibilityOff(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()
	if err := repo.CreateProfile(ctx, db, &domain.Profile{ID: "u1", DisplayName: strp("Jane"), IsPublic: true}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := &ProfileService{DB: db}
	p, err := svc.Update(ctx, auth.Identity{ID: "u1"}, ProfileUpdate{IsPublic: false})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.IsPublic {
		t.Fatal("visibility not withdrawn")
	}
	if p.DisplayName == nil || *p.DisplayName != "Jane" {
		t.Fatalf("nil display name must leave the stored one alone, got %v", p.DisplayName)
	}
}

package fields

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&User{}, &AuthAccount{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"User@Example.COM", "user@example.com"},
		{"  padded@example.com ", "padded@example.com"},
		{"already@example.com", "already@example.com"},
	}
	for _, tt := range tests {
		if got := NormalizeEmail(tt.in); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUserEmailUnique(t *testing.T) {
	db := newTestDB(t)
	first := User{Email: "dup@example.com", Fullname: "First"}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("create first user: %v", err)
	}
	second := User{Email: "dup@example.com", Fullname: "Second"}
	err := db.Create(&second).Error
	if err == nil {
		t.Fatal("expected unique constraint violation, got nil")
	}
	if !IsDuplicateErr(err) {
		t.Errorf("IsDuplicateErr(%v) = false, want true", err)
	}
}

func TestAuthAccountSubjectUnique(t *testing.T) {
	db := newTestDB(t)
	user := User{Email: "subject@example.com"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	account := AuthAccount{UserID: user.ID, Provider: "twitter", ProviderUserID: "12345"}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}
	clash := AuthAccount{UserID: user.ID, Provider: "twitter", ProviderUserID: "12345"}
	if err := db.Create(&clash).Error; !IsDuplicateErr(err) {
		t.Errorf("expected duplicate error for same (provider, provider_user_id), got %v", err)
	}

	// Same subject under another provider is a different identity.
	other := AuthAccount{UserID: user.ID, Provider: "google", ProviderUserID: "12345"}
	if err := db.Create(&other).Error; err != nil {
		t.Errorf("distinct provider should not clash: %v", err)
	}
}

func TestGetUserByEmailNormalizes(t *testing.T) {
	db := newTestDB(t)
	seeded := User{Email: "case@example.com", Fullname: "Case"}
	if err := db.Create(&seeded).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	got, err := GetUserByEmail("Case@Example.Com", db)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ID != seeded.ID {
		t.Errorf("got user %d, want %d", got.ID, seeded.ID)
	}
}

func TestPublicSubset(t *testing.T) {
	u := User{Email: "pub@example.com", Fullname: "Pub User", AvatarURL: "https://img.example/p.png"}
	u.ID = 7
	p := u.Public()
	if p.ID != 7 || p.Email != u.Email || p.Fullname != u.Fullname || p.AvatarURL != u.AvatarURL {
		t.Errorf("Public() dropped fields: %+v", p)
	}
}

package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/db/models"
)

const (
	staffGroupDN     = "CN=DjangoStaff,CN=Users,DC=rule4,DC=local"
	superuserGroupDN = "CN=DjangoAdmins,CN=Users,DC=rule4,DC=local"
)

// fakeDirectory is a scripted DirectoryClient for resolver tests.
type fakeDirectory struct {
	identity *DirectoryIdentity
	err      error
	calls    int32
}

func (f *fakeDirectory) Authenticate(_ context.Context, _, _ string) (*DirectoryIdentity, error) {
	atomic.AddInt32(&f.calls, 1)

	if f.err != nil {
		return nil, f.err
	}

	return f.identity, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.UserGroup{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func defaultFlags() FlagMap {
	return FlagMap{
		StaffGroupDN:     staffGroupDN,
		SuperuserGroupDN: superuserGroupDN,
	}
}

func aliceIdentity() *DirectoryIdentity {
	return &DirectoryIdentity{
		DN:        "CN=Alice Doe,CN=Users,DC=rule4,DC=local",
		Username:  "alice",
		Email:     "alice@rule4.local",
		FirstName: "Alice",
		LastName:  "Doe",
		Groups:    []string{staffGroupDN, superuserGroupDN},
	}
}

func TestAuthenticateRejectsEmptyInput(t *testing.T) {
	db := newTestDB(t)
	dir := &fakeDirectory{identity: aliceIdentity()}
	r := NewResolver(db, dir, NewLocalProvider(db), defaultFlags())

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "secret"},
		{"empty password", "alice", ""},
		{"both empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Authenticate(context.Background(), tc.username, tc.password)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	if n := atomic.LoadInt32(&dir.calls); n != 0 {
		t.Fatalf("directory must not be contacted for empty input, got %d calls", n)
	}
}

func TestAuthenticateCreatesDirectoryUser(t *testing.T) {
	db := newTestDB(t)
	dir := &fakeDirectory{identity: aliceIdentity()}
	r := NewResolver(db, dir, NewLocalProvider(db), defaultFlags())

	user, err := r.Authenticate(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.Username != "alice" {
		t.Errorf("username = %q, want alice", user.Username)
	}

	if user.Email != "alice@rule4.local" {
		t.Errorf("email = %q, want alice@rule4.local", user.Email)
	}

	if user.FirstName != "Alice" || user.LastName != "Doe" {
		t.Errorf("name = %q %q, want Alice Doe", user.FirstName, user.LastName)
	}

	if !user.IsStaff || !user.IsSuperuser {
		t.Errorf("flags = staff:%v superuser:%v, want both true", user.IsStaff, user.IsSuperuser)
	}

	if user.AuthSource != models.AuthSourceLDAP {
		t.Errorf("auth source = %q, want ldap", user.AuthSource)
	}

	if user.HasLocalPassword() {
		t.Error("directory-created user must not have a local password hash")
	}

	if user.LastSyncedAt == nil {
		t.Error("last synced timestamp not set")
	}

	var groupCount int64
	db.Model(&models.UserGroup{}).Where("user_id = ?", user.ID).Count(&groupCount)

	if groupCount != 2 {
		t.Errorf("synced group memberships = %d, want 2", groupCount)
	}
}

func TestAuthenticateRefreshesExistingUser(t *testing.T) {
	db := newTestDB(t)
	local := NewLocalProvider(db)

	seeded, err := local.CreateUser("alice", "old@rule4.local", "localpw", "Al", "D", false, false)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	dir := &fakeDirectory{identity: aliceIdentity()}
	r := NewResolver(db, dir, local, defaultFlags())

	user, err := r.Authenticate(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.ID != seeded.ID {
		t.Fatalf("directory login created a second record: %d != %d", user.ID, seeded.ID)
	}

	if user.Email != "alice@rule4.local" {
		t.Errorf("email not refreshed from directory: %q", user.Email)
	}

	if !user.IsStaff || !user.IsSuperuser {
		t.Errorf("flags not derived: staff:%v superuser:%v", user.IsStaff, user.IsSuperuser)
	}

	// The stored hash survives so local fallback keeps working.
	var stored models.User
	if err := db.First(&stored, seeded.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}

	if !stored.VerifyPassword("localpw") {
		t.Error("stored password hash was clobbered by directory sync")
	}
}

func TestAuthenticateRevokesStaleFlags(t *testing.T) {
	db := newTestDB(t)
	dir := &fakeDirectory{identity: aliceIdentity()}
	r := NewResolver(db, dir, NewLocalProvider(db), defaultFlags())

	if _, err := r.Authenticate(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("first login failed: %v", err)
	}

	// Alice gets removed from the admins group between logins.
	dir.identity = aliceIdentity()
	dir.identity.Groups = []string{staffGroupDN}

	user, err := r.Authenticate(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}

	if user.IsSuperuser {
		t.Error("superuser flag not revoked after group removal")
	}

	if !user.IsStaff {
		t.Error("staff flag lost although membership remains")
	}

	var groupCount int64
	db.Model(&models.UserGroup{}).Where("user_id = ?", user.ID).Count(&groupCount)

	if groupCount != 1 {
		t.Errorf("group memberships = %d, want 1 after sync", groupCount)
	}
}

func TestAuthenticateFlagsCompareCaseInsensitive(t *testing.T) {
	db := newTestDB(t)

	identity := aliceIdentity()
	identity.Groups = []string{"cn=djangoadmins,cn=users,dc=rule4,dc=local"}

	dir := &fakeDirectory{identity: identity}
	r := NewResolver(db, dir, NewLocalProvider(db), defaultFlags())

	user, err := r.Authenticate(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !user.IsSuperuser {
		t.Error("DN comparison must be case-insensitive")
	}
}

func TestAuthenticateUnmappedFlagKeepsStoredValue(t *testing.T) {
	db := newTestDB(t)
	local := NewLocalProvider(db)

	if _, err := local.CreateUser("alice", "alice@rule4.local", "localpw", "Alice", "Doe", false, true); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	identity := aliceIdentity()
	identity.Groups = nil

	dir := &fakeDirectory{identity: identity}
	r := NewResolver(db, dir, local, FlagMap{StaffGroupDN: staffGroupDN})

	user, err := r.Authenticate(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !user.IsSuperuser {
		t.Error("superuser flag changed although no group DN is mapped to it")
	}

	if user.IsStaff {
		t.Error("staff flag not derived from (empty) membership")
	}
}

func TestAuthenticateFallsBackWhenDirectoryUnavailable(t *testing.T) {
	db := newTestDB(t)
	local := NewLocalProvider(db)

	if _, err := local.CreateUser("bob", "bob@rule4.local", "bobpw", "Bob", "B", false, false); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	dir := &fakeDirectory{err: ErrDirectoryUnavailable}
	r := NewResolver(db, dir, local, defaultFlags())

	user, err := r.Authenticate(context.Background(), "bob", "bobpw")
	if err != nil {
		t.Fatalf("fallback login failed: %v", err)
	}

	if user.Username != "bob" {
		t.Errorf("username = %q, want bob", user.Username)
	}

	// Wrong password still fails on the fallback path.
	if _, err := r.Authenticate(context.Background(), "bob", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateFallsBackWhenUserUnknownToDirectory(t *testing.T) {
	db := newTestDB(t)
	local := NewLocalProvider(db)

	if _, err := local.CreateUser("svc-backup", "backup@rule4.local", "backuppw", "", "", false, true); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	dir := &fakeDirectory{err: ErrUserNotFound}
	r := NewResolver(db, dir, local, defaultFlags())

	user, err := r.Authenticate(context.Background(), "svc-backup", "backuppw")
	if err != nil {
		t.Fatalf("fallback login failed: %v", err)
	}

	if !user.IsSuperuser {
		t.Error("local flags must be preserved on fallback logins")
	}
}

func TestAuthenticateNoFallbackOnRejectedPassword(t *testing.T) {
	db := newTestDB(t)
	local := NewLocalProvider(db)

	// The local password would match, but the directory's rejection is final.
	if _, err := local.CreateUser("alice", "alice@rule4.local", "secret", "Alice", "Doe", false, false); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	dir := &fakeDirectory{err: ErrInvalidCredentials}
	r := NewResolver(db, dir, local, defaultFlags())

	if _, err := r.Authenticate(context.Background(), "alice", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateNoFallbackOnAmbiguousMatch(t *testing.T) {
	db := newTestDB(t)
	local := NewLocalProvider(db)

	if _, err := local.CreateUser("alice", "alice@rule4.local", "secret", "Alice", "Doe", false, false); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	dir := &fakeDirectory{err: ErrMultipleUsersFound}
	r := NewResolver(db, dir, local, defaultFlags())

	if _, err := r.Authenticate(context.Background(), "alice", "secret"); !errors.Is(err, ErrMultipleUsersFound) {
		t.Fatalf("expected ErrMultipleUsersFound, got %v", err)
	}
}

func TestAuthenticateUnavailableWithoutLocalFallback(t *testing.T) {
	db := newTestDB(t)
	dir := &fakeDirectory{err: ErrDirectoryUnavailable}
	r := NewResolver(db, dir, nil, defaultFlags())

	if _, err := r.Authenticate(context.Background(), "alice", "secret"); !errors.Is(err, ErrDirectoryUnavailable) {
		t.Fatalf("expected ErrDirectoryUnavailable, got %v", err)
	}
}

func TestAuthenticateUnknownUserWithoutLocalFallback(t *testing.T) {
	db := newTestDB(t)
	dir := &fakeDirectory{err: ErrUserNotFound}
	r := NewResolver(db, dir, nil, defaultFlags())

	// Account existence is not revealed through the error class.
	if _, err := r.Authenticate(context.Background(), "nobody", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateDisabledAccountRejected(t *testing.T) {
	db := newTestDB(t)
	local := NewLocalProvider(db)

	seeded, err := local.CreateUser("alice", "alice@rule4.local", "secret", "Alice", "Doe", false, false)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	if err := local.DeactivateUser(seeded.ID); err != nil {
		t.Fatalf("failed to deactivate user: %v", err)
	}

	dir := &fakeDirectory{identity: aliceIdentity()}
	r := NewResolver(db, dir, local, defaultFlags())

	if _, err := r.Authenticate(context.Background(), "alice", "secret"); !errors.Is(err, ErrUserAccountDisabled) {
		t.Fatalf("expected ErrUserAccountDisabled, got %v", err)
	}
}

func TestAuthenticateConcurrentFirstLogins(t *testing.T) {
	db := newTestDB(t)
	dir := &fakeDirectory{identity: aliceIdentity()}
	r := NewResolver(db, dir, NewLocalProvider(db), defaultFlags())

	const workers = 8

	var wg sync.WaitGroup

	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if _, err := r.Authenticate(context.Background(), "alice", "secret"); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent login failed: %v", err)
	}

	var count int64
	db.Model(&models.User{}).Where("username = ?", "alice").Count(&count)

	if count != 1 {
		t.Fatalf("concurrent first logins created %d records, want 1", count)
	}
}

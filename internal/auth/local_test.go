package auth

import (
	"errors"
	"testing"
)

func TestLocalAuthenticate(t *testing.T) {
	db := newTestDB(t)
	local := NewLocalProvider(db)

	created, err := local.CreateUser("carol", "carol@rule4.local", "carolpw", "Carol", "C", true, false)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	user, err := local.Authenticate("carol", "carolpw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.ID != created.ID {
		t.Errorf("authenticated wrong user: %d != %d", user.ID, created.ID)
	}

	if _, err := local.Authenticate("carol", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := local.Authenticate("nobody", "carolpw"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLocalAuthenticateDirectoryOnlyAccount(t *testing.T) {
	db := newTestDB(t)
	local := NewLocalProvider(db)

	if _, err := local.CreateUser("dave", "dave@rule4.local", "", "Dave", "D", false, false); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	// An empty stored hash never verifies, whatever the input.
	for _, pw := range []string{"", "anything"} {
		if _, err := local.Authenticate("dave", pw); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("password %q: expected ErrInvalidCredentials, got %v", pw, err)
		}
	}
}

func TestLocalAuthenticateDisabledAccount(t *testing.T) {
	db := newTestDB(t)
	local := NewLocalProvider(db)

	user, err := local.CreateUser("erin", "erin@rule4.local", "erinpw", "Erin", "E", false, false)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	if err := local.DeactivateUser(user.ID); err != nil {
		t.Fatalf("failed to deactivate user: %v", err)
	}

	if _, err := local.Authenticate("erin", "erinpw"); !errors.Is(err, ErrUserAccountDisabled) {
		t.Fatalf("expected ErrUserAccountDisabled, got %v", err)
	}

	if err := local.ActivateUser(user.ID); err != nil {
		t.Fatalf("failed to activate user: %v", err)
	}

	if _, err := local.Authenticate("erin", "erinpw"); err != nil {
		t.Fatalf("reactivated account must authenticate: %v", err)
	}
}

func TestLocalCreateUserDuplicate(t *testing.T) {
	db := newTestDB(t)
	local := NewLocalProvider(db)

	if _, err := local.CreateUser("frank", "frank@rule4.local", "pw", "", "", false, false); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	if _, err := local.CreateUser("frank", "other@rule4.local", "pw", "", "", false, false); !errors.Is(err, ErrUserNameOrEmailExists) {
		t.Fatalf("expected ErrUserNameOrEmailExists for duplicate username, got %v", err)
	}

	if _, err := local.CreateUser("other", "frank@rule4.local", "pw", "", "", false, false); !errors.Is(err, ErrUserNameOrEmailExists) {
		t.Fatalf("expected ErrUserNameOrEmailExists for duplicate email, got %v", err)
	}
}

func TestLocalChangePassword(t *testing.T) {
	db := newTestDB(t)
	local := NewLocalProvider(db)

	user, err := local.CreateUser("grace", "grace@rule4.local", "oldpw", "", "", false, false)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	if err := local.ChangePassword(user.ID, "wrong", "newpw"); !errors.Is(err, ErrInvalidOldPassword) {
		t.Fatalf("expected ErrInvalidOldPassword, got %v", err)
	}

	if err := local.ChangePassword(user.ID, "oldpw", "newpw"); err != nil {
		t.Fatalf("failed to change password: %v", err)
	}

	if _, err := local.Authenticate("grace", "newpw"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}

	if _, err := local.Authenticate("grace", "oldpw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
}

func TestLocalResetPasswordEnablesFallback(t *testing.T) {
	db := newTestDB(t)
	local := NewLocalProvider(db)

	user, err := local.CreateUser("heidi", "heidi@rule4.local", "", "", "", false, false)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	if err := local.ResetPassword(user.ID, "resetpw"); err != nil {
		t.Fatalf("failed to reset password: %v", err)
	}

	if _, err := local.Authenticate("heidi", "resetpw"); err != nil {
		t.Fatalf("reset password rejected: %v", err)
	}
}

func TestLocalListUsers(t *testing.T) {
	db := newTestDB(t)
	local := NewLocalProvider(db)

	for _, name := range []string{"u1", "u2", "u3"} {
		if _, err := local.CreateUser(name, name+"@rule4.local", "pw", "", "", false, false); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	users, total, err := local.ListUsers("", nil, 2, 0)
	if err != nil {
		t.Fatalf("failed to list users: %v", err)
	}

	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}

	if len(users) != 2 {
		t.Errorf("page length = %d, want 2", len(users))
	}
}

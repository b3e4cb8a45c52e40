package auth

import (
	"testing"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/db/models"
)

func TestSyncUserGroups(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	local := NewLocalProvider(db)

	user, err := local.CreateUser("ivan", "ivan@rule4.local", "pw", "", "", false, false)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	first := []string{staffGroupDN, superuserGroupDN}
	if err := svc.SyncUserGroups(user.ID, first, models.GroupSourceLDAP); err != nil {
		t.Fatalf("first sync failed: %v", err)
	}

	groups, err := svc.GetUserGroups(user.ID)
	if err != nil {
		t.Fatalf("failed to get groups: %v", err)
	}

	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}

	// Second sync drops one membership and must remove the stale row.
	if err := svc.SyncUserGroups(user.ID, []string{staffGroupDN}, models.GroupSourceLDAP); err != nil {
		t.Fatalf("second sync failed: %v", err)
	}

	groups, err = svc.GetUserGroups(user.ID)
	if err != nil {
		t.Fatalf("failed to get groups: %v", err)
	}

	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1 after resync", len(groups))
	}

	if groups[0].ExternalID != staffGroupDN {
		t.Errorf("remaining group = %q, want %q", groups[0].ExternalID, staffGroupDN)
	}

	// Group rows are reused, not duplicated, across syncs.
	var groupRows int64
	db.Model(&models.Group{}).Count(&groupRows)

	if groupRows != 2 {
		t.Errorf("group rows = %d, want 2", groupRows)
	}
}

func TestSyncUserGroupsLeavesOtherSourcesAlone(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	local := NewLocalProvider(db)

	user, err := local.CreateUser("judy", "judy@rule4.local", "pw", "", "", false, false)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	if err := svc.SyncUserGroups(user.ID, []string{"portal-users"}, models.GroupSourceOIDC); err != nil {
		t.Fatalf("oidc sync failed: %v", err)
	}

	if err := svc.SyncUserGroups(user.ID, []string{staffGroupDN}, models.GroupSourceLDAP); err != nil {
		t.Fatalf("ldap sync failed: %v", err)
	}

	// Emptying the LDAP memberships must not touch the OIDC one.
	if err := svc.SyncUserGroups(user.ID, nil, models.GroupSourceLDAP); err != nil {
		t.Fatalf("empty ldap sync failed: %v", err)
	}

	groups, err := svc.GetUserGroups(user.ID)
	if err != nil {
		t.Fatalf("failed to get groups: %v", err)
	}

	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}

	if groups[0].Source != models.GroupSourceOIDC {
		t.Errorf("remaining group source = %q, want oidc", groups[0].Source)
	}
}

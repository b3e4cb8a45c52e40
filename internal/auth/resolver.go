package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/db/models"
)

// FlagMap maps directory group DNs to the access flags on the user record.
// An empty DN leaves the corresponding stored flag untouched, so flags can
// be managed manually when no group mapping is configured.
type FlagMap struct {
	// StaffGroupDN grants IsStaff to members of this group.
	StaffGroupDN string
	// SuperuserGroupDN grants IsSuperuser to members of this group.
	SuperuserGroupDN string
}

// Resolver authenticates credentials against the directory first and falls
// back to the local database when the directory is unreachable or does not
// know the user. Either provider may be nil when disabled, but not both.
type Resolver struct {
	db        *gorm.DB
	directory DirectoryClient
	local     *LocalProvider
	svc       *Service
	flags     FlagMap

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewResolver creates a new authentication resolver.
func NewResolver(db *gorm.DB, directory DirectoryClient, local *LocalProvider, flags FlagMap) *Resolver {
	return &Resolver{
		db:        db,
		directory: directory,
		local:     local,
		svc:       NewService(db),
		flags:     flags,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Authenticate resolves the given credentials to a local user record.
//
// The directory is consulted first. On success the local record is created
// or refreshed from the directory entry. When the directory is unreachable
// or the user is unknown to it, the local database is tried instead. A
// password rejected by the directory or an ambiguous directory match fails
// immediately without a local attempt.
func (r *Resolver) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	if r.directory == nil {
		if r.local == nil {
			// Form login disabled entirely, e.g. an OIDC-only setup.
			return nil, ErrInvalidCredentials
		}

		return r.authenticateLocal(username, password)
	}

	identity, err := r.directory.Authenticate(ctx, username, password)
	if err == nil {
		return r.syncDirectoryUser(identity)
	}

	switch {
	case errors.Is(err, ErrUserNotFound):
		if r.local == nil {
			return nil, ErrInvalidCredentials
		}

		return r.authenticateLocal(username, password)
	case errors.Is(err, ErrDirectoryUnavailable):
		if r.local == nil {
			return nil, err
		}

		log.Warn().Err(err).Str("username", username).
			Msg("directory unavailable, falling back to local authentication")

		return r.authenticateLocal(username, password)
	default:
		// Rejected password, ambiguous match or invalid input: never
		// retried against the local store.
		return nil, err
	}
}

// authenticateLocal authenticates against the local database. An unknown
// username is reported as a credential failure so callers cannot probe for
// account existence.
func (r *Resolver) authenticateLocal(username, password string) (*models.User, error) {
	user, err := r.local.Authenticate(username, password)

	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}

	if err != nil {
		return nil, err
	}

	return user, nil
}

// syncDirectoryUser creates or refreshes the local record for a directory
// identity. The whole update runs in one transaction under a per-username
// lock so concurrent first logins produce exactly one record.
func (r *Resolver) syncDirectoryUser(identity *DirectoryIdentity) (*models.User, error) {
	lock := r.lockFor(identity.Username)
	lock.Lock()
	defer lock.Unlock()

	var user models.User

	err := r.db.Transaction(func(tx *gorm.DB) error {
		errFind := tx.Where("username = ?", identity.Username).First(&user).Error

		now := time.Now()

		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			user = models.User{
				Active:     true,
				Username:   identity.Username,
				Email:      identity.Email,
				FirstName:  identity.FirstName,
				LastName:   identity.LastName,
				AuthSource: models.AuthSourceLDAP,
				ExternalID: identity.DN,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			r.applyFlags(&user, identity.Groups)
			user.LastSyncedAt = &now

			if errCreate := tx.Create(&user).Error; errCreate != nil {
				return fmt.Errorf("failed to create user: %w", errCreate)
			}

			return nil
		}

		if errFind != nil {
			return fmt.Errorf("failed to query user: %w", errFind)
		}

		if !user.Active {
			return ErrUserAccountDisabled
		}

		// The stored password hash is left alone so local fallback
		// keeps working for accounts that have one.
		user.Email = identity.Email
		user.FirstName = identity.FirstName
		user.LastName = identity.LastName
		user.AuthSource = models.AuthSourceLDAP
		user.ExternalID = identity.DN
		r.applyFlags(&user, identity.Groups)
		user.LastSyncedAt = &now
		user.UpdatedAt = now

		if errSave := tx.Save(&user).Error; errSave != nil {
			return fmt.Errorf("failed to update user: %w", errSave)
		}

		return nil
	})

	if errors.Is(err, ErrUserAccountDisabled) {
		return nil, err
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if errSync := r.svc.SyncUserGroups(user.ID, identity.Groups, models.GroupSourceLDAP); errSync != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, errSync)
	}

	return &user, nil
}

// applyFlags re-derives the access flags from the current group memberships.
// Flags without a configured group DN keep their stored value.
func (r *Resolver) applyFlags(user *models.User, groups []string) {
	if r.flags.StaffGroupDN != "" {
		user.IsStaff = containsGroupDN(groups, r.flags.StaffGroupDN)
	}

	if r.flags.SuperuserGroupDN != "" {
		user.IsSuperuser = containsGroupDN(groups, r.flags.SuperuserGroupDN)
	}
}

// containsGroupDN reports whether the DN list contains the given DN.
// Distinguished names compare case-insensitively.
func containsGroupDN(groups []string, dn string) bool {
	for _, g := range groups {
		if strings.EqualFold(g, dn) {
			return true
		}
	}

	return false
}

// lockFor returns the mutex guarding upserts for a username. Directory
// usernames are matched case-insensitively, so the key is lowercased.
func (r *Resolver) lockFor(username string) *sync.Mutex {
	key := strings.ToLower(username)

	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[key] = lock
	}

	return lock
}

// Package group provides admin handlers for viewing and pruning groups.
//
// Directory and OIDC groups are created by login-time synchronization, so
// this area is mostly read-only: the list shows where each group came from
// and who is in it. Deleting a group only removes the local copy and its
// memberships; it reappears on the next login of any member.
package group

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/auth"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/config"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/db/models"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/handler"
	"github.com/GoLDAP-Portal/GoLDAP-Portal/internal/web/navigation"
)

const (
	// Path is the base path for group management.
	Path = handler.RootPath + "admin/group"

	// TemplateList is the template for listing groups.
	TemplateList = "admin/group/list"
)

// Row is a group with its member count for template rendering. Grants names
// the access flag configured for this group, if any.
type Row struct {
	models.Group
	MemberCount int64
	Grants      string
}

// Service provides group administration.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes. Staff can view, deleting needs superuser.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg

	app.Get(Path,
		auth.RequireStaff(authService),
		s.List,
	)
	app.Post(Path+"/:id/delete",
		auth.RequireSuperuser(authService),
		s.Delete,
	)
}

func listNav() *navigation.Context {
	return navigation.NewContext("Groups", "admin", "group").
		AddBreadcrumb("Home", handler.RootPath, false).
		AddBreadcrumb("Admin", "#", false).
		AddBreadcrumb("Groups", Path, true)
}

// List shows all groups with their source and member count.
func (s *Service) List(c *fiber.Ctx) error {
	var rows []Row

	err := s.db.Table("groups").
		Select("groups.*, COUNT(user_groups.user_id) AS member_count").
		Joins("LEFT JOIN user_groups ON user_groups.group_id = groups.id").
		Group("groups.id").
		Order("groups.source, groups.name").
		Find(&rows).Error
	if err != nil {
		log.Error().Err(err).Msg("query groups failed")

		return c.Status(fiber.StatusInternalServerError).Render(TemplateList, fiber.Map{
			"Navigation": listNav(),
			"Error":      "Failed to load groups",
		}, handler.BaseLayout)
	}

	for i := range rows {
		rows[i].Grants = s.grantedFlag(&rows[i].Group)
	}

	canDelete := false
	if user, ok := c.Locals("CurrentUser").(models.User); ok {
		canDelete = user.IsSuperuser
	}

	return c.Render(TemplateList, fiber.Map{
		"Navigation": listNav(),
		"Groups":     rows,
		"CanDelete":  canDelete,
	}, handler.BaseLayout)
}

// Delete removes a group and its memberships.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return c.Redirect(Path)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if errFind := tx.First(&group, id).Error; errFind != nil {
			return errFind
		}

		if errMembers := tx.Where("group_id = ?", id).Delete(&models.UserGroup{}).Error; errMembers != nil {
			return errMembers
		}

		return tx.Delete(&models.Group{}, id).Error
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Redirect(Path)
	}

	if err != nil {
		log.Error().Err(err).Int("group_id", id).Msg("delete group failed")

		return c.Status(fiber.StatusBadRequest).Render(TemplateList, fiber.Map{
			"Navigation": listNav(),
			"Error":      "Failed to delete group: " + err.Error(),
		}, handler.BaseLayout)
	}

	return c.Redirect(Path)
}

// grantedFlag names the access flag a group membership grants per the
// configured group-to-flag mapping.
func (s *Service) grantedFlag(group *models.Group) string {
	switch group.Source {
	case models.GroupSourceLDAP:
		if dnEqual(group.ExternalID, s.cfg.Auth.LDAP.SuperuserGroupDN) {
			return "superuser"
		}

		if dnEqual(group.ExternalID, s.cfg.Auth.LDAP.StaffGroupDN) {
			return "staff"
		}
	case models.GroupSourceOIDC:
		if dnEqual(group.ExternalID, s.cfg.Auth.OIDC.SuperuserGroup) {
			return "superuser"
		}

		if dnEqual(group.ExternalID, s.cfg.Auth.OIDC.StaffGroup) {
			return "staff"
		}
	case models.GroupSourceLocal:
	}

	return ""
}

// dnEqual compares distinguished names case-insensitively, ignoring empty
// configured values.
func dnEqual(a, b string) bool {
	return b != "" && strings.EqualFold(a, b)
}

// Package authorization maps membership roles to the actions they may perform.
package authorization

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	memberdomain "github.com/smallbiznis/orgkeeper/internal/membership/domain"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
	"go.uber.org/fx"
)

//go:embed model.conf
var modelText string

var Module = fx.Module("authorization",
	fx.Provide(NewEnforcer),
	fx.Provide(NewAuthorizer),
)

const (
	ObjectOrganization = "organization"
	ObjectMember       = "member"
	ObjectInvite       = "invite"
	ObjectSettings     = "settings"
	ObjectSSO          = "sso"
)

type Action string

const (
	ActionRead               Action = "read"
	ActionUpdateOrganization Action = "update_organization"
	ActionDeleteOrganization Action = "delete_organization"
	ActionManageMembers      Action = "manage_members"
	ActionManageInvites      Action = "manage_invites"
	ActionManageSettings     Action = "manage_settings"
	ActionManageSSO          Action = "manage_sso"
	ActionLeave              Action = "leave"
)

var (
	ErrPermissionDenied = errs.PermissionDenied("permission_denied")
	ErrUnknownAction    = errs.InvalidArgument("unknown_action")
)

// objects groups every action under the resource it acts on.
var objects = map[Action]string{
	ActionRead:               ObjectOrganization,
	ActionUpdateOrganization: ObjectOrganization,
	ActionDeleteOrganization: ObjectOrganization,
	ActionManageMembers:      ObjectMember,
	ActionManageInvites:      ObjectInvite,
	ActionManageSettings:     ObjectSettings,
	ActionManageSSO:          ObjectSSO,
	ActionLeave:              ObjectMember,
}

func NewEnforcer() (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

type Authorizer struct {
	enforcer *casbin.SyncedEnforcer
}

func NewAuthorizer(enforcer *casbin.SyncedEnforcer) *Authorizer {
	return &Authorizer{enforcer: enforcer}
}

// Can reports whether role may perform action.
func (a *Authorizer) Can(role memberdomain.Role, action Action) (bool, error) {
	object, ok := objects[action]
	if !ok {
		return false, ErrUnknownAction
	}
	return a.enforcer.Enforce(subject(role), object, string(action))
}

// Check is Can with a denial turned into ErrPermissionDenied.
func (a *Authorizer) Check(role memberdomain.Role, action Action) error {
	allowed, err := a.Can(role, action)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrPermissionDenied
	}
	return nil
}

func subject(role memberdomain.Role) string {
	return fmt.Sprintf("role:%s", role)
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	owner := subject(memberdomain.RoleOwner)
	member := subject(memberdomain.RoleMember)

	policies := [][]string{
		// Member permissions
		{member, ObjectOrganization, string(ActionRead)},
		{member, ObjectMember, string(ActionLeave)},

		// Owner permissions
		{owner, ObjectOrganization, string(ActionRead)},
		{owner, ObjectOrganization, string(ActionUpdateOrganization)},
		{owner, ObjectOrganization, string(ActionDeleteOrganization)},
		{owner, ObjectMember, string(ActionManageMembers)},
		{owner, ObjectMember, string(ActionLeave)},
		{owner, ObjectInvite, string(ActionManageInvites)},
		{owner, ObjectSettings, string(ActionManageSettings)},
		{owner, ObjectSSO, string(ActionManageSSO)},
	}

	_, err := enforcer.AddPolicies(policies)
	return err
}

package user

import (
	"sort"
	"strings"

	userDatamodel "github.com/frahmantamala/genops/internal/core/datamodel/user"
	"github.com/frahmantamala/genops/internal/role"
)

// User is a dashboard user profile. Role holds the stored value verbatim.
type User struct {
	UID           string `json:"uid"`
	Role          string `json:"role"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	ContactNumber string `json:"contactNumber,omitempty"`
}

// DashboardRole maps the stored role onto the role the dashboard dispatches on.
func (u *User) DashboardRole() role.Role {
	return role.FromStored(u.Role)
}

func (u *User) IsOperator() bool {
	return role.FromStored(u.Role) == role.Operate
}

// DisplayName falls back to the email when the profile has no name.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		Role:          u.Role,
		Name:          u.Name,
		Email:         u.Email,
		ContactNumber: u.ContactNumber,
	}
}

func FromDataModel(uid string, u *userDatamodel.User) *User {
	return &User{
		UID:           uid,
		Role:          u.Role,
		Name:          u.Name,
		Email:         u.Email,
		ContactNumber: u.ContactNumber,
	}
}

func sortByName(users []*User) {
	sort.SliceStable(users, func(i, j int) bool {
		return strings.ToLower(users[i].DisplayName()) < strings.ToLower(users[j].DisplayName())
	})
}

package models

import "time"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCustomer  Role = "customer"
	RoleShopOwner Role = "shop_owner"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleShopOwner:
		return true
	}
	return false
}

type UserProfile struct {
	Bio      string `json:"bio,omitempty" firestore:"bio,omitempty" yaml:"bio"`
	PhotoURL string `json:"photoURL,omitempty" firestore:"photoURL,omitempty" yaml:"photo_url"`
	Address  string `json:"address,omitempty" firestore:"address,omitempty" yaml:"address"`
}

type User struct {
	UID       string      `json:"uid" firestore:"uid" yaml:"uid"`
	Username  string      `json:"username" firestore:"username" yaml:"username"`
	Email     string      `json:"email,omitempty" firestore:"email,omitempty" yaml:"email"`
	Role      Role        `json:"role" firestore:"role" yaml:"role"`
	Profile   UserProfile `json:"profile" firestore:"profile" yaml:"profile"`
	CreatedAt time.Time   `json:"createdAt" firestore:"createdAt" yaml:"-"`
	UpdatedAt time.Time   `json:"updatedAt" firestore:"updatedAt" yaml:"-"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

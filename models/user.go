package models

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mmdatafocus/cabinet_inventory/config"
	"gorm.io/gorm/clause"
)

// User is the local reference row for an identity-provider principal.
// Credentials live with the provider; only display fields are kept here.
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:100" json:"name"`
	Email     string    `gorm:"size:191;index" json:"email"`
	Role      UserRole  `gorm:"size:10;not null;default:Viewer" json:"role"`
	IsActive  *bool     `gorm:"not null;default:true" json:"isActive"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// DisplayName falls back from name to email to id.
func (u *User) DisplayName() string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	if strings.TrimSpace(u.Email) != "" {
		return u.Email
	}
	return u.ID
}

var seenUsers sync.Map

// EnsureUser inserts the principal on first sight. Existing rows are left alone.
func EnsureUser(ctx context.Context, id string, name string, email string, role UserRole) error {
	if id == "" {
		return ErrActorRequired
	}
	if _, ok := seenUsers.Load(id); ok {
		return nil
	}
	if !role.IsValid() {
		role = UserRoleViewer
	}
	active := true
	user := User{ID: id, Name: strings.TrimSpace(name), Email: strings.TrimSpace(email), Role: role, IsActive: &active}

	db := config.GetDB()
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
		return err
	}
	seenUsers.Store(id, struct{}{})
	return nil
}

func GetUser(ctx context.Context, id string) (*User, error) {
	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// usersByIds loads users keyed by id; unknown ids are simply absent.
func usersByIds(ctx context.Context, ids []string) (map[string]*User, error) {
	result := make(map[string]*User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	db := config.GetDB()
	var users []*User
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

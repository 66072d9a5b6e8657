package file

import (
	"fmt"

	"github.com/fcastdev/fcast-cli/internal/domain"
	"github.com/fcastdev/fcast-cli/internal/ports"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version      int        `toml:"version"`
	AccessToken  string     `toml:"access_token"`
	RefreshToken string     `toml:"refresh_token"`
	User         userSchema `toml:"user"`
}

type userSchema struct {
	ID          string `toml:"id"`
	DisplayName string `toml:"display_name"`
	Chips       int64  `toml:"chips"`
	IsAdmin     bool   `toml:"is_admin,omitempty"`
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported credentials schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

func toSchema(creds ports.Credentials) fileSchema {
	return fileSchema{
		Version:      currentSchemaVersion,
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		User: userSchema{
			ID:          string(creds.User.ID),
			DisplayName: creds.User.DisplayName,
			Chips:       creds.User.Chips,
			IsAdmin:     creds.User.IsAdmin,
		},
	}
}

func fromSchema(file fileSchema) ports.Credentials {
	return ports.Credentials{
		AccessToken:  file.AccessToken,
		RefreshToken: file.RefreshToken,
		User: domain.User{
			ID:          domain.UserID(file.User.ID),
			DisplayName: file.User.DisplayName,
			Chips:       file.User.Chips,
			IsAdmin:     file.User.IsAdmin,
		},
	}
}

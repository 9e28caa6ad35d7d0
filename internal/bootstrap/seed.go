package bootstrap

import (
	"strings"

	"github.com/ArnavJain-cy/sih-app/internal/config"
	"github.com/ArnavJain-cy/sih-app/internal/domain/user"
)

func seedUser(s config.SeedConfig) user.NewUser {
	username := s.Username
	if username == "" {
		username, _, _ = strings.Cut(s.Email, "@")
	}
	return user.NewUser{Username: username, Email: s.Email, Password: s.Password}
}

// Package db holds the database driver implementations and the factory
// that selects one based on the instance profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/mesero-ai/mesero/internal/profile"
	"github.com/mesero-ai/mesero/store"
	"github.com/mesero-ai/mesero/store/db/postgres"
	"github.com/mesero-ai/mesero/store/db/sqlite"
)

// NewDBDriver creates a new database driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "postgres":
		driver, err = postgres.NewDB(profile)
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}

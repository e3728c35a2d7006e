// Package db provides the store driver factory.
package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/scorelens/internal/profile"
	"github.com/hrygo/scorelens/store"
	"github.com/hrygo/scorelens/store/db/postgres"
)

// NewDBDriver creates a new database driver based on the profile.
// Vector search requires PostgreSQL with the pgvector extension.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	driver, err := postgres.NewDB(profile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create postgres driver")
	}
	return driver, nil
}

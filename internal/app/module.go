package app

import (
	"github.com/shandysiswandi/mlsgate/internal/filestore"
	"github.com/shandysiswandi/mlsgate/internal/identity"
)

func (a *App) initModules() error {
	id, err := identity.New(identity.Dependency{
		Credentials: a.credentials,
		Audit:       a.audit,
		Goroutine:   a.goroutine,
		Enforcer:    a.casbin,
		Router:      a.router,
		Config:      a.config,
		Instrument:  a.ins,
		Argon2ID:    a.argon2id,
		Tracker:     a.tracker,
		Clock:       a.clock,
		Totp:        a.totp,
		Validator:   a.validator,
		Secrets:     a.secrets,
	})
	if err != nil {
		return err
	}
	a.identity = id

	fs, err := filestore.New(filestore.Dependency{
		Catalog:    a.catalog,
		Storage:    a.storage,
		Audit:      a.audit,
		Goroutine:  a.goroutine,
		Router:     a.router,
		Config:     a.config,
		Instrument: a.ins,
		Clock:      a.clock,
		Validator:  a.validator,
	})
	if err != nil {
		return err
	}
	a.filestore = fs

	return nil
}

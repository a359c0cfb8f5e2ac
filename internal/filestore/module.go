package filestore

import (
	"github.com/shandysiswandi/mlsgate/internal/filestore/inbound"
	"github.com/shandysiswandi/mlsgate/internal/filestore/outbound/mq"
	"github.com/shandysiswandi/mlsgate/internal/filestore/usecase"
	"github.com/shandysiswandi/mlsgate/internal/pkg/clock"
	"github.com/shandysiswandi/mlsgate/internal/pkg/config"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/mlsgate/internal/pkg/instrument"
	"github.com/shandysiswandi/mlsgate/internal/pkg/router"
	"github.com/shandysiswandi/mlsgate/internal/pkg/storage"
	"github.com/shandysiswandi/mlsgate/internal/pkg/validator"
	"github.com/shandysiswandi/mlsgate/internal/shared/event"
)

type Dependency struct {
	Catalog    usecase.CatalogRepository  `validate:"required"`
	Storage    storage.Storage            `validate:"required"`
	Audit      *event.AuditPublisher      `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		RepoCatalog: dep.Catalog,
		RepoAudit:   mq.NewMessaging(dep.Audit),
		Storage:     dep.Storage,
		Config:      dep.Config,
		Clock:       dep.Clock,
		Instrument:  dep.Instrument,
		Goroutine:   dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return uc, nil
}

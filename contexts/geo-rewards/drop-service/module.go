package dropservice

import (
	"log/slog"

	httpadapter "moveserver/contexts/geo-rewards/drop-service/adapters/http"
	"moveserver/contexts/geo-rewards/drop-service/adapters/memory"
	"moveserver/contexts/geo-rewards/drop-service/application/commands"
	"moveserver/contexts/geo-rewards/drop-service/application/queries"
	"moveserver/contexts/geo-rewards/drop-service/application/workers"
	"moveserver/contexts/geo-rewards/drop-service/ports"
)

// Module is the composition surface of the drop service.
// Runtime wiring consumes Handler and Expirer; Backend is exposed for
// health reporting and tests.
type Module struct {
	Handler httpadapter.Handler
	Expirer workers.DropExpirer
	Backend ports.Backend
}

type Dependencies struct {
	Backend      ports.Backend
	Publisher    ports.EventPublisher
	Clock        ports.Clock
	ClaimMetrics ports.ClaimMetrics
	Logger       *slog.Logger
}

// NewModule wires use cases against one persistence backend.
func NewModule(deps Dependencies) Module {
	publisher := httpadapter.EventMapper{Next: deps.Publisher}

	createDrop := commands.CreateDropUseCase{
		Drops:  deps.Backend,
		Logger: deps.Logger,
	}
	updateDrop := commands.UpdateDropUseCase{
		Drops:  deps.Backend,
		Logger: deps.Logger,
	}
	deleteDrop := commands.DeleteDropUseCase{
		Drops:  deps.Backend,
		Logger: deps.Logger,
	}
	submitClaim := commands.SubmitClaimUseCase{
		Drops:   deps.Backend,
		Claims:  deps.Backend,
		Metrics: deps.ClaimMetrics,
		Logger:  deps.Logger,
	}

	handler := httpadapter.Handler{
		CreateDrop:  createDrop,
		UpdateDrop:  updateDrop,
		DeleteDrop:  deleteDrop,
		SubmitClaim: submitClaim,
		GetDrop: queries.GetDropUseCase{
			Drops:  deps.Backend,
			Logger: deps.Logger,
		},
		ListDrops: queries.ListDropsUseCase{
			Drops:  deps.Backend,
			Logger: deps.Logger,
		},
		ListDropClaims: queries.ListDropClaimsUseCase{
			Drops:  deps.Backend,
			Claims: deps.Backend,
			Logger: deps.Logger,
		},
		ListUserRewards: queries.ListUserRewardsUseCase{
			Claims: deps.Backend,
			Logger: deps.Logger,
		},
		GetStats: queries.GetStatsUseCase{
			Claims: deps.Backend,
			Logger: deps.Logger,
		},
		Publisher: publisher,
		Logger:    deps.Logger,
	}

	return Module{
		Handler: handler,
		Expirer: workers.DropExpirer{
			Drops:     deps.Backend,
			Publisher: publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
		Backend: deps.Backend,
	}
}

// NewInMemoryModule wires the module against a fresh volatile store.
func NewInMemoryModule(publisher ports.EventPublisher, logger *slog.Logger) Module {
	store := memory.NewStore(logger)
	return NewModule(Dependencies{
		Backend:   store,
		Publisher: publisher,
		Clock:     store,
		Logger:    logger,
	})
}

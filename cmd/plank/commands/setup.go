package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/plankdev/plank/internal/boardcache"
	"github.com/plankdev/plank/internal/config"
	"github.com/plankdev/plank/internal/printer"
	"github.com/plankdev/plank/internal/telemetry"
	"github.com/plankdev/plank/pkg/boardmodel"
	"github.com/plankdev/plank/pkg/tracking"
)

// parseWorkItemID converts a positional argument into a work-item id.
func parseWorkItemID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, printer.Error(
			"invalid work item id",
			fmt.Sprintf("%q is not a positive integer id.", arg),
			[]string{"Usage: plank <command> <work-item-id>"},
		)
	}
	return id, nil
}

// newModel builds the full service stack from plank.yml and returns a
// refreshed model for the work item, the loaded configuration, and a cleanup
// function for any connections it opened.
//
// Every CLI invocation is its own session, so the model's first-refresh flag
// is always set.
func newModel(ctx context.Context, id int) (*boardmodel.Model, *config.Config, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, printer.Error(
			"failed to load configuration",
			err.Error(),
			[]string{"Create a plank.yml or point --config at one"},
		)
	}

	token, err := config.Token()
	if err != nil {
		return nil, nil, nil, printer.Error("missing credentials", err.Error(), nil)
	}

	client, err := tracking.NewClient(cfg.Service.URL, token)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create tracking client: %w", err)
	}

	var boards boardmodel.BoardProvider = client
	cleanup := func() {}
	if cfg.Redis != nil {
		cache, err := boardcache.New(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		}, client, cfg.Redis.TTL())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create board cache: %w", err)
		}
		boards = cache
		cleanup = func() { cache.Close() }
	}

	model, err := boardmodel.New(boardmodel.Services{
		WorkItems: client,
		Boards:    boards,
		Teams:     client,
		Backlog:   client,
		Types:     client,
		Telemetry: telemetry.NewLog("plank-cli"),
	}, id, cfg.Location, true)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}

	if err := model.Refresh(ctx); err != nil {
		cleanup()
		return nil, nil, nil, printer.Error(
			"failed to refresh work item",
			err.Error(),
			[]string{"Check the service URL and your PLANK_TOKEN, then retry"},
		)
	}

	if project := model.WorkItem().StringField(tracking.FieldTeamProject); project != cfg.Project {
		printer.Warning("Work item #%d belongs to project %q, not the configured %q", id, project, cfg.Project)
	}
	return model, cfg, cleanup, nil
}

// chooseTeam picks the team a command operates on: explicit flag first, then
// the configured default, then the model's area-path estimate.
func chooseTeam(flag string, cfg *config.Config, model *boardmodel.Model) string {
	if flag != "" {
		return flag
	}
	if cfg.Team != "" {
		return cfg.Team
	}
	return model.EstimatedTeam()
}

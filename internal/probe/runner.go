// Package probe exercises a tether client against a live JSON API: it
// registers a small set of routes and walks a create/read/update/delete
// cycle, logging the outcome of every call. It doubles as the reference for
// wiring an App from configuration.
package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/tether"
	"github.com/okian/tether/config"
	"github.com/okian/tether/model"
	"github.com/okian/tether/pkg/logger"
)

// Item is the resource the probe round-trips through the remote API.
type Item struct {
	model.Tracked `json:"-"`

	ID   int    `json:"id"`
	Name string `json:"name"`
	Tag  string `json:"tag"`
}

// ModelFields declares the fields exchanged with the API.
func (Item) ModelFields() []string { return []string{"id", "name", "tag"} }

// Runner drives one probe run.
type Runner struct {
	app    *tether.App
	log    logger.Logger
	health *tether.Route
	items  *model.Binding[Item]
	item   *model.Binding[Item]
}

// New builds the app and registers the probe routes from configuration.
func New(cfg *config.Config, log logger.Logger) (*Runner, error) {
	app := tether.New("tether/probe",
		tether.FromConfig(cfg),
		tether.WithLogger(log),
	)

	health, err := app.Route("/healthz", []string{http.MethodGet}, tether.NoAuth())
	if err != nil {
		return nil, err
	}
	items, err := app.Route("/v1/items", []string{http.MethodGet, http.MethodPost})
	if err != nil {
		return nil, err
	}
	item, err := app.Route("/v1/items/{id}", []string{http.MethodGet, http.MethodPut, http.MethodDelete})
	if err != nil {
		return nil, err
	}

	return &Runner{
		app:    app,
		log:    log,
		health: health,
		items:  model.Bind[Item](items),
		item:   model.Bind[Item](item),
	}, nil
}

// Run walks the CRUD cycle against the configured API.
func (r *Runner) Run(ctx context.Context) error {
	start := time.Now()
	r.log.Info(ctx, "probe starting", logger.String("domain", r.app.Domain()))

	if _, err := r.health.Request().Get(ctx); err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	created, err := r.items.Create(ctx, Item{Name: "probe", Tag: "smoke"})
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	r.log.Info(ctx, "item created", logger.Int("id", created.ID))

	fetched, err := r.item.Get(ctx, map[string]any{"id": created.ID})
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}
	if fetched.Name != created.Name {
		return fmt.Errorf("get item: name mismatch: got %q, want %q", fetched.Name, created.Name)
	}

	fetched.Tag = "verified"
	updated, err := r.item.Update(ctx, fetched)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	r.log.Info(ctx, "item updated", logger.Int("id", updated.ID), logger.String("tag", updated.Tag))

	listed, err := r.items.List(ctx, map[string]any{"tag": "verified"})
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	r.log.Info(ctx, "items listed", logger.Int("count", len(listed)))

	if err := r.item.Delete(ctx, updated); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	r.log.Info(ctx, "probe complete", logger.Duration("elapsed", time.Since(start)))
	return nil
}

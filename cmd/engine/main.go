package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/stockcast/internal/cache"
	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/internal/report"
	"github.com/andresuchdata/stockcast/internal/repository/postgres"
	"github.com/andresuchdata/stockcast/internal/service"
	"github.com/andresuchdata/stockcast/internal/storage"
	"github.com/andresuchdata/stockcast/pkg/logger"
)

func newProductIDFlag() *cli.Int64Flag {
	return &cli.Int64Flag{
		Name:     "product-id",
		Usage:    "Product to run the engine for",
		Required: true,
	}
}

type runtime struct {
	cfg         *config.Config
	service     *service.ForecastService
	reporter    *report.Generator
	policyCache cache.PolicyCache
}

func newRuntime() (*runtime, error) {
	cfg := config.Load()
	logger.SetLevel(cfg.App.LogLevel)

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	policyCache, err := cache.NewPolicyCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("policy cache unavailable, continuing without it")
		policyCache = cache.NewNoopPolicyCache()
	}

	sales := postgres.NewSalesRepository(db)
	factors := postgres.NewFactorRepository(db)
	products := postgres.NewProductRepository(db)

	var store storage.ObjectStorage
	if cfg.Storage.Enabled {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize object storage: %w", err)
		}
		store = client
	}

	return &runtime{
		cfg:         cfg,
		service:     service.NewForecastService(sales, factors, products, policyCache, cfg.Engine),
		reporter:    report.NewGenerator(products, sales, store),
		policyCache: policyCache,
	}, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	app := &cli.App{
		Name:  "engine",
		Usage: "Demand forecasting and inventory optimization engine",
		Commands: []*cli.Command{
			{
				Name:  "forecast",
				Usage: "Train a model on a product's sales history and forecast demand",
				Flags: []cli.Flag{
					newProductIDFlag(),
					&cli.IntFlag{
						Name:  "horizon",
						Usage: "Days to forecast (0 uses the configured default)",
					},
				},
				Action: func(c *cli.Context) error {
					rt, err := newRuntime()
					if err != nil {
						return err
					}
					points, metrics, err := rt.service.Forecast(c.Context, c.Int64("product-id"), c.Int("horizon"))
					if err != nil {
						return err
					}
					return printJSON(map[string]interface{}{
						"metrics":  metrics,
						"forecast": points,
					})
				},
			},
			{
				Name:  "optimize",
				Usage: "Compute and persist the optimal stock policy for a product",
				Flags: []cli.Flag{
					newProductIDFlag(),
					&cli.Float64Flag{
						Name:  "service-level",
						Usage: "Target service level (0 uses the configured default)",
					},
					&cli.IntFlag{
						Name:  "lead-time",
						Usage: "Lead time override in days (0 uses the product's lead time)",
					},
				},
				Action: func(c *cli.Context) error {
					rt, err := newRuntime()
					if err != nil {
						return err
					}
					policy, err := rt.service.Optimize(c.Context, c.Int64("product-id"), c.Float64("service-level"), c.Int("lead-time"))
					if err != nil {
						return err
					}
					return printJSON(policy)
				},
			},
			{
				Name:  "analyze",
				Usage: "Compare current vs optimal stocking costs for a product",
				Flags: []cli.Flag{
					newProductIDFlag(),
					&cli.IntFlag{
						Name:  "days",
						Usage: "Analysis horizon in days",
						Value: 30,
					},
					&cli.Float64Flag{
						Name:  "service-level",
						Usage: "Target service level (0 uses the configured default)",
					},
				},
				Action: func(c *cli.Context) error {
					rt, err := newRuntime()
					if err != nil {
						return err
					}
					policy, err := rt.service.Optimize(c.Context, c.Int64("product-id"), c.Float64("service-level"), 0)
					if err != nil {
						return err
					}
					costs, err := rt.service.AnalyzeCosts(c.Context, c.Int64("product-id"), policy, c.Int("days"))
					if err != nil {
						return err
					}
					return printJSON(costs)
				},
			},
			{
				Name:  "report",
				Usage: "Generate the inventory report, optionally archiving it to object storage",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "archive",
						Usage: "Upload the CSV rendering to object storage",
					},
					&cli.BoolFlag{
						Name:  "list",
						Usage: "List previously archived reports instead of generating one",
					},
				},
				Action: func(c *cli.Context) error {
					rt, err := newRuntime()
					if err != nil {
						return err
					}
					if c.Bool("list") {
						objects, err := rt.reporter.ListArchives(c.Context)
						if err != nil {
							return err
						}
						return printJSON(objects)
					}
					rep, err := rt.reporter.Generate(c.Context)
					if err != nil {
						return err
					}
					if c.Bool("archive") {
						key, err := rt.reporter.Archive(c.Context, rep)
						if err != nil {
							return err
						}
						if key != "" {
							logger.Log.Info().Str("key", key).Msg("report uploaded")
						}
					}
					return printJSON(rep)
				},
			},
			{
				Name:  "invalidate",
				Usage: "Drop cached stock policies",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "product-id",
						Usage: "Limit to one product (omit to drop everything)",
					},
				},
				Action: func(c *cli.Context) error {
					rt, err := newRuntime()
					if err != nil {
						return err
					}
					if id := c.Int64("product-id"); id > 0 {
						return rt.policyCache.InvalidateProduct(c.Context, id)
					}
					return rt.policyCache.InvalidateAll(c.Context)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("engine command failed")
	}
}

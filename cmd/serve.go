// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"runtime/trace"
	"sync"
	"time"

	"github.com/greenfolio/gf-api/common"
	"github.com/greenfolio/gf-api/data"
	"github.com/greenfolio/gf-api/database"
	"github.com/greenfolio/gf-api/handler"
	"github.com/greenfolio/gf-api/jwks"
	"github.com/greenfolio/gf-api/marketday"
	"github.com/greenfolio/gf-api/messenger"
	"github.com/greenfolio/gf-api/middleware"
	"github.com/greenfolio/gf-api/observability/opentelemetry"
	"github.com/greenfolio/gf-api/router"
	"github.com/greenfolio/gf-api/runlog"
	"github.com/greenfolio/gf-api/sentiment"
	"github.com/greenfolio/gf-api/universe"

	"github.com/go-co-op/gocron"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	viper.BindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	viper.BindEnv("server.cors_origins", "GF_CORS_ORIGINS")
	serveCmd.Flags().String("cors-origins", "http://localhost:8080", "Comma separated list of allowed CORS origins")
	viper.BindPFlag("server.cors_origins", serveCmd.Flags().Lookup("cors-origins"))

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gf-api server",
	Long:  `Run HTTP server that implements the GreenFolio API`,
	Run: func(cmd *cobra.Command, args []string) {
		if Profile {
			f, err := os.Create("profile.out")
			if err != nil {
				log.Fatal().Err(err).Msg("could not create profile.out")
			}
			pprof.StartCPUProfile(f)
			defer pprof.StopCPUProfile()
		}

		if Trace {
			f, err := os.Create("trace.out")
			if err != nil {
				log.Fatal().Err(err).Msg("failed to create trace output file")
			}
			defer func() {
				if err := f.Close(); err != nil {
					log.Fatal().Err(err).Msg("failed to close trace file")
				}
			}()

			if err := trace.Start(f); err != nil {
				log.Fatal().Err(err).Msg("failed to start trace")
			}
			defer trace.Stop()
		}

		common.SetupLogging()
		common.SetupCache()
		log.Info().Msg("initialized logging")

		if viper.GetString("otlp.endpoint") != "" {
			traceShutdown, err := opentelemetry.Setup()
			if err != nil {
				log.Error().Err(err).Msg("could not initialize opentelemetry exporter")
			} else {
				defer func() {
					if err := traceShutdown(context.Background()); err != nil {
						log.Error().Err(err).Msg("error shutting down opentelemetry exporter")
					}
				}()
			}
		}

		ctx := context.Background()

		// setup database; CSV-only deployments run without one
		hasDatabase := viper.GetString("database.url") != ""
		if hasDatabase {
			if err := database.Connect(ctx); err != nil {
				log.Fatal().Err(err).Msg("database connection failed")
			}
		}

		// Initialize data framework
		manager := data.NewDefaultManager()
		log.Info().Msg("initialized data framework")

		// load the ESG universe and score news sentiment for its tickers
		u, err := universe.Load(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load esg universe")
		}
		sentimentClient := sentiment.NewClient()
		labels := sentimentClient.Labels(ctx, u.Tickers())
		log.Info().Int("NumTickers", len(u.Tickers())).Msg("loaded esg universe")

		deps := &handler.Deps{
			Manager:  manager,
			Universe: u,
			Labels:   labels,
		}
		if hasDatabase {
			deps.Runs = runlog.NewRepository()
		}
		handler.SetDeps(deps)

		if err := messenger.Initialize(); err != nil {
			log.Error().Err(err).Msg("could not initialize messenger")
		}
		defer messenger.Close()

		// Create new Fiber instance
		app := fiber.New()

		// shutdown cleanly on interrupt
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go func() {
			sig := <-c // block until signal is read
			fmt.Printf("Received signal: '%s'; shutting down...\n", sig.String())
			if err := app.Shutdown(); err != nil {
				log.Fatal().Err(err).Msg("error shutting down server")
			}
		}()

		// Configure CORS
		corsConfig := cors.Config{
			AllowOrigins: viper.GetString("server.cors_origins"),
			AllowHeaders: "*",
			AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		}
		app.Use(cors.New(corsConfig))

		// Setup logging middleware
		app.Use(middleware.NewLogger())

		// Configure authentication
		jwksAutoRefresh, jwksURL := jwks.SetupJWKS()

		// Setup routes
		router.SetupRoutes(app, jwksAutoRefresh, jwksURL)

		// reload scores and sentiment daily so recommendations track the
		// latest published data
		var uniMu sync.RWMutex
		reloadUniverse := func() {
			refreshed, err := universe.Load(context.Background())
			if err != nil {
				log.Error().Err(err).Msg("could not reload esg universe")
				return
			}
			refreshedLabels := sentimentClient.Labels(context.Background(), refreshed.Tickers())
			handler.UpdateUniverse(refreshed, refreshedLabels)
			uniMu.Lock()
			u = refreshed
			uniMu.Unlock()
			log.Info().Int("NumTickers", len(refreshed.Tickers())).Msg("reloaded esg universe")
		}

		scheduler := gocron.NewScheduler(common.GetTimezone())
		scheduler.Every(1).Day().At(reloadAt()).Do(reloadUniverse)
		if hasDatabase {
			// log transactions that never committed or rolled back
			scheduler.Every(1).Hour().Do(database.LogOpenTransactions)
		}
		scheduler.StartAsync()

		// refresh cached prices after each market close
		if viper.GetString("prices.refresh_schedule") != "off" {
			sched, err := marketday.New(refreshSchedule(), marketday.RegularHours)
			if err != nil {
				log.Error().Err(err).Str("Schedule", refreshSchedule()).Msg("could not parse price refresh schedule")
			} else {
				go func() {
					for {
						next := sched.Next(time.Now().In(common.GetTimezone()))
						time.Sleep(time.Until(next))

						uniMu.RLock()
						tickers := u.Tickers()
						uniMu.RUnlock()

						n := refreshPrices(context.Background(), manager, tickers)
						if err := messenger.PublishPricesRefreshed(n); err != nil {
							log.Warn().Err(err).Msg("could not publish price refresh event")
						}
					}
				}()
			}
		}

		// Start server on http://${heroku-url}:${port}
		if err := app.Listen(":" + viper.GetString("server.port")); err != nil {
			log.Fatal().Err(err).Msg("server exited with error")
		}
	},
}

func reloadAt() string {
	at := viper.GetString("esg.reload_at")
	if at == "" {
		at = "05:00"
	}
	return at
}

func refreshSchedule() string {
	spec := viper.GetString("prices.refresh_schedule")
	if spec == "" {
		spec = "@close 30"
	}
	return spec
}

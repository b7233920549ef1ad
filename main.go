package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/peterbourgon/ff"
	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/digital-navigator/api"
	"github.com/a-bouts/digital-navigator/land"
	"github.com/a-bouts/digital-navigator/passage"
	"github.com/a-bouts/digital-navigator/polar"
	"github.com/a-bouts/digital-navigator/report"
	"github.com/a-bouts/digital-navigator/store"
	"github.com/a-bouts/digital-navigator/voyage"
	"github.com/a-bouts/digital-navigator/wind"
	"github.com/a-bouts/digital-navigator/xmpp"

	_ "net/http/pprof"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.WithError(err).Error("Simulation aborted")
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("digital-navigator", flag.ExitOnError)
	var (
		start       = fs.String("start", "", "first start day, 2006-01-02")
		days        = fs.Int("days", 1, "number of consecutive start days")
		speedRatio  = fs.Float64("speed-ratio", 0.4, "ship speed as a fraction of the wind speed")
		topWind     = fs.Float64("top-wind", 25, "wind speed in knots at which the ship reaches its top speed")
		stormWind   = fs.Float64("storm-wind", 40, "wind speed in knots from which the ship reduces sail")
		stormSpeed  = fs.Float64("storm-speed", 0.5, "ship speed in knots under reduced sail")
		subStep     = fs.Duration("substep", voyage.DefaultSubStep, "duration of a sub-step")
		maxSubSteps = fs.Int("max-substeps", voyage.DefaultMaxSubSteps, "sub-steps after which a day is given up")
		workers     = fs.Int("workers", 1, "days simulated at once")
		data        = fs.String("data", "data", "directory of the static layers")
		windDir     = fs.String("wind", "wind", "directory of the wind series")
		windFormat  = fs.String("wind-format", "ascii", "wind series format: ascii or grib")
		windCache   = fs.Int("wind-cache", wind.DefaultCacheSize, "wind samples kept in memory")
		startPoint  = fs.String("start-point", "start_point.shp", "start point shapefile, or x,y")
		endPoint    = fs.String("end-point", "end_point.shp", "end point shapefile, or x,y")
		results     = fs.String("results", "results.txt", "results log")
		routes      = fs.String("routes", "routes", "directory of the route grids")
		db          = fs.String("db", "", "SQLite result store, disabled when empty")
		serve       = fs.String("serve", "", "listen address, runs the HTTP API instead of a batch")
		refresh     = fs.Uint64("refresh", 15, "seconds between wind series rescans when serving")
		debug       = fs.Bool("debug", false, "debug logs")
		logJSON     = fs.Bool("log-json", false, "JSON logs")
		cpuprofile  = fs.Bool("cpuprofile", false, "profile the CPU")

		xmppHost     = fs.String("xmpp-host", "", "")
		xmppJid      = fs.String("xmpp-jid", "", "")
		xmppPassword = fs.String("xmpp-password", "", "")
		xmppTo       = fs.String("xmpp-to", "", "")
	)
	fs.String("config", "", "config file")
	if err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix("DN"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	); err != nil {
		return err
	}

	initLogger(*debug, *logJSON)

	log.Info("Load static layers")
	layers, err := land.Load(*data)
	if err != nil {
		return err
	}

	var source wind.Source
	switch *windFormat {
	case "ascii":
		source = wind.Archive{Dir: *windDir}
	case "grib":
		source = wind.Grib{Dir: *windDir, Geometry: layers.Geometry(), IsLand: layers.IsLand}
	default:
		return fmt.Errorf("unknown wind format %q", *windFormat)
	}
	winds := wind.NewIndex(source, layers.Geometry(), *windCache)

	p, err := loadPassage(*startPoint, *endPoint)
	if err != nil {
		return err
	}

	files, err := store.NewFiles(*results, *routes)
	if err != nil {
		return err
	}
	sink := store.Multi{files}
	var stored api.Results
	if *db != "" {
		sqlite, err := store.OpenSQLite(*db)
		if err != nil {
			return err
		}
		defer sqlite.Close()
		sink = append(sink, sqlite)
		stored = sqlite
	}

	x := &xmpp.Xmpp{Config: xmpp.Config{Host: *xmppHost, Jid: *xmppJid, Password: *xmppPassword, To: *xmppTo}}

	cfg := voyage.Config{
		Ship:        polar.NewShip(*speedRatio, *topWind, *stormWind, *stormSpeed),
		SubStep:     *subStep,
		MaxSubSteps: *maxSubSteps,
		Workers:     *workers,
	}

	if *serve != "" {
		winds.Watch(*refresh)
		defer winds.Stop()

		router := api.InitServer(*cpuprofile, api.Voyages{
			Layers:  layers,
			Winds:   winds,
			Config:  cfg,
			Passage: p,
			Sink:    sink,
			Results: stored,
		}, x)

		log.Infof("Start server on %s", *serve)
		return http.ListenAndServe(*serve, api.Wrap(router))
	}

	first, err := time.ParseInLocation("2006-01-02", *start, time.UTC)
	if err != nil {
		return fmt.Errorf("start day: %w", err)
	}

	if *cpuprofile {
		defer profile.Start(profile.ProfilePath(".")).Stop()
	}

	sim, err := voyage.NewSimulator(cfg, layers, winds, p)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, err := sim.Run(ctx, first, *days, sink)
	fmt.Println(report.Render(summary))

	if x.Enabled() {
		if serr := x.Send(report.Text(summary)); serr != nil {
			log.WithError(serr).Warn("Error sending notification")
		}
	}
	return err
}

func loadPassage(start, end string) (passage.Passage, error) {
	s, err := passage.Resolve(start)
	if err != nil {
		return passage.Passage{}, fmt.Errorf("start point: %w", err)
	}
	e, err := passage.Resolve(end)
	if err != nil {
		return passage.Passage{}, fmt.Errorf("end point: %w", err)
	}
	log.Infof("Passage from %s to %s", s, e)
	return passage.Passage{Start: s, End: e}, nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/example/swiftride/internal/app"
	"github.com/example/swiftride/internal/backend"
	"github.com/example/swiftride/internal/config"
	"github.com/example/swiftride/internal/logging"
	"github.com/example/swiftride/internal/riderequest"
	"github.com/example/swiftride/internal/view"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rider", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		name    = fs.String("name", "", "rider name (blank submits as Guest Rider)")
		phone   = fs.String("phone", "", "rider phone (blank submits a random 10-digit number)")
		pickup  = fs.String("pickup", "", "pickup as lat,lng")
		dropoff = fs.String("dropoff", "", "dropoff as lat,lng")
		submit  = fs.Bool("submit", false, "submit a ride request after loading drivers")
		asJSON  = fs.Bool("json", false, "print the view as JSON")
		backURL = fs.String("backend", "", "backend base URL (overrides BACKEND_URL)")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadClientConfig()
	logger := logging.NewWriterLogger(stderr, "rider", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return 1
	}
	if *backURL != "" {
		cfg.BackendURL = strings.TrimRight(*backURL, "/")
	}

	rider := app.New(backend.NewClient(cfg.BackendURL, cfg.BackendTimeout), logger, app.Options{
		Pickup:  cfg.DefaultPickup,
		Dropoff: cfg.DefaultDropoff,
	})
	defer rider.Close()

	if err := applyInput(rider, *name, *phone, *pickup, *dropoff); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	rider.LoadRoster(ctx)

	code := 0
	if *submit {
		if _, err := rider.Submit(ctx); err != nil {
			code = 1
		}
	}

	v := view.Project(rider.Snapshot())
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(v)
	} else {
		err = view.Render(stdout, v)
	}
	if err != nil {
		fmt.Fprintf(stderr, "write output: %v\n", err)
		return 1
	}
	return code
}

func applyInput(rider *app.App, name, phone, pickup, dropoff string) error {
	rider.SetName(name)
	rider.SetPhone(phone)
	var errs []error
	if pickup != "" {
		errs = append(errs, editPair(rider, pickup, riderequest.FieldPickupLat, riderequest.FieldPickupLng))
	}
	if dropoff != "" {
		errs = append(errs, editPair(rider, dropoff, riderequest.FieldDropoffLat, riderequest.FieldDropoffLng))
	}
	return errors.Join(errs...)
}

func editPair(rider *app.App, pair, latField, lngField string) error {
	lat, lng, ok := strings.Cut(pair, ",")
	if !ok {
		return fmt.Errorf("%q: expected lat,lng", pair)
	}
	return errors.Join(rider.Edit(latField, lat), rider.Edit(lngField, lng))
}

// reliefctl is the operator CLI: it creates accounts directly against the
// database and runs revocation housekeeping on demand.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Skotchmaster/cocoiru/internal/app"
	"github.com/Skotchmaster/cocoiru/internal/config"
	"github.com/Skotchmaster/cocoiru/internal/logging"
	"github.com/Skotchmaster/cocoiru/internal/service"
)

const usage = `usage: reliefctl <command> [flags]

commands:
  create-gov-user   create a government account
  create-community  register a community
  sweep-revoked     delete expired revocation entries
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprint(out, usage)
		return nil
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "create-gov-user":
		return createGovUser(ctx, rest, out)
	case "create-community":
		return createCommunity(ctx, rest, out)
	case "sweep-revoked":
		return sweepRevoked(ctx, rest, out)
	}
	return fmt.Errorf("unknown command %q\n%s", cmd, usage)
}

func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a, err := app.Build(ctx, cfg, logging.NewWithWriter(os.Stderr, "warn"))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func passwordFrom(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("RELIEFCTL_PASSWORD")
}

func createGovUser(ctx context.Context, args []string, out io.Writer) error {
	var in service.GovUserInput
	var password string
	var inactive bool

	flagSet := pflag.NewFlagSet("create-gov-user", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringVarP(&in.Username, "username", "u", "", "login name (required)")
	flagSet.StringVarP(&password, "password", "p", "", "password (default $RELIEFCTL_PASSWORD)")
	flagSet.StringVar(&in.Email, "email", "", "contact email")
	flagSet.StringVar(&in.FullName, "full-name", "", "display name")
	flagSet.BoolVar(&inactive, "inactive", false, "create the account disabled")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	in.Password = passwordFrom(password)
	active := !inactive
	in.IsActive = &active

	return withApp(ctx, func(a *app.App) error {
		u, err := a.Svc.RegisterGovUser(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created gov user %q (id %d, active %t)\n", u.Username, u.ID, u.IsActive)
		return nil
	})
}

func createCommunity(ctx context.Context, args []string, out io.Writer) error {
	var in service.CommunityInput
	var password string
	var lat, lon float64

	flagSet := pflag.NewFlagSet("create-community", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringVarP(&in.Name, "name", "n", "", "community name (required)")
	flagSet.StringVarP(&password, "password", "p", "", "password (default $RELIEFCTL_PASSWORD)")
	flagSet.Float64Var(&lat, "lat", 0, "latitude")
	flagSet.Float64Var(&lon, "lon", 0, "longitude")
	flagSet.UintVar(&in.MemberCount, "members", 0, "member count")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	in.Password = passwordFrom(password)
	if flagSet.Changed("lat") || flagSet.Changed("lon") {
		in.Latitude, in.Longitude = &lat, &lon
	}

	return withApp(ctx, func(a *app.App) error {
		c, err := a.Svc.RegisterCommunity(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created community %q (community_id %d)\n", c.Name, c.ID)
		return nil
	})
}

func sweepRevoked(ctx context.Context, args []string, out io.Writer) error {
	flagSet := pflag.NewFlagSet("sweep-revoked", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	return withApp(ctx, func(a *app.App) error {
		n, err := a.Svc.SweepRevoked(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "removed %d expired revocation entries\n", n)
		return nil
	})
}

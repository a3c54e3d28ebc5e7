// guestpropd hosts a guest property service in-process and drives it from a
// line-oriented console on stdin. Guest clients are simulated through the
// same call dispatcher a VM transport would use.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/jathurchan/guestprop/hgcm"
	"github.com/jathurchan/guestprop/logger"
	"github.com/jathurchan/guestprop/property"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	var configPath string
	var logLevel string
	var skipPowerOn bool

	flagSet := pflag.NewFlagSet("guestpropd", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to YAML configuration file")
	flagSet.StringVar(&logLevel, "log-level", "", "log level override: debug, info, warn, error")
	flagSet.BoolVar(&skipPowerOn, "no-power-on", false, "do not publish host information at startup")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return fmt.Errorf("unexpected argument: %s", extra[0])
	}

	config := DefaultConfig()
	if configPath != "" {
		loaded, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		config = loaded
	}
	if logLevel != "" {
		config.LogLevel = logLevel
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewStdLogger(config.LogLevel)

	svc := property.NewService(append(config.serviceOptions(), property.WithLogger(log))...)
	defer svc.Close()

	d, err := buildDispatcher(svc, config, log)
	if err != nil {
		return err
	}
	defer d.Close()

	d.RegisterExtension(hostLogger(log))

	if err := bootstrap(ctx, d, config, !skipPowerOn); err != nil {
		return err
	}
	log.Infow("guestpropd ready", "config", configPath, "properties", len(config.Properties))

	con := newConsole(d, stdout, log)
	err = con.Run(ctx, stdin)
	_ = d.Close()
	con.drain()
	return err
}

func buildDispatcher(svc property.Service, config *Config, log logger.Logger) (hgcm.Dispatcher, error) {
	builder := hgcm.NewDispatcherBuilder().
		WithService(svc).
		WithLogger(log).
		WithMaxClients(config.MaxClients)
	if config.RateLimit.Enabled {
		builder.WithRateLimit(config.RateLimit.Limit, config.RateLimit.Burst, config.RateLimit.Window)
	}
	return builder.Build()
}

// hostLogger is the host extension: it logs every change the service relays.
func hostLogger(log logger.Logger) property.HostCallback {
	log = log.WithComponent("host")
	return property.HostCallbackFunc(func(n property.HostNotification) {
		if n.Value == nil {
			log.Infow("Property deleted", "name", n.Name, "ts", n.Timestamp)
			return
		}
		log.Infow("Property changed", "name", n.Name, "value", *n.Value, "flags", n.Flags, "ts", n.Timestamp)
	})
}

// bootstrap loads the configured properties and global flags, then delivers
// the power-on event.
func bootstrap(ctx context.Context, d hgcm.Dispatcher, config *Config, powerOn bool) error {
	if props := config.initialProperties(); len(props) > 0 {
		data, err := property.EncodeEnumeration(props, math.MaxInt)
		if err != nil {
			return err
		}
		if err := d.HostCall(ctx, hgcm.HostSetProps, []hgcm.Param{hgcm.BufferParam(data)}); err != nil {
			return fmt.Errorf("loading initial properties: %w", err)
		}
	}

	flags, _ := property.ParseFlags(config.GlobalFlags)
	if flags != property.NilFlag {
		if err := d.HostCall(ctx, hgcm.HostSetGlobalFlags, []hgcm.Param{hgcm.Uint32Param(uint32(flags))}); err != nil {
			return fmt.Errorf("setting global flags: %w", err)
		}
	}

	if powerOn {
		if err := d.Notify(ctx, hgcm.EventPowerOn); err != nil {
			return fmt.Errorf("power on: %w", err)
		}
	}
	return nil
}

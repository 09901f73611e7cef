// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/database"
	"github.com/luxfi/database/badgerdb"
	"github.com/luxfi/database/corruptabledb"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/luxfi/suretyvm"
	"github.com/luxfi/suretyvm/api"
	"github.com/luxfi/suretyvm/api/metrics"
	"github.com/luxfi/suretyvm/api/server"
	"github.com/luxfi/suretyvm/relay"
)

const (
	vmBase      = "surety"
	metricsBase = "metrics"
)

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "run",
		Short: "Runs a surety node",
		RunE:  runFunc,
	}
	AddFlags(c.Flags())
	return c
}

func runFunc(c *cobra.Command, args []string) error {
	config, err := ParseFlags(c.Flags(), args)
	if err != nil {
		return err
	}

	logger := log.NewLogger("suretyvm")
	db, err := openDB(config.DataDir, logger)
	if err != nil {
		return err
	}

	gatherer := metrics.NewPrefixGatherer()
	processMetrics, err := metrics.MakeAndRegister(gatherer, "process")
	if err != nil {
		return err
	}
	err = errors.Join(
		processMetrics.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})),
		processMetrics.Register(collectors.NewGoCollector()),
	)
	if err != nil {
		return err
	}
	vmMetrics, err := metrics.MakeAndRegister(gatherer, vmBase)
	if err != nil {
		return err
	}
	apiMetrics, err := metrics.MakeAndRegister(gatherer, "api")
	if err != nil {
		return err
	}

	factory := &suretyvm.Factory{
		Registerer: vmMetrics,
	}
	vmIntf, err := factory.New(logger)
	if err != nil {
		return err
	}
	vm := vmIntf.(*suretyvm.VM)

	ctx := c.Context()
	if err := vm.Initialize(ctx, db, config.GenesisBytes, config.ConfigBytes); err != nil {
		return errors.Join(err, db.Close())
	}
	err = serve(ctx, config, vm, gatherer, apiMetrics, logger)
	return errors.Join(err, vm.Shutdown(context.Background()), db.Close())
}

func serve(
	ctx context.Context,
	config *Config,
	vm *suretyvm.VM,
	gatherer metrics.MultiGatherer,
	apiMetrics metric.Registry,
	logger log.Logger,
) error {
	handlers, err := vm.CreateHandlers(ctx)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(config.HTTPHost, strconv.Itoa(int(config.HTTPPort))))
	if err != nil {
		return err
	}
	srv, err := server.New(
		logger,
		listener,
		config.AllowedOrigins,
		config.ShutdownTimeout,
		suretyvm.Version,
		apiMetrics,
		server.HTTPConfig{
			ReadHeaderTimeout: config.ReadHeaderTimeout,
		},
	)
	if err != nil {
		return errors.Join(err, listener.Close())
	}
	for endpoint, handler := range handlers {
		if err := srv.AddRoute(handler, vmBase, endpoint); err != nil {
			return errors.Join(err, listener.Close())
		}
	}
	metricsHandler := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	if err := srv.AddRoute(metricsHandler, metricsBase, ""); err != nil {
		return errors.Join(err, listener.Close())
	}

	if err := vm.SetState(ctx, suretyvm.NormalOp); err != nil {
		return errors.Join(err, listener.Close())
	}

	uri := fmt.Sprintf("http://%s", listener.Addr())
	logger.Info("serving",
		log.String("uri", uri+api.Endpoint),
	)

	var r *relay.Relay
	if config.Relay != nil {
		reporter, err := config.Relay.NewReporter()
		if err != nil {
			return errors.Join(err, listener.Close())
		}
		r = relay.New(config.Relay.Relay, api.NewClient(uri), reporter, logger)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Dispatch)
	g.Go(func() error {
		<-ctx.Done()
		return srv.Shutdown()
	})
	if r != nil {
		g.Go(func() error {
			return r.Run(ctx)
		})
	}
	return g.Wait()
}

// openDB returns an in-memory database unless [dataDir] is set.
func openDB(dataDir string, logger log.Logger) (database.Database, error) {
	if dataDir == "" {
		return memdb.New(), nil
	}
	db, err := badgerdb.New(dataDir, nil, "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", dataDir, err)
	}
	return corruptabledb.New(db, logger), nil
}

// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/forkstate/co"
	"github.com/vechain/forkstate/log"
	"github.com/vechain/forkstate/metrics"
	"github.com/vechain/forkstate/remote"
	"github.com/vechain/forkstate/state"
	"github.com/vechain/forkstate/unverified"
	"github.com/vechain/forkstate/verified"
)

// env is what every command runs with.
type env struct {
	cfg    *config
	logger log.Logger
	client *remote.Client
	store  state.Store
	close  func()
}

func setup(ctx context.Context, cliCtx *cli.Context) (*env, error) {
	cfg, err := loadConfig(cliCtx)
	if err != nil {
		return nil, err
	}
	logger := log.New(os.Stderr, cfg.Verbosity)

	ref, err := remote.ParseBlockRef(cfg.Block)
	if err != nil {
		return nil, err
	}

	stopMetrics := func() {}
	if cfg.EnableMetrics {
		metrics.InitializePrometheusMetrics()
		url, stop, err := startMetricsServer(cfg.MetricsAddr)
		if err != nil {
			return nil, err
		}
		logger.Info("metrics server started", "url", url)
		stopMetrics = stop
	}

	client, err := remote.Dial(ctx, cfg.RPC, remote.WithLogger(logger))
	if err != nil {
		stopMetrics()
		return nil, err
	}

	var store state.Store
	if cfg.Unverified {
		store = unverified.New(client, ref, unverified.WithLogger(logger))
	} else {
		store = verified.New(client, ref, verified.WithLogger(logger))
	}
	return &env{
		cfg:    cfg,
		logger: logger,
		client: client,
		store:  store,
		close: func() {
			client.Close()
			stopMetrics()
		},
	}, nil
}

func startMetricsServer(addr string) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen metrics addr [%v]", addr)
	}

	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	handler := handlers.CompressHandler(router)

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/metrics", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		goes.WaitContext(ctx)
	}, nil
}

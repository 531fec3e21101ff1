// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"
)

type config struct {
	RPC           string `yaml:"rpc"`
	Block         string `yaml:"block"`
	Unverified    bool   `yaml:"unverified"`
	Verbosity     int    `yaml:"verbosity"`
	EnableMetrics bool   `yaml:"enable-metrics"`
	MetricsAddr   string `yaml:"metrics-addr"`
}

// loadConfig starts from the flag defaults, applies the config file if any,
// then the flags set on the command line.
func loadConfig(ctx *cli.Context) (*config, error) {
	cfg := &config{
		RPC:           ctx.GlobalString(rpcFlag.Name),
		Block:         ctx.GlobalString(blockFlag.Name),
		Unverified:    ctx.GlobalBool(unverifiedFlag.Name),
		Verbosity:     ctx.GlobalInt(verbosityFlag.Name),
		EnableMetrics: ctx.GlobalBool(enableMetricsFlag.Name),
		MetricsAddr:   ctx.GlobalString(metricsAddrFlag.Name),
	}
	path := ctx.GlobalString(configFlag.Name)
	if path == "" {
		return cfg, nil
	}
	if err := cfg.readFile(path); err != nil {
		return nil, err
	}

	if ctx.GlobalIsSet(rpcFlag.Name) {
		cfg.RPC = ctx.GlobalString(rpcFlag.Name)
	}
	if ctx.GlobalIsSet(blockFlag.Name) {
		cfg.Block = ctx.GlobalString(blockFlag.Name)
	}
	if ctx.GlobalIsSet(unverifiedFlag.Name) {
		cfg.Unverified = ctx.GlobalBool(unverifiedFlag.Name)
	}
	if ctx.GlobalIsSet(verbosityFlag.Name) {
		cfg.Verbosity = ctx.GlobalInt(verbosityFlag.Name)
	}
	if ctx.GlobalIsSet(enableMetricsFlag.Name) {
		cfg.EnableMetrics = ctx.GlobalBool(enableMetricsFlag.Name)
	}
	if ctx.GlobalIsSet(metricsAddrFlag.Name) {
		cfg.MetricsAddr = ctx.GlobalString(metricsAddrFlag.Name)
	}
	return cfg, nil
}

func (c *config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open config")
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrapf(err, "decode config %v", path)
	}
	return nil
}

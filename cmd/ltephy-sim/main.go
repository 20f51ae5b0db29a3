// Copyright (c) 2024, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ltesim/ltephy/logger"
	"github.com/ltesim/ltephy/phy"
	"github.com/ltesim/ltephy/prng"
	"github.com/ltesim/ltephy/progctx"
	"github.com/ltesim/ltephy/simulation"
	"github.com/ltesim/ltephy/stats"
)

type MainArgs struct {
	ScenarioFile string
	ConfigFile   string
	LogLevel     string
	Seed         int64
	MetricsFile  string
	KpiFile      string
}

var args MainArgs

func parseArgs() {
	flag.StringVar(&args.ScenarioFile, "scenario", "", "YAML scenario file: UEs, interferers, propagation model and duration.")
	flag.StringVar(&args.ConfigFile, "config", "", "YAML PHY configuration file. Environment variables with prefix "+phy.EnvPrefix+" override it.")
	flag.StringVar(&args.LogLevel, "log", "warn", "set logging level: trace, debug, info, note, warn, error, off.")
	flag.Int64Var(&args.Seed, "seed", 0, "root random seed; 0 picks a time-based seed.")
	flag.StringVar(&args.MetricsFile, "metrics", "", "write Prometheus metrics in text format to this file at the end of the run.")
	flag.StringVar(&args.KpiFile, "kpi", "", "write the KPI summary as JSON to this file at the end of the run.")
	flag.Usage = usage
	flag.Parse()

	if args.ScenarioFile == "" || len(flag.Args()) > 0 {
		flag.Usage()
		os.Exit(2)
	}
}

func main() {
	parseArgs()
	level, err := logger.ParseLevelString(args.LogLevel)
	logger.FatalIfError(err)
	logger.SetLevel(level)

	ctx := progctx.New(context.Background())
	ctx.HandleSignals(syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, args, os.Stdout)
	if reason := ctx.Reason(); reason != "" {
		logger.Warnf("run interrupted: %s", reason)
	}
	ctx.Cancel(nil)
	ctx.Wait()
	logger.FatalIfError(err)
}

func run(ctx context.Context, args MainArgs, out io.Writer) error {
	prng.Init(args.Seed)

	scenario, err := simulation.LoadConfig(args.ScenarioFile)
	if err != nil {
		return err
	}
	phyCfg, err := phy.LoadConfig(args.ConfigFile)
	if err != nil {
		return err
	}
	if args.Seed != 0 && phyCfg.Seed == 0 {
		phyCfg.Seed = args.Seed
	}

	reg := prometheus.NewRegistry()
	collector, err := stats.NewCollector(reg)
	if err != nil {
		return err
	}
	tracers := stats.Tracers{collector}
	sim, err := simulation.NewSimulation(scenario, phyCfg, &tracers)
	if err != nil {
		return err
	}
	km := stats.NewKpiManager(sim.Scheduler())
	tracers = append(tracers, km)

	km.Start()
	runErr := sim.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	km.Stop(runErr != nil)

	printSummary(out, sim, km.Data())
	if args.KpiFile != "" {
		if err = km.SaveFile(args.KpiFile); err != nil {
			return err
		}
	}
	if args.MetricsFile != "" {
		if err = collector.WriteFile(args.MetricsFile); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(out io.Writer, sim *simulation.Simulation, kpi *stats.Kpi) {
	fmt.Fprintf(out, "simulated %d ms, status %s\n", kpi.TimeMs.PeriodMs, kpi.Status)
	links := make([]string, 0, len(kpi.Links))
	for name := range kpi.Links {
		links = append(links, name)
	}
	sort.Strings(links)
	for _, name := range links {
		l := kpi.Links[name]
		fmt.Fprintf(out, "%-3s tb ok %-8d error %-8d retx %-8d bler %6.2f%%  avg sinr %6.2f dB\n",
			name, l.TbOk, l.TbError, l.Retransmission, l.BlerPercentage, l.AvgSinrDb)
	}
	fmt.Fprintf(out, "%-6s %10s %10s %10s %10s\n", "node", "tx tb", "rx pkts", "rx sci", "ctrl err")
	for _, id := range sim.GetNodes() {
		c := sim.Node(id).Counters()
		var rx uint64
		for _, n := range c.RxPackets {
			rx += n
		}
		fmt.Fprintf(out, "%-6d %10d %10d %10d %10d\n", id, c.TxTbs, rx, c.RxSci, c.RxCtrlErrors)
	}
}

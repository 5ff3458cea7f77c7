// zpool-influxdb prints pool statistics in InfluxDB line protocol, either
// once (telegraf inputs.exec) or once per stdin trigger line (telegraf
// inputs.execd). Metric lines go to stdout; diagnostics go to stderr.
package main

import (
	"bufio"
	goflag "flag"
	"fmt"
	"os"

	"github.com/go-logr/zapr"
	"github.com/richardelling/zpool-influxdb/pkg/collector"
	"github.com/richardelling/zpool-influxdb/pkg/config"
	"github.com/richardelling/zpool-influxdb/pkg/zpool"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"k8s.io/klog/v2"
)

// Version can be set at build time using -ldflags
// Example: go build -ldflags="-X main.Version=1.0.0"
var Version = "dev"

func main() {
	// Initialize klog first
	klog.InitFlags(nil)
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)

	execd := flag.BoolP("execd", "e", false, "Run in telegraf execd mode: one sampling pass per stdin line")
	noHistograms := flag.BoolP("no-histograms", "n", false, "Don't print histogram data (reduces cardinality)")
	sumHistogramBuckets := flag.BoolP("sum-histogram-buckets", "s", false, "Sum histogram bucket values (cumulative buckets)")
	uint64Support := flag.BoolP("uint64", "u", false, "Emit unmasked unsigned 64-bit values (requires a uint64-capable consumer)")
	configFile := flag.String("config", "", "Optional YAML config file")
	logLevel := flag.String("log-level", "info", "Log level: info or debug")
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [--execd][--no-histograms][--sum-histogram-buckets] [poolname]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Show version if requested
	if *showVersion {
		fmt.Printf("zpool-influxdb version %s\n", Version)
		return
	}

	// Validate log level
	if *logLevel != "info" && *logLevel != "debug" {
		klog.Fatalf("Invalid log level: %s. Must be one of: info, debug", *logLevel)
	}

	// Validate and set log format
	if *logFormat != "text" && *logFormat != "json" {
		klog.Fatalf("Invalid log format: %s. Must be one of: text, json", *logFormat)
	}
	if *logFormat == "json" {
		// Configure zap for JSON logging
		var zapLog *zap.Logger
		var err error
		if *logLevel == "debug" {
			zapLog, err = zap.NewDevelopment()
		} else {
			zapLog, err = zap.NewProduction()
		}
		if err != nil {
			klog.Fatalf("Failed to initialize JSON logger: %v", err)
		}
		defer zapLog.Sync()

		// Set klog to use zap backend for JSON output
		klog.SetLogger(zapr.NewLogger(zapLog))
	}

	cfg := config.NewConfig()
	cfg.ExecdMode = *execd
	cfg.NoHistograms = *noHistograms
	cfg.SumHistogramBuckets = *sumHistogramBuckets
	if *uint64Support {
		cfg.Uint64Support = true
	}
	cfg.PoolName = flag.Arg(0)
	cfg.LogLevel = *logLevel
	if *configFile != "" {
		if err := cfg.LoadFile(*configFile); err != nil {
			klog.Fatalf("Failed to load config file: %v", err)
		}
	}

	// Set klog verbosity based on log level
	if *logLevel == "debug" {
		goflag.Set("v", "1")
	}

	handle, err := zpool.Init(cfg)
	if err != nil {
		klog.Fatalf("Cannot initialize pool statistics source. Is the zfs module loaded? %v", err)
	}

	col := collector.New(cfg, os.Stdout)
	os.Exit(run(cfg, handle, col))
}

// run drives sampling passes and returns the process exit status: the last
// failing pool's status class, or zero.
func run(cfg *config.Config, handle *zpool.Handle, col *collector.Collector) int {
	if !cfg.ExecdMode {
		return int(runPass(handle, col))
	}

	// Each trigger line (content ignored) starts one pass; end of input
	// ends the loop. There is no in-band way to cancel a pass in flight.
	status := collector.StatusOK
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		status = runPass(handle, col)
	}
	if err := scanner.Err(); err != nil {
		klog.Errorf("trigger input failed: %v", err)
	}
	klog.Flush()
	return int(status)
}

func runPass(handle *zpool.Handle, col *collector.Collector) collector.Status {
	pools, err := handle.Pools()
	if err != nil {
		klog.Errorf("cannot enumerate pools: %v", err)
		return collector.StatusRefreshFailed
	}

	list := make([]collector.Pool, len(pools))
	for i, p := range pools {
		list[i] = p
	}
	return col.Run(list)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/davecgh/go-spew/spew"
	logging "github.com/ipfs/go-log/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mahdiidarabi/ecdsa-hnp/internal/metrics"
	"github.com/mahdiidarabi/ecdsa-hnp/pkg/hnp"
	"github.com/mahdiidarabi/ecdsa-hnp/pkg/lattice"
)

var log = logging.Logger("cmd/recovery")

func main() {
	var (
		signaturesFile = flag.String("signatures", "", "Path to signatures file (CSV or JSON)")
		format         = flag.String("format", "csv", "Signature file format (csv or json)")
		curveName      = flag.String("curve", "secp256r1", "Curve of the signing key")
		hashName       = flag.String("hash", "sha256", "Hash function of the signatures ("+strings.Join(hnp.HashNames(), ", ")+")")
		paramsFile     = flag.String("params", "", "Path to a JSON attack parameter file (defaults are used when empty)")
		templatesFile  = flag.String("templates", "", "Path to a JSON bound template file")
		dataset        = flag.String("dataset", "", "Dataset name to look up in the template file")
		method         = flag.String("method", "", "Override the attack method (svp, sieve, np, round, cvp)")
		dimension      = flag.Int("dimension", 0, "Override the lattice dimension")
		workers        = flag.Int("workers", -1, "Override the number of parallel attempts (0 = auto-detect based on CPU cores)")
		delta          = flag.Float64("delta", lattice.DefaultDelta, "LLL reduction parameter in (0.25, 1)")
		limit          = flag.Int("sieve-limit", 0, "Maximum number of lifts tested by the sieve method (0 = all)")
		metricsAddr    = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
		logLevel       = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dumpParams     = flag.Bool("dump-params", false, "Print the effective parameters before running")
	)
	flag.Parse()

	if *signaturesFile == "" {
		fmt.Fprintf(os.Stderr, "Error: --signatures is required\n")
		flag.Usage()
		os.Exit(1)
	}
	if err := logging.SetLogLevelRegex("hnp.*|lattice|cmd/.*", *logLevel); err != nil {
		fatalf("invalid log level: %v", err)
	}

	params := hnp.DefaultParams()
	if *paramsFile != "" {
		var err error
		if params, err = hnp.LoadParams(*paramsFile); err != nil {
			fatalf("%v", err)
		}
	}
	if *method != "" {
		params = params.WithMethod(hnp.Method(*method))
	}
	if *dimension > 0 {
		params = params.WithDimension(*dimension)
	}
	if *workers >= 0 {
		params.MaxAttempts = *workers
	}
	if *templatesFile != "" {
		bounds, err := lookupTemplate(*templatesFile, *dataset, params)
		if err != nil {
			fatalf("%v", err)
		}
		params = params.WithBounds(bounds)
	}
	if err := params.Validate(); err != nil {
		fatalf("%v", err)
	}
	if *dumpParams {
		spew.Fdump(os.Stderr, params)
	}

	parser, err := hnp.NewParser(*format)
	if err != nil {
		fatalf("%v", err)
	}
	client, err := hnp.NewClientByName(*curveName, *hashName)
	if err != nil {
		fatalf("%v", err)
	}
	client = client.
		WithParser(parser).
		WithParams(params).
		WithReducer(lattice.LLL{Delta: *delta}).
		WithEnumerator(lattice.RowEnumerator{Limit: *limit})

	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		collector, err := metrics.New(reg)
		if err != nil {
			fatalf("%v", err)
		}
		client = client.WithObserver(collector)
		go serveMetrics(*metricsAddr, reg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Loading signatures from %s...\n", *signaturesFile)
	result, err := client.RecoverKey(ctx, *signaturesFile)
	switch {
	case errors.Is(err, hnp.ErrAttackExhausted):
		fmt.Println("\n[-] Private key not found.")
		os.Exit(2)
	case errors.Is(err, context.Canceled):
		fmt.Println("\n[-] Interrupted.")
		os.Exit(130)
	case err != nil:
		fatalf("%v", err)
	}

	fmt.Printf("\n[+] Successfully recovered private key!\n")
	fmt.Printf("    Private key: %#x\n", result.PrivateKey)
	fmt.Printf("    Attempt: %s (%s, dimension %d)\n", result.Name, result.Method, result.Dimension)
	if result.Beta == 0 {
		fmt.Printf("    Round: %d (LLL)\n", result.Round)
	} else {
		fmt.Printf("    Round: %d (BKZ-%d)\n", result.Round, result.Beta)
	}
	if result.Row >= 0 {
		fmt.Printf("    Row: %d\n", result.Row)
	}
	fmt.Printf("    Guesses: %d\n", result.Guesses)
	fmt.Printf("    Information: %s\n", result.Info)
	fmt.Printf("    Elapsed: %s\n", result.Elapsed)
}

// lookupTemplate picks the bounds for the number of signatures the
// campaign will draw.
func lookupTemplate(path, dataset string, params hnp.Params) (hnp.BoundsConfig, error) {
	if dataset == "" {
		return hnp.BoundsConfig{}, errors.New("--dataset is required with --templates")
	}
	templates, err := hnp.LoadTemplates(path)
	if err != nil {
		return hnp.BoundsConfig{}, err
	}
	return templates.Lookup(dataset, params.Dimension, params.Attack.Num)
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	log.Infof("Serving metrics on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("metrics server: %v", err)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

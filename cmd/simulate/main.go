package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mahdiidarabi/ecdsa-hnp/internal/parser"
	"github.com/mahdiidarabi/ecdsa-hnp/internal/simulate"
	"github.com/mahdiidarabi/ecdsa-hnp/pkg/ec"
	"github.com/mahdiidarabi/ecdsa-hnp/pkg/hnp"
)

func main() {
	def := simulate.DefaultConfig()
	var (
		output    = flag.String("output", "", "Path of the signature file to write")
		format    = flag.String("format", "csv", "Signature file format (csv or json)")
		curveName = flag.String("curve", "secp256r1", "Curve of the simulated key")
		hashName  = flag.String("hash", "sha256", "Hash function used for signing")
		count     = flag.Int("count", def.Count, "Number of signatures")
		base      = flag.Int64("base", def.Base, "Constant part of every signing duration")
		tTime     = flag.Int64("ttime", def.TTime, "Duration added per nonce bit")
		sdev      = flag.Float64("sdev", def.SDev, "Standard deviation of the Gaussian timing noise")
		nonceBits = flag.Int("nonce-bits", 0, "Draw nonces below 2^nonce-bits (0 = full range)")
		dataLen   = flag.Int("data-len", def.DataLen, "Length of the random signed message")
		noKey     = flag.Bool("no-private-key", false, "Omit the private key from the output file")
	)
	flag.Parse()

	if *output == "" {
		fmt.Fprintf(os.Stderr, "Error: --output is required\n")
		flag.Usage()
		os.Exit(1)
	}

	f, err := parser.ParseFormat(*format)
	if err != nil {
		fatalf("%v", err)
	}
	curve, err := ec.GetCurve(*curveName)
	if err != nil {
		fatalf("%v", err)
	}
	newHash, err := hnp.NewHash(*hashName)
	if err != nil {
		fatalf("%v", err)
	}

	cfg := def
	cfg.Count = *count
	cfg.Base = *base
	cfg.TTime = *tTime
	cfg.SDev = *sdev
	cfg.NonceBits = *nonceBits
	cfg.DataLen = *dataLen

	res, err := simulate.Run(curve, newHash, cfg)
	if err != nil {
		fatalf("%v", err)
	}
	priv := res.File.PrivateKey
	if *noKey {
		res.File.PrivateKey = nil
	}
	if err := parser.WriteFile(*output, f, res.File); err != nil {
		fatalf("%v", err)
	}

	sum := res.Summary()
	fmt.Printf("[+] Wrote %d signatures on %s to %s\n", len(res.File.Records), curve.Name(), *output)
	fmt.Printf("    Private key: %#x\n", priv)
	fmt.Printf("    Elapsed: mean %.2f, stddev %.2f\n", sum.ElapsedMean, sum.ElapsedStdDev)
	fmt.Printf("    Nonce bits: mean %.2f, median %.2f\n", sum.BitsMean, sum.BitsMedian)
	fmt.Printf("    Correlation: %.4f\n", sum.Correlation)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

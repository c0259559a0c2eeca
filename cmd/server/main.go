package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/CK6170/RotorBalance-go/internal/server"
)

func main() {
	klog.InitFlags(nil)
	def := server.DefaultOptions()
	var (
		addr     = flag.String("addr", getEnv("BALANCE_ADDR", "127.0.0.1:8080"), "http listen address")
		maxBody  = flag.Int64("max-body", int64(getEnvInt("BALANCE_MAX_BODY", int(def.MaxBodyBytes))), "max request body in bytes")
		results  = flag.Int("results", getEnvInt("BALANCE_RESULTS", def.Results), "results kept for chart/download")
		shutdown = flag.Duration("shutdown-timeout", getEnvDuration("BALANCE_SHUTDOWN_TIMEOUT", 5*time.Second), "graceful shutdown timeout")
	)
	flag.Parse()
	defer klog.Flush()

	opts := def
	opts.MaxBodyBytes = *maxBody
	opts.Results = *results
	s := server.New(opts)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		klog.InfoS("Serving", "address", "http://"+*addr, "balance", "POST /balance", "results", "/ws/results")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		klog.InfoS("Shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), *shutdown)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	if err := g.Wait(); err != nil {
		klog.ErrorS(err, "Server stopped")
		klog.Flush()
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return val
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return val
	}
	return fallback
}

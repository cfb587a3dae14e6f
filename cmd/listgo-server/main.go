// Command listgo-server serves a generated item dataset over the listgo
// HTTP API, with best-effort persistence of order and selection.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/listgo"
	"github.com/hupe1980/listgo/blobstore"
	s3store "github.com/hupe1980/listgo/blobstore/s3"
	"github.com/hupe1980/listgo/dataset"
	"github.com/hupe1980/listgo/httpapi"
)

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	addrVar := flag.String("addr", "localhost:4000", "the address to listen on")
	itemsVar := flag.Int("items", 1_000_000, "number of items to generate")
	originsVar := flag.String("origins", "", "comma-separated allow-list of CORS origins")
	rateVar := flag.Float64("rate", 0, "request rate limit per second (0 disables)")
	stateDirVar := flag.String("state", "", "directory for state snapshots (empty disables persistence)")
	s3BucketVar := flag.String("s3-bucket", "", "S3 bucket for state snapshots (overrides -state)")
	s3PrefixVar := flag.String("s3-prefix", "listgo/", "S3 key prefix for state snapshots")
	snapshotEveryVar := flag.Duration("snapshot-interval", 30*time.Second, "how often to snapshot state")
	debugVar := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debugVar {
		level = slog.LevelDebug
	}
	logger := listgo.NewTextLogger(level)

	start := time.Now()
	ds := dataset.Generate(*itemsVar)
	logger.Info("dataset generated", "items", ds.Len(), "duration", time.Since(start))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := buildStateStore(ctx, *stateDirVar, *s3BucketVar, *s3PrefixVar)
	if err != nil {
		return err
	}

	opts := []listgo.Option{listgo.WithLogger(logger)}
	if store != nil {
		opts = append(opts, listgo.WithStateStore(store))
	}
	lg, err := listgo.New(ds, opts...)
	if err != nil {
		return err
	}
	if err := lg.Restore(ctx); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}
	logger.Info("state restored", "order", len(lg.Order()), "selected", len(lg.Selection()))

	apiOpts := []httpapi.Option{httpapi.WithLogger(logger)}
	if *originsVar != "" {
		apiOpts = append(apiOpts, httpapi.WithAllowedOrigins(strings.Split(*originsVar, ",")...))
	}
	if *rateVar > 0 {
		apiOpts = append(apiOpts, httpapi.WithRateLimit(*rateVar, int(*rateVar)))
	}
	api := httpapi.NewServer(lg, apiOpts...)

	httpServer := &http.Server{
		Addr:              *addrVar,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", "addr", *addrVar)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if store != nil {
		g.Go(func() error {
			t := time.NewTicker(*snapshotEveryVar)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					if err := lg.Snapshot(ctx); err != nil {
						logger.Error("periodic snapshot failed", "error", err)
					}
				case <-ctx.Done():
					return nil
				}
			}
		})
	}

	err = g.Wait()
	// Close takes the final snapshot when persistence is configured.
	if closeErr := lg.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func buildStateStore(ctx context.Context, dir, s3Bucket, s3Prefix string) (blobstore.Store, error) {
	if s3Bucket != "" {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return s3store.NewStore(awss3.NewFromConfig(cfg), s3Bucket, s3Prefix), nil
	}
	if dir != "" {
		return blobstore.NewLocalStore(dir)
	}
	return nil, nil
}

// Command texcache loads textures through the cache and inspects the
// persistent content cache.
//
// Usage:
//
//	texcache [flags] load <path-or-url>...
//	texcache [flags] inspect <container>...
//	texcache [flags] export -o out.webp <container>
//	texcache [flags] prune -target 256MiB
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/meigma/texcache"
	"github.com/meigma/texcache/http"
	"github.com/meigma/texcache/mirror"
)

type config struct {
	cacheDir   string
	maxBytes   int64
	mirrorRef  string
	plainHTTP  bool
	workers    int
	lowPrio    bool
	maxPixels  int64
	timeout    time.Duration
	verbose    bool
	usage      string
	userAgent  string
	dockerAuth bool
}

func main() {
	cfg, args := parseFlags()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "load":
		err = runLoad(ctx, cfg, rest)
	case "inspect":
		err = runInspect(rest)
	case "export":
		err = runExport(rest)
	case "prune":
		err = runPrune(cfg, rest)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func parseFlags() (config, []string) {
	var cfg config
	var maxBytes string
	flag.StringVar(&cfg.cacheDir, "cache-dir", defaultCacheDir(), "persistent content cache directory (empty disables it)")
	flag.StringVar(&maxBytes, "cache-max", "", "content cache size limit (e.g. 512MiB)")
	flag.StringVar(&cfg.mirrorRef, "mirror", "", "OCI repository used as a shared content mirror")
	flag.BoolVar(&cfg.plainHTTP, "plain-http", false, "talk to the mirror over plain HTTP")
	flag.BoolVar(&cfg.dockerAuth, "docker-auth", true, "use Docker credentials for the mirror")
	flag.IntVar(&cfg.workers, "workers", 0, "decode workers (0 picks from priority)")
	flag.BoolVar(&cfg.lowPrio, "low-priority", false, "use half the decode workers")
	flag.Int64Var(&cfg.maxPixels, "max-pixels", texcache.DefaultMaxPixels, "pixel budget per texture")
	flag.DurationVar(&cfg.timeout, "timeout", time.Minute, "time limit for a load")
	flag.BoolVar(&cfg.verbose, "v", false, "verbose logging")
	flag.StringVar(&cfg.usage, "usage", "default", "texture usage: "+usageList())
	flag.StringVar(&cfg.userAgent, "user-agent", "texcache", "User-Agent for HTTP fetches")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] load|inspect|export|prune ...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if maxBytes != "" {
		n, err := parseBytes(maxBytes)
		if err != nil {
			log.Fatalf("cache-max: %v", err)
		}
		cfg.maxBytes = n
	}
	return cfg, flag.Args()
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return dir + string(os.PathSeparator) + "texcache"
}

func usageList() string {
	var names []string
	for _, u := range texcache.Usages() {
		if u == texcache.UsageCustom {
			continue
		}
		names = append(names, u.String())
	}
	return strings.Join(names, ", ")
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func cacheOptions(cfg config, logger *slog.Logger) ([]texcache.Option, error) {
	opts := []texcache.Option{
		texcache.WithLogger(logger),
		texcache.WithWorkers(cfg.workers),
		texcache.WithDefaultMaxPixels(cfg.maxPixels),
		texcache.WithFetcher(http.NewFetcher(http.WithUserAgent(cfg.userAgent))),
	}
	if cfg.lowPrio {
		opts = append(opts, texcache.WithPriority(texcache.PriorityLow))
	}
	if cfg.cacheDir != "" {
		c, err := openDisk(cfg.cacheDir, cfg.maxBytes)
		if err != nil {
			return nil, err
		}
		opts = append(opts, texcache.WithContentCache(c))
	}
	if cfg.mirrorRef != "" {
		mopts := []mirror.Option{
			mirror.WithLogger(logger),
			mirror.WithPlainHTTP(cfg.plainHTTP),
			mirror.WithUserAgent(cfg.userAgent),
		}
		if cfg.dockerAuth {
			mopts = append(mopts, mirror.WithDockerConfig())
		}
		m, err := mirror.NewRemote(cfg.mirrorRef, mopts...)
		if err != nil {
			return nil, fmt.Errorf("mirror: %w", err)
		}
		opts = append(opts, texcache.WithMirror(m))
	}
	return opts, nil
}

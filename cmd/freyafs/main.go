// Command freyafs mounts a FreyaFS volume: plaintext files in, Mix&Slice
// encrypted artifacts out, split between a local kept-prefix sidecar and
// a content-addressed block store.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	libtrace "github.com/billziss-gh/golib/trace"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/winfsp/cgofuse/fuse"

	"github.com/freyafs/freyafs/internal/blockstore"
	"github.com/freyafs/freyafs/internal/cache"
	"github.com/freyafs/freyafs/internal/freyafs"
	"github.com/freyafs/freyafs/internal/manifest"
	"github.com/freyafs/freyafs/internal/util"
)

func warn(format string, a ...interface{}) {
	format = "%s: " + format + "\n"
	a = append([]interface{}{strings.TrimSuffix(filepath.Base(os.Args[0]), ".exe")}, a...)
	fmt.Fprintf(os.Stderr, format, a...)
}

func readPassword() ([]byte, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	var pw string
	if _, err := fmt.Scanln(&pw); err != nil {
		return nil, err
	}
	return []byte(pw), nil
}

func run() (ec int) {
	debug := false
	multithread := false
	cacheMaxMem := int64(0)
	evictionTechnique := "LRU"
	dumpMetadata := false
	ipfsAPI := ""
	metricsAddr := ""
	opts := util.Optlist{}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [options] mountpoint data\n\n",
			strings.TrimSuffix(filepath.Base(os.Args[0]), ".exe"))
		flag.PrintDefaults()
	}

	flag.BoolVar(&debug, "debug", debug, "trace every FUSE call")
	flag.BoolVar(&multithread, "multithread", multithread, "serve FUSE calls on multiple OS threads")
	flag.Int64Var(&cacheMaxMem, "cache-max-mem", cacheMaxMem, "cap resident plaintext `bytes` (0 = unlimited)")
	flag.StringVar(&evictionTechnique, "eviction-technique", evictionTechnique, "`name` of the eviction policy to use (LRU)")
	flag.BoolVar(&dumpMetadata, "dump-metadata", dumpMetadata, "print a report of mounted files on startup")
	flag.StringVar(&ipfsAPI, "ipfs-api", ipfsAPI, "base `url` of the IPFS block/put and block/get HTTP API")
	flag.StringVar(&metricsAddr, "metrics-addr", metricsAddr, "optional `host:port` to serve Prometheus metrics on")
	flag.Var(&opts, "o", "FUSE mount `options`")

	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		return 2
	}
	mntpnt := flag.Arg(0)
	data := flag.Arg(1)

	if debug {
		libtrace.Verbose = true
		libtrace.Pattern = "*,github.com/freyafs/freyafs/*"
	}

	var policy cache.Policy
	switch evictionTechnique {
	case "", "LRU":
		policy = cache.LRU
	default:
		warn("unknown eviction technique: %s", evictionTechnique)
		return 2
	}

	if err := os.MkdirAll(data, 0o700); err != nil {
		warn("data directory error: %v", err)
		return 1
	}

	password, err := readPassword()
	if err != nil {
		warn("password error: %v", err)
		return 1
	}
	key := manifest.DeriveKey(password)

	store := blockstore.NewIPFS(ipfsAPI)

	fs, err := freyafs.New(freyafs.Config{
		Root:         data,
		Key:          key,
		Store:        store,
		MemoryCap:    cacheMaxMem,
		Policy:       policy,
		DumpMetadata: dumpMetadata,
	})
	if err != nil {
		warn("mount error: %v", err)
		return 1
	}

	if metricsAddr != "" {
		if err := fs.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
			warn("metrics registration error: %v", err)
			return 1
		}
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				warn("metrics server error: %v", err)
			}
		}()
	}

	mountopts := []string{}
	if !multithread {
		mountopts = append(mountopts, "-s")
	}
	for _, s := range opts.Split() {
		mountopts = append(mountopts, "-o"+s)
	}

	host := fuse.NewFileSystemHost(fs)
	host.SetCapReaddirPlus(true)

	fmt.Printf("FreyaFS mounting %s on %s.\n", data, mntpnt)
	ok := host.Mount(mntpnt, mountopts)

	if err := fs.Dump(); err != nil {
		warn("manifest save error: %v", err)
		ec = 1
	}
	if !ok {
		ec = 1
	}
	return ec
}

func main() {
	os.Exit(run())
}

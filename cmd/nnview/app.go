package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/viant/nnview/config"
	"github.com/viant/nnview/dataset"
	"github.com/viant/nnview/engine"
	"github.com/viant/nnview/index"
	"github.com/viant/nnview/knn"
	"github.com/viant/nnview/logging"
	"github.com/viant/nnview/metrics"
	"github.com/viant/nnview/nntable"
	"github.com/viant/nnview/point"
	"github.com/viant/nnview/session"
)

type flags struct {
	configPath  string
	csv         string
	db          string
	datasetID   string
	query       int
	k           int
	index       string
	policy      string
	interactive bool
	list        bool
	verify      bool
	sql         string
	metricsAddr string
	logLevel    string
	logFormat   string
}

func parseFlags(args []string, stderr io.Writer) (*flags, map[string]bool, error) {
	f := &flags{}
	fs := flag.NewFlagSet("nnview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&f.csv, "csv", "", "CSV file with file,x,y,label columns")
	fs.StringVar(&f.db, "db", "", "SQLite database; with -csv the points are imported")
	fs.StringVar(&f.datasetID, "dataset", "", "dataset id inside -db")
	fs.IntVar(&f.query, "query", -1, "query point id")
	fs.IntVar(&f.k, "k", -1, "neighbor count (default from config)")
	fs.StringVar(&f.index, "index", "", "index kind: auto, brute, partial, cover, vptree")
	fs.StringVar(&f.policy, "policy", "", "self-exclusion policy: id, first")
	fs.BoolVar(&f.interactive, "interactive", false, "read select/k commands from stdin")
	fs.BoolVar(&f.list, "list", false, "list datasets stored in -db and exit")
	fs.BoolVar(&f.verify, "verify", false, "cross-check -query against SQL ranking in -db")
	fs.StringVar(&f.sql, "sql", "", "run a SQL query against -db; the neighbors table ranks stored datasets")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text, json")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set, nil
}

func loadConfig(f *flags, set map[string]bool) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
	}
	overrides := map[string]func(){
		"csv":          func() { cfg.Dataset.CSV = f.csv },
		"db":           func() { cfg.Dataset.DB = f.db },
		"dataset":      func() { cfg.Dataset.ID = f.datasetID },
		"k":            func() { cfg.Query.DefaultK = f.k },
		"index":        func() { cfg.Query.Index = f.index },
		"policy":       func() { cfg.Query.Policy = f.policy },
		"metrics-addr": func() { cfg.Metrics.Addr = f.metricsAddr },
		"log-level":    func() { cfg.Log.Level = f.logLevel },
		"log-format":   func() { cfg.Log.Format = f.logFormat },
	}
	for name, apply := range overrides {
		if set[name] {
			apply()
		}
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	f, setFlags, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(f, setFlags)
	if err != nil {
		return err
	}
	logger, err := logging.New(stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	// the nn table loads points over a second connection, which a
	// single-connection in-memory database never frees
	if f.sql != "" && engine.IsMemory(cfg.Dataset.DB) {
		return errors.New("-sql requires a file database")
	}

	var store *point.SQLiteStore
	if cfg.Dataset.DB != "" {
		s, closeDB, err := openStore(cfg.Dataset.DB)
		if err != nil {
			return err
		}
		defer closeDB()
		store = s
	}
	if f.sql != "" {
		if store == nil {
			return errors.New("-sql requires -db")
		}
		return runSQL(ctx, store, f.sql, cfg.Query.Index, cfg.Query.Policy, stdout)
	}
	if f.list {
		if store == nil {
			return errors.New("-list requires -db")
		}
		ids, err := store.Datasets(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(stdout, id)
		}
		return nil
	}

	set, datasetID, err := loadSet(ctx, cfg, store, logger)
	if err != nil {
		return err
	}
	if datasetID != "" && cfg.Dataset.CSV != "" {
		fmt.Fprintf(stdout, "imported %d points as dataset %s\n", set.Len(), datasetID)
	}

	reg := metrics.NewRegistry()
	if cfg.Metrics.Addr != "" {
		shutdown := serveMetrics(cfg.Metrics.Addr, reg, logger)
		defer shutdown()
	}

	policy, err := knn.ParsePolicy(cfg.Query.Policy)
	if err != nil {
		return err
	}
	kind, err := index.ParseKind(cfg.Query.Index)
	if err != nil {
		return err
	}
	finder, err := knn.New(set,
		knn.WithPolicy(policy),
		knn.WithIndex(kind),
		knn.WithLogger(logger),
		knn.WithMetrics(reg),
	)
	if err != nil {
		return err
	}

	p := &printer{w: stdout}
	opts := []session.Option{
		session.WithK(cfg.Query.DefaultK),
		session.WithClasses(cfg.Classes...),
		session.WithImageDir(cfg.ImageDir),
		session.WithGalleryWidth(cfg.Gallery.Width),
		session.WithAsyncThreshold(cfg.Query.AsyncThreshold),
		session.WithLogger(logger),
		session.WithMetrics(reg),
	}
	if cfg.Query.Workers > 0 {
		opts = append(opts, session.WithWorkers(cfg.Query.Workers))
	}
	sess, err := session.New(set, finder, p.render, opts...)
	if err != nil {
		return err
	}

	if f.query >= 0 {
		if err := sess.OnPointSelected(ctx, f.query); err != nil {
			return err
		}
		sess.Wait()
		if err := sess.Err(); err != nil {
			return err
		}
		if f.verify {
			if err := verify(ctx, store, datasetID, sess, policy); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "verified against SQL ranking")
		}
	}
	if f.interactive {
		return interact(ctx, sess, cfg.Query.MaxK, stdin, stdout)
	}
	return nil
}

func openStore(dsn string) (*point.SQLiteStore, func(), error) {
	if err := engine.RegisterFunctions(); err != nil {
		return nil, nil, err
	}
	if err := nntable.Register(); err != nil {
		return nil, nil, err
	}
	db, err := engine.Open(dsn)
	if err != nil {
		return nil, nil, err
	}
	store, err := point.NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	nntable.SetSource(store)
	return store, func() {
		nntable.SetSource(nil)
		_ = db.Close()
	}, nil
}

// runSQL prints the rows of query tab separated. The temp.neighbors
// virtual table is available to it.
func runSQL(ctx context.Context, store *point.SQLiteStore, query, kind, policy string, out io.Writer) error {
	db := store.DB()
	ddl := fmt.Sprintf("CREATE VIRTUAL TABLE IF NOT EXISTS temp.neighbors USING %s(index=%s, policy=%s)", nntable.ModuleName, kind, policy)
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, ddl); err != nil {
		return err
	}
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, strings.Join(cols, "\t"))
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		cells := make([]string, len(values))
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			cells[i] = fmt.Sprint(v)
		}
		fmt.Fprintln(out, strings.Join(cells, "\t"))
	}
	return rows.Err()
}

// loadSet resolves the configured source. With a store and a CSV the CSV
// is imported under the configured id, or a fresh one.
func loadSet(ctx context.Context, cfg *config.Config, store *point.SQLiteStore, logger *logging.Logger) (*point.Set, string, error) {
	switch {
	case cfg.Dataset.CSV != "":
		set, err := dataset.LoadCSV(cfg.Dataset.CSV)
		if err != nil {
			return nil, "", err
		}
		if store == nil {
			return set, "", nil
		}
		id := cfg.Dataset.ID
		if id == "" {
			id = dataset.NewID()
		}
		if err := store.SavePoints(ctx, id, set); err != nil {
			return nil, "", err
		}
		nntable.Invalidate(id)
		logger.InfoContext(ctx, "dataset imported", "dataset", id, "points", set.Len())
		return set, id, nil
	case store != nil:
		if cfg.Dataset.ID == "" {
			return nil, "", errors.New("-dataset is required when loading from -db")
		}
		set, err := store.LoadPoints(ctx, cfg.Dataset.ID)
		if err != nil {
			return nil, "", err
		}
		logger.InfoContext(ctx, "dataset loaded", "dataset", cfg.Dataset.ID, "points", set.Len())
		return set, cfg.Dataset.ID, nil
	default:
		return nil, "", errors.New("no dataset: set -csv or -db")
	}
}

func serveMetrics(addr string, reg *metrics.Registry, logger *logging.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func verify(ctx context.Context, store *point.SQLiteStore, datasetID string, sess *session.Session, policy knn.Policy) error {
	if store == nil || datasetID == "" {
		return errors.New("-verify requires -db")
	}
	if policy != knn.ExcludeByID {
		return fmt.Errorf("-verify supports policy %q only", knn.ExcludeByID)
	}
	view, ok := sess.View()
	if !ok {
		return errors.New("no view to verify")
	}
	want, err := store.Nearest(ctx, datasetID, view.Query.ID, view.K)
	if err != nil {
		return err
	}
	if len(want) != len(view.Result) {
		return fmt.Errorf("verify: SQL returned %d neighbors, engine %d", len(want), len(view.Result))
	}
	for i := range want {
		if want[i] != view.Result[i] {
			return fmt.Errorf("verify: rank %d: SQL %+v, engine %+v", i, want[i], view.Result[i])
		}
	}
	return nil
}

// interact reads commands until EOF or "quit":
//
//	select <id>   make <id> the query point
//	k <n>         change the neighbor count
//	legend        list classes
func interact(ctx context.Context, sess *session.Session, maxK int, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		var err error
		switch cmd := strings.ToLower(fields[0]); cmd {
		case "quit", "exit":
			return nil
		case "legend":
			for _, e := range sess.Legend() {
				fmt.Fprintf(out, "%d\t%s\n", e.Label, e.Class)
			}
			continue
		case "select", "k":
			if len(fields) != 2 {
				err = fmt.Errorf("usage: %s <n>", cmd)
				break
			}
			var n int
			if n, err = strconv.Atoi(fields[1]); err != nil {
				err = fmt.Errorf("%s: invalid number %q", cmd, fields[1])
				break
			}
			if cmd == "select" {
				err = sess.OnPointSelected(ctx, n)
				break
			}
			if maxK > 0 && n > maxK {
				err = fmt.Errorf("k: %d exceeds max %d", n, maxK)
				break
			}
			err = sess.OnKChanged(ctx, n)
		default:
			err = fmt.Errorf("unknown command %q", fields[0])
		}
		sess.Wait()
		if err != nil {
			fmt.Fprintln(out, "error:", err)
		}
	}
	return scanner.Err()
}

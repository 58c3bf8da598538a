package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flowpilot/internal/api"
	"flowpilot/internal/snapshot"
	"flowpilot/internal/store"
)

const serverVersion = "0.1.0-dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "import" {
		if err := runImport(os.Args[2:]); err != nil {
			log.Fatalf("import failed: %v", err)
		}
		return
	}
	if len(os.Args) > 1 && os.Args[1] == "export" {
		if err := runExport(os.Args[2:]); err != nil {
			log.Fatalf("export failed: %v", err)
		}
		return
	}

	var (
		port       = flag.String("port", "8787", "HTTP listen port")
		dbPath     = flag.String("db", "./flowpilot.db", "path to SQLite database")
		marketSeed = flag.Int64("market-seed", 1, "seed for synthetic marketplace listings")
		simSeed    = flag.Int64("sim-seed", 1, "seed for leaderboard and analytics simulations")
	)
	flag.Parse()

	database, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := store.ApplyMigrations(database); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	mux := api.NewRouter(api.Deps{
		Persistent: store.NewSQLite(database),
		Version:    serverVersion,
		MarketSeed: *marketSeed,
		SimSeed:    *simSeed,
	})

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("graceful shutdown failed: %v", err)
		}
	}()

	log.Printf("flowpilot-server listening on %s", server.Addr)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	<-shutdownDone
}

// runImport restores a snapshot file into the persistent scope. The
// session scope of the snapshot lands in a throwaway memory store
// since sessions only exist while the server runs.
func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fromPath := fs.String("from", "", "path to a .json or .yaml snapshot file")
	dbPath := fs.String("db", "./flowpilot.db", "path to SQLite database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fromPath == "" {
		return errors.New("missing --from")
	}

	scopes, database, err := openScopes(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	snap, err := snapshot.ReadFile(*fromPath)
	if err != nil {
		return err
	}
	if err := snapshot.Import(context.Background(), scopes, snap); err != nil {
		return err
	}
	log.Printf("import complete from %s into %s", *fromPath, *dbPath)
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	outPath := fs.String("out", "", "destination .json or .yaml snapshot file")
	dbPath := fs.String("db", "./flowpilot.db", "path to SQLite database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outPath == "" {
		return errors.New("missing --out")
	}

	scopes, database, err := openScopes(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	snap, err := snapshot.Export(context.Background(), scopes)
	if err != nil {
		return err
	}
	if err := snapshot.WriteFile(*outPath, snap); err != nil {
		return err
	}
	log.Printf("export complete from %s into %s", *dbPath, *outPath)
	return nil
}

func openScopes(dbPath string) (store.Scopes, *sql.DB, error) {
	database, err := store.Open(dbPath)
	if err != nil {
		return store.Scopes{}, nil, err
	}
	if err := store.ApplyMigrations(database); err != nil {
		database.Close()
		return store.Scopes{}, nil, err
	}
	return store.Scopes{
		Session:    store.NewMemory(),
		Persistent: store.NewSQLite(database),
	}, database, nil
}

package internal

import (
	"context"
	"embed"
	stderrors "errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

const defaultPrefix = "apt:"

type InspectRow struct {
	Key       string
	Type      string
	Timestamp string
	EntityID  string
	Scope     string
	Detail    string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// DebugServer serves a read only view of the badger keys next to the live counters.
type DebugServer struct {
	log           *slog.Logger
	db            *badger.DB
	port          int
	mapper        RowMapper
	statsProvider StatsProvider
	tmpl          *template.Template
}

func NewDebugServer(log *slog.Logger, db *badger.DB, port int, mapper RowMapper, statsProvider StatsProvider) *DebugServer {
	if mapper == nil {
		mapper = DefaultMapper
	}
	return &DebugServer{
		log:           log,
		db:            db,
		port:          port,
		mapper:        mapper,
		statsProvider: statsProvider,
		tmpl:          template.Must(template.ParseFS(templatesFS, "inspect.html")),
	}
}

// Handler exposes /inspect?prefix=...
func (d *DebugServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/inspect", d.inspect)
	return mux
}

func (d *DebugServer) inspect(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		prefix = defaultPrefix
	}

	data := PageData{
		Prefix: prefix,
		Stats:  make(map[string]any),
	}
	if d.statsProvider != nil {
		data.Stats = d.statsProvider()
	}

	err := d.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			item := it.Item()
			if err := item.Value(func(val []byte) error {
				data.Items = append(data.Items, d.mapper(string(item.Key()), val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := d.tmpl.Execute(w, data); err != nil {
		d.log.Warn("Inspect page rendering failed", "error", err)
	}
}

// Run serves until ctx is done.
func (d *DebugServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", d.port),
		Handler:           d.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() {
		d.log.Info("Debug server started", "url", fmt.Sprintf("http://localhost:%d/inspect", d.port))
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// DefaultMapper only splits the key: "prefix:part1\x00part2...".
func DefaultMapper(key string, val []byte) InspectRow {
	row := InspectRow{
		Key:       strings.ReplaceAll(key, "\x00", " | "),
		Type:      "RAW",
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Scope:     "-",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}
	prefix, rest, found := strings.Cut(key, ":")
	if !found {
		return row
	}
	row.Type = strings.ToUpper(prefix)
	parts := strings.Split(rest, "\x00")
	row.EntityID = shortID(parts[len(parts)-1])
	if len(parts) > 1 {
		row.Scope = strings.Join(parts[:len(parts)-1], " / ")
	}
	return row
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

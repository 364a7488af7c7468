package ringserver

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ridge/parallel"
	"github.com/ridge/ringsource"
	"github.com/ridge/ringsource/framer"
	"github.com/ridge/ringsource/ringitem"
	"github.com/ridge/ringsource/source"
	"github.com/ridge/ringsource/thttp"
	"github.com/ridge/ringsource/tlog"
	"github.com/ridge/ringsource/tws"
	"go.uber.org/zap"
)

const (
	contentTypeRaw    = "application/octet-stream"
	contentTypeNDJSON = "application/x-ndjson"
	contentTypeText   = "text/plain"
	contentTypeJSON   = "application/json"
)

// Handler returns an HTTP handler serving the rings of the catalog.
//
// Rings are served as plain HTTP (read to the end of the source) or WebSocket
// (one binary message per record, tailing live rings), client's choice.
func Handler(catalog Catalog, config ringsource.Config) http.Handler {
	h := handler{catalog: catalog, config: config, metrics: newMetrics()}
	router := mux.NewRouter()
	router.Path("/ring").Methods(http.MethodGet).HandlerFunc(h.rings)
	router.Path("/ring/{name}").Methods(http.MethodGet).HandlerFunc(h.ring)
	router.Path("/ring/{name}").Methods(http.MethodHead).HandlerFunc(h.ringInfo)
	router.Path("/metrics").Methods(http.MethodGet).Handler(promhttp.HandlerFor(h.metrics.registry, promhttp.HandlerOpts{}))
	return router
}

type handler struct {
	catalog Catalog
	config  ringsource.Config
	metrics *metrics
}

// recordSummary is the NDJSON rendition of a record
type recordSummary struct {
	Type        ringitem.Type        `json:"type"`
	TypeName    string               `json:"typeName"`
	Size        int                  `json:"size"`
	BodyHeader  *ringitem.BodyHeader `json:"bodyHeader,omitempty"`
	PayloadSize int                  `json:"payloadSize"`
}

func summarize(rec ringitem.Record) recordSummary {
	return recordSummary{
		Type:        rec.Type,
		TypeName:    rec.Type.String(),
		Size:        rec.Size(),
		BodyHeader:  rec.BodyHeader,
		PayloadSize: len(rec.Payload),
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.WriteHeader(status)
	if _, err := w.Write([]byte(msg)); err != nil {
		tlog.Get(r.Context()).Info("Failed to write response", zap.Error(err))
	}
}

func (h handler) rings(w http.ResponseWriter, r *http.Request) {
	names := h.catalog.Names()
	var body []byte
	if thttp.NegotiateContentType(r, contentTypeText, contentTypeJSON) == contentTypeJSON {
		w.Header().Set("Content-Type", contentTypeJSON)
		body, _ = json.Marshal(names)
	} else {
		w.Header().Set("Content-Type", contentTypeText)
		if len(names) > 0 {
			body = []byte(strings.Join(names, "\n") + "\n")
		}
	}
	if _, err := w.Write(body); err != nil {
		tlog.Get(r.Context()).Info("Failed to write response", zap.Error(err))
	}
}

func (h handler) ringInfo(w http.ResponseWriter, r *http.Request) {
	uri, ok := h.catalog[mux.Vars(r)["name"]]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	origin, err := thttp.WebSocketOrigin(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	scheme, _, _ := strings.Cut(uri, ":")
	w.Header().Set("X-Ring-Scheme", scheme)
	w.Header().Set("X-Ring-URL", origin+r.URL.EscapedPath())
	w.WriteHeader(http.StatusOK)
}

func (h handler) ring(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	uri, ok := h.catalog[name]
	if !ok {
		writeError(w, r, http.StatusNotFound, "unknown ring "+name)
		return
	}
	ctx := tlog.With(r.Context(), zap.String("ring", name))

	skip, count, err := limits(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	// opened before upgrading, so that failures are reported as HTTP errors
	f, err := ringsource.Open(ctx, uri, h.config)
	if err != nil {
		h.metrics.failures.WithLabelValues(name).Inc()
		tlog.Get(ctx).Warn("Failed to open ring source", zap.Error(err))
		writeError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	defer f.Close()

	r = r.WithContext(ctx)
	if strings.ToLower(r.Header.Get("Connection")) == "upgrade" {
		h.ringWS(w, r, name, f, skip, count)
	} else {
		h.ringPlain(w, r, name, f, skip, count)
	}
}

// limits parses ?skip=N and ?count=N; count 0 means no limit
func limits(r *http.Request) (skip, count uint64, err error) {
	q := r.URL.Query()
	if s := q.Get("skip"); s != "" {
		if skip, err = strconv.ParseUint(s, 10, 64); err != nil {
			return 0, 0, errors.New("invalid skip: " + s)
		}
	}
	if s := q.Get("count"); s != "" {
		if count, err = strconv.ParseUint(s, 10, 64); err != nil {
			return 0, 0, errors.New("invalid count: " + s)
		}
	}
	return skip, count, nil
}

// Plain format: framed records back to back, the way they are stored in run
// files, or NDJSON summaries. Stops at the end of the source.
//
// Unfortunately, there is no nice way to report an error once the body has
// started. This handler sets an HTTP trailer (X-Error).
func (h handler) ringPlain(w http.ResponseWriter, r *http.Request, name string, f *framer.Framer, skip, count uint64) {
	ctx := r.Context()
	h.metrics.streams.WithLabelValues(name, "http").Inc()
	defer h.metrics.streams.WithLabelValues(name, "http").Dec()

	contentType := thttp.NegotiateContentType(r, contentTypeRaw, contentTypeNDJSON)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Trailer", "X-Error")
	w.Header().Add("Vary", "Accept")
	w.Header().Add("Vary", "Accept-Encoding")

	var writer io.Writer = w
	if thttp.ShouldGzip(r) {
		w.Header().Set("Content-Encoding", "gzip")
		gzw := gzip.NewWriter(w)
		defer gzw.Close()
		writer = gzw
	}
	encoder := json.NewEncoder(writer)

	var buf []byte
	var sent uint64
	for count == 0 || sent < count {
		rec, err := f.Next(ctx)
		if errors.Is(err, source.ErrExhausted) {
			return
		}
		if err != nil {
			if ctx.Err() == nil {
				h.metrics.failures.WithLabelValues(name).Inc()
				w.Header().Set("X-Error", err.Error())
			}
			return
		}
		if skip > 0 {
			skip--
			continue
		}

		if contentType == contentTypeNDJSON {
			err = encoder.Encode(summarize(rec))
		} else {
			buf = rec.AppendTo(buf[:0])
			_, err = writer.Write(buf)
		}
		if err != nil {
			tlog.Get(ctx).Info("Failed to write response", zap.Error(err))
			return
		}
		h.metrics.served(name, rec.Size())
		sent++
	}
}

// WebSocket: each binary message is one framed record; keeps tailing the
// ring until the source ends, the client hangs up or an error occurs
func (h handler) ringWS(w http.ResponseWriter, r *http.Request, name string, f *framer.Framer, skip, count uint64) {
	h.metrics.streams.WithLabelValues(name, "ws").Inc()
	defer h.metrics.streams.WithLabelValues(name, "ws").Dec()

	tws.Serve(w, r, tws.StreamerConfig, func(ctx context.Context, incoming <-chan tws.Message, outgoing chan<- tws.Message) error {
		return parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
			records := make(chan ringitem.Record)
			spawn("reader", parallel.Continue, func(ctx context.Context) error {
				defer close(records)
				err := ringsource.Pump(ctx, f, records)
				if err == nil || ctx.Err() != nil {
					return nil // the writer decides how the session ends
				}
				h.metrics.failures.WithLabelValues(name).Inc()
				return err
			})
			spawn("writer", parallel.Exit, func(ctx context.Context) error {
				var sent uint64
				for count == 0 || sent < count {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case _, ok := <-incoming:
						if ok {
							return errors.New("unexpected incoming message")
						}
						return nil
					case rec, ok := <-records:
						if !ok {
							return nil
						}
						if skip > 0 {
							skip--
							continue
						}
						select {
						case <-ctx.Done():
							return ctx.Err()
						case outgoing <- tws.Message{Binary: true, Data: rec.Marshal()}:
						}
						h.metrics.served(name, rec.Size())
						sent++
					}
				}
				return nil
			})
			return nil
		})
	})
}

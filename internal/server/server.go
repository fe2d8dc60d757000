package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	gqlgen "github.com/99designs/gqlgen/graphql"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/mwslabels/internal/graphql"
	"github.com/tournevent/mwslabels/internal/telemetry"
	"github.com/tournevent/mwslabels/pkg/mws"
	"github.com/tournevent/mwslabels/pkg/mws/inbound"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Server is the HTTP server for the label service.
type Server struct {
	port     int
	logger   *otelzap.Logger
	registry *prometheus.Registry
	metrics  *telemetry.Metrics
	resolver *graphql.Resolver
	schema   *ast.Schema
}

// Config holds server configuration.
type Config struct {
	Port   int
	Tracer trace.Tracer
}

// New creates a new server instance.
func New(cfg Config, backend mws.Backend, logger *otelzap.Logger) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(registry)

	return &Server{
		port:     cfg.Port,
		logger:   logger,
		registry: registry,
		metrics:  metrics,
		resolver: graphql.NewResolver(backend, logger, metrics, cfg.Tracer),
		schema:   graphql.Schema(),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health check
	r.Get("/health", s.handleHealth)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	// GraphQL endpoint
	r.HandleFunc("/graphql", s.handleGraphQL)

	// Label download
	r.Get("/v1/shipments/{shipmentID}/labels", s.handleLabels)

	return r
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func writeGraphQL(w http.ResponseWriter, status int, resp *gqlgen.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func graphQLError(format string, args ...interface{}) *gqlgen.Response {
	return &gqlgen.Response{Errors: gqlerror.List{gqlerror.Errorf(format, args...)}}
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeGraphQL(w, http.StatusMethodNotAllowed, graphQLError("Method not allowed, use POST"))
		return
	}

	var params gqlgen.RawParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeGraphQL(w, http.StatusBadRequest, graphQLError("Invalid JSON: %s", err.Error()))
		return
	}

	doc, errs := gqlparser.LoadQuery(s.schema, params.Query)
	if len(errs) > 0 {
		writeGraphQL(w, http.StatusUnprocessableEntity, &gqlgen.Response{Errors: errs})
		return
	}

	op := doc.Operations.ForName(params.OperationName)
	if op == nil {
		writeGraphQL(w, http.StatusBadRequest, graphQLError("Unknown operation %q", params.OperationName))
		return
	}

	ctx := r.Context()
	data := make(map[string]interface{}, len(op.SelectionSet))
	var fieldErrs gqlerror.List

	for _, sel := range op.SelectionSet {
		field, ok := sel.(*ast.Field)
		if !ok {
			continue
		}

		switch field.Name {
		case "__typename":
			if op.Operation == ast.Mutation {
				data[field.Alias] = "Mutation"
			} else {
				data[field.Alias] = "Query"
			}

		case "health":
			health, _ := s.resolver.Query().Health(ctx)
			data[field.Alias] = health

		case "pageTypes":
			types, _ := s.resolver.Query().PageTypes(ctx)
			data[field.Alias] = types

		case "getUniquePackageLabels":
			input, err := parseUniquePackageLabelsInput(field, params.Variables)
			if err != nil {
				fieldErrs = append(fieldErrs, gqlerror.Errorf("%s: %s", field.Alias, err.Error()))
				data[field.Alias] = nil
				continue
			}
			result, err := s.resolver.Mutation().GetUniquePackageLabels(ctx, input)
			if err != nil {
				fieldErrs = append(fieldErrs, gqlerror.Errorf("%s: %s", field.Alias, err.Error()))
				data[field.Alias] = nil
				continue
			}
			projected, err := project(result, field.SelectionSet)
			if err != nil {
				fieldErrs = append(fieldErrs, gqlerror.Errorf("%s: %s", field.Alias, err.Error()))
				data[field.Alias] = nil
				continue
			}
			data[field.Alias] = projected

		default:
			fieldErrs = append(fieldErrs, gqlerror.Errorf("Unknown field %q", field.Name))
		}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		writeGraphQL(w, http.StatusInternalServerError, graphQLError("Encoding response: %s", err.Error()))
		return
	}

	writeGraphQL(w, http.StatusOK, &gqlgen.Response{Data: raw, Errors: fieldErrs})
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	input := graphql.UniquePackageLabelsInput{
		ShipmentID:      chi.URLParam(r, "shipmentID"),
		PageType:        query.Get("pageType"),
		PackageLabelIds: query["cartonId"],
	}
	if input.PageType == "" {
		input.PageType = string(inbound.PageLetter2)
	}
	if c := query.Get("count"); c != "" {
		count, err := strconv.Atoi(c)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, &graphql.Error{Code: graphql.CodeInvalidInput, Message: "count must be an integer"})
			return
		}
		input.PackageLabelsToPrint = &count
	}

	result, err := s.resolver.Mutation().GetUniquePackageLabels(r.Context(), input)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, &graphql.Error{Code: graphql.CodeInternal, Message: err.Error()})
		return
	}
	if !result.Success {
		writeJSON(w, statusForError(result.Error), result)
		return
	}

	if r.Header.Get("Accept") == "application/zip" {
		doc := &inbound.TransportDocument{PdfDocument: result.TransportDocument.PdfDocument}
		data, err := doc.Decode()
		if err != nil {
			writeJSON(w, http.StatusBadGateway, &graphql.Error{Code: graphql.CodeInvalidResponse, Message: err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", input.ShipmentID+"-labels.zip"))
		w.Header().Set("X-Request-Id", result.Metadata.RequestID)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func statusForError(e *graphql.Error) int {
	switch {
	case e == nil:
		return http.StatusInternalServerError
	case e.Code == graphql.CodeInvalidInput:
		return http.StatusBadRequest
	case e.Retryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// project keeps only the fields named in sel, keyed by their aliases.
func project(v interface{}, sel ast.SelectionSet) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return selectFields(generic, sel), nil
}

func selectFields(v interface{}, sel ast.SelectionSet) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		if len(sel) == 0 {
			return val
		}
		out := make(map[string]interface{}, len(sel))
		collectFields(val, sel, out)
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = selectFields(item, sel)
		}
		return out
	default:
		return v
	}
}

func collectFields(obj map[string]interface{}, sel ast.SelectionSet, out map[string]interface{}) {
	for _, s := range sel {
		switch f := s.(type) {
		case *ast.Field:
			if f.Name == "__typename" {
				if f.ObjectDefinition != nil {
					out[f.Alias] = f.ObjectDefinition.Name
				}
				continue
			}
			out[f.Alias] = selectFields(obj[f.Name], f.SelectionSet)
		case *ast.InlineFragment:
			collectFields(obj, f.SelectionSet, out)
		case *ast.FragmentSpread:
			if f.Definition != nil {
				collectFields(obj, f.Definition.SelectionSet, out)
			}
		}
	}
}

// Input parsing helpers
func parseUniquePackageLabelsInput(field *ast.Field, vars map[string]interface{}) (graphql.UniquePackageLabelsInput, error) {
	var input graphql.UniquePackageLabelsInput

	arg := field.Arguments.ForName("input")
	if arg == nil {
		return input, fmt.Errorf("missing 'input' argument")
	}
	value, err := arg.Value.Value(vars)
	if err != nil {
		return input, fmt.Errorf("invalid 'input' argument: %w", err)
	}
	inputData, ok := value.(map[string]interface{})
	if !ok {
		return input, fmt.Errorf("missing or invalid 'input' argument")
	}

	input.ShipmentID, _ = inputData["shipmentId"].(string)
	input.PageType, _ = inputData["pageType"].(string)

	if raw, ok := inputData["packageLabelsToPrint"]; ok && raw != nil {
		count, err := toInt(raw)
		if err != nil {
			return input, fmt.Errorf("packageLabelsToPrint: %w", err)
		}
		input.PackageLabelsToPrint = &count
	}
	if ids, ok := inputData["packageLabelIds"].([]interface{}); ok {
		for _, id := range ids {
			if s, ok := id.(string); ok {
				input.PackageLabelIds = append(input.PackageLabelIds, s)
			}
		}
	}

	return input, nil
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

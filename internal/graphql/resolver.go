package graphql

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/mwslabels/internal/telemetry"
	"github.com/tournevent/mwslabels/pkg/mws"
	"github.com/tournevent/mwslabels/pkg/mws/inbound"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
)

// Resolver is the root resolver for the GraphQL schema.
// It holds dependencies needed by all resolvers.
type Resolver struct {
	Backend mws.Backend
	Logger  *otelzap.Logger
	Metrics *telemetry.Metrics
	Tracer  trace.Tracer
}

// NewResolver creates a new resolver with the given dependencies.
func NewResolver(backend mws.Backend, logger *otelzap.Logger, metrics *telemetry.Metrics, tracer trace.Tracer) *Resolver {
	return &Resolver{
		Backend: backend,
		Logger:  logger,
		Metrics: metrics,
		Tracer:  tracer,
	}
}

// Query returns the query resolver.
func (r *Resolver) Query() *QueryResolver {
	return &QueryResolver{r}
}

// Mutation returns the mutation resolver.
func (r *Resolver) Mutation() *MutationResolver {
	return &MutationResolver{r}
}

type QueryResolver struct{ *Resolver }

// Health reports service liveness.
func (r *QueryResolver) Health(ctx context.Context) (string, error) {
	return "ok", nil
}

// PageTypes lists the accepted label page types.
func (r *QueryResolver) PageTypes(ctx context.Context) ([]string, error) {
	types := inbound.PageTypes()
	out := make([]string, len(types))
	for i, pt := range types {
		out[i] = string(pt)
	}
	return out, nil
}

type MutationResolver struct{ *Resolver }

// GetUniquePackageLabels fetches the labels of an inbound shipment.
// Failures are reported in the result rather than as a resolver error.
func (r *MutationResolver) GetUniquePackageLabels(ctx context.Context, input UniquePackageLabelsInput) (*UniquePackageLabelsResult, error) {
	start := time.Now()
	meta := &Metadata{
		RequestID: uuid.New().String(),
		Mock:      r.Backend.MockMode(),
	}

	doc, err := r.fetchLabels(ctx, input)
	meta.DurationMs = int(time.Since(start).Milliseconds())

	mode := "live"
	if meta.Mock {
		mode = "mock"
	}

	if err != nil {
		gqlErr := errorToModel(err)
		r.Metrics.RecordRequest(inbound.OperationGetUniquePackageLabels, mode, "error", time.Since(start).Seconds())
		r.Metrics.RecordError(inbound.OperationGetUniquePackageLabels, gqlErr.Code)
		return &UniquePackageLabelsResult{Success: false, Error: gqlErr, Metadata: meta}, nil
	}

	r.Metrics.RecordRequest(inbound.OperationGetUniquePackageLabels, mode, "success", time.Since(start).Seconds())
	return &UniquePackageLabelsResult{
		Success:           true,
		TransportDocument: documentToModel(doc),
		Metadata:          meta,
	}, nil
}

func (r *MutationResolver) fetchLabels(ctx context.Context, input UniquePackageLabelsInput) (*inbound.TransportDocument, error) {
	labels := inbound.New(r.Backend, r.Logger, r.Tracer)

	if err := labels.SetShipmentID(input.ShipmentID); err != nil {
		return nil, err
	}
	if err := labels.SetPageType(inbound.PageType(input.PageType)); err != nil {
		return nil, err
	}
	if len(input.PackageLabelIds) > 0 {
		if err := labels.SetPackageLabelIDs(input.PackageLabelIds...); err != nil {
			return nil, err
		}
	} else if input.PackageLabelsToPrint != nil {
		if err := labels.SetPackageLabelsToPrint(*input.PackageLabelsToPrint); err != nil {
			return nil, err
		}
	} else {
		return nil, inbound.ErrInvalidLabelCount
	}

	if err := labels.GetPackageLabels(ctx); err != nil {
		return nil, err
	}
	return labels.PdfDocument()
}

// Package inbound binds the FBA Inbound GetUniquePackageLabels operation.
package inbound

import (
	"context"
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/tournevent/mwslabels/pkg/mws"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// OperationGetUniquePackageLabels is the MWS Action name.
const OperationGetUniquePackageLabels = "GetUniquePackageLabels"

const (
	paramAction     = "Action"
	paramPageType   = "PageType"
	paramShipmentID = "ShipmentId"
	labelsPrefix    = "PackageLabelsToPrint.member."
)

// UniquePackageLabels requests the package labels of an inbound shipment.
// An instance is not safe for concurrent use; create one per request.
type UniquePackageLabels struct {
	backend mws.Backend
	logger  *otelzap.Logger
	tracer  trace.Tracer

	params    mws.Params
	useToken  bool
	tokenFlag bool
	document  *TransportDocument
}

// New creates a binding on top of a shared MWS backend.
func New(backend mws.Backend, logger *otelzap.Logger, tracer trace.Tracer) *UniquePackageLabels {
	if tracer == nil {
		tracer = otel.Tracer("github.com/tournevent/mwslabels/pkg/mws/inbound")
	}
	return &UniquePackageLabels{
		backend: backend,
		logger:  logger,
		tracer:  tracer,
		params:  make(mws.Params),
	}
}

// SetPageType sets the label sheet layout. (Required)
func (l *UniquePackageLabels) SetPageType(pageType PageType) error {
	if !pageType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPageType, pageType)
	}
	l.params.Set(paramPageType, string(pageType))
	return nil
}

// SetPackageLabelsToPrint requests count labels. Member N is sent with the
// value N. (Required, unless SetPackageLabelIDs is used)
func (l *UniquePackageLabels) SetPackageLabelsToPrint(count int) error {
	if count <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLabelCount, count)
	}
	l.params.DeletePrefix(labelsPrefix)
	for i := 1; i <= count; i++ {
		l.params.Set(labelsPrefix+strconv.Itoa(i), strconv.Itoa(i))
	}
	return nil
}

// SetPackageLabelIDs requests labels for the given carton ids, in order.
func (l *UniquePackageLabels) SetPackageLabelIDs(ids ...string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: no ids", ErrInvalidLabelCount)
	}
	for i, id := range ids {
		if id == "" {
			return fmt.Errorf("%w at position %d", ErrEmptyLabelID, i+1)
		}
	}
	l.params.DeletePrefix(labelsPrefix)
	for i, id := range ids {
		l.params.Set(labelsPrefix+strconv.Itoa(i+1), id)
	}
	return nil
}

// SetShipmentID sets the inbound shipment id. (Required)
func (l *UniquePackageLabels) SetShipmentID(id string) error {
	if id == "" {
		return ErrEmptyShipmentID
	}
	l.params.Set(paramShipmentID, id)
	return nil
}

// SetUseToken sets whether the base client should follow continuation tokens.
func (l *UniquePackageLabels) SetUseToken(use bool) {
	l.useToken = use
}

// UseToken reports the continuation setting.
func (l *UniquePackageLabels) UseToken() bool {
	return l.useToken
}

// HasToken reports whether the last result carried a NextToken.
func (l *UniquePackageLabels) HasToken() bool {
	return l.tokenFlag
}

// Params returns a copy of the request parameters.
func (l *UniquePackageLabels) Params() mws.Params {
	return l.params.Clone()
}

// GetPackageLabels submits the request and stores the returned document.
// On failure the previously stored document is kept.
func (l *UniquePackageLabels) GetPackageLabels(ctx context.Context) error {
	ctx, span := l.tracer.Start(ctx, "mws."+OperationGetUniquePackageLabels)
	defer span.End()
	span.SetAttributes(
		attribute.String("mws.shipment_id", l.params.Get(paramShipmentID)),
		attribute.String("mws.page_type", l.params.Get(paramPageType)),
		attribute.Bool("mws.mock", l.backend.MockMode()),
	)

	err := l.getPackageLabels(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.logger.Ctx(ctx).Error("GetUniquePackageLabels failed",
			zap.String("shipment_id", l.params.Get(paramShipmentID)),
			zap.Error(err),
		)
	}
	return err
}

func (l *UniquePackageLabels) getPackageLabels(ctx context.Context) error {
	l.params.Set(paramAction, OperationGetUniquePackageLabels)

	l.logger.Ctx(ctx).Info("Getting unique package labels",
		zap.String("shipment_id", l.params.Get(paramShipmentID)),
		zap.String("page_type", l.params.Get(paramPageType)),
		zap.Bool("mock", l.backend.MockMode()),
	)

	var body []byte
	if l.backend.MockMode() {
		fixture, err := l.backend.LoadFixture(OperationGetUniquePackageLabels)
		if err != nil {
			return err
		}
		body = fixture
	} else {
		query, err := l.backend.BuildSignedQuery(l.params)
		if err != nil {
			return fmt.Errorf("signing request: %w", err)
		}
		resp, err := l.backend.Submit(ctx, l.backend.URL(), query)
		if err != nil {
			return err
		}
		if err := mws.CheckResponse(OperationGetUniquePackageLabels, resp); err != nil {
			return err
		}
		body = resp.Body
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return mws.NewAPIError(OperationGetUniquePackageLabels, "MalformedXML", err.Error()).
			WithCause(mws.ErrInvalidResponse)
	}

	result, err := parseResult(resultElement(doc, OperationGetUniquePackageLabels+"Result"))
	if err != nil {
		return err
	}

	l.document = result.document
	l.tokenFlag = result.hasToken
	return nil
}

// PdfDocument returns a copy of the document stored by the last successful call.
func (l *UniquePackageLabels) PdfDocument() (*TransportDocument, error) {
	if l.document == nil {
		return nil, ErrNoResult
	}
	return l.document.clone(), nil
}

type labelsResult struct {
	document *TransportDocument
	hasToken bool
}

// resultElement finds name as the document root or as a direct child of it.
func resultElement(doc *etree.Document, name string) *etree.Element {
	root := doc.Root()
	if root == nil {
		return nil
	}
	if root.Tag == name {
		return root
	}
	return root.SelectElement(name)
}

func parseResult(el *etree.Element) (*labelsResult, error) {
	if el == nil {
		return nil, ErrMissingResult
	}

	td := el.SelectElement("TransportDocument")
	if td == nil {
		return nil, ErrMissingTransportDocument
	}

	doc := &TransportDocument{}
	if pdf := td.SelectElement(KeyPdfDocument); pdf != nil {
		text := pdf.Text()
		doc.PdfDocument = &text
	}
	if sum := td.SelectElement(KeyChecksum); sum != nil {
		text := sum.Text()
		doc.Checksum = &text
	}

	return &labelsResult{
		document: doc,
		hasToken: el.SelectElement("NextToken") != nil,
	}, nil
}

package graphql

import (
	"errors"

	"github.com/tournevent/mwslabels/pkg/mws"
	"github.com/tournevent/mwslabels/pkg/mws/inbound"
)

// Error codes reported for failures that do not come from MWS itself.
const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeInvalidResponse = "INVALID_RESPONSE"
	CodeInternal        = "INTERNAL"
)

func errorToModel(err error) *Error {
	var apiErr *mws.APIError
	switch {
	case errors.Is(err, inbound.ErrInvalidPageType),
		errors.Is(err, inbound.ErrInvalidLabelCount),
		errors.Is(err, inbound.ErrEmptyLabelID),
		errors.Is(err, inbound.ErrEmptyShipmentID):
		return &Error{Code: CodeInvalidInput, Message: err.Error()}
	case errors.Is(err, inbound.ErrMissingResult),
		errors.Is(err, inbound.ErrMissingTransportDocument):
		return &Error{Code: CodeInvalidResponse, Message: err.Error()}
	case errors.As(err, &apiErr):
		return &Error{Code: apiErr.Code, Message: apiErr.Message, Retryable: apiErr.Retryable}
	default:
		return &Error{Code: CodeInternal, Message: err.Error(), Retryable: mws.IsRetryable(err)}
	}
}

func documentToModel(doc *inbound.TransportDocument) *TransportDocument {
	if doc == nil {
		return nil
	}
	out := &TransportDocument{
		PdfDocument: doc.PdfDocument,
		Checksum:    doc.Checksum,
	}
	if doc.PdfDocument != nil && doc.Checksum != nil {
		valid := doc.VerifyChecksum() == nil
		out.ChecksumValid = &valid
	}
	return out
}

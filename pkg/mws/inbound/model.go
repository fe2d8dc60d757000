package inbound

import (
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"
)

// PageType is the label sheet layout.
type PageType string

const (
	PageLetter2 PageType = "PackageLabel_Letter_2"
	PageLetter6 PageType = "PackageLabel_Letter_6"
)

// PageTypes returns the accepted page types.
func PageTypes() []PageType {
	return []PageType{PageLetter2, PageLetter6}
}

// Valid reports whether p is one of the accepted page types.
func (p PageType) Valid() bool {
	return p == PageLetter2 || p == PageLetter6
}

// Result keys as they appear in the response document.
const (
	KeyPdfDocument = "PdfDocument"
	KeyChecksum    = "Checksum"
)

// TransportDocument is the label payload returned by GetUniquePackageLabels.
// A nil field means the element was absent from the response.
type TransportDocument struct {
	PdfDocument *string
	Checksum    *string
}

// Map returns the present fields keyed by element name.
func (d *TransportDocument) Map() map[string]string {
	m := make(map[string]string, 2)
	if d.PdfDocument != nil {
		m[KeyPdfDocument] = *d.PdfDocument
	}
	if d.Checksum != nil {
		m[KeyChecksum] = *d.Checksum
	}
	return m
}

func (d *TransportDocument) clone() *TransportDocument {
	out := &TransportDocument{}
	if d.PdfDocument != nil {
		pdf := *d.PdfDocument
		out.PdfDocument = &pdf
	}
	if d.Checksum != nil {
		sum := *d.Checksum
		out.Checksum = &sum
	}
	return out
}

// Decode returns the base64-decoded document, usually a zip archive of PDFs.
func (d *TransportDocument) Decode() ([]byte, error) {
	if d.PdfDocument == nil {
		return nil, ErrNoPdfDocument
	}
	data, err := base64.StdEncoding.DecodeString(*d.PdfDocument)
	if err != nil {
		return nil, fmt.Errorf("decoding pdf document: %w", err)
	}
	return data, nil
}

// VerifyChecksum checks the Base64-encoded MD5 of the decoded document.
func (d *TransportDocument) VerifyChecksum() error {
	if d.Checksum == nil {
		return ErrNoChecksum
	}
	data, err := d.Decode()
	if err != nil {
		return err
	}
	sum := md5.Sum(data)
	if got := base64.StdEncoding.EncodeToString(sum[:]); got != *d.Checksum {
		return fmt.Errorf("%w: got %s, want %s", ErrChecksumMismatch, got, *d.Checksum)
	}
	return nil
}

var (
	// ErrInvalidPageType indicates a page type outside PageTypes().
	ErrInvalidPageType = errors.New("invalid page type")

	// ErrInvalidLabelCount indicates a zero or negative number of labels.
	ErrInvalidLabelCount = errors.New("invalid number of package labels")

	// ErrEmptyLabelID indicates an empty carton id.
	ErrEmptyLabelID = errors.New("empty package label id")

	// ErrEmptyShipmentID indicates an empty shipment id.
	ErrEmptyShipmentID = errors.New("empty shipment id")

	// ErrNoResult indicates no call has completed successfully yet.
	ErrNoResult = errors.New("no package labels fetched yet")

	// ErrMissingResult indicates the response lacks the operation result element.
	ErrMissingResult = errors.New("response has no result element")

	// ErrMissingTransportDocument indicates the result lacks a TransportDocument.
	ErrMissingTransportDocument = errors.New("result has no TransportDocument")

	// ErrNoPdfDocument indicates the TransportDocument carried no PdfDocument.
	ErrNoPdfDocument = errors.New("transport document has no PdfDocument")

	// ErrNoChecksum indicates the TransportDocument carried no Checksum.
	ErrNoChecksum = errors.New("transport document has no Checksum")

	// ErrChecksumMismatch indicates the document does not match its checksum.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

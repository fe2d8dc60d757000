package inbound_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/mwslabels/pkg/mws"
	"github.com/tournevent/mwslabels/pkg/mws/inbound"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const (
	fullResult = `<GetUniquePackageLabelsResult><TransportDocument><PdfDocument>ABC</PdfDocument><Checksum>XYZ</Checksum></TransportDocument></GetUniquePackageLabelsResult>`
	noChecksum = `<GetUniquePackageLabelsResult><TransportDocument><PdfDocument>ABC</PdfDocument></TransportDocument></GetUniquePackageLabelsResult>`
	noDocument = `<GetUniquePackageLabelsResult></GetUniquePackageLabelsResult>`
)

var testCreds = mws.Credentials{
	SellerID:    "A1SELLER",
	AccessKeyID: "AKIDEXAMPLE",
	SecretKey:   "secret",
}

func newTestLogger() *otelzap.Logger {
	return otelzap.New(zap.NewNop())
}

func newLiveBinding(transport *mws.MockTransport) *inbound.UniquePackageLabels {
	backend := mws.NewWithTransport(mws.Config{Credentials: testCreds}, transport, nil, newTestLogger(), nil)
	return inbound.New(backend, newTestLogger(), nil)
}

func newMockBinding(fixture string) *inbound.UniquePackageLabels {
	fixtures := mws.NewFSFixtures(fstest.MapFS{
		"GetUniquePackageLabels.xml": &fstest.MapFile{Data: []byte(fixture)},
	})
	backend := mws.NewWithTransport(mws.Config{UseMock: true}, mws.NewMockTransport(), fixtures, newTestLogger(), nil)
	return inbound.New(backend, newTestLogger(), nil)
}

func respondWith(status int, body string) func(ctx context.Context, url, query string) (*mws.Response, error) {
	return func(ctx context.Context, url, query string) (*mws.Response, error) {
		return &mws.Response{StatusCode: status, Header: http.Header{}, Body: []byte(body)}, nil
	}
}

func TestSetPageType(t *testing.T) {
	labels := newLiveBinding(mws.NewMockTransport())

	require.NoError(t, labels.SetPageType(inbound.PageLetter2))
	assert.Equal(t, "PackageLabel_Letter_2", labels.Params().Get("PageType"))

	require.NoError(t, labels.SetPageType("PackageLabel_Letter_6"))
	assert.Equal(t, "PackageLabel_Letter_6", labels.Params().Get("PageType"))

	for _, invalid := range []inbound.PageType{"", "PackageLabel_Letter_4", "packagelabel_letter_2", "PackageLabel_A4_2"} {
		err := labels.SetPageType(invalid)
		assert.ErrorIs(t, err, inbound.ErrInvalidPageType, "page type %q", invalid)
	}
	assert.Equal(t, "PackageLabel_Letter_6", labels.Params().Get("PageType"))
}

func TestSetPackageLabelsToPrint(t *testing.T) {
	labels := newLiveBinding(mws.NewMockTransport())

	require.NoError(t, labels.SetPackageLabelsToPrint(3))
	params := labels.Params()
	assert.Equal(t, "1", params.Get("PackageLabelsToPrint.member.1"))
	assert.Equal(t, "2", params.Get("PackageLabelsToPrint.member.2"))
	assert.Equal(t, "3", params.Get("PackageLabelsToPrint.member.3"))
	assert.Len(t, params, 3)

	assert.ErrorIs(t, labels.SetPackageLabelsToPrint(0), inbound.ErrInvalidLabelCount)
	assert.ErrorIs(t, labels.SetPackageLabelsToPrint(-2), inbound.ErrInvalidLabelCount)
	assert.Equal(t, params, labels.Params())
}

func TestSetPackageLabelsToPrint_Shrink(t *testing.T) {
	labels := newLiveBinding(mws.NewMockTransport())

	require.NoError(t, labels.SetPackageLabelsToPrint(5))
	require.NoError(t, labels.SetPackageLabelsToPrint(2))

	params := labels.Params()
	assert.Len(t, params, 2)
	assert.NotContains(t, params, "PackageLabelsToPrint.member.3")
}

func TestSetPackageLabelIDs(t *testing.T) {
	labels := newLiveBinding(mws.NewMockTransport())

	require.NoError(t, labels.SetPackageLabelIDs("CartonA", "CartonB"))
	params := labels.Params()
	assert.Equal(t, "CartonA", params.Get("PackageLabelsToPrint.member.1"))
	assert.Equal(t, "CartonB", params.Get("PackageLabelsToPrint.member.2"))

	assert.ErrorIs(t, labels.SetPackageLabelIDs(), inbound.ErrInvalidLabelCount)
	assert.ErrorIs(t, labels.SetPackageLabelIDs("CartonC", ""), inbound.ErrEmptyLabelID)
	assert.Equal(t, params, labels.Params())
}

func TestSetShipmentID(t *testing.T) {
	labels := newLiveBinding(mws.NewMockTransport())

	assert.ErrorIs(t, labels.SetShipmentID(""), inbound.ErrEmptyShipmentID)
	assert.Empty(t, labels.Params().Get("ShipmentId"))

	require.NoError(t, labels.SetShipmentID("FBA123"))
	assert.Equal(t, "FBA123", labels.Params().Get("ShipmentId"))
}

func TestSetUseToken(t *testing.T) {
	labels := newLiveBinding(mws.NewMockTransport())
	assert.False(t, labels.UseToken())

	labels.SetUseToken(true)
	assert.True(t, labels.UseToken())

	labels.SetUseToken(false)
	assert.False(t, labels.UseToken())
}

func TestPdfDocument_BeforeFirstCall(t *testing.T) {
	labels := newLiveBinding(mws.NewMockTransport())

	doc, err := labels.PdfDocument()
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, inbound.ErrNoResult)
}

func TestGetPackageLabels_MockFixture(t *testing.T) {
	labels := newMockBinding(fullResult)
	require.NoError(t, labels.SetShipmentID("FBA123"))

	require.NoError(t, labels.GetPackageLabels(context.Background()))

	doc, err := labels.PdfDocument()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"PdfDocument": "ABC", "Checksum": "XYZ"}, doc.Map())
	assert.Equal(t, "GetUniquePackageLabels", labels.Params().Get("Action"))
}

func TestPdfDocument_ReturnsCopy(t *testing.T) {
	labels := newMockBinding(fullResult)
	require.NoError(t, labels.GetPackageLabels(context.Background()))

	doc, err := labels.PdfDocument()
	require.NoError(t, err)
	*doc.PdfDocument = "changed"
	doc.Checksum = nil

	again, err := labels.PdfDocument()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"PdfDocument": "ABC", "Checksum": "XYZ"}, again.Map())
}

func TestGetPackageLabels_MissingChecksum(t *testing.T) {
	labels := newMockBinding(noChecksum)

	require.NoError(t, labels.GetPackageLabels(context.Background()))

	doc, err := labels.PdfDocument()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"PdfDocument": "ABC"}, doc.Map())
	assert.Nil(t, doc.Checksum)
}

func TestGetPackageLabels_MissingTransportDocument(t *testing.T) {
	labels := newMockBinding(noDocument)

	err := labels.GetPackageLabels(context.Background())
	assert.ErrorIs(t, err, inbound.ErrMissingTransportDocument)

	_, err = labels.PdfDocument()
	assert.ErrorIs(t, err, inbound.ErrNoResult)
}

func TestGetPackageLabels_FailureKeepsPreviousResult(t *testing.T) {
	transport := mws.NewMockTransport()
	transport.OnSubmit = respondWith(http.StatusOK, "<GetUniquePackageLabelsResponse>"+fullResult+"</GetUniquePackageLabelsResponse>")
	labels := newLiveBinding(transport)

	require.NoError(t, labels.GetPackageLabels(context.Background()))
	before, err := labels.PdfDocument()
	require.NoError(t, err)

	transport.OnSubmit = respondWith(http.StatusOK, "<GetUniquePackageLabelsResponse>"+noDocument+"</GetUniquePackageLabelsResponse>")
	err = labels.GetPackageLabels(context.Background())
	assert.ErrorIs(t, err, inbound.ErrMissingTransportDocument)

	after, err := labels.PdfDocument()
	require.NoError(t, err)
	assert.Equal(t, before.Map(), after.Map())
}

func TestGetPackageLabels_MissingResultElement(t *testing.T) {
	transport := mws.NewMockTransport()
	transport.OnSubmit = respondWith(http.StatusOK, "<SomethingElseResponse><Other/></SomethingElseResponse>")
	labels := newLiveBinding(transport)

	err := labels.GetPackageLabels(context.Background())
	assert.ErrorIs(t, err, inbound.ErrMissingResult)
}

func TestGetPackageLabels_MalformedXML(t *testing.T) {
	transport := mws.NewMockTransport()
	transport.OnSubmit = respondWith(http.StatusOK, "<GetUniquePackageLabelsResponse><oops")
	labels := newLiveBinding(transport)

	err := labels.GetPackageLabels(context.Background())
	assert.ErrorIs(t, err, mws.ErrInvalidResponse)
}

func TestGetPackageLabels_TransportError(t *testing.T) {
	transport := mws.NewMockTransport()
	transport.SimulateErrors = true
	labels := newLiveBinding(transport)

	err := labels.GetPackageLabels(context.Background())
	require.Error(t, err)
	assert.True(t, mws.IsRetryable(err))

	_, err = labels.PdfDocument()
	assert.ErrorIs(t, err, inbound.ErrNoResult)
}

func TestGetPackageLabels_Throttled(t *testing.T) {
	transport := mws.NewMockTransport()
	transport.OnSubmit = respondWith(http.StatusServiceUnavailable, `<ErrorResponse>
  <Error><Type>Sender</Type><Code>RequestThrottled</Code><Message>Request is throttled</Message></Error>
  <RequestId>req-1</RequestId>
</ErrorResponse>`)
	labels := newLiveBinding(transport)

	err := labels.GetPackageLabels(context.Background())
	require.Error(t, err)

	var apiErr *mws.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "RequestThrottled", apiErr.Code)
	assert.Equal(t, "req-1", apiErr.RequestID)
	assert.ErrorIs(t, err, mws.ErrThrottled)
	assert.True(t, mws.IsRetryable(err))
}

func TestGetPackageLabels_SendsSignedQuery(t *testing.T) {
	transport := mws.NewMockTransport()
	transport.OnSubmit = respondWith(http.StatusOK, fullResult)
	labels := newLiveBinding(transport)

	require.NoError(t, labels.SetShipmentID("FBA123"))
	require.NoError(t, labels.SetPageType(inbound.PageLetter6))
	require.NoError(t, labels.SetPackageLabelsToPrint(2))
	require.NoError(t, labels.GetPackageLabels(context.Background()))

	calls := transport.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "https://mws.amazonservices.com/FulfillmentInboundShipment/2010-10-01", calls[0].URL)

	values, err := url.ParseQuery(calls[0].Query)
	require.NoError(t, err)
	assert.Equal(t, "GetUniquePackageLabels", values.Get("Action"))
	assert.Equal(t, "FBA123", values.Get("ShipmentId"))
	assert.Equal(t, "PackageLabel_Letter_6", values.Get("PageType"))
	assert.Equal(t, "1", values.Get("PackageLabelsToPrint.member.1"))
	assert.Equal(t, "2", values.Get("PackageLabelsToPrint.member.2"))
	assert.Equal(t, "A1SELLER", values.Get("SellerId"))
	assert.Equal(t, "2010-10-01", values.Get("Version"))
	assert.NotEmpty(t, values.Get("Signature"))
}

func TestGetPackageLabels_MockModeSkipsTransport(t *testing.T) {
	transport := mws.NewMockTransport()
	backend := mws.NewWithTransport(mws.Config{UseMock: true}, transport, nil, newTestLogger(), nil)
	labels := inbound.New(backend, newTestLogger(), nil)

	require.NoError(t, labels.GetPackageLabels(context.Background()))
	assert.Empty(t, transport.Calls())

	doc, err := labels.PdfDocument()
	require.NoError(t, err)
	require.NoError(t, doc.VerifyChecksum())

	data, err := doc.Decode()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 mock label data", string(data))
}

func TestGetPackageLabels_MissingFixture(t *testing.T) {
	fixtures := mws.NewFSFixtures(fstest.MapFS{})
	backend := mws.NewWithTransport(mws.Config{UseMock: true}, mws.NewMockTransport(), fixtures, newTestLogger(), nil)
	labels := inbound.New(backend, newTestLogger(), nil)

	err := labels.GetPackageLabels(context.Background())
	assert.ErrorIs(t, err, mws.ErrFixtureNotFound)
}

func TestHasToken(t *testing.T) {
	labels := newMockBinding(`<GetUniquePackageLabelsResult><NextToken>tok</NextToken>` +
		`<TransportDocument><PdfDocument>ABC</PdfDocument></TransportDocument></GetUniquePackageLabelsResult>`)
	assert.False(t, labels.HasToken())

	require.NoError(t, labels.GetPackageLabels(context.Background()))
	assert.True(t, labels.HasToken())
}

func TestGetPackageLabels_HTTPTransport(t *testing.T) {
	var gotForm url.Values
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotForm, _ = url.ParseQuery(string(body))
		gotContentType = r.Header.Get("Content-Type")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/FulfillmentInboundShipment/2010-10-01", r.URL.Path)
		w.Header().Set("Content-Type", "text/xml")
		io.WriteString(w, `<?xml version="1.0"?>
<GetUniquePackageLabelsResponse xmlns="http://mws.amazonaws.com/FulfillmentInboundShipment/2010-10-01/">
  <GetUniquePackageLabelsResult>
    <TransportDocument>
      <PdfDocument>ABC</PdfDocument>
      <Checksum>XYZ</Checksum>
    </TransportDocument>
  </GetUniquePackageLabelsResult>
</GetUniquePackageLabelsResponse>`)
	}))
	defer srv.Close()

	backend := mws.New(mws.Config{Credentials: testCreds, Endpoint: srv.URL}, newTestLogger(), nil)
	labels := inbound.New(backend, newTestLogger(), nil)
	require.NoError(t, labels.SetShipmentID("FBA123"))

	require.NoError(t, labels.GetPackageLabels(context.Background()))

	assert.Contains(t, gotContentType, "application/x-www-form-urlencoded")
	assert.Equal(t, "GetUniquePackageLabels", gotForm.Get("Action"))
	assert.Equal(t, "FBA123", gotForm.Get("ShipmentId"))

	doc, err := labels.PdfDocument()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"PdfDocument": "ABC", "Checksum": "XYZ"}, doc.Map())
}

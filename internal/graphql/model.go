package graphql

// UniquePackageLabelsInput is the getUniquePackageLabels argument.
type UniquePackageLabelsInput struct {
	ShipmentID           string   `json:"shipmentId"`
	PageType             string   `json:"pageType"`
	PackageLabelsToPrint *int     `json:"packageLabelsToPrint,omitempty"`
	PackageLabelIds      []string `json:"packageLabelIds,omitempty"`
}

type TransportDocument struct {
	PdfDocument   *string `json:"pdfDocument"`
	Checksum      *string `json:"checksum"`
	ChecksumValid *bool   `json:"checksumValid"`
}

type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type Metadata struct {
	RequestID  string `json:"requestId"`
	Mock       bool   `json:"mock"`
	DurationMs int    `json:"durationMs"`
}

type UniquePackageLabelsResult struct {
	Success           bool               `json:"success"`
	TransportDocument *TransportDocument `json:"transportDocument"`
	Error             *Error             `json:"error"`
	Metadata          *Metadata          `json:"metadata"`
}

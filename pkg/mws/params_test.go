package mws_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tournevent/mwslabels/pkg/mws"
)

func TestEscape(t *testing.T) {
	assert.Equal(t, "a%20b%2Bc%2F~%2A%C3%A9", mws.Escape("a b+c/~*é"))
	assert.Equal(t, "Abc-_.~09", mws.Escape("Abc-_.~09"))
	assert.Equal(t, "", mws.Escape(""))
}

func TestParams_EncodeSortsByteOrder(t *testing.T) {
	p := mws.Params{
		"b":                             "2",
		"PackageLabelsToPrint.member.2": "2",
		"Action":                        "GetUniquePackageLabels",
		"PackageLabelsToPrint.member.1": "1",
		"Timestamp":                     "2020-01-02T03:04:05Z",
	}

	assert.Equal(t,
		"Action=GetUniquePackageLabels&PackageLabelsToPrint.member.1=1&PackageLabelsToPrint.member.2=2&Timestamp=2020-01-02T03%3A04%3A05Z&b=2",
		p.Encode(),
	)
}

func TestParams_CloneIsIndependent(t *testing.T) {
	p := mws.Params{"ShipmentId": "FBA123"}
	c := p.Clone()
	c.Set("ShipmentId", "FBA999")

	assert.Equal(t, "FBA123", p.Get("ShipmentId"))
	assert.Equal(t, "FBA999", c.Get("ShipmentId"))
}

func TestParams_DeletePrefix(t *testing.T) {
	p := mws.Params{
		"PackageLabelsToPrint.member.1": "1",
		"PackageLabelsToPrint.member.2": "2",
		"ShipmentId":                    "FBA123",
	}
	p.DeletePrefix("PackageLabelsToPrint.member.")

	assert.Equal(t, []string{"ShipmentId"}, p.Keys())
}

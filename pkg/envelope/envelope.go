// Package envelope defines the JSON wire shapes emitted by every producer:
// a shared meta/data/errors envelope, and the four payload types (sample,
// sysinfo, jobs, cluster).
package envelope

import "github.com/ja7ad/sonar/pkg/types"

// DataType tags which payload an envelope carries.
type DataType string

const (
	TypeSample  DataType = "sample"
	TypeSysinfo DataType = "sysinfo"
	TypeJobs    DataType = "jobs"
	TypeCluster DataType = "cluster"
)

// Meta carries producer identity, wire-format version, and an optional
// access token.
type Meta struct {
	Producer string       `json:"producer"`
	Version  string       `json:"version"`
	Token    string       `json:"token,omitempty"`
	Attrs    []types.KVPair `json:"attrs,omitempty"`
}

// ErrorDetail is one entry of an error envelope's errors array.
type ErrorDetail struct {
	Detail string `json:"detail"`
	Time   string `json:"time"`
}

// Envelope wraps exactly one of Data or Errors, never both.
type Envelope struct {
	Meta   Meta         `json:"meta"`
	Data   *Data        `json:"data,omitempty"`
	Errors []ErrorDetail `json:"errors,omitempty"`
}

// Data is the generic payload holder; Attributes holds one of the four
// concrete attribute types below depending on Type.
type Data struct {
	Type       DataType    `json:"type"`
	Attributes interface{} `json:"attributes"`
}

// NewDataEnvelope builds a well-formed success envelope.
func NewDataEnvelope(producer, version string, token string, t DataType, attrs interface{}) Envelope {
	return Envelope{
		Meta: Meta{Producer: producer, Version: version, Token: token},
		Data: &Data{Type: t, Attributes: attrs},
	}
}

// NewErrorEnvelope builds a well-formed error envelope; the errors array is
// guaranteed non-empty by construction.
func NewErrorEnvelope(producer, version, token, detail, timeISO string) Envelope {
	return Envelope{
		Meta:   Meta{Producer: producer, Version: version, Token: token},
		Errors: []ErrorDetail{{Detail: detail, Time: timeISO}},
	}
}

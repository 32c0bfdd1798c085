// Package clients defines the client record, its draft input form and the
// error kinds shared by the registry, the REST client and the lookup bridge.
package clients

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// DefaultCountry is prefilled on new drafts.
const DefaultCountry = "br"

// ID is the server-assigned identifier of a client. The remote collection may
// encode it as a JSON number or a JSON string; both decode to the same ID, and
// IDs always compare as strings.
type ID string

// UnmarshalJSON accepts 7, "7" and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding client id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding client id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes canonical integer IDs as numbers and everything else
// as strings, matching what a json-server style backend hands out. "007" and
// "+5" stay strings so they round-trip unchanged.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string { return string(id) }

// Client is a registry record.
type Client struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// Input is a draft client: every field of Client except the identifier.
type Input struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// NewInput returns an empty draft with the default country.
func NewInput() Input {
	return Input{Country: DefaultCountry}
}

// Input converts a stored record back into an editable draft. A missing
// country falls back to the default.
func (c Client) Input() Input {
	in := Input{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Address: c.Address,
		City:    c.City,
		State:   c.State,
		Zip:     c.Zip,
		Country: c.Country,
	}
	if in.Country == "" {
		in.Country = DefaultCountry
	}
	return in
}

// WithID builds the record a server would return for this draft.
func (in Input) WithID(id ID) Client {
	return Client{
		ID:      id,
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Address: in.Address,
		City:    in.City,
		State:   in.State,
		Zip:     in.Zip,
		Country: in.Country,
	}
}

// Field names used for validation messages and form wiring.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldPhone   = "phone"
	FieldZip     = "zip"
	FieldAddress = "address"
	FieldCity    = "city"
	FieldState   = "state"
	FieldCountry = "country"
)

// Fields lists every input field in display order.
var Fields = []string{FieldName, FieldEmail, FieldPhone, FieldZip, FieldAddress, FieldCity, FieldState, FieldCountry}

var labels = map[string]string{
	FieldName:    "Name",
	FieldEmail:   "Email",
	FieldPhone:   "Phone",
	FieldZip:     "ZIP / Postal Code",
	FieldAddress: "Address",
	FieldCity:    "City",
	FieldState:   "State",
	FieldCountry: "Country",
}

// Label returns the human label of a field.
func Label(field string) string {
	if l, ok := labels[field]; ok {
		return l
	}
	return field
}

// Get returns the value of a field by name.
func (in Input) Get(field string) string {
	switch field {
	case FieldName:
		return in.Name
	case FieldEmail:
		return in.Email
	case FieldPhone:
		return in.Phone
	case FieldZip:
		return in.Zip
	case FieldAddress:
		return in.Address
	case FieldCity:
		return in.City
	case FieldState:
		return in.State
	case FieldCountry:
		return in.Country
	}
	return ""
}

// Set returns a copy of the draft with field replaced.
func (in Input) Set(field, value string) Input {
	switch field {
	case FieldName:
		in.Name = value
	case FieldEmail:
		in.Email = value
	case FieldPhone:
		in.Phone = value
	case FieldZip:
		in.Zip = value
	case FieldAddress:
		in.Address = value
	case FieldCity:
		in.City = value
	case FieldState:
		in.State = value
	case FieldCountry:
		in.Country = value
	}
	return in
}

// Validate checks that every field is present. Only presence is checked.
func (in Input) Validate() error {
	verr := &ValidationError{Fields: map[string]string{}}
	for _, f := range Fields {
		if in.Get(f) == "" {
			verr.Fields[f] = Label(f) + " is required"
		}
	}
	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}

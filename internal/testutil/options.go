package testutil

import "github.com/clientflow/clientflow/internal/clients"

// defaultClient returns a complete record so that validation passes unless
// a test clears a field on purpose.
func defaultClient(id string) clients.Client {
	return clients.Client{
		ID:      clients.ID(id),
		Name:    "Client " + id,
		Email:   "client" + id + "@example.com",
		Phone:   "(11) 90000-0000",
		Address: "Rua Augusta",
		City:    "São Paulo",
		State:   "SP",
		Zip:     "01305000",
		Country: clients.DefaultCountry,
	}
}

// ClientOption configures a client during builder setup.
type ClientOption func(*clients.Client)

func Name(name string) ClientOption {
	return func(c *clients.Client) { c.Name = name }
}

func Email(email string) ClientOption {
	return func(c *clients.Client) { c.Email = email }
}

func Phone(phone string) ClientOption {
	return func(c *clients.Client) { c.Phone = phone }
}

func Address(address string) ClientOption {
	return func(c *clients.Client) { c.Address = address }
}

func City(city string) ClientOption {
	return func(c *clients.Client) { c.City = city }
}

func State(state string) ClientOption {
	return func(c *clients.Client) { c.State = state }
}

// Zip sets the postal code.
func Zip(zip string) ClientOption {
	return func(c *clients.Client) { c.Zip = zip }
}

func Country(country string) ClientOption {
	return func(c *clients.Client) { c.Country = country }
}

// Input returns a complete draft with the given options applied.
func Input(opts ...ClientOption) clients.Input {
	c := defaultClient("")
	for _, opt := range opts {
		opt(&c)
	}
	return c.Input()
}

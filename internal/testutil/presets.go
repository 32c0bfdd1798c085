package testutil

// WithStandardClients adds the two records most screen tests use.
func (b *Builder) WithStandardClients() *Builder {
	return b.
		WithClient("1",
			Name("Ana"), Email("ana@example.com"), Phone("(11) 98765-4321"),
			Address("Avenida Paulista"), City("São Paulo"), State("SP"), Zip("01310930")).
		WithClient("2",
			Name("Bruno Lima"), Email("bruno@example.com"), Phone("(21) 91234-5678"),
			Address("Avenida Rio Branco"), City("Rio de Janeiro"), State("RJ"), Zip("20040020"))
}

// WithPaulista makes 01310930 resolve to Avenida Paulista, São Paulo, SP.
func (b *Builder) WithPaulista() *Builder {
	return b.WithPostalCode("01310930", "Avenida Paulista", "São Paulo", "SP")
}

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/clientflow/clientflow/internal/clients"
	"github.com/clientflow/clientflow/internal/mockapi"
	"github.com/clientflow/clientflow/internal/tracing"
)

func newServer(t *testing.T, seed mockapi.Seed) (*httptest.Server, *mockapi.Server) {
	t.Helper()
	mock := mockapi.New(seed)
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)
	return srv, mock
}

func sampleInput(name string) clients.Input {
	in := clients.NewInput()
	in.Name = name
	in.Email = name + "@example.com"
	in.Phone = "11 99999-0000"
	in.Address = "Avenida Paulista"
	in.City = "São Paulo"
	in.State = "SP"
	in.Zip = "01310930"
	return in
}

func TestClient_ListCreateUpdateDelete(t *testing.T) {
	srv, mock := newServer(t, mockapi.Seed{})
	c := New(srv.URL + "/")
	ctx := context.Background()

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)

	created, err := c.Create(ctx, sampleInput("ana"))
	require.NoError(t, err)
	require.Equal(t, clients.ID("1"), created.ID)
	require.Equal(t, "ana", created.Name)

	updated, err := c.Update(ctx, created.ID, sampleInput("ana maria"))
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "ana maria", updated.Name)

	list, err = c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "ana maria", list[0].Name)

	require.NoError(t, c.Delete(ctx, created.ID))
	require.Empty(t, mock.Clients())
}

func TestClient_NonSuccessStatusIsTransportError(t *testing.T) {
	srv, _ := newServer(t, mockapi.Seed{})
	c := New(srv.URL)

	err := c.Delete(context.Background(), "404")
	require.Error(t, err)

	var te *clients.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusNotFound, te.Status)
	assert.Equal(t, "delete client", te.Op)
}

func TestClient_UnreachableIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).List(context.Background())
	require.Error(t, err)
	assert.True(t, clients.IsTransport(err))
}

func TestClient_MalformedBodyIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"clients": oops`))
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL).List(context.Background())
	require.Error(t, err)
	assert.True(t, clients.IsTransport(err))
	assert.Contains(t, err.Error(), "decoding response")
}

func TestClient_CreateWithoutIDFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"name":"ana"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL).Create(context.Background(), sampleInput("ana"))
	require.Error(t, err)
	assert.True(t, clients.IsTransport(err))
}

func TestClient_UpdateWithEmptyBodyKeepsID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/clients/42", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	got, err := New(srv.URL).Update(context.Background(), "42", sampleInput("bia"))
	require.NoError(t, err)
	assert.Equal(t, clients.ID("42"), got.ID)
	assert.Equal(t, "bia", got.Name)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	_, err := c.List(context.Background())
	require.Error(t, err)
	assert.True(t, clients.IsTransport(err))
}

func TestClient_RecordsSpans(t *testing.T) {
	srv, _ := newServer(t, mockapi.DefaultSeed())
	exporter := tracetest.NewInMemoryExporter()
	c := New(srv.URL, WithTracer(tracing.NewProviderWithExporter(exporter).Tracer()))

	_, err := c.List(context.Background())
	require.NoError(t, err)
	_ = c.Delete(context.Background(), "does-not-exist")

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, tracing.SpanClientsList, spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Equal(t, tracing.SpanClientsDelete, spans[1].Name)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
}

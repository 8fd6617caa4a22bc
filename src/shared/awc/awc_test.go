package awc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetarReturnsFirstReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "KIAD", r.URL.Query().Get("ids"), "station should be upper-cased")
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "false", r.URL.Query().Get("taf"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"rawOb":"KIAD 301152Z 11010KT 10SM FEW250 24/18 A2992","fltCat":"VFR","temp":24,"dewp":18,"altim":1013.2,"wdir":110,"wspd":10,"visib":"10+","clouds":[{"cover":"FEW","base":25000}]}]`))
	}))
	defer srv.Close()

	m, err := NewClientWithURL(srv.URL).Metar(context.Background(), "kiad")
	require.NoError(t, err, "fetch should succeed")
	assert.Equal(t, "VFR", m.FltCat)
	assert.Equal(t, float64(24), m.Temp)
	assert.Equal(t, "10+", m.Visib)
	require.Len(t, m.Clouds, 1)
	assert.Equal(t, "FEW", m.Clouds[0].Cover)
}

func TestMetarEmptyResponseIsNoReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := NewClientWithURL(srv.URL).Metar(context.Background(), "ZZZZ")
	assert.ErrorIs(t, err, ErrNoReport)
}

func TestMetarServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClientWithURL(srv.URL).Metar(context.Background(), "KDCA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHpaToInHg(t *testing.T) {
	assert.InDelta(t, 29.92, HpaToInHg(1013.25), 0.005)
	assert.InDelta(t, 30.12, HpaToInHg(1020.0), 0.005)
}

func TestCategoryColor(t *testing.T) {
	assert.Equal(t, 0x2ECC71, CategoryColor("VFR"))
	assert.Equal(t, 0x3498DB, CategoryColor("mvfr"), "category should be case-insensitive")
	assert.Equal(t, 0xE74C3C, CategoryColor("IFR"))
	assert.Equal(t, 0xEB459E, CategoryColor("LIFR"))
	assert.Equal(t, 0x607D8B, CategoryColor(""), "missing category falls back to grey")
	assert.Equal(t, 0x607D8B, CategoryColor("BOGUS"))
}

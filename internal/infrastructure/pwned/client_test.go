package pwned_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zzp-facturatie-api/internal/infrastructure/pwned"
)

// SHA-1("password") = 5BAA61E4C9B93F3F0682250B6CF8331B7EE68FD8
const passwordSuffix = "1E4C9B93F3F0682250B6CF8331B7EE68FD8"

func rangeServer(t *testing.T, status int, body string) (*httptest.Server, *string) {
	t.Helper()
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &gotPath
}

func TestIsBreached_EncuentraElSufijo(t *testing.T) {
	srv, path := rangeServer(t, http.StatusOK, strings.Join([]string{
		"0018A45C4D1DEF81644B54AB7F969B88D65:1",
		passwordSuffix + ":9659365",
	}, "\r\n"))

	breached, err := pwned.NewClient(srv.URL).IsBreached(context.Background(), "password")
	require.NoError(t, err)
	assert.True(t, breached)
	assert.Equal(t, "/range/5BAA6", *path, "solo el prefijo sale del proceso")
}

func TestIsBreached_RellenoConContadorCeroNoCuenta(t *testing.T) {
	srv, _ := rangeServer(t, http.StatusOK, passwordSuffix+":0\r\n")

	breached, err := pwned.NewClient(srv.URL).IsBreached(context.Background(), "password")
	require.NoError(t, err)
	assert.False(t, breached)
}

func TestIsBreached_ContrasenaDesconocida(t *testing.T) {
	srv, _ := rangeServer(t, http.StatusOK, "0018A45C4D1DEF81644B54AB7F969B88D65:1\r\n")

	breached, err := pwned.NewClient(srv.URL).IsBreached(context.Background(), "correct horse battery staple zzp")
	require.NoError(t, err)
	assert.False(t, breached)
}

func TestIsBreached_StatusInesperadoEsError(t *testing.T) {
	srv, _ := rangeServer(t, http.StatusBadRequest, "bad prefix")

	_, err := pwned.NewClient(srv.URL).IsBreached(context.Background(), "password")
	require.Error(t, err)
}

package pac_test

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loboISC/arrendamiento-sub002/internal/domain"
	"github.com/loboISC/arrendamiento-sub002/internal/infrastructure/pac"
	"github.com/loboISC/arrendamiento-sub002/pkg/config"
	"github.com/loboISC/arrendamiento-sub002/pkg/logger"
)

func clientePrueba(t *testing.T, srv *httptest.Server, timeout time.Duration) *pac.Client {
	t.Helper()
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	return pac.NewClient(config.PACConfig{
		BaseURL:  srv.URL,
		Usuario:  "usuario",
		Password: "clave",
		Modo:     "sellado",
		Timeout:  timeout,
	}, log)
}

func solicitudPrueba() pac.SolicitudTimbrado {
	return pac.SolicitudTimbrado{
		XMLBase64: base64.StdEncoding.EncodeToString([]byte("<cfdi:Comprobante/>")),
		EmisorRFC: "AAA010101AAA",
		Serie:     "A",
		Folio:     "123",
	}
}

func TestTimbrar_Exitoso(t *testing.T) {
	xmlTimbrado := base64.StdEncoding.EncodeToString([]byte("<cfdi:Comprobante>timbrado</cfdi:Comprobante>"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// el cliente siempre se autentica con Basic auth
		usuario, clave, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "usuario", usuario)
		assert.Equal(t, "clave", clave)
		assert.Equal(t, "/cfdi/timbrar", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"complemento": {"timbreFiscalDigital": {
				"uuid": "AD662D33-6934-459C-A128-BDF0393F0F44",
				"fechaTimbrado": "2024-05-15T12:00:05",
				"selloSAT": "c2F0",
				"noCertificadoSAT": "30001000000400002495"
			}},
			"xmlBase64": "` + xmlTimbrado + `"
		}`))
	}))
	defer srv.Close()

	res, err := clientePrueba(t, srv, 5*time.Second).Timbrar(context.Background(), solicitudPrueba())
	require.NoError(t, err)
	assert.Equal(t, "AD662D33-6934-459C-A128-BDF0393F0F44", res.UUID)
	assert.Equal(t, "c2F0", res.SelloSAT)
	assert.Equal(t, "30001000000400002495", res.NoCertificadoSAT)
	assert.Contains(t, string(res.XML), "timbrado")
}

// TestTimbrar_RechazoVerbatim: un 4xx del PAC es ErrTimbradoRechazado y los
// mensajes llegan tal cual, sin resumir ni traducir.
func TestTimbrar_RechazoVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"codigo": "CFDI40147", "mensajes": ["El campo DomicilioFiscalReceptor no es válido.", "CFDI40161 - RegimenFiscalReceptor no corresponde."]}`))
	}))
	defer srv.Close()

	_, err := clientePrueba(t, srv, 5*time.Second).Timbrar(context.Background(), solicitudPrueba())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTimbradoRechazado)

	var rechazo *domain.RechazoPACError
	require.True(t, errors.As(err, &rechazo))
	assert.Equal(t, "CFDI40147", rechazo.Codigo)
	require.Len(t, rechazo.Mensajes, 2)
	assert.Equal(t, "El campo DomicilioFiscalReceptor no es válido.", rechazo.Mensajes[0])
}

// Un cuerpo de rechazo que no es el JSON esperado se conserva crudo.
func TestTimbrar_RechazoCuerpoCrudo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("solicitud malformada"))
	}))
	defer srv.Close()

	_, err := clientePrueba(t, srv, 5*time.Second).Timbrar(context.Background(), solicitudPrueba())
	var rechazo *domain.RechazoPACError
	require.True(t, errors.As(err, &rechazo))
	assert.Equal(t, []string{"solicitud malformada"}, rechazo.Mensajes)
}

func TestTimbrar_ServidorCaido(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := clientePrueba(t, srv, 5*time.Second).Timbrar(context.Background(), solicitudPrueba())
	assert.ErrorIs(t, err, domain.ErrPACNoDisponible)
}

func TestTimbrar_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := clientePrueba(t, srv, 50*time.Millisecond).Timbrar(context.Background(), solicitudPrueba())
	assert.ErrorIs(t, err, domain.ErrPACNoDisponible, "un timeout es indisponibilidad transitoria")
}

// ── cancelación ───────────────────────────────────────────────────────────────

func TestCancelar_Exitoso(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cfdi/cancelar", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := clientePrueba(t, srv, 5*time.Second).Cancelar(context.Background(), pac.SolicitudCancelacion{
		EmisorRFC: "AAA010101AAA",
		UUID:      "AD662D33-6934-459C-A128-BDF0393F0F44",
		Motivo:    "02",
	})
	assert.NoError(t, err)
}

// TestCancelar_YaCancelada: cancelar dos veces es idempotente; el 409 del PAC
// se trata como éxito.
func TestCancelar_YaCancelada(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	err := clientePrueba(t, srv, 5*time.Second).Cancelar(context.Background(), pac.SolicitudCancelacion{
		EmisorRFC: "AAA010101AAA",
		UUID:      "AD662D33-6934-459C-A128-BDF0393F0F44",
		Motivo:    "02",
	})
	assert.NoError(t, err)
}

func TestCancelar_Rechazada(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"codigo": "205", "mensajes": ["UUID no encontrado en el SAT"]}`))
	}))
	defer srv.Close()

	err := clientePrueba(t, srv, 5*time.Second).Cancelar(context.Background(), pac.SolicitudCancelacion{
		EmisorRFC: "AAA010101AAA",
		UUID:      "00000000-0000-0000-0000-000000000000",
		Motivo:    "02",
	})
	assert.ErrorIs(t, err, domain.ErrTimbradoRechazado)
}

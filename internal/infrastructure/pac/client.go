// Package pac implementa el cliente HTTP del proveedor autorizado de
// certificación. El contrato de errores es estricto: un 4xx es un rechazo
// fiscal (mensajes verbatim, no se reintenta), un 5xx o fallo de red es
// indisponibilidad transitoria (reintentable).
package pac

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/loboISC/arrendamiento-sub002/internal/domain"
	pkgcfdi "github.com/loboISC/arrendamiento-sub002/pkg/cfdi"
	"github.com/loboISC/arrendamiento-sub002/pkg/config"
	"github.com/loboISC/arrendamiento-sub002/pkg/logger"
)

// Client habla con el PAC sobre HTTP con autenticación básica.
type Client struct {
	baseURL  string
	usuario  string
	password string
	modo     string
	http     *http.Client
	log      *logger.Logger
}

// NewClient crea el cliente con el timeout de timbrado configurado (30s por
// omisión). El contexto de cada llamada puede acortarlo, nunca alargarlo.
func NewClient(cfg config.PACConfig, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		usuario:  cfg.Usuario,
		password: cfg.Password,
		modo:     cfg.Modo,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Timbrar envía el comprobante al PAC y devuelve el timbre fiscal. El XML
// puede ir sellado (modo sellado) o sin sello (modo hosted); el endpoint
// cambia según el modo.
func (c *Client) Timbrar(ctx context.Context, sol SolicitudTimbrado) (*ResultadoTimbrado, error) {
	ruta := "/cfdi/timbrar"
	if c.modo == "hosted" {
		ruta = "/cfdi/sellar-y-timbrar"
	}
	cuerpo, err := json.Marshal(sol)
	if err != nil {
		return nil, fmt.Errorf("pac: serializando solicitud: %w", err)
	}

	resp, err := c.hacer(ctx, http.MethodPost, ruta, cuerpo)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: leyendo respuesta: %v", domain.ErrPACNoDisponible, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return decodificarTimbre(body)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, rechazoDesde(resp.StatusCode, body)
	default:
		c.log.Warn().Int("status", resp.StatusCode).Msg("pac: respuesta de servidor no disponible")
		return nil, fmt.Errorf("%w: HTTP %d del PAC", domain.ErrPACNoDisponible, resp.StatusCode)
	}
}

// Cancelar solicita la cancelación del comprobante. La operación es
// idempotente: un comprobante ya cancelado responde éxito.
func (c *Client) Cancelar(ctx context.Context, sol SolicitudCancelacion) error {
	cuerpo, err := json.Marshal(sol)
	if err != nil {
		return fmt.Errorf("pac: serializando cancelación: %w", err)
	}
	resp, err := c.hacer(ctx, http.MethodPost, "/cfdi/cancelar", cuerpo)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: leyendo respuesta: %v", domain.ErrPACNoDisponible, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict:
		// Ya estaba cancelado: para el negocio es el mismo resultado.
		c.log.Info().Str("uuid", sol.UUID).Msg("pac: comprobante ya cancelado")
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return rechazoDesde(resp.StatusCode, body)
	default:
		return fmt.Errorf("%w: HTTP %d del PAC", domain.ErrPACNoDisponible, resp.StatusCode)
	}
}

func (c *Client) hacer(ctx context.Context, metodo, ruta string, cuerpo []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, metodo, c.baseURL+ruta, bytes.NewReader(cuerpo))
	if err != nil {
		return nil, fmt.Errorf("pac: creando request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.usuario, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeout, DNS, conexión rehusada: todo transitorio.
		return nil, fmt.Errorf("%w: %v", domain.ErrPACNoDisponible, err)
	}
	return resp, nil
}

func decodificarTimbre(body []byte) (*ResultadoTimbrado, error) {
	var r RespuestaTimbrado
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("%w: respuesta de timbrado ilegible: %v", domain.ErrPACNoDisponible, err)
	}
	tfd := r.Complemento.TimbreFiscalDigital
	if tfd.UUID == "" {
		return nil, fmt.Errorf("%w: respuesta de timbrado sin UUID", domain.ErrPACNoDisponible)
	}
	fecha, err := time.Parse(pkgcfdi.FormatoFecha, tfd.FechaTimbrado)
	if err != nil {
		return nil, fmt.Errorf("%w: FechaTimbrado %q inválida: %v", domain.ErrPACNoDisponible, tfd.FechaTimbrado, err)
	}
	res := &ResultadoTimbrado{
		UUID:             tfd.UUID,
		FechaTimbrado:    fecha,
		SelloCFD:         tfd.SelloCFD,
		SelloSAT:         tfd.SelloSAT,
		NoCertificadoSAT: tfd.NoCertificadoSAT,
	}
	if r.XMLBase64 != "" {
		xml, err := base64.StdEncoding.DecodeString(r.XMLBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: XML timbrado no es base64: %v", domain.ErrPACNoDisponible, err)
		}
		res.XML = xml
	}
	if r.PDFBase64 != "" {
		if pdf, err := base64.StdEncoding.DecodeString(r.PDFBase64); err == nil {
			res.PDF = pdf
		}
	}
	return res, nil
}

// rechazoDesde arma el error de rechazo conservando los mensajes del PAC tal
// cual. Si el cuerpo no es el JSON esperado, el cuerpo crudo es el mensaje.
func rechazoDesde(status int, body []byte) error {
	var re respuestaError
	if err := json.Unmarshal(body, &re); err == nil && (len(re.Mensajes) > 0 || re.Mensaje != "") {
		mensajes := re.Mensajes
		if re.Mensaje != "" {
			mensajes = append([]string{re.Mensaje}, mensajes...)
		}
		return &domain.RechazoPACError{Codigo: re.Codigo, Mensajes: mensajes}
	}
	return &domain.RechazoPACError{
		Codigo:   fmt.Sprintf("HTTP-%d", status),
		Mensajes: []string{string(body)},
	}
}

package facturacion_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loboISC/arrendamiento-sub002/internal/application/facturacion"
	"github.com/loboISC/arrendamiento-sub002/internal/domain"
	"github.com/loboISC/arrendamiento-sub002/internal/domain/entity"
	infracfdi "github.com/loboISC/arrendamiento-sub002/internal/infrastructure/cfdi"
	"github.com/loboISC/arrendamiento-sub002/internal/infrastructure/pac"
	pkgcfdi "github.com/loboISC/arrendamiento-sub002/pkg/cfdi"
	"github.com/loboISC/arrendamiento-sub002/pkg/config"
	"github.com/loboISC/arrendamiento-sub002/pkg/logger"
)

// ── dobles ────────────────────────────────────────────────────────────────────

// repoFake repositorio en memoria.
type repoFake struct {
	mu       sync.Mutex
	facturas map[string]*entity.Factura
}

func newRepoFake() *repoFake {
	return &repoFake{facturas: make(map[string]*entity.Factura)}
}

func (r *repoFake) Create(_ context.Context, f *entity.Factura) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.facturas {
		if e.EmisorRFC == f.EmisorRFC && e.Serie == f.Serie && e.Folio == f.Folio {
			return domain.ErrDuplicate
		}
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	r.facturas[f.ID] = f
	return nil
}

func (r *repoFake) UpdateTimbre(_ context.Context, f *entity.Factura) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.facturas[f.ID]; !ok {
		return domain.ErrNotFound
	}
	r.facturas[f.ID] = f
	return nil
}

func (r *repoFake) UpdateEstado(_ context.Context, id, estado string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.facturas[id]
	if !ok {
		return domain.ErrNotFound
	}
	f.Estado = estado
	return nil
}

func (r *repoFake) UpdatePDF(_ context.Context, id string, pdf []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.facturas[id]
	if !ok {
		return domain.ErrNotFound
	}
	f.PDF = pdf
	return nil
}

func (r *repoFake) GetByID(_ context.Context, id string) (*entity.Factura, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.facturas[id]; ok {
		return f, nil
	}
	return nil, domain.ErrNotFound
}

func (r *repoFake) GetByUUID(_ context.Context, uuidFiscal string) (*entity.Factura, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.facturas {
		if f.UUID == uuidFiscal {
			return f, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *repoFake) GetBySerieFolio(_ context.Context, emisorRFC, serie, folio string) (*entity.Factura, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.facturas {
		if f.EmisorRFC == emisorRFC && f.Serie == serie && f.Folio == folio {
			return f, nil
		}
	}
	return nil, domain.ErrNotFound
}

// pacFake cliente PAC programable.
type pacFake struct {
	mu            sync.Mutex
	timbrarCalls  int
	cancelarCalls int
	timbrarFn     func() (*pac.ResultadoTimbrado, error)
	cancelarErr   error
}

func (p *pacFake) Timbrar(context.Context, pac.SolicitudTimbrado) (*pac.ResultadoTimbrado, error) {
	p.mu.Lock()
	p.timbrarCalls++
	fn := p.timbrarFn
	p.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return resultadoExitoso(), nil
}

func (p *pacFake) Cancelar(context.Context, pac.SolicitudCancelacion) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelarCalls++
	return p.cancelarErr
}

func (p *pacFake) llamadasTimbrar() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timbrarCalls
}

func (p *pacFake) llamadasCancelar() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelarCalls
}

func resultadoExitoso() *pac.ResultadoTimbrado {
	return &pac.ResultadoTimbrado{
		UUID:             "AD662D33-6934-459C-A128-BDF0393F0F44",
		FechaTimbrado:    time.Date(2024, 5, 15, 12, 0, 5, 0, time.UTC),
		SelloCFD:         "c2VsbG8tY2Zk",
		SelloSAT:         "c2VsbG8tc2F0",
		NoCertificadoSAT: "30001000000400002495",
		XML:              []byte("<cfdi:Comprobante>timbrado</cfdi:Comprobante>"),
	}
}

// pdfFake renderizador que siempre entrega los mismos bytes.
type pdfFake struct{ fallar bool }

func (p *pdfFake) GenerarPDF(context.Context, *entity.Factura, *infracfdi.Documento) ([]byte, error) {
	if p.fallar {
		return nil, domain.ErrFalloRender
	}
	return []byte("%PDF-fake"), nil
}

// ── fixtures ──────────────────────────────────────────────────────────────────

func configPrueba() *config.Config {
	return &config.Config{
		Emisor: config.EmisorConfig{
			RFC:           "AAA010101AAA",
			Nombre:        "ANDAMIOS Y EQUIPOS SA DE CV",
			RegimenFiscal: pkgcfdi.RegimenGeneralLeyPM,
			CodigoPostal:  "64000",
		},
		// hosted: el PAC sella con el CSD que resguarda; no se carga credencial local
		PAC: config.PACConfig{Modo: "hosted", Timeout: 5 * time.Second},
	}
}

func borradorPrueba(folio string) *entity.BorradorFactura {
	return &entity.BorradorFactura{
		Serie:      "A",
		Folio:      folio,
		Fecha:      time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC),
		FormaPago:  pkgcfdi.FormaPagoTransferencia,
		MetodoPago: pkgcfdi.MetodoPagoPUE,
		Moneda:     pkgcfdi.MonedaMXN,
		SubTotal:   decimal.RequireFromString("1000.00"),
		Total:      decimal.RequireFromString("1160.00"),
		Receptor: entity.Receptor{
			RFC:           "CACX7605101P8",
			Nombre:        "XOCHILT CASAS CHAVEZ",
			CodigoPostal:  "36257",
			RegimenFiscal: pkgcfdi.RegimenPersonasFisicas,
			UsoCFDI:       pkgcfdi.UsoGastosGenerales,
		},
		Conceptos: []entity.Concepto{{
			ClaveProdServ: "80131501",
			Cantidad:      decimal.NewFromInt(1),
			ClaveUnidad:   pkgcfdi.UnidadMes,
			Unidad:        "Mes",
			Descripcion:   "Renta mensual de andamio estructural",
			ValorUnitario: decimal.RequireFromString("1000.00"),
			Importe:       decimal.RequireFromString("1000.00"),
			ObjetoImp:     pkgcfdi.ObjetoImpSi,
			Traslados: []entity.Traslado{{
				Base:       decimal.RequireFromString("1000.00"),
				Impuesto:   pkgcfdi.ImpuestoIVA,
				TipoFactor: pkgcfdi.TipoFactorTasa,
				TasaOCuota: decimal.RequireFromString("0.16"),
				Importe:    decimal.RequireFromString("160.00"),
			}},
		}},
	}
}

func servicioPrueba(repo *repoFake, clientePAC *pacFake) *facturacion.Service {
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	return facturacion.NewService(repo, clientePAC, &pdfFake{}, configPrueba(), log)
}

// ── timbrado ──────────────────────────────────────────────────────────────────

func TestTimbrarBorrador_Exitoso(t *testing.T) {
	repo := newRepoFake()
	clientePAC := &pacFake{}
	svc := servicioPrueba(repo, clientePAC)

	f, err := svc.TimbrarBorrador(context.Background(), borradorPrueba("100"))
	require.NoError(t, err)

	assert.Equal(t, entity.EstadoTimbrada, f.Estado)
	assert.Equal(t, "AD662D33-6934-459C-A128-BDF0393F0F44", f.UUID)
	assert.Equal(t, "c2VsbG8tc2F0", f.SelloSAT)
	assert.NotNil(t, f.FechaTimbrado)
	assert.NotEmpty(t, f.CadenaOriginal)
	assert.Contains(t, string(f.XML), "timbrado")
	assert.NotEmpty(t, f.PDF, "la representación impresa se genera tras el timbrado")

	persistida, err := repo.GetByUUID(context.Background(), f.UUID)
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoTimbrada, persistida.Estado)
}

func TestTimbrarBorrador_BorradorInvalido(t *testing.T) {
	repo := newRepoFake()
	clientePAC := &pacFake{}
	svc := servicioPrueba(repo, clientePAC)

	b := borradorPrueba("101")
	b.Total = decimal.RequireFromString("9999.00")
	_, err := svc.TimbrarBorrador(context.Background(), b)
	require.Error(t, err)
	assert.Zero(t, clientePAC.llamadasTimbrar(), "un borrador inválido nunca llega al PAC")
}

// TestTimbrarBorrador_Rechazo: el rechazo del PAC deja la factura en REJECTED
// con los mensajes verbatim; no hay reintento automático.
func TestTimbrarBorrador_Rechazo(t *testing.T) {
	repo := newRepoFake()
	clientePAC := &pacFake{timbrarFn: func() (*pac.ResultadoTimbrado, error) {
		return nil, &domain.RechazoPACError{
			Codigo:   "CFDI40147",
			Mensajes: []string{"El campo DomicilioFiscalReceptor no es válido."},
		}
	}}
	svc := servicioPrueba(repo, clientePAC)

	_, err := svc.TimbrarBorrador(context.Background(), borradorPrueba("102"))
	assert.ErrorIs(t, err, domain.ErrTimbradoRechazado)
	assert.Equal(t, 1, clientePAC.llamadasTimbrar(), "un rechazo no se reintenta")

	f, err := repo.GetBySerieFolio(context.Background(), "AAA010101AAA", "A", "102")
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoRechazada, f.Estado)
	assert.Equal(t, "El campo DomicilioFiscalReceptor no es válido.", f.ErroresPAC)
	assert.Empty(t, f.UUID, "una factura rechazada nunca tiene UUID")
}

// TestTimbrarBorrador_PACNoDisponible: la indisponibilidad agota los
// reintentos y deja el borrador intacto, listo para reintentar el mismo folio.
func TestTimbrarBorrador_PACNoDisponible(t *testing.T) {
	repo := newRepoFake()
	clientePAC := &pacFake{timbrarFn: func() (*pac.ResultadoTimbrado, error) {
		return nil, fmt.Errorf("%w: connection refused", domain.ErrPACNoDisponible)
	}}
	svc := servicioPrueba(repo, clientePAC)

	_, err := svc.TimbrarBorrador(context.Background(), borradorPrueba("103"))
	assert.ErrorIs(t, err, domain.ErrPACNoDisponible)
	assert.Equal(t, 3, clientePAC.llamadasTimbrar(), "la indisponibilidad se reintenta hasta 3 veces")

	f, err := repo.GetBySerieFolio(context.Background(), "AAA010101AAA", "A", "103")
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoBorrador, f.Estado)
}

// Tras una caída del PAC, reintentar con el mismo folio retoma el registro
// DRAFT existente en lugar de duplicarlo.
func TestTimbrarBorrador_ReintentoMismoFolio(t *testing.T) {
	repo := newRepoFake()
	intentos := 0
	clientePAC := &pacFake{timbrarFn: func() (*pac.ResultadoTimbrado, error) {
		intentos++
		if intentos <= 3 {
			return nil, fmt.Errorf("%w: timeout", domain.ErrPACNoDisponible)
		}
		return resultadoExitoso(), nil
	}}
	svc := servicioPrueba(repo, clientePAC)

	_, err := svc.TimbrarBorrador(context.Background(), borradorPrueba("104"))
	require.ErrorIs(t, err, domain.ErrPACNoDisponible)

	f, err := svc.TimbrarBorrador(context.Background(), borradorPrueba("104"))
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoTimbrada, f.Estado)
	assert.Len(t, repo.facturas, 1, "el reintento no duplica el registro")
}

func TestTimbrarBorrador_FolioTimbradoNoSeReutiliza(t *testing.T) {
	repo := newRepoFake()
	clientePAC := &pacFake{}
	svc := servicioPrueba(repo, clientePAC)

	_, err := svc.TimbrarBorrador(context.Background(), borradorPrueba("105"))
	require.NoError(t, err)

	_, err = svc.TimbrarBorrador(context.Background(), borradorPrueba("105"))
	assert.ErrorIs(t, err, domain.ErrTransicionInvalida)
}

// TestTimbrarBorrador_EnVuelo: dos intentos concurrentes del mismo folio; el
// segundo recibe ErrTimbradoEnCurso sin tocar al PAC.
func TestTimbrarBorrador_EnVuelo(t *testing.T) {
	repo := newRepoFake()
	iniciado := make(chan struct{})
	continuar := make(chan struct{})
	clientePAC := &pacFake{timbrarFn: func() (*pac.ResultadoTimbrado, error) {
		close(iniciado)
		<-continuar
		return resultadoExitoso(), nil
	}}
	svc := servicioPrueba(repo, clientePAC)

	done := make(chan error, 1)
	go func() {
		_, err := svc.TimbrarBorrador(context.Background(), borradorPrueba("106"))
		done <- err
	}()

	<-iniciado
	_, err := svc.TimbrarBorrador(context.Background(), borradorPrueba("106"))
	assert.ErrorIs(t, err, domain.ErrTimbradoEnCurso)

	close(continuar)
	require.NoError(t, <-done)
	assert.Equal(t, 1, clientePAC.llamadasTimbrar())
}

func TestTimbrarBorrador_FacturaGlobal(t *testing.T) {
	repo := newRepoFake()
	clientePAC := &pacFake{}
	svc := servicioPrueba(repo, clientePAC)

	b := borradorPrueba("107")
	b.Receptor = entity.Receptor{
		RFC:           pkgcfdi.RFCGenerico,
		Nombre:        "PUBLICO EN GENERAL",
		CodigoPostal:  "64000",
		RegimenFiscal: pkgcfdi.RegimenSinObligaciones,
		UsoCFDI:       pkgcfdi.UsoSinEfectosFiscales,
	}
	b.Global = &entity.InformacionGlobal{
		Periodicidad: pkgcfdi.PeriodicidadMensual,
		Meses:        "05",
		Anio:         2024,
	}

	f, err := svc.TimbrarBorrador(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoTimbrada, f.Estado)
	assert.Contains(t, f.CadenaOriginal, "|04|05|2024|")
	assert.NotContains(t, f.CadenaOriginal, "PUBLICO EN GENERAL")
}

// ── cancelación ───────────────────────────────────────────────────────────────

func timbrada(t *testing.T, repo *repoFake, svc *facturacion.Service, folio string) *entity.Factura {
	t.Helper()
	f, err := svc.TimbrarBorrador(context.Background(), borradorPrueba(folio))
	require.NoError(t, err)
	return f
}

func TestCancelar_Exitosa(t *testing.T) {
	repo := newRepoFake()
	clientePAC := &pacFake{}
	svc := servicioPrueba(repo, clientePAC)
	f := timbrada(t, repo, svc, "200")

	cancelada, err := svc.Cancelar(context.Background(), f.UUID, pkgcfdi.MotivoCancelNoSeLlevoACabo, "")
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoCancelada, cancelada.Estado)
	assert.Equal(t, 1, clientePAC.llamadasCancelar())
}

// Cancelar dos veces es idempotente: la segunda responde éxito sin ir al PAC.
func TestCancelar_Idempotente(t *testing.T) {
	repo := newRepoFake()
	clientePAC := &pacFake{}
	svc := servicioPrueba(repo, clientePAC)
	f := timbrada(t, repo, svc, "201")

	_, err := svc.Cancelar(context.Background(), f.UUID, pkgcfdi.MotivoCancelNoSeLlevoACabo, "")
	require.NoError(t, err)

	cancelada, err := svc.Cancelar(context.Background(), f.UUID, pkgcfdi.MotivoCancelNoSeLlevoACabo, "")
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoCancelada, cancelada.Estado)
	assert.Equal(t, 1, clientePAC.llamadasCancelar())
}

func TestCancelar_MotivoInvalido(t *testing.T) {
	svc := servicioPrueba(newRepoFake(), &pacFake{})

	_, err := svc.Cancelar(context.Background(), "cualquier-uuid", "99", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCancelar_Motivo01ExigeSustitucion(t *testing.T) {
	svc := servicioPrueba(newRepoFake(), &pacFake{})

	_, err := svc.Cancelar(context.Background(), "cualquier-uuid", pkgcfdi.MotivoCancelConErrorConRelacion, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCancelar_NoEncontrada(t *testing.T) {
	svc := servicioPrueba(newRepoFake(), &pacFake{})

	_, err := svc.Cancelar(context.Background(), "00000000-0000-0000-0000-000000000000", pkgcfdi.MotivoCancelConError, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ── representación impresa ────────────────────────────────────────────────────

func TestRegenerarPDF(t *testing.T) {
	repo := newRepoFake()
	clientePAC := &pacFake{timbrarFn: func() (*pac.ResultadoTimbrado, error) {
		// el PAC devuelve solo el timbre; el XML final se fusiona localmente
		res := resultadoExitoso()
		res.XML = nil
		res.SelloCFD = ""
		return res, nil
	}}
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	svc := facturacion.NewService(repo, clientePAC, &pdfFake{fallar: true}, configPrueba(), log)

	f, err := svc.TimbrarBorrador(context.Background(), borradorPrueba("300"))
	require.NoError(t, err, "el fallo del PDF no invalida el timbrado")
	assert.Equal(t, entity.EstadoTimbrada, f.Estado)
	assert.Empty(t, f.PDF)

	// segundo intento con un renderizador sano
	svc2 := facturacion.NewService(repo, clientePAC, &pdfFake{}, configPrueba(), log)
	pdfBytes, err := svc2.RegenerarPDF(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-fake"), pdfBytes)

	persistida, err := repo.GetByID(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-fake"), persistida.PDF)
}

package facturacion

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/loboISC/arrendamiento-sub002/internal/domain"
	domcfdi "github.com/loboISC/arrendamiento-sub002/internal/domain/cfdi"
	"github.com/loboISC/arrendamiento-sub002/internal/domain/entity"
	"github.com/loboISC/arrendamiento-sub002/internal/domain/repository"
	infracfdi "github.com/loboISC/arrendamiento-sub002/internal/infrastructure/cfdi"
	"github.com/loboISC/arrendamiento-sub002/internal/infrastructure/cfdi/csd"
	"github.com/loboISC/arrendamiento-sub002/internal/infrastructure/pac"
	pkgcfdi "github.com/loboISC/arrendamiento-sub002/pkg/cfdi"
	"github.com/loboISC/arrendamiento-sub002/pkg/config"
	"github.com/loboISC/arrendamiento-sub002/pkg/logger"
)

const (
	intentosPAC = 3
	esperaPAC   = time.Second
)

// Service coordina el pipeline de timbrado y las transiciones de estado de la
// factura. Garantiza un solo intento en vuelo por (emisor, serie, folio):
// timbrado y cancelación del mismo comprobante se excluyen mutuamente.
type Service struct {
	repo repository.FacturaRepository
	pac  ClientePAC
	pdf  RenderizadorPDF
	log  *logger.Logger

	emisor         entity.Emisor
	emisorCfg      config.EmisorConfig
	secretoMaestro string
	modoSellado    bool

	muVuelo sync.Mutex
	enVuelo map[string]struct{}

	// credencial del CSD cargada perezosamente; la contraseña descifrada no
	// sobrevive a la carga.
	muCred sync.Mutex
	cred   *csd.Credencial
}

func NewService(
	repo repository.FacturaRepository,
	clientePAC ClientePAC,
	renderizador RenderizadorPDF,
	cfg *config.Config,
	log *logger.Logger,
) *Service {
	return &Service{
		repo: repo,
		pac:  clientePAC,
		pdf:  renderizador,
		log:  log,
		emisor: entity.Emisor{
			RFC:           cfg.Emisor.RFC,
			Nombre:        cfg.Emisor.Nombre,
			RegimenFiscal: cfg.Emisor.RegimenFiscal,
			CodigoPostal:  cfg.Emisor.CodigoPostal,
		},
		emisorCfg:      cfg.Emisor,
		secretoMaestro: cfg.Crypto.SecretoMaestro,
		modoSellado:    cfg.PAC.Modo != "hosted",
		enVuelo:        make(map[string]struct{}),
	}
}

// TimbrarBorrador valida el borrador, construye el comprobante, lo sella (en
// modo sellado) y lo envía al PAC. El resultado queda persistido: STAMPED con
// su timbre, REJECTED con los mensajes verbatim del PAC, o DRAFT intacto si el
// PAC no estuvo disponible (reintentable con el mismo folio).
func (s *Service) TimbrarBorrador(ctx context.Context, b *entity.BorradorFactura) (*entity.Factura, error) {
	if err := domcfdi.ValidarBorrador(b); err != nil {
		return nil, err
	}

	clave := claveVuelo(s.emisor.RFC, b.Serie, b.Folio)
	if !s.adquirir(clave) {
		return nil, fmt.Errorf("%w: %s", domain.ErrTimbradoEnCurso, clave)
	}
	defer s.liberar(clave)

	doc, err := s.construirDocumento(b)
	if err != nil {
		return nil, err
	}
	cadena := infracfdi.CadenaOriginal(doc)

	factura, err := s.facturaParaTimbrar(ctx, b, cadena)
	if err != nil {
		return nil, err
	}

	var sello *infracfdi.Sello
	if s.modoSellado {
		cred, err := s.credencial()
		if err != nil {
			return nil, err
		}
		if sello, err = csd.Sellar(cadena, cred); err != nil {
			return nil, err
		}
		factura.SelloCFD = sello.SelloBase64
		factura.NoCertificado = sello.NoCertificado
	}

	xml, err := infracfdi.SerializarXML(doc, sello)
	if err != nil {
		return nil, err
	}

	sol := pac.SolicitudTimbrado{
		XMLBase64: base64.StdEncoding.EncodeToString(xml),
		EmisorRFC: s.emisor.RFC,
		Serie:     b.Serie,
		Folio:     b.Folio,
	}
	var res *pac.ResultadoTimbrado
	err = reintentar(ctx, intentosPAC, esperaPAC, func() error {
		var errT error
		res, errT = s.pac.Timbrar(ctx, sol)
		return errT
	})
	if err != nil {
		return nil, s.registrarFalloTimbrado(ctx, factura, err)
	}

	if err := s.aplicarTimbre(ctx, factura, xml, res); err != nil {
		return nil, err
	}

	s.renderizarPDF(ctx, factura, doc)
	return factura, nil
}

// Cancelar solicita al SAT (vía PAC) la cancelación de una factura timbrada.
// Solo STAMPED admite cancelación; una factura ya CANCELLED responde éxito
// sin tocar al PAC. Motivo 01 exige el folio fiscal sustituto.
func (s *Service) Cancelar(ctx context.Context, uuidFiscal, motivo, folioSustitucion string) (*entity.Factura, error) {
	if !pkgcfdi.ValidMotivosCancelacion[motivo] {
		return nil, fmt.Errorf("%w: motivo de cancelación %q fuera de catálogo", domain.ErrInvalidInput, motivo)
	}
	if motivo == pkgcfdi.MotivoCancelConErrorConRelacion && folioSustitucion == "" {
		return nil, fmt.Errorf("%w: el motivo 01 requiere folio de sustitución", domain.ErrInvalidInput)
	}

	f, err := s.repo.GetByUUID(ctx, uuidFiscal)
	if err != nil {
		return nil, err
	}

	clave := claveVuelo(f.EmisorRFC, f.Serie, f.Folio)
	if !s.adquirir(clave) {
		return nil, fmt.Errorf("%w: %s", domain.ErrTimbradoEnCurso, clave)
	}
	defer s.liberar(clave)

	if f.Estado == entity.EstadoCancelada {
		return f, nil
	}
	if !f.PuedeCancelar() {
		return nil, fmt.Errorf("%w: no se puede cancelar una factura en estado %s",
			domain.ErrTransicionInvalida, f.Estado)
	}

	sol := pac.SolicitudCancelacion{
		EmisorRFC:        f.EmisorRFC,
		UUID:             f.UUID,
		Motivo:           motivo,
		FolioSustitucion: folioSustitucion,
	}
	err = reintentar(ctx, intentosPAC, esperaPAC, func() error {
		return s.pac.Cancelar(ctx, sol)
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateEstado(ctx, f.ID, entity.EstadoCancelada); err != nil {
		return nil, err
	}
	f.Estado = entity.EstadoCancelada
	s.log.Info().Str("uuid", f.UUID).Str("motivo", motivo).Msg("factura cancelada")
	return f, nil
}

// RegenerarPDF vuelve a producir la representación impresa desde el XML
// almacenado. Disponible para facturas timbradas o canceladas.
func (s *Service) RegenerarPDF(ctx context.Context, id string) ([]byte, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(f.XML) == 0 {
		return nil, fmt.Errorf("%w: la factura %s no tiene XML timbrado", domain.ErrFalloRender, id)
	}
	doc, err := infracfdi.ParsearComprobante(f.XML)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFalloRender, err)
	}
	pdfBytes, err := s.pdf.GenerarPDF(ctx, f, doc)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePDF(ctx, f.ID, pdfBytes); err != nil {
		return nil, err
	}
	return pdfBytes, nil
}

// ObtenerPorUUID devuelve la factura por su folio fiscal.
func (s *Service) ObtenerPorUUID(ctx context.Context, uuidFiscal string) (*entity.Factura, error) {
	return s.repo.GetByUUID(ctx, uuidFiscal)
}

// ObtenerPorID devuelve la factura por su identificador local.
func (s *Service) ObtenerPorID(ctx context.Context, id string) (*entity.Factura, error) {
	return s.repo.GetByID(ctx, id)
}

// ── pipeline interno ──────────────────────────────────────────────────────────

func (s *Service) construirDocumento(b *entity.BorradorFactura) (*infracfdi.Documento, error) {
	if pkgcfdi.EsRFCGenerico(b.Receptor.RFC) {
		return infracfdi.BuildDocumentoGlobal(s.emisor, b)
	}
	return infracfdi.BuildDocumento(s.emisor, b)
}

// facturaParaTimbrar crea el registro DRAFT o retoma uno existente con el
// mismo folio cuyo intento anterior no se resolvió (PAC caído). Un folio ya
// timbrado o rechazado no se reutiliza.
func (s *Service) facturaParaTimbrar(ctx context.Context, b *entity.BorradorFactura, cadena string) (*entity.Factura, error) {
	existente, err := s.repo.GetBySerieFolio(ctx, s.emisor.RFC, b.Serie, b.Folio)
	switch {
	case err == nil:
		if !existente.PuedeTimbrar() {
			return nil, fmt.Errorf("%w: el folio %s-%s ya está en estado %s",
				domain.ErrTransicionInvalida, b.Serie, b.Folio, existente.Estado)
		}
		existente.CadenaOriginal = cadena
		return existente, nil
	case errors.Is(err, domain.ErrNotFound):
		// continúa: primer intento para este folio
	default:
		return nil, err
	}

	f := &entity.Factura{
		EmisorRFC:      s.emisor.RFC,
		ReceptorRFC:    b.Receptor.RFC,
		ReceptorNombre: b.Receptor.Nombre,
		Serie:          b.Serie,
		Folio:          b.Folio,
		FechaEmision:   b.Fecha,
		CadenaOriginal: cadena,
		SubTotal:       b.SubTotal,
		Descuento:      b.Descuento,
		TotalImpuestos: b.TotalImpuestosTrasladados(),
		Total:          b.Total,
		Estado:         entity.EstadoBorrador,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// registrarFalloTimbrado decide el destino del borrador según el tipo de
// fallo: un rechazo es definitivo para este folio; la indisponibilidad deja el
// borrador intacto para reintentar.
func (s *Service) registrarFalloTimbrado(ctx context.Context, f *entity.Factura, errPAC error) error {
	var rechazo *domain.RechazoPACError
	if !errors.As(errPAC, &rechazo) {
		s.log.Warn().Str("folio", f.Folio).Err(errPAC).Msg("timbrado sin resolver; el borrador queda reintentable")
		return errPAC
	}

	f.Estado = entity.EstadoRechazada
	f.ErroresPAC = rechazo.DetalleVerbatim()
	if err := s.repo.UpdateTimbre(ctx, f); err != nil {
		s.log.Error().Str("folio", f.Folio).Err(err).Msg("no se pudo persistir el rechazo del PAC")
	}
	s.log.Info().Str("folio", f.Folio).Str("codigo", rechazo.Codigo).Msg("comprobante rechazado por el PAC")
	return errPAC
}

func (s *Service) aplicarTimbre(ctx context.Context, f *entity.Factura, xmlSellado []byte, res *pac.ResultadoTimbrado) error {
	xmlFinal := res.XML
	if len(xmlFinal) == 0 {
		fusionado, err := infracfdi.FusionarTimbre(xmlSellado, &infracfdi.Timbre{
			UUID:             res.UUID,
			FechaTimbrado:    res.FechaTimbrado,
			SelloCFD:         f.SelloCFD,
			SelloSAT:         res.SelloSAT,
			NoCertificadoSAT: res.NoCertificadoSAT,
		})
		if err != nil {
			return err
		}
		xmlFinal = fusionado
	}

	fecha := res.FechaTimbrado
	f.UUID = res.UUID
	f.FechaTimbrado = &fecha
	f.SelloSAT = res.SelloSAT
	f.NoCertificadoSAT = res.NoCertificadoSAT
	if res.SelloCFD != "" {
		// Modo hosted: el sello del emisor lo puso el PAC.
		f.SelloCFD = res.SelloCFD
	}
	f.XML = xmlFinal
	f.Estado = entity.EstadoTimbrada
	f.ErroresPAC = ""

	if err := s.repo.UpdateTimbre(ctx, f); err != nil {
		return err
	}
	s.log.Info().Str("uuid", f.UUID).Str("folio", f.Folio).Msg("factura timbrada")

	if len(res.PDF) > 0 {
		f.PDF = res.PDF
		if err := s.repo.UpdatePDF(ctx, f.ID, res.PDF); err != nil {
			s.log.Warn().Str("uuid", f.UUID).Err(err).Msg("no se pudo guardar el PDF del PAC")
		}
	}
	return nil
}

// renderizarPDF genera la representación impresa localmente si el PAC no la
// entregó. Best effort: el fallo se registra y el PDF puede regenerarse luego.
func (s *Service) renderizarPDF(ctx context.Context, f *entity.Factura, doc *infracfdi.Documento) {
	if len(f.PDF) > 0 || s.pdf == nil {
		return
	}
	pdfBytes, err := s.pdf.GenerarPDF(ctx, f, doc)
	if err != nil {
		s.log.Warn().Str("uuid", f.UUID).Err(err).Msg("fallo al generar la representación impresa")
		return
	}
	if err := s.repo.UpdatePDF(ctx, f.ID, pdfBytes); err != nil {
		s.log.Warn().Str("uuid", f.UUID).Err(err).Msg("no se pudo guardar el PDF")
		return
	}
	f.PDF = pdfBytes
}

// credencial carga el CSD una sola vez y lo reutiliza.
func (s *Service) credencial() (*csd.Credencial, error) {
	s.muCred.Lock()
	defer s.muCred.Unlock()
	if s.cred != nil {
		return s.cred, nil
	}
	cred, err := csd.CargarCredencial(s.emisorCfg, s.secretoMaestro)
	if err != nil {
		return nil, err
	}
	s.cred = cred
	return cred, nil
}

func claveVuelo(emisorRFC, serie, folio string) string {
	return emisorRFC + "|" + serie + "|" + folio
}

func (s *Service) adquirir(clave string) bool {
	s.muVuelo.Lock()
	defer s.muVuelo.Unlock()
	if _, ocupado := s.enVuelo[clave]; ocupado {
		return false
	}
	s.enVuelo[clave] = struct{}{}
	return true
}

func (s *Service) liberar(clave string) {
	s.muVuelo.Lock()
	defer s.muVuelo.Unlock()
	delete(s.enVuelo, clave)
}

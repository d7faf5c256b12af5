package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loboISC/arrendamiento-sub002/internal/domain"
	"github.com/loboISC/arrendamiento-sub002/internal/domain/entity"
	"github.com/loboISC/arrendamiento-sub002/internal/domain/repository"
)

// FacturaRepository implementación PostgreSQL del repositorio de facturas.
type FacturaRepository struct {
	pool *pgxpool.Pool
}

var _ repository.FacturaRepository = (*FacturaRepository)(nil)

func NewFacturaRepository(pool *pgxpool.Pool) *FacturaRepository {
	return &FacturaRepository{pool: pool}
}

const columnasFactura = `
	id, emisor_rfc, receptor_rfc, receptor_nombre, serie, folio,
	fecha_emision, fecha_timbrado, uuid_fiscal, no_certificado,
	no_certificado_sat, sello_cfd, sello_sat, cadena_original,
	subtotal, descuento, total_impuestos, total,
	xml, pdf, estado, errores_pac, created_at, updated_at`

// Create inserta la factura en estado DRAFT. El folio es único por emisor y
// serie: un duplicado devuelve ErrDuplicate.
func (r *FacturaRepository) Create(ctx context.Context, f *entity.Factura) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO facturas (
			id, emisor_rfc, receptor_rfc, receptor_nombre, serie, folio,
			fecha_emision, fecha_timbrado, uuid_fiscal, no_certificado,
			no_certificado_sat, sello_cfd, sello_sat, cadena_original,
			subtotal, descuento, total_impuestos, total,
			xml, pdf, estado, errores_pac, created_at, updated_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,
			$15,$16,$17,$18,$19,$20,$21,$22,$23,$24
		)`,
		f.ID, f.EmisorRFC, f.ReceptorRFC, f.ReceptorNombre, f.Serie, f.Folio,
		f.FechaEmision, f.FechaTimbrado, nullStr(f.UUID), f.NoCertificado,
		f.NoCertificadoSAT, f.SelloCFD, f.SelloSAT, f.CadenaOriginal,
		f.SubTotal, f.Descuento, f.TotalImpuestos, f.Total,
		f.XML, f.PDF, f.Estado, f.ErroresPAC, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: folio %s-%s del emisor %s", domain.ErrDuplicate, f.Serie, f.Folio, f.EmisorRFC)
		}
		return fmt.Errorf("insertando factura: %w", err)
	}
	return nil
}

// UpdateTimbre persiste el resultado del timbrado (o el rechazo) en una sola
// actualización: estado, uuid, sellos, cadena, xml y fecha de timbrado.
func (r *FacturaRepository) UpdateTimbre(ctx context.Context, f *entity.Factura) error {
	f.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE facturas SET
			estado = $2, uuid_fiscal = $3, fecha_timbrado = $4,
			no_certificado = $5, no_certificado_sat = $6,
			sello_cfd = $7, sello_sat = $8, cadena_original = $9,
			xml = $10, errores_pac = $11, updated_at = $12
		WHERE id = $1`,
		f.ID, f.Estado, nullStr(f.UUID), f.FechaTimbrado,
		f.NoCertificado, f.NoCertificadoSAT,
		f.SelloCFD, f.SelloSAT, f.CadenaOriginal,
		f.XML, f.ErroresPAC, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("actualizando timbre: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: factura %s", domain.ErrNotFound, f.ID)
	}
	return nil
}

func (r *FacturaRepository) UpdateEstado(ctx context.Context, id, estado string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE facturas SET estado = $2, updated_at = $3 WHERE id = $1`,
		id, estado, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("actualizando estado: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: factura %s", domain.ErrNotFound, id)
	}
	return nil
}

// UpdatePDF adjunta la representación impresa sin tocar el estado fiscal.
func (r *FacturaRepository) UpdatePDF(ctx context.Context, id string, pdf []byte) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE facturas SET pdf = $2, updated_at = $3 WHERE id = $1`,
		id, pdf, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("guardando PDF: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: factura %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *FacturaRepository) GetByID(ctx context.Context, id string) (*entity.Factura, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+columnasFactura+` FROM facturas WHERE id = $1`, id)
	return escanearFactura(row)
}

func (r *FacturaRepository) GetByUUID(ctx context.Context, uuidFiscal string) (*entity.Factura, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+columnasFactura+` FROM facturas WHERE uuid_fiscal = $1`, uuidFiscal)
	return escanearFactura(row)
}

func (r *FacturaRepository) GetBySerieFolio(ctx context.Context, emisorRFC, serie, folio string) (*entity.Factura, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+columnasFactura+` FROM facturas WHERE emisor_rfc = $1 AND serie = $2 AND folio = $3`,
		emisorRFC, serie, folio)
	return escanearFactura(row)
}

func escanearFactura(row pgx.Row) (*entity.Factura, error) {
	var f entity.Factura
	var uuidFiscal *string
	err := row.Scan(
		&f.ID, &f.EmisorRFC, &f.ReceptorRFC, &f.ReceptorNombre, &f.Serie, &f.Folio,
		&f.FechaEmision, &f.FechaTimbrado, &uuidFiscal, &f.NoCertificado,
		&f.NoCertificadoSAT, &f.SelloCFD, &f.SelloSAT, &f.CadenaOriginal,
		&f.SubTotal, &f.Descuento, &f.TotalImpuestos, &f.Total,
		&f.XML, &f.PDF, &f.Estado, &f.ErroresPAC, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("leyendo factura: %w", err)
	}
	if uuidFiscal != nil {
		f.UUID = *uuidFiscal
	}
	return &f, nil
}

// nullStr convierte cadena vacía a NULL: el índice único de uuid_fiscal no
// admite vacíos repetidos.
func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

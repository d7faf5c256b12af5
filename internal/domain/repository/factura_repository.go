package repository

import (
	"context"

	"github.com/loboISC/arrendamiento-sub002/internal/domain/entity"
)

// FacturaRepository define el puerto de persistencia para comprobantes.
// El núcleo solo consulta por UUID fiscal (o por ID local antes del timbrado).
type FacturaRepository interface {
	Create(ctx context.Context, f *entity.Factura) error
	// UpdateTimbre persiste el resultado del timbrado: uuid, sellos, xml,
	// fecha de timbrado y estado en una sola actualización.
	UpdateTimbre(ctx context.Context, f *entity.Factura) error
	UpdateEstado(ctx context.Context, id, estado string) error
	// UpdatePDF adjunta la representación impresa; no toca el estado fiscal.
	UpdatePDF(ctx context.Context, id string, pdf []byte) error
	GetByID(ctx context.Context, id string) (*entity.Factura, error)
	GetByUUID(ctx context.Context, uuid string) (*entity.Factura, error)
	// GetBySerieFolio localiza una factura por su folio de negocio; permite
	// retomar un borrador cuyo intento de timbrado quedó sin resolver.
	GetBySerieFolio(ctx context.Context, emisorRFC, serie, folio string) (*entity.Factura, error)
}

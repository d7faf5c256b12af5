// Package facturacion orquesta el ciclo de vida del comprobante: validar el
// borrador, construir el documento canónico, sellar, timbrar con el PAC y
// persistir cada transición de estado.
package facturacion

import (
	"context"

	"github.com/loboISC/arrendamiento-sub002/internal/domain/entity"
	infracfdi "github.com/loboISC/arrendamiento-sub002/internal/infrastructure/cfdi"
	"github.com/loboISC/arrendamiento-sub002/internal/infrastructure/pac"
)

// ClientePAC es el puerto hacia el proveedor autorizado de certificación.
// Implementado por pac.Client; los tests usan dobles.
type ClientePAC interface {
	Timbrar(ctx context.Context, sol pac.SolicitudTimbrado) (*pac.ResultadoTimbrado, error)
	Cancelar(ctx context.Context, sol pac.SolicitudCancelacion) error
}

// RenderizadorPDF genera la representación impresa. Un fallo aquí nunca
// invalida el estado fiscal de la factura.
type RenderizadorPDF interface {
	GenerarPDF(ctx context.Context, f *entity.Factura, d *infracfdi.Documento) ([]byte, error)
}

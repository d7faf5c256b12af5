package facturacion

import (
	"context"
	"errors"
	"time"

	"github.com/loboISC/arrendamiento-sub002/internal/domain"
)

// reintentar ejecuta fn hasta intentos veces, con espera creciente entre
// intentos. Solo reintenta indisponibilidad del PAC: un rechazo es definitivo
// y se propaga de inmediato.
func reintentar(ctx context.Context, intentos int, espera time.Duration, fn func() error) error {
	var err error
	for i := 0; i < intentos; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrPACNoDisponible) {
			return err
		}
		if i == intentos-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(espera * time.Duration(i+1)):
		}
	}
	return err
}

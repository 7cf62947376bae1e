package repository

import (
	"context"
	"time"

	"github.com/partybrasil/Contador-Revisiones/internal/domain/entity"
)

// LedgerRepository registro diario de revisiones: una partición por día
// natural, solo anexado, sin actualizaciones ni borrados.
type LedgerRepository interface {
	// Append anexa una entrada a la partición de su fecha, creándola con la
	// cabecera fija si no existe
	Append(ctx context.Context, entrada entity.RevisionEntry) error

	// AppendBatch anexa varias entradas agrupando las escrituras: una sola
	// grabación por partición en lugar de una por fila
	AppendBatch(ctx context.Context, entradas []entity.RevisionEntry) error

	// ListEntries entradas de la partición del día en orden de registro
	ListEntries(ctx context.Context, dia time.Time) ([]entity.RevisionEntry, error)

	// ExistsSKU comprueba si el SKU ya fue revisado ese día
	ExistsSKU(ctx context.Context, dia time.Time, sku string) (bool, error)

	// CountEstados totales REV y RYT de la partición del día
	CountEstados(ctx context.Context, dia time.Time) (rev int, ryt int, err error)
}

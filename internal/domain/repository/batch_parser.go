package repository

import (
	"context"

	"github.com/partybrasil/Contador-Revisiones/internal/domain/entity"
)

// BatchParser lectura de lotes de importación en formato SKU | Título | EANs
type BatchParser interface {
	// ParseBatch lee las filas de un fichero .xlsx
	ParseBatch(ctx context.Context, ruta string) ([]entity.FilaImportacion, error)

	// ParseBatchFromBytes lee las filas desde memoria
	ParseBatchFromBytes(ctx context.Context, datos []byte, nombre string) ([]entity.FilaImportacion, error)
}

package repository

import (
	"context"

	"github.com/partybrasil/Contador-Revisiones/internal/domain/entity"
)

// ResultExporter volcado de resultados de búsqueda a una hoja de cálculo
type ResultExporter interface {
	// Export escribe el conjunto completo (sin paginar) y devuelve la ruta
	// del fichero creado. Con nombre vacío se usa EXPORT-DDMMYYYY-HHMM.
	Export(ctx context.Context, productos []entity.Producto, nombre string) (string, error)
}

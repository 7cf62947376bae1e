package repository

import (
	"context"

	"github.com/partybrasil/Contador-Revisiones/internal/domain/entity"
)

// CatalogRepository acceso al catálogo de productos (clave única SKU)
type CatalogRepository interface {
	// LookupBySKU búsqueda exacta por clave primaria
	LookupBySKU(ctx context.Context, sku string) (*entity.Producto, error)

	// LookupByEAN productos cuyo conjunto de EANs contiene el token exacto.
	// Un EAN compartido devuelve varios productos, nunca se colapsa a uno.
	LookupByEAN(ctx context.Context, token string) ([]entity.Producto, error)

	// Insert alta de producto. Falla con ErrSKUDuplicado si el SKU existe;
	// las colisiones de EAN se devuelven como avisos sin bloquear el alta.
	Insert(ctx context.Context, producto entity.Producto) ([]entity.ColisionEAN, error)

	// MergeEANs unión del conjunto actual con los nuevos tokens, persistida
	// en orden canónico. Idempotente para una misma entrada.
	MergeEANs(ctx context.Context, sku string, nuevos []string) (*entity.Producto, []entity.ColisionEAN, error)

	// FindDuplicateEANGroups EANs no centinela compartidos por más de un SKU,
	// ordenados por token
	FindDuplicateEANGroups(ctx context.Context) ([]entity.GrupoEANDuplicado, error)

	// AllProducts instantánea completa del catálogo ordenada por SKU
	AllProducts(ctx context.Context) ([]entity.Producto, error)

	// Count número de productos del catálogo
	Count(ctx context.Context) (int, error)
}

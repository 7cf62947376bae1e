package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/partybrasil/Contador-Revisiones/internal/domain/entity"
	"github.com/partybrasil/Contador-Revisiones/internal/domain/repository"
)

type memoryCatalogRepository struct {
	mu        sync.RWMutex
	productos map[string]entity.Producto // clave: SKU
	indiceEAN map[string]map[string]struct{}
}

// NewMemoryCatalogRepository catálogo en memoria; se usa cuando no hay base
// de datos configurada y en las pruebas de los casos de uso
func NewMemoryCatalogRepository() repository.CatalogRepository {
	return &memoryCatalogRepository{
		productos: make(map[string]entity.Producto),
		indiceEAN: make(map[string]map[string]struct{}),
	}
}

// LookupBySKU búsqueda exacta por clave primaria
func (m *memoryCatalogRepository) LookupBySKU(ctx context.Context, sku string) (*entity.Producto, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	producto, existe := m.productos[sku]
	if !existe {
		return nil, fmt.Errorf("%w: %s", entity.ErrNoEncontrado, sku)
	}
	return &producto, nil
}

// LookupByEAN pertenencia exacta del token al conjunto de EANs
func (m *memoryCatalogRepository) LookupByEAN(ctx context.Context, token string) ([]entity.Producto, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	skus, existe := m.indiceEAN[token]
	if !existe {
		return nil, nil
	}

	resultados := make([]entity.Producto, 0, len(skus))
	for sku := range skus {
		resultados = append(resultados, m.productos[sku])
	}
	sort.Slice(resultados, func(i, j int) bool { return resultados[i].SKU < resultados[j].SKU })
	return resultados, nil
}

// Insert alta de producto; el SKU duplicado se rechaza sin mutar el registro
func (m *memoryCatalogRepository) Insert(ctx context.Context, producto entity.Producto) ([]entity.ColisionEAN, error) {
	if producto.SKU == "" {
		return nil, fmt.Errorf("%w: el SKU es obligatorio", entity.ErrValidacion)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, existe := m.productos[producto.SKU]; existe {
		return nil, fmt.Errorf("%w: %q", entity.ErrSKUDuplicado, producto.SKU)
	}

	colisiones := m.colisionesLocked(producto.SKU, producto.EANs)
	m.productos[producto.SKU] = producto
	m.indexarLocked(producto.SKU, producto.EANs)
	return colisiones, nil
}

// MergeEANs unión con los tokens nuevos en orden canónico; idempotente
func (m *memoryCatalogRepository) MergeEANs(ctx context.Context, sku string, nuevos []string) (*entity.Producto, []entity.ColisionEAN, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	producto, existe := m.productos[sku]
	if !existe {
		return nil, nil, fmt.Errorf("%w: %s", entity.ErrNoEncontrado, sku)
	}

	colisiones := m.colisionesLocked(sku, nuevos)
	producto.EANs = entity.CanonicalizarEANs(append(append([]string{}, producto.EANs...), nuevos...))
	m.productos[sku] = producto
	m.indexarLocked(sku, producto.EANs)
	return &producto, colisiones, nil
}

// FindDuplicateEANGroups EANs compartidos por más de un SKU, por token
func (m *memoryCatalogRepository) FindDuplicateEANGroups(ctx context.Context) ([]entity.GrupoEANDuplicado, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var grupos []entity.GrupoEANDuplicado
	for ean, skus := range m.indiceEAN {
		if len(skus) < 2 {
			continue
		}
		grupo := entity.GrupoEANDuplicado{EAN: ean}
		for sku := range skus {
			grupo.SKUs = append(grupo.SKUs, sku)
		}
		sort.Strings(grupo.SKUs)
		grupos = append(grupos, grupo)
	}
	sort.Slice(grupos, func(i, j int) bool { return grupos[i].EAN < grupos[j].EAN })
	return grupos, nil
}

// AllProducts instantánea completa ordenada por SKU
func (m *memoryCatalogRepository) AllProducts(ctx context.Context) ([]entity.Producto, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	productos := make([]entity.Producto, 0, len(m.productos))
	for _, p := range m.productos {
		productos = append(productos, p)
	}
	sort.Slice(productos, func(i, j int) bool { return productos[i].SKU < productos[j].SKU })
	return productos, nil
}

// Count número de productos
func (m *memoryCatalogRepository) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.productos), nil
}

// colisionesLocked avisos por tokens que ya pertenecen a otro SKU
func (m *memoryCatalogRepository) colisionesLocked(sku string, tokens []string) []entity.ColisionEAN {
	var colisiones []entity.ColisionEAN
	for _, token := range entity.CanonicalizarEANs(tokens) {
		for otro := range m.indiceEAN[token] {
			if otro == sku {
				continue
			}
			colisiones = append(colisiones, entity.ColisionEAN{
				EAN:    token,
				SKU:    otro,
				Titulo: m.productos[otro].Titulo,
			})
		}
	}
	sort.Slice(colisiones, func(i, j int) bool {
		if colisiones[i].EAN == colisiones[j].EAN {
			return colisiones[i].SKU < colisiones[j].SKU
		}
		return colisiones[i].EAN < colisiones[j].EAN
	})
	return colisiones
}

// indexarLocked reindexa los EANs de un SKU tras un alta o una fusión
func (m *memoryCatalogRepository) indexarLocked(sku string, tokens []string) {
	for ean, skus := range m.indiceEAN {
		delete(skus, sku)
		if len(skus) == 0 {
			delete(m.indiceEAN, ean)
		}
	}
	for _, token := range tokens {
		if m.indiceEAN[token] == nil {
			m.indiceEAN[token] = make(map[string]struct{})
		}
		m.indiceEAN[token][sku] = struct{}{}
	}
}

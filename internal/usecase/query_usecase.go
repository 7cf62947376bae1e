package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/partybrasil/Contador-Revisiones/internal/domain/entity"
	"github.com/partybrasil/Contador-Revisiones/internal/domain/repository"
	"go.uber.org/zap"
)

// Palabras clave reservadas del campo Marca/Título
const (
	PalabraClaveTodo       = "ALLIN"   // volcado completo del catálogo
	PalabraClaveDuplicados = "ALLDUPE" // productos con EANs duplicados
)

// BloquePorDefecto tamaño de bloque de la carga diferida de resultados
const BloquePorDefecto = 50

// ResultPager entrega un conjunto de resultados en bloques de tamaño fijo
// mediante un cursor de desplazamiento monótono. Reset lo hace reiniciable.
type ResultPager struct {
	titulo    string
	productos []entity.Producto
	bloque    int
	offset    int
}

// NewResultPager crea un paginador sobre una instantánea de resultados
func NewResultPager(titulo string, productos []entity.Producto, bloque int) *ResultPager {
	if bloque <= 0 {
		bloque = BloquePorDefecto
	}
	return &ResultPager{titulo: titulo, productos: productos, bloque: bloque}
}

// Titulo rótulo del popup de resultados, con el total incluido
func (p *ResultPager) Titulo() string {
	return fmt.Sprintf("%s - Total %d productos encontrados", p.titulo, len(p.productos))
}

// Total número de resultados del conjunto completo
func (p *ResultPager) Total() int { return len(p.productos) }

// HasMore indica si quedan bloques por entregar; cuando devuelve false el
// botón "Cargar más" se deshabilita
func (p *ResultPager) HasMore() bool { return p.offset < len(p.productos) }

// NextBlock entrega el siguiente bloque y avanza el cursor. El último bloque
// puede ser parcial; después solo se devuelven bloques vacíos.
func (p *ResultPager) NextBlock() []entity.Producto {
	if !p.HasMore() {
		return nil
	}
	fin := p.offset + p.bloque
	if fin > len(p.productos) {
		fin = len(p.productos)
	}
	bloque := p.productos[p.offset:fin]
	p.offset = fin
	return bloque
}

// Reset reinicia el cursor al principio del conjunto
func (p *ResultPager) Reset() { p.offset = 0 }

// All conjunto completo sin paginar, para la exportación
func (p *ResultPager) All() []entity.Producto { return p.productos }

// QueryUseCase búsquedas por título, consultas privilegiadas y exportación
type QueryUseCase interface {
	// Search evalúa la consulta en orden: ALLIN, ALLDUPE y por último
	// palabras clave con AND sobre el título (subcadena sin distinguir
	// mayúsculas por palabra)
	Search(ctx context.Context, consulta string) (*ResultPager, error)

	// DuplicateEANReport informe de EANs compartidos por más de un SKU
	DuplicateEANReport(ctx context.Context) ([]entity.GrupoEANDuplicado, error)

	// Export vuelca el conjunto completo del paginador a una hoja de cálculo
	Export(ctx context.Context, pager *ResultPager, nombre string) (string, error)
}

type queryUseCase struct {
	catalogo   repository.CatalogRepository
	exportador repository.ResultExporter
	bloque     int
	log        *zap.Logger
}

// NewQueryUseCase crea el motor de consultas
func NewQueryUseCase(catalogo repository.CatalogRepository, exportador repository.ResultExporter, bloque int, log *zap.Logger) QueryUseCase {
	if bloque <= 0 {
		bloque = BloquePorDefecto
	}
	return &queryUseCase{catalogo: catalogo, exportador: exportador, bloque: bloque, log: log}
}

// Search evaluación por prioridad de la consulta cruda
func (u *queryUseCase) Search(ctx context.Context, consulta string) (*ResultPager, error) {
	consulta = strings.TrimSpace(consulta)
	if consulta == "" {
		return nil, fmt.Errorf("%w: el campo Marca/Titulo no puede estar vacío", entity.ErrValidacion)
	}

	switch consulta {
	case PalabraClaveTodo:
		productos, err := u.catalogo.AllProducts(ctx)
		if err != nil {
			return nil, err
		}
		return NewResultPager("Todos los productos", productos, u.bloque), nil

	case PalabraClaveDuplicados:
		productos, err := u.productosConEANDuplicado(ctx)
		if err != nil {
			return nil, err
		}
		return NewResultPager("Productos con EANs duplicados", productos, u.bloque), nil
	}

	palabras := strings.Fields(consulta)
	todos, err := u.catalogo.AllProducts(ctx)
	if err != nil {
		return nil, err
	}

	var resultados []entity.Producto
	for _, p := range todos {
		if tituloContieneTodas(p.Titulo, palabras) {
			resultados = append(resultados, p)
		}
	}

	titulo := fmt.Sprintf("Resultados para %q", consulta)
	return NewResultPager(titulo, resultados, u.bloque), nil
}

// DuplicateEANReport informe de duplicados ordenado por token
func (u *queryUseCase) DuplicateEANReport(ctx context.Context) ([]entity.GrupoEANDuplicado, error) {
	return u.catalogo.FindDuplicateEANGroups(ctx)
}

// Export escribe el conjunto completo, nunca solo los bloques ya cargados
func (u *queryUseCase) Export(ctx context.Context, pager *ResultPager, nombre string) (string, error) {
	if pager == nil || pager.Total() == 0 {
		return "", fmt.Errorf("%w: no hay resultados para exportar", entity.ErrValidacion)
	}
	ruta, err := u.exportador.Export(ctx, pager.All(), nombre)
	if err != nil {
		return "", err
	}
	u.log.Info("resultados exportados", zap.String("ruta", ruta), zap.Int("total", pager.Total()))
	return ruta, nil
}

// productosConEANDuplicado productos que pertenecen a algún grupo duplicado,
// en el orden de los grupos
func (u *queryUseCase) productosConEANDuplicado(ctx context.Context) ([]entity.Producto, error) {
	grupos, err := u.catalogo.FindDuplicateEANGroups(ctx)
	if err != nil {
		return nil, err
	}

	vistos := make(map[string]struct{})
	var productos []entity.Producto
	for _, grupo := range grupos {
		for _, sku := range grupo.SKUs {
			if _, ok := vistos[sku]; ok {
				continue
			}
			vistos[sku] = struct{}{}
			p, err := u.catalogo.LookupBySKU(ctx, sku)
			if err != nil {
				return nil, err
			}
			productos = append(productos, *p)
		}
	}
	return productos, nil
}

// tituloContieneTodas AND lógico de subcadenas sin distinguir mayúsculas
func tituloContieneTodas(titulo string, palabras []string) bool {
	titulo = strings.ToLower(titulo)
	for _, palabra := range palabras {
		if !strings.Contains(titulo, strings.ToLower(palabra)) {
			return false
		}
	}
	return true
}

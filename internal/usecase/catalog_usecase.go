package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/partybrasil/Contador-Revisiones/internal/domain/entity"
	"github.com/partybrasil/Contador-Revisiones/internal/domain/repository"
	"go.uber.org/zap"
)

// Textos del aviso "ya revisado hoy" que muestra la interfaz
const (
	EstadoYaRevisado = "YA REVISADO/TRADUCIDO"
	EstadoSinRevisar = "SIN REVISION"
)

// CatalogUseCase consulta y mantenimiento del catálogo más el registro de
// decisiones diarias
type CatalogUseCase interface {
	// LookupEANOrSKU resuelve la entrada cruda: primero como SKU exacto,
	// después como EAN por pertenencia exacta de token. Varios productos con
	// el mismo EAN se devuelven todos para que el usuario desambigüe; una
	// lista vacía dispara el camino de "ofrecer alta".
	LookupEANOrSKU(ctx context.Context, entrada string) ([]entity.Producto, error)

	// EstadoRevision aviso de si el SKU ya aparece en la partición de hoy
	EstadoRevision(ctx context.Context, sku string) (string, error)

	// AddProduct alta manual con centinelas NO-DESC / NO-EAN
	AddProduct(ctx context.Context, sku, titulo, eans string) (*entity.Producto, []entity.ColisionEAN, error)

	// MergeEANs añade EANs a un producto existente (unión canónica)
	MergeEANs(ctx context.Context, sku, nuevos string) (*entity.Producto, []entity.ColisionEAN, error)

	// CommitRevision registra una decisión en la partición de hoy
	CommitRevision(ctx context.Context, sku, titulo string, estado entity.Estado, form entity.FormState) (*entity.RevisionEntry, error)

	// ContadoresHoy totales REV y RYT de la partición de hoy
	ContadoresHoy(ctx context.Context) (rev int, ryt int, err error)

	// HistorialHoy entradas de hoy, de la más reciente a la más antigua
	HistorialHoy(ctx context.Context) ([]entity.RevisionEntry, error)
}

type catalogUseCase struct {
	catalogo repository.CatalogRepository
	registro repository.LedgerRepository
	log      *zap.Logger
}

// NewCatalogUseCase crea el caso de uso de catálogo y revisiones
func NewCatalogUseCase(catalogo repository.CatalogRepository, registro repository.LedgerRepository, log *zap.Logger) CatalogUseCase {
	return &catalogUseCase{catalogo: catalogo, registro: registro, log: log}
}

// LookupEANOrSKU resolución SKU exacto -> EAN exacto
func (u *catalogUseCase) LookupEANOrSKU(ctx context.Context, entrada string) ([]entity.Producto, error) {
	entrada = strings.TrimSpace(entrada)
	if entrada == "" {
		return nil, fmt.Errorf("%w: el campo EAN/SKU/ID no puede estar vacío", entity.ErrValidacion)
	}

	producto, err := u.catalogo.LookupBySKU(ctx, entrada)
	if err == nil {
		return []entity.Producto{*producto}, nil
	}
	if !esNoEncontrado(err) {
		return nil, err
	}

	return u.catalogo.LookupByEAN(ctx, entrada)
}

// EstadoRevision aviso "ya revisado hoy"
func (u *catalogUseCase) EstadoRevision(ctx context.Context, sku string) (string, error) {
	existe, err := u.registro.ExistsSKU(ctx, time.Now(), sku)
	if err != nil {
		return "", err
	}
	if existe {
		return EstadoYaRevisado, nil
	}
	return EstadoSinRevisar, nil
}

// AddProduct alta manual
func (u *catalogUseCase) AddProduct(ctx context.Context, sku, titulo, eans string) (*entity.Producto, []entity.ColisionEAN, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, nil, fmt.Errorf("%w: el SKU es obligatorio", entity.ErrValidacion)
	}

	producto := entity.NuevoProducto(sku, titulo, eans)
	colisiones, err := u.catalogo.Insert(ctx, producto)
	if err != nil {
		return nil, nil, err
	}

	for _, c := range colisiones {
		u.log.Warn("EAN ya asociado a otro producto",
			zap.String("ean", c.EAN), zap.String("sku", c.SKU), zap.String("titulo", c.Titulo))
	}
	u.log.Info("producto añadido", zap.String("sku", producto.SKU))
	return &producto, colisiones, nil
}

// MergeEANs fusión de EANs con aviso de colisiones
func (u *catalogUseCase) MergeEANs(ctx context.Context, sku, nuevos string) (*entity.Producto, []entity.ColisionEAN, error) {
	tokens := entity.DividirEANs(nuevos)
	if len(tokens) == 0 {
		return nil, nil, fmt.Errorf("%w: el campo de nuevos EANs no puede estar vacío", entity.ErrValidacion)
	}
	return u.catalogo.MergeEANs(ctx, sku, tokens)
}

// CommitRevision construye la entrada y la anexa a la partición de hoy.
// O la fila entera se registra o se descarta: nunca quedan filas a medias.
func (u *catalogUseCase) CommitRevision(ctx context.Context, sku, titulo string, estado entity.Estado, form entity.FormState) (*entity.RevisionEntry, error) {
	entrada, err := entity.NuevaRevision(sku, titulo, estado, form)
	if err != nil {
		return nil, err
	}
	if err := u.registro.Append(ctx, entrada); err != nil {
		return nil, err
	}

	u.log.Info("revisión registrada",
		zap.String("id", entrada.ID),
		zap.String("sku", entrada.SKU),
		zap.String("estado", string(entrada.Estado)))
	return &entrada, nil
}

// ContadoresHoy totales del día para el título dinámico
func (u *catalogUseCase) ContadoresHoy(ctx context.Context) (int, int, error) {
	return u.registro.CountEstados(ctx, time.Now())
}

// HistorialHoy entradas de hoy en orden inverso de registro
func (u *catalogUseCase) HistorialHoy(ctx context.Context) ([]entity.RevisionEntry, error) {
	entradas, err := u.registro.ListEntries(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entradas)-1; i < j; i, j = i+1, j-1 {
		entradas[i], entradas[j] = entradas[j], entradas[i]
	}
	return entradas, nil
}

func esNoEncontrado(err error) bool {
	return errors.Is(err, entity.ErrNoEncontrado)
}

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

// ResultadoImportacion resumen de una importación masiva. Siempre se cumple
// Importados + Fallidos + Omitidos == Total.
type ResultadoImportacion struct {
	Total      int
	Importados int
	Fallidos   int
	Omitidos   int

	// Registrados altas hechas en el catálogo antes de la reproducción
	Registrados int
}

// ImportUseCase reconciliación de lotes contra el catálogo y reproducción
// en el registro diario
type ImportUseCase interface {
	// LoadBatch lee el fichero de lote seleccionado
	LoadBatch(ctx context.Context, ruta string) ([]entity.FilaImportacion, error)

	// Verify separa las filas en conocidas (el SKU existe) y faltantes
	Verify(ctx context.Context, filas []entity.FilaImportacion) (conocidas, faltantes []entity.FilaImportacion, err error)

	// RegisterMissing alta en bloque de las filas faltantes. Los SKU que
	// aparecieron entre tanto se omiten, nunca se sobrescriben.
	RegisterMissing(ctx context.Context, faltantes []entity.FilaImportacion) (int, []entity.ColisionEAN, error)

	// Execute reproduce todas las filas del lote como entradas de revisión
	// con el sello uniforme del formulario. Los fallos de fila se registran
	// y se saltan; el lote nunca se aborta entero por una fila.
	Execute(ctx context.Context, filas []entity.FilaImportacion, estado entity.Estado, form entity.FormState) (*ResultadoImportacion, error)
}

type importUseCase struct {
	catalogo repository.CatalogRepository
	registro repository.LedgerRepository
	lector   repository.BatchParser
	log      *zap.Logger
}

// NewImportUseCase crea el reconciliador de importaciones
func NewImportUseCase(catalogo repository.CatalogRepository, registro repository.LedgerRepository, lector repository.BatchParser, log *zap.Logger) ImportUseCase {
	return &importUseCase{catalogo: catalogo, registro: registro, lector: lector, log: log}
}

// LoadBatch lee el fichero de lote
func (u *importUseCase) LoadBatch(ctx context.Context, ruta string) ([]entity.FilaImportacion, error) {
	return u.lector.ParseBatch(ctx, ruta)
}

// Verify partición conocidas / faltantes
func (u *importUseCase) Verify(ctx context.Context, filas []entity.FilaImportacion) ([]entity.FilaImportacion, []entity.FilaImportacion, error) {
	var conocidas, faltantes []entity.FilaImportacion
	for _, fila := range filas {
		if strings.TrimSpace(fila.SKU) == "" {
			// Sin SKU no se puede reconciliar; Execute la contará como fallida
			conocidas = append(conocidas, fila)
			continue
		}
		_, err := u.catalogo.LookupBySKU(ctx, fila.SKU)
		switch {
		case err == nil:
			conocidas = append(conocidas, fila)
		case errors.Is(err, entity.ErrNoEncontrado):
			faltantes = append(faltantes, fila)
		default:
			return nil, nil, err
		}
	}
	return conocidas, faltantes, nil
}

// RegisterMissing alta en bloque, saltando duplicados. El alta de catálogo
// es idempotente por naturaleza: repetir el lote no duplica productos.
func (u *importUseCase) RegisterMissing(ctx context.Context, faltantes []entity.FilaImportacion) (int, []entity.ColisionEAN, error) {
	registrados := 0
	var avisos []entity.ColisionEAN
	for _, fila := range faltantes {
		producto := entity.NuevoProducto(fila.SKU, fila.Titulo, entity.UnirEANs(fila.EANs))
		if producto.SKU == "" {
			continue
		}
		colisiones, err := u.catalogo.Insert(ctx, producto)
		if errors.Is(err, entity.ErrSKUDuplicado) {
			continue
		}
		if err != nil {
			return registrados, avisos, err
		}
		avisos = append(avisos, colisiones...)
		registrados++
	}

	u.log.Info("productos registrados en DB", zap.Int("registrados", registrados))
	return registrados, avisos, nil
}

// Execute reproducción del lote con recuperación por fila y cancelación
// cooperativa entre filas. Las entradas válidas se acumulan en memoria y la
// partición se graba una sola vez al final del lote.
func (u *importUseCase) Execute(ctx context.Context, filas []entity.FilaImportacion, estado entity.Estado, form entity.FormState) (*ResultadoImportacion, error) {
	resultado := &ResultadoImportacion{Total: len(filas)}

	// Todo el lote comparte la misma marca de tiempo: cae entero en una
	// partición y la grabación agrupada es todo o nada, aunque la
	// importación cruce la medianoche
	ahora := time.Now()

	var entradas []entity.RevisionEntry
	cancelado := false
	for i, fila := range filas {
		if err := ctx.Err(); err != nil {
			// Cancelación entre filas: lo pendiente queda como omitido
			resultado.Omitidos = len(filas) - i
			cancelado = true
			break
		}

		entrada, err := entity.NuevaRevision(fila.SKU, fila.Titulo, estado, form)
		if err != nil {
			resultado.Fallidos++
			u.log.Warn("fila de lote descartada",
				zap.Int("fila", fila.Fila), zap.String("sku", fila.SKU), zap.Error(err))
			continue
		}
		entrada.Fecha = ahora
		entradas = append(entradas, entrada)
	}

	if cancelado {
		// Nada construido se graba tras cancelar; el catálogo y el registro
		// quedan como estaban
		resultado.Omitidos += len(entradas)
		entradas = nil
	}

	if len(entradas) > 0 {
		if err := u.registro.AppendBatch(ctx, entradas); err != nil {
			// La grabación agrupada falla entera; ninguna fila quedó a medias
			resultado.Fallidos += len(entradas)
			return resultado, fmt.Errorf("error durante la importación: %w", err)
		}
		resultado.Importados = len(entradas)
	}

	u.log.Info("importación masiva completada",
		zap.Int("total", resultado.Total),
		zap.Int("importados", resultado.Importados),
		zap.Int("fallidos", resultado.Fallidos),
		zap.Int("omitidos", resultado.Omitidos))
	return resultado, nil
}

package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/partybrasil/Contador-Revisiones/internal/domain/entity"
	"github.com/partybrasil/Contador-Revisiones/internal/domain/repository"
	"github.com/xuri/excelize/v2"
)

type excelBatchParser struct{}

// NewExcelBatchParser lector de lotes .xlsx en formato SKU | Título | EANs
func NewExcelBatchParser() repository.BatchParser {
	return &excelBatchParser{}
}

// ParseBatch lee las filas de un fichero .xlsx
func (p *excelBatchParser) ParseBatch(ctx context.Context, ruta string) ([]entity.FilaImportacion, error) {
	f, err := excelize.OpenFile(ruta)
	if err != nil {
		return nil, fmt.Errorf("no se pudo abrir el fichero de lote: %w", err)
	}
	defer f.Close()

	return p.parseFichero(f)
}

// ParseBatchFromBytes lee las filas desde memoria
func (p *excelBatchParser) ParseBatchFromBytes(ctx context.Context, datos []byte, nombre string) ([]entity.FilaImportacion, error) {
	f, err := excelize.OpenReader(bytes.NewReader(datos))
	if err != nil {
		return nil, fmt.Errorf("no se pudo abrir el lote %q: %w", nombre, err)
	}
	defer f.Close()

	return p.parseFichero(f)
}

func (p *excelBatchParser) parseFichero(f *excelize.File) ([]entity.FilaImportacion, error) {
	hojas := f.GetSheetList()
	if len(hojas) == 0 {
		return nil, fmt.Errorf("el fichero no tiene hojas")
	}

	filas, err := f.GetRows(hojas[0])
	if err != nil {
		return nil, fmt.Errorf("no se pudieron leer las filas: %w", err)
	}
	if len(filas) == 0 {
		return nil, fmt.Errorf("el fichero de lote está vacío")
	}

	inicio := 0
	if esCabecera(filas[0]) {
		inicio = 1
	}

	var resultado []entity.FilaImportacion
	for i := inicio; i < len(filas); i++ {
		fila := filas[i]
		if filaVacia(fila) {
			continue
		}

		celda := func(idx int) string {
			if idx < len(fila) {
				return strings.TrimSpace(fila[idx])
			}
			return ""
		}

		titulo := celda(1)
		if titulo == "" {
			titulo = entity.SinTitulo
		}

		resultado = append(resultado, entity.FilaImportacion{
			Fila:   i + 1,
			SKU:    celda(0),
			Titulo: titulo,
			EANs:   entity.CanonicalizarEANs(entity.DividirEANs(celda(2))),
		})
	}
	return resultado, nil
}

// esCabecera reconoce la fila de títulos SKU | Título | EANs
func esCabecera(fila []string) bool {
	if len(fila) == 0 {
		return false
	}
	primera := strings.ToLower(strings.TrimSpace(fila[0]))
	return primera == "sku" || primera == "ean/sku/id"
}

func filaVacia(fila []string) bool {
	for _, celda := range fila {
		if strings.TrimSpace(celda) != "" {
			return false
		}
	}
	return true
}

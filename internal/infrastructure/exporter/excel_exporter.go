package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/partybrasil/Contador-Revisiones/internal/domain/entity"
	"github.com/partybrasil/Contador-Revisiones/internal/domain/repository"
	"github.com/xuri/excelize/v2"
)

type excelResultExporter struct {
	dir string
}

// NewExcelResultExporter exportador de resultados a .xlsx bajo OUTPUT
func NewExcelResultExporter(dir string) (repository.ResultExporter, error) {
	if dir == "" {
		return nil, fmt.Errorf("el directorio de exportación no puede estar vacío")
	}
	return &excelResultExporter{dir: dir}, nil
}

// Export escribe el conjunto completo con cabecera SKU, TITULO, EANs
func (e *excelResultExporter) Export(ctx context.Context, productos []entity.Producto, nombre string) (string, error) {
	if len(productos) == 0 {
		return "", fmt.Errorf("%w: no hay resultados para exportar", entity.ErrValidacion)
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("no se pudo crear la carpeta de salida: %w", err)
	}

	nombre = strings.TrimSpace(nombre)
	if nombre == "" {
		nombre = "EXPORT-" + time.Now().Format("02012006-1504")
	}
	ruta := filepath.Join(e.dir, nombre+".xlsx")

	f := excelize.NewFile()
	defer f.Close()

	hoja := f.GetSheetName(0)
	if err := f.SetSheetName(hoja, "Resultados"); err != nil {
		return "", err
	}
	hoja = "Resultados"

	cabecera := []any{"SKU", "TITULO", "EANs"}
	if err := f.SetSheetRow(hoja, "A1", &cabecera); err != nil {
		return "", err
	}

	for i, p := range productos {
		celda, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		fila := []any{p.SKU, p.Titulo, p.EANsCadena()}
		if err := f.SetSheetRow(hoja, celda, &fila); err != nil {
			return "", err
		}
	}

	if err := f.SaveAs(ruta); err != nil {
		return "", fmt.Errorf("no se pudo grabar la exportación: %w", err)
	}
	return ruta, nil
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/partybrasil/Contador-Revisiones/internal/domain/entity"
	"github.com/partybrasil/Contador-Revisiones/internal/domain/repository"
	"github.com/xuri/excelize/v2"
)

// FormatoFecha patrón de fecha de los nombres de partición (REV-DD-MM-YYYY)
const FormatoFecha = "02-01-2006"

// cabeceraParticion cabecera fija de 18 columnas de cada partición diaria
var cabeceraParticion = []string{
	"EAN/SKU/ID", "MARCA/TITULO", "Tipo",
	"Tiene PT", "Tiene ES", "Tiene IT",
	"Cantidad Neta", "UND/ML/GR", "Composición de Lote", "Estado",
	"DescripcionPT", "Modo de EmpleoPT", "PrecaucionesPT", "Más InformacionesPT",
	"DescripcionIT", "Modo de EmpleoIT", "PrecaucionesIT", "Más InformacionesIT",
}

type xlsxLedgerRepository struct {
	dir string
}

// NewXLSXLedgerRepository registro de revisiones sobre ficheros .xlsx, una
// partición por día natural bajo el directorio REVs
func NewXLSXLedgerRepository(dir string) (repository.LedgerRepository, error) {
	if dir == "" {
		return nil, errors.New("el directorio de revisiones no puede estar vacío")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("no se pudo crear la carpeta de revisiones: %w", err)
	}
	return &xlsxLedgerRepository{dir: dir}, nil
}

// rutaParticion fichero de la partición del día: REV-DD-MM-YYYY.xlsx
func (l *xlsxLedgerRepository) rutaParticion(dia time.Time) string {
	return filepath.Join(l.dir, fmt.Sprintf("REV-%s.xlsx", dia.Format(FormatoFecha)))
}

// abrirParticion abre la partición existente validando la cabecera, o crea
// una nueva con la cabecera fija. Devuelve el fichero y el número de filas
// ya presentes.
func (l *xlsxLedgerRepository) abrirParticion(dia time.Time) (*excelize.File, int, error) {
	ruta := l.rutaParticion(dia)

	if _, err := os.Stat(ruta); err != nil {
		if !os.IsNotExist(err) {
			// Un Stat fallido no significa "no hay partición": crear una
			// nueva aquí machacaría las filas ya registradas del día
			return nil, 0, mapearErrorFichero(err)
		}
		f := excelize.NewFile()
		hoja := f.GetSheetName(0)
		if err := f.SetSheetRow(hoja, "A1", &cabeceraParticion); err != nil {
			f.Close()
			return nil, 0, err
		}
		return f, 1, nil
	}

	f, err := excelize.OpenFile(ruta)
	if err != nil {
		return nil, 0, mapearErrorFichero(err)
	}
	filas, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	if !cabeceraValida(filas) {
		f.Close()
		// Edición externa: se informa, nunca se repara en silencio
		return nil, 0, fmt.Errorf("%w: %s", entity.ErrParticionCorrupta, ruta)
	}
	return f, len(filas), nil
}

func cabeceraValida(filas [][]string) bool {
	if len(filas) == 0 || len(filas[0]) < len(cabeceraParticion) {
		return false
	}
	for i, columna := range cabeceraParticion {
		if strings.TrimSpace(filas[0][i]) != columna {
			return false
		}
	}
	return true
}

// mapearErrorFichero fichero bloqueado o sin permisos -> aviso reintenable
func mapearErrorFichero(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("%w: %v", entity.ErrRecursoBloqueado, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "being used by another process") || strings.Contains(msg, "resource temporarily unavailable") {
		return fmt.Errorf("%w: %v", entity.ErrRecursoBloqueado, err)
	}
	return err
}

// Append anexa una entrada y graba la partición completa
func (l *xlsxLedgerRepository) Append(ctx context.Context, entrada entity.RevisionEntry) error {
	return l.AppendBatch(ctx, []entity.RevisionEntry{entrada})
}

// AppendBatch agrupa las entradas por partición y graba cada fichero una
// sola vez, en lugar de una grabación por fila
func (l *xlsxLedgerRepository) AppendBatch(ctx context.Context, entradas []entity.RevisionEntry) error {
	if len(entradas) == 0 {
		return nil
	}

	porDia := make(map[string][]entity.RevisionEntry)
	var orden []string
	for _, e := range entradas {
		clave := e.Fecha.Format(FormatoFecha)
		if _, visto := porDia[clave]; !visto {
			orden = append(orden, clave)
		}
		porDia[clave] = append(porDia[clave], e)
	}

	for _, clave := range orden {
		if err := ctx.Err(); err != nil {
			return err
		}
		dia, err := time.Parse(FormatoFecha, clave)
		if err != nil {
			return err
		}
		if err := l.grabarParticion(dia, porDia[clave]); err != nil {
			return err
		}
	}
	return nil
}

func (l *xlsxLedgerRepository) grabarParticion(dia time.Time, entradas []entity.RevisionEntry) error {
	f, filas, err := l.abrirParticion(dia)
	if err != nil {
		return err
	}
	defer f.Close()

	hoja := f.GetSheetName(0)
	for i, e := range entradas {
		celda, err := excelize.CoordinatesToCellName(1, filas+i+1)
		if err != nil {
			return err
		}
		fila := filaDeEntrada(e)
		if err := f.SetSheetRow(hoja, celda, &fila); err != nil {
			return err
		}
	}

	if err := f.SaveAs(l.rutaParticion(dia)); err != nil {
		return mapearErrorFichero(err)
	}
	return nil
}

// filaDeEntrada serializa una entrada al orden exacto de la cabecera
func filaDeEntrada(e entity.RevisionEntry) []any {
	return []any{
		e.SKU,
		e.Titulo,
		string(e.Form.Tipo),
		e.Form.EtiquetaPT(),
		e.Form.EtiquetaES(),
		e.Form.EtiquetaIT(),
		strconv.Itoa(e.Form.CantidadNeta),
		string(e.Form.Unidad),
		e.Form.ComposicionCadena(),
		string(e.Estado),
		e.Form.TraduccionPT.Descripcion,
		e.Form.TraduccionPT.ModoEmpleo,
		e.Form.TraduccionPT.Precauciones,
		e.Form.TraduccionPT.MasInformaciones,
		e.Form.TraduccionIT.Descripcion,
		e.Form.TraduccionIT.ModoEmpleo,
		e.Form.TraduccionIT.Precauciones,
		e.Form.TraduccionIT.MasInformaciones,
	}
}

// idDeFila identificador estable de una fila persistida. El formato de
// partición no guarda el ID original, así que se deriva de la posición:
// lecturas repetidas de la misma fila devuelven el mismo identificador.
func idDeFila(dia time.Time, numFila int) string {
	clave := fmt.Sprintf("REV-%s#%d", dia.Format(FormatoFecha), numFila)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(clave)).String()
}

// entradaDeFila reconstruye una entrada desde una fila persistida
func entradaDeFila(fila []string, dia time.Time, numFila int) entity.RevisionEntry {
	celda := func(i int) string {
		if i < len(fila) {
			return fila[i]
		}
		return ""
	}

	cantidad, _ := strconv.Atoi(strings.TrimSpace(celda(6)))
	return entity.RevisionEntry{
		ID:     idDeFila(dia, numFila),
		SKU:    celda(0),
		Titulo: celda(1),
		Estado: entity.Estado(celda(9)),
		Fecha:  dia,
		Form: entity.FormState{
			Tipo:            entity.Tipo(celda(2)),
			TienePT:         celda(3) == "Tiene PT",
			TieneES:         celda(4) == "Tiene ES",
			TieneIT:         celda(5) == "Tiene IT",
			CantidadNeta:    cantidad,
			Unidad:          entity.Unidad(celda(7)),
			ComposicionLote: dividirComposicion(celda(8)),
			TraduccionPT: entity.TextoTraduccion{
				Descripcion:      celda(10),
				ModoEmpleo:       celda(11),
				Precauciones:     celda(12),
				MasInformaciones: celda(13),
			},
			TraduccionIT: entity.TextoTraduccion{
				Descripcion:      celda(14),
				ModoEmpleo:       celda(15),
				Precauciones:     celda(16),
				MasInformaciones: celda(17),
			},
		},
	}
}

// dividirComposicion deshace el formato "ean1","ean2"
func dividirComposicion(cadena string) []string {
	cadena = strings.TrimSpace(cadena)
	if cadena == "" {
		return nil
	}
	var tokens []string
	for _, parte := range strings.Split(cadena, ",") {
		parte = strings.Trim(strings.TrimSpace(parte), `"`)
		if parte != "" {
			tokens = append(tokens, parte)
		}
	}
	return tokens
}

// ListEntries entradas de la partición del día en orden de registro
func (l *xlsxLedgerRepository) ListEntries(ctx context.Context, dia time.Time) ([]entity.RevisionEntry, error) {
	filas, err := l.filasParticion(dia)
	if err != nil || filas == nil {
		return nil, err
	}

	entradas := make([]entity.RevisionEntry, 0, len(filas)-1)
	for i, fila := range filas[1:] {
		if filaVacia(fila) {
			continue
		}
		entradas = append(entradas, entradaDeFila(fila, dia, i+2))
	}
	return entradas, nil
}

// ExistsSKU comprueba si el SKU ya fue revisado ese día
func (l *xlsxLedgerRepository) ExistsSKU(ctx context.Context, dia time.Time, sku string) (bool, error) {
	filas, err := l.filasParticion(dia)
	if err != nil || filas == nil {
		return false, err
	}
	for _, fila := range filas[1:] {
		if len(fila) > 0 && fila[0] == sku {
			return true, nil
		}
	}
	return false, nil
}

// CountEstados totales REV y RYT del día. Una entrada "Revisado y Traducido"
// cuenta en ambos totales, igual que en el título dinámico de la ventana.
func (l *xlsxLedgerRepository) CountEstados(ctx context.Context, dia time.Time) (int, int, error) {
	filas, err := l.filasParticion(dia)
	if err != nil || filas == nil {
		return 0, 0, err
	}

	var rev, ryt int
	for _, fila := range filas[1:] {
		if len(fila) <= 9 {
			continue
		}
		switch entity.Estado(fila[9]) {
		case entity.EstadoSoloRevision:
			rev++
		case entity.EstadoRevisadoTraducido:
			rev++
			ryt++
		}
	}
	return rev, ryt, nil
}

// filasParticion filas crudas de la partición; nil si el día no tiene fichero
func (l *xlsxLedgerRepository) filasParticion(dia time.Time) ([][]string, error) {
	ruta := l.rutaParticion(dia)
	if _, err := os.Stat(ruta); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, mapearErrorFichero(err)
	}

	f, err := excelize.OpenFile(ruta)
	if err != nil {
		return nil, mapearErrorFichero(err)
	}
	defer f.Close()

	filas, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, err
	}
	if !cabeceraValida(filas) {
		return nil, fmt.Errorf("%w: %s", entity.ErrParticionCorrupta, ruta)
	}
	return filas, nil
}

func filaVacia(fila []string) bool {
	for _, celda := range fila {
		if strings.TrimSpace(celda) != "" {
			return false
		}
	}
	return true
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/partybrasil/Contador-Revisiones/internal/domain/entity"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func nuevaEntrada(t *testing.T, sku, titulo string, estado entity.Estado) entity.RevisionEntry {
	t.Helper()
	form := entity.FormState{
		Tipo:         entity.TipoZZ,
		TienePT:      true,
		CantidadNeta: 2,
		Unidad:       entity.UnidadML,
	}
	e, err := entity.NuevaRevision(sku, titulo, estado, form)
	require.NoError(t, err)
	return e
}

func TestAppendCreaParticionConCabecera(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo, err := NewXLSXLedgerRepository(dir)
	require.NoError(t, err)

	entrada := nuevaEntrada(t, "123456", "Producto A", entity.EstadoSoloRevision)
	require.NoError(t, repo.Append(ctx, entrada))

	ruta := filepath.Join(dir, fmt.Sprintf("REV-%s.xlsx", entrada.Fecha.Format(FormatoFecha)))
	f, err := excelize.OpenFile(ruta)
	require.NoError(t, err)
	defer f.Close()

	filas, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, filas, 2)
	require.Equal(t, cabeceraParticion, filas[0][:len(cabeceraParticion)])
	require.Equal(t, "123456", filas[1][0])
	require.Equal(t, "Producto A", filas[1][1])
	require.Equal(t, "Tiene PT", filas[1][3])
	require.Equal(t, "No Tiene ES - TRADUCIDO", filas[1][4])
	require.Equal(t, string(entity.EstadoSoloRevision), filas[1][9])
}

func TestAppendConservaElOrdenDeRegistro(t *testing.T) {
	ctx := context.Background()
	repo, err := NewXLSXLedgerRepository(t.TempDir())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		entrada := nuevaEntrada(t, fmt.Sprintf("SKU-%d", i), "Título", entity.EstadoSoloRevision)
		require.NoError(t, repo.Append(ctx, entrada))
	}

	entradas, err := repo.ListEntries(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, entradas, 5)
	for i, e := range entradas {
		require.Equal(t, fmt.Sprintf("SKU-%d", i), e.SKU)
	}
}

func TestAppendMismoSKUVariasVeces(t *testing.T) {
	// Cada registro es un hecho histórico nuevo, nunca una actualización
	ctx := context.Background()
	repo, err := NewXLSXLedgerRepository(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Append(ctx, nuevaEntrada(t, "123456", "Producto A", entity.EstadoSoloRevision)))
	require.NoError(t, repo.Append(ctx, nuevaEntrada(t, "123456", "Producto A", entity.EstadoRevisadoTraducido)))

	entradas, err := repo.ListEntries(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, entradas, 2)
}

func TestAppendBatchGrabaUnaSolaVez(t *testing.T) {
	ctx := context.Background()
	repo, err := NewXLSXLedgerRepository(t.TempDir())
	require.NoError(t, err)

	var lote []entity.RevisionEntry
	for i := 0; i < 120; i++ {
		lote = append(lote, nuevaEntrada(t, fmt.Sprintf("SKU-%d", i), "Título", entity.EstadoSoloRevision))
	}
	require.NoError(t, repo.AppendBatch(ctx, lote))

	entradas, err := repo.ListEntries(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, entradas, 120)
}

func TestExistsSKU(t *testing.T) {
	ctx := context.Background()
	repo, err := NewXLSXLedgerRepository(t.TempDir())
	require.NoError(t, err)

	existe, err := repo.ExistsSKU(ctx, time.Now(), "123456")
	require.NoError(t, err)
	require.False(t, existe)

	require.NoError(t, repo.Append(ctx, nuevaEntrada(t, "123456", "Producto A", entity.EstadoSoloRevision)))

	existe, err = repo.ExistsSKU(ctx, time.Now(), "123456")
	require.NoError(t, err)
	require.True(t, existe)

	existe, err = repo.ExistsSKU(ctx, time.Now(), "999")
	require.NoError(t, err)
	require.False(t, existe)
}

func TestCountEstados(t *testing.T) {
	// "Revisado y Traducido" cuenta en REV y en RYT, como el título dinámico
	ctx := context.Background()
	repo, err := NewXLSXLedgerRepository(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Append(ctx, nuevaEntrada(t, "A", "Alpha", entity.EstadoSoloRevision)))
	require.NoError(t, repo.Append(ctx, nuevaEntrada(t, "B", "Beta", entity.EstadoRevisadoTraducido)))
	require.NoError(t, repo.Append(ctx, nuevaEntrada(t, "C", "Gamma", entity.EstadoRevisadoTraducido)))

	rev, ryt, err := repo.CountEstados(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, 3, rev)
	require.Equal(t, 2, ryt)
}

func TestParticionAusente(t *testing.T) {
	ctx := context.Background()
	repo, err := NewXLSXLedgerRepository(t.TempDir())
	require.NoError(t, err)

	entradas, err := repo.ListEntries(ctx, time.Now())
	require.NoError(t, err)
	require.Empty(t, entradas)

	rev, ryt, err := repo.CountEstados(ctx, time.Now())
	require.NoError(t, err)
	require.Zero(t, rev)
	require.Zero(t, ryt)
}

func TestParticionConCabeceraAjenaEsCorrupta(t *testing.T) {
	// Un fichero editado externamente con otra cabecera se informa como
	// corrupto, nunca se repara en silencio
	ctx := context.Background()
	dir := t.TempDir()
	repo, err := NewXLSXLedgerRepository(dir)
	require.NoError(t, err)

	ruta := filepath.Join(dir, fmt.Sprintf("REV-%s.xlsx", time.Now().Format(FormatoFecha)))
	f := excelize.NewFile()
	cabecera := []any{"columna", "ajena"}
	require.NoError(t, f.SetSheetRow(f.GetSheetName(0), "A1", &cabecera))
	require.NoError(t, f.SaveAs(ruta))
	require.NoError(t, f.Close())

	_, err = repo.ListEntries(ctx, time.Now())
	require.ErrorIs(t, err, entity.ErrParticionCorrupta)

	err = repo.Append(ctx, nuevaEntrada(t, "123456", "Producto A", entity.EstadoSoloRevision))
	require.ErrorIs(t, err, entity.ErrParticionCorrupta)
}

func TestParticionIlegibleNoSeReemplaza(t *testing.T) {
	// Si la partición del día existe pero no se puede inspeccionar, el anexo
	// falla; nunca se crea una partición nueva encima de la existente
	ctx := context.Background()
	dir := t.TempDir()
	repo, err := NewXLSXLedgerRepository(dir)
	require.NoError(t, err)

	ruta := filepath.Join(dir, fmt.Sprintf("REV-%s.xlsx", time.Now().Format(FormatoFecha)))
	require.NoError(t, os.Symlink(ruta, ruta))

	err = repo.Append(ctx, nuevaEntrada(t, "123456", "Producto A", entity.EstadoSoloRevision))
	require.Error(t, err)

	info, err := os.Lstat(ruta)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&os.ModeSymlink)
}

func TestListEntriesIDEstable(t *testing.T) {
	// El mismo registro persistido conserva el mismo identificador entre
	// lecturas; dos registros del día nunca comparten identificador
	ctx := context.Background()
	repo, err := NewXLSXLedgerRepository(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Append(ctx, nuevaEntrada(t, "A", "Alpha", entity.EstadoSoloRevision)))
	require.NoError(t, repo.Append(ctx, nuevaEntrada(t, "B", "Beta", entity.EstadoSoloRevision)))

	primera, err := repo.ListEntries(ctx, time.Now())
	require.NoError(t, err)
	segunda, err := repo.ListEntries(ctx, time.Now())
	require.NoError(t, err)

	require.Len(t, primera, 2)
	require.Len(t, segunda, 2)
	require.Equal(t, primera[0].ID, segunda[0].ID)
	require.Equal(t, primera[1].ID, segunda[1].ID)
	require.NotEqual(t, primera[0].ID, primera[1].ID)
}

func TestMapearErrorFichero(t *testing.T) {
	require.NoError(t, mapearErrorFichero(nil))

	sinPermiso := fmt.Errorf("open REVs: %w", os.ErrPermission)
	require.ErrorIs(t, mapearErrorFichero(sinPermiso), entity.ErrRecursoBloqueado)

	enUso := errors.New("the process cannot access the file because it is being used by another process")
	require.ErrorIs(t, mapearErrorFichero(enUso), entity.ErrRecursoBloqueado)

	otro := errors.New("fallo cualquiera")
	require.Equal(t, otro, mapearErrorFichero(otro))
}

func TestIdaYVueltaDeEntrada(t *testing.T) {
	ctx := context.Background()
	repo, err := NewXLSXLedgerRepository(t.TempDir())
	require.NoError(t, err)

	form := entity.FormState{
		Tipo:            entity.TipoLote,
		TienePT:         true,
		TieneIT:         true,
		CantidadNeta:    3,
		Unidad:          entity.UnidadGR,
		ComposicionLote: []string{"111", "222"},
		TraduccionPT:    entity.TextoTraduccion{Descripcion: "desc pt", ModoEmpleo: "modo pt"},
		TraduccionIT:    entity.TextoTraduccion{Precauciones: "prec it"},
	}
	entrada, err := entity.NuevaRevision("123456", "Producto A", entity.EstadoRevisadoTraducido, form)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, entrada))

	entradas, err := repo.ListEntries(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, entradas, 1)

	leida := entradas[0]
	require.Equal(t, "123456", leida.SKU)
	require.Equal(t, entity.EstadoRevisadoTraducido, leida.Estado)
	require.Equal(t, entity.TipoLote, leida.Form.Tipo)
	require.True(t, leida.Form.TienePT)
	require.False(t, leida.Form.TieneES)
	require.Equal(t, 3, leida.Form.CantidadNeta)
	require.Equal(t, entity.UnidadGR, leida.Form.Unidad)
	require.Equal(t, []string{"111", "222"}, leida.Form.ComposicionLote)
	require.Equal(t, "desc pt", leida.Form.TraduccionPT.Descripcion)
	require.Equal(t, "prec it", leida.Form.TraduccionIT.Precauciones)
}

package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEtiquetasIdiomas(t *testing.T) {
	conTodo := FormState{TienePT: true, TieneES: true, TieneIT: true}
	require.Equal(t, "Tiene PT", conTodo.EtiquetaPT())
	require.Equal(t, "Tiene ES", conTodo.EtiquetaES())
	require.Equal(t, "Tiene IT", conTodo.EtiquetaIT())

	sinNada := FormState{}
	require.Equal(t, "No Tiene PT - TRADUZIDO", sinNada.EtiquetaPT())
	require.Equal(t, "No Tiene ES - TRADUCIDO", sinNada.EtiquetaES())
	require.Equal(t, "No Tiene IT - TRADOTTO", sinNada.EtiquetaIT())
}

func TestComposicionCadena(t *testing.T) {
	t.Run("SoloParaTiposDeLote", func(t *testing.T) {
		form := FormState{Tipo: TipoConsumo, ComposicionLote: []string{"111", "222"}}
		require.Empty(t, form.ComposicionCadena())
	})

	t.Run("TokensEntrecomillados", func(t *testing.T) {
		lote := FormState{Tipo: TipoLote, ComposicionLote: []string{"111", "222"}}
		require.Equal(t, `"111","222"`, lote.ComposicionCadena())

		setPack := FormState{Tipo: TipoSetPack, ComposicionLote: []string{"333"}}
		require.Equal(t, `"333"`, setPack.ComposicionCadena())
	})
}

func TestNuevaRevision(t *testing.T) {
	valido := FormState{Tipo: TipoZZ, CantidadNeta: 1, Unidad: UnidadUND}

	t.Run("AsignaIDYFecha", func(t *testing.T) {
		e, err := NuevaRevision("123456", "Producto A", EstadoSoloRevision, valido)
		require.NoError(t, err)
		require.NotEmpty(t, e.ID)
		require.False(t, e.Fecha.IsZero())
		require.Equal(t, EstadoSoloRevision, e.Estado)
	})

	t.Run("RechazaSKUVacio", func(t *testing.T) {
		_, err := NuevaRevision("  ", "Producto A", EstadoSoloRevision, valido)
		require.ErrorIs(t, err, ErrValidacion)
	})

	t.Run("RechazaEstadoDesconocido", func(t *testing.T) {
		_, err := NuevaRevision("123456", "Producto A", Estado("Pendiente"), valido)
		require.ErrorIs(t, err, ErrValidacion)
	})

	t.Run("RechazaCantidadNoPositiva", func(t *testing.T) {
		form := valido
		form.CantidadNeta = 0
		_, err := NuevaRevision("123456", "Producto A", EstadoSoloRevision, form)
		require.ErrorIs(t, err, ErrValidacion)
	})

	t.Run("RechazaUnidadDesconocida", func(t *testing.T) {
		form := valido
		form.Unidad = Unidad("KG")
		_, err := NuevaRevision("123456", "Producto A", EstadoSoloRevision, form)
		require.ErrorIs(t, err, ErrValidacion)
	})
}

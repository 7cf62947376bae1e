package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/partybrasil/Contador-Revisiones/internal/domain/entity"
	"github.com/partybrasil/Contador-Revisiones/internal/domain/repository"
	"github.com/stretchr/testify/require"
)

// La misma batería se ejecuta contra el catálogo en memoria y el de SQLite:
// ambos deben comportarse igual.
func TestCatalogRepositories(t *testing.T) {
	implementaciones := map[string]func(t *testing.T) repository.CatalogRepository{
		"Memoria": func(t *testing.T) repository.CatalogRepository {
			return NewMemoryCatalogRepository()
		},
		"SQLite": func(t *testing.T) repository.CatalogRepository {
			repo, err := NewSQLiteCatalogRepository(filepath.Join(t.TempDir(), "db.db"))
			require.NoError(t, err)
			return repo
		},
	}

	for nombre, crear := range implementaciones {
		t.Run(nombre, func(t *testing.T) {
			probarCatalogo(t, crear)
		})
	}
}

func probarCatalogo(t *testing.T, crear func(t *testing.T) repository.CatalogRepository) {
	ctx := context.Background()

	t.Run("InsertYLookupBySKU", func(t *testing.T) {
		repo := crear(t)
		_, err := repo.Insert(ctx, entity.NuevoProducto("123456", "Producto A", "111,222"))
		require.NoError(t, err)

		p, err := repo.LookupBySKU(ctx, "123456")
		require.NoError(t, err)
		require.Equal(t, "Producto A", p.Titulo)
		require.Equal(t, []string{"111", "222"}, p.EANs)
	})

	t.Run("LookupBySKUInexistente", func(t *testing.T) {
		repo := crear(t)
		_, err := repo.LookupBySKU(ctx, "999")
		require.ErrorIs(t, err, entity.ErrNoEncontrado)
	})

	t.Run("SKUDuplicadoNoMutaElRegistro", func(t *testing.T) {
		repo := crear(t)
		_, err := repo.Insert(ctx, entity.NuevoProducto("123456", "Producto A", "111,222"))
		require.NoError(t, err)

		_, err = repo.Insert(ctx, entity.NuevoProducto("123456", "Otro título", "999"))
		require.ErrorIs(t, err, entity.ErrSKUDuplicado)

		p, err := repo.LookupBySKU(ctx, "123456")
		require.NoError(t, err)
		require.Equal(t, "Producto A", p.Titulo)
		require.Equal(t, []string{"111", "222"}, p.EANs)
	})

	t.Run("LookupByEANTokenExacto", func(t *testing.T) {
		repo := crear(t)
		_, err := repo.Insert(ctx, entity.NuevoProducto("123456", "Producto A", "111,222"))
		require.NoError(t, err)

		resultados, err := repo.LookupByEAN(ctx, "111")
		require.NoError(t, err)
		require.Len(t, resultados, 1)
		require.Equal(t, "Producto A", resultados[0].Titulo)

		// Un prefijo de un EAN almacenado no es un token: no debe casar
		for _, consulta := range []string{"1", "11", "1112", "2"} {
			resultados, err := repo.LookupByEAN(ctx, consulta)
			require.NoError(t, err)
			require.Empty(t, resultados, "la consulta %q no debe casar por subcadena", consulta)
		}
	})

	t.Run("EANCompartidoDevuelveTodos", func(t *testing.T) {
		repo := crear(t)
		_, err := repo.Insert(ctx, entity.NuevoProducto("A", "Alpha", "555"))
		require.NoError(t, err)
		colisiones, err := repo.Insert(ctx, entity.NuevoProducto("B", "Beta", "555"))
		require.NoError(t, err)

		// El alta no se bloquea pero sí avisa de la colisión
		require.Len(t, colisiones, 1)
		require.Equal(t, "555", colisiones[0].EAN)
		require.Equal(t, "A", colisiones[0].SKU)

		resultados, err := repo.LookupByEAN(ctx, "555")
		require.NoError(t, err)
		require.Len(t, resultados, 2)
		require.Equal(t, "A", resultados[0].SKU)
		require.Equal(t, "B", resultados[1].SKU)
	})

	t.Run("MergeEANsUnionCanonicaIdempotente", func(t *testing.T) {
		repo := crear(t)
		_, err := repo.Insert(ctx, entity.NuevoProducto("123456", "Producto A", "111,222"))
		require.NoError(t, err)

		p, _, err := repo.MergeEANs(ctx, "123456", []string{"222", "333"})
		require.NoError(t, err)
		require.Equal(t, []string{"111", "222", "333"}, p.EANs)

		// Repetir la misma fusión no cambia el conjunto almacenado
		p, _, err = repo.MergeEANs(ctx, "123456", []string{"222", "333"})
		require.NoError(t, err)
		require.Equal(t, []string{"111", "222", "333"}, p.EANs)

		resultados, err := repo.LookupByEAN(ctx, "333")
		require.NoError(t, err)
		require.Len(t, resultados, 1)
	})

	t.Run("MergeEANsInexistente", func(t *testing.T) {
		repo := crear(t)
		_, _, err := repo.MergeEANs(ctx, "999", []string{"111"})
		require.ErrorIs(t, err, entity.ErrNoEncontrado)
	})

	t.Run("FindDuplicateEANGroups", func(t *testing.T) {
		repo := crear(t)
		_, err := repo.Insert(ctx, entity.NuevoProducto("A", "Alpha", "555,777"))
		require.NoError(t, err)
		_, err = repo.Insert(ctx, entity.NuevoProducto("B", "Beta", "555"))
		require.NoError(t, err)
		_, err = repo.Insert(ctx, entity.NuevoProducto("C", "Gamma", "777,888"))
		require.NoError(t, err)
		_, err = repo.Insert(ctx, entity.NuevoProducto("D", "Delta", ""))
		require.NoError(t, err)

		grupos, err := repo.FindDuplicateEANGroups(ctx)
		require.NoError(t, err)
		require.Equal(t, []entity.GrupoEANDuplicado{
			{EAN: "555", SKUs: []string{"A", "B"}},
			{EAN: "777", SKUs: []string{"A", "C"}},
		}, grupos)
	})

	t.Run("AllProductsOrdenadoPorSKU", func(t *testing.T) {
		repo := crear(t)
		for _, sku := range []string{"C", "A", "B"} {
			_, err := repo.Insert(ctx, entity.NuevoProducto(sku, "Título "+sku, ""))
			require.NoError(t, err)
		}

		productos, err := repo.AllProducts(ctx)
		require.NoError(t, err)
		require.Len(t, productos, 3)
		require.Equal(t, "A", productos[0].SKU)
		require.Equal(t, "B", productos[1].SKU)
		require.Equal(t, "C", productos[2].SKU)

		total, err := repo.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 3, total)
	})

	t.Run("SKUVacioRechazado", func(t *testing.T) {
		repo := crear(t)
		_, err := repo.Insert(ctx, entity.NuevoProducto("", "Sin clave", ""))
		require.ErrorIs(t, err, entity.ErrValidacion)
	})
}

// Una transacción de escritura abierta en otra conexión bloquea la base; el
// alta devuelve el centinela reintenable, no un error opaco
func TestSQLiteInsertConBaseBloqueada(t *testing.T) {
	ctx := context.Background()
	ruta := filepath.Join(t.TempDir(), "db.db")

	repo, err := NewSQLiteCatalogRepository(ruta)
	require.NoError(t, err)

	otra, err := sql.Open("sqlite3", ruta)
	require.NoError(t, err)
	defer otra.Close()

	conexion, err := otra.Conn(ctx)
	require.NoError(t, err)
	defer conexion.Close()

	_, err = conexion.ExecContext(ctx, "BEGIN IMMEDIATE")
	require.NoError(t, err)

	_, err = repo.Insert(ctx, entity.NuevoProducto("123456", "Producto A", "111"))
	require.ErrorIs(t, err, entity.ErrRecursoBloqueado)

	// Al soltar la transacción el alta vuelve a funcionar
	_, err = conexion.ExecContext(ctx, "ROLLBACK")
	require.NoError(t, err)

	_, err = repo.Insert(ctx, entity.NuevoProducto("123456", "Producto A", "111"))
	require.NoError(t, err)
}

// El catálogo SQLite debe reconstruir el índice invertido al reabrir la base
func TestSQLiteReabreConIndice(t *testing.T) {
	ctx := context.Background()
	ruta := filepath.Join(t.TempDir(), "db.db")

	repo, err := NewSQLiteCatalogRepository(ruta)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, entity.NuevoProducto("123456", "Producto A", "111,222"))
	require.NoError(t, err)

	reabierto, err := NewSQLiteCatalogRepository(ruta)
	require.NoError(t, err)

	resultados, err := reabierto.LookupByEAN(ctx, "222")
	require.NoError(t, err)
	require.Len(t, resultados, 1)
	require.Equal(t, "123456", resultados[0].SKU)
}

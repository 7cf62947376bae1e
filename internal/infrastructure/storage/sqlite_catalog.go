package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
	"github.com/partybrasil/Contador-Revisiones/internal/domain/entity"
	"github.com/partybrasil/Contador-Revisiones/internal/domain/repository"
)

type sqliteCatalogRepository struct {
	db *sql.DB

	// índice invertido ean -> {sku}, reconstruido al abrir y mantenido en
	// cada Insert/MergeEANs bajo el mismo cerrojo que la escritura
	mu        sync.RWMutex
	indiceEAN map[string]map[string]struct{}
	titulos   map[string]string
}

// NewSQLiteCatalogRepository catálogo respaldado por SQLite (tabla productos)
func NewSQLiteCatalogRepository(rutaDB string) (repository.CatalogRepository, error) {
	if rutaDB == "" {
		return nil, errors.New("la ruta de la base de datos no puede estar vacía")
	}

	if dir := filepath.Dir(rutaDB); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("no se pudo crear la carpeta de la base de datos: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", rutaDB)
	if err != nil {
		return nil, fmt.Errorf("no se pudo abrir sqlite: %w", err)
	}

	if err := crearEsquemaCatalogo(db); err != nil {
		return nil, err
	}

	repo := &sqliteCatalogRepository{
		db:        db,
		indiceEAN: make(map[string]map[string]struct{}),
		titulos:   make(map[string]string),
	}
	if err := repo.reconstruirIndice(); err != nil {
		return nil, err
	}
	return repo, nil
}

func crearEsquemaCatalogo(db *sql.DB) error {
	const esquema = `
CREATE TABLE IF NOT EXISTS productos (
	sku TEXT PRIMARY KEY,
	titulo TEXT,
	eans TEXT
);
`
	if _, err := db.Exec(esquema); err != nil {
		return fmt.Errorf("no se pudo crear el esquema: %w", mapearErrorSQLite(err))
	}
	return nil
}

// mapearErrorSQLite convierte "database is locked" en el centinela
// reintenable en lugar de propagarlo como excepción de control de flujo
func mapearErrorSQLite(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked {
			return fmt.Errorf("%w: %v", entity.ErrRecursoBloqueado, err)
		}
	}
	if strings.Contains(err.Error(), "database is locked") {
		return fmt.Errorf("%w: %v", entity.ErrRecursoBloqueado, err)
	}
	return err
}

// reconstruirIndice carga el índice invertido desde la tabla completa
func (s *sqliteCatalogRepository) reconstruirIndice() error {
	rows, err := s.db.Query(`SELECT sku, titulo, eans FROM productos`)
	if err != nil {
		return mapearErrorSQLite(err)
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var sku string
		var titulo, eans sql.NullString
		if err := rows.Scan(&sku, &titulo, &eans); err != nil {
			return err
		}
		s.titulos[sku] = titulo.String
		s.indexarLocked(sku, entity.DividirEANs(eans.String))
	}
	return rows.Err()
}

// LookupBySKU búsqueda exacta por clave primaria
func (s *sqliteCatalogRepository) LookupBySKU(ctx context.Context, sku string) (*entity.Producto, error) {
	var titulo, eans sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT titulo, eans FROM productos WHERE sku = ?`, sku).Scan(&titulo, &eans)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrNoEncontrado, sku)
	}
	if err != nil {
		return nil, mapearErrorSQLite(err)
	}
	producto := filaAProducto(sku, titulo.String, eans.String)
	return &producto, nil
}

// LookupByEAN resuelve el token contra el índice invertido y recupera cada
// producto. La pertenencia es por token exacto, nunca por subcadena.
func (s *sqliteCatalogRepository) LookupByEAN(ctx context.Context, token string) ([]entity.Producto, error) {
	s.mu.RLock()
	skus := make([]string, 0, len(s.indiceEAN[token]))
	for sku := range s.indiceEAN[token] {
		skus = append(skus, sku)
	}
	s.mu.RUnlock()
	sort.Strings(skus)

	resultados := make([]entity.Producto, 0, len(skus))
	for _, sku := range skus {
		producto, err := s.LookupBySKU(ctx, sku)
		if err != nil {
			return nil, err
		}
		resultados = append(resultados, *producto)
	}
	return resultados, nil
}

// Insert alta con validación de SKU único; las colisiones de EAN se avisan
// sin bloquear el alta
func (s *sqliteCatalogRepository) Insert(ctx context.Context, producto entity.Producto) ([]entity.ColisionEAN, error) {
	if producto.SKU == "" {
		return nil, fmt.Errorf("%w: el SKU es obligatorio", entity.ErrValidacion)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var existente string
	err := s.db.QueryRowContext(ctx, `SELECT sku FROM productos WHERE sku = ?`, producto.SKU).Scan(&existente)
	if err == nil {
		return nil, fmt.Errorf("%w: %q", entity.ErrSKUDuplicado, producto.SKU)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, mapearErrorSQLite(err)
	}

	colisiones := s.colisionesLocked(producto.SKU, producto.EANs)

	_, err = s.db.ExecContext(ctx, `INSERT INTO productos (sku, titulo, eans) VALUES (?, ?, ?)`,
		producto.SKU, producto.Titulo, producto.EANsCadena())
	if err != nil {
		return nil, mapearErrorSQLite(err)
	}

	s.titulos[producto.SKU] = producto.Titulo
	s.indexarLocked(producto.SKU, producto.EANs)
	return colisiones, nil
}

// MergeEANs unión persistida en orden canónico; aplicar dos veces la misma
// entrada deja el mismo conjunto almacenado
func (s *sqliteCatalogRepository) MergeEANs(ctx context.Context, sku string, nuevos []string) (*entity.Producto, []entity.ColisionEAN, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var titulo, eans sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT titulo, eans FROM productos WHERE sku = ?`, sku).Scan(&titulo, &eans)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", entity.ErrNoEncontrado, sku)
	}
	if err != nil {
		return nil, nil, mapearErrorSQLite(err)
	}

	colisiones := s.colisionesLocked(sku, nuevos)

	actuales := entity.DividirEANs(eans.String)
	fusionados := entity.CanonicalizarEANs(append(actuales, nuevos...))

	_, err = s.db.ExecContext(ctx, `UPDATE productos SET eans = ? WHERE sku = ?`,
		entity.UnirEANs(fusionados), sku)
	if err != nil {
		return nil, nil, mapearErrorSQLite(err)
	}

	s.indexarLocked(sku, fusionados)
	producto := entity.Producto{SKU: sku, Titulo: titulo.String, EANs: fusionados}
	return &producto, colisiones, nil
}

// FindDuplicateEANGroups EANs compartidos por más de un SKU, por token
func (s *sqliteCatalogRepository) FindDuplicateEANGroups(ctx context.Context) ([]entity.GrupoEANDuplicado, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var grupos []entity.GrupoEANDuplicado
	for ean, skus := range s.indiceEAN {
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
func (s *sqliteCatalogRepository) AllProducts(ctx context.Context) ([]entity.Producto, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sku, titulo, eans FROM productos ORDER BY sku`)
	if err != nil {
		return nil, mapearErrorSQLite(err)
	}
	defer rows.Close()

	var productos []entity.Producto
	for rows.Next() {
		var sku string
		var titulo, eans sql.NullString
		if err := rows.Scan(&sku, &titulo, &eans); err != nil {
			return nil, err
		}
		productos = append(productos, filaAProducto(sku, titulo.String, eans.String))
	}
	return productos, rows.Err()
}

// Count número de productos
func (s *sqliteCatalogRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM productos`).Scan(&total); err != nil {
		return 0, mapearErrorSQLite(err)
	}
	return total, nil
}

func filaAProducto(sku, titulo, eans string) entity.Producto {
	if strings.TrimSpace(titulo) == "" {
		titulo = entity.SinTitulo
	}
	return entity.Producto{SKU: sku, Titulo: titulo, EANs: entity.DividirEANs(eans)}
}

func (s *sqliteCatalogRepository) colisionesLocked(sku string, tokens []string) []entity.ColisionEAN {
	var colisiones []entity.ColisionEAN
	for _, token := range entity.CanonicalizarEANs(tokens) {
		for otro := range s.indiceEAN[token] {
			if otro == sku {
				continue
			}
			colisiones = append(colisiones, entity.ColisionEAN{EAN: token, SKU: otro, Titulo: s.titulos[otro]})
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

func (s *sqliteCatalogRepository) indexarLocked(sku string, tokens []string) {
	for ean, skus := range s.indiceEAN {
		delete(skus, sku)
		if len(skus) == 0 {
			delete(s.indiceEAN, ean)
		}
	}
	for _, token := range tokens {
		if s.indiceEAN[token] == nil {
			s.indiceEAN[token] = make(map[string]struct{})
		}
		s.indiceEAN[token][sku] = struct{}{}
	}
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/partybrasil/Contador-Revisiones/config"
	"github.com/partybrasil/Contador-Revisiones/internal/domain/entity"
	"github.com/partybrasil/Contador-Revisiones/internal/domain/repository"
	"github.com/partybrasil/Contador-Revisiones/internal/infrastructure/exporter"
	"github.com/partybrasil/Contador-Revisiones/internal/infrastructure/ledger"
	"github.com/partybrasil/Contador-Revisiones/internal/infrastructure/parser"
	"github.com/partybrasil/Contador-Revisiones/internal/infrastructure/storage"
	"github.com/partybrasil/Contador-Revisiones/internal/usecase"
	"go.uber.org/zap"
)

// Consola mínima sobre el motor de catálogo y revisiones. La interfaz
// gráfica queda fuera; esto solo encadena consulta -> decisión -> registro.
func main() {
	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "no se pudo iniciar el logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("configuración no válida", zap.Error(err))
	}

	var catalogo repository.CatalogRepository
	if cfg.RutaDB == "" {
		catalogo = storage.NewMemoryCatalogRepository()
		log.Warn("sin CONTADOR_DB_PATH: catálogo en memoria, los datos no se conservan")
	} else {
		catalogo, err = storage.NewSQLiteCatalogRepository(cfg.RutaDB)
		if err != nil {
			log.Fatal("no se pudo abrir el catálogo", zap.Error(err))
		}
	}

	registro, err := ledger.NewXLSXLedgerRepository(cfg.DirRevisiones)
	if err != nil {
		log.Fatal("no se pudo preparar el registro de revisiones", zap.Error(err))
	}

	exportador, err := exporter.NewExcelResultExporter(cfg.DirSalida)
	if err != nil {
		log.Fatal("no se pudo preparar el exportador", zap.Error(err))
	}

	catalogoUC := usecase.NewCatalogUseCase(catalogo, registro, log)
	consultasUC := usecase.NewQueryUseCase(catalogo, exportador, cfg.TamanoBloque, log)
	importacionUC := usecase.NewImportUseCase(catalogo, registro, parser.NewExcelBatchParser(), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rev, ryt, err := catalogoUC.ContadoresHoy(ctx)
	if err == nil {
		fmt.Printf("Contador de Revisiones | REV: %d / RYT: %d\n", rev, ryt)
	}
	fmt.Println("Órdenes: consulta <ean|sku> | buscar <texto> | alta <sku>;<titulo>;<eans> | importar <ruta.xlsx> | salir")

	escaner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !escaner.Scan() {
			return
		}
		linea := strings.TrimSpace(escaner.Text())
		if linea == "" {
			continue
		}
		orden, resto, _ := strings.Cut(linea, " ")

		switch orden {
		case "salir":
			return
		case "consulta":
			consultar(ctx, catalogoUC, resto)
		case "buscar":
			buscar(ctx, consultasUC, resto)
		case "alta":
			alta(ctx, catalogoUC, resto)
		case "importar":
			importar(ctx, importacionUC, resto)
		default:
			fmt.Println("orden desconocida:", orden)
		}
	}
}

func consultar(ctx context.Context, uc usecase.CatalogUseCase, entrada string) {
	productos, err := uc.LookupEANOrSKU(ctx, entrada)
	if err != nil {
		imprimirError(err)
		return
	}
	if len(productos) == 0 {
		fmt.Println("Producto no encontrado; puede darlo de alta con la orden `alta`.")
		return
	}
	for _, p := range productos {
		estado, err := uc.EstadoRevision(ctx, p.SKU)
		if err != nil {
			estado = ""
		}
		fmt.Printf("%s - %s - %s  [%s]\n", p.SKU, p.Titulo, p.EANsCadena(), estado)
	}
}

func buscar(ctx context.Context, uc usecase.QueryUseCase, consulta string) {
	pager, err := uc.Search(ctx, consulta)
	if err != nil {
		imprimirError(err)
		return
	}
	fmt.Println(pager.Titulo())
	bloque := pager.NextBlock()
	for _, p := range bloque {
		fmt.Printf("%s - %s - %s\n", p.SKU, p.Titulo, p.EANsCadena())
	}
	if pager.HasMore() {
		fmt.Printf("... %d resultados más; afine la búsqueda o exporte el conjunto\n", pager.Total()-len(bloque))
	}
}

func alta(ctx context.Context, uc usecase.CatalogUseCase, resto string) {
	partes := strings.SplitN(resto, ";", 3)
	for len(partes) < 3 {
		partes = append(partes, "")
	}
	producto, colisiones, err := uc.AddProduct(ctx, partes[0], partes[1], partes[2])
	if err != nil {
		imprimirError(err)
		return
	}
	for _, c := range colisiones {
		fmt.Printf("Aviso: el EAN %q ya está asociado al producto SKU %q (%s)\n", c.EAN, c.SKU, c.Titulo)
	}
	fmt.Printf("Producto %s añadido correctamente.\n", producto.SKU)
}

func importar(ctx context.Context, uc usecase.ImportUseCase, ruta string) {
	filas, err := uc.LoadBatch(ctx, strings.TrimSpace(ruta))
	if err != nil {
		imprimirError(err)
		return
	}

	_, faltantes, err := uc.Verify(ctx, filas)
	if err != nil {
		imprimirError(err)
		return
	}
	if len(faltantes) > 0 {
		registrados, _, err := uc.RegisterMissing(ctx, faltantes)
		if err != nil {
			imprimirError(err)
			return
		}
		fmt.Printf("%d productos registrados en DB correctamente.\n", registrados)
	}

	form := entity.FormState{CantidadNeta: 1, Unidad: entity.UnidadUND}
	resultado, err := uc.Execute(ctx, filas, entity.EstadoSoloRevision, form)
	if err != nil {
		imprimirError(err)
	}
	if resultado != nil {
		fmt.Printf("Importación Masiva Completada: %d productos (%d fallidos, %d omitidos)\n",
			resultado.Importados, resultado.Fallidos, resultado.Omitidos)
	}
}

func imprimirError(err error) {
	switch {
	case errors.Is(err, entity.ErrRecursoBloqueado):
		fmt.Println("El recurso está en uso por otro proceso. Ciérrelo y vuelva a intentarlo.")
	case errors.Is(err, entity.ErrValidacion):
		fmt.Println("Entrada no válida:", err)
	default:
		fmt.Println("Error:", err)
	}
}

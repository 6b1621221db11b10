package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"artesanos/internal/models"
)

type Storage struct {
	pool *pgxpool.Pool
}

func NewStorage(ctx context.Context, dsn string) (*Storage, error) {
	const op = "storage.NewStorage"

	if err := runMigrations(dsn); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
}

const productColumns = `id, artesano_id, nombre, descripcion, precio, categoria, stock,
	imagenes, thumbnail, activo, created_at, updated_at`

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.ArtesanoID, &p.Nombre, &p.Descripcion, &p.Precio, &p.Categoria, &p.Stock,
		&p.Imagenes, &p.Thumbnail, &p.Activo, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Storage) CreateProduct(ctx context.Context, p *models.Product) error {
	const op = "storage.CreateProduct"

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO productos (id, artesano_id, nombre, descripcion, precio, categoria, stock, imagenes, activo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.ArtesanoID, p.Nombre, p.Descripcion, p.Precio, p.Categoria, p.Stock, p.Imagenes, p.Activo,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	const op = "storage.GetProduct"

	p, err := scanProduct(s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM productos WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *Storage) ListProductsByArtisan(ctx context.Context, artesanoID string) ([]models.Product, error) {
	const op = "storage.ListProductsByArtisan"

	rows, err := s.pool.Query(ctx,
		`SELECT `+productColumns+` FROM productos WHERE artesano_id = $1 ORDER BY created_at DESC`, artesanoID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// ListActiveProducts is the public catalogue, newest first. An empty categoria
// or "Todas" matches every category; q matches the name case-insensitively.
func (s *Storage) ListActiveProducts(ctx context.Context, categoria, q string) ([]models.Product, error) {
	const op = "storage.ListActiveProducts"

	categoria = models.NormalizeCategory(categoria)
	if categoria == models.AllCategories {
		categoria = ""
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+productColumns+` FROM productos
		 WHERE activo AND ($1 = '' OR categoria = $1) AND nombre ILIKE $2
		 ORDER BY created_at DESC`, categoria, likePattern(q))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns free text into a substring ILIKE pattern.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(q)) + "%"
}

// UpdateProduct overwrites the editable fields, including the ordered image
// list. Only the owning artisan's row is touched.
func (s *Storage) UpdateProduct(ctx context.Context, p *models.Product) error {
	const op = "storage.UpdateProduct"

	p.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE productos SET nombre = $3, descripcion = $4, precio = $5, categoria = $6, stock = $7,
		 imagenes = $8, activo = $9, updated_at = $10
		 WHERE id = $1 AND artesano_id = $2`,
		p.ID, p.ArtesanoID, p.Nombre, p.Descripcion, p.Precio, p.Categoria, p.Stock, p.Imagenes, p.Activo, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// SetThumbnail records a thumbnail only if primary is still the first image.
func (s *Storage) SetThumbnail(ctx context.Context, id uuid.UUID, primary, thumbnail string) error {
	const op = "storage.SetThumbnail"

	_, err := s.pool.Exec(ctx,
		`UPDATE productos SET thumbnail = $3 WHERE id = $1 AND imagenes[1] = $2`, id, primary, thumbnail)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) DeleteProduct(ctx context.Context, id uuid.UUID, artesanoID string) error {
	const op = "storage.DeleteProduct"

	tag, err := s.pool.Exec(ctx, `DELETE FROM productos WHERE id = $1 AND artesano_id = $2`, id, artesanoID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

func (s *Storage) GetArtisan(ctx context.Context, id string) (*models.Artisan, error) {
	const op = "storage.GetArtisan"

	var a models.Artisan
	err := s.pool.QueryRow(ctx,
		`SELECT id, nombre, nombre_tienda, ubicacion, telefono, datos_pago_movil, datos_zelle, updated_at
		 FROM artesanos WHERE id = $1`, id).
		Scan(&a.ID, &a.Nombre, &a.NombreTienda, &a.Ubicacion, &a.Telefono, &a.DatosPagoMovil, &a.DatosZelle, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &a, nil
}

// SaveArtisan creates or replaces the artisan's store and payment profile.
// Nil payment blocks are stored as NULL, withdrawing that method.
func (s *Storage) SaveArtisan(ctx context.Context, a *models.Artisan) error {
	const op = "storage.SaveArtisan"

	a.UpdatedAt = time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO artesanos (id, nombre, nombre_tienda, ubicacion, telefono, datos_pago_movil, datos_zelle, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET nombre = EXCLUDED.nombre, nombre_tienda = EXCLUDED.nombre_tienda,
		 ubicacion = EXCLUDED.ubicacion, telefono = EXCLUDED.telefono,
		 datos_pago_movil = EXCLUDED.datos_pago_movil, datos_zelle = EXCLUDED.datos_zelle,
		 updated_at = EXCLUDED.updated_at`,
		a.ID, a.Nombre, a.NombreTienda, a.Ubicacion, a.Telefono, a.DatosPagoMovil, a.DatosZelle, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

const orderColumns = `id, numero_pedido, producto_id, artesano_id, nombre_comprador, telefono_comprador,
	direccion_comprador, monto, metodo_pago, referencia_pago, estado, created_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.NumeroPedido, &o.ProductoID, &o.ArtesanoID, &o.NombreComprador, &o.TelefonoComprador,
		&o.DireccionComprador, &o.Monto, &o.MetodoPago, &o.ReferenciaPago, &o.Estado, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Storage) CreateOrder(ctx context.Context, o *models.Order) error {
	const op = "storage.CreateOrder"

	o.ID = uuid.New()
	o.CreatedAt = time.Now().UTC()
	o.NumeroPedido = OrderNumber(o.CreatedAt, o.ID)
	o.Estado = models.OrderPending

	_, err := s.pool.Exec(ctx,
		`INSERT INTO pedidos (id, numero_pedido, producto_id, artesano_id, nombre_comprador, telefono_comprador,
		 direccion_comprador, monto, metodo_pago, referencia_pago, estado, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, o.NumeroPedido, o.ProductoID, o.ArtesanoID, o.NombreComprador, o.TelefonoComprador,
		o.DireccionComprador, o.Monto, string(o.MetodoPago), o.ReferenciaPago, string(o.Estado), o.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) GetOrder(ctx context.Context, id uuid.UUID, artesanoID string) (*models.Order, error) {
	const op = "storage.GetOrder"

	o, err := scanOrder(s.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM pedidos WHERE id = $1 AND artesano_id = $2`, id, artesanoID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

func (s *Storage) ListOrdersByArtisan(ctx context.Context, artesanoID string) ([]models.Order, error) {
	const op = "storage.ListOrdersByArtisan"

	rows, err := s.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM pedidos WHERE artesano_id = $1 ORDER BY created_at DESC`, artesanoID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// UpdateOrderStatus moves an order from one status to the next. The from
// status guards against two concurrent advances.
func (s *Storage) UpdateOrderStatus(ctx context.Context, id uuid.UUID, artesanoID string, from, to models.OrderStatus) error {
	const op = "storage.UpdateOrderStatus"

	tag, err := s.pool.Exec(ctx,
		`UPDATE pedidos SET estado = $4 WHERE id = $1 AND artesano_id = $2 AND estado = $3`,
		id, artesanoID, string(from), string(to))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrBadTransition)
	}
	return nil
}

// OrderNumber renders the human facing order number, e.g. PED-20261017-3F2A9C.
func OrderNumber(at time.Time, id uuid.UUID) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	return fmt.Sprintf("PED-%s-%s", at.Format("20060102"), strings.ToUpper(hex[:6]))
}
